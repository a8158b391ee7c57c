package value

import (
	"math"
	"strconv"
)

// The lox value interface, every value stored in any variable
// must be of this type(implement this interface).
// Object types (functions, classes, instances) live in the object
// package and are stored as pointers, so interface equality compares
// their identity.
type Value interface {
	String() string
	LoxValueMarkerFunc()
}

// Panic thrown with this type on invalid logical or mathematical operation.
// Checks are performed before calling any of the operations below, this
// type only carries information in the case of a crash.
type TypeError struct{}

// Primitive value types, that are: Nil, Boolean, Number and String are
// defined in terms of go primitive types and are stored by value.

type Nil struct{}
type Boolean bool
type Number float64
type String string

// Implement the value.Value interface for primitive types.
// --------------------------------------------------------
func (Nil) LoxValueMarkerFunc()     {}
func (Boolean) LoxValueMarkerFunc() {}
func (Number) LoxValueMarkerFunc()  {}
func (String) LoxValueMarkerFunc()  {}

func (n Nil) String() string {
	return "nil"
}

func (b Boolean) String() string {
	if b {
		return "true"
	} else {
		return "false"
	}
}

// Decimal form, integral values print without a fractional part.
func (n Number) String() string {
	return strconv.FormatFloat(float64(n), 'f', -1, 64)
}

func (s String) String() string {
	return string(s)
}

// Logical operations for value.
// --------------------------------------------------------

// Nil and false are falsey, every other value is truthy.
func Truthiness(s Value) bool {
	switch v := s.(type) {
	case Nil:
		return false
	case Boolean:
		return bool(v)

	default:
		return true
	}
}

func EqualTo(s, t Value) bool {
	// Two values are equal only if their types and stored values are equal.
	// For primitive types this works since they are stored by value.
	// Object types are stored as pointers in the Value, so two objects
	// compare equal only if they are the same underlying object.
	// Cross-type comparisons are false, never an error.
	return s == t
}

func LessThan(s, t Value) bool {
	switch u := s.(type) {
	case Number:
		switch v := t.(type) {
		case Number:
			return u < v
		}
	}

	panic(TypeError{})
}

func GreaterThan(s, t Value) bool {
	switch u := s.(type) {
	case Number:
		switch v := t.(type) {
		case Number:
			return u > v
		}
	}

	panic(TypeError{})
}

// Mathematical operations for value.
// --------------------------------------------------------
func Neg(s Value) Value {
	switch u := s.(type) {
	case Number:
		return -u
	}

	panic(TypeError{})
}

func Add(s, t Value) Value {
	switch u := s.(type) {
	case Number:
		switch v := t.(type) {
		case Number:
			return u + v
		}
	}

	panic(TypeError{})
}

func Sub(s, t Value) Value {
	switch u := s.(type) {
	case Number:
		switch v := t.(type) {
		case Number:
			return u - v
		}
	}

	panic(TypeError{})
}

func Mul(s, t Value) Value {
	switch u := s.(type) {
	case Number:
		switch v := t.(type) {
		case Number:
			return u * v
		}
	}

	panic(TypeError{})
}

func Div(s, t Value) Value {
	switch u := s.(type) {
	case Number:
		switch v := t.(type) {
		case Number:
			return u / v
		}
	}

	panic(TypeError{})
}

// Remainder with the sign of the dividend, like math.Mod.
func Rem(s, t Value) Value {
	switch u := s.(type) {
	case Number:
		switch v := t.(type) {
		case Number:
			return Number(math.Mod(float64(u), float64(v)))
		}
	}

	panic(TypeError{})
}
