package object

import (
	"fmt"

	"github.com/thomasha1310/jlox-interpreter/value"
)

type Instance struct {
	Fields map[string]value.Value
	Class  *Class
}

// Implement the value.Value interface
// --------------------------------------------------------
func (*Instance) LoxValueMarkerFunc() {}

func (i *Instance) String() string {
	return fmt.Sprintf("%v instance", i.Class.Name)
}

// --------------------------------------------------------

func NewInstance(class *Class) *Instance {
	return &Instance{Class: class, Fields: map[string]value.Value{}}
}

func (i *Instance) Get(name string) (value.Value, bool) {
	// Fields take precedence over methods.
	if val, ok := i.Fields[name]; ok {
		return val, true
	}

	if method := i.Class.FindMethod(name); method != nil {
		// Binds 'this' so the method can access the instance.
		return method.Bind(i), true
	}

	return nil, false
}

func (i *Instance) Set(name string, val value.Value) {
	i.Fields[name] = val
}
