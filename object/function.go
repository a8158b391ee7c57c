package object

import (
	"fmt"

	"github.com/thomasha1310/jlox-interpreter/ast"
	"github.com/thomasha1310/jlox-interpreter/value"
)

// Callable is the protocol shared by user functions, native functions
// and classes acting as constructors. Invocation itself lives in the
// interpreter, which needs to execute bodies.
type Callable interface {
	value.Value
	Arity() int
}

type Function struct {
	Declaration *ast.Function
	Closure     *Environment
	IsInit      bool // Is class constructor?
}

// Implement the value.Value interface
// --------------------------------------------------------
func (*Function) LoxValueMarkerFunc() {}

func (f *Function) String() string {
	return fmt.Sprintf("<fn %v>", f.Declaration.Name.Lexeme)
}

// --------------------------------------------------------

func NewFunction(decl *ast.Function, closure *Environment, isInit bool) *Function {
	return &Function{
		Declaration: decl,
		Closure:     closure,
		IsInit:      isInit,
	}
}

func (f *Function) Arity() int {
	return len(f.Declaration.Params)
}

// Bind creates a copy of the function whose closure is extended with a
// scope holding 'this', turning the function into a bound method.
func (f *Function) Bind(instance *Instance) *Function {
	env := NewEnvironment(f.Closure)
	env.Define("this", instance)

	return &Function{Declaration: f.Declaration, Closure: env, IsInit: f.IsInit}
}
