package object

type Class struct {
	Name    string
	Methods map[string]*Function
}

// Implement the value.Value interface
// --------------------------------------------------------
func (*Class) LoxValueMarkerFunc() {}

func (c *Class) String() string {
	return c.Name
}

// --------------------------------------------------------

func NewClass(name string, methods map[string]*Function) *Class {
	return &Class{Name: name, Methods: methods}
}

// Calling a class runs its 'init' method, so the class arity is the
// initializer's arity.
func (c *Class) Arity() int {
	if init, ok := c.Methods["init"]; ok {
		return init.Arity()
	}

	return 0
}

func (c *Class) FindMethod(name string) *Function {
	if method, ok := c.Methods[name]; ok {
		return method
	}

	return nil
}
