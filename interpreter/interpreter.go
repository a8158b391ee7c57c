package interpreter

import (
	"fmt"
	"io"
	"os"

	"github.com/thomasha1310/jlox-interpreter/ast"
	"github.com/thomasha1310/jlox-interpreter/object"
	"github.com/thomasha1310/jlox-interpreter/report"
	"github.com/thomasha1310/jlox-interpreter/token"
	"github.com/thomasha1310/jlox-interpreter/value"
)

type Interpreter struct {
	globals     *object.Environment
	environment *object.Environment

	// Scope depth per resolved expression, filled by the resolver.
	// Only Variable, Assign and This expressions appear as keys,
	// absence means the reference is global.
	locals map[ast.Expr]int

	// Destination of 'print' statements.
	Out io.Writer

	reporter *report.Reporter
}

// Runtime error carrying the token anchoring its source location.
// Thrown as a panic and caught at the top of Interpret.
type loxError struct {
	Token   token.Token
	Message string
}

// Control-flow signals, caught exactly at loop/call boundaries.
type breakSignal struct{}
type returnSignal struct{ Value value.Value }

func NewInterpreter(reporter *report.Reporter) *Interpreter {
	globals := object.NewEnvironment(nil)
	for _, native := range object.NativeFunctionsList {
		globals.Define(native.Name, native)
	}

	return &Interpreter{
		globals:     globals,
		environment: globals,
		locals:      map[ast.Expr]int{},
		Out:         os.Stdout,
		reporter:    reporter,
	}
}

// Interpret executes the statements in order. A runtime error aborts the
// remaining statements, is reported, and leaves the interpreter usable
// for the next Interpret call (the REPL case).
func (i *Interpreter) Interpret(statements []ast.Stmt) {
	// Discard any local environments left over from a previous error.
	i.environment = i.globals

	defer func() {
		switch err := recover().(type) {
		case nil:
		case loxError:
			i.reporter.RuntimeError(err.Token, err.Message)
		default:
			panic(err)
		}
	}()

	for _, stmt := range statements {
		i.execute(stmt)
	}
}

// resolve records the scope depth of a variable-referring expression.
func (i *Interpreter) resolve(expr ast.Expr, depth int) {
	i.locals[expr] = depth
}

// Statement execution
// --------------------------------------------------------
func (i *Interpreter) VisitBlockStmt(s *ast.Block) {
	i.executeBlock(s.Statements, object.NewEnvironment(i.environment))
}

func (i *Interpreter) VisitExpressionStmt(s *ast.Expression) {
	i.evaluate(s.Expression)
}

func (i *Interpreter) VisitPrintStmt(s *ast.Print) {
	fmt.Fprintf(i.Out, "%v\n", stringify(i.evaluate(s.Expression)))
}

func (i *Interpreter) VisitVarStmt(s *ast.Var) {
	val := value.Value(value.Nil{})
	if s.Initializer != nil {
		val = i.evaluate(s.Initializer)
	}

	i.environment.Define(s.Name.Lexeme, val)
}

func (i *Interpreter) VisitIfStmt(s *ast.If) {
	if value.Truthiness(i.evaluate(s.Condition)) {
		i.execute(s.ThenBranch)
	} else if s.ElseBranch != nil {
		i.execute(s.ElseBranch)
	}
}

func (i *Interpreter) VisitWhileStmt(s *ast.While) {
	// 'break' unwinds to here.
	defer func() {
		switch r := recover().(type) {
		case nil:
		case breakSignal:
		default:
			panic(r)
		}
	}()

	for value.Truthiness(i.evaluate(s.Condition)) {
		i.execute(s.Body)
	}
}

func (i *Interpreter) VisitBreakStmt(s *ast.Break) {
	panic(breakSignal{})
}

func (i *Interpreter) VisitReturnStmt(s *ast.Return) {
	val := value.Value(value.Nil{})
	if s.Value != nil {
		val = i.evaluate(s.Value)
	}

	panic(returnSignal{Value: val})
}

func (i *Interpreter) VisitFunctionStmt(s *ast.Function) {
	fun := object.NewFunction(s, i.environment, false)
	i.environment.Define(s.Name.Lexeme, fun)
}

func (i *Interpreter) VisitClassStmt(s *ast.Class) {
	// Two-step binding so methods can refer to the class by name.
	i.environment.Define(s.Name.Lexeme, value.Nil{})

	methods := map[string]*object.Function{}
	for _, method := range s.Methods {
		isInit := method.Name.Lexeme == "init"
		methods[method.Name.Lexeme] = object.NewFunction(method, i.environment, isInit)
	}

	class := object.NewClass(s.Name.Lexeme, methods)
	i.environment.Assign(s.Name.Lexeme, class)
}

// Expression evaluation
// --------------------------------------------------------
func (i *Interpreter) VisitLiteralExpr(e *ast.Literal) any {
	switch v := e.Value.(type) {
	case nil:
		return value.Value(value.Nil{})
	case bool:
		return value.Value(value.Boolean(v))
	case float64:
		return value.Value(value.Number(v))
	case string:
		return value.Value(value.String(v))
	default:
		panic("Invalid literal value in expression.")
	}
}

func (i *Interpreter) VisitGroupingExpr(e *ast.Grouping) any {
	return i.evaluate(e.Expr)
}

func (i *Interpreter) VisitUnaryExpr(e *ast.Unary) any {
	right := i.evaluate(e.Right)

	switch e.Operator.Kind {
	case token.BANG:
		return value.Value(value.Boolean(!value.Truthiness(right)))

	case token.MINUS:
		if !hasType[value.Number](right, right) {
			panic(i.makeError(e.Operator, "Operand must be a number."))
		}
		return value.Neg(right)

	default:
		panic("Invalid operator token in unary expression.")
	}
}

func (i *Interpreter) VisitBinaryExpr(e *ast.Binary) any {
	left := i.evaluate(e.Left)
	right := i.evaluate(e.Right)

	checkNums := func() {
		if hasType[value.Number](left, right) {
			return
		}
		panic(i.makeError(e.Operator, "Operands must be numbers."))
	}

	checkNonZero := func() {
		if right == value.Value(value.Number(0)) {
			panic(i.makeError(e.Operator, "Cannot divide by zero."))
		}
	}

	switch e.Operator.Kind {
	case token.PLUS:
		// If either side is a string, concatenate the stringified forms.
		_, lStr := left.(value.String)
		_, rStr := right.(value.String)
		if lStr || rStr {
			return value.Value(value.String(stringify(left) + stringify(right)))
		}
		if hasType[value.Number](left, right) {
			return value.Add(left, right)
		}
		panic(i.makeError(e.Operator,
			"Operands must be two numbers or include a string."))

	case token.MINUS:
		checkNums()
		return value.Sub(left, right)
	case token.STAR:
		checkNums()
		return value.Mul(left, right)
	case token.SLASH:
		checkNums()
		checkNonZero()
		return value.Div(left, right)
	case token.PERCENT:
		checkNums()
		checkNonZero()
		return value.Rem(left, right)

	case token.GREATER:
		checkNums()
		return value.Value(value.Boolean(value.GreaterThan(left, right)))
	case token.GREATER_EQUAL:
		checkNums()
		return value.Value(value.Boolean(!value.LessThan(left, right)))
	case token.LESS:
		checkNums()
		return value.Value(value.Boolean(value.LessThan(left, right)))
	case token.LESS_EQUAL:
		checkNums()
		return value.Value(value.Boolean(!value.GreaterThan(left, right)))

	case token.EQUAL_EQUAL:
		return value.Value(value.Boolean(value.EqualTo(left, right)))
	case token.BANG_EQUAL:
		return value.Value(value.Boolean(!value.EqualTo(left, right)))

	default:
		panic("Invalid operator token in binary expression.")
	}
}

func (i *Interpreter) VisitLogicalExpr(e *ast.Logical) any {
	left := i.evaluate(e.Left)

	// Return the operand which decides the truth value of the whole
	// expression, not a boolean.
	switch e.Operator.Kind {
	case token.OR:
		if value.Truthiness(left) {
			return left
		}
	case token.AND:
		if !value.Truthiness(left) {
			return left
		}
	default:
		panic("Invalid operator in logical expression.")
	}

	return i.evaluate(e.Right)
}

func (i *Interpreter) VisitVariableExpr(e *ast.Variable) any {
	return i.lookUpVariable(e.Name, e)
}

func (i *Interpreter) VisitThisExpr(e *ast.This) any {
	return i.lookUpVariable(e.Keyword, e)
}

func (i *Interpreter) VisitAssignExpr(e *ast.Assign) any {
	val := i.evaluate(e.Value)

	if distance, ok := i.locals[ast.Expr(e)]; ok {
		i.environment.AssignAt(distance, e.Name.Lexeme, val)
	} else if !i.globals.Assign(e.Name.Lexeme, val) {
		panic(i.makeError(e.Name,
			fmt.Sprintf("Undefined variable '%v'.", e.Name.Lexeme)))
	}

	return val
}

func (i *Interpreter) VisitCallExpr(e *ast.Call) any {
	callee := i.evaluate(e.Callee)

	args := make([]value.Value, 0, len(e.Arguments))
	for _, arg := range e.Arguments {
		args = append(args, i.evaluate(arg))
	}

	callable, ok := callee.(object.Callable)
	if !ok {
		panic(i.makeError(e.Paren, "Can only call functions and classes."))
	}

	if callable.Arity() != len(args) {
		panic(i.makeError(e.Paren, fmt.Sprintf(
			"Expected %v arguments but got %v.", callable.Arity(), len(args),
		)))
	}

	switch fun := callable.(type) {
	case *object.Function:
		return i.callFunction(fun, args)
	case *object.NativeFunction:
		return fun.Call(args)
	case *object.Class:
		instance := object.NewInstance(fun)
		if init := fun.FindMethod("init"); init != nil {
			i.callFunction(init.Bind(instance), args)
		}
		return value.Value(instance)
	default:
		panic("Unknown callable type in call expression.")
	}
}

func (i *Interpreter) VisitGetExpr(e *ast.Get) any {
	instance, ok := i.evaluate(e.Object).(*object.Instance)
	if !ok {
		panic(i.makeError(e.Name, "Only instances have properties."))
	}

	if val, ok := instance.Get(e.Name.Lexeme); ok {
		return val
	}

	panic(i.makeError(e.Name,
		fmt.Sprintf("Undefined property '%v'.", e.Name.Lexeme)))
}

func (i *Interpreter) VisitSetExpr(e *ast.Set) any {
	instance, ok := i.evaluate(e.Object).(*object.Instance)
	if !ok {
		panic(i.makeError(e.Name, "Only instances have fields."))
	}

	val := i.evaluate(e.Value)
	instance.Set(e.Name.Lexeme, val)
	return val
}

// Function invocation
// --------------------------------------------------------
// Runs the function body in a fresh environment enclosed by the closure.
// A return signal is caught here; falling off the end yields nil, except
// for initializers which always yield the bound instance.
func (i *Interpreter) callFunction(f *object.Function, args []value.Value) (ret value.Value) {
	ret = value.Nil{}

	defer func() {
		switch r := recover().(type) {
		case nil:
		case returnSignal:
			if f.IsInit {
				ret = f.Closure.GetAt(0, "this")
			} else {
				ret = r.Value
			}
		default:
			panic(r)
		}
	}()

	env := object.NewEnvironment(f.Closure)
	for n, param := range f.Declaration.Params {
		env.Define(param.Lexeme, args[n])
	}

	i.executeBlock(f.Declaration.Body, env)

	if f.IsInit {
		ret = f.Closure.GetAt(0, "this")
	}
	return
}

// Error reporting methods
// --------------------------------------------------------
func (i *Interpreter) makeError(tok token.Token, message string) loxError {
	return loxError{Token: tok, Message: message}
}

// Utility methods
// --------------------------------------------------------
func (i *Interpreter) execute(s ast.Stmt) {
	s.Accept(i)
}

func (i *Interpreter) evaluate(e ast.Expr) value.Value {
	return e.Accept(i).(value.Value)
}

// Runs the statements in the given environment, restoring the previous
// one on every exit path, including control signals and runtime errors.
func (i *Interpreter) executeBlock(statements []ast.Stmt, env *object.Environment) {
	oldEnv := i.environment
	i.environment = env
	defer func() {
		i.environment = oldEnv
	}()

	for _, stmt := range statements {
		i.execute(stmt)
	}
}

// Reads a variable through the resolver's table, falling back to the
// global environment for unresolved names.
func (i *Interpreter) lookUpVariable(name token.Token, expr ast.Expr) value.Value {
	if distance, ok := i.locals[expr]; ok {
		return i.environment.GetAt(distance, name.Lexeme)
	}

	if val, ok := i.globals.Get(name.Lexeme); ok {
		return val
	}

	panic(i.makeError(name,
		fmt.Sprintf("Undefined variable '%v'.", name.Lexeme)))
}

// Checks if both are of the type given.
func hasType[T value.Value](a, b value.Value) bool {
	_, e := a.(T)
	_, f := b.(T)
	return e && f
}

func stringify(v value.Value) string {
	return v.String()
}
