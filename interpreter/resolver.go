package interpreter

import (
	"github.com/thomasha1310/jlox-interpreter/ast"
	"github.com/thomasha1310/jlox-interpreter/report"
	"github.com/thomasha1310/jlox-interpreter/token"
	"github.com/thomasha1310/jlox-interpreter/util"
)

type functionKind uint8

const (
	kindNoFunction functionKind = iota
	kindFunction
	kindMethod
	kindInitializer
)

type classKind uint8

const (
	kindNoClass classKind = iota
	kindClass
)

// Resolver statically binds variable references to scope depths before
// evaluation. It walks the tree without evaluating anything and records
// each resolved reference in the interpreter's locals table. Globals are
// never tracked, a miss means the reference resolves at runtime against
// the global environment.
type Resolver struct {
	interp *Interpreter

	// Each scope maps a lexeme to whether its initializer has completed:
	// false = declared, true = defined and readable.
	scopes []map[string]bool

	currentFunction functionKind
	currentClass    classKind

	reporter *report.Reporter
}

func NewResolver(interp *Interpreter, reporter *report.Reporter) *Resolver {
	return &Resolver{
		interp:          interp,
		scopes:          make([]map[string]bool, 0, 8),
		currentFunction: kindNoFunction,
		currentClass:    kindNoClass,
		reporter:        reporter,
	}
}

func (r *Resolver) Resolve(statements []ast.Stmt) {
	for _, stmt := range statements {
		r.resolveStmt(stmt)
	}
}

// Statement resolution
// --------------------------------------------------------
func (r *Resolver) VisitBlockStmt(s *ast.Block) {
	r.beginScope()
	r.Resolve(s.Statements)
	r.endScope()
}

func (r *Resolver) VisitVarStmt(s *ast.Var) {
	r.declare(s.Name)
	if s.Initializer != nil {
		r.resolveExpr(s.Initializer)
	}
	r.define(s.Name)
}

func (r *Resolver) VisitFunctionStmt(s *ast.Function) {
	// Define eagerly so the function can recurse into itself.
	r.declare(s.Name)
	r.define(s.Name)

	r.resolveFunction(s, kindFunction)
}

func (r *Resolver) VisitClassStmt(s *ast.Class) {
	r.declare(s.Name)
	r.define(s.Name)

	oldClass := r.currentClass
	r.currentClass = kindClass
	defer func() { r.currentClass = oldClass }()

	// 'this' lives in a scope enclosing every method body.
	r.beginScope()
	(*util.Last(r.scopes))["this"] = true

	for _, method := range s.Methods {
		kind := kindMethod
		if method.Name.Lexeme == "init" {
			kind = kindInitializer
		}
		r.resolveFunction(method, kind)
	}

	r.endScope()
}

func (r *Resolver) VisitExpressionStmt(s *ast.Expression) {
	r.resolveExpr(s.Expression)
}

func (r *Resolver) VisitPrintStmt(s *ast.Print) {
	r.resolveExpr(s.Expression)
}

func (r *Resolver) VisitIfStmt(s *ast.If) {
	r.resolveExpr(s.Condition)
	r.resolveStmt(s.ThenBranch)
	if s.ElseBranch != nil {
		r.resolveStmt(s.ElseBranch)
	}
}

func (r *Resolver) VisitWhileStmt(s *ast.While) {
	r.resolveExpr(s.Condition)
	r.resolveStmt(s.Body)
}

func (r *Resolver) VisitBreakStmt(s *ast.Break) {
	// Validity is enforced by the parser.
}

func (r *Resolver) VisitReturnStmt(s *ast.Return) {
	if r.currentFunction == kindNoFunction {
		r.reporter.ErrorAt(s.Keyword, "Can't return from top-level code.")
	}

	if s.Value != nil {
		if r.currentFunction == kindInitializer {
			r.reporter.ErrorAt(s.Keyword, "Can't return a value from an initializer.")
		}
		r.resolveExpr(s.Value)
	}
}

// Expression resolution
// --------------------------------------------------------
func (r *Resolver) VisitVariableExpr(e *ast.Variable) any {
	if len(r.scopes) > 0 {
		if defined, declared := (*util.Last(r.scopes))[e.Name.Lexeme]; declared && !defined {
			r.reporter.ErrorAt(e.Name,
				"Can't read local variable in its own initializer.")
		}
	}

	r.resolveLocal(e, e.Name.Lexeme)
	return nil
}

func (r *Resolver) VisitAssignExpr(e *ast.Assign) any {
	r.resolveExpr(e.Value)
	r.resolveLocal(e, e.Name.Lexeme)
	return nil
}

func (r *Resolver) VisitThisExpr(e *ast.This) any {
	if r.currentClass == kindNoClass {
		r.reporter.ErrorAt(e.Keyword, "Can't use 'this' outside of a class.")
		return nil
	}

	r.resolveLocal(e, e.Keyword.Lexeme)
	return nil
}

func (r *Resolver) VisitLogicalExpr(e *ast.Logical) any {
	r.resolveExpr(e.Left)
	r.resolveExpr(e.Right)
	return nil
}

func (r *Resolver) VisitBinaryExpr(e *ast.Binary) any {
	r.resolveExpr(e.Left)
	r.resolveExpr(e.Right)
	return nil
}

func (r *Resolver) VisitUnaryExpr(e *ast.Unary) any {
	r.resolveExpr(e.Right)
	return nil
}

func (r *Resolver) VisitCallExpr(e *ast.Call) any {
	r.resolveExpr(e.Callee)
	for _, arg := range e.Arguments {
		r.resolveExpr(arg)
	}
	return nil
}

func (r *Resolver) VisitGetExpr(e *ast.Get) any {
	// Properties are looked up dynamically, only the object resolves.
	r.resolveExpr(e.Object)
	return nil
}

func (r *Resolver) VisitSetExpr(e *ast.Set) any {
	r.resolveExpr(e.Value)
	r.resolveExpr(e.Object)
	return nil
}

func (r *Resolver) VisitGroupingExpr(e *ast.Grouping) any {
	r.resolveExpr(e.Expr)
	return nil
}

func (r *Resolver) VisitLiteralExpr(e *ast.Literal) any {
	return nil
}

// Scope management
// --------------------------------------------------------
func (r *Resolver) beginScope() {
	r.scopes = append(r.scopes, map[string]bool{})
}

func (r *Resolver) endScope() {
	util.Pop(&r.scopes)
}

func (r *Resolver) declare(name token.Token) {
	// Globals are not tracked, redeclaration there is allowed.
	if len(r.scopes) == 0 {
		return
	}

	scope := *util.Last(r.scopes)
	if _, ok := scope[name.Lexeme]; ok {
		r.reporter.ErrorAt(name,
			"Already a variable with this name in this scope.")
	}

	scope[name.Lexeme] = false
}

func (r *Resolver) define(name token.Token) {
	if len(r.scopes) == 0 {
		return
	}

	(*util.Last(r.scopes))[name.Lexeme] = true
}

// Scans scopes innermost to outermost; the first scope holding the name
// fixes the depth. A miss leaves the expression unresolved (global).
func (r *Resolver) resolveLocal(expr ast.Expr, name string) {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if _, ok := r.scopes[i][name]; ok {
			r.interp.resolve(expr, len(r.scopes)-1-i)
			return
		}
	}
}

func (r *Resolver) resolveFunction(fn *ast.Function, kind functionKind) {
	oldFunction := r.currentFunction
	r.currentFunction = kind
	defer func() { r.currentFunction = oldFunction }()

	r.beginScope()
	for _, param := range fn.Params {
		r.declare(param)
		r.define(param)
	}
	r.Resolve(fn.Body)
	r.endScope()
}

// Utility methods
// --------------------------------------------------------
func (r *Resolver) resolveStmt(s ast.Stmt) {
	s.Accept(r)
}

func (r *Resolver) resolveExpr(e ast.Expr) {
	e.Accept(r)
}
