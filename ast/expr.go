package ast

import (
	"github.com/thomasha1310/jlox-interpreter/token"
)

// Expression nodes are allocated once by the parser and shared by pointer,
// so a node's address is the stable identity the resolver keys its
// scope-depth table on.
type Expr interface {
	Accept(ExprVisitor) any
}

type ExprVisitor interface {
	VisitAssignExpr(e *Assign) any
	VisitLogicalExpr(e *Logical) any
	VisitBinaryExpr(e *Binary) any
	VisitUnaryExpr(e *Unary) any
	VisitCallExpr(e *Call) any
	VisitGetExpr(e *Get) any
	VisitSetExpr(e *Set) any
	VisitThisExpr(e *This) any
	VisitGroupingExpr(e *Grouping) any
	VisitLiteralExpr(e *Literal) any
	VisitVariableExpr(e *Variable) any
}

type Assign struct {
	Name  token.Token
	Value Expr
}

type Logical struct {
	Operator    token.Token
	Left, Right Expr
}

type Binary struct {
	Operator    token.Token
	Left, Right Expr
}

type Unary struct {
	Operator token.Token
	Right    Expr
}

type Call struct {
	Callee    Expr
	Paren     token.Token
	Arguments []Expr
}

type Get struct {
	Object Expr
	Name   token.Token
}

type Set struct {
	Object Expr
	Name   token.Token
	Value  Expr
}

// this, grouping, variable and literal are primary expressions.

type This struct {
	Keyword token.Token
}

type Grouping struct {
	Expr Expr
}

type Variable struct {
	Name token.Token
}

type Literal struct {
	Value any
}

// Implement the Expr interface for each expression type we have.
func (e *Assign) Accept(v ExprVisitor) any   { return v.VisitAssignExpr(e) }
func (e *Logical) Accept(v ExprVisitor) any  { return v.VisitLogicalExpr(e) }
func (e *Binary) Accept(v ExprVisitor) any   { return v.VisitBinaryExpr(e) }
func (e *Unary) Accept(v ExprVisitor) any    { return v.VisitUnaryExpr(e) }
func (e *Call) Accept(v ExprVisitor) any     { return v.VisitCallExpr(e) }
func (e *Get) Accept(v ExprVisitor) any      { return v.VisitGetExpr(e) }
func (e *Set) Accept(v ExprVisitor) any      { return v.VisitSetExpr(e) }
func (e *This) Accept(v ExprVisitor) any     { return v.VisitThisExpr(e) }
func (e *Grouping) Accept(v ExprVisitor) any { return v.VisitGroupingExpr(e) }
func (e *Literal) Accept(v ExprVisitor) any  { return v.VisitLiteralExpr(e) }
func (e *Variable) Accept(v ExprVisitor) any { return v.VisitVariableExpr(e) }
