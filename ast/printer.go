package ast

import "fmt"

// Printer renders expressions as s-expressions, used by tests and
// for debugging parser output.
type Printer struct{}

func (p Printer) Print(e Expr) string {
	return e.Accept(p).(string)
}

func (p Printer) VisitAssignExpr(e *Assign) any {
	return parens("=", e.Name.Lexeme, p.Print(e.Value))
}

func (p Printer) VisitLogicalExpr(e *Logical) any {
	return parens(e.Operator.Lexeme, p.Print(e.Left), p.Print(e.Right))
}

func (p Printer) VisitBinaryExpr(e *Binary) any {
	return parens(e.Operator.Lexeme, p.Print(e.Left), p.Print(e.Right))
}

func (p Printer) VisitUnaryExpr(e *Unary) any {
	return parens(e.Operator.Lexeme, p.Print(e.Right))
}

func (p Printer) VisitCallExpr(e *Call) any {
	args := []string{"call", p.Print(e.Callee)}

	for _, arg := range e.Arguments {
		args = append(args, p.Print(arg))
	}

	return parens(args...)
}

func (p Printer) VisitGetExpr(e *Get) any {
	return parens("get", p.Print(e.Object), e.Name.Lexeme)
}

func (p Printer) VisitSetExpr(e *Set) any {
	return parens("set", p.Print(e.Object), e.Name.Lexeme, p.Print(e.Value))
}

func (p Printer) VisitThisExpr(e *This) any {
	return "this"
}

func (p Printer) VisitGroupingExpr(e *Grouping) any {
	return parens("group", p.Print(e.Expr))
}

func (p Printer) VisitLiteralExpr(e *Literal) any {
	switch v := e.Value.(type) {
	case nil:
		return "nil"
	case string:
		return fmt.Sprintf("%q", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func (p Printer) VisitVariableExpr(e *Variable) any {
	return e.Name.Lexeme
}

func parens(frags ...string) string {
	ret := "("

	for i, frag := range frags {
		ret += frag

		if i != len(frags)-1 {
			ret += " "
		} else {
			ret += ")"
		}
	}

	return ret
}
