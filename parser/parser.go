package parser

import (
	"fmt"

	"github.com/thomasha1310/jlox-interpreter/ast"
	"github.com/thomasha1310/jlox-interpreter/report"
	"github.com/thomasha1310/jlox-interpreter/token"
)

const MAX_CALL_PARAMS = 255

type Parser struct {
	tokens  []token.Token
	current int

	// Loops we are currently inside, 'break' is valid only when non-zero.
	loopDepth int

	reporter *report.Reporter
}

// Sentinel thrown on a syntax error, caught at the declaration boundary.
type parseError struct{}

func MakeParser(source string, reporter *report.Reporter) Parser {
	scn := MakeScanner(source, reporter)
	return Parser{tokens: scn.ScanTokens(), reporter: reporter}
}

func (p *Parser) Parse() []ast.Stmt {
	stmts := make([]ast.Stmt, 0)

	for !p.isAtEnd() {
		func() {
			// Synchronize tokens if malformed syntax is detected.
			defer func() {
				switch v := recover().(type) {
				case nil:
				case parseError:
					p.synchronize()
				default:
					panic(v)
				}
			}()

			stmts = append(stmts, p.declaration())
		}()
	}

	return stmts
}

// Statement parsing methods
// --------------------------------------------------------
func (p *Parser) declaration() ast.Stmt {
	switch {
	case p.match(token.CLASS):
		return p.classDeclaration()
	case p.match(token.FUN):
		return p.function("function")
	case p.match(token.VAR):
		return p.varDeclaration()

	default:
		return p.statement()
	}
}

func (p *Parser) classDeclaration() ast.Stmt {
	name := p.consume(token.IDENTIFIER, "Expect class name.")
	p.consume(token.LEFT_BRACE, "Expect '{' before class body.")

	methods := make([]*ast.Function, 0)
	for !p.check(token.RIGHT_BRACE) && !p.isAtEnd() {
		methods = append(methods, p.function("method"))
	}

	p.consume(token.RIGHT_BRACE, "Expect '}' after class body.")
	return &ast.Class{Name: name, Methods: methods}
}

func (p *Parser) function(kind string) *ast.Function {
	name := p.consume(token.IDENTIFIER, "Expect "+kind+" name.")

	p.consume(token.LEFT_PAREN, "Expect '(' after "+kind+" name.")
	params := make([]token.Token, 0)

	if !p.check(token.RIGHT_PAREN) {
		for {
			if len(params) >= MAX_CALL_PARAMS {
				p.errorAt(p.peek(), fmt.Sprintf(
					"Can't have more than %v parameters.", MAX_CALL_PARAMS,
				))
				// Continue after the error as the syntax is well formed.
			}

			params = append(params, p.consume(token.IDENTIFIER, "Expect parameter name."))

			if !p.match(token.COMMA) {
				break
			}
		}
	}
	p.consume(token.RIGHT_PAREN, "Expect ')' after parameters.")

	p.consume(token.LEFT_BRACE, "Expect '{' before "+kind+" body.")
	body := p.block()

	return &ast.Function{Name: name, Params: params, Body: body}
}

func (p *Parser) varDeclaration() ast.Stmt {
	name := p.consume(token.IDENTIFIER, "Expect variable name.")

	var initializer ast.Expr
	if p.match(token.EQUAL) {
		initializer = p.expression()
	}

	p.consume(token.SEMICOLON, "Expect ';' after variable declaration.")
	return &ast.Var{Name: name, Initializer: initializer}
}

func (p *Parser) statement() ast.Stmt {
	switch {
	case p.match(token.FOR):
		return p.forStatement()
	case p.match(token.IF):
		return p.ifStatement()
	case p.match(token.PRINT):
		return p.printStatement()
	case p.match(token.RETURN):
		return p.returnStatement()
	case p.match(token.WHILE):
		return p.whileStatement()
	case p.match(token.BREAK):
		return p.breakStatement()
	case p.match(token.LEFT_BRACE):
		return ast.NewBlock(p.block()...)

	default:
		return p.expressionStatement()
	}
}

// Desugars to: { initializer; while (condition) { body; increment; } }
func (p *Parser) forStatement() ast.Stmt {
	p.consume(token.LEFT_PAREN, "Expect '(' after 'for'.")

	var initializer ast.Stmt
	switch {
	case p.match(token.SEMICOLON):
		initializer = nil
	case p.match(token.VAR):
		initializer = p.varDeclaration()
	default:
		initializer = p.expressionStatement()
	}

	var condition ast.Expr
	if !p.check(token.SEMICOLON) {
		condition = p.expression()
	}
	p.consume(token.SEMICOLON, "Expect ';' after loop condition.")

	var increment ast.Expr
	if !p.check(token.RIGHT_PAREN) {
		increment = p.expression()
	}
	p.consume(token.RIGHT_PAREN, "Expect ')' after for clauses.")

	p.loopDepth++
	defer func() { p.loopDepth-- }()

	body := p.statement()

	if increment != nil {
		body = ast.NewBlock(body, &ast.Expression{Expression: increment})
	}

	if condition == nil {
		condition = &ast.Literal{Value: true}
	}
	body = &ast.While{Condition: condition, Body: body}

	if initializer != nil {
		body = ast.NewBlock(initializer, body)
	}

	return body
}

func (p *Parser) ifStatement() ast.Stmt {
	p.consume(token.LEFT_PAREN, "Expect '(' after 'if'.")
	condition := p.expression()
	p.consume(token.RIGHT_PAREN, "Expect ')' after condition.")

	thenBranch := p.statement()
	var elseBranch ast.Stmt
	if p.match(token.ELSE) {
		elseBranch = p.statement()
	}

	return &ast.If{
		Condition:  condition,
		ThenBranch: thenBranch,
		ElseBranch: elseBranch,
	}
}

func (p *Parser) printStatement() ast.Stmt {
	value := p.expression()
	p.consume(token.SEMICOLON, "Expect ';' after value.")

	return &ast.Print{Expression: value}
}

func (p *Parser) returnStatement() ast.Stmt {
	keyword := p.previous()

	var value ast.Expr
	if !p.check(token.SEMICOLON) {
		value = p.expression()
	}

	p.consume(token.SEMICOLON, "Expect ';' after return value.")
	return &ast.Return{Keyword: keyword, Value: value}
}

func (p *Parser) whileStatement() ast.Stmt {
	p.consume(token.LEFT_PAREN, "Expect '(' after 'while'.")
	condition := p.expression()
	p.consume(token.RIGHT_PAREN, "Expect ')' after condition.")

	p.loopDepth++
	defer func() { p.loopDepth-- }()

	body := p.statement()
	return &ast.While{Condition: condition, Body: body}
}

func (p *Parser) breakStatement() ast.Stmt {
	keyword := p.previous()
	if p.loopDepth == 0 {
		p.errorAt(keyword, "Must be inside a loop to use 'break'.")
		// Continue after the error as the syntax is well formed.
	}

	p.consume(token.SEMICOLON, "Expect ';' after 'break'.")
	return &ast.Break{Keyword: keyword}
}

func (p *Parser) expressionStatement() ast.Stmt {
	expr := p.expression()
	p.consume(token.SEMICOLON, "Expect ';' after expression.")

	return &ast.Expression{Expression: expr}
}

// Parses: declaration* '}'. The '{' must already be consumed.
func (p *Parser) block() []ast.Stmt {
	stmts := make([]ast.Stmt, 0)

	for !p.check(token.RIGHT_BRACE) && !p.isAtEnd() {
		stmts = append(stmts, p.declaration())
	}

	p.consume(token.RIGHT_BRACE, "Expect '}' after block.")
	return stmts
}

// Expression parsing methods
// --------------------------------------------------------
func (p *Parser) expression() ast.Expr {
	return p.assignment()
}

func (p *Parser) assignment() ast.Expr {
	// The '=' can be any number of tokens ahead, so parse the LHS first,
	// then check for an equal sign and verify the assignment target.
	expr := p.logicOr()

	if p.match(token.EQUAL) {
		equals := p.previous()
		value := p.assignment()

		switch target := expr.(type) {
		case *ast.Variable:
			return &ast.Assign{Name: target.Name, Value: value}
		case *ast.Get:
			return &ast.Set{
				Object: target.Object,
				Name:   target.Name,
				Value:  value,
			}
		default:
			p.errorAt(equals, "Invalid assignment target.")
			// Continue after the error as the syntax is well formed.
		}
	} else if p.matchAny(token.PLUS_EQUAL, token.MINUS_EQUAL,
		token.STAR_EQUAL, token.SLASH_EQUAL, token.PERCENT_EQUAL) {
		// Desugar 'x op= e' into 'x = x op e'.
		operator := p.previous()
		value := p.assignment()

		return p.desugarAssign(operator, compoundOperator(operator), expr, value)
	}

	return expr
}

// Helpers for parsing left-associative binary and logical expressions.
func (p *Parser) doBinaryExpr(
	nextRule func() ast.Expr, matches ...token.TokenKind) ast.Expr {
	left := nextRule()

	for p.matchAny(matches...) {
		op := p.previous()
		right := nextRule()

		left = &ast.Binary{Operator: op, Left: left, Right: right}
	}

	return left
}

func (p *Parser) doLogicalExpr(
	nextRule func() ast.Expr, operator token.TokenKind) ast.Expr {
	left := nextRule()

	for p.match(operator) {
		op := p.previous()
		right := nextRule()

		left = &ast.Logical{Operator: op, Left: left, Right: right}
	}

	return left
}

func (p *Parser) logicOr() ast.Expr {
	return p.doLogicalExpr(p.logicAnd, token.OR)
}

func (p *Parser) logicAnd() ast.Expr {
	return p.doLogicalExpr(p.equality, token.AND)
}

func (p *Parser) equality() ast.Expr {
	return p.doBinaryExpr(p.comparison,
		token.BANG_EQUAL, token.EQUAL_EQUAL)
}

func (p *Parser) comparison() ast.Expr {
	return p.doBinaryExpr(p.term,
		token.GREATER, token.GREATER_EQUAL, token.LESS, token.LESS_EQUAL)
}

func (p *Parser) term() ast.Expr {
	return p.doBinaryExpr(p.factor,
		token.MINUS, token.PLUS)
}

func (p *Parser) factor() ast.Expr {
	return p.doBinaryExpr(p.unary,
		token.SLASH, token.STAR, token.PERCENT)
}

func (p *Parser) unary() ast.Expr {
	if p.matchAny(token.BANG, token.MINUS) {
		op := p.previous()
		right := p.unary()
		return &ast.Unary{Operator: op, Right: right}
	}

	return p.postfix()
}

// Parses 'x++' and 'x--', desugaring into 'x = x + 1' / 'x = x - 1'.
func (p *Parser) postfix() ast.Expr {
	expr := p.call()

	for p.matchAny(token.PLUS_PLUS, token.MINUS_MINUS) {
		operator := p.previous()
		one := &ast.Literal{Value: float64(1)}

		expr = p.desugarAssign(operator, compoundOperator(operator), expr, one)
	}

	return expr
}

func (p *Parser) call() ast.Expr {
	// Parses function calls and property access, both left-associative.
	expr := p.primary()

	for {
		if p.match(token.LEFT_PAREN) {
			expr = p.finishCall(expr)
		} else if p.match(token.DOT) {
			name := p.consume(token.IDENTIFIER, "Expect property name after '.'.")
			expr = &ast.Get{Object: expr, Name: name}
		} else {
			break
		}
	}

	return expr
}

// Parses call arguments: (expr (',' expr)*)? ')'
func (p *Parser) finishCall(callee ast.Expr) ast.Expr {
	args := make([]ast.Expr, 0)

	if !p.check(token.RIGHT_PAREN) {
		for {
			if len(args) >= MAX_CALL_PARAMS {
				p.errorAt(p.peek(), fmt.Sprintf(
					"Can't have more than %v arguments.", MAX_CALL_PARAMS,
				))
				// Continue after the error as the syntax is well formed.
			}

			args = append(args, p.expression())

			if !p.match(token.COMMA) {
				break
			}
		}
	}

	paren := p.consume(token.RIGHT_PAREN, "Expect ')' after arguments.")
	return &ast.Call{Callee: callee, Paren: paren, Arguments: args}
}

func (p *Parser) primary() ast.Expr {
	switch {
	case p.match(token.FALSE):
		return &ast.Literal{Value: false}
	case p.match(token.TRUE):
		return &ast.Literal{Value: true}
	case p.match(token.NIL):
		return &ast.Literal{Value: nil}

	case p.matchAny(token.NUMBER, token.STRING):
		return &ast.Literal{Value: p.previous().Literal}

	case p.match(token.THIS):
		return &ast.This{Keyword: p.previous()}

	case p.match(token.IDENTIFIER):
		return &ast.Variable{Name: p.previous()}

	case p.match(token.LEFT_PAREN):
		expr := p.expression()
		p.consume(token.RIGHT_PAREN, "Expect ')' after expression.")
		return &ast.Grouping{Expr: expr}
	}

	panic(p.error(p.peek(), "Expect expression."))
}

// Desugaring helpers
// --------------------------------------------------------

// Builds the assignment node for a desugared compound form:
// target must be a variable or a property access.
func (p *Parser) desugarAssign(
	reported token.Token, operator token.Token, target, operand ast.Expr) ast.Expr {
	binary := &ast.Binary{Operator: operator, Left: target, Right: operand}

	switch t := target.(type) {
	case *ast.Variable:
		return &ast.Assign{Name: t.Name, Value: binary}
	case *ast.Get:
		return &ast.Set{Object: t.Object, Name: t.Name, Value: binary}
	default:
		p.errorAt(reported, "Invalid assignment target.")
		// Continue after the error as the syntax is well formed.
		return target
	}
}

// Maps a compound token to the plain arithmetic operator it applies.
func compoundOperator(tok token.Token) token.Token {
	kind := tok.Kind
	lexeme := ""

	switch tok.Kind {
	case token.PLUS_EQUAL, token.PLUS_PLUS:
		kind, lexeme = token.PLUS, "+"
	case token.MINUS_EQUAL, token.MINUS_MINUS:
		kind, lexeme = token.MINUS, "-"
	case token.STAR_EQUAL:
		kind, lexeme = token.STAR, "*"
	case token.SLASH_EQUAL:
		kind, lexeme = token.SLASH, "/"
	case token.PERCENT_EQUAL:
		kind, lexeme = token.PERCENT, "%"
	}

	return token.Token{Kind: kind, Lexeme: lexeme, Line: tok.Line}
}

// Error reporting and recovery methods
// --------------------------------------------------------
func (p *Parser) errorAt(tok token.Token, message string) {
	p.reporter.ErrorAt(tok, message)
}

// Reports the error and returns a sentinel the caller may panic with.
func (p *Parser) error(tok token.Token, message string) parseError {
	p.errorAt(tok, message)
	return parseError{}
}

// Synchronize the token stream after seeing malformed syntax to prevent
// cascading errors and parse as much correct syntax as possible.
func (p *Parser) synchronize() {
	p.advance()

	for !p.isAtEnd() {
		if p.previous().Kind == token.SEMICOLON {
			return
		}

		switch p.peek().Kind {
		case token.CLASS, token.FUN, token.VAR, token.FOR,
			token.IF, token.WHILE, token.PRINT, token.RETURN:
			return
		}

		p.advance()
	}
}

// Parser token matching and processing methods
// --------------------------------------------------------
func (p *Parser) consume(kind token.TokenKind, message string) token.Token {
	if p.check(kind) {
		return p.advance()
	}

	panic(p.error(p.peek(), message))
}

func (p *Parser) matchAny(kinds ...token.TokenKind) bool {
	for _, kind := range kinds {
		if p.check(kind) {
			p.advance()
			return true
		}
	}

	return false
}

func (p *Parser) match(kind token.TokenKind) bool {
	if p.check(kind) {
		p.advance()
		return true
	}

	return false
}

func (p *Parser) check(kind token.TokenKind) bool {
	return p.peek().Kind == kind
}

func (p *Parser) advance() token.Token {
	if !p.isAtEnd() {
		p.current++
	}
	return p.previous()
}

func (p *Parser) isAtEnd() bool {
	return p.peek().Kind == token.EOF
}

func (p *Parser) peek() token.Token {
	return p.tokens[p.current]
}

func (p *Parser) previous() token.Token {
	return p.tokens[p.current-1]
}
