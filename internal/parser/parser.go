// Package parser implements the syntax analysis for JEZ.
// It is a recursive-descent parser with one function per precedence level.
package parser

import (
	"jez-lang/internal/ast"
	"jez-lang/internal/diag"
	"jez-lang/internal/span"
	"jez-lang/internal/token"
)

// maxArgs bounds both parameter lists and argument lists.
const maxArgs = 255

// ============================================================
// Parser
// ============================================================

// Parser performs syntax analysis on a stream of tokens.
type Parser struct {
	tokens []token.Token
	pos    int
	ids    *ast.IDGen
	diags  []diag.Diagnostic
}

// bailout unwinds the parser to the enclosing declaration after a syntax
// error has been recorded.
type bailout struct{}

// Option configures a Parser.
type Option func(*Parser)

// WithIDGen makes the parser draw expression ids from gen instead of a
// private generator, so ids stay unique across several parses.
func WithIDGen(gen *ast.IDGen) Option {
	return func(p *Parser) { p.ids = gen }
}

// New creates a new parser from a token slice ending in EOF.
func New(tokens []token.Token, opts ...Option) *Parser {
	p := &Parser{tokens: tokens, ids: &ast.IDGen{}}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ParseProgram parses every declaration and returns the AST root and
// diagnostics. Declarations that contain a syntax error are left out of the
// tree.
func (p *Parser) ParseProgram() (*ast.Program, []diag.Diagnostic) {
	program := &ast.Program{}
	start := p.peek()

	for !p.isAtEnd() {
		if stmt := p.declaration(); stmt != nil {
			program.Stmts = append(program.Stmts, stmt)
		}
	}

	program.Span = span.Span{Start: start.Span.Start, End: p.peek().Span.End}
	return program, p.diags
}

// ---- navigation helpers ----

func (p *Parser) peek() token.Token {
	if p.pos >= len(p.tokens) {
		return token.Token{Kind: token.EOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) previous() token.Token {
	if p.pos == 0 {
		return p.peek()
	}
	return p.tokens[p.pos-1]
}

func (p *Parser) advance() token.Token {
	tok := p.peek()
	if !p.isAtEnd() {
		p.pos++
	}
	return tok
}

func (p *Parser) check(kind token.Kind) bool {
	return p.peek().Kind == kind
}

// match consumes the next token if it is one of kinds.
func (p *Parser) match(kinds ...token.Kind) bool {
	for _, k := range kinds {
		if p.check(k) {
			p.advance()
			return true
		}
	}
	return false
}

// expect consumes a token of the given kind or aborts the declaration.
func (p *Parser) expect(kind token.Kind, what string) token.Token {
	if p.check(kind) {
		return p.advance()
	}
	p.fail(p.peek(), "E2001", "expected %s", what)
	panic("unreachable")
}

func (p *Parser) isAtEnd() bool {
	return p.peek().Kind == token.EOF
}

func (p *Parser) spanFrom(start token.Token) span.Span {
	return span.Span{Start: start.Span.Start, End: p.previous().Span.End}
}

func (p *Parser) exprBase(start token.Token) ast.ExprBase {
	return ast.ExprBase{NodeBase: ast.NodeBase{Span: p.spanFrom(start)}, ID: p.ids.Next()}
}

func (p *Parser) stmtBase(start token.Token) ast.StmtBase {
	return ast.StmtBase{NodeBase: ast.NodeBase{Span: p.spanFrom(start)}}
}

// fail records a diagnostic and unwinds to the enclosing declaration.
func (p *Parser) fail(tok token.Token, code, format string, args ...interface{}) {
	p.report(tok, code, format, args...)
	panic(bailout{})
}

// report records a diagnostic and keeps parsing.
func (p *Parser) report(tok token.Token, code, format string, args ...interface{}) {
	d := diag.Errorf(code, diag.PhaseParse, tok.Span.Start, format, args...)
	if tok.Kind == token.EOF {
		d.Where = "end"
	} else {
		d.Where = tok.Lexeme
	}
	p.diags = append(p.diags, d)
}

// ============================================================
// Error recovery
// ============================================================

// synchronize skips tokens until a likely statement boundary.
func (p *Parser) synchronize() {
	p.advance()
	for !p.isAtEnd() {
		if p.previous().Kind == token.SEMICOLON {
			return
		}
		switch p.peek().Kind {
		case token.KW_TEMPLATE, token.KW_FUNCTION, token.KW_VARIABLE, token.KW_FOR,
			token.KW_IF, token.KW_WHILE, token.KW_PRINT, token.KW_RETURN:
			return
		}
		p.advance()
	}
}

// ============================================================
// Declarations
// ============================================================

// declaration parses one declaration. On a syntax error it synchronizes and
// returns nil, so the broken declaration is left out of the tree.
func (p *Parser) declaration() (stmt ast.Stmt) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(bailout); !ok {
				panic(r)
			}
			p.synchronize()
			stmt = nil
		}
	}()

	switch {
	case p.match(token.KW_TEMPLATE):
		return p.classDecl()
	case p.match(token.KW_FUNCTION):
		return p.function("function")
	case p.match(token.KW_VARIABLE):
		return p.varDecl()
	default:
		return p.statement()
	}
}

// classDecl parses: template NAME [< SUPER] { method* }
func (p *Parser) classDecl() ast.Stmt {
	start := p.previous()
	name := p.expect(token.IDENT, "template name")
	decl := &ast.ClassDecl{Name: name}

	if p.match(token.LESS) {
		superName := p.expect(token.IDENT, "superclass name")
		decl.Superclass = &ast.VariableExpr{ExprBase: p.exprBase(superName), Name: superName}
	}

	p.expect(token.LBRACE, "'{' before template body")
	for !p.check(token.RBRACE) && !p.isAtEnd() {
		decl.Methods = append(decl.Methods, p.function("method"))
	}
	p.expect(token.RBRACE, "'}' after template body")

	decl.StmtBase = p.stmtBase(start)
	return decl
}

// function parses: NAME ( params ) block. kind is "function" or "method".
func (p *Parser) function(kind string) *ast.FuncDecl {
	start := p.peek()
	if kind == "function" {
		start = p.previous()
	}
	name := p.expect(token.IDENT, kind+" name")
	p.expect(token.LPAREN, "'(' after "+kind+" name")

	var params []token.Token
	if !p.check(token.RPAREN) {
		for {
			if len(params) >= maxArgs {
				p.report(p.peek(), "E2003", "can't have more than %d parameters", maxArgs)
			}
			params = append(params, p.expect(token.IDENT, "parameter name"))
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	p.expect(token.RPAREN, "')' after parameters")
	p.expect(token.LBRACE, "'{' before "+kind+" body")
	body := p.blockStmts()

	return &ast.FuncDecl{StmtBase: p.stmtBase(start), Name: name, Params: params, Body: body}
}

// varDecl parses: variable NAME [= expr] ;
func (p *Parser) varDecl() ast.Stmt {
	start := p.previous()
	name := p.expect(token.IDENT, "variable name")
	var init ast.Expr
	if p.match(token.EQUAL) {
		init = p.expression()
	}
	p.expect(token.SEMICOLON, "';' after variable declaration")
	return &ast.VarDeclStmt{StmtBase: p.stmtBase(start), Name: name, Init: init}
}

// ============================================================
// Statements
// ============================================================

func (p *Parser) statement() ast.Stmt {
	switch {
	case p.match(token.KW_FOR):
		return p.forStmt()
	case p.match(token.KW_IF):
		return p.ifStmt()
	case p.match(token.KW_PRINT):
		return p.printStmt()
	case p.match(token.KW_RETURN):
		return p.returnStmt()
	case p.match(token.KW_WHILE):
		return p.whileStmt()
	case p.match(token.LBRACE):
		start := p.previous()
		stmts := p.blockStmts()
		return &ast.BlockStmt{StmtBase: p.stmtBase(start), Stmts: stmts}
	default:
		return p.exprStmt()
	}
}

// blockStmts parses declarations up to and including the closing brace.
func (p *Parser) blockStmts() []ast.Stmt {
	var stmts []ast.Stmt
	for !p.check(token.RBRACE) && !p.isAtEnd() {
		if stmt := p.declaration(); stmt != nil {
			stmts = append(stmts, stmt)
		}
	}
	p.expect(token.RBRACE, "'}' after block")
	return stmts
}

// forStmt parses a C-style for loop and desugars it into
// { init; while (cond) { body; increment; } }.
func (p *Parser) forStmt() ast.Stmt {
	start := p.previous()
	p.expect(token.LPAREN, "'(' after 'for'")

	var init ast.Stmt
	switch {
	case p.match(token.SEMICOLON):
	case p.match(token.KW_VARIABLE):
		init = p.varDecl()
	default:
		init = p.exprStmt()
	}

	var cond ast.Expr
	if !p.check(token.SEMICOLON) {
		cond = p.expression()
	}
	condEnd := p.expect(token.SEMICOLON, "';' after loop condition")

	var incr ast.Expr
	if !p.check(token.RPAREN) {
		incr = p.expression()
	}
	p.expect(token.RPAREN, "')' after for clauses")

	body := p.statement()
	if incr != nil {
		body = &ast.BlockStmt{
			StmtBase: p.stmtBase(start),
			Stmts:    []ast.Stmt{body, &ast.ExprStmt{StmtBase: ast.StmtBase{NodeBase: ast.NodeBase{Span: incr.GetSpan()}}, Expr: incr}},
		}
	}
	if cond == nil {
		cond = &ast.LiteralExpr{ExprBase: ast.ExprBase{NodeBase: ast.NodeBase{Span: condEnd.Span}, ID: p.ids.Next()}, Value: true}
	}
	var loop ast.Stmt = &ast.WhileStmt{StmtBase: p.stmtBase(start), Condition: cond, Body: body}
	if init != nil {
		loop = &ast.BlockStmt{StmtBase: p.stmtBase(start), Stmts: []ast.Stmt{init, loop}}
	}
	return loop
}

// ifStmt parses: if ( expr ) stmt [else stmt]
func (p *Parser) ifStmt() ast.Stmt {
	start := p.previous()
	p.expect(token.LPAREN, "'(' after 'if'")
	cond := p.expression()
	p.expect(token.RPAREN, "')' after if condition")

	then := p.statement()
	var elseStmt ast.Stmt
	if p.match(token.KW_ELSE) {
		elseStmt = p.statement()
	}
	return &ast.IfStmt{StmtBase: p.stmtBase(start), Condition: cond, Then: then, Else: elseStmt}
}

func (p *Parser) printStmt() ast.Stmt {
	keyword := p.previous()
	value := p.expression()
	p.expect(token.SEMICOLON, "';' after value")
	return &ast.PrintStmt{StmtBase: p.stmtBase(keyword), Keyword: keyword, Expr: value}
}

func (p *Parser) returnStmt() ast.Stmt {
	keyword := p.previous()
	var value ast.Expr
	if !p.check(token.SEMICOLON) {
		value = p.expression()
	}
	p.expect(token.SEMICOLON, "';' after return value")
	return &ast.ReturnStmt{StmtBase: p.stmtBase(keyword), Keyword: keyword, Value: value}
}

func (p *Parser) whileStmt() ast.Stmt {
	start := p.previous()
	p.expect(token.LPAREN, "'(' after 'while'")
	cond := p.expression()
	p.expect(token.RPAREN, "')' after condition")
	body := p.statement()
	return &ast.WhileStmt{StmtBase: p.stmtBase(start), Condition: cond, Body: body}
}

func (p *Parser) exprStmt() ast.Stmt {
	start := p.peek()
	expr := p.expression()
	p.expect(token.SEMICOLON, "';' after expression")
	return &ast.ExprStmt{StmtBase: p.stmtBase(start), Expr: expr}
}

// ============================================================
// Expressions
// ============================================================

func (p *Parser) expression() ast.Expr {
	return p.assignment()
}

func (p *Parser) assignment() ast.Expr {
	start := p.peek()
	expr := p.or()

	if p.match(token.EQUAL) {
		equals := p.previous()
		value := p.assignment()

		switch target := expr.(type) {
		case *ast.VariableExpr:
			return &ast.AssignExpr{ExprBase: p.exprBase(start), Name: target.Name, Value: value}
		case *ast.GetExpr:
			return &ast.SetExpr{ExprBase: p.exprBase(start), Object: target.Object, Name: target.Name, Value: value}
		}
		// Reported without panic mode: the parser is not confused.
		p.report(equals, "E2002", "invalid assignment target")
	}
	return expr
}

func (p *Parser) or() ast.Expr {
	start := p.peek()
	expr := p.and()
	for p.match(token.KW_OR) {
		op := p.previous()
		right := p.and()
		expr = &ast.LogicalExpr{Left: expr, Op: op, Right: right, ExprBase: p.exprBase(start)}
	}
	return expr
}

func (p *Parser) and() ast.Expr {
	start := p.peek()
	expr := p.equality()
	for p.match(token.KW_AND) {
		op := p.previous()
		right := p.equality()
		expr = &ast.LogicalExpr{Left: expr, Op: op, Right: right, ExprBase: p.exprBase(start)}
	}
	return expr
}

// binaryLevel parses a left-associative chain of operators at one level.
func (p *Parser) binaryLevel(next func() ast.Expr, ops ...token.Kind) ast.Expr {
	start := p.peek()
	expr := next()
	for p.match(ops...) {
		op := p.previous()
		right := next()
		expr = &ast.BinaryExpr{Left: expr, Op: op, Right: right, ExprBase: p.exprBase(start)}
	}
	return expr
}

func (p *Parser) equality() ast.Expr {
	return p.binaryLevel(p.comparison, token.BANG_EQUAL, token.EQUAL_EQUAL)
}

func (p *Parser) comparison() ast.Expr {
	return p.binaryLevel(p.term, token.GREATER, token.GREATER_EQUAL, token.LESS, token.LESS_EQUAL)
}

func (p *Parser) term() ast.Expr {
	return p.binaryLevel(p.factor, token.MINUS, token.PLUS)
}

func (p *Parser) factor() ast.Expr {
	return p.binaryLevel(p.unary, token.SLASH, token.STAR)
}

func (p *Parser) unary() ast.Expr {
	if p.match(token.BANG, token.MINUS) {
		op := p.previous()
		right := p.unary()
		return &ast.UnaryExpr{Op: op, Right: right, ExprBase: p.exprBase(op)}
	}
	return p.call()
}

func (p *Parser) call() ast.Expr {
	start := p.peek()
	expr := p.primary()
	for {
		switch {
		case p.match(token.LPAREN):
			expr = p.finishCall(start, expr)
		case p.match(token.DOT):
			name := p.expect(token.IDENT, "property name after '.'")
			expr = &ast.GetExpr{Object: expr, Name: name, ExprBase: p.exprBase(start)}
		default:
			return expr
		}
	}
}

func (p *Parser) finishCall(start token.Token, callee ast.Expr) ast.Expr {
	var args []ast.Expr
	if !p.check(token.RPAREN) {
		for {
			if len(args) >= maxArgs {
				p.report(p.peek(), "E2003", "can't have more than %d arguments", maxArgs)
			}
			args = append(args, p.expression())
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	paren := p.expect(token.RPAREN, "')' after arguments")
	return &ast.CallExpr{Callee: callee, Paren: paren, Args: args, ExprBase: p.exprBase(start)}
}

func (p *Parser) primary() ast.Expr {
	tok := p.peek()
	switch tok.Kind {
	case token.KW_FALSE:
		p.advance()
		return &ast.LiteralExpr{Value: false, ExprBase: p.exprBase(tok)}
	case token.KW_TRUE:
		p.advance()
		return &ast.LiteralExpr{Value: true, ExprBase: p.exprBase(tok)}
	case token.KW_NONE:
		p.advance()
		return &ast.LiteralExpr{Value: nil, ExprBase: p.exprBase(tok)}
	case token.NUMBER, token.STRING:
		p.advance()
		return &ast.LiteralExpr{Value: tok.Literal, ExprBase: p.exprBase(tok)}
	case token.KW_THIS:
		p.advance()
		return &ast.ThisExpr{Keyword: tok, ExprBase: p.exprBase(tok)}
	case token.KW_SUPER:
		p.advance()
		p.expect(token.DOT, "'.' after 'super'")
		method := p.expect(token.IDENT, "superclass method name")
		return &ast.SuperExpr{Keyword: tok, Method: method, ExprBase: p.exprBase(tok)}
	case token.IDENT:
		p.advance()
		return &ast.VariableExpr{Name: tok, ExprBase: p.exprBase(tok)}
	case token.LPAREN:
		p.advance()
		inner := p.expression()
		p.expect(token.RPAREN, "')' after expression")
		return &ast.GroupingExpr{Inner: inner, ExprBase: p.exprBase(tok)}
	}

	p.fail(tok, "E2001", "expected expression")
	return nil
}
