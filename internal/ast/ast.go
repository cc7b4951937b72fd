// Package ast defines the abstract syntax tree for JEZ.
//
// The node set is closed: every consumer (resolver, interpreter, JSON dump)
// dispatches with a single type switch over the concrete node types below.
package ast

import (
	"jez-lang/internal/span"
	"jez-lang/internal/token"
)

// ============================================================
// Node interfaces
// ============================================================

// Node is the interface implemented by all AST nodes.
type Node interface {
	nodeNode()
	GetSpan() span.Span
}

// Expr is the interface for expression nodes.
type Expr interface {
	Node
	exprNode()
	GetID() ExprID
}

// Stmt is the interface for statement nodes.
type Stmt interface {
	Node
	stmtNode()
}

// ExprID identifies an expression node. The resolver keys its table by it.
type ExprID int

// IDGen hands out expression ids. Share one generator across parses whose
// trees are interpreted by the same interpreter (the REPL does this).
type IDGen struct {
	last ExprID
}

// Next returns a fresh id; zero is never returned.
func (g *IDGen) Next() ExprID {
	g.last++
	return g.last
}

// ============================================================
// Base types (embedded to provide common fields)
// ============================================================

// NodeBase provides the common Span field for all AST nodes.
type NodeBase struct {
	Span span.Span
}

func (n NodeBase) nodeNode()          {}
func (n NodeBase) GetSpan() span.Span { return n.Span }

// ExprBase is embedded by all expression nodes.
type ExprBase struct {
	NodeBase
	ID ExprID
}

func (ExprBase) exprNode()        {}
func (e ExprBase) GetID() ExprID { return e.ID }

// StmtBase is embedded by all statement nodes.
type StmtBase struct{ NodeBase }

func (StmtBase) stmtNode() {}

// ============================================================
// Program (AST root)
// ============================================================

// Program is a parsed source unit: a list of top-level declarations.
type Program struct {
	NodeBase
	Stmts []Stmt
}

// ============================================================
// Expressions
// ============================================================

// LiteralExpr is a constant: float64, string, bool, or nil for `none`.
type LiteralExpr struct {
	ExprBase
	Value any
}

// GroupingExpr is a parenthesized expression.
type GroupingExpr struct {
	ExprBase
	Inner Expr
}

// UnaryExpr is a prefix operation: !x, -x.
type UnaryExpr struct {
	ExprBase
	Op    token.Token
	Right Expr
}

// BinaryExpr is an arithmetic, comparison or equality operation.
type BinaryExpr struct {
	ExprBase
	Left  Expr
	Op    token.Token
	Right Expr
}

// LogicalExpr is a short-circuit `and` / `or`.
type LogicalExpr struct {
	ExprBase
	Left  Expr
	Op    token.Token
	Right Expr
}

// VariableExpr reads a variable.
type VariableExpr struct {
	ExprBase
	Name token.Token
}

// AssignExpr writes an existing variable: name = value.
type AssignExpr struct {
	ExprBase
	Name  token.Token
	Value Expr
}

// CallExpr is a call: callee(args). Paren is the closing parenthesis, used
// to report call errors.
type CallExpr struct {
	ExprBase
	Callee Expr
	Paren  token.Token
	Args   []Expr
}

// GetExpr reads a property: object.name.
type GetExpr struct {
	ExprBase
	Object Expr
	Name   token.Token
}

// SetExpr writes a field: object.name = value.
type SetExpr struct {
	ExprBase
	Object Expr
	Name   token.Token
	Value  Expr
}

// ThisExpr is the `this` keyword.
type ThisExpr struct {
	ExprBase
	Keyword token.Token
}

// SuperExpr is a superclass method access: super.method.
type SuperExpr struct {
	ExprBase
	Keyword token.Token
	Method  token.Token
}

// ============================================================
// Statements
// ============================================================

// ExprStmt wraps an expression used as a statement.
type ExprStmt struct {
	StmtBase
	Expr Expr
}

// PrintStmt writes the text form of Expr followed by a newline.
type PrintStmt struct {
	StmtBase
	Keyword token.Token
	Expr    Expr
}

// VarDeclStmt declares a variable: variable name [= init];
type VarDeclStmt struct {
	StmtBase
	Name token.Token
	Init Expr // nil when absent
}

// BlockStmt is a braced statement list with its own scope.
type BlockStmt struct {
	StmtBase
	Stmts []Stmt
}

// IfStmt is if (cond) then [else else].
type IfStmt struct {
	StmtBase
	Condition Expr
	Then      Stmt
	Else      Stmt // nil when absent
}

// WhileStmt is while (cond) body. `for` loops are desugared into it.
type WhileStmt struct {
	StmtBase
	Condition Expr
	Body      Stmt
}

// FuncDecl declares a function, or a method when owned by a ClassDecl.
type FuncDecl struct {
	StmtBase
	Name   token.Token
	Params []token.Token
	Body   []Stmt
}

// ReturnStmt exits the enclosing function.
type ReturnStmt struct {
	StmtBase
	Keyword token.Token
	Value   Expr // nil for a bare return
}

// ClassDecl declares a template (class).
type ClassDecl struct {
	StmtBase
	Name       token.Token
	Superclass *VariableExpr // nil when absent
	Methods    []*FuncDecl
}
