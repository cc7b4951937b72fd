// Package resolver performs static scope resolution for JEZ programs.
//
// It walks the whole tree once before any evaluation and records, for every
// local variable reference, how many lexical frames outward the binding lives.
// References it does not record are globals.
package resolver

import (
	"fmt"
	"jez-lang/internal/ast"
	"jez-lang/internal/diag"
	"jez-lang/internal/token"
	"sort"
	"strings"
)

// Table maps an expression id to the lexical distance of its binding.
type Table map[ast.ExprID]int

// Merge copies every entry of other into t.
func (t Table) Merge(other Table) {
	for id, d := range other {
		t[id] = d
	}
}

// Dump renders the table sorted by id, one "id distance" pair per line.
func (t Table) Dump() string {
	ids := make([]int, 0, len(t))
	for id := range t {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)

	var sb strings.Builder
	for _, id := range ids {
		fmt.Fprintf(&sb, "%d %d\n", id, t[ast.ExprID(id)])
	}
	return sb.String()
}

type functionType int

const (
	fnNone functionType = iota
	fnFunction
	fnInitializer
	fnMethod
)

type classType int

const (
	clsNone classType = iota
	clsClass
	clsSubclass
)

// scope maps a name to whether its initializer has finished (defined).
type scope map[string]bool

// Resolver holds the traversal state.
type Resolver struct {
	scopes       []scope
	table        Table
	diags        []diag.Diagnostic
	currentFunc  functionType
	currentClass classType
}

// Resolve walks program and returns the resolution table together with any
// static errors. All errors are collected; callers must not interpret a
// program whose diagnostics are non-empty.
func Resolve(program *ast.Program) (Table, []diag.Diagnostic) {
	r := &Resolver{table: Table{}}
	r.resolveStmts(program.Stmts)
	return r.table, r.diags
}

func (r *Resolver) errorAt(tok token.Token, code, format string, args ...interface{}) {
	d := diag.Errorf(code, diag.PhaseResolve, tok.Span.Start, format, args...)
	d.Where = tok.Lexeme
	r.diags = append(r.diags, d)
}

// ---- scope stack ----

func (r *Resolver) beginScope() {
	r.scopes = append(r.scopes, scope{})
}

func (r *Resolver) endScope() {
	r.scopes = r.scopes[:len(r.scopes)-1]
}

func (r *Resolver) declare(name token.Token) {
	if len(r.scopes) == 0 {
		return
	}
	s := r.scopes[len(r.scopes)-1]
	if _, exists := s[name.Lexeme]; exists {
		r.errorAt(name, "E3001", "variable '%s' already declared in this scope", name.Lexeme)
	}
	s[name.Lexeme] = false
}

func (r *Resolver) define(name token.Token) {
	if len(r.scopes) == 0 {
		return
	}
	r.scopes[len(r.scopes)-1][name.Lexeme] = true
}

// resolveLocal records the distance from the innermost scope to the one
// binding name. Unfound names are left to the global frame.
func (r *Resolver) resolveLocal(id ast.ExprID, name string) {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if _, ok := r.scopes[i][name]; ok {
			r.table[id] = len(r.scopes) - 1 - i
			return
		}
	}
}

// ============================================================
// Statements
// ============================================================

func (r *Resolver) resolveStmts(stmts []ast.Stmt) {
	for _, s := range stmts {
		r.resolveStmt(s)
	}
}

func (r *Resolver) resolveStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.BlockStmt:
		r.beginScope()
		r.resolveStmts(s.Stmts)
		r.endScope()

	case *ast.VarDeclStmt:
		r.declare(s.Name)
		if s.Init != nil {
			r.resolveExpr(s.Init)
		}
		r.define(s.Name)

	case *ast.FuncDecl:
		// Defined eagerly so the body can refer to the function recursively.
		r.declare(s.Name)
		r.define(s.Name)
		r.resolveFunction(s, fnFunction)

	case *ast.ClassDecl:
		r.resolveClass(s)

	case *ast.ExprStmt:
		r.resolveExpr(s.Expr)

	case *ast.PrintStmt:
		r.resolveExpr(s.Expr)

	case *ast.IfStmt:
		r.resolveExpr(s.Condition)
		r.resolveStmt(s.Then)
		if s.Else != nil {
			r.resolveStmt(s.Else)
		}

	case *ast.WhileStmt:
		r.resolveExpr(s.Condition)
		r.resolveStmt(s.Body)

	case *ast.ReturnStmt:
		if r.currentFunc == fnNone {
			r.errorAt(s.Keyword, "E3003", "can't return from top-level code")
		}
		if s.Value != nil {
			if r.currentFunc == fnInitializer {
				r.errorAt(s.Keyword, "E3004", "can't return a value from an initializer")
			}
			r.resolveExpr(s.Value)
		}

	default:
		panic(fmt.Sprintf("resolver: unhandled statement %T", stmt))
	}
}

// resolveFunction opens one scope for the parameters and resolves the body
// statements directly in it; the evaluator runs them in the call frame.
func (r *Resolver) resolveFunction(fn *ast.FuncDecl, kind functionType) {
	enclosing := r.currentFunc
	r.currentFunc = kind
	defer func() { r.currentFunc = enclosing }()

	r.beginScope()
	for _, param := range fn.Params {
		r.declare(param)
		r.define(param)
	}
	r.resolveStmts(fn.Body)
	r.endScope()
}

func (r *Resolver) resolveClass(s *ast.ClassDecl) {
	enclosing := r.currentClass
	r.currentClass = clsClass
	defer func() { r.currentClass = enclosing }()

	r.declare(s.Name)
	r.define(s.Name)

	if s.Superclass != nil {
		if s.Superclass.Name.Lexeme == s.Name.Lexeme {
			r.errorAt(s.Superclass.Name, "E3008", "a template can't inherit from itself")
		}
		r.currentClass = clsSubclass
		r.resolveExpr(s.Superclass)

		r.beginScope()
		r.scopes[len(r.scopes)-1]["super"] = true
	}

	r.beginScope()
	r.scopes[len(r.scopes)-1]["this"] = true

	for _, method := range s.Methods {
		kind := fnMethod
		if method.Name.Lexeme == "initialize" {
			kind = fnInitializer
		}
		r.resolveFunction(method, kind)
	}

	r.endScope()
	if s.Superclass != nil {
		r.endScope()
	}
}

// ============================================================
// Expressions
// ============================================================

func (r *Resolver) resolveExpr(expr ast.Expr) {
	switch e := expr.(type) {
	case *ast.VariableExpr:
		if len(r.scopes) > 0 {
			if defined, ok := r.scopes[len(r.scopes)-1][e.Name.Lexeme]; ok && !defined {
				r.errorAt(e.Name, "E3002", "can't read local variable '%s' in its own initializer", e.Name.Lexeme)
			}
		}
		r.resolveLocal(e.ID, e.Name.Lexeme)

	case *ast.AssignExpr:
		r.resolveExpr(e.Value)
		r.resolveLocal(e.ID, e.Name.Lexeme)

	case *ast.BinaryExpr:
		r.resolveExpr(e.Left)
		r.resolveExpr(e.Right)

	case *ast.LogicalExpr:
		r.resolveExpr(e.Left)
		r.resolveExpr(e.Right)

	case *ast.UnaryExpr:
		r.resolveExpr(e.Right)

	case *ast.GroupingExpr:
		r.resolveExpr(e.Inner)

	case *ast.LiteralExpr:

	case *ast.CallExpr:
		r.resolveExpr(e.Callee)
		for _, arg := range e.Args {
			r.resolveExpr(arg)
		}

	case *ast.GetExpr:
		r.resolveExpr(e.Object)

	case *ast.SetExpr:
		r.resolveExpr(e.Value)
		r.resolveExpr(e.Object)

	case *ast.ThisExpr:
		if r.currentClass == clsNone {
			r.errorAt(e.Keyword, "E3005", "can't use 'this' outside of a template")
			return
		}
		r.resolveLocal(e.ID, "this")

	case *ast.SuperExpr:
		switch r.currentClass {
		case clsNone:
			r.errorAt(e.Keyword, "E3006", "can't use 'super' outside of a template")
			return
		case clsClass:
			r.errorAt(e.Keyword, "E3007", "can't use 'super' in a template with no superclass")
			return
		}
		r.resolveLocal(e.ID, "super")

	default:
		panic(fmt.Sprintf("resolver: unhandled expression %T", expr))
	}
}
