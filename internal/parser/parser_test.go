package parser

import (
	"encoding/json"
	"jez-lang/internal/ast"
	"jez-lang/internal/diag"
	"jez-lang/internal/lexer"
	"jez-lang/internal/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// parseOK parses source and fails the test on any diagnostic.
func parseOK(t *testing.T, source string) *ast.Program {
	t.Helper()
	tokens, lexDiags := lexer.New(source, "test.jez").Tokenize()
	require.Empty(t, lexDiags, "lex errors")
	program, parseDiags := New(tokens).ParseProgram()
	require.Empty(t, parseDiags, "parse errors")
	return program
}

func parseDiags(t *testing.T, source string) []diag.Diagnostic {
	t.Helper()
	tokens, lexDiags := lexer.New(source, "test.jez").Tokenize()
	require.Empty(t, lexDiags, "lex errors")
	_, diags := New(tokens).ParseProgram()
	return diags
}

func TestParseVarDecl(t *testing.T) {
	program := parseOK(t, `variable x = 42;`)
	require.Len(t, program.Stmts, 1)

	decl, ok := program.Stmts[0].(*ast.VarDeclStmt)
	require.True(t, ok, "expected VarDeclStmt, got %T", program.Stmts[0])
	assert.Equal(t, "x", decl.Name.Lexeme)
	lit, ok := decl.Init.(*ast.LiteralExpr)
	require.True(t, ok)
	assert.Equal(t, 42.0, lit.Value)
}

func TestParseVarDeclWithoutInit(t *testing.T) {
	program := parseOK(t, `variable x;`)
	decl := program.Stmts[0].(*ast.VarDeclStmt)
	assert.Nil(t, decl.Init)
}

func TestParsePrecedence(t *testing.T) {
	program := parseOK(t, `print 1 + 2 * 3 == 7 and !false or none;`)
	pr := program.Stmts[0].(*ast.PrintStmt)

	or, ok := pr.Expr.(*ast.LogicalExpr)
	require.True(t, ok, "expected LogicalExpr, got %T", pr.Expr)
	assert.Equal(t, token.KW_OR, or.Op.Kind)

	and := or.Left.(*ast.LogicalExpr)
	assert.Equal(t, token.KW_AND, and.Op.Kind)

	eq := and.Left.(*ast.BinaryExpr)
	assert.Equal(t, token.EQUAL_EQUAL, eq.Op.Kind)

	plus := eq.Left.(*ast.BinaryExpr)
	assert.Equal(t, token.PLUS, plus.Op.Kind)
	star := plus.Right.(*ast.BinaryExpr)
	assert.Equal(t, token.STAR, star.Op.Kind)

	not := and.Right.(*ast.UnaryExpr)
	assert.Equal(t, token.BANG, not.Op.Kind)

	none := or.Right.(*ast.LiteralExpr)
	assert.Nil(t, none.Value)
}

func TestParseLeftAssociative(t *testing.T) {
	program := parseOK(t, `print 10 - 4 - 3;`)
	outer := program.Stmts[0].(*ast.PrintStmt).Expr.(*ast.BinaryExpr)
	inner, ok := outer.Left.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, 10.0, inner.Left.(*ast.LiteralExpr).Value)
	assert.Equal(t, 3.0, outer.Right.(*ast.LiteralExpr).Value)
}

func TestParseAssignmentIsRightAssociative(t *testing.T) {
	program := parseOK(t, `a = b = 1;`)
	outer := program.Stmts[0].(*ast.ExprStmt).Expr.(*ast.AssignExpr)
	assert.Equal(t, "a", outer.Name.Lexeme)
	inner := outer.Value.(*ast.AssignExpr)
	assert.Equal(t, "b", inner.Name.Lexeme)
}

func TestParseCallsAndProperties(t *testing.T) {
	program := parseOK(t, `a.b(1, 2).c = 3;`)
	set, ok := program.Stmts[0].(*ast.ExprStmt).Expr.(*ast.SetExpr)
	require.True(t, ok)
	assert.Equal(t, "c", set.Name.Lexeme)

	call := set.Object.(*ast.CallExpr)
	assert.Len(t, call.Args, 2)
	assert.Equal(t, token.RPAREN, call.Paren.Kind)

	get := call.Callee.(*ast.GetExpr)
	assert.Equal(t, "b", get.Name.Lexeme)
	assert.Equal(t, "a", get.Object.(*ast.VariableExpr).Name.Lexeme)
}

func TestParseFunction(t *testing.T) {
	program := parseOK(t, `function add(a, b) { return a + b; }`)
	fn, ok := program.Stmts[0].(*ast.FuncDecl)
	require.True(t, ok)
	assert.Equal(t, "add", fn.Name.Lexeme)
	require.Len(t, fn.Params, 2)
	assert.Equal(t, "b", fn.Params[1].Lexeme)
	require.Len(t, fn.Body, 1)
	ret := fn.Body[0].(*ast.ReturnStmt)
	assert.NotNil(t, ret.Value)
}

func TestParseTemplate(t *testing.T) {
	source := `
template Dog < Animal {
  initialize(name) { this.name = name; }
  speak() { return super.speak() + "!"; }
}`
	program := parseOK(t, source)
	cls, ok := program.Stmts[0].(*ast.ClassDecl)
	require.True(t, ok)
	assert.Equal(t, "Dog", cls.Name.Lexeme)
	require.NotNil(t, cls.Superclass)
	assert.Equal(t, "Animal", cls.Superclass.Name.Lexeme)
	require.Len(t, cls.Methods, 2)
	assert.Equal(t, "initialize", cls.Methods[0].Name.Lexeme)

	ret := cls.Methods[1].Body[0].(*ast.ReturnStmt)
	plus := ret.Value.(*ast.BinaryExpr)
	call := plus.Left.(*ast.CallExpr)
	sup := call.Callee.(*ast.SuperExpr)
	assert.Equal(t, "speak", sup.Method.Lexeme)
}

func TestParseIfElse(t *testing.T) {
	program := parseOK(t, `if (x > 0) print x; else { print 0; }`)
	ifStmt, ok := program.Stmts[0].(*ast.IfStmt)
	require.True(t, ok)
	assert.IsType(t, &ast.PrintStmt{}, ifStmt.Then)
	assert.IsType(t, &ast.BlockStmt{}, ifStmt.Else)
}

func TestParseForDesugarsToWhile(t *testing.T) {
	program := parseOK(t, `for (variable i = 0; i < 3; i = i + 1) print i;`)
	block, ok := program.Stmts[0].(*ast.BlockStmt)
	require.True(t, ok, "expected BlockStmt, got %T", program.Stmts[0])
	require.Len(t, block.Stmts, 2)
	assert.IsType(t, &ast.VarDeclStmt{}, block.Stmts[0])

	loop := block.Stmts[1].(*ast.WhileStmt)
	assert.IsType(t, &ast.BinaryExpr{}, loop.Condition)
	body := loop.Body.(*ast.BlockStmt)
	require.Len(t, body.Stmts, 2)
	assert.IsType(t, &ast.PrintStmt{}, body.Stmts[0])
	assert.IsType(t, &ast.AssignExpr{}, body.Stmts[1].(*ast.ExprStmt).Expr)
}

func TestParseForWithoutClauses(t *testing.T) {
	program := parseOK(t, `for (;;) print 1;`)
	loop, ok := program.Stmts[0].(*ast.WhileStmt)
	require.True(t, ok, "expected WhileStmt, got %T", program.Stmts[0])
	assert.Equal(t, true, loop.Condition.(*ast.LiteralExpr).Value)
	assert.IsType(t, &ast.PrintStmt{}, loop.Body)
}

func TestExpressionIDsAreUnique(t *testing.T) {
	program := parseOK(t, `variable a = 1; { print a + a; a = a; }`)
	seen := map[ast.ExprID]bool{}
	var walk func(n ast.Node)
	walk = func(n ast.Node) {
		switch x := n.(type) {
		case *ast.VarDeclStmt:
			walk(x.Init)
		case *ast.BlockStmt:
			for _, s := range x.Stmts {
				walk(s)
			}
		case *ast.PrintStmt:
			walk(x.Expr)
		case *ast.ExprStmt:
			walk(x.Expr)
		case *ast.BinaryExpr:
			walk(x.Left)
			walk(x.Right)
		case *ast.AssignExpr:
			walk(x.Value)
		}
		if e, ok := n.(ast.Expr); ok {
			assert.NotZero(t, e.GetID())
			assert.False(t, seen[e.GetID()], "duplicate id %d", e.GetID())
			seen[e.GetID()] = true
		}
	}
	for _, s := range program.Stmts {
		walk(s)
	}
	assert.Len(t, seen, 6)
}

func TestSharedIDGenAcrossParses(t *testing.T) {
	gen := &ast.IDGen{}
	parse := func(src string) ast.ExprID {
		tokens, _ := lexer.New(src, "repl").Tokenize()
		program, diags := New(tokens, WithIDGen(gen)).ParseProgram()
		require.Empty(t, diags)
		return program.Stmts[0].(*ast.ExprStmt).Expr.GetID()
	}
	first := parse(`x;`)
	second := parse(`x;`)
	assert.Greater(t, second, first)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		code   string
	}{
		{"missing semicolon", `print 1`, "E2001"},
		{"missing expression", `print ;`, "E2001"},
		{"invalid assignment target", `1 + 2 = 3;`, "E2002"},
		{"super without dot", `super;`, "E2001"},
		{"unclosed block", `{ print 1;`, "E2001"},
		{"method keyword in template", `template A { function f() {} }`, "E2001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diags := parseDiags(t, tt.source)
			require.NotEmpty(t, diags)
			assert.Equal(t, tt.code, diags[0].Code)
			assert.Equal(t, diag.PhaseParse, diags[0].Phase)
		})
	}
}

func TestParseRecoversAfterError(t *testing.T) {
	tokens, _ := lexer.New("print ;\nprint 2;\nvariable = 3;\nprint 4;", "test.jez").Tokenize()
	program, diags := New(tokens).ParseProgram()

	require.Len(t, diags, 2)
	assert.Equal(t, 1, diags[0].Pos.Line)
	assert.Equal(t, 3, diags[1].Pos.Line)
	// the two good statements survive
	require.Len(t, program.Stmts, 2)
	assert.IsType(t, &ast.PrintStmt{}, program.Stmts[0])
}

func TestTooManyArguments(t *testing.T) {
	src := "f("
	for i := 0; i < 256; i++ {
		if i > 0 {
			src += ","
		}
		src += "1"
	}
	src += ");"
	diags := parseDiags(t, src)
	require.Len(t, diags, 1)
	assert.Equal(t, "E2003", diags[0].Code)
}

func TestNodeToMapIsJSON(t *testing.T) {
	program := parseOK(t, `template A < B { m() { return this; } } variable v; print -v;`)
	data, err := json.Marshal(ast.NodeToMap(program))
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "Program", decoded["kind"])
	body := decoded["body"].([]interface{})
	require.Len(t, body, 3)
	cls := body[0].(map[string]interface{})
	assert.Equal(t, "ClassDecl", cls["kind"])
	assert.Equal(t, "VariableExpr", cls["superclass"].(map[string]interface{})["kind"])
	_, hasInit := body[1].(map[string]interface{})["init"]
	assert.False(t, hasInit)
}
