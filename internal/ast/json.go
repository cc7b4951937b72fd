package ast

import (
	"jez-lang/internal/span"
	"jez-lang/internal/token"
)

// NodeToMap converts an AST node to a map suitable for JSON serialization.
// This produces a tagged-union structure: every node has a "kind" field, and
// every expression carries its "id".
func NodeToMap(node Node) map[string]interface{} {
	if node == nil {
		return nil
	}

	switch n := node.(type) {
	case *Program:
		return m("Program", n.Span, "body", stmtSlice(n.Stmts))

	// ---- Expressions ----
	case *LiteralExpr:
		return e("LiteralExpr", n.ExprBase, "value", n.Value)
	case *GroupingExpr:
		return e("GroupingExpr", n.ExprBase, "inner", NodeToMap(n.Inner))
	case *UnaryExpr:
		return e("UnaryExpr", n.ExprBase, "op", opStr(n.Op), "right", NodeToMap(n.Right))
	case *BinaryExpr:
		return e("BinaryExpr", n.ExprBase,
			"op", opStr(n.Op),
			"left", NodeToMap(n.Left),
			"right", NodeToMap(n.Right))
	case *LogicalExpr:
		return e("LogicalExpr", n.ExprBase,
			"op", opStr(n.Op),
			"left", NodeToMap(n.Left),
			"right", NodeToMap(n.Right))
	case *VariableExpr:
		if n == nil {
			return nil
		}
		return e("VariableExpr", n.ExprBase, "name", n.Name.Lexeme)
	case *AssignExpr:
		return e("AssignExpr", n.ExprBase, "name", n.Name.Lexeme, "value", NodeToMap(n.Value))
	case *CallExpr:
		return e("CallExpr", n.ExprBase,
			"callee", NodeToMap(n.Callee),
			"args", exprSlice(n.Args))
	case *GetExpr:
		return e("GetExpr", n.ExprBase, "object", NodeToMap(n.Object), "name", n.Name.Lexeme)
	case *SetExpr:
		return e("SetExpr", n.ExprBase,
			"object", NodeToMap(n.Object),
			"name", n.Name.Lexeme,
			"value", NodeToMap(n.Value))
	case *ThisExpr:
		return e("ThisExpr", n.ExprBase)
	case *SuperExpr:
		return e("SuperExpr", n.ExprBase, "method", n.Method.Lexeme)

	// ---- Statements ----
	case *ExprStmt:
		return m("ExprStmt", n.Span, "expr", NodeToMap(n.Expr))
	case *PrintStmt:
		return m("PrintStmt", n.Span, "expr", NodeToMap(n.Expr))
	case *VarDeclStmt:
		result := m("VarDeclStmt", n.Span, "name", n.Name.Lexeme)
		if n.Init != nil {
			result["init"] = NodeToMap(n.Init)
		}
		return result
	case *BlockStmt:
		return m("BlockStmt", n.Span, "stmts", stmtSlice(n.Stmts))
	case *IfStmt:
		result := m("IfStmt", n.Span,
			"condition", NodeToMap(n.Condition),
			"then", NodeToMap(n.Then))
		if n.Else != nil {
			result["else"] = NodeToMap(n.Else)
		}
		return result
	case *WhileStmt:
		return m("WhileStmt", n.Span,
			"condition", NodeToMap(n.Condition),
			"body", NodeToMap(n.Body))
	case *FuncDecl:
		return m("FuncDecl", n.Span,
			"name", n.Name.Lexeme,
			"params", lexemes(n.Params),
			"body", stmtSlice(n.Body))
	case *ReturnStmt:
		result := m("ReturnStmt", n.Span)
		if n.Value != nil {
			result["value"] = NodeToMap(n.Value)
		}
		return result
	case *ClassDecl:
		result := m("ClassDecl", n.Span, "name", n.Name.Lexeme)
		if n.Superclass != nil {
			result["superclass"] = NodeToMap(n.Superclass)
		}
		methods := make([]interface{}, len(n.Methods))
		for i, md := range n.Methods {
			methods[i] = NodeToMap(md)
		}
		result["methods"] = methods
		return result

	default:
		return map[string]interface{}{"kind": "Unknown"}
	}
}

// ---- helpers ----

// m builds a map with kind, span, and extra key-value pairs.
func m(kind string, s span.Span, kvs ...interface{}) map[string]interface{} {
	result := map[string]interface{}{
		"kind": kind,
		"span": spanToMap(s),
	}
	for i := 0; i+1 < len(kvs); i += 2 {
		key := kvs[i].(string)
		result[key] = kvs[i+1]
	}
	return result
}

// e is m for expressions: it adds the node id.
func e(kind string, base ExprBase, kvs ...interface{}) map[string]interface{} {
	result := m(kind, base.Span, kvs...)
	result["id"] = int(base.ID)
	return result
}

func spanToMap(s span.Span) map[string]interface{} {
	return map[string]interface{}{
		"start": map[string]interface{}{
			"offset": s.Start.Offset,
			"line":   s.Start.Line,
			"column": s.Start.Column,
		},
		"end": map[string]interface{}{
			"offset": s.End.Offset,
			"line":   s.End.Line,
			"column": s.End.Column,
		},
	}
}

func stmtSlice(stmts []Stmt) []interface{} {
	result := make([]interface{}, len(stmts))
	for i, s := range stmts {
		result[i] = NodeToMap(s)
	}
	return result
}

func exprSlice(exprs []Expr) []interface{} {
	result := make([]interface{}, len(exprs))
	for i, x := range exprs {
		result[i] = NodeToMap(x)
	}
	return result
}

func lexemes(toks []token.Token) []string {
	result := make([]string, len(toks))
	for i, t := range toks {
		result[i] = t.Lexeme
	}
	return result
}

func opStr(tok token.Token) string {
	return tok.Kind.String()
}
