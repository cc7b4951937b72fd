// Package token defines the token kinds produced by the JEZ lexer.
package token

import (
	"fmt"
	"jez-lang/internal/span"
)

// Kind represents the type of a token.
type Kind int

const (
	// Special tokens
	ILLEGAL Kind = iota
	EOF

	// Single-character punctuation
	LPAREN    // (
	RPAREN    // )
	LBRACE    // {
	RBRACE    // }
	COMMA     // ,
	DOT       // .
	MINUS     // -
	PLUS      // +
	SEMICOLON // ;
	SLASH     // /
	STAR      // *

	// One or two character operators
	BANG          // !
	BANG_EQUAL    // !=
	EQUAL         // =
	EQUAL_EQUAL   // ==
	GREATER       // >
	GREATER_EQUAL // >=
	LESS          // <
	LESS_EQUAL    // <=

	// Literals
	IDENT  // identifiers: x, counter, Shape
	STRING // string literals: "hello"
	NUMBER // number literals: 12, 3.5

	// Keywords
	KW_AND
	KW_TEMPLATE
	KW_ELSE
	KW_FALSE
	KW_FUNCTION
	KW_FOR
	KW_IF
	KW_NONE
	KW_OR
	KW_PRINT
	KW_RETURN
	KW_SUPER
	KW_THIS
	KW_TRUE
	KW_VARIABLE
	KW_WHILE
)

var kindNames = map[Kind]string{
	ILLEGAL: "ILLEGAL",
	EOF:     "EOF",

	LPAREN:    "(",
	RPAREN:    ")",
	LBRACE:    "{",
	RBRACE:    "}",
	COMMA:     ",",
	DOT:       ".",
	MINUS:     "-",
	PLUS:      "+",
	SEMICOLON: ";",
	SLASH:     "/",
	STAR:      "*",

	BANG:          "!",
	BANG_EQUAL:    "!=",
	EQUAL:         "=",
	EQUAL_EQUAL:   "==",
	GREATER:       ">",
	GREATER_EQUAL: ">=",
	LESS:          "<",
	LESS_EQUAL:    "<=",

	IDENT:  "IDENT",
	STRING: "STRING",
	NUMBER: "NUMBER",

	KW_AND:      "and",
	KW_TEMPLATE: "template",
	KW_ELSE:     "else",
	KW_FALSE:    "false",
	KW_FUNCTION: "function",
	KW_FOR:      "for",
	KW_IF:       "if",
	KW_NONE:     "none",
	KW_OR:       "or",
	KW_PRINT:    "print",
	KW_RETURN:   "return",
	KW_SUPER:    "super",
	KW_THIS:     "this",
	KW_TRUE:     "true",
	KW_VARIABLE: "variable",
	KW_WHILE:    "while",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsKeyword reports whether k is a reserved word.
func (k Kind) IsKeyword() bool {
	return k >= KW_AND && k <= KW_WHILE
}

var keywords = map[string]Kind{
	"and":      KW_AND,
	"template": KW_TEMPLATE,
	"else":     KW_ELSE,
	"false":    KW_FALSE,
	"function": KW_FUNCTION,
	"for":      KW_FOR,
	"if":       KW_IF,
	"none":     KW_NONE,
	"or":       KW_OR,
	"print":    KW_PRINT,
	"return":   KW_RETURN,
	"super":    KW_SUPER,
	"this":     KW_THIS,
	"true":     KW_TRUE,
	"variable": KW_VARIABLE,
	"while":    KW_WHILE,
}

// LookupIdent returns the keyword kind for ident, or IDENT.
func LookupIdent(ident string) Kind {
	if kind, ok := keywords[ident]; ok {
		return kind
	}
	return IDENT
}

// Token is a single lexical token.
type Token struct {
	Kind    Kind
	Lexeme  string
	Literal any // float64 for NUMBER, string for STRING, nil otherwise
	Span    span.Span
}

// Line returns the 1-based source line the token starts on.
func (t Token) Line() int {
	return t.Span.Start.Line
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q) at %s", t.Kind, t.Lexeme, t.Span.Start)
}

