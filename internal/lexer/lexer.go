// Package lexer implements the lexical analysis (tokenization) for JEZ.
package lexer

import (
	"fmt"
	"jez-lang/internal/diag"
	"jez-lang/internal/span"
	"jez-lang/internal/token"
	"strconv"
	"unicode"
	"unicode/utf8"
)

// Lexer tokenizes source code into a sequence of tokens.
type Lexer struct {
	source   string
	filename string

	pos  int // current read position in source
	line int // current line (1-based)
	col  int // current column (1-based, in runes)

	diags []diag.Diagnostic
}

// New creates a new Lexer for the given source text.
func New(source, filename string) *Lexer {
	return &Lexer{
		source:   source,
		filename: filename,
		pos:      0,
		line:     1,
		col:      1,
	}
}

// Tokenize scans the entire source and returns all tokens and diagnostics.
// Scanning continues past bad characters so one pass reports every lexical
// error; the token slice always ends with EOF.
func (l *Lexer) Tokenize() ([]token.Token, []diag.Diagnostic) {
	var tokens []token.Token
	for {
		tok, ok := l.nextToken()
		if !ok {
			continue
		}
		tokens = append(tokens, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	return tokens, l.diags
}

// ---- internal helpers ----

func (l *Lexer) isAtEnd() bool {
	return l.pos >= len(l.source)
}

// peek returns the current character without advancing, or 0 if at end.
func (l *Lexer) peek() byte {
	if l.isAtEnd() {
		return 0
	}
	return l.source[l.pos]
}

// peekNext returns the character after current, or 0 if at end.
func (l *Lexer) peekNext() byte {
	if l.pos+1 >= len(l.source) {
		return 0
	}
	return l.source[l.pos+1]
}

// advance consumes the current character and returns it.
func (l *Lexer) advance() byte {
	ch := l.source[l.pos]
	l.pos++
	switch {
	case ch == '\n':
		l.line++
		l.col = 1
	case !utf8.RuneStart(ch):
	default:
		l.col++
	}
	return ch
}

// match consumes the current character only if it is expected.
func (l *Lexer) match(expected byte) bool {
	if l.peek() != expected || l.isAtEnd() {
		return false
	}
	l.advance()
	return true
}

func (l *Lexer) curPos() span.Position {
	return span.Position{Offset: l.pos, Line: l.line, Column: l.col}
}

func (l *Lexer) makeToken(kind token.Kind, start span.Position, literal any) token.Token {
	return token.Token{
		Kind:    kind,
		Lexeme:  l.source[start.Offset:l.pos],
		Literal: literal,
		Span:    span.Span{Start: start, End: l.curPos()},
	}
}

func (l *Lexer) addError(code string, pos span.Position, format string, args ...interface{}) {
	d := diag.Errorf(code, diag.PhaseLex, pos, format, args...)
	l.diags = append(l.diags, d)
}

// skipTrivia skips whitespace and // comments.
func (l *Lexer) skipTrivia() {
	for !l.isAtEnd() {
		switch l.peek() {
		case ' ', '\t', '\r', '\n':
			l.advance()
		case '/':
			if l.peekNext() != '/' {
				return
			}
			for !l.isAtEnd() && l.peek() != '\n' {
				l.advance()
			}
		default:
			return
		}
	}
}

// ---- token reading ----

// nextToken scans one token. ok is false when the characters consumed did not
// form a token (an error was recorded instead).
func (l *Lexer) nextToken() (tok token.Token, ok bool) {
	l.skipTrivia()

	start := l.curPos()
	if l.isAtEnd() {
		return l.makeToken(token.EOF, start, nil), true
	}

	ch := l.advance()
	switch ch {
	case '(':
		return l.makeToken(token.LPAREN, start, nil), true
	case ')':
		return l.makeToken(token.RPAREN, start, nil), true
	case '{':
		return l.makeToken(token.LBRACE, start, nil), true
	case '}':
		return l.makeToken(token.RBRACE, start, nil), true
	case ',':
		return l.makeToken(token.COMMA, start, nil), true
	case '.':
		return l.makeToken(token.DOT, start, nil), true
	case '-':
		return l.makeToken(token.MINUS, start, nil), true
	case '+':
		return l.makeToken(token.PLUS, start, nil), true
	case ';':
		return l.makeToken(token.SEMICOLON, start, nil), true
	case '*':
		return l.makeToken(token.STAR, start, nil), true
	case '/':
		return l.makeToken(token.SLASH, start, nil), true
	case '!':
		return l.makeToken(l.either('=', token.BANG_EQUAL, token.BANG), start, nil), true
	case '=':
		return l.makeToken(l.either('=', token.EQUAL_EQUAL, token.EQUAL), start, nil), true
	case '<':
		return l.makeToken(l.either('=', token.LESS_EQUAL, token.LESS), start, nil), true
	case '>':
		return l.makeToken(l.either('=', token.GREATER_EQUAL, token.GREATER), start, nil), true
	case '"':
		return l.readString(start)
	}

	if isDigit(ch) {
		return l.readNumber(start), true
	}
	if isIdentStart(ch) {
		return l.readIdentifier(start), true
	}

	r, size := utf8.DecodeRuneInString(l.source[start.Offset:])
	for i := 1; i < size; i++ {
		l.advance()
	}
	if r == utf8.RuneError && size == 1 {
		l.addError("E1001", start, "unexpected byte 0x%02x", ch)
	} else {
		l.addError("E1001", start, "unexpected character %s", quoteRune(r))
	}
	return token.Token{}, false
}

func (l *Lexer) either(next byte, two, one token.Kind) token.Kind {
	if l.match(next) {
		return two
	}
	return one
}

// readString reads a double-quoted string. Strings may span lines and have
// no escape sequences.
func (l *Lexer) readString(start span.Position) (token.Token, bool) {
	for !l.isAtEnd() && l.peek() != '"' {
		l.advance()
	}
	if l.isAtEnd() {
		l.addError("E1002", start, "unterminated string literal")
		return token.Token{}, false
	}
	l.advance() // closing "
	value := l.source[start.Offset+1 : l.pos-1]
	return l.makeToken(token.STRING, start, value), true
}

// readNumber reads an integer or decimal literal; all numbers are float64.
func (l *Lexer) readNumber(start span.Position) token.Token {
	for isDigit(l.peek()) {
		l.advance()
	}
	if l.peek() == '.' && isDigit(l.peekNext()) {
		l.advance() // skip '.'
		for isDigit(l.peek()) {
			l.advance()
		}
	}
	// Literals too large for a float64 become +Inf.
	value, _ := strconv.ParseFloat(l.source[start.Offset:l.pos], 64)
	return l.makeToken(token.NUMBER, start, value)
}

// readIdentifier reads an identifier or keyword.
func (l *Lexer) readIdentifier(start span.Position) token.Token {
	for isIdentPart(l.peek()) {
		l.advance()
	}
	kind := token.LookupIdent(l.source[start.Offset:l.pos])
	return l.makeToken(kind, start, nil)
}

// ---- character classification ----

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}

func quoteRune(r rune) string {
	if !unicode.IsPrint(r) {
		return fmt.Sprintf("%U", r)
	}
	return fmt.Sprintf("'%c'", r)
}
