package runtime

import (
	"fmt"
	"jez-lang/internal/diag"
	"jez-lang/internal/token"
)

// RuntimeError aborts a run. Token is the source token the failure is
// reported against.
type RuntimeError struct {
	Code    string
	Token   token.Token
	Message string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("[%s] runtime error at line %d: %s", e.Code, e.Token.Line(), e.Message)
}

// Diagnostic converts the error into the form used for static errors.
func (e *RuntimeError) Diagnostic() diag.Diagnostic {
	d := diag.Errorf(e.Code, diag.PhaseRuntime, e.Token.Span.Start, "%s", e.Message)
	d.Where = e.Token.Lexeme
	return d
}

func runtimeErr(tok token.Token, code, format string, args ...interface{}) *RuntimeError {
	return &RuntimeError{Code: code, Token: tok, Message: fmt.Sprintf(format, args...)}
}
