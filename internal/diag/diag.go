// Package diag provides the diagnostic type shared by every JEZ phase.
package diag

import (
	"fmt"
	"jez-lang/internal/span"
)

// Severity indicates the severity of a diagnostic.
type Severity int

const Error Severity = 0

func (s Severity) String() string {
	if s == Error {
		return "error"
	}
	return "unknown"
}

// Phase names the pipeline stage that produced a diagnostic.
type Phase string

const (
	PhaseLex     Phase = "lex"
	PhaseParse   Phase = "parse"
	PhaseResolve Phase = "resolve"
	PhaseRuntime Phase = "runtime"
)

// Diagnostic represents a problem found in a JEZ program.
type Diagnostic struct {
	Code     string        `json:"code"`           // stable error code, e.g. "E3001"
	Severity Severity      `json:"severity"`       // always Error
	Phase    Phase         `json:"phase"`          // stage that reported it
	Message  string        `json:"message"`        // human-readable description
	Pos      span.Position `json:"pos"`            // source location
	Where    string        `json:"where,omitempty"` // offending lexeme, if any
}

// String returns a human-readable representation of the diagnostic.
func (d Diagnostic) String() string {
	prefix := d.Severity.String()
	if d.Phase == PhaseRuntime {
		prefix = "runtime " + prefix
	}
	msg := fmt.Sprintf("[%s] %s at %s: %s", d.Code, prefix, d.Pos, d.Message)
	if d.Where != "" {
		msg += fmt.Sprintf(" (near '%s')", d.Where)
	}
	return msg
}

// Errorf creates an error diagnostic at the given position.
func Errorf(code string, phase Phase, pos span.Position, format string, args ...interface{}) Diagnostic {
	return Diagnostic{
		Code:     code,
		Severity: Error,
		Phase:    phase,
		Message:  fmt.Sprintf(format, args...),
		Pos:      pos,
	}
}

// HasErrors reports whether any diagnostic in diags is an error.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == Error {
			return true
		}
	}
	return false
}
