package diag

import (
	"jez-lang/internal/span"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasErrors(t *testing.T) {
	assert.False(t, HasErrors(nil))
	assert.True(t, HasErrors([]Diagnostic{Errorf("E2001", PhaseParse, span.Position{Line: 1, Column: 1}, "bad")}))
	assert.False(t, HasErrors([]Diagnostic{{Code: "X", Severity: Severity(9)}}))
}

func TestDiagnosticString(t *testing.T) {
	d := Errorf("E3001", PhaseResolve, span.Position{Line: 3, Column: 5}, "already declared")
	d.Where = "x"
	assert.Equal(t, "[E3001] error at 3:5: already declared (near 'x')", d.String())
}
