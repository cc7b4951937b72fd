package metrics

import (
	"bytes"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersMove(t *testing.T) {
	m := New()
	m.RecordStatement()
	m.RecordStatement()
	m.RecordCall(CallFunction)
	m.RecordCall(CallNative)
	m.RecordCall(CallFunction)
	m.RecordFrame()
	m.RecordRuntimeError()
	m.RecordStaticErrors("resolve", 3)
	m.RecordStaticErrors("parse", 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.StatementsExecuted))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CallsTotal.WithLabelValues(CallFunction)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CallsTotal.WithLabelValues(CallNative)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FramesCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RuntimeErrors))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.StaticErrors.WithLabelValues("resolve")))
	// a zero add never creates the series
	assert.Equal(t, 1, testutil.CollectAndCount(m.StaticErrors))
}

func TestSeparateRegistries(t *testing.T) {
	a, b := New(), New()
	a.RecordStatement()
	assert.Equal(t, 1.0, testutil.ToFloat64(a.StatementsExecuted))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.StatementsExecuted))
}

func TestWriteText(t *testing.T) {
	m := New()
	m.RecordCall(CallClass)
	m.RecordRun(5 * time.Millisecond)

	var buf bytes.Buffer
	require.NoError(t, m.WriteText(&buf))
	out := buf.String()
	assert.Contains(t, out, `jez_calls_total{kind="class"} 1`)
	assert.Contains(t, out, "jez_statements_executed_total 0")
	assert.Contains(t, out, "jez_run_duration_seconds_count 1")
}
