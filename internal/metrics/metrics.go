// Package metrics counts what the interpreter does during a run.
package metrics

import (
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

const namespace = "jez"

// Call kinds used as the "kind" label of CallsTotal.
const (
	CallFunction = "function"
	CallNative   = "native"
	CallClass    = "class"
)

// Metrics holds the execution counters of one interpreter or driver.
type Metrics struct {
	StatementsExecuted prometheus.Counter
	CallsTotal         *prometheus.CounterVec
	FramesCreated      prometheus.Counter
	RuntimeErrors      prometheus.Counter
	StaticErrors       *prometheus.CounterVec
	RunDuration        prometheus.Histogram

	registry *prometheus.Registry
}

// New creates a Metrics with its own registry, so several interpreters in
// one process never collide.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.StatementsExecuted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "statements_executed_total",
		Help:      "Total number of statements executed",
	})

	m.CallsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "calls_total",
		Help:      "Total number of calls by callee kind",
	}, []string{"kind"})

	m.FramesCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "frames_created_total",
		Help:      "Total number of environment frames created",
	})

	m.RuntimeErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "runtime_errors_total",
		Help:      "Total number of runs aborted by a runtime error",
	})

	m.StaticErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "static_errors_total",
		Help:      "Total number of static errors by phase",
	}, []string{"phase"})

	m.RunDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "run_duration_seconds",
		Help:      "Wall time spent interpreting a program",
		Buckets:   prometheus.DefBuckets,
	})

	m.registry.MustRegister(
		m.StatementsExecuted,
		m.CallsTotal,
		m.FramesCreated,
		m.RuntimeErrors,
		m.StaticErrors,
		m.RunDuration,
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordStatement counts one executed statement.
func (m *Metrics) RecordStatement() {
	m.StatementsExecuted.Inc()
}

// RecordCall counts one call of the given kind.
func (m *Metrics) RecordCall(kind string) {
	m.CallsTotal.WithLabelValues(kind).Inc()
}

// RecordFrame counts one new environment frame.
func (m *Metrics) RecordFrame() {
	m.FramesCreated.Inc()
}

// RecordRuntimeError counts one aborted run.
func (m *Metrics) RecordRuntimeError() {
	m.RuntimeErrors.Inc()
}

// RecordStaticErrors adds n static errors reported by phase.
func (m *Metrics) RecordStaticErrors(phase string, n int) {
	if n == 0 {
		return
	}
	m.StaticErrors.WithLabelValues(phase).Add(float64(n))
}

// RecordRun observes the duration of one interpretation.
func (m *Metrics) RecordRun(d time.Duration) {
	m.RunDuration.Observe(d.Seconds())
}

// Gather collects the current metric families.
func (m *Metrics) Gather() ([]*dto.MetricFamily, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return nil, errors.Wrap(err, "gather metrics")
	}
	return families, nil
}

// WriteText writes every metric family in the Prometheus text format.
func (m *Metrics) WriteText(w io.Writer) error {
	families, err := m.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return errors.Wrapf(err, "write metric family %s", mf.GetName())
		}
	}
	return nil
}
