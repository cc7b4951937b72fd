// Package driver runs the JEZ pipeline: lex, parse, resolve, interpret.
package driver

import (
	"context"
	"io"
	"jez-lang/internal/ast"
	"jez-lang/internal/config"
	"jez-lang/internal/diag"
	"jez-lang/internal/lexer"
	"jez-lang/internal/metrics"
	"jez-lang/internal/parser"
	"jez-lang/internal/resolver"
	"jez-lang/internal/runtime"
	"jez-lang/internal/token"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Exit codes returned by the CLI.
const (
	ExitOK      = 0
	ExitUsage   = 64
	ExitData    = 65 // static errors
	ExitNoInput = 66
	ExitRuntime = 70
)

// StaticError reports every lex, parse or resolve diagnostic of a source
// unit. A program with static errors is never interpreted.
type StaticError struct {
	Diagnostics []diag.Diagnostic
}

func (e *StaticError) Error() string {
	lines := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		lines[i] = d.String()
	}
	return strings.Join(lines, "\n")
}

// ExitCode classifies err for the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var staticErr *StaticError
	if errors.As(err, &staticErr) {
		return ExitData
	}
	var rtErr *runtime.RuntimeError
	if errors.As(err, &rtErr) {
		return ExitRuntime
	}
	return 1
}

// Driver holds what every run shares: configuration, logger and metrics.
type Driver struct {
	cfg     config.Config
	log     *zap.Logger
	metrics *metrics.Metrics
}

// Option configures a Driver.
type Option func(*Driver)

// WithLogger sets the logger. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(d *Driver) { d.log = log }
}

// WithMetrics replaces the driver's private metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Driver) { d.metrics = m }
}

// New creates a driver.
func New(cfg config.Config, opts ...Option) *Driver {
	d := &Driver{cfg: cfg, log: zap.NewNop()}
	for _, opt := range opts {
		opt(d)
	}
	if d.metrics == nil {
		d.metrics = metrics.New()
	}
	return d
}

// Config returns the driver configuration.
func (d *Driver) Config() config.Config {
	return d.cfg
}

// Metrics returns the counters updated by every run.
func (d *Driver) Metrics() *metrics.Metrics {
	return d.metrics
}

func (d *Driver) staticError(phase diag.Phase, diags []diag.Diagnostic) *StaticError {
	d.metrics.RecordStaticErrors(string(phase), len(diags))
	d.log.Debug("static errors", zap.String("phase", string(phase)), zap.Int("count", len(diags)))
	return &StaticError{Diagnostics: diags}
}

// Tokens scans source.
func (d *Driver) Tokens(source, filename string) ([]token.Token, error) {
	tokens, diags := lexer.New(source, filename).Tokenize()
	d.log.Debug("lexed", zap.String("file", filename), zap.Int("tokens", len(tokens)))
	if diag.HasErrors(diags) {
		return tokens, d.staticError(diag.PhaseLex, diags)
	}
	return tokens, nil
}

// Parse scans and parses source, drawing expression ids from ids (a fresh
// generator when nil). Lex and parse diagnostics are reported together.
func (d *Driver) Parse(source, filename string, ids *ast.IDGen) (*ast.Program, error) {
	tokens, lexDiags := lexer.New(source, filename).Tokenize()

	if ids == nil {
		ids = &ast.IDGen{}
	}
	program, parseDiags := parser.New(tokens, parser.WithIDGen(ids)).ParseProgram()
	d.log.Debug("parsed", zap.String("file", filename), zap.Int("statements", len(program.Stmts)))

	if diag.HasErrors(lexDiags) || diag.HasErrors(parseDiags) {
		d.metrics.RecordStaticErrors(string(diag.PhaseLex), len(lexDiags))
		staticErr := d.staticError(diag.PhaseParse, parseDiags)
		staticErr.Diagnostics = append(lexDiags, parseDiags...)
		return program, staticErr
	}
	return program, nil
}

// Resolve parses source and runs the resolver over it.
func (d *Driver) Resolve(source, filename string, ids *ast.IDGen) (*ast.Program, resolver.Table, error) {
	program, err := d.Parse(source, filename, ids)
	if err != nil {
		return nil, nil, err
	}
	table, diags := resolver.Resolve(program)
	d.log.Debug("resolved", zap.String("file", filename), zap.Int("locals", len(table)))
	if diag.HasErrors(diags) {
		return program, table, d.staticError(diag.PhaseResolve, diags)
	}
	return program, table, nil
}

// Run executes source in a fresh interpreter writing to out. It returns a
// *StaticError, a *runtime.RuntimeError, or a context error.
func (d *Driver) Run(ctx context.Context, source, filename string, out io.Writer) error {
	return d.NewSession(out).Eval(ctx, source, filename)
}

// Session keeps one interpreter and one id generator alive across inputs,
// so later inputs see earlier bindings.
type Session struct {
	d      *Driver
	ids    *ast.IDGen
	interp *runtime.Interpreter
}

// NewSession starts a session printing to out.
func (d *Driver) NewSession(out io.Writer) *Session {
	return &Session{
		d:   d,
		ids: &ast.IDGen{},
		interp: runtime.NewInterpreter(out,
			runtime.WithMetrics(d.metrics),
			runtime.WithLogger(d.log.Named("interp"))),
	}
}

// Eval resolves and runs one source unit. The context is checked between
// phases only.
func (s *Session) Eval(ctx context.Context, source, filename string) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "before parse")
	}
	program, table, err := s.d.Resolve(source, filename, s.ids)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "before interpret")
	}

	s.d.log.Debug("interpreting", zap.String("file", filename))
	return s.interp.Interpret(program, table)
}
