package analysis

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"runtime/debug"
	"sort"
	"strings"
	"time"

	"github.com/edp1096/toy-mna/pkg/circuit"
	"github.com/edp1096/toy-mna/pkg/netlist"
	"github.com/edp1096/toy-mna/pkg/solver"
	"github.com/edp1096/toy-mna/pkg/sweep"
	"github.com/google/uuid"
)

// Capability runs one analysis on netlist text.
type Capability func(netlist string, cfg Config) (Result, error)

// Series is one curve for a caller to render.
type Series struct {
	Name   string
	XLabel string
	YLabel string
	X, Y   []float64
}

type Result struct {
	ID      string
	RunID   string
	Title   string
	Report  string
	Series  []Series
	Elapsed time.Duration
}

type Entry struct {
	ID          string
	Description string
	Run         Capability
}

var ErrUnknownCapability = errors.New("analysis: unknown capability")

type Registry struct {
	entries map[string]Entry
	ids     []string
	logger  *slog.Logger
}

type Option func(*env)

// env is shared by the built-in capabilities.
type env struct {
	logger  *slog.Logger
	metrics *solver.Metrics
}

func WithLogger(l *slog.Logger) Option     { return func(e *env) { e.logger = l } }
func WithMetrics(m *solver.Metrics) Option { return func(e *env) { e.metrics = m } }

func (e *env) solverOptions() []solver.Option {
	return []solver.Option{solver.WithLogger(e.logger), solver.WithMetrics(e.metrics)}
}

// NewRegistry validates entries: ids must be non-empty and unique, and every
// entry needs a function.
func NewRegistry(logger *slog.Logger, entries ...Entry) (*Registry, error) {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{entries: make(map[string]Entry, len(entries)), logger: logger}
	for i, e := range entries {
		id := strings.TrimSpace(e.ID)
		switch {
		case id == "":
			return nil, fmt.Errorf("analysis: entry %d has an empty id", i)
		case e.Run == nil:
			return nil, fmt.Errorf("analysis: capability %q has no function", id)
		}
		if _, dup := r.entries[id]; dup {
			return nil, fmt.Errorf("analysis: capability %q registered twice", id)
		}
		e.ID = id
		r.entries[id] = e
		r.ids = append(r.ids, id)
	}
	sort.Strings(r.ids)
	return r, nil
}

// Default returns the registry of built-in capabilities.
func Default(opts ...Option) (*Registry, error) {
	e := &env{logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}

	return NewRegistry(e.logger,
		Entry{"solve", "Node voltages and source currents (direct solve)", e.solve},
		Entry{"lu", "LU factorization P·G = L·U and LU solve", e.lu},
		Entry{"comparison", "Direct vs LU vs iterative (CG, GMRES fallback)", e.comparison},
		Entry{"performance", "Wall-clock timing of every solve method", e.performance},
		Entry{"root", "Bisection for an element value giving a target node voltage", e.root},
		Entry{"optimize", "Bounded optimization of power or voltage over an element value", e.optimize},
		Entry{"interpolate", "Cubic spline of node voltage vs element value with leave-one-out error", e.interpolate},
		Entry{"diffint", "Derivative and cumulative integral of node voltage vs element value", e.diffint},
		Entry{"error", "Node voltage sensitivity to Gaussian perturbation of G", e.sensitivity},
		Entry{"ode", "RC step response", e.stepResponse},
		Entry{"waveform", "Node voltage while a source follows a sine", e.waveform},
	)
}

func (r *Registry) IDs() []string {
	return append([]string(nil), r.ids...)
}

func (r *Registry) Lookup(id string) (Entry, bool) {
	e, ok := r.entries[id]
	return e, ok
}

// Run executes a capability. On failure the returned Result still carries a
// readable report and the error is returned as well. Panics are recovered.
func (r *Registry) Run(id, text string, cfg Config) (res Result, err error) {
	runID := uuid.NewString()
	logger := r.logger.With("run_id", runID, "capability", id)

	entry, ok := r.entries[id]
	if !ok {
		err = fmt.Errorf("%w %q (available: %s)", ErrUnknownCapability, id, strings.Join(r.ids, ", "))
		return Result{ID: id, RunID: runID, Title: id, Report: failureReport(id, err)}, err
	}

	if cfg == nil {
		cfg = Config{}
	}

	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			logger.Error("capability panicked", "panic", p, "stack", string(debug.Stack()))
			err = fmt.Errorf("analysis: capability %q panicked: %v", id, p)
			res = Result{Title: entry.Description}
		}
		res.ID, res.RunID, res.Elapsed = id, runID, time.Since(start)
		if res.Title == "" {
			res.Title = entry.Description
		}
		if err != nil {
			partial := res.Report
			res.Report = failureReport(id, err)
			if partial != "" {
				res.Report += "\n" + partial
			}
			logger.Warn("capability failed", "err", err, "elapsed", res.Elapsed)
			return
		}
		logger.Info("capability finished", "elapsed", res.Elapsed, "series", len(res.Series))
	}()

	logger.Debug("capability started", "config", cfg)
	return entry.Run(text, cfg)
}

// failureReport names the error type and its diagnostic values.
func failureReport(id string, err error) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] failed: %v\n", id, err)

	var (
		parseErr    *netlist.ParseError
		topoErr     *circuit.TopologyError
		valueErr    *circuit.ValueError
		singularErr *solver.SingularMatrixError
		convErr     *solver.ConvergenceError
		bracketErr  *sweep.NotBracketedError
		noConvErr   *sweep.NoConvergenceError
		optErr      *sweep.OptimizationError
		cfgErr      *ConfigError
	)
	switch {
	case errors.As(err, &parseErr):
		fmt.Fprintf(&sb, "ParseError: line %d %q: %s\n", parseErr.Line, parseErr.Text, parseErr.Reason)
	case errors.As(err, &topoErr):
		fmt.Fprintf(&sb, "TopologyError: element %q: %s\n", topoErr.Element, topoErr.Reason)
	case errors.As(err, &valueErr):
		fmt.Fprintf(&sb, "ValueError: element %q value %g: %s\n", valueErr.Element, valueErr.Value, valueErr.Reason)
	case errors.As(err, &singularErr):
		fmt.Fprintf(&sb, "SingularMatrixError: method %s, row %d, pivot %.3g: %s\n", singularErr.Method, singularErr.Row, singularErr.Pivot, singularErr.Reason)
	case errors.As(err, &convErr):
		fmt.Fprintf(&sb, "ConvergenceError: %s after %d iterations, residual %.3e (tol %.1e)\n", convErr.Method, convErr.Iterations, convErr.Residual, convErr.Tolerance)
	case errors.As(err, &bracketErr):
		fmt.Fprintf(&sb, "NotBracketedError: target %.3f V not bracketed.\nV(%.1f)=%.3f V, V(%.1f)=%.3f V\n",
			bracketErr.Target, bracketErr.Lo, bracketErr.FLo, bracketErr.Hi, bracketErr.FHi)
	case errors.As(err, &noConvErr):
		fmt.Fprintf(&sb, "NoConvergenceError: failed to converge within %d iterations; bracket [%g, %g], last V(%g)=%.6f V, residual %.3g V\n",
			noConvErr.Iterations, noConvErr.Lo, noConvErr.Hi, noConvErr.Mid, noConvErr.FMid, math.Abs(noConvErr.FMid-noConvErr.Target))
	case errors.As(err, &optErr):
		fmt.Fprintf(&sb, "OptimizationError: %s after %d evaluations (best f(%g)=%g)\n", optErr.Reason, optErr.Iterations, optErr.X, optErr.F)
	case errors.As(err, &cfgErr):
		fmt.Fprintf(&sb, "ConfigError: %s=%v: %s\n", cfgErr.Key, cfgErr.Value, cfgErr.Reason)
	}
	return sb.String()
}
