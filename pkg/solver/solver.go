package solver

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/edp1096/toy-mna/internal/consts"
	"github.com/edp1096/toy-mna/pkg/matrix"
	"gonum.org/v1/gonum/mat"
)

type Method int

const (
	Direct Method = iota
	LU
	Iterative
)

func (m Method) String() string {
	switch m {
	case Direct:
		return "direct"
	case LU:
		return "lu"
	case Iterative:
		return "iterative"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

// ParseMethod accepts "direct", "lu" and "iterative" (case-insensitive).
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "direct":
		return Direct, nil
	case "lu":
		return LU, nil
	case "iterative", "cg", "gmres":
		return Iterative, nil
	default:
		return 0, fmt.Errorf("unknown solve method %q", s)
	}
}

type Options struct {
	Logger   *slog.Logger
	Metrics  *Metrics
	Tol      float64
	MaxIter  int
	Restart  int
	PivotTol float64 // Direct: relative pivot magnitude treated as zero
}

type Option func(*Options)

func WithLogger(l *slog.Logger) Option    { return func(o *Options) { o.Logger = l } }
func WithMetrics(m *Metrics) Option       { return func(o *Options) { o.Metrics = m } }
func WithTolerance(tol float64) Option    { return func(o *Options) { o.Tol = tol } }
func WithMaxIterations(n int) Option      { return func(o *Options) { o.MaxIter = n } }
func WithRestart(n int) Option            { return func(o *Options) { o.Restart = n } }
func WithPivotTolerance(t float64) Option { return func(o *Options) { o.PivotTol = t } }

func newOptions(opts []Option) *Options {
	o := &Options{
		Tol:      consts.IterativeTol,
		MaxIter:  consts.IterativeMaxIter,
		Restart:  consts.GMRESRestart,
		PivotTol: 1e-13,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Solution holds x of G·x = I: node voltages in NodeOrder, then voltage
// source currents in SourceOrder.
type Solution struct {
	X           []float64
	NodeOrder   []int
	SourceOrder []string
	Method      Method
	Iterative   *IterativeResult // set for Method == Iterative
	Elapsed     time.Duration
}

// NodeVoltages returns the node voltage part of X, without auxiliary rows.
func (s *Solution) NodeVoltages() []float64 {
	return append([]float64(nil), s.X[:len(s.NodeOrder)]...)
}

// Voltage returns the voltage of a physical node; ground and unknown nodes read 0.
func (s *Solution) Voltage(node int) float64 {
	for i, n := range s.NodeOrder {
		if n == node {
			return s.X[i]
		}
	}
	return 0
}

// SourceCurrent returns the signed branch current of a voltage source.
func (s *Solution) SourceCurrent(name string) (float64, bool) {
	for k, n := range s.SourceOrder {
		if strings.EqualFold(n, name) {
			return s.X[len(s.NodeOrder)+k], true
		}
	}
	return 0, false
}

// Residual returns ‖G·x − I‖₂.
func Residual(sys *matrix.System, x []float64) float64 {
	var r mat.VecDense
	r.MulVec(sys.G(), mat.NewVecDense(len(x), append([]float64(nil), x...)))
	r.SubVec(&r, sys.I())
	return mat.Norm(&r, 2)
}

// Solve solves sys with the chosen method.
func Solve(sys *matrix.System, method Method, opts ...Option) (*Solution, error) {
	o := newOptions(opts)

	start := time.Now()
	var (
		x    []float64
		iter *IterativeResult
		err  error
	)

	switch method {
	case Direct:
		x, err = solveDirect(sys, o)
	case LU:
		var f *Factorization
		f, err = Factorize(sys)
		if err == nil {
			x, err = f.Solve(sys.I())
		}
	case Iterative:
		iter, err = solveIterative(sys, o)
		if err == nil {
			x = iter.X
		}
	default:
		err = fmt.Errorf("unknown solve method %v", method)
	}
	elapsed := time.Since(start)

	o.Metrics.observe(method, elapsed, err, iter)
	if err != nil {
		o.Logger.Debug("solve failed", "method", method, "size", sys.Size, "err", err)
		return nil, err
	}

	for i, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &SingularMatrixError{Method: method, Row: i + 1, Reason: "solution has non-finite entries"}
		}
	}

	return &Solution{
		X:           x,
		NodeOrder:   sys.NodeOrder,
		SourceOrder: sys.SourceOrder,
		Method:      method,
		Iterative:   iter,
		Elapsed:     elapsed,
	}, nil
}
