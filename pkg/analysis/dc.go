package analysis

import (
	"fmt"
	"math"
	"strings"

	"github.com/edp1096/toy-mna/pkg/circuit"
	"github.com/edp1096/toy-mna/pkg/netlist"
	"github.com/edp1096/toy-mna/pkg/sweep"
	"github.com/edp1096/toy-mna/pkg/util"
	"gonum.org/v1/gonum/floats"
)

func (e *env) sweeper(text string, o sweepOptions) (*sweep.Sweeper, error) {
	ckt, err := circuit.Parse(text)
	if err != nil {
		return nil, err
	}
	return sweep.New(ckt, o.Element, o.Node,
		sweep.WithMethod(o.method()),
		sweep.WithSolverOptions(e.solverOptions()...),
		sweep.WithWorkers(o.Workers),
	)
}

func unitOf(sw *sweep.Sweeper) string {
	return sw.Element().Kind.Unit()
}

// curve samples V(node) for the plot that accompanies a sweep report.
func curve(sw *sweep.Sweeper, lo, hi float64, n int) (Series, error) {
	spacing := sweep.Linear
	if lo > 0 && hi/lo >= 100 {
		spacing = sweep.Log
	}
	xs, ys, err := sw.Sample(lo, hi, n, spacing)
	if err != nil {
		return Series{}, err
	}
	el := sw.Element()
	return Series{
		Name:   fmt.Sprintf("V_node %d", sw.Node()),
		XLabel: fmt.Sprintf("%s (%s)", el.Name, el.Kind.Unit()),
		YLabel: fmt.Sprintf("V_node%d (V)", sw.Node()),
		X:      xs,
		Y:      ys,
	}, nil
}

func (e *env) root(text string, cfg Config) (Result, error) {
	o, err := decodeRoot(cfg)
	if err != nil {
		return Result{}, err
	}
	sw, err := e.sweeper(text, o.sweepOptions)
	if err != nil {
		return Result{}, err
	}
	res, err := sw.Root(o.Target, o.Min, o.Max, o.Tol, o.MaxIter)
	if err != nil {
		return Result{}, err
	}

	el, unit := sw.Element(), unitOf(sw)
	var sb strings.Builder
	fmt.Fprintf(&sb, "Target Node            : %d\n", o.Node)
	fmt.Fprintf(&sb, "Target Voltage (Vt)    : %.3f V\n", o.Target)
	fmt.Fprintf(&sb, "Tolerance              : ±%.3g V\n", o.Tol)
	fmt.Fprintf(&sb, "Search Interval        : [%g, %g] %s\n\n", o.Min, o.Max, unit)
	fmt.Fprintf(&sb, "%4s | %12s | %11s\n", "Iter", fmt.Sprintf("%s (%s)", el.Name, unit), "V_node (V)")
	sb.WriteString(strings.Repeat("-", 33) + "\n")
	for _, st := range res.Steps {
		fmt.Fprintf(&sb, "%4d | %12.3f | %11.6f\n", st.Iteration, st.X, st.F)
	}
	fmt.Fprintf(&sb, "\nConverged %s ≈ %.3f %s  →  V ≈ %.3f V (%d iterations)\n", el.Name, res.Root, unit, res.Value, res.Iterations)

	patched, err := sw.Patch(res.Root)
	if err != nil {
		return Result{}, err
	}
	fmt.Fprintf(&sb, "%s = %s\n", el.Name, util.FormatValueFactor(res.Root, unit))
	fmt.Fprintf(&sb, "\nPatched netlist:\n%s", patched)

	c, err := curve(sw, o.Min, o.Max, 200)
	if err != nil {
		return Result{}, err
	}
	target := Series{Name: "V_target", XLabel: c.XLabel, YLabel: c.YLabel, X: []float64{o.Min, o.Max}, Y: []float64{o.Target, o.Target}}
	found := Series{Name: "root", XLabel: c.XLabel, YLabel: c.YLabel, X: []float64{res.Root}, Y: []float64{res.Value}}

	return Result{Title: "Root-Finding: Voltage vs " + el.Name, Report: sb.String(), Series: []Series{c, target, found}}, nil
}

func (e *env) optimize(text string, cfg Config) (Result, error) {
	o, err := decodeOptimize(cfg)
	if err != nil {
		return Result{}, err
	}
	sw, err := e.sweeper(text, o.sweepOptions)
	if err != nil {
		return Result{}, err
	}
	q := o.quantity()
	res, err := sw.Optimize(q, o.Objective == "max", o.Min, o.Max, o.Tol, o.MaxIter)
	if err != nil {
		return Result{}, err
	}

	el, unit := sw.Element(), unitOf(sw)
	fUnit, fName := "W", "P"
	if q == sweep.NodeVoltage {
		fUnit, fName = "V", fmt.Sprintf("V(%d)", o.Node)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Optimal %s ≈ %.2f %s → %s ≈ %.4f %s\n", el.Name, res.X, unit, fName, res.F, fUnit)
	fmt.Fprintf(&sb, "Objective: %s %s over [%g, %g] %s, xatol %g, %d evaluations\n",
		o.Objective, o.Quantity, o.Min, o.Max, unit, o.Tol, res.Evaluations)

	xs, err := sweep.Grid(o.Min, o.Max, 200, sweep.Linear)
	if err != nil {
		return Result{}, err
	}
	ys, err := sweep.Sample(sw.Func(q), xs, o.Workers)
	if err != nil {
		return Result{}, err
	}
	s := Series{Name: fName, XLabel: fmt.Sprintf("%s (%s)", el.Name, unit), YLabel: fmt.Sprintf("%s (%s)", fName, fUnit), X: xs, Y: ys}
	opt := Series{Name: "optimum", XLabel: s.XLabel, YLabel: s.YLabel, X: []float64{res.X}, Y: []float64{res.F}}

	return Result{Title: "Optimization", Report: sb.String(), Series: []Series{s, opt}}, nil
}

func (e *env) interpolate(text string, cfg Config) (Result, error) {
	o, err := decodeInterpolate(cfg)
	if err != nil {
		return Result{}, err
	}
	sw, err := e.sweeper(text, o.sweepOptions)
	if err != nil {
		return Result{}, err
	}
	res, err := sw.Interpolate(o.Min, o.Max, o.Samples, o.Dense, o.spacing())
	if err != nil {
		return Result{}, err
	}

	el, unit := sw.Element(), unitOf(sw)
	var sb strings.Builder
	sb.WriteString("Cubic spline drawn\n")
	fmt.Fprintf(&sb, "%d %s samples of V(%d) over [%g, %g] %s, %d dense points\n",
		o.Samples, o.Spacing, o.Node, o.Min, o.Max, unit, o.Dense)
	fmt.Fprintf(&sb, "Leave-one-out error (%d interior samples): max %.3e V, RMS %.3e V\n", len(res.LOO), res.MaxLOO, res.RMSLOO)

	xl, yl := fmt.Sprintf("%s (%s)", el.Name, unit), fmt.Sprintf("V_node%d (V)", o.Node)
	return Result{
		Title:  "Cubic Spline Interpolation",
		Report: sb.String(),
		Series: []Series{
			{Name: "samples", XLabel: xl, YLabel: yl, X: res.X, Y: res.Y},
			{Name: "spline", XLabel: xl, YLabel: yl, X: res.DenseX, Y: res.DenseY},
		},
	}, nil
}

func (e *env) diffint(text string, cfg Config) (Result, error) {
	o, err := decodeDiffInt(cfg)
	if err != nil {
		return Result{}, err
	}
	sw, err := e.sweeper(text, o.sweepOptions)
	if err != nil {
		return Result{}, err
	}
	res, err := sw.DiffInt(o.Min, o.Max, o.Samples)
	if err != nil {
		return Result{}, err
	}

	el, unit := sw.Element(), unitOf(sw)
	var sb strings.Builder
	fmt.Fprintf(&sb, "Integral ∫V%d d%s ≈ %.3f V·%s\n", o.Node, el.Name, res.Total, unit)
	fmt.Fprintf(&sb, "Mean dV%d/d%s ≈ %.3e V/%s over %d samples\n", o.Node, el.Name, res.MeanDerivative, unit, o.Samples)
	i := floats.MaxIdx(absAll(res.Derivative))
	fmt.Fprintf(&sb, "Steepest slope %.3e V/%s at %s = %.3f %s\n", res.Derivative[i], unit, el.Name, res.X[i], unit)

	xl := fmt.Sprintf("%s (%s)", el.Name, unit)
	return Result{
		Title:  fmt.Sprintf("Numerical derivative dV%d/d%s", o.Node, el.Name),
		Report: sb.String(),
		Series: []Series{
			{Name: "dV/dx", XLabel: xl, YLabel: fmt.Sprintf("dV/d%s (V/%s)", el.Name, unit), X: res.X, Y: res.Derivative},
			{Name: "∫V dx", XLabel: xl, YLabel: fmt.Sprintf("V·%s", unit), X: res.X, Y: res.Integral},
		},
	}, nil
}

func absAll(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = math.Abs(v)
	}
	return out
}

func (e *env) waveform(text string, cfg Config) (Result, error) {
	o, err := decodeWaveform(cfg)
	if err != nil {
		return Result{}, err
	}
	ckt, err := circuit.Parse(text)
	if err != nil {
		return Result{}, err
	}
	src, err := ckt.Element(o.Source)
	if err != nil {
		return Result{}, err
	}
	if src.Kind == netlist.Resistor {
		return Result{}, &circuit.TopologyError{Element: src.Name, Reason: "waveform source must be a voltage or current source"}
	}
	sw, err := sweep.New(ckt, o.Source, o.Node,
		sweep.WithMethod(o.method()),
		sweep.WithSolverOptions(e.solverOptions()...),
		sweep.WithWorkers(o.Workers),
	)
	if err != nil {
		return Result{}, err
	}

	times := make([]float64, o.Frames)
	floats.Span(times, 0, o.Duration)
	vs, err := sw.Waveform(o.Amplitude, o.Frequency, times)
	if err != nil {
		return Result{}, err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Animating node-%d voltage (%g sin 2π·%g·t on %s)\n", o.Node, o.Amplitude, o.Frequency, src.Name)
	fmt.Fprintf(&sb, "%d frames over %g s: V(%d) min %.3f V, max %.3f V\n", o.Frames, o.Duration, o.Node, floats.Min(vs), floats.Max(vs))

	return Result{
		Title:  fmt.Sprintf("Live node-%d voltage (%g sin 2πt)", o.Node, o.Amplitude),
		Report: sb.String(),
		Series: []Series{{Name: fmt.Sprintf("V(%d)", o.Node), XLabel: "Time (s)", YLabel: "Voltage (V)", X: times, Y: vs}},
	}, nil
}
