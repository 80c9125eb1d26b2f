package analysis

import (
	"fmt"
	"strings"
	"time"

	"github.com/edp1096/toy-mna/pkg/solver"
	"github.com/edp1096/toy-mna/pkg/util"
)

func (e *env) comparison(text string, cfg Config) (Result, error) {
	_, sys, err := build(text)
	if err != nil {
		return Result{}, err
	}
	cmp := solver.Compare(sys, e.solverOptions()...)
	direct := cmp.Reports[0]
	if direct.Err != nil {
		return Result{}, direct.Err
	}

	var (
		sb     strings.Builder
		series []Series
		label  = "Iterative"
		dev    float64
	)
	t := util.NewTable("Method", "Residual", "Max |ΔV| vs Direct", "Status")
	for _, r := range cmp.Reports {
		if r.Err != nil {
			t.Row(r.Label, "-", "-", r.Err.Error())
			continue
		}
		status := "ok"
		if it := r.Solution.Iterative; it != nil {
			label, dev = r.Label, r.MaxDeviation
			if it.Fallback {
				status = fmt.Sprintf("CG failed (%s), GMRES in %d iterations", it.Attempts[0].Status, it.Final().Iterations)
			} else {
				status = fmt.Sprintf("converged in %d iterations", it.Final().Iterations)
			}
		}
		t.Row(r.Label, fmt.Sprintf("%.3e", r.Residual), fmt.Sprintf("%.3e V", r.MaxDeviation), status)
		series = append(series, voltageSeries(r.Label, r.Solution))
	}

	fmt.Fprintf(&sb, "Max |Direct – %s| = %.2e V\n\n", label, dev)
	sb.WriteString(t.String())
	if cmp.Agree() {
		sb.WriteString("\nAll methods agree.\n")
	} else {
		sb.WriteString("\nMethods DISAGREE or a method failed.\n")
	}

	// A failed iterative chain is still an error for programmatic callers.
	for _, r := range cmp.Reports[1:] {
		if r.Err != nil {
			return Result{Title: "Solver Comparison", Report: sb.String(), Series: series}, r.Err
		}
	}
	return Result{Title: "Solver Comparison", Report: sb.String(), Series: series}, nil
}

func (e *env) performance(text string, cfg Config) (Result, error) {
	repeats, err := cfg.Int("repeats", 1)
	if err != nil {
		return Result{}, err
	}
	if repeats < 1 || repeats > 10000 {
		return Result{}, &ConfigError{Key: "repeats", Value: repeats, Reason: "must be between 1 and 10000"}
	}
	_, sys, err := build(text)
	if err != nil {
		return Result{}, err
	}

	methods := []solver.Method{solver.Direct, solver.LU, solver.Iterative}
	best := make([]time.Duration, len(methods))
	for i, m := range methods {
		for k := 0; k < repeats; k++ {
			sol, err := solver.Solve(sys, m, e.solverOptions()...)
			if err != nil {
				return Result{}, err
			}
			if k == 0 || sol.Elapsed < best[i] {
				best[i] = sol.Elapsed
			}
		}
	}

	ms := func(d time.Duration) float64 { return d.Seconds() * 1e3 }

	var sb strings.Builder
	fmt.Fprintf(&sb, "Direct: %.3f ms   |   LU: %.3f ms\n\n", ms(best[0]), ms(best[1]))
	t := util.NewTable("Method", "Time", "Size")
	s := Series{Name: "solve time", XLabel: "Method (0=Direct, 1=LU, 2=Iterative)", YLabel: "Time (ms)"}
	for i, m := range methods {
		t.Row(m.String(), util.FormatDuration(best[i]), fmt.Sprintf("%dx%d", sys.Size, sys.Size))
		s.X = append(s.X, float64(i))
		s.Y = append(s.Y, ms(best[i]))
	}
	sb.WriteString(t.String())
	if repeats > 1 {
		fmt.Fprintf(&sb, "(best of %d runs)\n", repeats)
	}

	return Result{Title: "Solver Performance", Report: sb.String(), Series: []Series{s}}, nil
}
