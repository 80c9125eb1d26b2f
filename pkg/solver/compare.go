package solver

import (
	"math"
	"time"

	"github.com/edp1096/toy-mna/internal/consts"
	"github.com/edp1096/toy-mna/pkg/matrix"
)

type MethodReport struct {
	Method       Method
	Label        string // "Direct", "LU", "CG" or "GMRES"
	Solution     *Solution
	Residual     float64       // ‖G·x − I‖₂
	Elapsed      time.Duration // informational only
	MaxDeviation float64       // max |V − V_direct| over node voltages
	Err          error
}

type Comparison struct {
	Reports []MethodReport
}

// Agree reports whether every successful method matches Direct within the
// relative agreement tolerance.
func (c *Comparison) Agree() bool {
	ref := c.Reports[0]
	if ref.Err != nil {
		return false
	}
	scale := math.Max(1, maxAbs(ref.Solution.X))
	for _, r := range c.Reports[1:] {
		if r.Err != nil {
			return false
		}
		tol := consts.AgreementTol
		if r.Method == Iterative {
			tol = math.Max(tol, 1e3*consts.IterativeTol)
		}
		if maxDiff(ref.Solution.X, r.Solution.X) > tol*scale {
			return false
		}
	}
	return true
}

// Compare solves sys with every method. Failures are recorded per method, not
// returned.
func Compare(sys *matrix.System, opts ...Option) *Comparison {
	cmp := &Comparison{}
	for _, method := range []Method{Direct, LU, Iterative} {
		rep := MethodReport{Method: method, Label: labelFor(method, nil)}
		sol, err := Solve(sys, method, opts...)
		if err != nil {
			rep.Err = err
			cmp.Reports = append(cmp.Reports, rep)
			continue
		}
		rep.Solution = sol
		rep.Label = labelFor(method, sol)
		rep.Residual = Residual(sys, sol.X)
		rep.Elapsed = sol.Elapsed
		cmp.Reports = append(cmp.Reports, rep)
	}

	if ref := cmp.Reports[0]; ref.Err == nil {
		for i := range cmp.Reports {
			if r := cmp.Reports[i]; r.Err == nil {
				cmp.Reports[i].MaxDeviation = maxDiff(ref.Solution.NodeVoltages(), r.Solution.NodeVoltages())
			}
		}
	}
	return cmp
}

func labelFor(method Method, sol *Solution) string {
	switch method {
	case Direct:
		return "Direct"
	case LU:
		return "LU"
	default:
		if sol != nil && sol.Iterative != nil {
			return sol.Iterative.Method
		}
		return "Iterative"
	}
}

func maxAbs(x []float64) float64 {
	m := 0.0
	for _, v := range x {
		m = math.Max(m, math.Abs(v))
	}
	return m
}

func maxDiff(a, b []float64) float64 {
	m := 0.0
	for i := range a {
		m = math.Max(m, math.Abs(a[i]-b[i]))
	}
	return m
}
