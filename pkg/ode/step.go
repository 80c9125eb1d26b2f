package ode

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/edp1096/toy-mna/internal/consts"
	"github.com/edp1096/toy-mna/pkg/util"
)

type Method int

const (
	RK45Method Method = iota
	Gear
	Trapezoidal
)

func (m Method) String() string {
	switch m {
	case RK45Method:
		return "rk45"
	case Gear:
		return "gear"
	case Trapezoidal:
		return "trap"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "rk45", "dopri", "rk":
		return RK45Method, nil
	case "gear", "bdf":
		return Gear, nil
	case "trap", "trapezoidal":
		return Trapezoidal, nil
	default:
		return 0, fmt.Errorf("unknown integration method %q", s)
	}
}

var ErrParams = errors.New("ode: invalid parameters")

// Fixed-step methods take this many steps per time constant.
const stepsPerTau = 200

type Params struct {
	R, C   float64
	VStep  float64
	Span   float64 // Integrate to Span·τ
	Method Method
	Order  int // Gear order 1..6, default 2
}

type Result struct {
	Method    Method
	Tau       float64
	RiseRef   float64 // τ·ln 9, closed-form 10-90 % rise time
	Rise      float64 // Measured on the trajectory, NaN if 90 % is never reached
	Final     float64
	Overshoot float64 // max(v) − VStep, in the step direction
	Suspect   bool
	T, V      []float64
}

// StepResponse integrates dv/dt = (VStep − v)/(R·C) from v(0) = 0.
func StepResponse(p Params) (*Result, error) {
	if !(p.R > 0) || math.IsInf(p.R, 0) {
		return nil, fmt.Errorf("%w: R must be positive and finite, got %g", ErrParams, p.R)
	}
	if !(p.C > 0) || math.IsInf(p.C, 0) {
		return nil, fmt.Errorf("%w: C must be positive and finite, got %g", ErrParams, p.C)
	}
	if p.VStep == 0 {
		p.VStep = consts.StepVolts
	}
	if p.Span <= 0 {
		p.Span = consts.StepSpan
	}
	if p.Order == 0 {
		p.Order = 2
	}
	if p.Order < 1 || p.Order > util.MaxBDFOrder {
		return nil, fmt.Errorf("%w: gear order must be 1..%d, got %d", ErrParams, util.MaxBDFOrder, p.Order)
	}

	tau := p.R * p.C
	tEnd := p.Span * tau

	var (
		ts, vs []float64
		err    error
	)
	switch p.Method {
	case RK45Method:
		f := func(_, v float64) float64 { return (p.VStep - v) / tau }
		ts, vs, err = RK45(f, 0, 0, tEnd, tau/20)
	case Gear:
		ts, vs = gearRC(tau, p.VStep, tEnd, p.Order)
	case Trapezoidal:
		ts, vs = trapRC(tau, p.VStep, tEnd)
	default:
		err = fmt.Errorf("%w: unknown method %v", ErrParams, p.Method)
	}
	if err != nil {
		return nil, err
	}

	res := &Result{
		Method:  p.Method,
		Tau:     tau,
		RiseRef: tau * math.Log(9),
		Rise:    riseTime(ts, vs, p.VStep),
		Final:   vs[len(vs)-1],
		T:       ts,
		V:       vs,
	}

	peak := math.Inf(-1)
	for _, v := range vs {
		peak = math.Max(peak, v/p.VStep)
	}
	res.Overshoot = math.Max(0, (peak-1)*math.Abs(p.VStep))
	res.Suspect = res.Overshoot > 1e-6*math.Abs(p.VStep)
	return res, nil
}

func fixedGrid(tau, tEnd float64) (float64, int) {
	n := int(math.Ceil(tEnd / tau * stepsPerTau))
	if n < 1 {
		n = 1
	}
	return tEnd / float64(n), n
}

// gearRC steps the linear RC equation with BDF, raising the order as history
// becomes available.
func gearRC(tau, vs, tEnd float64, order int) ([]float64, []float64) {
	dt, n := fixedGrid(tau, tEnd)
	ts := make([]float64, n+1)
	v := make([]float64, n+1)

	for step := 1; step <= n; step++ {
		k := min(order, step)
		c := util.GetIntegratorCoeffs(util.GearMethod, k, dt)
		// c0·v + Σ ci·v_{step-i} = (vs − v)/τ
		rhs := vs / tau
		for i := 1; i <= k; i++ {
			rhs -= c[i] * v[step-i]
		}
		v[step] = rhs / (c[0] + 1/tau)
		ts[step] = float64(step) * dt
	}
	return ts, v
}

// trapRC steps the linear RC equation with the trapezoidal rule.
func trapRC(tau, vs, tEnd float64) ([]float64, []float64) {
	dt, n := fixedGrid(tau, tEnd)
	ts := make([]float64, n+1)
	v := make([]float64, n+1)

	c := util.GetIntegratorCoeffs(util.TrapezoidalMethod, 2, dt)[0]
	for step := 1; step <= n; step++ {
		prev := v[step-1]
		fPrev := (vs - prev) / tau
		// c·(v − prev) − f(prev) = f(v)
		v[step] = (vs/tau + c*prev + fPrev) / (c + 1/tau)
		ts[step] = float64(step) * dt
	}
	return ts, v
}

// riseTime measures the 10-90 % rise time by linear interpolation between
// trajectory points.
func riseTime(ts, vs []float64, vstep float64) float64 {
	t10 := crossing(ts, vs, 0.1*vstep, vstep)
	t90 := crossing(ts, vs, 0.9*vstep, vstep)
	if math.IsNaN(t10) || math.IsNaN(t90) {
		return math.NaN()
	}
	return t90 - t10
}

func crossing(ts, vs []float64, level, vstep float64) float64 {
	sign := math.Copysign(1, vstep)
	for i := 1; i < len(vs); i++ {
		a, b := sign*vs[i-1], sign*vs[i]
		l := sign * level
		if a < l && b >= l {
			return ts[i-1] + (l-a)/(b-a)*(ts[i]-ts[i-1])
		}
	}
	return math.NaN()
}
