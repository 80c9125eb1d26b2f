package ode

import (
	"fmt"
	"math"
)

// Func is the right-hand side of a scalar ODE y' = f(t, y).
type Func func(t, y float64) float64

// Dormand–Prince 5(4) tableau.
var (
	dpC = [7]float64{0, 1.0 / 5, 3.0 / 10, 4.0 / 5, 8.0 / 9, 1, 1}
	dpA = [7][6]float64{
		{},
		{1.0 / 5},
		{3.0 / 40, 9.0 / 40},
		{44.0 / 45, -56.0 / 15, 32.0 / 9},
		{19372.0 / 6561, -25360.0 / 2187, 64448.0 / 6561, -212.0 / 729},
		{9017.0 / 3168, -355.0 / 33, 46732.0 / 5247, 49.0 / 176, -5103.0 / 18656},
		{35.0 / 384, 0, 500.0 / 1113, 125.0 / 192, -2187.0 / 6784, 11.0 / 84},
	}
	// 5th order weights minus embedded 4th order weights
	dpE = [7]float64{71.0 / 57600, 0, -71.0 / 16695, 71.0 / 1920, -17253.0 / 339200, 22.0 / 525, -1.0 / 40}
)

const (
	rkRelTol   = 1e-3
	rkAbsTol   = 1e-6
	rkSafety   = 0.9
	rkMinScale = 0.2
	rkMaxScale = 10.0
	rkMaxSteps = 100000

	// smallest step relative to the time scale of the problem
	minStep = 1e-12
)

// RK45 integrates f from (t0, y0) to tEnd with adaptive Dormand–Prince steps
// no longer than maxStep. It returns every accepted point, including both ends.
func RK45(f Func, t0, y0, tEnd, maxStep float64) ([]float64, []float64, error) {
	if !(tEnd > t0) {
		return nil, nil, fmt.Errorf("rk45: empty interval [%g, %g]", t0, tEnd)
	}
	if !(maxStep > 0) {
		maxStep = tEnd - t0
	}

	span := tEnd - t0
	ts := []float64{t0}
	ys := []float64{y0}

	t, y := t0, y0
	h := math.Min(maxStep, 1e-2*span)
	var k [7]float64
	k[0] = f(t, y)

	for steps := 0; t < tEnd; steps++ {
		if steps >= rkMaxSteps {
			return nil, nil, fmt.Errorf("rk45: step limit %d reached at t=%g", rkMaxSteps, t)
		}
		last := t+h >= tEnd
		if last {
			h = tEnd - t
		}

		for s := 1; s < 7; s++ {
			yi := y
			for j := 0; j < s; j++ {
				yi += h * dpA[s][j] * k[j]
			}
			k[s] = f(t+dpC[s]*h, yi)
		}
		yNew := y
		for j := 0; j < 6; j++ {
			yNew += h * dpA[6][j] * k[j]
		}

		var errEst float64
		for j := 0; j < 7; j++ {
			errEst += h * dpE[j] * k[j]
		}
		scale := rkAbsTol + rkRelTol*math.Max(math.Abs(y), math.Abs(yNew))
		errNorm := math.Abs(errEst) / scale

		if math.IsNaN(errNorm) || math.IsInf(yNew, 0) {
			return nil, nil, fmt.Errorf("rk45: non-finite state at t=%g", t)
		}

		if errNorm <= 1 {
			t += h
			if last {
				t = tEnd
			}
			y = yNew
			k[0] = k[6] // FSAL
			ts = append(ts, t)
			ys = append(ys, y)
			if last {
				break
			}
		}

		factor := rkMaxScale
		if errNorm > 0 {
			factor = rkSafety * math.Pow(errNorm, -0.2)
		}
		factor = math.Min(rkMaxScale, math.Max(rkMinScale, factor))
		h = math.Min(maxStep, h*factor)
		if h < minStep*math.Max(span, math.Abs(t)) {
			return nil, nil, fmt.Errorf("rk45: step size underflow at t=%g", t)
		}
	}

	return ts, ys, nil
}
