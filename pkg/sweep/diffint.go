package sweep

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/integrate"
)

type DiffInt struct {
	X, Y           []float64
	Derivative     []float64 // dV/dx at every sample
	Integral       []float64 // cumulative ∫V dx from X[0], Integral[0] = 0
	Total          float64
	MeanDerivative float64
}

// Gradient returns dy/dx on a possibly non-uniform grid: second-order
// central differences inside, first-order one-sided differences at the ends.
func Gradient(xs, ys []float64) ([]float64, error) {
	n := len(xs)
	if n != len(ys) {
		return nil, fmt.Errorf("gradient: %d x values but %d y values", n, len(ys))
	}
	if n < 2 {
		return nil, fmt.Errorf("gradient: need at least 2 points, got %d", n)
	}

	d := make([]float64, n)
	d[0] = (ys[1] - ys[0]) / (xs[1] - xs[0])
	d[n-1] = (ys[n-1] - ys[n-2]) / (xs[n-1] - xs[n-2])
	for i := 1; i < n-1; i++ {
		hs := xs[i] - xs[i-1]
		hd := xs[i+1] - xs[i]
		d[i] = (hs*hs*ys[i+1] + (hd*hd-hs*hs)*ys[i] - hd*hd*ys[i-1]) / (hs * hd * (hd + hs))
	}
	return d, nil
}

// CumulativeTrapezoid returns the running trapezoid integral, starting at 0.
func CumulativeTrapezoid(xs, ys []float64) []float64 {
	out := make([]float64, len(xs))
	for i := 1; i < len(xs); i++ {
		out[i] = out[i-1] + 0.5*(xs[i]-xs[i-1])*(ys[i]+ys[i-1])
	}
	return out
}

// DiffInt samples the node voltage over a linear grid and differentiates and
// integrates it with respect to the swept value.
func (s *Sweeper) DiffInt(lo, hi float64, n int) (*DiffInt, error) {
	if n < 3 {
		return nil, fmt.Errorf("differentiation needs at least 3 samples, got %d", n)
	}
	xs, ys, err := s.Sample(lo, hi, n, Linear)
	if err != nil {
		return nil, err
	}

	d, err := Gradient(xs, ys)
	if err != nil {
		return nil, err
	}
	cum := CumulativeTrapezoid(xs, ys)

	total := integrate.Trapezoidal(xs, ys)
	if !scalar.EqualWithinAbsOrRel(total, cum[n-1], 1e-12, 1e-9) {
		return nil, fmt.Errorf("trapezoid mismatch: cumulative %g, direct %g", cum[n-1], total)
	}

	return &DiffInt{
		X:              xs,
		Y:              ys,
		Derivative:     d,
		Integral:       cum,
		Total:          total,
		MeanDerivative: floats.Sum(d) / float64(n),
	}, nil
}
