package sweep

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/interp"
)

const minSplinePoints = 4

// MinInterpolationSamples keeps every leave-one-out refit at minSplinePoints.
const MinInterpolationSamples = minSplinePoints + 1

type Interpolation struct {
	X, Y           []float64 // Samples
	DenseX, DenseY []float64 // Spline evaluated on the dense grid
	LOO            []float64 // |spline_without_i(x_i) - y_i| per interior sample
	MaxLOO         float64
	RMSLOO         float64
}

// Spline fits a not-a-knot cubic spline through strictly increasing xs.
// The third derivative is continuous at the first and last interior knots,
// so four points are needed.
func Spline(xs, ys []float64) (*interp.NotAKnotCubic, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("spline: %d x values but %d y values", len(xs), len(ys))
	}
	if len(xs) < minSplinePoints {
		return nil, fmt.Errorf("spline: need at least %d points, got %d", minSplinePoints, len(xs))
	}
	for i := 1; i < len(xs); i++ {
		if !(xs[i] > xs[i-1]) {
			return nil, fmt.Errorf("spline: x values must be strictly increasing (x[%d]=%g, x[%d]=%g)", i-1, xs[i-1], i, xs[i])
		}
	}
	var nc interp.NotAKnotCubic
	if err := nc.Fit(xs, ys); err != nil {
		return nil, fmt.Errorf("spline: %w", err)
	}
	return &nc, nil
}

// LeaveOneOut refits the spline without each interior sample and returns the
// absolute error at the left-out point.
func LeaveOneOut(xs, ys []float64) ([]float64, error) {
	if len(xs) < MinInterpolationSamples {
		return nil, fmt.Errorf("leave-one-out needs at least %d samples, got %d", MinInterpolationSamples, len(xs))
	}
	errs := make([]float64, 0, len(xs)-2)
	for i := 1; i < len(xs)-1; i++ {
		tx := append(append(make([]float64, 0, len(xs)-1), xs[:i]...), xs[i+1:]...)
		ty := append(append(make([]float64, 0, len(ys)-1), ys[:i]...), ys[i+1:]...)
		nc, err := Spline(tx, ty)
		if err != nil {
			return nil, err
		}
		errs = append(errs, math.Abs(nc.Predict(xs[i])-ys[i]))
	}
	return errs, nil
}

// Interpolate samples the node voltage at n points, fits a cubic
// spline, evaluates it on a dense grid and cross-validates it.
func (s *Sweeper) Interpolate(lo, hi float64, n, dense int, spacing Spacing) (*Interpolation, error) {
	if n < MinInterpolationSamples {
		return nil, fmt.Errorf("interpolation needs at least %d samples, got %d", MinInterpolationSamples, n)
	}
	xs, ys, err := s.Sample(lo, hi, n, spacing)
	if err != nil {
		return nil, err
	}

	nc, err := Spline(xs, ys)
	if err != nil {
		return nil, err
	}

	dx, err := Grid(lo, hi, dense, spacing)
	if err != nil {
		return nil, err
	}
	dy := make([]float64, len(dx))
	for i, x := range dx {
		dy[i] = nc.Predict(x)
	}

	loo, err := LeaveOneOut(xs, ys)
	if err != nil {
		return nil, err
	}

	res := &Interpolation{X: xs, Y: ys, DenseX: dx, DenseY: dy, LOO: loo}
	var sum float64
	for _, e := range loo {
		res.MaxLOO = math.Max(res.MaxLOO, e)
		sum += e * e
	}
	res.RMSLOO = math.Sqrt(sum / float64(len(loo)))
	return res, nil
}
