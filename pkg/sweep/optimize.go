package sweep

import (
	"math"

	"github.com/edp1096/toy-mna/internal/consts"
)

type OptimumResult struct {
	X           float64
	F           float64 // objective at X, in the caller's sign
	Evaluations int
}

var sqrtEps = math.Sqrt(2.220446049250313e-16)

// Minimize runs Brent's bounded scalar minimizer (golden section with
// parabolic interpolation) on [lo, hi] until the bracket is within xatol.
func Minimize(f Func, lo, hi, xatol float64, maxIter int) (*OptimumResult, error) {
	if maxIter <= 0 {
		maxIter = consts.OptimizeMaxIter
	}
	if xatol <= 0 {
		xatol = consts.OptimizeXTol
	}
	if !(hi > lo) {
		return nil, &OptimizationError{Reason: "lower bound must be below upper bound", X: lo, F: math.NaN()}
	}

	eval := func(x float64) (float64, error) {
		v, err := f(x)
		if err != nil {
			return 0, err
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, &OptimizationError{Reason: "objective is not finite", X: x, F: v}
		}
		return v, nil
	}

	goldenRatio := 0.5 * (3 - math.Sqrt(5))
	a, b := lo, hi
	fulc := a + goldenRatio*(b-a)
	nfc, xf := fulc, fulc
	rat, e := 0.0, 0.0

	fx, err := eval(xf)
	if err != nil {
		return nil, err
	}
	evals := 1
	ffulc, fnfc := fx, fx

	xm := 0.5 * (a + b)
	tol1 := sqrtEps*math.Abs(xf) + xatol/3
	tol2 := 2 * tol1

	for math.Abs(xf-xm) > tol2-0.5*(b-a) {
		if evals >= maxIter {
			return nil, &OptimizationError{Reason: "maximum number of function evaluations exceeded", Iterations: evals, X: xf, F: fx}
		}

		golden := true
		if math.Abs(e) > tol1 {
			golden = false
			r := (xf - nfc) * (fx - ffulc)
			q := (xf - fulc) * (fx - fnfc)
			p := (xf-fulc)*q - (xf-nfc)*r
			q = 2 * (q - r)
			if q > 0 {
				p = -p
			}
			q = math.Abs(q)
			r = e
			e = rat

			if math.Abs(p) < math.Abs(0.5*q*r) && p > q*(a-xf) && p < q*(b-xf) {
				// parabolic step
				rat = p / q
				x := xf + rat
				if x-a < tol2 || b-x < tol2 {
					rat = tol1 * signOrOne(xm-xf)
				}
			} else {
				golden = true
			}
		}

		if golden {
			if xf >= xm {
				e = a - xf
			} else {
				e = b - xf
			}
			rat = goldenRatio * e
		}

		x := xf + signOrOne(rat)*math.Max(math.Abs(rat), tol1)
		fu, err := eval(x)
		if err != nil {
			return nil, err
		}
		evals++

		if fu <= fx {
			if x >= xf {
				a = xf
			} else {
				b = xf
			}
			fulc, ffulc = nfc, fnfc
			nfc, fnfc = xf, fx
			xf, fx = x, fu
		} else {
			if x < xf {
				a = x
			} else {
				b = x
			}
			if fu <= fnfc || nfc == xf {
				fulc, ffulc = nfc, fnfc
				nfc, fnfc = x, fu
			} else if fu <= ffulc || fulc == xf || fulc == nfc {
				fulc, ffulc = x, fu
			}
		}

		xm = 0.5 * (a + b)
		tol1 = sqrtEps*math.Abs(xf) + xatol/3
		tol2 = 2 * tol1
	}

	return &OptimumResult{X: xf, F: fx, Evaluations: evals}, nil
}

// Maximize maximizes f by minimizing −f.
func Maximize(f Func, lo, hi, xatol float64, maxIter int) (*OptimumResult, error) {
	neg := func(x float64) (float64, error) {
		v, err := f(x)
		return -v, err
	}
	res, err := Minimize(neg, lo, hi, xatol, maxIter)
	if err != nil {
		return nil, err
	}
	res.F = -res.F
	return res, nil
}

func signOrOne(x float64) float64 {
	if x < 0 {
		return -1
	}
	return 1
}

// Optimize minimizes (or maximizes) a quantity of the swept circuit.
func (s *Sweeper) Optimize(q Quantity, maximize bool, lo, hi, xatol float64, maxIter int) (*OptimumResult, error) {
	if maximize {
		return Maximize(s.Func(q), lo, hi, xatol, maxIter)
	}
	return Minimize(s.Func(q), lo, hi, xatol, maxIter)
}
