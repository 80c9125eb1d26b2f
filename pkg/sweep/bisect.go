package sweep

import (
	"math"

	"github.com/edp1096/toy-mna/internal/consts"
)

type BisectStep struct {
	Iteration int
	X         float64
	F         float64
}

type RootResult struct {
	Root       float64
	Value      float64 // f(Root)
	Iterations int
	Steps      []BisectStep
}

// Bisect finds x in [lo, hi] with |f(x) − target| < tol. The interval must
// bracket the target.
func Bisect(f Func, target, lo, hi, tol float64, maxIter int) (*RootResult, error) {
	if maxIter <= 0 {
		maxIter = consts.BisectMaxIter
	}
	if lo > hi {
		lo, hi = hi, lo
	}

	fLo, err := f(lo)
	if err != nil {
		return nil, err
	}
	fHi, err := f(hi)
	if err != nil {
		return nil, err
	}

	dLo, dHi := fLo-target, fHi-target
	switch {
	case dLo == 0:
		return &RootResult{Root: lo, Value: fLo}, nil
	case dHi == 0:
		return &RootResult{Root: hi, Value: fHi}, nil
	case math.IsNaN(dLo) || math.IsNaN(dHi) || dLo*dHi > 0:
		return nil, &NotBracketedError{Lo: lo, Hi: hi, FLo: fLo, FHi: fHi, Target: target}
	}

	res := &RootResult{}
	for iter := 0; ; iter++ {
		mid := 0.5 * (lo + hi)
		fMid, err := f(mid)
		if err != nil {
			return nil, err
		}
		res.Steps = append(res.Steps, BisectStep{Iteration: iter, X: mid, F: fMid})

		dMid := fMid - target
		if dMid == 0 || math.Abs(dMid) < tol {
			res.Root, res.Value, res.Iterations = mid, fMid, iter+1
			return res, nil
		}

		if iter+1 >= maxIter {
			return nil, &NoConvergenceError{
				Iterations: iter + 1,
				Lo:         lo,
				Hi:         hi,
				Mid:        mid,
				FMid:       fMid,
				Target:     target,
				Tol:        tol,
			}
		}

		if dLo*dMid < 0 {
			hi = mid
		} else {
			lo, dLo = mid, dMid
		}
	}
}

// Root finds the element value that puts the observed node at target volts.
func (s *Sweeper) Root(target, lo, hi, tol float64, maxIter int) (*RootResult, error) {
	return Bisect(s.Eval, target, lo, hi, tol, maxIter)
}
