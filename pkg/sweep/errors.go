package sweep

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrNotBracketed  = errors.New("sweep: root not bracketed")
	ErrNoConvergence = errors.New("sweep: bisection did not converge")
	ErrOptimization  = errors.New("sweep: optimization failed")
)

// NotBracketedError carries both endpoint evaluations.
type NotBracketedError struct {
	Lo, Hi   float64
	FLo, FHi float64
	Target   float64
}

func (e *NotBracketedError) Error() string {
	return fmt.Sprintf("sweep: target %g not bracketed: f(%g)=%g, f(%g)=%g", e.Target, e.Lo, e.FLo, e.Hi, e.FHi)
}

func (e *NotBracketedError) Is(target error) bool { return target == ErrNotBracketed }

type NoConvergenceError struct {
	Iterations int
	Lo, Hi     float64 // Final bracket
	Mid, FMid  float64 // Last evaluation
	Target     float64
	Tol        float64
}

func (e *NoConvergenceError) Error() string {
	return fmt.Sprintf("sweep: bisection failed after %d iterations: bracket [%g, %g], f(%g)=%g, |f-target|=%.3g >= tol %g",
		e.Iterations, e.Lo, e.Hi, e.Mid, e.FMid, math.Abs(e.FMid-e.Target), e.Tol)
}

func (e *NoConvergenceError) Is(target error) bool { return target == ErrNoConvergence }

type OptimizationError struct {
	Reason     string
	Iterations int
	X, F       float64 // Best point so far
}

func (e *OptimizationError) Error() string {
	return fmt.Sprintf("sweep: optimization failed after %d evaluations: %s (best f(%g)=%g)", e.Iterations, e.Reason, e.X, e.F)
}

func (e *OptimizationError) Is(target error) bool { return target == ErrOptimization }
