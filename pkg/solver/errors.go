package solver

import (
	"errors"
	"fmt"
)

var (
	// ErrSingular matches *SingularMatrixError.
	ErrSingular = errors.New("solver: singular matrix")
	// ErrConvergence matches *ConvergenceError.
	ErrConvergence = errors.New("solver: iterative solve did not converge")
)

type SingularMatrixError struct {
	Method Method
	Row    int     // 1-based row where elimination broke down, 0 if unknown
	Pivot  float64 // Offending pivot magnitude (or condition number for LU)
	Reason string
}

func (e *SingularMatrixError) Error() string {
	msg := fmt.Sprintf("solver: %s: singular matrix: %s", e.Method, e.Reason)
	if e.Row > 0 {
		msg += fmt.Sprintf(" (row %d)", e.Row)
	}
	return msg
}

func (e *SingularMatrixError) Is(target error) bool { return target == ErrSingular }

// ConvergenceError is returned when CG and the GMRES fallback both fail.
type ConvergenceError struct {
	Method     string // Last method attempted
	Iterations int
	Residual   float64 // Final relative residual
	Tolerance  float64
	Cause      string
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("solver: %s did not converge after %d iterations: residual %.3e > tol %.1e (%s)",
		e.Method, e.Iterations, e.Residual, e.Tolerance, e.Cause)
}

func (e *ConvergenceError) Is(target error) bool { return target == ErrConvergence }
