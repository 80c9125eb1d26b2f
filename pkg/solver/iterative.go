package solver

import (
	"fmt"
	"math"

	"github.com/edp1096/toy-mna/pkg/matrix"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Attempt records one iterative method run.
type Attempt struct {
	Method     string
	Converged  bool
	Iterations int
	Residual   float64 // ‖b − A·x‖ / ‖b‖
	Status     string
}

type IterativeResult struct {
	X        []float64
	Method   string // Method that produced X
	Fallback bool   // CG failed and GMRES produced X
	Attempts []Attempt
}

func (r *IterativeResult) Final() Attempt {
	return r.Attempts[len(r.Attempts)-1]
}

// solveIterative tries conjugate gradient and escalates once to restarted
// GMRES when CG does not converge.
func solveIterative(sys *matrix.System, o *Options) (*IterativeResult, error) {
	a := sys.G()
	b := sys.I().RawVector().Data

	res := &IterativeResult{}

	x, cg := conjugateGradient(a, b, o.Tol, o.MaxIter)
	res.Attempts = append(res.Attempts, cg)
	if cg.Converged {
		res.X, res.Method = x, cg.Method
		return res, nil
	}

	o.Logger.Info("CG did not converge, falling back to GMRES",
		"status", cg.Status, "iterations", cg.Iterations, "residual", cg.Residual, "size", sys.Size)

	x, gm := gmres(a, b, o.Tol, o.Restart, o.MaxIter)
	res.Attempts = append(res.Attempts, gm)
	res.Fallback = true
	if gm.Converged {
		res.X, res.Method = x, gm.Method
		return res, nil
	}

	return res, &ConvergenceError{
		Method:     gm.Method,
		Iterations: gm.Iterations,
		Residual:   gm.Residual,
		Tolerance:  o.Tol,
		Cause:      fmt.Sprintf("CG: %s; GMRES: %s", cg.Status, gm.Status),
	}
}

func mulVec(a *mat.Dense, x []float64) []float64 {
	n, _ := a.Dims()
	dst := make([]float64, n)
	mat.NewVecDense(n, dst).MulVec(a, mat.NewVecDense(len(x), x))
	return dst
}

// isSPD reports whether a is symmetric within a relative tolerance and admits
// a Cholesky factorization.
func isSPD(a *mat.Dense) (bool, string) {
	n, _ := a.Dims()
	scale := mat.Norm(a, math.Inf(1))
	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			if math.Abs(a.At(i, j)-a.At(j, i)) > 1e-12*scale {
				return false, fmt.Sprintf("matrix is not symmetric at (%d,%d)", i+1, j+1)
			}
			sym.SetSym(i, j, a.At(i, j))
		}
	}
	var chol mat.Cholesky
	if ok := chol.Factorize(sym); !ok {
		return false, "matrix is not positive definite"
	}
	return true, ""
}

func conjugateGradient(a *mat.Dense, b []float64, tol float64, maxIter int) ([]float64, Attempt) {
	att := Attempt{Method: "CG"}
	n := len(b)
	x := make([]float64, n)

	if ok, why := isSPD(a); !ok {
		att.Status = why
		att.Residual = 1
		return x, att
	}

	bnorm := floats.Norm(b, 2)
	if bnorm == 0 {
		att.Converged, att.Status = true, "zero right-hand side"
		return x, att
	}

	r := append([]float64(nil), b...)
	p := append([]float64(nil), r...)
	rr := floats.Dot(r, r)

	for att.Iterations < maxIter {
		if math.Sqrt(rr)/bnorm < tol {
			att.Converged, att.Status = true, "converged"
			att.Residual = math.Sqrt(rr) / bnorm
			return x, att
		}
		att.Iterations++

		ap := mulVec(a, p)
		pap := floats.Dot(p, ap)
		if pap <= 0 {
			att.Status = fmt.Sprintf("breakdown: pᵀAp = %g", pap)
			att.Residual = math.Sqrt(rr) / bnorm
			return x, att
		}

		alpha := rr / pap
		floats.AddScaled(x, alpha, p)
		floats.AddScaled(r, -alpha, ap)

		rrNew := floats.Dot(r, r)
		beta := rrNew / rr
		rr = rrNew
		floats.AddScaledTo(p, r, beta, p)
	}

	att.Residual = math.Sqrt(rr) / bnorm
	if att.Residual < tol {
		att.Converged, att.Status = true, "converged"
		return x, att
	}
	att.Status = fmt.Sprintf("iteration limit %d reached", maxIter)
	return x, att
}

// gmres is restarted GMRES(m) with modified Gram-Schmidt and Givens rotations.
func gmres(a *mat.Dense, b []float64, tol float64, restart, maxIter int) ([]float64, Attempt) {
	att := Attempt{Method: "GMRES"}
	n := len(b)
	x := make([]float64, n)

	bnorm := floats.Norm(b, 2)
	if bnorm == 0 {
		att.Converged, att.Status = true, "zero right-hand side"
		return x, att
	}
	m := restart
	if m <= 0 || m > n {
		m = n
	}

	residual := func() float64 {
		r := mulVec(a, x)
		floats.SubTo(r, b, r)
		return floats.Norm(r, 2) / bnorm
	}

	v := make([][]float64, m+1)
	h := make([][]float64, m+1)
	for i := range h {
		h[i] = make([]float64, m)
	}
	cs := make([]float64, m)
	sn := make([]float64, m)
	g := make([]float64, m+1)

	for att.Iterations < maxIter {
		r := mulVec(a, x)
		floats.SubTo(r, b, r)
		beta := floats.Norm(r, 2)
		att.Residual = beta / bnorm
		if att.Residual < tol {
			att.Converged, att.Status = true, "converged"
			return x, att
		}

		v[0] = r
		floats.Scale(1/beta, v[0])
		for i := range g {
			g[i] = 0
		}
		g[0] = beta

		k := 0
		for j := 0; j < m && att.Iterations < maxIter; j++ {
			att.Iterations++
			w := mulVec(a, v[j])
			for i := 0; i <= j; i++ {
				h[i][j] = floats.Dot(w, v[i])
				floats.AddScaled(w, -h[i][j], v[i])
			}
			h[j+1][j] = floats.Norm(w, 2)
			if h[j+1][j] != 0 {
				floats.Scale(1/h[j+1][j], w)
			}
			v[j+1] = w

			for i := 0; i < j; i++ {
				hi, hi1 := h[i][j], h[i+1][j]
				h[i][j] = cs[i]*hi + sn[i]*hi1
				h[i+1][j] = -sn[i]*hi + cs[i]*hi1
			}
			denom := math.Hypot(h[j][j], h[j+1][j])
			if denom == 0 {
				att.Status = "breakdown: zero Hessenberg column"
				att.Residual = residual()
				return x, att
			}
			cs[j], sn[j] = h[j][j]/denom, h[j+1][j]/denom
			h[j][j] = denom
			h[j+1][j] = 0
			g[j+1] = -sn[j] * g[j]
			g[j] = cs[j] * g[j]

			k = j + 1
			if math.Abs(g[j+1])/bnorm < tol {
				break
			}
		}

		// Back substitution on the k×k upper triangle
		y := make([]float64, k)
		for i := k - 1; i >= 0; i-- {
			sum := g[i]
			for l := i + 1; l < k; l++ {
				sum -= h[i][l] * y[l]
			}
			y[i] = sum / h[i][i]
		}
		for i := 0; i < k; i++ {
			floats.AddScaled(x, y[i], v[i])
		}
	}

	att.Residual = residual()
	if att.Residual < tol {
		att.Converged, att.Status = true, "converged"
		return x, att
	}
	att.Status = fmt.Sprintf("iteration limit %d reached", maxIter)
	return x, att
}
