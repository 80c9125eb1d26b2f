package solver

import (
	"math"

	"github.com/edp1096/toy-mna/pkg/matrix"
	"gonum.org/v1/gonum/mat"
)

// conditionLimit is the condition number beyond which G is treated as
// numerically rank deficient.
const conditionLimit = 1 / (2.220446049250313e-16 * 16)

// Factorization is P·A = L·U with unit lower triangular L.
type Factorization struct {
	L    *mat.TriDense
	U    *mat.TriDense
	P    *mat.Dense
	Det  float64
	Cond float64

	perm []int
}

// Factorize computes the LU factorization of sys.G with partial pivoting.
func Factorize(sys *matrix.System) (*Factorization, error) {
	a := sys.G()

	var lu mat.LU
	lu.Factorize(a)

	det := lu.Det()
	cond := lu.Cond()
	if det == 0 || math.IsNaN(det) || math.IsInf(cond, 1) || cond > conditionLimit {
		return nil, &SingularMatrixError{Method: LU, Pivot: cond, Reason: "LU factor U has a zero or negligible pivot"}
	}

	var l, u mat.TriDense
	lu.LTo(&l)
	lu.UTo(&u)

	var prod mat.Dense
	prod.Mul(&l, &u)

	// A = Pg·L·U with Pg[i][perm[i]] = 1, so P = Pgᵀ. Involutions are their
	// own inverse; anything else is confirmed against L·U.
	perm := lu.RowPivots(nil)
	p := permutationMatrix(perm, true)
	tol := 1e-9 * math.Max(1, mat.Norm(a, math.Inf(1)))
	var pa mat.Dense
	pa.Mul(p, a)
	if !mat.EqualApprox(&pa, &prod, tol) {
		p = permutationMatrix(perm, false)
	}

	return &Factorization{
		L:    &l,
		U:    &u,
		P:    p,
		Det:  det,
		Cond: cond,
		perm: perm,
	}, nil
}

func permutationMatrix(perm []int, transpose bool) *mat.Dense {
	n := len(perm)
	p := mat.NewDense(n, n, nil)
	for i, j := range perm {
		if transpose {
			p.Set(j, i, 1)
		} else {
			p.Set(i, j, 1)
		}
	}
	return p
}

// Solve performs the two triangular solves L·y = P·b, U·x = y.
func (f *Factorization) Solve(b mat.Vector) ([]float64, error) {
	var pb, y, x mat.VecDense
	pb.MulVec(f.P, b)

	if err := y.SolveVec(f.L, &pb); err != nil {
		return nil, &SingularMatrixError{Method: LU, Reason: "forward substitution: " + err.Error()}
	}
	if err := x.SolveVec(f.U, &y); err != nil {
		return nil, &SingularMatrixError{Method: LU, Reason: "back substitution: " + err.Error()}
	}

	return x.RawVector().Data, nil
}

// PermutationSign is +1 for an even row permutation, -1 for odd. It equals
// the sign of Det divided by the sign of the product of U's diagonal.
func (f *Factorization) PermutationSign() float64 {
	visited := make([]bool, len(f.perm))
	sign := 1.0
	for i := range f.perm {
		if visited[i] {
			continue
		}
		length := 0
		for j := i; !visited[j]; j = f.perm[j] {
			visited[j] = true
			length++
		}
		if length%2 == 0 {
			sign = -sign
		}
	}
	return sign
}
