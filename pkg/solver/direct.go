package solver

import (
	"math"

	"github.com/edp1096/sparse"
	"github.com/edp1096/toy-mna/pkg/matrix"
)

func newSparseMatrix(size int) (*sparse.Matrix, error) {
	config := &sparse.Configuration{
		Real:           true,
		Complex:        false,
		Expandable:     true,
		Translate:      false,
		ModifiedNodal:  true,
		TiesMultiplier: 5,
		PrinterWidth:   140,
		Annotate:       0,
	}
	return sparse.Create(int64(size), config)
}

// loadSparse copies the non-zero entries of G into a sparse matrix and returns
// the largest magnitude among them. Structural zeros stay out so the Markowitz
// ordering sees the real sparsity pattern.
func loadSparse(sys *matrix.System) (*sparse.Matrix, float64, error) {
	mat, err := newSparseMatrix(sys.Size)
	if err != nil {
		return nil, 0, err
	}

	maxAbs := 0.0
	for i := 1; i <= sys.Size; i++ {
		for j := 1; j <= sys.Size; j++ {
			if v := sys.At(i, j); v != 0 {
				mat.GetElement(int64(i), int64(j)).Real += v
				maxAbs = math.Max(maxAbs, math.Abs(v))
			}
		}
	}
	return mat, maxAbs, nil
}

// solveDirect runs Markowitz-ordered Gaussian elimination on the sparse
// representation of G, then forward/back substitution.
func solveDirect(sys *matrix.System, o *Options) ([]float64, error) {
	size := sys.Size

	if row := sys.ZeroRow(); row != 0 {
		return nil, &SingularMatrixError{Method: Direct, Row: row, Reason: "row has no non-zero entries (floating node or unconstrained branch)"}
	}

	mat, maxAbs, err := loadSparse(sys)
	if err != nil {
		return nil, err
	}
	defer mat.Destroy()

	rhs := make([]float64, size+1) // 1-based indexing
	for i := 1; i <= size; i++ {
		rhs[i] = sys.RHS(i)
	}

	if err := mat.Factor(); err != nil {
		return nil, &SingularMatrixError{Method: Direct, Row: int(mat.SingularRow), Reason: err.Error()}
	}

	// Diags hold pivot reciprocals after factorization
	for step := 1; step <= size; step++ {
		diag := mat.Diags[step]
		if diag == nil || diag.Real == 0 || math.IsNaN(diag.Real) || math.IsInf(diag.Real, 0) {
			return nil, &SingularMatrixError{Method: Direct, Row: step, Reason: "zero pivot"}
		}
		if pivot := math.Abs(1 / diag.Real); pivot < o.PivotTol*maxAbs {
			return nil, &SingularMatrixError{Method: Direct, Row: step, Pivot: pivot, Reason: "pivot below numerical rank threshold"}
		}
	}

	solution, err := mat.Solve(rhs)
	if err != nil {
		return nil, &SingularMatrixError{Method: Direct, Reason: err.Error()}
	}

	return solution[1 : size+1], nil
}
