package matrix

import (
	"fmt"
	"io"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/mat"
)

// System is the assembled MNA system G·x = I. Rows 1..len(NodeOrder) are node
// equations in NodeOrder, the remaining rows are voltage source branch
// equations in SourceOrder.
type System struct {
	Size        int
	NodeOrder   []int
	SourceOrder []string
	g           *mat.Dense
	rhs         *mat.VecDense
	nodeIndex   map[int]int
}

func NewSystem(nodeOrder []int, sourceOrder []string) *System {
	size := len(nodeOrder) + len(sourceOrder)

	nodeIndex := make(map[int]int, len(nodeOrder))
	for i, node := range nodeOrder {
		nodeIndex[node] = i + 1
	}

	return &System{
		Size:        size,
		NodeOrder:   append([]int(nil), nodeOrder...),
		SourceOrder: append([]string(nil), sourceOrder...),
		g:           mat.NewDense(size, size, nil),
		rhs:         mat.NewVecDense(size, nil),
		nodeIndex:   nodeIndex,
	}
}

// NodeIndex returns the 1-based row of a physical node, 0 for ground or an
// unknown node.
func (s *System) NodeIndex(node int) int {
	return s.nodeIndex[node]
}

// BranchIndex returns the 1-based row of the k-th voltage source.
func (s *System) BranchIndex(k int) int {
	return len(s.NodeOrder) + k + 1
}

func (s *System) AddElement(i, j int, value float64) {
	if i <= 0 || j <= 0 || i > s.Size || j > s.Size {
		slog.Warn("matrix index out of bounds", "i", i, "j", j, "size", s.Size)
		return
	}
	s.g.Set(i-1, j-1, s.g.At(i-1, j-1)+value)
}

func (s *System) AddRHS(i int, value float64) {
	if i <= 0 || i > s.Size {
		slog.Warn("rhs index out of bounds", "i", i, "size", s.Size)
		return
	}
	s.rhs.SetVec(i-1, s.rhs.AtVec(i-1)+value)
}

// G returns a copy of the conductance matrix (0-based).
func (s *System) G() *mat.Dense {
	return mat.DenseCopyOf(s.g)
}

// I returns a copy of the excitation vector (0-based).
func (s *System) I() *mat.VecDense {
	return mat.VecDenseCopyOf(s.rhs)
}

// At and RHS read single entries with 1-based indices.
func (s *System) At(i, j int) float64 { return s.g.At(i-1, j-1) }
func (s *System) RHS(i int) float64   { return s.rhs.AtVec(i - 1) }

// WithMatrix returns a system sharing the node/branch layout but carrying g in
// place of G. The excitation vector is copied.
func (s *System) WithMatrix(g mat.Matrix) (*System, error) {
	r, c := g.Dims()
	if r != s.Size || c != s.Size {
		return nil, fmt.Errorf("matrix dims %dx%d do not match system size %d", r, c, s.Size)
	}
	out := NewSystem(s.NodeOrder, s.SourceOrder)
	out.g.Copy(g)
	out.rhs.CopyVec(s.rhs)
	return out, nil
}

// NonZero counts the structurally non-zero entries of G.
func (s *System) NonZero() int {
	count := 0
	for i := 0; i < s.Size; i++ {
		for j := 0; j < s.Size; j++ {
			if s.g.At(i, j) != 0 {
				count++
			}
		}
	}
	return count
}

// ZeroRow returns the first 1-based row of G with no non-zero entry, or 0.
func (s *System) ZeroRow() int {
	for i := 0; i < s.Size; i++ {
		empty := true
		for j := 0; j < s.Size; j++ {
			if s.g.At(i, j) != 0 {
				empty = false
				break
			}
		}
		if empty {
			return i + 1
		}
	}
	return 0
}

// Equal reports whether two systems have identical layout and entries within tol.
func (s *System) Equal(o *System, tol float64) bool {
	if s.Size != o.Size || len(s.NodeOrder) != len(o.NodeOrder) || len(s.SourceOrder) != len(o.SourceOrder) {
		return false
	}
	for i := range s.NodeOrder {
		if s.NodeOrder[i] != o.NodeOrder[i] {
			return false
		}
	}
	for i := range s.SourceOrder {
		if s.SourceOrder[i] != o.SourceOrder[i] {
			return false
		}
	}
	return mat.EqualApprox(s.g, o.g, tol) && mat.EqualApprox(s.rhs, o.rhs, tol)
}

func (s *System) rowLabel(i int) string {
	if i <= len(s.NodeOrder) {
		return fmt.Sprintf("V(%d)", s.NodeOrder[i-1])
	}
	return fmt.Sprintf("I(%s)", s.SourceOrder[i-len(s.NodeOrder)-1])
}

// PrintSystem writes the equations row by row, node equations first.
func (s *System) PrintSystem(w io.Writer) {
	fmt.Fprintf(w, "\nCircuit Equations (%dx%d):\n", s.Size, s.Size)
	fmt.Fprintln(w, "Node equations 1..n, followed by branch equations")

	for i := 1; i <= s.Size; i++ {
		fmt.Fprintf(w, "Equation %d:", i)
		for j := 1; j <= s.Size; j++ {
			if v := s.At(i, j); v != 0 {
				fmt.Fprintf(w, "  %+g*%s", v, s.rowLabel(j))
			}
		}
		fmt.Fprintf(w, " = %g\n", s.RHS(i))
	}
}

// PrintSummary writes size, non-zero count and density of G.
func (s *System) PrintSummary(w io.Writer) {
	fmt.Fprintln(w, "\nMATRIX SUMMARY")
	fmt.Fprintf(w, "Size of matrix = %d x %d\n", s.Size, s.Size)

	maxElement := math.Inf(-1)
	minElement := math.Inf(1)
	maxPivot := math.Inf(-1)
	minPivot := math.Inf(1)

	fmt.Fprintf(w, "%8s", "")
	for j := 1; j <= s.Size; j++ {
		fmt.Fprintf(w, "%10s", s.rowLabel(j))
	}
	fmt.Fprintln(w)

	for i := 1; i <= s.Size; i++ {
		fmt.Fprintf(w, "%8s", s.rowLabel(i))
		for j := 1; j <= s.Size; j++ {
			value := s.At(i, j)
			fmt.Fprintf(w, "%10.4g", value)

			if value != 0 {
				maxElement = math.Max(maxElement, value)
				minElement = math.Min(minElement, value)
				if i == j {
					maxPivot = math.Max(maxPivot, value)
					minPivot = math.Min(minPivot, value)
				}
			}
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Largest element in matrix = %.4g\n", maxElement)
	fmt.Fprintf(w, "Smallest element in matrix = %.4g\n", minElement)
	fmt.Fprintf(w, "Largest pivot element = %.4g\n", maxPivot)
	fmt.Fprintf(w, "Smallest pivot element = %.4g\n", minPivot)
	fmt.Fprintf(w, "Density = %.2f%%\n", float64(s.NonZero())*100/float64(s.Size*s.Size))
}
