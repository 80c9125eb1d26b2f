package solver

import (
	"errors"
	"math"
	"testing"

	"github.com/edp1096/toy-mna/pkg/circuit"
	"github.com/edp1096/toy-mna/pkg/matrix"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

const divider = `
R1 1 2 100
R2 2 0 200
V1 1 0 10
`

const ladder = `
R1 1 2 1k
R2 2 0 2.2k
R3 2 3 470
R4 3 0 3.3k
R5 3 4 1k
R6 4 0 10k
I1 0 4 2m
V1 1 0 12
`

func build(t *testing.T, netlist string) *matrix.System {
	t.Helper()
	ckt, err := circuit.Parse(netlist)
	require.NoError(t, err)
	sys, err := ckt.Build()
	require.NoError(t, err)
	return sys
}

func TestParseMethod(t *testing.T) {
	for input, want := range map[string]Method{"": Direct, "Direct": Direct, "lu": LU, "GMRES": Iterative, " iterative ": Iterative} {
		got, err := ParseMethod(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}
	_, err := ParseMethod("qr")
	assert.Error(t, err)
}

func TestDividerAllMethods(t *testing.T) {
	sys := build(t, divider)

	for _, method := range []Method{Direct, LU, Iterative} {
		t.Run(method.String(), func(t *testing.T) {
			sol, err := Solve(sys, method)
			require.NoError(t, err)

			assert.InDelta(t, 10.0, sol.Voltage(1), 1e-9)
			assert.InDelta(t, 10.0*200/300, sol.Voltage(2), 1e-6)
			assert.Equal(t, 0.0, sol.Voltage(0))

			// Current flows out of the + terminal through R1 and R2
			cur, ok := sol.SourceCurrent("v1")
			require.True(t, ok)
			assert.InDelta(t, -10.0/300, cur, 1e-9)

			assert.Less(t, Residual(sys, sol.X), 1e-9)
			assert.Len(t, sol.NodeVoltages(), 2)
		})
	}
}

func TestDirectAndLUAgree(t *testing.T) {
	sys := build(t, ladder)

	direct, err := Solve(sys, Direct)
	require.NoError(t, err)
	lu, err := Solve(sys, LU)
	require.NoError(t, err)

	scale := math.Max(1, maxAbs(direct.X))
	assert.LessOrEqual(t, maxDiff(direct.X, lu.X), 1e-8*scale)
}

func TestSparseLoadKeepsStructure(t *testing.T) {
	sys := build(t, ladder)

	m, largest, err := loadSparse(sys)
	require.NoError(t, err)
	defer m.Destroy()

	assert.Equal(t, sys.NonZero(), m.ElementCount())
	assert.Less(t, m.ElementCount(), sys.Size*sys.Size)
	assert.Zero(t, m.FillinCount())
	assert.InDelta(t, 1.0, largest, 1e-12)
}

func TestFloatingNodeIsSingular(t *testing.T) {
	sys := build(t, "I1 0 3 1\nR1 1 0 10\nV1 1 0 5")

	_, err := Solve(sys, Direct)
	require.ErrorIs(t, err, ErrSingular)
	var se *SingularMatrixError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 2, se.Row, "node 3 sits on row 2")

	_, err = Solve(sys, LU)
	assert.ErrorIs(t, err, ErrSingular)

	_, err = Solve(sys, Iterative)
	assert.Error(t, err)
}

func TestSingularWithoutZeroRow(t *testing.T) {
	// Two parallel sources pin the same node: both branch rows are identical
	sys := build(t, "R1 1 0 10\nV1 1 0 5\nV2 1 0 5")

	_, err := Solve(sys, Direct)
	assert.ErrorIs(t, err, ErrSingular)
	_, err = Solve(sys, LU)
	assert.ErrorIs(t, err, ErrSingular)
}

func TestIterativeFallsBackToGMRES(t *testing.T) {
	sys := build(t, divider)

	sol, err := Solve(sys, Iterative)
	require.NoError(t, err)
	require.NotNil(t, sol.Iterative)

	it := sol.Iterative
	assert.True(t, it.Fallback)
	assert.Equal(t, "GMRES", it.Method)
	require.Len(t, it.Attempts, 2)
	assert.False(t, it.Attempts[0].Converged)
	assert.Equal(t, "CG", it.Attempts[0].Method)
	assert.True(t, it.Final().Converged)

	direct, err := Solve(sys, Direct)
	require.NoError(t, err)
	for i := range direct.X {
		assert.InDelta(t, direct.X[i], sol.X[i], 1e-7)
	}
}

func TestIterativeUsesCGOnSPD(t *testing.T) {
	sys := build(t, "R1 1 2 100\nR2 2 0 200\nR3 1 0 50\nI1 0 1 0.1")

	sol, err := Solve(sys, Iterative)
	require.NoError(t, err)
	assert.False(t, sol.Iterative.Fallback)
	assert.Equal(t, "CG", sol.Iterative.Method)

	direct, err := Solve(sys, Direct)
	require.NoError(t, err)
	assert.InDeltaSlice(t, direct.X, sol.X, 1e-7)
}

func TestIterativeConvergenceError(t *testing.T) {
	sys := build(t, ladder)

	_, err := Solve(sys, Iterative, WithMaxIterations(1), WithRestart(1))
	var ce *ConvergenceError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "GMRES", ce.Method)
	assert.ErrorIs(t, err, ErrConvergence)
}

func TestFactorization(t *testing.T) {
	sys := build(t, ladder)

	f, err := Factorize(sys)
	require.NoError(t, err)

	var pa, lu mat.Dense
	pa.Mul(f.P, sys.G())
	lu.Mul(f.L, f.U)
	assert.True(t, mat.EqualApprox(&pa, &lu, 1e-12), "P·A must equal L·U")

	n := sys.Size
	prod := 1.0
	for i := 0; i < n; i++ {
		assert.Equal(t, 1.0, f.L.At(i, i), "L is unit lower triangular")
		prod *= f.U.At(i, i)
	}
	assert.InDelta(t, f.Det, f.PermutationSign()*prod, 1e-9*math.Abs(f.Det))
	assert.InDelta(t, mat.Det(sys.G()), f.Det, 1e-9*math.Abs(f.Det))
	assert.Greater(t, f.Cond, 1.0)

	x, err := f.Solve(sys.I())
	require.NoError(t, err)
	assert.Less(t, Residual(sys, x), 1e-9)
}

func TestCompare(t *testing.T) {
	sys := build(t, ladder)

	cmp := Compare(sys)
	require.Len(t, cmp.Reports, 3)
	assert.True(t, cmp.Agree())

	labels := []string{cmp.Reports[0].Label, cmp.Reports[1].Label, cmp.Reports[2].Label}
	assert.Equal(t, []string{"Direct", "LU", "GMRES"}, labels)
	assert.Equal(t, 0.0, cmp.Reports[0].MaxDeviation)
	for _, r := range cmp.Reports {
		assert.NoError(t, r.Err)
		assert.Less(t, r.MaxDeviation, 1e-6)
	}
}

func TestCompareRecordsFailures(t *testing.T) {
	sys := build(t, "I1 0 3 1\nR1 1 0 10\nV1 1 0 5")

	cmp := Compare(sys)
	require.Len(t, cmp.Reports, 3)
	assert.False(t, cmp.Agree())
	assert.True(t, errors.Is(cmp.Reports[0].Err, ErrSingular))
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	sys := build(t, divider)
	_, err = Solve(sys, Direct, WithMetrics(m))
	require.NoError(t, err)
	_, err = Solve(sys, Iterative, WithMetrics(m))
	require.NoError(t, err)
	_, err = Solve(build(t, "I1 0 3 1\nR1 1 0 10\nV1 1 0 5"), LU, WithMetrics(m))
	require.Error(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)

	counts := make(map[string]float64)
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			key := mf.GetName()
			for _, lp := range metric.GetLabel() {
				key += "/" + lp.GetValue()
			}
			if c := metric.GetCounter(); c != nil {
				counts[key] = c.GetValue()
			}
		}
	}

	assert.Equal(t, 1.0, counts["toymna_solves_total/direct"])
	assert.Equal(t, 1.0, counts["toymna_solves_total/iterative"])
	assert.Equal(t, 1.0, counts["toymna_solves_total/lu"])
	assert.Equal(t, 1.0, counts["toymna_solve_failures_total/lu"])
	assert.Equal(t, 1.0, counts["toymna_iterative_fallbacks_total"])

	_, err = NewMetrics(reg)
	assert.Error(t, err, "collectors register once per registry")
}
