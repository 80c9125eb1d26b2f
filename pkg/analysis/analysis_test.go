package analysis

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/edp1096/toy-mna/pkg/circuit"
	"github.com/edp1096/toy-mna/pkg/netlist"
	"github.com/edp1096/toy-mna/pkg/solver"
	"github.com/edp1096/toy-mna/pkg/sweep"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const divider = `
* resistive divider
R1 1 2 100
R2 2 0 200
V1 1 0 10
`

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newRegistry(t *testing.T) *Registry {
	t.Helper()
	reg, err := Default(WithLogger(quietLogger()))
	require.NoError(t, err)
	return reg
}

func TestDefaultRegistry(t *testing.T) {
	reg := newRegistry(t)
	assert.Equal(t, []string{
		"comparison", "diffint", "error", "interpolate", "lu", "ode",
		"optimize", "performance", "root", "solve", "waveform",
	}, reg.IDs())

	e, ok := reg.Lookup("root")
	require.True(t, ok)
	assert.NotEmpty(t, e.Description)
}

func TestNewRegistryValidates(t *testing.T) {
	run := func(string, Config) (Result, error) { return Result{}, nil }

	_, err := NewRegistry(nil, Entry{ID: " ", Run: run})
	assert.Error(t, err)
	_, err = NewRegistry(nil, Entry{ID: "a"})
	assert.Error(t, err)
	_, err = NewRegistry(nil, Entry{ID: "a", Run: run}, Entry{ID: "a ", Run: run})
	assert.Error(t, err)

	reg, err := NewRegistry(nil, Entry{ID: "b", Run: run}, Entry{ID: "a", Run: run})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, reg.IDs())
}

func TestRunUnknownCapability(t *testing.T) {
	res, err := newRegistry(t).Run("spectrum", divider, nil)
	assert.ErrorIs(t, err, ErrUnknownCapability)
	assert.Contains(t, res.Report, "spectrum")
	assert.NotEmpty(t, res.RunID)
}

func TestRunRecoversPanic(t *testing.T) {
	reg, err := NewRegistry(quietLogger(), Entry{ID: "boom", Description: "panics", Run: func(string, Config) (Result, error) {
		panic("index out of range")
	}})
	require.NoError(t, err)

	res, err := reg.Run("boom", "", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")
	assert.Contains(t, res.Report, "[boom] failed")
	assert.Equal(t, "boom", res.ID)
	assert.Equal(t, "panics", res.Title)
}

func TestSolve(t *testing.T) {
	res, err := newRegistry(t).Run("solve", divider, Config{"verbose": true})
	require.NoError(t, err)

	assert.Equal(t, "solve", res.ID)
	assert.Contains(t, res.Report, "Node voltages: 10.000 V, 6.667 V")
	assert.Contains(t, res.Report, "V(2) = 6.667 V")
	assert.Contains(t, res.Report, "I(V1) = -33.333 mA")
	assert.Contains(t, res.Report, "MATRIX SUMMARY")
	assert.NotContains(t, res.Report, "V(3)", "auxiliary rows are not node voltages")

	require.Len(t, res.Series, 1)
	assert.Equal(t, []float64{1, 2}, res.Series[0].X)
	assert.InDelta(t, 20.0/3, res.Series[0].Y[1], 1e-6)
}

func TestSolveFailures(t *testing.T) {
	reg := newRegistry(t)

	res, err := reg.Run("solve", "I1 0 3 1\nR1 1 0 10\nV1 1 0 5", nil)
	assert.ErrorIs(t, err, solver.ErrSingular)
	assert.Contains(t, res.Report, "SingularMatrixError")

	res, err = reg.Run("solve", "R1 1 0", nil)
	assert.ErrorIs(t, err, netlist.ErrParse)
	assert.Contains(t, res.Report, "ParseError: line 1")

	res, err = reg.Run("solve", "R1 1 0 0", nil)
	assert.ErrorIs(t, err, circuit.ErrValue)
	assert.Contains(t, res.Report, "ValueError")

	_, err = reg.Run("solve", divider, Config{"method": "qr"})
	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "method", ce.Key)
}

func TestLU(t *testing.T) {
	res, err := newRegistry(t).Run("lu", divider, nil)
	require.NoError(t, err)
	assert.Contains(t, res.Report, "Node voltages (LU): 10.000 V, 6.667 V")
	assert.Contains(t, res.Report, "det(G)")
	assert.Contains(t, res.Report, "L =")
}

func TestComparison(t *testing.T) {
	res, err := newRegistry(t).Run("comparison", divider, nil)
	require.NoError(t, err)
	assert.Contains(t, res.Report, "Max |Direct – GMRES|")
	assert.Contains(t, res.Report, "CG failed")
	assert.Contains(t, res.Report, "All methods agree.")
	assert.Len(t, res.Series, 3)
}

func TestPerformance(t *testing.T) {
	reg := newRegistry(t)

	res, err := reg.Run("performance", divider, Config{"repeats": 3})
	require.NoError(t, err)
	assert.Contains(t, res.Report, "Direct: ")
	assert.Contains(t, res.Report, "(best of 3 runs)")
	require.Len(t, res.Series, 1)
	assert.Len(t, res.Series[0].Y, 3)

	_, err = reg.Run("performance", divider, Config{"repeats": 0})
	assert.ErrorIs(t, err, ErrConfig)
}

func TestRoot(t *testing.T) {
	res, err := newRegistry(t).Run("root", divider, Config{"target_node": 2})
	require.NoError(t, err)

	assert.Contains(t, res.Report, "Target Voltage (Vt)    : 5.000 V")
	assert.Contains(t, res.Report, "Patched netlist:")
	require.Len(t, res.Series, 3)
	root := res.Series[2]
	assert.InDelta(t, 200, root.X[0], 0.1)
	assert.InDelta(t, 5, root.Y[0], 1e-3)
}

func TestRootLegacyAliases(t *testing.T) {
	cfg := Config{"R1_min": "10", "R1_max": 10000, "V_target": 5.0, "tol": 1e-3, "target_node": "2"}
	res, err := newRegistry(t).Run("root", divider, cfg)
	require.NoError(t, err)
	assert.InDelta(t, 200, res.Series[2].X[0], 0.1)
}

func TestRootNotBracketedReport(t *testing.T) {
	// Node 1 is pinned at 10 V by V1
	res, err := newRegistry(t).Run("root", divider, nil)
	assert.ErrorIs(t, err, sweep.ErrNotBracketed)
	assert.Contains(t, res.Report, "NotBracketedError: target 5.000 V not bracketed.")
	assert.Contains(t, res.Report, "V(10.0)=10.000 V")
}

func TestRootNoConvergenceReport(t *testing.T) {
	res, err := newRegistry(t).Run("root", divider, Config{"target_node": 2, "max_iter": 2})
	assert.ErrorIs(t, err, sweep.ErrNoConvergence)
	assert.Contains(t, res.Report, "failed to converge within 2 iterations")
}

func TestOptimize(t *testing.T) {
	reg := newRegistry(t)

	res, err := reg.Run("optimize", divider, Config{"objective": "MAX", "target_node": 2})
	require.NoError(t, err)
	assert.Contains(t, res.Report, "Optimal R1")
	require.Len(t, res.Series, 2)
	assert.InDelta(t, 200, res.Series[1].X[0], 1)
	assert.InDelta(t, 0.125, res.Series[1].Y[0], 1e-6)

	_, err = reg.Run("optimize", divider, Config{"objective": "sideways"})
	assert.ErrorIs(t, err, ErrConfig)

	res, err = reg.Run("optimize", divider, Config{"element": "V1"})
	assert.Error(t, err)
	assert.Contains(t, res.Report, "power objective requires a resistor")
}

func TestInterpolate(t *testing.T) {
	reg := newRegistry(t)

	res, err := reg.Run("interpolate", divider, Config{"target_node": 2, "spacing": "log"})
	require.NoError(t, err)
	assert.Contains(t, res.Report, "Cubic spline drawn")
	require.Len(t, res.Series, 2)
	assert.Len(t, res.Series[0].X, 12)
	assert.Len(t, res.Series[1].X, 300)

	_, err = reg.Run("interpolate", divider, Config{"samples": 4})
	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "samples", ce.Key)

	_, err = reg.Run("interpolate", divider, Config{"value_min": 500, "value_max": 100})
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "value_max", ce.Key)
}

func TestDiffInt(t *testing.T) {
	res, err := newRegistry(t).Run("diffint", divider, Config{"target_node": 2, "workers": 2})
	require.NoError(t, err)
	assert.Contains(t, res.Report, "Integral ∫V2 dR1")
	require.Len(t, res.Series, 2)
	assert.Len(t, res.Series[0].Y, 40)
	assert.Equal(t, 0.0, res.Series[1].Y[0])
}

func TestSensitivity(t *testing.T) {
	reg := newRegistry(t)

	a, err := reg.Run("error", divider, Config{"seed": 7, "trials": 3})
	require.NoError(t, err)
	b, err := reg.Run("error", divider, Config{"seed": 7, "trials": 3})
	require.NoError(t, err)

	assert.Contains(t, a.Report, "Mean relative error:")
	assert.Contains(t, a.Report, "Over 3 trials")
	assert.Equal(t, a.Report, b.Report, "same seed, same report")
	assert.Equal(t, a.Series, b.Series)
	assert.NotEqual(t, a.RunID, b.RunID)

	_, err = reg.Run("error", divider, Config{"sigma": 2})
	assert.ErrorIs(t, err, ErrConfig)
}

func TestStepResponse(t *testing.T) {
	reg := newRegistry(t)

	res, err := reg.Run("ode", "", Config{"ODE_R": 1000, "ODE_C": "1e-6", "ode_method": "Gear"})
	require.NoError(t, err)
	assert.Contains(t, res.Report, "RC step solved (τ ≈ 1.00 ms)")
	assert.Contains(t, res.Report, "Overshoot: none")
	require.Len(t, res.Series, 1)
	assert.InDelta(t, 5.0, res.Series[0].X[len(res.Series[0].X)-1], 1e-9)

	def, err := reg.Run("ode", "", Config{})
	require.NoError(t, err)
	assert.Contains(t, def.Report, "RC step solved (τ ≈ 1.00 ms)")
	assert.Contains(t, def.Report, "method rk45")
	assert.Contains(t, def.Report, "Overshoot: none")

	tiny, err := reg.Run("ode", "", Config{"ode_r": 1, "ode_c": 1e-15})
	require.NoError(t, err)
	assert.Contains(t, tiny.Report, "Overshoot: none")

	_, err = reg.Run("ode", "", Config{"ode_r": -5})
	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "ode_r", ce.Key)
}

func TestWaveform(t *testing.T) {
	reg := newRegistry(t)

	res, err := reg.Run("waveform", divider, Config{"target_node": 2, "frames": 5, "duration": 1, "amplitude": 9})
	require.NoError(t, err)
	require.Len(t, res.Series, 1)
	assert.InDeltaSlice(t, []float64{0, 0.25, 0.5, 0.75, 1}, res.Series[0].X, 1e-12)
	assert.InDeltaSlice(t, []float64{0, 6, 0, -6, 0}, res.Series[0].Y, 1e-9)

	_, err = reg.Run("waveform", divider, Config{"source": "R1"})
	assert.ErrorIs(t, err, circuit.ErrTopology)
}

func TestMetricsAreRecorded(t *testing.T) {
	promReg := prometheus.NewRegistry()
	m, err := solver.NewMetrics(promReg)
	require.NoError(t, err)

	reg, err := Default(WithLogger(quietLogger()), WithMetrics(m))
	require.NoError(t, err)
	_, err = reg.Run("comparison", divider, nil)
	require.NoError(t, err)

	families, err := promReg.Gather()
	require.NoError(t, err)
	names := make(map[string]bool)
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	assert.True(t, names["toymna_solves_total"])
	assert.True(t, names["toymna_iterative_fallbacks_total"])
}

func TestConfigGetters(t *testing.T) {
	cfg := Config{"a": "2.5", "b": 3, "c": 3.5, "d": "true", "e": "1k", "f": []int{1}, "R1_min": 42}

	f, err := cfg.Float("a", 0)
	require.NoError(t, err)
	assert.Equal(t, 2.5, f)

	n, err := cfg.Int("b", 0)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = cfg.Int("c", 0)
	assert.ErrorIs(t, err, ErrConfig)

	b, err := cfg.Bool("d", false)
	require.NoError(t, err)
	assert.True(t, b)

	_, err = cfg.Float("e", 0)
	assert.ErrorIs(t, err, ErrConfig)
	_, err = cfg.Float("f", 0)
	assert.ErrorIs(t, err, ErrConfig)

	f, err = cfg.Float("missing", 7)
	require.NoError(t, err)
	assert.Equal(t, 7.0, f)

	assert.True(t, cfg.Has("value_min"))
	n, err = cfg.Int("value_min", 0)
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	for _, v := range []any{uint64(1) << 63, 1e30, -1e30, "99999999999999999999"} {
		_, err = Config{"seed": v}.Int("seed", 0)
		var ce *ConfigError
		require.ErrorAs(t, err, &ce, "value %v", v)
		assert.Equal(t, "integer out of range", ce.Reason)
	}
	n, err = Config{"seed": uint64(12)}.Int("seed", 0)
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	_, err = newRegistry(t).Run("error", divider, Config{"seed": uint64(1) << 63})
	assert.ErrorIs(t, err, ErrConfig)

	assert.Equal(t, "fallback", cfg.String("nope", "fallback"))
	assert.Equal(t, "3", cfg.String("b", ""))
}

func TestParseAssignmentAndMerge(t *testing.T) {
	k, v, err := ParseAssignment(" samples = 20 ")
	require.NoError(t, err)
	assert.Equal(t, "samples", k)
	assert.Equal(t, "20", v)

	_, _, err = ParseAssignment("samples")
	assert.Error(t, err)
	_, _, err = ParseAssignment("=3")
	assert.Error(t, err)

	base := Config{"a": 1, "b": 2}
	merged := base.Merge(Config{"b": 3})
	assert.Equal(t, Config{"a": 1, "b": 3}, merged)
	assert.Equal(t, 2, base["b"])
}

func TestFailureReportPerErrorType(t *testing.T) {
	for _, tc := range []struct {
		err  error
		want string
	}{
		{&circuit.TopologyError{Element: "R9", Reason: "element not found"}, "TopologyError"},
		{&solver.ConvergenceError{Method: "GMRES", Iterations: 3}, "ConvergenceError: GMRES after 3 iterations"},
		{&sweep.OptimizationError{Reason: "objective is not finite"}, "OptimizationError: objective is not finite"},
		{errors.New("plain"), "[x] failed: plain"},
	} {
		assert.Contains(t, failureReport("x", tc.err), tc.want)
	}
}
