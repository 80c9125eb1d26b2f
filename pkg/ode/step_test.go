package ode

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepResponseMethods(t *testing.T) {
	const r, c = 1000.0, 1e-6
	tau := r * c
	final := 10 * (1 - math.Exp(-5))

	for _, tc := range []struct {
		method   Method
		finalTol float64
	}{
		{RK45Method, 1e-2},
		{Gear, 1e-3},
		{Trapezoidal, 1e-4},
	} {
		t.Run(tc.method.String(), func(t *testing.T) {
			res, err := StepResponse(Params{R: r, C: c, Method: tc.method})
			require.NoError(t, err)

			assert.Equal(t, tc.method, res.Method)
			assert.InDelta(t, tau, res.Tau, 1e-15)
			assert.InDelta(t, tau*math.Log(9), res.RiseRef, 1e-15)
			assert.InEpsilon(t, res.RiseRef, res.Rise, 0.01)
			assert.InDelta(t, final, res.Final, tc.finalTol)
			assert.Zero(t, res.Overshoot)
			assert.False(t, res.Suspect)

			require.Equal(t, len(res.T), len(res.V))
			assert.Equal(t, 0.0, res.T[0])
			assert.Equal(t, 0.0, res.V[0])
			assert.InDelta(t, 5*tau, res.T[len(res.T)-1], 1e-12)
			for i := 1; i < len(res.V); i++ {
				assert.GreaterOrEqual(t, res.V[i], res.V[i-1])
			}
		})
	}
}

func TestStepResponseNegativeStep(t *testing.T) {
	res, err := StepResponse(Params{R: 10, C: 1e-3, VStep: -5, Method: Gear, Order: 3})
	require.NoError(t, err)
	assert.InEpsilon(t, res.RiseRef, res.Rise, 0.01)
	assert.Less(t, res.Final, -4.9)
	assert.False(t, res.Suspect)
}

func TestStepResponseRejectsBadParams(t *testing.T) {
	for _, p := range []Params{
		{R: 0, C: 1e-6},
		{R: -1, C: 1e-6},
		{R: 1000, C: 0},
		{R: math.Inf(1), C: 1e-6},
		{R: math.NaN(), C: 1e-6},
		{R: 1000, C: 1e-6, Method: Gear, Order: 7},
		{R: 1000, C: 1e-6, Method: Method(9)},
	} {
		_, err := StepResponse(p)
		assert.True(t, errors.Is(err, ErrParams), "params %+v", p)
	}
}

func TestStepResponseShortTimeConstant(t *testing.T) {
	res, err := StepResponse(Params{R: 1, C: 1e-15})
	require.NoError(t, err)
	assert.InDelta(t, 1e-15, res.Tau, 1e-27)
	assert.InEpsilon(t, 5e-15, res.T[len(res.T)-1], 1e-9)
	assert.InDelta(t, 10*(1-math.Exp(-5)), res.Final, 1e-2)
	assert.InEpsilon(t, res.RiseRef, res.Rise, 0.01)
}

func TestRK45EndsExactlyOnInterval(t *testing.T) {
	f := func(_, y float64) float64 { return 1 - y }
	ts, _, err := RK45(f, 0, 0, 0.005, 0.005/100)
	require.NoError(t, err)
	assert.Equal(t, 0.005, ts[len(ts)-1])
	for i := 1; i < len(ts); i++ {
		assert.Greater(t, ts[i], ts[i-1])
	}
}

func TestRK45Exponential(t *testing.T) {
	f := func(_, y float64) float64 { return -y }
	ts, ys, err := RK45(f, 0, 1, 2, 0.1)
	require.NoError(t, err)
	assert.InDelta(t, 2, ts[len(ts)-1], 1e-12)
	assert.InDelta(t, math.Exp(-2), ys[len(ys)-1], 1e-4)
	for i := 1; i < len(ts); i++ {
		assert.LessOrEqual(t, ts[i]-ts[i-1], 0.1+1e-12)
	}

	_, _, err = RK45(f, 1, 1, 1, 0.1)
	assert.Error(t, err)
}

func TestParseMethod(t *testing.T) {
	for input, want := range map[string]Method{"": RK45Method, "DOPRI": RK45Method, "bdf": Gear, "trapezoidal": Trapezoidal} {
		got, err := ParseMethod(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got)
	}
	_, err := ParseMethod("euler")
	assert.Error(t, err)
}
