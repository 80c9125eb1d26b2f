package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatValueFactor(t *testing.T) {
	for _, tc := range []struct {
		value float64
		unit  string
		want  string
	}{
		{4700, "Ohm", "4.700 kOhm"},
		{2.2e6, "Ohm", "2.200 MOhm"},
		{6.6667, "V", "6.667 V"},
		{-0.0025, "A", "-2.500 mA"},
		{4.7e-6, "A", "4.700 uA"},
		{0, "V", "0.000 V"},
		{1e-15, "A", "1.000e-15 A"},
	} {
		assert.Equal(t, tc.want, FormatValueFactor(tc.value, tc.unit))
	}
}

func TestFormatMagnitude(t *testing.T) {
	assert.Equal(t, "     732.5", FormatMagnitude(732.5))
	assert.Equal(t, " 1.000e+03", FormatMagnitude(1000))
	assert.Equal(t, " 5.430e-05", FormatMagnitude(5.43e-5))
	assert.Equal(t, "         0", FormatMagnitude(0))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "   1.500 ms", FormatDuration(1500*time.Microsecond))
	assert.Equal(t, "   2.000 s ", FormatDuration(2*time.Second))
	assert.Equal(t, "  12.000 us", FormatDuration(12*time.Microsecond))
}

func TestTable(t *testing.T) {
	tbl := NewTable("R", "V")
	tbl.Row("10", 9.5)
	tbl.Row(1000, "x")

	want := "R     V\n" +
		"---------\n" +
		"10    9.5\n" +
		"1000  x\n"
	assert.Equal(t, want, tbl.String())
}

func TestBDFCoefficients(t *testing.T) {
	assert.InDeltaSlice(t, []float64{2, -2}, GetBDFcoeffs(1, 0.5), 1e-12)
	assert.InDeltaSlice(t, []float64{1.5, -2, 0.5}, GetBDFcoeffs(2, 1), 1e-12)

	// A constant has zero derivative at every order
	for order := 1; order <= MaxBDFOrder; order++ {
		c := GetIntegratorCoeffs(GearMethod, order, 1e-3)
		assert.Len(t, c, order+1)
		sum := 0.0
		for _, v := range c {
			sum += v
		}
		assert.InDelta(t, 0, sum, 1e-6, "order %d", order)
	}

	assert.Len(t, GetBDFcoeffs(9, 1), 2, "out of range order falls back to backward Euler")
}

func TestTrapezoidalCoefficients(t *testing.T) {
	assert.InDeltaSlice(t, []float64{20}, GetIntegratorCoeffs(TrapezoidalMethod, 2, 0.1), 1e-12)
	assert.InDeltaSlice(t, []float64{10}, GetTrapezoidalCoeffs(1, 0.1), 1e-12)
}
