package formulas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMean(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.InDelta(t, 2.0, Mean([]float64{1, 2, 3}), 1e-12)
}

func TestStdDev(t *testing.T) {
	assert.Equal(t, 0.0, StdDev(nil))
	// Sample std dev of [2, 4, 4, 4, 5, 5, 7, 9] is ~2.138
	assert.InDelta(t, 2.138089935, StdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9}), 1e-6)
}

func TestCalculateReturns(t *testing.T) {
	returns := CalculateReturns([]float64{100, 110, 99})
	assert.Len(t, returns, 2)
	assert.InDelta(t, 0.10, returns[0], 1e-12)
	assert.InDelta(t, -0.10, returns[1], 1e-12)

	assert.Empty(t, CalculateReturns([]float64{100}))
}

func TestAnnualizedVolatility(t *testing.T) {
	// Daily deviation of [0.01, -0.01, 0.01, -0.01] scaled by sqrt(252).
	returns := []float64{0.01, -0.01, 0.01, -0.01}
	expected := StdDev(returns) * math.Sqrt(252)
	assert.InDelta(t, expected, AnnualizedVolatility(returns), 1e-12)

	got := AnnualizedVolatility([]float64{0.01})
	assert.False(t, math.IsNaN(got), "single return has no deviation")
	assert.Equal(t, 0.0, got)
	assert.Equal(t, 0.0, AnnualizedVolatility(nil))
}

func TestSharpeRatio_ZeroStdDev(t *testing.T) {
	// Constant series has zero return volatility
	assert.Equal(t, 0.0, SharpeRatio([]float64{100, 100, 100, 100}))
	assert.Equal(t, 0.0, SharpeRatio([]float64{100}))
}

func TestSharpeRatio_SingleReturnIsZero(t *testing.T) {
	// Two values give one return, whose sample deviation is undefined; the
	// ratio must be 0, never NaN.
	got := SharpeRatio([]float64{100, 110})
	assert.False(t, math.IsNaN(got))
	assert.Equal(t, 0.0, got)
}

func TestAnnualizedReturn(t *testing.T) {
	tests := []struct {
		name        string
		initial     float64
		final       float64
		elapsedDays int
		expected    float64
	}{
		{"one year double", 10000, 20000, 365, 1.0},
		{"zero days", 10000, 20000, 0, 0},
		{"negative days", 10000, 20000, -5, 0},
		{"flat", 10000, 10000, 730, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, AnnualizedReturn(tt.initial, tt.final, tt.elapsedDays), 1e-9)
		})
	}
}
