package market

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPctChange(t *testing.T) {
	out := PctChange([]float64{100, 110, 99})

	require.Len(t, out, 3)
	assert.True(t, math.IsNaN(out[0]))
	assert.InDelta(t, 0.10, out[1], 1e-9)
	assert.InDelta(t, -0.10, out[2], 1e-9)
}

func TestRollingSharpeWarmupAndSign(t *testing.T) {
	closes := []float64{100, 102, 101, 104, 103, 106, 105, 108}
	out := RollingSharpe(closes, 3, 0)

	require.Len(t, out, len(closes))
	for i := 0; i < 3; i++ {
		assert.True(t, math.IsNaN(out[i]), "index %d is warmup", i)
	}
	// Upward-drifting series with varying returns yields a positive ratio.
	assert.Greater(t, out[len(out)-1], 0.0)
}

func TestRollingSharpeConstantReturnsIsNaN(t *testing.T) {
	// Identical returns have zero deviation.
	out := RollingSharpe([]float64{100, 110, 121, 133.1}, 2, 0)
	assert.True(t, math.IsNaN(out[3]))
}

func TestExpandingVolatility(t *testing.T) {
	out := ExpandingVolatility([]float64{100, 100, 100, 100})

	require.Len(t, out, 4)
	assert.True(t, math.IsNaN(out[0]))
	for i := 1; i < 4; i++ {
		assert.InDelta(t, 0.0, out[i], 1e-12)
	}

	varied := ExpandingVolatility([]float64{100, 110, 95, 120})
	assert.Greater(t, varied[3], 0.0)
}

func TestExpandingVolatilitySkipsBadCloses(t *testing.T) {
	// A zero close contributes nothing but doesn't poison later values.
	out := ExpandingVolatility([]float64{100, 0, 110, 95})

	assert.True(t, math.IsNaN(out[1]))
	assert.False(t, math.IsNaN(out[3]))
}

func TestBetasFromVolatility(t *testing.T) {
	out := BetasFromVolatility([]float64{math.NaN(), 1, 2, 1})

	assert.True(t, math.IsNaN(out[0]))
	assert.InDelta(t, 1.0, out[1], 1e-9)
	assert.InDelta(t, 1.0, out[2], 1e-9)
	assert.InDelta(t, 0.5, out[3], 1e-9)
}

func TestRollingSlopeLinearSeries(t *testing.T) {
	out := RollingSlope([]float64{0, 1, 2, 3, 4, 5}, 3)

	for i := 0; i < 3; i++ {
		assert.True(t, math.IsNaN(out[i]))
	}
	assert.InDelta(t, 1.0, out[3], 1e-9)
	assert.InDelta(t, 1.0, out[5], 1e-9)
}

func TestSMA(t *testing.T) {
	out := SMA([]float64{1, 2, 3, 4}, 2)

	require.Len(t, out, 4)
	assert.True(t, math.IsNaN(out[0]))
	assert.InDelta(t, 1.5, out[1], 1e-9)
	assert.InDelta(t, 2.5, out[2], 1e-9)
	assert.InDelta(t, 3.5, out[3], 1e-9)
}

func TestCrossoverStates(t *testing.T) {
	out := CrossoverStates([]float64{1, 2, 3, 1}, []float64{2, 2, 2, 2})
	assert.Equal(t, []float64{0, 1, 1, 0}, out)
}

func TestCrossoverStatesDownwardTouchFlips(t *testing.T) {
	out := CrossoverStates([]float64{3, 2, 2}, []float64{2, 2, 2})
	assert.Equal(t, []float64{1, 0, 0}, out)
}

func TestLogTrendSegments(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	n := 50
	dates := make([]time.Time, n)
	closes := make([]float64, n)
	for i := 0; i < n; i++ {
		dates[i] = start.AddDate(0, 0, i)
		closes[i] = 100 * math.Pow(1.01, float64(i))
	}

	out := LogTrendSegments(dates, closes)

	require.Len(t, out, n)
	assert.True(t, math.IsNaN(out[0]), "first day has no elapsed time")
	for i := 1; i < n; i++ {
		require.False(t, math.IsNaN(out[i]), "index %d", i)
		assert.GreaterOrEqual(t, out[i], 0.0)
		assert.LessOrEqual(t, out[i], 9.0)
	}
}

func TestLogTrendSegmentsTooShort(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	out := LogTrendSegments(
		[]time.Time{start, start.AddDate(0, 0, 1)},
		[]float64{100, 101},
	)
	for _, v := range out {
		assert.True(t, math.IsNaN(v))
	}
}

func TestTurningPoints(t *testing.T) {
	// Slope peaks at index 2 while the short MA leads, troughs at index 6
	// while it trails. The downward cross at index 4 confirms the top, the
	// upward cross at index 8 confirms the bottom.
	slope := []float64{0, 1, 2, 1, 0, -1, -2, -1, 0}
	short := []float64{1, 1, 1, 1, 0, 0, 0, 0, 1}
	long := []float64{0, 0, 0, 0, 1, 1, 1, 1, 0}

	out := TurningPoints(slope, short, long)

	require.Len(t, out, 9)
	assert.True(t, math.IsNaN(out[0]), "before first confirmation")
	assert.True(t, math.IsNaN(out[1]))
	for i := 2; i <= 5; i++ {
		assert.InDelta(t, 1.0, out[i], 1e-9, "top carried forward at %d", i)
	}
	for i := 6; i <= 8; i++ {
		assert.InDelta(t, 0.0, out[i], 1e-9, "bottom carried forward at %d", i)
	}
}

func TestTurningPointsNoCrossings(t *testing.T) {
	slope := []float64{0, 1, 2, 1, 0}
	short := []float64{1, 1, 1, 1, 1}
	long := []float64{0, 0, 0, 0, 0}

	out := TurningPoints(slope, short, long)

	for i, v := range out {
		assert.True(t, math.IsNaN(v), "unconfirmed at %d", i)
	}
}

func TestMeanIgnoringNaN(t *testing.T) {
	assert.InDelta(t, 2.0, MeanIgnoringNaN([]float64{1, math.NaN(), 3}), 1e-9)
	assert.True(t, math.IsNaN(MeanIgnoringNaN([]float64{math.NaN()})))
	assert.True(t, math.IsNaN(MeanIgnoringNaN(nil)))
}
