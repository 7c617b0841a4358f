package market

import (
	"math"
	"sort"
	"time"

	"github.com/markcheno/go-talib"
	"gonum.org/v1/gonum/stat"
)

// Indicator series use NaN for warmup periods and undefined values; the Row
// accessors treat NaN as absent, so downstream code never needs to special
// case warmups.

// PctChange converts a price series to simple returns. The first element is
// NaN.
func PctChange(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(out) > 0 {
		out[0] = math.NaN()
	}
	for i := 1; i < len(values); i++ {
		if values[i-1] != 0 {
			out[i] = (values[i] - values[i-1]) / values[i-1]
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

// RollingSharpe computes a rolling excess-return Sharpe ratio over the
// given window: mean of excess returns over their sample deviation, scaled
// by sqrt(window). The risk-free rate is spread evenly across the window.
func RollingSharpe(closes []float64, window int, riskFreeRate float64) []float64 {
	returns := PctChange(closes)
	dailyRF := riskFreeRate / float64(window)

	excess := make([]float64, len(returns))
	for i, r := range returns {
		excess[i] = r - dailyRF
	}

	out := make([]float64, len(closes))
	for i := range out {
		if i < window {
			out[i] = math.NaN()
			continue
		}
		win := excess[i-window+1 : i+1]
		if hasNaN(win) {
			out[i] = math.NaN()
			continue
		}
		sd := stat.StdDev(win, nil)
		if sd == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = stat.Mean(win, nil) / sd * math.Sqrt(float64(window))
	}
	return out
}

// ExpandingVolatility computes annualized volatility from log returns using
// an expanding window (population deviation). The first element is NaN.
func ExpandingVolatility(closes []float64) []float64 {
	out := make([]float64, len(closes))
	if len(out) > 0 {
		out[0] = math.NaN()
	}

	// Welford's running variance over the valid log returns; days with an
	// unusable close simply don't contribute.
	var n int
	var mean, m2 float64
	for i := 1; i < len(closes); i++ {
		if closes[i] > 0 && closes[i-1] > 0 {
			r := math.Log(closes[i]) - math.Log(closes[i-1])
			n++
			d := r - mean
			mean += d / float64(n)
			m2 += d * (r - mean)
		}
		if n == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = math.Sqrt(m2/float64(n)) * math.Sqrt(252)
	}
	return out
}

// BetasFromVolatility derives a relative-risk beta series: volatility over
// its running maximum, forward-filled across gaps.
func BetasFromVolatility(vol []float64) []float64 {
	out := make([]float64, len(vol))
	cumMax := math.NaN()
	last := math.NaN()

	for i, v := range vol {
		if !math.IsNaN(v) && v > 0 && (math.IsNaN(cumMax) || v > cumMax) {
			cumMax = v
		}
		if !math.IsNaN(v) && !math.IsNaN(cumMax) && cumMax > 0 {
			last = v / cumMax
		}
		out[i] = last
	}
	return out
}

// LogTrendSegments fits a log-log growth trend (ln elapsed days against
// log10 price) across the whole series and buckets each day by which
// residual-quantile band the price sits in: 0 below the lowest band, 9
// above the highest, 1-8 between. The first day has no elapsed time and is
// NaN.
func LogTrendSegments(dates []time.Time, closes []float64) []float64 {
	out := make([]float64, len(closes))
	for i := range out {
		out[i] = math.NaN()
	}
	if len(closes) < 3 {
		return out
	}

	start := dates[0]
	var xs, ys []float64
	var idx []int
	for i, c := range closes {
		days := dates[i].Sub(start).Hours() / 24
		if days <= 0 || c <= 0 {
			continue
		}
		xs = append(xs, math.Log(days))
		ys = append(ys, math.Log10(c))
		idx = append(idx, i)
	}
	if len(xs) < 3 {
		return out
	}

	alpha, beta := stat.LinearRegression(xs, ys, nil, false)

	resids := make([]float64, len(xs))
	for i := range xs {
		resids[i] = ys[i] - (alpha + beta*xs[i])
	}

	sorted := append([]float64(nil), resids...)
	sort.Float64s(sorted)
	levels := make([]float64, 9)
	for i := range levels {
		levels[i] = stat.Quantile(0.1*float64(i+1), stat.Empirical, sorted, nil)
	}

	for i, r := range resids {
		seg := -1
		for j := 0; j < len(levels)-1; j++ {
			if levels[j] <= r && r < levels[j+1] {
				seg = j + 1
				break
			}
		}
		if seg < 0 {
			if r < levels[0] {
				seg = 0
			} else {
				seg = len(levels)
			}
		}
		out[idx[i]] = float64(seg)
	}
	return out
}

// RollingSlope computes the least-squares slope of the trailing window at
// each point, NaN until the window fills.
func RollingSlope(series []float64, window int) []float64 {
	out := make([]float64, len(series))
	xs := make([]float64, window)
	for i := range xs {
		xs[i] = float64(i)
	}

	for i := range out {
		if i < window {
			out[i] = math.NaN()
			continue
		}
		win := series[i-window : i]
		if hasNaN(win) {
			out[i] = math.NaN()
			continue
		}
		_, slope := stat.LinearRegression(xs, win, nil, false)
		out[i] = slope
	}
	return out
}

// SMA computes a simple moving average, NaN during the warmup period and
// wherever the window still contains NaN input.
func SMA(series []float64, period int) []float64 {
	out := talib.Sma(series, period)
	for i := 0; i < len(out) && i < period-1; i++ {
		out[i] = math.NaN()
	}
	return out
}

// CrossoverStates tracks a hysteresis state between a short and a long
// moving average: the state flips to 0 only on a downward cross and to 1
// only on an upward cross, otherwise it follows the plain comparison.
// Comparisons against NaN resolve to false, matching warmup behavior.
func CrossoverStates(short, long []float64) []float64 {
	out := make([]float64, len(short))
	if len(short) == 0 {
		return out
	}

	cur := 0.0
	if short[0] > long[0] {
		cur = 1.0
	}
	out[0] = cur

	for i := 1; i < len(short); i++ {
		switch {
		case cur == 1 && short[i-1] > long[i-1] && short[i] <= long[i]:
			cur = 0
		case cur == 0 && short[i-1] < long[i-1] && short[i] >= long[i]:
			cur = 1
		default:
			cur = 0
			if short[i] > long[i] {
				cur = 1
			}
		}
		out[i] = cur
	}
	return out
}

// TurningPoints labels confirmed slope reversals for an industry. A local
// slope peak while the short MA leads the long one is a candidate top; a
// local trough while it trails is a candidate bottom. Each MA crossing
// confirms the nearest unconfirmed candidate before it: 1 for a top, 0 for
// a bottom. Confirmed labels carry forward to the next confirmation; days
// before the first one are NaN.
func TurningPoints(slope, short, long []float64) []float64 {
	n := len(slope)
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	if n < 3 {
		return out
	}

	up := make([]bool, n)
	for i := range up {
		up[i] = short[i] > long[i]
	}

	// Comparisons against NaN are false, so warmup days never qualify.
	var highs, lows []int
	for i := 1; i < n-1; i++ {
		if slope[i] > slope[i-1] && slope[i] > slope[i+1] && up[i] {
			highs = append(highs, i)
		}
		if slope[i] < slope[i-1] && slope[i] < slope[i+1] && !up[i] {
			lows = append(lows, i)
		}
	}

	usedHigh := make(map[int]bool)
	usedLow := make(map[int]bool)
	for j := 1; j < n; j++ {
		if up[j] == up[j-1] {
			continue
		}
		if up[j-1] {
			for k := len(highs) - 1; k >= 0; k-- {
				if highs[k] < j && !usedHigh[highs[k]] {
					out[highs[k]] = 1
					usedHigh[highs[k]] = true
					break
				}
			}
		} else {
			for k := len(lows) - 1; k >= 0; k-- {
				if lows[k] < j && !usedLow[lows[k]] {
					out[lows[k]] = 0
					usedLow[lows[k]] = true
					break
				}
			}
		}
	}

	last := math.NaN()
	for i := range out {
		if !math.IsNaN(out[i]) {
			last = out[i]
		} else {
			out[i] = last
		}
	}
	return out
}

// MeanIgnoringNaN averages the values that are present; NaN when none are.
func MeanIgnoringNaN(values []float64) float64 {
	sum, n := 0.0, 0
	for _, v := range values {
		if !math.IsNaN(v) {
			sum += v
			n++
		}
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

func hasNaN(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}
