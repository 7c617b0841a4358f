package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the sample standard deviation of a slice of float64 values
func StdDev(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// CalculateReturns converts a value series to period-over-period returns
// Returns[i] = (Value[i] - Value[i-1]) / Value[i-1]
func CalculateReturns(values []float64) []float64 {
	if len(values) < 2 {
		return []float64{}
	}

	returns := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		if values[i-1] != 0 {
			returns[i-1] = (values[i] - values[i-1]) / values[i-1]
		}
	}

	return returns
}

// AnnualizedVolatility calculates annualized volatility from daily returns
// Formula: Std Dev of Daily Returns x sqrt(252 trading days)
// Returns 0 for fewer than two returns, where the deviation is undefined.
func AnnualizedVolatility(dailyReturns []float64) float64 {
	if len(dailyReturns) < 2 {
		return 0
	}

	return StdDev(dailyReturns) * math.Sqrt(252)
}

// SharpeRatio calculates a simplified Sharpe ratio from a value series:
// mean of period-over-period returns over their standard deviation, scaled
// by sqrt(252). Returns 0 when the deviation is zero or undefined (a single
// return has no sample deviation).
func SharpeRatio(values []float64) float64 {
	returns := CalculateReturns(values)
	if len(returns) == 0 {
		return 0
	}

	sd := StdDev(returns)
	if sd == 0 || math.IsNaN(sd) {
		return 0
	}
	return Mean(returns) / sd * math.Sqrt(252)
}

// AnnualizedReturn computes the calendar-day annualized return between an
// initial and final value over elapsedDays. Defined as 0 when elapsedDays
// is zero or negative, or when initial is not positive.
func AnnualizedReturn(initial, final float64, elapsedDays int) float64 {
	if elapsedDays <= 0 || initial <= 0 {
		return 0
	}
	return math.Pow(final/initial, 365.0/float64(elapsedDays)) - 1
}
