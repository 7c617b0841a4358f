// Package market provides the watchlist index, the date-indexed feature
// table consumed by strategies and traders, and the indicator pipeline that
// builds it from raw price history.
package market

import "math"

// Aggregate field names shared by every row.
const (
	FieldTrend        = "Trend"
	FieldSegments     = "segments"
	FieldVolatilities = "volatilities"
	FieldBetas        = "betas"
)

// Per-code field suffixes. Columns are synthesized dynamically because the
// candidate code set varies by watchlist.
const (
	SuffixClose      = "_Close"
	SuffixSharpe     = "_Sharpe"
	SuffixBeta       = "_Beta"
	SuffixVolatility = "_Volatility"
)

// Row is one trading day's worth of precomputed market values, keyed by
// field name. Rows are immutable once produced: the provider owns them and
// traders/strategies only read.
type Row map[string]float64

// Value returns the field value and whether it is present and finite.
// Missing, NaN, and infinite values all read as absent.
func (r Row) Value(key string) (float64, bool) {
	v, ok := r[key]
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Close returns the closing price field for a code.
func (r Row) Close(code string) (float64, bool) {
	return r.Value(code + SuffixClose)
}

// Sharpe returns the rolling Sharpe field for a code.
func (r Row) Sharpe(code string) (float64, bool) {
	return r.Value(code + SuffixSharpe)
}

// Beta returns the beta field for a code.
func (r Row) Beta(code string) (float64, bool) {
	return r.Value(code + SuffixBeta)
}

// CrossoverState returns the crossover state field for an industry.
func (r Row) CrossoverState(industry string) (float64, bool) {
	return r.Value(industry + "_Crossover_State")
}
