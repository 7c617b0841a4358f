// Package strategy implements allocation strategies: pure functions that
// turn one day's market features into target portfolio weights.
package strategy

import "github.com/quantfolio/cadence/internal/market"

// CashKey is the reserved weight-mapping key for the uninvested fraction.
const CashKey = "CASH"

// Strategy converts a feature row and a candidate code list into a weight
// mapping over the codes plus an optional CASH entry. Implementations are
// stateless and side-effect free, so a single instance may be shared across
// concurrent traders.
type Strategy interface {
	// Name identifies the strategy in labels, logs, and reports.
	Name() string

	// CalculateWeights returns target weights in [0, 1]. For well-formed
	// inputs the values, including CASH if present, sum to 1. Callers must
	// not renormalize the result.
	CalculateWeights(row market.Row, codes []string) map[string]float64
}
