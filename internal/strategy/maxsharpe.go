package strategy

import (
	"fmt"
	"sort"

	"github.com/quantfolio/cadence/internal/market"
)

// MaxSharpe ranks candidates by their Sharpe field and allocates greedily:
// each of the top-k codes receives min(maxWeight, remaining budget) in rank
// order; whatever is left goes to cash.
type MaxSharpe struct {
	topK      int
	maxWeight float64
}

// NewMaxSharpe creates a MaxSharpe strategy. topK must be at least 1 and
// maxWeight must be in (0, 1].
func NewMaxSharpe(topK int, maxWeight float64) (*MaxSharpe, error) {
	if topK < 1 {
		return nil, fmt.Errorf("topk must be >= 1, got %d", topK)
	}
	if maxWeight <= 0 || maxWeight > 1 {
		return nil, fmt.Errorf("max weight must be in (0, 1], got %g", maxWeight)
	}
	return &MaxSharpe{topK: topK, maxWeight: maxWeight}, nil
}

// Name implements Strategy.
func (s *MaxSharpe) Name() string {
	return "MaxSharpe"
}

// TopK returns the configured number of picks.
func (s *MaxSharpe) TopK() int {
	return s.topK
}

// CalculateWeights implements Strategy. Candidates need a present, finite,
// positive Sharpe and a positive price; when none qualify the portfolio
// goes fully to cash.
func (s *MaxSharpe) CalculateWeights(row market.Row, codes []string) map[string]float64 {
	weights := make(map[string]float64, len(codes)+1)
	for _, code := range codes {
		weights[code] = 0
	}

	type ranked struct {
		code   string
		sharpe float64
	}
	var valid []ranked
	for _, code := range codes {
		sharpe, ok := row.Sharpe(code)
		if !ok || sharpe <= 0 {
			continue
		}
		price, ok := row.Close(code)
		if !ok || price <= 0 {
			continue
		}
		valid = append(valid, ranked{code: code, sharpe: sharpe})
	}

	if len(valid) == 0 {
		weights[CashKey] = 1.0
		return weights
	}

	// Descending by Sharpe; lexical code order makes ties deterministic.
	sort.Slice(valid, func(i, j int) bool {
		if valid[i].sharpe != valid[j].sharpe {
			return valid[i].sharpe > valid[j].sharpe
		}
		return valid[i].code < valid[j].code
	})
	if len(valid) > s.topK {
		valid = valid[:s.topK]
	}

	remaining := 1.0
	for _, r := range valid {
		alloc := s.maxWeight
		if remaining < alloc {
			alloc = remaining
		}
		weights[r.code] = alloc
		remaining -= alloc
		if remaining <= 0 {
			remaining = 0
			break
		}
	}

	weights[CashKey] = remaining
	return weights
}
