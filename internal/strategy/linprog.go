package strategy

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/quantfolio/cadence/internal/market"
)

// LinearProgramming maximizes the Sharpe-weighted allocation subject to a
// full-investment constraint, per-code weight caps, and an optional cap on
// portfolio beta taken from the row's aggregate betas field. Infeasible or
// degenerate solves fall back to holding cash.
type LinearProgramming struct {
	maxWeight            float64
	enableBetaConstraint bool
}

// NewLinearProgramming creates a LinearProgramming strategy. maxWeight must
// be in (0, 1].
func NewLinearProgramming(maxWeight float64, enableBetaConstraint bool) (*LinearProgramming, error) {
	if maxWeight <= 0 || maxWeight > 1 {
		return nil, fmt.Errorf("max weight must be in (0, 1], got %g", maxWeight)
	}
	return &LinearProgramming{
		maxWeight:            maxWeight,
		enableBetaConstraint: enableBetaConstraint,
	}, nil
}

// Name implements Strategy.
func (s *LinearProgramming) Name() string {
	return "LinearProgramming"
}

// CalculateWeights implements Strategy. Candidates need present, finite
// Sharpe and beta fields and a positive price.
func (s *LinearProgramming) CalculateWeights(row market.Row, codes []string) map[string]float64 {
	weights := make(map[string]float64, len(codes)+1)
	for _, code := range codes {
		weights[code] = 0
	}

	var validCodes []string
	var sharpes, betas []float64
	for _, code := range codes {
		sharpe, ok := row.Sharpe(code)
		if !ok {
			continue
		}
		beta, ok := row.Beta(code)
		if !ok {
			continue
		}
		price, ok := row.Close(code)
		if !ok || price <= 0 {
			continue
		}
		validCodes = append(validCodes, code)
		sharpes = append(sharpes, sharpe)
		betas = append(betas, beta)
	}

	if len(validCodes) == 0 {
		weights[CashKey] = 1.0
		return weights
	}

	betaThreshold, haveBetaRow := 0.0, false
	if s.enableBetaConstraint {
		betaThreshold, haveBetaRow = row.Value(market.FieldBetas)
	}

	solution, ok := s.solve(sharpes, betas, betaThreshold, haveBetaRow)
	if !ok {
		weights[CashKey] = 1.0
		return weights
	}

	for i, code := range validCodes {
		weights[code] = solution[i]
	}
	return weights
}

// solve expresses the bounded problem in the simplex standard form
// min c'x s.t. Ax = b, x >= 0: each weight cap w_i <= maxWeight becomes an
// equality row with its own slack variable, as does the optional beta cap.
func (s *LinearProgramming) solve(sharpes, betas []float64, betaThreshold float64, haveBetaRow bool) ([]float64, bool) {
	n := len(sharpes)

	rows := 1 + n
	vars := 2 * n
	if haveBetaRow {
		rows++
		vars++
	}

	c := make([]float64, vars)
	for i, sharpe := range sharpes {
		c[i] = -sharpe
	}

	a := mat.NewDense(rows, vars, nil)
	b := make([]float64, rows)

	// Full investment: sum of weights equals 1.
	for i := 0; i < n; i++ {
		a.Set(0, i, 1)
	}
	b[0] = 1

	// Per-code caps: w_i + s_i = maxWeight.
	for i := 0; i < n; i++ {
		a.Set(1+i, i, 1)
		a.Set(1+i, n+i, 1)
		b[1+i] = s.maxWeight
	}

	// Portfolio beta cap: sum(beta_i * w_i) + s_beta = threshold.
	if haveBetaRow {
		last := rows - 1
		for i, beta := range betas {
			a.Set(last, i, beta)
		}
		a.Set(last, vars-1, 1)
		b[last] = betaThreshold
	}

	_, x, err := lp.Simplex(c, a, b, 1e-10, nil)
	if err != nil {
		return nil, false
	}

	total := 0.0
	for i := 0; i < n; i++ {
		total += x[i]
	}
	if total <= 1e-6 {
		return nil, false
	}

	return x[:n], true
}
