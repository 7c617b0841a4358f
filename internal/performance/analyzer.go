// Package performance computes return and risk metrics over completed
// backtest runs and picks the most attractive rebalancing cadence.
package performance

import (
	"github.com/rs/zerolog"

	"github.com/quantfolio/cadence/internal/backtest"
	"github.com/quantfolio/cadence/internal/trader"
	"github.com/quantfolio/cadence/pkg/formulas"
)

// DefaultDrawdownThreshold marks the depth at which a drawdown episode
// counts as significant.
const DefaultDrawdownThreshold = 0.15

// Summary holds the metrics for a single backtest run.
type Summary struct {
	RunID            string           `json:"run_id"`
	Label            string           `json:"label"`
	Strategy         string           `json:"strategy"`
	Frequency        trader.Frequency `json:"frequency"`
	InitialBalance   float64          `json:"initial_balance"`
	FinalValue       float64          `json:"final_value"`
	TotalReturn      float64          `json:"total_return"`
	AnnualizedReturn float64          `json:"annualized_return"`
	SharpeRatio      float64          `json:"sharpe_ratio"`
	Volatility       float64          `json:"volatility"`
	MaxDrawdown      float64          `json:"max_drawdown"`
	AvgDrawdown      float64          `json:"avg_drawdown"`
	DrawdownCount    int              `json:"drawdown_count"`
	Days             int              `json:"days"`
}

// Score is the cadence-selection objective: reward annualized growth,
// penalize the average depth of significant drawdowns.
func (s Summary) Score() float64 {
	return s.AnnualizedReturn - s.AvgDrawdown
}

// Analyzer derives summaries from backtest results.
type Analyzer struct {
	threshold float64
	log       zerolog.Logger
}

// NewAnalyzer creates an analyzer with the given drawdown significance
// threshold. Non-positive thresholds fall back to the default.
func NewAnalyzer(threshold float64, log zerolog.Logger) *Analyzer {
	if threshold <= 0 {
		threshold = DefaultDrawdownThreshold
	}
	return &Analyzer{
		threshold: threshold,
		log:       log.With().Str("component", "performance").Logger(),
	}
}

// Summarize computes the full metric set for one run from its daily
// snapshot history.
func (a *Analyzer) Summarize(res backtest.Result) Summary {
	t := res.Trader
	history := t.History()

	s := Summary{
		RunID:          res.ID,
		Label:          res.Label,
		Strategy:       t.Strategy().Name(),
		Frequency:      t.Frequency(),
		InitialBalance: t.InitialBalance(),
		Days:           len(history),
	}
	if len(history) == 0 {
		return s
	}

	values := make([]float64, len(history))
	for i, snap := range history {
		values[i] = snap.TotalValue
	}

	s.FinalValue = values[len(values)-1]
	if s.InitialBalance > 0 {
		s.TotalReturn = s.FinalValue/s.InitialBalance - 1
	}

	elapsed := int(history[len(history)-1].Timestamp.Sub(history[0].Timestamp).Hours() / 24)
	s.AnnualizedReturn = formulas.AnnualizedReturn(s.InitialBalance, s.FinalValue, elapsed)
	s.SharpeRatio = formulas.SharpeRatio(values)
	s.Volatility = formulas.AnnualizedVolatility(formulas.CalculateReturns(values))
	s.MaxDrawdown = formulas.MaxDrawdown(values)
	s.AvgDrawdown, s.DrawdownCount = formulas.SignificantDrawdowns(values, a.threshold)

	a.log.Debug().
		Str("run_id", s.RunID).
		Str("label", s.Label).
		Float64("annualized_return", s.AnnualizedReturn).
		Float64("avg_drawdown", s.AvgDrawdown).
		Msg("Run summarized")

	return s
}

// SummarizeAll maps Summarize over results, preserving order.
func (a *Analyzer) SummarizeAll(results []backtest.Result) []Summary {
	summaries := make([]Summary, len(results))
	for i, res := range results {
		summaries[i] = a.Summarize(res)
	}
	return summaries
}

// BestCadence returns the summary with the highest score. On an exact score
// tie the more frequent cadence wins. The second return value is false when
// the input is empty.
func (a *Analyzer) BestCadence(summaries []Summary) (Summary, bool) {
	if len(summaries) == 0 {
		return Summary{}, false
	}
	best := summaries[0]
	for _, s := range summaries[1:] {
		if s.Score() > best.Score() ||
			(s.Score() == best.Score() && s.Frequency.Rank() < best.Frequency.Rank()) {
			best = s
		}
	}
	return best, true
}
