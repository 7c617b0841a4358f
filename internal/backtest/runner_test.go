package backtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfolio/cadence/internal/market"
	"github.com/quantfolio/cadence/internal/strategy"
	"github.com/quantfolio/cadence/internal/trader"
	"github.com/quantfolio/cadence/pkg/logger"
)

// allInOne is a deterministic test strategy that puts everything into the
// first code.
type allInOne struct{}

func (allInOne) Name() string { return "all_in_one" }

func (allInOne) CalculateWeights(_ market.Row, codes []string) map[string]float64 {
	weights := map[string]float64{strategy.CashKey: 0}
	for i, code := range codes {
		if i == 0 {
			weights[code] = 1.0
		} else {
			weights[code] = 0
		}
	}
	return weights
}

func buildTable(t *testing.T, start time.Time, closes []float64) *market.Table {
	t.Helper()
	table := market.NewTable()
	for i, c := range closes {
		row := market.Row{"AAPL" + market.SuffixClose: c}
		require.NoError(t, table.Append(start.AddDate(0, 0, i), row))
	}
	return table
}

func newTestTrader(t *testing.T, freq trader.Frequency) *trader.Trader {
	t.Helper()
	log := logger.New(logger.Config{Level: "error", Pretty: false})
	tr, err := trader.New(10000, allInOne{}, freq, log)
	require.NoError(t, err)
	return tr
}

func TestRunSnapshotsEveryDay(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	table := buildTable(t, start, []float64{100, 101, 102, 103, 104})
	log := logger.New(logger.Config{Level: "error", Pretty: false})
	runner := NewRunner(table, []string{"AAPL"}, 2, log)

	tr := newTestTrader(t, trader.Daily)
	result := runner.Run(tr)

	assert.NotEmpty(t, result.ID)
	assert.Equal(t, "all_in_one_daily", result.Label)
	require.Len(t, tr.History(), 5)

	// 10000 / 100 = 100 whole units on day one.
	first := tr.History()[0]
	assert.Equal(t, 100, first.Positions["AAPL"])
	assert.InDelta(t, 10000.0, first.TotalValue, 1e-9)

	// Snapshot values track the close series.
	last := tr.History()[4]
	assert.InDelta(t, 104.0*100, last.TotalValue, 1e-9)
}

func TestRunMonthlyRebalancesOncePerMonth(t *testing.T) {
	start := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	// 40 days spanning the January/February boundary.
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100
	}
	table := buildTable(t, start, closes)
	log := logger.New(logger.Config{Level: "error", Pretty: false})
	runner := NewRunner(table, []string{"AAPL"}, 1, log)

	tr := newTestTrader(t, trader.Monthly)
	runner.Run(tr)

	// Snapshots accrue daily regardless of cadence.
	require.Len(t, tr.History(), 40)
	// First day rebalance plus the February boundary.
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), tr.LastRebalance())
}

func TestRunAllPreservesInputOrder(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	table := buildTable(t, start, []float64{100, 101, 102})
	log := logger.New(logger.Config{Level: "error", Pretty: false})
	runner := NewRunner(table, []string{"AAPL"}, 8, log)

	frequencies := []trader.Frequency{
		trader.Daily,
		trader.Weekly,
		trader.Monthly,
		trader.Quarterly,
		trader.Yearly,
	}
	traders := make([]*trader.Trader, len(frequencies))
	for i, f := range frequencies {
		traders[i] = newTestTrader(t, f)
	}

	results := runner.RunAll(traders)
	require.Len(t, results, len(frequencies))

	seen := map[string]bool{}
	for i, res := range results {
		assert.Equal(t, frequencies[i], res.Trader.Frequency())
		assert.Len(t, res.Trader.History(), 3)
		assert.False(t, seen[res.ID], "run IDs must be unique")
		seen[res.ID] = true
	}
}

func TestRunAllEmpty(t *testing.T) {
	table := market.NewTable()
	log := logger.New(logger.Config{Level: "error", Pretty: false})
	runner := NewRunner(table, nil, 4, log)

	assert.Empty(t, runner.RunAll(nil))
}
