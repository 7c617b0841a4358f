package trader

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfolio/cadence/internal/market"
	"github.com/quantfolio/cadence/internal/strategy"
	"github.com/quantfolio/cadence/pkg/logger"
)

// fixedWeights is a test strategy that always returns the same mapping.
type fixedWeights struct {
	weights map[string]float64
}

func (f *fixedWeights) Name() string { return "Fixed" }

func (f *fixedWeights) CalculateWeights(_ market.Row, _ []string) map[string]float64 {
	return f.weights
}

func TestNew_Validation(t *testing.T) {
	log := logger.New(logger.Config{Level: "error", Pretty: false})
	strat := &fixedWeights{weights: map[string]float64{strategy.CashKey: 1}}

	_, err := New(0, strat, Daily, log)
	assert.Error(t, err)

	_, err = New(-100, strat, Daily, log)
	assert.Error(t, err)

	_, err = New(10000, nil, Daily, log)
	assert.Error(t, err)

	_, err = New(10000, strat, Frequency("hourly"), log)
	assert.Error(t, err)

	_, err = New(10000, strat, Monthly, log)
	assert.NoError(t, err)
}

func TestNew_NormalizesFrequencySpelling(t *testing.T) {
	log := logger.New(logger.Config{Level: "error", Pretty: false})
	strat := &fixedWeights{weights: map[string]float64{strategy.CashKey: 1}}

	tr, err := New(10000, strat, Frequency(" DAILY "), log)
	require.NoError(t, err)
	assert.Equal(t, Daily, tr.Frequency())

	// The stored cadence must keep firing after the first rebalance.
	day1 := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)
	tr.ExecuteTrades(day1, map[string]float64{strategy.CashKey: 1}, market.Row{})
	assert.True(t, tr.ShouldRebalance(day1.AddDate(0, 0, 1)))
}

func TestExecuteTrades_FlooredUnitsAndCash(t *testing.T) {
	log := logger.New(logger.Config{Level: "error", Pretty: false})
	tr, err := New(10000, &fixedWeights{}, Daily, log)
	require.NoError(t, err)

	row := market.Row{"X_Close": 333.0}
	day := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)

	tr.ExecuteTrades(day, map[string]float64{"X": 1.0}, row)

	// floor(10000 / 333) = 30 units, 10000 - 30*333 = 10 cash
	assert.Equal(t, 30, tr.Positions()["X"])
	assert.InDelta(t, 10.0, tr.Cash(), 1e-9)
	assert.InDelta(t, 10000.0, tr.GetPortfolioValue(row), 1e-9)
}

func TestExecuteTrades_MissingPriceStaysInCash(t *testing.T) {
	log := logger.New(logger.Config{Level: "error", Pretty: false})
	tr, err := New(10000, &fixedWeights{}, Daily, log)
	require.NoError(t, err)

	row := market.Row{"A_Close": 100.0} // B has no price column
	day := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)

	tr.ExecuteTrades(day, map[string]float64{"A": 0.5, "B": 0.5}, row)

	assert.Equal(t, 50, tr.Positions()["A"])
	_, held := tr.Positions()["B"]
	assert.False(t, held)
	// B's half of the portfolio remains uninvested
	assert.InDelta(t, 5000.0, tr.Cash(), 1e-9)
}

func TestExecuteTrades_ReplacesPositionsWholesale(t *testing.T) {
	log := logger.New(logger.Config{Level: "error", Pretty: false})
	tr, err := New(10000, &fixedWeights{}, Daily, log)
	require.NoError(t, err)

	day1 := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)
	row1 := market.Row{"A_Close": 100.0, "B_Close": 50.0}
	tr.ExecuteTrades(day1, map[string]float64{"A": 1.0}, row1)
	assert.Equal(t, map[string]int{"A": 100}, tr.Positions())

	day2 := day1.AddDate(0, 0, 1)
	tr.ExecuteTrades(day2, map[string]float64{"B": 1.0}, row1)

	positions := tr.Positions()
	_, held := positions["A"]
	assert.False(t, held, "old positions are fully replaced")
	assert.Equal(t, 200, positions["B"])
}

func TestExecuteTrades_ValuesPreTradePositionsAtTodaysPrices(t *testing.T) {
	log := logger.New(logger.Config{Level: "error", Pretty: false})
	tr, err := New(10000, &fixedWeights{}, Daily, log)
	require.NoError(t, err)

	day1 := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)
	tr.ExecuteTrades(day1, map[string]float64{"A": 1.0}, market.Row{"A_Close": 100.0})
	require.Equal(t, 100, tr.Positions()["A"])

	// A doubles; the rebalance budget is the appreciated value.
	day2 := day1.AddDate(0, 0, 1)
	tr.ExecuteTrades(day2, map[string]float64{"A": 1.0}, market.Row{"A_Close": 200.0})
	assert.Equal(t, 100, tr.Positions()["A"])
	assert.InDelta(t, 0.0, tr.Cash(), 1e-9)
}

func TestUpdateDailySnapshot_BalancesAndAppendOnly(t *testing.T) {
	log := logger.New(logger.Config{Level: "error", Pretty: false})
	tr, err := New(10000, &fixedWeights{}, Daily, log)
	require.NoError(t, err)

	row := market.Row{"X_Close": 100.0}
	day := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)

	tr.ExecuteTrades(day, map[string]float64{"X": 1.0}, row)
	tr.UpdateDailySnapshot(day, row)
	tr.UpdateDailySnapshot(day.AddDate(0, 0, 1), row)

	history := tr.History()
	require.Len(t, history, 2)
	for _, snap := range history {
		held := 0.0
		for code, units := range snap.Positions {
			if price, ok := row.Close(code); ok {
				held += float64(units) * price
			}
		}
		assert.InDelta(t, snap.TotalValue, snap.Cash+held, 1e-9)
	}
	assert.True(t, history[0].Timestamp.Before(history[1].Timestamp))
}

func TestGetPortfolioValue_Idempotent(t *testing.T) {
	log := logger.New(logger.Config{Level: "error", Pretty: false})
	tr, err := New(10000, &fixedWeights{}, Daily, log)
	require.NoError(t, err)

	row := market.Row{"X_Close": 100.0}
	day := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)
	tr.ExecuteTrades(day, map[string]float64{"X": 1.0}, row)

	first := tr.GetPortfolioValue(row)
	second := tr.GetPortfolioValue(row)
	assert.Equal(t, first, second)
}

func TestGetPortfolioValue_StaleValuationContributesZero(t *testing.T) {
	log := logger.New(logger.Config{Level: "error", Pretty: false})
	tr, err := New(10000, &fixedWeights{}, Daily, log)
	require.NoError(t, err)

	day := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)
	tr.ExecuteTrades(day, map[string]float64{"X": 1.0}, market.Row{"X_Close": 100.0})

	// The next day X's price is missing: held units value at zero.
	assert.InDelta(t, 0.0, tr.GetPortfolioValue(market.Row{}), 1e-9)
}

func TestTrader_ConstantPriceFullAllocation(t *testing.T) {
	log := logger.New(logger.Config{Level: "error", Pretty: false})
	strat := &fixedWeights{weights: map[string]float64{"X": 1.0}}
	tr, err := New(10000, strat, Daily, log)
	require.NoError(t, err)

	row := market.Row{"X_Close": 100.0}
	day := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 10; i++ {
		d := day.AddDate(0, 0, i)
		if tr.ShouldRebalance(d) {
			weights := tr.Decide(row, []string{"X"})
			tr.ExecuteTrades(d, weights, row)
		}
		tr.UpdateDailySnapshot(d, row)
	}

	history := tr.History()
	require.Len(t, history, 10)
	for _, snap := range history {
		assert.Equal(t, 100, snap.Positions["X"])
		assert.InDelta(t, 0.0, snap.Cash, 1e-9)
		assert.InDelta(t, 10000.0, snap.TotalValue, 1e-9)
	}
}
