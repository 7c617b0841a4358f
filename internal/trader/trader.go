// Package trader implements the stateful rebalance and execution engine: it
// owns cash and positions, decides when its cadence is due, converts target
// weights into integer share counts, and snapshots the portfolio daily.
package trader

import (
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantfolio/cadence/internal/market"
	"github.com/quantfolio/cadence/internal/strategy"
)

// Snapshot records the portfolio state at the end of one simulated day.
// Snapshots are append-only and never mutated after creation.
type Snapshot struct {
	Timestamp  time.Time      `json:"timestamp"`
	Cash       float64        `json:"cash"`
	Positions  map[string]int `json:"positions"`
	TotalValue float64        `json:"total_value"`
}

// Trader manages cash, positions, and strategy execution for one backtest
// run. A Trader is owned by exactly one run: it mutates only through its own
// decide/execute/snapshot operations, in strict date order, and must not be
// reused across independent backtests.
type Trader struct {
	initialBalance float64
	cash           float64
	positions      map[string]int
	strat          strategy.Strategy
	frequency      Frequency
	lastRebalance  time.Time
	history        []Snapshot
	log            zerolog.Logger
}

// New creates a trader with a starting balance, a strategy, and a rebalance
// cadence. Configuration errors surface here, not at call time.
func New(balance float64, strat strategy.Strategy, frequency Frequency, log zerolog.Logger) (*Trader, error) {
	if balance <= 0 {
		return nil, fmt.Errorf("initial balance must be positive, got %g", balance)
	}
	if strat == nil {
		return nil, fmt.Errorf("strategy is required")
	}
	normalized, err := ParseFrequency(string(frequency))
	if err != nil {
		return nil, err
	}

	return &Trader{
		initialBalance: balance,
		cash:           balance,
		positions:      make(map[string]int),
		strat:          strat,
		frequency:      normalized,
		log: log.With().
			Str("component", "trader").
			Str("strategy", strat.Name()).
			Str("frequency", string(normalized)).
			Logger(),
	}, nil
}

// InitialBalance returns the starting capital.
func (t *Trader) InitialBalance() float64 {
	return t.initialBalance
}

// Frequency returns the rebalance cadence.
func (t *Trader) Frequency() Frequency {
	return t.frequency
}

// Strategy returns the configured allocation strategy.
func (t *Trader) Strategy() strategy.Strategy {
	return t.strat
}

// ShouldRebalance reports whether the cadence is due on date. Pure function
// of the cadence and the last rebalance date.
func (t *Trader) ShouldRebalance(date time.Time) bool {
	return t.frequency.Due(date, t.lastRebalance)
}

// Decide delegates weight calculation to the strategy. The trader performs
// no numeric logic of its own here.
func (t *Trader) Decide(row market.Row, codes []string) map[string]float64 {
	return t.strat.CalculateWeights(row, codes)
}

// ExecuteTrades replaces the whole position set according to target
// weights, using the same day's closes. Share counts are floored to whole
// units; codes with a missing or non-positive price are skipped, which
// leaves their intended allocation as unspent cash. The weight sum is taken
// as-is and never renormalized.
func (t *Trader) ExecuteTrades(date time.Time, weights map[string]float64, row market.Row) {
	currentValue := t.GetPortfolioValue(row)

	newPositions := make(map[string]int)
	for code, weight := range weights {
		if code == strategy.CashKey || weight <= 0 {
			continue
		}

		price, ok := row.Close(code)
		if !ok || price <= 0 {
			t.log.Debug().
				Str("code", code).
				Float64("weight", weight).
				Msg("No usable price, allocation stays in cash")
			continue
		}

		units := int(math.Floor(currentValue * weight / price))
		if units > 0 {
			newPositions[code] = units
		}
	}

	used := 0.0
	for code, units := range newPositions {
		if price, ok := row.Close(code); ok {
			used += float64(units) * price
		}
	}

	t.cash = currentValue - used
	t.positions = newPositions
	t.lastRebalance = date
}

// UpdateDailySnapshot appends a valuation snapshot for the day. It runs
// every trading day regardless of whether a rebalance happened.
func (t *Trader) UpdateDailySnapshot(date time.Time, row market.Row) {
	positions := make(map[string]int, len(t.positions))
	for code, units := range t.positions {
		positions[code] = units
	}

	t.history = append(t.history, Snapshot{
		Timestamp:  date,
		Cash:       t.cash,
		Positions:  positions,
		TotalValue: t.GetPortfolioValue(row),
	})
}

// GetPortfolioValue values the current holdings against the day's closes.
// Positions without a usable price contribute zero for the day (stale
// valuation), a documented approximation rather than an error.
func (t *Trader) GetPortfolioValue(row market.Row) float64 {
	total := t.cash
	for code, units := range t.positions {
		if price, ok := row.Close(code); ok && price > 0 {
			total += float64(units) * price
		}
	}
	return total
}

// Positions returns a copy of the current holdings.
func (t *Trader) Positions() map[string]int {
	out := make(map[string]int, len(t.positions))
	for code, units := range t.positions {
		out[code] = units
	}
	return out
}

// Cash returns the current uninvested balance.
func (t *Trader) Cash() float64 {
	return t.cash
}

// History returns the ordered snapshot sequence. Consumers must treat it as
// read-only.
func (t *Trader) History() []Snapshot {
	return t.history
}

// LastRebalance returns the date of the most recent executed rebalance, or
// the zero time if none has happened yet.
func (t *Trader) LastRebalance() time.Time {
	return t.lastRebalance
}
