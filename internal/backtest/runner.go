// Package backtest drives traders across the feature table's date index
// and collects their results.
package backtest

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/quantfolio/cadence/internal/market"
	"github.com/quantfolio/cadence/internal/trader"
)

// Result identifies one completed backtest run.
type Result struct {
	ID     string
	Label  string
	Trader *trader.Trader
}

// Runner folds traders over the feature table in ascending date order. The
// table is read-only and shared; each trader owns all of its own mutable
// state, so independent traders can run on separate goroutines without
// synchronization.
type Runner struct {
	table      *market.Table
	codes      []string
	numWorkers int
	log        zerolog.Logger
}

// NewRunner creates a runner over a table and a candidate code list.
func NewRunner(table *market.Table, codes []string, numWorkers int, log zerolog.Logger) *Runner {
	if numWorkers <= 0 {
		numWorkers = 4
	}
	return &Runner{
		table:      table,
		codes:      codes,
		numWorkers: numWorkers,
		log:        log.With().Str("component", "backtest_runner").Logger(),
	}
}

// Run executes a single trader across every date in order. Each day the
// trader rebalances if its cadence is due and then snapshots
// unconditionally. Operations for one date complete fully before the next
// begins.
func (r *Runner) Run(t *trader.Trader) Result {
	id := uuid.New().String()
	label := Label(t)

	for _, date := range r.table.Dates() {
		row, ok := r.table.Row(date)
		if !ok {
			continue
		}
		if t.ShouldRebalance(date) {
			weights := t.Decide(row, r.codes)
			t.ExecuteTrades(date, weights, row)
		}
		t.UpdateDailySnapshot(date, row)
	}

	r.log.Info().
		Str("run_id", id).
		Str("label", label).
		Int("days", r.table.Len()).
		Msg("Backtest completed")

	return Result{ID: id, Label: label, Trader: t}
}

// RunAll executes several independently configured traders over the shared
// table in parallel. Each trader is touched by exactly one worker; results
// come back in input order.
func (r *Runner) RunAll(traders []*trader.Trader) []Result {
	if len(traders) == 0 {
		return []Result{}
	}

	type job struct {
		index int
		t     *trader.Trader
	}

	jobs := make(chan job, len(traders))
	results := make([]Result, len(traders))

	workers := r.numWorkers
	if len(traders) < workers {
		workers = len(traders)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				results[j.index] = r.Run(j.t)
			}
		}()
	}

	for i, t := range traders {
		jobs <- job{index: i, t: t}
	}
	close(jobs)
	wg.Wait()

	return results
}

// Label names a run after its strategy and cadence.
func Label(t *trader.Trader) string {
	return fmt.Sprintf("%s_%s", t.Strategy().Name(), t.Frequency())
}
