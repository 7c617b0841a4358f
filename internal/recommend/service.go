// Package recommend assembles an allocation recommendation from the latest
// feature row and the cadence comparison results.
package recommend

import (
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantfolio/cadence/internal/market"
	"github.com/quantfolio/cadence/internal/performance"
	"github.com/quantfolio/cadence/internal/strategy"
)

// Holding is one recommended position with its target weight.
type Holding struct {
	Code     string  `json:"code"`
	Industry string  `json:"industry"`
	Weight   float64 `json:"weight"`
}

// IndustryState carries the crossover state for one industry group.
type IndustryState struct {
	Industry string  `json:"industry"`
	State    float64 `json:"state"`
}

// Report is a fully assembled recommendation for a single date.
type Report struct {
	Date           time.Time            `json:"date"`
	Strategy       string               `json:"strategy"`
	Holdings       []Holding            `json:"holdings"`
	CashWeight     float64              `json:"cash_weight"`
	Trend          float64              `json:"trend"`
	Segments       float64              `json:"segments"`
	Volatility     float64              `json:"volatility"`
	IndustryStates []IndustryState      `json:"industry_states"`
	BestCadence    *performance.Summary `json:"best_cadence,omitempty"`
}

// Service builds reports by running a strategy against table rows.
type Service struct {
	watchlist *market.Watchlist
	strat     strategy.Strategy
	log       zerolog.Logger
}

// NewService constructs a recommendation service. The strategy is shared
// read-only; it must be stateless.
func NewService(watchlist *market.Watchlist, strat strategy.Strategy, log zerolog.Logger) (*Service, error) {
	if watchlist == nil || len(watchlist.Codes()) == 0 {
		return nil, fmt.Errorf("recommend: watchlist must not be empty")
	}
	if strat == nil {
		return nil, fmt.Errorf("recommend: strategy must not be nil")
	}
	return &Service{
		watchlist: watchlist,
		strat:     strat,
		log:       log.With().Str("component", "recommend").Logger(),
	}, nil
}

// Build assembles a report for the latest date in the table.
func (s *Service) Build(table *market.Table, best *performance.Summary) (Report, error) {
	date, _, ok := table.Latest()
	if !ok {
		return Report{}, fmt.Errorf("recommend: feature table is empty")
	}
	return s.BuildFor(table, date, best)
}

// BuildFor assembles a report for a specific date.
func (s *Service) BuildFor(table *market.Table, date time.Time, best *performance.Summary) (Report, error) {
	row, ok := table.Row(date)
	if !ok {
		return Report{}, fmt.Errorf("recommend: no row for date %s", date.Format("2006-01-02"))
	}

	weights := s.strat.CalculateWeights(row, s.watchlist.Codes())

	report := Report{
		Date:        date,
		Strategy:    s.strat.Name(),
		BestCadence: best,
	}

	for code, weight := range weights {
		if code == strategy.CashKey {
			report.CashWeight = weight
			continue
		}
		if weight <= 0 {
			continue
		}
		report.Holdings = append(report.Holdings, Holding{
			Code:     code,
			Industry: s.watchlist.IndustryOf(code),
			Weight:   weight,
		})
	}
	// Heaviest first, codes break ties.
	sort.Slice(report.Holdings, func(i, j int) bool {
		if report.Holdings[i].Weight != report.Holdings[j].Weight {
			return report.Holdings[i].Weight > report.Holdings[j].Weight
		}
		return report.Holdings[i].Code < report.Holdings[j].Code
	})

	if v, ok := row.Value(market.FieldTrend); ok {
		report.Trend = v
	}
	if v, ok := row.Value(market.FieldSegments); ok {
		report.Segments = v
	}
	if v, ok := row.Value(market.FieldVolatilities); ok {
		report.Volatility = v
	}
	for _, industry := range s.watchlist.Industries() {
		if state, ok := row.CrossoverState(industry); ok {
			report.IndustryStates = append(report.IndustryStates, IndustryState{
				Industry: industry,
				State:    state,
			})
		}
	}

	s.log.Info().
		Str("strategy", report.Strategy).
		Time("date", date).
		Int("holdings", len(report.Holdings)).
		Float64("cash_weight", report.CashWeight).
		Msg("Recommendation assembled")

	return report, nil
}
