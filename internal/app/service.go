// Package app orchestrates the full pipeline: feature table refresh,
// cadence-sweep backtests, performance comparison, and the cached
// recommendation served over HTTP.
package app

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/quantfolio/cadence/internal/backtest"
	"github.com/quantfolio/cadence/internal/config"
	"github.com/quantfolio/cadence/internal/market"
	"github.com/quantfolio/cadence/internal/performance"
	"github.com/quantfolio/cadence/internal/recommend"
	"github.com/quantfolio/cadence/internal/strategy"
	"github.com/quantfolio/cadence/internal/trader"
)

// Service runs the pipeline and caches its latest output for read-only
// consumers. Refresh replaces the cached state atomically; readers see
// either the previous complete run or the new one, never a mix.
type Service struct {
	cfg      *config.Config
	provider *market.Provider
	strat    strategy.Strategy
	analyzer *performance.Analyzer
	recsvc   *recommend.Service
	log      zerolog.Logger

	mu        sync.RWMutex
	results   []backtest.Result
	summaries []performance.Summary
	best      *performance.Summary
	report    *recommend.Report
	byRunID   map[string]int
}

// New wires the pipeline from configuration. The strategy instance is
// shared by every trader in the sweep; both strategies are stateless.
func New(cfg *config.Config, provider *market.Provider, log zerolog.Logger) (*Service, error) {
	strat, err := NewStrategy(cfg)
	if err != nil {
		return nil, err
	}
	recsvc, err := recommend.NewService(provider.Watchlist(), strat, log)
	if err != nil {
		return nil, err
	}
	return &Service{
		cfg:      cfg,
		provider: provider,
		strat:    strat,
		analyzer: performance.NewAnalyzer(cfg.DrawdownThreshold, log),
		recsvc:   recsvc,
		log:      log.With().Str("component", "app").Logger(),
	}, nil
}

// NewStrategy builds the allocation strategy selected by configuration.
func NewStrategy(cfg *config.Config) (strategy.Strategy, error) {
	switch cfg.Strategy {
	case config.StrategyMaxSharpe:
		return strategy.NewMaxSharpe(cfg.TopK, cfg.MaxWeight)
	case config.StrategyLinearProg:
		return strategy.NewLinearProgramming(cfg.MaxWeight, cfg.BetaConstraint)
	default:
		return nil, fmt.Errorf("unknown strategy %q", cfg.Strategy)
	}
}

// Name implements scheduler.Job.
func (s *Service) Name() string {
	return "cadence_refresh"
}

// Run implements scheduler.Job.
func (s *Service) Run() error {
	return s.Refresh()
}

// Refresh rebuilds the feature table, sweeps every cadence with a fresh
// trader, and caches the summaries and the recommendation.
func (s *Service) Refresh() error {
	table, err := s.provider.BuildTable()
	if err != nil {
		return fmt.Errorf("refresh: %w", err)
	}

	traders := make([]*trader.Trader, 0, len(trader.Frequencies))
	for _, freq := range s.cfg.Frequencies() {
		t, err := trader.New(s.cfg.InitialBalance, s.strat, freq, s.log)
		if err != nil {
			return fmt.Errorf("refresh: %w", err)
		}
		traders = append(traders, t)
	}

	runner := backtest.NewRunner(table, s.provider.Watchlist().Codes(), s.cfg.Workers, s.log)
	results := runner.RunAll(traders)
	summaries := s.analyzer.SummarizeAll(results)

	var best *performance.Summary
	if b, ok := s.analyzer.BestCadence(summaries); ok {
		best = &b
	}

	report, err := s.recsvc.Build(table, best)
	if err != nil {
		return fmt.Errorf("refresh: %w", err)
	}

	byRunID := make(map[string]int, len(results))
	for i, res := range results {
		byRunID[res.ID] = i
	}

	s.mu.Lock()
	s.results = results
	s.summaries = summaries
	s.best = best
	s.report = &report
	s.byRunID = byRunID
	s.mu.Unlock()

	event := s.log.Info().Int("runs", len(results))
	if best != nil {
		event = event.Str("best_cadence", string(best.Frequency))
	}
	event.Msg("Pipeline refreshed")

	return nil
}

// Report returns the cached recommendation, if a refresh has completed.
func (s *Service) Report() (recommend.Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.report == nil {
		return recommend.Report{}, false
	}
	return *s.report, true
}

// Summaries returns the cached per-cadence performance summaries.
func (s *Service) Summaries() []performance.Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.summaries
}

// Best returns the cached best-cadence summary.
func (s *Service) Best() (performance.Summary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.best == nil {
		return performance.Summary{}, false
	}
	return *s.best, true
}

// RunByID looks up one cached run and its summary.
func (s *Service) RunByID(id string) (backtest.Result, performance.Summary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byRunID[id]
	if !ok {
		return backtest.Result{}, performance.Summary{}, false
	}
	return s.results[i], s.summaries[i], true
}
