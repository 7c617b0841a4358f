package market

import (
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
)

// QuoteSource supplies daily close history for a symbol.
type QuoteSource interface {
	DailyCloses(symbol, period string) ([]Bar, error)
}

// ProviderConfig controls the indicator pipeline.
type ProviderConfig struct {
	Benchmark    string  // Index that anchors the date grid (e.g. "^IXIC")
	Period       string  // Yahoo history period for downloads
	SharpeWindow int     // Rolling Sharpe window in trading days
	SlopeWindow  int     // Industry Sharpe slope window
	MAPeriod     int     // Short MA period; long MA is 4x this
	RiskFreeRate float64 // Annual risk-free rate for excess returns
}

// Provider builds the feature table: one row per trading day with per-code
// close/Sharpe/beta/volatility columns, per-industry crossover state, and
// the aggregate Trend/segments/volatilities/betas fields.
type Provider struct {
	watchlist *Watchlist
	quotes    QuoteSource
	history   *HistoryRepository
	cfg       ProviderConfig
	log       zerolog.Logger
}

// NewProvider creates a feature table provider. The history repository is
// optional; without it every build downloads fresh data.
func NewProvider(watchlist *Watchlist, quotes QuoteSource, history *HistoryRepository, cfg ProviderConfig, log zerolog.Logger) (*Provider, error) {
	if watchlist == nil || len(watchlist.Codes()) == 0 {
		return nil, fmt.Errorf("watchlist must contain at least one code")
	}
	if quotes == nil {
		return nil, fmt.Errorf("quote source is required")
	}
	if cfg.Benchmark == "" {
		cfg.Benchmark = "^IXIC"
	}
	if cfg.Period == "" {
		cfg.Period = "15y"
	}
	if cfg.SharpeWindow <= 0 {
		cfg.SharpeWindow = 252
	}
	if cfg.SlopeWindow <= 0 {
		cfg.SlopeWindow = 365
	}
	if cfg.MAPeriod <= 0 {
		cfg.MAPeriod = 30
	}
	if cfg.RiskFreeRate == 0 {
		cfg.RiskFreeRate = 0.04
	}

	return &Provider{
		watchlist: watchlist,
		quotes:    quotes,
		history:   history,
		cfg:       cfg,
		log:       log.With().Str("component", "market_provider").Logger(),
	}, nil
}

// Watchlist returns the universe index the provider was built with.
func (p *Provider) Watchlist() *Watchlist {
	return p.watchlist
}

// BuildTable downloads (or reloads) price history, runs the indicator
// pipeline, and returns the completed feature table. Codes whose download
// fails are skipped with a warning; they read as absent in every row.
func (p *Provider) BuildTable() (*Table, error) {
	benchBars, err := p.closes(p.cfg.Benchmark)
	if err != nil {
		return nil, fmt.Errorf("failed to load benchmark %s: %w", p.cfg.Benchmark, err)
	}
	if len(benchBars) == 0 {
		return nil, fmt.Errorf("benchmark %s has no history", p.cfg.Benchmark)
	}

	dates := make([]time.Time, len(benchBars))
	benchCloses := make([]float64, len(benchBars))
	for i, bar := range benchBars {
		dates[i] = normalizeDate(bar.Date)
		benchCloses[i] = bar.Close
	}

	cols := make(map[string][]float64)

	// Aggregate market state comes from the benchmark index.
	volatilities := ExpandingVolatility(benchCloses)
	cols[FieldSegments] = LogTrendSegments(dates, benchCloses)
	cols[FieldVolatilities] = volatilities
	cols[FieldBetas] = BetasFromVolatility(volatilities)

	for _, code := range p.watchlist.Codes() {
		bars, err := p.closes(code)
		if err != nil {
			p.log.Warn().Err(err).Str("code", code).Msg("Failed to load history, skipping code")
			continue
		}
		aligned := alignCloses(dates, bars)
		vol := ExpandingVolatility(aligned)

		cols[code+SuffixClose] = aligned
		cols[code+SuffixSharpe] = RollingSharpe(aligned, p.cfg.SharpeWindow, p.cfg.RiskFreeRate)
		cols[code+SuffixVolatility] = vol
		cols[code+SuffixBeta] = BetasFromVolatility(vol)
	}

	// Industry metrics: mean Sharpe across member codes, its slope, and the
	// short/long MA crossover state of that slope.
	trend := make([]float64, len(dates))
	industryCount := 0
	for _, industry := range p.watchlist.Industries() {
		integrated := make([]float64, len(dates))
		for i := range dates {
			var sharpes []float64
			for _, code := range p.watchlist.CodesByIndustry(industry) {
				if col, ok := cols[code+SuffixSharpe]; ok {
					sharpes = append(sharpes, col[i])
				}
			}
			integrated[i] = MeanIgnoringNaN(sharpes)
		}

		slope := RollingSlope(integrated, p.cfg.SlopeWindow)
		maShort := SMA(slope, p.cfg.MAPeriod)
		maLong := SMA(slope, p.cfg.MAPeriod*4)
		states := CrossoverStates(maShort, maLong)

		cols[industry+"_Integrated_Sharpe"] = integrated
		cols[industry+"_Sharpe_Slope"] = slope
		cols[industry+"_MA_Short"] = maShort
		cols[industry+"_MA_Long"] = maLong
		cols[industry+"_Crossover_State"] = states
		cols[industry+"_CP"] = TurningPoints(slope, maShort, maLong)

		for i, s := range states {
			trend[i] += s
		}
		industryCount++
	}
	if industryCount > 0 {
		for i := range trend {
			trend[i] /= float64(industryCount)
		}
	}
	cols[FieldTrend] = trend

	// Decline probabilities: one model pooled across every industry, scored
	// per industry. Without confirmed turning points in both directions
	// there is nothing to fit and the columns stay absent.
	var feats [][2]float64
	var labels []float64
	for _, industry := range p.watchlist.Industries() {
		states := cols[industry+"_Crossover_State"]
		points := cols[industry+"_CP"]
		for i := range dates {
			if math.IsNaN(trend[i]) || math.IsNaN(states[i]) || math.IsNaN(points[i]) {
				continue
			}
			feats = append(feats, [2]float64{trend[i], states[i]})
			labels = append(labels, points[i])
		}
	}
	if model, err := fitDeclineModel(feats, labels); err != nil {
		p.log.Warn().Err(err).Msg("Skipping decline probabilities")
	} else {
		for _, industry := range p.watchlist.Industries() {
			states := cols[industry+"_Crossover_State"]
			decline := make([]float64, len(dates))
			for i := range decline {
				decline[i] = model.Proba(trend[i], states[i])
			}
			cols[industry+"_Decline"] = decline
		}
	}

	forwardFill(cols)

	// Drop the indicator warmup: rolling Sharpe feeds the slope window,
	// which in turn feeds the long MA.
	warmup := p.cfg.SharpeWindow + p.cfg.SlopeWindow + p.cfg.MAPeriod*4
	if warmup >= len(dates) {
		warmup = 0
	}

	table := NewTable()
	for i := warmup; i < len(dates); i++ {
		row := make(Row, len(cols))
		for name, col := range cols {
			row[name] = col[i]
		}
		if err := table.Append(dates[i], row); err != nil {
			return nil, fmt.Errorf("failed to append row: %w", err)
		}
	}

	p.log.Info().
		Int("days", table.Len()).
		Int("columns", len(cols)).
		Msg("Feature table built")
	return table, nil
}

// closes loads history for a symbol, combining the repository cache with a
// fresh download. Bars newer than the cached tail are persisted so the next
// scheduled rebuild keeps extending the same history. When the download
// fails but a cache exists, the cached bars are served with a warning.
func (p *Provider) closes(symbol string) ([]Bar, error) {
	if p.history == nil {
		return p.quotes.DailyCloses(symbol, p.cfg.Period)
	}

	cached, err := p.history.Bars(symbol)
	if err != nil {
		return nil, err
	}

	fresh, err := p.quotes.DailyCloses(symbol, p.cfg.Period)
	if err != nil {
		if len(cached) > 0 {
			p.log.Warn().Err(err).Str("symbol", symbol).Msg("Download failed, serving cached history")
			return cached, nil
		}
		return nil, err
	}

	if len(cached) == 0 {
		if err := p.history.SaveBars(symbol, fresh); err != nil {
			p.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to cache history")
		}
		return fresh, nil
	}

	latest, err := p.history.LatestDate(symbol)
	if err != nil {
		return nil, err
	}

	var newer []Bar
	for _, bar := range fresh {
		if normalizeDate(bar.Date).After(latest) {
			newer = append(newer, bar)
		}
	}
	if len(newer) > 0 {
		if err := p.history.SaveBars(symbol, newer); err != nil {
			p.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to cache history")
		}
	}
	return append(cached, newer...), nil
}

// alignCloses projects a symbol's bars onto the benchmark date grid,
// carrying the last known close forward across gaps. Dates before the
// symbol's first bar are NaN.
func alignCloses(dates []time.Time, bars []Bar) []float64 {
	byDate := make(map[time.Time]float64, len(bars))
	for _, bar := range bars {
		byDate[normalizeDate(bar.Date)] = bar.Close
	}

	out := make([]float64, len(dates))
	last := math.NaN()
	for i, date := range dates {
		if c, ok := byDate[date]; ok {
			last = c
		}
		out[i] = last
	}
	return out
}

// forwardFill carries the last present value of each column forward across NaN
// gaps, leaving leading NaNs in place.
func forwardFill(cols map[string][]float64) {
	for _, col := range cols {
		last := math.NaN()
		for i, v := range col {
			if !math.IsNaN(v) {
				last = v
			} else if !math.IsNaN(last) {
				col[i] = last
			}
		}
	}
}
