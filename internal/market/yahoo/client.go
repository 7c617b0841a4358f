// Package yahoo downloads daily price history from Yahoo Finance.
package yahoo

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/wnjoon/go-yfinance/pkg/models"
	"github.com/wnjoon/go-yfinance/pkg/ticker"

	"github.com/quantfolio/cadence/internal/market"
)

// Client implements market.QuoteSource using the go-yfinance library.
type Client struct {
	log zerolog.Logger
}

// New creates a new Yahoo Finance client.
func New(log zerolog.Logger) *Client {
	return &Client{
		log: log.With().Str("client", "yahoo").Logger(),
	}
}

// DailyCloses fetches daily close bars for a symbol over a Yahoo period
// string ("1y", "15y", "max"). Bars with non-positive closes are dropped.
func (c *Client) DailyCloses(symbol, period string) ([]market.Bar, error) {
	t, err := ticker.New(symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to create ticker for %s: %w", symbol, err)
	}
	defer t.Close()

	params := models.HistoryParams{
		Period:     period,
		Interval:   "1d",
		AutoAdjust: true,
	}

	rawBars, err := t.History(params)
	if err != nil {
		return nil, fmt.Errorf("failed to get history for %s: %w", symbol, err)
	}

	bars := make([]market.Bar, 0, len(rawBars))
	for _, bar := range rawBars {
		if bar.Close <= 0 {
			continue
		}
		bars = append(bars, market.Bar{
			Date:  bar.Date.In(time.UTC),
			Close: bar.Close,
		})
	}

	c.log.Debug().Str("symbol", symbol).Int("bars", len(bars)).Msg("Downloaded history")
	return bars, nil
}
