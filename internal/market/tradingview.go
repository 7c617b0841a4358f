package market

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const tradingViewBaseURL = "https://in.tradingview.com"

// TradingViewClient fetches custom symbol lists from TradingView. The list
// endpoint requires a logged-in session cookie.
type TradingViewClient struct {
	httpClient *http.Client
	baseURL    string
	log        zerolog.Logger
}

// NewTradingViewClient creates a TradingView watchlist client.
func NewTradingViewClient(log zerolog.Logger) *TradingViewClient {
	return &TradingViewClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    tradingViewBaseURL,
		log:        log.With().Str("client", "tradingview").Logger(),
	}
}

// FetchWatchlist downloads a custom watchlist and parses it into the
// industry/provider/code index.
func (c *TradingViewClient) FetchWatchlist(watchlistID, sessionID string) (*Watchlist, error) {
	url := fmt.Sprintf("%s/api/v1/symbols_list/custom/%s", c.baseURL, watchlistID)

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build watchlist request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/101.0.4951.54 Safari/537.36")
	req.Header.Set("Accept-Language", "en-GB,en-US;q=0.9,en;q=0.8")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Origin", c.baseURL)
	req.Header.Set("Cookie", fmt.Sprintf("sessionid=%s", sessionID))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("watchlist request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("watchlist request returned status %d", resp.StatusCode)
	}

	var payload struct {
		Symbols []string `json:"symbols"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode watchlist response: %w", err)
	}

	watchlist := ParseSymbolList(payload.Symbols)
	c.log.Info().
		Str("watchlist_id", watchlistID).
		Int("codes", len(watchlist.Codes())).
		Int("industries", len(watchlist.Industries())).
		Msg("Fetched watchlist")

	return watchlist, nil
}
