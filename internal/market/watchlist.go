package market

import "strings"

// Watchlist indexes the investment universe: industry -> provider -> codes,
// with reverse lookups from code to industry and provider. Read-only after
// construction.
type Watchlist struct {
	groups     map[string]map[string][]string
	industries map[string]string
	providers  map[string]string

	industryOrder []string
	codeOrder     []string
}

// NewWatchlist creates an empty watchlist index.
func NewWatchlist() *Watchlist {
	return &Watchlist{
		groups:     make(map[string]map[string][]string),
		industries: make(map[string]string),
		providers:  make(map[string]string),
	}
}

// Add registers a code under an industry and exchange provider. Taiwan
// exchange codes are normalized to their Yahoo ".TW" form.
func (w *Watchlist) Add(industry, provider, code string) {
	if provider == "TWSE" && !strings.HasSuffix(code, ".TW") {
		code += ".TW"
	}

	if _, ok := w.groups[industry]; !ok {
		w.groups[industry] = make(map[string][]string)
		w.industryOrder = append(w.industryOrder, industry)
	}
	w.groups[industry][provider] = append(w.groups[industry][provider], code)
	w.industries[code] = industry
	w.providers[code] = provider
	w.codeOrder = append(w.codeOrder, code)
}

// Codes returns all codes in insertion order.
func (w *Watchlist) Codes() []string {
	return w.codeOrder
}

// Industries returns all industries in insertion order.
func (w *Watchlist) Industries() []string {
	return w.industryOrder
}

// CodesByIndustry returns the codes belonging to an industry, across all
// providers, in insertion order.
func (w *Watchlist) CodesByIndustry(industry string) []string {
	var codes []string
	for _, code := range w.codeOrder {
		if w.industries[code] == industry {
			codes = append(codes, code)
		}
	}
	return codes
}

// IndustryOf returns the industry a code belongs to.
func (w *Watchlist) IndustryOf(code string) string {
	return w.industries[code]
}

// ProviderOf returns the exchange provider of a code.
func (w *Watchlist) ProviderOf(code string) string {
	return w.providers[code]
}

// ParseSymbolList builds a watchlist from a TradingView-style symbol list.
// Entries like "###Semiconductors⁤" open an industry section; entries
// like "NASDAQ:NVDA" add a code to the current section. Codes from
// unsupported providers are ignored.
func ParseSymbolList(symbols []string) *Watchlist {
	supported := map[string]bool{"NASDAQ": true, "NYSE": true, "TWSE": true}

	w := NewWatchlist()
	current := ""
	for _, item := range symbols {
		if strings.Contains(item, "###") {
			current = strings.Trim(item, "###⁤")
			continue
		}
		if current == "" {
			continue
		}
		provider, code, ok := strings.Cut(item, ":")
		if !ok || !supported[provider] {
			continue
		}
		w.Add(current, provider, code)
	}
	return w
}
