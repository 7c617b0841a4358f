package recommend

import (
	"fmt"
	"strings"
)

// Formatter renders a report for human consumption.
type Formatter interface {
	Format(report Report) string
}

// TextFormatter renders a plain-text report suitable for terminals and
// notification messages.
type TextFormatter struct{}

// Format renders the recommendation as aligned plain text.
func (TextFormatter) Format(report Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Allocation recommendation for %s (%s)\n",
		report.Date.Format("2006-01-02"), report.Strategy)
	b.WriteString(strings.Repeat("-", 48))
	b.WriteByte('\n')

	if len(report.Holdings) == 0 {
		b.WriteString("No positions recommended. Hold cash.\n")
	}
	for _, h := range report.Holdings {
		industry := h.Industry
		if industry == "" {
			industry = "unclassified"
		}
		fmt.Fprintf(&b, "  %-10s %6.2f%%  [%s]\n", h.Code, h.Weight*100, industry)
	}
	fmt.Fprintf(&b, "  %-10s %6.2f%%\n", "CASH", report.CashWeight*100)

	b.WriteByte('\n')
	fmt.Fprintf(&b, "Market trend: %.2f  segments: %.0f  volatility: %.2f\n",
		report.Trend, report.Segments, report.Volatility)

	if len(report.IndustryStates) > 0 {
		b.WriteString("Industry crossover states:\n")
		for _, s := range report.IndustryStates {
			fmt.Fprintf(&b, "  %-20s %s\n", s.Industry, describeState(s.State))
		}
	}

	if report.BestCadence != nil {
		best := report.BestCadence
		b.WriteByte('\n')
		fmt.Fprintf(&b, "Best rebalancing cadence: %s (score %.4f = %.4f annualized - %.4f avg drawdown)\n",
			best.Frequency, best.Score(), best.AnnualizedReturn, best.AvgDrawdown)
	}

	return b.String()
}

func describeState(state float64) string {
	switch {
	case state > 0:
		return "bullish"
	case state < 0:
		return "bearish"
	default:
		return "neutral"
	}
}
