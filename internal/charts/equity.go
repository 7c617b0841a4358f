// Package charts renders backtest results as PNG images.
package charts

import (
	"fmt"

	"github.com/vicanso/go-charts/v2"

	"github.com/quantfolio/cadence/internal/performance"
	"github.com/quantfolio/cadence/internal/trader"
)

// EquityCurve renders the portfolio value history of one run as a line
// chart. The summary supplies the headline statistics; the snapshot
// sequence is consumed read-only.
func EquityCurve(history []trader.Snapshot, summary performance.Summary) ([]byte, error) {
	if len(history) == 0 {
		return nil, fmt.Errorf("charts: no snapshots to render")
	}

	xLabels := make([]string, len(history))
	values := make([]float64, len(history))
	for i, snap := range history {
		if len(history) <= 60 {
			xLabels[i] = snap.Timestamp.Format("Jan 02")
		} else {
			xLabels[i] = snap.Timestamp.Format("Jan '06")
		}
		values[i] = snap.TotalValue
	}

	minVal, maxVal := values[0], values[0]
	for _, v := range values {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	padding := (maxVal - minVal) * 0.05
	if padding == 0 {
		padding = maxVal * 0.05
	}
	yMin := minVal - padding
	yMax := maxVal + padding

	title := fmt.Sprintf("Equity curve: %s", summary.Label)
	subtitle := fmt.Sprintf("Return: %.2f%% | Annualized: %.2f%% | Sharpe: %.2f | MaxDD: %.2f%%",
		summary.TotalReturn*100, summary.AnnualizedReturn*100,
		summary.SharpeRatio, summary.MaxDrawdown*100)

	splitNum := 6
	if len(xLabels) <= 30 {
		splitNum = len(xLabels) / 3
		if splitNum < 3 {
			splitNum = 3
		}
	}

	p, err := charts.LineRender(
		[][]float64{values},
		charts.TitleTextOptionFunc(title+"\n"+subtitle),
		charts.XAxisOptionFunc(charts.XAxisOption{
			Data:        xLabels,
			SplitNumber: splitNum,
			BoundaryGap: charts.FalseFlag(),
		}),
		charts.YAxisOptionFunc(charts.YAxisOption{
			Min:         &yMin,
			Max:         &yMax,
			DivideCount: 5,
		}),
		charts.ThemeOptionFunc(charts.ThemeLight),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}

	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to generate chart bytes: %w", err)
	}
	return buf, nil
}
