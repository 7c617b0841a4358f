package formulas

// DrawdownSeries computes the drawdown at each point of a value series:
// (peak - value) / peak against the running peak. Values before the first
// positive peak produce zero drawdown.
func DrawdownSeries(values []float64) []float64 {
	drawdowns := make([]float64, len(values))
	peak := 0.0
	for i, v := range values {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			drawdowns[i] = (peak - v) / peak
		}
	}
	return drawdowns
}

// MaxDrawdown returns the deepest drawdown of a value series as a positive
// fraction (0.30 = 30% below the running peak).
func MaxDrawdown(values []float64) float64 {
	maxDD := 0.0
	for _, dd := range DrawdownSeries(values) {
		if dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// SignificantDrawdowns walks a value series in time order and extracts
// completed drawdown episodes: an episode starts when the value falls below
// the running peak and ends when a new peak is reached. Episodes whose
// maximum depth reaches the threshold are recorded; an episode still open
// at the end of the series is evaluated as well. Returns the arithmetic
// mean of recorded depths and their count (0, 0 when none qualify).
func SignificantDrawdowns(values []float64, threshold float64) (float64, int) {
	var depths []float64

	peak := 0.0
	inDrawdown := false
	episodeMax := 0.0

	for _, v := range values {
		if v >= peak {
			// New peak terminates any open episode.
			if inDrawdown {
				if episodeMax >= threshold {
					depths = append(depths, episodeMax)
				}
				inDrawdown = false
				episodeMax = 0
			}
			peak = v
			continue
		}

		if peak > 0 {
			inDrawdown = true
			dd := (peak - v) / peak
			if dd > episodeMax {
				episodeMax = dd
			}
		}
	}

	// Open episode at the end of the series counts too.
	if inDrawdown && episodeMax >= threshold {
		depths = append(depths, episodeMax)
	}

	if len(depths) == 0 {
		return 0, 0
	}

	sum := 0.0
	for _, d := range depths {
		sum += d
	}
	return sum / float64(len(depths)), len(depths)
}
