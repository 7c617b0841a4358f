package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quantfolio/cadence/internal/charts"
	"github.com/quantfolio/cadence/internal/recommend"
)

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":  "healthy",
		"service": "cadence",
	}

	s.writeJSON(w, http.StatusOK, response)
}

// handleRecommendation returns the latest cached recommendation as JSON.
func (s *Server) handleRecommendation(w http.ResponseWriter, r *http.Request) {
	report, ok := s.app.Report()
	if !ok {
		s.writeError(w, http.StatusServiceUnavailable, "no recommendation available yet")
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

// handleRecommendationText returns the recommendation rendered as plain
// text.
func (s *Server) handleRecommendationText(w http.ResponseWriter, r *http.Request) {
	report, ok := s.app.Report()
	if !ok {
		s.writeError(w, http.StatusServiceUnavailable, "no recommendation available yet")
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(recommend.TextFormatter{}.Format(report))); err != nil {
		s.log.Error().Err(err).Msg("Failed to write text response")
	}
}

// handleBacktestSummary returns the per-cadence summaries and the best
// pick.
func (s *Server) handleBacktestSummary(w http.ResponseWriter, r *http.Request) {
	summaries := s.app.Summaries()
	if len(summaries) == 0 {
		s.writeError(w, http.StatusServiceUnavailable, "no backtest results available yet")
		return
	}

	response := map[string]interface{}{
		"summaries": summaries,
	}
	if best, ok := s.app.Best(); ok {
		response["best"] = best
	}
	s.writeJSON(w, http.StatusOK, response)
}

// handleEquityChart renders one run's equity curve as a PNG.
func (s *Server) handleEquityChart(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	result, summary, ok := s.app.RunByID(runID)
	if !ok {
		s.writeError(w, http.StatusNotFound, "unknown run ID")
		return
	}

	img, err := charts.EquityCurve(result.Trader.History(), summary)
	if err != nil {
		s.log.Error().Err(err).Str("run_id", runID).Msg("Failed to render equity chart")
		s.writeError(w, http.StatusInternalServerError, "failed to render chart")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(img); err != nil {
		s.log.Error().Err(err).Msg("Failed to write chart response")
	}
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes a JSON error response
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
