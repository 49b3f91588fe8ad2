package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/yourusername/quant-stock/internal/models"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// parseDateParam parses an optional YYYY-MM-DD query parameter
func parseDateParam(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse(models.DateLayout, raw)
}

// parseIntParam parses an optional integer query parameter
func parseIntParam(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	if v, err := strconv.Atoi(raw); err == nil {
		return v
	}
	return fallback
}

// parsePeriodParam parses the period query parameter, defaulting to daily
func parsePeriodParam(r *http.Request) (models.Period, bool) {
	raw := r.URL.Query().Get("period")
	if raw == "" {
		return models.PeriodDaily, true
	}
	period := models.Period(raw)
	return period, period.Valid()
}
