package api

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/yourusername/quant-stock/internal/indicator"
	"github.com/yourusername/quant-stock/internal/metrics"
	"github.com/yourusername/quant-stock/internal/models"
)

// handleIndicatorCatalog returns the supported indicator types
func (s *Server) handleIndicatorCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"version":    indicator.CatalogVersion,
		"indicators": indicator.Catalog(),
	})
}

type computeRequest struct {
	StockCode  string                 `json:"stock_code"`
	Period     models.Period          `json:"period"`
	Start      string                 `json:"start,omitempty"`
	End        string                 `json:"end,omitempty"`
	Indicators []models.IndicatorSpec `json:"indicators"`
}

type computeResponse struct {
	StockCode string                `json:"stock_code"`
	Period    models.Period         `json:"period"`
	Dates     []string              `json:"dates"`
	Columns   map[string][]*float64 `json:"columns"`
}

// handleComputeIndicators computes built-in indicators over a stock's bars
func (s *Server) handleComputeIndicators(w http.ResponseWriter, r *http.Request) {
	var req computeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.StockCode == "" {
		writeError(w, http.StatusBadRequest, "stock_code is required")
		return
	}
	if len(req.Indicators) == 0 {
		writeError(w, http.StatusBadRequest, "at least one indicator is required")
		return
	}
	if req.Period == "" {
		req.Period = models.PeriodDaily
	}
	if !req.Period.Valid() {
		writeError(w, http.StatusBadRequest, "period must be daily, weekly or monthly")
		return
	}

	start, end, err := parseRange(req.Start, req.End)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	bars, err := s.marketData.GetBars(r.Context(), req.StockCode, req.Period, start, end)
	if errors.Is(err, models.ErrNotFound) || len(bars) == 0 {
		writeError(w, http.StatusNotFound, "no bars found for stock")
		return
	}
	if err != nil {
		s.logger.WithError(err).WithField("stock_code", req.StockCode).Error("Failed to load bars")
		writeError(w, http.StatusBadGateway, "failed to load bars")
		return
	}

	frame := indicator.NewFrame(bars)
	columns := make(map[string][]*float64)
	for _, spec := range req.Indicators {
		computeStart := time.Now()
		outputs, err := s.calculator.Compute(frame, spec.Type, spec.Params)
		if err != nil {
			metrics.RecordIndicatorComputation(spec.Type, "failure", time.Since(computeStart).Seconds())
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		metrics.RecordIndicatorComputation(spec.Type, "success", time.Since(computeStart).Seconds())
		for name, values := range outputs {
			columns[name] = nullableSeries(values)
		}
	}

	dates := make([]string, len(bars))
	for i, bar := range bars {
		dates[i] = bar.Date.Format(models.DateLayout)
	}

	writeJSON(w, http.StatusOK, computeResponse{
		StockCode: req.StockCode,
		Period:    req.Period,
		Dates:     dates,
		Columns:   columns,
	})
}

// nullableSeries maps NaN warmup values to JSON null
func nullableSeries(values []float64) []*float64 {
	out := make([]*float64, len(values))
	for i := range values {
		if math.IsNaN(values[i]) || math.IsInf(values[i], 0) {
			continue
		}
		v := values[i]
		out[i] = &v
	}
	return out
}

func parseRange(startRaw, endRaw string) (start, end time.Time, err error) {
	if startRaw != "" {
		start, err = time.Parse(models.DateLayout, startRaw)
		if err != nil {
			return start, end, errors.New("start must be formatted YYYY-MM-DD")
		}
	}
	if endRaw != "" {
		end, err = time.Parse(models.DateLayout, endRaw)
		if err != nil {
			return start, end, errors.New("end must be formatted YYYY-MM-DD")
		}
	}
	return start, end, nil
}
