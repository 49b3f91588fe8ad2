package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/yourusername/quant-stock/internal/metrics"
	"github.com/yourusername/quant-stock/internal/models"
)

func (s *Server) handleListCustomIndicators(w http.ResponseWriter, r *http.Request) {
	indicators, err := s.repos.CustomIndicator.List(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("Failed to list custom indicators")
		writeError(w, http.StatusInternalServerError, "failed to list custom indicators")
		return
	}
	if indicators == nil {
		indicators = []*models.CustomIndicator{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"indicators": indicators})
}

// handleCreateCustomIndicator validates and persists a formula indicator
func (s *Server) handleCreateCustomIndicator(w http.ResponseWriter, r *http.Request) {
	var ind models.CustomIndicator
	if err := json.NewDecoder(r.Body).Decode(&ind); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := ind.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if result := s.formulaEngine.Validate(ind.Formula); !result.Valid {
		writeError(w, http.StatusBadRequest, result.Message)
		return
	}

	if err := s.repos.CustomIndicator.Create(r.Context(), &ind); err != nil {
		if errors.Is(err, models.ErrDuplicateKey) {
			writeError(w, http.StatusConflict, "indicator name already exists")
			return
		}
		s.logger.WithError(err).Error("Failed to create custom indicator")
		writeError(w, http.StatusInternalServerError, "failed to create custom indicator")
		return
	}

	s.audit.LogCustomIndicatorChange(ind.ID.String(), ind.Name, "created", true)
	writeJSON(w, http.StatusCreated, ind)
}

func (s *Server) handleGetCustomIndicator(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid indicator id")
		return
	}

	ind, err := s.repos.CustomIndicator.GetByID(r.Context(), id)
	if errors.Is(err, models.ErrNotFound) {
		writeError(w, http.StatusNotFound, "custom indicator not found")
		return
	}
	if err != nil {
		s.logger.WithError(err).Error("Failed to get custom indicator")
		writeError(w, http.StatusInternalServerError, "failed to get custom indicator")
		return
	}

	writeJSON(w, http.StatusOK, ind)
}

func (s *Server) handleUpdateCustomIndicator(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid indicator id")
		return
	}

	var ind models.CustomIndicator
	if err := json.NewDecoder(r.Body).Decode(&ind); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	ind.ID = id
	if err := ind.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if result := s.formulaEngine.Validate(ind.Formula); !result.Valid {
		writeError(w, http.StatusBadRequest, result.Message)
		return
	}

	if err := s.repos.CustomIndicator.Update(r.Context(), &ind); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			writeError(w, http.StatusNotFound, "custom indicator not found")
			return
		}
		s.logger.WithError(err).Error("Failed to update custom indicator")
		writeError(w, http.StatusInternalServerError, "failed to update custom indicator")
		return
	}

	s.audit.LogCustomIndicatorChange(ind.ID.String(), ind.Name, "updated", true)
	writeJSON(w, http.StatusOK, ind)
}

func (s *Server) handleDeleteCustomIndicator(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid indicator id")
		return
	}

	if err := s.repos.CustomIndicator.Delete(r.Context(), id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			writeError(w, http.StatusNotFound, "custom indicator not found")
			return
		}
		s.logger.WithError(err).Error("Failed to delete custom indicator")
		writeError(w, http.StatusInternalServerError, "failed to delete custom indicator")
		return
	}

	s.audit.LogCustomIndicatorChange(id.String(), "", "deleted", true)
	w.WriteHeader(http.StatusNoContent)
}

type validateFormulaRequest struct {
	Formula string `json:"formula"`
}

// handleValidateFormula syntax-checks a formula without persisting it
func (s *Server) handleValidateFormula(w http.ResponseWriter, r *http.Request) {
	var req validateFormulaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Formula == "" {
		writeError(w, http.StatusBadRequest, "formula is required")
		return
	}

	writeJSON(w, http.StatusOK, s.formulaEngine.Validate(req.Formula))
}

type computeCustomRequest struct {
	StockCode string             `json:"stock_code"`
	Period    models.Period      `json:"period"`
	Start     string             `json:"start,omitempty"`
	End       string             `json:"end,omitempty"`
	Params    map[string]float64 `json:"params,omitempty"`
}

// handleComputeCustomIndicator evaluates a stored formula over a stock's bars
func (s *Server) handleComputeCustomIndicator(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid indicator id")
		return
	}

	ind, err := s.repos.CustomIndicator.GetByID(r.Context(), id)
	if errors.Is(err, models.ErrNotFound) {
		writeError(w, http.StatusNotFound, "custom indicator not found")
		return
	}
	if err != nil {
		s.logger.WithError(err).Error("Failed to get custom indicator")
		writeError(w, http.StatusInternalServerError, "failed to get custom indicator")
		return
	}

	var req computeCustomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.StockCode == "" {
		writeError(w, http.StatusBadRequest, "stock_code is required")
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

	// Stored defaults overlaid by request parameters
	params := make(map[string]float64, len(ind.Params)+len(req.Params))
	for k, v := range ind.Params {
		params[k] = v
	}
	for k, v := range req.Params {
		params[k] = v
	}

	values, err := s.formulaEngine.Evaluate(ind.Formula, bars, params)
	if err != nil {
		metrics.RecordFormulaEvaluation("failure")
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	metrics.RecordFormulaEvaluation("success")

	dates := make([]string, len(bars))
	for i, bar := range bars {
		dates[i] = bar.Date.Format(models.DateLayout)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"indicator":   ind.Name,
		"stock_code":  req.StockCode,
		"period":      req.Period,
		"dates":       dates,
		"values":      nullableSeries(values),
		"computed_at": time.Now().UTC().Format(time.RFC3339),
	})
}
