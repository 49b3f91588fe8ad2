package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/yourusername/quant-stock/internal/metrics"
	"github.com/yourusername/quant-stock/internal/models"
)

func (s *Server) handleListStrategies(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"

	strategies, err := s.repos.Strategy.List(r.Context(), activeOnly)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list strategies")
		writeError(w, http.StatusInternalServerError, "failed to list strategies")
		return
	}
	if strategies == nil {
		strategies = []*models.Strategy{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"strategies": strategies})
}

// handleCreateStrategy validates and persists a strategy definition.
// The embedded config must parse and pass structural checks before it
// is accepted.
func (s *Server) handleCreateStrategy(w http.ResponseWriter, r *http.Request) {
	var strat models.Strategy
	if err := json.NewDecoder(r.Body).Decode(&strat); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validateStrategy(&strat); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.repos.Strategy.Create(r.Context(), &strat); err != nil {
		if errors.Is(err, models.ErrDuplicateKey) {
			writeError(w, http.StatusConflict, "strategy name already exists")
			return
		}
		s.logger.WithError(err).Error("Failed to create strategy")
		writeError(w, http.StatusInternalServerError, "failed to create strategy")
		return
	}

	s.audit.LogStrategyChange(strat.ID.String(), strat.Name, "created", "api")
	s.updateActiveStrategiesGauge(r)
	writeJSON(w, http.StatusCreated, strat)
}

func (s *Server) handleGetStrategy(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid strategy id")
		return
	}

	strat, err := s.repos.Strategy.GetByID(r.Context(), id)
	if errors.Is(err, models.ErrNotFound) {
		writeError(w, http.StatusNotFound, "strategy not found")
		return
	}
	if err != nil {
		s.logger.WithError(err).Error("Failed to get strategy")
		writeError(w, http.StatusInternalServerError, "failed to get strategy")
		return
	}

	writeJSON(w, http.StatusOK, strat)
}

func (s *Server) handleUpdateStrategy(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid strategy id")
		return
	}

	var strat models.Strategy
	if err := json.NewDecoder(r.Body).Decode(&strat); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	strat.ID = id
	if err := s.validateStrategy(&strat); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.repos.Strategy.Update(r.Context(), &strat); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			writeError(w, http.StatusNotFound, "strategy not found")
			return
		}
		s.logger.WithError(err).Error("Failed to update strategy")
		writeError(w, http.StatusInternalServerError, "failed to update strategy")
		return
	}

	s.audit.LogStrategyChange(strat.ID.String(), strat.Name, "updated", "api")
	s.updateActiveStrategiesGauge(r)
	writeJSON(w, http.StatusOK, strat)
}

func (s *Server) handleDeleteStrategy(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid strategy id")
		return
	}

	if err := s.repos.Strategy.Delete(r.Context(), id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			writeError(w, http.StatusNotFound, "strategy not found")
			return
		}
		s.logger.WithError(err).Error("Failed to delete strategy")
		writeError(w, http.StatusInternalServerError, "failed to delete strategy")
		return
	}

	s.audit.LogStrategyChange(id.String(), "", "deleted", "api")
	s.updateActiveStrategiesGauge(r)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) validateStrategy(strat *models.Strategy) error {
	if err := strat.Validate(); err != nil {
		return err
	}
	cfg, err := strat.ParseConfig()
	if err != nil {
		return err
	}
	return cfg.Validate()
}

func (s *Server) updateActiveStrategiesGauge(r *http.Request) {
	active, err := s.repos.Strategy.List(r.Context(), true)
	if err != nil {
		return
	}
	metrics.UpdateActiveStrategies(float64(len(active)))
}
