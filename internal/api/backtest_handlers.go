package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/yourusername/quant-stock/internal/backtest"
	"github.com/yourusername/quant-stock/internal/metrics"
	"github.com/yourusername/quant-stock/internal/models"
)

type runBacktestRequest struct {
	StrategyID     string                 `json:"strategy_id,omitempty"`
	Strategy       *models.StrategyConfig `json:"strategy,omitempty"`
	StockCode      string                 `json:"stock_code"`
	Period         models.Period          `json:"period"`
	Start          string                 `json:"start,omitempty"`
	End            string                 `json:"end,omitempty"`
	InitialCapital *float64               `json:"initial_capital,omitempty"`
	CommissionRate *float64               `json:"commission_rate,omitempty"`
	SlippageRate   *float64               `json:"slippage_rate,omitempty"`
}

type runBacktestResponse struct {
	ID        *uuid.UUID       `json:"id,omitempty"`
	StockCode string           `json:"stock_code"`
	Period    models.Period    `json:"period"`
	Result    *backtest.Result `json:"result"`
}

// handleRunBacktest replays a strategy over a stock's bars. The strategy
// comes either from the store by id or inline in the request. Runs
// against a stored strategy are persisted.
func (s *Server) handleRunBacktest(w http.ResponseWriter, r *http.Request) {
	var req runBacktestRequest
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

	strategyCfg, strategyID, err := s.resolveStrategy(r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
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

	cfg := s.backtestCfg
	if req.InitialCapital != nil {
		cfg.InitialCapital = *req.InitialCapital
	}
	if req.CommissionRate != nil {
		cfg.CommissionRate = *req.CommissionRate
	}
	if req.SlippageRate != nil {
		cfg.SlippageRate = *req.SlippageRate
	}

	engine, err := backtest.NewEngine(cfg, s.logger)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	runStart := time.Now()
	result, err := engine.Run(bars, *strategyCfg)
	if err != nil {
		metrics.RecordBacktestRun("failure", time.Since(runStart).Seconds())
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	metrics.RecordBacktestRun("success", time.Since(runStart).Seconds())

	resp := runBacktestResponse{
		StockCode: req.StockCode,
		Period:    req.Period,
		Result:    result,
	}

	if strategyID != uuid.Nil {
		metrics.RecordBacktestReturn(strategyID.String(), result.Metrics.TotalReturn)
		record, err := s.persistResult(r, strategyID, &req, bars, result)
		if err != nil {
			s.logger.WithError(err).Error("Failed to persist backtest result")
		} else {
			resp.ID = &record.ID
			s.audit.LogBacktestRun(
				record.ID.String(), req.StockCode, string(req.Period),
				result.Metrics.TotalTrades, result.Metrics.TotalReturn,
				result.Metrics.MaxDrawdown,
				float64(time.Since(runStart).Milliseconds()),
			)
			for _, trade := range result.Trades {
				s.audit.LogSimulatedTrade(
					record.ID.String(), req.StockCode, string(trade.Action),
					trade.Price, trade.Shares, trade.Commission, trade.Date,
				)
			}
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// resolveStrategy returns the strategy config to run, preferring a
// stored strategy when an id is given.
func (s *Server) resolveStrategy(r *http.Request, req *runBacktestRequest) (*models.StrategyConfig, uuid.UUID, error) {
	if req.StrategyID != "" {
		id, err := uuid.Parse(req.StrategyID)
		if err != nil {
			return nil, uuid.Nil, errors.New("invalid strategy_id")
		}
		strat, err := s.repos.Strategy.GetByID(r.Context(), id)
		if errors.Is(err, models.ErrNotFound) {
			return nil, uuid.Nil, errors.New("strategy not found")
		}
		if err != nil {
			return nil, uuid.Nil, errors.New("failed to load strategy")
		}
		cfg, err := strat.ParseConfig()
		if err != nil {
			return nil, uuid.Nil, err
		}
		return &cfg, id, nil
	}

	if req.Strategy == nil {
		return nil, uuid.Nil, errors.New("either strategy_id or strategy is required")
	}
	if err := req.Strategy.Validate(); err != nil {
		return nil, uuid.Nil, err
	}
	return req.Strategy, uuid.Nil, nil
}

func (s *Server) persistResult(
	r *http.Request,
	strategyID uuid.UUID,
	req *runBacktestRequest,
	bars models.BarSeries,
	result *backtest.Result,
) (*models.BacktestResult, error) {
	fullResults, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}

	record := &models.BacktestResult{
		ID:             uuid.New(),
		StrategyID:     strategyID,
		StockCode:      req.StockCode,
		Period:         req.Period,
		RunDate:        time.Now().UTC(),
		StartDate:      bars[0].Date,
		EndDate:        bars[len(bars)-1].Date,
		InitialCapital: result.Metrics.InitialCapital,
		FinalCapital:   result.Metrics.FinalCapital,
		TotalReturn:    result.Metrics.TotalReturn,
		AnnualReturn:   result.Metrics.AnnualReturn,
		SharpeRatio:    result.Metrics.SharpeRatio,
		MaxDrawdown:    result.Metrics.MaxDrawdown,
		WinRate:        result.Metrics.WinRate,
		TotalTrades:    result.Metrics.TotalTrades,
		FullResults:    fullResults,
	}

	if err := s.repos.BacktestResult.Create(r.Context(), record); err != nil {
		return nil, err
	}
	return record, nil
}

// handleListBacktests lists stored runs, optionally scoped to a strategy
func (s *Server) handleListBacktests(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", 20)
	if limit <= 0 || limit > 200 {
		limit = 20
	}

	var (
		results []*models.BacktestResult
		err     error
	)
	if raw := r.URL.Query().Get("strategy_id"); raw != "" {
		id, parseErr := uuid.Parse(raw)
		if parseErr != nil {
			writeError(w, http.StatusBadRequest, "invalid strategy_id")
			return
		}
		results, err = s.repos.BacktestResult.ListByStrategy(r.Context(), id, limit)
	} else {
		results, err = s.repos.BacktestResult.ListRecent(r.Context(), limit)
	}
	if err != nil {
		s.logger.WithError(err).Error("Failed to list backtest results")
		writeError(w, http.StatusInternalServerError, "failed to list backtest results")
		return
	}

	if results == nil {
		results = []*models.BacktestResult{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *Server) handleGetBacktest(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid backtest id")
		return
	}

	result, err := s.repos.BacktestResult.GetByID(r.Context(), id)
	if errors.Is(err, models.ErrNotFound) {
		writeError(w, http.StatusNotFound, "backtest result not found")
		return
	}
	if err != nil {
		s.logger.WithError(err).Error("Failed to get backtest result")
		writeError(w, http.StatusInternalServerError, "failed to get backtest result")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
