package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/yourusername/quant-stock/internal/models"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

type stockListResponse struct {
	Stocks []*models.Stock `json:"stocks"`
	Total  int             `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

// handleListStocks returns a page of the stock directory, optionally
// filtered by a code or name keyword.
func (s *Server) handleListStocks(w http.ResponseWriter, r *http.Request) {
	keyword := r.URL.Query().Get("keyword")
	limit := parseIntParam(r, "limit", defaultPageSize)
	offset := parseIntParam(r, "offset", 0)
	if limit <= 0 || limit > maxPageSize {
		limit = defaultPageSize
	}
	if offset < 0 {
		offset = 0
	}

	stocks, err := s.repos.Stock.List(r.Context(), keyword, limit, offset)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list stocks")
		writeError(w, http.StatusInternalServerError, "failed to list stocks")
		return
	}

	total, err := s.repos.Stock.Count(r.Context(), keyword)
	if err != nil {
		s.logger.WithError(err).Error("Failed to count stocks")
		writeError(w, http.StatusInternalServerError, "failed to list stocks")
		return
	}

	if stocks == nil {
		stocks = []*models.Stock{}
	}
	writeJSON(w, http.StatusOK, stockListResponse{
		Stocks: stocks,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

func (s *Server) handleGetStock(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	stock, err := s.repos.Stock.GetByCode(r.Context(), code)
	if errors.Is(err, models.ErrNotFound) {
		writeError(w, http.StatusNotFound, "stock not found")
		return
	}
	if err != nil {
		s.logger.WithError(err).WithField("stock_code", code).Error("Failed to get stock")
		writeError(w, http.StatusInternalServerError, "failed to get stock")
		return
	}

	writeJSON(w, http.StatusOK, stock)
}

type barsResponse struct {
	StockCode string           `json:"stock_code"`
	Period    models.Period    `json:"period"`
	Bars      models.BarSeries `json:"bars"`
	Count     int              `json:"count"`
}

// handleGetBars returns bars for a stock, fetching from the provider if
// the local store has none.
func (s *Server) handleGetBars(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	period, ok := parsePeriodParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "period must be daily, weekly or monthly")
		return
	}

	start, err := parseDateParam(r, "start")
	if err != nil {
		writeError(w, http.StatusBadRequest, "start must be formatted YYYY-MM-DD")
		return
	}
	end, err := parseDateParam(r, "end")
	if err != nil {
		writeError(w, http.StatusBadRequest, "end must be formatted YYYY-MM-DD")
		return
	}

	bars, err := s.marketData.GetBars(r.Context(), code, period, start, end)
	if errors.Is(err, models.ErrNotFound) {
		writeError(w, http.StatusNotFound, "no bars found for stock")
		return
	}
	if err != nil {
		s.logger.WithError(err).WithField("stock_code", code).Error("Failed to load bars")
		writeError(w, http.StatusBadGateway, "failed to load bars")
		return
	}

	writeJSON(w, http.StatusOK, barsResponse{
		StockCode: code,
		Period:    period,
		Bars:      bars,
		Count:     len(bars),
	})
}

// handleSyncStockList refreshes the stock directory from the provider
func (s *Server) handleSyncStockList(w http.ResponseWriter, r *http.Request) {
	count, err := s.marketData.SyncStockList(r.Context())
	if err != nil {
		s.logger.WithError(err).Error("Stock list sync failed")
		writeError(w, http.StatusBadGateway, "stock list sync failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"synced": count})
}

// handleSyncBars performs an incremental bar sync for one stock
func (s *Server) handleSyncBars(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	period, ok := parsePeriodParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "period must be daily, weekly or monthly")
		return
	}

	inserted, err := s.marketData.SyncBars(r.Context(), code, period)
	if err != nil {
		s.logger.WithError(err).WithField("stock_code", code).Error("Bar sync failed")
		writeError(w, http.StatusBadGateway, "bar sync failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"stock_code": code,
		"period":     period,
		"inserted":   inserted,
	})
}
