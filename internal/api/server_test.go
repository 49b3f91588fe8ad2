package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/quant-stock/internal/backtest"
	"github.com/yourusername/quant-stock/internal/formula"
	"github.com/yourusername/quant-stock/internal/indicator"
	"github.com/yourusername/quant-stock/internal/models"
	"github.com/yourusername/quant-stock/internal/repository"
	"github.com/yourusername/quant-stock/internal/service"
)

type memStockRepo struct {
	mu     sync.Mutex
	stocks map[string]*models.Stock
}

func (r *memStockRepo) Upsert(ctx context.Context, s *models.Stock) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stocks[s.Code] = s
	return nil
}

func (r *memStockRepo) UpsertBatch(ctx context.Context, stocks []*models.Stock) error {
	for _, s := range stocks {
		if err := r.Upsert(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

func (r *memStockRepo) GetByCode(ctx context.Context, code string) (*models.Stock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.stocks[code]; ok {
		return s, nil
	}
	return nil, models.ErrNotFound
}

func (r *memStockRepo) List(ctx context.Context, keyword string, limit, offset int) ([]*models.Stock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Stock, 0, len(r.stocks))
	for _, s := range r.stocks {
		out = append(out, s)
	}
	return out, nil
}

func (r *memStockRepo) Count(ctx context.Context, keyword string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stocks), nil
}

func (r *memStockRepo) Delete(ctx context.Context, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.stocks, code)
	return nil
}

type memBarRepo struct {
	mu   sync.Mutex
	bars map[string]models.BarSeries
}

func (r *memBarRepo) key(code string, period models.Period) string {
	return code + ":" + string(period)
}

func (r *memBarRepo) InsertBatch(ctx context.Context, code string, period models.Period, bars []models.Bar) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := r.key(code, period)
	r.bars[k] = append(r.bars[k], bars...)
	return nil
}

func (r *memBarRepo) GetRange(ctx context.Context, code string, period models.Period, start, end time.Time) (models.BarSeries, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bars[r.key(code, period)], nil
}

func (r *memBarRepo) GetLatestDate(ctx context.Context, code string, period models.Period) (time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	bars := r.bars[r.key(code, period)]
	if len(bars) == 0 {
		return time.Time{}, models.ErrNotFound
	}
	return bars[len(bars)-1].Date, nil
}

func (r *memBarRepo) DeleteRange(ctx context.Context, code string, period models.Period, start, end time.Time) error {
	return nil
}

type memStrategyRepo struct {
	mu         sync.Mutex
	strategies map[uuid.UUID]*models.Strategy
}

func (r *memStrategyRepo) Create(ctx context.Context, s *models.Strategy) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	r.strategies[s.ID] = s
	return nil
}

func (r *memStrategyRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Strategy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.strategies[id]; ok {
		return s, nil
	}
	return nil, models.ErrNotFound
}

func (r *memStrategyRepo) GetByName(ctx context.Context, name string) (*models.Strategy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.strategies {
		if s.Name == name {
			return s, nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *memStrategyRepo) List(ctx context.Context, activeOnly bool) ([]*models.Strategy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Strategy, 0, len(r.strategies))
	for _, s := range r.strategies {
		if activeOnly && !s.Active {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *memStrategyRepo) Update(ctx context.Context, s *models.Strategy) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.strategies[s.ID]; !ok {
		return models.ErrNotFound
	}
	r.strategies[s.ID] = s
	return nil
}

func (r *memStrategyRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.strategies[id]; !ok {
		return models.ErrNotFound
	}
	delete(r.strategies, id)
	return nil
}

type memCustomIndicatorRepo struct {
	mu         sync.Mutex
	indicators map[uuid.UUID]*models.CustomIndicator
}

func (r *memCustomIndicatorRepo) Create(ctx context.Context, ind *models.CustomIndicator) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ind.ID == uuid.Nil {
		ind.ID = uuid.New()
	}
	r.indicators[ind.ID] = ind
	return nil
}

func (r *memCustomIndicatorRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.CustomIndicator, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ind, ok := r.indicators[id]; ok {
		return ind, nil
	}
	return nil, models.ErrNotFound
}

func (r *memCustomIndicatorRepo) GetByName(ctx context.Context, name string) (*models.CustomIndicator, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ind := range r.indicators {
		if ind.Name == name {
			return ind, nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *memCustomIndicatorRepo) List(ctx context.Context) ([]*models.CustomIndicator, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.CustomIndicator, 0, len(r.indicators))
	for _, ind := range r.indicators {
		out = append(out, ind)
	}
	return out, nil
}

func (r *memCustomIndicatorRepo) Update(ctx context.Context, ind *models.CustomIndicator) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.indicators[ind.ID]; !ok {
		return models.ErrNotFound
	}
	r.indicators[ind.ID] = ind
	return nil
}

func (r *memCustomIndicatorRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.indicators[id]; !ok {
		return models.ErrNotFound
	}
	delete(r.indicators, id)
	return nil
}

type memBacktestRepo struct {
	mu      sync.Mutex
	results map[uuid.UUID]*models.BacktestResult
}

func (r *memBacktestRepo) Create(ctx context.Context, res *models.BacktestResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if res.ID == uuid.Nil {
		res.ID = uuid.New()
	}
	r.results[res.ID] = res
	return nil
}

func (r *memBacktestRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.BacktestResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if res, ok := r.results[id]; ok {
		return res, nil
	}
	return nil, models.ErrNotFound
}

func (r *memBacktestRepo) ListByStrategy(ctx context.Context, strategyID uuid.UUID, limit int) ([]*models.BacktestResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.BacktestResult, 0)
	for _, res := range r.results {
		if res.StrategyID == strategyID {
			out = append(out, res)
		}
	}
	return out, nil
}

func (r *memBacktestRepo) ListRecent(ctx context.Context, limit int) ([]*models.BacktestResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.BacktestResult, 0, len(r.results))
	for _, res := range r.results {
		out = append(out, res)
	}
	return out, nil
}

func (r *memBacktestRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.results, id)
	return nil
}

type stubProvider struct {
	bars map[string]models.BarSeries
}

func (p *stubProvider) FetchKlines(ctx context.Context, code string, period models.Period, limit int) (models.BarSeries, error) {
	if bars, ok := p.bars[code]; ok {
		return bars, nil
	}
	return nil, models.ErrNotFound
}

func (p *stubProvider) FetchStockList(ctx context.Context) ([]*models.Stock, error) {
	return []*models.Stock{
		{Code: "600000.SH", Name: "浦发银行", Exchange: "SH"},
	}, nil
}

func (p *stubProvider) Name() string { return "stub" }

func trendBars(n int) models.BarSeries {
	bars := make(models.BarSeries, n)
	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		price := 10 + 0.01*float64(i) + 1.5*math.Sin(float64(i)/12)
		bars[i] = models.Bar{
			Date:   base.AddDate(0, 0, i),
			Open:   price - 0.05,
			Close:  price,
			High:   price + 0.1,
			Low:    price - 0.1,
			Volume: 100000,
		}
	}
	return bars
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	quiet := logrus.New()
	quiet.SetLevel(logrus.PanicLevel)

	repos := &repository.Repositories{
		Stock:           &memStockRepo{stocks: make(map[string]*models.Stock)},
		Bar:             &memBarRepo{bars: make(map[string]models.BarSeries)},
		Strategy:        &memStrategyRepo{strategies: make(map[uuid.UUID]*models.Strategy)},
		CustomIndicator: &memCustomIndicatorRepo{indicators: make(map[uuid.UUID]*models.CustomIndicator)},
		BacktestResult:  &memBacktestRepo{results: make(map[uuid.UUID]*models.BacktestResult)},
	}

	provider := &stubProvider{bars: map[string]models.BarSeries{
		"600000.SH": trendBars(120),
	}}

	marketData := service.NewMarketDataService(provider, repos.Stock, repos.Bar, nil, quiet, 10)

	return NewServer(nil, Deps{
		MarketData:    marketData,
		Repos:         repos,
		Calculator:    indicator.NewCalculator(quiet),
		FormulaEngine: formula.NewEngine(quiet),
		BacktestCfg:   backtest.DefaultConfig(),
		Logger:        quiet,
	})
}

func doRequest(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(out); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var body map[string]any
	decodeBody(t, rec, &body)
	if body["status"] != "ok" {
		t.Errorf("Expected status ok, got %v", body["status"])
	}
}

func TestGetStockNotFound(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/stocks/999999.SH", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rec.Code)
	}
}

func TestSyncAndListStocks(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/v1/stocks/sync", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, s, http.MethodGet, "/api/v1/stocks", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var body stockListResponse
	decodeBody(t, rec, &body)
	if body.Total != 1 {
		t.Errorf("Expected 1 stock, got %d", body.Total)
	}
}

func TestGetBars(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/stocks/600000.SH/bars?period=daily", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body barsResponse
	decodeBody(t, rec, &body)
	if body.Count != 120 {
		t.Errorf("Expected 120 bars, got %d", body.Count)
	}
}

func TestGetBarsInvalidPeriod(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/stocks/600000.SH/bars?period=hourly", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}

func TestIndicatorCatalog(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/indicators", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var body struct {
		Indicators []indicator.TypeInfo `json:"indicators"`
	}
	decodeBody(t, rec, &body)
	if len(body.Indicators) == 0 {
		t.Error("Expected a non-empty catalog")
	}
}

func TestComputeIndicators(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/v1/indicators/compute", computeRequest{
		StockCode: "600000.SH",
		Period:    models.PeriodDaily,
		Indicators: []models.IndicatorSpec{
			{Type: "MA", Params: map[string]any{"periods": []any{float64(5)}}},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body computeResponse
	decodeBody(t, rec, &body)
	if len(body.Columns["MA5"]) != 120 {
		t.Fatalf("Expected 120 MA5 values, got %d", len(body.Columns["MA5"]))
	}
	// Warmup values are null, later values populated
	if body.Columns["MA5"][0] != nil {
		t.Error("Expected null during warmup")
	}
	if body.Columns["MA5"][119] == nil {
		t.Error("Expected value after warmup")
	}
}

func TestComputeUnknownIndicator(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/v1/indicators/compute", computeRequest{
		StockCode:  "600000.SH",
		Indicators: []models.IndicatorSpec{{Type: "WOMBAT"}},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}

func TestValidateFormula(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/v1/custom-indicators/validate",
		validateFormulaRequest{Formula: "avg(close, 5) - avg(close, 20)"})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var result formula.ValidationResult
	decodeBody(t, rec, &result)
	if !result.Valid {
		t.Errorf("Expected valid formula, got: %s", result.Message)
	}

	rec = doRequest(t, s, http.MethodPost, "/api/v1/custom-indicators/validate",
		validateFormulaRequest{Formula: "exec(close)"})
	decodeBody(t, rec, &result)
	if result.Valid {
		t.Error("Expected invalid formula")
	}
}

func TestCustomIndicatorLifecycle(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/v1/custom-indicators", models.CustomIndicator{
		Name:    "ma_gap",
		Formula: "avg(close, n) - avg(close, 20)",
		Params:  map[string]float64{"n": 5},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var created models.CustomIndicator
	decodeBody(t, rec, &created)

	rec = doRequest(t, s, http.MethodPost,
		fmt.Sprintf("/api/v1/custom-indicators/%s/compute", created.ID),
		computeCustomRequest{StockCode: "600000.SH", Period: models.PeriodDaily})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var computed struct {
		Values []*float64 `json:"values"`
	}
	decodeBody(t, rec, &computed)
	if len(computed.Values) != 120 {
		t.Errorf("Expected 120 values, got %d", len(computed.Values))
	}

	rec = doRequest(t, s, http.MethodDelete,
		fmt.Sprintf("/api/v1/custom-indicators/%s", created.ID), nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("Expected 204, got %d", rec.Code)
	}
}

func TestCreateCustomIndicatorRejectsBadFormula(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/v1/custom-indicators", models.CustomIndicator{
		Name:    "broken",
		Formula: "avg(close,",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}

func strategyConfigJSON() json.RawMessage {
	return json.RawMessage(`{
		"indicators": [{"type": "MA", "params": {"periods": [5, 20]}}],
		"conditions": [
			{"indicator": "MA5", "operator": "cross_up", "value": "MA20", "action": "buy"},
			{"indicator": "MA5", "operator": "cross_down", "value": "MA20", "action": "sell"}
		]
	}`)
}

func TestStrategyLifecycle(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/v1/strategies", models.Strategy{
		Name:   "golden cross",
		Config: strategyConfigJSON(),
		Active: true,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var created models.Strategy
	decodeBody(t, rec, &created)

	rec = doRequest(t, s, http.MethodGet,
		fmt.Sprintf("/api/v1/strategies/%s", created.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	created.Description = "MA5/MA20 crossover"
	rec = doRequest(t, s, http.MethodPut,
		fmt.Sprintf("/api/v1/strategies/%s", created.ID), created)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, s, http.MethodDelete,
		fmt.Sprintf("/api/v1/strategies/%s", created.ID), nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("Expected 204, got %d", rec.Code)
	}
}

func TestCreateStrategyRejectsBadConfig(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/v1/strategies", models.Strategy{
		Name:   "bad operator",
		Config: json.RawMessage(`{"conditions": [{"indicator": "MA5", "operator": "~", "value": 1, "action": "buy"}]}`),
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}

func TestRunBacktestInline(t *testing.T) {
	s := newTestServer(t)

	var strat models.StrategyConfig
	if err := json.Unmarshal(strategyConfigJSON(), &strat); err != nil {
		t.Fatalf("Failed to build strategy: %v", err)
	}

	rec := doRequest(t, s, http.MethodPost, "/api/v1/backtests", runBacktestRequest{
		StockCode: "600000.SH",
		Period:    models.PeriodDaily,
		Strategy:  &strat,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body runBacktestResponse
	decodeBody(t, rec, &body)
	if body.Result == nil {
		t.Fatal("Expected a result")
	}
	if body.Result.Metrics.InitialCapital != 100000 {
		t.Errorf("Expected default initial capital, got %f", body.Result.Metrics.InitialCapital)
	}
	if body.ID != nil {
		t.Error("Inline runs should not be persisted")
	}
}

func TestRunBacktestPersisted(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/v1/strategies", models.Strategy{
		Name:   "golden cross",
		Config: strategyConfigJSON(),
		Active: true,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", rec.Code)
	}
	var strat models.Strategy
	decodeBody(t, rec, &strat)

	rec = doRequest(t, s, http.MethodPost, "/api/v1/backtests", runBacktestRequest{
		StrategyID: strat.ID.String(),
		StockCode:  "600000.SH",
		Period:     models.PeriodDaily,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body runBacktestResponse
	decodeBody(t, rec, &body)
	if body.ID == nil {
		t.Fatal("Expected persisted run id")
	}

	rec = doRequest(t, s, http.MethodGet,
		fmt.Sprintf("/api/v1/backtests/%s", body.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	rec = doRequest(t, s, http.MethodGet,
		fmt.Sprintf("/api/v1/backtests?strategy_id=%s", strat.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var list struct {
		Results []*models.BacktestResult `json:"results"`
	}
	decodeBody(t, rec, &list)
	if len(list.Results) != 1 {
		t.Errorf("Expected 1 stored result, got %d", len(list.Results))
	}
}

func TestRunBacktestRequiresStrategy(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/v1/backtests", runBacktestRequest{
		StockCode: "600000.SH",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}
