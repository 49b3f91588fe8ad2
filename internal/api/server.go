// Package api exposes the REST surface of the service.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/quant-stock/internal/backtest"
	"github.com/yourusername/quant-stock/internal/config"
	"github.com/yourusername/quant-stock/internal/formula"
	"github.com/yourusername/quant-stock/internal/indicator"
	"github.com/yourusername/quant-stock/internal/logger"
	"github.com/yourusername/quant-stock/internal/metrics"
	"github.com/yourusername/quant-stock/internal/repository"
	"github.com/yourusername/quant-stock/internal/service"
)

// DatabasePinger checks database connectivity for readiness probes.
type DatabasePinger interface {
	Ping(ctx context.Context) error
}

// Server is the HTTP API server
type Server struct {
	router        *mux.Router
	httpServer    *http.Server
	cfg           *config.APIConfig
	marketData    *service.MarketDataService
	repos         *repository.Repositories
	calculator    *indicator.Calculator
	formulaEngine *formula.Engine
	backtestCfg   backtest.Config
	db            DatabasePinger
	logger        *logrus.Logger
	audit         *logger.AuditLogger
}

// Deps bundles the collaborators the server routes requests to.
type Deps struct {
	MarketData    *service.MarketDataService
	Repos         *repository.Repositories
	Calculator    *indicator.Calculator
	FormulaEngine *formula.Engine
	BacktestCfg   backtest.Config
	DB            DatabasePinger
	Logger        *logrus.Logger
}

// NewServer creates the API server and registers all routes
func NewServer(cfg *config.APIConfig, deps Deps) *Server {
	log := deps.Logger
	if log == nil {
		log = logrus.New()
	}

	s := &Server{
		router:        mux.NewRouter(),
		cfg:           cfg,
		marketData:    deps.MarketData,
		repos:         deps.Repos,
		calculator:    deps.Calculator,
		formulaEngine: deps.FormulaEngine,
		backtestCfg:   deps.BacktestCfg,
		db:            deps.DB,
		logger:        log,
		audit:         logger.NewAuditLogger(log),
	}

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.Use(recoveryMiddleware(s.logger))
	s.router.Use(requestLoggingMiddleware(s.logger))
	s.router.Use(metricsMiddleware())
	if s.cfg != nil && s.cfg.RequestsPerSecond > 0 {
		s.router.Use(rateLimitMiddleware(s.cfg.RequestsPerSecond, s.cfg.Burst))
	}

	s.router.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	s.router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	v1 := s.router.PathPrefix("/api/v1").Subrouter()

	v1.HandleFunc("/stocks", s.handleListStocks).Methods(http.MethodGet)
	v1.HandleFunc("/stocks/sync", s.handleSyncStockList).Methods(http.MethodPost)
	v1.HandleFunc("/stocks/{code}", s.handleGetStock).Methods(http.MethodGet)
	v1.HandleFunc("/stocks/{code}/bars", s.handleGetBars).Methods(http.MethodGet)
	v1.HandleFunc("/stocks/{code}/sync", s.handleSyncBars).Methods(http.MethodPost)

	v1.HandleFunc("/indicators", s.handleIndicatorCatalog).Methods(http.MethodGet)
	v1.HandleFunc("/indicators/compute", s.handleComputeIndicators).Methods(http.MethodPost)

	v1.HandleFunc("/custom-indicators", s.handleListCustomIndicators).Methods(http.MethodGet)
	v1.HandleFunc("/custom-indicators", s.handleCreateCustomIndicator).Methods(http.MethodPost)
	v1.HandleFunc("/custom-indicators/validate", s.handleValidateFormula).Methods(http.MethodPost)
	v1.HandleFunc("/custom-indicators/{id}", s.handleGetCustomIndicator).Methods(http.MethodGet)
	v1.HandleFunc("/custom-indicators/{id}", s.handleUpdateCustomIndicator).Methods(http.MethodPut)
	v1.HandleFunc("/custom-indicators/{id}", s.handleDeleteCustomIndicator).Methods(http.MethodDelete)
	v1.HandleFunc("/custom-indicators/{id}/compute", s.handleComputeCustomIndicator).Methods(http.MethodPost)

	v1.HandleFunc("/strategies", s.handleListStrategies).Methods(http.MethodGet)
	v1.HandleFunc("/strategies", s.handleCreateStrategy).Methods(http.MethodPost)
	v1.HandleFunc("/strategies/{id}", s.handleGetStrategy).Methods(http.MethodGet)
	v1.HandleFunc("/strategies/{id}", s.handleUpdateStrategy).Methods(http.MethodPut)
	v1.HandleFunc("/strategies/{id}", s.handleDeleteStrategy).Methods(http.MethodDelete)

	v1.HandleFunc("/backtests", s.handleRunBacktest).Methods(http.MethodPost)
	v1.HandleFunc("/backtests", s.handleListBacktests).Methods(http.MethodGet)
	v1.HandleFunc("/backtests/{id}", s.handleGetBacktest).Methods(http.MethodGet)
}

// Router exposes the mux router, mainly for tests
func (s *Server) Router() http.Handler {
	return s.router
}

// Start runs the HTTP server until the context is cancelled
func (s *Server) Start(ctx context.Context) error {
	addr := ":8080"
	readTimeout := 15 * time.Second
	writeTimeout := 30 * time.Second
	if s.cfg != nil {
		addr = s.cfg.GetAPIAddress()
		if s.cfg.ReadTimeoutSeconds > 0 {
			readTimeout = time.Duration(s.cfg.ReadTimeoutSeconds) * time.Second
		}
		if s.cfg.WriteTimeoutSeconds > 0 {
			writeTimeout = time.Duration(s.cfg.WriteTimeoutSeconds) * time.Second
		}
	}

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("API server starting")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("api server failed: %w", err)
	case <-ctx.Done():
		return s.Shutdown()
	}
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown() error {
	if s.httpServer == nil {
		return nil
	}

	timeout := 10 * time.Second
	if s.cfg != nil && s.cfg.ShutdownTimeoutSeconds > 0 {
		timeout = time.Duration(s.cfg.ShutdownTimeoutSeconds) * time.Second
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	return s.httpServer.Shutdown(ctx)
}

// handleHealthz reports service and database health
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"service": "ok"}
	healthy := true

	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := s.db.Ping(ctx); err != nil {
			healthy = false
			checks["database"] = fmt.Sprintf("error: %v", err)
		} else {
			checks["database"] = "ok"
		}
	}

	status := http.StatusOK
	state := "ok"
	if !healthy {
		status = http.StatusServiceUnavailable
		state = "degraded"
	}

	writeJSON(w, status, map[string]any{
		"status": state,
		"checks": checks,
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
