// Package main provides the entry point for the quant-stock API server.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/quant-stock/internal/api"
	"github.com/yourusername/quant-stock/internal/backtest"
	"github.com/yourusername/quant-stock/internal/cache"
	"github.com/yourusername/quant-stock/internal/config"
	"github.com/yourusername/quant-stock/internal/database"
	"github.com/yourusername/quant-stock/internal/dataprovider"
	"github.com/yourusername/quant-stock/internal/formula"
	"github.com/yourusername/quant-stock/internal/indicator"
	"github.com/yourusername/quant-stock/internal/logger"
	"github.com/yourusername/quant-stock/internal/metrics"
	"github.com/yourusername/quant-stock/internal/models"
	"github.com/yourusername/quant-stock/internal/repository"
	"github.com/yourusername/quant-stock/internal/scheduler"
	"github.com/yourusername/quant-stock/internal/service"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var configFile string

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
}

var rootCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the quant-stock API server",
	Long:  `Serves the market data, indicator, strategy and backtest HTTP API, and optionally runs the scheduled data sync.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func run() error {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return err
	}

	appLog := logger.NewLoggerForEnvironment(cfg.App.LogLevel, cfg.App.Environment)
	appLog.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"version":     Version,
		"git_commit":  GitCommit,
		"build_date":  BuildDate,
	}).Info("Quant Stock server starting")

	metrics.InitRegistry()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.Initialize(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	appLog.Info("Database connection established")

	repos, err := repository.NewRepositories(db)
	if err != nil {
		return fmt.Errorf("failed to initialize repositories: %w", err)
	}

	var marketCache *cache.MarketCache
	if cfg.Cache.Enabled {
		marketCache = cache.New(&cfg.Cache)
	}

	provider := buildProvider(cfg, appLog)
	marketData := service.NewMarketDataService(
		provider,
		repos.Stock,
		repos.Bar,
		marketCache,
		appLog,
		cfg.Scheduler.SyncBatchSize,
	)

	backtestCfg, err := backtest.FromConfig(&cfg.Backtest)
	if err != nil {
		return fmt.Errorf("invalid backtest config: %w", err)
	}

	server := api.NewServer(&cfg.API, api.Deps{
		MarketData:    marketData,
		Repos:         repos,
		Calculator:    indicator.NewCalculator(appLog),
		FormulaEngine: formula.NewEngine(appLog),
		BacktestCfg:   backtestCfg,
		DB:            db,
		Logger:        appLog,
	})

	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched, err = startScheduler(cfg, marketData, appLog)
		if err != nil {
			return err
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start(ctx)
	}()

	select {
	case sig := <-sigChan:
		appLog.WithField("signal", sig).Info("Shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			appLog.WithError(err).Error("API server exited with error")
		}
	}

	appLog.Info("Initiating graceful shutdown")
	cancel()

	if sched != nil {
		if err := sched.Stop(); err != nil {
			appLog.WithError(err).Error("Error during scheduler shutdown")
		}
	}
	if err := server.Shutdown(); err != nil {
		appLog.WithError(err).Error("Error during API server shutdown")
	}

	time.Sleep(500 * time.Millisecond)
	appLog.Info("Quant Stock server shut down successfully")
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			return nil, fmt.Errorf("AWS_REGION and AWS_SECRET_NAME must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(cfg, region, secretName); err != nil {
			return nil, fmt.Errorf("failed to load secrets: %w", err)
		}
	}

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func buildProvider(cfg *config.Config, appLog *logrus.Logger) dataprovider.Provider {
	httpCfg := dataprovider.DefaultHTTPClientConfig()
	if cfg.DataProvider.TimeoutSeconds > 0 {
		httpCfg.Timeout = time.Duration(cfg.DataProvider.TimeoutSeconds) * time.Second
	}
	if cfg.DataProvider.RetryAttempts > 0 {
		httpCfg.MaxRetries = cfg.DataProvider.RetryAttempts
	}
	if cfg.DataProvider.RequestsPerSecond > 0 {
		httpCfg.RateLimit = cfg.DataProvider.RequestsPerSecond
	}
	if cfg.DataProvider.Burst > 0 {
		httpCfg.Burst = cfg.DataProvider.Burst
	}
	if cfg.DataProvider.FailureThreshold > 0 {
		httpCfg.CircuitBreakerMax = cfg.DataProvider.FailureThreshold
	}
	if cfg.DataProvider.CooldownSeconds > 0 {
		httpCfg.Cooldown = time.Duration(cfg.DataProvider.CooldownSeconds) * time.Second
	}

	httpClient := dataprovider.NewRateLimitedHTTPClient(httpCfg, appLog)
	return dataprovider.NewEastMoneyClient(httpClient, cfg.DataProvider.BaseURL, appLog)
}

func startScheduler(cfg *config.Config, marketData *service.MarketDataService, appLog *logrus.Logger) (*scheduler.Scheduler, error) {
	sched := scheduler.NewScheduler(marketData, appLog)

	period := models.Period(cfg.Scheduler.SyncPeriod)
	if err := sched.ScheduleDailySync(cfg.Scheduler.DailySyncCron, period); err != nil {
		return nil, fmt.Errorf("failed to schedule daily sync: %w", err)
	}
	if err := sched.ScheduleStockListSync(cfg.Scheduler.StockListCron); err != nil {
		return nil, fmt.Errorf("failed to schedule stock list sync: %w", err)
	}
	if err := sched.Start(); err != nil {
		return nil, fmt.Errorf("failed to start scheduler: %w", err)
	}

	appLog.WithFields(logrus.Fields{
		"daily_sync_cron": cfg.Scheduler.DailySyncCron,
		"stock_list_cron": cfg.Scheduler.StockListCron,
		"next_run":        sched.GetNextRun(),
	}).Info("Scheduler started")
	return sched, nil
}
