// Package main provides the entry point for the backtesting CLI tool.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/quant-stock/internal/backtest"
	"github.com/yourusername/quant-stock/internal/config"
	"github.com/yourusername/quant-stock/internal/database"
	"github.com/yourusername/quant-stock/internal/models"
	"github.com/yourusername/quant-stock/internal/repository"
)

func main() {
	var (
		configPath   = flag.String("config", "config/config.yaml", "Path to config file")
		stockCode    = flag.String("stock", "", "Stock code to backtest, e.g. 600000.SH")
		period       = flag.String("period", "daily", "Bar period: daily, weekly, monthly")
		strategyName = flag.String("strategy", "", "Name of a stored strategy to test")
		strategyFile = flag.String("strategy-file", "", "Path to a JSON strategy config (overrides -strategy)")
		startDate    = flag.String("start-date", "", "Start date (YYYY-MM-DD)")
		endDate      = flag.String("end-date", "", "End date (YYYY-MM-DD)")
		tradesCSV    = flag.String("trades-csv", "", "Write the trade log to this CSV file")
	)
	flag.Parse()

	logger := newLogger()
	ctx := context.Background()

	if *stockCode == "" {
		logger.Fatal("A stock code is required (-stock)")
	}

	p := models.Period(*period)
	if !p.Valid() {
		logger.Fatalf("Unsupported period: %s", *period)
	}

	cfg := loadConfigWithSecrets(*configPath, logger)
	btConfig, err := backtest.FromConfig(&cfg.Backtest)
	if err != nil {
		logger.Fatalf("Invalid backtest config: %v", err)
	}

	db, err := database.NewDB(ctx, &cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	repos, err := repository.NewRepositories(db)
	if err != nil {
		logger.Fatalf("Failed to initialize repositories: %v", err)
	}

	strat := resolveStrategy(ctx, repos, *strategyName, *strategyFile, logger)
	bars := loadBars(ctx, repos, *stockCode, p, *startDate, *endDate, logger)

	engine, err := backtest.NewEngine(btConfig, logger)
	if err != nil {
		logger.Fatalf("Failed to create engine: %v", err)
	}

	logger.WithFields(logrus.Fields{
		"stock":  *stockCode,
		"period": p,
		"bars":   len(bars),
	}).Info("Starting backtest")

	result, err := engine.Run(bars, strat)
	if err != nil {
		logger.Fatalf("Backtest failed: %v", err)
	}

	fmt.Println(backtest.GenerateConsoleReport(*stockCode, result))

	if *tradesCSV != "" {
		if err := os.WriteFile(*tradesCSV, []byte(backtest.GenerateTradesCSV(result.Trades)), 0o644); err != nil {
			logger.Fatalf("Failed to write trades CSV: %v", err)
		}
		logger.WithField("path", *tradesCSV).Info("Trade log written")
	}
}

func newLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	return logger
}

func loadConfigWithSecrets(path string, logger *logrus.Logger) *config.Config {
	cfg, err := config.Load(path)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			logger.Fatalf("AWS_REGION and AWS_SECRET_NAME environment variables must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(cfg, region, secretName); err != nil {
			logger.Fatalf("Failed to load secrets: %v", err)
		}
	}
	if err := config.Validate(cfg); err != nil {
		logger.Fatalf("Invalid configuration: %v", err)
	}
	return cfg
}

func resolveStrategy(ctx context.Context, repos *repository.Repositories, name, file string, logger *logrus.Logger) models.StrategyConfig {
	var strat models.StrategyConfig

	switch {
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			logger.Fatalf("Failed to read strategy file: %v", err)
		}
		if err := json.Unmarshal(data, &strat); err != nil {
			logger.Fatalf("Invalid strategy file: %v", err)
		}
	case name != "":
		stored, err := repos.Strategy.GetByName(ctx, name)
		if err != nil {
			logger.Fatalf("Failed to load strategy %q: %v", name, err)
		}
		strat, err = stored.ParseConfig()
		if err != nil {
			logger.Fatalf("Invalid stored strategy %q: %v", name, err)
		}
	default:
		logger.Fatal("A strategy is required (-strategy or -strategy-file)")
	}

	if err := strat.Validate(); err != nil {
		logger.Fatalf("Invalid strategy: %v", err)
	}
	return strat
}

func loadBars(ctx context.Context, repos *repository.Repositories, code string, period models.Period, start, end string, logger *logrus.Logger) models.BarSeries {
	startTime := parseDate(start, logger)
	endTime := parseDate(end, logger)
	if endTime.IsZero() {
		endTime = time.Now()
	}

	bars, err := repos.Bar.GetRange(ctx, code, period, startTime, endTime)
	if err != nil {
		logger.Fatalf("Failed to load bars: %v", err)
	}
	if len(bars) == 0 {
		logger.Fatalf("No bars stored for %s (%s); sync the stock first", code, period)
	}
	return bars
}

func parseDate(value string, logger *logrus.Logger) time.Time {
	if value == "" {
		return time.Time{}
	}
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		logger.Fatalf("Invalid date %q: %v", value, err)
	}
	return parsed
}
