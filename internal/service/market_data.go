package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/quant-stock/internal/cache"
	"github.com/yourusername/quant-stock/internal/dataprovider"
	"github.com/yourusername/quant-stock/internal/logger"
	"github.com/yourusername/quant-stock/internal/metrics"
	"github.com/yourusername/quant-stock/internal/models"
	"github.com/yourusername/quant-stock/internal/repository"
)

// MarketDataService coordinates fetching, validating and storing kline data
type MarketDataService struct {
	provider     dataprovider.Provider
	stockRepo    repository.StockRepository
	barRepo      repository.BarRepository
	marketCache  *cache.MarketCache
	validator    *BarValidator
	normalizer   *BarNormalizer
	ingestLogger *logger.IngestLogger
	logger       *logrus.Logger
	batchSize    int
}

// NewMarketDataService creates a new market data service
func NewMarketDataService(
	provider dataprovider.Provider,
	stockRepo repository.StockRepository,
	barRepo repository.BarRepository,
	marketCache *cache.MarketCache,
	baseLogger *logrus.Logger,
	batchSize int,
) *MarketDataService {
	if baseLogger == nil {
		baseLogger = logrus.New()
	}
	if batchSize <= 0 {
		batchSize = 100
	}

	return &MarketDataService{
		provider:     provider,
		stockRepo:    stockRepo,
		barRepo:      barRepo,
		marketCache:  marketCache,
		validator:    NewBarValidator(baseLogger),
		normalizer:   NewBarNormalizer(baseLogger),
		ingestLogger: logger.NewIngestLogger(baseLogger),
		logger:       baseLogger,
		batchSize:    batchSize,
	}
}

// SyncStockList refreshes the local stock directory from the provider
func (s *MarketDataService) SyncStockList(ctx context.Context) (int, error) {
	start := time.Now()

	stocks, err := s.provider.FetchStockList(ctx)
	if err != nil {
		metrics.RecordStockSync("failure")
		return 0, fmt.Errorf("failed to fetch stock list: %w", err)
	}

	if err := s.upsertStocksInBatches(ctx, stocks); err != nil {
		metrics.RecordStockSync("failure")
		return 0, err
	}

	if s.marketCache != nil {
		s.marketCache.SetStockList(stocks)
	}
	metrics.RecordStockSync("success")
	metrics.UpdateTrackedStocks(float64(len(stocks)))
	s.ingestLogger.LogStockSync(len(stocks), len(stocks), float64(time.Since(start).Milliseconds()))

	return len(stocks), nil
}

func (s *MarketDataService) upsertStocksInBatches(ctx context.Context, stocks []*models.Stock) error {
	for i := 0; i < len(stocks); i += s.batchSize {
		end := i + s.batchSize
		if end > len(stocks) {
			end = len(stocks)
		}
		if err := s.stockRepo.UpsertBatch(ctx, stocks[i:end]); err != nil {
			return fmt.Errorf("failed to upsert stock batch: %w", err)
		}
	}
	return nil
}

// GetBars returns bars for a stock, consulting the cache, then the
// database, then the provider. Provider fetches are persisted.
func (s *MarketDataService) GetBars(ctx context.Context, code string, period models.Period, start, end time.Time) (models.BarSeries, error) {
	fetchStart := time.Now()

	if s.marketCache != nil {
		if bars, found := s.marketCache.GetBars(code, period); found {
			s.ingestLogger.LogFetchCompleted(code, string(period), len(bars), true,
				float64(time.Since(fetchStart).Milliseconds()))
			return sliceByRange(bars, start, end), nil
		}
	}

	bars, err := s.barRepo.GetRange(ctx, code, period, time.Time{}, time.Time{})
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("failed to load bars: %w", err)
	}

	if len(bars) == 0 {
		bars, err = s.fetchAndStore(ctx, code, period)
		if err != nil {
			return nil, err
		}
	}

	if s.marketCache != nil {
		s.marketCache.SetBars(code, period, bars)
	}
	s.ingestLogger.LogFetchCompleted(code, string(period), len(bars), false,
		float64(time.Since(fetchStart).Milliseconds()))

	return sliceByRange(bars, start, end), nil
}

// SyncBars performs an incremental sync for one stock, fetching only
// bars newer than the latest stored trade date.
func (s *MarketDataService) SyncBars(ctx context.Context, code string, period models.Period) (int, error) {
	latest, err := s.barRepo.GetLatestDate(ctx, code, period)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return 0, fmt.Errorf("failed to resolve latest bar date: %w", err)
	}

	fetched, err := s.provider.FetchKlines(ctx, code, period, 0)
	if err != nil {
		s.ingestLogger.LogFetchFailed(code, string(period), 1, err.Error())
		return 0, fmt.Errorf("failed to fetch klines for %s: %w", code, err)
	}

	bars := s.normalizer.NormalizeSeries(fetched)
	bars = s.dropInvalid(code, bars)
	if !latest.IsZero() {
		bars = barsAfter(bars, latest)
	}
	if len(bars) == 0 {
		return 0, nil
	}

	if err := s.barRepo.InsertBatch(ctx, code, period, bars); err != nil {
		return 0, fmt.Errorf("failed to store bars for %s: %w", code, err)
	}

	if s.marketCache != nil {
		s.marketCache.InvalidateBars(code)
	}

	return len(bars), nil
}

// SyncAll runs an incremental sync across the whole stock directory
func (s *MarketDataService) SyncAll(ctx context.Context, period models.Period) (*SyncMetrics, error) {
	syncMetrics := NewSyncMetrics()

	total, err := s.stockRepo.Count(ctx, "")
	if err != nil {
		return syncMetrics, fmt.Errorf("failed to count stocks: %w", err)
	}
	syncMetrics.TotalStocks = total

	s.logger.WithFields(logrus.Fields{
		"stocks": total,
		"period": period,
	}).Info("Starting full market data sync")

	offset := 0
	for {
		if err := ctx.Err(); err != nil {
			return syncMetrics, err
		}

		stocks, err := s.stockRepo.List(ctx, "", s.batchSize, offset)
		if err != nil {
			return syncMetrics, fmt.Errorf("failed to list stocks: %w", err)
		}
		if len(stocks) == 0 {
			break
		}

		for _, stock := range stocks {
			inserted, err := s.SyncBars(ctx, stock.Code, period)
			if err != nil {
				syncMetrics.RecordError()
				s.logger.WithError(err).WithField("stock_code", stock.Code).Warn("Stock sync failed")
				continue
			}
			if inserted == 0 {
				syncMetrics.RecordSkipped()
				continue
			}
			syncMetrics.RecordStock(inserted)
		}

		offset += len(stocks)
	}

	syncMetrics.mu.Lock()
	syncMetrics.Duration = time.Since(syncMetrics.StartTime)
	syncMetrics.mu.Unlock()

	status := "success"
	if syncMetrics.Errors > 0 {
		status = "partial"
	}
	metrics.RecordStockSync(status)

	s.logger.WithField("metrics", syncMetrics.String()).Info("Full market data sync complete")
	return syncMetrics, nil
}

// fetchAndStore pulls the full history for a stock and persists it
func (s *MarketDataService) fetchAndStore(ctx context.Context, code string, period models.Period) (models.BarSeries, error) {
	fetched, err := s.provider.FetchKlines(ctx, code, period, 0)
	if err != nil {
		s.ingestLogger.LogFetchFailed(code, string(period), 1, err.Error())
		return nil, fmt.Errorf("failed to fetch klines for %s: %w", code, err)
	}

	bars := s.normalizer.NormalizeSeries(fetched)
	bars = s.dropInvalid(code, bars)
	if len(bars) == 0 {
		return nil, models.ErrNotFound
	}

	if err := s.barRepo.InsertBatch(ctx, code, period, bars); err != nil {
		return nil, fmt.Errorf("failed to store bars for %s: %w", code, err)
	}

	return bars, nil
}

func (s *MarketDataService) dropInvalid(code string, bars models.BarSeries) models.BarSeries {
	out := bars[:0]
	for i := range bars {
		if issues := s.validator.ValidateBar(&bars[i]); len(issues) > 0 {
			s.logger.WithFields(logrus.Fields{
				"stock_code": code,
				"trade_date": bars[i].Date.Format(models.DateLayout),
				"issues":     issues,
			}).Warn("Dropping invalid bar")
			continue
		}
		out = append(out, bars[i])
	}
	return out
}

func sliceByRange(bars models.BarSeries, start, end time.Time) models.BarSeries {
	if start.IsZero() && end.IsZero() {
		return bars
	}
	out := make(models.BarSeries, 0, len(bars))
	for _, bar := range bars {
		if !start.IsZero() && bar.Date.Before(start) {
			continue
		}
		if !end.IsZero() && bar.Date.After(end) {
			continue
		}
		out = append(out, bar)
	}
	return out
}

func barsAfter(bars models.BarSeries, cutoff time.Time) models.BarSeries {
	out := make(models.BarSeries, 0, len(bars))
	for _, bar := range bars {
		if bar.Date.After(cutoff) {
			out = append(out, bar)
		}
	}
	return out
}
