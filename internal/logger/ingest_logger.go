// Package logger provides ingestion-specific logging.
package logger

import (
	"github.com/sirupsen/logrus"
)

// IngestLogger provides dedicated logging for market data ingestion.
type IngestLogger struct {
	*logrus.Entry
}

// NewIngestLogger creates a new ingestion logger.
func NewIngestLogger(baseLogger *logrus.Logger) *IngestLogger {
	return &IngestLogger{
		Entry: baseLogger.WithField("component", "ingest"),
	}
}

// LogFetchCompleted logs a successful provider fetch.
func (il *IngestLogger) LogFetchCompleted(stockCode, period string, barsFetched int, cacheHit bool, latencyMs float64) {
	il.WithFields(logrus.Fields{
		"stock_code":   stockCode,
		"period":       period,
		"bars_fetched": barsFetched,
		"cache_hit":    cacheHit,
		"latency_ms":   latencyMs,
	}).Info("Market data fetch completed")
}

// LogFetchFailed logs a failed provider fetch.
func (il *IngestLogger) LogFetchFailed(stockCode, period string, attempt int, reason string) {
	il.WithFields(logrus.Fields{
		"stock_code": stockCode,
		"period":     period,
		"attempt":    attempt,
		"reason":     reason,
	}).Warn("Market data fetch failed")
}

// LogStockSync logs the outcome of a stock list synchronization.
func (il *IngestLogger) LogStockSync(stocksSeen, stocksUpserted int, durationMs float64) {
	il.WithFields(logrus.Fields{
		"stocks_seen":     stocksSeen,
		"stocks_upserted": stocksUpserted,
		"duration_ms":     durationMs,
	}).Info("Stock list sync completed")
}
