// Package metrics defines backtest-specific metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Backtest counter vectors
var (
	BacktestRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quant_stock",
		Name:      "backtest_runs_total",
		Help:      "Total number of backtest runs by status",
	}, []string{"status"})
)

// Backtest histogram vectors
var (
	BacktestDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "quant_stock",
		Name:      "backtest_duration_seconds",
		Help:      "Duration of backtest runs in seconds",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
	})
	BacktestTotalReturn = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "quant_stock",
		Name:      "backtest_total_return",
		Help:      "Total return produced by backtest runs per strategy",
		Buckets:   []float64{-0.5, -0.2, -0.1, -0.05, 0, 0.05, 0.1, 0.2, 0.5, 1.0},
	}, []string{"strategy_id"})
)

// RecordBacktestRun records a backtest run event.
// status should be one of: "success", "failure"
func RecordBacktestRun(status string, durationSeconds float64) {
	BacktestRunsTotal.WithLabelValues(status).Inc()
	BacktestDuration.Observe(durationSeconds)
}

// RecordBacktestReturn records the total return of a completed run.
func RecordBacktestReturn(strategyID string, totalReturn float64) {
	BacktestTotalReturn.WithLabelValues(strategyID).Observe(totalReturn)
}
