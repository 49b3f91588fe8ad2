// Package metrics provides the centralized Prometheus registry for the service.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	ProviderRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quant_stock",
		Name:      "provider_requests_total",
		Help:      "Total number of data provider requests by endpoint and status",
	}, []string{"endpoint", "status"})
	ProviderCircuitBreakerTripsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "quant_stock",
		Name:      "provider_circuit_breaker_trips_total",
		Help:      "Total number of provider circuit breaker trips",
	})
	CacheHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quant_stock",
		Name:      "cache_hits_total",
		Help:      "Total number of cache hits by entry kind",
	}, []string{"kind"})
	CacheMissesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quant_stock",
		Name:      "cache_misses_total",
		Help:      "Total number of cache misses by entry kind",
	}, []string{"kind"})
	APIRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quant_stock",
		Name:      "api_requests_total",
		Help:      "Total number of API requests by route, method and status code",
	}, []string{"route", "method", "code"})
	StockSyncsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quant_stock",
		Name:      "stock_syncs_total",
		Help:      "Total number of stock data sync operations by status",
	}, []string{"status"})
)

// Gauge metrics
var (
	CacheHitRatio = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "quant_stock",
		Name:      "cache_hit_ratio",
		Help:      "Cache hit ratio by entry kind",
	}, []string{"kind"})
	ActiveStrategies = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "quant_stock",
		Name:      "active_strategies",
		Help:      "Number of currently active strategies",
	})
	TrackedStocks = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "quant_stock",
		Name:      "tracked_stocks",
		Help:      "Number of stocks in the local directory",
	})
)

// Histogram metrics
var (
	ProviderRequestLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "quant_stock",
		Name:      "provider_request_latency_seconds",
		Help:      "Latency of data provider requests in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"endpoint"})
	APIRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "quant_stock",
		Name:      "api_request_duration_seconds",
		Help:      "Duration of API request handling in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		// Register counter metrics
		registry.MustRegister(ProviderRequestsTotal)
		registry.MustRegister(ProviderCircuitBreakerTripsTotal)
		registry.MustRegister(CacheHitsTotal)
		registry.MustRegister(CacheMissesTotal)
		registry.MustRegister(APIRequestsTotal)
		registry.MustRegister(StockSyncsTotal)

		// Register gauge metrics
		registry.MustRegister(CacheHitRatio)
		registry.MustRegister(ActiveStrategies)
		registry.MustRegister(TrackedStocks)

		// Register histogram metrics
		registry.MustRegister(ProviderRequestLatency)
		registry.MustRegister(APIRequestDuration)

		// Register backtest metrics
		registry.MustRegister(BacktestRunsTotal)
		registry.MustRegister(BacktestDuration)
		registry.MustRegister(BacktestTotalReturn)

		// Register indicator metrics
		registry.MustRegister(IndicatorComputationsTotal)
		registry.MustRegister(IndicatorComputationDuration)
		registry.MustRegister(FormulaEvaluationsTotal)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordProviderRequest records a data provider request outcome.
func RecordProviderRequest(endpoint, status string, durationSeconds float64) {
	ProviderRequestsTotal.WithLabelValues(endpoint, status).Inc()
	ProviderRequestLatency.WithLabelValues(endpoint).Observe(durationSeconds)
}

// RecordCircuitBreakerTrip records a provider circuit breaker trip.
func RecordCircuitBreakerTrip() {
	ProviderCircuitBreakerTripsTotal.Inc()
}

// RecordCacheHit records a cache hit for the given entry kind.
func RecordCacheHit(kind string) {
	CacheHitsTotal.WithLabelValues(kind).Inc()
}

// RecordCacheMiss records a cache miss for the given entry kind.
func RecordCacheMiss(kind string) {
	CacheMissesTotal.WithLabelValues(kind).Inc()
}

// UpdateCacheHitRatio updates the hit ratio gauge for the given entry kind.
func UpdateCacheHitRatio(kind string, ratio float64) {
	CacheHitRatio.WithLabelValues(kind).Set(ratio)
}

// RecordAPIRequest records an API request outcome.
func RecordAPIRequest(route, method, code string, durationSeconds float64) {
	APIRequestsTotal.WithLabelValues(route, method, code).Inc()
	APIRequestDuration.WithLabelValues(route, method).Observe(durationSeconds)
}

// RecordStockSync records a stock data sync outcome.
// status should be one of: "success", "failure", "partial"
func RecordStockSync(status string) {
	StockSyncsTotal.WithLabelValues(status).Inc()
}

// UpdateActiveStrategies updates the active strategies gauge.
func UpdateActiveStrategies(count float64) {
	ActiveStrategies.Set(count)
}

// UpdateTrackedStocks updates the tracked stocks gauge.
func UpdateTrackedStocks(count float64) {
	TrackedStocks.Set(count)
}
