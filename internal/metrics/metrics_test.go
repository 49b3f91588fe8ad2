package metrics

import (
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRegistry(t *testing.T) {
	InitRegistry()
	registry := GetRegistry()

	assert.NotNil(t, registry)
	assert.IsType(t, &prometheus.Registry{}, registry)
}

func TestRecordProviderRequest(t *testing.T) {
	InitRegistry()

	assert.NotPanics(t, func() {
		RecordProviderRequest("klines", "success", 0.12)
	})
	assert.NotPanics(t, func() {
		RecordProviderRequest("stock_list", "failure", 1.5)
	})
}

func TestRecordCircuitBreakerTrip(t *testing.T) {
	InitRegistry()

	assert.NotPanics(t, func() {
		RecordCircuitBreakerTrip()
	})
}

func TestCacheMetrics(t *testing.T) {
	InitRegistry()

	assert.NotPanics(t, func() {
		RecordCacheHit("bars")
		RecordCacheMiss("bars")
		RecordCacheHit("stock_list")
		UpdateCacheHitRatio("bars", 0.5)
	})
}

func TestRecordAPIRequest(t *testing.T) {
	InitRegistry()

	tests := []struct {
		name   string
		route  string
		method string
		code   string
	}{
		{"list stocks", "/api/v1/stocks", "GET", "200"},
		{"run backtest", "/api/v1/backtests", "POST", "201"},
		{"not found", "/api/v1/stocks/{code}", "GET", "404"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				RecordAPIRequest(tt.route, tt.method, tt.code, 0.01)
			})
		})
	}
}

func TestBacktestMetrics(t *testing.T) {
	InitRegistry()

	assert.NotPanics(t, func() {
		RecordBacktestRun("success", 0.8)
	})
	assert.NotPanics(t, func() {
		RecordBacktestReturn("42", 0.153)
	})
}

func TestIndicatorMetrics(t *testing.T) {
	InitRegistry()

	assert.NotPanics(t, func() {
		RecordIndicatorComputation("MACD", "success", 0.002)
	})
	assert.NotPanics(t, func() {
		RecordFormulaEvaluation("failure")
	})
}

func TestGauges(t *testing.T) {
	InitRegistry()

	tests := []struct {
		name  string
		value float64
	}{
		{"positive", 120},
		{"zero", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				UpdateActiveStrategies(tt.value)
				UpdateTrackedStocks(tt.value)
			})
		})
	}
}

func TestMetricsHandler(t *testing.T) {
	InitRegistry()

	handler := Handler()
	assert.NotNil(t, handler)
	assert.Implements(t, (*http.Handler)(nil), handler)
}

func BenchmarkRecordCacheHit(b *testing.B) {
	InitRegistry()

	for i := 0; i < b.N; i++ {
		RecordCacheHit("bars")
	}
}

func BenchmarkRecordAPIRequest(b *testing.B) {
	InitRegistry()

	for i := 0; i < b.N; i++ {
		RecordAPIRequest("/api/v1/stocks", "GET", "200", 0.01)
	}
}
