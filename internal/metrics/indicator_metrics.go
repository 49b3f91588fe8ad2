// Package metrics defines indicator computation metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Indicator counter vectors
var (
	IndicatorComputationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quant_stock",
		Name:      "indicator_computations_total",
		Help:      "Total number of indicator computations by type and status",
	}, []string{"type", "status"})
	FormulaEvaluationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quant_stock",
		Name:      "formula_evaluations_total",
		Help:      "Total number of custom formula evaluations by status",
	}, []string{"status"})
)

// Indicator histogram vectors
var (
	IndicatorComputationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "quant_stock",
		Name:      "indicator_computation_duration_seconds",
		Help:      "Duration of indicator computation by type in seconds",
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
	}, []string{"type"})
)

// RecordIndicatorComputation records an indicator computation event.
// status should be one of: "success", "failure"
func RecordIndicatorComputation(indicatorType, status string, durationSeconds float64) {
	IndicatorComputationsTotal.WithLabelValues(indicatorType, status).Inc()
	IndicatorComputationDuration.WithLabelValues(indicatorType).Observe(durationSeconds)
}

// RecordFormulaEvaluation records a custom formula evaluation event.
func RecordFormulaEvaluation(status string) {
	FormulaEvaluationsTotal.WithLabelValues(status).Inc()
}
