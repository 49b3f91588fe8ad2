package formula

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/quant-stock/internal/models"
)

func quietEngine() *Engine {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewEngine(logger)
}

func formulaBars(closes []float64) models.BarSeries {
	bars := make(models.BarSeries, len(closes))
	for i, c := range closes {
		bars[i] = models.Bar{
			Date:   time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			Open:   c,
			Close:  c,
			High:   c + 0.5,
			Low:    c - 0.5,
			Volume: 1000,
		}
	}
	return bars
}

func almostEqual(a, b float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	return math.Abs(a-b) < 1e-9
}

func assertSeries(t *testing.T, got, want []float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
	for i := range want {
		if !almostEqual(got[i], want[i]) {
			t.Errorf("position %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestValidateAcceptsFormulas(t *testing.T) {
	engine := quietEngine()
	formulas := []string{
		"avg(close, 5) - avg(close, 20)",
		"(high + low + close) / 3",
		"cross_up(ema(close, 12), ema(close, 26))",
		"ref(close, 1) > close",
		"abs(close - avg(close, 10)) / std(close, 10)",
		"-close * 2",
	}
	for _, f := range formulas {
		if result := engine.Validate(f); !result.Valid {
			t.Errorf("%q: expected valid, got %q", f, result.Message)
		}
	}
}

func TestValidateRejectsDisallowedOperations(t *testing.T) {
	engine := quietEngine()
	formulas := []string{
		"exec(close)",
		"eval(close)",
		"__import__",
		"import os",
		"open(close)",
	}
	for _, f := range formulas {
		result := engine.Validate(f)
		if result.Valid {
			t.Errorf("%q: expected invalid", f)
			continue
		}
		if !strings.Contains(result.Message, "disallowed") {
			t.Errorf("%q: expected disallowed-operation message, got %q", f, result.Message)
		}
	}
}

func TestValidateRejectsUnknownFunction(t *testing.T) {
	engine := quietEngine()
	result := engine.Validate("wavg(close, 5)")
	if result.Valid {
		t.Fatal("expected invalid")
	}
	if !strings.Contains(result.Message, "unknown function") {
		t.Errorf("unexpected message: %q", result.Message)
	}
}

func TestValidateRejectsWrongArity(t *testing.T) {
	engine := quietEngine()
	result := engine.Validate("avg(close)")
	if result.Valid {
		t.Fatal("expected invalid")
	}
	if !strings.Contains(result.Message, "expects 2 arguments") {
		t.Errorf("unexpected message: %q", result.Message)
	}
}

func TestValidateRejectsSyntaxErrors(t *testing.T) {
	engine := quietEngine()
	for _, f := range []string{"close + * 2", "avg(close, 5", "close 5", ""} {
		if result := engine.Validate(f); result.Valid {
			t.Errorf("%q: expected invalid", f)
		}
	}
}

func TestEvaluateArithmetic(t *testing.T) {
	engine := quietEngine()
	got, err := engine.Evaluate("close * 2 + 1", formulaBars([]float64{1, 2, 3, 4, 5}), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertSeries(t, got, []float64{3, 5, 7, 9, 11})
}

func TestEvaluateWindowWarmup(t *testing.T) {
	engine := quietEngine()
	got, err := engine.Evaluate("avg(close, 3)", formulaBars([]float64{1, 2, 3, 4, 5}), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertSeries(t, got, []float64{math.NaN(), math.NaN(), 2, 3, 4})
}

func TestEvaluateParamsBindAsScalars(t *testing.T) {
	engine := quietEngine()
	got, err := engine.Evaluate("avg(close, n) - avg(close, 2)",
		formulaBars([]float64{1, 2, 3, 4, 5}), map[string]float64{"n": 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertSeries(t, got, []float64{math.NaN(), math.NaN(), -0.5, -0.5, -0.5})
}

func TestEvaluateRefShiftsBackward(t *testing.T) {
	engine := quietEngine()
	got, err := engine.Evaluate("ref(close, 1)", formulaBars([]float64{1, 2, 3, 4, 5}), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertSeries(t, got, []float64{math.NaN(), 1, 2, 3, 4})
}

func TestEvaluateCross(t *testing.T) {
	engine := quietEngine()
	closes := []float64{2, 2.5, 3.5, 3, 2}

	up, err := engine.Evaluate("cross_up(close, 3)", formulaBars(closes), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertSeries(t, up, []float64{0, 0, 1, 0, 0})

	down, err := engine.Evaluate("cross_down(close, 3)", formulaBars(closes), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertSeries(t, down, []float64{0, 0, 0, 0, 1})
}

func TestEvaluateComparisonYieldsBinarySeries(t *testing.T) {
	engine := quietEngine()
	got, err := engine.Evaluate("close > 3", formulaBars([]float64{2, 2.5, 3.5, 3, 2}), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertSeries(t, got, []float64{0, 0, 1, 0, 0})
}

func TestEvaluateDivisionByZeroIsNaN(t *testing.T) {
	engine := quietEngine()
	got, err := engine.Evaluate("10 / (close - 1)", formulaBars([]float64{1, 2}), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !math.IsNaN(got[0]) {
		t.Errorf("expected NaN, got %v", got[0])
	}
	if !almostEqual(got[1], 10) {
		t.Errorf("got %v, want 10", got[1])
	}
}

func TestEvaluateSeriesNamesAreCaseInsensitive(t *testing.T) {
	engine := quietEngine()
	got, err := engine.Evaluate("AVG(CLOSE, 2)", formulaBars([]float64{1, 3}), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertSeries(t, got, []float64{math.NaN(), 2})
}

func TestEvaluateUnknownIdentifier(t *testing.T) {
	engine := quietEngine()
	_, err := engine.Evaluate("wombat + 1", formulaBars([]float64{1, 2}), nil)
	var formulaErr *FormulaError
	if !errors.As(err, &formulaErr) {
		t.Fatalf("expected FormulaError, got %v", err)
	}
	if !strings.Contains(formulaErr.Message, "unknown identifier") {
		t.Errorf("unexpected message: %q", formulaErr.Message)
	}
}

func TestEvaluateRejectsNonIntegerWindow(t *testing.T) {
	engine := quietEngine()
	_, err := engine.Evaluate("avg(close, 2.5)", formulaBars([]float64{1, 2, 3}), nil)
	if err == nil {
		t.Fatal("expected error")
	}
	_, err = engine.Evaluate("avg(close, close)", formulaBars([]float64{1, 2, 3}), nil)
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestEvaluateEmptyBars(t *testing.T) {
	engine := quietEngine()
	_, err := engine.Evaluate("close", nil, nil)
	var formulaErr *FormulaError
	if !errors.As(err, &formulaErr) {
		t.Fatalf("expected FormulaError, got %v", err)
	}
}

func TestEvaluateScalarResultBroadcasts(t *testing.T) {
	engine := quietEngine()
	got, err := engine.Evaluate("2 + 3", formulaBars([]float64{1, 2, 3}), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertSeries(t, got, []float64{5, 5, 5})
}
