package backtest

import (
	"math"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/quant-stock/internal/models"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func makeBars(closes []float64) models.BarSeries {
	bars := make(models.BarSeries, len(closes))
	for i, c := range closes {
		bars[i] = models.Bar{
			Date:   testDate(i),
			Open:   c * 0.99,
			Close:  c,
			High:   c * 1.01,
			Low:    c * 0.98,
			Volume: 1_000_000,
		}
	}
	return bars
}

// trendingCloses builds a price path that rises, dips and recovers so
// moving-average crossovers fire in both directions.
func trendingCloses(n int) []float64 {
	closes := make([]float64, n)
	for i := 0; i < n; i++ {
		base := 10.0 + 0.01*float64(i)
		closes[i] = base + 1.5*math.Sin(float64(i)/12.0)
	}
	return closes
}

func crossStrategy() models.StrategyConfig {
	return models.StrategyConfig{
		Indicators: []models.IndicatorSpec{
			{Type: "MA", Params: map[string]any{"periods": []any{float64(5), float64(20)}}},
		},
		Conditions: []models.Condition{
			{
				Indicator: "MA5",
				Operator:  models.OpCrossUp,
				Value:     models.ConditionValue{Name: "MA20", IsName: true},
				Action:    models.ActionBuy,
			},
			{
				Indicator: "MA5",
				Operator:  models.OpCrossDown,
				Value:     models.ConditionValue{Name: "MA20", IsName: true},
				Action:    models.ActionSell,
			},
		},
	}
}

func TestEngineRunCrossoverStrategy(t *testing.T) {
	engine, err := NewEngine(DefaultConfig(), quietLogger())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	bars := makeBars(trendingCloses(252))

	result, err := engine.Run(bars, crossStrategy())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.EquityCurve) != len(bars) {
		t.Fatalf("expected one equity point per bar, got %d", len(result.EquityCurve))
	}
	if len(result.Trades) == 0 {
		t.Fatalf("expected crossover trades on an oscillating path")
	}
	for i, trade := range result.Trades {
		want := models.ActionBuy
		if i%2 == 1 {
			want = models.ActionSell
		}
		if trade.Action != want {
			t.Fatalf("trade %d: expected %s, got %s", i, want, trade.Action)
		}
		if trade.Shares%LotSize != 0 {
			t.Fatalf("trade %d: %d shares is not a whole lot", i, trade.Shares)
		}
	}
	if result.Metrics.TotalTrades != len(result.Trades) {
		t.Fatalf("metrics trade count mismatch")
	}
}

func TestEngineRunIsDeterministic(t *testing.T) {
	engine, err := NewEngine(DefaultConfig(), quietLogger())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	bars := makeBars(trendingCloses(252))

	first, err := engine.Run(bars, crossStrategy())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	second, err := engine.Run(bars, crossStrategy())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if first.Metrics != second.Metrics {
		t.Fatalf("repeated runs diverged: %+v vs %+v", first.Metrics, second.Metrics)
	}
	if len(first.Trades) != len(second.Trades) {
		t.Fatalf("repeated runs produced different trade counts")
	}
}

func TestEngineEquityBeforeSignals(t *testing.T) {
	// The first bar fires an unconditional buy. Its equity snapshot
	// must still show the untouched starting capital.
	cfg := DefaultConfig()
	engine, err := NewEngine(cfg, quietLogger())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	strat := models.StrategyConfig{
		Indicators: []models.IndicatorSpec{
			{Type: "MA", Params: map[string]any{"periods": []any{float64(2)}}},
		},
		Conditions: []models.Condition{
			{
				Indicator: "close",
				Operator:  models.OpGreater,
				Value:     models.ConditionValue{Literal: 0},
				Action:    models.ActionBuy,
			},
		},
	}
	result, err := engine.Run(makeBars([]float64{10, 11, 12}), strat)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.EquityCurve[0].Equity != cfg.InitialCapital {
		t.Fatalf("bar 0 snapshot taken after the buy: %f", result.EquityCurve[0].Equity)
	}
	if len(result.Trades) != 1 || result.Trades[0].Action != models.ActionBuy {
		t.Fatalf("expected a single buy on bar 0")
	}
}

func TestEngineRejectsUnknownColumn(t *testing.T) {
	engine, err := NewEngine(DefaultConfig(), quietLogger())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	strat := models.StrategyConfig{
		Indicators: []models.IndicatorSpec{
			{Type: "MA", Params: map[string]any{"periods": []any{float64(5)}}},
		},
		Conditions: []models.Condition{
			{
				Indicator: "MA99",
				Operator:  models.OpGreater,
				Value:     models.ConditionValue{Literal: 0},
				Action:    models.ActionBuy,
			},
		},
	}
	if _, err := engine.Run(makeBars(trendingCloses(60)), strat); err == nil {
		t.Fatalf("expected an unknown column error before the replay starts")
	}
}

func TestEngineSkipsUndefinedConditions(t *testing.T) {
	// With only 3 bars, MA5 is NaN everywhere, so the single buy
	// condition never becomes defined and nothing trades.
	engine, err := NewEngine(DefaultConfig(), quietLogger())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	strat := models.StrategyConfig{
		Indicators: []models.IndicatorSpec{
			{Type: "MA", Params: map[string]any{"periods": []any{float64(5)}}},
		},
		Conditions: []models.Condition{
			{
				Indicator: "MA5",
				Operator:  models.OpGreater,
				Value:     models.ConditionValue{Literal: 0},
				Action:    models.ActionBuy,
			},
		},
	}
	result, err := engine.Run(makeBars([]float64{10, 11, 12}), strat)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Trades) != 0 {
		t.Fatalf("expected no trades while the indicator is undefined")
	}
}

func TestEngineCashConservation(t *testing.T) {
	cfg := DefaultConfig()
	engine, err := NewEngine(cfg, quietLogger())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	bars := makeBars(trendingCloses(252))
	result, err := engine.Run(bars, crossStrategy())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Replay the trades against starting cash; the final equity point
	// must equal remaining cash plus the marked position.
	cash := cfg.InitialCapital
	shares := 0
	for _, trade := range result.Trades {
		switch trade.Action {
		case models.ActionBuy:
			cash -= trade.Amount + trade.Commission
			shares += trade.Shares
		case models.ActionSell:
			cash += trade.Amount - trade.Commission
			shares -= trade.Shares
		}
	}
	if cash < 0 {
		t.Fatalf("cash went negative: %f", cash)
	}
	lastClose := bars[len(bars)-1].Close
	want := cash + float64(shares)*lastClose
	got := result.EquityCurve[len(result.EquityCurve)-1].Equity
	if math.Abs(got-want) > 1e-6 {
		t.Fatalf("final equity %f does not match replayed ledger %f", got, want)
	}
}

func TestNewEngineRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InitialCapital = -1
	if _, err := NewEngine(cfg, quietLogger()); err == nil {
		t.Fatalf("expected config validation error")
	}
}
