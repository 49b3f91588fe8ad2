package backtest

import (
	"math"
	"testing"
	"time"
)

func testDate(offset int) time.Time {
	return time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

func TestLedgerBuyRoundsToWholeLots(t *testing.T) {
	cfg := Config{InitialCapital: 10000, CommissionRate: 0, SlippageRate: 0, RiskFreeRate: 0.03}
	ledger := NewLedger(cfg.InitialCapital)

	if !ledger.ExecuteBuy(testDate(0), 33.0, cfg, "test") {
		t.Fatalf("expected buy to execute")
	}
	// 10000 / 33 = 303.03 shares, rounded down to 300
	if ledger.Position.Shares != 300 {
		t.Fatalf("expected 300 shares, got %d", ledger.Position.Shares)
	}
	wantCash := 10000 - 300*33.0
	if math.Abs(ledger.Cash-wantCash) > 1e-9 {
		t.Fatalf("expected cash %.2f, got %.2f", wantCash, ledger.Cash)
	}
}

func TestLedgerBuySkipsWhenUnaffordable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InitialCapital = 500
	ledger := NewLedger(cfg.InitialCapital)

	if ledger.ExecuteBuy(testDate(0), 33.0, cfg, "test") {
		t.Fatalf("expected buy to be skipped, one lot costs more than cash")
	}
	if len(ledger.Trades) != 0 || ledger.Cash != 500 {
		t.Fatalf("skipped buy must not mutate the ledger")
	}
}

func TestLedgerBuyAccountsForCommission(t *testing.T) {
	// Exactly one lot affordable before commission; the commission
	// pushes the cost over cash so the buy is skipped outright.
	cfg := Config{InitialCapital: 3300, CommissionRate: 0.01, SlippageRate: 0}
	ledger := NewLedger(cfg.InitialCapital)

	if ledger.ExecuteBuy(testDate(0), 33.0, cfg, "test") {
		t.Fatalf("expected buy to be skipped once commission is included")
	}
}

func TestLedgerBuyNeverResizesToFitCommission(t *testing.T) {
	// Two lots affordable at the raw price, but the commission on the
	// full order overruns cash by a fraction. The order must be
	// skipped, not shrunk to one lot.
	cfg := Config{InitialCapital: 20003, CommissionRate: 0.0003, SlippageRate: 0}
	ledger := NewLedger(cfg.InitialCapital)

	if ledger.ExecuteBuy(testDate(0), 100.0, cfg, "test") {
		t.Fatalf("expected buy to be skipped, got a resized fill of %d shares", ledger.Position.Shares)
	}
	if len(ledger.Trades) != 0 || ledger.Cash != 20003 || !ledger.Position.IsEmpty() {
		t.Fatalf("skipped buy must not mutate the ledger")
	}
}

func TestLedgerSellClearsPosition(t *testing.T) {
	cfg := Config{InitialCapital: 10000, CommissionRate: 0.0003, SlippageRate: 0}
	ledger := NewLedger(cfg.InitialCapital)

	if !ledger.ExecuteBuy(testDate(0), 10.0, cfg, "entry") {
		t.Fatalf("expected buy to execute")
	}
	if !ledger.ExecuteSell(testDate(1), 11.0, cfg, "exit") {
		t.Fatalf("expected sell to execute")
	}
	if !ledger.Position.IsEmpty() {
		t.Fatalf("expected flat position after sell")
	}
	if ledger.ExecuteSell(testDate(2), 12.0, cfg, "exit") {
		t.Fatalf("expected sell with no position to be a no-op")
	}
	if len(ledger.Trades) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(ledger.Trades))
	}
	if ledger.Cash <= cfg.InitialCapital {
		t.Fatalf("expected profit after selling higher, cash %.2f", ledger.Cash)
	}
}

func TestLedgerSlippageWorsensBothSides(t *testing.T) {
	cfg := Config{InitialCapital: 100000, CommissionRate: 0, SlippageRate: 0.001}
	ledger := NewLedger(cfg.InitialCapital)

	ledger.ExecuteBuy(testDate(0), 10.0, cfg, "entry")
	buy := ledger.Trades[0]
	if buy.Price <= 10.0 {
		t.Fatalf("buy fill should be above close, got %.4f", buy.Price)
	}
	ledger.ExecuteSell(testDate(1), 10.0, cfg, "exit")
	sell := ledger.Trades[1]
	if sell.Price >= 10.0 {
		t.Fatalf("sell fill should be below close, got %.4f", sell.Price)
	}
}

func TestLedgerEquitySnapshot(t *testing.T) {
	cfg := Config{InitialCapital: 10000, CommissionRate: 0, SlippageRate: 0}
	ledger := NewLedger(cfg.InitialCapital)
	ledger.ExecuteBuy(testDate(0), 10.0, cfg, "entry")
	ledger.RecordEquityPoint(testDate(1), 12.0)

	point := ledger.EquityCurve[len(ledger.EquityCurve)-1]
	want := ledger.Cash + float64(ledger.Position.Shares)*12.0
	if math.Abs(point.Equity-want) > 1e-9 {
		t.Fatalf("expected equity %.2f, got %.2f", want, point.Equity)
	}
	if math.Abs(point.Equity-(point.Cash+point.PositionValue)) > 1e-9 {
		t.Fatalf("equity must equal cash plus position value")
	}
}
