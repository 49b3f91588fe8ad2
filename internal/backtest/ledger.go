package backtest

import (
	"math"
	"time"

	"github.com/yourusername/quant-stock/internal/models"
)

// LotSize is the exchange board lot. Orders are sized in whole lots.
const LotSize = 100

// Ledger tracks cash, the open position, executed trades and the
// equity curve for a single simulation run. The engine owns one
// ledger per run and mutates it as the replay advances.
type Ledger struct {
	InitialCapital float64
	Cash           float64
	Position       models.Position
	Trades         []models.Trade
	EquityCurve    EquityCurve
}

// NewLedger creates a ledger with the given starting capital.
func NewLedger(initialCapital float64) *Ledger {
	return &Ledger{
		InitialCapital: initialCapital,
		Cash:           initialCapital,
		Trades:         make([]models.Trade, 0),
		EquityCurve:    make(EquityCurve, 0),
	}
}

// Equity returns the portfolio value marking the position at price.
func (l *Ledger) Equity(price float64) float64 {
	return l.Cash + float64(l.Position.Shares)*price
}

// RecordEquityPoint appends a snapshot of the portfolio at the given
// close price.
func (l *Ledger) RecordEquityPoint(date time.Time, price float64) {
	positionValue := float64(l.Position.Shares) * price
	l.EquityCurve = append(l.EquityCurve, EquityPoint{
		Date:          date,
		Equity:        l.Cash + positionValue,
		Cash:          l.Cash,
		PositionValue: positionValue,
	})
}

// ExecuteBuy opens a position at the close price adjusted for
// slippage, sized to whole lots of the pre-commission affordable
// quantity. When the commission pushes the total cost past available
// cash the order is skipped, not resized: returns false without
// mutating the ledger.
func (l *Ledger) ExecuteBuy(date time.Time, closePrice float64, cfg Config, reason string) bool {
	if closePrice <= 0 || !l.Position.IsEmpty() {
		return false
	}
	price := closePrice * (1 + cfg.SlippageRate)
	shares := int(math.Floor(l.Cash/price/LotSize)) * LotSize
	if shares <= 0 {
		return false
	}
	amount := float64(shares) * price
	commission := amount * cfg.CommissionRate
	if amount+commission > l.Cash {
		return false
	}
	l.Cash -= amount + commission
	l.Position = models.Position{Shares: shares, CostBasis: price}
	l.Trades = append(l.Trades, models.Trade{
		Date:       date,
		Action:     models.ActionBuy,
		Price:      price,
		Shares:     shares,
		Amount:     amount,
		Commission: commission,
		Reason:     reason,
	})
	return true
}

// ExecuteSell closes the open position at the close price adjusted
// for slippage. Returns false when there is nothing to sell.
func (l *Ledger) ExecuteSell(date time.Time, closePrice float64, cfg Config, reason string) bool {
	if closePrice <= 0 || l.Position.IsEmpty() {
		return false
	}
	price := closePrice * (1 - cfg.SlippageRate)
	shares := l.Position.Shares
	amount := float64(shares) * price
	commission := amount * cfg.CommissionRate
	l.Cash += amount - commission
	l.Position = models.Position{}
	l.Trades = append(l.Trades, models.Trade{
		Date:       date,
		Action:     models.ActionSell,
		Price:      price,
		Shares:     shares,
		Amount:     amount,
		Commission: commission,
		Reason:     reason,
	})
	return true
}
