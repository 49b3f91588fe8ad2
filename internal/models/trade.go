package models

import (
	"encoding/json"
	"time"
)

// TradeAction identifies the side of an executed order.
type TradeAction string

// Trade actions
const (
	ActionBuy  TradeAction = "buy"
	ActionSell TradeAction = "sell"
)

// Trade is an immutable record of one executed order.
type Trade struct {
	Date       time.Time   `json:"date"`
	Action     TradeAction `json:"action"`
	Price      float64     `json:"price"`
	Shares     int         `json:"shares"`
	Amount     float64     `json:"amount"`
	Commission float64     `json:"commission"`
	Reason     string      `json:"reason"`
}

// MarshalJSON serializes the trade with the date as an ISO-8601 date string.
func (t Trade) MarshalJSON() ([]byte, error) {
	type alias struct {
		Date       string      `json:"date"`
		Action     TradeAction `json:"action"`
		Price      float64     `json:"price"`
		Shares     int         `json:"shares"`
		Amount     float64     `json:"amount"`
		Commission float64     `json:"commission"`
		Reason     string      `json:"reason"`
	}
	return json.Marshal(alias{
		Date:       t.Date.Format(DateLayout),
		Action:     t.Action,
		Price:      t.Price,
		Shares:     t.Shares,
		Amount:     t.Amount,
		Commission: t.Commission,
		Reason:     t.Reason,
	})
}

// UnmarshalJSON parses the trade accepting both ISO date strings and RFC3339 timestamps.
func (t *Trade) UnmarshalJSON(data []byte) error {
	type alias struct {
		Date       string      `json:"date"`
		Action     TradeAction `json:"action"`
		Price      float64     `json:"price"`
		Shares     int         `json:"shares"`
		Amount     float64     `json:"amount"`
		Commission float64     `json:"commission"`
		Reason     string      `json:"reason"`
	}
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	parsed, err := time.Parse(DateLayout, a.Date)
	if err != nil {
		parsed, err = time.Parse(time.RFC3339, a.Date)
		if err != nil {
			return err
		}
	}
	t.Date = parsed
	t.Action = a.Action
	t.Price = a.Price
	t.Shares = a.Shares
	t.Amount = a.Amount
	t.Commission = a.Commission
	t.Reason = a.Reason
	return nil
}

// Position tracks the shares currently held during a backtest run.
type Position struct {
	Shares    int     `json:"shares"`
	CostBasis float64 `json:"cost_basis"`
}

// IsEmpty reports whether no shares are held.
func (p Position) IsEmpty() bool {
	return p.Shares == 0
}
