package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// BacktestResult represents a persisted backtest run
type BacktestResult struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	StrategyID     uuid.UUID       `db:"strategy_id" json:"strategy_id"`
	StockCode      string          `db:"stock_code" json:"stock_code"`
	Period         Period          `db:"period" json:"period"`
	RunDate        time.Time       `db:"run_date" json:"run_date"`
	StartDate      time.Time       `db:"start_date" json:"start_date"`
	EndDate        time.Time       `db:"end_date" json:"end_date"`
	InitialCapital float64         `db:"initial_capital" json:"initial_capital"`
	FinalCapital   float64         `db:"final_capital" json:"final_capital"`
	TotalReturn    float64         `db:"total_return" json:"total_return"`
	AnnualReturn   float64         `db:"annual_return" json:"annual_return"`
	SharpeRatio    float64         `db:"sharpe_ratio" json:"sharpe_ratio"`
	MaxDrawdown    float64         `db:"max_drawdown" json:"max_drawdown"`
	WinRate        float64         `db:"win_rate" json:"win_rate"`
	TotalTrades    int             `db:"total_trades" json:"total_trades"`
	FullResults    json.RawMessage `db:"full_results" json:"full_results,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
}
