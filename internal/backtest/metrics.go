package backtest

import (
	"encoding/json"
	"math"

	"github.com/yourusername/quant-stock/internal/models"
)

// TradingDaysPerYear is the annualization factor for daily bars.
const TradingDaysPerYear = 252.0

// Metrics represents backtest performance metrics
type Metrics struct {
	InitialCapital float64 `json:"initial_capital"`
	FinalCapital   float64 `json:"final_capital"`
	TotalReturn    float64 `json:"total_return"`
	AnnualReturn   float64 `json:"annual_return"`
	SharpeRatio    float64 `json:"sharpe_ratio"`
	MaxDrawdown    float64 `json:"max_drawdown"`
	WinRate        float64 `json:"win_rate"`
	TotalTrades    int     `json:"total_trades"`
	WinningPairs   int     `json:"winning_pairs"`
	LosingPairs    int     `json:"losing_pairs"`
}

// CalculateMetrics calculates performance metrics from a completed ledger
func CalculateMetrics(ledger *Ledger, cfg Config) Metrics {
	metrics := Metrics{
		InitialCapital: cfg.InitialCapital,
		FinalCapital:   cfg.InitialCapital,
	}
	if ledger == nil || len(ledger.EquityCurve) == 0 {
		return metrics
	}

	final := ledger.EquityCurve[len(ledger.EquityCurve)-1].Equity
	metrics.FinalCapital = final
	if cfg.InitialCapital > 0 {
		metrics.TotalReturn = (final - cfg.InitialCapital) / cfg.InitialCapital
	}
	metrics.AnnualReturn = annualizeReturn(metrics.TotalReturn, len(ledger.EquityCurve))
	metrics.MaxDrawdown = ledger.EquityCurve.MaxDrawdown()
	metrics.SharpeRatio = calculateSharpeRatio(ledger.EquityCurve.Returns(), cfg.RiskFreeRate)

	metrics.TotalTrades = len(ledger.Trades)
	metrics.WinningPairs, metrics.LosingPairs = pairTrades(ledger.Trades)
	closed := metrics.WinningPairs + metrics.LosingPairs
	if closed > 0 {
		metrics.WinRate = float64(metrics.WinningPairs) / float64(closed)
	}

	return metrics
}

// ToJSON exports metrics to JSON
func (m Metrics) ToJSON() string {
	data, _ := json.Marshal(m)
	return string(data)
}

func annualizeReturn(totalReturn float64, days int) float64 {
	if days <= 0 || totalReturn <= -1 {
		return 0
	}
	return math.Pow(1+totalReturn, TradingDaysPerYear/float64(days)) - 1
}

func calculateSharpeRatio(returns []float64, riskFreeRate float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	mean := average(returns)
	std := sampleStddev(returns)
	if std == 0 {
		return 0
	}
	return (mean - riskFreeRate/TradingDaysPerYear) / std * math.Sqrt(TradingDaysPerYear)
}

// pairTrades walks the trade list matching each sell against the buy
// that opened the position. A pair wins when the sell price exceeds
// the buy price; commissions do not enter the comparison. An open
// position at the end of the replay has no sell and is not counted.
func pairTrades(trades []models.Trade) (wins, losses int) {
	var open *models.Trade
	for i := range trades {
		trade := trades[i]
		switch trade.Action {
		case models.ActionBuy:
			open = &trades[i]
		case models.ActionSell:
			if open == nil {
				continue
			}
			if trade.Price > open.Price {
				wins++
			} else {
				losses++
			}
			open = nil
		}
	}
	return wins, losses
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	return mean / float64(len(values))
}

func sampleStddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := average(values)
	variance := 0.0
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	variance /= float64(len(values) - 1)
	return math.Sqrt(variance)
}
