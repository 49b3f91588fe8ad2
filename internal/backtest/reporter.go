package backtest

import (
	"bytes"
	"fmt"

	"github.com/yourusername/quant-stock/internal/models"
)

// GenerateConsoleReport renders a plain-text summary of a run.
func GenerateConsoleReport(stockCode string, result *Result) string {
	var buf bytes.Buffer
	buf.WriteString("=== Backtest Report ===\n")
	fmt.Fprintf(&buf, "Stock:           %s\n", stockCode)
	fmt.Fprintf(&buf, "Initial Capital: %.2f\n", result.Metrics.InitialCapital)
	fmt.Fprintf(&buf, "Final Capital:   %.2f\n", result.Metrics.FinalCapital)
	fmt.Fprintf(&buf, "Total Return:    %.2f%%\n", result.Metrics.TotalReturn*100)
	fmt.Fprintf(&buf, "Annual Return:   %.2f%%\n", result.Metrics.AnnualReturn*100)
	fmt.Fprintf(&buf, "Sharpe Ratio:    %.2f\n", result.Metrics.SharpeRatio)
	fmt.Fprintf(&buf, "Max Drawdown:    %.2f%%\n", result.Metrics.MaxDrawdown*100)
	fmt.Fprintf(&buf, "Win Rate:        %.2f%%\n", result.Metrics.WinRate*100)
	fmt.Fprintf(&buf, "Total Trades:    %d\n", result.Metrics.TotalTrades)
	return buf.String()
}

// GenerateTradesCSV exports executed trades to a CSV string.
func GenerateTradesCSV(trades []models.Trade) string {
	var buf bytes.Buffer
	buf.WriteString("date,action,price,shares,amount,commission,reason\n")
	for _, trade := range trades {
		fmt.Fprintf(&buf, "%s,%s,%.4f,%d,%.2f,%.2f,%s\n",
			trade.Date.Format(models.DateLayout), trade.Action, trade.Price,
			trade.Shares, trade.Amount, trade.Commission, trade.Reason)
	}
	return buf.String()
}
