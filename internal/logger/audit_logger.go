// Package logger provides audit logging.
package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// AuditLogger provides dedicated audit trail logging.
type AuditLogger struct {
	*logrus.Entry
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(baseLogger *logrus.Logger) *AuditLogger {
	return &AuditLogger{
		Entry: baseLogger.WithField("component", "audit"),
	}
}

// LogBacktestRun logs a completed backtest run.
func (al *AuditLogger) LogBacktestRun(backtestID, stockCode, period string, totalTrades int, totalReturn, maxDrawdown float64, durationMs float64) {
	al.WithFields(logrus.Fields{
		"backtest_id":  backtestID,
		"stock_code":   stockCode,
		"period":       period,
		"total_trades": totalTrades,
		"total_return": totalReturn,
		"max_drawdown": maxDrawdown,
		"duration_ms":  durationMs,
	}).Info("Backtest run recorded")
}

// LogSimulatedTrade logs a trade executed inside a simulation.
func (al *AuditLogger) LogSimulatedTrade(backtestID, stockCode, action string, price float64, shares int, commission float64, tradeDate time.Time) {
	al.WithFields(logrus.Fields{
		"backtest_id": backtestID,
		"stock_code":  stockCode,
		"action":      action,
		"price":       price,
		"shares":      shares,
		"commission":  commission,
		"trade_date":  tradeDate.Format("2006-01-02"),
	}).Info("Simulated trade recorded")
}

// LogStrategyChange logs strategy create/update/delete events.
func (al *AuditLogger) LogStrategyChange(strategyID, strategyName, changeType string, changedBy string) {
	al.WithFields(logrus.Fields{
		"strategy_id":   strategyID,
		"strategy_name": strategyName,
		"change_type":   changeType,
		"changed_by":    changedBy,
	}).Info("Strategy changed")
}

// LogCustomIndicatorChange logs custom indicator lifecycle events.
func (al *AuditLogger) LogCustomIndicatorChange(indicatorID, indicatorName, changeType string, formulaValid bool) {
	al.WithFields(logrus.Fields{
		"indicator_id":   indicatorID,
		"indicator_name": indicatorName,
		"change_type":    changeType,
		"formula_valid":  formulaValid,
	}).Info("Custom indicator changed")
}
