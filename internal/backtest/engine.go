package backtest

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/quant-stock/internal/indicator"
	"github.com/yourusername/quant-stock/internal/models"
)

// Engine replays daily bars against a declarative strategy and
// produces trades, an equity curve and summary metrics.
type Engine struct {
	config     Config
	calculator *indicator.Calculator
	logger     *logrus.Logger
}

// NewEngine creates a simulation engine with a validated config.
func NewEngine(cfg Config, logger *logrus.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Engine{
		config:     cfg,
		calculator: indicator.NewCalculator(logger),
		logger:     logger,
	}, nil
}

// Config returns the simulation configuration
func (e *Engine) Config() Config {
	return e.config
}

// Result is the full output of one simulation run.
type Result struct {
	Metrics     Metrics        `json:"metrics"`
	Trades      []models.Trade `json:"trades"`
	EquityCurve EquityCurve    `json:"equity_curve"`
}

// Run replays bars chronologically, evaluating the strategy's buy and
// sell conditions on each bar. The equity snapshot for a bar is taken
// at its close before any signal fires, matched buy conditions must
// all hold before a purchase, and at most one action executes per bar.
func (e *Engine) Run(bars models.BarSeries, strat models.StrategyConfig) (*Result, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("no bars to replay")
	}
	if err := strat.Validate(); err != nil {
		return nil, fmt.Errorf("invalid strategy: %w", err)
	}

	e.logger.WithFields(logrus.Fields{
		"bars":       len(bars),
		"indicators": len(strat.Indicators),
		"conditions": len(strat.Conditions),
	}).Info("Starting backtest run")

	columns, err := e.prepareColumns(bars, strat.Indicators)
	if err != nil {
		return nil, err
	}
	bound, err := bindConditions(strat.Conditions, columns)
	if err != nil {
		return nil, err
	}

	ledger := NewLedger(e.config.InitialCapital)
	closes := bars.Closes()
	dates := bars.Dates()

	for i := range bars {
		ledger.RecordEquityPoint(dates[i], closes[i])

		if shouldFire(bound, models.ActionBuy, i) && ledger.Position.IsEmpty() {
			if ledger.ExecuteBuy(dates[i], closes[i], e.config, signalReason(bound, models.ActionBuy)) {
				e.logger.WithFields(logrus.Fields{
					"date":  dates[i].Format(models.DateLayout),
					"close": closes[i],
				}).Debug("Buy signal executed")
				continue
			}
		}
		if shouldFire(bound, models.ActionSell, i) && !ledger.Position.IsEmpty() {
			if ledger.ExecuteSell(dates[i], closes[i], e.config, signalReason(bound, models.ActionSell)) {
				e.logger.WithFields(logrus.Fields{
					"date":  dates[i].Format(models.DateLayout),
					"close": closes[i],
				}).Debug("Sell signal executed")
			}
		}
	}

	metrics := CalculateMetrics(ledger, e.config)
	e.logger.WithFields(logrus.Fields{
		"total_trades": metrics.TotalTrades,
		"total_return": metrics.TotalReturn,
		"max_drawdown": metrics.MaxDrawdown,
	}).Info("Backtest run complete")

	return &Result{
		Metrics:     metrics,
		Trades:      ledger.Trades,
		EquityCurve: ledger.EquityCurve,
	}, nil
}

// prepareColumns computes every declared indicator over the bars and
// registers the outputs alongside the raw price columns.
func (e *Engine) prepareColumns(bars models.BarSeries, specs []models.IndicatorSpec) (*ColumnSet, error) {
	frame := indicator.NewFrame(bars)
	columns := newColumnSet(frame.Len())

	for _, name := range []indicator.Column{
		indicator.ColOpen, indicator.ColClose, indicator.ColHigh,
		indicator.ColLow, indicator.ColVolume,
	} {
		series, ok := frame.Column(name)
		if !ok {
			continue
		}
		if err := columns.Add(string(name), series); err != nil {
			return nil, err
		}
	}

	for _, spec := range specs {
		outputs, err := e.calculator.Compute(frame, spec.Type, spec.Params)
		if err != nil {
			return nil, fmt.Errorf("indicator %s: %w", spec.Type, err)
		}
		for name, series := range outputs {
			if err := columns.Add(name, series); err != nil {
				return nil, err
			}
		}
	}
	return columns, nil
}

// shouldFire reports whether the conjunction of conditions for action
// holds at bar i. Conditions with undefined operands are dropped; if
// every condition for the action is undefined, nothing fires.
func shouldFire(bound []boundCondition, action models.TradeAction, i int) bool {
	fired := false
	for _, bc := range bound {
		if bc.action != action {
			continue
		}
		hit, defined := bc.evalAt(i)
		if !defined {
			continue
		}
		if !hit {
			return false
		}
		fired = true
	}
	return fired
}

func signalReason(bound []boundCondition, action models.TradeAction) string {
	for _, bc := range bound {
		if bc.action == action {
			return fmt.Sprintf("%s %s signal", bc.indicator, bc.op)
		}
	}
	return string(action)
}
