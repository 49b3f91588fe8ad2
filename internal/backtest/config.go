package backtest

import (
	"fmt"

	"github.com/yourusername/quant-stock/internal/config"
)

// Config holds the cost model and capital settings for a simulation run.
type Config struct {
	InitialCapital float64
	CommissionRate float64
	SlippageRate   float64
	RiskFreeRate   float64
}

// DefaultConfig returns the standard simulation settings.
func DefaultConfig() Config {
	return Config{
		InitialCapital: 100000,
		CommissionRate: 0.0003,
		SlippageRate:   0.0001,
		RiskFreeRate:   0.03,
	}
}

// FromConfig converts app config to simulation config
func FromConfig(cfg *config.BacktestConfig) (Config, error) {
	if cfg == nil {
		return DefaultConfig(), nil
	}
	bt := Config{
		InitialCapital: cfg.InitialCapital,
		CommissionRate: cfg.CommissionRate,
		SlippageRate:   cfg.SlippageRate,
		RiskFreeRate:   cfg.RiskFreeRate,
	}
	return bt, bt.Validate()
}

// Validate validates simulation config parameters
func (c Config) Validate() error {
	if c.InitialCapital <= 0 {
		return fmt.Errorf("initial capital must be positive")
	}
	if c.CommissionRate < 0 || c.CommissionRate > 0.1 {
		return fmt.Errorf("commission rate must be between 0 and 0.1")
	}
	if c.SlippageRate < 0 || c.SlippageRate >= 0.1 {
		return fmt.Errorf("slippage rate must be between 0 and 0.1")
	}
	if c.RiskFreeRate < 0 {
		return fmt.Errorf("risk free rate cannot be negative")
	}
	return nil
}
