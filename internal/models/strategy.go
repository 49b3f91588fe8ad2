package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Operator compares an indicator series against a value or another series.
type Operator string

// Condition operators
const (
	OpGreater      Operator = ">"
	OpLess         Operator = "<"
	OpGreaterEqual Operator = ">="
	OpLessEqual    Operator = "<="
	OpEqual        Operator = "=="
	OpCrossUp      Operator = "cross_up"
	OpCrossDown    Operator = "cross_down"
)

// Valid reports whether the operator is one of the supported comparisons.
func (o Operator) Valid() bool {
	switch o {
	case OpGreater, OpLess, OpGreaterEqual, OpLessEqual, OpEqual, OpCrossUp, OpCrossDown:
		return true
	}
	return false
}

// IndicatorSpec declares one indicator a strategy wants computed.
type IndicatorSpec struct {
	Type   string         `json:"type"`
	Params map[string]any `json:"params"`
}

// ConditionValue is the right-hand side of a condition: either a literal
// number or the name of another computed series. Which one it is gets
// resolved against the merged column set before simulation starts.
type ConditionValue struct {
	Name    string
	Literal float64
	IsName  bool
}

// UnmarshalJSON accepts a JSON number or a string.
func (v *ConditionValue) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v.Name = s
		v.IsName = true
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("condition value must be a number or series name: %w", err)
	}
	v.Literal = f
	v.IsName = false
	return nil
}

// MarshalJSON writes the value back in the form it was authored.
func (v ConditionValue) MarshalJSON() ([]byte, error) {
	if v.IsName {
		return json.Marshal(v.Name)
	}
	return json.Marshal(v.Literal)
}

// AsLiteral parses a named value as a number when it does not reference a column.
func (v ConditionValue) AsLiteral() (float64, error) {
	if !v.IsName {
		return v.Literal, nil
	}
	return strconv.ParseFloat(strings.TrimSpace(v.Name), 64)
}

// Condition is one buy/sell rule of a strategy.
type Condition struct {
	Indicator string         `json:"indicator"`
	Operator  Operator       `json:"operator"`
	Value     ConditionValue `json:"value"`
	Action    TradeAction    `json:"action"`
}

// StrategyConfig is the declarative strategy definition evaluated by the
// backtest engine: indicators to compute plus buy/sell conditions.
type StrategyConfig struct {
	Indicators []IndicatorSpec `json:"indicators"`
	Conditions []Condition     `json:"conditions"`
}

// Validate performs structural checks that do not require market data.
func (c StrategyConfig) Validate() error {
	for i, cond := range c.Conditions {
		if cond.Indicator == "" {
			return fmt.Errorf("condition %d: indicator name is required", i)
		}
		if !cond.Operator.Valid() {
			return fmt.Errorf("condition %d: unsupported operator %q", i, cond.Operator)
		}
		if cond.Action != ActionBuy && cond.Action != ActionSell {
			return fmt.Errorf("condition %d: action must be buy or sell, got %q", i, cond.Action)
		}
	}
	for i, spec := range c.Indicators {
		if spec.Type == "" {
			return fmt.Errorf("indicator %d: type is required", i)
		}
	}
	return nil
}

// Strategy represents a persisted user-authored trading strategy.
type Strategy struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	Name        string          `db:"name" json:"name" validate:"required,min=1,max=255"`
	Description string          `db:"description" json:"description"`
	Config      json.RawMessage `db:"config" json:"config"`
	Active      bool            `db:"active" json:"active"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// ParseConfig decodes the stored strategy configuration.
func (s *Strategy) ParseConfig() (StrategyConfig, error) {
	var cfg StrategyConfig
	if len(s.Config) == 0 {
		return cfg, fmt.Errorf("strategy %s has no configuration", s.ID)
	}
	if err := json.Unmarshal(s.Config, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse strategy config: %w", err)
	}
	return cfg, nil
}

// Validate performs basic validation on the strategy.
func (s *Strategy) Validate() error {
	if s.Name == "" {
		return ErrStrategyNameRequired
	}
	return nil
}
