package backtest

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"github.com/yourusername/quant-stock/internal/models"
)

// EquityPoint is a daily snapshot of portfolio value.
type EquityPoint struct {
	Date          time.Time
	Equity        float64
	Cash          float64
	PositionValue float64
}

// MarshalJSON encodes the date as an ISO day string.
func (p EquityPoint) MarshalJSON() ([]byte, error) {
	type alias struct {
		Date          string  `json:"date"`
		Equity        float64 `json:"equity"`
		Cash          float64 `json:"cash"`
		PositionValue float64 `json:"position_value"`
	}
	return json.Marshal(alias{
		Date:          p.Date.Format(models.DateLayout),
		Equity:        p.Equity,
		Cash:          p.Cash,
		PositionValue: p.PositionValue,
	})
}

// UnmarshalJSON parses the point accepting both ISO date strings and RFC3339 timestamps.
func (p *EquityPoint) UnmarshalJSON(data []byte) error {
	type alias struct {
		Date          string  `json:"date"`
		Equity        float64 `json:"equity"`
		Cash          float64 `json:"cash"`
		PositionValue float64 `json:"position_value"`
	}
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	parsed, err := time.Parse(models.DateLayout, a.Date)
	if err != nil {
		parsed, err = time.Parse(time.RFC3339, a.Date)
		if err != nil {
			return err
		}
	}
	p.Date = parsed
	p.Equity = a.Equity
	p.Cash = a.Cash
	p.PositionValue = a.PositionValue
	return nil
}

// EquityCurve is a time-series of equity points.
type EquityCurve []EquityPoint

// Returns calculates daily returns from the equity curve
func (e EquityCurve) Returns() []float64 {
	if len(e) < 2 {
		return []float64{}
	}
	returns := make([]float64, 0, len(e)-1)
	for i := 1; i < len(e); i++ {
		prev := e[i-1].Equity
		curr := e[i].Equity
		if prev == 0 {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, (curr-prev)/prev)
	}
	return returns
}

// MaxDrawdown returns the largest peak-to-trough decline as a
// non-positive fraction of the running peak.
func (e EquityCurve) MaxDrawdown() float64 {
	maxDD := 0.0
	peak := 0.0
	for _, p := range e {
		if p.Equity > peak {
			peak = p.Equity
		}
		if peak == 0 {
			continue
		}
		drawdown := (p.Equity - peak) / peak
		if drawdown < maxDD {
			maxDD = drawdown
		}
	}
	return maxDD
}

// ToCSV exports the equity curve to a CSV string
func (e EquityCurve) ToCSV() string {
	var buf bytes.Buffer
	buf.WriteString("date,equity,cash,position_value\n")
	for _, point := range e {
		buf.WriteString(point.Date.Format(models.DateLayout))
		buf.WriteString(",")
		buf.WriteString(formatFloat(point.Equity))
		buf.WriteString(",")
		buf.WriteString(formatFloat(point.Cash))
		buf.WriteString(",")
		buf.WriteString(formatFloat(point.PositionValue))
		buf.WriteString("\n")
	}
	return buf.String()
}

// ToJSON exports the equity curve to a JSON string
func (e EquityCurve) ToJSON() string {
	data, _ := json.Marshal(e)
	return string(data)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
