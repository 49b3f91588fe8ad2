package models

import (
	"encoding/json"
	"time"
)

// DateLayout is the wire format for trade dates.
const DateLayout = "2006-01-02"

// Bar represents one OHLCV record for a trading period.
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	Close  float64   `json:"close"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Volume float64   `json:"volume"`
	Amount *float64  `json:"amount,omitempty"`
}

// MarshalJSON serializes the bar with the date as an ISO-8601 date string.
func (b Bar) MarshalJSON() ([]byte, error) {
	type alias struct {
		Date   string   `json:"date"`
		Open   float64  `json:"open"`
		Close  float64  `json:"close"`
		High   float64  `json:"high"`
		Low    float64  `json:"low"`
		Volume float64  `json:"volume"`
		Amount *float64 `json:"amount,omitempty"`
	}
	return json.Marshal(alias{
		Date:   b.Date.Format(DateLayout),
		Open:   b.Open,
		Close:  b.Close,
		High:   b.High,
		Low:    b.Low,
		Volume: b.Volume,
		Amount: b.Amount,
	})
}

// UnmarshalJSON parses the bar accepting both ISO date strings and RFC3339 timestamps.
func (b *Bar) UnmarshalJSON(data []byte) error {
	type alias struct {
		Date   string   `json:"date"`
		Open   float64  `json:"open"`
		Close  float64  `json:"close"`
		High   float64  `json:"high"`
		Low    float64  `json:"low"`
		Volume float64  `json:"volume"`
		Amount *float64 `json:"amount,omitempty"`
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
	b.Date = parsed
	b.Open = a.Open
	b.Close = a.Close
	b.High = a.High
	b.Low = a.Low
	b.Volume = a.Volume
	b.Amount = a.Amount
	return nil
}

// BarSeries is an ordered sequence of bars, strictly increasing by date.
type BarSeries []Bar

// Dates returns the date column.
func (s BarSeries) Dates() []time.Time {
	out := make([]time.Time, len(s))
	for i, b := range s {
		out[i] = b.Date
	}
	return out
}

// Opens returns the open price column.
func (s BarSeries) Opens() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Open
	}
	return out
}

// Closes returns the close price column.
func (s BarSeries) Closes() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Close
	}
	return out
}

// Highs returns the high price column.
func (s BarSeries) Highs() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.High
	}
	return out
}

// Lows returns the low price column.
func (s BarSeries) Lows() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Low
	}
	return out
}

// Volumes returns the volume column.
func (s BarSeries) Volumes() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Volume
	}
	return out
}
