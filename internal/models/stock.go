package models

import "time"

// Period identifies the bar aggregation interval.
type Period string

// Supported bar periods
const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

// Valid reports whether the period is supported.
func (p Period) Valid() bool {
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly:
		return true
	}
	return false
}

// Stock represents one A-share listing.
type Stock struct {
	Code      string    `db:"code" json:"code"`
	Name      string    `db:"name" json:"name"`
	Exchange  string    `db:"exchange" json:"exchange"`
	Industry  string    `db:"industry" json:"industry,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
