package service

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/quant-stock/internal/models"
)

// BarValidator validates kline data fetched from providers
type BarValidator struct {
	logger *logrus.Logger
}

// NewBarValidator creates a new bar validator
func NewBarValidator(logger *logrus.Logger) *BarValidator {
	if logger == nil {
		logger = logrus.New()
	}
	return &BarValidator{logger: logger}
}

// ValidateBar validates a single bar for required fields and constraints
func (v *BarValidator) ValidateBar(bar *models.Bar) []string {
	var errors []string

	if bar.Date.IsZero() {
		errors = append(errors, "trade date is required")
	}

	if bar.Open <= 0 || bar.Close <= 0 || bar.High <= 0 || bar.Low <= 0 {
		errors = append(errors, "prices must be positive")
		return errors
	}

	if bar.High < bar.Open || bar.High < bar.Close {
		errors = append(errors, fmt.Sprintf("high %.4f below open/close", bar.High))
	}

	if bar.Low > bar.Open || bar.Low > bar.Close {
		errors = append(errors, fmt.Sprintf("low %.4f above open/close", bar.Low))
	}

	if bar.Volume < 0 {
		errors = append(errors, fmt.Sprintf("volume cannot be negative, got %.0f", bar.Volume))
	}

	if bar.Amount != nil && *bar.Amount < 0 {
		errors = append(errors, "amount cannot be negative")
	}

	return errors
}

// ValidateSeries validates ordering constraints across a bar series.
// Dates must be strictly ascending with no duplicates.
func (v *BarValidator) ValidateSeries(bars models.BarSeries) []string {
	var errors []string

	for i := 1; i < len(bars); i++ {
		if !bars[i].Date.After(bars[i-1].Date) {
			errors = append(errors, fmt.Sprintf(
				"bar %d date %s not after previous %s",
				i, bars[i].Date.Format(models.DateLayout), bars[i-1].Date.Format(models.DateLayout)))
		}
	}

	return errors
}
