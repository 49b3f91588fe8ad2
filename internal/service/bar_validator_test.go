package service

import (
	"testing"
	"time"

	"github.com/yourusername/quant-stock/internal/models"
)

func validBar(day int) models.Bar {
	return models.Bar{
		Date:   time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC),
		Open:   10.0,
		Close:  10.5,
		High:   10.8,
		Low:    9.9,
		Volume: 100000,
	}
}

func TestValidateBarValid(t *testing.T) {
	validator := NewBarValidator(nil)

	bar := validBar(2)
	if issues := validator.ValidateBar(&bar); len(issues) > 0 {
		t.Errorf("Expected no issues, got: %v", issues)
	}
}

func TestValidateBarConstraints(t *testing.T) {
	validator := NewBarValidator(nil)

	tests := []struct {
		name   string
		mutate func(*models.Bar)
		valid  bool
	}{
		{"zero date", func(b *models.Bar) { b.Date = time.Time{} }, false},
		{"zero open", func(b *models.Bar) { b.Open = 0 }, false},
		{"negative close", func(b *models.Bar) { b.Close = -1 }, false},
		{"high below close", func(b *models.Bar) { b.High = 10.1 }, false},
		{"low above open", func(b *models.Bar) { b.Low = 10.2 }, false},
		{"negative volume", func(b *models.Bar) { b.Volume = -5 }, false},
		{"zero volume", func(b *models.Bar) { b.Volume = 0 }, true},
		{"high equals close", func(b *models.Bar) { b.High = 10.5 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := validBar(2)
			tt.mutate(&bar)
			issues := validator.ValidateBar(&bar)
			if (len(issues) == 0) != tt.valid {
				t.Errorf("Expected valid=%v, got issues=%v", tt.valid, issues)
			}
		})
	}
}

func TestValidateBarNegativeAmount(t *testing.T) {
	validator := NewBarValidator(nil)

	bar := validBar(2)
	amount := -100.0
	bar.Amount = &amount

	if issues := validator.ValidateBar(&bar); len(issues) == 0 {
		t.Error("Expected issue for negative amount")
	}
}

func TestValidateSeriesOrdering(t *testing.T) {
	validator := NewBarValidator(nil)

	ordered := models.BarSeries{validBar(2), validBar(3), validBar(4)}
	if issues := validator.ValidateSeries(ordered); len(issues) > 0 {
		t.Errorf("Expected no issues for ordered series, got: %v", issues)
	}

	duplicate := models.BarSeries{validBar(2), validBar(2)}
	if issues := validator.ValidateSeries(duplicate); len(issues) == 0 {
		t.Error("Expected issue for duplicate dates")
	}

	backwards := models.BarSeries{validBar(3), validBar(2)}
	if issues := validator.ValidateSeries(backwards); len(issues) == 0 {
		t.Error("Expected issue for descending dates")
	}
}

func TestNormalizeSeries(t *testing.T) {
	normalizer := NewBarNormalizer(nil)

	bars := models.BarSeries{validBar(3), validBar(2), validBar(3)}
	bars[2].Close = 10.555

	out := normalizer.NormalizeSeries(bars)
	if len(out) != 2 {
		t.Fatalf("Expected 2 bars after dedupe, got %d", len(out))
	}
	if !out[0].Date.Before(out[1].Date) {
		t.Error("Expected ascending dates")
	}
	// Duplicate keeps the last occurrence with rounded price
	if out[1].Close != 10.56 {
		t.Errorf("Expected rounded close 10.56, got %f", out[1].Close)
	}
}

func TestNormalizeBarRounding(t *testing.T) {
	normalizer := NewBarNormalizer(nil)

	bar := validBar(2)
	bar.Open = 10.123
	bar.High = 10.999
	bar.Low = 9.005

	out := normalizer.NormalizeBar(bar)
	if out.Open != 10.12 {
		t.Errorf("Expected 10.12, got %f", out.Open)
	}
	if out.High != 11.0 {
		t.Errorf("Expected 11.0, got %f", out.High)
	}
	if out.Low != 9.01 {
		t.Errorf("Expected 9.01, got %f", out.Low)
	}
}
