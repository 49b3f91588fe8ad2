package service

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/quant-stock/internal/models"
)

// pricePlaces is the A-share tick precision
const pricePlaces = 2

// BarNormalizer normalizes provider kline data to the internal format
type BarNormalizer struct {
	logger *logrus.Logger
}

// NewBarNormalizer creates a new bar normalizer
func NewBarNormalizer(logger *logrus.Logger) *BarNormalizer {
	if logger == nil {
		logger = logrus.New()
	}
	return &BarNormalizer{logger: logger}
}

// NormalizeSeries sorts bars by date, drops duplicate dates keeping the
// last occurrence, and rounds prices to tick precision.
func (n *BarNormalizer) NormalizeSeries(bars models.BarSeries) models.BarSeries {
	if len(bars) == 0 {
		return bars
	}

	sorted := make(models.BarSeries, len(bars))
	copy(sorted, bars)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	out := make(models.BarSeries, 0, len(sorted))
	for _, bar := range sorted {
		normalized := n.NormalizeBar(bar)
		if len(out) > 0 && out[len(out)-1].Date.Equal(normalized.Date) {
			n.logger.WithField("trade_date", normalized.Date.Format(models.DateLayout)).
				Debug("Dropping duplicate bar")
			out[len(out)-1] = normalized
			continue
		}
		out = append(out, normalized)
	}

	return out
}

// NormalizeBar rounds a bar's prices to tick precision
func (n *BarNormalizer) NormalizeBar(bar models.Bar) models.Bar {
	bar.Open = roundPrice(bar.Open)
	bar.Close = roundPrice(bar.Close)
	bar.High = roundPrice(bar.High)
	bar.Low = roundPrice(bar.Low)
	return bar
}

func roundPrice(value float64) float64 {
	rounded, _ := decimal.NewFromFloat(value).Round(pricePlaces).Float64()
	return rounded
}
