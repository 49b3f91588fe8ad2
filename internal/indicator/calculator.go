package indicator

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// Calculator computes technical indicators from bar frames. All calculation
// methods are pure and deterministic: they keep no state between calls and
// may be invoked concurrently.
type Calculator struct {
	logger *logrus.Logger
}

// NewCalculator creates a new indicator calculator.
func NewCalculator(logger *logrus.Logger) *Calculator {
	if logger == nil {
		logger = logrus.New()
	}
	return &Calculator{logger: logger}
}

func (c *Calculator) validatePeriod(indicator string, period int) *CalcError {
	if period <= 0 {
		return errInvalidParameter(indicator, fmt.Sprintf("period must be a positive integer, got %d", period))
	}
	return nil
}

// MA calculates the simple moving average of close for each period.
// Output series are keyed "MA5", "MA10", and so on; the first n-1 positions
// of each are NaN.
func (c *Calculator) MA(f *Frame, periods []int) (map[string][]float64, error) {
	cols, calcErr := f.require("MA", ColClose)
	if calcErr != nil {
		return nil, calcErr
	}
	if len(periods) == 0 {
		return nil, errInvalidParameter("MA", "periods must be a non-empty list")
	}
	closes := cols[0]
	for _, period := range periods {
		name := fmt.Sprintf("MA%d", period)
		if err := c.validatePeriod(name, period); err != nil {
			return nil, err
		}
		if len(closes) < period {
			return nil, errInsufficientData(name, period, len(closes))
		}
	}

	result := make(map[string][]float64, len(periods))
	for _, period := range periods {
		result[fmt.Sprintf("MA%d", period)] = rollingMean(closes, period)
	}
	c.logger.WithField("periods", periods).Debug("Calculated MA")
	return result, nil
}

// EMA calculates the exponential moving average of close for each period.
// The smoothing factor is 2/(n+1), seeded from the first close with no
// warm-up truncation, so every position is defined.
func (c *Calculator) EMA(f *Frame, periods []int) (map[string][]float64, error) {
	cols, calcErr := f.require("EMA", ColClose)
	if calcErr != nil {
		return nil, calcErr
	}
	if len(periods) == 0 {
		return nil, errInvalidParameter("EMA", "periods must be a non-empty list")
	}
	closes := cols[0]
	result := make(map[string][]float64, len(periods))
	for _, period := range periods {
		name := fmt.Sprintf("EMA%d", period)
		if err := c.validatePeriod(name, period); err != nil {
			return nil, err
		}
		result[name] = ewmSpan(closes, period)
	}
	return result, nil
}

// MACD calculates moving average convergence divergence. Returns the series
// "DIF" (fast EMA minus slow EMA), "DEA" (EMA of DIF) and "MACD" (DIF-DEA).
func (c *Calculator) MACD(f *Frame, fastPeriod, slowPeriod, signalPeriod int) (map[string][]float64, error) {
	cols, calcErr := f.require("MACD", ColClose)
	if calcErr != nil {
		return nil, calcErr
	}
	if err := c.validatePeriod("MACD fast_period", fastPeriod); err != nil {
		return nil, err
	}
	if err := c.validatePeriod("MACD slow_period", slowPeriod); err != nil {
		return nil, err
	}
	if err := c.validatePeriod("MACD signal_period", signalPeriod); err != nil {
		return nil, err
	}
	if fastPeriod >= slowPeriod {
		return nil, errInvalidParameter("MACD",
			fmt.Sprintf("fast period (%d) must be less than slow period (%d)", fastPeriod, slowPeriod))
	}
	closes := cols[0]
	minLength := slowPeriod + signalPeriod
	if len(closes) < minLength {
		return nil, errInsufficientData("MACD", minLength, len(closes))
	}

	fastEMA := ewmSpan(closes, fastPeriod)
	slowEMA := ewmSpan(closes, slowPeriod)
	dif := make([]float64, len(closes))
	for i := range closes {
		dif[i] = fastEMA[i] - slowEMA[i]
	}
	dea := ewmSpan(dif, signalPeriod)
	macd := make([]float64, len(closes))
	for i := range closes {
		macd[i] = dif[i] - dea[i]
	}
	c.logger.WithFields(logrus.Fields{
		"fast": fastPeriod, "slow": slowPeriod, "signal": signalPeriod,
	}).Debug("Calculated MACD")
	return map[string][]float64{"DIF": dif, "DEA": dea, "MACD": macd}, nil
}

// RSI calculates the relative strength index over the period. Average gains
// and losses use exponential smoothing; when the average loss is zero the
// RSI is 100, so every defined value lies in [0, 100].
func (c *Calculator) RSI(f *Frame, period int) ([]float64, error) {
	cols, calcErr := f.require("RSI", ColClose)
	if calcErr != nil {
		return nil, calcErr
	}
	name := fmt.Sprintf("RSI%d", period)
	if err := c.validatePeriod(name, period); err != nil {
		return nil, err
	}
	closes := cols[0]
	if len(closes) < period+1 {
		return nil, errInsufficientData(name, period+1, len(closes))
	}

	delta := diff(closes)
	gains := make([]float64, len(delta))
	losses := make([]float64, len(delta))
	for i, d := range delta {
		if d > 0 {
			gains[i] = d
		} else if d < 0 {
			losses[i] = -d
		}
		// NaN delta on the first bar contributes zero gain and loss
	}
	avgGains := ewmSpan(gains, period)
	avgLosses := ewmSpan(losses, period)

	rsi := make([]float64, len(closes))
	for i := range closes {
		if avgLosses[i] == 0 {
			rsi[i] = 100.0
			continue
		}
		rs := avgGains[i] / avgLosses[i]
		rsi[i] = 100.0 - 100.0/(1.0+rs)
	}
	return rsi, nil
}

// BOLL calculates Bollinger Bands: "middle" is the simple moving average,
// "upper"/"lower" are the middle band shifted by stdDev rolling standard
// deviations.
func (c *Calculator) BOLL(f *Frame, period int, stdDev float64) (map[string][]float64, error) {
	cols, calcErr := f.require("BOLL", ColClose)
	if calcErr != nil {
		return nil, calcErr
	}
	name := fmt.Sprintf("BOLL%d", period)
	if err := c.validatePeriod(name, period); err != nil {
		return nil, err
	}
	if stdDev <= 0 || math.IsNaN(stdDev) {
		return nil, errInvalidParameter("BOLL",
			fmt.Sprintf("std_dev must be a positive number, got %v", stdDev))
	}
	closes := cols[0]
	if len(closes) < period {
		return nil, errInsufficientData(name, period, len(closes))
	}

	middle := rollingMean(closes, period)
	std := rollingStd(closes, period)
	upper := make([]float64, len(closes))
	lower := make([]float64, len(closes))
	for i := range closes {
		upper[i] = middle[i] + stdDev*std[i]
		lower[i] = middle[i] - stdDev*std[i]
	}
	return map[string][]float64{"upper": upper, "middle": middle, "lower": lower}, nil
}

// KDJ calculates the stochastic oscillator. The raw stochastic value defaults
// to 50 where the n-bar high/low range is zero or not yet defined; K and D
// are exponentially smoothed with factors 1/m1 and 1/m2, and J = 3K - 2D.
func (c *Calculator) KDJ(f *Frame, n, m1, m2 int) (map[string][]float64, error) {
	cols, calcErr := f.require("KDJ", ColClose, ColHigh, ColLow)
	if calcErr != nil {
		return nil, calcErr
	}
	for _, p := range []int{n, m1, m2} {
		if err := c.validatePeriod("KDJ", p); err != nil {
			return nil, err
		}
	}
	closes, highs, lows := cols[0], cols[1], cols[2]
	if len(closes) < n {
		return nil, errInsufficientData("KDJ", n, len(closes))
	}

	lowMin := rollingMin(lows, n)
	highMax := rollingMax(highs, n)
	rsv := make([]float64, len(closes))
	for i := range closes {
		span := highMax[i] - lowMin[i]
		if math.IsNaN(span) || span == 0 {
			rsv[i] = 50.0
			continue
		}
		rsv[i] = (closes[i] - lowMin[i]) / span * 100.0
	}
	k := ewmAlpha(rsv, 1.0/float64(m1))
	d := ewmAlpha(k, 1.0/float64(m2))
	j := make([]float64, len(closes))
	for i := range closes {
		j[i] = 3.0*k[i] - 2.0*d[i]
	}
	return map[string][]float64{"K": k, "D": d, "J": j}, nil
}

// CCI calculates the commodity channel index over the period using the
// typical price (high+low+close)/3 and its mean absolute deviation.
func (c *Calculator) CCI(f *Frame, period int) ([]float64, error) {
	cols, calcErr := f.require("CCI", ColClose, ColHigh, ColLow)
	if calcErr != nil {
		return nil, calcErr
	}
	if err := c.validatePeriod("CCI", period); err != nil {
		return nil, err
	}
	closes, highs, lows := cols[0], cols[1], cols[2]
	if len(closes) < period {
		return nil, errInsufficientData("CCI", period, len(closes))
	}

	tp := make([]float64, len(closes))
	for i := range closes {
		tp[i] = (highs[i] + lows[i] + closes[i]) / 3.0
	}
	smaTP := rollingMean(tp, period)
	mad := rollingMeanAbsDev(tp, period)
	cci := make([]float64, len(closes))
	for i := range closes {
		cci[i] = (tp[i] - smaTP[i]) / (0.015 * mad[i])
	}
	return cci, nil
}

// ATR calculates the average true range: an exponential mean of the true
// range max(high-low, |high-prevClose|, |low-prevClose|). The first bar's
// true range is high-low since there is no previous close.
func (c *Calculator) ATR(f *Frame, period int) ([]float64, error) {
	cols, calcErr := f.require("ATR", ColClose, ColHigh, ColLow)
	if calcErr != nil {
		return nil, calcErr
	}
	if err := c.validatePeriod("ATR", period); err != nil {
		return nil, err
	}
	closes, highs, lows := cols[0], cols[1], cols[2]
	if len(closes) < period+1 {
		return nil, errInsufficientData("ATR", period+1, len(closes))
	}

	tr := trueRange(highs, lows, closes)
	return ewmSpan(tr, period), nil
}

func trueRange(highs, lows, closes []float64) []float64 {
	tr := make([]float64, len(closes))
	for i := range closes {
		hl := highs[i] - lows[i]
		if i == 0 {
			tr[i] = hl
			continue
		}
		hc := math.Abs(highs[i] - closes[i-1])
		lc := math.Abs(lows[i] - closes[i-1])
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}
	return tr
}

// OBV calculates on-balance volume: the cumulative sum of volume signed by
// the close-to-close direction. A flat close contributes zero.
func (c *Calculator) OBV(f *Frame) ([]float64, error) {
	cols, calcErr := f.require("OBV", ColClose, ColVolume)
	if calcErr != nil {
		return nil, calcErr
	}
	closes, volumes := cols[0], cols[1]

	signed := make([]float64, len(closes))
	for i := range closes {
		if i == 0 {
			continue
		}
		switch {
		case closes[i] > closes[i-1]:
			signed[i] = volumes[i]
		case closes[i] < closes[i-1]:
			signed[i] = -volumes[i]
		}
	}
	return cumsum(signed), nil
}

// WR calculates Williams %R over the period; values are in [-100, 0] where
// the high/low range is non-zero.
func (c *Calculator) WR(f *Frame, period int) ([]float64, error) {
	cols, calcErr := f.require("WR", ColClose, ColHigh, ColLow)
	if calcErr != nil {
		return nil, calcErr
	}
	if err := c.validatePeriod("WR", period); err != nil {
		return nil, err
	}
	closes, highs, lows := cols[0], cols[1], cols[2]
	if len(closes) < period {
		return nil, errInsufficientData("WR", period, len(closes))
	}

	highMax := rollingMax(highs, period)
	lowMin := rollingMin(lows, period)
	wr := make([]float64, len(closes))
	for i := range closes {
		wr[i] = -100.0 * (highMax[i] - closes[i]) / (highMax[i] - lowMin[i])
	}
	return wr, nil
}

// DMI calculates the directional movement index. Returns "PDI", "MDI" and
// "ADX", with directional movement smoothed the same way as ATR.
func (c *Calculator) DMI(f *Frame, period int) (map[string][]float64, error) {
	cols, calcErr := f.require("DMI", ColClose, ColHigh, ColLow)
	if calcErr != nil {
		return nil, calcErr
	}
	if err := c.validatePeriod("DMI", period); err != nil {
		return nil, err
	}
	closes, highs, lows := cols[0], cols[1], cols[2]
	if len(closes) < period*2 {
		return nil, errInsufficientData("DMI", period*2, len(closes))
	}

	pdm := make([]float64, len(closes))
	mdm := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		highDiff := highs[i] - highs[i-1]
		lowDiff := lows[i-1] - lows[i]
		if highDiff > lowDiff && highDiff > 0 {
			pdm[i] = highDiff
		}
		if lowDiff > highDiff && lowDiff > 0 {
			mdm[i] = lowDiff
		}
	}

	atr := ewmSpan(trueRange(highs, lows, closes), period)
	smoothPDM := ewmSpan(pdm, period)
	smoothMDM := ewmSpan(mdm, period)
	pdi := make([]float64, len(closes))
	mdi := make([]float64, len(closes))
	dx := make([]float64, len(closes))
	for i := range closes {
		pdi[i] = 100.0 * smoothPDM[i] / atr[i]
		mdi[i] = 100.0 * smoothMDM[i] / atr[i]
		dx[i] = 100.0 * math.Abs(pdi[i]-mdi[i]) / (pdi[i] + mdi[i])
	}
	adx := ewmSpan(dx, period)
	return map[string][]float64{"PDI": pdi, "MDI": mdi, "ADX": adx}, nil
}

// VWAP calculates the cumulative volume weighted average price from the
// typical price (high+low+close)/3.
func (c *Calculator) VWAP(f *Frame) ([]float64, error) {
	cols, calcErr := f.require("VWAP", ColClose, ColHigh, ColLow, ColVolume)
	if calcErr != nil {
		return nil, calcErr
	}
	closes, highs, lows, volumes := cols[0], cols[1], cols[2], cols[3]

	weighted := make([]float64, len(closes))
	for i := range closes {
		tp := (highs[i] + lows[i] + closes[i]) / 3.0
		weighted[i] = tp * volumes[i]
	}
	cumWeighted := cumsum(weighted)
	cumVolume := cumsum(volumes)
	vwap := make([]float64, len(closes))
	for i := range closes {
		vwap[i] = cumWeighted[i] / cumVolume[i]
	}
	return vwap, nil
}
