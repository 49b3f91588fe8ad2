package indicator

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	return math.Abs(a-b) < 1e-9
}

func assertSeries(t *testing.T, got, want []float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
	for i := range want {
		if !almostEqual(got[i], want[i]) {
			t.Errorf("position %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestRollingMean(t *testing.T) {
	got := rollingMean([]float64{1, 2, 3, 4, 5}, 3)
	assertSeries(t, got, []float64{math.NaN(), math.NaN(), 2, 3, 4})
}

func TestRollingStdUsesSampleVariance(t *testing.T) {
	got := rollingStd([]float64{1, 2, 3, 4}, 3)
	// sample std of {1,2,3} and {2,3,4} is 1
	assertSeries(t, got, []float64{math.NaN(), math.NaN(), 1, 1})
}

func TestRollingMinMax(t *testing.T) {
	values := []float64{3, 1, 2, 5}
	assertSeries(t, rollingMin(values, 2), []float64{math.NaN(), 1, 1, 2})
	assertSeries(t, rollingMax(values, 2), []float64{math.NaN(), 3, 2, 5})
}

func TestRollingMeanAbsDev(t *testing.T) {
	got := rollingMeanAbsDev([]float64{1, 2, 3}, 3)
	// mean is 2, deviations {1,0,1}
	assertSeries(t, got, []float64{math.NaN(), math.NaN(), 2.0 / 3.0})
}

func TestEwmSpanSeedsFromFirstValue(t *testing.T) {
	// span 3 gives alpha 0.5
	got := ewmSpan([]float64{1, 2, 3}, 3)
	assertSeries(t, got, []float64{1, 1.5, 2.25})
}

func TestEwmAlphaSkipsLeadingNaN(t *testing.T) {
	got := ewmAlpha([]float64{math.NaN(), 2, 4}, 0.5)
	assertSeries(t, got, []float64{math.NaN(), 2, 3})
}

func TestDiffAndCumsum(t *testing.T) {
	assertSeries(t, diff([]float64{1, 3, 6}), []float64{math.NaN(), 2, 3})
	assertSeries(t, cumsum([]float64{1, 2, 3}), []float64{1, 3, 6})
}
