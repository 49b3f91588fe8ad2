package formula

import "math"

// Window primitives used by the function library. These mirror the
// indicator package's conventions (NaN until the window fills, sample
// standard deviation, EMA seeded from the first finite value) but stay
// local: the formula engine deliberately depends on nothing else.

func windowSum(x []float64, n int) []float64 {
	out := nanSeries(len(x))
	if n <= 0 || len(x) < n {
		return out
	}
	sum := 0.0
	for i, v := range x {
		sum += v
		if i >= n {
			sum -= x[i-n]
		}
		if i >= n-1 {
			out[i] = sum
		}
	}
	return out
}

func windowMean(x []float64, n int) []float64 {
	out := windowSum(x, n)
	for i := range out {
		if !math.IsNaN(out[i]) {
			out[i] /= float64(n)
		}
	}
	return out
}

func windowStd(x []float64, n int) []float64 {
	out := nanSeries(len(x))
	if n <= 1 || len(x) < n {
		return out
	}
	for i := n - 1; i < len(x); i++ {
		window := x[i-n+1 : i+1]
		mean := 0.0
		for _, v := range window {
			mean += v
		}
		mean /= float64(n)
		variance := 0.0
		for _, v := range window {
			d := v - mean
			variance += d * d
		}
		out[i] = math.Sqrt(variance / float64(n-1))
	}
	return out
}

func windowMin(x []float64, n int) []float64 {
	out := nanSeries(len(x))
	if n <= 0 || len(x) < n {
		return out
	}
	for i := n - 1; i < len(x); i++ {
		m := x[i-n+1]
		for _, v := range x[i-n+2 : i+1] {
			if v < m {
				m = v
			}
		}
		out[i] = m
	}
	return out
}

func windowMax(x []float64, n int) []float64 {
	out := nanSeries(len(x))
	if n <= 0 || len(x) < n {
		return out
	}
	for i := n - 1; i < len(x); i++ {
		m := x[i-n+1]
		for _, v := range x[i-n+2 : i+1] {
			if v > m {
				m = v
			}
		}
		out[i] = m
	}
	return out
}

func emaSeries(x []float64, n int) []float64 {
	out := nanSeries(len(x))
	alpha := 2.0 / (float64(n) + 1.0)
	prev := math.NaN()
	for i, v := range x {
		switch {
		case math.IsNaN(prev) && math.IsNaN(v):
		case math.IsNaN(prev):
			prev = v
			out[i] = v
		case math.IsNaN(v):
			out[i] = prev
		default:
			prev = prev + alpha*(v-prev)
			out[i] = prev
		}
	}
	return out
}

// shiftSeries moves values forward by n positions; vacated leading positions
// are NaN. A negative n shifts backward.
func shiftSeries(x []float64, n int) []float64 {
	out := nanSeries(len(x))
	for i := range x {
		src := i - n
		if src >= 0 && src < len(x) {
			out[i] = x[src]
		}
	}
	return out
}

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	nan := math.NaN()
	for i := range out {
		out[i] = nan
	}
	return out
}
