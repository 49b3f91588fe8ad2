package indicator

import "math"

// Rolling-window primitives shared by the calculation functions. All of them
// return freshly allocated slices aligned 1:1 with the input; positions with
// insufficient history are NaN.

func rollingSum(x []float64, n int) []float64 {
	out := nanSlice(len(x))
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

func rollingMean(x []float64, n int) []float64 {
	out := rollingSum(x, n)
	for i := range out {
		if !math.IsNaN(out[i]) {
			out[i] /= float64(n)
		}
	}
	return out
}

// rollingStd is the sample standard deviation (ddof=1) over each window.
func rollingStd(x []float64, n int) []float64 {
	out := nanSlice(len(x))
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

func rollingMin(x []float64, n int) []float64 {
	out := nanSlice(len(x))
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

func rollingMax(x []float64, n int) []float64 {
	out := nanSlice(len(x))
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

// rollingMeanAbsDev is the mean absolute deviation around each window's mean.
func rollingMeanAbsDev(x []float64, n int) []float64 {
	out := nanSlice(len(x))
	if n <= 0 || len(x) < n {
		return out
	}
	for i := n - 1; i < len(x); i++ {
		window := x[i-n+1 : i+1]
		mean := 0.0
		for _, v := range window {
			mean += v
		}
		mean /= float64(n)
		dev := 0.0
		for _, v := range window {
			dev += math.Abs(v - mean)
		}
		out[i] = dev / float64(n)
	}
	return out
}

// ewmAlpha is an exponentially weighted mean with the given smoothing factor,
// seeded from the first finite value with no warm-up truncation. Leading NaN
// inputs stay NaN; later NaN inputs carry the previous value forward.
func ewmAlpha(x []float64, alpha float64) []float64 {
	out := nanSlice(len(x))
	prev := math.NaN()
	for i, v := range x {
		switch {
		case math.IsNaN(prev) && math.IsNaN(v):
			// still before the seed
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

// ewmSpan is ewmAlpha with alpha derived from a span: alpha = 2/(span+1).
func ewmSpan(x []float64, span int) []float64 {
	return ewmAlpha(x, 2.0/(float64(span)+1.0))
}

// diff is the first difference; the first output is NaN.
func diff(x []float64) []float64 {
	out := nanSlice(len(x))
	for i := 1; i < len(x); i++ {
		out[i] = x[i] - x[i-1]
	}
	return out
}

func cumsum(x []float64) []float64 {
	out := make([]float64, len(x))
	sum := 0.0
	for i, v := range x {
		sum += v
		out[i] = sum
	}
	return out
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	nan := math.NaN()
	for i := range out {
		out[i] = nan
	}
	return out
}
