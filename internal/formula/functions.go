package formula

import (
	"fmt"
	"math"
)

type funcSpec struct {
	arity int
	apply func(ev *evaluator, name string, args []value) (value, error)
}

// functions is the fixed allow-listed library. Names are matched
// case-insensitively; there is no way to call anything else.
var functions map[string]funcSpec

func init() {
	functions = map[string]funcSpec{
		"sum":  windowFunc(windowSum),
		"avg":  windowFunc(windowMean),
		"mean": windowFunc(windowMean),
		"max":  windowFunc(windowMax),
		"min":  windowFunc(windowMin),
		"std":  windowFunc(windowStd),
		"ema":  windowFunc(emaSeries),
		"sma":  windowFunc(windowMean),
		"ref":  {arity: 2, apply: applyRef},

		"cross":      {arity: 2, apply: applyCrossUp},
		"cross_up":   {arity: 2, apply: applyCrossUp},
		"cross_down": {arity: 2, apply: applyCrossDown},

		"abs":  elementwiseFunc(math.Abs),
		"sqrt": elementwiseFunc(math.Sqrt),
		"log":  elementwiseFunc(math.Log),
		"exp":  elementwiseFunc(math.Exp),
		"pow":  {arity: 2, apply: applyPow},
	}
}

func windowFunc(fn func([]float64, int) []float64) funcSpec {
	return funcSpec{
		arity: 2,
		apply: func(ev *evaluator, name string, args []value) (value, error) {
			series, err := seriesArg(name, args[0])
			if err != nil {
				return value{}, err
			}
			n, err := windowArg(name, args[1])
			if err != nil {
				return value{}, err
			}
			return seriesValue(fn(series, n)), nil
		},
	}
}

func elementwiseFunc(fn func(float64) float64) funcSpec {
	return funcSpec{
		arity: 1,
		apply: func(ev *evaluator, name string, args []value) (value, error) {
			return ev.apply1(args[0], fn), nil
		},
	}
}

func applyRef(ev *evaluator, name string, args []value) (value, error) {
	series, err := seriesArg(name, args[0])
	if err != nil {
		return value{}, err
	}
	if args[1].isSeries() {
		return value{}, fmt.Errorf("function %s expects a scalar shift", name)
	}
	shift := args[1].scalar
	if shift != math.Trunc(shift) {
		return value{}, fmt.Errorf("function %s expects an integer shift, got %v", name, shift)
	}
	return seriesValue(shiftSeries(series, int(shift))), nil
}

func applyCrossUp(ev *evaluator, name string, args []value) (value, error) {
	return applyCross(ev, name, args, true)
}

func applyCrossDown(ev *evaluator, name string, args []value) (value, error) {
	return applyCross(ev, name, args, false)
}

// applyCross detects the bar where series a moves to the other side of
// series b relative to the previous bar. Bars with undefined operands on
// either side of the crossing never fire.
func applyCross(ev *evaluator, name string, args []value, up bool) (value, error) {
	a := args[0].materialize(ev.n)
	b := args[1].materialize(ev.n)
	if len(a) != len(b) {
		return value{}, fmt.Errorf("function %s: series length mismatch", name)
	}
	out := make([]float64, len(a))
	for i := 1; i < len(a); i++ {
		if anyNaN(a[i], b[i], a[i-1], b[i-1]) {
			continue
		}
		var fired bool
		if up {
			fired = a[i] > b[i] && a[i-1] <= b[i-1]
		} else {
			fired = a[i] < b[i] && a[i-1] >= b[i-1]
		}
		if fired {
			out[i] = 1
		}
	}
	return seriesValue(out), nil
}

func applyPow(ev *evaluator, name string, args []value) (value, error) {
	if !args[0].isSeries() && !args[1].isSeries() {
		return scalarValue(math.Pow(args[0].scalar, args[1].scalar)), nil
	}
	a := args[0].materialize(ev.n)
	b := args[1].materialize(ev.n)
	if len(a) != len(b) {
		return value{}, fmt.Errorf("function %s: series length mismatch", name)
	}
	out := make([]float64, len(a))
	for i := range a {
		out[i] = math.Pow(a[i], b[i])
	}
	return seriesValue(out), nil
}

func seriesArg(name string, v value) ([]float64, error) {
	if !v.isSeries() {
		return nil, fmt.Errorf("function %s expects a series argument", name)
	}
	return v.series, nil
}

func windowArg(name string, v value) (int, error) {
	if v.isSeries() {
		return 0, fmt.Errorf("function %s expects a scalar window size", name)
	}
	n := v.scalar
	if n != math.Trunc(n) || n <= 0 {
		return 0, fmt.Errorf("function %s expects a positive integer window, got %v", name, n)
	}
	return int(n), nil
}

func anyNaN(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}
