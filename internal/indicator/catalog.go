package indicator

import (
	"fmt"
	"math"
)

// CatalogVersion identifies the supported indicator set; bump when the
// catalog below changes shape.
const CatalogVersion = "1"

// ParamSchema describes one parameter of an indicator type.
type ParamSchema struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Default     any    `json:"default"`
	Description string `json:"description"`
}

// TypeInfo describes one supported indicator type.
type TypeInfo struct {
	Type        string        `json:"type"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Outputs     []string      `json:"outputs"`
	Params      []ParamSchema `json:"params"`
}

// Catalog returns the fixed set of supported indicator types with their
// parameter schemas, in a stable order. This is part of the public contract:
// the listing endpoint surfaces it verbatim.
func Catalog() []TypeInfo {
	return []TypeInfo{
		{
			Type: "MA", Name: "Moving Average",
			Description: "Arithmetic mean of close over each period",
			Outputs:     []string{"MA{n}"},
			Params: []ParamSchema{
				{Name: "periods", Type: "[]int", Default: []int{5, 10, 20}, Description: "List of lookback periods"},
			},
		},
		{
			Type: "EMA", Name: "Exponential Moving Average",
			Description: "Exponentially weighted mean of close, smoothing 2/(n+1)",
			Outputs:     []string{"EMA{n}"},
			Params: []ParamSchema{
				{Name: "periods", Type: "[]int", Default: []int{12, 26}, Description: "List of spans"},
			},
		},
		{
			Type: "MACD", Name: "Moving Average Convergence Divergence",
			Description: "DIF = EMA(fast) - EMA(slow); DEA = EMA(DIF, signal); MACD = DIF - DEA",
			Outputs:     []string{"DIF", "DEA", "MACD"},
			Params: []ParamSchema{
				{Name: "fast_period", Type: "int", Default: 12, Description: "Fast EMA span"},
				{Name: "slow_period", Type: "int", Default: 26, Description: "Slow EMA span"},
				{Name: "signal_period", Type: "int", Default: 9, Description: "Signal EMA span"},
			},
		},
		{
			Type: "RSI", Name: "Relative Strength Index",
			Description: "100 - 100/(1 + avgGain/avgLoss) over the period, bounded to [0, 100]",
			Outputs:     []string{"RSI"},
			Params: []ParamSchema{
				{Name: "period", Type: "int", Default: 14, Description: "Lookback period"},
			},
		},
		{
			Type: "BOLL", Name: "Bollinger Bands",
			Description: "Middle band is MA(n); upper/lower are middle ± k rolling standard deviations",
			Outputs:     []string{"upper", "middle", "lower"},
			Params: []ParamSchema{
				{Name: "period", Type: "int", Default: 20, Description: "Moving average period"},
				{Name: "std_dev", Type: "float", Default: 2.0, Description: "Band width in standard deviations"},
			},
		},
		{
			Type: "KDJ", Name: "Stochastic Oscillator",
			Description: "Smoothed raw stochastic value with J = 3K - 2D",
			Outputs:     []string{"K", "D", "J"},
			Params: []ParamSchema{
				{Name: "n", Type: "int", Default: 9, Description: "RSV lookback period"},
				{Name: "m1", Type: "int", Default: 3, Description: "K smoothing period"},
				{Name: "m2", Type: "int", Default: 3, Description: "D smoothing period"},
			},
		},
		{
			Type: "CCI", Name: "Commodity Channel Index",
			Description: "(typicalPrice - SMA(tp, n)) / (0.015 * meanAbsDev(tp, n))",
			Outputs:     []string{"CCI"},
			Params: []ParamSchema{
				{Name: "period", Type: "int", Default: 14, Description: "Lookback period"},
			},
		},
		{
			Type: "ATR", Name: "Average True Range",
			Description: "Exponential mean of the true range",
			Outputs:     []string{"ATR"},
			Params: []ParamSchema{
				{Name: "period", Type: "int", Default: 14, Description: "Smoothing period"},
			},
		},
		{
			Type: "OBV", Name: "On-Balance Volume",
			Description: "Cumulative volume signed by close-to-close direction",
			Outputs:     []string{"OBV"},
			Params:      []ParamSchema{},
		},
		{
			Type: "WR", Name: "Williams %R",
			Description: "-100 * (maxHigh(n) - close) / (maxHigh(n) - minLow(n))",
			Outputs:     []string{"WR"},
			Params: []ParamSchema{
				{Name: "period", Type: "int", Default: 14, Description: "Lookback period"},
			},
		},
		{
			Type: "DMI", Name: "Directional Movement Index",
			Description: "Smoothed directional movement with ADX trend strength",
			Outputs:     []string{"PDI", "MDI", "ADX"},
			Params: []ParamSchema{
				{Name: "period", Type: "int", Default: 14, Description: "Smoothing period"},
			},
		},
		{
			Type: "VWAP", Name: "Volume Weighted Average Price",
			Description: "Cumulative sum(typicalPrice * volume) / cumulative sum(volume)",
			Outputs:     []string{"VWAP"},
			Params:      []ParamSchema{},
		},
	}
}

// Compute dispatches a calculation by indicator type with loosely typed
// parameters (as decoded from strategy JSON), returning named output series.
// Single-output indicators are keyed by their type name.
func (c *Calculator) Compute(f *Frame, indicatorType string, params map[string]any) (map[string][]float64, error) {
	switch indicatorType {
	case "MA":
		return c.MA(f, intsParam(params, "periods", []int{5, 10, 20}))
	case "EMA":
		return c.EMA(f, intsParam(params, "periods", []int{12, 26}))
	case "MACD":
		return c.MACD(f,
			intParam(params, "fast_period", 12),
			intParam(params, "slow_period", 26),
			intParam(params, "signal_period", 9))
	case "RSI":
		series, err := c.RSI(f, intParam(params, "period", 14))
		if err != nil {
			return nil, err
		}
		return map[string][]float64{"RSI": series}, nil
	case "BOLL":
		return c.BOLL(f,
			intParam(params, "period", 20),
			floatParam(params, "std_dev", 2.0))
	case "KDJ":
		return c.KDJ(f,
			intParam(params, "n", 9),
			intParam(params, "m1", 3),
			intParam(params, "m2", 3))
	case "CCI":
		series, err := c.CCI(f, intParam(params, "period", 14))
		if err != nil {
			return nil, err
		}
		return map[string][]float64{"CCI": series}, nil
	case "ATR":
		series, err := c.ATR(f, intParam(params, "period", 14))
		if err != nil {
			return nil, err
		}
		return map[string][]float64{"ATR": series}, nil
	case "OBV":
		series, err := c.OBV(f)
		if err != nil {
			return nil, err
		}
		return map[string][]float64{"OBV": series}, nil
	case "WR":
		series, err := c.WR(f, intParam(params, "period", 14))
		if err != nil {
			return nil, err
		}
		return map[string][]float64{"WR": series}, nil
	case "DMI":
		return c.DMI(f, intParam(params, "period", 14))
	case "VWAP":
		series, err := c.VWAP(f)
		if err != nil {
			return nil, err
		}
		return map[string][]float64{"VWAP": series}, nil
	default:
		return nil, errInvalidParameter(indicatorType, fmt.Sprintf("unsupported indicator type: %s", indicatorType))
	}
}

// intParam reads an integer parameter, tolerating the float64 that JSON
// decoding produces. Non-integral values fall through unrounded so the
// period validator rejects them.
func intParam(params map[string]any, key string, fallback int) int {
	raw, ok := params[key]
	if !ok {
		return fallback
	}
	switch v := raw.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		if v == math.Trunc(v) {
			return int(v)
		}
		return -1
	default:
		return -1
	}
}

func floatParam(params map[string]any, key string, fallback float64) float64 {
	raw, ok := params[key]
	if !ok {
		return fallback
	}
	switch v := raw.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return math.NaN()
	}
}

func intsParam(params map[string]any, key string, fallback []int) []int {
	raw, ok := params[key]
	if !ok {
		return fallback
	}
	switch v := raw.(type) {
	case []int:
		return v
	case []any:
		out := make([]int, 0, len(v))
		for _, item := range v {
			switch n := item.(type) {
			case int:
				out = append(out, n)
			case float64:
				if n == math.Trunc(n) {
					out = append(out, int(n))
				} else {
					out = append(out, -1)
				}
			default:
				out = append(out, -1)
			}
		}
		return out
	default:
		return nil
	}
}
