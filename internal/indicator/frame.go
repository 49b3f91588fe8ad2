package indicator

import (
	"time"

	"github.com/yourusername/quant-stock/internal/models"
)

// Column names a price/volume input series.
type Column string

// Input columns
const (
	ColOpen   Column = "open"
	ColClose  Column = "close"
	ColHigh   Column = "high"
	ColLow    Column = "low"
	ColVolume Column = "volume"
	ColAmount Column = "amount"
)

// Frame is a column-oriented view of a bar series. Calculation functions
// read from it and never mutate it, so one frame may be shared across
// concurrent calculations.
type Frame struct {
	dates   []time.Time
	columns map[Column][]float64
}

// NewFrame builds a frame from a bar series, populating all price columns.
func NewFrame(bars models.BarSeries) *Frame {
	f := &Frame{
		dates: bars.Dates(),
		columns: map[Column][]float64{
			ColOpen:   bars.Opens(),
			ColClose:  bars.Closes(),
			ColHigh:   bars.Highs(),
			ColLow:    bars.Lows(),
			ColVolume: bars.Volumes(),
		},
	}
	amounts := make([]float64, 0, len(bars))
	complete := true
	for _, b := range bars {
		if b.Amount == nil {
			complete = false
			break
		}
		amounts = append(amounts, *b.Amount)
	}
	if complete && len(bars) > 0 {
		f.columns[ColAmount] = amounts
	}
	return f
}

// NewFrameFromColumns builds a frame from raw columns, for callers that do
// not hold full bars. Missing columns cause MissingColumn failures on use.
func NewFrameFromColumns(dates []time.Time, columns map[Column][]float64) *Frame {
	cols := make(map[Column][]float64, len(columns))
	for name, series := range columns {
		cols[name] = series
	}
	return &Frame{dates: dates, columns: cols}
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	if c, ok := f.columns[ColClose]; ok {
		return len(c)
	}
	for _, series := range f.columns {
		return len(series)
	}
	return 0
}

// Dates returns the date index.
func (f *Frame) Dates() []time.Time {
	return f.dates
}

// Column returns the named column.
func (f *Frame) Column(name Column) ([]float64, bool) {
	series, ok := f.columns[name]
	return series, ok
}

// require validates presence and non-emptiness of the given columns for the
// named indicator and returns them in order.
func (f *Frame) require(indicator string, names ...Column) ([][]float64, *CalcError) {
	if f == nil || f.Len() == 0 {
		return nil, errEmptyInput(indicator)
	}
	out := make([][]float64, 0, len(names))
	for _, name := range names {
		series, ok := f.columns[name]
		if !ok {
			return nil, errMissingColumn(indicator, name)
		}
		out = append(out, series)
	}
	return out, nil
}
