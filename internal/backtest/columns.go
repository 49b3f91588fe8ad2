package backtest

import (
	"fmt"
	"math"
	"sort"

	"github.com/yourusername/quant-stock/internal/models"
)

// ColumnSet holds the named float series a strategy's conditions can
// reference: the raw price columns plus every computed indicator
// output. All series share the bar-index axis.
type ColumnSet struct {
	length  int
	columns map[string][]float64
}

func newColumnSet(length int) *ColumnSet {
	return &ColumnSet{length: length, columns: make(map[string][]float64)}
}

// Add registers a series under name. Re-adding a name replaces the
// previous series, matching how indicator outputs are assigned.
func (cs *ColumnSet) Add(name string, series []float64) error {
	if len(series) != cs.length {
		return fmt.Errorf("column %s has length %d, want %d", name, len(series), cs.length)
	}
	cs.columns[name] = series
	return nil
}

// Get returns the series registered under name.
func (cs *ColumnSet) Get(name string) ([]float64, bool) {
	series, ok := cs.columns[name]
	return series, ok
}

// Names returns the registered column names in sorted order.
func (cs *ColumnSet) Names() []string {
	names := make([]string, 0, len(cs.columns))
	for name := range cs.columns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// boundCondition is a condition resolved against a ColumnSet. Both
// sides are bound to concrete series (or a literal) before the replay
// starts, so unknown references fail the whole run up front instead
// of surfacing mid-walk.
type boundCondition struct {
	indicator string
	op        models.Operator
	action    models.TradeAction
	left      []float64
	right     []float64
	literal   float64
}

func bindConditions(conditions []models.Condition, cs *ColumnSet) ([]boundCondition, error) {
	bound := make([]boundCondition, 0, len(conditions))
	for i, cond := range conditions {
		left, ok := cs.Get(cond.Indicator)
		if !ok {
			return nil, fmt.Errorf("condition %d references unknown column %q", i, cond.Indicator)
		}
		bc := boundCondition{
			indicator: cond.Indicator,
			op:        cond.Operator,
			action:    cond.Action,
			left:      left,
		}
		if cond.Value.IsName {
			right, ok := cs.Get(cond.Value.Name)
			if !ok {
				return nil, fmt.Errorf("condition %d references unknown column %q", i, cond.Value.Name)
			}
			bc.right = right
		} else {
			literal, err := cond.Value.AsLiteral()
			if err != nil {
				return nil, fmt.Errorf("condition %d: %w", i, err)
			}
			bc.literal = literal
		}
		bound = append(bound, bc)
	}
	return bound, nil
}

func (b boundCondition) rightAt(i int) float64 {
	if b.right != nil {
		return b.right[i]
	}
	return b.literal
}

// evalAt evaluates the condition at bar i. defined is false when any
// operand the operator needs is NaN or out of range, in which case
// the condition is dropped from its conjunction for that bar.
func (b boundCondition) evalAt(i int) (fired, defined bool) {
	switch b.op {
	case models.OpCrossUp, models.OpCrossDown:
		if i == 0 {
			return false, false
		}
		lv, lp := b.left[i], b.left[i-1]
		rv, rp := b.rightAt(i), b.rightAt(i-1)
		if math.IsNaN(lv) || math.IsNaN(lp) || math.IsNaN(rv) || math.IsNaN(rp) {
			return false, false
		}
		if b.op == models.OpCrossUp {
			return lp <= rp && lv > rv, true
		}
		return lp >= rp && lv < rv, true
	default:
		lv, rv := b.left[i], b.rightAt(i)
		if math.IsNaN(lv) || math.IsNaN(rv) {
			return false, false
		}
		switch b.op {
		case models.OpGreater:
			return lv > rv, true
		case models.OpLess:
			return lv < rv, true
		case models.OpGreaterEqual:
			return lv >= rv, true
		case models.OpLessEqual:
			return lv <= rv, true
		case models.OpEqual:
			return lv == rv, true
		}
		return false, false
	}
}
