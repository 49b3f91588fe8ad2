package formula

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/quant-stock/internal/models"
)

// Patterns that would have been dangerous in the legacy string-evaluated
// engine. The closed grammar already makes them unparseable, but rejecting
// them up front keeps the error messages stable for formulas ported over.
var dangerousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)__\w+__`),
	regexp.MustCompile(`(?i)import\s`),
	regexp.MustCompile(`(?i)exec\s*\(`),
	regexp.MustCompile(`(?i)eval\s*\(`),
	regexp.MustCompile(`(?i)open\s*\(`),
	regexp.MustCompile(`(?i)compile\s*\(`),
}

// Engine validates and evaluates custom indicator formulas.
type Engine struct {
	logger *logrus.Logger
}

// NewEngine creates a formula engine.
func NewEngine(logger *logrus.Logger) *Engine {
	if logger == nil {
		logger = logrus.New()
	}
	return &Engine{logger: logger}
}

// ValidationResult reports whether a formula is acceptable and why not.
type ValidationResult struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

// Validate syntax-checks a formula without evaluating it. It rejects
// denylisted patterns, lex/parse failures, and calls to functions outside
// the fixed library.
func (e *Engine) Validate(formula string) ValidationResult {
	if pattern := matchDangerous(formula); pattern != "" {
		return ValidationResult{
			Valid:   false,
			Message: fmt.Sprintf("formula contains a disallowed operation: %s", pattern),
		}
	}
	root, err := parse(formula)
	if err != nil {
		return ValidationResult{Valid: false, Message: fmt.Sprintf("syntax error: %v", err)}
	}
	if err := checkCalls(root); err != nil {
		return ValidationResult{Valid: false, Message: err.Error()}
	}
	return ValidationResult{Valid: true, Message: "formula syntax is valid"}
}

// Evaluate computes a formula over a bar series with caller-supplied scalar
// parameters, returning one series aligned with the bars. Comparison and
// cross results are 1/0 series. Any failure is a FormulaError; partial
// results are never returned.
func (e *Engine) Evaluate(formula string, bars models.BarSeries, params map[string]float64) ([]float64, error) {
	if len(bars) == 0 {
		return nil, newFormulaError(formula, "input data is empty", nil)
	}
	if pattern := matchDangerous(formula); pattern != "" {
		return nil, newFormulaError(formula,
			fmt.Sprintf("formula contains a disallowed operation: %s", pattern), nil)
	}
	root, err := parse(formula)
	if err != nil {
		return nil, newFormulaError(formula, fmt.Sprintf("syntax error: %v", err), err)
	}
	if err := checkCalls(root); err != nil {
		return nil, newFormulaError(formula, err.Error(), err)
	}

	ev := &evaluator{
		n: len(bars),
		series: map[string][]float64{
			"open":   bars.Opens(),
			"close":  bars.Closes(),
			"high":   bars.Highs(),
			"low":    bars.Lows(),
			"volume": bars.Volumes(),
		},
		params: params,
	}
	result, err := ev.eval(root)
	if err != nil {
		e.logger.WithFields(logrus.Fields{"formula": formula}).WithError(err).Error("Formula evaluation failed")
		return nil, newFormulaError(formula, err.Error(), err)
	}
	return result.materialize(ev.n), nil
}

func matchDangerous(formula string) string {
	for _, pattern := range dangerousPatterns {
		if pattern.MatchString(formula) {
			return pattern.String()
		}
	}
	return ""
}

// checkCalls verifies every call targets a known function with the right
// argument count before any evaluation happens.
func checkCalls(nd node) error {
	switch n := nd.(type) {
	case callNode:
		spec, ok := functions[strings.ToLower(n.Name)]
		if !ok {
			return fmt.Errorf("unknown function: %s", n.Name)
		}
		if len(n.Args) != spec.arity {
			return fmt.Errorf("function %s expects %d arguments, got %d", n.Name, spec.arity, len(n.Args))
		}
		for _, arg := range n.Args {
			if err := checkCalls(arg); err != nil {
				return err
			}
		}
	case unaryNode:
		return checkCalls(n.Operand)
	case binaryNode:
		if err := checkCalls(n.Left); err != nil {
			return err
		}
		return checkCalls(n.Right)
	}
	return nil
}

// value is a scalar or a series produced during evaluation.
type value struct {
	scalar float64
	series []float64
}

func scalarValue(v float64) value {
	return value{scalar: v}
}

func seriesValue(s []float64) value {
	return value{series: s}
}

func (v value) isSeries() bool {
	return v.series != nil
}

func (v value) materialize(n int) []float64 {
	if v.isSeries() {
		return v.series
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = v.scalar
	}
	return out
}

type evaluator struct {
	n      int
	series map[string][]float64
	params map[string]float64
}

func (ev *evaluator) eval(nd node) (value, error) {
	switch n := nd.(type) {
	case numberNode:
		return scalarValue(n.Value), nil
	case identNode:
		return ev.resolve(n.Name)
	case unaryNode:
		operand, err := ev.eval(n.Operand)
		if err != nil {
			return value{}, err
		}
		return ev.apply1(operand, func(x float64) float64 { return -x }), nil
	case binaryNode:
		left, err := ev.eval(n.Left)
		if err != nil {
			return value{}, err
		}
		right, err := ev.eval(n.Right)
		if err != nil {
			return value{}, err
		}
		return ev.applyBinary(n.Op, left, right)
	case callNode:
		spec := functions[strings.ToLower(n.Name)]
		args := make([]value, len(n.Args))
		for i, argNode := range n.Args {
			arg, err := ev.eval(argNode)
			if err != nil {
				return value{}, err
			}
			args[i] = arg
		}
		return spec.apply(ev, n.Name, args)
	default:
		return value{}, fmt.Errorf("unsupported expression node %T", nd)
	}
}

func (ev *evaluator) resolve(name string) (value, error) {
	if series, ok := ev.series[strings.ToLower(name)]; ok {
		return seriesValue(series), nil
	}
	if param, ok := ev.params[name]; ok {
		return scalarValue(param), nil
	}
	return value{}, fmt.Errorf("unknown identifier: %s", name)
}

func (ev *evaluator) apply1(v value, fn func(float64) float64) value {
	if !v.isSeries() {
		return scalarValue(fn(v.scalar))
	}
	out := make([]float64, len(v.series))
	for i, x := range v.series {
		out[i] = fn(x)
	}
	return seriesValue(out)
}

func (ev *evaluator) applyBinary(op tokenKind, left, right value) (value, error) {
	fn, ok := binaryOps[op]
	if !ok {
		return value{}, fmt.Errorf("unsupported operator")
	}
	if !left.isSeries() && !right.isSeries() {
		return scalarValue(fn(left.scalar, right.scalar)), nil
	}
	l := left.materialize(ev.n)
	r := right.materialize(ev.n)
	if len(l) != len(r) {
		return value{}, fmt.Errorf("series length mismatch: %d vs %d", len(l), len(r))
	}
	out := make([]float64, len(l))
	for i := range l {
		out[i] = fn(l[i], r[i])
	}
	return seriesValue(out), nil
}

var binaryOps = map[tokenKind]func(a, b float64) float64{
	tokPlus:  func(a, b float64) float64 { return a + b },
	tokMinus: func(a, b float64) float64 { return a - b },
	tokStar:  func(a, b float64) float64 { return a * b },
	tokSlash: func(a, b float64) float64 {
		if b == 0 {
			return math.NaN()
		}
		return a / b
	},
	tokGreater:      boolOp(func(a, b float64) bool { return a > b }),
	tokLess:         boolOp(func(a, b float64) bool { return a < b }),
	tokGreaterEqual: boolOp(func(a, b float64) bool { return a >= b }),
	tokLessEqual:    boolOp(func(a, b float64) bool { return a <= b }),
	tokEqual:        boolOp(func(a, b float64) bool { return a == b }),
	tokNotEqual:     boolOp(func(a, b float64) bool { return a != b }),
}

// boolOp lifts a comparison into a 1/0 numeric result. NaN operands compare
// false, matching the skip-undefined convention used everywhere else.
func boolOp(cmp func(a, b float64) bool) func(a, b float64) float64 {
	return func(a, b float64) float64 {
		if math.IsNaN(a) || math.IsNaN(b) {
			return 0
		}
		if cmp(a, b) {
			return 1
		}
		return 0
	}
}
