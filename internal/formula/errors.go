// Package formula parses and evaluates user-defined indicator expressions
// over named price series using a closed grammar and a fixed function set.
package formula

import "fmt"

// FormulaError is a typed failure from formula validation or evaluation.
// It carries the offending formula; partial results are never returned.
type FormulaError struct {
	Formula string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *FormulaError) Error() string {
	return fmt.Sprintf("formula %q: %s", e.Formula, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *FormulaError) Unwrap() error {
	return e.Err
}

func newFormulaError(formula, message string, err error) *FormulaError {
	return &FormulaError{Formula: formula, Message: message, Err: err}
}
