// Package indicator computes technical indicators over OHLCV bar series.
package indicator

import (
	"errors"
	"fmt"
)

// ErrorCode classifies an indicator calculation failure.
type ErrorCode string

// Calculation error codes
const (
	CodeEmptyInput       ErrorCode = "empty_input"
	CodeMissingColumn    ErrorCode = "missing_column"
	CodeInvalidParameter ErrorCode = "invalid_parameter"
	CodeInsufficientData ErrorCode = "insufficient_data"
	CodeCalculation      ErrorCode = "calculation_failed"
)

// CalcError is a typed indicator calculation failure. It carries the failing
// indicator's identity and the violated precondition so the caller can
// reproduce the condition; the engine never substitutes fallback values.
type CalcError struct {
	Indicator string
	Code      ErrorCode
	Message   string
	Required  int
	Actual    int
	Err       error
}

// Error implements the error interface.
func (e *CalcError) Error() string {
	if e.Indicator == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Indicator, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *CalcError) Unwrap() error {
	return e.Err
}

// IsCode reports whether err is a CalcError with the given code.
func IsCode(err error, code ErrorCode) bool {
	var calcErr *CalcError
	if errors.As(err, &calcErr) {
		return calcErr.Code == code
	}
	return false
}

func errEmptyInput(indicator string) *CalcError {
	return &CalcError{
		Indicator: indicator,
		Code:      CodeEmptyInput,
		Message:   "input data is empty",
	}
}

func errMissingColumn(indicator string, column Column) *CalcError {
	return &CalcError{
		Indicator: indicator,
		Code:      CodeMissingColumn,
		Message:   fmt.Sprintf("missing required column: %s", column),
	}
}

func errInvalidParameter(indicator, message string) *CalcError {
	return &CalcError{
		Indicator: indicator,
		Code:      CodeInvalidParameter,
		Message:   message,
	}
}

func errInsufficientData(indicator string, required, actual int) *CalcError {
	return &CalcError{
		Indicator: indicator,
		Code:      CodeInsufficientData,
		Message:   fmt.Sprintf("requires at least %d data points, got %d", required, actual),
		Required:  required,
		Actual:    actual,
	}
}
