package models

import "errors"

// Custom errors
var (
	ErrStrategyNameRequired  = errors.New("strategy name is required")
	ErrIndicatorNameRequired = errors.New("indicator name is required")
	ErrFormulaRequired       = errors.New("indicator formula is required")
	ErrNotFound              = errors.New("record not found")
	ErrDuplicateKey          = errors.New("duplicate key violation")
	ErrInvalidID             = errors.New("invalid ID format")
)
