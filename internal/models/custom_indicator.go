package models

import (
	"time"

	"github.com/google/uuid"
)

// CustomIndicator represents a persisted user-defined formula indicator.
type CustomIndicator struct {
	ID          uuid.UUID          `db:"id" json:"id"`
	Name        string             `db:"name" json:"name" validate:"required,min=1,max=255"`
	Description string             `db:"description" json:"description"`
	Formula     string             `db:"formula" json:"formula" validate:"required"`
	Params      map[string]float64 `db:"params" json:"params,omitempty"`
	CreatedAt   time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `db:"updated_at" json:"updated_at"`
}

// Validate performs basic validation on the custom indicator.
func (c *CustomIndicator) Validate() error {
	if c.Name == "" {
		return ErrIndicatorNameRequired
	}
	if c.Formula == "" {
		return ErrFormulaRequired
	}
	return nil
}
