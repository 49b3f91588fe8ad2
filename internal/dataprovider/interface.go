// Package dataprovider fetches A-share market data from external providers.
package dataprovider

import (
	"context"

	"github.com/yourusername/quant-stock/internal/models"
)

// Provider defines the interface for fetching market data from an
// external quote service.
type Provider interface {
	// FetchKlines retrieves historical bars for one stock. limit caps the
	// number of most recent bars; limit <= 0 fetches the full history.
	FetchKlines(ctx context.Context, code string, period models.Period, limit int) (models.BarSeries, error)

	// FetchStockList retrieves the full A-share listing directory.
	FetchStockList(ctx context.Context) ([]*models.Stock, error)

	// Name returns the name of the provider
	Name() string
}

// ProviderError represents errors from provider operations
type ProviderError struct {
	Provider string // Provider name
	Code     string // Error code (e.g., "rate_limit_exceeded")
	Message  string // Error message
	Err      error  // Underlying error
}

func (e ProviderError) Error() string {
	if e.Err != nil {
		return e.Provider + ": " + e.Code + ": " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Provider + ": " + e.Code + ": " + e.Message
}

func (e ProviderError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrCodeRateLimitExceeded = "rate_limit_exceeded"
	ErrCodeNotFound          = "not_found"
	ErrCodeInvalidData       = "invalid_data"
	ErrCodeNetworkError      = "network_error"
	ErrCodeServerError       = "server_error"
)

// NewProviderError creates a new provider error
func NewProviderError(provider, code, message string, err error) ProviderError {
	return ProviderError{
		Provider: provider,
		Code:     code,
		Message:  message,
		Err:      err,
	}
}
