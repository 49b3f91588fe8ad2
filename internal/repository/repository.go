package repository

import (
	"fmt"

	"github.com/yourusername/quant-stock/internal/database"
)

// Repositories holds all repository implementations
type Repositories struct {
	Stock           StockRepository
	Bar             BarRepository
	Strategy        StrategyRepository
	CustomIndicator CustomIndicatorRepository
	BacktestResult  BacktestResultRepository
}

// NewRepositories creates and returns all repository implementations
func NewRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		Stock:           NewPostgresStockRepository(db),
		Bar:             NewPostgresBarRepository(db),
		Strategy:        NewPostgresStrategyRepository(db),
		CustomIndicator: NewPostgresCustomIndicatorRepository(db),
		BacktestResult:  NewPostgresBacktestResultRepository(db),
	}, nil
}
