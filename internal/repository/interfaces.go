package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/quant-stock/internal/models"
)

// StockRepository defines the interface for stock metadata access
type StockRepository interface {
	Upsert(ctx context.Context, stock *models.Stock) error
	UpsertBatch(ctx context.Context, stocks []*models.Stock) error
	GetByCode(ctx context.Context, code string) (*models.Stock, error)
	List(ctx context.Context, keyword string, limit, offset int) ([]*models.Stock, error)
	Count(ctx context.Context, keyword string) (int, error)
	Delete(ctx context.Context, code string) error
}

// BarRepository defines the interface for historical kline data access
type BarRepository interface {
	InsertBatch(ctx context.Context, code string, period models.Period, bars []models.Bar) error
	GetRange(ctx context.Context, code string, period models.Period, start, end time.Time) (models.BarSeries, error)
	GetLatestDate(ctx context.Context, code string, period models.Period) (time.Time, error)
	DeleteRange(ctx context.Context, code string, period models.Period, start, end time.Time) error
}

// StrategyRepository defines the interface for strategy data access
type StrategyRepository interface {
	Create(ctx context.Context, strategy *models.Strategy) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Strategy, error)
	GetByName(ctx context.Context, name string) (*models.Strategy, error)
	List(ctx context.Context, activeOnly bool) ([]*models.Strategy, error)
	Update(ctx context.Context, strategy *models.Strategy) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// CustomIndicatorRepository defines the interface for user formula access
type CustomIndicatorRepository interface {
	Create(ctx context.Context, indicator *models.CustomIndicator) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.CustomIndicator, error)
	GetByName(ctx context.Context, name string) (*models.CustomIndicator, error)
	List(ctx context.Context) ([]*models.CustomIndicator, error)
	Update(ctx context.Context, indicator *models.CustomIndicator) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// BacktestResultRepository defines the interface for backtest run persistence
type BacktestResultRepository interface {
	Create(ctx context.Context, result *models.BacktestResult) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.BacktestResult, error)
	ListByStrategy(ctx context.Context, strategyID uuid.UUID, limit int) ([]*models.BacktestResult, error)
	ListRecent(ctx context.Context, limit int) ([]*models.BacktestResult, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
