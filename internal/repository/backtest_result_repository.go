package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/yourusername/quant-stock/internal/database"
	"github.com/yourusername/quant-stock/internal/models"
)

// PostgresBacktestResultRepository implements BacktestResultRepository for PostgreSQL
type PostgresBacktestResultRepository struct {
	db *database.DB
}

// NewPostgresBacktestResultRepository creates a new backtest result repository
func NewPostgresBacktestResultRepository(db *database.DB) BacktestResultRepository {
	return &PostgresBacktestResultRepository{db: db}
}

const backtestResultColumns = `
	id, strategy_id, stock_code, period, run_date, start_date, end_date,
	initial_capital, final_capital, total_return, annual_return,
	sharpe_ratio, max_drawdown, win_rate, total_trades, full_results, created_at
`

// Create inserts a backtest run record
func (b *PostgresBacktestResultRepository) Create(ctx context.Context, result *models.BacktestResult) error {
	query := `
		INSERT INTO backtest_results (
			id, strategy_id, stock_code, period, run_date, start_date, end_date,
			initial_capital, final_capital, total_return, annual_return,
			sharpe_ratio, max_drawdown, win_rate, total_trades, full_results
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := b.db.GetPool().Exec(ctx, query,
		result.ID, result.StrategyID, result.StockCode, result.Period,
		result.RunDate, result.StartDate, result.EndDate,
		result.InitialCapital, result.FinalCapital, result.TotalReturn, result.AnnualReturn,
		result.SharpeRatio, result.MaxDrawdown, result.WinRate, result.TotalTrades,
		result.FullResults,
	)
	if err != nil {
		return fmt.Errorf("failed to create backtest result: %w", err)
	}

	return nil
}

func scanBacktestResult(row pgx.Row) (*models.BacktestResult, error) {
	result := &models.BacktestResult{}
	err := row.Scan(
		&result.ID, &result.StrategyID, &result.StockCode, &result.Period,
		&result.RunDate, &result.StartDate, &result.EndDate,
		&result.InitialCapital, &result.FinalCapital, &result.TotalReturn, &result.AnnualReturn,
		&result.SharpeRatio, &result.MaxDrawdown, &result.WinRate, &result.TotalTrades,
		&result.FullResults, &result.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan backtest result: %w", err)
	}
	return result, nil
}

// GetByID retrieves a backtest run by ID
func (b *PostgresBacktestResultRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.BacktestResult, error) {
	query := `SELECT ` + backtestResultColumns + ` FROM backtest_results WHERE id = $1`
	return scanBacktestResult(b.db.GetPool().QueryRow(ctx, query, id))
}

// ListByStrategy retrieves recent runs for one strategy
func (b *PostgresBacktestResultRepository) ListByStrategy(ctx context.Context, strategyID uuid.UUID, limit int) ([]*models.BacktestResult, error) {
	query := `
		SELECT ` + backtestResultColumns + `
		FROM backtest_results
		WHERE strategy_id = $1
		ORDER BY run_date DESC
		LIMIT $2
	`

	rows, err := b.db.GetPool().Query(ctx, query, strategyID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query backtest results: %w", err)
	}
	defer rows.Close()

	return collectBacktestResults(rows)
}

// ListRecent retrieves the most recent runs across all strategies
func (b *PostgresBacktestResultRepository) ListRecent(ctx context.Context, limit int) ([]*models.BacktestResult, error) {
	query := `
		SELECT ` + backtestResultColumns + `
		FROM backtest_results
		ORDER BY run_date DESC
		LIMIT $1
	`

	rows, err := b.db.GetPool().Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query backtest results: %w", err)
	}
	defer rows.Close()

	return collectBacktestResults(rows)
}

func collectBacktestResults(rows pgx.Rows) ([]*models.BacktestResult, error) {
	var results []*models.BacktestResult
	for rows.Next() {
		result, err := scanBacktestResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

// Delete removes a backtest run record
func (b *PostgresBacktestResultRepository) Delete(ctx context.Context, id uuid.UUID) error {
	commandTag, err := b.db.GetPool().Exec(ctx, `DELETE FROM backtest_results WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete backtest result: %w", err)
	}
	if commandTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}
