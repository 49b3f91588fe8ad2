package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/yourusername/quant-stock/internal/database"
	"github.com/yourusername/quant-stock/internal/models"
)

// PostgresBarRepository implements BarRepository for PostgreSQL
type PostgresBarRepository struct {
	db *database.DB
}

// NewPostgresBarRepository creates a new bar repository
func NewPostgresBarRepository(db *database.DB) BarRepository {
	return &PostgresBarRepository{db: db}
}

// InsertBatch upserts a batch of bars for one stock and period
func (b *PostgresBarRepository) InsertBatch(ctx context.Context, code string, period models.Period, bars []models.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	if !period.Valid() {
		return fmt.Errorf("unsupported period %q", period)
	}

	return b.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		query := `
			INSERT INTO bars (stock_code, period, trade_date, open, close, high, low, volume, amount)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (stock_code, period, trade_date) DO UPDATE SET
				open = EXCLUDED.open, close = EXCLUDED.close,
				high = EXCLUDED.high, low = EXCLUDED.low,
				volume = EXCLUDED.volume, amount = EXCLUDED.amount
		`
		batch := &pgx.Batch{}
		for _, bar := range bars {
			batch.Queue(query,
				code, period, bar.Date, bar.Open, bar.Close,
				bar.High, bar.Low, bar.Volume, bar.Amount,
			)
		}

		results := tx.SendBatch(ctx, batch)
		defer results.Close()
		for range bars {
			if _, err := results.Exec(); err != nil {
				return fmt.Errorf("failed to insert bars for %s: %w", code, err)
			}
		}
		return nil
	})
}

// GetRange retrieves bars for a stock ordered by trade date ascending
func (b *PostgresBarRepository) GetRange(ctx context.Context, code string, period models.Period, start, end time.Time) (models.BarSeries, error) {
	query := `
		SELECT trade_date, open, close, high, low, volume, amount
		FROM bars
		WHERE stock_code = $1 AND period = $2 AND trade_date >= $3 AND trade_date <= $4
		ORDER BY trade_date ASC
	`

	rows, err := b.db.GetPool().Query(ctx, query, code, period, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query bars: %w", err)
	}
	defer rows.Close()

	var bars models.BarSeries
	for rows.Next() {
		var bar models.Bar
		err := rows.Scan(
			&bar.Date, &bar.Open, &bar.Close, &bar.High, &bar.Low,
			&bar.Volume, &bar.Amount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bar: %w", err)
		}
		bars = append(bars, bar)
	}

	return bars, rows.Err()
}

// GetLatestDate returns the most recent stored trade date for a stock
func (b *PostgresBarRepository) GetLatestDate(ctx context.Context, code string, period models.Period) (time.Time, error) {
	query := `
		SELECT trade_date FROM bars
		WHERE stock_code = $1 AND period = $2
		ORDER BY trade_date DESC
		LIMIT 1
	`

	var latest time.Time
	err := b.db.GetPool().QueryRow(ctx, query, code, period).Scan(&latest)
	if err == pgx.ErrNoRows {
		return time.Time{}, models.ErrNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get latest bar date: %w", err)
	}

	return latest, nil
}

// DeleteRange removes bars for a stock within a date range
func (b *PostgresBarRepository) DeleteRange(ctx context.Context, code string, period models.Period, start, end time.Time) error {
	query := `
		DELETE FROM bars
		WHERE stock_code = $1 AND period = $2 AND trade_date >= $3 AND trade_date <= $4
	`

	if _, err := b.db.GetPool().Exec(ctx, query, code, period, start, end); err != nil {
		return fmt.Errorf("failed to delete bars: %w", err)
	}
	return nil
}
