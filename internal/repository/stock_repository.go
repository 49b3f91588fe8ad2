package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/yourusername/quant-stock/internal/database"
	"github.com/yourusername/quant-stock/internal/models"
)

// PostgresStockRepository implements StockRepository for PostgreSQL
type PostgresStockRepository struct {
	db *database.DB
}

// NewPostgresStockRepository creates a new stock repository
func NewPostgresStockRepository(db *database.DB) StockRepository {
	return &PostgresStockRepository{db: db}
}

// Upsert inserts or updates a stock listing
func (s *PostgresStockRepository) Upsert(ctx context.Context, stock *models.Stock) error {
	query := `
		INSERT INTO stocks (code, name, exchange, industry)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (code) DO UPDATE SET
			name = EXCLUDED.name, exchange = EXCLUDED.exchange,
			industry = EXCLUDED.industry, updated_at = NOW()
	`

	_, err := s.db.GetPool().Exec(ctx, query,
		stock.Code, stock.Name, stock.Exchange, stock.Industry,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert stock: %w", err)
	}

	return nil
}

// UpsertBatch upserts stocks inside a single transaction
func (s *PostgresStockRepository) UpsertBatch(ctx context.Context, stocks []*models.Stock) error {
	if len(stocks) == 0 {
		return nil
	}

	return s.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		query := `
			INSERT INTO stocks (code, name, exchange, industry)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (code) DO UPDATE SET
				name = EXCLUDED.name, exchange = EXCLUDED.exchange,
				industry = EXCLUDED.industry, updated_at = NOW()
		`
		for _, stock := range stocks {
			if _, err := tx.Exec(ctx, query,
				stock.Code, stock.Name, stock.Exchange, stock.Industry,
			); err != nil {
				return fmt.Errorf("failed to upsert stock %s: %w", stock.Code, err)
			}
		}
		return nil
	})
}

// GetByCode retrieves a stock by its exchange code
func (s *PostgresStockRepository) GetByCode(ctx context.Context, code string) (*models.Stock, error) {
	query := `
		SELECT code, name, exchange, industry, created_at, updated_at
		FROM stocks WHERE code = $1
	`

	stock := &models.Stock{}
	err := s.db.GetPool().QueryRow(ctx, query, code).Scan(
		&stock.Code, &stock.Name, &stock.Exchange, &stock.Industry,
		&stock.CreatedAt, &stock.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stock: %w", err)
	}

	return stock, nil
}

// List retrieves stocks matching an optional keyword against code or name
func (s *PostgresStockRepository) List(ctx context.Context, keyword string, limit, offset int) ([]*models.Stock, error) {
	query := `
		SELECT code, name, exchange, industry, created_at, updated_at
		FROM stocks
		WHERE $1 = '' OR code ILIKE '%' || $1 || '%' OR name ILIKE '%' || $1 || '%'
		ORDER BY code ASC
		LIMIT $2 OFFSET $3
	`

	rows, err := s.db.GetPool().Query(ctx, query, keyword, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query stocks: %w", err)
	}
	defer rows.Close()

	var stocks []*models.Stock
	for rows.Next() {
		stock := &models.Stock{}
		err := rows.Scan(
			&stock.Code, &stock.Name, &stock.Exchange, &stock.Industry,
			&stock.CreatedAt, &stock.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stock: %w", err)
		}
		stocks = append(stocks, stock)
	}

	return stocks, rows.Err()
}

// Count returns the number of stocks matching the keyword
func (s *PostgresStockRepository) Count(ctx context.Context, keyword string) (int, error) {
	query := `
		SELECT COUNT(*) FROM stocks
		WHERE $1 = '' OR code ILIKE '%' || $1 || '%' OR name ILIKE '%' || $1 || '%'
	`

	var count int
	if err := s.db.GetPool().QueryRow(ctx, query, keyword).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count stocks: %w", err)
	}
	return count, nil
}

// Delete removes a stock listing
func (s *PostgresStockRepository) Delete(ctx context.Context, code string) error {
	commandTag, err := s.db.GetPool().Exec(ctx, `DELETE FROM stocks WHERE code = $1`, code)
	if err != nil {
		return fmt.Errorf("failed to delete stock: %w", err)
	}
	if commandTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
