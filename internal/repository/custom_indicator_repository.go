package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/yourusername/quant-stock/internal/database"
	"github.com/yourusername/quant-stock/internal/models"
)

// PostgresCustomIndicatorRepository implements CustomIndicatorRepository for PostgreSQL
type PostgresCustomIndicatorRepository struct {
	db *database.DB
}

// NewPostgresCustomIndicatorRepository creates a new custom indicator repository
func NewPostgresCustomIndicatorRepository(db *database.DB) CustomIndicatorRepository {
	return &PostgresCustomIndicatorRepository{db: db}
}

// Create inserts a new custom indicator
func (c *PostgresCustomIndicatorRepository) Create(ctx context.Context, indicator *models.CustomIndicator) error {
	if err := indicator.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO custom_indicators (id, name, description, formula, params)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := c.db.GetPool().Exec(ctx, query,
		indicator.ID, indicator.Name, indicator.Description, indicator.Formula, indicator.Params,
	)
	if err != nil {
		return fmt.Errorf("failed to create custom indicator: %w", err)
	}

	return nil
}

// GetByID retrieves a custom indicator by ID
func (c *PostgresCustomIndicatorRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.CustomIndicator, error) {
	query := `
		SELECT id, name, description, formula, params, created_at, updated_at
		FROM custom_indicators WHERE id = $1
	`

	indicator := &models.CustomIndicator{}
	err := c.db.GetPool().QueryRow(ctx, query, id).Scan(
		&indicator.ID, &indicator.Name, &indicator.Description, &indicator.Formula,
		&indicator.Params, &indicator.CreatedAt, &indicator.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get custom indicator: %w", err)
	}

	return indicator, nil
}

// GetByName retrieves a custom indicator by name
func (c *PostgresCustomIndicatorRepository) GetByName(ctx context.Context, name string) (*models.CustomIndicator, error) {
	query := `
		SELECT id, name, description, formula, params, created_at, updated_at
		FROM custom_indicators
		WHERE name = $1
		LIMIT 1
	`

	indicator := &models.CustomIndicator{}
	err := c.db.GetPool().QueryRow(ctx, query, name).Scan(
		&indicator.ID, &indicator.Name, &indicator.Description, &indicator.Formula,
		&indicator.Params, &indicator.CreatedAt, &indicator.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get custom indicator by name: %w", err)
	}

	return indicator, nil
}

// List retrieves all custom indicators ordered by name
func (c *PostgresCustomIndicatorRepository) List(ctx context.Context) ([]*models.CustomIndicator, error) {
	query := `
		SELECT id, name, description, formula, params, created_at, updated_at
		FROM custom_indicators
		ORDER BY name ASC
	`

	rows, err := c.db.GetPool().Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query custom indicators: %w", err)
	}
	defer rows.Close()

	var indicators []*models.CustomIndicator
	for rows.Next() {
		indicator := &models.CustomIndicator{}
		err := rows.Scan(
			&indicator.ID, &indicator.Name, &indicator.Description, &indicator.Formula,
			&indicator.Params, &indicator.CreatedAt, &indicator.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan custom indicator: %w", err)
		}
		indicators = append(indicators, indicator)
	}

	return indicators, rows.Err()
}

// Update updates an existing custom indicator
func (c *PostgresCustomIndicatorRepository) Update(ctx context.Context, indicator *models.CustomIndicator) error {
	if err := indicator.Validate(); err != nil {
		return err
	}

	query := `
		UPDATE custom_indicators SET
			name = $2, description = $3, formula = $4, params = $5, updated_at = NOW()
		WHERE id = $1
	`

	commandTag, err := c.db.GetPool().Exec(ctx, query,
		indicator.ID, indicator.Name, indicator.Description, indicator.Formula, indicator.Params,
	)
	if err != nil {
		return fmt.Errorf("failed to update custom indicator: %w", err)
	}
	if commandTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// Delete removes a custom indicator
func (c *PostgresCustomIndicatorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	commandTag, err := c.db.GetPool().Exec(ctx, `DELETE FROM custom_indicators WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete custom indicator: %w", err)
	}
	if commandTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}
