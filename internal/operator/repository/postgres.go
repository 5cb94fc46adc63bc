package repository

import (
	"context"
	"database/sql"
	"errors"

	"drone-flight-tracker/internal/operator/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an operator repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the operator for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Operator, error) {
	var o domain.Operator
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM operators WHERE id = $1`, id,
	).Scan(&o.ID, &o.Name, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

// Create persists the operator. ON CONFLICT DO NOTHING keeps concurrent
// first-reference creates idempotent across ingest processes.
func (r *PostgresRepository) Create(ctx context.Context, o *domain.Operator) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO operators (id, name, created_at) VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO NOTHING`,
		o.ID, o.Name, o.CreatedAt,
	)
	return err
}
