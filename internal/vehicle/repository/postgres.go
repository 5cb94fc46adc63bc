package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"drone-flight-tracker/internal/vehicle/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a vehicle repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByExternalID returns the vehicle with the given external id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByExternalID(ctx context.Context, externalID string) (*domain.Vehicle, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, external_id, status, last_active_at, operator_id, created_at
		 FROM vehicles WHERE external_id = $1`, externalID)
	v, err := scanVehicle(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return v, nil
}

// Create persists the vehicle. The vehicle must have ID set; external id
// uniqueness is enforced by the schema.
func (r *PostgresRepository) Create(ctx context.Context, v *domain.Vehicle) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO vehicles (id, external_id, status, last_active_at, operator_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		v.ID, v.ExternalID, string(v.Status), timeToNullTime(v.LastActiveAt),
		stringToNullString(v.OperatorID), v.CreatedAt,
	)
	return err
}

// MarkActive sets status=active and advances last_active_at to at. GREATEST keeps
// last_active_at monotonically non-decreasing when messages are redelivered out of
// order. A non-nil operatorID relinks the operator.
func (r *PostgresRepository) MarkActive(ctx context.Context, id string, at time.Time, operatorID *string) error {
	var err error
	if operatorID != nil {
		_, err = r.db.ExecContext(ctx,
			`UPDATE vehicles
			 SET status = 'active',
			     last_active_at = GREATEST(COALESCE(last_active_at, 'epoch'::timestamptz), $2),
			     operator_id = $3
			 WHERE id = $1`,
			id, at, *operatorID)
	} else {
		_, err = r.db.ExecContext(ctx,
			`UPDATE vehicles
			 SET status = 'active',
			     last_active_at = GREATEST(COALESCE(last_active_at, 'epoch'::timestamptz), $2)
			 WHERE id = $1`,
			id, at)
	}
	return err
}

// Deactivate sets the vehicle's status to inactive. Returns an error if the update fails.
func (r *PostgresRepository) Deactivate(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE vehicles SET status = 'inactive' WHERE id = $1`, id)
	return err
}

// ListStale returns active vehicles with no activity since cutoff. Vehicles that
// were marked active but never produced a sample are included so the sweeper can
// repair them.
func (r *PostgresRepository) ListStale(ctx context.Context, cutoff time.Time) ([]*domain.Vehicle, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, external_id, status, last_active_at, operator_id, created_at
		 FROM vehicles
		 WHERE status = 'active' AND (last_active_at IS NULL OR last_active_at < $1)`,
		cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVehicle(row rowScanner) (*domain.Vehicle, error) {
	var (
		v          domain.Vehicle
		status     string
		lastActive sql.NullTime
		operatorID sql.NullString
	)
	if err := row.Scan(&v.ID, &v.ExternalID, &status, &lastActive, &operatorID, &v.CreatedAt); err != nil {
		return nil, err
	}
	v.Status = domain.Status(status)
	v.LastActiveAt = nullTimeToPtr(lastActive)
	if operatorID.Valid {
		v.OperatorID = &operatorID.String
	}
	return &v, nil
}

func timeToNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullTimeToPtr(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	return &n.Time
}

func stringToNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
