package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"drone-flight-tracker/internal/flight/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a flight repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetActiveByVehicle returns the open session for the vehicle, or nil if none.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetActiveByVehicle(ctx context.Context, vehicleID string) (*domain.Session, error) {
	var (
		s     domain.Session
		ended sql.NullTime
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, vehicle_id, started_at, ended_at, is_active
		 FROM flight_sessions WHERE vehicle_id = $1 AND is_active`, vehicleID,
	).Scan(&s.ID, &s.VehicleID, &s.StartedAt, &ended, &s.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if ended.Valid {
		s.EndedAt = &ended.Time
	}
	return &s, nil
}

// CreateSession persists the session. The session must have ID set. The partial
// unique index on (vehicle_id) WHERE is_active rejects a second open session.
func (r *PostgresRepository) CreateSession(ctx context.Context, s *domain.Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO flight_sessions (id, vehicle_id, started_at, ended_at, is_active)
		 VALUES ($1, $2, $3, NULL, $4)`,
		s.ID, s.VehicleID, s.StartedAt, s.IsActive,
	)
	return err
}

// CloseSession marks the session ended at the given time. The is_active guard
// makes a repeated close a no-op rather than moving ended_at.
func (r *PostgresRepository) CloseSession(ctx context.Context, sessionID string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE flight_sessions SET ended_at = $2, is_active = FALSE
		 WHERE id = $1 AND is_active`,
		sessionID, at,
	)
	return err
}

// AppendSample writes one sample and fills in the assigned row id.
func (r *PostgresRepository) AppendSample(ctx context.Context, s *domain.Sample) error {
	return r.db.QueryRowContext(ctx,
		`INSERT INTO telemetry_samples
		   (session_id, latitude, longitude, altitude, barometer_altitude, speed, recorded_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		s.SessionID, s.Latitude, s.Longitude, s.Altitude,
		floatToNullFloat(s.BarometerAltitude), floatToNullFloat(s.Speed), s.RecordedAt,
	).Scan(&s.ID)
}

func floatToNullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
