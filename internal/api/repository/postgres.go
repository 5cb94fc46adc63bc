// Package repository implements the query surface's read model over Postgres.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"drone-flight-tracker/internal/api"
)

type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore returns a read-only store over the given db.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// ActiveVehicles returns every active vehicle with the latest sample of its
// open session. LATERAL keeps it one round trip.
func (s *PostgresStore) ActiveVehicles(ctx context.Context) ([]api.ActiveVehicle, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT v.external_id, COALESCE(o.name, 'Unknown'),
		       latest.latitude, latest.longitude, latest.altitude, latest.speed
		FROM vehicles v
		LEFT JOIN operators o ON o.id = v.operator_id
		JOIN flight_sessions fs ON fs.vehicle_id = v.id AND fs.is_active
		JOIN LATERAL (
			SELECT latitude, longitude, altitude, speed
			FROM telemetry_samples
			WHERE session_id = fs.id
			ORDER BY recorded_at DESC, id DESC
			LIMIT 1
		) latest ON TRUE
		WHERE v.status = 'active'
		ORDER BY v.external_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []api.ActiveVehicle
	for rows.Next() {
		var (
			av    api.ActiveVehicle
			speed sql.NullFloat64
		)
		if err := rows.Scan(&av.ID, &av.Operator, &av.Latitude, &av.Longitude, &av.Altitude, &speed); err != nil {
			return nil, err
		}
		if speed.Valid {
			av.Speed = &speed.Float64
		}
		out = append(out, av)
	}
	return out, rows.Err()
}

// VehicleHistory returns all sessions and samples for the vehicle. Both reads
// run inside one read-only transaction so the response is a consistent snapshot.
func (s *PostgresStore) VehicleHistory(ctx context.Context, externalID string) (*api.History, bool, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback()

	var vehicleID string
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM vehicles WHERE external_id = $1`, externalID).Scan(&vehicleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT fs.id, fs.started_at, fs.ended_at,
		       ts.latitude, ts.longitude, ts.altitude, ts.barometer_altitude, ts.speed, ts.recorded_at
		FROM flight_sessions fs
		LEFT JOIN telemetry_samples ts ON ts.session_id = fs.id
		WHERE fs.vehicle_id = $1
		ORDER BY fs.started_at, ts.recorded_at, ts.id`, vehicleID)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	history := &api.History{ID: externalID, Sessions: []api.HistorySession{}}
	currentSession := ""
	for rows.Next() {
		var (
			sessionID  string
			startedAt  sql.NullTime
			endedAt    sql.NullTime
			lat        sql.NullFloat64
			lon        sql.NullFloat64
			alt        sql.NullFloat64
			baroAlt    sql.NullFloat64
			speed      sql.NullFloat64
			recordedAt sql.NullTime
		)
		if err := rows.Scan(&sessionID, &startedAt, &endedAt, &lat, &lon, &alt, &baroAlt, &speed, &recordedAt); err != nil {
			return nil, false, err
		}
		if sessionID != currentSession {
			currentSession = sessionID
			sess := api.HistorySession{Start: api.FormatTime(startedAt.Time), Samples: []api.HistorySample{}}
			if endedAt.Valid {
				end := api.FormatTime(endedAt.Time)
				sess.End = &end
			}
			history.Sessions = append(history.Sessions, sess)
		}
		if !recordedAt.Valid {
			continue // session without samples
		}
		sample := api.HistorySample{
			Latitude:  lat.Float64,
			Longitude: lon.Float64,
			Altitude:  alt.Float64,
			Timestamp: api.FormatTime(recordedAt.Time),
		}
		if baroAlt.Valid {
			sample.BarometerAltitude = &baroAlt.Float64
		}
		if speed.Valid {
			sample.Speed = &speed.Float64
		}
		last := len(history.Sessions) - 1
		history.Sessions[last].Samples = append(history.Sessions[last].Samples, sample)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	return history, true, nil
}

// Search matches vehicles by external id or linked operator name,
// case-insensitive substring, like the map UI's search box expects.
func (s *PostgresStore) Search(ctx context.Context, q string) ([]api.SearchResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT v.external_id, COALESCE(o.name, 'Unknown'), v.status
		FROM vehicles v
		LEFT JOIN operators o ON o.id = v.operator_id
		WHERE v.external_id ILIKE '%' || $1 || '%'
		   OR o.name ILIKE '%' || $1 || '%'
		ORDER BY v.external_id`, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []api.SearchResult
	for rows.Next() {
		var r api.SearchResult
		if err := rows.Scan(&r.ID, &r.Operator, &r.Status); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
