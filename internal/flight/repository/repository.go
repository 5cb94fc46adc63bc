package repository

import (
	"context"
	"time"

	"drone-flight-tracker/internal/flight/domain"
)

// Repository defines persistence for flight sessions and telemetry samples.
type Repository interface {
	// GetActiveByVehicle returns the vehicle's open session, or nil when none.
	GetActiveByVehicle(ctx context.Context, vehicleID string) (*domain.Session, error)
	CreateSession(ctx context.Context, s *domain.Session) error
	// CloseSession sets ended_at and clears is_active. Closing an already
	// closed session is a no-op.
	CloseSession(ctx context.Context, sessionID string, at time.Time) error
	// AppendSample writes one immutable sample and fills in its assigned ID.
	AppendSample(ctx context.Context, s *domain.Sample) error
}
