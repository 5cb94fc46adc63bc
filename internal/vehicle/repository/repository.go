package repository

import (
	"context"
	"time"

	"drone-flight-tracker/internal/vehicle/domain"
)

// Repository defines persistence for vehicles.
type Repository interface {
	GetByExternalID(ctx context.Context, externalID string) (*domain.Vehicle, error)
	Create(ctx context.Context, v *domain.Vehicle) error
	// MarkActive sets status=active, advances last_active_at to at (never
	// backwards), and relinks the operator when operatorID is non-nil.
	MarkActive(ctx context.Context, id string, at time.Time, operatorID *string) error
	Deactivate(ctx context.Context, id string) error
	// ListStale returns active vehicles whose last activity is before cutoff
	// (or that never reported at all).
	ListStale(ctx context.Context, cutoff time.Time) ([]*domain.Vehicle, error)
}
