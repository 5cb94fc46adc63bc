// Package identity resolves telemetry events to Vehicle and Operator records,
// creating them lazily on first reference.
package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	operatordomain "drone-flight-tracker/internal/operator/domain"
	operatorrepo "drone-flight-tracker/internal/operator/repository"
	vehicledomain "drone-flight-tracker/internal/vehicle/domain"
	vehiclerepo "drone-flight-tracker/internal/vehicle/repository"
)

// Resolver upserts the Operator and Vehicle referenced by an event. It is
// idempotent for identical identifiers; the caller (the session ledger) holds
// the per-vehicle lock, so duplicate-create races cannot occur within a process
// and the schema's uniqueness constraints backstop everything else.
type Resolver struct {
	operators operatorrepo.Repository
	vehicles  vehiclerepo.Repository
}

// NewResolver returns a resolver backed by the given repositories.
func NewResolver(operators operatorrepo.Repository, vehicles vehiclerepo.Repository) *Resolver {
	return &Resolver{operators: operators, vehicles: vehicles}
}

// Resolve returns the Vehicle for vehicleExternalID and, when operatorID is
// non-empty, its Operator. Unknown operators are created with the id as display
// name. Unknown vehicles are created active with last_active_at=at; known
// vehicles are marked active, their last-active advanced to at, and relinked to
// the operator if it changed.
func (r *Resolver) Resolve(ctx context.Context, vehicleExternalID, operatorID string, at time.Time) (*vehicledomain.Vehicle, *operatordomain.Operator, error) {
	var op *operatordomain.Operator
	if operatorID != "" {
		existing, err := r.operators.GetByID(ctx, operatorID)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve operator %s: %w", operatorID, err)
		}
		if existing == nil {
			existing = &operatordomain.Operator{ID: operatorID, Name: operatorID, CreatedAt: at}
			if err := r.operators.Create(ctx, existing); err != nil {
				return nil, nil, fmt.Errorf("create operator %s: %w", operatorID, err)
			}
		}
		op = existing
	}

	var opID *string
	if op != nil {
		opID = &op.ID
	}

	v, err := r.vehicles.GetByExternalID(ctx, vehicleExternalID)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve vehicle %s: %w", vehicleExternalID, err)
	}
	if v == nil {
		v = &vehicledomain.Vehicle{
			ID:           uuid.NewString(),
			ExternalID:   vehicleExternalID,
			Status:       vehicledomain.StatusActive,
			LastActiveAt: &at,
			OperatorID:   opID,
			CreatedAt:    at,
		}
		if err := r.vehicles.Create(ctx, v); err != nil {
			return nil, nil, fmt.Errorf("create vehicle %s: %w", vehicleExternalID, err)
		}
		return v, op, nil
	}

	if err := r.vehicles.MarkActive(ctx, v.ID, at, opID); err != nil {
		return nil, nil, fmt.Errorf("mark vehicle %s active: %w", vehicleExternalID, err)
	}
	v.Status = vehicledomain.StatusActive
	if v.LastActiveAt == nil || at.After(*v.LastActiveAt) {
		v.LastActiveAt = &at
	}
	if opID != nil {
		v.OperatorID = opID
	}
	return v, op, nil
}
