package repository

import (
	"context"

	"drone-flight-tracker/internal/operator/domain"
)

// Repository defines persistence for operators.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Operator, error)
	Create(ctx context.Context, o *domain.Operator) error
}
