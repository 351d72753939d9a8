package order

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for order persistence.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	Update(ctx context.Context, o *Order) error
}
