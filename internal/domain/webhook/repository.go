package webhook

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for webhook record persistence.
type Repository interface {
	// Insert persists a freshly received record. Must be called before any
	// interpretation of the payload.
	Insert(ctx context.Context, r *Record) error

	// GetByID retrieves a record by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*Record, error)

	// GetUnprocessed returns records still awaiting processing, oldest first.
	GetUnprocessed(ctx context.Context, limit int) ([]*Record, error)

	// UpdateStatus persists the mutable processing metadata.
	UpdateStatus(ctx context.Context, r *Record) error
}
