package outbox

import (
	"context"

	"github.com/google/uuid"
)

// Repository stages and drains outbox entries. Insert runs in the same
// transaction as the state change it announces; the worker drains with
// GetPending and settles each entry one way or the other.
type Repository interface {
	Insert(ctx context.Context, entry *Entry) error

	// GetPending locks and returns up to limit pending entries, oldest first.
	GetPending(ctx context.Context, limit int) ([]*Entry, error)

	MarkPublished(ctx context.Context, id uuid.UUID) error

	// MarkFailed increments the retry count, moving the entry to failed once
	// retries are exhausted.
	MarkFailed(ctx context.Context, id uuid.UUID) error
}
