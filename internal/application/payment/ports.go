package payment

import (
	"context"

	"github.com/learnhub-th/coursepay/internal/domain/outbox"
)

// TransactionManager defines the interface for transaction management.
// This is an application-layer port, not a domain concern.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// OutboxWriter defines the interface for writing to the transactional outbox.
type OutboxWriter interface {
	Insert(ctx context.Context, entry *outbox.Entry) error
}

// Guard records that a logical event was processed; exactly one concurrent
// claim for the same (scope, key) wins.
type Guard interface {
	TryClaim(ctx context.Context, scope, key string) (bool, error)
}
