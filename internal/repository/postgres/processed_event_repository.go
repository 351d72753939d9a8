package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ProcessedEventRepository implements idempotency.Guard on the processed_events
// table. The claim is a single INSERT ... ON CONFLICT DO NOTHING, so exactly
// one of any number of concurrent duplicate claims wins; the losers see zero
// rows affected. Participates in the surrounding transaction when one is on
// the context, which makes claim-plus-side-effects atomic.
type ProcessedEventRepository struct {
	pool *pgxpool.Pool
}

// NewProcessedEventRepository creates a new ProcessedEventRepository.
func NewProcessedEventRepository(pool *pgxpool.Pool) *ProcessedEventRepository {
	return &ProcessedEventRepository{pool: pool}
}

func (r *ProcessedEventRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

// TryClaim records that (scope, key) has been processed. Returns true when
// this call inserted the claim, false when it already existed.
func (r *ProcessedEventRepository) TryClaim(ctx context.Context, scope, key string) (bool, error) {
	tag, err := r.db(ctx).Exec(ctx,
		`INSERT INTO processed_events (scope, event_key, processed_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (scope, event_key) DO NOTHING`,
		scope, key,
	)
	if err != nil {
		return false, fmt.Errorf("claim processed event: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
