package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	domainErrors "github.com/learnhub-th/coursepay/internal/domain/errors"
	"github.com/learnhub-th/coursepay/internal/domain/webhook"
)

// WebhookRepository implements webhook.Repository using PostgreSQL.
type WebhookRepository struct {
	pool *pgxpool.Pool
}

// NewWebhookRepository creates a new WebhookRepository.
func NewWebhookRepository(pool *pgxpool.Pool) *WebhookRepository {
	return &WebhookRepository{pool: pool}
}

func (r *WebhookRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

// Insert persists a freshly received record, payload untouched.
func (r *WebhookRepository) Insert(ctx context.Context, rec *webhook.Record) error {
	_, err := r.db(ctx).Exec(ctx,
		`INSERT INTO payment_webhooks
		 (id, signature, payload, status, retry_count, max_retries, last_error, received_at, processed_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		rec.ID, rec.Signature, rec.Payload, string(rec.Status),
		rec.RetryCount, rec.MaxRetries, rec.LastError, rec.ReceivedAt, rec.ProcessedAt,
	)
	if err != nil {
		return fmt.Errorf("insert webhook record: %w", err)
	}
	return nil
}

// GetByID retrieves a record by ID.
func (r *WebhookRepository) GetByID(ctx context.Context, id uuid.UUID) (*webhook.Record, error) {
	return r.scanRecord(r.db(ctx).QueryRow(ctx,
		`SELECT id, signature, payload, status, retry_count, max_retries, last_error, received_at, processed_at
		 FROM payment_webhooks WHERE id = $1`, id))
}

// GetUnprocessed returns records awaiting processing, oldest first. Rows are
// locked so concurrent worker instances never pick up the same record.
func (r *WebhookRepository) GetUnprocessed(ctx context.Context, limit int) ([]*webhook.Record, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db(ctx).Query(ctx,
		`SELECT id, signature, payload, status, retry_count, max_retries, last_error, received_at, processed_at
		 FROM payment_webhooks WHERE status = 'received'
		 ORDER BY received_at ASC
		 LIMIT $1
		 FOR UPDATE SKIP LOCKED`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("get unprocessed webhooks: %w", err)
	}
	defer rows.Close()

	var records []*webhook.Record
	for rows.Next() {
		rec, err := r.scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// UpdateStatus persists the mutable processing metadata.
func (r *WebhookRepository) UpdateStatus(ctx context.Context, rec *webhook.Record) error {
	tag, err := r.db(ctx).Exec(ctx,
		`UPDATE payment_webhooks SET status=$1, retry_count=$2, last_error=$3, processed_at=$4 WHERE id=$5`,
		string(rec.Status), rec.RetryCount, rec.LastError, rec.ProcessedAt, rec.ID,
	)
	if err != nil {
		return fmt.Errorf("update webhook status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrWebhookNotFound
	}
	return nil
}

func (r *WebhookRepository) scanRecord(s scanner) (*webhook.Record, error) {
	rec := &webhook.Record{}
	var status string
	err := s.Scan(
		&rec.ID, &rec.Signature, &rec.Payload, &status,
		&rec.RetryCount, &rec.MaxRetries, &rec.LastError, &rec.ReceivedAt, &rec.ProcessedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domainErrors.ErrWebhookNotFound
		}
		return nil, fmt.Errorf("scan webhook record: %w", err)
	}
	rec.Status = webhook.Status(status)
	return rec, nil
}
