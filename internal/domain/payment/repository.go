package payment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for payment persistence
type Repository interface {
	// Create creates a new payment
	Create(ctx context.Context, p *Payment) error

	// GetByID retrieves a payment by ID
	GetByID(ctx context.Context, id uuid.UUID) (*Payment, error)

	// GetByIdempotencyKey retrieves a payment by idempotency key
	GetByIdempotencyKey(ctx context.Context, key string) (*Payment, error)

	// GetByTransactionID retrieves a payment by the gateway charge ID
	GetByTransactionID(ctx context.Context, transactionID string) (*Payment, error)

	// Update updates an existing payment
	Update(ctx context.Context, p *Payment) error

	// List lists payments with filters
	List(ctx context.Context, filter ListFilter) ([]*Payment, error)

	// CreateRefund inserts a refund record
	CreateRefund(ctx context.Context, r *Refund) error

	// AddLog appends an immutable transaction log entry for audit
	AddLog(ctx context.Context, entry *TransactionLog) error

	// GetLogs retrieves the transaction log for a payment
	GetLogs(ctx context.Context, paymentID uuid.UUID) ([]*TransactionLog, error)
}

// ListFilter defines filters for listing payments
type ListFilter struct {
	UserID    *uuid.UUID
	Status    *Status
	Limit     int
	Offset    int
	SortBy    string
	SortOrder string
}

// TransactionLog is an append-only audit record of every gateway interaction,
// success or failure, independent of the idempotency guard.
type TransactionLog struct {
	ID           uuid.UUID
	PaymentID    uuid.UUID
	Action       string // create_charge, refund_charge, webhook_reconcile
	RequestData  map[string]any
	ResponseData map[string]any
	IsSuccess    bool
	ErrorMessage *string
	CreatedAt    time.Time
}
