package payment

import (
	"time"

	"github.com/google/uuid"
)

// RefundStatus represents the refund status.
type RefundStatus string

const (
	RefundPending   RefundStatus = "pending"
	RefundCompleted RefundStatus = "completed"
	RefundFailed    RefundStatus = "failed"
)

// Refund records a refund issued against a successful payment.
type Refund struct {
	ID               uuid.UUID
	PaymentID        uuid.UUID
	AmountSatang     int64
	Reason           string
	Status           RefundStatus
	ProviderRefundID *string
	RequestedAt      time.Time
	CompletedAt      *time.Time
}

// NewRefund creates a pending refund for a payment.
func NewRefund(paymentID uuid.UUID, amountSatang int64, reason string) *Refund {
	return &Refund{
		ID:           uuid.New(),
		PaymentID:    paymentID,
		AmountSatang: amountSatang,
		Reason:       reason,
		Status:       RefundPending,
		RequestedAt:  time.Now(),
	}
}

// Complete marks the refund completed with the gateway's refund ID.
func (r *Refund) Complete(providerRefundID string) {
	r.Status = RefundCompleted
	r.ProviderRefundID = &providerRefundID
	now := time.Now()
	r.CompletedAt = &now
}
