// Package gateway wraps the external card processor. Calls carry a bounded
// timeout; an elapsed deadline means the charge outcome is unknown, not
// failed, and reconciliation happens through webhooks.
package gateway

import (
	"context"
)

// ChargeStatus is the gateway's verdict on a charge attempt.
type ChargeStatus string

const (
	StatusPending    ChargeStatus = "pending"
	StatusSuccessful ChargeStatus = "successful"
	StatusFailed     ChargeStatus = "failed"
)

// ChargeRequest describes a charge to create. The idempotency key is passed
// through to the gateway so a retried request never double-charges.
type ChargeRequest struct {
	IdempotencyKey string
	AmountSatang   int64
	Currency       string
	Method         string
	CardToken      string
	Description    string
}

// ChargeResult is the gateway's response to a charge attempt.
type ChargeResult struct {
	TransactionID  string
	Status         ChargeStatus
	FailureMessage string
}

// RefundRequest describes a refund against an earlier charge.
type RefundRequest struct {
	TransactionID string
	AmountSatang  int64
	Reason        string
}

// RefundResult is the gateway's response to a refund request.
type RefundResult struct {
	RefundID string
	Status   ChargeStatus
}

// Gateway is the external payment processor client.
type Gateway interface {
	// Name returns the gateway name.
	Name() string
	// CreateCharge creates a charge. A context deadline error means the
	// outcome is unknown; the caller must leave the payment pending.
	CreateCharge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
	// CreateRefund refunds a settled charge.
	CreateRefund(ctx context.Context, req RefundRequest) (*RefundResult, error)
}
