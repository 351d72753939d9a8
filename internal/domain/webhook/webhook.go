package webhook

import (
	"time"

	"github.com/google/uuid"
)

// Status tracks the processing lifecycle of a received callback.
type Status string

const (
	StatusReceived  Status = "received"
	StatusProcessed Status = "processed"
	StatusDead      Status = "dead"
)

// Record holds a raw gateway callback exactly as received. The payload is
// persisted before any parsing so that processing failures never lose data;
// only the processing metadata mutates after insert.
type Record struct {
	ID          uuid.UUID
	Signature   string // X-Webhook-Signature header, verified during processing
	Payload     []byte // immutable raw body
	Status      Status
	RetryCount  int
	MaxRetries  int
	LastError   *string
	ReceivedAt  time.Time
	ProcessedAt *time.Time
}

// NewRecord wraps a raw callback body for persistence.
func NewRecord(payload []byte, signature string) *Record {
	return &Record{
		ID:         uuid.New(),
		Signature:  signature,
		Payload:    payload,
		Status:     StatusReceived,
		MaxRetries: 5,
		ReceivedAt: time.Now(),
	}
}

// MarkProcessed marks the record done, optionally noting a terminal error
// (e.g. payment never found, signature mismatch).
func (r *Record) MarkProcessed(errMsg string) {
	r.Status = StatusProcessed
	now := time.Now()
	r.ProcessedAt = &now
	if errMsg != "" {
		r.LastError = &errMsg
	}
}

// MarkFailed records a processing failure; after MaxRetries attempts the
// record is dead-lettered for manual inspection.
func (r *Record) MarkFailed(errMsg string) {
	r.RetryCount++
	r.LastError = &errMsg
	if r.RetryCount >= r.MaxRetries {
		r.Status = StatusDead
		now := time.Now()
		r.ProcessedAt = &now
	}
}

// IsDone reports whether the record needs no further processing.
func (r *Record) IsDone() bool {
	return r.Status == StatusProcessed || r.Status == StatusDead
}
