package outbox

import (
	"time"

	"github.com/google/uuid"
)

// Entry is a transactional outbox record. The guard claim, the business state
// change and the entry insert commit in one transaction; a worker drains
// pending entries to the event bus afterwards.
type Entry struct {
	ID            uuid.UUID
	AggregateType string
	AggregateID   uuid.UUID
	Topic         string
	Payload       map[string]any
	Status        Status
	RetryCount    int
	MaxRetries    int
	CreatedAt     time.Time
	PublishedAt   *time.Time
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusPublished Status = "published"
	StatusFailed    Status = "failed"
)

func NewEntry(aggregateType string, aggregateID uuid.UUID, topic string, payload map[string]any) *Entry {
	return &Entry{
		ID:            uuid.New(),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		Topic:         topic,
		Payload:       payload,
		Status:        StatusPending,
		MaxRetries:    5,
		CreatedAt:     time.Now(),
	}
}
