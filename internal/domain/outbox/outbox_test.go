package outbox_test

import (
	"testing"

	"github.com/learnhub-th/coursepay/internal/domain/outbox"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewEntry(t *testing.T) {
	aggID := uuid.New()
	e := outbox.NewEntry("payment", aggID, "payment.received", map[string]any{
		"payment_id": aggID.String(),
		"amount":     int64(50000),
	})

	assert.NotEqual(t, uuid.Nil, e.ID)
	assert.Equal(t, "payment", e.AggregateType)
	assert.Equal(t, aggID, e.AggregateID)
	assert.Equal(t, "payment.received", e.Topic)
	assert.Equal(t, outbox.StatusPending, e.Status)
	assert.Equal(t, 0, e.RetryCount)
	assert.Equal(t, 5, e.MaxRetries)
	assert.Nil(t, e.PublishedAt)
	assert.False(t, e.CreatedAt.IsZero())
}
