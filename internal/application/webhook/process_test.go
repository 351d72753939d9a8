package webhook_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appwebhook "github.com/learnhub-th/coursepay/internal/application/webhook"
	"github.com/learnhub-th/coursepay/internal/domain/order"
	domainpayment "github.com/learnhub-th/coursepay/internal/domain/payment"
	domainwebhook "github.com/learnhub-th/coursepay/internal/domain/webhook"
	"github.com/learnhub-th/coursepay/internal/events"
	"github.com/learnhub-th/coursepay/internal/idempotency"
	"github.com/learnhub-th/coursepay/internal/testutil"
)

const testSecret = "whsec_test"

type webhookFixture struct {
	receive  *appwebhook.ReceiveUseCase
	process  *appwebhook.ProcessUseCase
	webhooks *testutil.MockWebhookRepository
	payments *testutil.MockPaymentRepository
	orders   *testutil.MockOrderRepository
	outbox   *testutil.MockOutboxRepository
	guard    *idempotency.MemoryGuard
}

func newWebhookFixture(t *testing.T) *webhookFixture {
	t.Helper()
	f := &webhookFixture{
		webhooks: testutil.NewMockWebhookRepository(),
		payments: testutil.NewMockPaymentRepository(),
		orders:   testutil.NewMockOrderRepository(),
		outbox:   testutil.NewMockOutboxRepository(),
		guard:    idempotency.NewMemoryGuard(),
	}
	f.receive = appwebhook.NewReceiveUseCase(f.webhooks, zerolog.Nop())
	f.process = appwebhook.NewProcessUseCase(
		f.webhooks, f.payments, f.orders, f.outbox, f.guard,
		&testutil.MockTxManager{}, testSecret, zerolog.Nop(),
	)
	return f
}

func chargeEvent(t *testing.T, chargeID, status, paymentID string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"event_type": "charge.complete",
		"data": map[string]any{
			"id":     chargeID,
			"status": status,
			"metadata": map[string]any{
				"payment_id": paymentID,
			},
		},
	})
	require.NoError(t, err)
	return body
}

// seedPendingPair stores a confirmed order with a pending payment, as left
// behind by a gateway timeout.
func (f *webhookFixture) seedPendingPair(t *testing.T) (*order.Order, *domainpayment.Payment) {
	t.Helper()
	ctx := context.Background()
	userID := uuid.New()
	o := testutil.NewTestOrder(userID, uuid.New(), 199000)
	require.NoError(t, f.orders.Create(ctx, o))
	p := testutil.NewTestPayment(o.ID, userID, 199000)
	require.NoError(t, f.payments.Create(ctx, p))
	return o, p
}

func TestReceive_PersistsBeforeParsing(t *testing.T) {
	f := newWebhookFixture(t)
	malformed := []byte(`{"event_type": "charge.complete", "data":`)

	rec, err := f.receive.Execute(context.Background(), malformed, "whatever")
	require.NoError(t, err)

	stored, err := f.webhooks.GetByID(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, malformed, stored.Payload)
	assert.Equal(t, domainwebhook.StatusReceived, stored.Status)
}

func TestProcess_ResolvesPendingPayment(t *testing.T) {
	f := newWebhookFixture(t)
	ctx := context.Background()
	o, p := f.seedPendingPair(t)

	body := chargeEvent(t, "chrg_99", "successful", p.ID.String())
	rec, err := f.receive.Execute(ctx, body, appwebhook.Sign(body, testSecret))
	require.NoError(t, err)

	require.NoError(t, f.process.ProcessRecord(ctx, rec.ID))

	updated, err := f.payments.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domainpayment.StatusSuccessful, updated.Status)
	require.NotNil(t, updated.TransactionID)
	assert.Equal(t, "chrg_99", *updated.TransactionID)

	updatedOrder, err := f.orders.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusConfirmed, updatedOrder.Status)

	staged := f.outbox.EntriesForTopic(events.TopicPaymentReceived)
	require.Len(t, staged, 1)
	assert.Equal(t, p.ID.String(), staged[0].Payload["payment_id"])

	stored, err := f.webhooks.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, domainwebhook.StatusProcessed, stored.Status)
}

func TestProcess_DuplicateWebhookDoesNotRepublish(t *testing.T) {
	f := newWebhookFixture(t)
	ctx := context.Background()
	_, p := f.seedPendingPair(t)

	body := chargeEvent(t, "chrg_dup", "successful", p.ID.String())

	// The gateway redelivers the same notification twice.
	for i := 0; i < 2; i++ {
		rec, err := f.receive.Execute(ctx, body, appwebhook.Sign(body, testSecret))
		require.NoError(t, err)
		require.NoError(t, f.process.ProcessRecord(ctx, rec.ID))

		stored, err := f.webhooks.GetByID(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, domainwebhook.StatusProcessed, stored.Status, "delivery %d", i)
	}

	assert.Len(t, f.outbox.EntriesForTopic(events.TopicPaymentReceived), 1)
}

func TestProcess_FailedChargeCancelsOrder(t *testing.T) {
	f := newWebhookFixture(t)
	ctx := context.Background()
	o, p := f.seedPendingPair(t)

	body, err := json.Marshal(map[string]any{
		"event_type": "charge.complete",
		"data": map[string]any{
			"id":              "chrg_declined",
			"status":          "failed",
			"failure_message": "insufficient_fund",
			"metadata":        map[string]any{"payment_id": p.ID.String()},
		},
	})
	require.NoError(t, err)

	rec, err := f.receive.Execute(ctx, body, appwebhook.Sign(body, testSecret))
	require.NoError(t, err)
	require.NoError(t, f.process.ProcessRecord(ctx, rec.ID))

	updated, err := f.payments.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domainpayment.StatusFailed, updated.Status)

	updatedOrder, err := f.orders.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusCancelled, updatedOrder.Status)
	assert.Empty(t, f.outbox.EntriesForTopic(events.TopicPaymentReceived))
}

func TestProcess_MalformedPayloadStaysPersisted(t *testing.T) {
	f := newWebhookFixture(t)
	ctx := context.Background()

	malformed := []byte(`not json at all`)
	rec, err := f.receive.Execute(ctx, malformed, appwebhook.Sign(malformed, testSecret))
	require.NoError(t, err)

	require.NoError(t, f.process.ProcessRecord(ctx, rec.ID))

	stored, err := f.webhooks.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, domainwebhook.StatusProcessed, stored.Status)
	require.NotNil(t, stored.LastError)
	assert.Equal(t, malformed, stored.Payload)
}

func TestProcess_InvalidSignatureNotedAndDone(t *testing.T) {
	f := newWebhookFixture(t)
	ctx := context.Background()
	_, p := f.seedPendingPair(t)

	body := chargeEvent(t, "chrg_forged", "successful", p.ID.String())
	rec, err := f.receive.Execute(ctx, body, "forged-signature")
	require.NoError(t, err)

	require.NoError(t, f.process.ProcessRecord(ctx, rec.ID))

	stored, err := f.webhooks.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, domainwebhook.StatusProcessed, stored.Status)
	require.NotNil(t, stored.LastError)

	// The forged notification must not settle anything.
	updated, err := f.payments.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domainpayment.StatusPending, updated.Status)
}

func TestProcess_UnknownPaymentRetriesThenDead(t *testing.T) {
	f := newWebhookFixture(t)
	ctx := context.Background()

	body := chargeEvent(t, "chrg_orphan", "successful", uuid.New().String())
	rec, err := f.receive.Execute(ctx, body, appwebhook.Sign(body, testSecret))
	require.NoError(t, err)

	for i := 0; i < rec.MaxRetries; i++ {
		require.NoError(t, f.process.ProcessRecord(ctx, rec.ID))
	}

	stored, err := f.webhooks.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, domainwebhook.StatusDead, stored.Status)
	assert.Equal(t, stored.MaxRetries, stored.RetryCount)

	// Dead records are not picked up again.
	require.NoError(t, f.process.ProcessRecord(ctx, rec.ID))
	stored, err = f.webhooks.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, stored.MaxRetries, stored.RetryCount)
}

func TestProcess_BatchPicksUpUnprocessed(t *testing.T) {
	f := newWebhookFixture(t)
	ctx := context.Background()
	_, p := f.seedPendingPair(t)

	for i := 0; i < 3; i++ {
		body := chargeEvent(t, fmt.Sprintf("chrg_batch_%d", i), "successful", p.ID.String())
		_, err := f.receive.Execute(ctx, body, appwebhook.Sign(body, testSecret))
		require.NoError(t, err)
	}

	count, err := f.process.ProcessBatch(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	// All settled idempotently: one publish total.
	assert.Len(t, f.outbox.EntriesForTopic(events.TopicPaymentReceived), 1)
}
