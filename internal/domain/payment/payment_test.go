package payment_test

import (
	"testing"

	"github.com/learnhub-th/coursepay/internal/domain/errors"
	"github.com/learnhub-th/coursepay/internal/domain/payment"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPendingPayment(t *testing.T) *payment.Payment {
	t.Helper()
	p, err := payment.New(uuid.New(), uuid.New(), "key-"+uuid.New().String(),
		payment.MethodCreditCard, payment.Amount{ValueSatang: 50000, Currency: "THB"}, "Go Fundamentals course")
	require.NoError(t, err)
	return p
}

func TestNew_Valid(t *testing.T) {
	orderID, userID := uuid.New(), uuid.New()
	p, err := payment.New(orderID, userID, "key-1", payment.MethodCreditCard,
		payment.Amount{ValueSatang: 50000, Currency: "THB"}, "course purchase")
	require.NoError(t, err)
	assert.Equal(t, payment.StatusPending, p.Status)
	assert.Equal(t, orderID, p.OrderID)
	assert.Equal(t, "key-1", p.IdempotencyKey)
	assert.Equal(t, int64(50000), p.Amount.ValueSatang)
	assert.Equal(t, "omise", p.Provider)
	assert.Nil(t, p.TransactionID)
}

func TestNew_InvalidAmount(t *testing.T) {
	_, err := payment.New(uuid.New(), uuid.New(), "key-1", payment.MethodCreditCard,
		payment.Amount{ValueSatang: 0, Currency: "THB"}, "")
	assert.Error(t, err)
}

func TestNew_InvalidCurrencyLength(t *testing.T) {
	_, err := payment.New(uuid.New(), uuid.New(), "key-1", payment.MethodCreditCard,
		payment.Amount{ValueSatang: 1000, Currency: "TH"}, "")
	assert.Error(t, err)
}

func TestNew_EmptyIdempotencyKey(t *testing.T) {
	_, err := payment.New(uuid.New(), uuid.New(), "", payment.MethodCreditCard,
		payment.Amount{ValueSatang: 1000, Currency: "THB"}, "")
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestAmount_String(t *testing.T) {
	a := payment.Amount{ValueSatang: 10050, Currency: "THB"}
	assert.Equal(t, "100.50 THB", a.String())
}

// --- State machine ---

func TestStateMachine_PendingToSuccessful(t *testing.T) {
	p := newPendingPayment(t)
	require.NoError(t, p.MarkSuccessful("chrg_test_1"))
	assert.Equal(t, payment.StatusSuccessful, p.Status)
	require.NotNil(t, p.TransactionID)
	assert.Equal(t, "chrg_test_1", *p.TransactionID)
	assert.NotNil(t, p.PaidAt)
}

func TestStateMachine_PendingToFailed(t *testing.T) {
	p := newPendingPayment(t)
	require.NoError(t, p.MarkFailed("insufficient_funds"))
	assert.Equal(t, payment.StatusFailed, p.Status)
	assert.Equal(t, "insufficient_funds", *p.FailureReason)
}

func TestStateMachine_SuccessfulToRefunded(t *testing.T) {
	p := newPendingPayment(t)
	require.NoError(t, p.MarkSuccessful("chrg_test_2"))
	assert.NoError(t, p.MarkRefunded())
	assert.Equal(t, payment.StatusRefunded, p.Status)
}

func TestStateMachine_SuccessfulToSuccessful_Rejected(t *testing.T) {
	p := newPendingPayment(t)
	require.NoError(t, p.MarkSuccessful("chrg_test_3"))
	err := p.MarkSuccessful("chrg_test_3_again")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidStateTransition)
	// the original charge ID must survive the rejected transition
	assert.Equal(t, "chrg_test_3", *p.TransactionID)
}

func TestStateMachine_FailedIsTerminal(t *testing.T) {
	p := newPendingPayment(t)
	require.NoError(t, p.MarkFailed("card_expired"))
	assert.Error(t, p.MarkSuccessful("chrg_late"))
	assert.Error(t, p.MarkRefunded())
	assert.True(t, p.IsTerminal())
}

func TestStateMachine_PendingToRefunded_Rejected(t *testing.T) {
	p := newPendingPayment(t)
	assert.Error(t, p.MarkRefunded())
}

func TestRefund_Complete(t *testing.T) {
	r := payment.NewRefund(uuid.New(), 50000, "customer request")
	assert.Equal(t, payment.RefundPending, r.Status)
	r.Complete("rfnd_test_1")
	assert.Equal(t, payment.RefundCompleted, r.Status)
	assert.Equal(t, "rfnd_test_1", *r.ProviderRefundID)
	assert.NotNil(t, r.CompletedAt)
}
