package gateway

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainErrors "github.com/learnhub-th/coursepay/internal/domain/errors"
)

func TestMockGateway_SuccessfulCharge(t *testing.T) {
	g := NewMockGateway()

	result, err := g.CreateCharge(context.Background(), ChargeRequest{
		IdempotencyKey: "key-1",
		AmountSatang:   19900,
		Currency:       "THB",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusSuccessful, result.Status)
	assert.NotEmpty(t, result.TransactionID)
}

func TestMockGateway_ScriptedDecline(t *testing.T) {
	g := NewMockGateway(WithScriptedOutcome("key-declined", StatusFailed))

	result, err := g.CreateCharge(context.Background(), ChargeRequest{IdempotencyKey: "key-declined"})
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, result.Status)
	assert.NotEmpty(t, result.FailureMessage)
}

func TestMockGateway_SameKeyReturnsOriginalCharge(t *testing.T) {
	g := NewMockGateway()
	ctx := context.Background()

	first, err := g.CreateCharge(ctx, ChargeRequest{IdempotencyKey: "key-1"})
	require.NoError(t, err)
	second, err := g.CreateCharge(ctx, ChargeRequest{IdempotencyKey: "key-1"})
	require.NoError(t, err)

	assert.Equal(t, first.TransactionID, second.TransactionID)
	assert.Equal(t, 1, g.ChargeCount())
}

func TestMockGateway_TimeoutRate(t *testing.T) {
	g := NewMockGateway(WithTimeoutRate(1.0))

	_, err := g.CreateCharge(context.Background(), ChargeRequest{IdempotencyKey: "key-1"})
	assert.ErrorIs(t, err, domainErrors.ErrGatewayTimeout)
	assert.Equal(t, 0, g.ChargeCount())
}

func TestMockGateway_Refund(t *testing.T) {
	g := NewMockGateway()

	result, err := g.CreateRefund(context.Background(), RefundRequest{
		TransactionID: "chrg_abc",
		AmountSatang:  19900,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusSuccessful, result.Status)
	assert.NotEmpty(t, result.RefundID)
}
