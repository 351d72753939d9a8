package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainErrors "github.com/learnhub-th/coursepay/internal/domain/errors"
	"github.com/learnhub-th/coursepay/internal/infrastructure/config"
)

type flakyGateway struct {
	calls    int
	failures int
	err      error
}

func (g *flakyGateway) Name() string { return "flaky" }

func (g *flakyGateway) CreateCharge(_ context.Context, _ ChargeRequest) (*ChargeResult, error) {
	g.calls++
	if g.calls <= g.failures {
		return nil, g.err
	}
	return &ChargeResult{TransactionID: "chrg_ok", Status: StatusSuccessful}, nil
}

func (g *flakyGateway) CreateRefund(_ context.Context, _ RefundRequest) (*RefundResult, error) {
	g.calls++
	if g.calls <= g.failures {
		return nil, g.err
	}
	return &RefundResult{RefundID: "rfnd_ok", Status: StatusSuccessful}, nil
}

func retryTestConfig() *config.GatewayConfig {
	return &config.GatewayConfig{MaxRetries: 3, RetryDelay: time.Millisecond}
}

func TestRetryGateway_RetriesUnavailable(t *testing.T) {
	inner := &flakyGateway{failures: 2, err: domainErrors.ErrGatewayUnavailable}
	g := NewRetryGateway(inner, retryTestConfig())

	result, err := g.CreateCharge(context.Background(), ChargeRequest{IdempotencyKey: "key-1"})
	require.NoError(t, err)
	assert.Equal(t, StatusSuccessful, result.Status)
	assert.Equal(t, 3, inner.calls)
}

func TestRetryGateway_ExhaustsAttempts(t *testing.T) {
	inner := &flakyGateway{failures: 10, err: domainErrors.ErrGatewayUnavailable}
	g := NewRetryGateway(inner, retryTestConfig())

	_, err := g.CreateCharge(context.Background(), ChargeRequest{IdempotencyKey: "key-1"})
	assert.ErrorIs(t, err, domainErrors.ErrGatewayUnavailable)
	assert.Equal(t, 3, inner.calls)
}

func TestRetryGateway_TimeoutIsNotRetried(t *testing.T) {
	inner := &flakyGateway{failures: 10, err: domainErrors.ErrGatewayTimeout}
	g := NewRetryGateway(inner, retryTestConfig())

	_, err := g.CreateCharge(context.Background(), ChargeRequest{IdempotencyKey: "key-1"})
	assert.ErrorIs(t, err, domainErrors.ErrGatewayTimeout)
	assert.Equal(t, 1, inner.calls)
}

func TestRetryGateway_DeclineIsNotRetried(t *testing.T) {
	inner := &flakyGateway{failures: 10, err: domainErrors.ErrChargeDeclined}
	g := NewRetryGateway(inner, retryTestConfig())

	_, err := g.CreateCharge(context.Background(), ChargeRequest{IdempotencyKey: "key-1"})
	assert.ErrorIs(t, err, domainErrors.ErrChargeDeclined)
	assert.Equal(t, 1, inner.calls)
}

func TestRetryGateway_RefundRetriesUnavailable(t *testing.T) {
	inner := &flakyGateway{failures: 1, err: domainErrors.ErrGatewayUnavailable}
	g := NewRetryGateway(inner, retryTestConfig())

	result, err := g.CreateRefund(context.Background(), RefundRequest{TransactionID: "chrg_ok"})
	require.NoError(t, err)
	assert.Equal(t, "rfnd_ok", result.RefundID)
	assert.Equal(t, 2, inner.calls)
}
