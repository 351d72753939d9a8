package gateway

import (
	"context"
	"errors"
	"time"

	domainErrors "github.com/learnhub-th/coursepay/internal/domain/errors"
	"github.com/learnhub-th/coursepay/internal/infrastructure/config"
	"github.com/learnhub-th/coursepay/pkg/retry"
)

// RetryGateway retries transient gateway outages with exponential backoff.
// Only ErrGatewayUnavailable is retried: the Idempotency-Key makes a repeated
// charge safe, and a timeout is left alone because its outcome is unknown and
// belongs to webhook reconciliation, not to a blind retry.
type RetryGateway struct {
	inner Gateway
	cfg   retry.Config
}

// NewRetryGateway wraps inner with retry settings from config.
func NewRetryGateway(inner Gateway, cfg *config.GatewayConfig) *RetryGateway {
	attempts := uint(3)
	if cfg.MaxRetries > 0 {
		attempts = uint(cfg.MaxRetries)
	}
	delay := cfg.RetryDelay
	if delay <= 0 {
		delay = 1 * time.Second
	}
	return &RetryGateway{
		inner: inner,
		cfg: retry.Config{
			MaxAttempts:  attempts,
			InitialDelay: delay,
			MaxDelay:     10 * delay,
		},
	}
}

func (g *RetryGateway) Name() string { return g.inner.Name() }

func (g *RetryGateway) CreateCharge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	return retry.DoWithResult(ctx, g.cfg, func() (*ChargeResult, error) {
		result, err := g.inner.CreateCharge(ctx, req)
		if err != nil && !errors.Is(err, domainErrors.ErrGatewayUnavailable) {
			return nil, retry.Unrecoverable(err)
		}
		return result, err
	})
}

func (g *RetryGateway) CreateRefund(ctx context.Context, req RefundRequest) (*RefundResult, error) {
	return retry.DoWithResult(ctx, g.cfg, func() (*RefundResult, error) {
		result, err := g.inner.CreateRefund(ctx, req)
		if err != nil && !errors.Is(err, domainErrors.ErrGatewayUnavailable) {
			return nil, retry.Unrecoverable(err)
		}
		return result, err
	})
}

var _ Gateway = (*RetryGateway)(nil)
