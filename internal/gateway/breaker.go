package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
	domainErrors "github.com/learnhub-th/coursepay/internal/domain/errors"
	"github.com/learnhub-th/coursepay/internal/infrastructure/config"
)

// BreakerGateway wraps a Gateway with a circuit breaker. When the gateway is
// consistently failing, calls short-circuit to ErrGatewayUnavailable instead
// of piling up timeouts.
type BreakerGateway struct {
	inner         Gateway
	chargeBreaker *gobreaker.CircuitBreaker[*ChargeResult]
	refundBreaker *gobreaker.CircuitBreaker[*RefundResult]
}

// NewBreakerGateway wraps inner with breaker settings from config.
func NewBreakerGateway(inner Gateway, cfg *config.GatewayConfig) *BreakerGateway {
	threshold := uint32(cfg.CircuitBreakerThreshold)
	if threshold == 0 {
		threshold = 10
	}
	timeout := cfg.CircuitBreakerTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	settings := func(name string) gobreaker.Settings {
		return gobreaker.Settings{
			Name:        name,
			MaxRequests: 5,
			Interval:    60 * time.Second,
			Timeout:     timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= threshold && failureRatio >= 0.6
			},
		}
	}

	return &BreakerGateway{
		inner:         inner,
		chargeBreaker: gobreaker.NewCircuitBreaker[*ChargeResult](settings(inner.Name() + "-charge")),
		refundBreaker: gobreaker.NewCircuitBreaker[*RefundResult](settings(inner.Name() + "-refund")),
	}
}

func (g *BreakerGateway) Name() string { return g.inner.Name() }

func (g *BreakerGateway) CreateCharge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	result, err := g.chargeBreaker.Execute(func() (*ChargeResult, error) {
		return g.inner.CreateCharge(ctx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, domainErrors.ErrGatewayUnavailable
		}
		return nil, err
	}
	return result, nil
}

func (g *BreakerGateway) CreateRefund(ctx context.Context, req RefundRequest) (*RefundResult, error) {
	result, err := g.refundBreaker.Execute(func() (*RefundResult, error) {
		return g.inner.CreateRefund(ctx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, domainErrors.ErrGatewayUnavailable
		}
		return nil, err
	}
	return result, nil
}

var _ Gateway = (*BreakerGateway)(nil)
