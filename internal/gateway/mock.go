package gateway

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	domainErrors "github.com/learnhub-th/coursepay/internal/domain/errors"
)

// MockGateway is a configurable in-process gateway for tests and local runs.
// Outcomes can be randomized via rates or scripted per idempotency key.
type MockGateway struct {
	mu          sync.Mutex
	name        string
	declineRate float64 // 0.0 to 1.0
	timeoutRate float64 // 0.0 to 1.0
	latency     time.Duration
	scripted    map[string]ChargeStatus // idempotency key -> forced outcome

	// charges records the result per idempotency key so a retried request
	// returns the original charge, like the real gateway does.
	charges map[string]*ChargeResult
}

type MockGatewayOption func(*MockGateway)

func WithDeclineRate(rate float64) MockGatewayOption {
	return func(g *MockGateway) { g.declineRate = rate }
}

func WithTimeoutRate(rate float64) MockGatewayOption {
	return func(g *MockGateway) { g.timeoutRate = rate }
}

func WithLatency(d time.Duration) MockGatewayOption {
	return func(g *MockGateway) { g.latency = d }
}

// WithScriptedOutcome forces the outcome for a specific idempotency key.
func WithScriptedOutcome(idempotencyKey string, status ChargeStatus) MockGatewayOption {
	return func(g *MockGateway) { g.scripted[idempotencyKey] = status }
}

func NewMockGateway(opts ...MockGatewayOption) *MockGateway {
	g := &MockGateway{
		name:     "mock",
		scripted: make(map[string]ChargeStatus),
		charges:  make(map[string]*ChargeResult),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

func (g *MockGateway) Name() string { return g.name }

func (g *MockGateway) CreateCharge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	if g.latency > 0 {
		select {
		case <-time.After(g.latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	// Same idempotency key returns the original charge.
	if prev, ok := g.charges[req.IdempotencyKey]; ok {
		return prev, nil
	}

	if status, ok := g.scripted[req.IdempotencyKey]; ok {
		return g.record(req.IdempotencyKey, status), nil
	}

	if rand.Float64() < g.timeoutRate {
		return nil, domainErrors.ErrGatewayTimeout
	}
	if rand.Float64() < g.declineRate {
		return g.record(req.IdempotencyKey, StatusFailed), nil
	}
	return g.record(req.IdempotencyKey, StatusSuccessful), nil
}

func (g *MockGateway) record(key string, status ChargeStatus) *ChargeResult {
	result := &ChargeResult{
		TransactionID: fmt.Sprintf("chrg_%s", uuid.New().String()[:8]),
		Status:        status,
	}
	if status == StatusFailed {
		result.FailureMessage = "insufficient_fund"
	}
	g.charges[key] = result
	return result
}

func (g *MockGateway) CreateRefund(ctx context.Context, req RefundRequest) (*RefundResult, error) {
	if g.latency > 0 {
		select {
		case <-time.After(g.latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if rand.Float64() < g.timeoutRate {
		return nil, domainErrors.ErrGatewayTimeout
	}
	return &RefundResult{
		RefundID: fmt.Sprintf("rfnd_%s", uuid.New().String()[:8]),
		Status:   StatusSuccessful,
	}, nil
}

// ChargeCount reports how many distinct charges were created.
func (g *MockGateway) ChargeCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.charges)
}

var _ Gateway = (*MockGateway)(nil)
