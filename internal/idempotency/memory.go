package idempotency

import (
	"context"
	"sync"
)

// MemoryGuard is an in-process Guard for tests and single-node setups.
type MemoryGuard struct {
	mu     sync.Mutex
	claims map[string]struct{}
}

func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{claims: make(map[string]struct{})}
}

func (g *MemoryGuard) TryClaim(_ context.Context, scope, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	k := scope + ":" + key
	if _, exists := g.claims[k]; exists {
		return false, nil
	}
	g.claims[k] = struct{}{}
	return true, nil
}
