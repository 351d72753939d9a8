package idempotency_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/learnhub-th/coursepay/internal/idempotency"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTryClaim_FirstWinsSecondLoses(t *testing.T) {
	ctx := context.Background()
	g := idempotency.NewMemoryGuard()

	ok, err := g.TryClaim(ctx, "enroll", "pay-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = g.TryClaim(ctx, "enroll", "pay-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTryClaim_ScopesAreIndependent(t *testing.T) {
	ctx := context.Background()
	g := idempotency.NewMemoryGuard()

	ok, _ := g.TryClaim(ctx, "enroll", "key")
	assert.True(t, ok)
	ok, _ = g.TryClaim(ctx, "issue-certificate", "key")
	assert.True(t, ok)
}

func TestTryClaim_ConcurrentDuplicates_ExactlyOneWinner(t *testing.T) {
	ctx := context.Background()
	g := idempotency.NewMemoryGuard()

	const workers = 50
	var wins atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			ok, err := g.TryClaim(ctx, "payment.received", "pay-42")
			require.NoError(t, err)
			if ok {
				wins.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}
