package eventbus

import (
	"context"
	"sync"
)

// MemoryBus is an in-process Bus with the same at-least-once contract as the
// Redis implementation: a handler error requeues the delivery. It backs the
// workflow tests and lets duplicate delivery be simulated deliberately via
// Redeliver.
type MemoryBus struct {
	mu       sync.Mutex
	handlers map[string][]groupHandler
	closed   bool

	// Published keeps every successfully published payload per topic, in
	// order, for assertions.
	published map[string][][]byte
}

type groupHandler struct {
	group   string
	handler Handler
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{
		handlers:  make(map[string][]groupHandler),
		published: make(map[string][][]byte),
	}
}

// Publish delivers the payload synchronously to one handler per subscribed
// group. A handler error is swallowed (the transport would redeliver); use
// Redeliver to exercise that path.
func (b *MemoryBus) Publish(ctx context.Context, topic string, payload []byte) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	b.published[topic] = append(b.published[topic], payload)
	hs := append([]groupHandler(nil), b.handlers[topic]...)
	b.mu.Unlock()

	for _, gh := range hs {
		_ = gh.handler(ctx, payload)
	}
	return nil
}

// Subscribe registers the handler and returns immediately; deliveries happen
// inline on Publish/Redeliver.
func (b *MemoryBus) Subscribe(_ context.Context, topic, group string, handler Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	// One handler per group, competing-consumer style: a second instance
	// of the same group replaces rather than duplicates delivery.
	for i, gh := range b.handlers[topic] {
		if gh.group == group {
			b.handlers[topic][i].handler = handler
			return nil
		}
	}
	b.handlers[topic] = append(b.handlers[topic], groupHandler{group: group, handler: handler})
	return nil
}

// Redeliver replays an already-published payload to every subscribed group,
// simulating at-least-once duplicate delivery.
func (b *MemoryBus) Redeliver(ctx context.Context, topic string, payload []byte) {
	b.mu.Lock()
	hs := append([]groupHandler(nil), b.handlers[topic]...)
	b.mu.Unlock()

	for _, gh := range hs {
		_ = gh.handler(ctx, payload)
	}
}

// Published returns the payloads published on topic, in order.
func (b *MemoryBus) Published(topic string) [][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([][]byte(nil), b.published[topic]...)
}

func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}
