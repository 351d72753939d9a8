// Package eventbus wraps a durable publish/subscribe transport. Delivery is
// at-least-once: the same payload may reach the same or a restarted handler
// more than once, and cross-publisher ordering is not guaranteed. A handler
// returning nil acknowledges the message; a handler returning an error leaves
// it pending for redelivery after the visibility timeout.
package eventbus

import (
	"context"
	"errors"
)

// Handler processes one delivery. It must be idempotent.
type Handler func(ctx context.Context, payload []byte) error

// Publisher is the publish side of the bus. Publish failures are synchronous
// and surfaced to the caller, who decides whether to retry the whole business
// operation.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

// Subscriber is the consume side. Instances sharing a group compete for
// messages; each delivery goes to exactly one instance in the group.
type Subscriber interface {
	// Subscribe blocks, dispatching deliveries on topic to handler until
	// ctx is cancelled. Handler errors are logged and trigger redelivery,
	// never propagated to the caller.
	Subscribe(ctx context.Context, topic, group string, handler Handler) error
}

// Bus is the full client handed to workflow components. Lifecycle is
// explicit: connect on startup, Close to drain on shutdown.
type Bus interface {
	Publisher
	Subscriber
	Close() error
}

var ErrClosed = errors.New("eventbus: closed")
