package eventbus

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const streamPrefix = "events:"

// RedisBus implements Bus on Redis Streams. Each topic maps to one stream;
// each logical subscriber is a consumer group, so competing instances of the
// same service share a group and each delivery is routed to exactly one of
// them. Unacknowledged deliveries past the visibility timeout are reclaimed
// via XAUTOCLAIM and redelivered.
type RedisBus struct {
	client   *redis.Client
	consumer string // instance ID within the group
	logger   zerolog.Logger

	batchSize     int64
	blockDuration time.Duration
	visibility    time.Duration
}

type RedisBusOption func(*RedisBus)

func WithBatchSize(n int64) RedisBusOption {
	return func(b *RedisBus) { b.batchSize = n }
}

func WithBlockDuration(d time.Duration) RedisBusOption {
	return func(b *RedisBus) { b.blockDuration = d }
}

func WithVisibilityTimeout(d time.Duration) RedisBusOption {
	return func(b *RedisBus) { b.visibility = d }
}

func NewRedisBus(client *redis.Client, consumer string, logger zerolog.Logger, opts ...RedisBusOption) *RedisBus {
	b := &RedisBus{
		client:        client,
		consumer:      consumer,
		logger:        logger,
		batchSize:     10,
		blockDuration: 1 * time.Second,
		visibility:    30 * time.Second,
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

func stream(topic string) string { return streamPrefix + topic }

// Publish appends the payload to the topic's stream.
func (b *RedisBus) Publish(ctx context.Context, topic string, payload []byte) error {
	err := b.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream(topic),
		Values: map[string]any{
			"payload":   string(payload),
			"timestamp": time.Now().Unix(),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// Subscribe consumes the topic on behalf of group until ctx is cancelled.
// Handler errors leave the delivery pending; the reclaim pass picks it up
// again after the visibility timeout.
func (b *RedisBus) Subscribe(ctx context.Context, topic, group string, handler Handler) error {
	if err := b.ensureGroup(ctx, topic, group); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if err := b.reclaim(ctx, topic, group, handler); err != nil && ctx.Err() == nil {
			b.logger.Error().Err(err).Str("topic", topic).Msg("Failed to reclaim stale deliveries")
		}

		streams, err := b.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    group,
			Consumer: b.consumer,
			Streams:  []string{stream(topic), ">"},
			Count:    b.batchSize,
			Block:    b.blockDuration,
		}).Result()
		if err != nil {
			if err == redis.Nil || ctx.Err() != nil {
				continue
			}
			b.logger.Error().Err(err).Str("topic", topic).Msg("Failed to read from stream")
			time.Sleep(1 * time.Second)
			continue
		}

		for _, s := range streams {
			for _, msg := range s.Messages {
				b.dispatch(ctx, topic, group, handler, msg)
			}
		}
	}
}

func (b *RedisBus) dispatch(ctx context.Context, topic, group string, handler Handler, msg redis.XMessage) {
	payload, _ := msg.Values["payload"].(string)

	if err := handler(ctx, []byte(payload)); err != nil {
		// Leave the message pending; it becomes eligible for reclaim
		// after the visibility timeout.
		b.logger.Error().Err(err).
			Str("topic", topic).
			Str("message_id", msg.ID).
			Msg("Handler failed, message left for redelivery")
		return
	}

	if err := b.client.XAck(ctx, stream(topic), group, msg.ID).Err(); err != nil {
		b.logger.Error().Err(err).
			Str("topic", topic).
			Str("message_id", msg.ID).
			Msg("Failed to ack message")
	}
}

// reclaim takes over deliveries another consumer left pending for longer
// than the visibility timeout.
func (b *RedisBus) reclaim(ctx context.Context, topic, group string, handler Handler) error {
	msgs, _, err := b.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   stream(topic),
		Group:    group,
		Consumer: b.consumer,
		MinIdle:  b.visibility,
		Start:    "0-0",
		Count:    b.batchSize,
	}).Result()
	if err != nil {
		if err == redis.Nil {
			return nil
		}
		return fmt.Errorf("autoclaim %s: %w", topic, err)
	}

	for _, msg := range msgs {
		b.dispatch(ctx, topic, group, handler, msg)
	}
	return nil
}

func (b *RedisBus) ensureGroup(ctx context.Context, topic, group string) error {
	err := b.client.XGroupCreateMkStream(ctx, stream(topic), group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create consumer group %s on %s: %w", group, topic, err)
	}
	return nil
}

// Close releases the underlying connection.
func (b *RedisBus) Close() error {
	return b.client.Close()
}
