package pubsub

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"veilink/internal/shared/goroutine"
	"veilink/internal/shared/logger"
)

// RedisBus implements Bus on a Redis client.
type RedisBus struct {
	client *redis.Client
	logger logger.Interface
}

// NewRedisBus creates a new Redis-backed bus.
func NewRedisBus(client *redis.Client, log logger.Interface) *RedisBus {
	return &RedisBus{client: client, logger: log}
}

func (b *RedisBus) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := b.client.Publish(ctx, channel, payload).Err(); err != nil {
		b.logger.Errorw("failed to publish", "channel", channel, "error", err)
		return fmt.Errorf("failed to publish to %s: %w", channel, err)
	}
	return nil
}

// PSubscribe consumes every message matching pattern until ctx is done,
// reconnecting with exponential backoff on transport errors. Handlers
// run on their own goroutine so a slow handler cannot stall the stream.
func (b *RedisBus) PSubscribe(ctx context.Context, pattern string, handler MessageHandler) error {
	backoff := time.Second
	maxBackoff := 30 * time.Second

	for {
		err := b.psubscribe(ctx, pattern, handler)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		b.logger.Warnw("bus subscription disconnected, reconnecting",
			"pattern", pattern,
			"error", err,
			"backoff", backoff,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff = min(backoff*2, maxBackoff)
	}
}

func (b *RedisBus) psubscribe(ctx context.Context, pattern string, handler MessageHandler) error {
	pubsub := b.client.PSubscribe(ctx, pattern)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", pattern, err)
	}

	b.logger.Infow("subscribed to bus pattern", "pattern", pattern)

	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			b.logger.Infow("bus subscriber stopped", "pattern", pattern, "reason", ctx.Err())
			return ctx.Err()

		case msg, ok := <-ch:
			if !ok {
				b.logger.Warnw("bus channel closed", "pattern", pattern)
				return nil
			}

			goroutine.SafeGo(b.logger, "bus-handler-"+pattern, func() {
				handler(msg.Channel, msg.Payload)
			})
		}
	}
}

func (b *RedisBus) Push(ctx context.Context, key string, values ...string) error {
	args := make([]any, 0, len(values))
	for _, v := range values {
		args = append(args, v)
	}
	if err := b.client.RPush(ctx, key, args...).Err(); err != nil {
		return fmt.Errorf("failed to push to %s: %w", key, err)
	}
	return nil
}

// Pop removes up to count items from the head of the list. Returns an
// empty slice when the list is exhausted.
func (b *RedisBus) Pop(ctx context.Context, key string, count int) ([]string, error) {
	values, err := b.client.LPopCount(ctx, key, count).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to pop from %s: %w", key, err)
	}
	return values, nil
}

func (b *RedisBus) Len(ctx context.Context, key string) (int64, error) {
	n, err := b.client.LLen(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get length of %s: %w", key, err)
	}
	return n, nil
}

// HGet returns the empty string without error when the field is absent.
func (b *RedisBus) HGet(ctx context.Context, key, field string) (string, error) {
	value, err := b.client.HGet(ctx, key, field).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("failed to hget %s/%s: %w", key, field, err)
	}
	return value, nil
}

func (b *RedisBus) HSet(ctx context.Context, key, field, value string) error {
	if err := b.client.HSet(ctx, key, field, value).Err(); err != nil {
		return fmt.Errorf("failed to hset %s/%s: %w", key, field, err)
	}
	return nil
}

func (b *RedisBus) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	values, err := b.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to hgetall %s: %w", key, err)
	}
	return values, nil
}

func (b *RedisBus) HDel(ctx context.Context, key string, fields ...string) error {
	if err := b.client.HDel(ctx, key, fields...).Err(); err != nil {
		return fmt.Errorf("failed to hdel %s: %w", key, err)
	}
	return nil
}
