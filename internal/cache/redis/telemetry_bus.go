package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/xvenuelabs/hyperarb/internal/domain"
)

// streamMaxLen caps telemetry streams via XADD MAXLEN ~ so the stream trims
// itself instead of growing forever.
const streamMaxLen int64 = 10_000

// TelemetryBus implements domain.TelemetryBus: pub/sub for live consumers
// plus a capped stream for consumers that replay.
type TelemetryBus struct {
	rdb *redis.Client
}

// NewTelemetryBus creates a bus backed by the given client.
func NewTelemetryBus(c *Client) *TelemetryBus {
	return &TelemetryBus{rdb: c.Underlying()}
}

// Publish sends the payload to a pub/sub channel. Delivery is best-effort;
// a consumer that is not listening misses the message.
func (b *TelemetryBus) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := b.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("redis: publish %s: %w", channel, err)
	}
	return nil
}

// StreamAppend appends the payload to a capped stream.
func (b *TelemetryBus) StreamAppend(ctx context.Context, stream string, payload []byte) error {
	args := &redis.XAddArgs{
		Stream: stream,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]interface{}{"payload": payload},
	}
	if err := b.rdb.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("redis: stream append %s: %w", stream, err)
	}
	return nil
}

// StreamRead returns up to count entries after lastID ("0" reads from the
// beginning). No pending entries is an empty result, not an error.
func (b *TelemetryBus) StreamRead(ctx context.Context, stream, lastID string, count int) ([]domain.StreamMessage, error) {
	args := &redis.XReadArgs{
		Streams: []string{stream, lastID},
		Count:   int64(count),
		Block:   -1,
	}

	results, err := b.rdb.XRead(ctx, args).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis: stream read %s: %w", stream, err)
	}

	var messages []domain.StreamMessage
	for _, s := range results {
		for _, msg := range s.Messages {
			raw, ok := msg.Values["payload"]
			if !ok {
				continue
			}
			var data []byte
			switch v := raw.(type) {
			case string:
				data = []byte(v)
			case []byte:
				data = v
			default:
				continue
			}
			messages = append(messages, domain.StreamMessage{ID: msg.ID, Payload: data})
		}
	}
	return messages, nil
}

var _ domain.TelemetryBus = (*TelemetryBus)(nil)
