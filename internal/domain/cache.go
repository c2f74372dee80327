package domain

import (
	"context"
	"time"
)

// QuoteCache holds the latest per-venue quotes for external inspection.
type QuoteCache interface {
	SetDexQuote(ctx context.Context, strategy string, bid, ask float64, ts time.Time) error
	SetCexQuote(ctx context.Context, strategy string, bid, ask float64, ts time.Time) error
	GetQuotes(ctx context.Context, strategy string) (map[string]float64, error)
}

// RateLimiter provides distributed rate limiting for venue API calls.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// StreamMessage is a single entry read back from a durable stream.
type StreamMessage struct {
	ID      string
	Payload []byte
}

// TelemetryBus fans execution telemetry out to external consumers over
// pub/sub and appends it to a capped durable stream.
type TelemetryBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	StreamAppend(ctx context.Context, stream string, payload []byte) error
	StreamRead(ctx context.Context, stream string, lastID string, count int) ([]StreamMessage, error)
}
