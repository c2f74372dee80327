package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xvenuelabs/hyperarb/internal/domain"
)

// QuoteCache implements domain.QuoteCache on a Redis hash per strategy at
// "quotes:{strategy}". Each venue writes its own side of the hash, so the
// two feeds never clobber each other.
type QuoteCache struct {
	rdb *redis.Client
}

// NewQuoteCache creates a cache backed by the given client.
func NewQuoteCache(c *Client) *QuoteCache {
	return &QuoteCache{rdb: c.Underlying()}
}

func quoteKey(strategy string) string {
	return "quotes:" + strategy
}

// SetDexQuote stores the pool's effective bid/ask for a strategy.
func (qc *QuoteCache) SetDexQuote(ctx context.Context, strategy string, bid, ask float64, ts time.Time) error {
	return qc.setSide(ctx, strategy, "dex", bid, ask, ts)
}

// SetCexQuote stores the exchange top-of-book for a strategy.
func (qc *QuoteCache) SetCexQuote(ctx context.Context, strategy string, bid, ask float64, ts time.Time) error {
	return qc.setSide(ctx, strategy, "cex", bid, ask, ts)
}

func (qc *QuoteCache) setSide(ctx context.Context, strategy, venue string, bid, ask float64, ts time.Time) error {
	fields := map[string]interface{}{
		venue + "_bid": strconv.FormatFloat(bid, 'f', -1, 64),
		venue + "_ask": strconv.FormatFloat(ask, 'f', -1, 64),
		venue + "_ts":  strconv.FormatInt(ts.UnixMilli(), 10),
	}
	if err := qc.rdb.HSet(ctx, quoteKey(strategy), fields).Err(); err != nil {
		return fmt.Errorf("redis: set %s quote %s: %w", venue, strategy, err)
	}
	return nil
}

// GetQuotes returns all numeric fields of the strategy's quote hash, or
// domain.ErrNotFound when neither venue has written yet.
func (qc *QuoteCache) GetQuotes(ctx context.Context, strategy string) (map[string]float64, error) {
	vals, err := qc.rdb.HGetAll(ctx, quoteKey(strategy)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: get quotes %s: %w", strategy, err)
	}
	if len(vals) == 0 {
		return nil, domain.ErrNotFound
	}

	out := make(map[string]float64, len(vals))
	for field, raw := range vals {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		out[field] = v
	}
	return out, nil
}

var _ domain.QuoteCache = (*QuoteCache)(nil)
