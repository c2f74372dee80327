package strategy

import (
	"context"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/xvenuelabs/hyperarb/internal/domain"
	"github.com/xvenuelabs/hyperarb/internal/pricing"
)

// QuoteRecorder mirrors the latest per-venue quotes into the quote cache so
// the status API can serve them. It never emits actions.
type QuoteRecorder struct {
	name       string
	pool       common.Address
	instrument string
	cache      domain.QuoteCache
	logger     *slog.Logger
}

// NewQuoteRecorder creates a recorder keyed by the given strategy name. It
// watches the same pool and instrument as the strategy it shadows.
func NewQuoteRecorder(name string, pool common.Address, instrument string, cache domain.QuoteCache, logger *slog.Logger) *QuoteRecorder {
	return &QuoteRecorder{
		name:       name,
		pool:       pool,
		instrument: instrument,
		cache:      cache,
		logger:     logger.With(slog.String("strategy", name+"_quotes")),
	}
}

// Name returns the recorder identifier.
func (s *QuoteRecorder) Name() string { return s.name + "_quotes" }

// SyncState is a no-op; the cache fills from the live feeds.
func (s *QuoteRecorder) SyncState(ctx context.Context) error { return nil }

// ProcessEvent writes the quote the event carries to the cache. Cache
// failures are logged and swallowed; recording must never stall the bus.
func (s *QuoteRecorder) ProcessEvent(ctx context.Context, ev domain.Event) []domain.Action {
	switch e := ev.(type) {
	case domain.PoolUpdate:
		if e.Pool != s.pool || e.State.SqrtPriceX96 == nil || e.State.SqrtPriceX96.Sign() <= 0 {
			return nil
		}
		bid, ask := pricing.DexBidAsk(e.State)
		if err := s.cache.SetDexQuote(ctx, s.name, bid, ask, time.Now().UTC()); err != nil {
			s.logger.WarnContext(ctx, "dex quote not recorded", slog.String("error", err.Error()))
		}
	case domain.QuoteUpdate:
		if e.Quote.Instrument != s.instrument || e.Quote.BestBid <= 0 || e.Quote.BestAsk <= 0 {
			return nil
		}
		if err := s.cache.SetCexQuote(ctx, s.name, e.Quote.BestBid, e.Quote.BestAsk, e.Quote.Timestamp); err != nil {
			s.logger.WarnContext(ctx, "cex quote not recorded", slog.String("error", err.Error()))
		}
	}
	return nil
}
