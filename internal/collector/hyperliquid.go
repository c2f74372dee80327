package collector

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xvenuelabs/hyperarb/internal/domain"
	"github.com/xvenuelabs/hyperarb/internal/platform/hyperliquid"
)

// HyperliquidCollector turns the venue's bbo websocket channel into
// QuoteUpdate events for one coin. The websocket client reconnects on its
// own; quote gaps during a reconnect are acceptable because the strategy
// always works from the latest snapshot.
type HyperliquidCollector struct {
	wsURL  string
	coin   string
	logger *slog.Logger
}

// NewHyperliquidCollector creates a collector for one instrument.
func NewHyperliquidCollector(wsURL, coin string, logger *slog.Logger) *HyperliquidCollector {
	return &HyperliquidCollector{
		wsURL:  wsURL,
		coin:   coin,
		logger: logger.With(slog.String("collector", "hyperliquid_bbo"), slog.String("coin", coin)),
	}
}

// Name identifies the collector in engine logs.
func (c *HyperliquidCollector) Name() string {
	return "hyperliquid_bbo:" + c.coin
}

// EventStream connects, subscribes to the coin's bbo channel, and returns
// the event channel. Connection or subscription failure is a setup error
// reported once.
func (c *HyperliquidCollector) EventStream(ctx context.Context) (<-chan domain.Event, error) {
	client := hyperliquid.NewWSClient(c.wsURL)

	out := make(chan domain.Event, 16)
	client.OnBbo(func(bbo hyperliquid.BboData) {
		quote, err := bbo.ToQuote()
		if err != nil {
			c.logger.Debug("discarding bbo frame", slog.String("error", err.Error()))
			return
		}
		select {
		case out <- domain.QuoteUpdate{Quote: quote}:
		case <-ctx.Done():
		}
	})

	if err := client.Connect(ctx); err != nil {
		return nil, fmt.Errorf("collector: hyperliquid connect: %w", err)
	}
	if err := client.SubscribeBbo(ctx, c.coin); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("collector: hyperliquid subscribe: %w", err)
	}

	// The bbo handler runs on the ws read loop, so out is never closed
	// here; the engine leaves the stream on ctx cancellation.
	go func() {
		<-ctx.Done()
		_ = client.Close()
	}()

	return out, nil
}
