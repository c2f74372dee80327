package executor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xvenuelabs/hyperarb/internal/domain"
	"github.com/xvenuelabs/hyperarb/internal/platform/hyperliquid"
)

// HyperliquidLeg executes the CEX side of an order as an IoC limit order.
type HyperliquidLeg struct {
	client *hyperliquid.Client
	logger *slog.Logger
}

// NewHyperliquidLeg wraps an exchange client as a CEX leg executor.
func NewHyperliquidLeg(client *hyperliquid.Client, logger *slog.Logger) *HyperliquidLeg {
	return &HyperliquidLeg{
		client: client,
		logger: logger.With(slog.String("component", "hyperliquid_leg")),
	}
}

// PlaceOrder submits the leg as an immediate-or-cancel limit order at the
// slippage-adjusted price carried on the leg.
func (l *HyperliquidLeg) PlaceOrder(ctx context.Context, leg domain.CexLeg) error {
	err := l.client.PlaceIOCOrder(ctx, hyperliquid.OrderParams{
		Coin:    leg.Instrument,
		IsBuy:   leg.IsBuy,
		Size:    leg.Size,
		LimitPx: leg.LimitPrice,
	})
	if err != nil {
		return fmt.Errorf("executor: hyperliquid order: %w", err)
	}
	l.logger.InfoContext(ctx, "order placed",
		slog.String("instrument", leg.Instrument),
		slog.Bool("is_buy", leg.IsBuy),
		slog.Float64("size", leg.Size),
		slog.Float64("limit_px", leg.LimitPrice),
	)
	return nil
}
