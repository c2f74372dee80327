package executor

import (
	"context"
	"log/slog"

	"github.com/xvenuelabs/hyperarb/internal/domain"
)

// PaperDexLeg logs the swap it would have sent. FailWith, when set, makes
// every call fail; used to rehearse the failure taxonomy without capital.
type PaperDexLeg struct {
	logger   *slog.Logger
	FailWith error
}

// NewPaperDexLeg creates a log-only DEX leg.
func NewPaperDexLeg(logger *slog.Logger) *PaperDexLeg {
	return &PaperDexLeg{logger: logger.With(slog.String("component", "paper_dex_leg"))}
}

func (l *PaperDexLeg) ExecuteSwap(ctx context.Context, leg domain.DexLeg) error {
	if l.FailWith != nil {
		return l.FailWith
	}
	l.logger.InfoContext(ctx, "paper swap",
		slog.String("token_in", leg.TokenIn.Hex()),
		slog.String("token_out", leg.TokenOut.Hex()),
		slog.String("amount_in", leg.AmountIn.String()),
	)
	return nil
}

// PaperCexLeg logs the order it would have placed.
type PaperCexLeg struct {
	logger   *slog.Logger
	FailWith error
}

// NewPaperCexLeg creates a log-only CEX leg.
func NewPaperCexLeg(logger *slog.Logger) *PaperCexLeg {
	return &PaperCexLeg{logger: logger.With(slog.String("component", "paper_cex_leg"))}
}

func (l *PaperCexLeg) PlaceOrder(ctx context.Context, leg domain.CexLeg) error {
	if l.FailWith != nil {
		return l.FailWith
	}
	l.logger.InfoContext(ctx, "paper order",
		slog.String("instrument", leg.Instrument),
		slog.Bool("is_buy", leg.IsBuy),
		slog.Float64("size", leg.Size),
		slog.Float64("limit_px", leg.LimitPrice),
	)
	return nil
}
