package executor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xvenuelabs/hyperarb/internal/domain"
	"github.com/xvenuelabs/hyperarb/internal/platform/hyperevm"
)

// UniV3Leg executes the DEX side of an order through the swap router.
// Submission is fire-and-forget: the leg succeeds once the transaction is
// accepted into the mempool.
type UniV3Leg struct {
	router *hyperevm.Router
	logger *slog.Logger
}

// NewUniV3Leg wraps a router as a DEX leg executor.
func NewUniV3Leg(router *hyperevm.Router, logger *slog.Logger) *UniV3Leg {
	return &UniV3Leg{
		router: router,
		logger: logger.With(slog.String("component", "univ3_leg")),
	}
}

// ExecuteSwap submits an exactInputSingle swap for the leg.
func (l *UniV3Leg) ExecuteSwap(ctx context.Context, leg domain.DexLeg) error {
	txHash, err := l.router.ExactInputSingle(ctx, hyperevm.SwapParams{
		TokenIn:      leg.TokenIn,
		TokenOut:     leg.TokenOut,
		FeeTierPpm:   leg.FeeTierPpm,
		AmountIn:     leg.AmountIn,
		MinAmountOut: leg.MinAmountOut,
	})
	if err != nil {
		return fmt.Errorf("executor: univ3 swap: %w", err)
	}
	l.logger.InfoContext(ctx, "swap submitted",
		slog.String("tx", txHash.Hex()),
		slog.String("token_in", leg.TokenIn.Hex()),
		slog.String("token_out", leg.TokenOut.Hex()),
		slog.String("amount_in", leg.AmountIn.String()),
	)
	return nil
}
