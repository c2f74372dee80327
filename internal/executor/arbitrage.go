// Package executor carries out arbitrage orders emitted on the action bus.
// The composite executor runs the two legs in a fixed sequence and reports
// every attempt, including the ones it deliberately skips.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/xvenuelabs/hyperarb/internal/domain"
	"github.com/xvenuelabs/hyperarb/internal/governor"
)

// DexLegExecutor performs the on-chain swap side of an order.
type DexLegExecutor interface {
	// ExecuteSwap submits the swap and returns once it is accepted by the
	// venue. It does not wait for confirmation.
	ExecuteSwap(ctx context.Context, leg domain.DexLeg) error
}

// CexLegExecutor performs the exchange order side of an order.
type CexLegExecutor interface {
	// PlaceOrder submits an immediate-or-cancel order and returns once the
	// venue acknowledges it.
	PlaceOrder(ctx context.Context, leg domain.CexLeg) error
}

// ArbitrageConfig carries the per-strategy execution knobs.
type ArbitrageConfig struct {
	// Cooldown is how long a permit is held after a successful fill. It
	// throttles back-to-back trades from the same strategy.
	Cooldown time.Duration
	// CexFeeBps prices the exchange leg's taker fee for the report.
	CexFeeBps float64
	// GasFeeUsd is the flat per-trade gas assumption for the report.
	GasFeeUsd float64
	// DedupTTL bounds how long an order ID blocks re-execution.
	DedupTTL time.Duration
}

// ArbitrageExecutor runs two-leg arbitrage orders: permit, DEX swap, CEX
// order, report. A missing permit drops the order without blocking; a failed
// DEX leg is recoverable; a failed CEX leg after a DEX fill is one-sided
// exposure and is reported as loudly as the system can manage.
type ArbitrageExecutor struct {
	name     string
	gov      *governor.Governor
	dex      DexLegExecutor
	cex      CexLegExecutor
	reporter Reporter
	dedup    *Dedup
	cfg      ArbitrageConfig
	logger   *slog.Logger
}

// NewArbitrageExecutor wires a composite executor for one strategy.
func NewArbitrageExecutor(
	name string,
	gov *governor.Governor,
	dex DexLegExecutor,
	cex CexLegExecutor,
	reporter Reporter,
	cfg ArbitrageConfig,
	logger *slog.Logger,
) *ArbitrageExecutor {
	if cfg.DedupTTL <= 0 {
		cfg.DedupTTL = 5 * time.Minute
	}
	return &ArbitrageExecutor{
		name:     name,
		gov:      gov,
		dex:      dex,
		cex:      cex,
		reporter: reporter,
		dedup:    NewDedup(cfg.DedupTTL),
		cfg:      cfg,
		logger:   logger.With(slog.String("executor", name)),
	}
}

// Name identifies the executor in engine logs.
func (e *ArbitrageExecutor) Name() string {
	return e.name
}

// Execute runs one action end to end. Actions that are not arbitrage orders
// are ignored. A nil return with no trade means the order was skipped;
// domain.ErrDexLegFailed and domain.ErrOneSidedExposure classify the two
// failure modes for the engine's error logs.
func (e *ArbitrageExecutor) Execute(ctx context.Context, action domain.Action) error {
	order, ok := action.(domain.ArbitrageOrder)
	if !ok {
		return nil
	}
	if e.dedup.IsDuplicate(order.ID) {
		e.logger.WarnContext(ctx, "duplicate order dropped", slog.String("order_id", order.ID))
		return nil
	}

	started := time.Now()

	permit := e.gov.TryAcquire()
	if permit == nil {
		e.logger.InfoContext(ctx, "skipping: at concurrency limit",
			slog.String("order_id", order.ID),
			slog.Int64("in_flight", e.gov.InFlight()),
		)
		e.record(ctx, order, domain.OutcomeSkipped, started, nil)
		return nil
	}
	defer permit.Release()

	e.logger.InfoContext(ctx, "executing order",
		slog.String("order_id", order.ID),
		slog.String("direction", order.Direction.String()),
		slog.Float64("notional_usd", order.NotionalUsd()),
	)

	// DEX first: the chain leg is the slow, failure-prone one, and failing
	// here leaves no position anywhere.
	if err := e.dex.ExecuteSwap(ctx, order.DexLeg); err != nil {
		e.record(ctx, order, domain.OutcomeDexFailed, started, err)
		return fmt.Errorf("executor: %s order %s: %w: %w", e.name, order.ID, domain.ErrDexLegFailed, err)
	}

	if err := e.cex.PlaceOrder(ctx, order.CexLeg); err != nil {
		e.logger.ErrorContext(ctx, "ONE-SIDED EXPOSURE: dex filled, cex failed",
			slog.String("order_id", order.ID),
			slog.String("direction", order.Direction.String()),
			slog.Float64("notional_usd", order.NotionalUsd()),
			slog.String("error", err.Error()),
		)
		e.record(ctx, order, domain.OutcomeOneSided, started, err)
		return fmt.Errorf("executor: %s order %s: %w: %w", e.name, order.ID, domain.ErrOneSidedExposure, err)
	}

	e.record(ctx, order, domain.OutcomeFilled, started, nil)

	// Hold the permit through the cooldown so the strategy cannot fire
	// again immediately. The deferred release runs after this returns.
	if e.cfg.Cooldown > 0 {
		select {
		case <-time.After(e.cfg.Cooldown):
		case <-ctx.Done():
		}
	}
	return nil
}

func (e *ArbitrageExecutor) record(ctx context.Context, order domain.ArbitrageOrder, outcome domain.ExecutionOutcome, started time.Time, cause error) {
	report := domain.ExecutionReport{
		ID:         uuid.NewString(),
		OrderID:    order.ID,
		Strategy:   order.Strategy,
		Direction:  order.Direction,
		Outcome:    outcome,
		StartedAt:  started,
		FinishedAt: time.Now(),
	}
	if cause != nil {
		report.Error = cause.Error()
	}
	if outcome == domain.OutcomeFilled || outcome == domain.OutcomeOneSided {
		notional := order.NotionalUsd()
		report.NotionalUsd = notional
		report.DexFeeUsd = notional * float64(order.DexLeg.FeeTierPpm) / 1e6
		report.GasFeeUsd = e.cfg.GasFeeUsd
		if outcome == domain.OutcomeFilled {
			report.CexFeeUsd = notional * e.cfg.CexFeeBps / 1e4
		}
	}
	e.reporter.Record(ctx, report)
}
