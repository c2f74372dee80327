package strategy

import (
	"context"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/xvenuelabs/hyperarb/internal/domain"
	"github.com/xvenuelabs/hyperarb/internal/pricing"
)

const defaultCrossVenueName = "cross_venue_arb"

// Config holds the per-pair tuning for a cross-venue strategy.
type Config struct {
	Name       string
	Pool       common.Address
	TokenA     common.Address // base asset, e.g. HYPE
	TokenB     common.Address // quote asset, e.g. USDC
	DecimalsA  uint8
	DecimalsB  uint8
	FeeTierPpm uint32
	Instrument string

	OrderSizeUsd   float64
	MakerFeeBps    float64 // negative = rebate
	GasFeeUsd      float64
	MinProfitBps   float64
	CexSlippageBps float64
	DexSlippageBps float64 // zero submits the swap without an output floor
}

// CrossVenueArb watches one AMM pool and one exchange book, recomputing the
// round-trip edge net of fees on every update and emitting at most one
// paired order per event.
type CrossVenueArb struct {
	cfg    Config
	logger *slog.Logger

	// Snapshot slots are owned by the engine's strategy loop; last write
	// per venue wins and no cross-venue ordering is assumed.
	lastDex *domain.DexState
	lastCex *domain.CexQuote
}

// NewCrossVenueArb creates a cross-venue arbitrage strategy for one pair.
func NewCrossVenueArb(cfg Config, logger *slog.Logger) *CrossVenueArb {
	name := cfg.Name
	if name == "" {
		name = defaultCrossVenueName
		cfg.Name = name
	}
	return &CrossVenueArb{
		cfg:    cfg,
		logger: logger.With(slog.String("strategy", name)),
	}
}

// Name returns the configured strategy identifier.
func (s *CrossVenueArb) Name() string { return s.cfg.Name }

// SyncState logs the trading parameters. The strategy carries no warm-up
// state; both snapshot slots start empty and fill from the live feeds.
func (s *CrossVenueArb) SyncState(ctx context.Context) error {
	s.logger.InfoContext(ctx, "strategy ready",
		slog.String("pool", s.cfg.Pool.Hex()),
		slog.String("instrument", s.cfg.Instrument),
		slog.Float64("order_size_usd", s.cfg.OrderSizeUsd),
		slog.Float64("maker_fee_bps", s.cfg.MakerFeeBps),
		slog.Float64("gas_fee_usd", s.cfg.GasFeeUsd),
		slog.Float64("min_profit_bps", s.cfg.MinProfitBps),
		slog.Float64("cex_slippage_bps", s.cfg.CexSlippageBps),
		slog.Float64("dex_slippage_bps", s.cfg.DexSlippageBps),
	)
	return nil
}

// ProcessEvent refreshes the venue snapshot the event belongs to and
// re-evaluates both trade directions. Events for other pools or
// instruments are ignored.
func (s *CrossVenueArb) ProcessEvent(ctx context.Context, ev domain.Event) []domain.Action {
	switch e := ev.(type) {
	case domain.PoolUpdate:
		if e.Pool != s.cfg.Pool {
			return nil
		}
		if e.State.SqrtPriceX96 == nil || e.State.SqrtPriceX96.Sign() <= 0 {
			s.logger.DebugContext(ctx, "discarding pool update without a price")
			return nil
		}
		st := e.State
		s.lastDex = &st
	case domain.QuoteUpdate:
		if e.Quote.Instrument != s.cfg.Instrument {
			return nil
		}
		if e.Quote.BestBid <= 0 || e.Quote.BestAsk <= 0 {
			s.logger.DebugContext(ctx, "discarding quote without both sides",
				slog.Float64("bid", e.Quote.BestBid),
				slog.Float64("ask", e.Quote.BestAsk),
			)
			return nil
		}
		q := e.Quote
		s.lastCex = &q
	default:
		return nil
	}
	return s.evaluate(ctx)
}

func (s *CrossVenueArb) evaluate(ctx context.Context) []domain.Action {
	if s.lastDex == nil || s.lastCex == nil {
		return nil
	}

	dexBid, dexAsk := pricing.DexBidAsk(*s.lastDex)
	cexBid, cexAsk := pricing.CexBidAsk(*s.lastCex, s.cfg.MakerFeeBps)

	buyDexNet := pricing.NetProfitBps(dexAsk, cexBid, s.cfg.GasFeeUsd, s.cfg.OrderSizeUsd)
	buyCexNet := pricing.NetProfitBps(cexAsk, dexBid, s.cfg.GasFeeUsd, s.cfg.OrderSizeUsd)

	s.logger.DebugContext(ctx, "spread evaluated",
		slog.Float64("dex_bid", dexBid),
		slog.Float64("dex_ask", dexAsk),
		slog.Float64("cex_bid_net", cexBid),
		slog.Float64("cex_ask_net", cexAsk),
		slog.Float64("buy_dex_net_bps", buyDexNet),
		slog.Float64("buy_cex_net_bps", buyCexNet),
	)

	// Evaluation order is the tie-break: when both directions clear the
	// threshold on the same event, buy-DEX wins.
	var order domain.ArbitrageOrder
	var netBps float64
	switch {
	case buyDexNet > s.cfg.MinProfitBps:
		order = s.buyDexSellCex(dexAsk)
		netBps = buyDexNet
	case buyCexNet > s.cfg.MinProfitBps:
		order = s.buyCexSellDex(dexBid, cexAsk)
		netBps = buyCexNet
	default:
		return nil
	}

	s.logger.InfoContext(ctx, "arbitrage opportunity",
		slog.String("order_id", order.ID),
		slog.String("direction", order.Direction.String()),
		slog.Float64("net_bps", netBps),
		slog.Float64("size", order.CexLeg.Size),
		slog.Float64("cex_limit", order.CexLeg.LimitPrice),
	)
	return []domain.Action{order}
}

// buyDexSellCex spends the USD leg on-chain to buy the base asset and
// sells the same size on the exchange at a floor below the raw bid.
func (s *CrossVenueArb) buyDexSellCex(dexAsk float64) domain.ArbitrageOrder {
	size := pricing.AssetAmount(s.cfg.OrderSizeUsd, dexAsk)
	amountIn := pricing.ToTokenUnits(pricing.RoundUsd(s.cfg.OrderSizeUsd), s.cfg.DecimalsB)
	return domain.ArbitrageOrder{
		ID:        uuid.NewString(),
		Strategy:  s.cfg.Name,
		Direction: domain.DirectionBuyDexSellCex,
		DexLeg: domain.DexLeg{
			TokenIn:      s.cfg.TokenB,
			TokenOut:     s.cfg.TokenA,
			FeeTierPpm:   s.cfg.FeeTierPpm,
			AmountIn:     amountIn,
			MinAmountOut: s.dexMinOut(size, s.cfg.DecimalsA),
		},
		CexLeg: domain.CexLeg{
			Instrument: s.cfg.Instrument,
			IsBuy:      false,
			Size:       size,
			LimitPrice: pricing.CexLimitPrice(s.lastCex.BestBid, false, s.cfg.CexSlippageBps),
		},
		CreatedAt: time.Now().UTC(),
	}
}

// buyCexSellDex buys the base asset on the exchange at a cap above the raw
// ask and sells the same size on-chain for the USD leg.
func (s *CrossVenueArb) buyCexSellDex(dexBid, cexAsk float64) domain.ArbitrageOrder {
	size := pricing.AssetAmount(s.cfg.OrderSizeUsd, cexAsk)
	expectedUsd := pricing.RoundUsd(size * dexBid)
	return domain.ArbitrageOrder{
		ID:        uuid.NewString(),
		Strategy:  s.cfg.Name,
		Direction: domain.DirectionBuyCexSellDex,
		DexLeg: domain.DexLeg{
			TokenIn:      s.cfg.TokenA,
			TokenOut:     s.cfg.TokenB,
			FeeTierPpm:   s.cfg.FeeTierPpm,
			AmountIn:     pricing.ToTokenUnits(size, s.cfg.DecimalsA),
			MinAmountOut: s.dexMinOut(expectedUsd, s.cfg.DecimalsB),
		},
		CexLeg: domain.CexLeg{
			Instrument: s.cfg.Instrument,
			IsBuy:      true,
			Size:       size,
			LimitPrice: pricing.CexLimitPrice(s.lastCex.BestAsk, true, s.cfg.CexSlippageBps),
		},
		CreatedAt: time.Now().UTC(),
	}
}

func (s *CrossVenueArb) dexMinOut(expected float64, decimals uint8) *big.Int {
	if s.cfg.DexSlippageBps <= 0 {
		return big.NewInt(0)
	}
	return pricing.ToTokenUnits(pricing.MinOutput(expected, s.cfg.DexSlippageBps), decimals)
}
