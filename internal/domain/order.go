package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Direction identifies which venue is bought and which is sold.
type Direction int

const (
	// DirectionBuyDexSellCex buys at the DEX ask and sells at the CEX bid.
	DirectionBuyDexSellCex Direction = 1
	// DirectionBuyCexSellDex buys at the CEX ask and sells at the DEX bid.
	DirectionBuyCexSellDex Direction = 2
)

func (d Direction) String() string {
	switch d {
	case DirectionBuyDexSellCex:
		return "buy_dex_sell_cex"
	case DirectionBuyCexSellDex:
		return "buy_cex_sell_dex"
	default:
		return "unknown"
	}
}

// Action is a unit of work emitted by a strategy onto the action bus.
// The sole concrete kind is ArbitrageOrder.
type Action interface {
	// ActionKind returns a stable label used in logs and telemetry.
	ActionKind() string
}

// DexLeg describes the on-chain swap side of an arbitrage order.
// Amounts are raw token units scaled by the token's decimals.
type DexLeg struct {
	TokenIn      common.Address
	TokenOut     common.Address
	FeeTierPpm   uint32
	AmountIn     *big.Int
	MinAmountOut *big.Int // zero disables the on-chain output guard
}

// CexLeg describes the exchange order side of an arbitrage order.
type CexLeg struct {
	Instrument string
	IsBuy      bool
	Size       float64 // asset units
	LimitPrice float64 // slippage-adjusted against the taker
}

// ArbitrageOrder pairs one DEX swap with one CEX order. The DEX leg is
// always executed first.
type ArbitrageOrder struct {
	ID        string // UUID assigned by the strategy
	Strategy  string
	Direction Direction
	DexLeg    DexLeg
	CexLeg    CexLeg
	CreatedAt time.Time
}

func (ArbitrageOrder) ActionKind() string { return "arbitrage_order" }

// NotionalUsd is the USD size of the order as priced on the CEX leg.
func (o ArbitrageOrder) NotionalUsd() float64 {
	return o.CexLeg.Size * o.CexLeg.LimitPrice
}
