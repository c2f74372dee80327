// Package pricing holds the pure price math behind cross-venue arbitrage
// decisions. All arithmetic is float64; raw on-chain integers are converted
// at the boundary.
package pricing

import (
	"math"
	"math/big"

	"github.com/xvenuelabs/hyperarb/internal/domain"
)

// q96 is the UniswapV3 fixed-point scale applied to sqrt prices.
var q96 = math.Pow(2, 96)

// DexMid recovers a pool's mid price from its Q96 square-root price:
// square the sqrt price, undo the 2^96 scale, then adjust for the
// difference in token decimal precision.
func DexMid(sqrtPriceX96 *big.Int, decimalsA, decimalsB uint8) float64 {
	sqrtPrice, _ := new(big.Float).SetInt(sqrtPriceX96).Float64()
	base := math.Pow(sqrtPrice/q96, 2)
	return base * math.Pow(10, float64(int(decimalsA)-int(decimalsB)))
}

// SqrtPriceX96FromMid is the inverse of DexMid: it encodes a mid price as
// a Q96 sqrt price. Used by synthetic feeds and tests.
func SqrtPriceX96FromMid(mid float64, decimalsA, decimalsB uint8) *big.Int {
	raw := mid / math.Pow(10, float64(int(decimalsA)-int(decimalsB)))
	f := new(big.Float).SetFloat64(math.Sqrt(raw) * q96)
	i, _ := f.Int(nil)
	return i
}

// DexBidAsk derives the pool's effective bid and ask by charging half the
// fee tier on each side of the mid.
func DexBidAsk(st domain.DexState) (bid, ask float64) {
	mid := DexMid(st.SqrtPriceX96, st.DecimalsA, st.DecimalsB)
	fee := float64(st.FeeTierPpm) / 1_000_000
	return mid * (1 - fee/2), mid * (1 + fee/2)
}

// CexBidAsk applies a maker fee in basis points symmetrically to a raw
// top-of-book quote. A negative fee is a rebate and improves both
// effective prices.
func CexBidAsk(q domain.CexQuote, makerFeeBps float64) (bid, ask float64) {
	return q.BestBid * (1 - makerFeeBps/10_000), q.BestAsk * (1 + makerFeeBps/10_000)
}

// NetProfitBps is the round-trip edge in basis points when buying at buyPx
// and selling at sellPx, net of the flat gas cost amortized over the order
// notional. Gas is a fixed per-trade USD figure, not estimated dynamically.
func NetProfitBps(buyPx, sellPx, gasFeeUsd, orderSizeUsd float64) float64 {
	return ((sellPx-buyPx)/buyPx - gasFeeUsd/orderSizeUsd) * 10_000
}

// AssetAmount converts a USD order size to asset units at the decision
// price, rounded to four decimals.
func AssetAmount(orderSizeUsd, price float64) float64 {
	return math.Round(orderSizeUsd/price*10_000) / 10_000
}

// RoundUsd rounds to the smallest USD unit.
func RoundUsd(v float64) float64 {
	return math.Round(v*100) / 100
}

// CexLimitPrice pads a raw venue price against the taker in the fill
// direction: buys pay up, sells give way.
func CexLimitPrice(px float64, isBuy bool, slippageBps float64) float64 {
	if isBuy {
		return px * (1 + slippageBps/10_000)
	}
	return px * (1 - slippageBps/10_000)
}

// MinOutput shaves slippageBps off an expected swap output for use as an
// on-chain output guard. slippageBps of zero means no guard.
func MinOutput(expectedOut, slippageBps float64) float64 {
	return expectedOut * (1 - slippageBps/10_000)
}

// ToTokenUnits scales a human-readable amount into raw integer token units,
// rounding to the nearest unit. The multiply stays in float64 so unit
// conversion matches the venue math everywhere else in this package.
func ToTokenUnits(amount float64, decimals uint8) *big.Int {
	scaled := math.Round(amount * math.Pow(10, float64(decimals)))
	i, _ := new(big.Float).SetFloat64(scaled).Int(nil)
	return i
}
