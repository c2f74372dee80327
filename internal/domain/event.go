package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Event is a venue update fanned out to strategies over the event bus.
// Concrete kinds: PoolUpdate, QuoteUpdate.
type Event interface {
	// EventKind returns a stable label used in logs and telemetry.
	EventKind() string
}

// DexState is an immutable snapshot of a UniswapV3-style pool. It is
// replaced wholesale on every update, never mutated.
type DexState struct {
	SqrtPriceX96 *big.Int // Q96 fixed-point sqrt price from slot0 or a Swap log
	FeeTierPpm   uint32   // pool fee tier in parts per million (3000 = 0.30%)
	DecimalsA    uint8    // base token decimals
	DecimalsB    uint8    // quote token decimals
}

// PoolUpdate carries a fresh pool snapshot from a DEX collector.
type PoolUpdate struct {
	Pool  common.Address
	State DexState
}

func (PoolUpdate) EventKind() string { return "pool_update" }

// CexQuote is a top-of-book quote derived from the two best book levels.
type CexQuote struct {
	Instrument string
	BestBid    float64
	BestAsk    float64
	Timestamp  time.Time
}

// QuoteUpdate carries a fresh top-of-book quote from a CEX collector.
type QuoteUpdate struct {
	Quote CexQuote
}

func (QuoteUpdate) EventKind() string { return "quote_update" }
