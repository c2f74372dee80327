package hyperevm

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
)

// SwapEventSignature is the UniswapV3 Swap event topic:
// Swap(address indexed sender, address indexed recipient, int256 amount0,
// int256 amount1, uint160 sqrtPriceX96, uint128 liquidity, int24 tick)
var SwapEventSignature = common.HexToHash("0xc42079f94a6350d7e6235f29174924f928cc2ac818eb64fed8004e115fbcca67")

// slot0Selector is the 4-byte selector of slot0().
var slot0Selector = []byte{0x38, 0x50, 0xc7, 0xbd}

// Slot0Price reads the pool's current sqrtPriceX96 via an eth_call to
// slot0(). Only the first word of the return struct is needed.
func (c *Client) Slot0Price(ctx context.Context, pool common.Address) (*big.Int, error) {
	out, err := c.eth.CallContract(ctx, ethereum.CallMsg{
		To:   &pool,
		Data: slot0Selector,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("hyperevm: slot0 call %s: %w", pool.Hex(), err)
	}
	if len(out) < 32 {
		return nil, fmt.Errorf("hyperevm: slot0 returned %d bytes, want at least 32", len(out))
	}

	sqrtPriceX96 := new(big.Int).SetBytes(out[:32])
	if sqrtPriceX96.Sign() <= 0 {
		return nil, fmt.Errorf("hyperevm: pool %s reports zero sqrt price (uninitialized pool?)", pool.Hex())
	}
	return sqrtPriceX96, nil
}

// SubscribeSwaps subscribes to the pool's Swap logs. The caller owns the
// returned subscription and must drain logs until it errors or the context
// ends.
func (c *Client) SubscribeSwaps(ctx context.Context, pool common.Address, logs chan<- ethtypes.Log) (ethereum.Subscription, error) {
	query := ethereum.FilterQuery{
		Addresses: []common.Address{pool},
		Topics:    [][]common.Hash{{SwapEventSignature}},
	}
	sub, err := c.eth.SubscribeFilterLogs(ctx, query, logs)
	if err != nil {
		return nil, fmt.Errorf("hyperevm: subscribe swaps %s: %w", pool.Hex(), err)
	}
	return sub, nil
}

// DecodeSwapPrice extracts sqrtPriceX96 from a Swap log. The non-indexed
// data is laid out as amount0 (int256), amount1 (int256), sqrtPriceX96
// (uint160), liquidity (uint128), tick (int24), one 32-byte word each.
func DecodeSwapPrice(log ethtypes.Log) (*big.Int, error) {
	if len(log.Topics) == 0 || log.Topics[0] != SwapEventSignature {
		return nil, fmt.Errorf("hyperevm: not a Swap log")
	}
	if len(log.Data) < 160 {
		return nil, fmt.Errorf("hyperevm: swap log data is %d bytes, want 160", len(log.Data))
	}

	sqrtPriceX96 := new(big.Int).SetBytes(log.Data[64:96])
	if sqrtPriceX96.Sign() <= 0 {
		return nil, fmt.Errorf("hyperevm: swap log carries zero sqrt price")
	}
	return sqrtPriceX96, nil
}
