// Package collector adapts the venue wire clients into engine collectors:
// lazy, effectively infinite event streams, one per feed.
package collector

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/xvenuelabs/hyperarb/internal/domain"
	"github.com/xvenuelabs/hyperarb/internal/platform/hyperevm"
)

// UniV3PoolConfig identifies the pool to watch plus the static metadata the
// chain does not need to be asked for on every update.
type UniV3PoolConfig struct {
	Pool       common.Address
	FeeTierPpm uint32
	DecimalsA  uint8
	DecimalsB  uint8
}

// UniV3Collector watches one UniswapV3-style pool. Stream setup reads slot0
// once so strategies get a price before the first swap, then forwards a
// PoolUpdate per Swap log. A dropped subscription ends the stream; the feed
// goes dark rather than silently reconnecting with a stale snapshot.
type UniV3Collector struct {
	client *hyperevm.Client
	cfg    UniV3PoolConfig
	logger *slog.Logger
}

// NewUniV3Collector creates a collector for the given pool.
func NewUniV3Collector(client *hyperevm.Client, cfg UniV3PoolConfig, logger *slog.Logger) *UniV3Collector {
	return &UniV3Collector{
		client: client,
		cfg:    cfg,
		logger: logger.With(slog.String("collector", "univ3_pool"), slog.String("pool", cfg.Pool.Hex())),
	}
}

// Name identifies the collector in engine logs.
func (c *UniV3Collector) Name() string {
	return "univ3_pool:" + c.cfg.Pool.Hex()
}

// EventStream reads the initial slot0 price, subscribes to Swap logs, and
// returns the event channel. Setup errors are returned once; they terminate
// only this collector.
func (c *UniV3Collector) EventStream(ctx context.Context) (<-chan domain.Event, error) {
	initial, err := c.client.Slot0Price(ctx, c.cfg.Pool)
	if err != nil {
		return nil, fmt.Errorf("collector: initial pool state: %w", err)
	}

	logs := make(chan ethtypes.Log, 64)
	sub, err := c.client.SubscribeSwaps(ctx, c.cfg.Pool, logs)
	if err != nil {
		return nil, fmt.Errorf("collector: swap subscription: %w", err)
	}

	out := make(chan domain.Event, 16)
	go func() {
		defer close(out)
		defer sub.Unsubscribe()

		// Seed the stream with the slot0 read so the strategy does not wait
		// for the first swap.
		select {
		case out <- c.poolUpdate(initial):
		case <-ctx.Done():
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case err := <-sub.Err():
				c.logger.Error("swap subscription dropped", slog.String("error", err.Error()))
				return
			case log := <-logs:
				price, err := hyperevm.DecodeSwapPrice(log)
				if err != nil {
					c.logger.Warn("undecodable swap log",
						slog.Uint64("block", log.BlockNumber),
						slog.String("error", err.Error()),
					)
					continue
				}
				select {
				case out <- c.poolUpdate(price):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

func (c *UniV3Collector) poolUpdate(sqrtPriceX96 *big.Int) domain.Event {
	return domain.PoolUpdate{
		Pool: c.cfg.Pool,
		State: domain.DexState{
			SqrtPriceX96: sqrtPriceX96,
			FeeTierPpm:   c.cfg.FeeTierPpm,
			DecimalsA:    c.cfg.DecimalsA,
			DecimalsB:    c.cfg.DecimalsB,
		},
	}
}
