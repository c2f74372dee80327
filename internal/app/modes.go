package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/xvenuelabs/hyperarb/internal/collector"
	"github.com/xvenuelabs/hyperarb/internal/config"
	"github.com/xvenuelabs/hyperarb/internal/crypto"
	"github.com/xvenuelabs/hyperarb/internal/engine"
	"github.com/xvenuelabs/hyperarb/internal/executor"
	"github.com/xvenuelabs/hyperarb/internal/governor"
	"github.com/xvenuelabs/hyperarb/internal/notify"
	"github.com/xvenuelabs/hyperarb/internal/platform/hyperevm"
	"github.com/xvenuelabs/hyperarb/internal/platform/hyperliquid"
	"github.com/xvenuelabs/hyperarb/internal/server"
	"github.com/xvenuelabs/hyperarb/internal/server/handler"
	"github.com/xvenuelabs/hyperarb/internal/strategy"
)

// legFactory builds the two execution legs for one strategy. Live mode hands
// out real venue legs; paper mode hands out log-only ones.
type legFactory func(sc config.StrategyConfig) (executor.DexLegExecutor, executor.CexLegExecutor)

// LiveMode trades with real funds: the wallet key is loaded, swaps go to the
// router, and exchange orders are signed and submitted.
func (a *App) LiveMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting live mode")

	key, err := crypto.LoadKey(crypto.KeyConfig{
		RawPrivateKey:    a.cfg.Wallet.PrivateKey,
		EncryptedKeyPath: a.cfg.Wallet.EncryptedKeyPath,
		KeyPassword:      a.cfg.Wallet.KeyPassword,
	})
	if err != nil {
		return fmt.Errorf("app: load wallet key: %w", err)
	}
	signer, err := crypto.NewSigner(key, a.cfg.Hyperliquid.SignatureSource)
	if err != nil {
		return fmt.Errorf("app: build signer: %w", err)
	}
	a.logger.InfoContext(ctx, "trading wallet loaded",
		slog.String("address", signer.Address().Hex()),
	)

	chain, err := a.dialChain(ctx)
	if err != nil {
		return err
	}

	router, err := hyperevm.NewRouter(chain, common.HexToAddress(a.cfg.Chain.RouterAddress), key)
	if err != nil {
		return fmt.Errorf("app: build router: %w", err)
	}
	exchange := hyperliquid.NewClient(a.cfg.Hyperliquid.APIURL, signer, deps.RateLimiter)

	return a.runEngine(ctx, deps, chain, func(sc config.StrategyConfig) (executor.DexLegExecutor, executor.CexLegExecutor) {
		return executor.NewUniV3Leg(router, a.logger), executor.NewHyperliquidLeg(exchange, a.logger)
	})
}

// PaperMode runs the full pipeline on live market data but swaps the
// execution legs for log-only stand-ins. No keys are required.
func (a *App) PaperMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting paper mode, orders will not reach any venue")

	chain, err := a.dialChain(ctx)
	if err != nil {
		return err
	}

	return a.runEngine(ctx, deps, chain, func(sc config.StrategyConfig) (executor.DexLegExecutor, executor.CexLegExecutor) {
		return executor.NewPaperDexLeg(a.logger), executor.NewPaperCexLeg(a.logger)
	})
}

func (a *App) dialChain(ctx context.Context) (*hyperevm.Client, error) {
	chain, err := hyperevm.Dial(ctx, hyperevm.ClientConfig{
		RPCWSURL: a.cfg.Chain.RPCWSURL,
		ChainID:  a.cfg.Chain.ChainID,
	})
	if err != nil {
		return nil, fmt.Errorf("app: dial chain: %w", err)
	}
	a.closers = append(a.closers, chain.Close)
	return chain, nil
}

// runEngine assembles the pipeline for every enabled strategy and runs the
// engine, the status server, and the archiver under one errgroup until the
// context ends.
func (a *App) runEngine(ctx context.Context, deps *Dependencies, chain *hyperevm.Client, legs legFactory) error {
	eng := engine.New(a.logger, engine.Options{
		EventBusCapacity:  a.cfg.Engine.EventBusCapacity,
		ActionBusCapacity: a.cfg.Engine.ActionBusCapacity,
	})
	registry := strategy.NewRegistry()

	seenPools := make(map[common.Address]bool)
	seenInstruments := make(map[string]bool)

	for _, sc := range a.cfg.EnabledStrategies() {
		pool := common.HexToAddress(sc.Pool)

		arb := strategy.NewCrossVenueArb(strategy.Config{
			Name:           sc.Name,
			Pool:           pool,
			TokenA:         common.HexToAddress(sc.TokenA),
			TokenB:         common.HexToAddress(sc.TokenB),
			DecimalsA:      uint8(sc.DecimalsA),
			DecimalsB:      uint8(sc.DecimalsB),
			FeeTierPpm:     uint32(sc.FeeTierPpm),
			Instrument:     sc.Instrument,
			OrderSizeUsd:   sc.OrderSizeUsd,
			MakerFeeBps:    sc.MakerFeeBps,
			GasFeeUsd:      sc.GasFeeUsd,
			MinProfitBps:   sc.MinProfitBps,
			CexSlippageBps: sc.CexSlippageBps,
			DexSlippageBps: sc.DexSlippageBps,
		}, a.logger)
		registry.Register(arb)
		eng.AddStrategy(arb)
		eng.AddStrategy(strategy.NewQuoteRecorder(sc.Name, pool, sc.Instrument, deps.QuoteCache, a.logger))

		// Feeds are shared: two strategies on the same pool or instrument
		// get one collector between them.
		if !seenPools[pool] {
			seenPools[pool] = true
			eng.AddCollector(collector.NewUniV3Collector(chain, collector.UniV3PoolConfig{
				Pool:       pool,
				FeeTierPpm: uint32(sc.FeeTierPpm),
				DecimalsA:  uint8(sc.DecimalsA),
				DecimalsB:  uint8(sc.DecimalsB),
			}, a.logger))
		}
		if !seenInstruments[sc.Instrument] {
			seenInstruments[sc.Instrument] = true
			eng.AddCollector(collector.NewHyperliquidCollector(a.cfg.Hyperliquid.WSURL, sc.Instrument, a.logger))
		}

		dex, cex := legs(sc)
		reporter := executor.MultiReporter{
			executor.NewSlogReporter(a.logger),
			executor.NewTelemetryReporter(deps.TelemetryBus, a.logger),
		}
		if deps.Journal != nil {
			reporter = append(reporter, executor.NewJournalReporter(deps.Journal, a.logger))
		}
		reporter = append(reporter, executor.NewNotifierReporter(deps.Notifier))

		eng.AddExecutor(executor.NewArbitrageExecutor(
			sc.Name,
			governor.New(a.cfg.Engine.MaxConcurrentExecutions),
			dex,
			cex,
			reporter,
			executor.ArbitrageConfig{
				Cooldown:  time.Duration(a.cfg.Engine.CooldownSeconds) * time.Second,
				CexFeeBps: sc.MakerFeeBps,
				GasFeeUsd: sc.GasFeeUsd,
				DedupTTL:  time.Duration(a.cfg.Engine.DedupTTLSeconds) * time.Second,
			},
			a.logger,
		))
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := eng.Run(gctx); err != nil {
			alertCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), 10*time.Second)
			defer cancel()
			_ = deps.Notifier.Notify(alertCtx, notify.EventEngineError, "Engine stopped", err.Error())
			return err
		}
		return nil
	})

	if deps.Archiver != nil {
		g.Go(func() error {
			if err := deps.Archiver.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	if a.cfg.Server.Enabled {
		a.startServer(gctx, g, deps, eng, registry)
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("app: run: %w", err)
	}
	return nil
}

// startServer spawns the status HTTP server plus a watcher that drains it
// when the group context ends.
func (a *App) startServer(ctx context.Context, g *errgroup.Group, deps *Dependencies, eng *engine.Engine, registry *strategy.Registry) {
	pingers := map[string]handler.Pinger{
		"redis": deps.Redis.Ping,
	}
	if deps.Postgres != nil {
		pingers["postgres"] = deps.Postgres.Ping
	}

	srv := server.NewServer(
		server.Config{Port: a.cfg.Server.Port},
		server.Handlers{
			Health:     handler.NewHealthHandler(pingers),
			Status:     handler.NewStatusHandler(a.cfg.Mode, eng, registry, deps.QuoteCache),
			Executions: handler.NewExecutionHandler(deps.Journal, deps.TelemetryBus, executor.TelemetryStream),
		},
		a.logger,
	)

	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}
