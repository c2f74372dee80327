package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/xvenuelabs/hyperarb/internal/domain"
)

const defaultBusCapacity = 512

// Options tunes the engine's bus sizing. Zero values take defaults.
type Options struct {
	EventBusCapacity  int
	ActionBusCapacity int
}

// Engine orchestrates the data flow between collectors, strategies, and
// executors: collectors feed the event bus, strategies turn events into
// actions on the action bus, executors consume actions. One supervised
// goroutine runs per registered component; any one component's failure is
// logged and contained, never propagated to the others.
type Engine struct {
	logger *slog.Logger

	mu         sync.Mutex
	collectors []Collector
	strategies []Strategy
	executors  []Executor
	running    bool
	startedAt  time.Time

	eventCap  int
	actionCap int

	eventBus  *Bus[domain.Event]
	actionBus *Bus[domain.Action]
}

// New creates an idle engine. Components are registered with the Add
// methods before Run.
func New(logger *slog.Logger, opts Options) *Engine {
	eventCap := opts.EventBusCapacity
	if eventCap <= 0 {
		eventCap = defaultBusCapacity
	}
	actionCap := opts.ActionBusCapacity
	if actionCap <= 0 {
		actionCap = defaultBusCapacity
	}
	return &Engine{
		logger:    logger.With(slog.String("component", "engine")),
		eventCap:  eventCap,
		actionCap: actionCap,
	}
}

// AddCollector registers a collector. Must be called before Run.
func (e *Engine) AddCollector(c Collector) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.collectors = append(e.collectors, c)
}

// AddStrategy registers a strategy. Must be called before Run.
func (e *Engine) AddStrategy(s Strategy) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.strategies = append(e.strategies, s)
}

// AddExecutor registers an executor. Must be called before Run.
func (e *Engine) AddExecutor(x Executor) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.executors = append(e.executors, x)
}

// Run wires the buses, syncs every strategy once, then spawns one goroutine
// per component and blocks until the group drains. Under healthy operation
// that only happens when ctx is cancelled. A strategy sync failure aborts
// the run before anything is spawned.
func (e *Engine) Run(ctx context.Context) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return fmt.Errorf("engine: already running")
	}
	e.running = true
	e.startedAt = time.Now()
	e.eventBus = NewBus[domain.Event](e.eventCap)
	e.actionBus = NewBus[domain.Action](e.actionCap)
	collectors := append([]Collector(nil), e.collectors...)
	strategies := append([]Strategy(nil), e.strategies...)
	executors := append([]Executor(nil), e.executors...)
	eventBus, actionBus := e.eventBus, e.actionBus
	e.mu.Unlock()

	for _, s := range strategies {
		if err := s.SyncState(ctx); err != nil {
			return fmt.Errorf("engine: strategy %s sync: %w", s.Name(), err)
		}
	}

	e.logger.Info("engine starting",
		slog.Int("collectors", len(collectors)),
		slog.Int("strategies", len(strategies)),
		slog.Int("executors", len(executors)),
	)

	g, gctx := errgroup.WithContext(ctx)

	// Executors subscribe first so no action published by an early strategy
	// tick can miss them.
	for _, x := range executors {
		x := x
		sub := actionBus.Subscribe()
		g.Go(func() error {
			e.runExecutor(gctx, x, sub)
			return nil
		})
	}
	for _, s := range strategies {
		s := s
		sub := eventBus.Subscribe()
		g.Go(func() error {
			e.runStrategy(gctx, s, sub, actionBus)
			return nil
		})
	}
	for _, c := range collectors {
		c := c
		g.Go(func() error {
			e.runCollector(gctx, c, eventBus)
			return nil
		})
	}

	err := g.Wait()
	eventBus.Close()
	actionBus.Close()
	e.logger.Info("engine stopped",
		slog.Uint64("events_published", eventBus.Published()),
		slog.Uint64("actions_published", actionBus.Published()),
	)
	if err != nil {
		return fmt.Errorf("engine: run: %w", err)
	}
	return nil
}

// runCollector performs the collector's one-shot stream setup and forwards
// every event to the bus. Setup failure terminates only this task; the rest
// of the engine keeps running, starved of this feed.
func (e *Engine) runCollector(ctx context.Context, c Collector, bus *Bus[domain.Event]) {
	log := e.logger.With(slog.String("collector", c.Name()))
	log.Info("collector starting")

	stream, err := c.EventStream(ctx)
	if err != nil {
		log.Error("collector stream setup failed", slog.String("error", err.Error()))
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-stream:
			if !ok {
				log.Warn("collector stream ended, feed dark")
				return
			}
			bus.Publish(ev)
		}
	}
}

// runStrategy drains the strategy's event subscription and publishes every
// returned action. Lag is logged and skipped over, never fatal.
func (e *Engine) runStrategy(ctx context.Context, s Strategy, sub *Subscription[domain.Event], actions *Bus[domain.Action]) {
	defer sub.Cancel()
	log := e.logger.With(slog.String("strategy", s.Name()))
	log.Info("strategy starting")

	for {
		ev, err := sub.Recv(ctx)
		if err != nil {
			var lag *LaggedError
			switch {
			case errors.As(err, &lag):
				log.Warn("event subscription lagging", slog.Uint64("missed", lag.Missed))
				continue
			case errors.Is(err, ErrBusClosed):
				return
			default:
				// Context cancelled.
				return
			}
		}
		for _, action := range s.ProcessEvent(ctx, ev) {
			actions.Publish(action)
			log.Debug("action published", slog.String("kind", action.ActionKind()))
		}
	}
}

// runExecutor spawns one goroutine per received action so a slow leg
// sequence never stalls the receive loop or other executors. In-flight
// handlers are awaited on shutdown.
func (e *Engine) runExecutor(ctx context.Context, x Executor, sub *Subscription[domain.Action]) {
	defer sub.Cancel()
	log := e.logger.With(slog.String("executor", x.Name()))
	log.Info("executor starting")

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		action, err := sub.Recv(ctx)
		if err != nil {
			var lag *LaggedError
			switch {
			case errors.As(err, &lag):
				log.Warn("action subscription lagging", slog.Uint64("missed", lag.Missed))
				continue
			case errors.Is(err, ErrBusClosed):
				return
			default:
				return
			}
		}
		wg.Add(1)
		go func(action domain.Action) {
			defer wg.Done()
			if err := x.Execute(ctx, action); err != nil {
				log.Error("action execution failed",
					slog.String("kind", action.ActionKind()),
					slog.String("error", err.Error()),
				)
			}
		}(action)
	}
}

// Stats is a point-in-time summary for the status API.
type Stats struct {
	Running          bool
	StartedAt        time.Time
	Collectors       int
	Strategies       int
	Executors        int
	EventsPublished  uint64
	EventsDropped    uint64
	ActionsPublished uint64
	ActionsDropped   uint64
}

// Stats reports registration counts and bus counters.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	st := Stats{
		Running:    e.running,
		StartedAt:  e.startedAt,
		Collectors: len(e.collectors),
		Strategies: len(e.strategies),
		Executors:  len(e.executors),
	}
	if e.eventBus != nil {
		st.EventsPublished = e.eventBus.Published()
		st.EventsDropped = e.eventBus.Dropped()
	}
	if e.actionBus != nil {
		st.ActionsPublished = e.actionBus.Published()
		st.ActionsDropped = e.actionBus.Dropped()
	}
	return st
}
