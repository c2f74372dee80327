package engine

import (
	"context"

	"github.com/xvenuelabs/hyperarb/internal/domain"
)

// Collector produces a lazy, effectively infinite sequence of venue events.
// EventStream is called exactly once per engine run; the returned channel is
// not restartable. Closing the channel means the feed has gone dark.
type Collector interface {
	Name() string
	EventStream(ctx context.Context) (<-chan domain.Event, error)
}

// Strategy consumes events and produces actions. SyncState runs once before
// the event loop. ProcessEvent should return quickly; a slow
// strategy only lags its own bus subscription, never the whole engine.
type Strategy interface {
	Name() string
	SyncState(ctx context.Context) error
	ProcessEvent(ctx context.Context, ev domain.Event) []domain.Action
}

// Executor consumes actions. Concurrency governance, cooldown, and
// partial-failure policy are the executor's own responsibility.
type Executor interface {
	Name() string
	Execute(ctx context.Context, action domain.Action) error
}
