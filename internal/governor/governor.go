// Package governor bounds the number of concurrently running execution
// attempts across the trading pipeline.
package governor

import (
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Governor is a bounded pool of execution permits. Acquisition is strictly
// non-blocking: there is no waiting variant, because by the time a slot
// frees the market has moved and the opportunity is stale.
type Governor struct {
	sem      *semaphore.Weighted
	capacity int64
	inFlight atomic.Int64
}

// New creates a governor holding maxConcurrent permits. Values below one
// are clamped to one.
func New(maxConcurrent int) *Governor {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Governor{
		sem:      semaphore.NewWeighted(int64(maxConcurrent)),
		capacity: int64(maxConcurrent),
	}
}

// TryAcquire takes a permit, or returns nil immediately when all permits
// are held.
func (g *Governor) TryAcquire() *Permit {
	if !g.sem.TryAcquire(1) {
		return nil
	}
	g.inFlight.Add(1)
	return &Permit{g: g}
}

// Capacity returns the configured permit count.
func (g *Governor) Capacity() int64 { return g.capacity }

// InFlight returns the number of permits currently held.
func (g *Governor) InFlight() int64 { return g.inFlight.Load() }

// Permit is one execution slot. Callers defer Release immediately after a
// successful TryAcquire so the slot is returned on every exit path; this is
// the invariant that keeps concurrent executions bounded.
type Permit struct {
	g    *Governor
	once sync.Once
}

// Release returns the permit to the pool. Idempotent and nil-safe.
func (p *Permit) Release() {
	if p == nil {
		return
	}
	p.once.Do(func() {
		p.g.inFlight.Add(-1)
		p.g.sem.Release(1)
	})
}
