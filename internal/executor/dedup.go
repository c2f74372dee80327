package executor

import (
	"sync"
	"time"
)

// Dedup prevents one arbitrage order from being attempted more than once
// within a time-to-live window. Orders are broadcast on the action bus, so
// a second executor instance (or a re-published action) could otherwise
// double-trade the same opportunity. Safe for concurrent use.
type Dedup struct {
	seen map[string]time.Time // orderID -> last seen time
	ttl  time.Duration
	mu   sync.Mutex
}

// NewDedup creates a Dedup that treats an order ID as a duplicate when it
// was seen within ttl.
func NewDedup(ttl time.Duration) *Dedup {
	return &Dedup{
		seen: make(map[string]time.Time),
		ttl:  ttl,
	}
}

// IsDuplicate reports whether orderID was seen within the TTL window. An
// unseen (or expired) ID is recorded and reported as fresh. Expired entries
// are pruned on every call, so the map is bounded by the order rate within
// one TTL window and needs no external sweeper.
func (d *Dedup) IsDuplicate(orderID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()
	d.pruneLocked(now)

	if lastSeen, ok := d.seen[orderID]; ok && now.Sub(lastSeen) < d.ttl {
		return true
	}
	d.seen[orderID] = now
	return false
}

// Cleanup drops entries older than the TTL.
func (d *Dedup) Cleanup() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pruneLocked(time.Now())
}

func (d *Dedup) pruneLocked(now time.Time) {
	for id, ts := range d.seen {
		if now.Sub(ts) >= d.ttl {
			delete(d.seen, id)
		}
	}
}
