package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// ErrBusClosed is returned by Recv once a closed bus has been drained.
var ErrBusClosed = errors.New("engine: bus closed")

// LaggedError reports that a subscriber fell behind its buffer window and
// the oldest unread items were dropped. Recv returns it once per lag burst,
// then resumes delivering the retained items.
type LaggedError struct {
	Missed uint64
}

func (e *LaggedError) Error() string {
	return fmt.Sprintf("engine: subscriber lagged, missed %d items", e.Missed)
}

// Bus is a multi-subscriber broadcast primitive with a fixed-size ring
// buffer per subscriber. Publish never blocks: a subscriber that falls
// behind loses its oldest unread items rather than growing an unbounded
// queue. Per-subscriber delivery preserves a single publisher's send order.
type Bus[T any] struct {
	mu        sync.Mutex
	capacity  int
	subs      map[*Subscription[T]]struct{}
	closed    bool
	published atomic.Uint64
	dropped   atomic.Uint64
}

// NewBus creates a bus whose subscribers each buffer up to capacity items.
func NewBus[T any](capacity int) *Bus[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &Bus[T]{
		capacity: capacity,
		subs:     make(map[*Subscription[T]]struct{}),
	}
}

// Subscribe registers a new subscriber. It sees only items published after
// the call.
func (b *Bus[T]) Subscribe() *Subscription[T] {
	sub := &Subscription[T]{
		bus:   b,
		buf:   make([]T, b.capacity),
		ready: make(chan struct{}, 1),
	}
	b.mu.Lock()
	if b.closed {
		sub.closed = true
	} else {
		b.subs[sub] = struct{}{}
	}
	b.mu.Unlock()
	return sub
}

// Publish fans v out to every subscriber and returns immediately.
func (b *Bus[T]) Publish(v T) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	subs := make([]*Subscription[T], 0, len(b.subs))
	for s := range b.subs {
		subs = append(subs, s)
	}
	b.mu.Unlock()

	b.published.Add(1)
	for _, s := range subs {
		if s.push(v) {
			b.dropped.Add(1)
		}
	}
}

// Close marks the bus closed. Subscribers drain their buffered items and
// then receive ErrBusClosed. Publish becomes a no-op.
func (b *Bus[T]) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	subs := make([]*Subscription[T], 0, len(b.subs))
	for s := range b.subs {
		subs = append(subs, s)
	}
	b.subs = make(map[*Subscription[T]]struct{})
	b.mu.Unlock()

	for _, s := range subs {
		s.close()
	}
}

// Published returns the number of items accepted by Publish.
func (b *Bus[T]) Published() uint64 { return b.published.Load() }

// Dropped returns the number of items discarded across all subscribers due
// to lag.
func (b *Bus[T]) Dropped() uint64 { return b.dropped.Load() }

func (b *Bus[T]) unsubscribe(sub *Subscription[T]) {
	b.mu.Lock()
	delete(b.subs, sub)
	b.mu.Unlock()
}

// Subscription is one subscriber's view of a Bus. Methods are safe for a
// single receiving goroutine concurrent with any number of publishers.
type Subscription[T any] struct {
	bus    *Bus[T]
	mu     sync.Mutex
	buf    []T // ring
	head   int // index of oldest buffered item
	count  int
	missed uint64
	closed bool
	ready  chan struct{}
}

// push appends v, evicting the oldest item when the ring is full. It
// reports whether an eviction happened.
func (s *Subscription[T]) push(v T) (evicted bool) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	if s.count == len(s.buf) {
		// Drop the oldest unread item; the subscriber learns the size of
		// the gap on its next Recv.
		s.head = (s.head + 1) % len(s.buf)
		s.count--
		s.missed++
		evicted = true
	}
	s.buf[(s.head+s.count)%len(s.buf)] = v
	s.count++
	s.mu.Unlock()

	s.signal()
	return evicted
}

// Recv blocks until an item is available, the bus closes, or ctx is done.
// After a lag burst it returns *LaggedError exactly once before resuming
// delivery with the oldest retained item.
func (s *Subscription[T]) Recv(ctx context.Context) (T, error) {
	var zero T
	for {
		s.mu.Lock()
		if s.missed > 0 {
			n := s.missed
			s.missed = 0
			pending := s.count > 0
			s.mu.Unlock()
			if pending {
				s.signal()
			}
			return zero, &LaggedError{Missed: n}
		}
		if s.count > 0 {
			v := s.buf[s.head]
			s.buf[s.head] = zero
			s.head = (s.head + 1) % len(s.buf)
			s.count--
			pending := s.count > 0
			s.mu.Unlock()
			if pending {
				s.signal()
			}
			return v, nil
		}
		if s.closed {
			s.mu.Unlock()
			return zero, ErrBusClosed
		}
		s.mu.Unlock()

		select {
		case <-s.ready:
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}

// Cancel detaches the subscription from the bus. Buffered items remain
// readable; once drained, Recv reports ErrBusClosed.
func (s *Subscription[T]) Cancel() {
	if s.bus != nil {
		s.bus.unsubscribe(s)
	}
	s.close()
}

func (s *Subscription[T]) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.signal()
}

func (s *Subscription[T]) signal() {
	select {
	case s.ready <- struct{}{}:
	default:
	}
}
