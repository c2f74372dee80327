package governor

import "testing"

func TestTryAcquireUpToCapacity(t *testing.T) {
	g := New(3)

	var permits []*Permit
	for i := 0; i < 3; i++ {
		p := g.TryAcquire()
		if p == nil {
			t.Fatalf("acquire %d failed below capacity", i+1)
		}
		permits = append(permits, p)
	}

	if p := g.TryAcquire(); p != nil {
		t.Fatal("acquire succeeded at capacity, want nil")
	}
	if g.InFlight() != 3 {
		t.Fatalf("InFlight = %d, want 3", g.InFlight())
	}

	for _, p := range permits {
		p.Release()
	}
}

func TestReleaseFreesASlot(t *testing.T) {
	g := New(2)

	p1 := g.TryAcquire()
	p2 := g.TryAcquire()
	if p1 == nil || p2 == nil {
		t.Fatal("initial acquires failed")
	}
	if g.TryAcquire() != nil {
		t.Fatal("third acquire succeeded with capacity 2")
	}

	p1.Release()

	p3 := g.TryAcquire()
	if p3 == nil {
		t.Fatal("acquire failed immediately after a release")
	}
	p2.Release()
	p3.Release()
}

func TestReleaseIsIdempotent(t *testing.T) {
	g := New(1)

	p := g.TryAcquire()
	if p == nil {
		t.Fatal("initial acquire failed")
	}
	p.Release()
	p.Release() // double release must not mint a second slot

	first := g.TryAcquire()
	if first == nil {
		t.Fatal("acquire failed after release")
	}
	if second := g.TryAcquire(); second != nil {
		t.Fatal("double release widened capacity beyond 1")
	}
	first.Release()

	if g.InFlight() != 0 {
		t.Fatalf("InFlight = %d after all releases, want 0", g.InFlight())
	}
}

func TestNilPermitReleaseIsSafe(t *testing.T) {
	var p *Permit
	p.Release() // must not panic
}

func TestCapacityClampedToOne(t *testing.T) {
	g := New(0)
	if g.Capacity() != 1 {
		t.Fatalf("Capacity = %d, want 1", g.Capacity())
	}
	p := g.TryAcquire()
	if p == nil {
		t.Fatal("acquire failed on clamped governor")
	}
	if g.TryAcquire() != nil {
		t.Fatal("second acquire succeeded on capacity-1 governor")
	}
	p.Release()
}
