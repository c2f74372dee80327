package engine

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBusDeliversInPublishOrder(t *testing.T) {
	bus := NewBus[int](8)
	sub := bus.Subscribe()

	for i := 1; i <= 5; i++ {
		bus.Publish(i)
	}

	ctx := context.Background()
	for want := 1; want <= 5; want++ {
		got, err := sub.Recv(ctx)
		if err != nil {
			t.Fatalf("Recv(%d): unexpected error %v", want, err)
		}
		if got != want {
			t.Fatalf("Recv returned %d, want %d", got, want)
		}
	}
}

func TestBusLateSubscriberSeesOnlyNewItems(t *testing.T) {
	bus := NewBus[int](8)
	bus.Publish(1)
	bus.Publish(2)

	sub := bus.Subscribe()
	bus.Publish(3)

	got, err := sub.Recv(context.Background())
	if err != nil {
		t.Fatalf("Recv: unexpected error %v", err)
	}
	if got != 3 {
		t.Fatalf("late subscriber got %d, want 3", got)
	}
}

func TestBusDropsOldestAndReportsLag(t *testing.T) {
	bus := NewBus[int](3)
	sub := bus.Subscribe()

	for i := 1; i <= 5; i++ {
		bus.Publish(i)
	}

	ctx := context.Background()
	_, err := sub.Recv(ctx)
	var lag *LaggedError
	if !errors.As(err, &lag) {
		t.Fatalf("Recv after overflow returned %v, want LaggedError", err)
	}
	if lag.Missed != 2 {
		t.Fatalf("lag reported %d missed, want 2", lag.Missed)
	}

	// The oldest items (1, 2) were evicted; 3..5 must survive in order.
	for want := 3; want <= 5; want++ {
		got, err := sub.Recv(ctx)
		if err != nil {
			t.Fatalf("Recv(%d) after lag: unexpected error %v", want, err)
		}
		if got != want {
			t.Fatalf("Recv after lag returned %d, want %d", got, want)
		}
	}

	if bus.Dropped() != 2 {
		t.Fatalf("bus counted %d dropped, want 2", bus.Dropped())
	}
}

func TestBusLagReportedOncePerBurst(t *testing.T) {
	bus := NewBus[int](1)
	sub := bus.Subscribe()
	ctx := context.Background()

	bus.Publish(1)
	bus.Publish(2) // evicts 1

	if _, err := sub.Recv(ctx); err == nil {
		t.Fatal("expected lag error on first Recv")
	}
	got, err := sub.Recv(ctx)
	if err != nil {
		t.Fatalf("second Recv: unexpected error %v", err)
	}
	if got != 2 {
		t.Fatalf("second Recv returned %d, want 2", got)
	}
}

func TestBusCloseDrainsThenReportsClosed(t *testing.T) {
	bus := NewBus[string](4)
	sub := bus.Subscribe()
	bus.Publish("a")
	bus.Publish("b")
	bus.Close()

	ctx := context.Background()
	for _, want := range []string{"a", "b"} {
		got, err := sub.Recv(ctx)
		if err != nil {
			t.Fatalf("Recv(%q) after close: unexpected error %v", want, err)
		}
		if got != want {
			t.Fatalf("Recv after close returned %q, want %q", got, want)
		}
	}
	if _, err := sub.Recv(ctx); !errors.Is(err, ErrBusClosed) {
		t.Fatalf("Recv on drained closed bus returned %v, want ErrBusClosed", err)
	}
}

func TestBusRecvHonoursContext(t *testing.T) {
	bus := NewBus[int](4)
	sub := bus.Subscribe()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := sub.Recv(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Recv on empty bus returned %v, want deadline exceeded", err)
	}
}

func TestBusRecvWakesOnPublish(t *testing.T) {
	bus := NewBus[int](4)
	sub := bus.Subscribe()

	done := make(chan int, 1)
	go func() {
		v, err := sub.Recv(context.Background())
		if err != nil {
			done <- -1
			return
		}
		done <- v
	}()

	time.Sleep(10 * time.Millisecond)
	bus.Publish(42)

	select {
	case v := <-done:
		if v != 42 {
			t.Fatalf("blocked Recv woke with %d, want 42", v)
		}
	case <-time.After(time.Second):
		t.Fatal("Recv did not wake after Publish")
	}
}

func TestBusCancelledSubscriberStopsReceiving(t *testing.T) {
	bus := NewBus[int](4)
	sub := bus.Subscribe()
	sub.Cancel()

	bus.Publish(1)
	if _, err := sub.Recv(context.Background()); !errors.Is(err, ErrBusClosed) {
		t.Fatalf("Recv on cancelled subscription returned %v, want ErrBusClosed", err)
	}
}
