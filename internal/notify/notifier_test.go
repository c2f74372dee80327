package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
)

type recordingSender struct {
	name   string
	titles []string
	err    error
}

func (s *recordingSender) Send(ctx context.Context, title, message string) error {
	s.titles = append(s.titles, title)
	return s.err
}

func (s *recordingSender) Name() string { return s.name }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNotifyFiltersByEvent(t *testing.T) {
	sender := &recordingSender{name: "test"}
	n := NewNotifier([]Sender{sender}, []string{EventOneSided}, discardLogger())

	if err := n.Notify(context.Background(), EventFilled, "filled", "x"); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sender.titles) != 0 {
		t.Fatal("filtered event was delivered")
	}

	if err := n.Notify(context.Background(), EventOneSided, "exposure", "x"); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sender.titles) != 1 || sender.titles[0] != "exposure" {
		t.Fatalf("titles = %v, want [exposure]", sender.titles)
	}
}

func TestNotifyEmptyFilterAllowsEverything(t *testing.T) {
	sender := &recordingSender{name: "test"}
	n := NewNotifier([]Sender{sender}, nil, discardLogger())

	if err := n.Notify(context.Background(), EventEngineError, "boom", "x"); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sender.titles) != 1 {
		t.Fatal("alert was not delivered")
	}
}

func TestNotifyAllBypassesFilter(t *testing.T) {
	sender := &recordingSender{name: "test"}
	n := NewNotifier([]Sender{sender}, []string{EventFilled}, discardLogger())

	if err := n.NotifyAll(context.Background(), "exposure", "x"); err != nil {
		t.Fatalf("notify all: %v", err)
	}
	if len(sender.titles) != 1 {
		t.Fatal("NotifyAll did not deliver")
	}
}

func TestDispatchContinuesPastFailedSender(t *testing.T) {
	bad := &recordingSender{name: "bad", err: errors.New("down")}
	good := &recordingSender{name: "good"}
	n := NewNotifier([]Sender{bad, good}, nil, discardLogger())

	err := n.NotifyAll(context.Background(), "t", "m")
	if err == nil {
		t.Fatal("expected an aggregate error")
	}
	if len(good.titles) != 1 {
		t.Fatal("healthy sender was skipped after a failure")
	}
}
