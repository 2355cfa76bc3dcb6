package uisync

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestHubChannelSend(t *testing.T) {
	hub := NewHub("test")
	ch := NewHubChannel(hub)

	err := ch.Send(context.Background(), NewFieldUpdated("name", "x"))
	if err != nil {
		t.Fatalf("Send error = %v", err)
	}

	sent, failed := ch.Stats()
	if sent != 1 || failed != 0 {
		t.Errorf("Stats = %d sent, %d failed; want 1, 0", sent, failed)
	}

	// The event sits in the broadcast queue in FIFO order.
	select {
	case data := <-hub.broadcast:
		ev, err := ParseEvent(data)
		if err != nil {
			t.Fatalf("queued data not a valid event: %v", err)
		}
		if ev.Type != TypeFieldUpdated {
			t.Errorf("queued event type = %q, want %q", ev.Type, TypeFieldUpdated)
		}
	default:
		t.Fatal("no event queued")
	}
}

func TestHubChannelSendTimeout(t *testing.T) {
	hub := NewHub("test")
	ch := NewHubChannel(hub)

	// Fill the broadcast queue so Send must block.
	for {
		select {
		case hub.broadcast <- []byte("{}"):
			continue
		default:
		}
		break
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := ch.Send(ctx, NewFormSubmitted())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Send error = %v, want deadline exceeded", err)
	}
	if _, failed := ch.Stats(); failed != 1 {
		t.Errorf("failed counter = %d, want 1", failed)
	}
}

func TestHubChannelPreservesOrder(t *testing.T) {
	hub := NewHub("test")
	ch := NewHubChannel(hub)

	types := []EventType{TypeFormOpened, TypeFieldUpdated, TypeFormSubmitted}
	events := []Event{
		NewFormOpened("registration", nil),
		NewFieldUpdated("name", "x"),
		NewFormSubmitted(),
	}
	for _, ev := range events {
		if err := ch.Send(context.Background(), ev); err != nil {
			t.Fatalf("Send error = %v", err)
		}
	}

	for i, want := range types {
		data := <-hub.broadcast
		ev, err := ParseEvent(data)
		if err != nil {
			t.Fatalf("ParseEvent error = %v", err)
		}
		if ev.Type != want {
			t.Errorf("event %d type = %q, want %q", i, ev.Type, want)
		}
	}
}

type failingChannel struct{}

func (failingChannel) Send(ctx context.Context, ev Event) error {
	return errors.New("down")
}

func TestFanout(t *testing.T) {
	hub := NewHub("test")
	ok := NewHubChannel(hub)
	fan := Fanout{ok, failingChannel{}}

	err := fan.Send(context.Background(), NewFormSubmitted())
	if err == nil {
		t.Fatal("Fanout swallowed the failing channel's error")
	}

	// The healthy channel still got the event.
	if sent, _ := ok.Stats(); sent != 1 {
		t.Errorf("healthy channel sent = %d, want 1", sent)
	}
}
