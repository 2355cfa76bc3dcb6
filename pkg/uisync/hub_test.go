package uisync

import (
	"context"
	"sync"
	"testing"
	"time"
)

// slowObserver returns a client whose send channel is unbuffered, so any
// broadcast finds it full and the hub must drop it.
func slowObserver(h *Hub) *Client {
	return &Client{hub: h, send: make(chan []byte)}
}

func waitForCount(t *testing.T, h *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.ClientCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("ClientCount = %d, want %d", h.ClientCount(), want)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestHubDropsSlowObserversConcurrently(t *testing.T) {
	h := NewHub("test")
	go h.Run()

	for i := 0; i < 4; i++ {
		h.register <- slowObserver(h)
	}
	waitForCount(t, h, 4)

	// Hammer the read-side accessors while the hub loop is removing
	// slow observers from the client map.
	done := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
					_ = h.ClientCount()
					_ = h.IsRunning()
				}
			}
		}()
	}

	for i := 0; i < 10; i++ {
		if err := h.Enqueue(context.Background(), []byte(`{}`)); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}
	waitForCount(t, h, 0)

	close(done)
	wg.Wait()

	if !h.IsRunning() {
		t.Error("IsRunning = false after Run started")
	}
}

func TestHubUnregisterIsIdempotentWithDrop(t *testing.T) {
	h := NewHub("test")
	go h.Run()

	c := slowObserver(h)
	h.register <- c
	waitForCount(t, h, 1)

	// Drop via broadcast, then unregister the already-removed client.
	// The second removal must not close the send channel twice.
	if err := h.Enqueue(context.Background(), []byte(`{}`)); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	waitForCount(t, h, 0)
	h.unregister <- c
	waitForCount(t, h, 0)
}

func TestEnqueueHonorsContext(t *testing.T) {
	h := NewHub("test") // loop not running, queue fills up

	ctx := context.Background()
	for i := 0; i < cap(h.broadcast); i++ {
		if err := h.Enqueue(ctx, []byte(`{}`)); err != nil {
			t.Fatalf("Enqueue %d: %v", i, err)
		}
	}

	short, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	if err := h.Enqueue(short, []byte(`{}`)); err == nil {
		t.Error("Enqueue on full queue returned nil, want context error")
	}
}
