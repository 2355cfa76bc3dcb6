package uisync

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/altafuddin/FormFiller/internal/log"
)

// Hub maintains the set of connected UI observers and fans events out
// to them using the channel-based broadcast pattern. Events pass through
// a single queue, so observers see them in the order the corresponding
// transitions occurred.
type Hub struct {
	name string

	clients map[*Client]bool

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	running atomic.Bool
}

// NewHub creates a hub. The name shows up in logs only.
func NewHub(name string) *Hub {
	return &Hub{
		name:       name,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the hub's main loop. Call in a goroutine.
func (h *Hub) Run() {
	h.running.Store(true)
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			log.Info("ui observer connected", "hub", h.name, "total", count)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			log.Info("ui observer disconnected", "hub", h.name, "remaining", count)

		case data := <-h.broadcast:
			// Full lock: dropping a slow observer deletes from the
			// client map, which must not race with ClientCount
			// readers. This branch runs on the single hub goroutine,
			// so holding the write lock costs nothing.
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- data:
				default:
					// Observer's buffer is full - too slow, drop it.
					close(client.send)
					delete(h.clients, client)
					log.Warn("dropped slow ui observer", "hub", h.name)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Enqueue queues data for broadcast, blocking until the queue accepts
// it or ctx expires. The queue is FIFO, preserving event order.
func (h *Hub) Enqueue(ctx context.Context, data []byte) error {
	select {
	case h.broadcast <- data:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ClientCount returns the number of connected observers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// IsRunning reports whether the hub loop has started.
func (h *Hub) IsRunning() bool {
	return h.running.Load()
}
