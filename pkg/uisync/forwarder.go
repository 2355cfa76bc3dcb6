package uisync

import (
	"context"
	"errors"
	"time"

	"github.com/gorilla/websocket"

	"github.com/altafuddin/FormFiller/internal/log"
)

const (
	forwarderQueueSize = 256
	reconnectMin       = time.Second
	reconnectMax       = 30 * time.Second
	forwardWriteWait   = 5 * time.Second
)

// ErrForwarderStopped is returned by Send after Stop.
var ErrForwarderStopped = errors.New("uisync: forwarder stopped")

// Forwarder pushes the event stream to a remote display service over an
// outbound websocket connection, reconnecting with backoff when the
// remote drops. Events queued while disconnected are discarded once the
// queue fills: the channel is best-effort by contract.
type Forwarder struct {
	url    string
	queue  chan []byte
	done   chan struct{}
	dialer *websocket.Dialer
}

// NewForwarder creates a forwarder for the given websocket URL.
// Call Start to begin forwarding.
func NewForwarder(url string) *Forwarder {
	return &Forwarder{
		url:    url,
		queue:  make(chan []byte, forwarderQueueSize),
		done:   make(chan struct{}),
		dialer: websocket.DefaultDialer,
	}
}

// Send queues an event for the remote display. Never blocks beyond ctx:
// a full queue drops the oldest pending event to make room, keeping the
// stream recent rather than complete.
func (f *Forwarder) Send(ctx context.Context, ev Event) error {
	data, err := ev.Encode()
	if err != nil {
		return err
	}

	select {
	case <-f.done:
		return ErrForwarderStopped
	case <-ctx.Done():
		return ctx.Err()
	case f.queue <- data:
		return nil
	default:
	}

	// Queue full: drop oldest, retry once.
	select {
	case <-f.queue:
		log.Warn("remote ui queue full, dropped oldest event", "url", f.url)
	default:
	}
	select {
	case f.queue <- data:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Start runs the forwarding loop until ctx is cancelled.
func (f *Forwarder) Start(ctx context.Context) {
	go f.run(ctx)
}

// Stop ends forwarding and rejects further sends.
func (f *Forwarder) Stop() {
	select {
	case <-f.done:
	default:
		close(f.done)
	}
}

func (f *Forwarder) run(ctx context.Context) {
	backoff := reconnectMin
	for {
		select {
		case <-ctx.Done():
			return
		case <-f.done:
			return
		default:
		}

		conn, _, err := f.dialer.DialContext(ctx, f.url, nil)
		if err != nil {
			log.Warn("remote ui dial failed", "url", f.url, "err", err, "retry_in", backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return
			case <-f.done:
				return
			}
			backoff *= 2
			if backoff > reconnectMax {
				backoff = reconnectMax
			}
			continue
		}

		log.Info("remote ui connected", "url", f.url)
		backoff = reconnectMin
		f.pump(ctx, conn)
		conn.Close()
	}
}

// pump writes queued events until the connection fails.
func (f *Forwarder) pump(ctx context.Context, conn *websocket.Conn) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-f.done:
			return
		case data := <-f.queue:
			conn.SetWriteDeadline(time.Now().Add(forwardWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Warn("remote ui write failed", "url", f.url, "err", err)
				return
			}
		}
	}
}
