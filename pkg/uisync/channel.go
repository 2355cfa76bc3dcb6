package uisync

import (
	"context"
	"errors"
	"sync/atomic"
)

// Channel is the push side of the UI sync path. Delivery is best-effort:
// a failed or timed-out Send is counted and logged by the caller, it
// never fails the originating tool invocation. The FormSession stays
// authoritative regardless of what the UI saw.
type Channel interface {
	Send(ctx context.Context, ev Event) error
}

// HubChannel broadcasts events to every observer attached to a Hub.
type HubChannel struct {
	hub *Hub

	sent   atomic.Int64
	failed atomic.Int64
}

// NewHubChannel wraps a hub as a Channel.
func NewHubChannel(hub *Hub) *HubChannel {
	return &HubChannel{hub: hub}
}

// Send encodes and enqueues the event for broadcast. Blocks until the
// hub queue accepts it or ctx expires.
func (c *HubChannel) Send(ctx context.Context, ev Event) error {
	data, err := ev.Encode()
	if err != nil {
		c.failed.Add(1)
		return err
	}
	if err := c.hub.Enqueue(ctx, data); err != nil {
		c.failed.Add(1)
		return err
	}
	c.sent.Add(1)
	return nil
}

// Stats returns the sent and failed counters.
func (c *HubChannel) Stats() (sent, failed int64) {
	return c.sent.Load(), c.failed.Load()
}

// Fanout sends every event to all of its channels. An error from one
// channel does not stop the others; errors are joined for the caller
// to log.
type Fanout []Channel

// Send pushes the event to each channel in turn.
func (f Fanout) Send(ctx context.Context, ev Event) error {
	var errs []error
	for _, ch := range f {
		if err := ch.Send(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
