package dispatch

import (
	"context"
	"errors"
	"sync"
)

// Status is the success payload acknowledged to the reasoning engine.
type Status string

const (
	StatusReady     Status = "READY"
	StatusUpdated   Status = "UPDATED"
	StatusSubmitted Status = "SUBMITTED"
)

// ErrorKind classifies a failed invocation. Every kind is recoverable;
// none terminates the owning conversation.
type ErrorKind string

const (
	// KindBadArguments means a required argument was missing or
	// malformed. No state change, no UI push.
	KindBadArguments ErrorKind = "bad_arguments"

	// KindInvalidState means the transition is forbidden from the
	// current session state. State is untouched.
	KindInvalidState ErrorKind = "invalid_state"

	// KindUnknownFormType means the registry has no such form. The
	// invocation fails; no substitute definition is ever used.
	KindUnknownFormType ErrorKind = "unknown_form_type"

	// KindDeliveryTimeout means the result acknowledgment exceeded its
	// timeout. The UI-push counterpart is only a logged warning.
	KindDeliveryTimeout ErrorKind = "delivery_timeout"

	// KindExportFailure means an observability export could not
	// complete. Reported to the operational caller only.
	KindExportFailure ErrorKind = "export_failure"
)

// Result is the single outcome of one tool invocation: either a status
// payload or an error kind with a message, never both.
type Result struct {
	Status  Status    `json:"status,omitempty"`
	ErrKind ErrorKind `json:"error_kind,omitempty"`
	Message string    `json:"error,omitempty"`
}

// Ok builds a success result.
func Ok(status Status) Result {
	return Result{Status: status}
}

// Fail builds an error result.
func Fail(kind ErrorKind, message string) Result {
	return Result{ErrKind: kind, Message: message}
}

// IsError reports whether the invocation failed.
func (r Result) IsError() bool { return r.ErrKind != "" }

// ResultSink delivers exactly one Result back to whoever issued the
// invocation. The sink is owned by the invocation and consumed once.
type ResultSink interface {
	Deliver(ctx context.Context, r Result) error
}

// ErrSinkConsumed is returned on a second delivery attempt.
var ErrSinkConsumed = errors.New("dispatch: result sink already consumed")

// ChanSink is a buffered single-result sink for in-process callers.
type ChanSink struct {
	ch   chan Result
	once sync.Once
}

// NewChanSink creates a sink ready for one delivery.
func NewChanSink() *ChanSink {
	return &ChanSink{ch: make(chan Result, 1)}
}

// Deliver hands the result to the waiting caller. The buffer means a
// live caller never blocks the dispatcher; ctx still bounds the wait
// if the sink was constructed unbuffered by a remote implementation.
func (s *ChanSink) Deliver(ctx context.Context, r Result) error {
	err := ErrSinkConsumed
	s.once.Do(func() {
		select {
		case s.ch <- r:
			err = nil
		case <-ctx.Done():
			err = ctx.Err()
		}
	})
	return err
}

// Wait blocks until the result arrives or ctx expires.
func (s *ChanSink) Wait(ctx context.Context) (Result, error) {
	select {
	case r := <-s.ch:
		return r, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}
