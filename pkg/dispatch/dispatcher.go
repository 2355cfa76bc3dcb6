package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/altafuddin/FormFiller/internal/log"
	"github.com/altafuddin/FormFiller/pkg/forms"
	"github.com/altafuddin/FormFiller/pkg/perf"
	"github.com/altafuddin/FormFiller/pkg/uisync"
)

// Invocation is one unit of work requested by the reasoning engine.
// The sink is consumed exactly once, success or error.
type Invocation struct {
	ID   string
	Tool ToolName
	Args map[string]string
	Sink ResultSink
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithUIPushTimeout bounds the UI sync push. Exceeding it is a logged
// warning, not an invocation failure.
func WithUIPushTimeout(d time.Duration) Option {
	return func(dp *Dispatcher) { dp.uiTimeout = d }
}

// WithAckTimeout bounds result delivery back to the caller. Exceeding
// it fails the invocation: the engine must learn the outcome.
func WithAckTimeout(d time.Duration) Option {
	return func(dp *Dispatcher) { dp.ackTimeout = d }
}

// Dispatcher validates tool invocations against a form session, drives
// the state machine, and fires the UI push and caller acknowledgment
// concurrently. It is safe for concurrent use across sessions; calls
// for the same session serialize on the session lock.
type Dispatcher struct {
	registry *forms.Registry
	channel  uisync.Channel
	tracker  *perf.Tracker

	uiTimeout  time.Duration
	ackTimeout time.Duration
}

// NewDispatcher wires a dispatcher. The tracker may be nil to disable
// latency recording (tests).
func NewDispatcher(registry *forms.Registry, channel uisync.Channel, tracker *perf.Tracker, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry:   registry,
		channel:    channel,
		tracker:    tracker,
		uiTimeout:  2 * time.Second,
		ackTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch runs one tool invocation to completion. It always delivers
// exactly one result through the invocation's sink and returns the same
// outcome to the caller. A rejected invocation mutates nothing and
// pushes no UI event.
func (d *Dispatcher) Dispatch(ctx context.Context, sess *forms.Session, inv Invocation) Result {
	start := time.Now()

	cmd, err := ParseCommand(inv.Tool, inv.Args)
	if err != nil {
		return d.finish(ctx, inv, start, Fail(KindBadArguments, err.Error()), nil)
	}

	// Single writer per session: hold the lock for the whole dispatch
	// so racing invocations apply in receipt order, and the UI event is
	// enqueued before the next transition can produce one.
	sess.Lock()
	defer sess.Unlock()

	res, ev := d.apply(sess, cmd)
	return d.finish(ctx, inv, start, res, ev)
}

// apply drives the state machine and builds the post-transition event.
// Caller holds the session lock.
func (d *Dispatcher) apply(sess *forms.Session, cmd Command) (Result, *uisync.Event) {
	switch c := cmd.(type) {
	case OpenForm:
		def, err := d.registry.Lookup(c.FormType)
		if err != nil {
			return Fail(KindUnknownFormType, "no such form type: "+c.FormType), nil
		}
		sess.OpenLocked(def)
		ev := uisync.NewFormOpened(def.Type, d.registry.DisplayFields(def))
		return Ok(StatusReady), &ev

	case UpdateField:
		if err := sess.SetFieldLocked(c.Name, c.Value); err != nil {
			return Fail(KindInvalidState, "update_field requires an open form"), nil
		}
		d.noteUnknownField(sess, c.Name)
		ev := uisync.NewFieldUpdated(c.Name, c.Value)
		return Ok(StatusUpdated), &ev

	case SubmitForm:
		if err := sess.SubmitLocked(); err != nil {
			return Fail(KindInvalidState, "submit_form requires an open form"), nil
		}
		ev := uisync.NewFormSubmitted()
		return Ok(StatusSubmitted), &ev
	}
	return Fail(KindBadArguments, "unhandled command"), nil
}

// noteUnknownField logs field names outside the active definition.
// Such updates are stored anyway; misnaming by the engine must not
// wedge the conversation.
func (d *Dispatcher) noteUnknownField(sess *forms.Session, name string) {
	def, err := d.registry.Lookup(sess.FormTypeLocked())
	if err != nil {
		return
	}
	for _, f := range def.Fields {
		if f.Name == name {
			return
		}
	}
	log.Info("field not in form definition, stored anyway",
		"session", sess.ID, "form_type", def.Type, "field", name)
}

// finish fires the UI push and result acknowledgment concurrently,
// waits for both, and records dispatch latency. Failed attempts are
// timed under a distinguishable label.
func (d *Dispatcher) finish(ctx context.Context, inv Invocation, start time.Time, res Result, ev *uisync.Event) Result {
	var wg sync.WaitGroup

	if ev != nil && !res.IsError() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pushCtx, cancel := context.WithTimeout(ctx, d.uiTimeout)
			defer cancel()
			if err := d.channel.Send(pushCtx, *ev); err != nil {
				// The UI is a secondary consumer; the session stays
				// authoritative. Log and move on.
				log.Warn("ui push failed", "tool", inv.Tool, "event", ev.Type, "err", err)
			}
		}()
	}

	var ackErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		// Detached from conversation teardown: an already-computed
		// result still attempts delivery so the engine's function
		// call does not stay unresolved.
		ackCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.ackTimeout)
		defer cancel()
		ackErr = inv.Sink.Deliver(ackCtx, res)
	}()

	wg.Wait()

	if ackErr != nil {
		log.Error("result delivery failed", "tool", inv.Tool, "id", inv.ID, "err", ackErr)
		res = Fail(KindDeliveryTimeout, "result delivery failed: "+ackErr.Error())
	}

	d.record(inv.Tool, start, res)
	return res
}

func (d *Dispatcher) record(tool ToolName, start time.Time, res Result) {
	if d.tracker == nil {
		return
	}
	elapsed := time.Since(start)
	label := string(tool)
	if res.IsError() {
		label += "_error"
	} else {
		d.tracker.Record(perf.LabelVoiceInteraction, elapsed)
	}
	d.tracker.Record(label, elapsed)
}
