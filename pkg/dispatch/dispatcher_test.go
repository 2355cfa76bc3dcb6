package dispatch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/altafuddin/FormFiller/pkg/forms"
	"github.com/altafuddin/FormFiller/pkg/perf"
	"github.com/altafuddin/FormFiller/pkg/uisync"
)

// captureChannel records pushed events for assertions.
type captureChannel struct {
	mu     sync.Mutex
	events []uisync.Event
}

func (c *captureChannel) Send(ctx context.Context, ev uisync.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
	return nil
}

func (c *captureChannel) all() []uisync.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]uisync.Event(nil), c.events...)
}

// blockedSink never accepts a delivery within its context.
type blockedSink struct{}

func (blockedSink) Deliver(ctx context.Context, r Result) error {
	<-ctx.Done()
	return ctx.Err()
}

func newTestDispatcher(ch uisync.Channel, tracker *perf.Tracker) *Dispatcher {
	return NewDispatcher(forms.NewRegistry(), ch, tracker)
}

func dispatchTool(t *testing.T, d *Dispatcher, sess *forms.Session, tool ToolName, args map[string]string) (Result, Result) {
	t.Helper()
	sink := NewChanSink()
	res := d.Dispatch(context.Background(), sess, Invocation{
		ID:   "inv-1",
		Tool: tool,
		Args: args,
		Sink: sink,
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	delivered, err := sink.Wait(ctx)
	if err != nil {
		t.Fatalf("result was never delivered: %v", err)
	}
	return res, delivered
}

func TestDispatchOpenForm(t *testing.T) {
	ch := &captureChannel{}
	d := newTestDispatcher(ch, nil)
	sess := forms.NewSession("s1")

	res, delivered := dispatchTool(t, d, sess, ToolOpenForm, map[string]string{"form_type": "registration"})

	if res.IsError() {
		t.Fatalf("Dispatch error = %+v", res)
	}
	if res.Status != StatusReady {
		t.Errorf("Status = %q, want %q", res.Status, StatusReady)
	}
	if delivered != res {
		t.Errorf("delivered result %+v differs from returned %+v", delivered, res)
	}
	if sess.State() != forms.StateOpen {
		t.Errorf("session state = %v, want %v", sess.State(), forms.StateOpen)
	}

	events := ch.all()
	if len(events) != 1 {
		t.Fatalf("got %d UI events, want 1", len(events))
	}
	if events[0].Type != uisync.TypeFormOpened {
		t.Errorf("event type = %q, want %q", events[0].Type, uisync.TypeFormOpened)
	}
	payload, ok := events[0].Payload.(uisync.FormOpenedPayload)
	if !ok {
		t.Fatalf("payload type = %T, want FormOpenedPayload", events[0].Payload)
	}
	if payload.FormType != "registration" || len(payload.Fields) != 3 {
		t.Errorf("payload = %+v, want registration with 3 fields", payload)
	}
}

func TestDispatchUpdateField(t *testing.T) {
	ch := &captureChannel{}
	d := newTestDispatcher(ch, nil)
	sess := forms.NewSession("s1")

	dispatchTool(t, d, sess, ToolOpenForm, map[string]string{"form_type": "registration"})
	res, _ := dispatchTool(t, d, sess, ToolUpdateField, map[string]string{
		"field_name":  "email",
		"field_value": "a@b.com",
	})

	if res.Status != StatusUpdated {
		t.Errorf("Status = %q, want %q", res.Status, StatusUpdated)
	}
	if v, ok := sess.Field("email"); !ok || v != "a@b.com" {
		t.Errorf("Field(email) = %q, %v; want a@b.com, true", v, ok)
	}

	events := ch.all()
	if len(events) != 2 {
		t.Fatalf("got %d UI events, want 2", len(events))
	}
	if events[1].Type != uisync.TypeFieldUpdated {
		t.Errorf("second event type = %q, want %q", events[1].Type, uisync.TypeFieldUpdated)
	}
}

func TestDispatchSubmitWhileIdle(t *testing.T) {
	ch := &captureChannel{}
	d := newTestDispatcher(ch, nil)
	sess := forms.NewSession("s1")

	res, delivered := dispatchTool(t, d, sess, ToolSubmitForm, nil)

	if res.ErrKind != KindInvalidState {
		t.Errorf("ErrKind = %q, want %q", res.ErrKind, KindInvalidState)
	}
	if delivered.ErrKind != KindInvalidState {
		t.Errorf("delivered ErrKind = %q, want %q", delivered.ErrKind, KindInvalidState)
	}
	if sess.State() != forms.StateIdle {
		t.Errorf("session state = %v, want %v", sess.State(), forms.StateIdle)
	}
	if events := ch.all(); len(events) != 0 {
		t.Errorf("got %d UI events on rejected invocation, want 0", len(events))
	}
}

func TestDispatchSubmitPartialForm(t *testing.T) {
	ch := &captureChannel{}
	d := newTestDispatcher(ch, nil)
	sess := forms.NewSession("s1")

	dispatchTool(t, d, sess, ToolOpenForm, map[string]string{"form_type": "registration"})
	res, _ := dispatchTool(t, d, sess, ToolSubmitForm, nil)

	if res.Status != StatusSubmitted {
		t.Errorf("Status = %q, want %q", res.Status, StatusSubmitted)
	}
	if sess.State() != forms.StateSubmitted {
		t.Errorf("session state = %v, want %v", sess.State(), forms.StateSubmitted)
	}

	events := ch.all()
	if len(events) != 2 {
		t.Fatalf("got %d UI events, want 2", len(events))
	}
	payload, ok := events[1].Payload.(uisync.FormSubmittedPayload)
	if !ok {
		t.Fatalf("payload type = %T, want FormSubmittedPayload", events[1].Payload)
	}
	if payload.Status != uisync.StatusSuccess {
		t.Errorf("submit status = %q, want %q", payload.Status, uisync.StatusSuccess)
	}
}

func TestDispatchBadArguments(t *testing.T) {
	tests := []struct {
		name string
		tool ToolName
		args map[string]string
	}{
		{name: "open_form without form_type", tool: ToolOpenForm, args: nil},
		{name: "update_field without field_name", tool: ToolUpdateField, args: map[string]string{"field_value": "x"}},
		{name: "update_field without field_value", tool: ToolUpdateField, args: map[string]string{"field_name": "email"}},
		{name: "unknown tool", tool: "close_form", args: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch := &captureChannel{}
			d := newTestDispatcher(ch, nil)
			sess := forms.NewSession("s1")

			res, delivered := dispatchTool(t, d, sess, tt.tool, tt.args)

			if res.ErrKind != KindBadArguments {
				t.Errorf("ErrKind = %q, want %q", res.ErrKind, KindBadArguments)
			}
			if !delivered.IsError() {
				t.Error("error result was not delivered to the sink")
			}
			if sess.State() != forms.StateIdle {
				t.Errorf("state mutated on bad arguments: %v", sess.State())
			}
			if events := ch.all(); len(events) != 0 {
				t.Errorf("got %d UI events on bad arguments, want 0", len(events))
			}
		})
	}
}

func TestDispatchUnknownFormType(t *testing.T) {
	ch := &captureChannel{}
	d := newTestDispatcher(ch, nil)
	sess := forms.NewSession("s1")

	res, _ := dispatchTool(t, d, sess, ToolOpenForm, map[string]string{"form_type": "timesheet"})

	if res.ErrKind != KindUnknownFormType {
		t.Errorf("ErrKind = %q, want %q", res.ErrKind, KindUnknownFormType)
	}
	if sess.State() != forms.StateIdle {
		t.Errorf("state mutated on unknown form type: %v", sess.State())
	}
	if events := ch.all(); len(events) != 0 {
		t.Errorf("got %d UI events, want 0", len(events))
	}
}

func TestDispatchUnknownFieldSucceeds(t *testing.T) {
	ch := &captureChannel{}
	d := newTestDispatcher(ch, nil)
	sess := forms.NewSession("s1")

	dispatchTool(t, d, sess, ToolOpenForm, map[string]string{"form_type": "registration"})
	res, _ := dispatchTool(t, d, sess, ToolUpdateField, map[string]string{
		"field_name":  "nickname",
		"field_value": "JJ",
	})

	if res.IsError() {
		t.Fatalf("unknown field update rejected: %+v", res)
	}
	if v, ok := sess.Field("nickname"); !ok || v != "JJ" {
		t.Errorf("Field(nickname) = %q, %v; want JJ, true", v, ok)
	}
}

func TestDispatchAckTimeoutFailsInvocation(t *testing.T) {
	ch := &captureChannel{}
	d := NewDispatcher(forms.NewRegistry(), ch, nil, WithAckTimeout(20*time.Millisecond))
	sess := forms.NewSession("s1")

	res := d.Dispatch(context.Background(), sess, Invocation{
		ID:   "inv-1",
		Tool: ToolOpenForm,
		Args: map[string]string{"form_type": "registration"},
		Sink: blockedSink{},
	})

	if res.ErrKind != KindDeliveryTimeout {
		t.Errorf("ErrKind = %q, want %q", res.ErrKind, KindDeliveryTimeout)
	}
}

func TestDispatchRecordsLatency(t *testing.T) {
	tracker := perf.NewTracker(nil)
	d := newTestDispatcher(&captureChannel{}, tracker)
	sess := forms.NewSession("s1")

	dispatchTool(t, d, sess, ToolOpenForm, map[string]string{"form_type": "registration"})
	dispatchTool(t, d, sess, ToolSubmitForm, nil)
	dispatchTool(t, d, sess, ToolSubmitForm, nil) // invalid: already submitted

	if s, ok := tracker.SummarizeLabel("open_form"); !ok || s.Count != 1 {
		t.Errorf("open_form records = %+v, %v; want count 1", s, ok)
	}
	if s, ok := tracker.SummarizeLabel("submit_form"); !ok || s.Count != 1 {
		t.Errorf("submit_form records = %+v, %v; want count 1", s, ok)
	}
	if s, ok := tracker.SummarizeLabel("submit_form_error"); !ok || s.Count != 1 {
		t.Errorf("submit_form_error records = %+v, %v; want count 1", s, ok)
	}
	if s, ok := tracker.SummarizeLabel(perf.LabelVoiceInteraction); !ok || s.Count != 2 {
		t.Errorf("voice interaction records = %+v, %v; want count 2", s, ok)
	}
}

func TestDispatchSerializesPerSession(t *testing.T) {
	ch := &captureChannel{}
	d := newTestDispatcher(ch, nil)
	sess := forms.NewSession("s1")

	dispatchTool(t, d, sess, ToolOpenForm, map[string]string{"form_type": "registration"})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sink := NewChanSink()
			d.Dispatch(context.Background(), sess, Invocation{
				Tool: ToolUpdateField,
				Args: map[string]string{"field_name": "name", "field_value": "v"},
				Sink: sink,
			})
		}(i)
	}
	wg.Wait()

	// open + 20 updates, each exactly one event, no partial interleaving.
	if events := ch.all(); len(events) != 21 {
		t.Errorf("got %d UI events, want 21", len(events))
	}
}
