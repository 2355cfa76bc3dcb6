// Package uisync is the one-way, best-effort notification path that
// keeps remote displays in lock-step with form state changes.
package uisync

import (
	"fmt"
	"time"

	"github.com/bytedance/sonic"

	"github.com/altafuddin/FormFiller/pkg/forms"
)

// EventType identifies the kind of state change an event describes.
type EventType string

const (
	// TypeFormOpened announces a freshly opened form and its fields.
	TypeFormOpened EventType = "open_form"

	// TypeFieldUpdated announces a single field value change.
	TypeFieldUpdated EventType = "update_field"

	// TypeFormSubmitted announces a completed submission.
	TypeFormSubmitted EventType = "submit_form"
)

// Event is the wire message pushed to UI observers.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp int64     `json:"ts,omitempty"` // Unix milliseconds
	Payload   any       `json:"payload,omitempty"`
}

// FormOpenedPayload carries the form type and its field schema.
type FormOpenedPayload struct {
	FormType string            `json:"form_type"`
	Fields   []forms.FieldSpec `json:"fields"`
}

// FieldUpdatedPayload carries one field change.
type FieldUpdatedPayload struct {
	FieldName  string `json:"field_name"`
	FieldValue string `json:"field_value"`
}

// FormSubmittedPayload carries the submission outcome.
type FormSubmittedPayload struct {
	Status string `json:"status"`
}

// StatusSuccess is the submission status sent to the UI.
const StatusSuccess = "success"

// NewFormOpened builds the open_form event.
func NewFormOpened(formType string, fields []forms.FieldSpec) Event {
	return newEvent(TypeFormOpened, FormOpenedPayload{FormType: formType, Fields: fields})
}

// NewFieldUpdated builds the update_field event.
func NewFieldUpdated(name, value string) Event {
	return newEvent(TypeFieldUpdated, FieldUpdatedPayload{FieldName: name, FieldValue: value})
}

// NewFormSubmitted builds the submit_form event.
func NewFormSubmitted() Event {
	return newEvent(TypeFormSubmitted, FormSubmittedPayload{Status: StatusSuccess})
}

func newEvent(t EventType, payload any) Event {
	return Event{
		Type:      t,
		Timestamp: time.Now().UnixMilli(),
		Payload:   payload,
	}
}

// Encode returns the JSON encoding of the event.
func (e Event) Encode() ([]byte, error) {
	data, err := sonic.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("uisync: encode %s event: %w", e.Type, err)
	}
	return data, nil
}

// ParseEvent decodes an event envelope. The payload stays generic;
// observers switch on Type to interpret it.
func ParseEvent(data []byte) (Event, error) {
	var ev Event
	if err := sonic.Unmarshal(data, &ev); err != nil {
		return Event{}, fmt.Errorf("uisync: parse event: %w", err)
	}
	return ev, nil
}
