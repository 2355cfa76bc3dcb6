package forms

import (
	"sync"
	"time"
)

// State is the lifecycle state of a form session.
type State string

const (
	// StateIdle means no form has been opened yet.
	StateIdle State = "idle"

	// StateOpen means a form is open and accepting field updates.
	StateOpen State = "open"

	// StateSubmitted means the form was submitted. Only a fresh
	// open_form leaves this state.
	StateSubmitted State = "submitted"
)

// Session tracks one in-progress form-filling conversation.
// It is single-writer: the mutex serializes all transitions so that
// concurrent tool invocations for the same session apply in receipt
// order. A rejected transition leaves state and fields untouched.
type Session struct {
	ID string

	mu       sync.Mutex
	state    State
	formType string
	fields   map[string]string
	openedAt time.Time
}

// NewSession creates an empty session in the Idle state.
func NewSession(id string) *Session {
	return &Session{
		ID:    id,
		state: StateIdle,
	}
}

// Lock serializes a multi-step dispatch against this session.
// The dispatcher holds it for the whole of one tool invocation.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the dispatch serialization.
func (s *Session) Unlock() { s.mu.Unlock() }

// OpenLocked starts a fresh form of the given type. Legal from any
// state: from Submitted it is the documented fresh-form reset, and
// re-opening an open form discards its values rather than wedging the
// conversation on an engine retry. Field values never carry over.
// Caller must hold the session lock.
func (s *Session) OpenLocked(def FormDefinition) {
	s.state = StateOpen
	s.formType = def.Type
	s.fields = make(map[string]string, len(def.Fields))
	s.openedAt = time.Now()
}

// SetFieldLocked records a field value. Legal only while Open.
// Field names outside the active definition are stored anyway so that
// upstream misnaming by the reasoning engine cannot wedge the
// conversation; the dispatcher logs those informationally.
// Caller must hold the session lock.
func (s *Session) SetFieldLocked(name, value string) error {
	if s.state != StateOpen {
		return ErrInvalidState
	}
	s.fields[name] = value
	return nil
}

// SubmitLocked moves the session to Submitted. Legal only while Open.
// Completeness is not enforced: partial forms may be submitted, the
// dialog policy upstream owns that concern.
// Caller must hold the session lock.
func (s *Session) SubmitLocked() error {
	if s.state != StateOpen {
		return ErrInvalidState
	}
	s.state = StateSubmitted
	return nil
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// StateLocked returns the state without locking.
// Caller must hold the session lock.
func (s *Session) StateLocked() State { return s.state }

// FormTypeLocked returns the active form type without locking.
// Caller must hold the session lock.
func (s *Session) FormTypeLocked() string { return s.formType }

// FormType returns the type of the active form, or "" while Idle.
func (s *Session) FormType() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.formType
}

// Field returns the current value of a field.
func (s *Session) Field(name string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.fields[name]
	return v, ok
}

// Fields returns a copy of the current field values.
func (s *Session) Fields() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.fields))
	for k, v := range s.fields {
		out[k] = v
	}
	return out
}

// OpenedAt returns when the active form was opened.
func (s *Session) OpenedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.openedAt
}

// Snapshot is a read-only view of a session for the status API.
type Snapshot struct {
	ID       string            `json:"id"`
	State    State             `json:"state"`
	FormType string            `json:"form_type,omitempty"`
	Fields   map[string]string `json:"fields,omitempty"`
	OpenedAt time.Time         `json:"opened_at,omitempty"`
}

// Snapshot returns a copy of the session's observable state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	fields := make(map[string]string, len(s.fields))
	for k, v := range s.fields {
		fields[k] = v
	}
	return Snapshot{
		ID:       s.ID,
		State:    s.state,
		FormType: s.formType,
		Fields:   fields,
		OpenedAt: s.openedAt,
	}
}
