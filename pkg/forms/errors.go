package forms

import "errors"

var (
	// ErrUnknownFormType is returned when a form type is not in the registry.
	ErrUnknownFormType = errors.New("forms: unknown form type")

	// ErrInvalidState is returned when a transition is attempted from a
	// state that forbids it. State is left untouched.
	ErrInvalidState = errors.New("forms: invalid state for transition")

	// ErrSessionNotFound is returned when a session ID is not registered.
	ErrSessionNotFound = errors.New("forms: session not found")
)
