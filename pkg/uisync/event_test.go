package uisync

import (
	"testing"

	"github.com/altafuddin/FormFiller/pkg/forms"
)

func TestEventEncode(t *testing.T) {
	tests := []struct {
		name string
		ev   Event
		typ  EventType
	}{
		{
			name: "open_form",
			ev: NewFormOpened("registration", []forms.FieldSpec{
				{Name: "name", Label: "Full Name", Kind: forms.KindText},
			}),
			typ: TypeFormOpened,
		},
		{
			name: "update_field",
			ev:   NewFieldUpdated("email", "a@b.com"),
			typ:  TypeFieldUpdated,
		},
		{
			name: "submit_form",
			ev:   NewFormSubmitted(),
			typ:  TypeFormSubmitted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.ev.Type != tt.typ {
				t.Errorf("Type = %q, want %q", tt.ev.Type, tt.typ)
			}
			if tt.ev.Timestamp == 0 {
				t.Error("Timestamp not set")
			}

			data, err := tt.ev.Encode()
			if err != nil {
				t.Fatalf("Encode error = %v", err)
			}

			parsed, err := ParseEvent(data)
			if err != nil {
				t.Fatalf("ParseEvent error = %v", err)
			}
			if parsed.Type != tt.typ {
				t.Errorf("parsed Type = %q, want %q", parsed.Type, tt.typ)
			}
		})
	}
}

func TestFieldUpdatedPayloadWireFormat(t *testing.T) {
	data, err := NewFieldUpdated("email", "a@b.com").Encode()
	if err != nil {
		t.Fatalf("Encode error = %v", err)
	}

	parsed, err := ParseEvent(data)
	if err != nil {
		t.Fatalf("ParseEvent error = %v", err)
	}
	payload, ok := parsed.Payload.(map[string]any)
	if !ok {
		t.Fatalf("payload type = %T, want map", parsed.Payload)
	}
	if payload["field_name"] != "email" || payload["field_value"] != "a@b.com" {
		t.Errorf("payload = %v, want field_name=email field_value=a@b.com", payload)
	}
}

func TestFormSubmittedStatus(t *testing.T) {
	ev := NewFormSubmitted()
	payload, ok := ev.Payload.(FormSubmittedPayload)
	if !ok {
		t.Fatalf("payload type = %T, want FormSubmittedPayload", ev.Payload)
	}
	if payload.Status != StatusSuccess {
		t.Errorf("Status = %q, want %q", payload.Status, StatusSuccess)
	}
}
