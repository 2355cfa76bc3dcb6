// Package forms holds the form catalog and the per-conversation form
// session state machine that the tool dispatcher drives.
package forms

// FieldKind classifies a form field for UI rendering hints.
type FieldKind string

const (
	KindText  FieldKind = "text"
	KindEmail FieldKind = "email"
	KindPhone FieldKind = "phone"
	KindOther FieldKind = "other"
)

// FieldSpec describes one field of a form definition.
// Name is the stable key used for both UI addressing and session storage.
type FieldSpec struct {
	Name  string    `json:"name"`
	Label string    `json:"label"`
	Kind  FieldKind `json:"type"`
}

// FormDefinition is an immutable, ordered field schema for one form type.
type FormDefinition struct {
	Type   string      `json:"form_type"`
	Fields []FieldSpec `json:"fields"`
}

// FormTypeRegistration is the built-in registration form.
const FormTypeRegistration = "registration"

// Registry maps form types to their definitions.
// Read-only after construction; lookups never mutate.
type Registry struct {
	defs map[string]FormDefinition

	// fastPath, when non-empty, trims the fields advertised in the
	// open_form UI event. It never changes the stored definition.
	fastPath map[string]bool
}

// RegistryOption configures a Registry at construction time.
type RegistryOption func(*Registry)

// WithDefinition adds a form definition to the registry.
func WithDefinition(def FormDefinition) RegistryOption {
	return func(r *Registry) {
		r.defs[def.Type] = def
	}
}

// WithFastPathFields restricts the field list advertised when a form is
// opened to the named subset. This is the explicit opt-in for the
// low-latency UI path; lookups still return the full definition.
func WithFastPathFields(names []string) RegistryOption {
	return func(r *Registry) {
		if len(names) == 0 {
			return
		}
		r.fastPath = make(map[string]bool, len(names))
		for _, n := range names {
			r.fastPath[n] = true
		}
	}
}

// NewRegistry creates a registry seeded with the registration form.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		defs: map[string]FormDefinition{
			FormTypeRegistration: {
				Type: FormTypeRegistration,
				Fields: []FieldSpec{
					{Name: "name", Label: "Full Name", Kind: KindText},
					{Name: "email", Label: "Email Address", Kind: KindEmail},
					{Name: "phone_number", Label: "Phone Number", Kind: KindPhone},
				},
			},
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Lookup returns the definition for formType.
// Unknown types return ErrUnknownFormType; there is no fallback
// substitution, the caller decides how to fail.
func (r *Registry) Lookup(formType string) (FormDefinition, error) {
	def, ok := r.defs[formType]
	if !ok {
		return FormDefinition{}, ErrUnknownFormType
	}
	return def, nil
}

// DisplayFields returns the fields to advertise in the open_form UI
// event: the fast-path subset if configured, the full list otherwise.
func (r *Registry) DisplayFields(def FormDefinition) []FieldSpec {
	if r.fastPath == nil {
		return def.Fields
	}
	fields := make([]FieldSpec, 0, len(def.Fields))
	for _, f := range def.Fields {
		if r.fastPath[f.Name] {
			fields = append(fields, f)
		}
	}
	return fields
}

// Types returns the registered form types.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.defs))
	for t := range r.defs {
		types = append(types, t)
	}
	return types
}
