// Package dispatch receives named tool invocations from the reasoning
// engine, validates them against the form session state machine, and
// drives the UI push and caller acknowledgment.
package dispatch

import "fmt"

// ToolName identifies one of the form tools.
type ToolName string

const (
	ToolOpenForm    ToolName = "open_form"
	ToolUpdateField ToolName = "update_field"
	ToolSubmitForm  ToolName = "submit_form"
)

// Command is a validated, tagged tool invocation. Raw argument maps are
// parsed into one of these at the boundary, before any state is touched.
type Command interface {
	Tool() ToolName
}

// OpenForm opens a fresh form of the given type.
type OpenForm struct {
	FormType string
}

// Tool implements Command.
func (OpenForm) Tool() ToolName { return ToolOpenForm }

// UpdateField sets one field of the open form.
type UpdateField struct {
	Name  string
	Value string
}

// Tool implements Command.
func (UpdateField) Tool() ToolName { return ToolUpdateField }

// SubmitForm submits the open form. Takes no arguments.
type SubmitForm struct{}

// Tool implements Command.
func (SubmitForm) Tool() ToolName { return ToolSubmitForm }

// ParseCommand validates a raw invocation into a Command.
// A missing required argument yields a BadArguments error and nothing
// downstream runs.
func ParseCommand(tool ToolName, args map[string]string) (Command, error) {
	switch tool {
	case ToolOpenForm:
		formType, ok := args["form_type"]
		if !ok || formType == "" {
			return nil, badArguments(tool, "form_type")
		}
		return OpenForm{FormType: formType}, nil

	case ToolUpdateField:
		name, ok := args["field_name"]
		if !ok || name == "" {
			return nil, badArguments(tool, "field_name")
		}
		value, ok := args["field_value"]
		if !ok {
			return nil, badArguments(tool, "field_value")
		}
		return UpdateField{Name: name, Value: value}, nil

	case ToolSubmitForm:
		return SubmitForm{}, nil

	default:
		return nil, fmt.Errorf("dispatch: unknown tool %q", tool)
	}
}

func badArguments(tool ToolName, arg string) error {
	return fmt.Errorf("dispatch: %s requires argument %q", tool, arg)
}
