// Package agent exposes the form tools to the external reasoning
// engine: JSON-schema declarations plus handlers that hand invocations
// to the dispatcher and wait on the result sink.
package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"github.com/altafuddin/FormFiller/pkg/dispatch"
	"github.com/altafuddin/FormFiller/pkg/forms"
)

// Tool declares a function the reasoning engine can invoke during
// conversation.
type Tool struct {
	// Name is the unique identifier for the tool (e.g., "open_form").
	Name string `json:"name"`

	// Description helps the engine decide when to use the tool.
	Description string `json:"description"`

	// Parameters is the JSON schema for the tool's arguments.
	Parameters map[string]any `json:"parameters"`

	// Handler runs when the engine invokes this tool. The returned
	// string is sent back to the engine to continue the conversation.
	Handler func(args map[string]any) (string, error) `json:"-"`
}

// SystemPrompt is the registration workflow instruction for the engine.
// These rules are advisory only: the session state machine independently
// enforces transition legality, since the engine is untrusted input.
const SystemPrompt = `You are a friendly and helpful voice assistant. Your primary goal is to help users fill out a 'registration' form.

[RULES]
1. When the user first indicates they want to sign up or register, call the open_form tool with form_type set to "registration".
2. Once the form is open, ask for the user's full name, then call update_field with field_name "name".
3. After the name, ask for their email and call update_field with field_name "email".
4. After the email, ask for their phone number and call update_field with field_name "phone_number".
5. Ask the user to confirm, and if and only if they confirm, call the submit_form tool.

If the user is not trying to fill out a form, just have a normal, friendly conversation.`

// Tools binds the three form tools to a dispatcher and session.
// Each handler delivers exactly one invocation and blocks until the
// result comes back through the sink.
func Tools(d *dispatch.Dispatcher, sess *forms.Session) []Tool {
	return []Tool{
		{
			Name:        "open_form",
			Description: "Opens a new, empty form for the user to start filling out. Call this when the user says 'I want to fill a form' or similar.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"form_type": map[string]any{
						"type":        "string",
						"enum":        []string{forms.FormTypeRegistration},
						"description": "The type of form to open.",
					},
				},
				"required": []string{"form_type"},
			},
			Handler: invoke(d, sess, dispatch.ToolOpenForm),
		},
		{
			Name:        "update_field",
			Description: "Updates a specific field in the form with a new value provided by the user.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"field_name": map[string]any{
						"type":        "string",
						"description": "The name of the form field to update (e.g. 'name', 'email').",
					},
					"field_value": map[string]any{
						"type":        "string",
						"description": "The value to place into the specified field (e.g. 'John Smith').",
					},
				},
				"required": []string{"field_name", "field_value"},
			},
			Handler: invoke(d, sess, dispatch.ToolUpdateField),
		},
		{
			Name:        "submit_form",
			Description: "Submits the completed form. Call this when the user says 'Submit the form' or similar.",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
			Handler: invoke(d, sess, dispatch.ToolSubmitForm),
		},
	}
}

// invoke adapts the engine's loosely typed argument map into a
// dispatcher invocation with a fresh single-use sink.
func invoke(d *dispatch.Dispatcher, sess *forms.Session, tool dispatch.ToolName) func(map[string]any) (string, error) {
	return func(args map[string]any) (string, error) {
		strArgs := make(map[string]string, len(args))
		for k, v := range args {
			if s, ok := v.(string); ok {
				strArgs[k] = s
			} else {
				strArgs[k] = fmt.Sprint(v)
			}
		}

		sink := dispatch.NewChanSink()
		inv := dispatch.Invocation{
			ID:   uuid.New().String(),
			Tool: tool,
			Args: strArgs,
			Sink: sink,
		}
		res := d.Dispatch(context.Background(), sess, inv)

		// Dispatch has already joined delivery; prefer the sink's copy
		// but never block on it.
		waitCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if delivered, err := sink.Wait(waitCtx); err == nil {
			res = delivered
		}

		out, err := sonic.MarshalString(res)
		if err != nil {
			return "", fmt.Errorf("agent: encode result: %w", err)
		}
		return out, nil
	}
}
