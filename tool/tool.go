// Package tool exposes callable capabilities to models. A Tool declares its
// name, description and a JSON Schema for its arguments; the agent layer
// advertises that schema to the model and routes returned tool calls back
// through Call with schema-validated arguments.
package tool

import (
	"context"
	"fmt"
)

// Tool is a structured capability a model may invoke.
//
// Implementations should use snake_case names, keep descriptions short and
// imperative (the model reads them), and be safe for concurrent use.
type Tool interface {
	// Name returns the unique identifier advertised to the model.
	Name() string

	// Description returns the natural language description the model uses to
	// decide when to call the tool.
	Description() string

	// Parameters returns a JSON Schema object describing the accepted
	// arguments.
	Parameters() map[string]any

	// Call executes the tool with arguments already decoded from the model's
	// JSON. Failures are reported as *Error.
	Call(ctx context.Context, args map[string]any) (any, error)
}

// Error codes distinguishing why a tool call failed.
const (
	// CodeValidation marks arguments rejected before execution.
	CodeValidation = "VALIDATION_ERROR"
	// CodeExecution marks failures inside the tool implementation.
	CodeExecution = "EXECUTION_ERROR"
)

// Error is the uniform failure type for tool calls.
type Error struct {
	Tool    string // tool name
	Code    string // CodeValidation or CodeExecution (custom codes pass through)
	Message string
	Err     error // underlying cause, if any
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool %s [%s]: %s", e.Tool, e.Code, e.Message)
	}
	return fmt.Sprintf("tool %s: %s", e.Tool, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError creates an Error with the given details.
func NewError(tool, code, message string) *Error {
	return &Error{Tool: tool, Code: code, Message: message}
}
