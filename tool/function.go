package tool

import (
	"context"
	"fmt"

	"github.com/loomkit/loom/internal/schema"
)

// Func adapts a plain Go function into a Tool. Arguments are validated
// against the declared schema before the function runs, and every failure is
// normalized to *Error (validation vs execution) so callers handle one type.
//
// A Func holds no mutable state after construction and is safe for
// concurrent use.
type Func struct {
	name        string
	description string
	parameters  map[string]any
	fn          func(ctx context.Context, args map[string]any) (any, error)
}

// NewFunc constructs a Func from an explicit JSON Schema and implementation.
//
// Example:
//
//	sum := tool.NewFunc(
//	  "calculate_sum",
//	  "Calculate the sum of two numbers",
//	  map[string]any{
//	    "type": "object",
//	    "properties": map[string]any{
//	      "a": map[string]any{"type": "number"},
//	      "b": map[string]any{"type": "number"},
//	    },
//	    "required": []string{"a", "b"},
//	  },
//	  func(_ context.Context, args map[string]any) (any, error) {
//	    return args["a"].(float64) + args["b"].(float64), nil
//	  },
//	)
func NewFunc(
	name, description string,
	parameters map[string]any,
	fn func(ctx context.Context, args map[string]any) (any, error),
) *Func {
	return &Func{
		name:        name,
		description: description,
		parameters:  parameters,
		fn:          fn,
	}
}

// NewFuncFromStruct derives the parameter schema from an argument struct via
// reflection, honoring json, description, enum, minimum and maximum tags.
//
// Example:
//
//	type SumArgs struct {
//	  A float64 `json:"a" description:"First addend"`
//	  B float64 `json:"b" description:"Second addend"`
//	}
//
//	sum := tool.NewFuncFromStruct("calculate_sum", "Calculate the sum of two numbers",
//	  SumArgs{}, func(_ context.Context, args map[string]any) (any, error) {
//	    return args["a"].(float64) + args["b"].(float64), nil
//	  })
func NewFuncFromStruct(
	name, description string,
	argsType any,
	fn func(ctx context.Context, args map[string]any) (any, error),
) *Func {
	return NewFunc(name, description, schema.FromValue(argsType), fn)
}

// Name implements Tool.
func (t *Func) Name() string { return t.name }

// Description implements Tool.
func (t *Func) Description() string { return t.description }

// Parameters implements Tool.
func (t *Func) Parameters() map[string]any { return t.parameters }

// Call validates args against the declared schema, then invokes the wrapped
// function. A *Error returned by the function is forwarded unchanged; any
// other error is wrapped with CodeExecution.
func (t *Func) Call(ctx context.Context, args map[string]any) (any, error) {
	if err := schema.ValidateParameters(args, t.parameters); err != nil {
		return nil, &Error{
			Tool:    t.name,
			Code:    CodeValidation,
			Message: fmt.Sprintf("invalid arguments: %v", err),
			Err:     err,
		}
	}

	result, err := t.fn(ctx, args)
	if err != nil {
		if toolErr, ok := err.(*Error); ok {
			return nil, toolErr
		}
		return nil, &Error{
			Tool:    t.name,
			Code:    CodeExecution,
			Message: err.Error(),
			Err:     err,
		}
	}

	return result, nil
}
