package core

import "context"

// Runnable is the contract every composable step implements: prompt
// templates bound to models, parsers, lambdas, sequences, parallel fan-outs
// and compiled graphs. Input and output are deliberately untyped; adjacent
// steps agree on shapes (string in, Values out, etc.) and error when they
// receive something else.
type Runnable interface {
	// Name identifies the step in logs, callbacks and wrapped errors.
	Name() string

	// Invoke runs the step to completion. Implementations must honor ctx
	// cancellation for anything long running.
	Invoke(ctx context.Context, input any) (any, error)
}

// RunnableFunc adapts a plain function into a named Runnable.
type RunnableFunc struct {
	name string
	fn   func(ctx context.Context, input any) (any, error)
}

// NewRunnableFunc wraps fn as a Runnable with the given name.
func NewRunnableFunc(name string, fn func(ctx context.Context, input any) (any, error)) *RunnableFunc {
	return &RunnableFunc{name: name, fn: fn}
}

// Name implements Runnable.
func (r *RunnableFunc) Name() string { return r.name }

// Invoke implements Runnable.
func (r *RunnableFunc) Invoke(ctx context.Context, input any) (any, error) {
	return r.fn(ctx, input)
}
