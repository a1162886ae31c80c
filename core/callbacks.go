package core

import "github.com/loomkit/loom/logging"

// Callbacks are lifecycle hooks fired around composed steps, model calls and
// output parsing. Implementations must be fast and must not panic; they run
// synchronously on the invoking goroutine. Embed NoOpCallbacks to implement
// only the hooks you care about.
type Callbacks interface {
	// OnStepStart fires before a step runs.
	OnStepStart(run *Run, step string, input any)
	// OnStepEnd fires after a step completed successfully.
	OnStepEnd(run *Run, step string, output any)
	// OnStepError fires when a step fails; the error still propagates.
	OnStepError(run *Run, step string, err error)

	// OnModelStart fires before a model request is sent.
	OnModelStart(run *Run, model string, messages []Message)
	// OnModelEnd fires with the final assistant message of a model call.
	OnModelEnd(run *Run, model string, message Message)
	// OnModelError fires when a model call fails.
	OnModelError(run *Run, model string, err error)

	// OnParseError fires when a reply violates the expected output shape.
	OnParseError(run *Run, parser string, err error)
}

// NoOpCallbacks implements Callbacks with empty hooks.
type NoOpCallbacks struct{}

// OnStepStart implements Callbacks.
func (NoOpCallbacks) OnStepStart(*Run, string, any) {}

// OnStepEnd implements Callbacks.
func (NoOpCallbacks) OnStepEnd(*Run, string, any) {}

// OnStepError implements Callbacks.
func (NoOpCallbacks) OnStepError(*Run, string, error) {}

// OnModelStart implements Callbacks.
func (NoOpCallbacks) OnModelStart(*Run, string, []Message) {}

// OnModelEnd implements Callbacks.
func (NoOpCallbacks) OnModelEnd(*Run, string, Message) {}

// OnModelError implements Callbacks.
func (NoOpCallbacks) OnModelError(*Run, string, error) {}

// OnParseError implements Callbacks.
func (NoOpCallbacks) OnParseError(*Run, string, error) {}

// MultiCallbacks fans every hook out to each registered handler in order.
type MultiCallbacks []Callbacks

// OnStepStart implements Callbacks.
func (m MultiCallbacks) OnStepStart(run *Run, step string, input any) {
	for _, cb := range m {
		cb.OnStepStart(run, step, input)
	}
}

// OnStepEnd implements Callbacks.
func (m MultiCallbacks) OnStepEnd(run *Run, step string, output any) {
	for _, cb := range m {
		cb.OnStepEnd(run, step, output)
	}
}

// OnStepError implements Callbacks.
func (m MultiCallbacks) OnStepError(run *Run, step string, err error) {
	for _, cb := range m {
		cb.OnStepError(run, step, err)
	}
}

// OnModelStart implements Callbacks.
func (m MultiCallbacks) OnModelStart(run *Run, model string, messages []Message) {
	for _, cb := range m {
		cb.OnModelStart(run, model, messages)
	}
}

// OnModelEnd implements Callbacks.
func (m MultiCallbacks) OnModelEnd(run *Run, model string, message Message) {
	for _, cb := range m {
		cb.OnModelEnd(run, model, message)
	}
}

// OnModelError implements Callbacks.
func (m MultiCallbacks) OnModelError(run *Run, model string, err error) {
	for _, cb := range m {
		cb.OnModelError(run, model, err)
	}
}

// OnParseError implements Callbacks.
func (m MultiCallbacks) OnParseError(run *Run, parser string, err error) {
	for _, cb := range m {
		cb.OnParseError(run, parser, err)
	}
}

// LogCallbacks records every hook on a logger at debug level (errors at
// error level). Useful as a quick tracing handler in examples and tests.
type LogCallbacks struct {
	Logger logging.Logger
}

// OnStepStart implements Callbacks.
func (l LogCallbacks) OnStepStart(run *Run, step string, _ any) {
	l.Logger.Debug("step started", "run_id", run.ID, "step", step)
}

// OnStepEnd implements Callbacks.
func (l LogCallbacks) OnStepEnd(run *Run, step string, _ any) {
	l.Logger.Debug("step completed", "run_id", run.ID, "step", step)
}

// OnStepError implements Callbacks.
func (l LogCallbacks) OnStepError(run *Run, step string, err error) {
	l.Logger.Error("step failed", "run_id", run.ID, "step", step, "error", err)
}

// OnModelStart implements Callbacks.
func (l LogCallbacks) OnModelStart(run *Run, model string, messages []Message) {
	l.Logger.Debug("model call started", "run_id", run.ID, "model", model, "messages", len(messages))
}

// OnModelEnd implements Callbacks.
func (l LogCallbacks) OnModelEnd(run *Run, model string, _ Message) {
	l.Logger.Debug("model call completed", "run_id", run.ID, "model", model)
}

// OnModelError implements Callbacks.
func (l LogCallbacks) OnModelError(run *Run, model string, err error) {
	l.Logger.Error("model call failed", "run_id", run.ID, "model", model, "error", err)
}

// OnParseError implements Callbacks.
func (l LogCallbacks) OnParseError(run *Run, parser string, err error) {
	l.Logger.Error("output parse failed", "run_id", run.ID, "parser", parser, "error", err)
}
