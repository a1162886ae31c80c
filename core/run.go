package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/loomkit/loom/logging"
)

// ErrBudgetExceeded is returned by CallBudget.Consume once the configured
// maximum number of model calls for a run has been spent.
var ErrBudgetExceeded = errors.New("model call budget exceeded")

// CallBudget enforces a maximum number of model calls per run.
// A zero maximum means unlimited.
type CallBudget struct {
	max   int
	count int
	mu    sync.Mutex
}

// NewCallBudget creates a budget allowing at most max model calls.
func NewCallBudget(max int) *CallBudget {
	return &CallBudget{max: max}
}

// Consume spends one call and errors if the budget is exhausted.
func (b *CallBudget) Consume() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.count++
	if b.max > 0 && b.count > b.max {
		return fmt.Errorf("%w: limit %d", ErrBudgetExceeded, b.max)
	}

	return nil
}

// Count returns the number of calls made so far.
func (b *CallBudget) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.count
}

// Remaining returns how many calls are left, or -1 when unlimited.
func (b *CallBudget) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.max == 0 {
		return -1
	}

	return b.max - b.count
}

// Run carries per-invocation metadata through a context.Context: a unique
// run ID, the logger, lifecycle callbacks and the shared model call budget.
// A Run is created once at the top of an invocation and observed by every
// step it reaches.
type Run struct {
	ID        string
	StartedAt time.Time
	Logger    logging.Logger
	Callbacks Callbacks
	Budget    *CallBudget
}

// RunOptions configure NewRun.
type RunOptions struct {
	Logger    logging.Logger
	Callbacks Callbacks
	// MaxModelCalls caps model calls for this run; 0 means unlimited.
	MaxModelCalls int
}

// NewRun creates a Run with a fresh uuid and UTC start time. Defaults: no-op
// logger, no-op callbacks, unlimited budget.
func NewRun(optFns ...func(o *RunOptions)) *Run {
	opts := RunOptions{
		Logger:    logging.NoOpLogger{},
		Callbacks: NoOpCallbacks{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Run{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Logger:    opts.Logger,
		Callbacks: opts.Callbacks,
		Budget:    NewCallBudget(opts.MaxModelCalls),
	}
}

type runCtxKey struct{}

// WithRun attaches run to ctx so downstream steps can observe it.
func WithRun(ctx context.Context, run *Run) context.Context {
	return context.WithValue(ctx, runCtxKey{}, run)
}

// RunFromContext returns the Run attached to ctx. When none is attached an
// anonymous run with defaults is returned, so library code can always log and
// fire callbacks without nil checks. Anonymous runs carry no budget.
func RunFromContext(ctx context.Context) *Run {
	if run, ok := ctx.Value(runCtxKey{}).(*Run); ok {
		return run
	}
	return NewRun()
}
