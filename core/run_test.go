package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallBudget(t *testing.T) {
	budget := NewCallBudget(2)

	require.NoError(t, budget.Consume())
	require.NoError(t, budget.Consume())
	assert.Equal(t, 2, budget.Count())
	assert.Equal(t, 0, budget.Remaining())

	err := budget.Consume()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBudgetExceeded)
}

func TestCallBudgetUnlimited(t *testing.T) {
	budget := NewCallBudget(0)

	for i := 0; i < 100; i++ {
		require.NoError(t, budget.Consume())
	}
	assert.Equal(t, -1, budget.Remaining())
}

func TestNewRunDefaults(t *testing.T) {
	run := NewRun()

	assert.NotEmpty(t, run.ID)
	assert.False(t, run.StartedAt.IsZero())
	assert.NotNil(t, run.Logger)
	assert.NotNil(t, run.Callbacks)
	require.NotNil(t, run.Budget)
	assert.Equal(t, -1, run.Budget.Remaining())
}

func TestRunFromContext(t *testing.T) {
	run := NewRun(func(o *RunOptions) { o.MaxModelCalls = 5 })
	ctx := WithRun(context.Background(), run)

	got := RunFromContext(ctx)
	assert.Same(t, run, got)
	assert.Equal(t, 5, got.Budget.Remaining())

	// Without an attached run an anonymous one is minted per call.
	anon := RunFromContext(context.Background())
	assert.NotEmpty(t, anon.ID)
	assert.NotEqual(t, run.ID, anon.ID)
}

type recordingCallbacks struct {
	NoOpCallbacks
	steps  []string
	errors []error
}

func (r *recordingCallbacks) OnStepStart(_ *Run, step string, _ any) {
	r.steps = append(r.steps, step)
}

func (r *recordingCallbacks) OnStepError(_ *Run, _ string, err error) {
	r.errors = append(r.errors, err)
}

func TestMultiCallbacks(t *testing.T) {
	first := &recordingCallbacks{}
	second := &recordingCallbacks{}
	multi := MultiCallbacks{first, second}
	run := NewRun()

	multi.OnStepStart(run, "format", nil)
	multi.OnStepStart(run, "generate", nil)

	assert.Equal(t, []string{"format", "generate"}, first.steps)
	assert.Equal(t, []string{"format", "generate"}, second.steps)
}
