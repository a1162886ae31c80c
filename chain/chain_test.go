package chain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/loomkit/loom/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func upperStep() core.Runnable {
	return Lambda("upper", func(_ context.Context, input any) (any, error) {
		return strings.ToUpper(input.(string)), nil
	})
}

func suffixStep(suffix string) core.Runnable {
	return Lambda("suffix", func(_ context.Context, input any) (any, error) {
		return input.(string) + suffix, nil
	})
}

func failingStep(err error) core.Runnable {
	return Lambda("boom", func(_ context.Context, _ any) (any, error) {
		return nil, err
	})
}

func TestSequence(t *testing.T) {
	seq := Sequence(upperStep(), suffixStep("!"))

	out, err := seq.Invoke(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "HELLO!", out)
}

func TestSequenceAssociative(t *testing.T) {
	a := upperStep()
	b := suffixStep("-b")
	c := suffixStep("-c")

	left := Sequence(Sequence(a, b), c)
	right := Sequence(a, Sequence(b, c))

	leftOut, err := left.Invoke(context.Background(), "x")
	require.NoError(t, err)
	rightOut, err := right.Invoke(context.Background(), "x")
	require.NoError(t, err)

	assert.Equal(t, leftOut, rightOut)
	assert.Equal(t, "X-b-c", leftOut)
}

func TestSequenceStopsOnError(t *testing.T) {
	boom := errors.New("step exploded")
	var reached bool

	seq := Sequence(
		failingStep(boom),
		Lambda("never", func(_ context.Context, input any) (any, error) {
			reached = true
			return input, nil
		}),
	)

	_, err := seq.Invoke(context.Background(), "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.False(t, reached)
}

func TestSequenceContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Sequence(upperStep()).Invoke(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParallel(t *testing.T) {
	p := Parallel(map[string]core.Runnable{
		"upper": upperStep(),
		"len": Lambda("len", func(_ context.Context, input any) (any, error) {
			return len(input.(string)), nil
		}),
	})

	out, err := p.Invoke(context.Background(), "hello")
	require.NoError(t, err)

	values, ok := out.(core.Values)
	require.True(t, ok)
	assert.Equal(t, "HELLO", values["upper"])
	assert.Equal(t, 5, values["len"])
}

func TestParallelBranchIsolation(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]any{}

	mutate := func(name string) core.Runnable {
		return Lambda(name, func(_ context.Context, input any) (any, error) {
			values := input.(core.Values)
			values["scratch"] = name
			mu.Lock()
			seen[name] = values["scratch"]
			mu.Unlock()
			return name, nil
		})
	}

	p := Parallel(map[string]core.Runnable{
		"a": mutate("a"),
		"b": mutate("b"),
	})

	input := core.Values{"shared": true}
	_, err := p.Invoke(context.Background(), input)
	require.NoError(t, err)

	// Each branch mutated its own clone, not the caller's map.
	assert.NotContains(t, input, "scratch")
	assert.Equal(t, "a", seen["a"])
	assert.Equal(t, "b", seen["b"])
}

func TestParallelError(t *testing.T) {
	boom := errors.New("branch failed")
	p := Parallel(map[string]core.Runnable{
		"ok":   upperStep(),
		"fail": failingStep(boom),
	})

	_, err := p.Invoke(context.Background(), "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "branch fail")
}

func TestAssign(t *testing.T) {
	step := Assign("upper", Lambda("upper", func(_ context.Context, input any) (any, error) {
		values := input.(core.Values)
		return strings.ToUpper(values["word"].(string)), nil
	}))

	out, err := step.Invoke(context.Background(), core.Values{"word": "go"})
	require.NoError(t, err)

	values := out.(core.Values)
	assert.Equal(t, "go", values["word"])
	assert.Equal(t, "GO", values["upper"])
}

func TestAssignRejectsNonMap(t *testing.T) {
	step := Assign("k", Passthrough())

	_, err := step.Invoke(context.Background(), "just a string")
	require.Error(t, err)
}

func TestPassthrough(t *testing.T) {
	out, err := Passthrough().Invoke(context.Background(), core.Values{"k": 1})
	require.NoError(t, err)
	assert.Equal(t, core.Values{"k": 1}, out)
}

func TestPick(t *testing.T) {
	state := core.Values{
		"country": map[string]any{"name": "France", "capital": "Paris"},
	}

	out, err := MustPick("$.country.capital").Invoke(context.Background(), state)
	require.NoError(t, err)
	assert.Equal(t, "Paris", out)
}

func TestPickNoMatch(t *testing.T) {
	_, err := MustPick("$.missing").Invoke(context.Background(), core.Values{"k": 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no match")
}

func TestPickInvalidPath(t *testing.T) {
	_, err := Pick("$[")
	require.Error(t, err)
	assert.Panics(t, func() { MustPick("$[") })
}

func TestMapPreservesOrder(t *testing.T) {
	step := Map(Lambda("double", func(_ context.Context, input any) (any, error) {
		time.Sleep(time.Duration(10-input.(int)) * time.Millisecond)
		return input.(int) * 2, nil
	}), WithMaxConcurrency(3))

	out, err := step.Invoke(context.Background(), []any{1, 2, 3, 4, 5})
	require.NoError(t, err)
	assert.Equal(t, []any{2, 4, 6, 8, 10}, out)
}

func TestMapStringSlice(t *testing.T) {
	out, err := Map(upperStep()).Invoke(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []any{"A", "B"}, out)
}

func TestMapError(t *testing.T) {
	boom := errors.New("element failed")
	step := Map(Lambda("maybe", func(_ context.Context, input any) (any, error) {
		if input.(int) == 2 {
			return nil, boom
		}
		return input, nil
	}))

	_, err := step.Invoke(context.Background(), []any{1, 2, 3})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestMapRejectsNonSlice(t *testing.T) {
	_, err := Map(upperStep()).Invoke(context.Background(), 42)
	require.Error(t, err)
}

func TestRetryEventuallySucceeds(t *testing.T) {
	var calls int
	step := Retry(Lambda("flaky", func(_ context.Context, input any) (any, error) {
		calls++
		if calls < 3 {
			return nil, fmt.Errorf("transient %d", calls)
		}
		return input, nil
	}), 5, 0)

	out, err := step.Invoke(context.Background(), "ok")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 3, calls)
}

func TestRetryExhausted(t *testing.T) {
	boom := errors.New("always")
	step := Retry(failingStep(boom), 3, 0)

	_, err := step.Invoke(context.Background(), "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "3 attempts")
}

func TestFallback(t *testing.T) {
	boom := errors.New("primary down")
	step := Fallback(
		failingStep(boom),
		Lambda("empty", func(_ context.Context, _ any) (any, error) {
			return []string{}, nil
		}),
	)

	out, err := step.Invoke(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, []string{}, out)
}

func TestFallbackAllFail(t *testing.T) {
	primaryErr := errors.New("primary down")
	step := Fallback(failingStep(primaryErr), failingStep(errors.New("fallback down")))

	_, err := step.Invoke(context.Background(), "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, primaryErr)
}

func TestCallbacksFire(t *testing.T) {
	var mu sync.Mutex
	var started, ended []string

	cb := &testCallbacks{
		onStart: func(step string) {
			mu.Lock()
			started = append(started, step)
			mu.Unlock()
		},
		onEnd: func(step string) {
			mu.Lock()
			ended = append(ended, step)
			mu.Unlock()
		},
	}

	run := core.NewRun(func(o *core.RunOptions) { o.Callbacks = cb })
	ctx := core.WithRun(context.Background(), run)

	_, err := Sequence(upperStep(), suffixStep("!")).Invoke(ctx, "x")
	require.NoError(t, err)

	assert.Equal(t, []string{"upper", "suffix"}, started)
	assert.Equal(t, []string{"upper", "suffix"}, ended)
}

type testCallbacks struct {
	core.NoOpCallbacks
	onStart func(step string)
	onEnd   func(step string)
}

func (t *testCallbacks) OnStepStart(_ *core.Run, step string, _ any) {
	if t.onStart != nil {
		t.onStart(step)
	}
}

func (t *testCallbacks) OnStepEnd(_ *core.Run, step string, _ any) {
	if t.onEnd != nil {
		t.onEnd(step)
	}
}
