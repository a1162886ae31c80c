package chain

import (
	"context"
	"fmt"
	"time"

	"github.com/loomkit/loom/core"
	"github.com/ohler55/ojg/jp"
)

// invokeStep runs one step with lifecycle callbacks from the ambient run.
func invokeStep(ctx context.Context, step core.Runnable, input any) (any, error) {
	run := core.RunFromContext(ctx)

	run.Callbacks.OnStepStart(run, step.Name(), input)
	out, err := step.Invoke(ctx, input)
	if err != nil {
		run.Callbacks.OnStepError(run, step.Name(), err)
		return nil, err
	}
	run.Callbacks.OnStepEnd(run, step.Name(), out)

	return out, nil
}

// Lambda wraps a plain function as a named step.
func Lambda(name string, fn func(ctx context.Context, input any) (any, error)) core.Runnable {
	return core.NewRunnableFunc(name, fn)
}

// sequence feeds each step's output into the next.
type sequence struct {
	name  string
	steps []core.Runnable
}

// Sequence composes steps linearly: the output of step N becomes the input
// of step N+1. The first error stops the run. Sequences are associative:
// Sequence(a, Sequence(b, c)) behaves exactly like Sequence(Sequence(a, b), c).
func Sequence(steps ...core.Runnable) core.Runnable {
	return &sequence{name: "sequence", steps: steps}
}

// NamedSequence is Sequence with an explicit name for logs and callbacks.
func NamedSequence(name string, steps ...core.Runnable) core.Runnable {
	return &sequence{name: name, steps: steps}
}

// Name implements core.Runnable.
func (s *sequence) Name() string { return s.name }

// chainRunLogger is implemented by loggers with a dedicated chain run
// record, such as logging.LoomLogger.
type chainRunLogger interface {
	LogChainRun(chain string, steps int, dur time.Duration, err error)
}

// Invoke implements core.Runnable.
func (s *sequence) Invoke(ctx context.Context, input any) (any, error) {
	start := time.Now()
	current := input

	var err error
	for _, step := range s.steps {
		if err = ctx.Err(); err != nil {
			break
		}

		var out any
		out, err = invokeStep(ctx, step, current)
		if err != nil {
			err = fmt.Errorf("step %s: %w", step.Name(), err)
			break
		}
		current = out
	}

	if crl, ok := core.RunFromContext(ctx).Logger.(chainRunLogger); ok {
		crl.LogChainRun(s.name, len(s.steps), time.Since(start), err)
	}

	if err != nil {
		return nil, err
	}
	return current, nil
}

// passthrough returns its input unchanged.
type passthrough struct{}

// Passthrough returns the flowing Values unchanged. Useful as a Parallel
// branch that carries the original input alongside derived branches.
func Passthrough() core.Runnable { return passthrough{} }

// Name implements core.Runnable.
func (passthrough) Name() string { return "passthrough" }

// Invoke implements core.Runnable.
func (passthrough) Invoke(_ context.Context, input any) (any, error) {
	return input, nil
}

// assign merges a step's output into the flowing Values under a key.
type assign struct {
	key  string
	step core.Runnable
}

// Assign runs step with a clone of the flowing Values and merges its output
// back in under key, leaving every existing entry intact. This is how one
// model call's decoded record becomes a template variable for the next.
func Assign(key string, step core.Runnable) core.Runnable {
	return &assign{key: key, step: step}
}

// Name implements core.Runnable.
func (a *assign) Name() string { return "assign:" + a.key }

// Invoke implements core.Runnable.
func (a *assign) Invoke(ctx context.Context, input any) (any, error) {
	values, err := core.AsValues(input)
	if err != nil {
		return nil, fmt.Errorf("assign %s: %w", a.key, err)
	}

	out, err := invokeStep(ctx, a.step, values.Clone())
	if err != nil {
		return nil, fmt.Errorf("assign %s: %w", a.key, err)
	}

	merged := values.Clone()
	merged[a.key] = out
	return merged, nil
}

// pick extracts part of the flowing state via a JSONPath expression.
type pick struct {
	path string
	expr jp.Expr
}

// Pick extracts the value at a JSONPath expression from the flowing state,
// e.g. Pick("$.country.capital") after a decoded record was assigned under
// "country". A path with no match is an error. Multiple matches return a
// slice.
func Pick(path string) (core.Runnable, error) {
	expr, err := jp.ParseString(path)
	if err != nil {
		return nil, fmt.Errorf("parse path %q: %w", path, err)
	}
	return &pick{path: path, expr: expr}, nil
}

// MustPick is Pick that panics on an invalid path.
func MustPick(path string) core.Runnable {
	p, err := Pick(path)
	if err != nil {
		panic(err)
	}
	return p
}

// Name implements core.Runnable.
func (p *pick) Name() string { return "pick:" + p.path }

// Invoke implements core.Runnable.
func (p *pick) Invoke(_ context.Context, input any) (any, error) {
	if values, ok := input.(core.Values); ok {
		input = map[string]any(values)
	}

	results := p.expr.Get(input)
	switch len(results) {
	case 0:
		return nil, fmt.Errorf("pick %s: no match", p.path)
	case 1:
		return results[0], nil
	default:
		return results, nil
	}
}
