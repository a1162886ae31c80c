package chain

import (
	"context"
	"fmt"
	"sort"

	"github.com/loomkit/loom/core"
	"golang.org/x/sync/errgroup"
)

// parallel fans the same input out to named branches and merges the results.
type parallel struct {
	branches map[string]core.Runnable
}

// Parallel runs every branch concurrently with the same input and merges
// their outputs into one Values keyed by branch name. Values inputs are
// cloned per branch so siblings never observe each other's writes. The
// first branch error cancels the remaining branches and fails the step;
// otherwise all branches are awaited.
func Parallel(branches map[string]core.Runnable) core.Runnable {
	return &parallel{branches: branches}
}

// Name implements core.Runnable.
func (p *parallel) Name() string { return "parallel" }

// Invoke implements core.Runnable.
func (p *parallel) Invoke(ctx context.Context, input any) (any, error) {
	keys := make([]string, 0, len(p.branches))
	for key := range p.branches {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	g, ctx := errgroup.WithContext(ctx)
	results := make([]any, len(keys))

	for i, key := range keys {
		i, key := i, key
		branch := p.branches[key]

		branchInput := input
		if values, ok := input.(core.Values); ok {
			branchInput = values.Clone()
		}

		g.Go(func() error {
			out, err := invokeStep(ctx, branch, branchInput)
			if err != nil {
				return fmt.Errorf("branch %s: %w", key, err)
			}
			results[i] = out
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := core.Values{}
	for i, key := range keys {
		merged[key] = results[i]
	}
	return merged, nil
}

// mapStep applies one step to every element of a slice input.
type mapStep struct {
	step core.Runnable
	opts MapOptions
}

// MapOptions configure Map.
type MapOptions struct {
	// MaxConcurrency bounds the worker pool; defaults to 4.
	MaxConcurrency int
}

// WithMaxConcurrency sets the worker pool size for Map.
func WithMaxConcurrency(n int) func(o *MapOptions) {
	return func(o *MapOptions) { o.MaxConcurrency = n }
}

// Map applies step to each element of a slice input using a fixed-size
// worker pool, waits for all to finish and returns the outputs in input
// order. Elements are independent; one failure cancels the outstanding
// workers and fails the step.
func Map(step core.Runnable, optFns ...func(o *MapOptions)) core.Runnable {
	opts := MapOptions{MaxConcurrency: 4}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &mapStep{step: step, opts: opts}
}

// Name implements core.Runnable.
func (m *mapStep) Name() string { return "map:" + m.step.Name() }

// Invoke implements core.Runnable.
func (m *mapStep) Invoke(ctx context.Context, input any) (any, error) {
	items, err := asSlice(input)
	if err != nil {
		return nil, fmt.Errorf("map: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(m.opts.MaxConcurrency)

	results := make([]any, len(items))
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			out, err := invokeStep(ctx, m.step, item)
			if err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
			results[i] = out
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

func asSlice(input any) ([]any, error) {
	switch t := input.(type) {
	case []any:
		return t, nil
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("expected slice input, got %T", input)
	}
}
