package chain

import (
	"context"
	"fmt"
	"time"

	"github.com/loomkit/loom/core"
)

// retry re-runs a failing step a bounded number of times.
type retry struct {
	step     core.Runnable
	attempts int
	delay    time.Duration
}

// Retry runs step up to attempts times, sleeping delay between tries.
// Context cancellation aborts the wait. The last error is returned when all
// attempts fail.
func Retry(step core.Runnable, attempts int, delay time.Duration) core.Runnable {
	if attempts < 1 {
		attempts = 1
	}
	return &retry{step: step, attempts: attempts, delay: delay}
}

// Name implements core.Runnable.
func (r *retry) Name() string { return "retry:" + r.step.Name() }

// Invoke implements core.Runnable.
func (r *retry) Invoke(ctx context.Context, input any) (any, error) {
	var lastErr error

	for attempt := 1; attempt <= r.attempts; attempt++ {
		out, err := invokeStep(ctx, r.step, input)
		if err == nil {
			return out, nil
		}
		lastErr = err

		if attempt == r.attempts {
			break
		}
		if r.delay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(r.delay):
			}
		}
	}

	return nil, fmt.Errorf("after %d attempts: %w", r.attempts, lastErr)
}

// fallback tries alternatives in order after the primary step fails.
type fallback struct {
	primary   core.Runnable
	fallbacks []core.Runnable
}

// Fallback runs primary and, if it fails, each fallback in order until one
// succeeds. All failing returns the primary's error wrapped with the count
// of exhausted fallbacks. The common use is a Lambda returning an empty
// result so a failed side branch degrades instead of killing the pipeline.
func Fallback(primary core.Runnable, fallbacks ...core.Runnable) core.Runnable {
	return &fallback{primary: primary, fallbacks: fallbacks}
}

// Name implements core.Runnable.
func (f *fallback) Name() string { return "fallback:" + f.primary.Name() }

// Invoke implements core.Runnable.
func (f *fallback) Invoke(ctx context.Context, input any) (any, error) {
	out, primaryErr := invokeStep(ctx, f.primary, input)
	if primaryErr == nil {
		return out, nil
	}

	run := core.RunFromContext(ctx)
	for _, fb := range f.fallbacks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		run.Logger.Warn("step failed, trying fallback",
			"step", f.primary.Name(), "fallback", fb.Name(), "error", primaryErr)

		out, err := invokeStep(ctx, fb, input)
		if err == nil {
			return out, nil
		}
	}

	return nil, fmt.Errorf("primary and %d fallbacks failed: %w", len(f.fallbacks), primaryErr)
}
