// Package chain provides the composable steps that wire prompts, models and
// parsers into pipelines: Sequence for linear composition, Parallel for
// keyed fan-out/fan-in, Map for bounded fan-out over a slice, Assign and
// Pick for reshaping the Values state bag between steps, Retry and Fallback
// for recovery, and LLM for the canonical prompt -> model -> decode step.
//
// Every combinator implements core.Runnable, so chains nest arbitrarily:
// a Sequence of a Parallel of Sequences is itself a step.
package chain
