package pipeline

import (
	"context"
	"fmt"

	"github.com/loomkit/loom/chain"
	"github.com/loomkit/loom/core"
	"github.com/loomkit/loom/model"
	"github.com/loomkit/loom/parser"
	"github.com/loomkit/loom/prompt"
)

// Build compiles the pipeline into a runnable sequence over the given model.
// The returned runnable takes a Values state carrying the declared vars and
// returns the state extended with every step's output.
func (p *Pipeline) Build(mdl model.Model) (core.Runnable, error) {
	steps := make([]core.Runnable, 0, len(p.Steps)+1)
	steps = append(steps, requireVars(p.Name, p.Vars))

	for _, step := range p.Steps {
		runnable, err := p.buildStep(step, mdl)
		if err != nil {
			return nil, fmt.Errorf("pipeline %s: step %s: %w", p.Name, step.Name, err)
		}
		steps = append(steps, chain.Assign(step.Key(), runnable))
	}

	return chain.NamedSequence("pipeline:"+p.Name, steps...), nil
}

func (p *Pipeline) buildStep(step Step, mdl model.Model) (core.Runnable, error) {
	tmpl, err := prompt.New(step.Prompt)
	if err != nil {
		return nil, err
	}

	out, err := stepParser(step.Parse)
	if err != nil {
		return nil, err
	}

	llm := chain.LLM(tmpl, mdl, func(o *chain.LLMOptions) {
		o.Name = step.Name
		o.System = step.System
		o.Parser = out
	})

	if step.Input == "" {
		return llm, nil
	}

	// Re-expose a prior output under the conventional "input" variable so
	// generic prompts keep working.
	source := step.Input
	return chain.Lambda(step.Name, func(ctx context.Context, input any) (any, error) {
		state, err := core.AsValues(input)
		if err != nil {
			return nil, err
		}
		vars := state.Clone()
		val, ok := vars[source]
		if !ok {
			return nil, fmt.Errorf("input key %q not present in state", source)
		}
		vars["input"] = val
		return llm.Invoke(ctx, vars)
	}), nil
}

func stepParser(kind string) (chain.OutputParser, error) {
	switch kind {
	case "", ParseText:
		return nil, nil
	case ParseJSON:
		return parser.JSONMap{}, nil
	case ParseBool:
		return parser.Boolean{}, nil
	case ParseDatetime:
		return parser.Datetime{}, nil
	case ParseList:
		return parser.CommaSeparated{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown parse mode %q", ErrInvalidPipeline, kind)
	}
}

// requireVars fails fast when the caller omitted a declared input variable.
func requireVars(name string, vars []string) core.Runnable {
	return chain.Lambda("check-vars", func(_ context.Context, input any) (any, error) {
		state, err := core.AsValues(input)
		if err != nil {
			return nil, fmt.Errorf("pipeline %s: %w", name, err)
		}
		for _, v := range vars {
			if _, ok := state[v]; !ok {
				return nil, fmt.Errorf("pipeline %s: missing input var %q", name, v)
			}
		}
		return state, nil
	})
}
