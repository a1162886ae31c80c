package chain

import (
	"context"
	"fmt"
	"time"

	"github.com/loomkit/loom/core"
	"github.com/loomkit/loom/model"
	"github.com/loomkit/loom/prompt"
)

// Formatter renders a prompt from variables. prompt.Template and
// prompt.FewShot both satisfy it.
type Formatter interface {
	Format(vars map[string]any) (string, error)
}

// OutputParser is the non-generic view of a parser attached to an LLM step.
// Every parser in the parser package satisfies it.
type OutputParser interface {
	core.Runnable
	FormatInstructions() string
}

// schemaProvider is implemented by parsers that can hand a JSON schema to
// providers supporting schema-constrained output.
type schemaProvider interface {
	Schema() map[string]any
}

// modelCallLogger is implemented by loggers with a dedicated model call
// record, such as logging.LoomLogger. Plain Loggers fall back to generic
// debug/error lines.
type modelCallLogger interface {
	LogModelCall(model string, tokens int, dur time.Duration, err error)
}

// LLMOptions configure an LLM step.
type LLMOptions struct {
	// Name identifies the step; defaults to "llm".
	Name string
	// System is an optional system prompt prepended to every request.
	System string
	// Parser decodes the reply; when nil the raw text string is returned.
	Parser OutputParser
	// Temperature overrides the model adapter default when non-nil.
	Temperature *float64
	// MaxTokens caps the response length; 0 uses the adapter default.
	MaxTokens int
	// DisableResponseFormat suppresses the schema-constrained response
	// format even when the parser provides a schema.
	DisableResponseFormat bool
}

// llm is the canonical prompt -> model -> decode step.
type llm struct {
	tmpl Formatter
	mdl  model.Model
	opts LLMOptions
}

// LLM builds the canonical model call step: format the template with the
// flowing variables, send it to the model, decode the reply with the parser.
// Parser format instructions are injected under the reserved
// "format_instructions" variable and, for JSON parsers, as a provider
// response format. Each invocation consumes one unit of the run's call
// budget.
func LLM(tmpl Formatter, mdl model.Model, optFns ...func(o *LLMOptions)) core.Runnable {
	opts := LLMOptions{Name: "llm"}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &llm{tmpl: tmpl, mdl: mdl, opts: opts}
}

// Name implements core.Runnable.
func (l *llm) Name() string { return l.opts.Name }

// Invoke implements core.Runnable. String inputs are exposed to the template
// as the "input" variable; map inputs are passed through as-is.
func (l *llm) Invoke(ctx context.Context, input any) (any, error) {
	vars, err := l.vars(input)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", l.opts.Name, err)
	}

	text, err := l.tmpl.Format(vars)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", l.opts.Name, err)
	}

	run := core.RunFromContext(ctx)
	if err := run.Budget.Consume(); err != nil {
		return nil, fmt.Errorf("%s: %w", l.opts.Name, err)
	}

	req := l.buildRequest(text)
	info := l.mdl.Info()

	run.Callbacks.OnModelStart(run, info.Name, req.Messages)
	start := time.Now()

	resp, err := model.Drain(l.mdl.Generate(ctx, req))
	if err != nil {
		run.Callbacks.OnModelError(run, info.Name, err)
		l.logModelCall(run, info.Name, nil, time.Since(start), err)
		return nil, fmt.Errorf("%s: model %s: %w", l.opts.Name, info.Name, err)
	}

	run.Callbacks.OnModelEnd(run, info.Name, resp.Message)
	l.logModelCall(run, info.Name, resp.Usage, time.Since(start), nil)

	if l.opts.Parser == nil {
		return resp.Message.Content, nil
	}

	parsed, err := l.opts.Parser.Invoke(ctx, resp.Message.Content)
	if err != nil {
		run.Callbacks.OnParseError(run, l.opts.Parser.Name(), err)
		return nil, fmt.Errorf("%s: %w", l.opts.Name, err)
	}

	return parsed, nil
}

func (l *llm) logModelCall(run *core.Run, name string, usage *model.TokenUsage, dur time.Duration, err error) {
	if mcl, ok := run.Logger.(modelCallLogger); ok {
		tokens := 0
		if usage != nil {
			tokens = usage.TotalTokens
		}
		mcl.LogModelCall(name, tokens, dur, err)
		return
	}

	if err != nil {
		run.Logger.Error("model call failed",
			"step", l.opts.Name, "model", name, "duration", dur, "error", err)
		return
	}
	run.Logger.Debug("model call completed",
		"step", l.opts.Name, "model", name, "duration", dur)
}

func (l *llm) vars(input any) (core.Values, error) {
	if text, ok := input.(string); ok {
		input = core.Values{"input": text}
	}

	vars, err := core.AsValues(input)
	if err != nil {
		return nil, err
	}

	if l.opts.Parser != nil {
		if instructions := l.opts.Parser.FormatInstructions(); instructions != "" {
			vars = vars.Clone()
			vars[prompt.FormatInstructionsVar] = instructions
		}
	}

	return vars, nil
}

func (l *llm) buildRequest(text string) model.Request {
	var messages []core.Message
	if l.opts.System != "" {
		messages = append(messages, core.SystemMessage(l.opts.System))
	}
	messages = append(messages, core.UserMessage(text))

	req := model.Request{
		Messages:    messages,
		Temperature: l.opts.Temperature,
		MaxTokens:   l.opts.MaxTokens,
	}

	if !l.opts.DisableResponseFormat {
		if sp, ok := l.opts.Parser.(schemaProvider); ok {
			req.ResponseFormat = &model.ResponseFormat{Name: "output", Schema: sp.Schema()}
		}
	}

	return req
}
