package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/loomkit/loom/core"
	"github.com/loomkit/loom/model"
	"github.com/loomkit/loom/tool"
)

// ErrMaxIterations is returned when the model keeps requesting tools past
// the configured iteration cap.
var ErrMaxIterations = errors.New("agent: max iterations reached without final answer")

// ErrUnknownTool is returned when the model calls a tool that was never
// registered.
var ErrUnknownTool = errors.New("agent: model called unknown tool")

// Options configure an Executor.
type Options struct {
	// Name identifies the executor in logs and callbacks. Defaults to "agent".
	Name string
	// System is an optional system prompt prepended to the conversation.
	System string
	// MaxIterations caps model round-trips per Run. Defaults to 10.
	MaxIterations int
	// Temperature overrides the model default when set.
	Temperature *float64
}

// Result carries the outcome of an agent run.
type Result struct {
	// Output is the model's final text answer.
	Output string
	// Messages is the full transcript including tool calls and results.
	Messages []core.Message
	// Iterations counts model round-trips taken.
	Iterations int
	// ToolCalls counts individual tool executions.
	ToolCalls int
}

// Executor drives a model/tool loop to completion.
type Executor struct {
	model model.Model
	tools map[string]tool.Tool
	defs  []model.ToolDefinition
	opts  Options
}

// NewExecutor wires a model to a set of tools.
func NewExecutor(mdl model.Model, tools []tool.Tool, optFns ...func(o *Options)) *Executor {
	opts := Options{
		Name:          "agent",
		MaxIterations: 10,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	byName := make(map[string]tool.Tool, len(tools))
	defs := make([]model.ToolDefinition, 0, len(tools))
	for _, t := range tools {
		byName[t.Name()] = t
		defs = append(defs, model.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}

	return &Executor{model: mdl, tools: byName, defs: defs, opts: opts}
}

// Name implements core.Runnable.
func (e *Executor) Name() string { return e.opts.Name }

// Invoke implements core.Runnable. Input may be a string or a Values map
// with an "input" key; the output is the final text answer.
func (e *Executor) Invoke(ctx context.Context, input any) (any, error) {
	var question string
	switch t := input.(type) {
	case string:
		question = t
	case core.Values:
		s, ok := t.String("input")
		if !ok {
			return nil, fmt.Errorf("agent %s: state has no string %q", e.opts.Name, "input")
		}
		question = s
	default:
		return nil, fmt.Errorf("agent %s: unsupported input %T", e.opts.Name, input)
	}

	result, err := e.Run(ctx, question)
	if err != nil {
		return nil, err
	}
	return result.Output, nil
}

// Run executes the tool loop for a single user input.
func (e *Executor) Run(ctx context.Context, input string) (*Result, error) {
	run := core.RunFromContext(ctx)
	info := e.model.Info()

	var messages []core.Message
	if e.opts.System != "" {
		messages = append(messages, core.SystemMessage(e.opts.System))
	}
	messages = append(messages, core.UserMessage(input))

	result := &Result{}

	for i := 0; i < e.opts.MaxIterations; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := run.Budget.Consume(); err != nil {
			return nil, fmt.Errorf("agent %s: %w", e.opts.Name, err)
		}

		req := model.Request{
			Messages:    messages,
			Tools:       e.defs,
			Temperature: e.opts.Temperature,
		}

		run.Callbacks.OnModelStart(run, info.Name, req.Messages)
		resp, err := model.Drain(e.model.Generate(ctx, req))
		if err != nil {
			run.Callbacks.OnModelError(run, info.Name, err)
			return nil, fmt.Errorf("agent %s: model call: %w", e.opts.Name, err)
		}
		run.Callbacks.OnModelEnd(run, info.Name, resp.Message)

		result.Iterations++
		messages = append(messages, resp.Message)

		if len(resp.Message.ToolCalls) == 0 {
			result.Output = resp.Message.Content
			result.Messages = messages
			return result, nil
		}

		for _, call := range resp.Message.ToolCalls {
			output, err := e.execute(ctx, run, call)
			if err != nil {
				return nil, err
			}
			result.ToolCalls++
			messages = append(messages, core.ToolMessage(call.ID, output))
		}
	}

	return nil, fmt.Errorf("agent %s: %w (%d)", e.opts.Name, ErrMaxIterations, e.opts.MaxIterations)
}

// toolCallLogger is implemented by loggers with a dedicated tool call
// record, such as logging.LoomLogger.
type toolCallLogger interface {
	LogToolCall(tool string, dur time.Duration, err error)
}

// execute runs one tool call. Tool-level failures (validation, execution)
// are reported back to the model as the call result so it can correct
// itself; only unknown tools and undecodable arguments abort the run.
func (e *Executor) execute(ctx context.Context, run *core.Run, call core.ToolCall) (string, error) {
	t, ok := e.tools[call.Name]
	if !ok {
		return "", fmt.Errorf("agent %s: %w: %s", e.opts.Name, ErrUnknownTool, call.Name)
	}

	args := map[string]any{}
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return "", fmt.Errorf("agent %s: tool %s: decode arguments: %w", e.opts.Name, call.Name, err)
		}
	}

	run.Logger.Debug("tool call", "tool", call.Name, "call_id", call.ID)

	start := time.Now()
	output, err := t.Call(ctx, args)
	if tcl, ok := run.Logger.(toolCallLogger); ok {
		tcl.LogToolCall(call.Name, time.Since(start), err)
	}
	if err != nil {
		var toolErr *tool.Error
		if errors.As(err, &toolErr) {
			run.Logger.Warn("tool call failed", "tool", call.Name, "code", toolErr.Code, "error", toolErr.Message)
			return "error: " + toolErr.Message, nil
		}
		return "", fmt.Errorf("agent %s: tool %s: %w", e.opts.Name, call.Name, err)
	}

	return stringify(output), nil
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(b)
	}
}
