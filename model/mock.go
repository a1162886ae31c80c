package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/loomkit/loom/core"
)

// Mock is a lightweight in-memory Model useful for tests & examples. It
// matches canned completions by the last message's content, can replay a
// queue of messages, fail with a fixed error, or defer to a per-call hook.
// All recorded requests are retrievable for assertions.
type Mock struct {
	info Info

	mu        sync.Mutex
	responses map[string]string
	queue     []core.Message
	err       error
	hook      func(req Request) (core.Message, error)
	requests  []Request
}

// NewMock constructs a Mock with streaming and tool support flagged on.
func NewMock(name string) *Mock {
	return &Mock{
		info: Info{
			Name:              name,
			Provider:          "mock",
			SupportsStreaming: true,
			SupportsTools:     true,
		},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for an input prompt.
func (m *Mock) AddResponse(prompt, response string) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
	return m
}

// Enqueue appends messages replayed in order, one per Generate call, before
// prompt matching applies.
func (m *Mock) Enqueue(messages ...core.Message) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, messages...)
	return m
}

// EnqueueText is Enqueue for plain assistant text replies.
func (m *Mock) EnqueueText(texts ...string) *Mock {
	for _, text := range texts {
		m.Enqueue(core.AssistantMessage(text))
	}
	return m
}

// FailWith makes every subsequent Generate surface err.
func (m *Mock) FailWith(err error) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// OnGenerate installs a hook that fully controls responses. Takes precedence
// over queue and canned completions.
func (m *Mock) OnGenerate(hook func(req Request) (core.Message, error)) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hook = hook
	return m
}

// Requests returns a copy of every request seen so far.
func (m *Mock) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// CallCount returns how many Generate calls were made.
func (m *Mock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

func (m *Mock) nextMessage(req Request) (core.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)

	if m.err != nil {
		return core.Message{}, m.err
	}
	if m.hook != nil {
		return m.hook(req)
	}
	if len(m.queue) > 0 {
		msg := m.queue[0]
		m.queue = m.queue[1:]
		return msg, nil
	}

	var inputText string
	if len(req.Messages) > 0 {
		inputText = req.Messages[len(req.Messages)-1].Content
	}
	if full, ok := m.responses[inputText]; ok {
		return core.AssistantMessage(full), nil
	}
	return core.AssistantMessage(fmt.Sprintf("Mock response to: %s", inputText)), nil
}

// Generate implements Model; emits optional streaming char chunks then the
// final response.
func (m *Mock) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 16)
	errCh := make(chan error, 1)

	go func() {
		defer close(respCh)
		defer close(errCh)

		msg, err := m.nextMessage(req)
		if err != nil {
			errCh <- err
			return
		}

		if req.Stream && len(msg.ToolCalls) == 0 {
			for _, r := range msg.Content {
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case respCh <- Response{
					Partial: true,
					Message: core.AssistantMessage(string(r)),
				}:
				}
			}
		}

		finishReason := "stop"
		if len(msg.ToolCalls) > 0 {
			finishReason = "tool_calls"
		}

		respCh <- Response{
			Partial:      false,
			Message:      msg,
			FinishReason: finishReason,
		}
	}()

	return respCh, errCh
}

// Info implements Model interface.
func (m *Mock) Info() Info { return m.info }
