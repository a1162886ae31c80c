package model

import (
	"context"
	"errors"
	"testing"

	"github.com/loomkit/loom/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockCannedResponse(t *testing.T) {
	m := NewMock("test-model").AddResponse("What is the capital of France?", "Paris")

	respCh, errCh := m.Generate(context.Background(), Request{
		Messages: []core.Message{core.UserMessage("What is the capital of France?")},
	})

	resp, err := Drain(respCh, errCh)
	require.NoError(t, err)
	assert.Equal(t, "Paris", resp.Message.Content)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Equal(t, 1, m.CallCount())
}

func TestMockDefaultResponse(t *testing.T) {
	m := NewMock("test-model")

	respCh, errCh := m.Generate(context.Background(), Request{
		Messages: []core.Message{core.UserMessage("hello")},
	})

	resp, err := Drain(respCh, errCh)
	require.NoError(t, err)
	assert.Equal(t, "Mock response to: hello", resp.Message.Content)
}

func TestMockQueue(t *testing.T) {
	m := NewMock("test-model").EnqueueText("first", "second")

	for _, want := range []string{"first", "second"} {
		respCh, errCh := m.Generate(context.Background(), Request{
			Messages: []core.Message{core.UserMessage("x")},
		})
		resp, err := Drain(respCh, errCh)
		require.NoError(t, err)
		assert.Equal(t, want, resp.Message.Content)
	}
}

func TestMockFailure(t *testing.T) {
	boom := errors.New("api unreachable")
	m := NewMock("test-model").FailWith(boom)

	respCh, errCh := m.Generate(context.Background(), Request{
		Messages: []core.Message{core.UserMessage("x")},
	})

	_, err := Drain(respCh, errCh)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestMockStreaming(t *testing.T) {
	m := NewMock("test-model").AddResponse("hi", "abc")

	respCh, errCh := m.Generate(context.Background(), Request{
		Messages: []core.Message{core.UserMessage("hi")},
		Stream:   true,
	})

	var partials []string
	var final *Response
	for respCh != nil || errCh != nil {
		select {
		case resp, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}
			if resp.Partial {
				partials = append(partials, resp.Message.Content)
			} else {
				r := resp
				final = &r
			}
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			require.NoError(t, err)
		}
	}

	assert.Equal(t, []string{"a", "b", "c"}, partials)
	require.NotNil(t, final)
	assert.Equal(t, "abc", final.Message.Content)
}

func TestMockToolCallFinishReason(t *testing.T) {
	m := NewMock("test-model").Enqueue(core.Message{
		Role:      core.RoleAssistant,
		ToolCalls: []core.ToolCall{{ID: "call-1", Name: "clock", Arguments: "{}"}},
	})

	respCh, errCh := m.Generate(context.Background(), Request{
		Messages: []core.Message{core.UserMessage("what time is it?")},
	})

	resp, err := Drain(respCh, errCh)
	require.NoError(t, err)
	assert.Equal(t, "tool_calls", resp.FinishReason)
	require.Len(t, resp.Message.ToolCalls, 1)
	assert.Equal(t, "clock", resp.Message.ToolCalls[0].Name)
}

func TestDrainNoFinalResponse(t *testing.T) {
	respCh := make(chan Response)
	errCh := make(chan error)
	close(respCh)
	close(errCh)

	_, err := Drain(respCh, errCh)
	assert.ErrorIs(t, err, ErrNoResponse)
}

func TestMockRecordsRequests(t *testing.T) {
	m := NewMock("test-model")

	_, _ = Drain(m.Generate(context.Background(), Request{
		Messages: []core.Message{core.SystemMessage("sys"), core.UserMessage("q1")},
	}))
	_, _ = Drain(m.Generate(context.Background(), Request{
		Messages: []core.Message{core.UserMessage("q2")},
	}))

	reqs := m.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "q1", reqs[0].Messages[1].Content)
	assert.Equal(t, "q2", reqs[1].Messages[0].Content)
}
