package graph

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomkit/loom/core"
)

// str reads a string value out of the state, tolerating absence.
func str(v core.Values, key string) string {
	s, _ := v.String(key)
	return s
}

func setNode(key, value string) NodeFunc {
	return func(_ context.Context, _ core.Values) (core.Values, error) {
		return core.Values{key: value}, nil
	}
}

func TestLinearGraph(t *testing.T) {
	g := New("pipeline").
		AddNode("fetch", setNode("raw", "payload")).
		AddNode("clean", func(_ context.Context, state core.Values) (core.Values, error) {
			return core.Values{"clean": strings.ToUpper(str(state, "raw"))}, nil
		}).
		AddEdge("fetch", "clean").
		AddEdge("clean", End).
		SetEntryPoint("fetch")

	compiled, err := g.Compile()
	require.NoError(t, err)

	state, err := compiled.Run(context.Background(), core.Values{})
	require.NoError(t, err)

	assert.Equal(t, "payload", str(state, "raw"))
	assert.Equal(t, "PAYLOAD", str(state, "clean"))
}

func TestGraphDeltaMerge(t *testing.T) {
	g := New("merge").
		AddNode("a", setNode("x", "1")).
		AddNode("b", func(_ context.Context, state core.Values) (core.Values, error) {
			// Overwrite x, add y. A nil delta would leave the state alone.
			return core.Values{"x": "2", "y": str(state, "x")}, nil
		}).
		AddEdge("a", "b").
		AddEdge("b", End).
		SetEntryPoint("a")

	compiled, err := g.Compile()
	require.NoError(t, err)

	state, err := compiled.Run(context.Background(), core.Values{"seed": true})
	require.NoError(t, err)

	assert.Equal(t, "2", str(state, "x"))
	assert.Equal(t, "1", str(state, "y"))
	assert.Equal(t, true, state["seed"])
}

func TestGraphInputNotMutated(t *testing.T) {
	g := New("clone").
		AddNode("mutate", setNode("k", "v")).
		AddEdge("mutate", End).
		SetEntryPoint("mutate")

	compiled, err := g.Compile()
	require.NoError(t, err)

	initial := core.Values{}
	_, err = compiled.Run(context.Background(), initial)
	require.NoError(t, err)

	assert.NotContains(t, initial, "k")
}

func TestConditionalEntryPoint(t *testing.T) {
	classify := func(_ context.Context, state core.Values) (string, error) {
		if strings.HasPrefix(str(state, "input"), "rev:") {
			return "reverse", nil
		}
		return "upper", nil
	}

	g := New("router").
		AddNode("reverse", func(_ context.Context, state core.Values) (core.Values, error) {
			runes := []rune(str(state, "input"))
			for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
				runes[i], runes[j] = runes[j], runes[i]
			}
			return core.Values{"output": string(runes)}, nil
		}).
		AddNode("upper", func(_ context.Context, state core.Values) (core.Values, error) {
			return core.Values{"output": strings.ToUpper(str(state, "input"))}, nil
		}).
		AddEdge("reverse", End).
		AddEdge("upper", End).
		SetConditionalEntryPoint(classify, map[string]string{
			"reverse": "reverse",
			"upper":   "upper",
		})

	compiled, err := g.Compile()
	require.NoError(t, err)

	state, err := compiled.Run(context.Background(), core.Values{"input": "rev:abc"})
	require.NoError(t, err)
	assert.Equal(t, "cba:ver", str(state, "output"))

	state, err = compiled.Run(context.Background(), core.Values{"input": "hello"})
	require.NoError(t, err)
	assert.Equal(t, "HELLO", str(state, "output"))
}

func TestConditionalEdges(t *testing.T) {
	g := New("triage").
		AddNode("inspect", func(_ context.Context, state core.Values) (core.Values, error) {
			return core.Values{"length": len(str(state, "input"))}, nil
		}).
		AddNode("short", setNode("verdict", "short")).
		AddNode("long", setNode("verdict", "long")).
		AddConditionalEdges("inspect", func(_ context.Context, state core.Values) (string, error) {
			if n, _ := state["length"].(int); n > 5 {
				return "long", nil
			}
			return "short", nil
		}, map[string]string{
			"short": "short",
			"long":  "long",
		}).
		AddEdge("short", End).
		AddEdge("long", End).
		SetEntryPoint("inspect")

	compiled, err := g.Compile()
	require.NoError(t, err)

	state, err := compiled.Run(context.Background(), core.Values{"input": "hi"})
	require.NoError(t, err)
	assert.Equal(t, "short", str(state, "verdict"))

	state, err = compiled.Run(context.Background(), core.Values{"input": "a longer input"})
	require.NoError(t, err)
	assert.Equal(t, "long", str(state, "verdict"))
}

func TestRouterCanReturnEnd(t *testing.T) {
	g := New("early-exit").
		AddNode("check", setNode("checked", "yes")).
		AddNode("work", setNode("worked", "yes")).
		AddConditionalEdges("check", func(_ context.Context, _ core.Values) (string, error) {
			return End, nil
		}, map[string]string{
			"continue": "work",
		}).
		AddEdge("work", End).
		SetEntryPoint("check")

	compiled, err := g.Compile()
	require.NoError(t, err)

	state, err := compiled.Run(context.Background(), core.Values{})
	require.NoError(t, err)
	assert.Equal(t, "yes", str(state, "checked"))
	assert.NotContains(t, state, "worked")
}

func TestUnmappedAction(t *testing.T) {
	g := New("bad-router").
		AddNode("a", setNode("k", "v")).
		AddConditionalEdges("a", func(_ context.Context, _ core.Values) (string, error) {
			return "nowhere", nil
		}, map[string]string{
			"somewhere": End,
		}).
		SetEntryPoint("a")

	compiled, err := g.Compile()
	require.NoError(t, err)

	_, err = compiled.Run(context.Background(), core.Values{})
	assert.ErrorIs(t, err, ErrNoRoute)
}

func TestNodeErrorPropagates(t *testing.T) {
	boom := errors.New("boom")

	g := New("failing").
		AddNode("a", func(_ context.Context, _ core.Values) (core.Values, error) {
			return nil, boom
		}).
		AddEdge("a", End).
		SetEntryPoint("a")

	compiled, err := g.Compile()
	require.NoError(t, err)

	_, err = compiled.Run(context.Background(), core.Values{})
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "node a")
}

func TestCompileErrors(t *testing.T) {
	t.Run("no entry point", func(t *testing.T) {
		g := New("g").AddNode("a", setNode("k", "v")).AddEdge("a", End)
		_, err := g.Compile()
		assert.ErrorIs(t, err, ErrNoEntryPoint)
	})

	t.Run("unknown edge target", func(t *testing.T) {
		g := New("g").
			AddNode("a", setNode("k", "v")).
			AddEdge("a", "missing").
			SetEntryPoint("a")
		_, err := g.Compile()
		assert.ErrorIs(t, err, ErrUnknownNode)
	})

	t.Run("unknown entry", func(t *testing.T) {
		g := New("g").
			AddNode("a", setNode("k", "v")).
			AddEdge("a", End).
			SetEntryPoint("missing")
		_, err := g.Compile()
		assert.ErrorIs(t, err, ErrUnknownNode)
	})

	t.Run("duplicate node", func(t *testing.T) {
		g := New("g").
			AddNode("a", setNode("k", "v")).
			AddNode("a", setNode("k", "w")).
			AddEdge("a", End).
			SetEntryPoint("a")
		_, err := g.Compile()
		assert.ErrorIs(t, err, ErrDuplicateNode)
	})

	t.Run("dead end", func(t *testing.T) {
		g := New("g").
			AddNode("a", setNode("k", "v")).
			AddNode("b", setNode("k", "w")).
			AddEdge("a", "b").
			SetEntryPoint("a")
		_, err := g.Compile()
		assert.ErrorIs(t, err, ErrDeadEnd)
	})

	t.Run("cycle", func(t *testing.T) {
		g := New("g").
			AddNode("a", setNode("k", "v")).
			AddNode("b", setNode("k", "w")).
			AddEdge("a", "b").
			AddEdge("b", "a").
			SetEntryPoint("a")
		_, err := g.Compile()
		assert.ErrorIs(t, err, ErrCycle)
	})

	t.Run("cycle through conditional edge", func(t *testing.T) {
		g := New("g").
			AddNode("a", setNode("k", "v")).
			AddNode("b", setNode("k", "w")).
			AddEdge("a", "b").
			AddConditionalEdges("b", func(_ context.Context, _ core.Values) (string, error) {
				return "back", nil
			}, map[string]string{
				"back": "a",
				"done": End,
			}).
			SetEntryPoint("a")
		_, err := g.Compile()
		assert.ErrorIs(t, err, ErrCycle)
	})
}

func TestMaxSteps(t *testing.T) {
	g := New("deep").
		AddNode("a", setNode("a", "1")).
		AddNode("b", setNode("b", "1")).
		AddNode("c", setNode("c", "1")).
		AddEdge("a", "b").
		AddEdge("b", "c").
		AddEdge("c", End).
		SetEntryPoint("a")

	compiled, err := g.Compile(func(o *CompileOptions) {
		o.MaxSteps = 2
	})
	require.NoError(t, err)

	_, err = compiled.Run(context.Background(), core.Values{})
	assert.ErrorIs(t, err, ErrMaxSteps)
}

func TestGraphAsRunnable(t *testing.T) {
	g := New("runnable").
		AddNode("stamp", setNode("stamped", "yes")).
		AddEdge("stamp", End).
		SetEntryPoint("stamp")

	compiled, err := g.Compile()
	require.NoError(t, err)

	var _ core.Runnable = compiled

	out, err := compiled.Invoke(context.Background(), map[string]any{"input": "x"})
	require.NoError(t, err)

	state, ok := out.(core.Values)
	require.True(t, ok)
	assert.Equal(t, "yes", str(state, "stamped"))
}

func TestQuestionAssistantTopology(t *testing.T) {
	// classify -> (factual|opinion) -> format -> End
	g := New("assistant").
		AddNode("classify", func(_ context.Context, state core.Values) (core.Values, error) {
			kind := "opinion"
			if strings.Contains(strings.ToLower(str(state, "question")), "what is") {
				kind = "factual"
			}
			return core.Values{"kind": kind}, nil
		}).
		AddNode("factual", setNode("draft", "fact-draft")).
		AddNode("opinion", setNode("draft", "opinion-draft")).
		AddNode("format", func(_ context.Context, state core.Values) (core.Values, error) {
			return core.Values{"answer": "[" + str(state, "kind") + "] " + str(state, "draft")}, nil
		}).
		AddConditionalEdges("classify", func(_ context.Context, state core.Values) (string, error) {
			return str(state, "kind"), nil
		}, map[string]string{
			"factual": "factual",
			"opinion": "opinion",
		}).
		AddEdge("factual", "format").
		AddEdge("opinion", "format").
		AddEdge("format", End).
		SetEntryPoint("classify")

	compiled, err := g.Compile()
	require.NoError(t, err)

	state, err := compiled.Run(context.Background(), core.Values{"question": "What is Go?"})
	require.NoError(t, err)
	assert.Equal(t, "[factual] fact-draft", str(state, "answer"))

	state, err = compiled.Run(context.Background(), core.Values{"question": "Is tea better than coffee?"})
	require.NoError(t, err)
	assert.Equal(t, "[opinion] opinion-draft", str(state, "answer"))
}
