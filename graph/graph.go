// Package graph implements small directed workflow graphs: named nodes that
// read the shared state and return deltas, fixed or conditionally-routed
// edges, and an End sentinel. Graphs are compiled before use; compilation
// validates the topology (known nodes, an entry point, no cycles, no dead
// ends) so execution is a plain walk.
package graph

import (
	"context"
	"errors"
	"fmt"

	"github.com/loomkit/loom/core"
)

// End is the sentinel target marking the completion of a walk.
const End = "__end__"

// Sentinel errors returned by Compile and Invoke.
var (
	// ErrNoEntryPoint indicates Compile was called before SetEntryPoint.
	ErrNoEntryPoint = errors.New("graph: no entry point set")
	// ErrUnknownNode indicates an edge or entry references a node that was
	// never added.
	ErrUnknownNode = errors.New("graph: unknown node")
	// ErrDuplicateNode indicates AddNode was called twice with one name.
	ErrDuplicateNode = errors.New("graph: duplicate node")
	// ErrDeadEnd indicates a node with no outgoing edge.
	ErrDeadEnd = errors.New("graph: node has no outgoing edge")
	// ErrCycle indicates the topology contains a cycle.
	ErrCycle = errors.New("graph: cycle detected")
	// ErrNoRoute indicates a router returned an action with no mapped target.
	ErrNoRoute = errors.New("graph: router returned unmapped action")
	// ErrMaxSteps indicates the step guard tripped during a walk.
	ErrMaxSteps = errors.New("graph: max steps exceeded")
)

// NodeFunc is a processing step. It receives the current state and returns a
// delta that is merged into the state; returning nil means no change.
type NodeFunc func(ctx context.Context, state core.Values) (core.Values, error)

// RouterFunc inspects the state and names the action used to choose the next
// node among a conditional edge's routes.
type RouterFunc func(ctx context.Context, state core.Values) (string, error)

type conditionalEdge struct {
	router RouterFunc
	routes map[string]string
}

// Graph is a mutable builder. Construction errors are collected and
// surfaced by Compile, so building chains fluently.
type Graph struct {
	name        string
	nodes       map[string]NodeFunc
	edges       map[string]string
	conditional map[string]conditionalEdge
	entry       string
	condEntry   *conditionalEdge
	errs        []error
}

// New creates an empty graph builder with the given name.
func New(name string) *Graph {
	return &Graph{
		name:        name,
		nodes:       map[string]NodeFunc{},
		edges:       map[string]string{},
		conditional: map[string]conditionalEdge{},
	}
}

// AddNode registers a named processing step.
func (g *Graph) AddNode(name string, fn NodeFunc) *Graph {
	if name == End {
		g.errs = append(g.errs, fmt.Errorf("%w: %q is reserved", ErrDuplicateNode, End))
		return g
	}
	if _, exists := g.nodes[name]; exists {
		g.errs = append(g.errs, fmt.Errorf("%w: %s", ErrDuplicateNode, name))
		return g
	}
	g.nodes[name] = fn
	return g
}

// AddEdge registers a fixed transition from one node to another (or to End).
func (g *Graph) AddEdge(from, to string) *Graph {
	g.edges[from] = to
	return g
}

// AddConditionalEdges registers a router on from. The router's action is
// looked up in routes to choose the next node; an action equal to End (or
// mapped to End) finishes the walk.
func (g *Graph) AddConditionalEdges(from string, router RouterFunc, routes map[string]string) *Graph {
	g.conditional[from] = conditionalEdge{router: router, routes: routes}
	return g
}

// SetEntryPoint fixes the starting node.
func (g *Graph) SetEntryPoint(name string) *Graph {
	g.entry = name
	return g
}

// SetConditionalEntryPoint routes the initial state to one of several
// starting nodes.
func (g *Graph) SetConditionalEntryPoint(router RouterFunc, routes map[string]string) *Graph {
	g.condEntry = &conditionalEdge{router: router, routes: routes}
	return g
}

// CompileOptions configure graph compilation.
type CompileOptions struct {
	// MaxSteps is a defensive bound on nodes visited per walk; defaults to
	// twice the node count.
	MaxSteps int
}

// Compile validates the topology and freezes the graph for execution.
func (g *Graph) Compile(optFns ...func(o *CompileOptions)) (*CompiledGraph, error) {
	opts := CompileOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = 2 * len(g.nodes)
	}

	if len(g.errs) > 0 {
		return nil, errors.Join(g.errs...)
	}
	if g.entry == "" && g.condEntry == nil {
		return nil, ErrNoEntryPoint
	}
	if g.entry != "" {
		if _, ok := g.nodes[g.entry]; !ok {
			return nil, fmt.Errorf("%w: entry %s", ErrUnknownNode, g.entry)
		}
	}
	if g.condEntry != nil {
		for action, target := range g.condEntry.routes {
			if err := g.checkTarget(target); err != nil {
				return nil, fmt.Errorf("entry route %q: %w", action, err)
			}
		}
	}

	for name := range g.nodes {
		_, hasEdge := g.edges[name]
		_, hasConditional := g.conditional[name]
		if !hasEdge && !hasConditional {
			return nil, fmt.Errorf("%w: %s", ErrDeadEnd, name)
		}
	}

	for from, to := range g.edges {
		if _, ok := g.nodes[from]; !ok {
			return nil, fmt.Errorf("%w: edge source %s", ErrUnknownNode, from)
		}
		if err := g.checkTarget(to); err != nil {
			return nil, fmt.Errorf("edge %s: %w", from, err)
		}
	}
	for from, ce := range g.conditional {
		if _, ok := g.nodes[from]; !ok {
			return nil, fmt.Errorf("%w: conditional edge source %s", ErrUnknownNode, from)
		}
		for action, target := range ce.routes {
			if err := g.checkTarget(target); err != nil {
				return nil, fmt.Errorf("conditional edge %s route %q: %w", from, action, err)
			}
		}
	}

	if err := g.checkAcyclic(); err != nil {
		return nil, err
	}

	return &CompiledGraph{graph: g, maxSteps: opts.MaxSteps}, nil
}

func (g *Graph) checkTarget(target string) error {
	if target == End {
		return nil
	}
	if _, ok := g.nodes[target]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, target)
	}
	return nil
}

// successors returns every possible next node (End excluded).
func (g *Graph) successors(name string) []string {
	var out []string
	if to, ok := g.edges[name]; ok && to != End {
		out = append(out, to)
	}
	if ce, ok := g.conditional[name]; ok {
		for _, target := range ce.routes {
			if target != End {
				out = append(out, target)
			}
		}
	}
	return out
}

// checkAcyclic runs a coloring DFS over every node.
func (g *Graph) checkAcyclic() error {
	const (
		white = 0 // unvisited
		gray  = 1 // on the current path
		black = 2 // fully explored
	)
	colors := make(map[string]int, len(g.nodes))

	var visit func(name string) error
	visit = func(name string) error {
		switch colors[name] {
		case gray:
			return fmt.Errorf("%w: via %s", ErrCycle, name)
		case black:
			return nil
		}
		colors[name] = gray
		for _, next := range g.successors(name) {
			if err := visit(next); err != nil {
				return err
			}
		}
		colors[name] = black
		return nil
	}

	for name := range g.nodes {
		if err := visit(name); err != nil {
			return err
		}
	}
	return nil
}

// CompiledGraph is a validated, immutable graph ready for execution.
type CompiledGraph struct {
	graph    *Graph
	maxSteps int
}

// Name implements core.Runnable.
func (c *CompiledGraph) Name() string { return "graph:" + c.graph.name }

// Invoke implements core.Runnable so compiled graphs compose as chain steps.
// Input must be a Values (or map) initial state.
func (c *CompiledGraph) Invoke(ctx context.Context, input any) (any, error) {
	initial, err := core.AsValues(input)
	if err != nil {
		return nil, fmt.Errorf("graph %s: %w", c.graph.name, err)
	}
	return c.Run(ctx, initial)
}

// Run walks the graph from the entry point, merging node deltas into the
// state, until End is reached. The final state is returned.
func (c *CompiledGraph) Run(ctx context.Context, initial core.Values) (core.Values, error) {
	run := core.RunFromContext(ctx)
	state := initial.Clone()

	current, err := c.entryNode(ctx, state)
	if err != nil {
		return nil, fmt.Errorf("graph %s: %w", c.graph.name, err)
	}

	for steps := 0; current != End; steps++ {
		if steps >= c.maxSteps {
			return nil, fmt.Errorf("graph %s: %w (%d)", c.graph.name, ErrMaxSteps, c.maxSteps)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		node := c.graph.nodes[current]

		run.Callbacks.OnStepStart(run, "node:"+current, state)
		delta, err := node(ctx, state)
		if err != nil {
			run.Callbacks.OnStepError(run, "node:"+current, err)
			return nil, fmt.Errorf("graph %s: node %s: %w", c.graph.name, current, err)
		}
		run.Callbacks.OnStepEnd(run, "node:"+current, delta)

		state.Merge(delta)

		next, err := c.nextNode(ctx, current, state)
		if err != nil {
			return nil, fmt.Errorf("graph %s: %w", c.graph.name, err)
		}
		current = next
	}

	return state, nil
}

func (c *CompiledGraph) entryNode(ctx context.Context, state core.Values) (string, error) {
	if c.graph.condEntry == nil {
		return c.graph.entry, nil
	}
	return route(ctx, *c.graph.condEntry, "entry", state)
}

func (c *CompiledGraph) nextNode(ctx context.Context, current string, state core.Values) (string, error) {
	if to, ok := c.graph.edges[current]; ok {
		return to, nil
	}
	ce := c.graph.conditional[current]
	return route(ctx, ce, current, state)
}

func route(ctx context.Context, ce conditionalEdge, from string, state core.Values) (string, error) {
	action, err := ce.router(ctx, state)
	if err != nil {
		return "", fmt.Errorf("router at %s: %w", from, err)
	}

	if target, ok := ce.routes[action]; ok {
		return target, nil
	}
	if action == End {
		return End, nil
	}
	return "", fmt.Errorf("%w: %q at %s", ErrNoRoute, action, from)
}
