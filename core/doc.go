// Package core defines the shared vocabulary of the framework: the Values
// state bag flowing between steps, chat Messages, the Runnable contract all
// composable steps implement, and the per-invocation Run carrying identity,
// logging, hooks and the model call budget through a context.Context.
//
// Higher level packages (prompt, model, chain, graph, agent) depend on core;
// core depends only on logging and the standard library.
package core
