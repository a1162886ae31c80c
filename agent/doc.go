// Package agent runs tool-calling loops. An Executor sends the conversation
// to a model together with the schemas of its registered tools, executes any
// tool calls the model returns, feeds the results back, and repeats until
// the model answers with plain text or the iteration cap is hit.
package agent
