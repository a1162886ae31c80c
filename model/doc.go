// Package model defines the provider-agnostic abstractions and concrete
// helpers for interacting with hosted language models inside loom.
//
// Core goals:
//   - Unify streaming + non-streaming generation behind a single interface
//   - Normalize tool / function call representation (ToolDefinition, ToolCall)
//   - Keep request/response shapes minimal and transport independent
//   - Facilitate lightweight mocking for tests (Mock)
//
// Providers (OpenAI, Anthropic, Google AI) implement the Model interface from
// this package so higher layers (chains, graphs, agents) remain decoupled
// from vendor SDKs.
package model
