// Package parser coerces free-text model replies into typed values: strict
// JSON records validated against reflection-derived schemas, booleans,
// datetimes and comma separated lists. A reply that violates the expected
// shape yields an *Error carrying the raw text; malformed data is never
// silently returned.
package parser

import (
	"context"
	"fmt"
	"strings"
)

// Error is the typed decode error for schema or format violations. It wraps
// the underlying cause and keeps the offending raw reply for diagnosis.
type Error struct {
	Parser string // parser name, e.g. "json", "boolean"
	Raw    string // raw model reply that failed to parse
	Err    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s parser: %v", e.Parser, e.Err)
}

// Unwrap exposes the cause for errors.Is / errors.As.
func (e *Error) Unwrap() error { return e.Err }

func newError(parser, raw string, err error) *Error {
	return &Error{Parser: parser, Raw: raw, Err: err}
}

// Parser converts a model reply into a typed value. FormatInstructions
// returns text appended to prompts telling the model what shape to reply in;
// it may be empty for free-form parsers.
type Parser[T any] interface {
	Parse(text string) (T, error)
	FormatInstructions() string
}

// Str returns the reply trimmed of surrounding whitespace.
type Str struct{}

// Parse implements Parser.
func (Str) Parse(text string) (string, error) {
	return strings.TrimSpace(text), nil
}

// FormatInstructions implements Parser.
func (Str) FormatInstructions() string { return "" }

// Name implements core.Runnable.
func (Str) Name() string { return "parser:str" }

// Invoke implements core.Runnable.
func (s Str) Invoke(_ context.Context, input any) (any, error) {
	text, ok := input.(string)
	if !ok {
		return nil, fmt.Errorf("str parser: expected string input, got %T", input)
	}
	return s.Parse(text)
}

// CommaSeparated splits a reply like "a, b, c" into trimmed items. Empty
// items are dropped.
type CommaSeparated struct{}

// Parse implements Parser.
func (CommaSeparated) Parse(text string) ([]string, error) {
	parts := strings.Split(text, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if item := strings.TrimSpace(part); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return nil, newError("list", text, fmt.Errorf("no items found"))
	}
	return out, nil
}

// FormatInstructions implements Parser.
func (CommaSeparated) FormatInstructions() string {
	return "Your response should be a list of comma separated values, eg: `foo, bar, baz`"
}

// Name implements core.Runnable.
func (CommaSeparated) Name() string { return "parser:list" }

// Invoke implements core.Runnable.
func (c CommaSeparated) Invoke(_ context.Context, input any) (any, error) {
	text, ok := input.(string)
	if !ok {
		return nil, fmt.Errorf("list parser: expected string input, got %T", input)
	}
	return c.Parse(text)
}
