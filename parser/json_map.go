package parser

import (
	"context"
	"encoding/json"
	"fmt"
)

// JSONMap decodes a reply as an arbitrary JSON object into map[string]any.
// Unlike JSON[T] it carries no schema, so it suits callers that only know
// the shape at runtime, such as declarative pipelines.
type JSONMap struct{}

// Parse implements Parser.
func (JSONMap) Parse(text string) (map[string]any, error) {
	cleaned := stripFences(text)

	var out map[string]any
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return nil, newError("json_map", text, fmt.Errorf("decode: %w", err))
	}
	return out, nil
}

// FormatInstructions implements OutputParser.
func (JSONMap) FormatInstructions() string {
	return "Respond with a single JSON object. Do not wrap it in markdown fences."
}

// Name implements core.Runnable.
func (JSONMap) Name() string { return "parser:json_map" }

// Invoke implements core.Runnable.
func (j JSONMap) Invoke(_ context.Context, input any) (any, error) {
	text, ok := input.(string)
	if !ok {
		return nil, newError("json_map", "", fmt.Errorf("expected string input, got %T", input))
	}
	return j.Parse(text)
}
