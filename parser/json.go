package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/loomkit/loom/internal/schema"
	"github.com/xeipuuv/gojsonschema"
)

// JSON decodes a model reply into the record type T after validating it
// against a JSON schema derived from T by reflection. Required fields,
// numeric minimum/maximum tags and enum tags are all enforced before
// decoding, so a schema-violating reply errors instead of producing a
// partially populated record.
type JSON[T any] struct {
	schema map[string]any
}

// NewJSON constructs a JSON parser for T. T must be a struct type; its json,
// description, minimum, maximum and enum tags shape the schema.
func NewJSON[T any]() *JSON[T] {
	return &JSON[T]{schema: schema.From[T]()}
}

// Schema returns the derived JSON schema. Model adapters use it for
// schema-constrained response formats.
func (p *JSON[T]) Schema() map[string]any { return p.schema }

// Parse implements Parser. Code fences around the reply are tolerated.
func (p *JSON[T]) Parse(text string) (T, error) {
	var out T

	raw := stripFences(text)

	schemaLoader := gojsonschema.NewGoLoader(p.schema)
	documentLoader := gojsonschema.NewStringLoader(raw)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return out, newError("json", text, fmt.Errorf("invalid JSON: %w", err))
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return out, newError("json", text, fmt.Errorf("schema violation: %s", strings.Join(details, "; ")))
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	if err := dec.Decode(&out); err != nil {
		return out, newError("json", text, fmt.Errorf("decode: %w", err))
	}

	return out, nil
}

// FormatInstructions implements Parser.
func (p *JSON[T]) FormatInstructions() string {
	schemaJSON, err := json.MarshalIndent(p.schema, "", "  ")
	if err != nil {
		return "Respond with a JSON object."
	}
	return fmt.Sprintf(
		"Respond only with a JSON object conforming to this schema, without code fences or commentary:\n%s",
		schemaJSON,
	)
}

// Name implements core.Runnable.
func (p *JSON[T]) Name() string { return "parser:json" }

// Invoke implements core.Runnable.
func (p *JSON[T]) Invoke(_ context.Context, input any) (any, error) {
	text, ok := input.(string)
	if !ok {
		return nil, fmt.Errorf("json parser: expected string input, got %T", input)
	}
	return p.Parse(text)
}

// stripFences removes a surrounding markdown code fence (``` or ```json)
// that models often wrap JSON replies in.
func stripFences(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		// Drop the language marker line (e.g. "json").
		trimmed = trimmed[idx+1:]
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
