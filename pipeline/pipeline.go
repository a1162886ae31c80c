// Package pipeline loads declarative chain definitions from YAML and turns
// them into runnable sequences. A pipeline names its input variables and an
// ordered list of prompt steps; each step's output is assigned back into the
// flowing state under its output key, so later steps can reference earlier
// results in their templates.
package pipeline

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var schemaJSON string

// ErrInvalidPipeline wraps schema validation failures from Load and Parse.
var ErrInvalidPipeline = errors.New("invalid pipeline definition")

// Parse modes accepted by a step's parse field.
const (
	ParseText     = "text"
	ParseJSON     = "json"
	ParseBool     = "bool"
	ParseDatetime = "datetime"
	ParseList     = "list"
)

// Step is one prompt invocation in a pipeline.
type Step struct {
	// Name identifies the step in logs and errors.
	Name string `yaml:"name"`
	// Prompt is the template text; it may reference declared vars and the
	// output keys of earlier steps.
	Prompt string `yaml:"prompt"`
	// System optionally sets a system prompt for this step.
	System string `yaml:"system,omitempty"`
	// Input optionally names a state key exposed to the template as "input".
	Input string `yaml:"input,omitempty"`
	// OutputKey is the state key the result is stored under; defaults to
	// the step name.
	OutputKey string `yaml:"output_key,omitempty"`
	// Parse selects how the reply is decoded; defaults to "text".
	Parse string `yaml:"parse,omitempty"`
}

// Key returns the state key the step writes to.
func (s Step) Key() string {
	if s.OutputKey != "" {
		return s.OutputKey
	}
	return s.Name
}

// Pipeline is a validated declarative chain definition.
type Pipeline struct {
	// Name identifies the pipeline.
	Name string `yaml:"name"`
	// Description is free-form documentation.
	Description string `yaml:"description,omitempty"`
	// Vars lists the input variables the caller must provide.
	Vars []string `yaml:"vars,omitempty"`
	// Steps run in order.
	Steps []Step `yaml:"steps"`
}

// Load reads and parses a pipeline definition from a YAML file.
func Load(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pipeline: %w", err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("pipeline %s: %w", path, err)
	}
	return p, nil
}

// Parse validates YAML bytes against the pipeline schema and decodes them.
func Parse(data []byte) (*Pipeline, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPipeline, err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schemaJSON),
		gojsonschema.NewGoLoader(raw),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPipeline, err)
	}
	if !result.Valid() {
		issues := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			issues = append(issues, desc.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidPipeline, strings.Join(issues, "; "))
	}

	var p Pipeline
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPipeline, err)
	}

	seen := map[string]bool{}
	for _, step := range p.Steps {
		if seen[step.Name] {
			return nil, fmt.Errorf("%w: duplicate step name %q", ErrInvalidPipeline, step.Name)
		}
		seen[step.Name] = true
	}

	return &p, nil
}
