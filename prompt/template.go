// Package prompt renders natural-language templates with named placeholders
// before they are sent to a model. Templates use Go text/template syntax
// ({{.country}}), are validated at construction and fail on missing
// variables rather than emitting "<no value>". Rendering is deterministic:
// the same template and variables always yield the same string.
package prompt

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/loomkit/loom/core"
)

// FormatInstructionsVar is the reserved variable name parsers inject their
// format instructions under when a template opts in.
const FormatInstructionsVar = "format_instructions"

// funcMap holds the helper functions available inside every template.
func funcMap() template.FuncMap {
	return template.FuncMap{
		"default": func(defaultVal any, val any) any {
			if val == nil || val == "" {
				return defaultVal
			}
			return val
		},
		"upper": strings.ToUpper,
		"lower": strings.ToLower,
		"title": func(s string) string {
			if len(s) == 0 {
				return s
			}
			return strings.ToUpper(string(s[0])) + strings.ToLower(s[1:])
		},
		"join": func(sep string, items []any) string {
			strItems := make([]string, len(items))
			for i, item := range items {
				strItems[i] = fmt.Sprintf("%v", item)
			}
			return strings.Join(strItems, sep)
		},
	}
}

// Template is a prompt template with named placeholders. The zero value is
// not usable; construct via New or Must.
type Template struct {
	text     string
	tmpl     *template.Template
	partials map[string]any
}

// New parses text into a Template. Parse errors surface here, not at Format
// time.
func New(text string) (*Template, error) {
	tmpl, err := template.New("prompt").
		Option("missingkey=error").
		Funcs(funcMap()).
		Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}

	return &Template{text: text, tmpl: tmpl}, nil
}

// Must is New that panics on parse errors. For package-level template vars.
func Must(text string) *Template {
	t, err := New(text)
	if err != nil {
		panic(err)
	}
	return t
}

// Text returns the raw template text.
func (t *Template) Text() string { return t.text }

// Format substitutes vars into the template. A placeholder without a
// matching variable is an error.
func (t *Template) Format(vars map[string]any) (string, error) {
	if !strings.Contains(t.text, "{{") { // fast path: no template markers
		return t.text, nil
	}

	merged := make(map[string]any, len(t.partials)+len(vars))
	for k, v := range t.partials {
		merged[k] = v
	}
	for k, v := range vars {
		merged[k] = v
	}

	var buf bytes.Buffer
	if err := t.tmpl.Execute(&buf, merged); err != nil {
		return "", fmt.Errorf("format template: %w", err)
	}

	return buf.String(), nil
}

// Partial returns a derived template with some variables pre-bound. Later
// Format vars override partial bindings on key collision.
func (t *Template) Partial(vars map[string]any) *Template {
	merged := make(map[string]any, len(t.partials)+len(vars))
	for k, v := range t.partials {
		merged[k] = v
	}
	for k, v := range vars {
		merged[k] = v
	}
	return &Template{text: t.text, tmpl: t.tmpl, partials: merged}
}

// Name implements core.Runnable.
func (t *Template) Name() string { return "prompt" }

// Invoke implements core.Runnable: it formats the template with a Values (or
// map) input and returns the rendered string.
func (t *Template) Invoke(_ context.Context, input any) (any, error) {
	vars, err := core.AsValues(input)
	if err != nil {
		return nil, fmt.Errorf("prompt: %w", err)
	}
	return t.Format(vars)
}
