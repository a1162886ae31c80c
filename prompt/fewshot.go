package prompt

import (
	"fmt"
	"strings"
)

// FewShot renders a prefix, a list of worked examples and a suffix into one
// prompt. Each example is a variable map formatted through the example
// template; the suffix receives the caller's input variables.
type FewShot struct {
	// Prefix introduces the task. Optional.
	Prefix string
	// Example formats a single example entry.
	Example *Template
	// Examples are the variable maps rendered through Example in order.
	Examples []map[string]any
	// Suffix carries the actual input placeholders. Required.
	Suffix *Template
	// Separator joins the parts; defaults to a blank line.
	Separator string
}

// Format renders the few-shot prompt with the given input variables.
func (f *FewShot) Format(vars map[string]any) (string, error) {
	if f.Suffix == nil {
		return "", fmt.Errorf("few-shot prompt requires a suffix template")
	}

	sep := f.Separator
	if sep == "" {
		sep = "\n\n"
	}

	parts := make([]string, 0, len(f.Examples)+2)
	if f.Prefix != "" {
		parts = append(parts, f.Prefix)
	}

	for i, example := range f.Examples {
		if f.Example == nil {
			return "", fmt.Errorf("few-shot prompt has examples but no example template")
		}
		text, err := f.Example.Format(example)
		if err != nil {
			return "", fmt.Errorf("example %d: %w", i, err)
		}
		parts = append(parts, text)
	}

	suffix, err := f.Suffix.Format(vars)
	if err != nil {
		return "", fmt.Errorf("suffix: %w", err)
	}
	parts = append(parts, suffix)

	return strings.Join(parts, sep), nil
}
