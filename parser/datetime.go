package parser

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Datetime parses a reply into a time.Time using a fixed layout. The format
// instructions show the layout by example so the model can conform.
type Datetime struct {
	// Layout is a Go reference-time layout; defaults to "2006-01-02T15:04:05Z".
	Layout string
}

func (d Datetime) layout() string {
	if d.Layout == "" {
		return "2006-01-02T15:04:05Z"
	}
	return d.Layout
}

// Parse implements Parser.
func (d Datetime) Parse(text string) (time.Time, error) {
	cleaned := strings.Trim(strings.TrimSpace(text), "\"'`")

	t, err := time.Parse(d.layout(), cleaned)
	if err != nil {
		return time.Time{}, newError("datetime", text, err)
	}
	return t, nil
}

// FormatInstructions implements Parser.
func (d Datetime) FormatInstructions() string {
	example := time.Date(2024, time.March, 7, 15, 4, 5, 0, time.UTC).Format(d.layout())
	return fmt.Sprintf("Write the datetime using this exact format: %q (for example: %q). Reply with the datetime only.", d.layout(), example)
}

// Name implements core.Runnable.
func (Datetime) Name() string { return "parser:datetime" }

// Invoke implements core.Runnable.
func (d Datetime) Invoke(_ context.Context, input any) (any, error) {
	text, ok := input.(string)
	if !ok {
		return nil, fmt.Errorf("datetime parser: expected string input, got %T", input)
	}
	return d.Parse(text)
}
