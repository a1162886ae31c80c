package parser

import (
	"context"
	"fmt"
	"strings"
)

// Boolean maps a yes/no style reply to a bool. Matching is case-insensitive
// and tolerates surrounding punctuation; anything other than the two tokens
// is an error.
type Boolean struct {
	// TrueToken defaults to "YES".
	TrueToken string
	// FalseToken defaults to "NO".
	FalseToken string
}

func (b Boolean) tokens() (string, string) {
	trueTok := b.TrueToken
	if trueTok == "" {
		trueTok = "YES"
	}
	falseTok := b.FalseToken
	if falseTok == "" {
		falseTok = "NO"
	}
	return trueTok, falseTok
}

// Parse implements Parser.
func (b Boolean) Parse(text string) (bool, error) {
	trueTok, falseTok := b.tokens()

	cleaned := strings.ToUpper(strings.TrimFunc(strings.TrimSpace(text), func(r rune) bool {
		return r == '.' || r == '!' || r == ',' || r == '"' || r == '\'' || r == ' '
	}))

	switch cleaned {
	case strings.ToUpper(trueTok):
		return true, nil
	case strings.ToUpper(falseTok):
		return false, nil
	default:
		return false, newError("boolean", text,
			fmt.Errorf("expected %s or %s, got %q", trueTok, falseTok, strings.TrimSpace(text)))
	}
}

// FormatInstructions implements Parser.
func (b Boolean) FormatInstructions() string {
	trueTok, falseTok := b.tokens()
	return fmt.Sprintf("Answer with %s or %s only.", trueTok, falseTok)
}

// Name implements core.Runnable.
func (Boolean) Name() string { return "parser:boolean" }

// Invoke implements core.Runnable.
func (b Boolean) Invoke(_ context.Context, input any) (any, error) {
	text, ok := input.(string)
	if !ok {
		return nil, fmt.Errorf("boolean parser: expected string input, got %T", input)
	}
	return b.Parse(text)
}
