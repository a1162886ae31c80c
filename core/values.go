package core

import "fmt"

// Values is the state bag passed between composed steps. Keys are step or
// variable names; values are whatever a step produced (strings, decoded
// records, slices). Values are transient per run and never persisted.
type Values map[string]any

// Clone returns a shallow copy. Step implementations clone before mutating
// so sibling branches never observe each other's writes.
func (v Values) Clone() Values {
	out := make(Values, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// Merge copies all entries of other into v, overwriting existing keys.
func (v Values) Merge(other Values) {
	for k, val := range other {
		v[k] = val
	}
}

// String returns the value under key if it is a string. Missing keys and
// non-string values yield ok == false.
func (v Values) String(key string) (string, bool) {
	val, ok := v[key]
	if !ok {
		return "", false
	}
	s, ok := val.(string)
	return s, ok
}

// AsValues converts step output into Values. Values and map[string]any pass
// through; anything else is rejected so callers can report the offending step.
func AsValues(input any) (Values, error) {
	switch t := input.(type) {
	case Values:
		return t, nil
	case map[string]any:
		return Values(t), nil
	case nil:
		return Values{}, nil
	default:
		return nil, fmt.Errorf("expected map state, got %T", input)
	}
}
