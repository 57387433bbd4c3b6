package builtin

import (
	"encoding/json"
	"fmt"
	"math"
)

// Argument decoding helpers shared by all handlers. Model-produced JSON
// arrives with numbers as float64; the int helper accepts anything that is
// a whole number.

func requiredString(args map[string]any, key string) (string, error) {
	value, ok := args[key]
	if !ok {
		return "", fmt.Errorf("missing required field: %s", key)
	}
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("field %s: expected string but got %T", key, value)
	}
	return s, nil
}

func optionalString(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

func optionalBool(args map[string]any, key string) bool {
	b, _ := args[key].(bool)
	return b
}

func optionalInt(args map[string]any, key string, fallback int) int {
	value, ok := args[key]
	if !ok {
		return fallback
	}
	switch v := value.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		if math.Trunc(v) == v {
			return int(v)
		}
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return int(i)
		}
	}
	return fallback
}

// intArg is like optionalInt but reports whether the key was present with a
// usable value, for parameters whose absence changes behavior.
func intArg(args map[string]any, key string) (int, bool) {
	if _, ok := args[key]; !ok {
		return 0, false
	}
	sentinel := math.MinInt
	if v := optionalInt(args, key, sentinel); v != sentinel {
		return v, true
	}
	return 0, false
}
