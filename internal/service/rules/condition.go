package rules

import (
	"strings"
)

// Condition maps attribute names to the expected value. Every entry must hold.
// An expected value is a literal (string, number, bool), a list of accepted
// literals, or an object with "min", "max" and/or "in":
//
//	{"drive": "motor", "capacity": {"max": 1000}, "cabin.material": {"in": ["aluminum", "stainless_steel"]}}
type Condition map[string]any

func (c Condition) Matches(env Env) bool {
	for key, expected := range c {
		actual, ok := env.Lookup(key)
		if !ok {
			return false
		}
		if !valueMatches(actual, expected) {
			return false
		}
	}
	return true
}

// Names returns the attributes the condition reads.
func (c Condition) Names() []string {
	out := make([]string, 0, len(c))
	for k := range c {
		out = append(out, k)
	}
	return out
}

func valueMatches(actual, expected any) bool {
	switch exp := expected.(type) {
	case []any:
		return inList(actual, exp)
	case map[string]any:
		return compareObject(actual, exp)
	}
	return equals(actual, expected)
}

func equals(actual, expected any) bool {
	switch exp := expected.(type) {
	case string:
		if s, ok := actual.(string); ok {
			return strings.EqualFold(strings.TrimSpace(s), exp)
		}
	case float64:
		if f, ok := actual.(float64); ok {
			return f == exp
		}
	case bool:
		if b, ok := actual.(bool); ok {
			return b == exp
		}
	case nil:
		return actual == nil || actual == ""
	}
	return false
}

func inList(actual any, list []any) bool {
	for _, v := range list {
		if equals(actual, v) {
			return true
		}
	}
	return false
}

// compareObject handles {"min": 1} / {"min": 1, "max": 5} / {"in": [...]}.
func compareObject(actual any, obj map[string]any) bool {
	if list, ok := obj["in"].([]any); ok {
		if !inList(actual, list) {
			return false
		}
	}
	_, hasMin := obj["min"]
	_, hasMax := obj["max"]
	if !hasMin && !hasMax {
		return true
	}
	f, ok := actual.(float64)
	if !ok {
		return false
	}
	if minVal, ok := obj["min"].(float64); ok && f < minVal {
		return false
	}
	if maxVal, ok := obj["max"].(float64); ok && f > maxVal {
		return false
	}
	return true
}
