package binding

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Comparison operator names accepted by Evaluate. Symbolic aliases match
// their word forms exactly.
const (
	OpEquals      = "equals"
	OpNotEquals   = "not-equals"
	OpIncludes    = "includes"
	OpNotIncludes = "not-includes"
	OpGreaterThan = "greater-than"
	OpLessThan    = "less-than"
	OpTruthy      = "truthy"
	OpFalsy       = "falsy"
	OpEmpty       = "empty"
	OpNotEmpty    = "not-empty"
)

var numericPattern = regexp.MustCompile(`^-?\d+(\.\d+)?$`)

// ParseExpected converts an attribute string into a typed value: literal
// true/false/null/undefined tokens map to bool or nil, integer-or-decimal
// strings to float64, anything else stays a string.
func ParseExpected(raw string) any {
	switch raw {
	case "true":
		return true
	case "false":
		return false
	case "null", "undefined":
		return nil
	}
	if numericPattern.MatchString(raw) {
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return f
		}
	}
	return raw
}

// Evaluate runs the named operator against a state value and the expected
// value carried by a condition attribute. Unknown operators evaluate to
// false rather than failing: a typo in markup must not break the page.
func Evaluate(actual any, expected string, operator string) bool {
	typed := ParseExpected(expected)
	switch operator {
	case OpEquals, "==":
		return coerceString(actual) == coerceString(typed)
	case OpNotEquals, "!=":
		return coerceString(actual) != coerceString(typed)
	case OpIncludes:
		return includes(actual, typed)
	case OpNotIncludes:
		return !includes(actual, typed)
	case OpGreaterThan, ">":
		a, aok := coerceNumber(actual)
		b, bok := coerceNumber(typed)
		return aok && bok && a > b
	case OpLessThan, "<":
		a, aok := coerceNumber(actual)
		b, bok := coerceNumber(typed)
		return aok && bok && a < b
	case OpTruthy:
		return truthy(actual)
	case OpFalsy:
		return !truthy(actual)
	case OpEmpty:
		return isEmpty(actual)
	case OpNotEmpty:
		return !isEmpty(actual)
	default:
		return false
	}
}

func includes(actual, expected any) bool {
	switch items := actual.(type) {
	case []any:
		for _, item := range items {
			if coerceString(item) == coerceString(expected) {
				return true
			}
		}
		return false
	case []string:
		for _, item := range items {
			if item == coerceString(expected) {
				return true
			}
		}
		return false
	case string:
		return strings.Contains(items, coerceString(expected))
	default:
		return false
	}
}

// truthy follows script-side truthiness: nil, false, zero, and the empty
// string are false; collections are truthy even when empty.
func truthy(v any) bool {
	switch typed := v.(type) {
	case nil:
		return false
	case bool:
		return typed
	case string:
		return typed != ""
	default:
		if n, ok := coerceNumber(v); ok {
			return n != 0
		}
		return true
	}
}

// isEmpty uses length for collections and trim-then-falsy for scalars.
// The dual behavior is intentional; see the package tests.
func isEmpty(v any) bool {
	switch typed := v.(type) {
	case []any:
		return len(typed) == 0
	case []string:
		return len(typed) == 0
	case map[string]any:
		return len(typed) == 0
	case string:
		return strings.TrimSpace(typed) == ""
	default:
		return !truthy(v)
	}
}

func coerceString(v any) string {
	switch typed := v.(type) {
	case nil:
		return ""
	case string:
		return typed
	case bool:
		if typed {
			return "true"
		}
		return "false"
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(typed), 'f', -1, 64)
	case int:
		return strconv.Itoa(typed)
	case int64:
		return strconv.FormatInt(typed, 10)
	default:
		return fmt.Sprint(typed)
	}
}

func coerceNumber(v any) (float64, bool) {
	switch typed := v.(type) {
	case float64:
		return typed, true
	case float32:
		return float64(typed), true
	case int:
		return float64(typed), true
	case int64:
		return float64(typed), true
	case bool:
		if typed {
			return 1, true
		}
		return 0, true
	case string:
		trimmed := strings.TrimSpace(typed)
		if trimmed == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
