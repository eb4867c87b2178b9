package normalization

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// AsString trims and returns the string representation of value when possible.
func AsString(value any) string {
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// AsInt coerces JSON numbers, Go integers and numeric strings into an int.
func AsInt(value any) int {
	switch typed := value.(type) {
	case float64:
		return int(typed)
	case float32:
		return int(typed)
	case int:
		return typed
	case int32:
		return int(typed)
	case int64:
		return int(typed)
	case json.Number:
		if v, err := typed.Int64(); err == nil {
			return int(v)
		}
	case string:
		if v, err := strconv.Atoi(strings.TrimSpace(typed)); err == nil {
			return v
		}
	}
	return 0
}

// IDKey normalizes an identifier value into a comparable string key so that the
// float64 produced by encoding/json and the int held by a Go struct compare equal.
// nil, blank strings and numeric zero are not identifiers.
func IDKey(value any) (string, bool) {
	switch typed := value.(type) {
	case nil:
		return "", false
	case string:
		trimmed := strings.TrimSpace(typed)
		if trimmed == "" || trimmed == "0" {
			return "", false
		}
		return trimmed, true
	case json.Number:
		if v, err := typed.Int64(); err == nil {
			return intKey(v)
		}
		if f, err := typed.Float64(); err == nil {
			return floatKey(f)
		}
		return IDKey(typed.String())
	case float64:
		return floatKey(typed)
	case float32:
		return floatKey(float64(typed))
	case int:
		return intKey(int64(typed))
	case int32:
		return intKey(int64(typed))
	case int64:
		return intKey(typed)
	case uint:
		return intKey(int64(typed))
	case uint32:
		return intKey(int64(typed))
	case uint64:
		return intKey(int64(typed))
	default:
		return "", false
	}
}

func intKey(v int64) (string, bool) {
	if v == 0 {
		return "", false
	}
	return strconv.FormatInt(v, 10), true
}

func floatKey(f float64) (string, bool) {
	if f == 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return "", false
	}
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return strconv.FormatInt(int64(f), 10), true
	}
	return strconv.FormatFloat(f, 'f', -1, 64), true
}
