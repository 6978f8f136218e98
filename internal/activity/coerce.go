package activity

import (
	"encoding/json"
	"strconv"
)

// ToInt converts an untyped API field to an int, substituting 0 for
// anything missing, non-numeric, or otherwise unusable. All numeric reads
// from raw payloads go through here so the defaulting policy lives in one
// place.
func ToInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0
		}
		return int(i)
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0
		}
		return i
	default:
		return 0
	}
}

// coerceFloat converts an untyped API field to a float64, reporting whether
// the value was actually numeric.
func coerceFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// ToString converts an untyped API field to a string, substituting ""
// for missing or non-string values. Numbers are rendered as their decimal
// form since Tautulli freely mixes the two.
func ToString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		if s == float64(int64(s)) {
			return strconv.FormatInt(int64(s), 10)
		}
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	default:
		return ""
	}
}

// truthy mirrors loose boolean fields like "live", which the API reports
// variously as a bool, 0/1, or "1".
func truthy(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case float64:
		return b != 0
	case int:
		return b != 0
	case string:
		return b != "" && b != "0"
	default:
		return false
	}
}
