package util

import (
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// ToInt64 converts a decoded payload value to int64 the way lenient clients
// parse integers: numbers are truncated, strings contribute their leading
// integer ("45min" -> 45). Returns 0 for nil, NaN and unsupported types.
func ToInt64(v any) int64 {
	if v == nil {
		return 0
	}
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0
		}
		return int64(n)
	case json.Number:
		return leadingInt(n.String())
	case string:
		return leadingInt(n)
	default:
		return 0
	}
}

func leadingInt(s string) int64 {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}
	i, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0
	}
	return i
}

// ToText renders a payload value for display. Strings are returned as-is,
// everything else as compact JSON. Returns "" for nil or unencodable values.
func ToText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
