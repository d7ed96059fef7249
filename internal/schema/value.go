package schema

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the canonical rendering of DATE values.
const DateLayout = "2006-01-02"

var dateLayouts = []string{DateLayout, time.RFC3339, time.RFC3339Nano}

// parseDate accepts any of dateLayouts and keeps only the calendar date as
// written, so a timestamp compares equal to its own day.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return calendarDay(t), true
		}
	}
	return time.Time{}, false
}

func calendarDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func isEmpty(v interface{}) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case []interface{}:
		return len(x) == 0
	case []string:
		return len(x) == 0
	default:
		return false
	}
}

func asText(v interface{}) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asNumber(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, !math.IsNaN(x) && !math.IsInf(x, 0)
	case float32:
		f := float64(x)
		return f, !math.IsNaN(f) && !math.IsInf(f, 0)
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case int32:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil && !math.IsNaN(f) && !math.IsInf(f, 0)
	default:
		return 0, false
	}
}

func asDate(v interface{}) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return calendarDay(x), true
	case string:
		return parseDate(x)
	default:
		return time.Time{}, false
	}
}

func asBool(v interface{}) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

func asStrings(v interface{}) ([]string, bool) {
	switch x := v.(type) {
	case []string:
		return x, true
	case []interface{}:
		out := make([]string, 0, len(x))
		for _, item := range x {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}

// normalize folds numeric representations together so decoded JSON compares
// equal to values written in Go.
func normalize(v interface{}) interface{} {
	if n, ok := asNumber(v); ok {
		return n
	}
	if s, ok := asStrings(v); ok {
		return s
	}
	return v
}

func valuesEqual(a, b interface{}) bool {
	return reflect.DeepEqual(normalize(a), normalize(b))
}

// matches reports whether an answer satisfies a REQUIRED_IF predicate.
// A list answer matches when it contains the expected value.
func matches(answer, expected interface{}) bool {
	if list, ok := asStrings(answer); ok {
		if want, ok := expected.(string); ok {
			for _, s := range list {
				if s == want {
					return true
				}
			}
			return false
		}
	}
	return valuesEqual(answer, expected)
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
