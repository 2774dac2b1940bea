// Package sanitize is the serialization boundary for server-provided display
// text. API payloads echo LLM output and user content whose shape cannot be
// trusted; every string rendered to a client passes through DisplayString so
// a malformed value degrades to a placeholder instead of crashing a page.
package sanitize

import (
	"encoding/json"
	"strconv"
	"strings"
)

const (
	// MaxDepth is how deep nested JSON is walked before truncating.
	MaxDepth = 4

	// Placeholder replaces values that cannot be rendered.
	Placeholder = "[Invalid Content]"

	// truncated replaces values nested beyond MaxDepth.
	truncated = "[...]"
)

// DisplayString maps an arbitrary JSON value to a display-safe string.
// Strings pass through, numbers and booleans are formatted, arrays join
// their elements with spaces, and objects render as compact JSON. Nesting
// beyond MaxDepth truncates to a placeholder.
func DisplayString(v interface{}) string {
	return renderValue(v, 0)
}

// DisplayJSON decodes raw JSON and renders it display-safe. Malformed input
// yields the placeholder rather than an error: the boundary never fails.
func DisplayJSON(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return Placeholder
	}
	return renderValue(v, 0)
}

func renderValue(v interface{}, depth int) string {
	if depth > MaxDepth {
		return truncated
	}

	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case json.Number:
		return val.String()
	case []interface{}:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			if s := renderValue(item, depth+1); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " ")
	case map[string]interface{}:
		if depth+1 > MaxDepth {
			return truncated
		}
		compact, err := json.Marshal(capDepth(val, depth+1))
		if err != nil {
			return Placeholder
		}
		return string(compact)
	default:
		return Placeholder
	}
}

// capDepth rewrites a decoded JSON tree, replacing anything past MaxDepth
// with the truncation marker so objects stay renderable at bounded size.
func capDepth(v interface{}, depth int) interface{} {
	if depth > MaxDepth {
		return truncated
	}
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			out[k] = capDepth(item, depth+1)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = capDepth(item, depth+1)
		}
		return out
	default:
		return val
	}
}
