// File path: internal/weld/types.go
package weld

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Fragment is one partial structured-extraction result scoped to a single
// text chunk of a source document. Keys carry whatever spelling the upstream
// extraction produced; values are strings, numbers, booleans, nil, lists, or
// nested mappings.
type Fragment map[string]interface{}

// Document is a fragment whose keys have been rewritten into the canonical
// schema vocabulary. Unknown keys survive normalization verbatim so callers
// can still reach raw data; they simply never participate in weighted
// comparison.
type Document map[string]interface{}

type valueKind int

const (
	kindScalar valueKind = iota
	kindList
	kindMapping
)

func kindOf(value interface{}) valueKind {
	switch value.(type) {
	case map[string]interface{}, Fragment, Document:
		return kindMapping
	case []interface{}:
		return kindList
	default:
		return kindScalar
	}
}

func asMapping(value interface{}) (map[string]interface{}, bool) {
	switch v := value.(type) {
	case map[string]interface{}:
		return v, true
	case Fragment:
		return map[string]interface{}(v), true
	case Document:
		return map[string]interface{}(v), true
	default:
		return nil, false
	}
}

// isEmptyValue reports whether a value counts as absent for merge and
// comparison purposes: nil, empty string, empty list, or empty mapping.
func isEmptyValue(value interface{}) bool {
	if value == nil {
		return true
	}
	switch v := value.(type) {
	case string:
		return v == ""
	case []interface{}:
		return len(v) == 0
	default:
		if m, ok := asMapping(value); ok {
			return len(m) == 0
		}
		return false
	}
}

func deepCopyValue(value interface{}) interface{} {
	switch v := value.(type) {
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = deepCopyValue(item)
		}
		return out
	default:
		if m, ok := asMapping(value); ok {
			out := make(map[string]interface{}, len(m))
			for key, item := range m {
				out[key] = deepCopyValue(item)
			}
			return out
		}
		return value
	}
}

// stringifyValue renders any extracted value as a comparison string. Scalars
// format the way JSON decoding produced them; lists join their elements;
// mappings fall back to their JSON encoding.
func stringifyValue(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case []interface{}:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if text := stringifyValue(item); text != "" {
				parts = append(parts, text)
			}
		}
		return strings.Join(parts, ", ")
	default:
		if m, ok := asMapping(value); ok {
			if len(m) == 0 {
				return ""
			}
			if encoded, err := json.Marshal(m); err == nil {
				return string(encoded)
			}
		}
		return fmt.Sprint(value)
	}
}
