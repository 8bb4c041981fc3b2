package template

import (
	"fmt"
	"regexp"
	"strings"
)

// placeholderRegex matches {{ ... }} non-greedily so adjacent placeholders
// in the same string are treated as separate matches.
var placeholderRegex = regexp.MustCompile(`\{\{(.+?)\}\}`)

// Resolve recursively walks a JSON-like template (string, map[string]any,
// []any, or scalar) and replaces every {{dotted.path}} placeholder found in
// string leaves with the value looked up in record. Maps and slices are
// rebuilt, never mutated in place; non-string scalars pass through unchanged.
//
// A placeholder is left verbatim when the path does not resolve, and — for
// compatibility with the original event consumer — also when the resolved
// value is falsy (numeric zero, empty string, false, nil). A record holding
// {"count": 0} therefore leaks "{{count}}" into the output rather than "0".
func Resolve(tpl any, record map[string]any) any {
	switch t := tpl.(type) {
	case string:
		return resolveString(t, record)
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, v := range t {
			m[k] = Resolve(v, record)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, v := range t {
			s[i] = Resolve(v, record)
		}
		return s
	default:
		return tpl
	}
}

func resolveString(s string, record map[string]any) string {
	return placeholderRegex.ReplaceAllStringFunc(s, func(match string) string {
		expr := strings.TrimSpace(match[2 : len(match)-2])
		val, ok := lookup(record, expr)
		if !ok || isFalsy(val) {
			return match
		}
		return fmt.Sprint(val)
	})
}

// lookup descends through nested maps following the dot-separated path.
// Each segment is trimmed of surrounding whitespace before the key lookup.
func lookup(record map[string]any, path string) (any, bool) {
	var current any = record
	for _, segment := range strings.Split(path, ".") {
		key := strings.TrimSpace(segment)
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// isFalsy mirrors JavaScript truthiness for the value types that JSON
// decoding and literal Go construction produce.
func isFalsy(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case bool:
		return !t
	case string:
		return t == ""
	case float64:
		return t == 0
	case float32:
		return t == 0
	case int:
		return t == 0
	case int32:
		return t == 0
	case int64:
		return t == 0
	case uint:
		return t == 0
	case uint64:
		return t == 0
	}
	return false
}
