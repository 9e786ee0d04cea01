package prompt

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const (
	tokenOpen  = "{{"
	tokenClose = "}}"
)

// Template is a prompt document parsed once into literal and token segments.
// Tokens have the form {{dotted.path|default:"literal"}}; unrecognized
// modifiers are ignored and malformed tokens render as empty strings, so
// rendering never fails.
type Template struct {
	segments []segment
}

type segment struct {
	literal string
	tok     *token
}

type token struct {
	path       []string
	defaultVal string
	hasDefault bool
}

func Parse(text string) *Template {
	var segs []segment
	for {
		start := strings.Index(text, tokenOpen)
		if start < 0 {
			break
		}
		rest := text[start+len(tokenOpen):]
		end := strings.Index(rest, tokenClose)
		if end < 0 {
			break
		}
		if start > 0 {
			segs = append(segs, segment{literal: text[:start]})
		}
		segs = append(segs, segment{tok: parseToken(rest[:end])})
		text = rest[end+len(tokenClose):]
	}
	if text != "" {
		segs = append(segs, segment{literal: text})
	}
	return &Template{segments: segs}
}

func parseToken(body string) *token {
	parts := strings.Split(body, "|")
	t := &token{}

	pathExpr := strings.TrimSpace(parts[0])
	if pathExpr != "" {
		for _, p := range strings.Split(pathExpr, ".") {
			t.path = append(t.path, strings.TrimSpace(p))
		}
	}

	for _, mod := range parts[1:] {
		mod = strings.TrimSpace(mod)
		val, ok := strings.CutPrefix(mod, "default:")
		if !ok {
			continue
		}
		t.defaultVal = unquote(strings.TrimSpace(val))
		t.hasDefault = true
	}
	return t
}

func unquote(v string) string {
	if len(v) >= 2 {
		first, last := v[0], v[len(v)-1]
		if first == last && (first == '"' || first == '\'') {
			return v[1 : len(v)-1]
		}
	}
	return v
}

// Render substitutes every token against the parameter tree. Unresolved,
// null, and blank values fall back to the token default, or empty string
// when none was given.
func (t *Template) Render(params any) string {
	var b strings.Builder
	for _, seg := range t.segments {
		if seg.tok == nil {
			b.WriteString(seg.literal)
			continue
		}
		b.WriteString(seg.tok.resolve(params))
	}
	return b.String()
}

func (tok *token) resolve(params any) string {
	if len(tok.path) == 0 {
		return ""
	}
	v, ok := lookupPath(params, tok.path)
	if !ok || isBlank(v) {
		if tok.hasDefault {
			return tok.defaultVal
		}
		return ""
	}
	return Flatten(v)
}

func lookupPath(v any, path []string) (any, bool) {
	cur := v
	for _, key := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// Flatten renders a parameter value as human-readable text: arrays join
// their elements with ", ", objects join "key: value" pairs with ", ",
// recursing with the same rule.
func Flatten(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case []any:
		parts := make([]string, len(t))
		for i, elem := range t {
			parts[i] = Flatten(elem)
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+": "+Flatten(t[k]))
		}
		return strings.Join(parts, ", ")
	}
	return fmt.Sprint(v)
}
