package prompt

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
)

// StableJSON encodes a value as JSON with object keys sorted
// lexicographically, so structurally-equal values always produce identical
// output regardless of construction order. Non-finite numbers and values
// with no JSON representation encode as null.
func StableJSON(v any) string {
	var b strings.Builder
	writeStable(&b, v)
	return b.String()
}

func writeStable(b *strings.Builder, v any) {
	switch t := v.(type) {
	case nil:
		b.WriteString("null")
	case bool:
		if t {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case string:
		enc, err := json.Marshal(t)
		if err != nil {
			b.WriteString("null")
			return
		}
		b.Write(enc)
	case int64:
		b.WriteString(strconv.FormatInt(t, 10))
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			b.WriteString("null")
			return
		}
		if t == math.Trunc(t) && math.Abs(t) < 1e15 {
			b.WriteString(strconv.FormatInt(int64(t), 10))
			return
		}
		b.WriteString(strconv.FormatFloat(t, 'g', -1, 64))
	case []any:
		b.WriteByte('[')
		for i, elem := range t {
			if i > 0 {
				b.WriteByte(',')
			}
			writeStable(b, elem)
		}
		b.WriteByte(']')
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			enc, err := json.Marshal(k)
			if err != nil {
				enc = []byte(`""`)
			}
			b.Write(enc)
			b.WriteByte(':')
			writeStable(b, t[k])
		}
		b.WriteByte('}')
	default:
		// Anything else gets one pass through Normalize, which only emits
		// the shapes handled above.
		writeStable(b, normalizeValue(t))
	}
}
