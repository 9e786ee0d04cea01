package prompt

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// Normalize deep-walks an arbitrary decoded value and produces a canonical
// tree of primitives, arrays, and string-keyed objects that serializes
// deterministically. Arrays nested directly inside arrays are flattened to
// their string form so the tree has no unbounded list nesting.
func Normalize(raw any) any {
	return normalizeValue(raw)
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		return t
	case bool:
		return t
	case int:
		return int64(t)
	case int64:
		return t
	case float64:
		return t
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalizeValue(val)
		}
		return out
	case []any:
		return normalizeList(t)
	}
	return normalizeReflect(v)
}

func normalizeList(list []any) []any {
	out := make([]any, len(list))
	for i, elem := range list {
		if isListValue(elem) {
			out[i] = Flatten(normalizeValue(elem))
			continue
		}
		out[i] = normalizeValue(elem)
	}
	return out
}

func isListValue(v any) bool {
	if v == nil {
		return false
	}
	k := reflect.TypeOf(v).Kind()
	return k == reflect.Slice || k == reflect.Array
}

// normalizeReflect covers inputs that did not come from encoding/json, such
// as typed maps, slices, and the narrower numeric kinds.
func normalizeReflect(v any) any {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.Slice, reflect.Array:
		list := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			list[i] = rv.Index(i).Interface()
		}
		return normalizeList(list)
	case reflect.Map:
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[fmt.Sprint(iter.Key().Interface())] = normalizeValue(iter.Value().Interface())
		}
		return out
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return normalizeValue(rv.Elem().Interface())
	case reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return nil
	}
	return fmt.Sprint(v)
}
