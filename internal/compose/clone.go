package compose

import "fmt"

// Clone returns a deep copy of maps and slices found in value. Mappings decoded
// with non-string keys (map[any]any) are normalised to map[string]any.
// Scalars are returned as-is.
func Clone(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return cloneMap(v)
	case map[any]any:
		out := make(map[string]any, len(v))
		for key, elem := range v {
			out[fmt.Sprint(key)] = Clone(elem)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			out[i] = Clone(elem)
		}
		return out
	default:
		return v
	}
}

// CloneMap is Clone for a mapping. A nil input yields nil.
func CloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	return cloneMap(m)
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for key, value := range m {
		out[key] = Clone(value)
	}
	return out
}

func asMapping(value any) (map[string]any, bool) {
	switch v := value.(type) {
	case map[string]any:
		return v, true
	case map[any]any:
		return Clone(v).(map[string]any), true
	default:
		return nil, false
	}
}
