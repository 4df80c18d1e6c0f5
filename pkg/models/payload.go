package models

// Payload is the structural value exchanged with analysis and extraction
// tasks: the subset of Go values that maps one-to-one onto JSON. A nil
// Payload means the result is absent.
type Payload map[string]any

// Clone returns a deep copy of the payload. Nested maps and slices are
// copied; scalar values are shared.
func (p Payload) Clone() Payload {
	if p == nil {
		return nil
	}

	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = cloneValue(v)
	}

	return out
}

// StringSlice reads a key holding a list of strings, tolerating the
// []any form produced by JSON decoding.
func (p Payload) StringSlice(key string) []string {
	raw, ok := p[key]
	if !ok {
		return nil
	}

	switch values := raw.(type) {
	case []string:
		out := make([]string, len(values))
		copy(out, values)

		return out
	case []any:
		out := make([]string, 0, len(values))

		for _, v := range values {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}

		return out
	default:
		return nil
	}
}

// MapSlice reads a key holding a list of objects, tolerating the []any
// form produced by JSON decoding.
func (p Payload) MapSlice(key string) []Payload {
	raw, ok := p[key]
	if !ok {
		return nil
	}

	switch values := raw.(type) {
	case []Payload:
		return values
	case []map[string]any:
		out := make([]Payload, len(values))
		for i, v := range values {
			out[i] = Payload(v)
		}

		return out
	case []any:
		out := make([]Payload, 0, len(values))

		for _, v := range values {
			if m, ok := v.(map[string]any); ok {
				out = append(out, Payload(m))
			}
		}

		return out
	default:
		return nil
	}
}

// String reads a string-valued key, returning "" when absent or mistyped.
func (p Payload) String(key string) string {
	s, _ := p[key].(string)

	return s
}

// Int reads a numeric key, tolerating the float64 form produced by JSON
// decoding.
func (p Payload) Int(key string) int {
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

func cloneValue(v any) any {
	switch value := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(value))
		for k, nested := range value {
			out[k] = cloneValue(nested)
		}

		return out
	case Payload:
		return map[string]any(value.Clone())
	case []any:
		out := make([]any, len(value))
		for i, nested := range value {
			out[i] = cloneValue(nested)
		}

		return out
	case []string:
		out := make([]string, len(value))
		copy(out, value)

		return out
	default:
		return v
	}
}
