package agentmsg

// DeepCopy returns a value-copy of t so that neither the ingest buffer that
// produced it nor the dispatcher that will later mutate the returned
// recovery command can observe each other's edits. Unknown nested shapes
// (maps, slices) are copied structurally; any other value is assumed
// immutable and returned as-is.
func DeepCopy(t Template) Template {
	if t == nil {
		return nil
	}
	out := make(Template, len(t))
	for k, v := range t {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, vv := range val {
			out[k] = deepCopyValue(vv)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, vv := range val {
			out[i] = deepCopyValue(vv)
		}
		return out
	default:
		return v
	}
}

// SetNested sets body[path[0]][path[1]]...[path[len-1]] = value, creating
// any intermediate map[string]any levels that are missing or of the wrong
// type. Used to apply overrides like hostLevelParams.custom_command onto an
// opaque, server-supplied tree without assuming its exact shape.
func SetNested(body Template, value any, path ...string) {
	if len(path) == 0 {
		return
	}
	m := map[string]any(body)
	for _, key := range path[:len(path)-1] {
		next, ok := m[key].(map[string]any)
		if !ok {
			next = make(map[string]any)
			m[key] = next
		}
		m = next
	}
	m[path[len(path)-1]] = value
}
