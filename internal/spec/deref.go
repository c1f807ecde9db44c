package spec

import "strings"

// Dereference replaces internal $ref nodes ({"$ref": "#/components/..."})
// with the referenced value, recursively. External refs and unresolvable
// pointers are left in place rather than failing the load. Reference
// cycles stop expanding at the point of re-entry.
func Dereference(doc map[string]any) map[string]any {
	r := &resolver{root: doc, visiting: make(map[string]bool)}
	out, _ := r.resolve(doc).(map[string]any)
	if out == nil {
		return doc
	}
	return out
}

type resolver struct {
	root     map[string]any
	visiting map[string]bool
}

func (r *resolver) resolve(node any) any {
	switch t := node.(type) {
	case map[string]any:
		if ref, ok := t["$ref"].(string); ok && len(t) == 1 {
			return r.resolveRef(ref)
		}
		out := make(map[string]any, len(t))
		for k, v := range t {
			out[k] = r.resolve(v)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, v := range t {
			out[i] = r.resolve(v)
		}
		return out
	default:
		return node
	}
}

func (r *resolver) resolveRef(ref string) any {
	if !strings.HasPrefix(ref, "#/") {
		// external ref, keep as-is
		return map[string]any{"$ref": ref}
	}
	if r.visiting[ref] {
		// cycle, stop expanding
		return map[string]any{"$ref": ref}
	}

	target := r.lookup(strings.TrimPrefix(ref, "#/"))
	if target == nil {
		logger.Warn("Unresolvable $ref, keeping literal", "ref", ref)
		return map[string]any{"$ref": ref}
	}

	r.visiting[ref] = true
	resolved := r.resolve(target)
	delete(r.visiting, ref)
	return resolved
}

func (r *resolver) lookup(pointer string) any {
	var node any = r.root
	for _, part := range strings.Split(pointer, "/") {
		part = strings.ReplaceAll(strings.ReplaceAll(part, "~1", "/"), "~0", "~")
		m, ok := node.(map[string]any)
		if !ok {
			return nil
		}
		node, ok = m[part]
		if !ok {
			return nil
		}
	}
	return node
}
