package state

import "sort"

// NoRecurse marks a value in an initial state tree as opaque. Its path is
// recorded by Resolve and the value is replaced wholesale on every update
// instead of being merged key by key.
type NoRecurse struct {
	Value any
}

// Opaque wraps v in a NoRecurse marker.
func Opaque(v any) NoRecurse {
	return NoRecurse{Value: v}
}

// PathSet is an immutable set of dotted paths. The nil set is empty.
type PathSet map[string]struct{}

// NewPathSet builds a set from paths.
func NewPathSet(paths ...string) PathSet {
	set := make(PathSet, len(paths))
	for _, p := range paths {
		set[p] = struct{}{}
	}
	return set
}

// Has reports whether path is in the set.
func (s PathSet) Has(path string) bool {
	_, ok := s[path]
	return ok
}

// Paths returns the members in lexical order.
func (s PathSet) Paths() []string {
	out := make([]string, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Resolve walks an initial state tree, unwraps every NoRecurse marker and
// records its path. Mapping nodes are copied, so init is left untouched.
// Markers nested inside a wrapped value are not inspected.
func Resolve(init Tree) (Tree, PathSet) {
	paths := make(PathSet)
	if init == nil {
		return Tree{}, paths
	}
	return resolveTree(init, "", paths), paths
}

func resolveTree(t Tree, path string, paths PathSet) Tree {
	out := make(Tree, len(t))
	for key, v := range t {
		out[key] = resolveValue(v, JoinPath(path, key), paths)
	}
	return out
}

func resolveValue(v any, path string, paths PathSet) any {
	switch w := v.(type) {
	case NoRecurse:
		paths[path] = struct{}{}
		return w.Value
	case *NoRecurse:
		if w == nil {
			return nil
		}
		paths[path] = struct{}{}
		return w.Value
	case map[string]any:
		return resolveTree(w, path, paths)
	default:
		return v
	}
}
