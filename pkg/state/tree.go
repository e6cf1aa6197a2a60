// Package state implements the state tree used by a cordyceps container:
// object tests, dotted paths, the defaults-style deep merge and the set of
// paths that must never be merged key by key.
//
// A Tree is a plain map. Nested maps of the same type are objects and are
// merged recursively; everything else (scalars, slices, arbitrary values) is
// a leaf and is only ever replaced wholesale.
//
//	init := state.Tree{
//	    "user":   state.Tree{"name": "Ann"},
//	    "widget": state.Opaque(state.Tree{"v": 1}),
//	}
//	live, opaque := state.Resolve(init)
//
//	next := state.Tree{"user": state.Tree{"name": "Bo"}}
//	live = state.MergeDefaults(next, live, "", opaque)
package state

import (
	"sort"
	"strings"
)

// Tree is a node of the state tree.
type Tree = map[string]any

// PathSeparator joins the keys of a path.
const PathSeparator = "."

// IsObject reports whether v is a mapping node that the merge descends into.
// Slices, scalars, nil and NoRecurse wrappers are not objects.
func IsObject(v any) bool {
	_, ok := v.(map[string]any)
	return ok
}

// JoinPath extends path by key. The empty path joined with key is key.
func JoinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + PathSeparator + key
}

// SplitPath is the inverse of JoinPath.
func SplitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, PathSeparator)
}

// Clone returns a deep copy of the mapping nodes of t. Leaves are shared.
func Clone(t Tree) Tree {
	if t == nil {
		return nil
	}
	out := make(Tree, len(t))
	for k, v := range t {
		if child, ok := v.(map[string]any); ok {
			out[k] = Clone(child)
			continue
		}
		out[k] = v
	}
	return out
}

// Lookup returns the value at path, descending through objects only.
func Lookup(t Tree, path string) (any, bool) {
	var cur any = t
	for _, key := range SplitPath(path) {
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

// sortedKeys returns the keys of t in lexical order.
func sortedKeys(t Tree) []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
