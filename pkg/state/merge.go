package state

import (
	"maps"
	"slices"
)

// MergeDefaults fills the gaps of target with the values of source and
// returns target.
//
// For every key of source, in sorted order:
//   - a key that target lacks, or holds nil, adopts the source value;
//   - a key whose extended path is in opaque keeps the target value;
//   - two objects are merged recursively under the extended path;
//   - otherwise the target value wins and the source value is dropped.
//
// Calling MergeDefaults(next, previous, "", opaque) yields update semantics:
// keys present in next win, keys omitted from next fall back to previous.
// A nil target is treated as an empty tree.
//
// Note that nil is indistinguishable from an unset key, so an update cannot
// clear a value by setting it to nil.
func MergeDefaults(target, source Tree, path string, opaque PathSet) Tree {
	if target == nil {
		target = make(Tree, len(source))
	}
	for _, key := range slices.Sorted(maps.Keys(source)) {
		src := source[key]
		cur, ok := target[key]
		if !ok || cur == nil {
			target[key] = src
			continue
		}

		childPath := JoinPath(path, key)
		if opaque.Has(childPath) {
			continue
		}

		curObj, curIsObj := cur.(map[string]any)
		srcObj, srcIsObj := src.(map[string]any)
		if curIsObj && srcIsObj {
			MergeDefaults(curObj, srcObj, childPath, opaque)
		}
	}
	return target
}
