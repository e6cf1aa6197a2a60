package state

import (
	"fmt"
	"reflect"
)

// Diagnostic dump markers.
const (
	DumpHeader    = "Update properties:"
	DumpReplace   = "Dump old state."
	DumpFooter    = "---"
	ElidedObject  = "{ ... }"
	ElidedArray   = "[ ... ]"
	UndefinedLeaf = "undefined"
)

// Dump renders a requested update as operator-readable lines, one per leaf:
//
//	Update properties:
//	 * user.name -> Bo
//	 * tags -> [ ... ]
//	---
//
// Arrays and values at opaque paths are never descended and print as
// elided markers. Keys are visited in lexical order. When replace is set
// the block is preceded by a line announcing that the old state is dropped.
func Dump(partial Tree, opaque PathSet, replace bool) []string {
	var lines []string
	if replace {
		lines = append(lines, DumpReplace)
	}
	lines = append(lines, DumpHeader)
	lines = dumpValue(lines, partial, "", opaque)
	return append(lines, DumpFooter)
}

func dumpValue(lines []string, v any, path string, opaque PathSet) []string {
	obj, isObj := v.(map[string]any)
	if !isObj || opaque.Has(path) {
		return append(lines, " * "+path+" -> "+leafString(v))
	}
	for _, key := range sortedKeys(obj) {
		lines = dumpValue(lines, obj[key], JoinPath(path, key), opaque)
	}
	return lines
}

func leafString(v any) string {
	if v == nil {
		return UndefinedLeaf
	}
	if IsObject(v) {
		return ElidedObject
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Slice, reflect.Array:
		return ElidedArray
	}
	return fmt.Sprint(v)
}
