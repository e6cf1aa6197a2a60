package state

import (
	"reflect"
	"testing"
)

func TestResolve_UnwrapsAndRecordsPaths(t *testing.T) {
	init := Tree{
		"a": Tree{
			"b": Opaque(Tree{"v": 1}),
			"c": 2,
		},
		"top":  &NoRecurse{Value: []any{1, 2}},
		"name": "Ann",
	}

	live, opaque := Resolve(init)

	want := Tree{
		"a":    Tree{"b": Tree{"v": 1}, "c": 2},
		"top":  []any{1, 2},
		"name": "Ann",
	}
	if !reflect.DeepEqual(live, want) {
		t.Errorf("Resolve state = %v, want %v", live, want)
	}
	if got := opaque.Paths(); !reflect.DeepEqual(got, []string{"a.b", "top"}) {
		t.Errorf("Resolve paths = %v, want [a.b top]", got)
	}
}

func TestResolve_LeavesInputUntouched(t *testing.T) {
	wrapped := Opaque(1)
	init := Tree{"a": Tree{"b": wrapped}}

	Resolve(init)

	if got := init["a"].(Tree)["b"]; got != wrapped {
		t.Errorf("input mutated: a.b = %v", got)
	}
}

func TestResolve_IgnoresNestedMarkers(t *testing.T) {
	init := Tree{"a": Opaque(Tree{"b": Opaque(1)})}

	live, opaque := Resolve(init)

	if !opaque.Has("a") || opaque.Has("a.b") {
		t.Errorf("paths = %v, want only a", opaque.Paths())
	}
	inner := live["a"].(Tree)["b"]
	if _, ok := inner.(NoRecurse); !ok {
		t.Errorf("nested marker should be kept as a plain value, got %T", inner)
	}
}

func TestResolve_Nil(t *testing.T) {
	live, opaque := Resolve(nil)
	if live == nil || len(live) != 0 {
		t.Errorf("Resolve(nil) state = %v, want empty tree", live)
	}
	if len(opaque) != 0 {
		t.Errorf("Resolve(nil) paths = %v, want none", opaque.Paths())
	}
}

func TestPathSet_NilIsEmpty(t *testing.T) {
	var s PathSet
	if s.Has("a") {
		t.Error("nil PathSet should not contain anything")
	}
	if len(s.Paths()) != 0 {
		t.Error("nil PathSet should list no paths")
	}
}

func TestResolve_PathsMatchMerge(t *testing.T) {
	live, opaque := Resolve(Tree{"x": Tree{"y": Tree{"z": Opaque(Tree{"k": 1})}}})

	next := MergeDefaults(Tree{"x": Tree{"y": Tree{"z": Tree{"j": 2}}}}, live, "", opaque)

	got, _ := Lookup(next, "x.y.z")
	if !reflect.DeepEqual(got, Tree{"j": 2}) {
		t.Errorf("x.y.z = %v, want map[j:2]", got)
	}
}
