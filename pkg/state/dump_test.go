package state

import (
	"reflect"
	"testing"
)

func TestDump(t *testing.T) {
	partial := Tree{
		"user":   Tree{"name": "Bo", "age": 31},
		"tags":   []any{"a"},
		"widget": Tree{"v": 2},
		"gone":   nil,
	}

	got := Dump(partial, NewPathSet("widget"), false)

	want := []string{
		"Update properties:",
		" * gone -> undefined",
		" * tags -> [ ... ]",
		" * user.age -> 31",
		" * user.name -> Bo",
		" * widget -> { ... }",
		"---",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Dump =\n%q\nwant\n%q", got, want)
	}
}

func TestDump_Replace(t *testing.T) {
	got := Dump(Tree{"a": true}, nil, true)

	want := []string{"Dump old state.", "Update properties:", " * a -> true", "---"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Dump = %q, want %q", got, want)
	}
}

func TestDump_OpaqueScalar(t *testing.T) {
	got := Dump(Tree{"a": Tree{"b": 7}}, NewPathSet("a.b"), false)

	if got[1] != " * a.b -> 7" {
		t.Errorf("line = %q, want %q", got[1], " * a.b -> 7")
	}
}
