package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/go-drift/cordyceps/pkg/cordyceps"
	"github.com/go-drift/cordyceps/pkg/errors"
	"github.com/go-drift/cordyceps/pkg/frame"
	"github.com/go-drift/cordyceps/pkg/state"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const yamlConfig = `
debug: true
scheduler: immediate
frame_interval: 5ms
no_recurse: [user.prefs]
state:
  name: Ann
  count: 3
  tags: [a, b]
  user:
    prefs: {theme: dark}
    id: 7
  widget: !norecurse {v: 1}
`

const tomlConfig = `
debug = true
scheduler = "immediate"
frame_interval = "5ms"
no_recurse = ["user.prefs", "widget"]

[state]
name = "Ann"
count = 3
tags = ["a", "b"]

[state.user]
id = 7

[state.user.prefs]
theme = "dark"

[state.widget]
v = 1
`

const hclConfig = `
debug          = true
scheduler      = "immediate"
frame_interval = "5ms"
no_recurse     = ["user.prefs"]

state = {
  name  = "Ann"
  count = 3
  tags  = ["a", "b"]
  user = {
    id    = 7
    prefs = { theme = "dark" }
  }
  widget = norecurse({ v = 1 })
}
`

func TestLoad_Formats(t *testing.T) {
	tests := []struct {
		file    string
		content string
		count   any
		id      any
		v       any
	}{
		{"state.yaml", yamlConfig, 3, 7, 1},
		{"state.toml", tomlConfig, int64(3), int64(7), int64(1)},
		{"state.hcl", hclConfig, int64(3), int64(7), int64(1)},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), tt.file, tt.content)
			cfg, err := Load(path)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}

			if !cfg.Debug {
				t.Error("Debug = false, want true")
			}
			if cfg.Mode != frame.ModeImmediate {
				t.Errorf("Mode = %v, want immediate", cfg.Mode)
			}
			if cfg.FrameInterval != 5*time.Millisecond {
				t.Errorf("FrameInterval = %v, want 5ms", cfg.FrameInterval)
			}

			live, opaque := state.Resolve(cfg.State)
			if got := opaque.Paths(); !reflect.DeepEqual(got, []string{"user.prefs", "widget"}) {
				t.Errorf("opaque paths = %v", got)
			}
			want := state.Tree{
				"name":  "Ann",
				"count": tt.count,
				"tags":  []any{"a", "b"},
				"user": state.Tree{
					"id":    tt.id,
					"prefs": state.Tree{"theme": "dark"},
				},
				"widget": state.Tree{"v": tt.v},
			}
			if !reflect.DeepEqual(live, want) {
				t.Errorf("state = %#v\nwant %#v", live, want)
			}
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), "empty.yaml", "state:\n  a: 1\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Debug || cfg.Mode != frame.ModeFrame || cfg.FrameInterval != frame.DefaultInterval {
		t.Errorf("cfg = %+v, want defaults", cfg)
	}
	if len(cfg.NoRecurse) != 0 {
		t.Errorf("NoRecurse = %v", cfg.NoRecurse)
	}
}

func TestLoadOptional(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadOptional(dir)
	if err != nil {
		t.Fatalf("LoadOptional() on empty dir error = %v", err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Errorf("cfg = %+v, want Default()", cfg)
	}

	writeFile(t, dir, "cordyceps.toml", "debug = true\n")
	cfg, err = LoadOptional(dir)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("cordyceps.toml was not picked up")
	}

	writeFile(t, dir, "cordyceps.yaml", "debug: false\n")
	cfg, err = LoadOptional(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Debug {
		t.Error("cordyceps.yaml should take precedence over cordyceps.toml")
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		content  string
		wantKind errors.ErrorKind
	}{
		{"bad yaml", "a.yaml", "state: [unclosed", errors.KindParsing},
		{"bad toml", "a.toml", "state = {", errors.KindParsing},
		{"bad hcl", "a.hcl", "state = {", errors.KindParsing},
		{"unknown toml key", "a.toml", "colour = 1\n", errors.KindParsing},
		{"unknown hcl attribute", "a.hcl", "colour = 1\n", errors.KindParsing},
		{"yaml state not mapping", "a.yaml", "state: [1, 2]\n", errors.KindParsing},
		{"hcl state not object", "a.hcl", "state = 1\n", errors.KindParsing},
		{"unknown scheduler", "a.yaml", "scheduler: vsync\n", errors.KindConfig},
		{"bad interval", "a.yaml", "frame_interval: soon\n", errors.KindConfig},
		{"negative interval", "a.toml", "frame_interval = \"-1s\"\n", errors.KindConfig},
		{"missing no_recurse path", "a.yaml", "no_recurse: [a.b]\nstate: {a: {}}\n", errors.KindConfig},
		{"no_recurse through leaf", "a.yaml", "no_recurse: [a.b]\nstate: {a: 1}\n", errors.KindConfig},
		{"unsupported extension", "a.json", "{}", errors.KindConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), tt.file, tt.content)
			_, err := Load(path)
			if err == nil {
				t.Fatal("Load() error = nil")
			}
			var e *errors.Error
			if !errors.As(err, &e) {
				t.Fatalf("error %T is not *errors.Error", err)
			}
			if e.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v (%v)", e.Kind, tt.wantKind, err)
			}
			if tt.wantKind == errors.KindParsing {
				var pe *errors.ParseError
				if !errors.As(err, &pe) || pe.File != path {
					t.Errorf("error %v should wrap a ParseError for %s", err, path)
				}
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load() error = %v, want os.ErrNotExist", err)
	}
}

func TestYAML_NoRecurseScalarAndAlias(t *testing.T) {
	cfg, err := Parse([]byte(`
state:
  base: &base {a: 1, b: 2}
  copy:
    <<: *base
    b: 3
  label: !norecurse hello
  empty: !norecurse
`), FormatYAML, "inline.yaml")
	if err != nil {
		t.Fatal(err)
	}
	want := state.Tree{
		"base":  state.Tree{"a": 1, "b": 2},
		"copy":  state.Tree{"a": 1, "b": 3},
		"label": state.Opaque("hello"),
		"empty": state.Opaque(nil),
	}
	if !reflect.DeepEqual(cfg.State, want) {
		t.Errorf("state = %#v\nwant %#v", cfg.State, want)
	}
}

func TestTOML_NestedStateTables(t *testing.T) {
	cfg, err := Parse([]byte(`
[state.user]
name = "Ann"

[state.user.prefs]
theme = "dark"

[[state.items]]
id = 1
`), FormatTOML, "nested.toml")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	want := state.Tree{
		"user": state.Tree{
			"name":  "Ann",
			"prefs": state.Tree{"theme": "dark"},
		},
		"items": []any{state.Tree{"id": int64(1)}},
	}
	if !reflect.DeepEqual(cfg.State, want) {
		t.Errorf("state = %#v\nwant %#v", cfg.State, want)
	}

	_, err = Parse([]byte("[colour]\nred = 1\n\n[state.user]\nname = \"Ann\"\n"), FormatTOML, "bad.toml")
	var perr *errors.ParseError
	if !errors.As(err, &perr) {
		t.Errorf("unknown table outside state: error = %v, want ParseError", err)
	}
}

func TestHCL_NoRecurseFunctionAndNumbers(t *testing.T) {
	cfg, err := Parse([]byte(`
state = {
  ratio = 0.5
  big   = 12345678901
  list  = norecurse([1, 2])
  nested = {
    inner = norecurse({ x = "y" })
  }
}
`), FormatHCL, "inline.hcl")
	if err != nil {
		t.Fatal(err)
	}
	want := state.Tree{
		"ratio": 0.5,
		"big":   int64(12345678901),
		"list":  state.Opaque([]any{int64(1), int64(2)}),
		"nested": state.Tree{
			"inner": state.Opaque(state.Tree{"x": "y"}),
		},
	}
	if !reflect.DeepEqual(cfg.State, want) {
		t.Errorf("state = %#v\nwant %#v", cfg.State, want)
	}
}

func TestNoRecurseAlreadyTagged(t *testing.T) {
	cfg, err := Parse([]byte("no_recurse: [w, w]\nstate:\n  w: !norecurse {a: 1}\n"), FormatYAML, "x.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(cfg.NoRecurse, []string{"w"}) {
		t.Errorf("NoRecurse = %v, want deduplicated [w]", cfg.NoRecurse)
	}
	if !reflect.DeepEqual(cfg.State["w"], state.Opaque(state.Tree{"a": 1})) {
		t.Errorf("w = %#v, want a single wrapper", cfg.State["w"])
	}
}

func TestNewContainer(t *testing.T) {
	cfg, err := Parse([]byte(yamlConfig), FormatYAML, "x.yaml")
	if err != nil {
		t.Fatal(err)
	}
	c, loop := cfg.NewContainer(cordyceps.WithLogger(zerolog.Nop()))
	if !c.Debug() {
		t.Error("container debug should follow config")
	}
	if loop.Mode() != frame.ModeImmediate || loop.Interval() != 5*time.Millisecond {
		t.Errorf("loop = %v/%v", loop.Mode(), loop.Interval())
	}
	if c.Loop() != loop {
		t.Error("container should schedule on the returned loop")
	}
	if !reflect.DeepEqual(c.NoRecursePaths(), []string{"user.prefs", "widget"}) {
		t.Errorf("NoRecursePaths() = %v", c.NoRecursePaths())
	}
}
