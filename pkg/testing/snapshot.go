package testing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/go-drift/cordyceps/pkg/cordyceps"
	"github.com/go-drift/cordyceps/pkg/state"
)

// UpdateSnapshotsEnv makes MatchesFile rewrite golden files when set to 1.
const UpdateSnapshotsEnv = "CORDYCEPS_UPDATE_SNAPSHOTS"

// TestingT is the subset of *testing.T used by MatchesFile, allowing
// test doubles to intercept failures.
type TestingT interface {
	Helper()
	Fatalf(format string, args ...any)
	Errorf(format string, args ...any)
	Name() string
}

// Snapshot captures a container's state, its bindings and, for memory
// hosts, the document.
type Snapshot struct {
	State     map[string]any `json:"state"`
	NoRecurse []string       `json:"noRecurse,omitempty"`
	Bindings  []BindingNode  `json:"bindings,omitempty"`
	Document  *DocNode       `json:"document,omitempty"`
}

// BindingNode is a serialized binding. IDs are stable per capture
// ("greeter#0", "greeter#1") rather than the binding's random ID.
type BindingNode struct {
	ID      string `json:"id"`
	Element string `json:"element"`
}

// DocNode is a serialized memory-host node.
type DocNode struct {
	Tag      string            `json:"tag"`
	Attrs    map[string]string `json:"attrs,omitempty"`
	Text     string            `json:"text,omitempty"`
	Children []*DocNode        `json:"children,omitempty"`
}

// CaptureSnapshot captures c. The document is included when c's host is a
// *MemoryHost.
func CaptureSnapshot(c *cordyceps.Container) *Snapshot {
	snap := &Snapshot{
		State:     serializeTree(c.State()),
		NoRecurse: c.NoRecursePaths(),
	}
	counter := &typeCounter{}
	for _, b := range c.Bindings() {
		snap.Bindings = append(snap.Bindings, BindingNode{
			ID:      counter.next(b.Name),
			Element: fmt.Sprint(b.Element),
		})
	}
	if mh, ok := c.Host().(*MemoryHost); ok {
		snap.Document = captureDocNode(mh.Document())
	}
	return snap
}

// Snapshot captures c. It is CaptureSnapshot for containers built by the
// harness.
func (h *Harness) Snapshot(c *cordyceps.Container) *Snapshot {
	return CaptureSnapshot(c)
}

// MatchesFile compares this snapshot against a golden file. On mismatch it
// reports a diff and instructions for updating. When
// CORDYCEPS_UPDATE_SNAPSHOTS=1 is set, the file is silently updated instead.
func (s *Snapshot) MatchesFile(t TestingT, path string) {
	t.Helper()

	if os.Getenv(UpdateSnapshotsEnv) == "1" {
		if err := s.UpdateFile(path); err != nil {
			t.Fatalf("failed to update snapshot: %v", err)
		}
		return
	}

	expected, err := loadSnapshot(path)
	if err != nil {
		if os.IsNotExist(err) {
			t.Fatalf("snapshot file missing: %s\n\nTo create: %s=1 go test -run %s", path, UpdateSnapshotsEnv, t.Name())
			return
		}
		t.Fatalf("failed to load snapshot: %v", err)
		return
	}

	if diff := s.Diff(expected); diff != "" {
		t.Errorf("snapshot mismatch: %s\n%s\n\nTo update: %s=1 go test -run %s", path, diff, UpdateSnapshotsEnv, t.Name())
	}
}

// UpdateFile writes this snapshot to the given path, creating directories
// as needed.
func (s *Snapshot) UpdateFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := marshalSnapshot(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Diff returns a line diff between this snapshot and other. Returns
// empty string if equal.
func (s *Snapshot) Diff(other *Snapshot) string {
	a, _ := marshalSnapshot(s)
	b, _ := marshalSnapshot(other)
	if bytes.Equal(a, b) {
		return ""
	}
	return unifiedDiff(string(b), string(a))
}

// --- Internal ---

// typeCounter assigns stable IDs like "greeter#0", "greeter#1".
type typeCounter struct {
	counts map[string]int
}

func (c *typeCounter) next(name string) string {
	if c.counts == nil {
		c.counts = make(map[string]int)
	}
	n := c.counts[name]
	c.counts[name] = n + 1
	return fmt.Sprintf("%s#%d", name, n)
}

func captureDocNode(n *Node) *DocNode {
	node := &DocNode{Tag: n.Tag, Text: n.Text}
	if len(n.Attrs) > 0 {
		node.Attrs = make(map[string]string, len(n.Attrs))
		for k, v := range n.Attrs {
			node.Attrs[k] = v
		}
	}
	for _, c := range n.Children {
		node.Children = append(node.Children, captureDocNode(c))
	}
	return node
}

func serializeTree(t state.Tree) map[string]any {
	out := make(map[string]any, len(t))
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out[k] = serializeValue(reflect.ValueOf(t[k]))
	}
	return out
}

// serializeValue reduces a state leaf to JSON-friendly values. Kinds JSON
// cannot carry are rendered with %v.
func serializeValue(v reflect.Value) any {
	if !v.IsValid() {
		return nil
	}
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint()
	case reflect.Float32, reflect.Float64:
		return v.Float()
	case reflect.String:
		return v.String()
	case reflect.Bool:
		return v.Bool()
	case reflect.Interface, reflect.Ptr:
		if v.IsNil() {
			return nil
		}
		return serializeValue(v.Elem())
	case reflect.Map:
		if t, ok := v.Interface().(map[string]any); ok {
			return serializeTree(t)
		}
		return fmt.Sprintf("%v", v.Interface())
	case reflect.Slice, reflect.Array:
		out := make([]any, v.Len())
		for i := range out {
			out[i] = serializeValue(v.Index(i))
		}
		return out
	default:
		if v.CanInterface() {
			return fmt.Sprintf("%v", v.Interface())
		}
		return nil
	}
}

func loadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("invalid snapshot JSON: %w", err)
	}
	return &snap, nil
}

func marshalSnapshot(s *Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// unifiedDiff produces a simple line-oriented diff.
func unifiedDiff(expected, actual string) string {
	expectedLines := strings.Split(expected, "\n")
	actualLines := strings.Split(actual, "\n")

	var buf strings.Builder
	buf.WriteString("--- expected\n+++ actual\n")

	maxLen := len(expectedLines)
	if len(actualLines) > maxLen {
		maxLen = len(actualLines)
	}

	for i := 0; i < maxLen; i++ {
		var e, a string
		if i < len(expectedLines) {
			e = expectedLines[i]
		}
		if i < len(actualLines) {
			a = actualLines[i]
		}
		if e != a {
			if i < len(expectedLines) {
				fmt.Fprintf(&buf, "-%s\n", e)
			}
			if i < len(actualLines) {
				fmt.Fprintf(&buf, "+%s\n", a)
			}
		}
	}

	return buf.String()
}
