package testing

import (
	"strings"

	"github.com/go-drift/cordyceps/pkg/host"
)

// Node is an element of a MemoryHost document.
type Node struct {
	Tag      string
	Attrs    map[string]string
	Text     string
	Children []*Node
	Parent   *Node
}

// El builds a node with the given attributes and children.
func El(tag string, attrs map[string]string, children ...*Node) *Node {
	n := &Node{Tag: tag, Attrs: make(map[string]string, len(attrs))}
	for k, v := range attrs {
		n.Attrs[k] = v
	}
	for _, c := range children {
		c.Parent = n
		n.Children = append(n.Children, c)
	}
	return n
}

// Infected builds a node marked for infection by fungus.
func Infected(tag, fungus string, children ...*Node) *Node {
	return El(tag, map[string]string{host.InfectedByAttr: fungus}, children...)
}

// String renders the node as compact markup for assertions.
func (n *Node) String() string {
	var sb strings.Builder
	n.write(&sb)
	return sb.String()
}

func (n *Node) write(sb *strings.Builder) {
	sb.WriteString("<" + n.Tag)
	if id, ok := n.Attrs["id"]; ok {
		sb.WriteString(` id="` + id + `"`)
	}
	sb.WriteString(">")
	sb.WriteString(n.Text)
	for _, c := range n.Children {
		c.write(sb)
	}
	sb.WriteString("</" + n.Tag + ">")
}

// MemoryHost is an in-memory host.Host for tests. Element handles are *Node.
type MemoryHost struct {
	root *Node

	// Replacements counts Replace calls that changed the document.
	Replacements int
}

var _ host.Host = (*MemoryHost)(nil)

// NewMemoryHost creates a document whose root holds children.
func NewMemoryHost(children ...*Node) *MemoryHost {
	return &MemoryHost{root: El("#document", nil, children...)}
}

// Root returns the document node.
func (h *MemoryHost) Root() host.Element {
	return h.root
}

// Document returns the document node.
func (h *MemoryHost) Document() *Node {
	return h.root
}

// FindByAttr returns descendants of scope with attr=value in pre-order.
func (h *MemoryHost) FindByAttr(scope host.Element, attr, value string) []host.Element {
	start, _ := scope.(*Node)
	if start == nil {
		start = h.root
	}
	var out []host.Element
	var walk func(n *Node)
	walk = func(n *Node) {
		for _, c := range n.Children {
			if v, ok := c.Attrs[attr]; ok && v == value {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(start)
	return out
}

// ByID returns the first node whose id attribute equals id, or nil.
func (h *MemoryHost) ByID(id string) *Node {
	found := h.FindByAttr(h.root, "id", id)
	if len(found) == 0 {
		return nil
	}
	return found[0].(*Node)
}

// RemoveAttr deletes attr from el.
func (h *MemoryHost) RemoveAttr(el host.Element, attr string) {
	if n, ok := el.(*Node); ok && n != nil {
		delete(n.Attrs, attr)
	}
}

// Replace puts replacement where old is in old's parent.
func (h *MemoryHost) Replace(old, replacement host.Element) {
	o, _ := old.(*Node)
	r, _ := replacement.(*Node)
	if o == nil || r == nil || o == r || o.Parent == nil {
		return
	}
	parent := o.Parent
	for i, c := range parent.Children {
		if c == o {
			parent.Children[i] = r
			r.Parent = parent
			o.Parent = nil
			h.Replacements++
			return
		}
	}
}
