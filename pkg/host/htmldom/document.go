// Package htmldom implements host.Host over HTML documents parsed with
// golang.org/x/net/html. Element handles are *html.Node values.
package htmldom

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/go-drift/cordyceps/pkg/host"
)

// Document is a parsed HTML document.
type Document struct {
	root *html.Node
}

var _ host.Host = (*Document)(nil)

// Parse reads an HTML document.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}
	return &Document{root: root}, nil
}

// ParseString is Parse for an in-memory document.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Root returns the document node.
func (d *Document) Root() host.Element {
	return d.root
}

// FindByAttr returns the element descendants of scope carrying attr=value in
// document order. A nil scope searches the whole document.
func (d *Document) FindByAttr(scope host.Element, attr, value string) []host.Element {
	start := d.root
	if n := Node(scope); n != nil {
		start = n
	}
	var out []host.Element
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode {
				if v, ok := Attr(c, attr); ok && v == value {
					out = append(out, c)
				}
			}
			walk(c)
		}
	}
	walk(start)
	return out
}

// RemoveAttr deletes every occurrence of attr from el.
func (d *Document) RemoveAttr(el host.Element, attr string) {
	n := Node(el)
	if n == nil {
		return
	}
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == attr {
			continue
		}
		kept = append(kept, a)
	}
	n.Attr = kept
}

// Replace puts replacement where old is. A replacement still attached
// elsewhere is detached first. Detached old nodes are left alone.
func (d *Document) Replace(old, replacement host.Element) {
	o, r := Node(old), Node(replacement)
	if o == nil || r == nil || o == r || o.Parent == nil {
		return
	}
	if r.Parent != nil {
		r.Parent.RemoveChild(r)
	}
	o.Parent.InsertBefore(r, o)
	o.Parent.RemoveChild(o)
}

// Render writes the document as HTML.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

// String renders the document, or an empty string on failure.
func (d *Document) String() string {
	var sb strings.Builder
	if err := d.Render(&sb); err != nil {
		return ""
	}
	return sb.String()
}

// Node returns the *html.Node behind an element handle, or nil.
func Node(el host.Element) *html.Node {
	n, _ := el.(*html.Node)
	return n
}

// Attr returns the value of attr on n.
func Attr(n *html.Node, attr string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == attr {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets attr on n, replacing an existing value.
func SetAttr(n *html.Node, attr, value string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == attr {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: attr, Val: value})
}

// Text returns the concatenated text content of n.
func Text(n *html.Node) string {
	if n == nil {
		return ""
	}
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(Text(c))
	}
	return sb.String()
}

// SetText replaces the children of n with a single text node.
func SetText(n *html.Node, text string) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}

// NewElement creates a detached element node.
func NewElement(tag string, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
		Attr:     attrs,
	}
}

// Fragment parses markup in a body context and returns its first element.
func Fragment(markup string) (*html.Node, error) {
	body := NewElement("body")
	nodes, err := html.ParseFragment(strings.NewReader(markup), body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse fragment: %w", err)
	}
	for _, n := range nodes {
		if n.Type == html.ElementNode {
			return n, nil
		}
	}
	return nil, fmt.Errorf("fragment %q has no element", markup)
}
