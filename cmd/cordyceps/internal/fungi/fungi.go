// Package fungi holds the built-in fungi of the cordyceps CLI. They operate
// on htmldom documents and read the state value named by an element's
// data-state-key attribute.
package fungi

import (
	"fmt"

	"golang.org/x/net/html"

	"github.com/go-drift/cordyceps/pkg/cordyceps"
	"github.com/go-drift/cordyceps/pkg/errors"
	"github.com/go-drift/cordyceps/pkg/host"
	"github.com/go-drift/cordyceps/pkg/host/htmldom"
	"github.com/go-drift/cordyceps/pkg/state"
)

// Element attributes read by the built-in fungi.
const (
	// StateKeyAttr names the dotted state path an element displays.
	StateKeyAttr = "data-state-key"
	// StateAttrAttr names the attribute the attr fungus writes.
	StateAttrAttr = "data-state-attr"
)

// Names of the built-in fungi.
const (
	NameText   = "text"
	NameAttr   = "attr"
	NameMarkup = "markup"
)

// Register adds every built-in fungus to c.
func Register(c *cordyceps.Container) error {
	for _, f := range []struct {
		name string
		def  cordyceps.Definition
	}{
		{NameText, Text()},
		{NameAttr, Attr()},
		{NameMarkup, Markup()},
	} {
		if err := c.NewFungus(f.name, f.def); err != nil {
			return err
		}
	}
	return nil
}

// Text sets the element's text to the state value at its data-state-key.
func Text() cordyceps.Definition {
	return cordyceps.Definition{
		OnStateChange: func(el host.Element, s, prev state.Tree) cordyceps.Result {
			n := htmldom.Node(el)
			if v, ok := lookup(n, s); ok {
				htmldom.SetText(n, format(v))
			}
			return cordyceps.Keep()
		},
	}
}

// Attr sets the attribute named by data-state-attr to the state value at
// data-state-key.
func Attr() cordyceps.Definition {
	return cordyceps.Definition{
		OnStateChange: func(el host.Element, s, prev state.Tree) cordyceps.Result {
			n := htmldom.Node(el)
			name, ok := htmldom.Attr(n, StateAttrAttr)
			if !ok || name == "" {
				return cordyceps.Keep()
			}
			if v, ok := lookup(n, s); ok {
				htmldom.SetAttr(n, name, format(v))
			}
			return cordyceps.Keep()
		},
	}
}

// Markup replaces the element with the HTML fragment held in the state value
// at data-state-key. The data-state-key attribute is carried over so later
// updates find their path. Values without an element are reported as host
// errors and leave the element alone.
func Markup() cordyceps.Definition {
	return cordyceps.Definition{
		OnStateChange: func(el host.Element, s, prev state.Tree) cordyceps.Result {
			n := htmldom.Node(el)
			key, _ := htmldom.Attr(n, StateKeyAttr)
			v, ok := lookup(n, s)
			if !ok {
				return cordyceps.Keep()
			}
			if prev != nil {
				if old, had := state.Lookup(prev, key); had && format(old) == format(v) {
					return cordyceps.Keep()
				}
			}
			repl, err := htmldom.Fragment(format(v))
			if err != nil {
				errors.Report(&errors.Error{
					Op:     "fungi.Markup",
					Kind:   errors.KindHost,
					Fungus: NameMarkup,
					Err:    fmt.Errorf("%s: %w", key, err),
				})
				return cordyceps.Keep()
			}
			htmldom.SetAttr(repl, StateKeyAttr, key)
			return cordyceps.Replace(repl)
		},
	}
}

func lookup(n *html.Node, s state.Tree) (any, bool) {
	key, ok := htmldom.Attr(n, StateKeyAttr)
	if !ok || key == "" {
		return nil, false
	}
	return state.Lookup(s, key)
}

func format(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
