// Package host defines the contract between a cordyceps container and the
// document it binds to. The container never inspects element handles itself;
// it only asks the host to find marked elements, strip their markers and
// swap one element for another.
package host

// InfectedByAttr is the marker attribute. An element whose attribute value
// equals a registered fungus name is bound to that fungus on infection.
const InfectedByAttr = "data-cordyceps-infected-by"

// Element is an opaque element handle owned by a Host.
type Element any

// Host is a live document.
type Host interface {
	// Root returns the document root, used when infection has no scope.
	Root() Element
	// FindByAttr returns the descendants of scope whose attr equals value,
	// in document order. The scope itself is not matched.
	FindByAttr(scope Element, attr, value string) []Element
	// RemoveAttr deletes attr from el.
	RemoveAttr(el Element, attr string)
	// Replace substitutes replacement for old in the document.
	Replace(old, replacement Element)
}
