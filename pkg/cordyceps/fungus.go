package cordyceps

import (
	"github.com/go-drift/cordyceps/pkg/host"
	"github.com/go-drift/cordyceps/pkg/state"
)

// Result is the outcome of a lifecycle callback: either keep the element or
// replace it with another.
type Result struct {
	element host.Element
	replace bool
}

// Keep leaves the bound element in place.
func Keep() Result {
	return Result{}
}

// Replace swaps the bound element for el. A nil el is the same as Keep.
func Replace(el host.Element) Result {
	if el == nil {
		return Result{}
	}
	return Result{element: el, replace: true}
}

// Replacement returns the new element and true when the result asks for a swap.
func (r Result) Replacement() (host.Element, bool) {
	return r.element, r.replace
}

// Fungus is one bound instance of a behavior.
//
// Each callback receives its own copy of the state's objects, so changes to
// s or prev never reach the container or other bindings. Slices and other
// leaves are shared and must not be modified in place.
type Fungus interface {
	// OnInit is called once when the element is infected.
	OnInit(el host.Element, s state.Tree) Result
	// OnStateChange is called after every applied update. prev is nil when
	// called on behalf of a default OnInit.
	OnStateChange(el host.Element, s, prev state.Tree) Result
}

// Factory creates a fresh Fungus for every infected element.
type Factory func() Fungus

// Definition declares a fungus with plain functions. Either callback may be nil.
type Definition struct {
	OnInit        func(el host.Element, s state.Tree) Result
	OnStateChange func(el host.Element, s, prev state.Tree) Result
}

// Factory returns a factory producing instances of d.
func (d Definition) Factory() Factory {
	return func() Fungus {
		return &definedFungus{def: d}
	}
}

type definedFungus struct {
	def Definition
}

func (f *definedFungus) OnInit(el host.Element, s state.Tree) Result {
	if f.def.OnInit == nil {
		return f.OnStateChange(el, s, nil)
	}
	return f.def.OnInit(el, s)
}

func (f *definedFungus) OnStateChange(el host.Element, s, prev state.Tree) Result {
	if f.def.OnStateChange == nil {
		return Keep()
	}
	return f.def.OnStateChange(el, s, prev)
}

// Binding pairs an infected element with its fungus instance.
type Binding struct {
	// ID identifies the binding in diagnostics.
	ID string
	// Name is the fungus name the element was infected by.
	Name string
	// Element is the current element handle.
	Element host.Element
	// Fungus is the bound instance.
	Fungus Fungus
}
