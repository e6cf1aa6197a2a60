// Package cordyceps binds plain document elements to a single observable
// state tree.
//
// A Container owns one state tree. Named behaviors ("fungi") are registered
// on the container, then InfectAll binds every element carrying a fungus's
// marker attribute to a fresh instance of it. Each instance sees the state on
// OnInit and again, together with the previous state, on every OnStateChange.
//
// # Registering Fungi
//
// A Definition is the quickest way to declare a fungus:
//
//	c := cordyceps.New(state.Tree{"name": "Ann"},
//	    cordyceps.WithHost(doc),
//	    cordyceps.WithScheduler(loop),
//	)
//	c.MustNewFungus("greeter", cordyceps.Definition{
//	    OnStateChange: func(el host.Element, s, prev state.Tree) cordyceps.Result {
//	        htmldom.SetText(htmldom.Node(el), fmt.Sprint(s["name"]))
//	        return cordyceps.Keep()
//	    },
//	})
//	c.InfectAll(nil)
//
// A Definition without OnInit runs OnStateChange with a nil previous state
// when an element is infected. Types with per-element fields implement
// Fungus and are registered with Register and a Factory.
//
// # Updating State
//
// UpdateState never touches the state synchronously. It defers one task per
// call to the container's scheduler; when the task runs, the partial tree is
// deep-merged over the current state (keys in the update win, omitted keys
// keep their previous values) and every binding is notified in infection
// order. Values wrapped with state.Opaque in the initial state are replaced
// wholesale rather than merged.
//
//	c.UpdateState(state.Tree{"name": "Bo"})
//	loop.Pump() // the merge and broadcast happen here
//
// # Replacing Elements
//
// A callback returns Keep() to leave its element alone or Replace(el) to
// swap its element for a new one. The host substitutes the element in the
// document and the binding follows the new handle from then on.
//
// # Threading
//
// A Container is not safe for concurrent use. Call InfectAll and read State
// on the goroutine that pumps the scheduler. UpdateState may be called from
// any goroutine when the scheduler's Defer is, as frame.Loop's is.
package cordyceps
