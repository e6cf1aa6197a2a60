// Package testing provides a harness for testing cordyceps fungi without a
// browser or a running frame loop.
//
// # Quick Start
//
// Build a memory document, create a container on the harness and pump:
//
//	func TestGreeter(t *testing.T) {
//	    h := cordycepstest.NewHarness(t,
//	        cordycepstest.Infected("p", "greeter"),
//	    )
//	    c := h.Container(state.Tree{"name": "Ann"})
//	    c.MustNewFungus("greeter", greeter)
//	    c.InfectAll(nil)
//
//	    c.UpdateState(state.Tree{"name": "Bo"})
//	    h.Pump()
//	}
//
// Updates never run until Pump or Settle is called, which makes the deferred
// ordering of UpdateState observable in tests.
//
// # Snapshots
//
// CaptureSnapshot (or Harness.Snapshot) records the state, the bindings and
// the memory document. MatchesFile compares it against a golden JSON file;
// run with CORDYCEPS_UPDATE_SNAPSHOTS=1 to rewrite the files.
//
//	h.Snapshot(c).MatchesFile(t, "testdata/greeter.snapshot.json")
//
// # Import Alias
//
// Since this package has the same name as the standard library testing
// package, import it with an alias:
//
//	import cordycepstest "github.com/go-drift/cordyceps/pkg/testing"
package testing
