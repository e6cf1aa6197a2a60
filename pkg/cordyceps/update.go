package cordyceps

import (
	"time"

	"github.com/go-drift/cordyceps/pkg/metrics"
	"github.com/go-drift/cordyceps/pkg/state"
)

// UpdateState schedules partial to be merged into the state. It returns
// immediately; the merge and the broadcast to every binding run in a
// deferred task. Each call schedules its own task and tasks run in call
// order, so the second of two updates sees the first as its previous state.
//
// partial is copied when UpdateState is called. Its keys win over the
// current state, omitted keys keep their values, and nil values count as
// omitted.
func (c *Container) UpdateState(partial state.Tree) {
	next := state.Clone(partial)
	c.scheduler.Defer(func() {
		c.applyUpdate(next, false)
	})
}

// ReplaceState schedules next to replace the state outright, without
// merging. Callbacks still receive the old state as previous.
func (c *Container) ReplaceState(next state.Tree) {
	next = state.Clone(next)
	c.scheduler.Defer(func() {
		c.applyUpdate(next, true)
	})
}

func (c *Container) applyUpdate(next state.Tree, replace bool) {
	start := time.Now()
	previous := c.live

	if c.debug {
		for _, line := range state.Dump(next, c.opaque, replace) {
			c.log.Debug().Msg(line)
		}
	}

	mode := metrics.ModeMerge
	if replace {
		mode = metrics.ModeReplace
		if next == nil {
			next = state.Tree{}
		}
		c.live = next
	} else {
		c.live = state.MergeDefaults(next, previous, "", c.opaque)
	}

	// Bindings added by a callback during this broadcast are notified from
	// the next update on.
	bindings := append([]*Binding(nil), c.bindings...)
	for _, b := range bindings {
		el := b.Element
		res := c.call(b, callbackStateChange, func() Result {
			return b.Fungus.OnStateChange(el, state.Clone(c.live), state.Clone(previous))
		})
		c.apply(b, res)
	}

	c.metrics.ObserveUpdate(mode, time.Since(start))
}
