package testing

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/go-drift/cordyceps/pkg/cordyceps"
	"github.com/go-drift/cordyceps/pkg/frame"
	"github.com/go-drift/cordyceps/pkg/state"
)

// DefaultSettleLimit bounds Settle when no limit is given.
const DefaultSettleLimit = 100

// Harness drives containers without a running loop. Updates queue on a
// frame.Loop that only runs when the test calls Pump or Settle, and the
// frame clock is replaced by a FakeClock for the life of the test.
type Harness struct {
	loop      *frame.Loop
	host      *MemoryHost
	clock     *FakeClock
	prevClock frame.Clock
}

// NewHarness creates a harness over a memory document holding children.
// The frame clock is restored via t.Cleanup.
func NewHarness(t *testing.T, children ...*Node) *Harness {
	clk := NewFakeClock()
	h := &Harness{
		loop:  frame.NewLoop(frame.ModeFrame, frame.DefaultInterval),
		host:  NewMemoryHost(children...),
		clock: clk,
	}
	h.prevClock = frame.SetClock(clk)
	t.Cleanup(func() { frame.SetClock(h.prevClock) })
	return h
}

// Container creates a container bound to the harness host and loop with
// logging discarded. opts are applied afterwards and may override these.
func (h *Harness) Container(init state.Tree, opts ...cordyceps.Option) *cordyceps.Container {
	base := []cordyceps.Option{
		cordyceps.WithHost(h.host),
		cordyceps.WithScheduler(h.loop),
		cordyceps.WithLogger(zerolog.Nop()),
	}
	return cordyceps.New(init, append(base, opts...)...)
}

// Loop returns the harness loop.
func (h *Harness) Loop() *frame.Loop {
	return h.loop
}

// Host returns the memory document.
func (h *Harness) Host() *MemoryHost {
	return h.host
}

// Clock returns the fake frame clock.
func (h *Harness) Clock() *FakeClock {
	return h.clock
}

// Pump advances the clock by one frame and runs the queued tasks.
func (h *Harness) Pump() int {
	h.clock.Advance(h.loop.Interval())
	return h.loop.Pump()
}

// Settle pumps frames until nothing is queued or DefaultSettleLimit frames
// have run, and returns frame.ErrSettleTimeout in the latter case.
func (h *Harness) Settle() error {
	for i := 0; i < DefaultSettleLimit; i++ {
		if h.loop.Pending() == 0 {
			return nil
		}
		h.Pump()
	}
	if h.loop.Pending() == 0 {
		return nil
	}
	return frame.ErrSettleTimeout
}
