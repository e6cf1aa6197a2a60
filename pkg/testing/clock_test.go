package testing

import (
	"testing"
	"time"

	"github.com/go-drift/cordyceps/pkg/frame"
)

func TestFakeClock_Advance(t *testing.T) {
	clk := NewFakeClock()
	start := clk.Now()

	clk.Advance(100 * time.Millisecond)
	elapsed := clk.Now().Sub(start)

	if elapsed != 100*time.Millisecond {
		t.Errorf("expected 100ms elapsed, got %v", elapsed)
	}
}

func TestFakeClock_Set(t *testing.T) {
	clk := NewFakeClock()
	target := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	clk.Set(target)
	if !clk.Now().Equal(target) {
		t.Errorf("expected %v, got %v", target, clk.Now())
	}
}

func TestHarness_PumpAdvancesFrameClock(t *testing.T) {
	h := NewHarness(t)

	h.Loop().Defer(func() {})
	if n := h.Pump(); n != 1 {
		t.Errorf("Pump() = %d, want 1", n)
	}

	want := Epoch.Add(frame.DefaultInterval)
	if got := h.Loop().Stats().LastPump; !got.Equal(want) {
		t.Errorf("LastPump = %v, want %v", got, want)
	}
	if !frame.Now().Equal(want) {
		t.Errorf("frame.Now() = %v, want %v", frame.Now(), want)
	}
}

func TestHarness_Settle(t *testing.T) {
	h := NewHarness(t)
	var chain func()
	n := 0
	chain = func() {
		n++
		if n < 4 {
			h.Loop().Defer(chain)
		}
	}
	h.Loop().Defer(chain)

	if err := h.Settle(); err != nil {
		t.Fatalf("Settle() = %v", err)
	}
	if n != 4 {
		t.Errorf("ran %d times, want 4", n)
	}
	if got := h.Clock().Now().Sub(Epoch); got != 4*frame.DefaultInterval {
		t.Errorf("clock advanced %v, want %v", got, 4*frame.DefaultInterval)
	}
}
