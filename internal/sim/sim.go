// Package sim provides in-memory stand-ins for the tuner's hardware: a manual
// clock, scripted buttons, a frequency feed, and recording audio and
// amplifier ports. The simulate command and the package tests drive the
// controller with them.
package sim

import (
	"sort"

	"github.com/himanishpuri/AudibleTuner/internal/controller"
)

// Clock is a manually advanced millisecond clock.
type Clock struct{ now uint64 }

func NewClock(start uint64) *Clock { return &Clock{now: start} }

func (c *Clock) NowMs() uint64     { return c.now }
func (c *Clock) Advance(ms uint64) { c.now += ms }
func (c *Clock) Set(ms uint64)     { c.now = ms }

// Buttons is a queue of edges plus the current pressed set.
type Buttons struct {
	queue   []controller.ButtonEvent
	pressed map[int]bool
}

func NewButtons() *Buttons { return &Buttons{pressed: map[int]bool{}} }

// Press queues a press edge and holds the button down.
func (b *Buttons) Press(id int) {
	b.pressed[id] = true
	b.queue = append(b.queue, controller.ButtonEvent{ID: id, Pressed: true})
}

// Release lets go of the button and queues a release edge.
func (b *Buttons) Release(id int) {
	delete(b.pressed, id)
	b.queue = append(b.queue, controller.ButtonEvent{ID: id, Pressed: false})
}

func (b *Buttons) Poll() (controller.ButtonEvent, bool) {
	if len(b.queue) == 0 {
		return controller.ButtonEvent{}, false
	}
	ev := b.queue[0]
	b.queue = b.queue[1:]
	return ev, true
}

func (b *Buttons) IsPressed(id int) bool { return b.pressed[id] }

// Hold is one button held from StartMs for DurationMs.
type Hold struct {
	ID         int
	StartMs    uint64
	DurationMs uint64
}

// TimedButtons replays Holds against a clock. Each hold yields one press
// edge and one release edge.
type TimedButtons struct {
	clock interface{ NowMs() uint64 }
	holds []Hold
	sent  map[int]int // hold index -> edges delivered
}

func NewTimedButtons(clock interface{ NowMs() uint64 }, holds ...Hold) *TimedButtons {
	hs := append([]Hold(nil), holds...)
	sort.SliceStable(hs, func(i, j int) bool { return hs[i].StartMs < hs[j].StartMs })
	return &TimedButtons{clock: clock, holds: hs, sent: map[int]int{}}
}

func (t *TimedButtons) Poll() (controller.ButtonEvent, bool) {
	now := t.clock.NowMs()
	for i, h := range t.holds {
		switch sent := t.sent[i]; {
		case sent == 0 && now >= h.StartMs:
			t.sent[i] = 1
			return controller.ButtonEvent{ID: h.ID, Pressed: true}, true
		case sent == 1 && now >= h.StartMs+h.DurationMs:
			t.sent[i] = 2
			return controller.ButtonEvent{ID: h.ID, Pressed: false}, true
		}
	}
	return controller.ButtonEvent{}, false
}

func (t *TimedButtons) IsPressed(id int) bool {
	now := t.clock.NowMs()
	for _, h := range t.holds {
		if h.ID == id && now >= h.StartMs && now < h.StartMs+h.DurationMs {
			return true
		}
	}
	return false
}

// End is when the last hold is released.
func (t *TimedButtons) End() uint64 {
	var end uint64
	for _, h := range t.holds {
		if e := h.StartMs + h.DurationMs; e > end {
			end = e
		}
	}
	return end
}

// Frequencies feeds a fixed sequence of readings, then Fallback forever.
type Frequencies struct {
	values   []float64
	Fallback float64
	Reads    int
}

func NewFrequencies(values ...float64) *Frequencies {
	return &Frequencies{values: values}
}

// Push appends readings to the feed.
func (f *Frequencies) Push(values ...float64) { f.values = append(f.values, values...) }

// Set drops pending readings and reports v from now on.
func (f *Frequencies) Set(v float64) {
	f.values = nil
	f.Fallback = v
}

func (f *Frequencies) ReadFrequency() float64 {
	f.Reads++
	if len(f.values) == 0 {
		return f.Fallback
	}
	v := f.values[0]
	f.values = f.values[1:]
	return v
}

// AudioCall is one recorded call on Audio.
type AudioCall struct {
	Kind       string // "tone", "beep" or "stop"
	Hz         float64
	DurationMs uint32
}

// Audio records every call it receives.
type Audio struct {
	Calls []AudioCall
}

func (a *Audio) PlayTone(hz float64, ms uint32) {
	a.Calls = append(a.Calls, AudioCall{Kind: "tone", Hz: hz, DurationMs: ms})
}

func (a *Audio) PlayBeep(hz float64, ms uint32) {
	a.Calls = append(a.Calls, AudioCall{Kind: "beep", Hz: hz, DurationMs: ms})
}

func (a *Audio) StopAll() {
	a.Calls = append(a.Calls, AudioCall{Kind: "stop"})
}

// Count returns how many calls of kind (and frequency, if hz > 0) were made.
func (a *Audio) Count(kind string, hz float64) int {
	n := 0
	for _, c := range a.Calls {
		if c.Kind == kind && (hz <= 0 || c.Hz == hz) {
			n++
		}
	}
	return n
}

// Reset forgets recorded calls.
func (a *Audio) Reset() { a.Calls = nil }

// Amplifier counts power transitions.
type Amplifier struct {
	On       bool
	Enables  int
	Disables int
}

func (a *Amplifier) Enable() {
	a.On = true
	a.Enables++
}

func (a *Amplifier) Disable() {
	a.On = false
	a.Disables++
}

// ModeSwitch is a switch fixed at M.
type ModeSwitch struct{ M controller.Mode }

func (m ModeSwitch) Mode() controller.Mode { return m.M }
