// Package feedback maps a cents offset to a beep cadence and paces beeps
// against a millisecond clock without blocking.
package feedback

import "math"

const (
	DefaultBeepHz         = 800.0
	DefaultBeepDurationMs = 50
)

// Cadence is how often to beep and for how long. IntervalMs == 0 means
// no beeping.
type Cadence struct {
	IntervalMs     uint32
	BeepDurationMs uint32
}

// Silent reports whether the cadence never beeps.
func (c Cadence) Silent() bool { return c.IntervalMs == 0 }

// Step is one row of the cadence table: offsets of at least MinCents
// beep every IntervalMs.
type Step struct {
	MinCents   float64
	IntervalMs uint32
}

// Steps is ordered by descending MinCents; the first match wins.
var Steps = []Step{
	{100, 100},
	{75, 150},
	{50, 200},
	{40, 300},
	{25, 500},
	{15, 800},
	{5, 1200},
}

// BeepInterval returns the cadence for a cents offset. Only |cents| matters.
func BeepInterval(cents float64) Cadence {
	return cadenceFor(cents, DefaultBeepDurationMs)
}

func cadenceFor(cents float64, durationMs uint32) Cadence {
	a := math.Abs(cents)
	if math.IsNaN(a) {
		return Cadence{}
	}
	for _, s := range Steps {
		if a >= s.MinCents {
			return Cadence{IntervalMs: s.IntervalMs, BeepDurationMs: durationMs}
		}
	}
	return Cadence{}
}
