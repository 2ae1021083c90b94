// Package cue defines the synthesised audio cues the tuner speaks with.
// Every cue is a short sequence of tones or beeps played on a Player.
package cue

import (
	"fmt"

	"github.com/himanishpuri/AudibleTuner/internal/tuning"
)

// Player is the subset of the audio output a cue needs. Calls are
// fire-and-forget; an implementation plays consecutive calls back to back.
type Player interface {
	PlayTone(hz float64, durationMs uint32)
	PlayBeep(hz float64, durationMs uint32)
}

// Tone is one element of a cue.
type Tone struct {
	Hz         float64
	DurationMs uint32
	Beep       bool
}

// Cue is an ordered run of tones.
type Cue []Tone

// Play sends every tone to p in order.
func (c Cue) Play(p Player) {
	for _, t := range c {
		if t.Beep {
			p.PlayBeep(t.Hz, t.DurationMs)
		} else {
			p.PlayTone(t.Hz, t.DurationMs)
		}
	}
}

// DurationMs is the total length of the cue.
func (c Cue) DurationMs() uint32 {
	var d uint32
	for _, t := range c {
		d += t.DurationMs
	}
	return d
}

func beep(hz float64, ms uint32) Tone { return Tone{Hz: hz, DurationMs: ms, Beep: true} }
func tone(hz float64, ms uint32) Tone { return Tone{Hz: hz, DurationMs: ms} }

var (
	Ready   = Cue{beep(1000, 200)}
	Warning = Cue{beep(400, 150), beep(400, 150)}
	InTune  = Cue{tone(523, 100), tone(659, 100), tone(784, 200)} // C5 E5 G5
	TuneUp  = Cue{tone(400, 150), tone(600, 150)}
	TuneDn  = Cue{tone(600, 150), tone(400, 150)}
)

// Set groups the cues the controller plays at fixed points of a session.
type Set struct {
	Ready   Cue
	Warning Cue
	InTune  Cue
}

func DefaultSet() Set {
	return Set{Ready: Ready, Warning: Warning, InTune: InTune}
}

// StringIdentifier is n short 800 Hz beeps for string n.
func StringIdentifier(n int) Cue {
	if !tuning.ValidString(n) {
		return nil
	}
	c := make(Cue, n)
	for i := range c {
		c[i] = beep(800, 100)
	}
	return c
}

// Direction returns the rising, falling or in-tune cue for d.
func Direction(d tuning.Direction) Cue {
	switch d {
	case tuning.Up:
		return TuneUp
	case tuning.Down:
		return TuneDn
	case tuning.InTune:
		return InTune
	default:
		return nil
	}
}

// CentsIndicator gives a coarse sense of distance: a single bright tone when
// in tune, then one to three low beeps as the offset grows.
func CentsIndicator(cents float64) Cue {
	switch tuning.SeverityOf(cents) {
	case tuning.SeverityInTune:
		return Cue{tone(1000, 200)}
	case tuning.SeveritySlight:
		return Cue{beep(600, 100)}
	case tuning.SeverityOff:
		return Cue{beep(500, 100), beep(500, 100)}
	default:
		return Cue{beep(400, 100), beep(400, 100), beep(400, 100)}
	}
}

// Describe is the full spoken-free summary of a result: which string, how
// far, and which way.
func Describe(r tuning.Result) Cue {
	if !r.Valid() {
		return Warning
	}
	var c Cue
	c = append(c, StringIdentifier(r.DetectedString)...)
	c = append(c, CentsIndicator(r.CentsOffset)...)
	c = append(c, Direction(r.Direction)...)
	return c
}

// Named returns the cue vocabulary by name, for rendering and listing.
func Named() map[string]Cue {
	m := map[string]Cue{
		"ready":     Ready,
		"warning":   Warning,
		"in-tune":   InTune,
		"tune-up":   TuneUp,
		"tune-down": TuneDn,
	}
	for s := 1; s <= tuning.NumStrings; s++ {
		m[fmt.Sprintf("string-%d", s)] = StringIdentifier(s)
	}
	return m
}
