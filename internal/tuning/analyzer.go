// Package tuning turns a detected frequency into a musical judgment: which
// reference string it is closest to, how many cents away, and which way to
// turn the peg.
package tuning

import (
	"errors"
	"math"

	"github.com/himanishpuri/AudibleTuner/internal/note"
)

// DefaultToleranceCents is the in-tune band used by the analyzer.
const DefaultToleranceCents = 2.0

// Direction tells the player how to correct the pitch.
type Direction int

const (
	Unknown Direction = iota
	Up                // flat, tighten
	Down              // sharp, loosen
	InTune
)

func (d Direction) String() string {
	switch d {
	case Up:
		return "UP"
	case Down:
		return "DOWN"
	case InTune:
		return "IN_TUNE"
	default:
		return "UNKNOWN"
	}
}

func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Result is the judgment for one detection. It is a value; a new one
// replaces the previous.
type Result struct {
	DetectedString    int       `json:"detected_string"`
	TargetString      int       `json:"target_string"`
	DetectedFrequency float64   `json:"detected_frequency"`
	TargetFrequency   float64   `json:"target_frequency"`
	CentsOffset       float64   `json:"cents_offset"`
	Direction         Direction `json:"direction"`
	NoteName          string    `json:"note_name"`
	DetectedNote      string    `json:"detected_note,omitempty"`
}

// Valid reports whether the result came from a positive frequency.
func (r Result) Valid() bool {
	return r.Direction != Unknown
}

// Severity buckets |cents| for coarse audio cues.
type Severity int

const (
	SeverityInTune Severity = iota // < 5 cents
	SeveritySlight                 // < 15 cents
	SeverityOff                    // < 25 cents
	SeverityFar
)

func (s Severity) String() string {
	switch s {
	case SeverityInTune:
		return "in tune"
	case SeveritySlight:
		return "slightly off"
	case SeverityOff:
		return "off"
	default:
		return "far off"
	}
}

func SeverityOf(cents float64) Severity {
	a := math.Abs(cents)
	switch {
	case a < 5:
		return SeverityInTune
	case a < 15:
		return SeveritySlight
	case a < 25:
		return SeverityOff
	default:
		return SeverityFar
	}
}

// Cents returns 1200*log2(detected/target). Non-positive inputs yield 0.
func Cents(detected, target float64) float64 {
	if !(detected > 0) || !(target > 0) {
		return 0
	}
	return 1200 * math.Log2(detected/target)
}

// Classify maps a cents offset to a Direction using tolerance.
func Classify(cents, tolerance float64) Direction {
	switch {
	case math.Abs(cents) <= tolerance:
		return InTune
	case cents < 0:
		return Up
	default:
		return Down
	}
}

// Analyzer compares frequencies against a reference table.
type Analyzer struct {
	table     Table
	tolerance float64
}

type Option func(*Analyzer)

func WithTable(t Table) Option {
	return func(a *Analyzer) { a.table = t }
}

func WithTolerance(cents float64) Option {
	return func(a *Analyzer) { a.tolerance = cents }
}

// NewAnalyzer returns an analyzer over the standard table unless overridden.
func NewAnalyzer(opts ...Option) (*Analyzer, error) {
	a := &Analyzer{table: Standard(), tolerance: DefaultToleranceCents}
	for _, opt := range opts {
		opt(a)
	}
	if a.table.IsZero() {
		return nil, errors.New("tuning: empty reference table")
	}
	if a.tolerance < 0 || math.IsNaN(a.tolerance) {
		return nil, errors.New("tuning: tolerance must be >= 0")
	}
	return a, nil
}

func (a *Analyzer) Table() Table        { return a.table }
func (a *Analyzer) Tolerance() float64 { return a.tolerance }

// Nearest returns the string whose reference is closest to freq in Hz.
// Equidistant candidates resolve to the lowest string number.
func (a *Analyzer) Nearest(freq float64) int {
	best := 1
	bestDiff := math.Abs(freq - a.table.pitches[0].Frequency)
	for s := 2; s <= NumStrings; s++ {
		if d := math.Abs(freq - a.table.pitches[s-1].Frequency); d < bestDiff {
			best, bestDiff = s, d
		}
	}
	return best
}

// AnalyzeAuto judges freq against whichever string it is nearest to.
func (a *Analyzer) AnalyzeAuto(freq float64) Result {
	if !(freq > 0) || math.IsInf(freq, 0) {
		return Result{Direction: Unknown}
	}
	s := a.Nearest(freq)
	return a.judge(freq, s, s)
}

// Analyze judges freq against target. A target outside 1..6 falls back to
// AnalyzeAuto.
func (a *Analyzer) Analyze(freq float64, target int) Result {
	if !ValidString(target) {
		return a.AnalyzeAuto(freq)
	}
	if !(freq > 0) || math.IsInf(freq, 0) {
		p := a.table.pitches[target-1]
		return Result{
			TargetString:    target,
			TargetFrequency: p.Frequency,
			Direction:       Unknown,
			NoteName:        p.Name,
		}
	}
	return a.judge(freq, a.Nearest(freq), target)
}

func (a *Analyzer) judge(freq float64, detected, target int) Result {
	p := a.table.pitches[target-1]
	cents := Cents(freq, p.Frequency)
	r := Result{
		DetectedString:    detected,
		TargetString:      target,
		DetectedFrequency: freq,
		TargetFrequency:   p.Frequency,
		CentsOffset:       cents,
		Direction:         Classify(cents, a.tolerance),
		NoteName:          p.Name,
	}
	if n, _, ok := note.Nearest(freq); ok {
		r.DetectedNote = n.String()
	}
	return r
}

// MostFrequent returns the string with the most votes, or 0 when there are
// none. Ties go to the lowest string number, as in Nearest.
func MostFrequent(votes map[int]int) int {
	best, bestN := 0, 0
	for s := 1; s <= NumStrings; s++ {
		if n := votes[s]; n > bestN {
			best, bestN = s, n
		}
	}
	return best
}
