package tuning

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/himanishpuri/AudibleTuner/internal/note"
)

// NumStrings is the size of every reference table.
const NumStrings = 6

var ErrInvalidTable = errors.New("invalid reference table")

// Pitch is one reference pitch.
type Pitch struct {
	Name      string  `json:"name" yaml:"name"`
	Frequency float64 `json:"frequency" yaml:"frequency"`
}

// Table holds the six reference pitches indexed by string number.
// String 1 is the highest pitch and string 6 the lowest, so frequencies
// strictly decrease with the string number. A Table is immutable once built.
type Table struct {
	pitches [NumStrings]Pitch
}

// NewTable validates pitches (ordered string 1..6) and builds a Table.
func NewTable(pitches []Pitch) (Table, error) {
	var t Table
	if len(pitches) != NumStrings {
		return t, fmt.Errorf("%w: need %d pitches, got %d", ErrInvalidTable, NumStrings, len(pitches))
	}
	for i, p := range pitches {
		if !(p.Frequency > 0) || math.IsInf(p.Frequency, 0) {
			return t, fmt.Errorf("%w: string %d has frequency %v", ErrInvalidTable, i+1, p.Frequency)
		}
		if i > 0 && p.Frequency >= pitches[i-1].Frequency {
			return t, fmt.Errorf("%w: string %d (%.2f Hz) is not lower than string %d (%.2f Hz)",
				ErrInvalidTable, i+1, p.Frequency, i, pitches[i-1].Frequency)
		}
		t.pitches[i] = p
	}
	return t, nil
}

// TableFromNotes builds a Table from note names ordered string 1..6, e.g.
// "E4", "B3", "G3", "D3", "A2", "E2".
func TableFromNotes(names ...string) (Table, error) {
	pitches := make([]Pitch, 0, len(names))
	for _, s := range names {
		n, err := note.Parse(s)
		if err != nil {
			return Table{}, fmt.Errorf("%w: %v", ErrInvalidTable, err)
		}
		pitches = append(pitches, Pitch{Name: n.String(), Frequency: round2(n.Frequency())})
	}
	return NewTable(pitches)
}

// Standard is E4 B3 G3 D3 A2 E2 with the usual two-decimal frequencies.
func Standard() Table {
	return Table{pitches: [NumStrings]Pitch{
		{Name: "E4", Frequency: 329.63},
		{Name: "B3", Frequency: 246.94},
		{Name: "G3", Frequency: 196.00},
		{Name: "D3", Frequency: 146.83},
		{Name: "A2", Frequency: 110.00},
		{Name: "E2", Frequency: 82.41},
	}}
}

var presets = map[string][NumStrings]string{
	"drop-d":         {"E4", "B3", "G3", "D3", "A2", "D2"},
	"half-step-down": {"Eb4", "Bb3", "Gb3", "Db3", "Ab2", "Eb2"},
	"open-g":         {"D4", "B3", "G3", "D3", "G2", "D2"},
	"open-d":         {"D4", "A3", "F#3", "D3", "A2", "D2"},
	"dadgad":         {"D4", "A3", "G3", "D3", "A2", "D2"},
}

// Preset returns a named tuning. "standard" and "" both return Standard.
func Preset(name string) (Table, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || key == "standard" {
		return Standard(), nil
	}
	notes, ok := presets[key]
	if !ok {
		return Table{}, fmt.Errorf("%w: unknown preset %q", ErrInvalidTable, name)
	}
	return TableFromNotes(notes[:]...)
}

// PresetNames lists the known presets, sorted.
func PresetNames() []string {
	names := []string{"standard"}
	for k := range presets {
		names = append(names, k)
	}
	sort.Strings(names[1:])
	return names
}

// Pitch returns the reference for string s (1..6).
func (t Table) Pitch(s int) (Pitch, bool) {
	if !ValidString(s) {
		return Pitch{}, false
	}
	return t.pitches[s-1], true
}

// Pitches returns a copy of the table ordered string 1..6.
func (t Table) Pitches() []Pitch {
	out := make([]Pitch, NumStrings)
	copy(out, t.pitches[:])
	return out
}

// IsZero reports whether t was never initialised.
func (t Table) IsZero() bool {
	return t.pitches[0].Frequency == 0
}

// ValidString reports whether s is a string number in 1..6.
func ValidString(s int) bool {
	return s >= 1 && s <= NumStrings
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
