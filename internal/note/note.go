// Package note converts between scientific pitch names ("E2", "F#3", "Bb4")
// and equal-tempered frequencies referenced to A4 = 440 Hz.
package note

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

const (
	A4Frequency  = 440.0
	A4MIDINumber = 69
	MinOctave    = 0
	MaxOctave    = 8
)

var ErrInvalidNote = errors.New("invalid note")

var semitoneFromC = map[byte]int{
	'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11,
}

var sharpNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// Name is a parsed note.
type Name struct {
	Letter     byte // upper-case A..G
	Accidental int  // -1 flat, 0 natural, +1 sharp
	Octave     int
}

func (n Name) String() string {
	s := string(n.Letter)
	switch n.Accidental {
	case 1:
		s += "#"
	case -1:
		s += "b"
	}
	return fmt.Sprintf("%s%d", s, n.Octave)
}

// MIDI returns the MIDI note number, C-1 = 0, A4 = 69.
func (n Name) MIDI() int {
	return (n.Octave+1)*12 + semitoneFromC[n.Letter] + n.Accidental
}

// Frequency returns the equal-tempered frequency in Hz.
func (n Name) Frequency() float64 {
	return MIDIFrequency(n.MIDI())
}

// MIDIFrequency computes 440 * 2^((m-69)/12).
func MIDIFrequency(midi int) float64 {
	return A4Frequency * math.Pow(2, float64(midi-A4MIDINumber)/12)
}

// Parse reads a note of the form <letter>[#|b]<octave>. The letter is
// case-insensitive; the octave is a single digit 0..8.
func Parse(s string) (Name, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Name{}, fmt.Errorf("%w: empty", ErrInvalidNote)
	}

	n := Name{Letter: upper(s[0])}
	if _, ok := semitoneFromC[n.Letter]; !ok {
		return Name{}, fmt.Errorf("%w: bad letter in %q", ErrInvalidNote, s)
	}

	i := 1
	if i < len(s) {
		switch s[i] {
		case '#':
			n.Accidental = 1
			i++
		case 'b':
			n.Accidental = -1
			i++
		}
	}

	if i != len(s)-1 || s[i] < '0' || s[i] > '9' {
		return Name{}, fmt.Errorf("%w: bad octave in %q", ErrInvalidNote, s)
	}
	n.Octave = int(s[i] - '0')
	if n.Octave < MinOctave || n.Octave > MaxOctave {
		return Name{}, fmt.Errorf("%w: octave %d out of range", ErrInvalidNote, n.Octave)
	}
	return n, nil
}

// Frequency parses s and returns its frequency, or 0 if s is not a valid note.
func Frequency(s string) float64 {
	n, err := Parse(s)
	if err != nil {
		return 0
	}
	return n.Frequency()
}

// Nearest returns the chromatic note closest to freq (sharps spelling) and
// the signed distance to it in cents. ok is false for freq <= 0.
func Nearest(freq float64) (n Name, cents float64, ok bool) {
	if freq <= 0 || math.IsNaN(freq) || math.IsInf(freq, 0) {
		return Name{}, 0, false
	}
	exact := A4MIDINumber + 12*math.Log2(freq/A4Frequency)
	midi := int(math.Round(exact))
	pc := ((midi % 12) + 12) % 12
	name := sharpNames[pc]

	n = Name{Letter: name[0], Octave: floorDiv(midi, 12) - 1}
	if len(name) == 2 {
		n.Accidental = 1
	}
	return n, (exact - float64(midi)) * 100, true
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}
