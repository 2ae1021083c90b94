package note

import (
	"errors"
	"math"
	"testing"
)

func almostEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func TestParseStandardTuningNotes(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"E2", 82.41},
		{"A2", 110.00},
		{"D3", 146.83},
		{"G3", 196.00},
		{"B3", 246.94},
		{"E4", 329.63},
		{"A4", 440.00},
		{"C5", 523.25},
	}
	for _, tc := range cases {
		n, err := Parse(tc.in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tc.in, err)
		}
		if got := n.Frequency(); !almostEqual(got, tc.want, 0.01) {
			t.Errorf("%s frequency = %.3f, want %.2f", tc.in, got, tc.want)
		}
		if n.String() != tc.in {
			t.Errorf("String() = %q, want %q", n.String(), tc.in)
		}
	}
}

func TestParseAccidentals(t *testing.T) {
	sharp, err := Parse("f#3")
	if err != nil {
		t.Fatalf("Parse(f#3): %v", err)
	}
	flat, err := Parse("Gb3")
	if err != nil {
		t.Fatalf("Parse(Gb3): %v", err)
	}
	if sharp.MIDI() != flat.MIDI() {
		t.Errorf("F#3 (%d) and Gb3 (%d) should be enharmonic", sharp.MIDI(), flat.MIDI())
	}
	if sharp.String() != "F#3" {
		t.Errorf("String() = %q, want F#3", sharp.String())
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	for _, in := range []string{"", "H2", "E", "E#", "E9", "E22", "Ex2"} {
		if _, err := Parse(in); !errors.Is(err, ErrInvalidNote) {
			t.Errorf("Parse(%q) err = %v, want ErrInvalidNote", in, err)
		}
	}
	if f := Frequency("nope"); f != 0 {
		t.Errorf("Frequency(nope) = %v, want 0", f)
	}
}

func TestNearest(t *testing.T) {
	n, cents, ok := Nearest(445)
	if !ok {
		t.Fatal("Nearest(445) not ok")
	}
	if n.String() != "A4" {
		t.Errorf("Nearest(445) = %s, want A4", n)
	}
	if !almostEqual(cents, 19.56, 0.05) {
		t.Errorf("cents = %.3f, want ~19.56", cents)
	}

	n, _, ok = Nearest(77.78)
	if !ok || n.String() != "D#2" {
		t.Errorf("Nearest(77.78) = %s (ok=%v), want D#2", n, ok)
	}

	if _, _, ok := Nearest(0); ok {
		t.Error("Nearest(0) should not be ok")
	}
	if _, _, ok := Nearest(-12); ok {
		t.Error("Nearest(-12) should not be ok")
	}
}
