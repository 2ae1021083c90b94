package tuning

import (
	"errors"
	"testing"
)

func TestStandardTable(t *testing.T) {
	tbl := Standard()
	want := []Pitch{
		{"E4", 329.63}, {"B3", 246.94}, {"G3", 196.00},
		{"D3", 146.83}, {"A2", 110.00}, {"E2", 82.41},
	}
	for i, p := range tbl.Pitches() {
		if p != want[i] {
			t.Errorf("string %d = %+v, want %+v", i+1, p, want[i])
		}
	}

	if _, ok := tbl.Pitch(0); ok {
		t.Error("Pitch(0) should be out of range")
	}
	if p, ok := tbl.Pitch(6); !ok || p.Name != "E2" {
		t.Errorf("Pitch(6) = %+v, %v", p, ok)
	}
}

func TestPitchesReturnsCopy(t *testing.T) {
	tbl := Standard()
	ps := tbl.Pitches()
	ps[0].Frequency = 1
	if p, _ := tbl.Pitch(1); p.Frequency != 329.63 {
		t.Errorf("table mutated through Pitches(): %v", p.Frequency)
	}
}

func TestNewTableValidation(t *testing.T) {
	cases := map[string][]Pitch{
		"too few":    {{"E4", 329.63}},
		"zero":       {{"E4", 329.63}, {"B3", 0}, {"G3", 196}, {"D3", 146.83}, {"A2", 110}, {"E2", 82.41}},
		"not sorted": {{"E2", 82.41}, {"A2", 110}, {"D3", 146.83}, {"G3", 196}, {"B3", 246.94}, {"E4", 329.63}},
		"duplicate":  {{"E4", 329.63}, {"B3", 246.94}, {"B3", 246.94}, {"D3", 146.83}, {"A2", 110}, {"E2", 82.41}},
	}
	for name, ps := range cases {
		if _, err := NewTable(ps); !errors.Is(err, ErrInvalidTable) {
			t.Errorf("%s: err = %v, want ErrInvalidTable", name, err)
		}
	}
}

func TestTableFromNotesMatchesStandard(t *testing.T) {
	tbl, err := TableFromNotes("E4", "B3", "G3", "D3", "A2", "E2")
	if err != nil {
		t.Fatalf("TableFromNotes: %v", err)
	}
	if tbl != Standard() {
		t.Errorf("TableFromNotes = %+v, want Standard()", tbl.Pitches())
	}

	if _, err := TableFromNotes("E4", "B3", "G3", "D3", "A2", "X2"); !errors.Is(err, ErrInvalidTable) {
		t.Errorf("bad note err = %v", err)
	}
}

func TestPresets(t *testing.T) {
	for _, name := range PresetNames() {
		tbl, err := Preset(name)
		if err != nil {
			t.Errorf("Preset(%q): %v", name, err)
			continue
		}
		if tbl.IsZero() {
			t.Errorf("Preset(%q) is empty", name)
		}
	}

	drop, _ := Preset("Drop-D")
	if p, _ := drop.Pitch(6); p.Name != "D2" || p.Frequency != 73.42 {
		t.Errorf("drop-d string 6 = %+v", p)
	}

	if _, err := Preset("banjo"); !errors.Is(err, ErrInvalidTable) {
		t.Errorf("unknown preset err = %v", err)
	}
}
