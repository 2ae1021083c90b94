package cue

import (
	"testing"

	"github.com/himanishpuri/AudibleTuner/internal/tuning"
)

type call struct {
	beep bool
	hz   float64
	ms   uint32
}

type recorder struct{ calls []call }

func (r *recorder) PlayTone(hz float64, ms uint32) { r.calls = append(r.calls, call{false, hz, ms}) }
func (r *recorder) PlayBeep(hz float64, ms uint32) { r.calls = append(r.calls, call{true, hz, ms}) }

func TestPlayPreservesOrderAndKind(t *testing.T) {
	rec := &recorder{}
	InTune.Play(rec)
	want := []call{{false, 523, 100}, {false, 659, 100}, {false, 784, 200}}
	if len(rec.calls) != len(want) {
		t.Fatalf("got %d calls, want %d", len(rec.calls), len(want))
	}
	for i := range want {
		if rec.calls[i] != want[i] {
			t.Errorf("call %d = %+v, want %+v", i, rec.calls[i], want[i])
		}
	}
	if InTune.DurationMs() != 400 {
		t.Errorf("DurationMs = %d, want 400", InTune.DurationMs())
	}
}

func TestReadyBeep(t *testing.T) {
	rec := &recorder{}
	DefaultSet().Ready.Play(rec)
	if len(rec.calls) != 1 || rec.calls[0] != (call{true, 1000, 200}) {
		t.Errorf("ready cue = %+v", rec.calls)
	}
}

func TestStringIdentifier(t *testing.T) {
	for s := 1; s <= 6; s++ {
		c := StringIdentifier(s)
		if len(c) != s {
			t.Errorf("string %d: %d beeps", s, len(c))
		}
		for _, tn := range c {
			if !tn.Beep || tn.Hz != 800 {
				t.Errorf("string %d: unexpected tone %+v", s, tn)
			}
		}
	}
	if StringIdentifier(0) != nil || StringIdentifier(7) != nil {
		t.Error("out-of-range strings should have no identifier")
	}
}

func TestDirectionAndCentsIndicator(t *testing.T) {
	if d := Direction(tuning.Up); d[0].Hz >= d[1].Hz {
		t.Errorf("tune-up cue should rise: %+v", d)
	}
	if d := Direction(tuning.Down); d[0].Hz <= d[1].Hz {
		t.Errorf("tune-down cue should fall: %+v", d)
	}
	if Direction(tuning.Unknown) != nil {
		t.Error("unknown direction should be silent")
	}

	for cents, beeps := range map[float64]int{10: 1, -20: 2, 80: 3} {
		if got := len(CentsIndicator(cents)); got != beeps {
			t.Errorf("CentsIndicator(%v) has %d tones, want %d", cents, got, beeps)
		}
	}
	if c := CentsIndicator(1); len(c) != 1 || c[0].Beep {
		t.Errorf("in-tune indicator = %+v", c)
	}
}

func TestDescribe(t *testing.T) {
	r := tuning.Result{DetectedString: 2, TargetString: 2, CentsOffset: -30, Direction: tuning.Up}
	c := Describe(r)
	want := len(StringIdentifier(2)) + len(CentsIndicator(-30)) + len(TuneUp)
	if len(c) != want {
		t.Errorf("Describe has %d tones, want %d", len(c), want)
	}

	if got := Describe(tuning.Result{}); len(got) != len(Warning) {
		t.Errorf("Describe(unknown) = %+v, want the warning cue", got)
	}
}

func TestNamedVocabulary(t *testing.T) {
	named := Named()
	for _, k := range []string{"ready", "warning", "in-tune", "tune-up", "tune-down", "string-1", "string-6"} {
		if len(named[k]) == 0 {
			t.Errorf("missing cue %q", k)
		}
	}
}
