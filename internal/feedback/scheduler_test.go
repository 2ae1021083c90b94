package feedback

import (
	"math"
	"testing"

	"github.com/himanishpuri/AudibleTuner/internal/tuning"
)

func resultWithCents(c float64) tuning.Result {
	return tuning.Result{
		DetectedString: 5, TargetString: 5,
		DetectedFrequency: 110 * math.Pow(2, c/1200), TargetFrequency: 110,
		CentsOffset: c, Direction: tuning.Classify(c, tuning.DefaultToleranceCents),
		NoteName: "A2",
	}
}

func TestBeepIntervalTable(t *testing.T) {
	cases := []struct {
		cents float64
		want  uint32
	}{
		{150, 100}, {100, 100}, {99.9, 150}, {80, 150}, {75, 150},
		{60, 200}, {50, 200}, {45, 300}, {40, 300}, {30, 500}, {25, 500},
		{20, 800}, {15, 800}, {10, 1200}, {5, 1200}, {4.99, 0}, {3, 0}, {0, 0},
	}
	for _, tc := range cases {
		for _, sign := range []float64{1, -1} {
			c := BeepInterval(sign * tc.cents)
			if c.IntervalMs != tc.want {
				t.Errorf("BeepInterval(%v).IntervalMs = %d, want %d", sign*tc.cents, c.IntervalMs, tc.want)
			}
			if tc.want != 0 && c.BeepDurationMs != DefaultBeepDurationMs {
				t.Errorf("BeepInterval(%v).BeepDurationMs = %d", sign*tc.cents, c.BeepDurationMs)
			}
		}
	}

	if !BeepInterval(math.NaN()).Silent() {
		t.Error("NaN cents should be silent")
	}
}

func TestBeepIntervalIsMonotonic(t *testing.T) {
	prev := uint32(0)
	for c := 0.0; c <= 200; c += 0.5 {
		cur := BeepInterval(c).IntervalMs
		if c >= 5 && prev != 0 && cur > prev {
			t.Fatalf("interval rose from %d to %d at %.1f cents", prev, cur, c)
		}
		prev = cur
	}
}

func TestCadenceIsPureFunctionOfCents(t *testing.T) {
	s := NewScheduler()
	r := resultWithCents(-33)
	if a, b := s.Cadence(r), s.Cadence(r); a != b {
		t.Errorf("cadence differs across calls: %+v vs %+v", a, b)
	}
	if s.Cadence(r) != BeepInterval(r.CentsOffset) {
		t.Errorf("scheduler cadence %+v != BeepInterval %+v", s.Cadence(r), BeepInterval(r.CentsOffset))
	}
}

func TestSchedulerTickPacing(t *testing.T) {
	s := NewScheduler()
	r := resultWithCents(30) // 500 ms

	type step struct {
		now  uint64
		beep bool
	}
	steps := []step{
		{1000, true}, // first tick beeps at once
		{1100, false},
		{1499, false},
		{1500, true},
		{1999, false},
		{2000, true},
	}
	for _, st := range steps {
		b, ok := s.Tick(st.now, r)
		if ok != st.beep {
			t.Fatalf("Tick(%d) beeped = %v, want %v", st.now, ok, st.beep)
		}
		if ok && (b.FrequencyHz != DefaultBeepHz || b.DurationMs != DefaultBeepDurationMs) {
			t.Errorf("beep = %+v", b)
		}
	}
	if last, ok := s.LastBeep(); !ok || last != 2000 {
		t.Errorf("LastBeep = %d, %v", last, ok)
	}
}

func TestSchedulerFollowsChangingCadence(t *testing.T) {
	s := NewScheduler()
	if _, ok := s.Tick(0, resultWithCents(120)); !ok {
		t.Fatal("first tick should beep")
	}
	// Moving closer to pitch stretches the interval to 1200 ms.
	if _, ok := s.Tick(500, resultWithCents(8)); ok {
		t.Error("should not beep 500 ms into a 1200 ms interval")
	}
	if _, ok := s.Tick(1200, resultWithCents(8)); !ok {
		t.Error("should beep after 1200 ms")
	}
}

func TestSchedulerSilentWhenInTune(t *testing.T) {
	s := NewScheduler()
	for now := uint64(0); now < 5000; now += 10 {
		if _, ok := s.Tick(now, resultWithCents(1)); ok {
			t.Fatalf("beeped at %d while in tune", now)
		}
	}
	if _, ok := s.Tick(6000, tuning.Result{}); ok {
		t.Error("unknown result should not beep")
	}
	if _, armed := s.LastBeep(); armed {
		t.Error("silent ticks must not touch the timestamp")
	}
}

func TestSchedulerResetAndCustomTone(t *testing.T) {
	s := NewScheduler(WithBeepTone(1000, 80))
	r := resultWithCents(-110)

	if b, ok := s.Tick(10, r); !ok || b.FrequencyHz != 1000 || b.DurationMs != 80 {
		t.Fatalf("Tick = %+v, %v", b, ok)
	}
	if _, ok := s.Tick(20, r); ok {
		t.Error("should wait one interval")
	}
	s.Reset()
	if _, ok := s.Tick(20, r); !ok {
		t.Error("first tick after Reset should beep")
	}
}

func TestSchedulerClockGoingBackwards(t *testing.T) {
	s := NewScheduler()
	r := resultWithCents(60)
	s.Tick(5000, r)
	if _, ok := s.Tick(100, r); !ok {
		t.Error("a clock reset should re-sync and beep instead of underflowing")
	}
}
