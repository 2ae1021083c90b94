package sim

import "testing"

func TestTimedButtonsEdges(t *testing.T) {
	clk := NewClock(0)
	b := NewTimedButtons(clk, Hold{ID: 3, StartMs: 100, DurationMs: 50})

	if _, ok := b.Poll(); ok {
		t.Fatal("no edge before the hold starts")
	}

	clk.Set(100)
	ev, ok := b.Poll()
	if !ok || ev.ID != 3 || !ev.Pressed {
		t.Fatalf("press edge = %+v, %v", ev, ok)
	}
	if _, ok := b.Poll(); ok {
		t.Error("press edge delivered twice")
	}
	if !b.IsPressed(3) || b.IsPressed(2) {
		t.Error("pressed state wrong during hold")
	}

	clk.Set(150)
	if b.IsPressed(3) {
		t.Error("hold should have ended")
	}
	ev, ok = b.Poll()
	if !ok || ev.Pressed {
		t.Fatalf("release edge = %+v, %v", ev, ok)
	}
	if b.End() != 150 {
		t.Errorf("End = %d, want 150", b.End())
	}
}

func TestFrequenciesFeed(t *testing.T) {
	f := NewFrequencies(110, 0)
	f.Fallback = -1
	got := []float64{f.ReadFrequency(), f.ReadFrequency(), f.ReadFrequency()}
	want := []float64{110, 0, -1}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("read %d = %v, want %v", i, got[i], want[i])
		}
	}
	f.Set(82.41)
	if f.ReadFrequency() != 82.41 || f.Reads != 4 {
		t.Errorf("after Set: reads=%d", f.Reads)
	}
}

func TestButtonsQueue(t *testing.T) {
	b := NewButtons()
	b.Press(1)
	b.Release(1)
	if ev, _ := b.Poll(); !ev.Pressed {
		t.Error("first edge should be a press")
	}
	if ev, _ := b.Poll(); ev.Pressed {
		t.Error("second edge should be a release")
	}
	if b.IsPressed(1) {
		t.Error("button should be up")
	}
}
