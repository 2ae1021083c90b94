package audio

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/himanishpuri/AudibleTuner/internal/spectral"
)

func TestToneRecorderQueuesAndStops(t *testing.T) {
	clk := &fixedClock{now: 1000}
	r := NewToneRecorder(clk)

	r.PlayTone(110, 1000)
	r.PlayBeep(1000, 200)
	r.PlayBeep(0, 200) // ignored

	segs := r.Segments()
	if len(segs) != 2 {
		t.Fatalf("segments = %d, want 2", len(segs))
	}
	if segs[1].StartMs != 2000 {
		t.Errorf("beep starts at %d, want 2000 (queued behind the tone)", segs[1].StartMs)
	}
	if r.EndMs() != 2200 {
		t.Errorf("EndMs = %d, want 2200", r.EndMs())
	}

	clk.now = 1500
	r.StopAll()
	segs = r.Segments()
	if len(segs) != 1 || segs[0].DurationMs != 500 {
		t.Fatalf("after StopAll: %+v", segs)
	}
	if r.Stops() != 1 {
		t.Errorf("Stops = %d", r.Stops())
	}

	r.PlayBeep(800, 50)
	if s := r.Segments()[1]; s.StartMs != 1500 || s.Kind != "beep" {
		t.Errorf("beep after stop = %+v", s)
	}
}

func TestToneRecorderRendersDetectablePitch(t *testing.T) {
	clk := &fixedClock{}
	r := NewToneRecorder(clk)
	r.PlayTone(196, 1000)

	path := filepath.Join(t.TempDir(), "cues.wav")
	if err := r.SaveWAV(path, 10000); err != nil {
		t.Fatalf("SaveWAV: %v", err)
	}
	clip, err := LoadWAV(path, LoadOptions{})
	if err != nil {
		t.Fatalf("LoadWAV: %v", err)
	}
	if len(clip.Samples) != 10000 {
		t.Fatalf("samples = %d, want 10000", len(clip.Samples))
	}

	a, err := spectral.New(spectral.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	freq, ok := a.Analyze(clip.Block(500, 256))
	if !ok {
		t.Fatal("no pitch detected in rendered tone")
	}
	if math.Abs(freq-196) > a.BinWidth(256)/2 {
		t.Errorf("detected %.1f Hz, want about 196", freq)
	}
}

func TestSynthesize(t *testing.T) {
	clip := Synthesize(10000, Note{Hz: 110, DurationMs: 1000}, Note{DurationMs: 500})
	if len(clip.Samples) != 15000 {
		t.Fatalf("samples = %d, want 15000", len(clip.Samples))
	}
	for _, s := range clip.Samples[10000:] {
		if s != 0 {
			t.Fatal("rest should be silent")
		}
	}

	cfg := spectral.DefaultConfig()
	cfg.Reduction = spectral.Decimate
	a, err := spectral.New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	freq, ok := a.Analyze(clip.Block(1000, 1024))
	if !ok {
		t.Fatal("no pitch detected")
	}
	if math.Abs(freq-110) > a.BinWidth(1024) {
		t.Errorf("detected %.1f Hz, want about 110", freq)
	}
	if _, ok := a.Analyze(clip.Block(12000, 1024)); ok {
		t.Error("silence should not yield a pitch")
	}
}

func TestRenderSpectrogram(t *testing.T) {
	clip := Synthesize(10000, Note{Hz: 196, DurationMs: 300})
	path := filepath.Join(t.TempDir(), "out", "g3.png")
	if err := RenderSpectrogram(clip, path, SpectrogramOptions{Width: 128, Height: 64}); err != nil {
		t.Fatalf("RenderSpectrogram: %v", err)
	}
	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		t.Fatalf("png missing or empty: %v", err)
	}
	if err := RenderSpectrogram(&Clip{SampleRate: 10000}, path, SpectrogramOptions{}); err == nil {
		t.Error("empty clip should fail")
	}
}
