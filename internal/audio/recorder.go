package audio

import (
	"fmt"
	"io"
	"math"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	DefaultRenderRate = 22050
	fadeMs            = 5
)

// Segment is one scheduled sound.
type Segment struct {
	Kind       string // "tone" or "beep"
	Hz         float64
	StartMs    uint64
	DurationMs uint32
}

// EndMs is when the segment stops sounding.
func (s Segment) EndMs() uint64 { return s.StartMs + uint64(s.DurationMs) }

// ToneRecorder is an audio output that renders to a WAV file instead of a
// speaker. Calls are timed by Clock; a call made while an earlier sound is
// still playing is queued behind it. StopAll cuts everything at the current
// time.
type ToneRecorder struct {
	clock    Clock
	origin   uint64
	segments []Segment
	cursor   uint64
	stops    int
}

func NewToneRecorder(clock Clock) *ToneRecorder {
	now := clock.NowMs()
	return &ToneRecorder{clock: clock, origin: now, cursor: now}
}

func (r *ToneRecorder) PlayTone(hz float64, durationMs uint32) { r.schedule("tone", hz, durationMs) }
func (r *ToneRecorder) PlayBeep(hz float64, durationMs uint32) { r.schedule("beep", hz, durationMs) }

func (r *ToneRecorder) schedule(kind string, hz float64, durationMs uint32) {
	if hz <= 0 || durationMs == 0 {
		return
	}
	start := r.clock.NowMs()
	if r.cursor > start {
		start = r.cursor
	}
	seg := Segment{Kind: kind, Hz: hz, StartMs: start, DurationMs: durationMs}
	r.segments = append(r.segments, seg)
	r.cursor = seg.EndMs()
}

func (r *ToneRecorder) StopAll() {
	now := r.clock.NowMs()
	kept := r.segments[:0]
	for _, s := range r.segments {
		switch {
		case s.StartMs >= now:
			continue
		case s.EndMs() > now:
			s.DurationMs = uint32(now - s.StartMs)
		}
		kept = append(kept, s)
	}
	r.segments = kept
	r.cursor = now
	r.stops++
}

// Segments returns the sounds scheduled so far.
func (r *ToneRecorder) Segments() []Segment {
	return append([]Segment(nil), r.segments...)
}

// Stops counts StopAll calls.
func (r *ToneRecorder) Stops() int { return r.stops }

// EndMs is when the last sound ends, or the origin if nothing was played.
func (r *ToneRecorder) EndMs() uint64 {
	end := r.origin
	for _, s := range r.segments {
		if e := s.EndMs(); e > end {
			end = e
		}
	}
	return end
}

// Render synthesises every segment into 16-bit mono PCM at rate.
func (r *ToneRecorder) Render(rate int) []int {
	total := int((r.EndMs() - r.origin) * uint64(rate) / 1000)
	mix := make([]float64, total)
	fade := fadeMs * rate / 1000

	for _, s := range r.segments {
		amp := 0.45
		if s.Kind == "beep" {
			amp = 0.6
		}
		first := int((s.StartMs - r.origin) * uint64(rate) / 1000)
		n := int(uint64(s.DurationMs) * uint64(rate) / 1000)
		for i := 0; i < n && first+i < total; i++ {
			env := 1.0
			if fade > 0 {
				if i < fade {
					env = float64(i) / float64(fade)
				} else if n-i < fade {
					env = float64(n-i) / float64(fade)
				}
			}
			mix[first+i] += amp * env * math.Sin(2*math.Pi*s.Hz*float64(i)/float64(rate))
		}
	}

	out := make([]int, total)
	for i, v := range mix {
		v = math.Max(-1, math.Min(1, v))
		out[i] = int(v * 32767)
	}
	return out
}

// WriteWAV renders the recording and encodes it as 16-bit mono WAV.
func (r *ToneRecorder) WriteWAV(w io.WriteSeeker, rate int) error {
	if rate <= 0 {
		rate = DefaultRenderRate
	}
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: rate},
		Data:           r.Render(rate),
		SourceBitDepth: 16,
	}

	enc := wav.NewEncoder(w, rate, 16, 1, 1)
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encoding wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalising wav: %w", err)
	}
	return nil
}

// SaveWAV writes the recording to path.
func (r *ToneRecorder) SaveWAV(path string, rate int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := r.WriteWAV(f, rate); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteClipWAV encodes a clip as 16-bit mono WAV. Tests and the synth
// command use it to produce input recordings.
func WriteClipWAV(w io.WriteSeeker, c *Clip) error {
	data := make([]int, len(c.Samples))
	for i, s := range c.Samples {
		data[i] = int(s)
	}
	enc := wav.NewEncoder(w, c.SampleRate, 16, 1, 1)
	if err := enc.Write(&goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: c.SampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}); err != nil {
		return fmt.Errorf("encoding wav: %w", err)
	}
	return enc.Close()
}
