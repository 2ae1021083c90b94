package audio

import (
	"io"

	"github.com/himanishpuri/AudibleTuner/internal/spectral"
)

// Clock is a monotonic millisecond source.
type Clock interface {
	NowMs() uint64
}

// ClipSource plays a Clip as if it were a live microphone: each Capture
// returns the BlockSize samples that ended at the clock's current time,
// measured from StartMs.
type ClipSource struct {
	Clip      *Clip
	Clock     Clock
	StartMs   uint64
	BlockSize int
	// Loop restarts the clip instead of reporting io.EOF.
	Loop bool
}

func NewClipSource(clip *Clip, clock Clock, blockSize int) *ClipSource {
	return &ClipSource{Clip: clip, Clock: clock, StartMs: clock.NowMs(), BlockSize: blockSize}
}

// Capture returns the most recent block. It reports io.EOF once the whole
// block lies past the end of the clip.
func (s *ClipSource) Capture() (spectral.SampleBlock, error) {
	now := s.Clock.NowMs()
	var offset uint64
	if now > s.StartMs {
		offset = now - s.StartMs
	}
	end := s.Clip.SampleAt(offset)
	n := len(s.Clip.Samples)
	if s.Loop && n > 0 {
		end %= n
		if end < s.BlockSize {
			end += n
		}
		return s.wrapped(end - s.BlockSize), nil
	}
	if end-s.BlockSize >= n {
		return nil, io.EOF
	}
	return s.Clip.Block(end-s.BlockSize, s.BlockSize), nil
}

func (s *ClipSource) wrapped(start int) spectral.SampleBlock {
	n := len(s.Clip.Samples)
	b := make(spectral.SampleBlock, s.BlockSize)
	for i := range b {
		b[i] = s.Clip.Samples[((start+i)%n+n)%n]
	}
	return b
}

// Frame is one analysis window of a clip.
type Frame struct {
	Index   int
	StartMs float64
	Block   spectral.SampleBlock
}

// Frames splits the clip into blocks of size samples every hop samples.
// The last partial block is zero-padded.
func (c *Clip) Frames(size, hop int) []Frame {
	if size <= 0 || hop <= 0 || len(c.Samples) == 0 {
		return nil
	}
	var frames []Frame
	for start, i := 0, 0; start < len(c.Samples); start, i = start+hop, i+1 {
		frames = append(frames, Frame{
			Index:   i,
			StartMs: float64(start) * 1000 / float64(c.SampleRate),
			Block:   c.Block(start, size),
		})
	}
	return frames
}
