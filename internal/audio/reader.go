package audio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/transforms"
	"github.com/go-audio/wav"

	"github.com/himanishpuri/AudibleTuner/internal/spectral"
)

var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Clip is a decoded mono recording scaled to 16-bit PCM.
type Clip struct {
	SampleRate int
	Samples    spectral.SampleBlock
	// SourceChannels and SourceBitDepth describe the file before conversion.
	SourceChannels int
	SourceBitDepth int
}

type LoadOptions struct {
	// Normalize scales the loudest sample to just under full scale.
	Normalize bool
}

// Duration of the clip.
func (c *Clip) Duration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(c.Samples)) * time.Second / time.Duration(c.SampleRate)
}

// Block returns size samples starting at start, zero-padded past either end.
func (c *Clip) Block(start, size int) spectral.SampleBlock {
	b := make(spectral.SampleBlock, size)
	for i := range b {
		j := start + i
		if j >= 0 && j < len(c.Samples) {
			b[i] = c.Samples[j]
		}
	}
	return b
}

// SampleAt converts a millisecond offset to a sample index.
func (c *Clip) SampleAt(ms uint64) int {
	return int(ms * uint64(c.SampleRate) / 1000)
}

// LoadWAV decodes a PCM WAV file, downmixing to mono.
func LoadWAV(path string, opts LoadOptions) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening wav: %w", err)
	}
	defer f.Close()

	return DecodeWAV(f, opts)
}

// DecodeWAV decodes a PCM WAV stream, downmixing to mono.
func DecodeWAV(r io.ReadSeeker, opts LoadOptions) (*Clip, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: not a PCM wav file", ErrUnsupportedFormat)
	}

	bitDepth := int(dec.BitDepth)
	if bitDepth != 16 && bitDepth != 24 && bitDepth != 32 {
		return nil, fmt.Errorf("%w: %d-bit samples", ErrUnsupportedFormat, bitDepth)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("reading pcm: %w", err)
	}
	if buf == nil || buf.Format == nil || buf.Format.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: missing format", ErrUnsupportedFormat)
	}

	fb := buf.AsFloatBuffer()
	channels := fb.Format.NumChannels
	if channels > 1 {
		transforms.MonoDownmix(fb)
	}

	scale := 32768.0 / float64(int64(1)<<(bitDepth-1))
	if opts.Normalize {
		transforms.NormalizeMax(fb)
		scale = 32767 * 0.9
	}

	return &Clip{
		SampleRate:     fb.Format.SampleRate,
		Samples:        toInt16(fb, scale),
		SourceChannels: channels,
		SourceBitDepth: bitDepth,
	}, nil
}

func toInt16(fb *goaudio.FloatBuffer, scale float64) spectral.SampleBlock {
	out := make(spectral.SampleBlock, len(fb.Data))
	for i, v := range fb.Data {
		v *= scale
		switch {
		case v > 32767:
			v = 32767
		case v < -32768:
			v = -32768
		}
		out[i] = int16(v)
	}
	return out
}
