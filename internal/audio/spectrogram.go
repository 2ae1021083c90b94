package audio

import (
	"errors"
	"fmt"
	"image"
	"image/draw"

	"github.com/eligwz/spectrogram"

	"github.com/himanishpuri/AudibleTuner/pkg/utils"
)

type SpectrogramOptions struct {
	Width  int // pixels, default 2048
	Height int // frequency bins, default 512
	// Log switches the magnitude scale to log10.
	Log bool
}

// RenderSpectrogram draws the clip as a PNG at path. Useful for checking
// what the detector saw in a recording.
func RenderSpectrogram(c *Clip, path string, opts SpectrogramOptions) error {
	if len(c.Samples) == 0 {
		return errors.New("render spectrogram: empty clip")
	}
	if opts.Width <= 0 {
		opts.Width = 2048
	}
	if opts.Height <= 0 {
		opts.Height = 512
	}

	samples := make([]float64, len(c.Samples))
	for i, s := range c.Samples {
		samples[i] = float64(s) / 32768
	}

	img := spectrogram.NewImage128(image.Rect(0, 0, opts.Width, opts.Height))
	black := spectrogram.ParseColor("000000")
	draw.Draw(img, img.Bounds(), image.NewUniform(black), image.Point{}, draw.Src)

	// Hamming window, FFT, magnitude.
	spectrogram.Drawfft(
		img,
		samples,
		uint32(c.SampleRate),
		uint32(opts.Height),
		false,
		false,
		true,
		opts.Log,
	)

	if err := utils.EnsureParent(path); err != nil {
		return err
	}
	if err := spectrogram.SavePng(img, path); err != nil {
		return fmt.Errorf("saving spectrogram: %w", err)
	}
	return nil
}
