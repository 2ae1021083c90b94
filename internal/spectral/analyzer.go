// Package spectral estimates the fundamental frequency of a single block of
// PCM samples with a windowed real FFT and a peak search.
package spectral

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

const (
	DefaultSampleRate   = 10000
	DefaultBlockSize    = 1024
	DefaultFFTSize      = 256
	DefaultMinAmplitude = 500
	DefaultMinMagnitude = 100
)

// Reduction selects how a block longer than the FFT is fitted to it.
type Reduction int

const (
	// Truncate keeps the first FFTSize samples.
	Truncate Reduction = iota
	// Decimate averages groups of samples so the whole block fits,
	// lowering the effective sample rate by the same factor.
	Decimate
)

func (r Reduction) String() string {
	if r == Decimate {
		return "decimate"
	}
	return "truncate"
}

// ParseReduction accepts "truncate" or "decimate".
func ParseReduction(s string) (Reduction, error) {
	switch s {
	case "", "truncate":
		return Truncate, nil
	case "decimate":
		return Decimate, nil
	}
	return Truncate, fmt.Errorf("unknown reduction %q", s)
}

type Config struct {
	SampleRate int
	FFTSize    int
	// MinAmplitude gates on the peak |sample| after DC removal, in PCM units.
	MinAmplitude float64
	// MinMagnitude gates on the winning bin, in the same units as the
	// amplitude of a sine (magnitudes are scaled by 2/sum(window)).
	MinMagnitude float64
	Reduction    Reduction
	Interpolate  bool
	// Optional search band in Hz; zero disables the bound.
	MinFrequency float64
	MaxFrequency float64
}

func DefaultConfig() Config {
	return Config{
		SampleRate:   DefaultSampleRate,
		FFTSize:      DefaultFFTSize,
		MinAmplitude: DefaultMinAmplitude,
		MinMagnitude: DefaultMinMagnitude,
		Reduction:    Truncate,
	}
}

func (c Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", c.SampleRate)
	}
	if c.FFTSize < 8 || c.FFTSize&(c.FFTSize-1) != 0 {
		return fmt.Errorf("fft size must be a power of two >= 8, got %d", c.FFTSize)
	}
	if c.MinAmplitude < 0 || c.MinMagnitude < 0 {
		return errors.New("amplitude and magnitude floors must be >= 0")
	}
	if c.MaxFrequency > 0 && c.MinFrequency >= c.MaxFrequency {
		return fmt.Errorf("min frequency %.1f must be below max frequency %.1f", c.MinFrequency, c.MaxFrequency)
	}
	return nil
}

// FitFFTSize returns the largest power of two that is at most n and at
// most limit, and never below 8.
func FitFFTSize(n, limit int) int {
	size := 8
	for size*2 <= n && size*2 <= limit {
		size *= 2
	}
	return size
}

// Detection describes the winning peak of one analysis.
type Detection struct {
	Frequency float64
	Bin       int
	Magnitude float64
	// Amplitude is the peak |sample| after DC removal.
	Amplitude float64
	// Rate is the sample rate the FFT actually saw.
	Rate float64
}

// Analyzer is safe for concurrent use; it holds only read-only state.
type Analyzer struct {
	cfg    Config
	window []float64
	wsum   float64
}

func New(cfg Config) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("spectral: %w", err)
	}
	w := Hann(cfg.FFTSize)
	return &Analyzer{cfg: cfg, window: w, wsum: floats.Sum(w)}, nil
}

func (a *Analyzer) Config() Config { return a.cfg }

// BinWidth is the resolution in Hz for a block of n samples.
func (a *Analyzer) BinWidth(n int) float64 {
	return a.effectiveRate(n) / float64(a.cfg.FFTSize)
}

// Analyze returns the detected fundamental, or false when the block is
// silent, too quiet, or has no clear peak.
func (a *Analyzer) Analyze(block SampleBlock) (float64, bool) {
	d, ok := a.Detect(block)
	if !ok {
		return 0, false
	}
	return d.Frequency, true
}

// Detect runs the full pipeline and reports the winning peak.
func (a *Analyzer) Detect(block SampleBlock) (Detection, bool) {
	if len(block) == 0 {
		return Detection{}, false
	}

	x := block.Float64()
	amp := RemoveDC(x)
	if amp < a.cfg.MinAmplitude || amp == 0 {
		return Detection{}, false
	}

	mags, rate := a.spectrum(x)
	n := a.cfg.FFTSize

	lo, hi := 1, n/2-1
	if a.cfg.MinFrequency > 0 {
		if b := int(math.Ceil(a.cfg.MinFrequency * float64(n) / rate)); b > lo {
			lo = b
		}
	}
	if a.cfg.MaxFrequency > 0 {
		if b := int(math.Floor(a.cfg.MaxFrequency * float64(n) / rate)); b < hi {
			hi = b
		}
	}
	if lo > hi {
		return Detection{}, false
	}

	bin := lo + floats.MaxIdx(mags[lo:hi+1])
	mag := mags[bin]
	if mag < a.cfg.MinMagnitude || mag == 0 {
		return Detection{}, false
	}

	pos := float64(bin)
	if a.cfg.Interpolate && bin+1 < len(mags) {
		pos += parabolicOffset(mags[bin-1], mag, mags[bin+1])
	}

	return Detection{
		Frequency: pos * rate / float64(n),
		Bin:       bin,
		Magnitude: mag,
		Amplitude: amp,
		Rate:      rate,
	}, true
}

// Spectrum returns the scaled magnitude spectrum (FFTSize/2 values) of a
// block and the rate it was computed at. The amplitude gate is not applied.
func (a *Analyzer) Spectrum(block SampleBlock) ([]float64, float64) {
	x := block.Float64()
	RemoveDC(x)
	return a.spectrum(x)
}

// spectrum expects DC already removed from x.
func (a *Analyzer) spectrum(x []float64) ([]float64, float64) {
	n := a.cfg.FFTSize
	rate := a.effectiveRate(len(x))
	if a.cfg.Reduction == Decimate {
		x = decimate(x, a.decimationFactor(len(x)))
	}

	m := len(x)
	if m > n {
		m = n
	}
	w, wsum := a.window, a.wsum
	if m < n {
		w = Hann(m)
		wsum = floats.Sum(w)
	}

	frame := make([]float64, n)
	copy(frame, x[:m])
	floats.Mul(frame[:m], w)

	scale := 0.0
	if wsum > 0 {
		scale = 2 / wsum
	}
	return MagnitudeSpectrum(FFTReal(frame), scale), rate
}

func (a *Analyzer) decimationFactor(n int) int {
	if n <= a.cfg.FFTSize {
		return 1
	}
	return n / a.cfg.FFTSize
}

func (a *Analyzer) effectiveRate(n int) float64 {
	rate := float64(a.cfg.SampleRate)
	if a.cfg.Reduction == Decimate {
		rate /= float64(a.decimationFactor(n))
	}
	return rate
}
