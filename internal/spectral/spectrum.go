package spectral

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// SampleBlock is one capture of signed 16-bit PCM, mono.
type SampleBlock []int16

// Float64 converts the block to float64 samples.
func (b SampleBlock) Float64() []float64 {
	out := make([]float64, len(b))
	for i, s := range b {
		out[i] = float64(s)
	}
	return out
}

// FromFloat converts normalised [-1, 1] samples to a SampleBlock, clipping.
func FromFloat(x []float64) SampleBlock {
	b := make(SampleBlock, len(x))
	for i, v := range x {
		v *= 32767
		switch {
		case v > 32767:
			v = 32767
		case v < -32768:
			v = -32768
		}
		b[i] = int16(v)
	}
	return b
}

// RemoveDC subtracts the mean in place and returns the peak absolute value
// of what remains.
func RemoveDC(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	floats.AddConst(-stat.Mean(x, nil), x)
	hi, lo := floats.Max(x), floats.Min(x)
	if -lo > hi {
		return -lo
	}
	return hi
}

// Hann returns a Hann window of length n.
func Hann(n int) []float64 {
	if n <= 0 {
		return nil
	}
	return window.Hann(n)
}

// FFTReal wraps the go-dsp transform for real input.
func FFTReal(frame []float64) []complex128 {
	return fft.FFTReal(frame)
}

// MagnitudeSpectrum returns |X[k]| * scale for k in [0, n/2).
func MagnitudeSpectrum(spectrum []complex128, scale float64) []float64 {
	half := len(spectrum) / 2
	mag := make([]float64, half)
	for i := 0; i < half; i++ {
		mag[i] = cmplx.Abs(spectrum[i]) * scale
	}
	return mag
}

// decimate averages consecutive groups of factor samples. The boxcar doubles
// as a crude anti-alias filter.
func decimate(x []float64, factor int) []float64 {
	if factor <= 1 {
		return x
	}
	out := make([]float64, len(x)/factor)
	for i := range out {
		out[i] = stat.Mean(x[i*factor:(i+1)*factor], nil)
	}
	return out
}

// parabolicOffset fits a parabola through three neighbouring magnitudes and
// returns the vertex position relative to the centre bin, in (-0.5, 0.5).
func parabolicOffset(left, centre, right float64) float64 {
	den := left - 2*centre + right
	if den == 0 {
		return 0
	}
	d := 0.5 * (left - right) / den
	if d > 0.5 {
		return 0.5
	}
	if d < -0.5 {
		return -0.5
	}
	return d
}
