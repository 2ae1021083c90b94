package audio

import (
	"math"

	"github.com/himanishpuri/AudibleTuner/internal/spectral"
)

// Note is one stretch of a synthetic recording. Hz <= 0 is silence.
type Note struct {
	Hz         float64
	DurationMs int
	// Amplitude in PCM units; 0 means 8000.
	Amplitude float64
}

// Synthesize builds a clip of plucked-string-like tones: a fundamental with
// two weaker harmonics under an exponential decay.
func Synthesize(rate int, notes ...Note) *Clip {
	var samples spectral.SampleBlock
	for _, n := range notes {
		count := n.DurationMs * rate / 1000
		amp := n.Amplitude
		if amp == 0 {
			amp = 8000
		}
		for i := 0; i < count; i++ {
			if n.Hz <= 0 {
				samples = append(samples, 0)
				continue
			}
			t := float64(i) / float64(rate)
			decay := math.Exp(-t * 0.8)
			v := math.Sin(2*math.Pi*n.Hz*t) +
				0.3*math.Sin(2*math.Pi*2*n.Hz*t) +
				0.1*math.Sin(2*math.Pi*3*n.Hz*t)
			samples = append(samples, int16(amp*decay*v/1.4))
		}
	}
	return &Clip{SampleRate: rate, Samples: samples, SourceChannels: 1, SourceBitDepth: 16}
}
