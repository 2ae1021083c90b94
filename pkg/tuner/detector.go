package tuner

import (
	"errors"
	"io"

	"github.com/himanishpuri/AudibleTuner/internal/spectral"
)

// Detector is a FrequencyReader that captures a block from a SampleSource
// and runs it through the spectral analyzer on every read.
type Detector struct {
	source   SampleSource
	analyzer *spectral.Analyzer
	log      Logger

	last      spectral.Detection
	hasLast   bool
	failing   bool
	exhausted bool
}

func NewDetector(src SampleSource, a *spectral.Analyzer, log Logger) *Detector {
	return &Detector{source: src, analyzer: a, log: log}
}

// ReadFrequency returns the detected fundamental, or 0 when the block is
// unusable or capture failed. Capture errors are logged once per run of
// failures.
func (d *Detector) ReadFrequency() float64 {
	block, err := d.source.Capture()
	if err != nil {
		switch {
		case errors.Is(err, io.EOF):
			if !d.exhausted {
				d.log.Infof("input exhausted")
				d.exhausted = true
			}
		case !d.failing:
			d.log.Warnf("capture failed: %v", err)
		}
		d.failing = true
		d.hasLast = false
		return 0
	}
	if d.failing {
		d.log.Debugf("capture recovered")
		d.failing = false
	}

	det, ok := d.analyzer.Detect(block)
	d.last, d.hasLast = det, ok
	if !ok {
		return 0
	}
	return det.Frequency
}

// Last returns the detection behind the most recent read.
func (d *Detector) Last() (spectral.Detection, bool) {
	return d.last, d.hasLast
}
