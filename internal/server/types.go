package server

import (
	"fmt"

	"github.com/himanishpuri/AudibleTuner/internal/tuning"
	"github.com/himanishpuri/AudibleTuner/pkg/models"
)

// Request limits for POST /api/detect.
const (
	MaxDetectSamples = 1 << 16
	MinDetectSamples = 8
)

// DetectRequest is the request body for POST /api/detect. Samples are
// floats in [-1, 1], interleaved when Channels is 2.
type DetectRequest struct {
	Samples    []float64 `json:"samples"`
	SampleRate int       `json:"sample_rate"`
	Channels   int       `json:"channels,omitempty"`
	String     int       `json:"string,omitempty"`
}

// Validate checks if the request is valid
func (r *DetectRequest) Validate() error {
	if r.Channels == 0 {
		r.Channels = 1
	}
	if r.Channels != 1 && r.Channels != 2 {
		return fmt.Errorf("channels must be 1 or 2, got %d", r.Channels)
	}
	if r.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be positive")
	}
	n := len(r.Samples) / r.Channels
	if n < MinDetectSamples {
		return fmt.Errorf("need at least %d samples per channel", MinDetectSamples)
	}
	if len(r.Samples) > MaxDetectSamples {
		return fmt.Errorf("too many samples: %d (maximum: %d)", len(r.Samples), MaxDetectSamples)
	}
	if r.String != 0 && !tuning.ValidString(r.String) {
		return fmt.Errorf("string must be 1..%d", tuning.NumStrings)
	}
	return nil
}

// JudgmentDTO is one tuning judgment.
type JudgmentDTO struct {
	Frequency      float64 `json:"frequency"`
	String         int     `json:"string"`
	DetectedString int     `json:"detected_string"`
	Note           string  `json:"note"`
	DetectedNote   string  `json:"detected_note"`
	TargetHz       float64 `json:"target_hz"`
	Cents          float64 `json:"cents"`
	Direction      string  `json:"direction"`
	Severity       string  `json:"severity"`
	BeepIntervalMs uint32  `json:"beep_interval_ms"`
	BeepMs         uint32  `json:"beep_ms"`
}

// DetectResponse is the response for POST /api/detect
type DetectResponse struct {
	Detected bool         `json:"detected"`
	Judgment *JudgmentDTO `json:"judgment,omitempty"`
}

// FrameDTO is one analysed block of an uploaded recording.
type FrameDTO struct {
	StartMs  float64      `json:"start_ms"`
	Judgment *JudgmentDTO `json:"judgment,omitempty"`
}

// AnalyzeResponse is the response for POST /api/analyze
type AnalyzeResponse struct {
	SampleRate  int        `json:"sample_rate"`
	DurationMs  int64      `json:"duration_ms"`
	Blocks      int        `json:"blocks"`
	Detected    int        `json:"detected"`
	TopString   int        `json:"top_string,omitempty"`
	MedianHz    float64    `json:"median_hz,omitempty"`
	MedianCents float64    `json:"median_cents,omitempty"`
	Frames      []FrameDTO `json:"frames,omitempty"`
}

// PitchDTO is one row of the reference table.
type PitchDTO struct {
	String    int     `json:"string"`
	Note      string  `json:"note"`
	Frequency float64 `json:"frequency"`
}

// TuningsResponse is the response for GET /api/tunings
type TuningsResponse struct {
	Active  []PitchDTO `json:"active"`
	Presets []string   `json:"presets"`
}

// ListSessionsResponse is the response for GET /api/sessions
type ListSessionsResponse struct {
	Sessions []models.SessionRecord `json:"sessions"`
	Count    int                    `json:"count"`
}

// StatsResponse is the response for GET /api/stats
type StatsResponse struct {
	Strings []models.StringStats `json:"strings"`
}

// DeleteSessionResponse is the response for DELETE /api/sessions/{id}
type DeleteSessionResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

// ErrorResponse is the standard error response format
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}
