package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/himanishpuri/AudibleTuner/internal/audio"
	"github.com/himanishpuri/AudibleTuner/internal/feedback"
	"github.com/himanishpuri/AudibleTuner/internal/journal"
	"github.com/himanishpuri/AudibleTuner/internal/spectral"
	"github.com/himanishpuri/AudibleTuner/internal/tuning"
	"github.com/himanishpuri/AudibleTuner/pkg/models"
	"github.com/himanishpuri/AudibleTuner/pkg/utils"
)

const (
	defaultListLimit = 50
	maxDetectFFT     = 8192
)

// respondJSON writes a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Errorf("Failed to encode JSON response: %v", err)
	}
}

// respondError writes an error response
func (s *Server) respondError(w http.ResponseWriter, statusCode int, message string) {
	s.respondJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	})
}

// handleRoot handles GET /
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"service": "AudibleTuner API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"health":        "GET /health",
			"tunings":       "GET /api/tunings",
			"detect":        "POST /api/detect",
			"analyze":       "POST /api/analyze",
			"sessions":      "GET /api/sessions",
			"getSession":    "GET /api/sessions/{id}",
			"deleteSession": "DELETE /api/sessions/{id}",
			"stats":         "GET /api/stats",
		},
	})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"time":    time.Now().Format(time.RFC3339),
		"uptime":  time.Since(s.started).Round(time.Second).String(),
		"journal": s.sessions != nil,
	})
}

// handleTunings handles GET /api/tunings
func (s *Server) handleTunings(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, TuningsResponse{
		Active:  pitchDTOs(s.analyzer.Table()),
		Presets: tuning.PresetNames(),
	})
}

// handleDetect handles POST /api/detect
func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.uploadLimit())

	var req DetectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	samples := req.Samples
	if req.Channels == 2 {
		samples = downmix(samples)
	}

	cfg := s.detector.Config()
	cfg.SampleRate = req.SampleRate
	cfg.FFTSize = spectral.FitFFTSize(len(samples), maxDetectFFT)
	cfg.Reduction = spectral.Truncate
	// The configured band is in Hz and still applies at the request rate.
	a, err := spectral.New(cfg)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	det, ok := a.Detect(spectral.FromFloat(samples))
	if !ok {
		s.respondJSON(w, http.StatusOK, DetectResponse{Detected: false})
		return
	}
	s.respondJSON(w, http.StatusOK, DetectResponse{
		Detected: true,
		Judgment: s.judge(det.Frequency, req.String),
	})
}

// handleAnalyze handles POST /api/analyze. The recording is either the
// "audio" field of a multipart form or the raw request body.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	target, err := intParam(q.Get("string"), 0)
	if err != nil || (target != 0 && !tuning.ValidString(target)) {
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("string must be 1..%d", tuning.NumStrings))
		return
	}
	hopMs, err := intParam(q.Get("hop_ms"), 0)
	if err != nil || hopMs < 0 {
		s.respondError(w, http.StatusBadRequest, "hop_ms must be a non-negative integer")
		return
	}
	withFrames := q.Get("frames") == "true" || q.Get("frames") == "1"

	work, cleanup, err := utils.WorkDir("tuner-upload-")
	if err != nil {
		s.log.Errorf("Failed to create work dir: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to process upload")
		return
	}
	defer cleanup()

	path, err := s.saveUpload(w, r, work)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	clip, err := audio.Prepare(r.Context(), path, s.cfg.Audio.SampleRate, work,
		audio.LoadOptions{Normalize: s.cfg.Audio.Normalize})
	if err != nil {
		s.log.Warnf("Failed to decode upload: %v", err)
		status := http.StatusUnprocessableEntity
		if errors.Is(err, audio.ErrFFmpegNotFound) {
			status = http.StatusServiceUnavailable
		}
		s.respondError(w, status, fmt.Sprintf("Could not decode audio: %v", err))
		return
	}

	block := s.cfg.Audio.BlockSize
	hop := hopMs * clip.SampleRate / 1000
	if hop <= 0 {
		hop = block
	}

	resp := AnalyzeResponse{
		SampleRate: clip.SampleRate,
		DurationMs: clip.Duration().Milliseconds(),
	}
	votes := map[int]int{}
	var freqs, cents []float64
	for _, f := range clip.Frames(block, hop) {
		resp.Blocks++
		freq, ok := s.detector.Analyze(f.Block)
		var j *JudgmentDTO
		if ok {
			j = s.judge(freq, target)
			resp.Detected++
			votes[j.DetectedString]++
			freqs = append(freqs, freq)
			cents = append(cents, j.Cents)
		}
		if withFrames {
			resp.Frames = append(resp.Frames, FrameDTO{StartMs: f.StartMs, Judgment: j})
		}
	}
	resp.TopString = tuning.MostFrequent(votes)
	resp.MedianHz = median(freqs)
	resp.MedianCents = median(cents)

	s.log.Debugf("analyzed upload: %d of %d blocks detected", resp.Detected, resp.Blocks)
	s.respondJSON(w, http.StatusOK, resp)
}

// saveUpload copies the recording into dir and returns its path.
func (s *Server) saveUpload(w http.ResponseWriter, r *http.Request, dir string) (string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.uploadLimit())

	var (
		src  io.Reader = r.Body
		name           = "upload.wav"
	)
	if ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); ct == "multipart/form-data" {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			return "", fmt.Errorf("failed to parse form data: %v", err)
		}
		file, header, err := r.FormFile("audio")
		if err != nil {
			return "", errors.New("audio file is required")
		}
		defer file.Close()
		src = file
		if ext := filepath.Ext(header.Filename); ext != "" {
			name = "upload" + strings.ToLower(ext)
		}
	}

	path := filepath.Join(dir, name)
	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to store upload: %v", err)
	}
	n, err := io.Copy(out, src)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %v", err)
	}
	if n == 0 {
		return "", errors.New("empty upload")
	}
	return path, nil
}

// handleListSessions handles GET /api/sessions?limit=&string=
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	if !s.requireJournal(w) {
		return
	}
	q := r.URL.Query()
	limit, err := intParam(q.Get("limit"), defaultListLimit)
	if err != nil || limit < 0 {
		s.respondError(w, http.StatusBadRequest, "limit must be a non-negative integer")
		return
	}
	str, err := intParam(q.Get("string"), 0)
	if err != nil || (str != 0 && !tuning.ValidString(str)) {
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("string must be 1..%d", tuning.NumStrings))
		return
	}

	var recs []models.SessionRecord
	if str != 0 {
		recs, err = s.sessions.ListByString(str, limit)
	} else {
		recs, err = s.sessions.List(limit)
	}
	if err != nil {
		s.log.Errorf("Failed to list sessions: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve sessions")
		return
	}
	s.respondJSON(w, http.StatusOK, ListSessionsResponse{Sessions: recs, Count: len(recs)})
}

// handleGetSession handles GET /api/sessions/{id}
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	if !s.requireJournal(w) {
		return
	}
	id := r.PathValue("id")
	if !utils.ValidID(id) {
		s.respondError(w, http.StatusBadRequest, "Invalid session ID")
		return
	}

	rec, err := s.sessions.Get(id)
	if err != nil {
		s.sessionError(w, id, err)
		return
	}
	s.respondJSON(w, http.StatusOK, rec)
}

// handleDeleteSession handles DELETE /api/sessions/{id}
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if !s.requireJournal(w) {
		return
	}
	id := r.PathValue("id")
	if !utils.ValidID(id) {
		s.respondError(w, http.StatusBadRequest, "Invalid session ID")
		return
	}

	if err := s.sessions.Delete(id); err != nil {
		s.sessionError(w, id, err)
		return
	}
	s.log.Infof("Deleted session %s", id)
	s.respondJSON(w, http.StatusOK, DeleteSessionResponse{
		Message: "Session deleted successfully",
		ID:      id,
	})
}

// handleStats handles GET /api/stats
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if !s.requireJournal(w) {
		return
	}
	stats, err := s.sessions.Stats()
	if err != nil {
		s.log.Errorf("Failed to compute stats: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to compute stats")
		return
	}
	if stats == nil {
		stats = []models.StringStats{}
	}
	s.respondJSON(w, http.StatusOK, StatsResponse{Strings: stats})
}

func (s *Server) requireJournal(w http.ResponseWriter) bool {
	if s.sessions == nil {
		s.respondError(w, http.StatusServiceUnavailable, ErrNoJournal.Error())
		return false
	}
	return true
}

func (s *Server) sessionError(w http.ResponseWriter, id string, err error) {
	if errors.Is(err, journal.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, fmt.Sprintf("Session %s not found", id))
		return
	}
	s.log.Errorf("Session %s: %v", id, err)
	s.respondError(w, http.StatusInternalServerError, "Failed to access session journal")
}

func (s *Server) uploadLimit() int64 {
	return int64(s.cfg.Server.MaxUploadMB) << 20
}

// judge turns a detected frequency into the response DTO.
func (s *Server) judge(freq float64, target int) *JudgmentDTO {
	r := s.analyzer.Analyze(freq, target)
	c := feedback.BeepInterval(r.CentsOffset)
	return &JudgmentDTO{
		Frequency:      freq,
		String:         r.TargetString,
		DetectedString: r.DetectedString,
		Note:           r.NoteName,
		DetectedNote:   r.DetectedNote,
		TargetHz:       r.TargetFrequency,
		Cents:          r.CentsOffset,
		Direction:      r.Direction.String(),
		Severity:       tuning.SeverityOf(r.CentsOffset).String(),
		BeepIntervalMs: c.IntervalMs,
		BeepMs:         c.BeepDurationMs,
	}
}

func pitchDTOs(t tuning.Table) []PitchDTO {
	pitches := t.Pitches()
	out := make([]PitchDTO, len(pitches))
	for i, p := range pitches {
		out[i] = PitchDTO{String: i + 1, Note: p.Name, Frequency: p.Frequency}
	}
	return out
}

func intParam(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	return strconv.Atoi(s)
}

// downmix averages interleaved stereo pairs; a trailing odd sample is dropped.
func downmix(stereo []float64) []float64 {
	mono := make([]float64, len(stereo)/2)
	for i := range mono {
		mono[i] = (stereo[2*i] + stereo[2*i+1]) / 2
	}
	return mono
}

func median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	return stat.Quantile(0.5, stat.Empirical, sorted, nil)
}
