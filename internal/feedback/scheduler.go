package feedback

import "github.com/himanishpuri/AudibleTuner/internal/tuning"

// Beep is a request to sound one feedback beep now.
type Beep struct {
	FrequencyHz float64
	DurationMs  uint32
	Cadence     Cadence
}

// Scheduler owns the last-beep timestamp. It is not safe for concurrent use.
type Scheduler struct {
	beepHz     float64
	durationMs uint32
	lastBeep   uint64
	armed      bool
}

type Option func(*Scheduler)

func WithBeepTone(hz float64, durationMs uint32) Option {
	return func(s *Scheduler) {
		if hz > 0 {
			s.beepHz = hz
		}
		if durationMs > 0 {
			s.durationMs = durationMs
		}
	}
}

func NewScheduler(opts ...Option) *Scheduler {
	s := &Scheduler{beepHz: DefaultBeepHz, durationMs: DefaultBeepDurationMs}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Cadence returns the cadence this scheduler would use for result.
func (s *Scheduler) Cadence(result tuning.Result) Cadence {
	if !result.Valid() {
		return Cadence{}
	}
	return cadenceFor(result.CentsOffset, s.durationMs)
}

// Tick emits a beep when at least one interval has passed since the last
// one. The first tick after Reset beeps immediately. A silent cadence never
// beeps and leaves the timestamp alone.
func (s *Scheduler) Tick(nowMs uint64, result tuning.Result) (Beep, bool) {
	c := s.Cadence(result)
	if c.Silent() {
		return Beep{}, false
	}
	if s.armed && nowMs >= s.lastBeep && nowMs-s.lastBeep < uint64(c.IntervalMs) {
		return Beep{}, false
	}
	s.lastBeep = nowMs
	s.armed = true
	return Beep{FrequencyHz: s.beepHz, DurationMs: c.BeepDurationMs, Cadence: c}, true
}

// Reset forgets the last beep.
func (s *Scheduler) Reset() {
	s.lastBeep = 0
	s.armed = false
}

// LastBeep returns the timestamp of the last emitted beep.
func (s *Scheduler) LastBeep() (uint64, bool) {
	return s.lastBeep, s.armed
}
