// Package controller sequences a tuning session: reference tone, ready
// signal, listening, note playback, continuous beep feedback and error
// recovery. It is a poll-driven state machine advanced by Tick; all waiting
// is elapsed-time arithmetic against the caller's millisecond clock.
package controller

import (
	"errors"
	"fmt"
	"math"

	"github.com/himanishpuri/AudibleTuner/internal/cue"
	"github.com/himanishpuri/AudibleTuner/internal/feedback"
	"github.com/himanishpuri/AudibleTuner/internal/tuning"
)

type Config struct {
	// Mode is used when no ModeSwitch is wired.
	Mode                 Mode
	ReferenceToneMs      uint32
	ReadyBeepMs          uint32
	PlayNotes            bool
	NotePlaybackMs       uint32
	WeakSignalMaxCount   int
	NoSignalTimeoutMs    uint32
	ErrorRecoveryDwellMs uint32
	InTuneNotifyCents    float64
	// AnnounceDirection plays the rising/falling cue when feedback starts.
	AnnounceDirection bool
	Cues              cue.Set
}

func DefaultConfig() Config {
	return Config{
		Mode:                 PlayTone,
		ReferenceToneMs:      1000,
		ReadyBeepMs:          200,
		PlayNotes:            true,
		NotePlaybackMs:       1000,
		WeakSignalMaxCount:   10,
		NoSignalTimeoutMs:    5000,
		ErrorRecoveryDwellMs: 2000,
		InTuneNotifyCents:    5,
		Cues:                 cue.DefaultSet(),
	}
}

func (c Config) Validate() error {
	if c.WeakSignalMaxCount < 1 {
		return fmt.Errorf("weak signal max count must be >= 1, got %d", c.WeakSignalMaxCount)
	}
	if c.NoSignalTimeoutMs == 0 {
		return errors.New("no-signal timeout must be > 0")
	}
	if c.InTuneNotifyCents < 0 {
		return errors.New("in-tune notify band must be >= 0")
	}
	if c.Mode != PlayTone && c.Mode != ListenOnly {
		return fmt.Errorf("unknown mode %d", c.Mode)
	}
	return nil
}

// Collaborators are the I/O ports the controller drives. Frequency, Audio and
// Buttons are required.
type Collaborators struct {
	Frequency FrequencyReader
	Audio     AudioOutput
	Buttons   ButtonInput
	Amplifier Amplifier
	Modes     ModeSwitch
	Tuning    *tuning.Analyzer
	Scheduler *feedback.Scheduler
	Logger    Logger
}

// Controller owns the only mutable session state. Not safe for concurrent use.
type Controller struct {
	cfg Config
	io  Collaborators
	s   Session
}

func New(cfg Config, io Collaborators) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("controller: %w", err)
	}
	if io.Frequency == nil || io.Audio == nil || io.Buttons == nil {
		return nil, errors.New("controller: frequency reader, audio output and buttons are required")
	}
	if io.Amplifier == nil {
		io.Amplifier = nopAmplifier{}
	}
	if io.Tuning == nil {
		a, err := tuning.NewAnalyzer()
		if err != nil {
			return nil, fmt.Errorf("controller: %w", err)
		}
		io.Tuning = a
	}
	if io.Scheduler == nil {
		io.Scheduler = feedback.NewScheduler()
	}
	if io.Logger == nil {
		io.Logger = nopLogger{}
	}
	return &Controller{cfg: cfg, io: io}, nil
}

// Session returns a copy of the current session state.
func (c *Controller) Session() Session { return c.s }

func (c *Controller) State() State { return c.s.State }

func (c *Controller) Config() Config { return c.cfg }

// Tick advances the state machine once. Button release is checked after the
// state's own logic and overrides whatever it decided.
func (c *Controller) Tick(nowMs uint64) Action {
	act := Action{From: c.s.State}

	switch c.s.State {
	case Idle:
		c.tickIdle(nowMs, &act)
	case PlayingReference:
		c.tickPlayingReference(nowMs, &act)
	case WaitingReadyBeep:
		c.tickWaitingReadyBeep(nowMs, &act)
	case Listening:
		c.tickListening(nowMs, &act)
	case PlaybackUserNote:
		c.tickPlaybackUserNote(nowMs, &act)
	case PlaybackTargetNote:
		c.tickPlaybackTargetNote(nowMs, &act)
	case ProvidingFeedback:
		c.tickProvidingFeedback(nowMs, &act)
	case ErrorRecovery:
		c.tickErrorRecovery(nowMs, &act)
	}

	if act.From != Idle && c.s.State != Idle && !c.io.Buttons.IsPressed(c.s.TargetString) {
		sum := c.endSession(nowMs)
		act.Ended = &sum
		act.Event = EventCancelled
		c.io.Logger.Infof("string %d released, session ended after %d ms", sum.TargetString, sum.DurationMs())
	}

	act.To = c.s.State
	if act.Changed() {
		c.io.Logger.Debugf("%s -> %s (%s)", act.From, act.To, act.Event)
	}
	return act
}

// Stop ends the current session as if the button had been released. It
// returns false when the controller is already idle.
func (c *Controller) Stop(nowMs uint64) (Summary, bool) {
	if c.s.State == Idle {
		return Summary{}, false
	}
	return c.endSession(nowMs), true
}

func (c *Controller) tickIdle(now uint64, act *Action) {
	ev, ok := c.io.Buttons.Poll()
	if !ok || !ev.Pressed {
		return
	}
	pitch, valid := c.io.Tuning.Table().Pitch(ev.ID)
	if !valid {
		c.io.Logger.Warnf("ignoring selection of string %d", ev.ID)
		act.Event = EventInvalidSelection
		return
	}

	mode := c.cfg.Mode
	if c.io.Modes != nil {
		mode = c.io.Modes.Mode()
	}
	c.s = Session{TargetString: ev.ID, Mode: mode, StartedAt: now}
	c.io.Scheduler.Reset()
	c.io.Amplifier.Enable()
	act.Event = EventSelected
	c.io.Logger.Infof("string %d (%s %.2f Hz) selected, mode %s", ev.ID, pitch.Name, pitch.Frequency, mode)

	if mode == PlayTone {
		c.io.Audio.PlayTone(pitch.Frequency, c.cfg.ReferenceToneMs)
		c.enter(PlayingReference, now)
		return
	}
	c.cfg.Cues.Ready.Play(c.io.Audio)
	c.enter(WaitingReadyBeep, now)
}

func (c *Controller) tickPlayingReference(now uint64, act *Action) {
	if c.elapsed(now) < uint64(c.cfg.ReferenceToneMs) {
		return
	}
	c.cfg.Cues.Ready.Play(c.io.Audio)
	c.enter(WaitingReadyBeep, now)
	act.Event = EventReferenceDone
}

func (c *Controller) tickWaitingReadyBeep(now uint64, act *Action) {
	if c.elapsed(now) < uint64(c.cfg.ReadyBeepMs) {
		return
	}
	c.enter(Listening, now)
	act.Event = EventReady
}

func (c *Controller) tickListening(now uint64, act *Action) {
	freq := c.io.Frequency.ReadFrequency()
	if usable(freq) {
		r := c.record(freq, act)
		act.Event = EventDetected
		c.io.Logger.Infof("detected %.2f Hz: string %d, %+.1f cents, %s", freq, r.DetectedString, r.CentsOffset, r.Direction)
		if c.cfg.PlayNotes {
			c.io.Audio.PlayTone(freq, c.cfg.NotePlaybackMs)
			c.enter(PlaybackUserNote, now)
		} else {
			c.startFeedback(now)
		}
	} else {
		c.s.WeakSignals++
		act.Event = EventWeakSignal
		if c.s.WeakSignals >= c.cfg.WeakSignalMaxCount {
			c.io.Logger.Warnf("%d weak readings in a row", c.s.WeakSignals)
			c.enterRecovery(now)
			act.Event = EventWeakSignalPersisted
		}
	}

	if c.s.State == Listening && c.elapsed(now) >= uint64(c.cfg.NoSignalTimeoutMs) {
		c.io.Logger.Warnf("no signal for %d ms", c.elapsed(now))
		c.enterRecovery(now)
		act.Event = EventTimeout
	}
}

func (c *Controller) tickPlaybackUserNote(now uint64, act *Action) {
	if c.elapsed(now) < uint64(c.cfg.NotePlaybackMs) {
		return
	}
	pitch, _ := c.io.Tuning.Table().Pitch(c.s.TargetString)
	c.io.Audio.PlayTone(pitch.Frequency, c.cfg.NotePlaybackMs)
	c.enter(PlaybackTargetNote, now)
	act.Event = EventUserNotePlayed
}

func (c *Controller) tickPlaybackTargetNote(now uint64, act *Action) {
	if c.elapsed(now) < uint64(c.cfg.NotePlaybackMs) {
		return
	}
	c.startFeedback(now)
	act.Event = EventNotesPlayed
}

func (c *Controller) tickProvidingFeedback(now uint64, act *Action) {
	freq := c.io.Frequency.ReadFrequency()
	if !usable(freq) {
		c.s.WeakSignals++
		act.Event = EventWeakSignal
		if c.s.WeakSignals >= c.cfg.WeakSignalMaxCount {
			c.io.Logger.Infof("signal lost, listening again")
			c.enter(Listening, now)
			act.Event = EventSignalLost
		}
		return
	}

	r := c.record(freq, act)
	act.Event = EventDetected

	if math.Abs(r.CentsOffset) < c.cfg.InTuneNotifyCents {
		if !c.s.InTuneNotified {
			c.cfg.Cues.InTune.Play(c.io.Audio)
			c.s.InTuneNotified = true
			c.s.ReachedInTune = true
			act.Event = EventInTune
			c.io.Logger.Infof("string %d in tune (%+.1f cents)", c.s.TargetString, r.CentsOffset)
		}
	} else {
		c.s.InTuneNotified = false
	}

	if b, ok := c.io.Scheduler.Tick(now, r); ok {
		c.io.Audio.PlayBeep(b.FrequencyHz, b.DurationMs)
		act.Beeped = true
	}
}

func (c *Controller) tickErrorRecovery(now uint64, act *Action) {
	if c.elapsed(now) < uint64(c.cfg.ErrorRecoveryDwellMs) {
		return
	}
	c.enter(Listening, now)
	act.Event = EventRecovered
}

// usable reports whether a reading is a real pitch. Non-finite readings
// count as weak signal.
func usable(freq float64) bool {
	return freq > 0 && !math.IsInf(freq, 0)
}

// record analyses freq against the target and folds it into the session.
func (c *Controller) record(freq float64, act *Action) tuning.Result {
	r := c.io.Tuning.Analyze(freq, c.s.TargetString)
	c.s.LastResult = r
	c.s.WeakSignals = 0
	c.s.Readings++
	if a := math.Abs(r.CentsOffset); !c.s.HasBest || a < math.Abs(c.s.BestCents) {
		c.s.BestCents = r.CentsOffset
		c.s.HasBest = true
	}
	act.Result = r
	act.HasResult = true
	return r
}

func (c *Controller) startFeedback(now uint64) {
	c.io.Scheduler.Reset()
	c.s.InTuneNotified = false
	if c.cfg.AnnounceDirection {
		cue.Direction(c.s.LastResult.Direction).Play(c.io.Audio)
	}
	c.enter(ProvidingFeedback, now)
}

func (c *Controller) enterRecovery(now uint64) {
	c.enter(ErrorRecovery, now)
	c.s.Recoveries++
	c.cfg.Cues.Warning.Play(c.io.Audio)
}

// enter switches state and restarts the state timer. Entering Listening
// also clears the weak-signal counter.
func (c *Controller) enter(st State, now uint64) {
	c.s.State = st
	c.s.EnteredAt = now
	if st == Listening {
		c.s.WeakSignals = 0
	}
}

func (c *Controller) endSession(now uint64) Summary {
	sum := Summary{
		TargetString:  c.s.TargetString,
		Mode:          c.s.Mode,
		StartedAt:     c.s.StartedAt,
		EndedAt:       now,
		EndState:      c.s.State,
		Readings:      c.s.Readings,
		LastResult:    c.s.LastResult,
		BestCents:     c.s.BestCents,
		HasBest:       c.s.HasBest,
		ReachedInTune: c.s.ReachedInTune,
		Recoveries:    c.s.Recoveries,
	}
	c.io.Audio.StopAll()
	c.io.Amplifier.Disable()
	c.io.Scheduler.Reset()
	c.s = Session{State: Idle, EnteredAt: now}
	return sum
}

func (c *Controller) elapsed(now uint64) uint64 {
	if now < c.s.EnteredAt {
		return 0
	}
	return now - c.s.EnteredAt
}
