package controller

import (
	"fmt"
	"strings"

	"github.com/himanishpuri/AudibleTuner/internal/tuning"
)

type State int

const (
	Idle State = iota
	PlayingReference
	WaitingReadyBeep
	Listening
	PlaybackUserNote
	PlaybackTargetNote
	ProvidingFeedback
	ErrorRecovery
)

var stateNames = [...]string{
	Idle:               "Idle",
	PlayingReference:   "PlayingReference",
	WaitingReadyBeep:   "WaitingReadyBeep",
	Listening:          "Listening",
	PlaybackUserNote:   "PlaybackUserNote",
	PlaybackTargetNote: "PlaybackTargetNote",
	ProvidingFeedback:  "ProvidingFeedback",
	ErrorRecovery:      "ErrorRecovery",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Mode selects whether a session starts with a reference tone.
type Mode int

const (
	PlayTone Mode = iota
	ListenOnly
)

func (m Mode) String() string {
	if m == ListenOnly {
		return "listen-only"
	}
	return "play-tone"
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "play-tone", "playtone", "play":
		return PlayTone, nil
	case "listen-only", "listenonly", "listen":
		return ListenOnly, nil
	}
	return PlayTone, fmt.Errorf("unknown mode %q", s)
}

// Event names what happened during a tick.
type Event int

const (
	EventNone Event = iota
	EventSelected
	EventInvalidSelection
	EventReferenceDone
	EventReady
	EventDetected
	EventWeakSignal
	EventWeakSignalPersisted
	EventTimeout
	EventUserNotePlayed
	EventNotesPlayed
	EventInTune
	EventSignalLost
	EventRecovered
	EventCancelled
)

var eventNames = [...]string{
	EventNone:                "none",
	EventSelected:            "selected",
	EventInvalidSelection:    "invalid-selection",
	EventReferenceDone:       "reference-done",
	EventReady:               "ready",
	EventDetected:            "detected",
	EventWeakSignal:          "weak-signal",
	EventWeakSignalPersisted: "weak-signal-persisted",
	EventTimeout:             "timeout",
	EventUserNotePlayed:      "user-note-played",
	EventNotesPlayed:         "notes-played",
	EventInTune:              "in-tune",
	EventSignalLost:          "signal-lost",
	EventRecovered:           "recovered",
	EventCancelled:           "cancelled",
}

func (e Event) String() string {
	if e >= 0 && int(e) < len(eventNames) {
		return eventNames[e]
	}
	return fmt.Sprintf("Event(%d)", int(e))
}

// Session is the controller's mutable state. It is reset on return to Idle.
type Session struct {
	State        State
	TargetString int
	Mode         Mode
	LastResult   tuning.Result
	WeakSignals  int
	EnteredAt    uint64
	StartedAt    uint64

	Readings       int
	BestCents      float64
	HasBest        bool
	ReachedInTune  bool
	InTuneNotified bool
	Recoveries     int
}

// Summary describes a finished session.
type Summary struct {
	TargetString  int
	Mode          Mode
	StartedAt     uint64
	EndedAt       uint64
	EndState      State
	Readings      int
	LastResult    tuning.Result
	BestCents     float64
	HasBest       bool
	ReachedInTune bool
	Recoveries    int
}

// DurationMs is the session length.
func (s Summary) DurationMs() uint64 {
	if s.EndedAt < s.StartedAt {
		return 0
	}
	return s.EndedAt - s.StartedAt
}

// Action reports what one Tick did.
type Action struct {
	From  State
	To    State
	Event Event
	// Result is set when the tick produced a fresh detection.
	Result    tuning.Result
	HasResult bool
	Beeped    bool
	// Ended is set on the tick that closed a session.
	Ended *Summary
}

// Changed reports whether the tick moved the state machine.
func (a Action) Changed() bool { return a.From != a.To }
