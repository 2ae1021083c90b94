package tuner

import (
	"github.com/himanishpuri/AudibleTuner/internal/controller"
	"github.com/himanishpuri/AudibleTuner/internal/spectral"
	"github.com/himanishpuri/AudibleTuner/pkg/models"
)

// Hardware ports, re-exported so callers outside the module can implement them.
type (
	FrequencyReader = controller.FrequencyReader
	AudioOutput     = controller.AudioOutput
	ButtonInput     = controller.ButtonInput
	ButtonEvent     = controller.ButtonEvent
	Amplifier       = controller.Amplifier
	ModeSwitch      = controller.ModeSwitch
)

// SampleSource captures the most recent block of mono 16-bit PCM.
type SampleSource interface {
	Capture() (spectral.SampleBlock, error)
}

// Clock is a monotonic millisecond counter.
type Clock interface {
	NowMs() uint64
}

// SteppedClock is a clock the caller advances, used for offline replay.
type SteppedClock interface {
	Clock
	Advance(ms uint64)
}

// Journal receives every finished session.
type Journal interface {
	Record(rec *models.SessionRecord) (string, error)
	Close() error
}

type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}
