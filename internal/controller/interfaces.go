package controller

// FrequencyReader returns the latest detected fundamental in Hz, or a value
// <= 0 when there is no usable signal.
type FrequencyReader interface {
	ReadFrequency() float64
}

// AudioOutput synthesises tones. Calls return immediately.
type AudioOutput interface {
	PlayTone(hz float64, durationMs uint32)
	PlayBeep(hz float64, durationMs uint32)
	StopAll()
}

// ButtonEvent is a debounced edge on one of the string buttons.
type ButtonEvent struct {
	ID      int
	Pressed bool
}

type ButtonInput interface {
	Poll() (ButtonEvent, bool)
	IsPressed(id int) bool
}

type Amplifier interface {
	Enable()
	Disable()
}

// ModeSwitch reports the operating mode. Electrical polarity is the
// implementation's concern.
type ModeSwitch interface {
	Mode() Mode
}

type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

type nopAmplifier struct{}

func (nopAmplifier) Enable()  {}
func (nopAmplifier) Disable() {}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Warnf(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}
