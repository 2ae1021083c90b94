package tuner

import (
	"github.com/himanishpuri/AudibleTuner/configs"
)

type Config struct {
	Settings *configs.Config

	Source    SampleSource
	Frequency FrequencyReader
	Audio     AudioOutput
	Buttons   ButtonInput
	Amplifier Amplifier
	Modes     ModeSwitch
	Clock     Clock
	Logger    Logger
	Journal   Journal
}

type Option func(*Config)

// WithSettings replaces the default configuration.
func WithSettings(s *configs.Config) Option {
	return func(c *Config) {
		c.Settings = s
	}
}

// WithSource analyses blocks from src. Ignored when WithFrequencyReader is set.
func WithSource(src SampleSource) Option {
	return func(c *Config) {
		c.Source = src
	}
}

func WithFrequencyReader(r FrequencyReader) Option {
	return func(c *Config) {
		c.Frequency = r
	}
}

func WithAudio(out AudioOutput) Option {
	return func(c *Config) {
		c.Audio = out
	}
}

func WithButtons(in ButtonInput) Option {
	return func(c *Config) {
		c.Buttons = in
	}
}

func WithAmplifier(a Amplifier) Option {
	return func(c *Config) {
		c.Amplifier = a
	}
}

func WithModeSwitch(m ModeSwitch) Option {
	return func(c *Config) {
		c.Modes = m
	}
}

func WithClock(clock Clock) Option {
	return func(c *Config) {
		c.Clock = clock
	}
}

func WithLogger(log Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

// WithJournal records finished sessions into j. The engine does not close it.
func WithJournal(j Journal) Option {
	return func(c *Config) {
		c.Journal = j
	}
}

func defaultConfig() *Config {
	return &Config{
		Settings: configs.GetDefaultConfig(),
		Clock:    NewSystemClock(),
	}
}
