package configs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/himanishpuri/AudibleTuner/internal/controller"
	"github.com/himanishpuri/AudibleTuner/internal/feedback"
	"github.com/himanishpuri/AudibleTuner/internal/note"
	"github.com/himanishpuri/AudibleTuner/internal/spectral"
	"github.com/himanishpuri/AudibleTuner/internal/tuning"
)

const (
	EnvPrefix  = "TUNER"
	ConfigName = "tuner"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config represents the application configuration
type Config struct {
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`

	Audio      AudioConfig      `mapstructure:"audio" yaml:"audio"`
	Tuning     TuningConfig     `mapstructure:"tuning" yaml:"tuning"`
	Feedback   FeedbackConfig   `mapstructure:"feedback" yaml:"feedback"`
	Controller ControllerConfig `mapstructure:"controller" yaml:"controller"`
	Journal    JournalConfig    `mapstructure:"journal" yaml:"journal"`
	Server     ServerConfig     `mapstructure:"server" yaml:"server"`
}

// AudioConfig contains capture and pitch detection settings
type AudioConfig struct {
	SampleRate   int     `mapstructure:"sample_rate" yaml:"sample_rate"`
	BlockSize    int     `mapstructure:"block_size" yaml:"block_size"`
	FFTSize      int     `mapstructure:"fft_size" yaml:"fft_size"`
	MinAmplitude float64 `mapstructure:"min_amplitude" yaml:"min_amplitude"`
	MinMagnitude float64 `mapstructure:"min_magnitude" yaml:"min_magnitude"`
	Decimate     bool    `mapstructure:"decimate" yaml:"decimate"`
	Interpolate  bool    `mapstructure:"interpolate" yaml:"interpolate"`
	MinFrequency float64 `mapstructure:"min_frequency" yaml:"min_frequency"`
	MaxFrequency float64 `mapstructure:"max_frequency" yaml:"max_frequency"`
	Normalize    bool    `mapstructure:"normalize" yaml:"normalize"`
}

// TuningConfig selects the reference table. Frequencies win over Notes,
// Notes win over Preset. Both lists are ordered string 1..6.
type TuningConfig struct {
	ToleranceCents float64   `mapstructure:"tolerance_cents" yaml:"tolerance_cents"`
	Preset         string    `mapstructure:"preset" yaml:"preset"`
	Notes          []string  `mapstructure:"notes" yaml:"notes,omitempty"`
	Frequencies    []float64 `mapstructure:"frequencies" yaml:"frequencies,omitempty"`
}

type FeedbackConfig struct {
	BeepHz float64 `mapstructure:"beep_hz" yaml:"beep_hz"`
	BeepMs int     `mapstructure:"beep_ms" yaml:"beep_ms"`
}

// ControllerConfig contains session timing settings
type ControllerConfig struct {
	Mode                 string        `mapstructure:"mode" yaml:"mode"`
	ReferenceToneMs      int           `mapstructure:"reference_tone_ms" yaml:"reference_tone_ms"`
	ReadyBeepMs          int           `mapstructure:"ready_beep_ms" yaml:"ready_beep_ms"`
	PlayNotes            bool          `mapstructure:"play_notes" yaml:"play_notes"`
	NotePlaybackMs       int           `mapstructure:"note_playback_ms" yaml:"note_playback_ms"`
	WeakSignalMaxCount   int           `mapstructure:"weak_signal_max_count" yaml:"weak_signal_max_count"`
	NoSignalTimeoutMs    int           `mapstructure:"no_signal_timeout_ms" yaml:"no_signal_timeout_ms"`
	ErrorRecoveryDwellMs int           `mapstructure:"error_recovery_dwell_ms" yaml:"error_recovery_dwell_ms"`
	InTuneNotifyCents    float64       `mapstructure:"in_tune_notify_cents" yaml:"in_tune_notify_cents"`
	AnnounceDirection    bool          `mapstructure:"announce_direction" yaml:"announce_direction"`
	TickInterval         time.Duration `mapstructure:"tick_interval" yaml:"tick_interval"`
}

type JournalConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	DBPath  string `mapstructure:"db_path" yaml:"db_path"`
}

// ServerConfig contains HTTP API settings
type ServerConfig struct {
	Addr           string   `mapstructure:"addr" yaml:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	MaxUploadMB    int      `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`
	LogRequests    bool     `mapstructure:"log_requests" yaml:"log_requests"`
}

// New returns a viper instance that reads TUNER_* variables and, when
// configFile is empty, searches the usual places for tuner.yaml.
func New(configFile string) *viper.Viper {
	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(ConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "audibletuner"))
		}
		v.AddConfigPath("/etc/audibletuner")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	return v
}

// Load reads the config file if there is one and decodes v into a
// validated Config. A missing file in the search path is not an error.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every section by building the component configs from it.
func (c *Config) Validate() error {
	if c.Audio.BlockSize <= 0 {
		return fmt.Errorf("%w: audio block size must be positive", ErrInvalidConfig)
	}
	if _, err := c.SpectralConfig(); err != nil {
		return err
	}
	if _, err := c.Table(); err != nil {
		return err
	}
	if c.Tuning.ToleranceCents < 0 {
		return fmt.Errorf("%w: tolerance must be >= 0", ErrInvalidConfig)
	}
	if c.Feedback.BeepHz <= 0 || c.Feedback.BeepMs <= 0 {
		return fmt.Errorf("%w: feedback beep needs a positive frequency and duration", ErrInvalidConfig)
	}
	if _, err := c.ControllerConfig(); err != nil {
		return err
	}
	if c.Controller.TickInterval <= 0 {
		return fmt.Errorf("%w: tick interval must be positive", ErrInvalidConfig)
	}
	if c.Journal.Enabled && c.Journal.DBPath == "" {
		return fmt.Errorf("%w: journal enabled without db_path", ErrInvalidConfig)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("%w: server max_upload_mb must be positive", ErrInvalidConfig)
	}
	return nil
}

// SpectralConfig converts the audio section.
func (c *Config) SpectralConfig() (spectral.Config, error) {
	sc := spectral.Config{
		SampleRate:   c.Audio.SampleRate,
		FFTSize:      c.Audio.FFTSize,
		MinAmplitude: c.Audio.MinAmplitude,
		MinMagnitude: c.Audio.MinMagnitude,
		Interpolate:  c.Audio.Interpolate,
		MinFrequency: c.Audio.MinFrequency,
		MaxFrequency: c.Audio.MaxFrequency,
	}
	if c.Audio.Decimate {
		sc.Reduction = spectral.Decimate
	}
	if err := sc.Validate(); err != nil {
		return sc, fmt.Errorf("%w: audio: %v", ErrInvalidConfig, err)
	}
	return sc, nil
}

// Table builds the reference table from the tuning section.
func (c *Config) Table() (tuning.Table, error) {
	var (
		t   tuning.Table
		err error
	)
	switch {
	case len(c.Tuning.Frequencies) > 0:
		pitches := make([]tuning.Pitch, 0, len(c.Tuning.Frequencies))
		for _, f := range c.Tuning.Frequencies {
			name := ""
			if n, _, ok := note.Nearest(f); ok {
				name = n.String()
			}
			pitches = append(pitches, tuning.Pitch{Name: name, Frequency: f})
		}
		t, err = tuning.NewTable(pitches)
	case len(c.Tuning.Notes) > 0:
		t, err = tuning.TableFromNotes(c.Tuning.Notes...)
	default:
		t, err = tuning.Preset(c.Tuning.Preset)
	}
	if err != nil {
		return tuning.Table{}, fmt.Errorf("%w: tuning: %v", ErrInvalidConfig, err)
	}
	return t, nil
}

// Analyzer builds the tuning analyzer for the configured table.
func (c *Config) Analyzer() (*tuning.Analyzer, error) {
	t, err := c.Table()
	if err != nil {
		return nil, err
	}
	return tuning.NewAnalyzer(tuning.WithTable(t), tuning.WithTolerance(c.Tuning.ToleranceCents))
}

// Scheduler builds the feedback scheduler.
func (c *Config) Scheduler() *feedback.Scheduler {
	return feedback.NewScheduler(feedback.WithBeepTone(c.Feedback.BeepHz, uint32(c.Feedback.BeepMs)))
}

// ControllerConfig converts the controller section.
func (c *Config) ControllerConfig() (controller.Config, error) {
	mode, err := controller.ParseMode(c.Controller.Mode)
	if err != nil {
		return controller.Config{}, fmt.Errorf("%w: controller: %v", ErrInvalidConfig, err)
	}
	for name, ms := range map[string]int{
		"reference_tone_ms":       c.Controller.ReferenceToneMs,
		"ready_beep_ms":           c.Controller.ReadyBeepMs,
		"note_playback_ms":        c.Controller.NotePlaybackMs,
		"no_signal_timeout_ms":    c.Controller.NoSignalTimeoutMs,
		"error_recovery_dwell_ms": c.Controller.ErrorRecoveryDwellMs,
	} {
		if ms < 0 {
			return controller.Config{}, fmt.Errorf("%w: controller: %s must be >= 0", ErrInvalidConfig, name)
		}
	}

	cc := controller.DefaultConfig()
	cc.Mode = mode
	cc.ReferenceToneMs = uint32(c.Controller.ReferenceToneMs)
	cc.ReadyBeepMs = uint32(c.Controller.ReadyBeepMs)
	cc.PlayNotes = c.Controller.PlayNotes
	cc.NotePlaybackMs = uint32(c.Controller.NotePlaybackMs)
	cc.WeakSignalMaxCount = c.Controller.WeakSignalMaxCount
	cc.NoSignalTimeoutMs = uint32(c.Controller.NoSignalTimeoutMs)
	cc.ErrorRecoveryDwellMs = uint32(c.Controller.ErrorRecoveryDwellMs)
	cc.InTuneNotifyCents = c.Controller.InTuneNotifyCents
	cc.AnnounceDirection = c.Controller.AnnounceDirection
	if err := cc.Validate(); err != nil {
		return controller.Config{}, fmt.Errorf("%w: controller: %v", ErrInvalidConfig, err)
	}
	return cc, nil
}

// Dump renders cfg as YAML.
func Dump(cfg *Config) ([]byte, error) {
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return out, nil
}
