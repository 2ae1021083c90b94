package configs

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/himanishpuri/AudibleTuner/internal/controller"
	"github.com/himanishpuri/AudibleTuner/internal/feedback"
	"github.com/himanishpuri/AudibleTuner/internal/spectral"
	"github.com/himanishpuri/AudibleTuner/internal/tuning"
)

const DefaultTickInterval = 10 * time.Millisecond

// setDefaults registers every key so TUNER_* variables are picked up by
// Unmarshal even when no file mentions them.
func setDefaults(v *viper.Viper) {
	d := GetDefaultConfig()

	v.SetDefault("log_level", d.LogLevel)

	// Audio defaults
	v.SetDefault("audio.sample_rate", d.Audio.SampleRate)
	v.SetDefault("audio.block_size", d.Audio.BlockSize)
	v.SetDefault("audio.fft_size", d.Audio.FFTSize)
	v.SetDefault("audio.min_amplitude", d.Audio.MinAmplitude)
	v.SetDefault("audio.min_magnitude", d.Audio.MinMagnitude)
	v.SetDefault("audio.decimate", d.Audio.Decimate)
	v.SetDefault("audio.interpolate", d.Audio.Interpolate)
	v.SetDefault("audio.min_frequency", d.Audio.MinFrequency)
	v.SetDefault("audio.max_frequency", d.Audio.MaxFrequency)
	v.SetDefault("audio.normalize", d.Audio.Normalize)

	// Tuning defaults
	v.SetDefault("tuning.tolerance_cents", d.Tuning.ToleranceCents)
	v.SetDefault("tuning.preset", d.Tuning.Preset)
	v.SetDefault("tuning.notes", []string{})
	v.SetDefault("tuning.frequencies", []float64{})

	// Feedback defaults
	v.SetDefault("feedback.beep_hz", d.Feedback.BeepHz)
	v.SetDefault("feedback.beep_ms", d.Feedback.BeepMs)

	// Controller defaults
	v.SetDefault("controller.mode", d.Controller.Mode)
	v.SetDefault("controller.reference_tone_ms", d.Controller.ReferenceToneMs)
	v.SetDefault("controller.ready_beep_ms", d.Controller.ReadyBeepMs)
	v.SetDefault("controller.play_notes", d.Controller.PlayNotes)
	v.SetDefault("controller.note_playback_ms", d.Controller.NotePlaybackMs)
	v.SetDefault("controller.weak_signal_max_count", d.Controller.WeakSignalMaxCount)
	v.SetDefault("controller.no_signal_timeout_ms", d.Controller.NoSignalTimeoutMs)
	v.SetDefault("controller.error_recovery_dwell_ms", d.Controller.ErrorRecoveryDwellMs)
	v.SetDefault("controller.in_tune_notify_cents", d.Controller.InTuneNotifyCents)
	v.SetDefault("controller.announce_direction", d.Controller.AnnounceDirection)
	v.SetDefault("controller.tick_interval", d.Controller.TickInterval)

	// Journal defaults
	v.SetDefault("journal.enabled", d.Journal.Enabled)
	v.SetDefault("journal.db_path", d.Journal.DBPath)

	// Server defaults
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.allowed_origins", d.Server.AllowedOrigins)
	v.SetDefault("server.max_upload_mb", d.Server.MaxUploadMB)
	v.SetDefault("server.log_requests", d.Server.LogRequests)
}

// GetDefaultConfig returns a Config struct with all default values set
func GetDefaultConfig() *Config {
	cc := controller.DefaultConfig()
	return &Config{
		LogLevel: "info",
		Audio: AudioConfig{
			SampleRate:   spectral.DefaultSampleRate,
			BlockSize:    spectral.DefaultBlockSize,
			FFTSize:      spectral.DefaultFFTSize,
			MinAmplitude: spectral.DefaultMinAmplitude,
			MinMagnitude: spectral.DefaultMinMagnitude,
		},
		Tuning: TuningConfig{
			ToleranceCents: tuning.DefaultToleranceCents,
			Preset:         "standard",
		},
		Feedback: FeedbackConfig{
			BeepHz: feedback.DefaultBeepHz,
			BeepMs: feedback.DefaultBeepDurationMs,
		},
		Controller: ControllerConfig{
			Mode:                 cc.Mode.String(),
			ReferenceToneMs:      int(cc.ReferenceToneMs),
			ReadyBeepMs:          int(cc.ReadyBeepMs),
			PlayNotes:            cc.PlayNotes,
			NotePlaybackMs:       int(cc.NotePlaybackMs),
			WeakSignalMaxCount:   cc.WeakSignalMaxCount,
			NoSignalTimeoutMs:    int(cc.NoSignalTimeoutMs),
			ErrorRecoveryDwellMs: int(cc.ErrorRecoveryDwellMs),
			InTuneNotifyCents:    cc.InTuneNotifyCents,
			AnnounceDirection:    cc.AnnounceDirection,
			TickInterval:         DefaultTickInterval,
		},
		Journal: JournalConfig{
			Enabled: false,
			DBPath:  defaultDBPath(),
		},
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"*"},
			MaxUploadMB:    50,
		},
	}
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "audibletuner.sqlite3"
	}
	return filepath.Join(home, ".local", "share", "audibletuner", "audibletuner.sqlite3")
}
