package configs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/himanishpuri/AudibleTuner/internal/controller"
	"github.com/himanishpuri/AudibleTuner/internal/spectral"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tuner.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefaultsLoadWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(New(""))
	require.NoError(t, err)

	assert.Equal(t, spectral.DefaultSampleRate, cfg.Audio.SampleRate)
	assert.Equal(t, spectral.DefaultFFTSize, cfg.Audio.FFTSize)
	assert.Equal(t, "standard", cfg.Tuning.Preset)
	assert.Equal(t, 10*time.Millisecond, cfg.Controller.TickInterval)
	assert.False(t, cfg.Journal.Enabled)

	cc, err := cfg.ControllerConfig()
	require.NoError(t, err)
	assert.Equal(t, controller.DefaultConfig().NoSignalTimeoutMs, cc.NoSignalTimeoutMs)
	assert.Equal(t, controller.PlayTone, cc.Mode)
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
log_level: debug
audio:
  sample_rate: 8000
  decimate: true
tuning:
  preset: drop-d
  tolerance_cents: 3
controller:
  mode: listen-only
  tick_interval: 20ms
`)
	cfg, err := Load(New(path))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 8000, cfg.Audio.SampleRate)
	assert.Equal(t, 20*time.Millisecond, cfg.Controller.TickInterval)

	sc, err := cfg.SpectralConfig()
	require.NoError(t, err)
	assert.Equal(t, spectral.Decimate, sc.Reduction)

	table, err := cfg.Table()
	require.NoError(t, err)
	low, _ := table.Pitch(6)
	assert.Equal(t, "D2", low.Name)

	a, err := cfg.Analyzer()
	require.NoError(t, err)
	assert.Equal(t, 3.0, a.Tolerance())

	cc, err := cfg.ControllerConfig()
	require.NoError(t, err)
	assert.Equal(t, controller.ListenOnly, cc.Mode)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, "audio:\n  sample_rate: 8000\n")
	t.Setenv("TUNER_AUDIO_SAMPLE_RATE", "16000")
	t.Setenv("TUNER_CONTROLLER_WEAK_SIGNAL_MAX_COUNT", "4")

	cfg, err := Load(New(path))
	require.NoError(t, err)
	assert.Equal(t, 16000, cfg.Audio.SampleRate)
	assert.Equal(t, 4, cfg.Controller.WeakSignalMaxCount)
}

func TestTableSources(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Tuning.Notes = []string{"D4", "A3", "G3", "D3", "A2", "D2"}
	table, err := cfg.Table()
	require.NoError(t, err)
	top, _ := table.Pitch(1)
	assert.Equal(t, "D4", top.Name)

	cfg.Tuning.Frequencies = []float64{330, 247, 196, 147, 110, 82.5}
	table, err = cfg.Table()
	require.NoError(t, err)
	top, _ = table.Pitch(1)
	assert.Equal(t, 330.0, top.Frequency)
	assert.Equal(t, "E4", top.Name)
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(c *Config){
		"fft size":        func(c *Config) { c.Audio.FFTSize = 100 },
		"block size":      func(c *Config) { c.Audio.BlockSize = 0 },
		"preset":          func(c *Config) { c.Tuning.Preset = "nashville" },
		"ascending notes": func(c *Config) { c.Tuning.Notes = []string{"E2", "A2", "D3", "G3", "B3", "E4"} },
		"mode":            func(c *Config) { c.Controller.Mode = "karaoke" },
		"weak count":      func(c *Config) { c.Controller.WeakSignalMaxCount = 0 },
		"negative dwell":  func(c *Config) { c.Controller.ErrorRecoveryDwellMs = -1 },
		"beep":            func(c *Config) { c.Feedback.BeepHz = 0 },
		"tick":            func(c *Config) { c.Controller.TickInterval = 0 },
		"journal path":    func(c *Config) { c.Journal.Enabled = true; c.Journal.DBPath = "" },
		"upload limit":    func(c *Config) { c.Server.MaxUploadMB = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestLoadRejectsMissingExplicitFile(t *testing.T) {
	_, err := Load(New(filepath.Join(t.TempDir(), "nope.yaml")))
	assert.Error(t, err)
}

func TestDump(t *testing.T) {
	out, err := Dump(GetDefaultConfig())
	require.NoError(t, err)

	var round map[string]any
	require.NoError(t, yaml.Unmarshal(out, &round))
	assert.Contains(t, round, "audio")
	assert.Contains(t, string(out), "tick_interval: 10ms")

	tuningSection, ok := round["tuning"].(map[string]any)
	require.True(t, ok, "tuning section missing")
	assert.Equal(t, "standard", tuningSection["preset"])
	assert.NotContains(t, tuningSection, "notes")
	assert.NotContains(t, tuningSection, "frequencies")

	controllerSection, ok := round["controller"].(map[string]any)
	require.True(t, ok, "controller section missing")
	assert.Equal(t, true, controllerSection["play_notes"])
}
