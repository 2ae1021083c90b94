package tuner

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/himanishpuri/AudibleTuner/configs"
	"github.com/himanishpuri/AudibleTuner/internal/audio"
	"github.com/himanishpuri/AudibleTuner/internal/controller"
	"github.com/himanishpuri/AudibleTuner/internal/journal"
	"github.com/himanishpuri/AudibleTuner/internal/sim"
	"github.com/himanishpuri/AudibleTuner/pkg/logger"
	"github.com/himanishpuri/AudibleTuner/pkg/models"
)

type memJournal struct {
	recs   []models.SessionRecord
	err    error
	closed bool
}

func (m *memJournal) Record(rec *models.SessionRecord) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	rec.ID = "mem"
	m.recs = append(m.recs, *rec)
	return rec.ID, nil
}

func (m *memJournal) Close() error {
	m.closed = true
	return nil
}

func TestNewRequiresPorts(t *testing.T) {
	_, err := New(WithLogger(logger.Nop()))
	require.Error(t, err)

	_, err = New(WithLogger(logger.Nop()), WithAudio(&sim.Audio{}), WithButtons(sim.NewButtons()))
	require.Error(t, err, "no frequency reader or source")

	bad := configs.GetDefaultConfig()
	bad.Audio.FFTSize = 3
	_, err = New(WithSettings(bad), WithLogger(logger.Nop()))
	assert.ErrorIs(t, err, configs.ErrInvalidConfig)
}

func TestStepRecordsFinishedSession(t *testing.T) {
	clk := sim.NewClock(0)
	btn := sim.NewButtons()
	freq := sim.NewFrequencies()
	freq.Fallback = 110.2
	out := &sim.Audio{}
	j := &memJournal{}

	e, err := New(
		WithClock(clk),
		WithButtons(btn),
		WithFrequencyReader(freq),
		WithAudio(out),
		WithJournal(j),
		WithLogger(logger.Nop()),
	)
	require.NoError(t, err)
	assert.Nil(t, e.Detector())

	btn.Press(5)
	act := e.Step()
	assert.Equal(t, controller.PlayingReference, act.To)

	for clk.NowMs() < 3300 {
		clk.Advance(10)
		e.Step()
	}
	assert.Equal(t, controller.ProvidingFeedback, e.Controller().State())

	btn.Release(5)
	clk.Advance(10)
	act = e.Step()
	require.NotNil(t, act.Ended)

	require.Len(t, j.recs, 1)
	rec := j.recs[0]
	assert.Equal(t, 5, rec.String)
	assert.Equal(t, "A2", rec.Note)
	assert.Equal(t, 110.0, rec.TargetHz)
	assert.Equal(t, "play-tone", rec.Mode)
	assert.Equal(t, int64(3310), rec.DurationMs)
	assert.Equal(t, "ProvidingFeedback", rec.EndState)
	assert.True(t, rec.ReachedInTune, "110.2 Hz is about 3 cents from 110 Hz")
	assert.InDelta(t, 110.2, rec.LastHz, 1e-9)
	assert.Equal(t, 3310*time.Millisecond, rec.EndedAt.Sub(rec.StartedAt))

	assert.Len(t, e.Sessions(), 1)
	require.NoError(t, e.Close())
	assert.False(t, j.closed, "caller-provided journal stays open")
}

func TestJournalErrorsDoNotStopTheEngine(t *testing.T) {
	clk := sim.NewClock(0)
	btn := sim.NewButtons()
	j := &memJournal{err: errors.New("disk full")}
	e, err := New(WithClock(clk), WithButtons(btn), WithFrequencyReader(sim.NewFrequencies()),
		WithAudio(&sim.Audio{}), WithJournal(j), WithLogger(logger.Nop()))
	require.NoError(t, err)

	btn.Press(1)
	e.Step()
	btn.Release(1)
	clk.Advance(10)
	act := e.Step()
	require.NotNil(t, act.Ended)
	assert.Len(t, e.Sessions(), 1)
	assert.Equal(t, controller.Idle, e.Controller().State())
}

func TestReplayDetectsSynthesizedString(t *testing.T) {
	settings := configs.GetDefaultConfig()
	settings.Journal.Enabled = true
	settings.Journal.DBPath = filepath.Join(t.TempDir(), "journal.sqlite3")
	settings.Audio.Decimate = true
	settings.Audio.Interpolate = true

	// Open string A2 played 40 cents sharp so it never reads in tune.
	clip := audio.Synthesize(settings.Audio.SampleRate, audio.Note{Hz: 112.6, DurationMs: 10000, Amplitude: 30000})

	clk := sim.NewClock(0)
	btn := sim.NewTimedButtons(clk, sim.Hold{ID: 5, StartMs: 0, DurationMs: 6000})
	src := audio.NewClipSource(clip, clk, settings.Audio.BlockSize)
	rec := audio.NewToneRecorder(clk)

	e, err := New(
		WithSettings(settings),
		WithClock(clk),
		WithButtons(btn),
		WithSource(src),
		WithAudio(rec),
		WithLogger(logger.Nop()),
	)
	require.NoError(t, err)
	require.NotNil(t, e.Detector())

	var beeps int
	err = e.Replay(context.Background(), clk, btn.End()+100, func(a controller.Action) {
		if a.Beeped {
			beeps++
		}
	})
	require.NoError(t, err)
	require.NoError(t, e.Close())

	assert.Positive(t, beeps)
	sessions := e.Sessions()
	require.Len(t, sessions, 1)
	assert.Equal(t, 5, sessions[0].String)
	assert.False(t, sessions[0].ReachedInTune)
	assert.InDelta(t, 112.6, sessions[0].LastHz, 5)
	assert.Positive(t, rec.Stops())

	store, err := journal.Open(settings.Journal.DBPath)
	require.NoError(t, err)
	defer store.Close()
	stored, err := store.List(0)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "A2", stored[0].Note)
}

func TestReplayStopsOpenSession(t *testing.T) {
	clk := sim.NewClock(0)
	btn := sim.NewButtons()
	j := &memJournal{}
	e, err := New(WithClock(clk), WithButtons(btn), WithFrequencyReader(sim.NewFrequencies()),
		WithAudio(&sim.Audio{}), WithJournal(j), WithLogger(logger.Nop()))
	require.NoError(t, err)

	btn.Press(2)
	require.NoError(t, e.Replay(context.Background(), clk, 500, nil))
	require.Len(t, j.recs, 1)
	assert.Equal(t, "PlayingReference", j.recs[0].EndState)
	assert.Equal(t, controller.Idle, e.Controller().State())
}

func TestRunStopsOnCancel(t *testing.T) {
	e, err := New(WithButtons(sim.NewButtons()), WithFrequencyReader(sim.NewFrequencies()),
		WithAudio(&sim.Audio{}), WithLogger(logger.Nop()))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.NoError(t, e.Run(ctx))
}
