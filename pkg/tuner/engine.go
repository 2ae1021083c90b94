// Package tuner wires the pitch detector, tuning analyzer, feedback
// scheduler and session controller into one engine driven by a clock.
package tuner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/himanishpuri/AudibleTuner/internal/controller"
	"github.com/himanishpuri/AudibleTuner/internal/journal"
	"github.com/himanishpuri/AudibleTuner/internal/spectral"
	"github.com/himanishpuri/AudibleTuner/internal/tuning"
	"github.com/himanishpuri/AudibleTuner/pkg/logger"
	"github.com/himanishpuri/AudibleTuner/pkg/models"
)

type Engine struct {
	cfg      *Config
	ctrl     *controller.Controller
	detector *Detector
	table    tuning.Table
	log      Logger

	journal     Journal
	ownsJournal bool

	// wall-clock anchor for turning clock readings into timestamps
	epoch   time.Time
	epochMs uint64

	sessions []models.SessionRecord
}

// New builds an engine. Audio and Buttons are required, as is either a
// FrequencyReader or a SampleSource.
func New(opts ...Option) (*Engine, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger()
	}
	if err := cfg.Settings.Validate(); err != nil {
		return nil, err
	}
	if cfg.Audio == nil || cfg.Buttons == nil {
		return nil, errors.New("tuner: audio output and buttons are required")
	}

	e := &Engine{cfg: cfg, log: cfg.Logger, epoch: time.Now(), epochMs: cfg.Clock.NowMs()}

	freq := cfg.Frequency
	if freq == nil {
		if cfg.Source == nil {
			return nil, errors.New("tuner: need a frequency reader or a sample source")
		}
		sc, err := cfg.Settings.SpectralConfig()
		if err != nil {
			return nil, err
		}
		a, err := spectral.New(sc)
		if err != nil {
			return nil, err
		}
		e.detector = NewDetector(cfg.Source, a, component(cfg.Logger, "detector"))
		freq = e.detector
	}

	analyzer, err := cfg.Settings.Analyzer()
	if err != nil {
		return nil, err
	}
	e.table = analyzer.Table()

	cc, err := cfg.Settings.ControllerConfig()
	if err != nil {
		return nil, err
	}
	ctrl, err := controller.New(cc, controller.Collaborators{
		Frequency: freq,
		Audio:     cfg.Audio,
		Buttons:   cfg.Buttons,
		Amplifier: cfg.Amplifier,
		Modes:     cfg.Modes,
		Tuning:    analyzer,
		Scheduler: cfg.Settings.Scheduler(),
		Logger:    component(cfg.Logger, "controller"),
	})
	if err != nil {
		return nil, err
	}
	e.ctrl = ctrl

	switch {
	case cfg.Journal != nil:
		e.journal = cfg.Journal
	case cfg.Settings.Journal.Enabled:
		store, err := journal.Open(cfg.Settings.Journal.DBPath)
		if err != nil {
			return nil, fmt.Errorf("opening journal: %w", err)
		}
		e.journal, e.ownsJournal = store, true
	}
	return e, nil
}

// component tags log lines when the logger supports it.
func component(log Logger, name string) Logger {
	if l, ok := log.(*logger.Logger); ok {
		return l.With(name)
	}
	return log
}

func (e *Engine) Controller() *controller.Controller { return e.ctrl }

func (e *Engine) Table() tuning.Table { return e.table }

// Detector is nil when the engine was given a FrequencyReader.
func (e *Engine) Detector() *Detector { return e.detector }

// Sessions returns the sessions finished so far, oldest first.
func (e *Engine) Sessions() []models.SessionRecord {
	return append([]models.SessionRecord(nil), e.sessions...)
}

// Step runs one controller tick at the current clock reading.
func (e *Engine) Step() controller.Action {
	act := e.ctrl.Tick(e.cfg.Clock.NowMs())
	if act.Ended != nil {
		e.finish(act.Ended)
	}
	return act
}

// Run ticks at the configured interval until ctx is done.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.cfg.Settings.Controller.TickInterval)
	defer ticker.Stop()

	e.log.Infof("tuner running, tick every %s", e.cfg.Settings.Controller.TickInterval)
	for {
		select {
		case <-ctx.Done():
			e.shutdown()
			return nil
		case <-ticker.C:
			e.Step()
		}
	}
}

// Replay steps the engine against a caller-advanced clock until untilMs,
// advancing by the tick interval between steps. onAction, if set, sees
// every action.
func (e *Engine) Replay(ctx context.Context, clock SteppedClock, untilMs uint64, onAction func(controller.Action)) error {
	step := uint64(e.cfg.Settings.Controller.TickInterval / time.Millisecond)
	if step == 0 {
		step = 1
	}
	for clock.NowMs() <= untilMs {
		if err := ctx.Err(); err != nil {
			return err
		}
		act := e.Step()
		if onAction != nil {
			onAction(act)
		}
		clock.Advance(step)
	}
	e.shutdown()
	return nil
}

// shutdown ends a session still in progress so it reaches the journal.
func (e *Engine) shutdown() {
	if sum, ok := e.ctrl.Stop(e.cfg.Clock.NowMs()); ok {
		e.log.Infof("stopping with string %d still selected", sum.TargetString)
		e.finish(&sum)
	}
}

func (e *Engine) finish(sum *controller.Summary) {
	rec := e.record(sum)
	if e.journal != nil {
		id, err := e.journal.Record(&rec)
		if err != nil {
			e.log.Errorf("journal: %v", err)
		} else {
			e.log.Debugf("session %s recorded", id)
		}
	}
	e.sessions = append(e.sessions, rec)
}

func (e *Engine) record(sum *controller.Summary) models.SessionRecord {
	p, _ := e.table.Pitch(sum.TargetString)
	rec := models.SessionRecord{
		String:        sum.TargetString,
		Note:          p.Name,
		TargetHz:      p.Frequency,
		Mode:          sum.Mode.String(),
		StartedAt:     e.wall(sum.StartedAt),
		EndedAt:       e.wall(sum.EndedAt),
		DurationMs:    int64(sum.DurationMs()),
		Readings:      sum.Readings,
		BestCents:     sum.BestCents,
		HasBest:       sum.HasBest,
		ReachedInTune: sum.ReachedInTune,
		Recoveries:    sum.Recoveries,
		EndState:      sum.EndState.String(),
	}
	if sum.LastResult.Valid() {
		rec.LastCents = sum.LastResult.CentsOffset
		rec.LastHz = sum.LastResult.DetectedFrequency
	}
	return rec
}

func (e *Engine) wall(ms uint64) time.Time {
	return e.epoch.Add(time.Duration(int64(ms)-int64(e.epochMs)) * time.Millisecond)
}

// Close releases the journal if the engine opened it.
func (e *Engine) Close() error {
	if e.ownsJournal {
		return e.journal.Close()
	}
	return nil
}
