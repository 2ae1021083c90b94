package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/himanishpuri/AudibleTuner/internal/audio"
	"github.com/himanishpuri/AudibleTuner/internal/controller"
	"github.com/himanishpuri/AudibleTuner/internal/sim"
	"github.com/himanishpuri/AudibleTuner/internal/tuning"
	"github.com/himanishpuri/AudibleTuner/pkg/tuner"
	"github.com/himanishpuri/AudibleTuner/pkg/utils"
)

func newSimulateCmd(a *app) *cobra.Command {
	var (
		stringNum int
		hold      time.Duration
		delay     time.Duration
		outPath   string
		loop      bool
		verbose   bool
	)

	cmd := &cobra.Command{
		Use:   "simulate <file>",
		Short: "Replay a full tuning session against a recording",
		Long: `Runs the session controller on a simulated clock. The recording stands in
for the microphone, the string button is held for --hold, and every cue the
tuner would play is written to --out as a WAV file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !tuning.ValidString(stringNum) {
				return fmt.Errorf("--string must be 1..%d", tuning.NumStrings)
			}
			if hold <= 0 {
				return fmt.Errorf("--hold must be positive")
			}
			out := cmd.OutOrStdout()

			clip, err := a.loadClip(cmd, args[0])
			if err != nil {
				return err
			}

			clk := sim.NewClock(0)
			buttons := sim.NewTimedButtons(clk, sim.Hold{
				ID:         stringNum,
				StartMs:    uint64(delay.Milliseconds()),
				DurationMs: uint64(hold.Milliseconds()),
			})
			src := audio.NewClipSource(clip, clk, a.cfg.Audio.BlockSize)
			src.Loop = loop
			rec := audio.NewToneRecorder(clk)

			engine, err := tuner.New(
				tuner.WithSettings(a.cfg),
				tuner.WithClock(clk),
				tuner.WithButtons(buttons),
				tuner.WithSource(src),
				tuner.WithAudio(rec),
				tuner.WithLogger(a.log),
			)
			if err != nil {
				return err
			}
			defer engine.Close()

			p, _ := engine.Table().Pitch(stringNum)
			fmt.Fprintf(out, "🎸 String %d (%s %.2f Hz), held for %s, mode %s\n\n",
				stringNum, p.Name, p.Frequency, hold, a.cfg.Controller.Mode)

			beeps := 0
			err = engine.Replay(cmd.Context(), clk, buttons.End()+uint64(a.cfg.Controller.TickInterval.Milliseconds()),
				func(act controller.Action) {
					if act.Beeped {
						beeps++
					}
					if !act.Changed() && !(verbose && act.HasResult) {
						return
					}
					line := fmt.Sprintf("%8.2fs  %-18s -> %-18s %-22s", float64(clk.NowMs())/1000, act.From, act.To, act.Event)
					if act.HasResult {
						r := act.Result
						line += fmt.Sprintf(" %7.2f Hz %+7.1f cents %s", r.DetectedFrequency, r.CentsOffset, r.Direction)
					}
					fmt.Fprintln(out, line)
				})
			if err != nil {
				return err
			}

			for _, s := range engine.Sessions() {
				status := "❌ never reached in tune"
				if s.ReachedInTune {
					status = "✅ reached in tune"
				}
				fmt.Fprintf(out, "\n📋 Session on string %d: %s, %s readings, %d recoveries, %s\n",
					s.String, time.Duration(s.DurationMs)*time.Millisecond,
					humanize.Comma(int64(s.Readings)), s.Recoveries, status)
				if s.HasBest {
					fmt.Fprintf(out, "   Best %+.1f cents, last %+.1f cents at %.2f Hz\n", s.BestCents, s.LastCents, s.LastHz)
				}
			}
			fmt.Fprintf(out, "   %d feedback beeps, %d sounds in total\n", beeps, len(rec.Segments()))

			if outPath != "" {
				if err := utils.EnsureParent(outPath); err != nil {
					return err
				}
				if err := rec.SaveWAV(outPath, audio.DefaultRenderRate); err != nil {
					return err
				}
				fmt.Fprintf(out, "🔊 Cues written to %s\n", outPath)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&stringNum, "string", "s", 0, "string to select (1 = high E, 6 = low E)")
	cmd.Flags().DurationVar(&hold, "hold", 8*time.Second, "how long the string button stays pressed")
	cmd.Flags().DurationVar(&delay, "delay", 0, "press the button this long after the recording starts")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write the cues the tuner played to this WAV file")
	cmd.Flags().BoolVar(&loop, "loop", false, "loop the recording instead of going silent at its end")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print every reading, not only state changes")
	_ = cmd.MarkFlagRequired("string")
	return cmd
}
