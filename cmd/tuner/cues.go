package main

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/himanishpuri/AudibleTuner/internal/audio"
	"github.com/himanishpuri/AudibleTuner/internal/cue"
	"github.com/himanishpuri/AudibleTuner/internal/sim"
	"github.com/himanishpuri/AudibleTuner/pkg/utils"
)

func newCuesCmd(a *app) *cobra.Command {
	var (
		dir  string
		rate int
	)

	cmd := &cobra.Command{
		Use:   "cues",
		Short: "List the audio cues, optionally rendering each to a WAV file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			named := cue.Named()
			names := make([]string, 0, len(named))
			for n := range named {
				names = append(names, n)
			}
			sort.Strings(names)

			if dir != "" {
				if err := utils.MakeDir(dir); err != nil {
					return err
				}
			}
			for _, n := range names {
				c := named[n]
				fmt.Fprintf(out, "🔔 %-10s %4d ms  %d sound(s)\n", n, c.DurationMs(), len(c))
				if dir == "" {
					continue
				}
				rec := audio.NewToneRecorder(sim.NewClock(0))
				c.Play(rec)
				path := filepath.Join(dir, n+".wav")
				if err := rec.SaveWAV(path, rate); err != nil {
					return err
				}
				a.log.Debugf("wrote %s", path)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&dir, "out", "o", "", "directory to write one WAV per cue")
	cmd.Flags().IntVar(&rate, "rate", audio.DefaultRenderRate, "sample rate of rendered files")
	return cmd
}
