package main

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/himanishpuri/AudibleTuner/internal/audio"
	"github.com/himanishpuri/AudibleTuner/internal/spectral"
	"github.com/himanishpuri/AudibleTuner/internal/tuning"
	"github.com/himanishpuri/AudibleTuner/pkg/utils"
)

func newAnalyzeCmd(a *app) *cobra.Command {
	var (
		target      int
		hop         time.Duration
		spectroPath string
		quiet       bool
	)

	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Detect the pitch of every block in a recording",
		Long: `Runs the pitch detector over a recording one block at a time and prints
the detected frequency, nearest string, cents offset and direction.

WAV files already at the analysis rate are read directly; anything else is
converted with ffmpeg first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if target != 0 && !tuning.ValidString(target) {
				return fmt.Errorf("--string must be 1..%d", tuning.NumStrings)
			}
			path := args[0]
			out := cmd.OutOrStdout()

			clip, err := a.loadClip(cmd, path)
			if err != nil {
				return err
			}

			sc, err := a.cfg.SpectralConfig()
			if err != nil {
				return err
			}
			detector, err := spectral.New(sc)
			if err != nil {
				return err
			}
			ta, err := a.cfg.Analyzer()
			if err != nil {
				return err
			}

			size := "?"
			if info, err := os.Stat(path); err == nil {
				size = humanize.Bytes(uint64(info.Size()))
			}
			fmt.Fprintf(out, "📄 %s (%s, %s, %d Hz, %d ch / %d-bit source)\n",
				path, size, clip.Duration().Round(time.Millisecond), clip.SampleRate,
				clip.SourceChannels, clip.SourceBitDepth)

			hopSamples := int(hop.Seconds() * float64(clip.SampleRate))
			if hopSamples <= 0 {
				hopSamples = a.cfg.Audio.BlockSize
			}
			frames := clip.Frames(a.cfg.Audio.BlockSize, hopSamples)

			votes := map[int]int{}
			detected := 0
			for _, f := range frames {
				freq, ok := detector.Analyze(f.Block)
				if !ok {
					if !quiet {
						fmt.Fprintf(out, "%8.3fs  %s\n", f.StartMs/1000, "--")
					}
					continue
				}
				detected++
				r := ta.Analyze(freq, target)
				votes[r.DetectedString]++
				if !quiet {
					fmt.Fprintf(out, "%8.3fs  %8.2f Hz  %-4s string %d (%s)  %+7.1f cents  %-7s %s\n",
						f.StartMs/1000, freq, r.DetectedNote, r.TargetString, r.NoteName,
						r.CentsOffset, r.Direction, tuning.SeverityOf(r.CentsOffset))
				}
			}

			fmt.Fprintf(out, "\n🎯 %s of %s blocks had a usable pitch\n",
				humanize.Comma(int64(detected)), humanize.Comma(int64(len(frames))))
			if s := tuning.MostFrequent(votes); s > 0 {
				p, _ := ta.Table().Pitch(s)
				fmt.Fprintf(out, "   Most often nearest: string %d (%s %.2f Hz)\n", s, p.Name, p.Frequency)
			}

			if spectroPath != "" {
				if err := audio.RenderSpectrogram(clip, spectroPath, audio.SpectrogramOptions{}); err != nil {
					return err
				}
				fmt.Fprintf(out, "🖼  Spectrogram saved to %s\n", spectroPath)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&target, "string", "s", 0, "compare against this string (1-6) instead of the nearest")
	cmd.Flags().DurationVar(&hop, "hop", 0, "time between blocks (default one block)")
	cmd.Flags().StringVar(&spectroPath, "spectrogram", "", "also render a spectrogram PNG to this path")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "only print the summary")
	return cmd
}

// loadClip reads path at the configured analysis rate, converting through
// a scratch directory when needed.
func (a *app) loadClip(cmd *cobra.Command, path string) (*audio.Clip, error) {
	work, cleanup, err := utils.WorkDir("tuner-")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	clip, err := audio.Prepare(cmd.Context(), path, a.cfg.Audio.SampleRate, work,
		audio.LoadOptions{Normalize: a.cfg.Audio.Normalize})
	if err != nil {
		return nil, err
	}
	a.log.Debugf("loaded %s: %d samples at %d Hz", path, len(clip.Samples), clip.SampleRate)
	return clip, nil
}
