package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/himanishpuri/AudibleTuner/configs"
	"github.com/himanishpuri/AudibleTuner/pkg/logger"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	configFile string
	v          *viper.Viper
	cfg        *configs.Config
	log        *logger.Logger
}

// flagKeys maps persistent flags onto config keys.
var flagKeys = map[string]string{
	"log-level":   "log_level",
	"sample-rate": "audio.sample_rate",
	"preset":      "tuning.preset",
	"tolerance":   "tuning.tolerance_cents",
	"mode":        "controller.mode",
	"journal":     "journal.enabled",
	"db":          "journal.db_path",

	"addr":         "server.addr",
	"origins":      "server.allowed_origins",
	"log-requests": "server.log_requests",
}

func newRootCmd() *cobra.Command {
	a := &app{}
	d := configs.GetDefaultConfig()

	root := &cobra.Command{
		Use:   "tuner",
		Short: "Audible guitar tuner engine",
		Long: `An accessible guitar tuner driven entirely by sound.

Select a string, hear its reference pitch, play it, and the tuner answers
with beeps that speed up as you get closer. This tool runs the same engine
offline: analyse recordings, replay a whole tuning session against a WAV
file, and browse the session journal.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "",
		"config file (default is ./tuner.yaml or $HOME/.config/audibletuner/tuner.yaml)")
	pf.String("log-level", d.LogLevel, "log level (debug, info, warn, error, silent)")
	pf.Int("sample-rate", d.Audio.SampleRate, "analysis sample rate in Hz")
	pf.String("preset", d.Tuning.Preset, "tuning preset")
	pf.Float64("tolerance", d.Tuning.ToleranceCents, "in-tune tolerance in cents")
	pf.String("mode", d.Controller.Mode, "session mode (play-tone, listen-only)")
	pf.Bool("journal", d.Journal.Enabled, "record finished sessions")
	pf.String("db", d.Journal.DBPath, "journal database path")

	root.AddCommand(
		newAnalyzeCmd(a),
		newSimulateCmd(a),
		newHistoryCmd(a),
		newConfigCmd(a),
		newNotesCmd(a),
		newCuesCmd(a),
		newServeCmd(a),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	a.v = configs.New(a.configFile)
	if err := bindFlags(cmd, a.v); err != nil {
		return err
	}

	cfg, err := configs.Load(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("%w: %v", configs.ErrInvalidConfig, err)
	}
	lc := logger.DefaultConfig()
	lc.Level = level
	lc.Output = cmd.ErrOrStderr()
	lc.Colorize = os.Getenv("NO_COLOR") == "" && cmd.ErrOrStderr() == os.Stderr
	a.log = logger.New(lc)

	if used := a.v.ConfigFileUsed(); used != "" {
		a.log.Debugf("using config file %s", used)
	}
	return nil
}

// bindFlags binds each known cobra flag to its viper key. Flags only win
// when set on the command line.
func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	var lastErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok {
			return
		}
		if err := v.BindPFlag(key, f); err != nil {
			lastErr = err
		}
	})
	return lastErr
}
