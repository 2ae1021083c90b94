package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/himanishpuri/AudibleTuner/configs"
	"github.com/himanishpuri/AudibleTuner/internal/journal"
	"github.com/himanishpuri/AudibleTuner/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	d := configs.GetDefaultConfig()
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve pitch detection and the session journal over HTTP",
		Long: `Starts a JSON API for browser and companion clients:

  POST /api/detect      judge one block of float samples
  POST /api/analyze     analyse an uploaded recording
  GET  /api/tunings     active reference table and presets
  GET  /api/sessions    journal entries (with --journal)
  GET  /api/stats       per-string journal totals`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var sessions server.Sessions
			if a.cfg.Journal.Enabled {
				store, err := journal.Open(a.cfg.Journal.DBPath)
				if err != nil {
					return err
				}
				defer store.Close()
				sessions = store
				a.log.Infof("   Journal: %s", a.cfg.Journal.DBPath)
			}

			srv, err := server.New(a.cfg, a.log.With("http"), sessions)
			if err != nil {
				return err
			}
			return srv.Run(ctx)
		},
	}

	cmd.Flags().String("addr", d.Server.Addr, "listen address")
	cmd.Flags().StringSlice("origins", d.Server.AllowedOrigins, "allowed CORS origins (* for all)")
	cmd.Flags().Bool("log-requests", d.Server.LogRequests, "log every request")
	return cmd
}
