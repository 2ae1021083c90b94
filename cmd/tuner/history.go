package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/himanishpuri/AudibleTuner/internal/journal"
	"github.com/himanishpuri/AudibleTuner/pkg/models"
)

func newHistoryCmd(a *app) *cobra.Command {
	var (
		limit     int
		stringNum int
		stats     bool
		deleteID  string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List tuning sessions recorded in the journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			store, err := journal.Open(a.cfg.Journal.DBPath)
			if err != nil {
				return err
			}
			defer store.Close()

			switch {
			case deleteID != "":
				if err := store.Delete(deleteID); err != nil {
					if errors.Is(err, journal.ErrNotFound) {
						return fmt.Errorf("no session with id %s", deleteID)
					}
					return err
				}
				fmt.Fprintf(out, "🗑  Deleted session %s\n", deleteID)
				return nil

			case stats:
				rows, err := store.Stats()
				if err != nil {
					return err
				}
				if len(rows) == 0 {
					fmt.Fprintln(out, "📭 No sessions recorded")
					return nil
				}
				fmt.Fprintln(out, "String  Sessions  In tune  Avg length")
				for _, r := range rows {
					fmt.Fprintf(out, "%6d  %8s  %7s  %10s\n", r.String,
						humanize.Comma(int64(r.Sessions)), humanize.Comma(int64(r.ReachedInTune)),
						(time.Duration(r.AvgDurationMs) * time.Millisecond).Round(100*time.Millisecond))
				}
				return nil
			}

			recs, err := store.ListByString(stringNum, limit)
			if err != nil {
				return err
			}
			if len(recs) == 0 {
				fmt.Fprintln(out, "📭 No sessions recorded")
				if !a.cfg.Journal.Enabled {
					fmt.Fprintln(out, "   Recording is off; enable journal.enabled or pass --journal")
				}
				return nil
			}

			fmt.Fprintf(out, "📚 %d session(s):\n\n", len(recs))
			for i, r := range recs {
				printSession(cmd, i+1, r)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "show at most this many sessions (0 for all)")
	cmd.Flags().IntVarP(&stringNum, "string", "s", 0, "only sessions on this string")
	cmd.Flags().BoolVar(&stats, "stats", false, "show per-string totals instead")
	cmd.Flags().StringVar(&deleteID, "delete", "", "delete the session with this id")
	return cmd
}

func printSession(cmd *cobra.Command, n int, r models.SessionRecord) {
	out := cmd.OutOrStdout()
	status := "❌"
	if r.ReachedInTune {
		status = "✅"
	}
	fmt.Fprintf(out, "%d. %s String %d (%s %.2f Hz) · %s · %s\n",
		n, status, r.String, r.Note, r.TargetHz, r.Mode, humanize.Time(r.StartedAt))
	fmt.Fprintf(out, "   Lasted %s · %s readings · ended in %s\n",
		(time.Duration(r.DurationMs) * time.Millisecond).Round(100*time.Millisecond),
		humanize.Comma(int64(r.Readings)), r.EndState)
	if r.HasBest {
		fmt.Fprintf(out, "   Best %+.1f cents · last %+.1f cents (%.2f Hz)\n", r.BestCents, r.LastCents, r.LastHz)
	}
	fmt.Fprintf(out, "   ID: %s\n\n", r.ID)
}
