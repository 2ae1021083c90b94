package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/himanishpuri/AudibleTuner/internal/tuning"
)

func newNotesCmd(a *app) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "notes",
		Short: "Print the reference table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if !all {
				t, err := a.cfg.Table()
				if err != nil {
					return err
				}
				printTable(cmd, a.cfg.Tuning.Preset, t)
				return nil
			}
			for _, name := range tuning.PresetNames() {
				t, err := tuning.Preset(name)
				if err != nil {
					return err
				}
				printTable(cmd, name, t)
				fmt.Fprintln(out)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "list every preset")
	return cmd
}

func printTable(cmd *cobra.Command, name string, t tuning.Table) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "🎼 %s\n", name)
	for i, p := range t.Pitches() {
		fmt.Fprintf(out, "   %d  %-4s %7.2f Hz\n", i+1, p.Name, p.Frequency)
	}
}
