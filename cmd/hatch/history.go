package main

import (
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded installation-state revisions for this prefix",
	RunE: func(cmd *cobra.Command, args []string) error {
		revisions, err := app.History.Load()
		if err != nil {
			return err
		}
		if len(revisions) == 0 {
			printInfo("No history recorded for this prefix.")
			return nil
		}
		for _, rev := range revisions {
			printInfof("%d  %s  (%d eggs)\n", rev.Rev, rev.Timestamp.Format("2006-01-02T15:04:05Z07:00"), len(rev.State))
		}
		return nil
	},
}

var revertCmd = &cobra.Command{
	Use:   "revert <rev>",
	Short: "Revert the prefix to a previously recorded revision",
	Long: `revert accepts either an integer revision number or an
RFC3339 timestamp, in which case it resolves to the latest revision at
or before that time.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.Revert(globalCtx, args[0]); err != nil {
			return err
		}
		printInfof("Reverted to revision %s.\n", args[0])
		return nil
	},
}
