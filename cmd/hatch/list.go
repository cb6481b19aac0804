package main

import (
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed eggs",
	Long:  `List every egg currently installed in the prefix.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := app.QueryInstalled(globalCtx, "")
		if err != nil {
			return err
		}
		if len(records) == 0 {
			printInfo("No eggs installed.")
			return nil
		}
		printInfof("Installed eggs (%d total):\n\n", len(records))
		maxName := 4
		for _, r := range records {
			if len(r.Name) > maxName {
				maxName = len(r.Name)
			}
		}
		for _, r := range records {
			printInfof("  %-*s  %s\n", maxName, r.Name, r.Filename())
		}
		return nil
	},
}
