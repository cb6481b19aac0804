package main

import (
	"github.com/spf13/cobra"

	"github.com/hatchpm/hatch/internal/requirement"
)

var removeDryRun bool

var removeCmd = &cobra.Command{
	Use:   "remove <requirement>",
	Short: "Remove an installed egg",
	Long: `Remove an egg from the prefix. The requirement must name at
least a package name. A requirement matching more than one installed
egg is rejected as ambiguous.

Examples:
  hatch remove numpy
  hatch remove "numpy 1.26.0-1"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := requirement.Parse(args[0])
		if err != nil {
			return err
		}

		if removeDryRun {
			plan, err := app.RemoveActions(globalCtx, req)
			if err != nil {
				return err
			}
			printPlan(plan)
			return nil
		}

		performed, err := app.Remove(globalCtx, req, progressSink)
		if err != nil {
			return err
		}
		printInfof("%s: %d action(s) performed\n", req.String(), performed)
		return nil
	},
}

func init() {
	removeCmd.Flags().BoolVar(&removeDryRun, "dry-run", false, "Show the plan without executing it")
}
