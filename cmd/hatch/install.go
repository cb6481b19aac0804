package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hatchpm/hatch/internal/executor"
	"github.com/hatchpm/hatch/internal/requirement"
	"github.com/hatchpm/hatch/internal/resolver"
)

var (
	installForce    bool
	installForceall bool
	installNoDeps   bool
	installDryRun   bool
)

var installCmd = &cobra.Command{
	Use:   "install <requirement>...",
	Short: "Install one or more eggs",
	Long: `Install resolves each requirement against the configured store
chain, computes an ordered plan of fetch/remove/install actions, and
executes it.

Examples:
  hatch install numpy
  hatch install "numpy 1.26.0"
  hatch install --dry-run numpy
  hatch install --force numpy`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode := resolver.ModeRecur
		if installNoDeps {
			mode = resolver.ModeRoot
		}

		for _, arg := range args {
			req, err := requirement.Parse(arg)
			if err != nil {
				return err
			}

			if installDryRun {
				plan, _, err := app.InstallActions(globalCtx, req, mode, installForce, installForceall)
				if err != nil {
					return err
				}
				printPlan(plan)
				continue
			}

			performed, err := app.Install(globalCtx, req, mode, installForce, installForceall, progressSink)
			if err != nil {
				return err
			}
			printInfof("%s: %d action(s) performed\n", req.String(), performed)
		}
		return nil
	},
}

func init() {
	installCmd.Flags().BoolVar(&installForce, "force", false, "Reinstall the requested egg even if already present")
	installCmd.Flags().BoolVar(&installForceall, "forceall", false, "Reinstall the requested egg and every dependency")
	installCmd.Flags().BoolVar(&installNoDeps, "no-deps", false, "Install only the requested egg, ignoring its dependencies")
	installCmd.Flags().BoolVar(&installDryRun, "dry-run", false, "Show the plan without executing it")
}

func printPlan(plan executor.Plan) {
	if len(plan) == 0 {
		printInfo("Nothing to do.")
		return
	}
	for _, step := range plan {
		printInfo(step.String())
	}
}

// progressSink prints one line per completed step; detailed byte-level
// progress is left to the fetcher's own ProgressFunc, which this sink
// does not receive (executor.Event carries only step-level progress).
func progressSink(e executor.Event) {
	if quietFlag {
		return
	}
	status := "ok"
	if e.Err != nil {
		status = fmt.Sprintf("failed: %v", e.Err)
	}
	printInfof("[%d/%d] %s: %s\n", e.Index+1, e.Total, e.Step.String(), status)
}
