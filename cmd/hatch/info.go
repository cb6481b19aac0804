package main

import (
	"github.com/spf13/cobra"

	"github.com/hatchpm/hatch/internal/requirement"
)

var infoCmd = &cobra.Command{
	Use:   "info <requirement>",
	Short: "Show metadata for eggs matching a requirement",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := requirement.Parse(args[0])
		if err != nil {
			return err
		}

		records, err := app.Query(globalCtx, req.Name)
		if err != nil {
			return err
		}

		var matches int
		for _, r := range records {
			if !req.Matches(r) {
				continue
			}
			matches++
			printInfof("Name:     %s\n", r.Name)
			printInfof("Version:  %s\n", r.Version)
			printInfof("Build:    %d\n", r.Build)
			printInfof("Platform: %s %s\n", r.OSDist, r.Arch)
			printInfof("Python:   %s\n", r.Python)
			printInfof("Packages: %v\n", r.Packages)
			printInfof("MD5:      %s\n", r.MD5)
			printInfof("Size:     %d\n\n", r.Size)
		}
		if matches == 0 {
			printInfof("No eggs found matching %q.\n", req.String())
		}
		return nil
	},
}
