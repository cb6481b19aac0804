package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/hatchpm/hatch/internal/egg"
)

var searchCmd = &cobra.Command{
	Use:   "search [term]",
	Short: "Search the configured stores for eggs",
	Long:  `Search lists every egg in the joined store whose name contains term (case-insensitive). With no term, lists everything.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		term := ""
		if len(args) > 0 {
			term = strings.ToLower(args[0])
		}

		records, err := app.QueryRemote(globalCtx, "")
		if err != nil {
			return err
		}

		installed, err := app.QueryInstalled(globalCtx, "")
		if err != nil {
			return err
		}
		installedVersions := make(map[string]string, len(installed))
		for _, r := range installed {
			installedVersions[egg.CanonicalName(r.Name)] = r.Version
		}

		type row struct{ Name, Version, Installed string }
		var rows []row
		seen := map[string]bool{}
		for _, r := range records {
			if seen[r.Filename()] {
				continue
			}
			seen[r.Filename()] = true
			if term != "" && !strings.Contains(strings.ToLower(r.Name), term) {
				continue
			}
			inst := "-"
			if v, ok := installedVersions[egg.CanonicalName(r.Name)]; ok {
				inst = v
			}
			rows = append(rows, row{Name: r.Name, Version: r.Version, Installed: inst})
		}

		if len(rows) == 0 {
			printInfof("No eggs found matching %q.\n", term)
			return nil
		}

		maxName := 4
		for _, r := range rows {
			if len(r.Name) > maxName {
				maxName = len(r.Name)
			}
		}
		printInfof("%-*s  %-15s  %s\n", maxName, "NAME", "VERSION", "INSTALLED")
		for _, r := range rows {
			printInfof("%-*s  %-15s  %s\n", maxName, r.Name, r.Version, r.Installed)
		}
		return nil
	},
}
