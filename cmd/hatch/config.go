package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/hatchpm/hatch/internal/secrets"
	"github.com/hatchpm/hatch/internal/userconfig"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage hatch configuration",
	Long: `Display or manage hatch configuration settings, stored in
$HATCH_HOME/config.toml.

Available settings:
  telemetry           Enable anonymous usage statistics (true/false)
  default_strictness  Default requirement strictness applied to unqualified requirements (0-3)
  secrets.*           Store-chain credentials (set via stdin)`,
	RunE: runConfigShow,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]

		if secretName, ok := strings.CutPrefix(strings.ToLower(key), "secrets."); ok {
			if secrets.IsSet(secretName) {
				fmt.Println("(set)")
			} else {
				fmt.Println("(not set)")
			}
			return nil
		}

		cfg, err := userconfig.Load()
		if err != nil {
			return err
		}
		value, ok := cfg.Get(key)
		if !ok {
			fmt.Fprintf(os.Stderr, "Unknown config key: %s\n", key)
			printAvailableKeys()
			exitWithCode(ExitUsage)
		}
		fmt.Println(value)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> [value]",
	Short: "Set a configuration value",
	Long: `Secrets (keys with a "secrets." prefix) are read from stdin
instead of the command line, to avoid exposure in shell history.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runConfigSet,
}

var stdinReader io.Reader = os.Stdin
var stdinIsTerminal = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := userconfig.Load()
	if err != nil {
		return err
	}
	fmt.Printf("telemetry = %v\n", cfg.Telemetry)
	fmt.Printf("default_strictness = %d\n", cfg.StrictnessLevel())
	fmt.Printf("repositories = %s\n", strings.Join(cfg.RepositoryNames(), ","))
	for _, key := range sortedSecretNames() {
		set := "(not set)"
		if secrets.IsSet(key) {
			set = "(set)"
		}
		fmt.Printf("secrets.%s = %s\n", key, set)
	}
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := args[0]
	isSecret := strings.HasPrefix(strings.ToLower(key), "secrets.")

	var value string
	if isSecret {
		secretName, _ := strings.CutPrefix(strings.ToLower(key), "secrets.")
		if len(args) > 1 {
			return fmt.Errorf("secret values must be provided via stdin, not as arguments: echo \"value\" | hatch config set %s", key)
		}
		v, err := readSecretFromStdin(secretName)
		if err != nil {
			return err
		}
		value = v
	} else {
		if len(args) < 2 {
			return fmt.Errorf("value required for non-secret key %q: hatch config set %s <value>", key, key)
		}
		value = args[1]
	}

	cfg, err := userconfig.Load()
	if err != nil {
		return err
	}
	if err := cfg.Set(key, value); err != nil {
		printAvailableKeys()
		return err
	}
	if err := cfg.Save(); err != nil {
		return err
	}

	if isSecret {
		fmt.Printf("%s = (set)\n", key)
	} else {
		fmt.Printf("%s = %s\n", key, value)
	}
	return nil
}

func readSecretFromStdin(secretName string) (string, error) {
	if stdinIsTerminal() {
		fmt.Fprintf(os.Stderr, "Enter value for %s: ", secretName)
	}
	reader := bufio.NewReader(stdinReader)
	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read from stdin: %w", err)
	}
	value := strings.TrimRight(line, "\r\n")
	if value == "" {
		return "", fmt.Errorf("empty value provided")
	}
	return value, nil
}

func sortedSecretNames() []string {
	infos := secrets.KnownKeys()
	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name
	}
	sort.Strings(names)
	return names
}

func printAvailableKeys() {
	keys := userconfig.AvailableKeys()
	names := make([]string, 0, len(keys))
	for k := range keys {
		names = append(names, k)
	}
	sort.Strings(names)
	fmt.Fprintf(os.Stderr, "\nAvailable keys:\n")
	for _, k := range names {
		fmt.Fprintf(os.Stderr, "  %-20s %s\n", k, keys[k])
	}
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
}
