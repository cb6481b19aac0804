package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	lru "github.com/hashicorp/golang-lru"
	"github.com/spf13/cobra"

	"github.com/hatchpm/hatch/internal/buildinfo"
	"github.com/hatchpm/hatch/internal/collection"
	"github.com/hatchpm/hatch/internal/config"
	"github.com/hatchpm/hatch/internal/facade"
	"github.com/hatchpm/hatch/internal/fetch"
	"github.com/hatchpm/hatch/internal/herrors"
	"github.com/hatchpm/hatch/internal/history"
	"github.com/hatchpm/hatch/internal/httputil"
	"github.com/hatchpm/hatch/internal/log"
	"github.com/hatchpm/hatch/internal/resolver"
	"github.com/hatchpm/hatch/internal/secrets"
	"github.com/hatchpm/hatch/internal/store"
	"github.com/hatchpm/hatch/internal/userconfig"
)

var (
	quietFlag   bool
	verboseFlag bool
	debugFlag   bool
	prefixFlag  string
	plainFlag   bool
)

// globalCtx is canceled on SIGINT/SIGTERM so in-flight fetch/install
// steps can unwind instead of leaving a half-written download behind.
var globalCtx context.Context
var globalCancel context.CancelFunc

// app holds the facade and is built once, after flags are parsed, in
// PersistentPreRunE -- commands read it from the package-level variable
// rather than threading it through every RunE.
var app *facade.Facade

var rootCmd = &cobra.Command{
	Use:   "hatch",
	Short: "A package manager for pre-built binary egg archives",
	Long: `hatch installs, removes, and tracks pre-built binary "egg"
archives from one or more indexed stores into a prefix directory.`,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Show errors only")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Show verbose output (INFO level)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Show debug output (includes source locations)")
	rootCmd.PersistentFlags().StringVar(&prefixFlag, "prefix", "", "Installation prefix (default: $HATCH_HOME/prefix)")
	rootCmd.PersistentFlags().BoolVar(&plainFlag, "plain", true, "Use plain mode (one version per package name)")

	rootCmd.PersistentPreRunE = setup

	rootCmd.Version = buildinfo.Version()

	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(revertCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(completionCmd)
}

func main() {
	globalCtx, globalCancel = context.WithCancel(context.Background())
	defer globalCancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		fmt.Fprintf(os.Stderr, "\nReceived %s, canceling operation...\n", sig)
		globalCancel()
		<-sigChan
		fmt.Fprintln(os.Stderr, "Forced exit")
		exitWithCode(ExitCancelled)
	}()

	if err := rootCmd.Execute(); err != nil {
		if globalCtx.Err() == context.Canceled {
			exitWithCode(ExitCancelled)
		}
		handleError(err)
	}
}

// setup initializes the logger and builds the facade from the resolved
// configuration and store chain. It runs once before every command.
func setup(cmd *cobra.Command, args []string) error {
	initLogger()

	cfg, err := config.DefaultConfig()
	if err != nil {
		return &herrors.Fatal{Op: "config", Err: err}
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return &herrors.Fatal{Op: "config.ensure_directories", Err: err}
	}

	prefix := prefixFlag
	if prefix == "" {
		prefix = filepath.Join(cfg.HomeDir, "prefix")
	}

	userCfg, err := userconfig.Load()
	if err != nil {
		return &herrors.Fatal{Op: "userconfig.load", Err: err}
	}

	joinedStore, err := buildStoreChain(userCfg)
	if err != nil {
		return err
	}
	if err := joinedStore.Connect(globalCtx, store.Credentials{}); err != nil {
		return err
	}

	mode := collection.Hook
	if plainFlag {
		mode = collection.Plain
	}
	col := collection.NewJoined(collection.New(prefix, mode))

	f := fetch.New(joinedStore, cfg.DownloadDir)
	h := history.New(filepath.Join(cfg.HistoryDir, sanitizePrefixName(prefix)))
	r := resolver.New(joinedStore)

	app = facade.New(joinedStore, r, col, f, h, plainFlag, cfg.DownloadDir)
	return nil
}

// buildStoreChain builds one store per configured repository, in
// order, behind a single store.Joined so the resolver and facade see
// one logical store regardless of how many repositories are chained.
func buildStoreChain(userCfg *userconfig.Config) (*store.Joined, error) {
	if len(userCfg.Repositories) == 0 {
		return store.NewJoined(log.Default()), nil
	}

	cache, err := lru.New(8)
	if err != nil {
		return nil, &herrors.Fatal{Op: "store.new_cache", Err: err}
	}

	children := make([]store.Store, 0, len(userCfg.Repositories))
	for _, repo := range userCfg.Repositories {
		s, err := buildRepoStore(repo, cache)
		if err != nil {
			return nil, err
		}
		children = append(children, s)
	}
	return store.NewJoined(log.Default(), children...), nil
}

// buildRepoStore picks a store implementation from the repository URL's
// scheme/suffix: http(s):// goes to the remote indexed store, a
// directory ending in LOCAL-REPO or .eggs is an unindexed local archive
// directory, anything else is treated as a local directory carrying an
// index-depend file.
func buildRepoStore(repo userconfig.Repository, cache *lru.Cache) (store.Store, error) {
	switch {
	case strings.HasPrefix(repo.URL, "http://"), strings.HasPrefix(repo.URL, "https://"):
		opts := httputil.DefaultOptions()
		opts.AllowInsecureHTTP = repo.Insecure
		client := httputil.NewSecureClient(opts)
		return store.NewRemoteHTTPIndexedStore(repo.URL, client, cache), nil
	case strings.HasSuffix(repo.URL, "LOCAL-REPO"), strings.HasSuffix(repo.URL, ".eggs"):
		return store.NewLocalRepo(repo.URL), nil
	default:
		return store.NewLocalIndexedStore(repo.URL), nil
	}
}

// sanitizePrefixName turns a prefix path into a filesystem-safe history
// log filename, since one hatch home can track several prefixes.
func sanitizePrefixName(prefix string) string {
	clean := filepath.Clean(prefix)
	replacer := strings.NewReplacer(string(filepath.Separator), "_", " ", "_")
	return replacer.Replace(strings.TrimPrefix(clean, string(filepath.Separator)))
}

func initLogger() {
	level := determineLogLevel()
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	})
	log.SetDefault(log.New(handler))

	if _, err := secrets.Get("proxy_user"); err == nil {
		log.Default().Debug("proxy credentials configured")
	}
}

func determineLogLevel() slog.Level {
	if debugFlag {
		return slog.LevelDebug
	}
	if verboseFlag {
		return slog.LevelInfo
	}
	if quietFlag {
		return slog.LevelError
	}
	if isTruthy(os.Getenv("HATCH_DEBUG")) {
		return slog.LevelDebug
	}
	if isTruthy(os.Getenv("HATCH_VERBOSE")) {
		return slog.LevelInfo
	}
	if isTruthy(os.Getenv("HATCH_QUIET")) {
		return slog.LevelError
	}
	return slog.LevelWarn
}

func isTruthy(s string) bool {
	s = strings.ToLower(s)
	return s == "1" || s == "true" || s == "yes" || s == "on"
}
