// Package config resolves hatch's on-disk layout and tunables from
// environment variables, with validated ranges and safe fallbacks.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	// EnvHatchHome overrides the default hatch home directory.
	EnvHatchHome = "HATCH_HOME"

	// EnvAPITimeout configures the HTTP timeout used by remote stores.
	EnvAPITimeout = "HATCH_API_TIMEOUT"

	// EnvIndexCacheTTL configures how long a parsed remote index is
	// trusted before a store re-fetches it.
	EnvIndexCacheTTL = "HATCH_INDEX_CACHE_TTL"

	// DefaultAPITimeout is the default HTTP timeout (30 seconds).
	DefaultAPITimeout = 30 * time.Second

	// DefaultIndexCacheTTL is the default remote index cache TTL (1 hour).
	DefaultIndexCacheTTL = 1 * time.Hour
)

// GetAPITimeout returns the configured API timeout from HATCH_API_TIMEOUT.
// If not set or invalid, returns DefaultAPITimeout. Accepts duration
// strings like "30s", "1m", "2m30s". Clamped to [1s, 10m].
func GetAPITimeout() time.Duration {
	envValue := os.Getenv(EnvAPITimeout)
	if envValue == "" {
		return DefaultAPITimeout
	}

	duration, err := time.ParseDuration(envValue)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: invalid %s value %q, using default %v\n",
			EnvAPITimeout, envValue, DefaultAPITimeout)
		return DefaultAPITimeout
	}

	if duration < 1*time.Second {
		fmt.Fprintf(os.Stderr, "Warning: %s too low (%v), using minimum 1s\n", EnvAPITimeout, duration)
		return 1 * time.Second
	}
	if duration > 10*time.Minute {
		fmt.Fprintf(os.Stderr, "Warning: %s too high (%v), using maximum 10m\n", EnvAPITimeout, duration)
		return 10 * time.Minute
	}

	return duration
}

// GetIndexCacheTTL returns the configured remote index cache TTL from
// HATCH_INDEX_CACHE_TTL. If not set or invalid, returns
// DefaultIndexCacheTTL. Clamped to [5m, 7d].
func GetIndexCacheTTL() time.Duration {
	envValue := os.Getenv(EnvIndexCacheTTL)
	if envValue == "" {
		return DefaultIndexCacheTTL
	}

	duration, err := time.ParseDuration(envValue)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: invalid %s value %q, using default %v\n",
			EnvIndexCacheTTL, envValue, DefaultIndexCacheTTL)
		return DefaultIndexCacheTTL
	}

	if duration < 5*time.Minute {
		fmt.Fprintf(os.Stderr, "Warning: %s too low (%v), using minimum 5m\n", EnvIndexCacheTTL, duration)
		return 5 * time.Minute
	}
	if duration > 7*24*time.Hour {
		fmt.Fprintf(os.Stderr, "Warning: %s too high (%v), using maximum 7d\n", EnvIndexCacheTTL, duration)
		return 7 * 24 * time.Hour
	}

	return duration
}

// ParseByteSize parses a human-readable byte size string into bytes.
// Accepts plain numbers, and K/KB, M/MB, G/GB suffixes, case-insensitive.
func ParseByteSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty size string")
	}
	s = strings.ToUpper(s)

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}

	var numStr, suffix string
	for i, c := range s {
		if c >= '0' && c <= '9' || c == '.' {
			numStr += string(c)
		} else {
			suffix = s[i:]
			break
		}
	}
	if numStr == "" {
		return 0, fmt.Errorf("invalid size format: %q", s)
	}

	num, err := strconv.ParseFloat(numStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size number: %q", numStr)
	}

	var multiplier float64
	switch suffix {
	case "", "B":
		multiplier = 1
	case "K", "KB":
		multiplier = 1024
	case "M", "MB":
		multiplier = 1024 * 1024
	case "G", "GB":
		multiplier = 1024 * 1024 * 1024
	default:
		return 0, fmt.Errorf("invalid size suffix: %q", suffix)
	}

	return int64(num * multiplier), nil
}

// DefaultHomeOverride can be set by the binary's main package (via
// ldflags) to change the default home directory for dev builds.
// HATCH_HOME still takes precedence.
var DefaultHomeOverride string

// Config holds hatch's resolved on-disk layout for a single user.
// Prefixes (installation roots) are a separate, caller-supplied concept;
// Config only covers hatch's own bookkeeping directories.
type Config struct {
	HomeDir     string // $HATCH_HOME
	RegistryDir string // $HATCH_HOME/registry (cached remote index files)
	CacheDir    string // $HATCH_HOME/cache
	DownloadDir string // $HATCH_HOME/cache/downloads (default local cache, see LOCAL-REPO)
	HistoryDir  string // $HATCH_HOME/history (per-prefix history logs)
	ConfigFile  string // $HATCH_HOME/config.toml
}

// DefaultConfig returns hatch's default configuration, honoring
// HATCH_HOME and DefaultHomeOverride.
func DefaultConfig() (*Config, error) {
	hatchHome := os.Getenv(EnvHatchHome)
	if hatchHome == "" {
		if DefaultHomeOverride != "" {
			hatchHome = DefaultHomeOverride
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("failed to get user home directory: %w", err)
			}
			hatchHome = filepath.Join(home, ".hatch")
		}
	}

	return &Config{
		HomeDir:     hatchHome,
		RegistryDir: filepath.Join(hatchHome, "registry"),
		CacheDir:    filepath.Join(hatchHome, "cache"),
		DownloadDir: filepath.Join(hatchHome, "cache", "downloads"),
		HistoryDir:  filepath.Join(hatchHome, "history"),
		ConfigFile:  filepath.Join(hatchHome, "config.toml"),
	}, nil
}

// EnsureDirectories creates all of hatch's own bookkeeping directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.HomeDir, c.RegistryDir, c.CacheDir, c.DownloadDir, c.HistoryDir}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
