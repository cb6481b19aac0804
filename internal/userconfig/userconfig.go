// Package userconfig provides user configuration management for hatch.
// Configuration is stored in ~/.hatch/config.toml and can be modified
// via the `hatch config` command.
package userconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/hatchpm/hatch/internal/config"
	"github.com/hatchpm/hatch/internal/log"
)

// Repository describes one entry in the default store chain a facade
// connects when no explicit store list is given on the command line.
type Repository struct {
	// Name identifies the repository for credential lookup (see
	// internal/secrets.RepoCredential) and for display in `hatch config`.
	Name string `toml:"name"`

	// URL is the store's location: a local directory path, an
	// "index-depend.bz2"/"index-depend.txt" base URL, or a LOCAL-REPO zip
	// directory, depending on scheme and suffix.
	URL string `toml:"url"`

	// Insecure permits this repository's HTTP client to follow redirects
	// that stay on plain HTTP instead of requiring HTTPS.
	Insecure bool `toml:"insecure,omitempty"`
}

// Config represents user-configurable settings.
type Config struct {
	// Telemetry enables or disables anonymous usage statistics.
	// Default is true (enabled).
	Telemetry bool `toml:"telemetry"`

	// DefaultStrictness is the requirement strictness level (0-3) applied
	// when a command-line requirement string omits version/build
	// qualifiers. Default is 0 (name only, any version/build matches).
	DefaultStrictness *int `toml:"default_strictness,omitempty"`

	// Repositories is the default, ordered store chain. Each repository is
	// tried in order; the first to hold a matching egg wins.
	Repositories []Repository `toml:"repositories,omitempty"`

	// Secrets stores per-repository credentials and proxy settings in the
	// [secrets] section. Values are resolved through the secrets package,
	// which checks environment variables first and falls through to this
	// map.
	Secrets map[string]string `toml:"secrets,omitempty"`
}

const (
	// DefaultStrictness is the requirement strictness level used when
	// unset (see REQ module: 0 = name only).
	DefaultStrictness = 0

	// MaxStrictness is the highest valid requirement strictness level.
	MaxStrictness = 3
)

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Telemetry: true, // Enabled by default
	}
}

// Load reads the config file and returns the configuration.
// Returns default values if the file doesn't exist.
// Returns an error only for file parsing issues, not missing files.
func Load() (*Config, error) {
	cfg, err := config.DefaultConfig()
	if err != nil {
		return DefaultConfig(), nil // Silently use defaults
	}

	return loadFromPath(cfg.ConfigFile)
}

// loadFromPath reads config from a specific file path (for testing).
func loadFromPath(path string) (*Config, error) {
	userCfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return userCfg, nil // File doesn't exist, use defaults
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Check permissions: warn if group/other have any access.
	if info, err := os.Stat(path); err == nil {
		mode := info.Mode().Perm()
		if mode&0077 != 0 {
			log.Default().Warn("config file has permissive permissions",
				"path", path,
				"mode", fmt.Sprintf("%04o", mode),
				"expected", "0600",
			)
		}
	}

	if _, err := toml.Decode(string(data), userCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return userCfg, nil
}

// Save writes the configuration to the config file.
func (c *Config) Save() error {
	cfg, err := config.DefaultConfig()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	return c.saveToPath(cfg.ConfigFile)
}

// saveToPath writes config to a specific file path using atomic writes with 0600 permissions.
// It writes to a temporary file first and renames it to the target path, preventing
// mid-write corruption and ensuring the file always has correct permissions from creation.
func (c *Config) saveToPath(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Create temp file in same directory (ensures same filesystem for atomic rename).
	tmpFile, err := os.CreateTemp(dir, ".config.toml.tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath) // Cleanup on error; no-op after successful rename.

	// Set 0600 explicitly (CreateTemp may use different umask).
	if err := tmpFile.Chmod(0600); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to set temp file permissions: %w", err)
	}

	// Write config.
	encoder := toml.NewEncoder(tmpFile)
	if err := encoder.Encode(c); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write config file: %w", err)
	}

	// Close before rename (required on some platforms).
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// Atomic rename.
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// StrictnessLevel returns the configured default requirement strictness.
// Returns DefaultStrictness if not explicitly set.
func (c *Config) StrictnessLevel() int {
	if c.DefaultStrictness == nil {
		return DefaultStrictness
	}
	return *c.DefaultStrictness
}

// RepositoryNames returns the configured repository names in chain order.
func (c *Config) RepositoryNames() []string {
	names := make([]string, len(c.Repositories))
	for i, r := range c.Repositories {
		names[i] = r.Name
	}
	return names
}

// Get returns the value of a config key as a string.
// Returns empty string and false if the key doesn't exist.
// Keys with the "secrets." prefix are resolved from the Secrets map.
func (c *Config) Get(key string) (string, bool) {
	lowerKey := strings.ToLower(key)

	// Handle secrets.* prefix.
	if secretName, ok := strings.CutPrefix(lowerKey, "secrets."); ok {
		if c.Secrets != nil {
			if val, found := c.Secrets[secretName]; found && val != "" {
				return val, true
			}
		}
		return "", false
	}

	switch lowerKey {
	case "telemetry":
		return strconv.FormatBool(c.Telemetry), true
	case "default_strictness":
		return strconv.Itoa(c.StrictnessLevel()), true
	case "repositories":
		return strings.Join(c.RepositoryNames(), ","), true
	default:
		return "", false
	}
}

// Set updates a config value from a string.
// Returns an error if the key doesn't exist or the value is invalid.
// Keys with the "secrets." prefix are stored in the Secrets map.
func (c *Config) Set(key, value string) error {
	lowerKey := strings.ToLower(key)

	// Handle secrets.* prefix.
	if secretName, ok := strings.CutPrefix(lowerKey, "secrets."); ok {
		if c.Secrets == nil {
			c.Secrets = make(map[string]string)
		}
		c.Secrets[secretName] = value
		return nil
	}

	switch lowerKey {
	case "telemetry":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for telemetry: must be true or false")
		}
		c.Telemetry = b
		return nil
	case "default_strictness":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for default_strictness: must be an integer")
		}
		if n < 0 || n > MaxStrictness {
			return fmt.Errorf("invalid value for default_strictness: must be between 0 and %d", MaxStrictness)
		}
		c.DefaultStrictness = &n
		return nil
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
}

// AddRepository appends a repository to the default chain, replacing any
// existing entry with the same name.
func (c *Config) AddRepository(r Repository) {
	for i, existing := range c.Repositories {
		if existing.Name == r.Name {
			c.Repositories[i] = r
			return
		}
	}
	c.Repositories = append(c.Repositories, r)
}

// RemoveRepository drops the named repository from the default chain.
// Returns false if no repository had that name.
func (c *Config) RemoveRepository(name string) bool {
	for i, r := range c.Repositories {
		if r.Name == name {
			c.Repositories = append(c.Repositories[:i], c.Repositories[i+1:]...)
			return true
		}
	}
	return false
}

// AvailableKeys returns a list of all configurable scalar keys with
// descriptions. Repository chain entries are managed through
// AddRepository/RemoveRepository rather than Get/Set, since each entry is
// a structured record rather than a single string.
func AvailableKeys() map[string]string {
	return map[string]string{
		"telemetry":          "Enable anonymous usage statistics (true/false)",
		"default_strictness": "Default requirement strictness level applied to unqualified requirements (0-3)",
		"repositories":       "Comma-separated names of the configured default store chain (read-only)",
	}
}
