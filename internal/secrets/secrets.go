// Package secrets provides centralized resolution of credentials used to
// connect to remote stores: per-repository basic-auth username/password
// pairs and shared HTTP proxy credentials.
//
// Secrets are resolved by checking environment variables first, then the
// [secrets] section in $HATCH_HOME/config.toml. If neither source has a
// value, an error with guidance is returned.
//
// Fixed secrets (the proxy credentials) are defined in the knownKeys table
// (specs.go). Per-repository credentials are resolved dynamically from the
// repository's configured name via RepoCredential, since the set of
// repositories is user-defined rather than fixed.
package secrets

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/hatchpm/hatch/internal/userconfig"
)

// KeyInfo describes a registered secret for external consumers.
type KeyInfo struct {
	// Name is the canonical key name (e.g., "proxy_user").
	Name string

	// EnvVars lists environment variables checked, in priority order.
	EnvVars []string

	// Desc is a human-readable description.
	Desc string
}

// cachedConfig holds the lazily loaded userconfig.
var (
	configOnce  sync.Once
	cachedCfg   *userconfig.Config
	configError error
)

// loadConfig loads the userconfig lazily on the first call.
func loadConfig() {
	configOnce.Do(func() {
		cachedCfg, configError = userconfig.Load()
	})
}

// getConfig returns the cached userconfig, loading it lazily if needed.
func getConfig() (*userconfig.Config, error) {
	loadConfig()
	return cachedCfg, configError
}

// ResetConfig resets the cached config so the next call to Get()/IsSet()
// reloads from disk. This is intended for testing only.
func ResetConfig() {
	configOnce = sync.Once{}
	cachedCfg = nil
	configError = nil
}

// Get resolves a fixed secret by name, checking environment variables first,
// then the [secrets] section in config.toml.
// Returns the first non-empty value found, or an error if the key is
// unknown or no source has a value set.
func Get(name string) (string, error) {
	spec, ok := knownKeys[name]
	if !ok {
		return "", fmt.Errorf("unknown secret key: %q", name)
	}
	return resolve(name, spec)
}

// IsSet checks whether a fixed secret is available without returning its
// value. Returns false for unknown keys.
func IsSet(name string) bool {
	spec, ok := knownKeys[name]
	if !ok {
		return false
	}
	_, err := resolve(name, spec)
	return err == nil
}

// RepoCredential resolves the basic-auth username and password configured
// for a named repository. The environment variables checked are
// HATCH_<REPO>_USER and HATCH_<REPO>_PASS (repo name upper-cased, with any
// character outside [A-Z0-9] replaced by "_"); the config.toml fallback keys
// are "<repo>.user" and "<repo>.pass" in the [secrets] section.
//
// Returns ok=false if neither a username nor a password is configured,
// which callers should treat as "connect without credentials" rather than
// an error, since most repositories do not require authentication.
func RepoCredential(repoName string) (username, password string, ok bool) {
	envSegment := toEnvSegment(repoName)
	userSpec := KeySpec{EnvVars: []string{"HATCH_" + envSegment + "_USER"}}
	passSpec := KeySpec{EnvVars: []string{"HATCH_" + envSegment + "_PASS"}}

	u, uErr := resolve(repoName+".user", userSpec)
	p, pErr := resolve(repoName+".pass", passSpec)
	if uErr != nil && pErr != nil {
		return "", "", false
	}
	return u, p, true
}

// resolve checks env vars in priority order, then falls through to the
// config file's [secrets] table keyed by name.
func resolve(name string, spec KeySpec) (string, error) {
	for _, env := range spec.EnvVars {
		if val := os.Getenv(env); val != "" {
			return val, nil
		}
	}

	cfg, err := getConfig()
	if err == nil && cfg != nil && cfg.Secrets != nil {
		if val, ok := cfg.Secrets[name]; ok && val != "" {
			return val, nil
		}
	}

	envList := strings.Join(spec.EnvVars, " or ")
	return "", fmt.Errorf(
		"%s not configured. Set the %s environment variable, or add %s to [secrets] in $HATCH_HOME/config.toml",
		name, envList, name,
	)
}

func toEnvSegment(s string) string {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z':
			out[i] = c - 'a' + 'A'
		case c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			out[i] = c
		default:
			out[i] = '_'
		}
	}
	return string(out)
}

// KnownKeys returns metadata for all registered fixed secrets, sorted by
// name. Per-repository credentials are not included since they are
// dynamically named.
func KnownKeys() []KeyInfo {
	keys := make([]KeyInfo, 0, len(knownKeys))
	for name, spec := range knownKeys {
		keys = append(keys, KeyInfo{
			Name:    name,
			EnvVars: spec.EnvVars,
			Desc:    spec.Desc,
		})
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].Name < keys[j].Name
	})
	return keys
}
