package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_HonorsEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvHatchHome, dir)

	cfg, err := DefaultConfig()
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.HomeDir)
	assert.Equal(t, filepath.Join(dir, "registry"), cfg.RegistryDir)
	assert.Equal(t, filepath.Join(dir, "cache", "downloads"), cfg.DownloadDir)
	assert.Equal(t, filepath.Join(dir, "history"), cfg.HistoryDir)
}

func TestDefaultConfig_FallsBackToUserHome(t *testing.T) {
	os.Unsetenv(EnvHatchHome)
	DefaultHomeOverride = ""

	cfg, err := DefaultConfig()
	require.NoError(t, err)

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".hatch"), cfg.HomeDir)
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvHatchHome, dir)
	cfg, err := DefaultConfig()
	require.NoError(t, err)

	require.NoError(t, cfg.EnsureDirectories())
	for _, d := range []string{cfg.HomeDir, cfg.RegistryDir, cfg.CacheDir, cfg.DownloadDir, cfg.HistoryDir} {
		info, err := os.Stat(d)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestGetAPITimeout(t *testing.T) {
	t.Setenv(EnvAPITimeout, "")
	assert.Equal(t, DefaultAPITimeout, GetAPITimeout())

	t.Setenv(EnvAPITimeout, "5s")
	assert.Equal(t, 5*time.Second, GetAPITimeout())

	t.Setenv(EnvAPITimeout, "not-a-duration")
	assert.Equal(t, DefaultAPITimeout, GetAPITimeout())

	t.Setenv(EnvAPITimeout, "1ms")
	assert.Equal(t, 1*time.Second, GetAPITimeout())

	t.Setenv(EnvAPITimeout, "1h")
	assert.Equal(t, 10*time.Minute, GetAPITimeout())
}

func TestGetIndexCacheTTL(t *testing.T) {
	t.Setenv(EnvIndexCacheTTL, "")
	assert.Equal(t, DefaultIndexCacheTTL, GetIndexCacheTTL())

	t.Setenv(EnvIndexCacheTTL, "2h")
	assert.Equal(t, 2*time.Hour, GetIndexCacheTTL())

	t.Setenv(EnvIndexCacheTTL, "1s")
	assert.Equal(t, 5*time.Minute, GetIndexCacheTTL())
}

func TestParseByteSize(t *testing.T) {
	cases := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"1024", 1024, false},
		{"1K", 1024, false},
		{"1KB", 1024, false},
		{"2M", 2 * 1024 * 1024, false},
		{"1G", 1024 * 1024 * 1024, false},
		{"", 0, true},
		{"abc", 0, true},
		{"5Q", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseByteSize(tc.in)
		if tc.wantErr {
			assert.Error(t, err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}
