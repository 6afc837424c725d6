package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	require.NotEmpty(t, c.BaseURL)
	require.NotEmpty(t, c.StateDir)
	require.Greater(t, c.CacheSize, 0)
	require.Greater(t, c.CacheTTL, time.Duration(0))
	require.Greater(t, c.HTTPTimeout, time.Duration(0))
}

func TestLoadConfig_JSONOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "vaultctl.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{
		"base_url": "https://example.test",
		"cache_ttl": "2m",
		"cache_size": 42
	}`), 0o600))

	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"vaultctl", "-c", cfgPath}

	cfg := LoadConfig()
	require.Equal(t, "https://example.test", cfg.BaseURL)
	require.Equal(t, 2*time.Minute, cfg.CacheTTL)
	require.Equal(t, 42, cfg.CacheSize)
}

func TestLoadConfig_FlagsOverrideJSON(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "vaultctl.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{"base_url": "https://from-json.test"}`), 0o600))

	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"vaultctl", "-c", cfgPath, "-a", "https://from-flag.test"}

	cfg := LoadConfig()
	require.Equal(t, "https://from-flag.test", cfg.BaseURL)
}

func TestLoadConfig_VerboseFlagDoesNotSwallowVerb(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"vaultctl", "-v", "ls", "/docs"}

	cfg := LoadConfig()
	require.True(t, cfg.Verbose)
}

func TestLoadConfig_VerboseFromJSON(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "vaultctl.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{"verbose": true}`), 0o600))

	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"vaultctl", "-c", cfgPath}

	cfg := LoadConfig()
	require.True(t, cfg.Verbose)
}
