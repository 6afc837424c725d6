// Package config handles configuration for the vaultctl CLI: compiled-in
// defaults overlaid by a JSON config file overlaid by command-line flags,
// exactly as the reference client's server and client config packages do
// it (§10.3).
package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds runtime settings for the vaultctl CLI core.
//
// Fields:
//   - BaseURL: the backend's HTTP API root (no trailing slash).
//   - StateDir: directory holding credentials.json, batch_states/, and
//     webdav/ (§6). Defaults to "<home>/.filen-cli".
//   - CacheSize: the resolver's LRU bound on cached folder listings (§4.3).
//   - CacheTTL: the resolver's per-entry absolute TTL (§4.3).
//   - HTTPTimeout: per-HTTP-attempt timeout (§5).
//   - Verbose: raises the root logger to debug level and includes source
//     locations (§6's global "-v" flag); per-task error summaries still
//     omit raw stack traces/HTTP bodies unless this is set (§7).
type Config struct {
	BaseURL     string
	StateDir    string
	CacheSize   int
	CacheTTL    time.Duration
	HTTPTimeout time.Duration
	Verbose     bool
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.BaseURL = "https://gateway.example-vault.io"
	c.StateDir = defaultStateDir()
	c.CacheSize = 1024
	c.CacheTTL = 10 * time.Minute
	c.HTTPTimeout = 60 * time.Second
	c.Verbose = false
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".filen-cli"
	}
	return filepath.Join(home, ".filen-cli")
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from JSON (if present) and command-line flags (if present). Later
// sources take precedence over earlier ones (§10.3).
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
