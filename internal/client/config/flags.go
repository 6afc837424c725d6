package config

import (
	"flag"
	"os"
	"time"

	"github.com/halvardk/vaultctl/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-a string        backend base URL (default from Config)
//	-s string        state directory (default from Config)
//	-cache-ttl int   resolver cache TTL in seconds (default from Config)
//	-v               verbose logging (default from Config)
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, so per-verb flags (-r, -p, --include, ...) never
// collide with the global config layer. -v is filtered as a boolean flag
// specifically so it never swallows the verb name that follows it on the
// command line (e.g. "vaultctl -v ls /docs").
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-s", "-cache-ttl"}, []string{"-v"})

	fs := flag.NewFlagSet("config", flag.ContinueOnError)

	fs.StringVar(&cfg.BaseURL, "a", cfg.BaseURL, "backend base URL")
	fs.StringVar(&cfg.StateDir, "s", cfg.StateDir, "state directory (credentials, batch journals)")
	cacheTTLSeconds := fs.Int("cache-ttl", int(cfg.CacheTTL.Seconds()), "directory cache TTL (in seconds)")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "verbose logging")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.CacheTTL = time.Duration(*cacheTTLSeconds) * time.Second
}
