// Command vaultctl is the CLI frontend for the encrypted batch transfer
// core: it wires config, credentials, and the five core components
// together and dispatches one verb per invocation, mapping the result to
// the exit codes of §6.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/halvardk/vaultctl/internal/client/cli"
	"github.com/halvardk/vaultctl/internal/client/config"
	"github.com/halvardk/vaultctl/internal/common"
)

// Exit codes per §6: 0 success, 1 partial failure/verification mismatch,
// 2 usage error, 3 authentication error, 4 network/transient exhausted.
const (
	exitOK        = 0
	exitPartial   = 1
	exitUsage     = 2
	exitAuth      = 3
	exitTransient = 4
)

func main() {
	// Global config flags may precede the verb ("vaultctl -v ls /docs");
	// skip them, and the value of a value-taking one, to find the verb.
	rest := os.Args[1:]
	for len(rest) > 0 && strings.HasPrefix(rest[0], "-") {
		switch rest[0] {
		case "-a", "-s", "-cache-ttl", "-c", "-config":
			if len(rest) > 1 && !strings.HasPrefix(rest[1], "-") {
				rest = rest[1:]
			}
		}
		rest = rest[1:]
	}
	if len(rest) == 0 {
		fmt.Fprintln(os.Stderr, "usage: vaultctl [global flags] <verb> [flags] [args]")
		os.Exit(exitUsage)
	}
	verb := rest[0]
	args := rest[1:]

	cfg := config.LoadConfig()
	app := cli.NewApp(cfg)

	if err := app.Run(context.Background(), verb, args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps a propagated error's Kind to the lowest-numbered
// applicable class of §6/§7. Every closed-set Kind lands somewhere;
// KindFatal covers both usage errors (e.g. a bad verb or missing
// argument) and any other non-retried backend rejection, so it is mapped
// to the usage class rather than silently succeeding.
func exitCode(err error) int {
	if errors.Is(err, cli.ErrPartialFailure) {
		return exitPartial
	}
	kind, ok := common.As(err)
	if !ok {
		return exitUsage
	}
	switch kind {
	case common.KindAuth:
		return exitAuth
	case common.KindTransient, common.KindRateLimited:
		return exitTransient
	case common.KindFatal:
		return exitUsage
	default:
		return exitPartial
	}
}
