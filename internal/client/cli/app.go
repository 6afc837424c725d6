// Package cli implements the argv-driven command surface described in §6
// as "the required shape of the caller": it is deliberately thin, wiring
// the core's five components (crypto, backend, resolver, transfer,
// batch) together and dispatching one verb per invocation. Command
// parsing, help text, and interactive prompts are themselves out of the
// core's scope (§1); this package exists only so the core is runnable
// end-to-end, the same role internal/client/cli plays for the reference
// client's gRPC core.
package cli

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/halvardk/vaultctl/internal/backend"
	"github.com/halvardk/vaultctl/internal/batch"
	"github.com/halvardk/vaultctl/internal/client/config"
	"github.com/halvardk/vaultctl/internal/common"
	"github.com/halvardk/vaultctl/internal/credstore"
	"github.com/halvardk/vaultctl/internal/logging"
	"github.com/halvardk/vaultctl/internal/resolver"
	"github.com/halvardk/vaultctl/internal/transfer"
)

// App ties the loaded config, credential provider, and (once logged in)
// master key to live instances of the core's components.
type App struct {
	cfg   *config.Config
	creds credstore.Provider
	log   logging.Logger

	client    backend.Client
	resolver  *resolver.Resolver
	engine    *transfer.Engine
	orch      *batch.Orchestrator
	masterKey []byte
	email     string
}

// NewApp constructs an App from cfg. It does not require the user to
// already be logged in; components that need masterKey are wired lazily
// by ensureSession.
func NewApp(cfg *config.Config) *App {
	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.Verbose,
	})))
	return &App{
		cfg:    cfg,
		creds:  credstore.NewJSONStore(cfg.StateDir),
		log:    log,
		client: backend.New(cfg.BaseURL, &http.Client{Timeout: cfg.HTTPTimeout}, log),
	}
}

// ensureSession loads persisted credentials and wires the resolver,
// transfer engine, and batch orchestrator against them. Called by every
// verb except login/logout/config.
func (a *App) ensureSession(ctx context.Context) error {
	if a.masterKey != nil {
		return nil
	}

	c, err := a.creds.Load()
	if err != nil {
		return err
	}
	masterKey, err := decodeHex(c.MasterKeyHex)
	if err != nil {
		return common.New(common.KindAuth, err)
	}

	if c.BaseURL != "" && c.BaseURL != a.cfg.BaseURL {
		a.cfg.BaseURL = c.BaseURL
		a.client = backend.New(c.BaseURL, &http.Client{Timeout: a.cfg.HTTPTimeout}, a.log)
	}
	if _, err := a.client.Login(ctx, c.Email, c.AuthToken); err != nil {
		return err
	}

	a.masterKey = masterKey
	a.email = c.Email
	a.resolver = resolver.New(a.client, masterKey, "", a.log,
		resolver.WithCacheSize(a.cfg.CacheSize), resolver.WithTTL(a.cfg.CacheTTL))
	a.engine = transfer.New(a.client, masterKey, a.log)
	a.orch = batch.New(batch.NewJournalStore(batchStateDir(a.cfg.StateDir)), a.resolver, a.engine, a.client, masterKey, a.log)
	return nil
}

func batchStateDir(stateDir string) string {
	return filepath.Join(stateDir, "batch_states")
}

func decodeHex(s string) ([]byte, error) {
	if s == "" {
		return nil, fmt.Errorf("empty master key")
	}
	return hex.DecodeString(s)
}

// Run dispatches one verb. args holds only the arguments that follow the
// verb, without the program name or the verb itself; the exit-code mapping
// of §6 is the caller's (cmd/vaultctl) responsibility.
func (a *App) Run(ctx context.Context, verb string, args []string) error {
	switch verb {
	case "login":
		return a.Login(ctx, args)
	case "logout":
		return a.Logout(ctx)
	case "whoami":
		return a.Whoami(ctx)
	case "ls":
		return a.Ls(ctx, args)
	case "tree":
		return a.Tree(ctx, args)
	case "find":
		return a.Find(ctx, args)
	case "resolve":
		return a.ResolvePath(ctx, args)
	case "mkdir":
		return a.Mkdir(ctx, args)
	case "upload":
		return a.Upload(ctx, args)
	case "download", "download-path":
		return a.Download(ctx, args)
	case "verify":
		return a.Verify(ctx, args)
	case "mv", "cp":
		return a.Move(ctx, args, verb == "cp")
	case "rename":
		return a.Rename(ctx, args)
	case "trash":
		return a.Trash(ctx, args)
	case "list-trash":
		return a.ListTrash(ctx)
	case "restore-uuid", "restore-path":
		return a.Restore(ctx, args)
	case "delete-path":
		return a.Delete(ctx, args)
	case "config":
		return a.ShowConfig()
	default:
		return common.Newf(common.KindFatal, "unknown verb %q", verb)
	}
}
