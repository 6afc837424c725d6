package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/halvardk/vaultctl/internal/batch"
	"github.com/halvardk/vaultctl/internal/common"
	"github.com/halvardk/vaultctl/internal/filex"
	"github.com/halvardk/vaultctl/internal/model"
)

// ErrPartialFailure is returned by a batch verb when one or more Tasks
// ended in error_*; it carries no common.Kind of its own since "partial
// batch failure" is a CLI-level outcome, not one of §7's closed-set
// per-operation error kinds. cmd/vaultctl maps it to exit code 1 (§6).
var ErrPartialFailure = errors.New("batch completed with errors")

// stringSlice implements flag.Value to collect a repeatable flag (used for
// --include/--exclude, §6).
type stringSlice []string

func (s *stringSlice) String() string { return fmt.Sprint([]string(*s)) }
func (s *stringSlice) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// transferFlags are the flags common to upload and download (§6).
type transferFlags struct {
	target    string
	include   stringSlice
	exclude   stringSlice
	onConflict string
	preserve  bool
	verify    bool
}

func parseTransferFlags(verb string, args []string) (transferFlags, []string, error) {
	fs := flag.NewFlagSet(verb, flag.ContinueOnError)
	var tf transferFlags
	fs.StringVar(&tf.target, "t", "", "target path")
	fs.Var(&tf.include, "include", "include glob (repeatable)")
	fs.Var(&tf.exclude, "exclude", "exclude glob (repeatable)")
	fs.StringVar(&tf.onConflict, "on-conflict", "skip", "conflict policy: skip|overwrite|newer")
	fs.BoolVar(&tf.preserve, "p", false, "preserve timestamps")
	fs.BoolVar(&tf.verify, "v", false, "verify full-file hash after download")
	fs.Bool("r", true, "recursive (always on; kept for CLI-surface parity)")
	fs.Bool("f", false, "skip confirmation prompts")
	if err := fs.Parse(args); err != nil {
		return tf, nil, common.New(common.KindFatal, err)
	}
	if tf.target == "" {
		// download with no explicit -t lands in ./download, created on
		// demand, mirroring the reference client's default staging dir.
		if verb != "download" {
			return tf, nil, common.Newf(common.KindFatal, "usage: %s [-t <target>] [--include p]... [--exclude p]... [--on-conflict skip|overwrite|newer] <source>...", verb)
		}
		dir, err := filex.EnsureSubdDir("download")
		if err != nil {
			return tf, nil, common.New(common.KindIO, err)
		}
		tf.target = dir
	}
	return tf, fs.Args(), nil
}

func (a *App) runBatch(ctx context.Context, op model.Operation, tf transferFlags, sources []string) error {
	if len(sources) == 0 {
		return common.Newf(common.KindFatal, "at least one source is required")
	}

	result, err := a.orch.Run(ctx, batch.Options{
		Operation:         op,
		Sources:           sources,
		Target:            tf.target,
		Filters:           batch.Filters{Include: tf.include, Exclude: tf.exclude},
		ConflictPolicy:    batch.ConflictPolicy(tf.onConflict),
		PreserveTimestamp: tf.preserve,
		Verify:            tf.verify,
		Email:             a.email,
	}, nil, func(task *model.Task, done, total int64) {
		fmt.Printf("\r%s: %d/%d bytes", task.RemotePath, done, total)
	})
	if err != nil {
		return err
	}
	fmt.Println()

	for _, t := range result.Journal.Tasks {
		fmt.Printf("%-10s %s\n", t.Status, t.RemotePath)
	}
	if result.AnyError {
		return ErrPartialFailure
	}
	return nil
}

// Upload drives an upload batch (§4.5, §6).
func (a *App) Upload(ctx context.Context, args []string) error {
	if err := a.ensureSession(ctx); err != nil {
		return err
	}
	tf, sources, err := parseTransferFlags("upload", args)
	if err != nil {
		return err
	}
	return a.runBatch(ctx, model.OperationUpload, tf, sources)
}

// Download drives a download batch (§4.5, §6).
func (a *App) Download(ctx context.Context, args []string) error {
	if err := a.ensureSession(ctx); err != nil {
		return err
	}
	tf, sources, err := parseTransferFlags("download", args)
	if err != nil {
		return err
	}
	return a.runBatch(ctx, model.OperationDownload, tf, sources)
}
