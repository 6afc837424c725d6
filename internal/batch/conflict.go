package batch

import (
	"context"
	"os"

	"github.com/halvardk/vaultctl/internal/common"
	"github.com/halvardk/vaultctl/internal/model"
)

// applyConflictPolicy resolves whether task has a counterpart on the other
// side and, if so, applies opts.ConflictPolicy to decide whether it
// proceeds or is marked skipped_* (§4.5 step 4). A task left untouched
// (Status still TaskPending/TaskInterrupted on return) is cleared to run.
func (o *Orchestrator) applyConflictPolicy(ctx context.Context, opts Options, task *model.Task) error {
	switch opts.Operation {
	case model.OperationUpload:
		return o.applyConflictUpload(ctx, opts, task)
	case model.OperationDownload:
		return o.applyConflictDownload(opts, task)
	default:
		return nil
	}
}

// applyConflictUpload checks whether task.RemotePath already names a node.
// "overwrite" and a qualifying "newer" both let the upload proceed but
// record the existing node on task.ReplaceID so runUpload can trash it
// once the new node has finished uploading.
func (o *Orchestrator) applyConflictUpload(ctx context.Context, opts Options, task *model.Task) error {
	remotePath, err := model.ParsePath(task.RemotePath)
	if err != nil {
		return err
	}

	existing, err := o.resolver.ResolveStrict(ctx, remotePath)
	if err != nil {
		if common.IsKind(err, common.KindNotFound) {
			return nil
		}
		if common.IsKind(err, common.KindAmbiguous) {
			// Treat a pre-existing ambiguous name the same as "exists":
			// the conflict policy still has to decide what to do rather
			// than silently uploading a third same-named file.
			existing = model.Node{}
		} else {
			return err
		}
	}

	switch opts.ConflictPolicy {
	case ConflictOverwrite:
		task.ReplaceID = existing.ID
		return nil
	case ConflictNewer:
		info, statErr := os.Stat(task.LocalPath)
		if statErr != nil {
			return common.New(common.KindIO, statErr)
		}
		if info.ModTime().UnixMilli() > existing.ModifiedMs {
			task.ReplaceID = existing.ID
			return nil
		}
		task.Status = model.TaskSkipped
		task.SkipReason = model.SkipNotNewer
		return nil
	default: // ConflictSkip and unset both default to skip-on-exists.
		task.Status = model.TaskSkipped
		task.SkipReason = model.SkipExists
		return nil
	}
}

// applyConflictDownload checks whether task.LocalPath already exists on
// disk.
func (o *Orchestrator) applyConflictDownload(opts Options, task *model.Task) error {
	info, err := os.Stat(task.LocalPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return common.New(common.KindIO, err)
	}

	switch opts.ConflictPolicy {
	case ConflictOverwrite:
		return nil
	case ConflictNewer:
		if task.RemoteModifiedMs > info.ModTime().UnixMilli() {
			return nil
		}
		task.Status = model.TaskSkipped
		task.SkipReason = model.SkipNotNewer
		return nil
	default:
		task.Status = model.TaskSkipped
		task.SkipReason = model.SkipExists
		return nil
	}
}
