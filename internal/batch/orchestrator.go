// Package batch implements the batch orchestrator and resume journal of
// §4.5: it enumerates work, drives the transfer engine one Task at a time,
// persists per-task state after each committed chunk, and detects and
// continues an interrupted batch on the next invocation.
package batch

import (
	"context"
	"encoding/hex"
	"fmt"
	"path"
	"time"

	"github.com/halvardk/vaultctl/internal/backend"
	"github.com/halvardk/vaultctl/internal/common"
	"github.com/halvardk/vaultctl/internal/cryptox"
	"github.com/halvardk/vaultctl/internal/logging"
	"github.com/halvardk/vaultctl/internal/model"
	"github.com/halvardk/vaultctl/internal/resolver"
	"github.com/halvardk/vaultctl/internal/transfer"
)

// ConflictPolicy governs how a Task whose counterpart already exists on
// the other side is handled (§4.5 step 4).
type ConflictPolicy string

const (
	ConflictSkip      ConflictPolicy = "skip"
	ConflictOverwrite ConflictPolicy = "overwrite"
	ConflictNewer     ConflictPolicy = "newer"
)

// journalSaveEvery and journalSaveInterval implement §4.4 step 3's
// persistence throttle: every 10 chunks or every 5 seconds, whichever
// comes first, and unconditionally on terminal transitions.
const (
	journalSaveEvery    = 10
	journalSaveInterval = 5 * time.Second
)

// Options configures one batch invocation (§4.5).
type Options struct {
	Operation         model.Operation
	Sources           []string
	Target            string
	Filters           Filters
	ConflictPolicy    ConflictPolicy
	PreserveTimestamp bool
	Verify            bool
	Email             string // used with the master key to hash upload filenames (§4.1)
}

// ProgressFunc reports per-task, per-chunk progress through the batch.
type ProgressFunc func(task *model.Task, bytesDone, bytesTotal int64)

// Result summarizes one Run invocation.
type Result struct {
	Journal  *model.BatchJournal
	AnyError bool
}

// Orchestrator ties the resolver, transfer engine, and journal store
// together to drive one batch at a time (§4.5, §5).
type Orchestrator struct {
	store     *JournalStore
	resolver  *resolver.Resolver
	engine    *transfer.Engine
	client    backend.Client
	masterKey []byte
	log       logging.Logger
}

func New(store *JournalStore, res *resolver.Resolver, engine *transfer.Engine, client backend.Client, masterKey []byte, log logging.Logger) *Orchestrator {
	return &Orchestrator{store: store, resolver: res, engine: engine, client: client, masterKey: masterKey, log: log}
}

// Run executes opts to completion or interruption (§4.5). cancel, if
// non-nil, is polled between tasks and within the transfer engine between
// chunks (§5).
func (o *Orchestrator) Run(ctx context.Context, opts Options, cancel <-chan struct{}, progress ProgressFunc) (*Result, error) {
	batchID := ComputeBatchID(opts.Operation, opts.Sources, opts.Target)

	journal, err := o.store.Load(batchID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UnixMilli()
	if journal == nil || journal.AllTerminal() {
		journal = &model.BatchJournal{
			BatchID:   batchID,
			Operation: opts.Operation,
			Source:    opts.Sources,
			Target:    opts.Target,
			CreatedAt: now,
			UpdatedAt: now,
		}
		tasks, err := o.enumerate(ctx, opts)
		if err != nil {
			return nil, err
		}
		journal.Tasks = tasks
		if o.log != nil {
			o.log.WithBatch(batchID).Info(ctx, "batch enumerated", "tasks", len(tasks))
		}
	} else if o.log != nil {
		o.log.WithBatch(batchID).Info(ctx, "batch resumed", "tasks", len(journal.Tasks))
	}

	for _, task := range journal.Tasks {
		if task.IsTerminal() {
			continue
		}
		if isCanceled(cancel) {
			break
		}

		if err := o.applyConflictPolicy(ctx, opts, task); err != nil {
			task.Status = model.TaskError
			task.ErrorKind = string(kindOf(err))
			o.saveNow(journal)
			continue
		}
		if task.Status == model.TaskSkipped {
			o.saveNow(journal)
			continue
		}

		err := o.runTask(ctx, opts, journal, task, cancel, progress)
		if err != nil && common.IsKind(err, common.KindAuth) {
			task.Status = model.TaskError
			task.ErrorKind = string(common.KindAuth)
			o.saveNow(journal)
			if o.log != nil {
				o.log.WithBatch(batchID).Error(ctx, "batch aborted on auth error")
			}
			break
		}
		// All other propagated errors (§7) are already recorded on task by
		// runTask/the transfer engine; continue with the next Task.
	}

	journal.UpdatedAt = time.Now().UnixMilli()
	if journal.AllTerminal() {
		if err := o.store.Delete(batchID); err != nil {
			return nil, err
		}
	} else {
		if err := o.store.Save(journal); err != nil {
			return nil, err
		}
	}

	return &Result{Journal: journal, AnyError: journal.AnyError()}, nil
}

// runTask drives the transfer engine for one task, throttling journal
// persistence per §4.4 step 3.
func (o *Orchestrator) runTask(ctx context.Context, opts Options, journal *model.BatchJournal, task *model.Task, cancel <-chan struct{}, progress ProgressFunc) error {
	var chunksSinceSave int
	lastSave := time.Now()

	onChunk := func(t *model.Task) {
		chunksSinceSave++
		if t.IsTerminal() || t.Status == model.TaskInterrupted ||
			chunksSinceSave >= journalSaveEvery || time.Since(lastSave) >= journalSaveInterval {
			o.saveNow(journal)
			chunksSinceSave = 0
			lastSave = time.Now()
		}
	}
	onProgress := func(done, total int64) {
		if progress != nil {
			progress(task, done, total)
		}
	}

	task.Status = model.TaskActive
	var err error
	switch opts.Operation {
	case model.OperationUpload:
		err = o.runUpload(ctx, opts, task, cancel, onChunk, onProgress)
	case model.OperationDownload:
		err = o.runDownload(ctx, opts, task, cancel, onChunk, onProgress)
	default:
		err = common.Newf(common.KindFatal, "unknown operation %q", opts.Operation)
	}

	o.saveNow(journal)
	if o.log != nil {
		tlog := o.log.WithTask(task.RemotePath)
		if err != nil {
			tlog.Warn(ctx, "task ended with error", "kind", task.ErrorKind, "err", err)
		} else if task.Status == model.TaskCompleted {
			tlog.Info(ctx, "task completed")
		}
	}
	return err
}

func (o *Orchestrator) runUpload(ctx context.Context, opts Options, task *model.Task, cancel <-chan struct{}, onChunk transfer.ChunkCallback, onProgress transfer.ProgressCallback) error {
	remoteDir, name := path.Split(task.RemotePath)
	parentPath, err := model.ParsePath(path.Clean("/" + remoteDir))
	if err != nil {
		return o.taskFail(task, common.KindInvalidPath, err)
	}
	parent, err := o.resolver.EnsureFolder(ctx, parentPath)
	if err != nil {
		return o.taskFail(task, kindOf(err), err)
	}
	task.ParentID = parent.ID

	nameHash := cryptox.HashName(fmt.Sprintf("%x", o.masterKey), opts.Email, name)

	in := transfer.UploadInput{
		LocalPath:         task.LocalPath,
		ParentID:          parent.ID,
		RemoteName:        name,
		NameHash:          nameHash,
		PreserveTimestamp: opts.PreserveTimestamp,
	}
	err = o.engine.Upload(ctx, task, in, cancel, onChunk, onProgress)
	if task.Status == model.TaskCompleted {
		o.resolver.Invalidate(parent.ID, path.Clean("/"+remoteDir))
		if !task.ReplaceID.Empty() {
			// §4.5 step 4 "overwrite": the replace is atomic from the
			// caller's point of view only once the new node exists, so
			// the old one is trashed last, not first.
			if trashErr := o.client.Trash(ctx, task.ReplaceID); trashErr != nil && o.log != nil {
				o.log.WithTask(task.RemotePath).Warn(ctx, "failed to trash replaced node", "err", trashErr)
			}
		}
	}
	return err
}

func (o *Orchestrator) runDownload(ctx context.Context, opts Options, task *model.Task, cancel <-chan struct{}, onChunk transfer.ChunkCallback, onProgress transfer.ProgressCallback) error {
	contentKey, err := decodeContentKey(task.ContentKeyHex)
	if err != nil {
		return o.taskFail(task, common.KindFatal, err)
	}

	in := transfer.DownloadInput{
		RemoteID:          task.RemoteID,
		ContentKey:        contentKey,
		ChunkCount:        task.ChunkCount,
		Size:              task.Size,
		RemoteHashHex:     task.HashHex,
		RemoteModifiedMs:  task.RemoteModifiedMs,
		LocalPath:         task.LocalPath,
		PreserveTimestamp: opts.PreserveTimestamp,
		Verify:            opts.Verify,
	}
	return o.engine.Download(ctx, task, in, cancel, onChunk, onProgress)
}

func (o *Orchestrator) taskFail(task *model.Task, kind common.Kind, cause error) error {
	task.Status = model.TaskError
	task.ErrorKind = string(kind)
	return common.New(kind, cause)
}

func (o *Orchestrator) saveNow(journal *model.BatchJournal) {
	journal.UpdatedAt = time.Now().UnixMilli()
	if err := o.store.Save(journal); err != nil && o.log != nil {
		o.log.WithBatch(journal.BatchID).Error(context.Background(), "failed to persist journal", "err", err)
	}
}

func isCanceled(cancel <-chan struct{}) bool {
	if cancel == nil {
		return false
	}
	select {
	case <-cancel:
		return true
	default:
		return false
	}
}

func kindOf(err error) common.Kind {
	if k, ok := common.As(err); ok {
		return k
	}
	return common.KindFatal
}

func decodeContentKey(hexKey string) ([]byte, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, common.New(common.KindFatal, err)
	}
	return key, nil
}
