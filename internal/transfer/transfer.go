// Package transfer implements the chunked upload/download engine of §4.4:
// encrypting plaintext into fixed-size chunks on the way up, decrypting
// ciphertext chunks on the way down, hashing the full plaintext
// incrementally, and supporting resume from a Task's last committed chunk.
package transfer

import (
	"context"
	"encoding/hex"
	"io"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/halvardk/vaultctl/internal/backend"
	"github.com/halvardk/vaultctl/internal/common"
	"github.com/halvardk/vaultctl/internal/cryptox"
	"github.com/halvardk/vaultctl/internal/filex"
	"github.com/halvardk/vaultctl/internal/logging"
	"github.com/halvardk/vaultctl/internal/model"
)

// ChunkCallback is invoked after every chunk completion (success, terminal
// transition, or cancellation), so the caller may persist the journal. The
// engine makes no assumption about persistence frequency; throttling, if
// any, is the caller's responsibility (§4.4 step 3).
type ChunkCallback func(task *model.Task)

// ProgressCallback reports cumulative bytes transferred after each chunk
// (§4.4's progress contract). Callers must not assume a fixed frequency
// beyond "after each chunk".
type ProgressCallback func(bytesDone, bytesTotal int64)

// Engine drives a single file's chunked transfer in either direction. It
// holds the master key needed to wrap/unwrap the per-file metadata envelope
// (§4.1); chunk ciphertext itself is keyed by the file's own content key.
type Engine struct {
	client    backend.Client
	masterKey []byte
	log       logging.Logger
}

func New(client backend.Client, masterKey []byte, log logging.Logger) *Engine {
	return &Engine{client: client, masterKey: masterKey, log: log}
}

// UploadInput describes one file to upload (§4.4 "Upload of one file").
type UploadInput struct {
	LocalPath         string
	ParentID          model.ID
	RemoteName        string
	NameHash          string // hash_name(masterKey, email, name), precomputed by the caller
	PreserveTimestamp bool
}

// Upload drives task through §4.4's upload algorithm, resuming from
// task.LastChunk if it is already partway through. On return, task.Status
// is one of TaskCompleted, TaskInterrupted, or TaskError; task.LastChunk
// always reflects what has actually been committed to the backend.
func (e *Engine) Upload(ctx context.Context, task *model.Task, in UploadInput, cancel <-chan struct{}, onChunk ChunkCallback, onProgress ProgressCallback) error {
	f, err := os.Open(in.LocalPath)
	if err != nil {
		return e.fail(task, common.KindIO, err, onChunk)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return e.fail(task, common.KindIO, err, onChunk)
	}
	size := fi.Size()
	chunkCount := filex.ChunkCount(size, common.ChunkSize)

	task.Size = size
	task.ChunkCount = chunkCount

	sess, contentKey, err := e.resumeOrBeginUpload(ctx, task, in)
	if err != nil {
		return e.fail(task, kindOf(err), err, onChunk)
	}

	hasher := cryptox.NewFileHasher()
	startIndex := task.LastChunk + 1

	if startIndex > 0 {
		if err := rehashPrefix(f, startIndex, hasher); err != nil {
			return e.fail(task, common.KindIO, err, onChunk)
		}
	}

	buf := make([]byte, common.ChunkSize)
	bytesDone := min64(int64(startIndex)*common.ChunkSize, size)

	for i := startIndex; i < chunkCount; i++ {
		if canceled(cancel) {
			task.Status = model.TaskInterrupted
			onChunk(task)
			return nil
		}

		chunk, err := filex.ReadChunkAt(f, i, common.ChunkSize, buf)
		if err != nil {
			return e.fail(task, common.KindIO, err, onChunk)
		}
		hasher.Write(chunk)

		ciphertext, err := cryptox.EncryptChunk(contentKey, chunk)
		if err != nil {
			return e.fail(task, common.KindFatal, err, onChunk)
		}

		if err := e.client.PutChunk(ctx, sess, i, ciphertext); err != nil {
			return e.fail(task, kindOf(err), err, onChunk)
		}

		task.LastChunk = i
		task.Status = model.TaskActive
		bytesDone += int64(len(chunk))
		if onProgress != nil {
			onProgress(bytesDone, size)
		}
		onChunk(task)
	}

	modMs := time.Now().UnixMilli()
	if in.PreserveTimestamp {
		modMs = fi.ModTime().UnixMilli()
	}

	fm := model.FileMetadata{
		Name:       in.RemoteName,
		Size:       size,
		Mime:       mime.TypeByExtension(filepath.Ext(in.RemoteName)),
		KeyHex:     hex.EncodeToString(contentKey),
		ModifiedMs: modMs,
		HashHex:    hasher.SumHex(),
	}
	env, err := cryptox.WrapMetadata(e.masterKey, fm)
	if err != nil {
		return e.fail(task, common.KindFatal, err, onChunk)
	}

	node, err := e.client.FinishUpload(ctx, sess, env, fm.HashHex)
	if err != nil {
		return e.fail(task, kindOf(err), err, onChunk)
	}

	task.RemoteID = node.ID
	task.HashHex = fm.HashHex
	task.Status = model.TaskCompleted
	onChunk(task)
	return nil
}

// resumeOrBeginUpload reconstructs an UploadSession and content key from a
// partially-populated task, or begins a fresh one (§4.4 step 1).
func (e *Engine) resumeOrBeginUpload(ctx context.Context, task *model.Task, in UploadInput) (backend.UploadSession, []byte, error) {
	if task.FileUUID == "" {
		if task.IdempotencyKey == "" {
			task.IdempotencyKey = uuid.NewString()
		}
		sess, err := e.client.BeginUpload(ctx, in.ParentID, in.NameHash, task.IdempotencyKey)
		if err != nil {
			return backend.UploadSession{}, nil, err
		}
		contentKey := common.GenerateRandByteArray(cryptox.MasterKeyLength)

		task.FileUUID = sess.FileUUID
		task.UploadKey = sess.UploadKey
		task.Bucket = sess.Region.Bucket
		task.Region = sess.Region.Region
		task.ContentKeyHex = hex.EncodeToString(contentKey)
		task.ParentID = in.ParentID
		task.LastChunk = -1
		return sess, contentKey, nil
	}

	contentKey, err := hex.DecodeString(task.ContentKeyHex)
	if err != nil {
		return backend.UploadSession{}, nil, common.New(common.KindFatal, err)
	}
	sess := backend.UploadSession{
		FileUUID:  task.FileUUID,
		UploadKey: task.UploadKey,
		Region:    model.Region{Bucket: task.Bucket, Region: task.Region},
	}
	return sess, contentKey, nil
}

// DownloadInput describes one file to download (§4.4 "Download of one file").
type DownloadInput struct {
	RemoteID          model.ID
	ContentKey        []byte
	ChunkCount        int
	Size              int64
	RemoteHashHex     string
	RemoteModifiedMs  int64
	LocalPath         string
	PreserveTimestamp bool
	Verify            bool
}

// Download drives task through §4.4's download algorithm, resuming from
// task.LastChunk. On return, task.Status is one of TaskCompleted,
// TaskInterrupted, or TaskError.
func (e *Engine) Download(ctx context.Context, task *model.Task, in DownloadInput, cancel <-chan struct{}, onChunk ChunkCallback, onProgress ProgressCallback) error {
	task.Size = in.Size
	task.ChunkCount = in.ChunkCount

	expectedLen := expectedLength(task.LastChunk, in.ChunkCount, in.Size)

	if err := filex.EnsureParentDir(in.LocalPath); err != nil {
		return e.fail(task, common.KindIO, err, onChunk)
	}

	f, err := os.OpenFile(in.LocalPath, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return e.fail(task, common.KindIO, err, onChunk)
	}
	defer f.Close()

	if err := f.Truncate(expectedLen); err != nil {
		return e.fail(task, common.KindIO, err, onChunk)
	}

	hasher := cryptox.NewFileHasher()
	if in.Verify && expectedLen > 0 {
		if err := rehashFromDisk(f, expectedLen, hasher); err != nil {
			return e.fail(task, common.KindIO, err, onChunk)
		}
	}

	bytesDone := expectedLen
	for i := task.LastChunk + 1; i < in.ChunkCount; i++ {
		if canceled(cancel) {
			task.Status = model.TaskInterrupted
			onChunk(task)
			return nil
		}

		ciphertext, err := e.client.GetChunk(ctx, in.RemoteID, i)
		if err != nil {
			return e.fail(task, kindOf(err), err, onChunk)
		}

		plaintext, err := cryptox.DecryptChunk(in.ContentKey, ciphertext)
		if err != nil {
			e.markCorrupt(f, in.LocalPath)
			return e.fail(task, common.KindCryptoAuth, err, onChunk)
		}

		if _, err := f.WriteAt(plaintext, int64(i)*common.ChunkSize); err != nil {
			return e.fail(task, common.KindIO, err, onChunk)
		}
		if in.Verify {
			hasher.Write(plaintext)
		}

		task.LastChunk = i
		task.Status = model.TaskActive
		bytesDone += int64(len(plaintext))
		if onProgress != nil {
			onProgress(bytesDone, in.Size)
		}
		onChunk(task)
	}

	if in.Verify {
		got := hasher.SumHex()
		if got != in.RemoteHashHex {
			task.HashHex = got
			return e.fail(task, common.KindHashMismatch, common.Newf(common.KindHashMismatch,
				"computed %s, server reported %s", got, in.RemoteHashHex), onChunk)
		}
		task.HashHex = got
	}

	if in.PreserveTimestamp {
		// Close before stamping mtime: some platforms refresh mtime on
		// close, which would clobber the stamp. The deferred Close above
		// becomes a harmless no-op on an already-closed file.
		if err := f.Close(); err != nil {
			return e.fail(task, common.KindIO, err, onChunk)
		}
		if err := filex.StampMtime(in.LocalPath, time.UnixMilli(in.RemoteModifiedMs)); err != nil {
			return e.fail(task, common.KindIO, err, onChunk)
		}
	}

	task.Status = model.TaskCompleted
	onChunk(task)
	return nil
}

// markCorrupt renames the partially-written local file with a .corrupt
// suffix so it is left for inspection (§7).
func (e *Engine) markCorrupt(f *os.File, path string) {
	f.Close()
	if err := os.Rename(path, path+".corrupt"); err != nil && e.log != nil {
		e.log.Warn(context.Background(), "failed to mark corrupt download", "path", path, "err", err)
	}
}

func (e *Engine) fail(task *model.Task, kind common.Kind, cause error, onChunk ChunkCallback) error {
	task.Status = model.TaskError
	task.ErrorKind = string(kind)
	if onChunk != nil {
		onChunk(task)
	}
	return common.New(kind, cause)
}

// rehashPrefix re-reads and re-feeds chunks [0, count) from f into h without
// re-transmitting them, rebuilding the running SHA-512 state on resume
// (§4.4 step 2, §9).
func rehashPrefix(f *os.File, count int, h *cryptox.FileHasher) error {
	buf := make([]byte, common.ChunkSize)
	for i := 0; i < count; i++ {
		chunk, err := filex.ReadChunkAt(f, i, common.ChunkSize, buf)
		if err != nil {
			return err
		}
		h.Write(chunk)
	}
	return nil
}

// rehashFromDisk re-reads the first n already-written bytes of f to rebuild
// the running hash for a resumed, verified download (§4.4 step 1).
func rehashFromDisk(f *os.File, n int64, h *cryptox.FileHasher) error {
	buf := make([]byte, common.ChunkSize)
	var off int64
	for off < n {
		size := int64(len(buf))
		if n-off < size {
			size = n - off
		}
		read, err := f.ReadAt(buf[:size], off)
		if err != nil && err != io.EOF {
			return err
		}
		h.Write(buf[:read])
		off += int64(read)
		if read == 0 {
			break
		}
	}
	return nil
}

// expectedLength returns how many bytes should already be on disk given
// lastChunk committed chunks out of chunkCount, for a file of total size.
func expectedLength(lastChunk, chunkCount int, size int64) int64 {
	if lastChunk < 0 {
		return 0
	}
	if lastChunk >= chunkCount-1 {
		return size
	}
	return int64(lastChunk+1) * common.ChunkSize
}

func canceled(cancel <-chan struct{}) bool {
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

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
