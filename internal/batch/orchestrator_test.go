package batch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/halvardk/vaultctl/internal/backend"
	"github.com/halvardk/vaultctl/internal/model"
	"github.com/halvardk/vaultctl/internal/resolver"
	"github.com/halvardk/vaultctl/internal/transfer"
	"github.com/stretchr/testify/require"
)

// fakeOrchestratorClient is a minimal backend.Client stub that serves an
// in-memory folder tree and records enough upload-session activity for
// tests to tell a fresh begin-upload from a resumed one.
type fakeOrchestratorClient struct {
	backend.Client
	children map[model.ID][]model.Node

	beginCalls  int
	putCalls    int
	finishCalls int
}

func newFakeOrchestratorClient() *fakeOrchestratorClient {
	return &fakeOrchestratorClient{children: make(map[model.ID][]model.Node)}
}

func (f *fakeOrchestratorClient) ListDirectory(ctx context.Context, folderID model.ID) ([]model.Node, error) {
	return f.children[folderID], nil
}

func (f *fakeOrchestratorClient) CreateFolder(ctx context.Context, parentID model.ID, nameEnvelope string) (model.Node, error) {
	node := model.Node{ID: model.ID("new-" + nameEnvelope), ParentID: parentID, Kind: model.NodeKindFolder, Name: nameEnvelope}
	f.children[parentID] = append(f.children[parentID], node)
	return node, nil
}

func (f *fakeOrchestratorClient) BeginUpload(ctx context.Context, parentID model.ID, nameHash, idempotencyKey string) (backend.UploadSession, error) {
	f.beginCalls++
	return backend.UploadSession{FileUUID: "file-1", UploadKey: "key-1", Region: model.Region{Bucket: "b", Region: "r"}}, nil
}

func (f *fakeOrchestratorClient) PutChunk(ctx context.Context, sess backend.UploadSession, index int, ciphertext []byte) error {
	f.putCalls++
	return nil
}

func (f *fakeOrchestratorClient) FinishUpload(ctx context.Context, sess backend.UploadSession, metadataEnvelope, hashHex string) (model.Node, error) {
	f.finishCalls++
	return model.Node{ID: model.ID("node-" + sess.FileUUID), Kind: model.NodeKindFile}, nil
}

func (f *fakeOrchestratorClient) Trash(ctx context.Context, nodeID model.ID) error { return nil }

func writeSourceFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func newTestOrchestrator(t *testing.T, client *fakeOrchestratorClient, journalDir string) *Orchestrator {
	t.Helper()
	masterKey := make([]byte, 32)
	res := resolver.New(client, masterKey, "", nil)
	eng := transfer.New(client, masterKey, nil)
	store := NewJournalStore(journalDir)
	return New(store, res, eng, client, masterKey, nil)
}

// TestOrchestrator_Run_FreshEnumeratesAndCompletesEveryTask exercises the
// ENUMERATE branch of Run: no journal exists yet, so the batch is walked
// from opts.Sources, every file becomes a Task, and a successful run
// deletes the journal once every Task is terminal (§4.5 step 1, §3
// lifecycle).
func TestOrchestrator_Run_FreshEnumeratesAndCompletesEveryTask(t *testing.T) {
	srcDir := t.TempDir()
	writeSourceFile(t, srcDir, "a.txt", "hello a")
	writeSourceFile(t, srcDir, "b.txt", "hello b")

	fc := newFakeOrchestratorClient()
	journalDir := t.TempDir()
	orch := newTestOrchestrator(t, fc, journalDir)

	opts := Options{Operation: model.OperationUpload, Sources: []string{srcDir}, Target: "/docs", Email: "user@vaultctl.test"}

	result, err := orch.Run(context.Background(), opts, nil, nil)
	require.NoError(t, err)
	require.False(t, result.AnyError)
	require.Len(t, result.Journal.Tasks, 2)
	for _, task := range result.Journal.Tasks {
		require.Equal(t, model.TaskCompleted, task.Status)
	}
	require.Equal(t, 2, fc.beginCalls)
	require.Equal(t, 2, fc.finishCalls)

	batchID := ComputeBatchID(opts.Operation, opts.Sources, opts.Target)
	loaded, err := NewJournalStore(journalDir).Load(batchID)
	require.NoError(t, err)
	require.Nil(t, loaded, "journal should be deleted once every task is terminal")
}

// TestOrchestrator_Run_ResumeSkipsTerminalTasksAndDrivesOnlyThePending
// simulates a process that died partway through a batch: a journal for the
// same batch ID is already on disk, one task already completed and one
// still pending. Re-invoking Run with the same Options must enter the
// RESUME branch (§4.5 step 1) rather than re-enumerating the source tree,
// must leave the completed task untouched, and must drive only the
// pending task to completion.
func TestOrchestrator_Run_ResumeSkipsTerminalTasksAndDrivesOnlyThePending(t *testing.T) {
	srcDir := t.TempDir()
	// A fresh enumerate of srcDir would find all three files; the journal
	// below intentionally omits a.txt, so if Run re-enumerated instead of
	// resuming, the result would have three tasks instead of two.
	writeSourceFile(t, srcDir, "a.txt", "hello a")
	writeSourceFile(t, srcDir, "b.txt", "hello b")
	writeSourceFile(t, srcDir, "c.txt", "hello c")

	opts := Options{Operation: model.OperationUpload, Sources: []string{srcDir}, Target: "/docs", Email: "user@vaultctl.test"}
	batchID := ComputeBatchID(opts.Operation, opts.Sources, opts.Target)

	completed := &model.Task{
		LocalPath: filepath.Join(srcDir, "b.txt"), RemotePath: "/docs/b.txt",
		Status: model.TaskCompleted, LastChunk: 0, Size: int64(len("hello b")),
		RemoteID: "node-already-uploaded", HashHex: "deadbeef",
	}
	pending := &model.Task{
		LocalPath: filepath.Join(srcDir, "c.txt"), RemotePath: "/docs/c.txt",
		Status: model.TaskPending, LastChunk: -1, Size: int64(len("hello c")),
	}
	journal := &model.BatchJournal{
		BatchID: batchID, Operation: opts.Operation, Source: opts.Sources, Target: opts.Target,
		CreatedAt: 1, UpdatedAt: 1, Tasks: []*model.Task{completed, pending},
	}

	journalDir := t.TempDir()
	store := NewJournalStore(journalDir)
	require.NoError(t, store.Save(journal))

	fc := newFakeOrchestratorClient()
	orch := newTestOrchestrator(t, fc, journalDir)

	result, err := orch.Run(context.Background(), opts, nil, nil)
	require.NoError(t, err)
	require.False(t, result.AnyError)
	require.Len(t, result.Journal.Tasks, 2, "resume must not re-enumerate the source tree")

	require.Equal(t, model.TaskCompleted, result.Journal.Tasks[0].Status)
	require.Equal(t, model.ID("node-already-uploaded"), result.Journal.Tasks[0].RemoteID,
		"already-terminal task must be left untouched")

	require.Equal(t, model.TaskCompleted, result.Journal.Tasks[1].Status)
	require.Equal(t, 1, fc.beginCalls, "only the pending task should open a new upload session")
	require.Equal(t, 1, fc.finishCalls)

	loaded, err := store.Load(batchID)
	require.NoError(t, err)
	require.Nil(t, loaded, "journal should be deleted once the resumed batch finishes")
}
