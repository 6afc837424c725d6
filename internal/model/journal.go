package model

// Operation tags a batch as an upload or a download (§3, §9: a tagged
// variant rather than base-class inheritance).
type Operation string

const (
	OperationUpload   Operation = "upload"
	OperationDownload Operation = "download"
)

// TaskStatus is one of the enumerated states a Task can be in (§3).
// Status holds only the bare "skipped" or "error"; the skip reason and
// error kind are not appended to it and live in Task.SkipReason and
// Task.ErrorKind instead.
type TaskStatus string

const (
	TaskPending     TaskStatus = "pending"
	TaskActive      TaskStatus = "active"
	TaskInterrupted TaskStatus = "interrupted"
	TaskCompleted   TaskStatus = "completed"
	TaskSkipped     TaskStatus = "skipped"
	TaskError       TaskStatus = "error"
)

// SkipReason is the closed set of reasons a Task may be skipped (§4.5).
type SkipReason string

const (
	SkipExists   SkipReason = "exists"
	SkipNotNewer SkipReason = "not_newer"
)

// Task is a single file's worth of work within a batch (§3).
type Task struct {
	LocalPath  string
	RemotePath string
	Status     TaskStatus

	// SkipReason is set when Status == TaskSkipped.
	SkipReason SkipReason
	// ErrorKind is set when Status == TaskError; it is always one of the
	// closed-set kinds from common.Kind, stored as a string so the journal
	// JSON stays self-contained.
	ErrorKind string

	// Server-assigned identifiers, populated once known.
	RemoteID ID
	ParentID ID

	// ReplaceID is set by the conflict-policy check (§4.5 step 4) when an
	// upload under "overwrite" or "newer" finds an existing remote
	// counterpart: the old node is trashed only after the new one
	// finishes uploading, so the replace is atomic from the caller's
	// point of view.
	ReplaceID ID

	// IdempotencyKey is generated once per Task and sent on every
	// begin-upload attempt so a retried call after a dropped connection
	// reopens the same session instead of orphaning a second one.
	IdempotencyKey string

	// FileUUID/UploadKey identify an in-progress upload's backend-side
	// session (§4.4 step 1); empty until begin-upload succeeds.
	FileUUID  string
	UploadKey string
	// Bucket/Region echo the backend.UploadSession's routing info so an
	// interrupted upload can reconstruct it on resume without a round trip.
	Bucket string
	Region string

	// ContentKeyHex is the file's per-file content key, generated on the
	// first upload attempt or fetched from the remote Node on download.
	ContentKeyHex string

	// Size is the file's plaintext byte length: read from the local file
	// for uploads, from the remote Node for downloads.
	Size int64
	// RemoteModifiedMs is the remote Node's modification time, known at
	// enumeration time for a download and used to stamp the local file
	// when preserve-timestamp is set.
	RemoteModifiedMs int64

	ChunkCount int
	// LastChunk is the highest zero-based chunk index fully committed.
	// -1 means none (§3 invariants).
	LastChunk int

	// HashHex is the SHA-512 hex digest: the client-computed hash for a
	// completed upload, or the server-reported hash a download verifies
	// against.
	HashHex string
}

// IsTerminal reports whether the task has reached a state that will not
// change without explicit user action (§4.5 state machine).
func (t Task) IsTerminal() bool {
	return t.Status == TaskCompleted || t.Status == TaskSkipped || t.Status == TaskError
}

// BatchJournal is the persistent record of one batch (§3).
type BatchJournal struct {
	BatchID   string
	Operation Operation
	Source    []string
	Target    string
	CreatedAt int64
	UpdatedAt int64
	Tasks     []*Task
}

// AllTerminal reports whether every task in the journal is terminal.
func (j *BatchJournal) AllTerminal() bool {
	for _, t := range j.Tasks {
		if !t.IsTerminal() {
			return false
		}
	}
	return true
}

// AnyError reports whether any task ended in the error_* state.
func (j *BatchJournal) AnyError() bool {
	for _, t := range j.Tasks {
		if t.Status == TaskError {
			return true
		}
	}
	return false
}
