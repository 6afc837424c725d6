// Package backend implements the typed client for the object-store's HTTP
// API: authentication, directory listing, folder/file mutation, and the
// chunked upload/download endpoints the transfer engine drives (§4.2).
package backend

import (
	"context"

	"github.com/halvardk/vaultctl/internal/model"
)

// UserInfo is the subset of the account endpoint's response this client
// cares about (§6 "whoami").
type UserInfo struct {
	Email        string
	StorageUsed  int64
	StorageLimit int64
}

// UploadSession identifies a begin-upload handshake's server-side state,
// threaded through PutChunk and FinishUpload (§4.4 step 1).
type UploadSession struct {
	FileUUID  string
	UploadKey string
	Region    model.Region
}

// Client is the complete set of backend operations the resolver, transfer
// engine, and batch orchestrator are built on. Every method classifies
// failures into the closed common.Kind set before returning (§4.2, §7).
type Client interface {
	// Login exchanges an email and derived auth token for a bearer session.
	// On success the returned token is also stored on the client for
	// subsequent calls.
	Login(ctx context.Context, email, authToken string) (sessionToken string, err error)

	// ListDirectory returns the direct, non-recursive children of folderID.
	// An empty folderID means the root.
	ListDirectory(ctx context.Context, folderID model.ID) ([]model.Node, error)

	// CreateFolder creates a folder named by nameEnvelope (an encrypted
	// metadata envelope, §3) under parentID and returns the new Node.
	CreateFolder(ctx context.Context, parentID model.ID, nameEnvelope string) (model.Node, error)

	// GetFileInfo fetches a single file or folder Node by ID.
	GetFileInfo(ctx context.Context, id model.ID) (model.Node, error)

	// BeginUpload opens a server-side upload session for a new file under
	// parentID. nameHash is the HMAC filename hash (§4.1) used for
	// duplicate detection; it does not reveal the plaintext name.
	// idempotencyKey lets the server recognize a retried begin-upload call
	// (e.g. a connection drop after the session was created but before the
	// response arrived) as the same request rather than opening a second,
	// orphaned session.
	BeginUpload(ctx context.Context, parentID model.ID, nameHash, idempotencyKey string) (UploadSession, error)

	// PutChunk uploads one ciphertext chunk at the given zero-based index
	// within sess. Safe to retry: the backend treats (sess, index) as an
	// idempotent slot (§4.2, §4.4).
	PutChunk(ctx context.Context, sess UploadSession, index int, ciphertext []byte) error

	// FinishUpload commits sess as a file node once every chunk has been
	// put. metadataEnvelope is the encrypted FileMetadata (§3); hashHex is
	// the plaintext's full SHA-512 in hex. Not retried on a received
	// response (§4.2): committing twice could create two file nodes.
	FinishUpload(ctx context.Context, sess UploadSession, metadataEnvelope, hashHex string) (model.Node, error)

	// GetChunk downloads one ciphertext chunk of fileID at the given index.
	GetChunk(ctx context.Context, fileID model.ID, index int) ([]byte, error)

	// Move reparents nodeID under newParentID. Not retried on a received
	// response: a successful move that times out in transit would look
	// like a failure and retry could move the node a second time onto
	// itself or a stale parent.
	Move(ctx context.Context, nodeID, newParentID model.ID) error

	// Rename replaces nodeID's encrypted name envelope.
	Rename(ctx context.Context, nodeID model.ID, newNameEnvelope string) error

	// Trash moves nodeID to the trash.
	Trash(ctx context.Context, nodeID model.ID) error

	// Restore moves nodeID out of the trash to its prior parent.
	Restore(ctx context.Context, nodeID model.ID) error

	// Delete permanently deletes a trashed node.
	Delete(ctx context.Context, nodeID model.ID) error

	// ListTrash returns every trashed node visible to the account.
	ListTrash(ctx context.Context) ([]model.Node, error)

	// UserInfo fetches account-level info.
	UserInfo(ctx context.Context) (UserInfo, error)
}
