// Package model defines the data types shared by the backend client,
// path resolver, transfer engine, and batch orchestrator (§3).
package model

// ID is the backend's opaque 128-bit identifier, carried as its lowercase
// hex string form everywhere in this client.
type ID string

// Empty reports whether id is the zero value (used for "no parent" / root).
func (id ID) Empty() bool { return id == "" }

// NodeKind distinguishes a file from a folder.
type NodeKind string

const (
	NodeKindFile   NodeKind = "file"
	NodeKindFolder NodeKind = "folder"
)

// Region identifies the backend-assigned bucket/region tuple a file's
// chunks live in.
type Region struct {
	Bucket string
	Region string
}

// Node is either a file or a folder (§3). ParentID is empty for the root.
// File-only fields are zero for folders.
type Node struct {
	ID         ID
	ParentID   ID
	Kind       NodeKind
	Name       string
	ModifiedMs int64
	Trashed    bool

	// File-only fields.
	Size       int64
	ChunkCount int
	ContentKey []byte // 256-bit per-file content key, plaintext in memory only
	HashHex    string // client-computed SHA-512 recorded at upload time (§3)
	VersionTag string
	Region     Region
}

// IsFile reports whether the node represents a file.
func (n Node) IsFile() bool { return n.Kind == NodeKindFile }

// IsFolder reports whether the node represents a folder.
func (n Node) IsFolder() bool { return n.Kind == NodeKindFolder }
