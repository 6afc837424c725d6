package cryptox

import (
	"crypto/sha512"
	"encoding/hex"
	"hash"
)

// FileHasher is an incremental SHA-512 hasher over a file's plaintext
// (§4.1, §4.4). It is fed one chunk at a time, in order, during upload
// (before encryption) or download (after decryption). Resume rebuilds it
// from scratch by re-feeding chunks [0, startIndex) — opaque hasher state
// is never persisted (§9).
type FileHasher struct {
	h hash.Hash
}

func NewFileHasher() *FileHasher {
	return &FileHasher{h: sha512.New()}
}

func (f *FileHasher) Write(chunk []byte) {
	f.h.Write(chunk)
}

// SumHex returns the lowercase hex SHA-512 digest of everything written so far.
func (f *FileHasher) SumHex() string {
	return hex.EncodeToString(f.h.Sum(nil))
}

// HashBytesHex is a one-shot convenience wrapper for small in-memory
// payloads (e.g. verifying a downloaded metadata blob outside the chunked
// streaming path).
func HashBytesHex(data []byte) string {
	sum := sha512.Sum512(data)
	return hex.EncodeToString(sum[:])
}
