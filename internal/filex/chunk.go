package filex

import (
	"io"
	"os"
	"time"
)

// ReadChunkAt reads up to len(buf) bytes at the given chunk index from f,
// where each chunk is chunkSize bytes. It returns the slice of buf that was
// actually filled (shorter than chunkSize for the final, short chunk).
func ReadChunkAt(f *os.File, index int, chunkSize int, buf []byte) ([]byte, error) {
	off := int64(index) * int64(chunkSize)
	n, err := f.ReadAt(buf[:chunkSize], off)
	if err != nil && err != io.EOF {
		return nil, err
	}
	return buf[:n], nil
}

// ChunkCount returns ceil(size / chunkSize), matching §4.4's chunk-count rule.
func ChunkCount(size int64, chunkSize int64) int {
	if size == 0 {
		return 0
	}
	return int((size + chunkSize - 1) / chunkSize)
}

// StampMtime sets path's modification time to t, rounded to the platform's
// mtime granularity by relying on os.Chtimes' own rounding. Access time is
// left equal to the modification time since the backend does not track it.
func StampMtime(path string, t time.Time) error {
	return os.Chtimes(path, t, t)
}
