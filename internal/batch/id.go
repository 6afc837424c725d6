package batch

import (
	"crypto/sha1"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/halvardk/vaultctl/internal/model"
)

// ComputeBatchID implements §4.5 step 1: the first 16 hex chars of a SHA-1
// over "operation\0sorted(sources).join(\0)\0target", so re-invoking the
// same command reopens the same journal (§3 invariant).
func ComputeBatchID(operation model.Operation, sources []string, target string) string {
	sorted := append([]string(nil), sources...)
	sort.Strings(sorted)

	h := sha1.New()
	h.Write([]byte(string(operation)))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(sorted, "\x00")))
	h.Write([]byte{0})
	h.Write([]byte(target))

	return hex.EncodeToString(h.Sum(nil))[:16]
}
