package batch

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/halvardk/vaultctl/internal/common"
	"github.com/halvardk/vaultctl/internal/filex"
	"github.com/halvardk/vaultctl/internal/model"
)

// JournalStore persists BatchJournal values under batch_states/<batchId>.json
// (§6), using write-to-temp-then-rename so readers never observe a
// partially-written journal (§5).
type JournalStore struct {
	dir string
}

func NewJournalStore(dir string) *JournalStore {
	return &JournalStore{dir: dir}
}

func (s *JournalStore) path(batchID string) string {
	return filepath.Join(s.dir, batchID+".json")
}

// Load returns the journal for batchID, or (nil, nil) if none exists.
func (s *JournalStore) Load(batchID string) (*model.BatchJournal, error) {
	data, err := os.ReadFile(s.path(batchID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, common.New(common.KindIO, err)
	}

	var j model.BatchJournal
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, common.New(common.KindFatal, err)
	}
	return &j, nil
}

// Save persists j atomically, creating the journal directory if needed.
func (s *JournalStore) Save(j *model.BatchJournal) error {
	if err := os.MkdirAll(s.dir, 0o770); err != nil {
		return common.New(common.KindIO, err)
	}
	data, err := json.MarshalIndent(j, "", "  ")
	if err != nil {
		return common.New(common.KindFatal, err)
	}
	if err := filex.WriteFileAtomic(s.path(j.BatchID), data, 0o600); err != nil {
		return common.New(common.KindIO, err)
	}
	return nil
}

// Delete removes the journal file for batchID once every Task is terminal
// (§3 lifecycle). Deleting a journal that does not exist is not an error.
func (s *JournalStore) Delete(batchID string) error {
	if err := os.Remove(s.path(batchID)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return common.New(common.KindIO, err)
	}
	return nil
}
