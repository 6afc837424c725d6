// Package credstore persists the logged-in user's credentials to a
// user-home location (§6 credentials.json). This is explicitly a Non-goal
// for the core packages themselves (§1, §13): the core only consumes the
// Provider interface, and this is the one concrete implementation the CLI
// wires in so the whole thing runs end-to-end.
package credstore

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/halvardk/vaultctl/internal/common"
	"github.com/halvardk/vaultctl/internal/filex"
)

// Credentials is the on-disk shape of credentials.json (§6).
type Credentials struct {
	Email        string `json:"email"`
	MasterKeyHex string `json:"masterKeyHex"`
	AuthToken    string `json:"authToken"`
	APIKey       string `json:"apiKey"`
	BaseURL      string `json:"baseUrl"`
}

// Provider is the interface the core's CLI wiring accepts to load and
// persist login state. Swappable for an OS keychain or an in-memory stub
// in tests.
type Provider interface {
	Load() (Credentials, error)
	Save(Credentials) error
	Clear() error
}

// JSONStore is the default Provider: a single credentials.json file under
// the configured state directory, written owner-only and atomically
// (§6, §5).
type JSONStore struct {
	path string
}

// NewJSONStore returns a JSONStore rooted at <stateDir>/credentials.json.
func NewJSONStore(stateDir string) *JSONStore {
	return &JSONStore{path: filepath.Join(stateDir, "credentials.json")}
}

// Load reads the credential file. A missing file is reported as
// common.KindAuth, since an absent credential file means the caller is not
// logged in.
func (s *JSONStore) Load() (Credentials, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Credentials{}, common.Newf(common.KindAuth, "not logged in")
		}
		return Credentials{}, common.New(common.KindIO, err)
	}

	var c Credentials
	if err := json.Unmarshal(data, &c); err != nil {
		return Credentials{}, common.New(common.KindFatal, err)
	}
	return c, nil
}

// Save writes c to disk, creating the state directory as needed and
// restricting permissions to the owner (§6).
func (s *JSONStore) Save(c Credentials) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return common.New(common.KindIO, err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return common.New(common.KindFatal, err)
	}
	if err := filex.WriteFileAtomic(s.path, data, 0o600); err != nil {
		return common.New(common.KindIO, err)
	}
	return nil
}

// Clear removes the credential file. Clearing an already-absent file is
// not an error.
func (s *JSONStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return common.New(common.KindIO, err)
	}
	return nil
}

var _ Provider = (*JSONStore)(nil)
