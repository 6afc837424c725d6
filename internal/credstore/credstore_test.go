package credstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/halvardk/vaultctl/internal/common"
	"github.com/stretchr/testify/require"
)

func TestJSONStore_LoadMissing(t *testing.T) {
	store := NewJSONStore(t.TempDir())
	_, err := store.Load()
	require.Error(t, err)
	kind, ok := common.As(err)
	require.True(t, ok)
	require.Equal(t, common.KindAuth, kind)
}

func TestJSONStore_SaveThenLoad(t *testing.T) {
	store := NewJSONStore(t.TempDir())
	want := Credentials{
		Email:        "alice@example.test",
		MasterKeyHex: "deadbeef",
		AuthToken:    "token123",
		BaseURL:      "https://backend.test",
	}
	require.NoError(t, store.Save(want))

	got, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestJSONStore_FilePermissions(t *testing.T) {
	dir := t.TempDir()
	store := NewJSONStore(dir)
	require.NoError(t, store.Save(Credentials{Email: "a@b.test"}))

	info, err := os.Stat(filepath.Join(dir, "credentials.json"))
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestJSONStore_Clear(t *testing.T) {
	store := NewJSONStore(t.TempDir())
	require.NoError(t, store.Save(Credentials{Email: "a@b.test"}))
	require.NoError(t, store.Clear())

	_, err := store.Load()
	require.Error(t, err)
}

func TestJSONStore_ClearMissingIsNotError(t *testing.T) {
	store := NewJSONStore(t.TempDir())
	require.NoError(t, store.Clear())
}
