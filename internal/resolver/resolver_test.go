package resolver

import (
	"context"
	"testing"
	"time"

	"github.com/halvardk/vaultctl/internal/backend"
	"github.com/halvardk/vaultctl/internal/common"
	"github.com/halvardk/vaultctl/internal/cryptox"
	"github.com/halvardk/vaultctl/internal/model"
	"github.com/stretchr/testify/require"
)

// fakeClient is a minimal backend.Client stub that serves ListDirectory from
// an in-memory tree and counts calls so tests can assert cache behavior.
type fakeClient struct {
	backend.Client
	listCalls int
	children  map[model.ID][]model.Node
	created   []model.Node
}

func newFakeClient() *fakeClient {
	return &fakeClient{children: make(map[model.ID][]model.Node)}
}

func (f *fakeClient) ListDirectory(ctx context.Context, folderID model.ID) ([]model.Node, error) {
	f.listCalls++
	return f.children[folderID], nil
}

func (f *fakeClient) CreateFolder(ctx context.Context, parentID model.ID, nameEnvelope string) (model.Node, error) {
	node := model.Node{ID: model.ID("new-" + nameEnvelope), ParentID: parentID, Kind: model.NodeKindFolder, Name: nameEnvelope}
	f.created = append(f.created, node)
	f.children[parentID] = append(f.children[parentID], node)
	return node, nil
}

func wrapName(t *testing.T, key []byte, name string) string {
	t.Helper()
	env, err := cryptox.WrapMetadata(key, name)
	require.NoError(t, err)
	return env
}

func wrapFile(t *testing.T, key []byte, fm model.FileMetadata) string {
	t.Helper()
	env, err := cryptox.WrapMetadata(key, fm)
	require.NoError(t, err)
	return env
}

func testKey() []byte { return make([]byte, 32) }

func TestResolver_ResolveSimplePath(t *testing.T) {
	key := testKey()
	fc := newFakeClient()

	fc.children[""] = []model.Node{
		{ID: "A", Kind: model.NodeKindFolder, Name: wrapName(t, key, "A")},
	}
	fc.children["A"] = []model.Node{
		{ID: "f1", ParentID: "A", Kind: model.NodeKindFile, ModifiedMs: 1000,
			Name: wrapFile(t, key, model.FileMetadata{Name: "c.txt", Size: 5, KeyHex: "00" + "11"})},
	}

	r := New(fc, key, "", nil)
	res, err := r.Resolve(context.Background(), mustPath(t, "/A/c.txt"))
	require.NoError(t, err)
	require.Equal(t, "c.txt", res.Node.Name)
	require.Equal(t, model.ID("f1"), res.Node.ID)
	require.Empty(t, res.Duplicates)
}

func TestResolver_ResolveMissingSegment(t *testing.T) {
	key := testKey()
	fc := newFakeClient()
	r := New(fc, key, "", nil)

	_, err := r.Resolve(context.Background(), mustPath(t, "/nope"))
	require.Error(t, err)
	require.True(t, common.IsKind(err, common.KindNotFound))
}

func TestResolver_DuplicateNames_TieBreak(t *testing.T) {
	key := testKey()
	fc := newFakeClient()

	fc.children[""] = []model.Node{
		{ID: "b", Kind: model.NodeKindFile, ModifiedMs: 500, Name: wrapFile(t, key, model.FileMetadata{Name: "c.txt", KeyHex: "00", ModifiedMs: 500})},
		{ID: "a", Kind: model.NodeKindFile, ModifiedMs: 1000, Name: wrapFile(t, key, model.FileMetadata{Name: "c.txt", KeyHex: "00", ModifiedMs: 1000})},
		{ID: "z", Kind: model.NodeKindFile, ModifiedMs: 1000, Trashed: true, Name: wrapFile(t, key, model.FileMetadata{Name: "c.txt", KeyHex: "00", ModifiedMs: 1000})},
	}

	r := New(fc, key, "", nil)
	res, err := r.Resolve(context.Background(), mustPath(t, "/c.txt"))
	require.NoError(t, err)
	// "a" wins: same mtime as "b" is impossible here since mtimes differ;
	// most-recently-modified, non-trashed node ("a", mtime 1000) wins over
	// "b" (mtime 500) and the trashed "z" (mtime 1000).
	require.Equal(t, model.ID("a"), res.Node.ID)
	require.Len(t, res.Duplicates, 2)

	_, err = r.ResolveStrict(context.Background(), mustPath(t, "/c.txt"))
	require.Error(t, err)
	require.True(t, common.IsKind(err, common.KindAmbiguous))
}

func TestResolver_ListCachesUntilInvalidated(t *testing.T) {
	key := testKey()
	fc := newFakeClient()
	fc.children[""] = []model.Node{
		{ID: "A", Kind: model.NodeKindFolder, Name: wrapName(t, key, "A")},
	}

	r := New(fc, key, "", nil)

	_, err := r.List(context.Background(), "")
	require.NoError(t, err)
	_, err = r.List(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, 1, fc.listCalls, "second List should be served from cache")

	r.Invalidate("", "/")
	_, err = r.List(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, 2, fc.listCalls, "List after Invalidate should re-fetch")
}

func TestResolver_CacheExpiresAfterTTL(t *testing.T) {
	key := testKey()
	fc := newFakeClient()
	fc.children[""] = nil

	now := time.Now()
	r := New(fc, key, "", nil, WithTTL(time.Millisecond), withClock(func() time.Time { return now }))

	_, err := r.List(context.Background(), "")
	require.NoError(t, err)
	now = now.Add(2 * time.Millisecond)
	_, err = r.List(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, 2, fc.listCalls)
}

func TestResolver_EnsureFolder_CreatesMissingSegments(t *testing.T) {
	key := testKey()
	fc := newFakeClient()
	r := New(fc, key, "", nil)

	node, err := r.EnsureFolder(context.Background(), mustPath(t, "/A/B"))
	require.NoError(t, err)
	require.True(t, node.IsFolder())
	require.Len(t, fc.created, 2)
}

func mustPath(t *testing.T, s string) model.Path {
	t.Helper()
	p, err := model.ParsePath(s)
	require.NoError(t, err)
	return p
}
