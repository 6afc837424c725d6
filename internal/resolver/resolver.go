// Package resolver translates human paths into backend identifiers over a
// cached view of the object store's directory tree (§4.3). It is the only
// component that decrypts a Node's name envelope: every other layer works
// in terms of already-resolved model.Node values.
package resolver

import (
	"context"
	"encoding/hex"
	"sort"
	"time"

	"github.com/halvardk/vaultctl/internal/backend"
	"github.com/halvardk/vaultctl/internal/common"
	"github.com/halvardk/vaultctl/internal/cryptox"
	"github.com/halvardk/vaultctl/internal/logging"
	"github.com/halvardk/vaultctl/internal/model"
)

// Resolved is a successfully resolved Node plus any other nodes that share
// its name under the same parent, so strict callers (e.g. restore-by-name)
// can refuse an ambiguous match (§4.3).
type Resolved struct {
	Node       model.Node
	Duplicates []model.Node
}

// Resolver implements §4.3's resolve/list/ensure_folder/invalidate over a
// backend.Client, decrypting child name envelopes with a master key and
// caching listings with the bounded-LRU, TTL-bound cache.
type Resolver struct {
	client    backend.Client
	masterKey []byte
	rootID    model.ID
	cache     *cache
	log       logging.Logger
	now       func() time.Time
}

// Option configures a Resolver at construction time.
type Option func(*Resolver)

// WithCacheSize overrides the default LRU bound (mainly for tests).
func WithCacheSize(n int) Option {
	return func(r *Resolver) { r.cache.capacity = n }
}

// WithTTL overrides the default absolute TTL (mainly for tests).
func WithTTL(d time.Duration) Option {
	return func(r *Resolver) { r.cache.ttl = d }
}

// withClock overrides the resolver's notion of "now" (tests only).
func withClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// New constructs a Resolver against client, using masterKey to decrypt name
// envelopes. rootID is the backend's root folder identifier (commonly empty).
func New(client backend.Client, masterKey []byte, rootID model.ID, log logging.Logger, opts ...Option) *Resolver {
	r := &Resolver{
		client:    client,
		masterKey: masterKey,
		rootID:    rootID,
		cache:     newCache(DefaultCacheSize, DefaultTTL),
		log:       log,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// List returns the decrypted children of folder. Same-named siblings are
// all returned as separate entries; List does not group them.
func (r *Resolver) List(ctx context.Context, folder model.ID) ([]model.Node, error) {
	// The root listing is cached under its path "/" (as Resolve caches it),
	// since an empty root ID is never indexed by ID.
	path := ""
	if folder == r.rootID {
		path = "/"
	}
	entry, err := r.listCached(ctx, folder, path)
	if err != nil {
		return nil, err
	}
	return entry.Children, nil
}

// Resolve walks path from the root, returning the chosen Node at each
// duplicate-name junction per the tie-break rule, plus the diagnostics for
// the final segment (§4.3).
func (r *Resolver) Resolve(ctx context.Context, path model.Path) (Resolved, error) {
	current := r.rootID
	currentPath := "/"

	if path.IsRoot() {
		return Resolved{Node: model.Node{ID: current, Kind: model.NodeKindFolder, Name: "/"}}, nil
	}

	segs := path.Segments()
	var resolved Resolved
	for i, name := range segs {
		entry, err := r.listCached(ctx, current, currentPath)
		if err != nil {
			return Resolved{}, err
		}

		chosen, dupes, found := pickByName(entry.Children, name)
		if !found {
			return Resolved{}, common.Newf(common.KindNotFound, "no such path segment %q in %q", name, currentPath)
		}

		resolved = Resolved{Node: chosen, Duplicates: dupes}
		current = chosen.ID
		currentPath = joinPath(currentPath, name)

		if i < len(segs)-1 && !chosen.IsFolder() {
			return Resolved{}, common.Newf(common.KindNotFound, "%q is not a folder", currentPath)
		}
	}
	return resolved, nil
}

// ResolveStrict is Resolve but returns KindAmbiguous if the final segment
// has same-named siblings, instead of silently picking one (§4.3).
func (r *Resolver) ResolveStrict(ctx context.Context, path model.Path) (model.Node, error) {
	resolved, err := r.Resolve(ctx, path)
	if err != nil {
		return model.Node{}, err
	}
	if len(resolved.Duplicates) > 0 {
		return model.Node{}, common.Newf(common.KindAmbiguous, "%q matches %d nodes", path.String(), len(resolved.Duplicates)+1)
	}
	return resolved.Node, nil
}

// EnsureFolder resolves path, creating any missing folder segments along
// the way (§4.3).
func (r *Resolver) EnsureFolder(ctx context.Context, path model.Path) (model.Node, error) {
	current := r.rootID
	currentPath := "/"

	if path.IsRoot() {
		return model.Node{ID: current, Kind: model.NodeKindFolder, Name: "/"}, nil
	}

	for _, name := range path.Segments() {
		entry, err := r.listCached(ctx, current, currentPath)
		if err != nil {
			return model.Node{}, err
		}

		chosen, _, found := pickByName(entry.Children, name)
		childPath := joinPath(currentPath, name)
		if !found {
			node, err := r.createFolder(ctx, current, name)
			if err != nil {
				return model.Node{}, err
			}
			r.Invalidate(current, currentPath)
			current = node.ID
			currentPath = childPath
			continue
		}
		if !chosen.IsFolder() {
			return model.Node{}, common.Newf(common.KindConflict, "%q exists and is not a folder", childPath)
		}
		current = chosen.ID
		currentPath = childPath
	}

	return model.Node{ID: current, Kind: model.NodeKindFolder, Name: currentPath}, nil
}

func (r *Resolver) createFolder(ctx context.Context, parent model.ID, name string) (model.Node, error) {
	env, err := cryptox.WrapMetadata(r.masterKey, name)
	if err != nil {
		return model.Node{}, err
	}
	node, err := r.client.CreateFolder(ctx, parent, env)
	if err != nil {
		return model.Node{}, err
	}
	node.Name = name
	return node, nil
}

// Invalidate drops any cached listing for folder and/or its canonical path.
// Call after any mutation the client issues against that folder (§3, §4.3).
func (r *Resolver) Invalidate(folder model.ID, path string) {
	if folder != "" {
		r.cache.invalidate(folder)
	}
	if path != "" {
		r.cache.invalidatePath(path)
	}
}

// listCached serves folder's children from cache when fresh, otherwise
// fetches and decrypts them from the backend and repopulates the cache.
func (r *Resolver) listCached(ctx context.Context, folder model.ID, path string) (model.DirectoryCacheEntry, error) {
	now := r.now()
	if e, ok := r.cache.getByID(folder, now); ok {
		return e, nil
	}
	if path != "" {
		if e, ok := r.cache.getByPath(path, now); ok {
			return e, nil
		}
	}

	raw, err := r.client.ListDirectory(ctx, folder)
	if err != nil {
		return model.DirectoryCacheEntry{}, err
	}

	children := make([]model.Node, 0, len(raw))
	for _, n := range raw {
		decoded, err := r.decodeChild(n)
		if err != nil {
			if r.log != nil {
				r.log.Warn(ctx, "dropping child with undecodable name envelope", "id", n.ID, "err", err)
			}
			continue
		}
		children = append(children, decoded)
	}

	entry := model.DirectoryCacheEntry{
		FolderID:  folder,
		Path:      path,
		Children:  children,
		FetchedAt: now,
		TTL:       r.cache.ttl,
	}
	r.cache.put(entry)
	return entry, nil
}

// decodeChild unwraps raw.Name (a metadata envelope carried verbatim by the
// backend client, §4.2/§4.3) into the plaintext name and, for files, the
// content key and authoritative size/modified time.
func (r *Resolver) decodeChild(raw model.Node) (model.Node, error) {
	if raw.IsFolder() {
		var name string
		if err := cryptox.UnwrapMetadata(r.masterKey, raw.Name, &name); err != nil {
			return model.Node{}, err
		}
		raw.Name = name
		return raw, nil
	}

	var fm model.FileMetadata
	if err := cryptox.UnwrapMetadata(r.masterKey, raw.Name, &fm); err != nil {
		return model.Node{}, err
	}
	key, err := hex.DecodeString(fm.KeyHex)
	if err != nil {
		return model.Node{}, common.New(common.KindFatal, err)
	}

	raw.Name = fm.Name
	raw.Size = fm.Size
	raw.ModifiedMs = fm.ModifiedMs
	raw.ContentKey = key
	raw.HashHex = fm.HashHex
	if raw.ChunkCount == 0 && fm.Size > 0 {
		raw.ChunkCount = int((fm.Size + common.ChunkSize - 1) / common.ChunkSize)
	}
	return raw, nil
}

// pickByName selects the tie-break winner among children sharing name
// (§4.3): most recently modified non-trashed node, then lexicographically
// smallest ID. Returns the remaining same-named nodes as diagnostics.
func pickByName(children []model.Node, name string) (chosen model.Node, duplicates []model.Node, found bool) {
	var matches []model.Node
	for _, c := range children {
		if c.Name == name {
			matches = append(matches, c)
		}
	}
	if len(matches) == 0 {
		return model.Node{}, nil, false
	}

	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.Trashed != b.Trashed {
			return !a.Trashed // non-trashed sorts first
		}
		if a.ModifiedMs != b.ModifiedMs {
			return a.ModifiedMs > b.ModifiedMs // most recent first
		}
		return a.ID < b.ID // lexicographically smaller ID first
	})

	chosen = matches[0]
	duplicates = matches[1:]
	return chosen, duplicates, true
}

func joinPath(parent, name string) string {
	if parent == "/" {
		return "/" + name
	}
	return parent + "/" + name
}
