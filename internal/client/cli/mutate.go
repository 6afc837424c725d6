package cli

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/halvardk/vaultctl/internal/common"
	"github.com/halvardk/vaultctl/internal/cryptox"
	"github.com/halvardk/vaultctl/internal/model"
	"github.com/halvardk/vaultctl/internal/transfer"
)

// Move reparents a node to a new remote folder (§6 "mv"), or, with copy
// set, stages the source through a local temp file and re-uploads it under
// the destination (§6 "cp") — the backend has no native copy endpoint, so
// a copy is a download followed by an upload, same as any client without
// server-side copy support would do it.
func (a *App) Move(ctx context.Context, args []string, asCopy bool) error {
	if err := a.ensureSession(ctx); err != nil {
		return err
	}
	if len(args) < 2 {
		return common.Newf(common.KindFatal, "usage: mv <source-path> <dest-dir>")
	}

	srcPath, err := model.ParsePath(args[0])
	if err != nil {
		return err
	}
	node, err := a.resolver.ResolveStrict(ctx, srcPath)
	if err != nil {
		return err
	}
	destPath, err := model.ParsePath(args[1])
	if err != nil {
		return err
	}
	destParent, err := a.resolver.EnsureFolder(ctx, destPath)
	if err != nil {
		return err
	}

	if asCopy {
		return a.copyViaTempFile(ctx, node, destPath)
	}

	srcParentPath, _ := srcPath.Parent()
	if err := a.client.Move(ctx, node.ID, destParent.ID); err != nil {
		return err
	}
	a.resolver.Invalidate(node.ParentID, srcParentPath.String())
	a.resolver.Invalidate(destParent.ID, destPath.String())
	fmt.Printf("moved %s -> %s\n", srcPath.String(), destPath.String())
	return nil
}

func (a *App) copyViaTempFile(ctx context.Context, node model.Node, destDir model.Path) error {
	tmp, err := os.CreateTemp("", "vaultctl-cp-*")
	if err != nil {
		return common.New(common.KindIO, err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	downloadTask := &model.Task{Status: model.TaskPending, LastChunk: -1, ChunkCount: node.ChunkCount, Size: node.Size}
	downloadIn := transfer.DownloadInput{
		RemoteID:      node.ID,
		ContentKey:    node.ContentKey,
		ChunkCount:    node.ChunkCount,
		Size:          node.Size,
		RemoteHashHex: node.HashHex,
		LocalPath:     tmpPath,
	}
	if err := a.engine.Download(ctx, downloadTask, downloadIn, nil, func(*model.Task) {}, nil); err != nil {
		return err
	}

	destParent, err := a.resolver.EnsureFolder(ctx, destDir)
	if err != nil {
		return err
	}
	nameHash := cryptox.HashName(hex.EncodeToString(a.masterKey), a.email, node.Name)
	uploadTask := &model.Task{Status: model.TaskPending, LastChunk: -1}
	uploadIn := transfer.UploadInput{
		LocalPath:  tmpPath,
		ParentID:   destParent.ID,
		RemoteName: node.Name,
		NameHash:   nameHash,
	}
	if err := a.engine.Upload(ctx, uploadTask, uploadIn, nil, func(*model.Task) {}, nil); err != nil {
		return err
	}
	a.resolver.Invalidate(destParent.ID, destDir.String())
	fmt.Printf("copied %s -> %s\n", node.Name, destDir.Join(node.Name).String())
	return nil
}

// Rename replaces a node's name envelope (§6 "rename").
func (a *App) Rename(ctx context.Context, args []string) error {
	if err := a.ensureSession(ctx); err != nil {
		return err
	}
	if len(args) < 2 {
		return common.Newf(common.KindFatal, "usage: rename <path> <new-name>")
	}
	p, err := model.ParsePath(args[0])
	if err != nil {
		return err
	}
	node, err := a.resolver.ResolveStrict(ctx, p)
	if err != nil {
		return err
	}

	var env string
	if node.IsFolder() {
		env, err = cryptox.WrapMetadata(a.masterKey, args[1])
	} else {
		env, err = cryptox.WrapMetadata(a.masterKey, model.FileMetadata{
			Name: args[1], Size: node.Size, KeyHex: hex.EncodeToString(node.ContentKey),
			ModifiedMs: node.ModifiedMs, HashHex: node.HashHex,
		})
	}
	if err != nil {
		return err
	}
	if err := a.client.Rename(ctx, node.ID, env); err != nil {
		return err
	}
	parentPath, _ := p.Parent()
	a.resolver.Invalidate(node.ParentID, parentPath.String())
	fmt.Printf("renamed %s -> %s\n", p.String(), args[1])
	return nil
}

// Trash moves a node to the trash (§6 "trash").
func (a *App) Trash(ctx context.Context, args []string) error {
	if err := a.ensureSession(ctx); err != nil {
		return err
	}
	if len(args) < 1 {
		return common.Newf(common.KindFatal, "usage: trash <path>")
	}
	p, err := model.ParsePath(args[0])
	if err != nil {
		return err
	}
	node, err := a.resolver.ResolveStrict(ctx, p)
	if err != nil {
		return err
	}
	if err := a.client.Trash(ctx, node.ID); err != nil {
		return err
	}
	parentPath, _ := p.Parent()
	a.resolver.Invalidate(node.ParentID, parentPath.String())
	fmt.Printf("trashed %s\n", p.String())
	return nil
}

// ListTrash prints every trashed node visible to the account (§6).
func (a *App) ListTrash(ctx context.Context) error {
	if err := a.ensureSession(ctx); err != nil {
		return err
	}
	nodes, err := a.client.ListTrash(ctx)
	if err != nil {
		return err
	}
	for _, n := range nodes {
		fmt.Printf("%-8s %-20s %s\n", n.Kind, n.ID, n.Name)
	}
	return nil
}

// Restore moves a trashed node (identified by id or, ambiguously, by
// path — §4.3's duplicate diagnostics apply to path-based restore) back
// out of the trash (§6 "restore-uuid"/"restore-path").
func (a *App) Restore(ctx context.Context, args []string) error {
	if err := a.ensureSession(ctx); err != nil {
		return err
	}
	if len(args) < 1 {
		return common.Newf(common.KindFatal, "usage: restore-uuid <id> | restore-path <path>")
	}

	id := model.ID(args[0])
	if p, err := model.ParsePath(args[0]); err == nil && len(p.Segments()) > 0 {
		if node, resolveErr := a.resolver.ResolveStrict(ctx, p); resolveErr == nil {
			id = node.ID
		}
	}
	if err := a.client.Restore(ctx, id); err != nil {
		return err
	}
	fmt.Printf("restored %s\n", id)
	return nil
}

// Delete permanently deletes a trashed node by path (§6 "delete-path").
func (a *App) Delete(ctx context.Context, args []string) error {
	if err := a.ensureSession(ctx); err != nil {
		return err
	}
	if len(args) < 1 {
		return common.Newf(common.KindFatal, "usage: delete-path <path>")
	}
	p, err := model.ParsePath(args[0])
	if err != nil {
		return err
	}
	node, err := a.resolver.ResolveStrict(ctx, p)
	if err != nil {
		return err
	}
	if err := a.client.Delete(ctx, node.ID); err != nil {
		return err
	}
	fmt.Printf("deleted %s\n", p.String())
	return nil
}

// ShowConfig prints the resolved configuration the CLI is running with
// (§6 "config").
func (a *App) ShowConfig() error {
	fmt.Printf("base_url:  %s\n", a.cfg.BaseURL)
	fmt.Printf("state_dir: %s\n", a.cfg.StateDir)
	fmt.Printf("cache_ttl: %s\n", a.cfg.CacheTTL)
	fmt.Printf("verbose:   %t\n", a.cfg.Verbose)
	return nil
}
