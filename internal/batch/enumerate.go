package batch

import (
	"context"
	"encoding/hex"
	"path"

	"github.com/halvardk/vaultctl/internal/common"
	"github.com/halvardk/vaultctl/internal/model"
)

// enumerate builds the Task list for a fresh batch (§4.5 step 3): walking
// the local tree for an upload, or the remote tree for a download,
// applying the include/exclude filters, and producing Tasks in stable
// traversal order.
func (o *Orchestrator) enumerate(ctx context.Context, opts Options) ([]*model.Task, error) {
	switch opts.Operation {
	case model.OperationUpload:
		return o.enumerateUpload(opts)
	case model.OperationDownload:
		return o.enumerateDownload(ctx, opts)
	default:
		return nil, common.Newf(common.KindFatal, "unknown operation %q", opts.Operation)
	}
}

// enumerateUpload walks every local source and pairs each file with its
// destination path under opts.Target.
func (o *Orchestrator) enumerateUpload(opts Options) ([]*model.Task, error) {
	var tasks []*model.Task
	for _, src := range opts.Sources {
		files, err := WalkLocal(src)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			if !opts.Filters.Match(f.RelPath) {
				continue
			}
			remotePath := path.Join(opts.Target, f.RelPath)
			tasks = append(tasks, &model.Task{
				LocalPath:  f.AbsPath,
				RemotePath: remotePath,
				Status:     model.TaskPending,
				LastChunk:  -1,
				Size:       f.Size,
			})
		}
	}
	return tasks, nil
}

// enumerateDownload walks every remote source subtree via the resolver and
// pairs each remote file with its destination path under opts.Target.
func (o *Orchestrator) enumerateDownload(ctx context.Context, opts Options) ([]*model.Task, error) {
	var tasks []*model.Task
	for _, src := range opts.Sources {
		srcPath, err := model.ParsePath(src)
		if err != nil {
			return nil, err
		}
		root, err := o.resolver.ResolveStrict(ctx, srcPath)
		if err != nil {
			return nil, err
		}

		if srcPath.IsRoot() {
			// The store root has no name of its own; its children are
			// walked directly under the target without an extra segment.
			if err := o.walkRemoteChildren(ctx, root, opts, "", &tasks); err != nil {
				return nil, err
			}
			continue
		}
		if err := o.walkRemote(ctx, root, opts, "", root.Name, &tasks); err != nil {
			return nil, err
		}
	}
	return tasks, nil
}

// walkRemoteChildren walks the direct and nested children of a root whose
// own name is not part of the destination path (the store root has no
// name of its own, §4.5 step 3).
func (o *Orchestrator) walkRemoteChildren(ctx context.Context, root model.Node, opts Options, relDir string, tasks *[]*model.Task) error {
	children, err := o.resolver.List(ctx, root.ID)
	if err != nil {
		return err
	}
	var files, folders []model.Node
	for _, c := range children {
		if c.Trashed {
			continue
		}
		if c.IsFolder() {
			folders = append(folders, c)
		} else {
			files = append(files, c)
		}
	}
	sortNodesByName(files)
	sortNodesByName(folders)

	for _, f := range files {
		if err := o.walkRemote(ctx, f, opts, relDir, f.Name, tasks); err != nil {
			return err
		}
	}
	for _, d := range folders {
		if err := o.walkRemote(ctx, d, opts, relDir, d.Name, tasks); err != nil {
			return err
		}
	}
	return nil
}

// walkRemote recurses a resolved remote node, emitting a Task for each
// non-trashed file in the same order convention as the local walk: a
// folder's own files before it recurses into its subfolders, each
// lexicographically sorted by name.
func (o *Orchestrator) walkRemote(ctx context.Context, node model.Node, opts Options, relDir, destName string, tasks *[]*model.Task) error {
	if node.IsFile() {
		relPath := path.Join(relDir, destName)
		if !opts.Filters.Match(relPath) {
			return nil
		}
		*tasks = append(*tasks, &model.Task{
			LocalPath:        path.Join(opts.Target, relPath),
			RemotePath:       remoteDisplayPath(relDir, destName),
			Status:           model.TaskPending,
			LastChunk:        -1,
			RemoteID:         node.ID,
			ParentID:         node.ParentID,
			ContentKeyHex:    hex.EncodeToString(node.ContentKey),
			Size:             node.Size,
			ChunkCount:       node.ChunkCount,
			HashHex:          node.HashHex,
			RemoteModifiedMs: node.ModifiedMs,
		})
		return nil
	}

	children, err := o.resolver.List(ctx, node.ID)
	if err != nil {
		return err
	}
	var files, folders []model.Node
	for _, c := range children {
		if c.Trashed {
			continue
		}
		if c.IsFolder() {
			folders = append(folders, c)
		} else {
			files = append(files, c)
		}
	}
	sortNodesByName(files)
	sortNodesByName(folders)

	childRel := path.Join(relDir, destName)
	for _, f := range files {
		if err := o.walkRemote(ctx, f, opts, childRel, f.Name, tasks); err != nil {
			return err
		}
	}
	for _, d := range folders {
		if err := o.walkRemote(ctx, d, opts, childRel, d.Name, tasks); err != nil {
			return err
		}
	}
	return nil
}

func sortNodesByName(nodes []model.Node) {
	for i := 1; i < len(nodes); i++ {
		for j := i; j > 0 && nodes[j-1].Name > nodes[j].Name; j-- {
			nodes[j-1], nodes[j] = nodes[j], nodes[j-1]
		}
	}
}

func remoteDisplayPath(relDir, name string) string {
	if relDir == "" {
		return "/" + name
	}
	return "/" + path.Join(relDir, name)
}
