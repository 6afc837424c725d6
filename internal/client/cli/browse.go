package cli

import (
	"context"
	"flag"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/halvardk/vaultctl/internal/common"
	"github.com/halvardk/vaultctl/internal/model"
)

// Ls lists the children of a remote folder (§6 "ls"), surfacing duplicate
// same-named siblings per §4.3's diagnostic contract when -l is given.
func (a *App) Ls(ctx context.Context, args []string) error {
	if err := a.ensureSession(ctx); err != nil {
		return err
	}

	fs := flag.NewFlagSet("ls", flag.ContinueOnError)
	long := fs.Bool("l", false, "show identifiers and duplicate diagnostics")
	if err := fs.Parse(args); err != nil {
		return common.New(common.KindFatal, err)
	}
	if fs.NArg() < 1 {
		return common.Newf(common.KindFatal, "usage: ls [-l] <path>")
	}

	p, err := model.ParsePath(fs.Arg(0))
	if err != nil {
		return err
	}
	resolved, err := a.resolver.Resolve(ctx, p)
	if err != nil {
		return err
	}
	if !resolved.Node.IsFolder() {
		printNode(resolved.Node, *long)
		return nil
	}

	children, err := a.resolver.List(ctx, resolved.Node.ID)
	if err != nil {
		return err
	}
	for _, c := range children {
		printNode(c, *long)
	}
	if *long {
		printDuplicateGroups(children)
	}
	return nil
}

func printNode(n model.Node, long bool) {
	if long {
		fmt.Printf("%-8s %-20s %10d  %s\n", n.Kind, n.ID, n.Size, n.Name)
		return
	}
	fmt.Println(n.Name)
}

// printDuplicateGroups flags any same-named siblings so `ls -l` surfaces
// the ambiguity a strict resolve would refuse (§4.3).
func printDuplicateGroups(children []model.Node) {
	byName := map[string]int{}
	for _, c := range children {
		byName[c.Name]++
	}
	for name, count := range byName {
		if count > 1 {
			fmt.Printf("# %q is ambiguous: %d matching nodes\n", name, count)
		}
	}
}

// Tree recursively lists a folder's subtree (§6 "tree"), honoring
// --maxdepth (0 means just the folder itself, a negative or absent value
// means unbounded).
func (a *App) Tree(ctx context.Context, args []string) error {
	if err := a.ensureSession(ctx); err != nil {
		return err
	}

	fs := flag.NewFlagSet("tree", flag.ContinueOnError)
	maxDepth := fs.Int("maxdepth", -1, "maximum recursion depth (-1 = unbounded)")
	uuids := fs.Bool("uuids", false, "show identifiers alongside names")
	if err := fs.Parse(args); err != nil {
		return common.New(common.KindFatal, err)
	}
	root := "/"
	if fs.NArg() >= 1 {
		root = fs.Arg(0)
	}
	p, err := model.ParsePath(root)
	if err != nil {
		return err
	}
	resolved, err := a.resolver.Resolve(ctx, p)
	if err != nil {
		return err
	}

	fmt.Println(p.String())
	return a.printTree(ctx, resolved.Node, 0, *maxDepth, *uuids)
}

func (a *App) printTree(ctx context.Context, n model.Node, depth, maxDepth int, uuids bool) error {
	if !n.IsFolder() {
		return nil
	}
	if maxDepth >= 0 && depth >= maxDepth {
		return nil
	}
	children, err := a.resolver.List(ctx, n.ID)
	if err != nil {
		return err
	}
	for _, c := range children {
		indent := strings.Repeat("  ", depth+1)
		if uuids {
			fmt.Printf("%s%s (%s)\n", indent, c.Name, c.ID)
		} else {
			fmt.Printf("%s%s\n", indent, c.Name)
		}
		if c.IsFolder() {
			if err := a.printTree(ctx, c, depth+1, maxDepth, uuids); err != nil {
				return err
			}
		}
	}
	return nil
}

// Find searches a subtree for nodes whose name matches a glob pattern
// (§6 "find"), printing each match's full path.
func (a *App) Find(ctx context.Context, args []string) error {
	if err := a.ensureSession(ctx); err != nil {
		return err
	}

	fs := flag.NewFlagSet("find", flag.ContinueOnError)
	maxDepth := fs.Int("maxdepth", -1, "maximum recursion depth (-1 = unbounded)")
	if err := fs.Parse(args); err != nil {
		return common.New(common.KindFatal, err)
	}
	if fs.NArg() < 2 {
		return common.Newf(common.KindFatal, "usage: find [--maxdepth n] <path> <pattern>")
	}
	root, pattern := fs.Arg(0), fs.Arg(1)

	p, err := model.ParsePath(root)
	if err != nil {
		return err
	}
	resolved, err := a.resolver.Resolve(ctx, p)
	if err != nil {
		return err
	}
	return a.findRec(ctx, resolved.Node, p.String(), pattern, 0, *maxDepth)
}

func (a *App) findRec(ctx context.Context, n model.Node, nodePath, pattern string, depth, maxDepth int) error {
	if !n.IsFolder() {
		return nil
	}
	if maxDepth >= 0 && depth >= maxDepth {
		return nil
	}
	children, err := a.resolver.List(ctx, n.ID)
	if err != nil {
		return err
	}
	for _, c := range children {
		childPath := strings.TrimRight(nodePath, "/") + "/" + c.Name
		if ok, _ := filepath.Match(pattern, c.Name); ok {
			fmt.Println(childPath)
		}
		if c.IsFolder() {
			if err := a.findRec(ctx, c, childPath, pattern, depth+1, maxDepth); err != nil {
				return err
			}
		}
	}
	return nil
}

// ResolvePath resolves a path to its backend identifier (§6 "resolve"),
// refusing an ambiguous match unless the caller accepts duplicates.
func (a *App) ResolvePath(ctx context.Context, args []string) error {
	if err := a.ensureSession(ctx); err != nil {
		return err
	}

	fs := flag.NewFlagSet("resolve", flag.ContinueOnError)
	strict := fs.Bool("strict", false, "fail with ambiguous instead of picking a node")
	if err := fs.Parse(args); err != nil {
		return common.New(common.KindFatal, err)
	}
	if fs.NArg() < 1 {
		return common.Newf(common.KindFatal, "usage: resolve [-strict] <path>")
	}

	p, err := model.ParsePath(fs.Arg(0))
	if err != nil {
		return err
	}
	if *strict {
		node, err := a.resolver.ResolveStrict(ctx, p)
		if err != nil {
			return err
		}
		fmt.Printf("%s\t%s\t%s\n", node.ID, node.Kind, p.String())
		return nil
	}

	resolved, err := a.resolver.Resolve(ctx, p)
	if err != nil {
		return err
	}
	fmt.Printf("%s\t%s\t%s\n", resolved.Node.ID, resolved.Node.Kind, p.String())
	if len(resolved.Duplicates) > 0 {
		fmt.Printf("# %d other node(s) share this name; use -strict to refuse the match\n", len(resolved.Duplicates))
	}
	return nil
}

// Mkdir creates path and any missing intermediate segments (§4.3
// ensure_folder, §6 "mkdir").
func (a *App) Mkdir(ctx context.Context, args []string) error {
	if err := a.ensureSession(ctx); err != nil {
		return err
	}
	if len(args) < 1 {
		return common.Newf(common.KindFatal, "usage: mkdir <path>")
	}
	p, err := model.ParsePath(args[0])
	if err != nil {
		return err
	}
	node, err := a.resolver.EnsureFolder(ctx, p)
	if err != nil {
		return err
	}
	fmt.Printf("created %s (%s)\n", p.String(), node.ID)
	return nil
}
