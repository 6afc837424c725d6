package batch

import (
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/halvardk/vaultctl/internal/common"
)

// LocalFile is one regular file discovered under a walked local root,
// identified by its slash-separated path relative to that root.
type LocalFile struct {
	AbsPath string
	RelPath string
	Size    int64
	ModTime int64 // milliseconds since epoch
}

// WalkLocal enumerates every regular file under root in the traversal
// order required by §4.5 step 3: lexicographic per directory, with a
// directory's own files listed before it recurses into that directory's
// subdirectories.
func WalkLocal(root string) ([]LocalFile, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, common.New(common.KindIO, err)
	}
	if !info.IsDir() {
		return []LocalFile{{AbsPath: root, RelPath: filepath.Base(root), Size: info.Size(), ModTime: info.ModTime().UnixMilli()}}, nil
	}

	var out []LocalFile
	if err := walkDir(root, "", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func walkDir(absDir, relDir string, out *[]LocalFile) error {
	entries, err := os.ReadDir(absDir)
	if err != nil {
		return common.New(common.KindIO, err)
	}

	var files, dirs []os.DirEntry
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e)
		} else {
			files = append(files, e)
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name() < files[j].Name() })
	sort.Slice(dirs, func(i, j int) bool { return dirs[i].Name() < dirs[j].Name() })

	for _, f := range files {
		info, err := f.Info()
		if err != nil {
			return common.New(common.KindIO, err)
		}
		*out = append(*out, LocalFile{
			AbsPath: filepath.Join(absDir, f.Name()),
			RelPath: path.Join(relDir, f.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime().UnixMilli(),
		})
	}

	for _, d := range dirs {
		if err := walkDir(filepath.Join(absDir, d.Name()), path.Join(relDir, d.Name()), out); err != nil {
			return err
		}
	}
	return nil
}
