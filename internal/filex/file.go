package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureSubdDir resolves dirName relative to the current working directory
// and creates it (and any missing parents) if absent, returning the
// absolute path. Used for the default "./download" staging directory a
// download batch targets when the caller supplies no explicit -t (§6).
func EnsureSubdDir(dirName string) (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getwd: %w", err)
	}

	dir := filepath.Join(cwd, dirName)
	if err := ensureDir(dir); err != nil {
		return "", err
	}
	return dir, nil
}

// EnsureParentDir creates the parent directory of path, if missing. The
// batch orchestrator's enumerate step creates no local folders; a
// recursively downloaded file whose remote parent folder has no local
// counterpart yet still needs somewhere to land, so the transfer engine
// calls this immediately before opening its destination file.
func EnsureParentDir(path string) error {
	return ensureDir(filepath.Dir(path))
}

// ensureDir creates dir (and parents) if it doesn't exist, and reports a
// descriptive error if the path exists but is not a directory rather than
// letting a later os.OpenFile fail with an opaque ENOTDIR.
func ensureDir(dir string) error {
	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return fmt.Errorf("ensure dir %s: exists and is not a directory", dir)
		}
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat %s: %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0o770); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return nil
}
