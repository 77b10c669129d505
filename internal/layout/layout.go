package layout

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Mirror maps a source file into the output tree. The path relative to
// sourceRoot is preserved exactly and the final extension is replaced with
// newExt, so "clips/a.png" becomes "<outputRoot>/clips/a.jpg". Paths outside
// sourceRoot are rejected.
func Mirror(sourceRoot, outputRoot, sourcePath, newExt string) (string, error) {
	rel, err := filepath.Rel(sourceRoot, sourcePath)
	if err != nil {
		return "", fmt.Errorf("relativize %q against %q: %w", sourcePath, sourceRoot, err)
	}
	if rel == "." {
		return "", fmt.Errorf("%q is the source root, not a file inside it", sourcePath)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%q is not inside source root %q", sourcePath, sourceRoot)
	}

	ext := filepath.Ext(rel)
	rel = strings.TrimSuffix(rel, ext) + newExt
	return filepath.Join(outputRoot, rel), nil
}

// EnsureParent creates the parent directory of path. MkdirAll tolerates
// pre-existing directories, so concurrent callers sharing a parent are safe.
func EnsureParent(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}
