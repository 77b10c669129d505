package pipeline

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"webmill/internal/media"
	"webmill/internal/services"
)

// Discover walks sourceRoot and returns every regular file beneath it,
// classified by extension and sorted lexicographically by relative path
// so repeated runs process files in a deterministic order.
//
// A missing or unreadable source root is the one fatal precondition of a
// run and is reported with services.ErrNotFound.
func Discover(sourceRoot string) ([]media.SourceFile, error) {
	info, err := os.Stat(sourceRoot)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, "pipeline", "discover",
				fmt.Sprintf("source directory %s does not exist", sourceRoot), err)
		}
		return nil, services.Wrap(services.ErrNotFound, "pipeline", "discover",
			fmt.Sprintf("source directory %s is not accessible", sourceRoot), err)
	}
	if !info.IsDir() {
		return nil, services.Wrap(services.ErrNotFound, "pipeline", "discover",
			fmt.Sprintf("source path %s is not a directory", sourceRoot), nil)
	}

	var files []media.SourceFile
	walkErr := filepath.WalkDir(sourceRoot, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() || !entry.Type().IsRegular() {
			return nil
		}
		rel, relErr := filepath.Rel(sourceRoot, path)
		if relErr != nil {
			return relErr
		}
		files = append(files, media.SourceFile{
			Path:    path,
			RelPath: rel,
			Kind:    media.Classify(path),
		})
		return nil
	})
	if walkErr != nil {
		return nil, services.Wrap(services.ErrNotFound, "pipeline", "discover",
			fmt.Sprintf("walk source directory %s", sourceRoot), walkErr)
	}

	// WalkDir yields lexical order within each directory, but nested
	// entries interleave differently from a flat comparison of relative
	// paths. Sorting here pins the order the report and the run follow.
	sort.Slice(files, func(i, j int) bool {
		return files[i].RelPath < files[j].RelPath
	})
	return files, nil
}
