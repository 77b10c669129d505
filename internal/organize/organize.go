package organize

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"webmill/internal/fileutil"
	"webmill/internal/logging"
)

// Organizer rearranges a converted tree: strays removed, videos and
// pictures split into V and P folders, files renumbered into padded
// sequences, empty directories cleared.
type Organizer struct {
	root   string
	logger *slog.Logger
}

// New builds an organizer rooted at the converted output tree.
func New(root string, logger *slog.Logger) *Organizer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Organizer{
		root:   root,
		logger: logging.NewComponentLogger(logger, "organize"),
	}
}

// Organize splits every directory's files into V (videos) and P
// (pictures) subfolders, level by level from the root down. Files that
// are neither .mp4 nor .jpg are removed first, and survivors get unique
// temporary names so the later moves and renames cannot collide with
// leftovers of a previous pass.
func (o *Organizer) Organize(ctx context.Context) error {
	if err := o.sweepStrays(ctx); err != nil {
		return err
	}
	if err := o.ClearEmptyDirs(ctx); err != nil {
		return err
	}

	level := []string{o.root}
	for len(level) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		var next []string
		for _, dir := range level {
			base := filepath.Base(dir)
			if base == "V" || base == "P" {
				continue
			}

			entries, err := os.ReadDir(dir)
			if err != nil {
				return fmt.Errorf("read %s: %w", dir, err)
			}

			if !exists(filepath.Join(dir, "V")) && !exists(filepath.Join(dir, "P")) {
				if err := o.splitIntoFolders(dir, entries); err != nil {
					return err
				}
			}

			for _, entry := range entries {
				if entry.IsDir() && entry.Name() != "V" && entry.Name() != "P" {
					next = append(next, filepath.Join(dir, entry.Name()))
				}
			}
		}
		level = next
	}
	return nil
}

// sweepStrays removes files that are not converted outputs and renames
// the rest to unique temporary names.
func (o *Organizer) sweepStrays(ctx context.Context) error {
	files, err := listFiles(o.root)
	if err != nil {
		return err
	}

	counter := 0
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".mp4" && ext != ".jpg" {
			if err := os.Remove(path); err != nil {
				return fmt.Errorf("remove stray %s: %w", path, err)
			}
			o.logger.Debug("removed stray file", logging.String(logging.FieldFile, path))
			continue
		}

		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		tempName := fmt.Sprintf("%s_temp%d%s", stem, counter, ext)
		counter++
		if err := os.Rename(path, filepath.Join(filepath.Dir(path), tempName)); err != nil {
			return fmt.Errorf("stage %s: %w", path, err)
		}
	}
	return nil
}

func (o *Organizer) splitIntoFolders(dir string, entries []os.DirEntry) error {
	var toMove []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext == ".mp4" || ext == ".jpg" {
			toMove = append(toMove, entry.Name())
		}
	}
	if len(toMove) == 0 {
		return nil
	}

	videoDir := filepath.Join(dir, "V")
	pictureDir := filepath.Join(dir, "P")
	for _, folder := range []string{videoDir, pictureDir} {
		if err := os.MkdirAll(folder, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", folder, err)
		}
	}

	for _, name := range toMove {
		target := pictureDir
		if strings.ToLower(filepath.Ext(name)) == ".mp4" {
			target = videoDir
		}
		if err := fileutil.MoveFile(filepath.Join(dir, name), filepath.Join(target, name)); err != nil {
			return fmt.Errorf("move %s: %w", name, err)
		}
	}
	return nil
}

// Rename renumbers every folder's files into a padded sequence: V(01).mp4
// inside V folders, P(01).jpg inside P folders, preview(01).<ext> anywhere
// else. The width of the number grows with the file count of the folder.
// Renames go through temporary names first so a target name that already
// exists is never overwritten mid-sequence.
func (o *Organizer) Rename(ctx context.Context) error {
	queue := []string{o.root}
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		dir := queue[0]
		queue = queue[1:]

		entries, err := os.ReadDir(dir)
		if err != nil {
			return fmt.Errorf("read %s: %w", dir, err)
		}

		var files []string
		for _, entry := range entries {
			if entry.IsDir() {
				queue = append(queue, filepath.Join(dir, entry.Name()))
				continue
			}
			files = append(files, entry.Name())
		}
		if len(files) == 0 {
			continue
		}

		if err := renameSequence(dir, files); err != nil {
			return err
		}
	}
	return nil
}

func renameSequence(dir string, files []string) error {
	width := len(strconv.Itoa(len(files)))
	base := filepath.Base(dir)

	targets := make([]string, len(files))
	for i, name := range files {
		number := fmt.Sprintf("%0*d", width, i+1)
		switch base {
		case "P":
			targets[i] = fmt.Sprintf("P(%s).jpg", number)
		case "V":
			targets[i] = fmt.Sprintf("V(%s).mp4", number)
		default:
			targets[i] = fmt.Sprintf("preview(%s)%s", number, strings.ToLower(filepath.Ext(name)))
		}
	}

	// Two phases: park every file under a unique temp name, then claim
	// the final names. A file already carrying its target name would
	// otherwise be clobbered by a sibling renamed over it.
	parked := make([]string, len(files))
	for i, name := range files {
		temp, err := fileutil.TempSibling(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("park %s: %w", name, err)
		}
		if err := os.Rename(filepath.Join(dir, name), temp); err != nil {
			return fmt.Errorf("park %s: %w", name, err)
		}
		parked[i] = temp
	}
	for i := range files {
		if err := os.Rename(parked[i], filepath.Join(dir, targets[i])); err != nil {
			return fmt.Errorf("rename to %s: %w", targets[i], err)
		}
	}
	return nil
}

// ClearEmptyDirs removes empty directories beneath the root, deepest
// first so freshly emptied parents are caught in the same pass. The root
// itself is never removed.
func (o *Organizer) ClearEmptyDirs(ctx context.Context) error {
	var dirs []string
	err := filepath.WalkDir(o.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() && path != o.root {
			dirs = append(dirs, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("walk %s: %w", o.root, err)
	}

	sort.Sort(sort.Reverse(sort.StringSlice(dirs)))
	for _, dir := range dirs {
		if err := ctx.Err(); err != nil {
			return err
		}
		entries, readErr := os.ReadDir(dir)
		if readErr != nil || len(entries) > 0 {
			continue
		}
		if err := os.Remove(dir); err != nil {
			o.logger.Warn("remove empty directory", logging.String("dir", dir), logging.Error(err))
			continue
		}
		o.logger.Debug("removed empty directory", logging.String("dir", dir))
	}
	return nil
}

func listFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
