package namecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/longbridgeapp/opencc"
	"golang.org/x/text/unicode/norm"

	"webmill/internal/logging"
)

// Converter rewrites Simplified Chinese file and directory names into
// Traditional Chinese using the OpenCC s2tw tables.
type Converter struct {
	cc     *opencc.OpenCC
	logger *slog.Logger
}

// New loads the s2tw conversion dictionaries.
func New(logger *slog.Logger) (*Converter, error) {
	cc, err := opencc.New("s2tw")
	if err != nil {
		return nil, fmt.Errorf("load s2tw dictionaries: %w", err)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Converter{
		cc:     cc,
		logger: logging.NewComponentLogger(logger, "namecase"),
	}, nil
}

// Convert normalizes a name to NFC and maps it to Traditional Chinese.
// Decomposed code points would otherwise slip past the dictionary lookup.
func (c *Converter) Convert(name string) (string, error) {
	return c.cc.Convert(norm.NFC.String(name))
}

// ConvertTree renames every entry under root whose converted name
// differs, children before parents so directory renames never invalidate
// paths still waiting to be processed. The root itself is left alone.
// Entries that fail, including ones whose target name is already taken,
// are collected and reported together after the rest of the tree has
// been handled.
func (c *Converter) ConvertTree(ctx context.Context, root string) error {
	var entryErrs []error
	if err := c.convertChildren(ctx, root, &entryErrs); err != nil {
		return err
	}
	return errors.Join(entryErrs...)
}

func (c *Converter) convertChildren(ctx context.Context, dir string, entryErrs *[]error) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		*entryErrs = append(*entryErrs, fmt.Errorf("read %s: %w", dir, err))
		return nil
	}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			if err := c.convertChildren(ctx, path, entryErrs); err != nil {
				return err
			}
		}
		if err := c.convertEntry(path); err != nil {
			*entryErrs = append(*entryErrs, err)
		}
	}
	return nil
}

func (c *Converter) convertEntry(path string) error {
	name := filepath.Base(path)
	converted, err := c.Convert(name)
	if err != nil {
		return fmt.Errorf("convert %q: %w", name, err)
	}
	if converted == name {
		return nil
	}

	target := filepath.Join(filepath.Dir(path), converted)
	if _, err := os.Lstat(target); err == nil {
		return fmt.Errorf("rename %q: target %q already exists", name, converted)
	}
	if err := os.Rename(path, target); err != nil {
		return fmt.Errorf("rename %q: %w", name, err)
	}
	c.logger.Debug("converted name",
		logging.String("from", name),
		logging.String("to", converted))
	return nil
}
