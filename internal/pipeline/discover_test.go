package pipeline_test

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"webmill/internal/media"
	"webmill/internal/pipeline"
	"webmill/internal/services"
	"webmill/internal/testsupport"
)

func TestDiscoverClassifiesAndSorts(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(root, "b.mp4"), 10)
	testsupport.WriteFile(t, filepath.Join(root, "a", "inner.png"), 10)
	testsupport.WriteFile(t, filepath.Join(root, "a", "notes.txt"), 10)
	testsupport.WriteFile(t, filepath.Join(root, "z.GIF"), 10)

	files, err := pipeline.Discover(root)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if len(files) != 4 {
		t.Fatalf("expected 4 files, got %d", len(files))
	}

	wantOrder := []string{
		filepath.Join("a", "inner.png"),
		filepath.Join("a", "notes.txt"),
		"b.mp4",
		"z.GIF",
	}
	wantKinds := []media.Kind{media.KindImage, media.KindUnsupported, media.KindVideo, media.KindImage}
	for i, file := range files {
		if file.RelPath != wantOrder[i] {
			t.Fatalf("position %d: got %q, want %q", i, file.RelPath, wantOrder[i])
		}
		if file.Kind != wantKinds[i] {
			t.Fatalf("%s: kind = %s, want %s", file.RelPath, file.Kind, wantKinds[i])
		}
		if !filepath.IsAbs(file.Path) {
			t.Fatalf("%s: expected absolute source path, got %q", file.RelPath, file.Path)
		}
	}
}

func TestDiscoverMissingRootIsFatal(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "_original")

	files, err := pipeline.Discover(missing)
	if err == nil {
		t.Fatal("expected error for missing source root")
	}
	if files != nil {
		t.Fatalf("expected nil files, got %d entries", len(files))
	}
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if !services.Fatal(err) {
		t.Fatalf("missing source root should be fatal, got %v", err)
	}
}

func TestDiscoverRejectsFileAsRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "notadir")
	testsupport.WriteFile(t, root, 4)

	if _, err := pipeline.Discover(root); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for non-directory root, got %v", err)
	}
}

func TestDiscoverEmptyRoot(t *testing.T) {
	files, err := pipeline.Discover(t.TempDir())
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if len(files) != 0 {
		t.Fatalf("expected no files, got %d", len(files))
	}
}

func TestDiscoverSkipsNonRegularFiles(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink creation requires privileges on Windows")
	}

	root := t.TempDir()
	target := filepath.Join(root, "real.mp4")
	testsupport.WriteFile(t, target, 10)
	if err := os.Symlink(target, filepath.Join(root, "alias.mp4")); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	files, err := pipeline.Discover(root)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if len(files) != 1 || files[0].RelPath != "real.mp4" {
		t.Fatalf("expected only the regular file, got %#v", files)
	}
}
