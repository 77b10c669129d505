package preflight

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"webmill/internal/config"
	"webmill/internal/deps"
)

// minFreeBytes is the floor below which the free-space check fails.
const minFreeBytes = 1 << 30

// CheckSourceDir verifies the source tree exists and can be walked.
func CheckSourceDir(path string) Result {
	const name = "Source directory"

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (readable)", path)}
}

// CheckOutputTarget verifies the output tree is writable, or can be
// created when it does not exist yet.
func CheckOutputTarget(path string) Result {
	const name = "Output directory"

	info, err := os.Stat(path)
	switch {
	case err == nil:
		if !info.IsDir() {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
		}
		if accessErr := unix.Access(path, unix.W_OK|unix.X_OK); accessErr != nil {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: not writable: %v)", path, accessErr)}
		}
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (writable)", path)}
	case os.IsNotExist(err):
		parent := nearestExisting(path)
		if accessErr := unix.Access(parent, unix.W_OK|unix.X_OK); accessErr != nil {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: cannot create under %s: %v)", path, parent, accessErr)}
		}
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (will be created)", path)}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
}

// CheckFreeSpace reports the free space on the filesystem that will hold
// the converted tree and fails under one GiB.
func CheckFreeSpace(path string) Result {
	const name = "Free space"

	var stat unix.Statfs_t
	probe := nearestExisting(path)
	if err := unix.Statfs(probe, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("statfs %s: %v", probe, err)}
	}

	free := stat.Bavail * uint64(stat.Bsize)
	detail := fmt.Sprintf("%.1f GiB free on %s", float64(free)/(1<<30), probe)
	if free < minFreeBytes {
		return Result{Name: name, Detail: "low disk space: " + detail}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckSystemDeps evaluates the converter binaries the pipeline shells
// out to. Both the run command and doctor use this list.
func CheckSystemDeps(_ context.Context, cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.Pipeline.FFmpegBinary,
			Description: "Required for video conversion",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.Pipeline.FFprobeBinary,
			Description: "Required for media inspection",
		},
	}
	return deps.CheckBinaries(requirements)
}

// nearestExisting walks up from path until it finds a directory that
// exists, so checks against not-yet-created output trees land on the
// filesystem they would be created on.
func nearestExisting(path string) string {
	for current := path; ; {
		if info, err := os.Stat(current); err == nil && info.IsDir() {
			return current
		}
		parent := filepath.Dir(current)
		if parent == current {
			return current
		}
		current = parent
	}
}
