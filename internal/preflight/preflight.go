package preflight

import (
	"context"

	"webmill/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every preflight check for the given config. The checks
// are advisory: the runner enforces the one fatal precondition (a present
// source directory) itself, so callers surface failures here as warnings
// or as doctor output rather than aborting on them.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckSourceDir(cfg.Paths.SourceDir),
		CheckOutputTarget(cfg.Paths.OutputDir),
		CheckFreeSpace(cfg.Paths.OutputDir),
	}
	for _, status := range CheckSystemDeps(ctx, cfg) {
		result := Result{Name: status.Name, Passed: status.Available}
		switch {
		case status.Available && status.Version != "":
			result.Detail = status.Version
		case status.Available:
			result.Detail = status.Command
		default:
			result.Detail = status.Detail
		}
		results = append(results, result)
	}
	return results
}
