package main

import (
	"context"
	"strings"
	"testing"
	"time"

	"webmill/internal/config"
	"webmill/internal/history"
)

func seedHistoryRun(t *testing.T, configPath, runID string, startOffset time.Duration) {
	t.Helper()
	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	defer store.Close()

	started := time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC).Add(startOffset)
	run := history.Run{
		ID:            runID,
		StartedAt:     started,
		FinishedAt:    started.Add(90 * time.Second),
		SourceRoot:    "/media/_original",
		OutputRoot:    "/media/_converted",
		Encoder:       "libx264",
		EncoderSource: "fallback",
		Total:         2,
		Succeeded:     1,
		Skipped:       0,
		Failed:        1,
	}
	files := []history.RunFile{
		{RunID: runID, RelPath: "album/clip.mp4", Kind: "video", Outcome: "success", OutputPath: "/media/_converted/album/clip.mp4"},
		{RunID: runID, RelPath: "album/broken.avi", Kind: "video", Outcome: "failed", Detail: "ffmpeg failed"},
	}
	if err := store.RecordRun(context.Background(), run, files); err != nil {
		t.Fatalf("record run: %v", err)
	}
}

func TestCLIHistoryListAndShow(t *testing.T) {
	env := setupCLITestEnv(t)
	seedHistoryRun(t, env.configPath, "run-cli-1", 0)

	out, _, err := runCLI(t, []string{"history", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	requireContains(t, out, "run-cli-1")
	requireContains(t, out, "1m30s")

	out, _, err = runCLI(t, []string{"history", "show", "run-cli-1"}, env.configPath)
	if err != nil {
		t.Fatalf("history show: %v", err)
	}
	requireContains(t, out, "album/clip.mp4")
	requireContains(t, out, "album/broken.avi")
	requireContains(t, out, "ffmpeg failed")
	requireContains(t, out, "libx264 (fallback)")

	out, _, err = runCLI(t, []string{"history", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("history show latest: %v", err)
	}
	requireContains(t, out, "Run run-cli-1")
}

func TestCLIHistoryShowMissingRun(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"history", "show", "no-such-run"}, env.configPath)
	if err == nil {
		t.Fatal("expected unknown run id to fail")
	}
	requireContains(t, err.Error(), "not found")
}

func TestCLIHistoryPrune(t *testing.T) {
	env := setupCLITestEnv(t)
	seedHistoryRun(t, env.configPath, "run-old", 0)
	seedHistoryRun(t, env.configPath, "run-new", time.Hour)

	out, _, err := runCLI(t, []string{"history", "prune", "--keep", "1"}, env.configPath)
	if err != nil {
		t.Fatalf("history prune: %v", err)
	}
	requireContains(t, out, "Pruned 1 runs")

	out, _, err = runCLI(t, []string{"history", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("history list after prune: %v", err)
	}
	requireContains(t, out, "run-new")
	if strings.Contains(out, "run-old") {
		t.Fatalf("expected run-old to be pruned, got:\n%s", out)
	}
}
