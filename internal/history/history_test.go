package history_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"webmill/internal/history"
	"webmill/internal/testsupport"
)

func sampleRun(id string, started time.Time) history.Run {
	return history.Run{
		ID:            id,
		StartedAt:     started,
		FinishedAt:    started.Add(90 * time.Second),
		SourceRoot:    "/media/_original",
		OutputRoot:    "/media/_converted",
		Encoder:       "libx264",
		EncoderSource: "fallback",
		Total:         3,
		Succeeded:     2,
		Skipped:       0,
		Failed:        1,
	}
}

func TestRecordRunRoundTrips(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	started := time.Date(2026, 3, 14, 9, 26, 53, 589793000, time.UTC)
	run := sampleRun("run-1", started)
	files := []history.RunFile{
		{
			RunID:       run.ID,
			RelPath:     "clips/beach.avi",
			Kind:        "video",
			Outcome:     "success",
			OutputPath:  "/media/_converted/clips/beach.mp4",
			SourceBytes: 4096,
			OutputBytes: 2048,
			Duration:    1500 * time.Millisecond,
		},
		{
			RunID:   run.ID,
			RelPath: "notes.txt",
			Kind:    "unsupported",
			Outcome: "skipped",
			Detail:  "unsupported extension",
		},
	}
	if err := store.RecordRun(ctx, run, files); err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}

	fetched, err := store.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if fetched == nil {
		t.Fatal("expected stored run")
	}
	if !fetched.StartedAt.Equal(started) {
		t.Fatalf("StartedAt = %v, want %v", fetched.StartedAt, started)
	}
	if fetched.Encoder != "libx264" || fetched.EncoderSource != "fallback" {
		t.Fatalf("unexpected encoder fields: %#v", fetched)
	}
	if fetched.Total != 3 || fetched.Succeeded != 2 || fetched.Failed != 1 {
		t.Fatalf("unexpected counters: %#v", fetched)
	}

	stored, err := store.ListRunFiles(ctx, "run-1")
	if err != nil {
		t.Fatalf("ListRunFiles failed: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("expected 2 run files, got %d", len(stored))
	}
	if stored[0].RelPath != "clips/beach.avi" {
		t.Fatalf("expected rel_path ordering, got %q first", stored[0].RelPath)
	}
	if stored[0].Duration != 1500*time.Millisecond {
		t.Fatalf("Duration = %v, want 1.5s", stored[0].Duration)
	}
	if stored[1].Outcome != "skipped" || stored[1].Detail != "unsupported extension" {
		t.Fatalf("unexpected skipped row: %#v", stored[1])
	}
	if stored[1].OutputPath != "" {
		t.Fatalf("skipped row should have no output path, got %q", stored[1].OutputPath)
	}
}

func TestRecordRunRequiresID(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	if err := store.RecordRun(context.Background(), history.Run{}, nil); err == nil {
		t.Fatal("expected error for empty run id")
	}
}

func TestGetRunMissingReturnsNil(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	run, err := store.GetRun(context.Background(), "absent")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if run != nil {
		t.Fatalf("expected nil for missing run, got %#v", run)
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	base := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		run := sampleRun(fmt.Sprintf("run-%d", i), base.Add(time.Duration(i)*time.Minute))
		if err := store.RecordRun(ctx, run, nil); err != nil {
			t.Fatalf("RecordRun %d failed: %v", i, err)
		}
	}

	runs, err := store.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != "run-2" || runs[1].ID != "run-1" {
		t.Fatalf("unexpected order: %s, %s", runs[0].ID, runs[1].ID)
	}

	latest, err := store.LatestRun(ctx)
	if err != nil {
		t.Fatalf("LatestRun failed: %v", err)
	}
	if latest == nil || latest.ID != "run-2" {
		t.Fatalf("unexpected latest run: %#v", latest)
	}
}

func TestPruneCascadesToRunFiles(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	base := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		id := fmt.Sprintf("run-%d", i)
		run := sampleRun(id, base.Add(time.Duration(i)*time.Minute))
		files := []history.RunFile{{RunID: id, RelPath: "a.mov", Kind: "video", Outcome: "success"}}
		if err := store.RecordRun(ctx, run, files); err != nil {
			t.Fatalf("RecordRun %d failed: %v", i, err)
		}
	}

	removed, err := store.Prune(ctx, 1)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 pruned runs, got %d", removed)
	}

	runs, err := store.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != "run-2" {
		t.Fatalf("expected only run-2 to survive, got %#v", runs)
	}

	orphaned, err := store.ListRunFiles(ctx, "run-0")
	if err != nil {
		t.Fatalf("ListRunFiles failed: %v", err)
	}
	if len(orphaned) != 0 {
		t.Fatalf("expected cascade delete of run files, got %d rows", len(orphaned))
	}
}

func TestReopenExistingDatabase(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	first, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("first Open failed: %v", err)
	}
	run := sampleRun("run-1", time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC))
	if err := first.RecordRun(context.Background(), run, nil); err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	second, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	defer second.Close()

	fetched, err := second.GetRun(context.Background(), "run-1")
	if err != nil {
		t.Fatalf("GetRun after reopen failed: %v", err)
	}
	if fetched == nil {
		t.Fatal("expected run to survive reopen")
	}
}
