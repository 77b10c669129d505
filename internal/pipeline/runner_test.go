package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"webmill/internal/config"
	"webmill/internal/encoderpick"
	"webmill/internal/media"
	"webmill/internal/services"
	"webmill/internal/testsupport"
	"webmill/internal/transcode"
)

// stubTranscoder stands in for both converters: it records which files it
// saw and writes a marker output unless told to fail.
type stubTranscoder struct {
	mu      sync.Mutex
	calls   []string
	fail    map[string]error
	onFirst func()
}

func (s *stubTranscoder) Transcode(ctx context.Context, task media.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.calls = append(s.calls, task.Source.RelPath)
	first := len(s.calls) == 1
	s.mu.Unlock()

	if first && s.onFirst != nil {
		s.onFirst()
	}
	if err := s.fail[task.Source.RelPath]; err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(task.OutputPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(task.OutputPath, []byte("converted"), 0o644)
}

func (s *stubTranscoder) seen() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// captureNotifier records notification calls without touching the network.
type captureNotifier struct {
	mu        sync.Mutex
	started   []int
	completed [][3]int
	failed    []string
}

func (c *captureNotifier) NotifyRunStarted(_ context.Context, count int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.started = append(c.started, count)
	return nil
}

func (c *captureNotifier) NotifyRunCompleted(_ context.Context, succeeded, skipped, failed int, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.completed = append(c.completed, [3]int{succeeded, skipped, failed})
	return nil
}

func (c *captureNotifier) NotifyRunFailed(_ context.Context, err error, contextLabel string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failed = append(c.failed, contextLabel)
	return nil
}

func (c *captureNotifier) TestNotification(context.Context) error { return nil }

// stubConverters reroutes the runner hooks so no external binaries run.
func stubConverters(t *testing.T, stub *stubTranscoder) {
	t.Helper()

	origPick := pickEncoder
	origVideo := newVideoTranscoder
	origImage := newImageTranscoder
	pickEncoder = func(context.Context, string, string) encoderpick.Selection {
		return encoderpick.Selection{Encoder: "libx264", Source: encoderpick.SourceFallback}
	}
	newVideoTranscoder = func(*config.Config, encoderpick.Selection, *slog.Logger) transcode.Transcoder {
		return stub
	}
	newImageTranscoder = func(*config.Config, *slog.Logger) transcode.Transcoder {
		return stub
	}
	t.Cleanup(func() {
		pickEncoder = origPick
		newVideoTranscoder = origVideo
		newImageTranscoder = origImage
	})
}

func TestRunConvertsAndMirrorsTree(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	stub := &stubTranscoder{}
	stubConverters(t, stub)

	testsupport.WriteFile(t, filepath.Join(cfg.Paths.SourceDir, "movies", "clip.avi"), 100)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.SourceDir, "photos", "pic.png"), 50)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.SourceDir, "notes.txt"), 10)

	store := testsupport.MustOpenStore(t, cfg)
	runner := NewRunnerWithNotifier(cfg, store, nil, &captureNotifier{})

	report, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Total() != 3 || report.Succeeded() != 2 || report.Skipped() != 1 || report.Failed() != 0 {
		t.Fatalf("unexpected counts: %d total, %d/%d/%d",
			report.Total(), report.Succeeded(), report.Skipped(), report.Failed())
	}

	wantOutput := filepath.Join(cfg.Paths.OutputDir, "movies", "clip.mp4")
	if _, statErr := os.Stat(wantOutput); statErr != nil {
		t.Fatalf("expected converted video at %s: %v", wantOutput, statErr)
	}
	wantImage := filepath.Join(cfg.Paths.OutputDir, "photos", "pic.jpg")
	if _, statErr := os.Stat(wantImage); statErr != nil {
		t.Fatalf("expected converted image at %s: %v", wantImage, statErr)
	}

	for i := 1; i < len(report.Results); i++ {
		if report.Results[i-1].RelPath > report.Results[i].RelPath {
			t.Fatalf("results out of order: %q before %q",
				report.Results[i-1].RelPath, report.Results[i].RelPath)
		}
	}
	for _, result := range report.Results {
		if result.Outcome != OutcomeSuccess {
			continue
		}
		if result.SourceBytes == 0 || result.OutputBytes == 0 {
			t.Fatalf("success result missing byte sizes: %#v", result)
		}
	}

	stored, storeErr := store.GetRun(context.Background(), report.RunID)
	if storeErr != nil {
		t.Fatalf("GetRun failed: %v", storeErr)
	}
	if stored == nil || stored.Succeeded != 2 || stored.Skipped != 1 {
		t.Fatalf("unexpected stored run: %#v", stored)
	}
	rows, storeErr := store.ListRunFiles(context.Background(), report.RunID)
	if storeErr != nil {
		t.Fatalf("ListRunFiles failed: %v", storeErr)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 history rows, got %d", len(rows))
	}
}

func TestRunIsolatesPerFileFailures(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	stub := &stubTranscoder{fail: map[string]error{
		"bad.avi": errors.New("encoder exploded"),
	}}
	stubConverters(t, stub)

	testsupport.WriteFile(t, filepath.Join(cfg.Paths.SourceDir, "bad.avi"), 10)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.SourceDir, "good.avi"), 10)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.SourceDir, "other.mov"), 10)

	runner := NewRunnerWithNotifier(cfg, nil, nil, &captureNotifier{})
	report, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("one bad file must not abort the run: %v", err)
	}
	if report.Succeeded() != 2 || report.Failed() != 1 {
		t.Fatalf("counts = %d succeeded, %d failed; want 2/1",
			report.Succeeded(), report.Failed())
	}

	failures := report.Failures()
	if len(failures) != 1 || failures[0].RelPath != "bad.avi" {
		t.Fatalf("unexpected failures: %#v", failures)
	}
	if failures[0].Detail != "encoder exploded" {
		t.Fatalf("failure detail = %q", failures[0].Detail)
	}
	if failures[0].OutputPath != "" {
		t.Fatalf("failed file must not report an output path, got %q", failures[0].OutputPath)
	}
}

func TestRunWorkerPoolAttemptsEveryFileOnce(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithWorkers(4))
	stub := &stubTranscoder{}
	stubConverters(t, stub)

	want := 12
	for i := 0; i < want; i++ {
		name := filepath.Join(cfg.Paths.SourceDir, "dir", string(rune('a'+i))+".mp4")
		testsupport.WriteFile(t, name, 10)
	}

	runner := NewRunnerWithNotifier(cfg, nil, nil, &captureNotifier{})
	report, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Succeeded() != want {
		t.Fatalf("succeeded = %d, want %d", report.Succeeded(), want)
	}

	counts := make(map[string]int)
	for _, rel := range stub.seen() {
		counts[rel]++
	}
	if len(counts) != want {
		t.Fatalf("expected %d distinct files attempted, got %d", want, len(counts))
	}
	for rel, n := range counts {
		if n != 1 {
			t.Fatalf("%s attempted %d times", rel, n)
		}
	}
}

func TestRunDryRunConvertsNothing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	stub := &stubTranscoder{}
	stubConverters(t, stub)

	testsupport.WriteFile(t, filepath.Join(cfg.Paths.SourceDir, "clip.avi"), 10)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.SourceDir, "pic.png"), 10)

	notifier := &captureNotifier{}
	runner := NewRunnerWithNotifier(cfg, nil, nil, notifier)
	runner.SetDryRun(true)

	report, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Skipped() != 2 || report.Succeeded() != 0 {
		t.Fatalf("dry run counts = %d skipped, %d succeeded", report.Skipped(), report.Succeeded())
	}
	for _, result := range report.Results {
		if result.Detail != "dry run" {
			t.Fatalf("expected dry run detail, got %q", result.Detail)
		}
		if result.OutputPath == "" {
			t.Fatalf("dry run should still plan an output path: %#v", result)
		}
	}

	if len(stub.seen()) != 0 {
		t.Fatalf("dry run must not invoke converters, saw %v", stub.seen())
	}
	if _, statErr := os.Stat(cfg.Paths.OutputDir); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatalf("dry run must not create the output tree: %v", statErr)
	}
	if len(notifier.started) != 0 || len(notifier.completed) != 0 {
		t.Fatal("dry run should not send notifications")
	}
}

func TestRunMissingSourceRootFails(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	stub := &stubTranscoder{}
	stubConverters(t, stub)

	notifier := &captureNotifier{}
	runner := NewRunnerWithNotifier(cfg, nil, nil, notifier)

	report, err := runner.Run(context.Background())
	if err == nil {
		t.Fatal("expected fatal error for missing source root")
	}
	if report != nil {
		t.Fatalf("expected nil report, got %#v", report)
	}
	if !services.Fatal(err) || !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected fatal ErrNotFound, got %v", err)
	}
	if len(notifier.failed) != 1 || notifier.failed[0] != "discovery" {
		t.Fatalf("expected one failure notification for discovery, got %#v", notifier.failed)
	}
}

func TestRunNotifiesCompletion(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	stub := &stubTranscoder{}
	stubConverters(t, stub)

	testsupport.WriteFile(t, filepath.Join(cfg.Paths.SourceDir, "clip.avi"), 10)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.SourceDir, "skip.txt"), 10)

	notifier := &captureNotifier{}
	runner := NewRunnerWithNotifier(cfg, nil, nil, notifier)
	if _, err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(notifier.started) != 1 || notifier.started[0] != 2 {
		t.Fatalf("expected start notification for 2 files, got %#v", notifier.started)
	}
	if len(notifier.completed) != 1 || notifier.completed[0] != [3]int{1, 1, 0} {
		t.Fatalf("expected completion 1/1/0, got %#v", notifier.completed)
	}
}

func TestRunCancellationSkipsRemainingFiles(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	stub := &stubTranscoder{onFirst: cancel}
	stubConverters(t, stub)

	for _, name := range []string{"a.avi", "b.avi", "c.avi"} {
		testsupport.WriteFile(t, filepath.Join(cfg.Paths.SourceDir, name), 10)
	}

	runner := NewRunnerWithNotifier(cfg, nil, nil, &captureNotifier{})
	report, err := runner.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if report == nil {
		t.Fatal("expected partial report after cancellation")
	}
	if report.Total() != 3 {
		t.Fatalf("every discovered file must appear in the report, got %d", report.Total())
	}

	attempted := len(stub.seen())
	if attempted != 1 {
		t.Fatalf("expected 1 attempted file before cancel, got %d", attempted)
	}
	canceled := 0
	for _, result := range report.Results {
		if result.Outcome == OutcomeSkipped && result.Detail == "run canceled" {
			canceled++
		}
	}
	if canceled != 2 {
		t.Fatalf("expected 2 files skipped by cancellation, got %d", canceled)
	}
}
