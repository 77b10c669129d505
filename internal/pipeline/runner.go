package pipeline

import (
	"context"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"webmill/internal/config"
	"webmill/internal/history"
	"webmill/internal/layout"
	"webmill/internal/logging"
	"webmill/internal/media"
	"webmill/internal/notifications"
	"webmill/internal/services"
	"webmill/internal/transcode"
)

// Runner coordinates one conversion batch from discovery to report.
type Runner struct {
	cfg      *config.Config
	store    *history.Store
	logger   *slog.Logger
	notifier notifications.Service
	dryRun   bool
}

// NewRunner constructs a runner with the notifier derived from config.
func NewRunner(cfg *config.Config, store *history.Store, logger *slog.Logger) *Runner {
	return NewRunnerWithNotifier(cfg, store, logger, notifications.NewService(cfg))
}

// NewRunnerWithNotifier constructs a runner with a custom notifier (used in tests).
func NewRunnerWithNotifier(cfg *config.Config, store *history.Store, logger *slog.Logger, notifier notifications.Service) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Runner{
		cfg:      cfg,
		store:    store,
		logger:   logging.NewComponentLogger(logger, "pipeline"),
		notifier: notifier,
	}
}

// SetDryRun switches the runner to plan-only mode: files are discovered
// and output paths computed, but nothing is converted or written.
func (r *Runner) SetDryRun(enabled bool) {
	r.dryRun = enabled
}

type plannedTask struct {
	file media.SourceFile
	task media.Task
}

// Run executes one batch. Each discovered file is attempted exactly once;
// individual failures are recorded in the report and never abort the walk.
// The only fatal error is a missing or unreadable source directory.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, r.logger)

	sourceRoot := r.cfg.Paths.SourceDir
	outputRoot := r.cfg.Paths.OutputDir

	files, err := Discover(sourceRoot)
	if err != nil {
		logger.Error("discovery failed", logging.Error(err))
		if notifyErr := r.notifier.NotifyRunFailed(ctx, err, "discovery"); notifyErr != nil {
			logger.Warn("notify run failure", logging.Error(notifyErr))
		}
		return nil, err
	}

	selection := pickEncoder(ctx, r.cfg.Pipeline.FFmpegBinary, r.cfg.Video.Encoder)
	report := &Report{
		RunID:      runID,
		Started:    time.Now().UTC(),
		SourceRoot: sourceRoot,
		OutputRoot: outputRoot,
		Encoder:    selection,
		DryRun:     r.dryRun,
	}

	logger.Info("run started",
		logging.Int("files", len(files)),
		logging.String("encoder", selection.Encoder),
		logging.String("encoder_source", string(selection.Source)),
		logging.Bool("dry_run", r.dryRun))
	if !r.dryRun && len(files) > 0 {
		if notifyErr := r.notifier.NotifyRunStarted(ctx, len(files)); notifyErr != nil {
			logger.Warn("notify run start", logging.Error(notifyErr))
		}
	}

	results := make([]FileResult, 0, len(files))
	var tasks []plannedTask
	for _, file := range files {
		if file.Kind == media.KindUnsupported {
			results = append(results, FileResult{
				RelPath: file.RelPath,
				Kind:    file.Kind,
				Outcome: OutcomeSkipped,
				Detail:  "unsupported extension",
			})
			continue
		}
		outputPath, mirrorErr := layout.Mirror(sourceRoot, outputRoot, file.Path, media.OutputExt(file.Kind))
		if mirrorErr != nil {
			results = append(results, FileResult{
				RelPath: file.RelPath,
				Kind:    file.Kind,
				Outcome: OutcomeFailed,
				Detail:  services.FailureDetail(mirrorErr),
			})
			continue
		}
		tasks = append(tasks, plannedTask{
			file: file,
			task: media.Task{Source: file, OutputPath: outputPath},
		})
	}

	switch {
	case r.dryRun:
		for _, planned := range tasks {
			results = append(results, FileResult{
				RelPath:    planned.file.RelPath,
				Kind:       planned.file.Kind,
				Outcome:    OutcomeSkipped,
				Detail:     "dry run",
				OutputPath: planned.task.OutputPath,
			})
		}
	case len(tasks) > 0:
		video := newVideoTranscoder(r.cfg, selection, logger)
		image := newImageTranscoder(r.cfg, logger)
		results = append(results, r.execute(ctx, tasks, video, image)...)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].RelPath < results[j].RelPath
	})
	report.Results = results
	report.Finished = time.Now().UTC()

	logger.Info("run finished",
		logging.Int("total", report.Total()),
		logging.Int("succeeded", report.Succeeded()),
		logging.Int("skipped", report.Skipped()),
		logging.Int("failed", report.Failed()),
		logging.Duration("duration", report.Duration()))

	r.recordHistory(ctx, report)

	if ctxErr := ctx.Err(); ctxErr != nil {
		logger.Warn("run canceled", logging.Int("converted", report.Succeeded()))
		return report, ctxErr
	}
	if !r.dryRun {
		if notifyErr := r.notifier.NotifyRunCompleted(ctx, report.Succeeded(), report.Skipped(), report.Failed(), report.Duration()); notifyErr != nil {
			logger.Warn("notify run completion", logging.Error(notifyErr))
		}
	}
	return report, nil
}

// execute converts the planned tasks, sequentially for a single worker
// and through a bounded pool otherwise. Results arrive unordered from
// the pool; the caller sorts the merged slice.
func (r *Runner) execute(ctx context.Context, tasks []plannedTask, video, image transcode.Transcoder) []FileResult {
	workers := r.cfg.WorkerCount()
	if workers > len(tasks) {
		workers = len(tasks)
	}

	if workers <= 1 {
		results := make([]FileResult, 0, len(tasks))
		for _, planned := range tasks {
			results = append(results, r.convertOne(ctx, planned, video, image))
		}
		return results
	}

	jobs := make(chan plannedTask)
	collected := make(chan FileResult, len(tasks))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for planned := range jobs {
				collected <- r.convertOne(ctx, planned, video, image)
			}
		}()
	}

	go func() {
		for _, planned := range tasks {
			jobs <- planned
		}
		close(jobs)
		wg.Wait()
		close(collected)
	}()

	results := make([]FileResult, 0, len(tasks))
	for result := range collected {
		results = append(results, result)
	}
	return results
}

func (r *Runner) convertOne(ctx context.Context, planned plannedTask, video, image transcode.Transcoder) FileResult {
	result := FileResult{RelPath: planned.file.RelPath, Kind: planned.file.Kind}

	// A canceled run stops converting but still accounts for every file.
	if ctx.Err() != nil {
		result.Outcome = OutcomeSkipped
		result.Detail = "run canceled"
		return result
	}

	ctx = services.WithFile(ctx, planned.file.RelPath)
	logger := logging.WithContext(ctx, r.logger)

	transcoder := video
	if planned.file.Kind == media.KindImage {
		transcoder = image
	}

	logger.Info("converting", logging.String(logging.FieldKind, string(planned.file.Kind)))

	start := time.Now()
	err := transcoder.Transcode(ctx, planned.task)
	result.Duration = time.Since(start)
	if err != nil {
		result.Outcome = OutcomeFailed
		result.Detail = services.FailureDetail(err)
		logger.Error("conversion failed", logging.Error(err))
		return result
	}

	result.Outcome = OutcomeSuccess
	result.OutputPath = planned.task.OutputPath
	if info, statErr := os.Stat(planned.file.Path); statErr == nil {
		result.SourceBytes = info.Size()
	}
	if info, statErr := os.Stat(planned.task.OutputPath); statErr == nil {
		result.OutputBytes = info.Size()
	}

	logger.Info("converted",
		logging.Int64("source_bytes", result.SourceBytes),
		logging.Int64("output_bytes", result.OutputBytes),
		logging.Duration("duration", result.Duration))
	return result
}

// recordHistory persists the report. Failures are logged and swallowed:
// a broken history database never fails a finished batch.
func (r *Runner) recordHistory(ctx context.Context, report *Report) {
	if r.store == nil {
		return
	}

	run := history.Run{
		ID:            report.RunID,
		StartedAt:     report.Started,
		FinishedAt:    report.Finished,
		SourceRoot:    report.SourceRoot,
		OutputRoot:    report.OutputRoot,
		Encoder:       report.Encoder.Encoder,
		EncoderSource: string(report.Encoder.Source),
		DryRun:        report.DryRun,
		Total:         report.Total(),
		Succeeded:     report.Succeeded(),
		Skipped:       report.Skipped(),
		Failed:        report.Failed(),
	}
	files := make([]history.RunFile, 0, len(report.Results))
	for _, result := range report.Results {
		files = append(files, history.RunFile{
			RunID:       report.RunID,
			RelPath:     result.RelPath,
			Kind:        string(result.Kind),
			Outcome:     string(result.Outcome),
			Detail:      result.Detail,
			OutputPath:  result.OutputPath,
			SourceBytes: result.SourceBytes,
			OutputBytes: result.OutputBytes,
			Duration:    result.Duration,
		})
	}

	// Recording survives cancellation so an interrupted run still shows up.
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := r.store.RecordRun(recordCtx, run, files); err != nil {
		r.logger.Warn("record run history", logging.Error(err))
	}
}
