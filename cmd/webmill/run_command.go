package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"webmill/internal/config"
	"webmill/internal/history"
	"webmill/internal/logging"
	"webmill/internal/namecase"
	"webmill/internal/organize"
	"webmill/internal/pipeline"
	"webmill/internal/preflight"
	"webmill/internal/runlock"
	"webmill/internal/services"
)

type runOptions struct {
	source  string
	output  string
	workers int
	encoder string
	dryRun  bool
}

func bindRunFlags(cmd *cobra.Command, opts *runOptions) {
	cmd.Flags().StringVar(&opts.source, "source", "", "Override the configured source directory")
	cmd.Flags().StringVar(&opts.output, "output", "", "Override the configured output directory")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "Number of concurrent conversions (0 uses the configured value)")
	cmd.Flags().StringVar(&opts.encoder, "encoder", "", "Force a specific H264 encoder instead of probing")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Plan the conversion without writing any files")
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Convert every file under the source tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeRun(cmd, ctx, opts)
		},
	}
	bindRunFlags(cmd, opts)
	return cmd
}

func executeRun(cmd *cobra.Command, cmdCtx *commandContext, opts *runOptions) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := cmdCtx.ensureConfig()
	if err != nil {
		return err
	}
	cfg, err = applyRunOverrides(cfg, opts)
	if err != nil {
		return err
	}

	runID := time.Now().UTC().Format("20060102T150405Z")
	logger, err := logging.NewFromConfig(cfg, runID)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logPath := logging.RunLogPath(cfg.Paths.LogDir, runID)
	logging.CleanupOldLogs(logger, cfg.Paths.LogDir, cfg.Logging.RetentionDays, logPath)

	lock, err := runlock.Acquire(cfg)
	if err != nil {
		return err
	}
	defer lock.Release()

	for _, check := range preflight.RunAll(ctx, cfg) {
		if !check.Passed {
			logger.Warn("preflight check failed",
				logging.String("check", check.Name),
				logging.String("detail", check.Detail))
		}
	}

	store, err := history.Open(cfg)
	if err != nil {
		logger.Warn("run history unavailable", logging.Error(err))
		store = nil
	} else {
		defer store.Close()
	}

	runner := pipeline.NewRunner(cfg, store, logger)
	runner.SetDryRun(opts.dryRun)

	report, err := runner.Run(ctx)
	if report != nil {
		printRunReport(cmd.OutOrStdout(), report)
	}
	if err != nil {
		return err
	}

	if !opts.dryRun {
		runPostprocess(ctx, cfg, logger)
	}
	return nil
}

// applyRunOverrides layers command-line overrides over the loaded config and
// re-validates the result. The shared config value stays untouched so other
// commands on the same process see the file's settings.
func applyRunOverrides(cfg *config.Config, opts *runOptions) (*config.Config, error) {
	overlay := *cfg

	if source := strings.TrimSpace(opts.source); source != "" {
		expanded, err := config.ExpandPath(source)
		if err != nil {
			return nil, fmt.Errorf("resolve source override: %w", err)
		}
		overlay.Paths.SourceDir = expanded
	}
	if output := strings.TrimSpace(opts.output); output != "" {
		expanded, err := config.ExpandPath(output)
		if err != nil {
			return nil, fmt.Errorf("resolve output override: %w", err)
		}
		overlay.Paths.OutputDir = expanded
	}
	if opts.workers > 0 {
		overlay.Pipeline.Workers = opts.workers
	}
	if encoder := strings.TrimSpace(opts.encoder); encoder != "" {
		overlay.Video.Encoder = encoder
	}

	if err := overlay.Validate(); err != nil {
		return nil, err
	}
	return &overlay, nil
}

// runPostprocess applies the config-gated housekeeping phases to the output
// tree after a completed conversion pass. Failures here are logged but do not
// change the run's exit status; the converted files are already in place.
func runPostprocess(ctx context.Context, cfg *config.Config, logger *slog.Logger) {
	root := cfg.Paths.OutputDir

	if cfg.Postprocess.ConvertNames {
		phaseCtx := services.WithPhase(ctx, "names")
		log := logging.WithContext(phaseCtx, logger)
		converter, err := namecase.New(log)
		if err != nil {
			log.Warn("name conversion unavailable", logging.Error(err))
		} else if err := converter.ConvertTree(phaseCtx, root); err != nil {
			log.Warn("name conversion incomplete", logging.Error(err))
		}
	}
	if ctx.Err() != nil {
		return
	}

	if cfg.Postprocess.Organize {
		phaseCtx := services.WithPhase(ctx, "organize")
		log := logging.WithContext(phaseCtx, logger)
		if err := organize.New(root, log).Organize(phaseCtx); err != nil {
			log.Warn("organize phase incomplete", logging.Error(err))
		}
	}
	if ctx.Err() != nil {
		return
	}
	if cfg.Postprocess.Rename {
		phaseCtx := services.WithPhase(ctx, "rename")
		log := logging.WithContext(phaseCtx, logger)
		if err := organize.New(root, log).Rename(phaseCtx); err != nil {
			log.Warn("rename phase incomplete", logging.Error(err))
		}
	}
	if ctx.Err() != nil {
		return
	}
	if cfg.Postprocess.Organize || cfg.Postprocess.Rename {
		phaseCtx := services.WithPhase(ctx, "tidy")
		log := logging.WithContext(phaseCtx, logger)
		if err := organize.New(root, log).ClearEmptyDirs(phaseCtx); err != nil {
			log.Warn("empty directory sweep incomplete", logging.Error(err))
		}
	}
}
