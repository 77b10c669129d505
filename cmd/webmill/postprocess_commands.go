package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"webmill/internal/config"
	"webmill/internal/logging"
	"webmill/internal/namecase"
	"webmill/internal/organize"
	"webmill/internal/runlock"
	"webmill/internal/services"
)

func newOrganizeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "organize [dir]",
		Short: "Split converted files into V/ and P/ subfolders",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withOutputTree(cmd, ctx, args, "organize", func(runCtx postprocessContext) error {
				org := organize.New(runCtx.target, runCtx.logger)
				if err := org.Organize(runCtx.ctx); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Organized %s\n", runCtx.target)
				return nil
			})
		},
	}
}

func newRenameCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rename [dir]",
		Short: "Renumber files into padded per-folder sequences",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withOutputTree(cmd, ctx, args, "rename", func(runCtx postprocessContext) error {
				org := organize.New(runCtx.target, runCtx.logger)
				if err := org.Rename(runCtx.ctx); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Renamed sequences under %s\n", runCtx.target)
				return nil
			})
		},
	}
}

func newConvertNamesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "convert-names [dir]",
		Short: "Rewrite Simplified Chinese names to Traditional",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withOutputTree(cmd, ctx, args, "names", func(runCtx postprocessContext) error {
				converter, err := namecase.New(runCtx.logger)
				if err != nil {
					return err
				}
				if err := converter.ConvertTree(runCtx.ctx, runCtx.target); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Converted names under %s\n", runCtx.target)
				return nil
			})
		},
	}
}

func newTidyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "tidy [dir]",
		Short: "Remove empty directories from the output tree",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withOutputTree(cmd, ctx, args, "tidy", func(runCtx postprocessContext) error {
				org := organize.New(runCtx.target, runCtx.logger)
				if err := org.ClearEmptyDirs(runCtx.ctx); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Tidied %s\n", runCtx.target)
				return nil
			})
		},
	}
}

type postprocessContext struct {
	ctx    context.Context
	target string
	logger *slog.Logger
}

// withOutputTree resolves the target directory, takes the process lock, and
// hands a signal-aware context plus logger to the phase body. All four
// housekeeping commands mutate the tree, so they serialize against a running
// conversion the same way conversions serialize against each other.
func withOutputTree(cmd *cobra.Command, cmdCtx *commandContext, args []string, phase string, fn func(postprocessContext) error) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = services.WithPhase(ctx, phase)

	cfg, err := cmdCtx.ensureConfig()
	if err != nil {
		return err
	}

	target := cfg.Paths.OutputDir
	if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
		expanded, err := config.ExpandPath(args[0])
		if err != nil {
			return fmt.Errorf("resolve target directory: %w", err)
		}
		target = expanded
	}
	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("target directory %s: %w", target, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("target %s is not a directory", target)
	}

	logger, err := logging.NewFromConfig(cfg, "")
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger = logging.WithContext(ctx, logger)

	lock, err := runlock.Acquire(cfg)
	if err != nil {
		return err
	}
	defer lock.Release()

	return fn(postprocessContext{ctx: ctx, target: target, logger: logger})
}
