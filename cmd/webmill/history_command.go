package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"webmill/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect past conversion runs",
	}

	historyCmd.AddCommand(newHistoryListCommand(ctx))
	historyCmd.AddCommand(newHistoryShowCommand(ctx))
	historyCmd.AddCommand(newHistoryPruneCommand(ctx))

	return historyCmd
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistoryStore(ctx, func(store *history.Store) error {
				runs, err := store.ListRuns(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if len(runs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet")
					return nil
				}

				rows := make([][]string, 0, len(runs))
				for _, run := range runs {
					rows = append(rows, []string{
						run.ID,
						run.StartedAt.Local().Format("2006-01-02 15:04:05"),
						formatRunDuration(run),
						strconv.Itoa(run.Total),
						strconv.Itoa(run.Succeeded),
						strconv.Itoa(run.Skipped),
						strconv.Itoa(run.Failed),
						yesNo(run.DryRun),
					})
				}
				table := renderTable(
					[]string{"Run", "Started", "Duration", "Files", "OK", "Skipped", "Failed", "Dry"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list (0 for all)")
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show [run-id]",
		Short: "Show per-file outcomes for a run (latest when omitted)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistoryStore(ctx, func(store *history.Store) error {
				var run *history.Run
				var err error
				if len(args) == 1 {
					run, err = store.GetRun(cmd.Context(), args[0])
				} else {
					run, err = store.LatestRun(cmd.Context())
				}
				if err != nil {
					return err
				}
				if run == nil {
					if len(args) == 1 {
						return fmt.Errorf("run %s not found", args[0])
					}
					fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet")
					return nil
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Run %s (%s)\n", run.ID, run.StartedAt.Local().Format("2006-01-02 15:04:05"))
				printSummaryLine(out, "Source", run.SourceRoot, "", false)
				printSummaryLine(out, "Output", run.OutputRoot, "", false)
				encoder := run.Encoder
				if run.EncoderSource != "" {
					encoder = fmt.Sprintf("%s (%s)", run.Encoder, run.EncoderSource)
				}
				printSummaryLine(out, "Encoder", encoder, "", false)
				printSummaryLine(out, "Dry run", yesNo(run.DryRun), "", false)
				printSummaryLine(out, "Files", fmt.Sprintf("%d (%d converted, %d skipped, %d failed)",
					run.Total, run.Succeeded, run.Skipped, run.Failed), "", false)
				printSummaryLine(out, "Duration", formatRunDuration(*run), "", false)

				files, err := store.ListRunFiles(cmd.Context(), run.ID)
				if err != nil {
					return err
				}
				if len(files) == 0 {
					return nil
				}

				rows := make([][]string, 0, len(files))
				for _, file := range files {
					rows = append(rows, []string{file.RelPath, file.Kind, file.Outcome, file.Detail})
				}
				fmt.Fprintln(out)
				fmt.Fprintln(out, renderTable(
					[]string{"File", "Kind", "Outcome", "Detail"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
}

func newHistoryPruneCommand(ctx *commandContext) *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete old runs, keeping the most recent ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			if keep < 0 {
				return errors.New("--keep must be zero or positive")
			}
			return withHistoryStore(ctx, func(store *history.Store) error {
				removed, err := store.Prune(cmd.Context(), keep)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d runs, kept the most recent %d\n", removed, keep)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&keep, "keep", 20, "Number of recent runs to keep")
	return cmd
}

func withHistoryStore(ctx *commandContext, fn func(*history.Store) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	store, err := history.Open(cfg)
	if err != nil {
		return fmt.Errorf("open run history: %w", err)
	}
	defer store.Close()
	return fn(store)
}

func formatRunDuration(run history.Run) string {
	if run.FinishedAt.IsZero() || run.FinishedAt.Before(run.StartedAt) {
		return "-"
	}
	return formatDuration(run.FinishedAt.Sub(run.StartedAt))
}
