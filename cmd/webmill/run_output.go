package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"

	"webmill/internal/pipeline"
)

const (
	ansiReset = "\x1b[0m"
	ansiRed   = "\x1b[31m"
	ansiGreen = "\x1b[32m"
)

const (
	summaryLabelWidth = 14
	summaryIndent     = "  "
)

func printRunReport(out io.Writer, report *pipeline.Report) {
	colorize := shouldColorize(out)

	headline := fmt.Sprintf("Conversion finished in %s", formatDuration(report.Duration()))
	if report.DryRun {
		headline = "Dry run: planned conversions only, nothing was written"
	}
	fmt.Fprintln(out, headline)

	encoder := report.Encoder.Encoder
	if report.Encoder.Source != "" {
		encoder = fmt.Sprintf("%s (%s)", report.Encoder.Encoder, report.Encoder.Source)
	}

	printSummaryLine(out, "Files", fmt.Sprintf("%d", report.Total()), "", colorize)
	printSummaryLine(out, "Converted", fmt.Sprintf("%d", report.Succeeded()), ansiGreen, colorize)
	printSummaryLine(out, "Skipped", fmt.Sprintf("%d", report.Skipped()), "", colorize)
	failedColor := ""
	if report.Failed() > 0 {
		failedColor = ansiRed
	}
	printSummaryLine(out, "Failed", fmt.Sprintf("%d", report.Failed()), failedColor, colorize)
	if !report.DryRun && report.Succeeded() > 0 {
		printSummaryLine(out, "Source size", formatBytes(report.SourceBytesTotal()), "", colorize)
		printSummaryLine(out, "Output size", formatBytes(report.OutputBytesTotal()), "", colorize)
		if saved := report.SpaceSaved(); saved >= 0 {
			printSummaryLine(out, "Space saved", formatBytes(saved), "", colorize)
		} else {
			printSummaryLine(out, "Size growth", formatBytes(-saved), "", colorize)
		}
	}
	printSummaryLine(out, "Encoder", encoder, "", colorize)

	failures := report.Failures()
	if len(failures) == 0 {
		return
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Failed files:")
	rows := make([][]string, 0, len(failures))
	for _, failure := range failures {
		rows = append(rows, []string{failure.RelPath, failure.Detail})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"File", "Reason"},
		rows,
		[]columnAlignment{alignLeft, alignLeft},
	))
}

func printSummaryLine(out io.Writer, label, value, color string, colorize bool) {
	line := fmt.Sprintf("%s%-*s %s", summaryIndent, summaryLabelWidth, label+":", value)
	if colorize && color != "" {
		line = color + line + ansiReset
	}
	fmt.Fprintln(out, line)
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func formatBytes(value int64) string {
	const (
		kiB = 1024
		miB = kiB * 1024
		giB = miB * 1024
	)
	switch {
	case value >= giB:
		return fmt.Sprintf("%.2f GiB", float64(value)/float64(giB))
	case value >= miB:
		return fmt.Sprintf("%.2f MiB", float64(value)/float64(miB))
	case value >= kiB:
		return fmt.Sprintf("%.2f KiB", float64(value)/float64(kiB))
	default:
		return fmt.Sprintf("%d B", value)
	}
}

func formatDuration(value time.Duration) string {
	if value < time.Second {
		return value.Round(time.Millisecond).String()
	}
	return value.Round(time.Second).String()
}
