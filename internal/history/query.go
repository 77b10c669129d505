package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const runColumns = "id, started_at, finished_at, source_root, output_root, encoder, encoder_source, dry_run, total, succeeded, skipped, failed"

const runFileColumns = "id, run_id, rel_path, kind, outcome, detail, output_path, source_bytes, output_bytes, duration_ms, created_at"

// ListRuns returns the most recent runs, newest first. A non-positive
// limit returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun fetches one run by identifier. It returns nil when the run
// does not exist.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return &run, nil
}

// LatestRun fetches the most recently started run, or nil when the
// history is empty.
func (s *Store) LatestRun(ctx context.Context) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY started_at DESC LIMIT 1`)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest run: %w", err)
	}
	return &run, nil
}

// ListRunFiles returns the per-file outcomes of a run in report order.
func (s *Store) ListRunFiles(ctx context.Context, runID string) ([]RunFile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runFileColumns+` FROM run_files WHERE run_id = ? ORDER BY rel_path`, runID)
	if err != nil {
		return nil, fmt.Errorf("list run files: %w", err)
	}
	defer rows.Close()

	var files []RunFile
	for rows.Next() {
		file, err := scanRunFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run file: %w", err)
		}
		files = append(files, file)
	}
	return files, rows.Err()
}

// Prune deletes all but the most recent keep runs along with their file
// rows. It returns the number of runs removed.
func (s *Store) Prune(ctx context.Context, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM runs WHERE id NOT IN (
            SELECT id FROM runs ORDER BY started_at DESC LIMIT ?
        )`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}

	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune rows affected: %w", err)
	}
	return int(removed), nil
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (Run, error) {
	var (
		run           Run
		startedRaw    string
		finishedRaw   string
		encoderSource sql.NullString
		dryRun        sql.NullInt64
	)
	if err := scanner.Scan(
		&run.ID,
		&startedRaw,
		&finishedRaw,
		&run.SourceRoot,
		&run.OutputRoot,
		&run.Encoder,
		&encoderSource,
		&dryRun,
		&run.Total,
		&run.Succeeded,
		&run.Skipped,
		&run.Failed,
	); err != nil {
		return Run{}, err
	}
	run.EncoderSource = encoderSource.String
	run.DryRun = dryRun.Int64 != 0
	if started, err := parseTimeString(startedRaw); err == nil {
		run.StartedAt = started
	}
	if finished, err := parseTimeString(finishedRaw); err == nil {
		run.FinishedAt = finished
	}
	return run, nil
}

func scanRunFile(scanner interface{ Scan(dest ...any) error }) (RunFile, error) {
	var (
		file       RunFile
		detail     sql.NullString
		outputPath sql.NullString
		durationMS int64
		createdRaw sql.NullString
	)
	if err := scanner.Scan(
		&file.ID,
		&file.RunID,
		&file.RelPath,
		&file.Kind,
		&file.Outcome,
		&detail,
		&outputPath,
		&file.SourceBytes,
		&file.OutputBytes,
		&durationMS,
		&createdRaw,
	); err != nil {
		return RunFile{}, err
	}
	file.Detail = detail.String
	file.OutputPath = outputPath.String
	file.Duration = time.Duration(durationMS) * time.Millisecond
	if created, err := parseTimeString(createdRaw.String); err == nil {
		file.CreatedAt = created
	}
	return file, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	return time.Parse(time.RFC3339Nano, value)
}
