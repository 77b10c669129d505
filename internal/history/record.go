package history

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// RecordRun stores a run summary and its per-file outcomes in one
// transaction. A run identifier must be set; files may be empty.
func (s *Store) RecordRun(ctx context.Context, run Run, files []RunFile) error {
	if run.ID == "" {
		return errors.New("run id is empty")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin run tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (
            id, started_at, finished_at, source_root, output_root,
            encoder, encoder_source, dry_run, total, succeeded, skipped, failed
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.FinishedAt.UTC().Format(time.RFC3339Nano),
		run.SourceRoot,
		run.OutputRoot,
		run.Encoder,
		run.EncoderSource,
		boolToInt(run.DryRun),
		run.Total,
		run.Succeeded,
		run.Skipped,
		run.Failed,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, file := range files {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO run_files (
                run_id, rel_path, kind, outcome, detail, output_path,
                source_bytes, output_bytes, duration_ms, created_at
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID,
			file.RelPath,
			file.Kind,
			file.Outcome,
			nullableString(file.Detail),
			nullableString(file.OutputPath),
			file.SourceBytes,
			file.OutputBytes,
			file.Duration.Milliseconds(),
			now,
		)
		if err != nil {
			return fmt.Errorf("insert run file %s: %w", file.RelPath, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}
