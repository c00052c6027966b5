package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/partscatalog/internal/catalog"
)

// RunRecorder stores import history in catalog_import_runs.
type RunRecorder struct {
	db DBTX
}

// NewRunRecorder writes history through db, normally the pool so history
// survives a rolled-back batch.
func NewRunRecorder(db DBTX) *RunRecorder {
	return &RunRecorder{db: db}
}

// StartRun inserts a running entry.
func (r *RunRecorder) StartRun(ctx context.Context, run *catalog.ImportRun) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO catalog_import_runs (id, entity, file_name, update_existing, status, started_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		run.ID, string(run.Entity), run.FileName, run.UpdateExisting, string(run.Status), run.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("start import run: %w", err)
	}
	return nil
}

// FinishRun stores the final status, counters and checksum.
func (r *RunRecorder) FinishRun(ctx context.Context, run catalog.ImportRun) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE catalog_import_runs SET checksum = $2, backup_path = $3, status = $4,
			processed = $5, created = $6, updated = $7, skipped = $8, brands_created = $9, errors = $10,
			error = $11, finished_at = $12
		WHERE id = $1`,
		run.ID, run.Checksum, toPgText(run.BackupPath), string(run.Status),
		run.Stats.Processed, run.Stats.Created, run.Stats.Updated, run.Stats.Skipped,
		run.Stats.BrandsCreated, run.Stats.Errors, toPgText(run.Error), run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("finish import run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("finish import run %s: %w", run.ID, catalog.ErrNotFound)
	}
	return nil
}

// ListRuns returns the most recent runs first.
func (r *RunRecorder) ListRuns(ctx context.Context, limit int) ([]catalog.ImportRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(ctx, `
		SELECT id, entity, file_name, checksum, update_existing, backup_path, status,
			processed, created, updated, skipped, brands_created, errors, error, started_at, finished_at
		FROM catalog_import_runs
		ORDER BY started_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list import runs: %w", err)
	}
	defer rows.Close()

	var runs []catalog.ImportRun
	for rows.Next() {
		var (
			run        catalog.ImportRun
			entity     string
			status     string
			backupPath pgtype.Text
			runErr     pgtype.Text
			finishedAt pgtype.Timestamptz
		)
		err := rows.Scan(
			&run.ID, &entity, &run.FileName, &run.Checksum, &run.UpdateExisting, &backupPath, &status,
			&run.Stats.Processed, &run.Stats.Created, &run.Stats.Updated, &run.Stats.Skipped,
			&run.Stats.BrandsCreated, &run.Stats.Errors, &runErr, &run.StartedAt, &finishedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan import run: %w", err)
		}
		run.Entity = catalog.Entity(entity)
		run.Status = catalog.RunStatus(status)
		run.BackupPath = backupPath.String
		run.Error = runErr.String
		if finishedAt.Valid {
			t := finishedAt.Time
			run.FinishedAt = &t
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
