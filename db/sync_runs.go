// ABOUTME: Database operations for the sync_runs table
// ABOUTME: Append-only run log: created as running, finished once as success or error
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/harperreed/sprintledger/models"
)

// CreateSyncRun records the start of a pass.
func (s *Store) CreateSyncRun(ctx context.Context, run *models.SyncRun) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_runs (id, source, started_at, status)
		VALUES (?, ?, ?, ?)
	`, run.ID, run.Source, run.StartedAt, run.Status)
	if err != nil {
		return fmt.Errorf("failed to create sync run: %w", err)
	}
	return nil
}

// FinishSyncRun closes a running record. A run can only be finished once.
func (s *Store) FinishSyncRun(ctx context.Context, run *models.SyncRun) error {
	var reasons sql.NullString
	if len(run.SkipReasons) > 0 {
		data, err := json.Marshal(run.SkipReasons)
		if err != nil {
			return err
		}
		reasons = sql.NullString{String: string(data), Valid: true}
	}
	var errMsg sql.NullString
	if run.ErrorMessage != nil {
		errMsg = sql.NullString{String: *run.ErrorMessage, Valid: true}
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE sync_runs SET
			finished_at = ?,
			status = ?,
			records_processed = ?,
			records_skipped = ?,
			skip_reasons = ?,
			error_message = ?
		WHERE id = ? AND status = ?
	`, run.FinishedAt, run.Status, run.RecordsProcessed, run.RecordsSkipped, reasons, errMsg, run.ID, models.RunRunning)
	if err != nil {
		return fmt.Errorf("failed to finish sync run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("running sync run %s: %w", run.ID, models.ErrNotFound)
	}
	return nil
}

// ListSyncRuns returns the most recent runs first. A non-positive limit returns all runs.
func (s *Store) ListSyncRuns(ctx context.Context, limit int) ([]models.SyncRun, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, started_at, finished_at, status, records_processed, records_skipped,
			skip_reasons, error_message
		FROM sync_runs
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sync runs: %w", err)
	}
	defer rows.Close()

	var runs []models.SyncRun
	for rows.Next() {
		var r models.SyncRun
		var finished sql.NullTime
		var reasons, errMsg sql.NullString
		if err := rows.Scan(
			&r.ID,
			&r.Source,
			&r.StartedAt,
			&finished,
			&r.Status,
			&r.RecordsProcessed,
			&r.RecordsSkipped,
			&reasons,
			&errMsg,
		); err != nil {
			return nil, err
		}
		if finished.Valid {
			t := finished.Time
			r.FinishedAt = &t
		}
		if reasons.Valid && reasons.String != "" {
			if err := json.Unmarshal([]byte(reasons.String), &r.SkipReasons); err != nil {
				return nil, fmt.Errorf("failed to decode skip reasons: %w", err)
			}
		}
		if errMsg.Valid {
			msg := errMsg.String
			r.ErrorMessage = &msg
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
