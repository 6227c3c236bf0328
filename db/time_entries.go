// ABOUTME: Time entry table operations
// ABOUTME: Upsert keyed on the external source id so reruns overwrite in place
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/sprintledger/models"
)

// UpsertTimeEntry inserts or updates an entry keyed on its source id.
func (s *Store) UpsertTimeEntry(ctx context.Context, entry *models.TimeEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = time.Now().UTC()
	}
	tags := entry.Tags
	if tags == nil {
		tags = []models.Tag{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return err
	}

	var id string
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO time_entries (id, source_id, client_id, sprint_id, user_id, entry_date, hours,
			description, task_category, project_name, tags, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_id) DO UPDATE SET
			client_id = excluded.client_id,
			sprint_id = excluded.sprint_id,
			user_id = excluded.user_id,
			entry_date = excluded.entry_date,
			hours = excluded.hours,
			description = excluded.description,
			task_category = excluded.task_category,
			project_name = excluded.project_name,
			tags = excluded.tags,
			updated_at = excluded.updated_at
		RETURNING id
	`,
		entry.ID.String(),
		entry.SourceID,
		nullUUID(entry.ClientID),
		nullUUID(entry.SprintID),
		entry.UserID.String(),
		models.FormatDate(entry.EntryDate),
		entry.Hours,
		nullString(entry.Description),
		nullString(entry.TaskCategory),
		nullString(entry.ProjectName),
		string(tagsJSON),
		entry.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("failed to upsert time entry %s: %w", entry.SourceID, err)
	}

	entry.ID, err = uuid.Parse(id)
	return err
}

const timeEntryColumns = `id, source_id, client_id, sprint_id, user_id, entry_date, hours,
	description, task_category, project_name, tags, updated_at`

// GetTimeEntryBySourceID returns the entry stored for an external id.
func (s *Store) GetTimeEntryBySourceID(ctx context.Context, sourceID string) (*models.TimeEntry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+timeEntryColumns+` FROM time_entries WHERE source_id = ?`, sourceID)
	e, err := scanTimeEntry(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("time entry %s: %w", sourceID, models.ErrNotFound)
	}
	return e, err
}

// ListTimeEntries returns every stored entry ordered by date, then source id.
func (s *Store) ListTimeEntries(ctx context.Context) ([]models.TimeEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+timeEntryColumns+` FROM time_entries ORDER BY entry_date, source_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list time entries: %w", err)
	}
	defer rows.Close()

	var entries []models.TimeEntry
	for rows.Next() {
		e, err := scanTimeEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

func scanTimeEntry(row scanner) (*models.TimeEntry, error) {
	var e models.TimeEntry
	var id, userID, entryDate, tagsJSON string
	var clientID, sprintID, description, category, project sql.NullString

	err := row.Scan(
		&id,
		&e.SourceID,
		&clientID,
		&sprintID,
		&userID,
		&entryDate,
		&e.Hours,
		&description,
		&category,
		&project,
		&tagsJSON,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if e.ID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	if e.UserID, err = uuid.Parse(userID); err != nil {
		return nil, err
	}
	if e.ClientID, err = scanUUID(clientID); err != nil {
		return nil, err
	}
	if e.SprintID, err = scanUUID(sprintID); err != nil {
		return nil, err
	}
	if e.EntryDate, err = models.ParseDate(entryDate); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tagsJSON), &e.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags: %w", err)
	}
	e.Description = description.String
	e.TaskCategory = category.String
	e.ProjectName = project.String
	return &e, nil
}

// CountTimeEntries returns the number of stored entries.
func (s *Store) CountTimeEntries(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM time_entries`).Scan(&n)
	return n, err
}
