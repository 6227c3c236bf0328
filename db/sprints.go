// ABOUTME: Sprint table operations
// ABOUTME: Upsert keyed on the board sub-item id, ordered reads and status refresh
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/sprintledger/models"
)

const sprintColumns = `id, board_subitem_id, client_id, name, sprint_number, sprint_label, start_date, end_date,
	monthly_rate, kpi_target, kpi_achieved, status, created_at, updated_at`

// UpsertSprint inserts or updates a sprint keyed on its board sub-item id.
func (s *Store) UpsertSprint(ctx context.Context, sprint *models.Sprint) error {
	if sprint.ID == uuid.Nil {
		sprint.ID = uuid.New()
	}
	now := time.Now().UTC()
	if sprint.CreatedAt.IsZero() {
		sprint.CreatedAt = now
	}
	if sprint.UpdatedAt.IsZero() {
		sprint.UpdatedAt = now
	}
	if sprint.Status == "" {
		sprint.Status = models.SprintStatusOn(sprint.StartDate, sprint.EndDate, now)
	}

	var id string
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO sprints (`+sprintColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(board_subitem_id) DO UPDATE SET
			client_id = excluded.client_id,
			name = excluded.name,
			sprint_number = excluded.sprint_number,
			sprint_label = excluded.sprint_label,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			monthly_rate = excluded.monthly_rate,
			kpi_target = excluded.kpi_target,
			kpi_achieved = excluded.kpi_achieved,
			status = excluded.status,
			updated_at = excluded.updated_at
		RETURNING id
	`,
		sprint.ID.String(),
		sprint.BoardSubitemID,
		sprint.ClientID.String(),
		sprint.Name,
		nullInt(sprint.SprintNumber),
		nullString(sprint.SprintLabel),
		models.FormatDate(sprint.StartDate),
		models.FormatDate(sprint.EndDate),
		nullFloat(sprint.MonthlyRate),
		sprint.KPITarget,
		sprint.KPIAchieved,
		sprint.Status,
		sprint.CreatedAt,
		sprint.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("failed to upsert sprint %q: %w", sprint.Name, err)
	}

	sprint.ID, err = uuid.Parse(id)
	return err
}

// ListSprints returns a client's sprints in ascending start order.
func (s *Store) ListSprints(ctx context.Context, clientID uuid.UUID) ([]models.Sprint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sprintColumns+` FROM sprints
		WHERE client_id = ?
		ORDER BY start_date, id
	`, clientID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list sprints: %w", err)
	}
	defer rows.Close()

	var sprints []models.Sprint
	for rows.Next() {
		sp, err := scanSprint(rows)
		if err != nil {
			return nil, err
		}
		sprints = append(sprints, *sp)
	}
	return sprints, rows.Err()
}

// RefreshSprintStatuses recomputes every sprint's status from today and returns how many
// rows changed.
func (s *Store) RefreshSprintStatuses(ctx context.Context, today time.Time) (int, error) {
	d := models.FormatDate(today)
	res, err := s.db.ExecContext(ctx, `
		UPDATE sprints SET status = CASE
			WHEN end_date < ? THEN 'completed'
			WHEN start_date > ? THEN 'upcoming'
			ELSE 'active'
		END
		WHERE status <> CASE
			WHEN end_date < ? THEN 'completed'
			WHEN start_date > ? THEN 'upcoming'
			ELSE 'active'
		END
	`, d, d, d, d)
	if err != nil {
		return 0, fmt.Errorf("failed to refresh sprint statuses: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// SprintHours sums logged hours per sprint for a client.
func (s *Store) SprintHours(ctx context.Context, clientID uuid.UUID) (map[uuid.UUID]float64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sprint_id, SUM(hours) FROM time_entries
		WHERE client_id = ? AND sprint_id IS NOT NULL
		GROUP BY sprint_id
	`, clientID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to sum sprint hours: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID]float64)
	for rows.Next() {
		var id string
		var hours float64
		if err := rows.Scan(&id, &hours); err != nil {
			return nil, err
		}
		sid, err := uuid.Parse(id)
		if err != nil {
			return nil, err
		}
		out[sid] = hours
	}
	return out, rows.Err()
}

func scanSprint(row scanner) (*models.Sprint, error) {
	var sp models.Sprint
	var id, clientID, start, end string
	var number sql.NullInt64
	var label sql.NullString
	var rate sql.NullFloat64

	err := row.Scan(
		&id,
		&sp.BoardSubitemID,
		&clientID,
		&sp.Name,
		&number,
		&label,
		&start,
		&end,
		&rate,
		&sp.KPITarget,
		&sp.KPIAchieved,
		&sp.Status,
		&sp.CreatedAt,
		&sp.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if sp.ID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	if sp.ClientID, err = uuid.Parse(clientID); err != nil {
		return nil, err
	}
	if sp.StartDate, err = models.ParseDate(start); err != nil {
		return nil, err
	}
	if sp.EndDate, err = models.ParseDate(end); err != nil {
		return nil, err
	}
	if number.Valid {
		n := int(number.Int64)
		sp.SprintNumber = &n
	}
	sp.SprintLabel = label.String
	sp.MonthlyRate = scanFloat(rate)
	return &sp, nil
}
