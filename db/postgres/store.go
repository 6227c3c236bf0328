// ABOUTME: Postgres-backed store for hosted deployments
// ABOUTME: Same keyed upserts as the SQLite store, over a pgx connection pool
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/harperreed/sprintledger/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id UUID PRIMARY KEY,
	email TEXT NOT NULL,
	name TEXT,
	external_person_id BIGINT UNIQUE,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users (LOWER(email));

CREATE TABLE IF NOT EXISTS clients (
	id UUID PRIMARY KEY,
	board_item_id BIGINT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	region TEXT,
	campaign_start_date DATE,
	monthly_rate DOUBLE PRECISION,
	monthly_hours DOUBLE PRECISION,
	agency_value DOUBLE PRECISION,
	lead_user_id UUID REFERENCES users(id),
	support_user_ids UUID[],
	seo_lead_name TEXT,
	niche TEXT,
	client_priority TEXT,
	campaign_type TEXT,
	contract_length TEXT,
	report_status TEXT,
	last_report_date DATE,
	last_invoice_date DATE,
	group_name TEXT,
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_clients_name ON clients (name);

CREATE TABLE IF NOT EXISTS sprints (
	id UUID PRIMARY KEY,
	board_subitem_id BIGINT NOT NULL UNIQUE,
	client_id UUID NOT NULL REFERENCES clients(id),
	name TEXT NOT NULL,
	sprint_number INTEGER,
	sprint_label TEXT,
	start_date DATE NOT NULL,
	end_date DATE NOT NULL,
	monthly_rate DOUBLE PRECISION,
	kpi_target INTEGER NOT NULL DEFAULT 0,
	kpi_achieved INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sprints_client_start ON sprints (client_id, start_date);

CREATE TABLE IF NOT EXISTS time_entries (
	id UUID PRIMARY KEY,
	source_id TEXT NOT NULL UNIQUE,
	client_id UUID REFERENCES clients(id),
	sprint_id UUID REFERENCES sprints(id),
	user_id UUID NOT NULL REFERENCES users(id),
	entry_date DATE NOT NULL,
	hours DOUBLE PRECISION NOT NULL CHECK (hours > 0),
	description TEXT,
	task_category TEXT,
	project_name TEXT,
	tags TEXT[] NOT NULL DEFAULT '{}',
	updated_at TIMESTAMPTZ NOT NULL,
	CHECK (sprint_id IS NULL OR client_id IS NOT NULL)
);
CREATE INDEX IF NOT EXISTS idx_time_entries_sprint ON time_entries (sprint_id);

CREATE TABLE IF NOT EXISTS sync_runs (
	id TEXT PRIMARY KEY,
	source TEXT NOT NULL,
	started_at TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ,
	status TEXT NOT NULL,
	records_processed INTEGER NOT NULL DEFAULT 0,
	records_skipped INTEGER NOT NULL DEFAULT 0,
	skip_reasons JSONB,
	error_message TEXT
);
CREATE INDEX IF NOT EXISTS idx_sync_runs_started ON sync_runs (started_at);
`

// Store implements the sync store contract on Postgres.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wraps an existing pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Open connects to url, verifies the connection and creates missing tables.
func Open(ctx context.Context, url string) (*Store, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}
	s := NewStore(pool)
	if err := s.InitSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// InitSchema creates the tables if they do not exist.
func (s *Store) InitSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to init schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func uuidArg(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	v := id.String()
	return &v
}

// uuidsArg encodes ids as a text array; an empty list is NULL.
func uuidsArg(ids []uuid.UUID) []string {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func textArg(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

// dateArg truncates an optional date to UTC midnight.
func dateArg(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := models.DateOf(*t)
	return &d
}

func parseUUIDPtr(s *string) (*uuid.UUID, error) {
	if s == nil {
		return nil, nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

const clientColumns = `id, board_item_id, name, region, campaign_start_date, monthly_rate, monthly_hours,
	agency_value, lead_user_id, support_user_ids, seo_lead_name, niche, client_priority, campaign_type,
	contract_length, report_status, last_report_date, last_invoice_date, group_name, is_active,
	created_at, updated_at`

func (s *Store) UpsertClient(ctx context.Context, client *models.Client) error {
	if client.ID == uuid.Nil {
		client.ID = uuid.New()
	}
	now := time.Now().UTC()
	if client.CreatedAt.IsZero() {
		client.CreatedAt = now
	}
	if client.UpdatedAt.IsZero() {
		client.UpdatedAt = now
	}

	var id string
	err := s.pool.QueryRow(ctx, `
		INSERT INTO clients (`+clientColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::text[]::uuid[], $11, $12, $13, $14, $15, $16,
			$17, $18, $19, $20, $21, $22)
		ON CONFLICT (board_item_id) DO UPDATE SET
			name = EXCLUDED.name,
			region = EXCLUDED.region,
			campaign_start_date = EXCLUDED.campaign_start_date,
			monthly_rate = EXCLUDED.monthly_rate,
			monthly_hours = EXCLUDED.monthly_hours,
			agency_value = EXCLUDED.agency_value,
			lead_user_id = EXCLUDED.lead_user_id,
			support_user_ids = EXCLUDED.support_user_ids,
			seo_lead_name = EXCLUDED.seo_lead_name,
			niche = EXCLUDED.niche,
			client_priority = EXCLUDED.client_priority,
			campaign_type = EXCLUDED.campaign_type,
			contract_length = EXCLUDED.contract_length,
			report_status = EXCLUDED.report_status,
			last_report_date = EXCLUDED.last_report_date,
			last_invoice_date = EXCLUDED.last_invoice_date,
			group_name = EXCLUDED.group_name,
			is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at
		RETURNING id::text
	`,
		client.ID.String(), client.BoardItemID, client.Name, textArg(client.Region),
		dateArg(client.CampaignStartDate), client.MonthlyRate, client.MonthlyHours, client.AgencyValue,
		uuidArg(client.LeadUserID), uuidsArg(client.SupportUserIDs), textArg(client.SEOLeadName),
		textArg(client.Niche), textArg(client.Priority), textArg(client.CampaignType), textArg(client.ContractLength),
		textArg(client.ReportStatus), dateArg(client.LastReportDate), dateArg(client.LastInvoiceDate),
		textArg(client.GroupName), client.IsActive, client.CreatedAt, client.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("failed to upsert client %q: %w", client.Name, err)
	}
	client.ID, err = uuid.Parse(id)
	return err
}

func (s *Store) GetClient(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+clientSelect+` FROM clients WHERE id = $1`, id.String())
	c, err := scanClient(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("client %s: %w", id, models.ErrNotFound)
	}
	return c, err
}

func (s *Store) FindClientByName(ctx context.Context, name string) (*models.Client, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+clientSelect+` FROM clients
		WHERE LOWER(name) = $1
		ORDER BY id
		LIMIT 1
	`, strings.ToLower(strings.TrimSpace(name)))
	c, err := scanClient(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("client %q: %w", name, models.ErrNotFound)
	}
	return c, err
}

// ListClients returns the catalog ordered by name, then id.
func (s *Store) ListClients(ctx context.Context) ([]models.Client, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+clientSelect+` FROM clients ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	var clients []models.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, *c)
	}
	return clients, rows.Err()
}

const clientSelect = `id::text, board_item_id, name, region, campaign_start_date, monthly_rate, monthly_hours,
	agency_value, lead_user_id::text, support_user_ids::text[], seo_lead_name, niche, client_priority,
	campaign_type, contract_length, report_status, last_report_date, last_invoice_date, group_name, is_active,
	created_at, updated_at`

func scanClient(row pgx.Row) (*models.Client, error) {
	var c models.Client
	var id string
	var region, leadUserID, groupName *string
	var seoLead, niche, priority, campaignType, contractLength, reportStatus *string
	var support []string

	err := row.Scan(&id, &c.BoardItemID, &c.Name, &region, &c.CampaignStartDate, &c.MonthlyRate,
		&c.MonthlyHours, &c.AgencyValue, &leadUserID, &support, &seoLead, &niche, &priority, &campaignType,
		&contractLength, &reportStatus, &c.LastReportDate, &c.LastInvoiceDate, &groupName, &c.IsActive,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if c.ID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	if c.LeadUserID, err = parseUUIDPtr(leadUserID); err != nil {
		return nil, err
	}
	for _, s := range support {
		sid, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		c.SupportUserIDs = append(c.SupportUserIDs, sid)
	}
	c.CampaignStartDate = dateArg(c.CampaignStartDate)
	c.LastReportDate = dateArg(c.LastReportDate)
	c.LastInvoiceDate = dateArg(c.LastInvoiceDate)
	c.SEOLeadName = deref(seoLead)
	c.Niche = deref(niche)
	c.Priority = deref(priority)
	c.CampaignType = deref(campaignType)
	c.ContractLength = deref(contractLength)
	c.ReportStatus = deref(reportStatus)
	c.Region = deref(region)
	c.GroupName = deref(groupName)
	return &c, nil
}

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
	start, end := models.DateOf(sprint.StartDate), models.DateOf(sprint.EndDate)

	var id string
	err := s.pool.QueryRow(ctx, `
		INSERT INTO sprints (id, board_subitem_id, client_id, name, sprint_number, sprint_label,
			start_date, end_date, monthly_rate, kpi_target, kpi_achieved, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (board_subitem_id) DO UPDATE SET
			client_id = EXCLUDED.client_id,
			name = EXCLUDED.name,
			sprint_number = EXCLUDED.sprint_number,
			sprint_label = EXCLUDED.sprint_label,
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			monthly_rate = EXCLUDED.monthly_rate,
			kpi_target = EXCLUDED.kpi_target,
			kpi_achieved = EXCLUDED.kpi_achieved,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at
		RETURNING id::text
	`,
		sprint.ID.String(), sprint.BoardSubitemID, sprint.ClientID.String(), sprint.Name, sprint.SprintNumber,
		textArg(sprint.SprintLabel), start, end, sprint.MonthlyRate, sprint.KPITarget, sprint.KPIAchieved,
		sprint.Status, sprint.CreatedAt, sprint.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("failed to upsert sprint %q: %w", sprint.Name, err)
	}
	sprint.ID, err = uuid.Parse(id)
	return err
}

// ListSprints returns a client's sprints in ascending start order.
func (s *Store) ListSprints(ctx context.Context, clientID uuid.UUID) ([]models.Sprint, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id::text, board_subitem_id, client_id::text, name, sprint_number, sprint_label,
			start_date, end_date, monthly_rate, kpi_target, kpi_achieved, status, created_at, updated_at
		FROM sprints
		WHERE client_id = $1
		ORDER BY start_date, id
	`, clientID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list sprints: %w", err)
	}
	defer rows.Close()

	var sprints []models.Sprint
	for rows.Next() {
		var sp models.Sprint
		var id, cid string
		var label *string
		if err := rows.Scan(&id, &sp.BoardSubitemID, &cid, &sp.Name, &sp.SprintNumber, &label,
			&sp.StartDate, &sp.EndDate, &sp.MonthlyRate, &sp.KPITarget, &sp.KPIAchieved, &sp.Status,
			&sp.CreatedAt, &sp.UpdatedAt); err != nil {
			return nil, err
		}
		if sp.ID, err = uuid.Parse(id); err != nil {
			return nil, err
		}
		if sp.ClientID, err = uuid.Parse(cid); err != nil {
			return nil, err
		}
		sp.StartDate = models.DateOf(sp.StartDate)
		sp.EndDate = models.DateOf(sp.EndDate)
		sp.SprintLabel = deref(label)
		sprints = append(sprints, sp)
	}
	return sprints, rows.Err()
}

// RefreshSprintStatuses recomputes every sprint's status from today.
func (s *Store) RefreshSprintStatuses(ctx context.Context, today time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx, `
		WITH derived AS (
			SELECT id, CASE
				WHEN end_date < $1::date THEN 'completed'
				WHEN start_date > $1::date THEN 'upcoming'
				ELSE 'active'
			END AS status
			FROM sprints
		)
		UPDATE sprints s SET status = d.status
		FROM derived d
		WHERE s.id = d.id AND s.status <> d.status
	`, models.DateOf(today))
	if err != nil {
		return 0, fmt.Errorf("failed to refresh sprint statuses: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// SprintHours sums logged hours per sprint for a client.
func (s *Store) SprintHours(ctx context.Context, clientID uuid.UUID) (map[uuid.UUID]float64, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT sprint_id::text, SUM(hours) FROM time_entries
		WHERE client_id = $1 AND sprint_id IS NOT NULL
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

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.Email = strings.TrimSpace(user.Email)
	if user.Email == "" {
		return fmt.Errorf("user email is required")
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, email, name, external_person_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, user.ID.String(), user.Email, textArg(user.Name), user.ExternalPersonID, user.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user %s: %w", user.Email, err)
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id::text, email, name, external_person_id, created_at
		FROM users
		ORDER BY LOWER(email)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		var id string
		var name *string
		if err := rows.Scan(&id, &u.Email, &name, &u.ExternalPersonID, &u.CreatedAt); err != nil {
			return nil, err
		}
		if u.ID, err = uuid.Parse(id); err != nil {
			return nil, err
		}
		u.Name = deref(name)
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Store) UpsertTimeEntry(ctx context.Context, entry *models.TimeEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = time.Now().UTC()
	}
	tags := make([]string, 0, len(entry.Tags))
	for _, t := range entry.Tags {
		tags = append(tags, string(t))
	}

	var id string
	err := s.pool.QueryRow(ctx, `
		INSERT INTO time_entries (id, source_id, client_id, sprint_id, user_id, entry_date, hours,
			description, task_category, project_name, tags, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (source_id) DO UPDATE SET
			client_id = EXCLUDED.client_id,
			sprint_id = EXCLUDED.sprint_id,
			user_id = EXCLUDED.user_id,
			entry_date = EXCLUDED.entry_date,
			hours = EXCLUDED.hours,
			description = EXCLUDED.description,
			task_category = EXCLUDED.task_category,
			project_name = EXCLUDED.project_name,
			tags = EXCLUDED.tags,
			updated_at = EXCLUDED.updated_at
		RETURNING id::text
	`,
		entry.ID.String(), entry.SourceID, uuidArg(entry.ClientID), uuidArg(entry.SprintID), entry.UserID.String(),
		models.DateOf(entry.EntryDate), entry.Hours, textArg(entry.Description), textArg(entry.TaskCategory),
		textArg(entry.ProjectName), tags, entry.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("failed to upsert time entry %s: %w", entry.SourceID, err)
	}
	entry.ID, err = uuid.Parse(id)
	return err
}

// GetTimeEntryBySourceID returns the entry stored for an external id.
func (s *Store) GetTimeEntryBySourceID(ctx context.Context, sourceID string) (*models.TimeEntry, error) {
	var e models.TimeEntry
	var id, userID string
	var clientID, sprintID, description, category, project *string
	var tags []string

	err := s.pool.QueryRow(ctx, `
		SELECT id::text, source_id, client_id::text, sprint_id::text, user_id::text, entry_date, hours,
			description, task_category, project_name, tags, updated_at
		FROM time_entries
		WHERE source_id = $1
	`, sourceID).Scan(&id, &e.SourceID, &clientID, &sprintID, &userID, &e.EntryDate, &e.Hours,
		&description, &category, &project, &tags, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("time entry %s: %w", sourceID, models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	if e.ID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	if e.UserID, err = uuid.Parse(userID); err != nil {
		return nil, err
	}
	if e.ClientID, err = parseUUIDPtr(clientID); err != nil {
		return nil, err
	}
	if e.SprintID, err = parseUUIDPtr(sprintID); err != nil {
		return nil, err
	}
	e.EntryDate = models.DateOf(e.EntryDate)
	e.Description = deref(description)
	e.TaskCategory = deref(category)
	e.ProjectName = deref(project)
	e.Tags = make([]models.Tag, 0, len(tags))
	for _, t := range tags {
		e.Tags = append(e.Tags, models.Tag(t))
	}
	return &e, nil
}

func (s *Store) CreateSyncRun(ctx context.Context, run *models.SyncRun) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sync_runs (id, source, started_at, status)
		VALUES ($1, $2, $3, $4)
	`, run.ID, run.Source, run.StartedAt, run.Status)
	if err != nil {
		return fmt.Errorf("failed to create sync run: %w", err)
	}
	return nil
}

// FinishSyncRun closes a running record. A run can only be finished once.
func (s *Store) FinishSyncRun(ctx context.Context, run *models.SyncRun) error {
	var reasons map[string]int
	if len(run.SkipReasons) > 0 {
		reasons = run.SkipReasons
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE sync_runs SET
			finished_at = $1,
			status = $2,
			records_processed = $3,
			records_skipped = $4,
			skip_reasons = $5,
			error_message = $6
		WHERE id = $7 AND status = $8
	`, run.FinishedAt, run.Status, run.RecordsProcessed, run.RecordsSkipped, reasons, run.ErrorMessage, run.ID, models.RunRunning)
	if err != nil {
		return fmt.Errorf("failed to finish sync run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("running sync run %s: %w", run.ID, models.ErrNotFound)
	}
	return nil
}

// ListSyncRuns returns the most recent runs first. A non-positive limit returns all runs.
func (s *Store) ListSyncRuns(ctx context.Context, limit int) ([]models.SyncRun, error) {
	var lim *int
	if limit > 0 {
		lim = &limit
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, source, started_at, finished_at, status, records_processed, records_skipped,
			skip_reasons, error_message
		FROM sync_runs
		ORDER BY started_at DESC, id DESC
		LIMIT $1
	`, lim)
	if err != nil {
		return nil, fmt.Errorf("failed to list sync runs: %w", err)
	}
	defer rows.Close()

	var runs []models.SyncRun
	for rows.Next() {
		var r models.SyncRun
		if err := rows.Scan(&r.ID, &r.Source, &r.StartedAt, &r.FinishedAt, &r.Status,
			&r.RecordsProcessed, &r.RecordsSkipped, &r.SkipReasons, &r.ErrorMessage); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
