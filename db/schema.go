// ABOUTME: Database schema definitions
// ABOUTME: Creates the client, sprint, user, time entry and sync run tables in SQLite
package db

import (
	"database/sql"
)

// Calendar dates are stored as TEXT in YYYY-MM-DD form so range filters compare lexically.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL UNIQUE COLLATE NOCASE,
	name TEXT,
	external_person_id INTEGER UNIQUE,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS clients (
	id TEXT PRIMARY KEY,
	board_item_id INTEGER NOT NULL UNIQUE,
	name TEXT NOT NULL,
	region TEXT,
	campaign_start_date TEXT,
	monthly_rate REAL,
	monthly_hours REAL,
	agency_value REAL,
	lead_user_id TEXT,
	support_user_ids TEXT,
	seo_lead_name TEXT,
	niche TEXT,
	client_priority TEXT,
	campaign_type TEXT,
	contract_length TEXT,
	report_status TEXT,
	last_report_date TEXT,
	last_invoice_date TEXT,
	group_name TEXT,
	is_active BOOLEAN NOT NULL DEFAULT 1,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	FOREIGN KEY (lead_user_id) REFERENCES users(id)
);

CREATE INDEX IF NOT EXISTS idx_clients_name ON clients(name);

CREATE TABLE IF NOT EXISTS sprints (
	id TEXT PRIMARY KEY,
	board_subitem_id INTEGER NOT NULL UNIQUE,
	client_id TEXT NOT NULL,
	name TEXT NOT NULL,
	sprint_number INTEGER,
	sprint_label TEXT,
	start_date TEXT NOT NULL,
	end_date TEXT NOT NULL,
	monthly_rate REAL,
	kpi_target INTEGER NOT NULL DEFAULT 0,
	kpi_achieved INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	FOREIGN KEY (client_id) REFERENCES clients(id)
);

CREATE INDEX IF NOT EXISTS idx_sprints_client_start ON sprints(client_id, start_date);

CREATE TABLE IF NOT EXISTS time_entries (
	id TEXT PRIMARY KEY,
	source_id TEXT NOT NULL UNIQUE,
	client_id TEXT,
	sprint_id TEXT,
	user_id TEXT NOT NULL,
	entry_date TEXT NOT NULL,
	hours REAL NOT NULL CHECK (hours > 0),
	description TEXT,
	task_category TEXT,
	project_name TEXT,
	tags TEXT NOT NULL DEFAULT '[]',
	updated_at DATETIME NOT NULL,
	FOREIGN KEY (client_id) REFERENCES clients(id),
	FOREIGN KEY (sprint_id) REFERENCES sprints(id),
	FOREIGN KEY (user_id) REFERENCES users(id),
	CHECK (sprint_id IS NULL OR client_id IS NOT NULL)
);

CREATE INDEX IF NOT EXISTS idx_time_entries_sprint ON time_entries(sprint_id);
CREATE INDEX IF NOT EXISTS idx_time_entries_client_date ON time_entries(client_id, entry_date);

CREATE TABLE IF NOT EXISTS sync_runs (
	id TEXT PRIMARY KEY,
	source TEXT NOT NULL,
	started_at DATETIME NOT NULL,
	finished_at DATETIME,
	status TEXT NOT NULL,
	records_processed INTEGER NOT NULL DEFAULT 0,
	records_skipped INTEGER NOT NULL DEFAULT 0,
	skip_reasons TEXT,
	error_message TEXT
);

CREATE INDEX IF NOT EXISTS idx_sync_runs_started ON sync_runs(started_at);
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
