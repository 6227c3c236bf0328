// ABOUTME: Client table operations
// ABOUTME: Upsert keyed on the board item id plus catalog reads for the resolver
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/sprintledger/models"
)

const clientColumns = `id, board_item_id, name, region, campaign_start_date, monthly_rate, monthly_hours,
	agency_value, lead_user_id, support_user_ids, seo_lead_name, niche, client_priority, campaign_type,
	contract_length, report_status, last_report_date, last_invoice_date, group_name, is_active,
	created_at, updated_at`

// UpsertClient inserts or updates a client keyed on its board item id and sets client.ID to
// the stored row's id.
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

	support, err := supportJSON(client.SupportUserIDs)
	if err != nil {
		return err
	}

	var id string
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO clients (`+clientColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(board_item_id) DO UPDATE SET
			name = excluded.name,
			region = excluded.region,
			campaign_start_date = excluded.campaign_start_date,
			monthly_rate = excluded.monthly_rate,
			monthly_hours = excluded.monthly_hours,
			agency_value = excluded.agency_value,
			lead_user_id = excluded.lead_user_id,
			support_user_ids = excluded.support_user_ids,
			seo_lead_name = excluded.seo_lead_name,
			niche = excluded.niche,
			client_priority = excluded.client_priority,
			campaign_type = excluded.campaign_type,
			contract_length = excluded.contract_length,
			report_status = excluded.report_status,
			last_report_date = excluded.last_report_date,
			last_invoice_date = excluded.last_invoice_date,
			group_name = excluded.group_name,
			is_active = excluded.is_active,
			updated_at = excluded.updated_at
		RETURNING id
	`,
		client.ID.String(),
		client.BoardItemID,
		client.Name,
		nullString(client.Region),
		nullDate(client.CampaignStartDate),
		nullFloat(client.MonthlyRate),
		nullFloat(client.MonthlyHours),
		nullFloat(client.AgencyValue),
		nullUUID(client.LeadUserID),
		support,
		nullString(client.SEOLeadName),
		nullString(client.Niche),
		nullString(client.Priority),
		nullString(client.CampaignType),
		nullString(client.ContractLength),
		nullString(client.ReportStatus),
		nullDate(client.LastReportDate),
		nullDate(client.LastInvoiceDate),
		nullString(client.GroupName),
		client.IsActive,
		client.CreatedAt,
		client.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("failed to upsert client %q: %w", client.Name, err)
	}

	client.ID, err = uuid.Parse(id)
	return err
}

// GetClient returns the client with id or models.ErrNotFound.
func (s *Store) GetClient(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = ?`, id.String())
	c, err := scanClient(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("client %s: %w", id, models.ErrNotFound)
	}
	return c, err
}

// FindClientByName looks a client up by case-insensitive exact name.
func (s *Store) FindClientByName(ctx context.Context, name string) (*models.Client, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+clientColumns+` FROM clients
		WHERE LOWER(name) = ?
		ORDER BY id
		LIMIT 1
	`, strings.ToLower(strings.TrimSpace(name)))
	c, err := scanClient(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("client %q: %w", name, models.ErrNotFound)
	}
	return c, err
}

// ListClients returns the catalog ordered by name, then id.
func (s *Store) ListClients(ctx context.Context) ([]models.Client, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+clientColumns+` FROM clients ORDER BY name, id`)
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

type scanner interface {
	Scan(dest ...any) error
}

func scanClient(row scanner) (*models.Client, error) {
	var c models.Client
	var id string
	var region, campaignStart, leadUserID, support, groupName sql.NullString
	var seoLead, niche, priority, campaignType, contractLength, reportStatus sql.NullString
	var lastReport, lastInvoice sql.NullString
	var rate, hours, value sql.NullFloat64

	err := row.Scan(
		&id,
		&c.BoardItemID,
		&c.Name,
		&region,
		&campaignStart,
		&rate,
		&hours,
		&value,
		&leadUserID,
		&support,
		&seoLead,
		&niche,
		&priority,
		&campaignType,
		&contractLength,
		&reportStatus,
		&lastReport,
		&lastInvoice,
		&groupName,
		&c.IsActive,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if c.ID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	if c.CampaignStartDate, err = scanDate(campaignStart); err != nil {
		return nil, err
	}
	if c.LeadUserID, err = scanUUID(leadUserID); err != nil {
		return nil, err
	}
	if c.LastReportDate, err = scanDate(lastReport); err != nil {
		return nil, err
	}
	if c.LastInvoiceDate, err = scanDate(lastInvoice); err != nil {
		return nil, err
	}
	if support.Valid && support.String != "" {
		if err := json.Unmarshal([]byte(support.String), &c.SupportUserIDs); err != nil {
			return nil, fmt.Errorf("failed to decode support users: %w", err)
		}
	}
	c.SEOLeadName = seoLead.String
	c.Niche = niche.String
	c.Priority = priority.String
	c.CampaignType = campaignType.String
	c.ContractLength = contractLength.String
	c.ReportStatus = reportStatus.String
	c.Region = region.String
	c.GroupName = groupName.String
	c.MonthlyRate = scanFloat(rate)
	c.MonthlyHours = scanFloat(hours)
	c.AgencyValue = scanFloat(value)
	return &c, nil
}

// supportJSON stores support staff as a JSON array; an empty list is NULL.
func supportJSON(ids []uuid.UUID) (sql.NullString, error) {
	if len(ids) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}
