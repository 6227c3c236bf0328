// ABOUTME: Data models for billing entities
// ABOUTME: Defines Client, Sprint, User, TimeEntry and SyncRun structs
package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by stores when a keyed record does not exist.
var ErrNotFound = errors.New("not found")

// DateLayout is the calendar-date format used for every date column.
const DateLayout = "2006-01-02"

// HoursPerRateUnit converts a monthly rate into the monthly hour budget.
const HoursPerRateUnit = 190.0

type Client struct {
	ID                uuid.UUID   `json:"id"`
	BoardItemID       int64       `json:"board_item_id"`
	Name              string      `json:"name"`
	Region            string      `json:"region,omitempty"`
	CampaignStartDate *time.Time  `json:"campaign_start_date,omitempty"`
	MonthlyRate       *float64    `json:"monthly_rate,omitempty"`
	MonthlyHours      *float64    `json:"monthly_hours,omitempty"`
	AgencyValue       *float64    `json:"agency_value,omitempty"`
	LeadUserID        *uuid.UUID  `json:"lead_user_id,omitempty"`
	SupportUserIDs    []uuid.UUID `json:"support_user_ids,omitempty"`
	SEOLeadName       string      `json:"seo_lead_name,omitempty"`
	Niche             string      `json:"niche,omitempty"`
	Priority          string      `json:"client_priority,omitempty"`
	CampaignType      string      `json:"campaign_type,omitempty"`
	ContractLength    string      `json:"contract_length,omitempty"`
	ReportStatus      string      `json:"report_status,omitempty"`
	LastReportDate    *time.Time  `json:"last_report_date,omitempty"`
	LastInvoiceDate   *time.Time  `json:"last_invoice_date,omitempty"`
	GroupName         string      `json:"group_name,omitempty"`
	IsActive          bool        `json:"is_active"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

type Sprint struct {
	ID             uuid.UUID `json:"id"`
	BoardSubitemID int64     `json:"board_subitem_id"`
	ClientID       uuid.UUID `json:"client_id"`
	Name           string    `json:"name"`
	SprintNumber   *int      `json:"sprint_number,omitempty"`
	SprintLabel    string    `json:"sprint_label,omitempty"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	MonthlyRate    *float64  `json:"monthly_rate,omitempty"`
	KPITarget      int       `json:"kpi_target"`
	KPIAchieved    int       `json:"kpi_achieved"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// EffectiveRate returns the sprint's monthly rate, falling back to the client's.
func (s *Sprint) EffectiveRate(client *Client) *float64 {
	if s.MonthlyRate != nil {
		return s.MonthlyRate
	}
	if client != nil {
		return client.MonthlyRate
	}
	return nil
}

// Contains reports whether date falls inside the sprint, both bounds inclusive.
func (s *Sprint) Contains(date time.Time) bool {
	d := DateOf(date)
	return !d.Before(DateOf(s.StartDate)) && !d.After(DateOf(s.EndDate))
}

type User struct {
	ID               uuid.UUID `json:"id"`
	Email            string    `json:"email"`
	Name             string    `json:"name,omitempty"`
	ExternalPersonID *int64    `json:"external_person_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

type TimeEntry struct {
	ID           uuid.UUID  `json:"id"`
	SourceID     string     `json:"source_id"`
	ClientID     *uuid.UUID `json:"client_id,omitempty"`
	SprintID     *uuid.UUID `json:"sprint_id,omitempty"`
	UserID       uuid.UUID  `json:"user_id"`
	EntryDate    time.Time  `json:"entry_date"`
	Hours        float64    `json:"hours"`
	Description  string     `json:"description,omitempty"`
	TaskCategory string     `json:"task_category,omitempty"`
	ProjectName  string     `json:"project_name,omitempty"`
	Tags         []Tag      `json:"tags"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type SyncRun struct {
	ID               string         `json:"id"`
	Source           string         `json:"source"`
	StartedAt        time.Time      `json:"started_at"`
	FinishedAt       *time.Time     `json:"finished_at,omitempty"`
	Status           string         `json:"status"`
	RecordsProcessed int            `json:"records_processed"`
	RecordsSkipped   int            `json:"records_skipped"`
	SkipReasons      map[string]int `json:"skip_reasons,omitempty"`
	ErrorMessage     *string        `json:"error_message,omitempty"`
}

// Tag explains why an entry could not be placed cleanly inside a sprint.
type Tag string

const (
	TagPrePeriodAllowance Tag = "pre_period_allowance"
	TagBeforeCampaign     Tag = "before_campaign"
	TagPostPeriodWork     Tag = "post_period_work"
	TagGapBetweenPeriods  Tag = "gap_between_periods"
	TagNoPeriodsDefined   Tag = "no_periods_defined"
)

// Sprint status values.
const (
	SprintUpcoming  = "upcoming"
	SprintActive    = "active"
	SprintCompleted = "completed"
)

// Sync run status values.
const (
	RunRunning = "running"
	RunSuccess = "success"
	RunError   = "error"
)

// Sync sources.
const (
	SourceTimeTracking = "timetracking"
	SourceBoard        = "board"
)

// SprintStatusOn derives a sprint's status from its dates relative to today.
func SprintStatusOn(start, end, today time.Time) string {
	t := DateOf(today)
	switch {
	case DateOf(end).Before(t):
		return SprintCompleted
	case DateOf(start).After(t):
		return SprintUpcoming
	default:
		return SprintActive
	}
}

// DateOf truncates t to its calendar date at UTC midnight.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a UTC calendar date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// FormatDate renders a date using DateLayout.
func FormatDate(t time.Time) string {
	return DateOf(t).Format(DateLayout)
}
