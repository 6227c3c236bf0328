// ABOUTME: Contracts for the external collaborators consumed by the sync passes
// ABOUTME: Time-tracking source, work-board source and the persistence store
package sync

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/sprintledger/models"
)

// ExternalUser is a member of the time-tracking workspace.
type ExternalUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// ExternalProject is a time-tracking project.
type ExternalProject struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ExternalTimeEntry is one raw time-tracking record. Start is an RFC 3339 timestamp and
// Duration a PT-prefixed token; either may be empty for running timers.
type ExternalTimeEntry struct {
	ID          string `json:"id"`
	ProjectID   string `json:"project_id,omitempty"`
	TaskName    string `json:"task_name,omitempty"`
	Description string `json:"description,omitempty"`
	Start       string `json:"start,omitempty"`
	Duration    string `json:"duration,omitempty"`
}

// TimeSource enumerates users, projects and time entries. Pagination is the source's concern.
type TimeSource interface {
	ListUsers(ctx context.Context) ([]ExternalUser, error)
	ListProjects(ctx context.Context) ([]ExternalProject, error)
	ListTimeEntries(ctx context.Context, userID string, start, end time.Time) ([]ExternalTimeEntry, error)
}

// ClientFields are the typed columns of a board item.
type ClientFields struct {
	CampaignStartDate *time.Time
	MonthlyRate       *float64
	AgencyValue       *float64
	LeadPersonID      *int64
	SupportPersonIDs  []int64
	SEOLeadName       string
	Niche             string
	Priority          string
	CampaignType      string
	ContractLength    string
	ReportStatus      string
	LastReportDate    *time.Time
	LastInvoiceDate   *time.Time
}

// SprintFields are the typed columns of a board sub-item.
type SprintFields struct {
	StartDate    *time.Time
	EndDate      *time.Time
	SprintLabel  string
	SprintNumber *int
	MonthlyRate  *float64
	KPITarget    *float64
	KPIAchieved  *float64
}

type BoardSubitem struct {
	ID     int64
	Name   string
	Fields SprintFields
}

type BoardItem struct {
	ID       int64
	Name     string
	Fields   ClientFields
	Subitems []BoardSubitem
}

// BoardGroup is a lifecycle bucket on the board; its title decides client activity.
type BoardGroup struct {
	Title string
	Items []BoardItem
}

type Board struct {
	ID     string
	Name   string
	Groups []BoardGroup
}

// BoardSource fetches a whole board with items and sub-items.
type BoardSource interface {
	GetBoard(ctx context.Context, boardID string) (*Board, error)
}

// SprintReader is the read side the SprintIndex needs.
type SprintReader interface {
	GetClient(ctx context.Context, id uuid.UUID) (*models.Client, error)
	ListSprints(ctx context.Context, clientID uuid.UUID) ([]models.Sprint, error)
}

// RunLog persists Sync Run Log records.
type RunLog interface {
	CreateSyncRun(ctx context.Context, run *models.SyncRun) error
	FinishSyncRun(ctx context.Context, run *models.SyncRun) error
}

// Store is the keyed relational store both passes write to.
type Store interface {
	SprintReader
	RunLog
	ListClients(ctx context.Context) ([]models.Client, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpsertClient(ctx context.Context, client *models.Client) error
	UpsertSprint(ctx context.Context, sprint *models.Sprint) error
	UpsertTimeEntry(ctx context.Context, entry *models.TimeEntry) error
	RefreshSprintStatuses(ctx context.Context, today time.Time) (int, error)
}
