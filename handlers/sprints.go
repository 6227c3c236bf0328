// ABOUTME: Sprint and sync-run MCP tool handlers
// ABOUTME: Implements list_client_sprints and list_sync_runs
package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/sprintledger/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type SprintHandlers struct {
	store     Store
	overrides map[string]string
}

// NewSprintHandlers resolves client arguments with the same override table as ClassifyHandlers.
func NewSprintHandlers(store Store, overrides map[string]string) *SprintHandlers {
	return &SprintHandlers{store: store, overrides: overrides}
}

type ListClientSprintsInput struct {
	Client string `json:"client" jsonschema:"Client name or project label (required)"`
}

type SprintOutput struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Number      *int     `json:"number,omitempty"`
	StartDate   string   `json:"start_date"`
	EndDate     string   `json:"end_date"`
	Status      string   `json:"status"`
	MonthlyRate *float64 `json:"monthly_rate,omitempty"`
	KPITarget   int      `json:"kpi_target"`
	KPIAchieved int      `json:"kpi_achieved"`
	HoursLogged float64  `json:"hours_logged"`
}

type ListClientSprintsOutput struct {
	ClientID      string         `json:"client_id"`
	ClientName    string         `json:"client_name"`
	Region        string         `json:"region,omitempty"`
	IsActive      bool           `json:"is_active"`
	CampaignStart string         `json:"campaign_start_date,omitempty"`
	MonthlyHours  *float64       `json:"monthly_hours,omitempty"`
	Sprints       []SprintOutput `json:"sprints"`
}

func (h *SprintHandlers) ListClientSprints(ctx context.Context, request *mcp.CallToolRequest, input ListClientSprintsInput) (*mcp.CallToolResult, ListClientSprintsOutput, error) {
	if strings.TrimSpace(input.Client) == "" {
		return nil, ListClientSprintsOutput{}, fmt.Errorf("client is required")
	}

	client, err := findClient(ctx, h.store, input.Client, h.overrides)
	if err != nil {
		return nil, ListClientSprintsOutput{}, err
	}
	out, err := clientSprints(ctx, h.store, client)
	if err != nil {
		return nil, ListClientSprintsOutput{}, err
	}
	return nil, out, nil
}

func clientSprints(ctx context.Context, store Store, client *models.Client) (ListClientSprintsOutput, error) {
	sprints, err := store.ListSprints(ctx, client.ID)
	if err != nil {
		return ListClientSprintsOutput{}, fmt.Errorf("failed to list sprints: %w", err)
	}
	hours, err := store.SprintHours(ctx, client.ID)
	if err != nil {
		return ListClientSprintsOutput{}, fmt.Errorf("failed to sum sprint hours: %w", err)
	}

	out := ListClientSprintsOutput{
		ClientID:     client.ID.String(),
		ClientName:   client.Name,
		Region:       client.Region,
		IsActive:     client.IsActive,
		MonthlyHours: client.MonthlyHours,
		Sprints:      make([]SprintOutput, len(sprints)),
	}
	if client.CampaignStartDate != nil {
		out.CampaignStart = models.FormatDate(*client.CampaignStartDate)
	}
	for i := range sprints {
		s := &sprints[i]
		out.Sprints[i] = SprintOutput{
			ID:          s.ID.String(),
			Name:        s.Name,
			Number:      s.SprintNumber,
			StartDate:   models.FormatDate(s.StartDate),
			EndDate:     models.FormatDate(s.EndDate),
			Status:      s.Status,
			MonthlyRate: s.EffectiveRate(client),
			KPITarget:   s.KPITarget,
			KPIAchieved: s.KPIAchieved,
			HoursLogged: hours[s.ID],
		}
	}
	return out, nil
}

type RunHandlers struct {
	store Store
}

func NewRunHandlers(store Store) *RunHandlers {
	return &RunHandlers{store: store}
}

type ListSyncRunsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"Maximum number of runs, newest first (default 10)"`
}

type SyncRunOutput struct {
	ID          string         `json:"id"`
	Source      string         `json:"source"`
	Status      string         `json:"status"`
	StartedAt   string         `json:"started_at"`
	FinishedAt  string         `json:"finished_at,omitempty"`
	Processed   int            `json:"records_processed"`
	Skipped     int            `json:"records_skipped"`
	SkipReasons map[string]int `json:"skip_reasons,omitempty"`
	Error       string         `json:"error,omitempty"`
}

type ListSyncRunsOutput struct {
	Runs []SyncRunOutput `json:"runs"`
}

func (h *RunHandlers) ListSyncRuns(ctx context.Context, request *mcp.CallToolRequest, input ListSyncRunsInput) (*mcp.CallToolResult, ListSyncRunsOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}

	runs, err := h.store.ListSyncRuns(ctx, limit)
	if err != nil {
		return nil, ListSyncRunsOutput{}, fmt.Errorf("failed to list sync runs: %w", err)
	}

	result := make([]SyncRunOutput, len(runs))
	for i, run := range runs {
		result[i] = syncRunToOutput(run)
	}
	return nil, ListSyncRunsOutput{Runs: result}, nil
}

func syncRunToOutput(run models.SyncRun) SyncRunOutput {
	out := SyncRunOutput{
		ID:          run.ID,
		Source:      run.Source,
		Status:      run.Status,
		StartedAt:   run.StartedAt.UTC().Format(time.RFC3339),
		Processed:   run.RecordsProcessed,
		Skipped:     run.RecordsSkipped,
		SkipReasons: run.SkipReasons,
	}
	if run.FinishedAt != nil {
		out.FinishedAt = run.FinishedAt.UTC().Format(time.RFC3339)
	}
	if run.ErrorMessage != nil {
		out.Error = *run.ErrorMessage
	}
	return out
}
