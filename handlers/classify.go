// ABOUTME: Classification MCP tool handlers
// ABOUTME: Implements classify_date and resolve_project over the stored client catalog
package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/harperreed/sprintledger/models"
	"github.com/harperreed/sprintledger/sync"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Store is the read side of the ledger the MCP tools query. Both the SQLite and the
// Postgres stores satisfy it.
type Store interface {
	sync.SprintReader
	ListClients(ctx context.Context) ([]models.Client, error)
	FindClientByName(ctx context.Context, name string) (*models.Client, error)
	SprintHours(ctx context.Context, clientID uuid.UUID) (map[uuid.UUID]float64, error)
	ListSyncRuns(ctx context.Context, limit int) ([]models.SyncRun, error)
}

type ClassifyHandlers struct {
	store        Store
	lookbackDays int
	overrides    map[string]string
}

func NewClassifyHandlers(store Store, lookbackDays int, overrides map[string]string) *ClassifyHandlers {
	return &ClassifyHandlers{store: store, lookbackDays: lookbackDays, overrides: overrides}
}

type ClassifyDateInput struct {
	Client string `json:"client" jsonschema:"Client name or project label (required)"`
	Date   string `json:"date" jsonschema:"Work date as YYYY-MM-DD (required)"`
}

type ClassifyDateOutput struct {
	ClientID   string `json:"client_id"`
	ClientName string `json:"client_name"`
	Date       string `json:"date"`
	SprintID   string `json:"sprint_id,omitempty"`
	SprintName string `json:"sprint_name,omitempty"`
	Tag        string `json:"tag,omitempty"`
}

// ClassifyDate reports which sprint a day of work for a client lands in, or the tag
// explaining why it lands in none.
func (h *ClassifyHandlers) ClassifyDate(ctx context.Context, request *mcp.CallToolRequest, input ClassifyDateInput) (*mcp.CallToolResult, ClassifyDateOutput, error) {
	if strings.TrimSpace(input.Client) == "" {
		return nil, ClassifyDateOutput{}, fmt.Errorf("client is required")
	}
	date, err := models.ParseDate(strings.TrimSpace(input.Date))
	if err != nil {
		return nil, ClassifyDateOutput{}, fmt.Errorf("date must be YYYY-MM-DD: %w", err)
	}

	client, err := findClient(ctx, h.store, input.Client, h.overrides)
	if err != nil {
		return nil, ClassifyDateOutput{}, err
	}

	index := sync.NewSprintIndex(h.store)
	assignment, err := sync.NewClassifier(index, h.lookbackDays).Classify(ctx, &client.ID, &date)
	if err != nil {
		return nil, ClassifyDateOutput{}, fmt.Errorf("failed to classify: %w", err)
	}

	out := ClassifyDateOutput{
		ClientID:   client.ID.String(),
		ClientName: client.Name,
		Date:       models.FormatDate(date),
		Tag:        string(assignment.Tag),
	}
	if assignment.SprintID != nil {
		out.SprintID = assignment.SprintID.String()
		// Already cached by Classify.
		if cs, err := index.Load(ctx, client.ID); err == nil {
			for _, s := range cs.Sprints {
				if s.ID == *assignment.SprintID {
					out.SprintName = s.Name
					break
				}
			}
		}
	}

	return nil, out, nil
}

type ResolveProjectInput struct {
	Project string `json:"project" jsonschema:"Project label from the time tracker (required)"`
}

type ResolveProjectOutput struct {
	Project    string `json:"project"`
	Matched    bool   `json:"matched"`
	ClientID   string `json:"client_id,omitempty"`
	ClientName string `json:"client_name,omitempty"`
	Strategy   string `json:"strategy,omitempty"`
}

// ResolveProject shows which client a project label maps to and which rule matched.
func (h *ClassifyHandlers) ResolveProject(ctx context.Context, request *mcp.CallToolRequest, input ResolveProjectInput) (*mcp.CallToolResult, ResolveProjectOutput, error) {
	if strings.TrimSpace(input.Project) == "" {
		return nil, ResolveProjectOutput{}, fmt.Errorf("project is required")
	}

	clients, err := h.store.ListClients(ctx)
	if err != nil {
		return nil, ResolveProjectOutput{}, fmt.Errorf("failed to list clients: %w", err)
	}

	out := ResolveProjectOutput{Project: input.Project}
	if m, ok := sync.NewProjectMatcher(clients, h.overrides).Resolve(input.Project); ok {
		out.Matched = true
		out.ClientID = m.ClientID.String()
		out.ClientName = m.ClientName
		out.Strategy = string(m.Strategy)
	}
	return nil, out, nil
}

// findClient looks a client up by exact name, then falls back to project label resolution.
func findClient(ctx context.Context, store Store, name string, overrides map[string]string) (*models.Client, error) {
	name = strings.TrimSpace(name)
	client, err := store.FindClientByName(ctx, name)
	if err == nil {
		return client, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("failed to find client: %w", err)
	}

	clients, err := store.ListClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	m, ok := sync.NewProjectMatcher(clients, overrides).Resolve(name)
	if !ok {
		return nil, fmt.Errorf("client %q: %w", name, models.ErrNotFound)
	}
	return store.GetClient(ctx, m.ClientID)
}
