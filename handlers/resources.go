// ABOUTME: MCP resource handlers for exposing ledger data
// ABOUTME: Provides read-only access to clients, their sprints and sync runs via URI
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const uriScheme = "ledger://"

// Resource URIs served by ReadResource.
const (
	ClientsURI         = uriScheme + "clients"
	ClientTemplateURI  = uriScheme + "clients/{id}"
	RunsURI            = uriScheme + "runs"
	recentRunsResource = 50
)

type ResourceHandlers struct {
	store Store
}

func NewResourceHandlers(store Store) *ResourceHandlers {
	return &ResourceHandlers{store: store}
}

// ReadResource handles resource read requests
func (h *ResourceHandlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, uriScheme) {
		return nil, fmt.Errorf("invalid URI scheme: expected %s", uriScheme)
	}

	path := strings.TrimPrefix(uri, uriScheme)
	parts := strings.Split(path, "/")

	switch parts[0] {
	case "clients":
		if len(parts) == 1 || parts[1] == "" {
			return h.readAllClients(ctx, uri)
		}
		return h.readClient(ctx, uri, parts[1])

	case "runs":
		return h.readRuns(ctx, uri)

	default:
		return nil, fmt.Errorf("unknown resource: %s", parts[0])
	}
}

func (h *ResourceHandlers) readAllClients(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	clients, err := h.store.ListClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch clients: %w", err)
	}
	return jsonResource(uri, clients)
}

func (h *ResourceHandlers) readClient(ctx context.Context, uri, idStr string) (*mcp.ReadResourceResult, error) {
	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("invalid client ID: %w", err)
	}

	client, err := h.store.GetClient(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch client: %w", err)
	}

	out, err := clientSprints(ctx, h.store, client)
	if err != nil {
		return nil, err
	}
	return jsonResource(uri, out)
}

func (h *ResourceHandlers) readRuns(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	runs, err := h.store.ListSyncRuns(ctx, recentRunsResource)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sync runs: %w", err)
	}
	result := make([]SyncRunOutput, len(runs))
	for i, run := range runs {
		result[i] = syncRunToOutput(run)
	}
	return jsonResource(uri, result)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}
