// ABOUTME: MCP server subcommand
// ABOUTME: Serves ledger tools and resources over stdio for agent clients
package cli

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/harperreed/sprintledger/handlers"
)

func newMCPCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.withStore(ctx, func(store ledgerStore) error {
				a.logger.Info("starting MCP server")
				server := newMCPServer(store, a.cfg.Sync.LookbackDays, a.cfg.OverrideMap(), cmd.Root().Version)
				return server.Run(ctx, &mcp.StdioTransport{})
			})
		},
	}
}

func newMCPServer(store handlers.Store, lookbackDays int, overrides map[string]string, version string) *mcp.Server {
	classifyHandlers := handlers.NewClassifyHandlers(store, lookbackDays, overrides)
	sprintHandlers := handlers.NewSprintHandlers(store, overrides)
	runHandlers := handlers.NewRunHandlers(store)
	resourceHandlers := handlers.NewResourceHandlers(store)

	if version == "" {
		version = "dev"
	}
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "sprintledger",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "classify_date",
		Description: "Show which sprint a day of work for a client falls in, or the tag explaining why it falls in none",
	}, classifyHandlers.ClassifyDate)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "resolve_project",
		Description: "Resolve a time-tracking project label to a client and report the matching rule",
	}, classifyHandlers.ResolveProject)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_client_sprints",
		Description: "List a client's sprints with dates, status, KPIs and hours logged",
	}, sprintHandlers.ListClientSprints)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_sync_runs",
		Description: "List recent sync runs with status, counts and skip reasons",
	}, runHandlers.ListSyncRuns)

	server.AddResource(&mcp.Resource{
		URI:         handlers.ClientsURI,
		Name:        "clients",
		Description: "Client catalog",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: handlers.ClientTemplateURI,
		Name:        "client",
		Description: "One client with its sprints and hours logged",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	server.AddResource(&mcp.Resource{
		URI:         handlers.RunsURI,
		Name:        "sync-runs",
		Description: "Recent sync runs",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	return server
}
