// ABOUTME: Classification CLI commands
// ABOUTME: Shows where a date lands for a client and which client a project label maps to
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harperreed/sprintledger/handlers"
)

func newClassifyCommand(a *app) *cobra.Command {
	var input handlers.ClassifyDateInput
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Show which sprint a day of work for a client falls in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.withStore(ctx, func(store ledgerStore) error {
				h := handlers.NewClassifyHandlers(store, a.cfg.Sync.LookbackDays, a.cfg.OverrideMap())
				_, out, err := h.ClassifyDate(ctx, nil, input)
				if err != nil {
					return err
				}

				fmt.Fprintf(a.out, "Client: %s (ID: %s)\n", out.ClientName, out.ClientID)
				fmt.Fprintf(a.out, "Date:   %s\n", out.Date)
				if out.SprintName != "" {
					fmt.Fprintf(a.out, "Sprint: %s (ID: %s)\n", out.SprintName, out.SprintID)
				} else {
					fmt.Fprintln(a.out, "Sprint: -")
				}
				if out.Tag != "" {
					fmt.Fprintf(a.out, "Tag:    %s\n", out.Tag)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&input.Client, "client", "", "Client name or project label (required)")
	cmd.Flags().StringVar(&input.Date, "date", "", "Work date as YYYY-MM-DD (required)")
	_ = cmd.MarkFlagRequired("client")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func newResolveCommand(a *app) *cobra.Command {
	var input handlers.ResolveProjectInput
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Show which client a time-tracking project label maps to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.withStore(ctx, func(store ledgerStore) error {
				h := handlers.NewClassifyHandlers(store, a.cfg.Sync.LookbackDays, a.cfg.OverrideMap())
				_, out, err := h.ResolveProject(ctx, nil, input)
				if err != nil {
					return err
				}

				if !out.Matched {
					fmt.Fprintf(a.out, "%q does not map to a client (non-client work)\n", out.Project)
					return nil
				}
				fmt.Fprintf(a.out, "%q -> %s (ID: %s) via %s\n", out.Project, out.ClientName, out.ClientID, out.Strategy)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&input.Project, "project", "", "Project label (required)")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}
