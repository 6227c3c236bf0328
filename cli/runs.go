// ABOUTME: Sync run log CLI commands
// ABOUTME: Lists recent sync runs with their status and skip counts
package cli

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harperreed/sprintledger/handlers"
)

func newRunsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect the sync run log",
	}

	var input handlers.ListSyncRunsInput
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recent sync runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.withStore(ctx, func(store ledgerStore) error {
				_, out, err := handlers.NewRunHandlers(store).ListSyncRuns(ctx, nil, input)
				if err != nil {
					return err
				}
				if len(out.Runs) == 0 {
					fmt.Fprintln(a.out, "No sync runs found")
					return nil
				}

				w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "STARTED\tSOURCE\tSTATUS\tPROCESSED\tSKIPPED\tREASONS\tID")
				fmt.Fprintln(w, "-------\t------\t------\t---------\t-------\t-------\t--")
				for _, r := range out.Runs {
					fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
						r.StartedAt, r.Source, r.Status, r.Processed, r.Skipped, formatReasons(r.SkipReasons), r.ID)
				}
				if err := w.Flush(); err != nil {
					return err
				}
				for _, r := range out.Runs {
					if r.Error != "" {
						fmt.Fprintf(a.out, "\n%s: %s\n", r.ID, r.Error)
					}
				}
				return nil
			})
		},
	}
	listCmd.Flags().IntVar(&input.Limit, "limit", 10, "Maximum runs to show")

	cmd.AddCommand(listCmd)
	return cmd
}

func formatReasons(reasons map[string]int) string {
	if len(reasons) == 0 {
		return "-"
	}
	keys := make([]string, 0, len(reasons))
	for k := range reasons {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%d", k, reasons[k])
	}
	return strings.Join(parts, ",")
}
