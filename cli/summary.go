// ABOUTME: Terminal rendering of sync run results
// ABOUTME: Draws a bordered summary of processed, skipped and tagged counts
package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/sprintledger/models"
	"github.com/harperreed/sprintledger/sync"
)

var (
	summaryBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("12")).
			Padding(0, 1)

	summaryTitleStyle = lipgloss.NewStyle().
				Bold(true)

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("10")).
		Bold(true)

	failStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))
)

var passTitles = map[string]string{
	models.SourceTimeTracking: "Time-tracking sync",
	models.SourceBoard:        "Board sync",
}

// renderSummary formats one pass result. stats may be nil when the run never started.
func renderSummary(source string, stats *sync.RunStats, runErr error) string {
	var b strings.Builder

	status := okStyle.Render("✓ success")
	if runErr != nil {
		status = failStyle.Render("✗ failed")
	}
	fmt.Fprintf(&b, "%s  %s\n", summaryTitleStyle.Render(passTitles[source]), status)

	if stats != nil {
		if stats.RunID != "" {
			fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("run:"), stats.RunID)
		}
		fmt.Fprintf(&b, "%s %d  %s %d\n",
			labelStyle.Render("processed:"), stats.Processed,
			labelStyle.Render("skipped:"), stats.Skipped)
		writeCounts(&b, "skip reasons", stats.Reasons)
		writeCounts(&b, "tags", stats.Tags)
	}

	if runErr != nil {
		fmt.Fprintf(&b, "%s %v\n", labelStyle.Render("error:"), runErr)
	}

	return summaryBoxStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func writeCounts(b *strings.Builder, title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintf(b, "%s\n", labelStyle.Render(title+":"))
	for _, k := range keys {
		fmt.Fprintf(b, "  %-22s %d\n", k, counts[k])
	}
}
