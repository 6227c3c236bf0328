// ABOUTME: File-backed time-tracking source read from a JSON export
// ABOUTME: Serves users, projects and per-user entries through the page loop
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/harperreed/sprintledger/models"
	"github.com/harperreed/sprintledger/sync"
)

// TimeExport is the on-disk layout of a time-tracking export.
type TimeExport struct {
	Users    []sync.ExternalUser                 `json:"users"`
	Projects []sync.ExternalProject              `json:"projects"`
	Entries  map[string][]sync.ExternalTimeEntry `json:"time_entries"`
}

// TimeSnapshot implements sync.TimeSource over a TimeExport.
type TimeSnapshot struct {
	export TimeExport
	pages  PageOptions
	logger *zap.Logger
}

// NewTimeSnapshot wraps an already-decoded export.
func NewTimeSnapshot(export TimeExport, pages PageOptions, logger *zap.Logger) *TimeSnapshot {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimeSnapshot{export: export, pages: pages, logger: logger}
}

// LoadTimeSnapshot reads an export from path.
func LoadTimeSnapshot(path string, pages PageOptions, logger *zap.Logger) (*TimeSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read time snapshot: %w", err)
	}
	var export TimeExport
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, fmt.Errorf("failed to parse time snapshot %s: %w", path, err)
	}
	return NewTimeSnapshot(export, pages, logger), nil
}

func (s *TimeSnapshot) ListUsers(ctx context.Context) ([]sync.ExternalUser, error) {
	return Paginate(ctx, s.logger, "users", s.pages, func(_ context.Context, page, size int) ([]sync.ExternalUser, error) {
		return slicePage(s.export.Users, page, size), nil
	})
}

func (s *TimeSnapshot) ListProjects(ctx context.Context) ([]sync.ExternalProject, error) {
	return Paginate(ctx, s.logger, "projects", s.pages, func(_ context.Context, page, size int) ([]sync.ExternalProject, error) {
		return slicePage(s.export.Projects, page, size), nil
	})
}

// ListTimeEntries returns the user's entries whose start falls on a day in [start, end].
// Entries without a parseable start are passed through for the orchestrator to count.
func (s *TimeSnapshot) ListTimeEntries(ctx context.Context, userID string, start, end time.Time) ([]sync.ExternalTimeEntry, error) {
	from, to := models.DateOf(start), models.DateOf(end)

	var inWindow []sync.ExternalTimeEntry
	for _, e := range s.export.Entries[userID] {
		t, err := time.Parse(time.RFC3339, e.Start)
		if err != nil {
			inWindow = append(inWindow, e)
			continue
		}
		d := models.DateOf(t)
		if d.Before(from) || d.After(to) {
			continue
		}
		inWindow = append(inWindow, e)
	}

	return Paginate(ctx, s.logger, "time entries", s.pages, func(_ context.Context, page, size int) ([]sync.ExternalTimeEntry, error) {
		return slicePage(inWindow, page, size), nil
	})
}
