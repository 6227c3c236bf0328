// ABOUTME: Time-entry reconciliation pass from the time-tracking source
// ABOUTME: Resolves users and projects, classifies entries into sprints and upserts them
package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harperreed/sprintledger/metrics"
	"github.com/harperreed/sprintledger/models"
)

// DefaultDaysBack is the default sync window length.
const DefaultDaysBack = 365

// Window is the inclusive range of days whose entries are fetched.
type Window struct {
	Start time.Time
	End   time.Time
}

// WindowEndingAt returns the daysBack-day window that ends on end's date.
func WindowEndingAt(end time.Time, daysBack int) Window {
	if daysBack <= 0 {
		daysBack = DefaultDaysBack
	}
	e := models.DateOf(end)
	return Window{Start: e.AddDate(0, 0, -daysBack), End: e}
}

// TimeEntryOptions configures a TimeEntrySyncer.
type TimeEntryOptions struct {
	Overrides    map[string]string
	LookbackDays int
	Logger       *zap.Logger
	Metrics      *metrics.Recorder
	Now          func() time.Time
}

// TimeEntrySyncer runs the time-entry pass.
type TimeEntrySyncer struct {
	store     Store
	source    TimeSource
	overrides map[string]string
	lookback  int
	logger    *zap.Logger
	metrics   *metrics.Recorder
	now       func() time.Time
}

// NewTimeEntrySyncer creates a syncer writing to store from source.
func NewTimeEntrySyncer(store Store, source TimeSource, opts TimeEntryOptions) *TimeEntrySyncer {
	s := &TimeEntrySyncer{
		store:     store,
		source:    source,
		overrides: opts.Overrides,
		lookback:  opts.LookbackDays,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
		now:       opts.Now,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// projectInfo is a project resolved once per run.
type projectInfo struct {
	name     string
	clientID *uuid.UUID
}

// Run performs one pass over window. Listing failures for users, projects or the client
// catalog abort the pass and are recorded as an error run; everything else is counted.
func (s *TimeEntrySyncer) Run(ctx context.Context, window Window) (*RunStats, error) {
	stats := newRunStats(models.SourceTimeTracking)

	rec, err := startRun(ctx, s.store, s.logger, s.metrics, s.now, models.SourceTimeTracking)
	if err != nil {
		return nil, fmt.Errorf("failed to create sync run: %w", err)
	}
	stats.RunID = rec.id()

	logger := s.logger.With(zap.String("run_id", rec.id()), zap.String("source", models.SourceTimeTracking))
	logger.Info("starting time entry sync",
		zap.String("from", models.FormatDate(window.Start)),
		zap.String("to", models.FormatDate(window.End)))

	abort := func(cause error) (*RunStats, error) {
		logger.Error("time entry sync failed", zap.Error(cause))
		_ = rec.fail(ctx, stats, cause)
		return stats, cause
	}

	users, err := s.source.ListUsers(ctx)
	if err != nil {
		return abort(fmt.Errorf("failed to list users: %w", err))
	}
	logger.Info("fetched users", zap.Int("count", len(users)))

	projects, err := s.source.ListProjects(ctx)
	if err != nil {
		return abort(fmt.Errorf("failed to list projects: %w", err))
	}
	logger.Info("fetched projects", zap.Int("count", len(projects)))

	clients, err := s.store.ListClients(ctx)
	if err != nil {
		return abort(fmt.Errorf("failed to load client catalog: %w", err))
	}
	internalUsers, err := s.store.ListUsers(ctx)
	if err != nil {
		return abort(fmt.Errorf("failed to load user catalog: %w", err))
	}

	projectMap := s.mapProjects(logger, projects, NewProjectMatcher(clients, s.overrides))
	userMatcher := NewUserMatcher(internalUsers)
	classifier := NewClassifier(NewSprintIndex(s.store), s.lookback)

	for _, u := range users {
		if err := ctx.Err(); err != nil {
			return abort(err)
		}

		if u.Email == "" {
			stats.Reasons[ReasonNoEmail]++
			continue
		}
		userID, ok := userMatcher.ResolveEmail(u.Email)
		if !ok {
			stats.Reasons[ReasonUnknownUser]++
			logger.Info("skipping user not found in system", zap.String("email", u.Email))
			continue
		}

		entries, err := s.source.ListTimeEntries(ctx, u.ID, window.Start, window.End)
		if err != nil {
			stats.Reasons[ReasonUserFetchFailed]++
			logger.Warn("failed to fetch time entries", zap.String("email", u.Email), zap.Error(err))
			continue
		}

		synced := 0
		for _, raw := range entries {
			if s.syncEntry(ctx, logger, stats, classifier, projectMap, userID, raw) {
				synced++
			}
		}
		logger.Info("processed user",
			zap.String("email", u.Email),
			zap.Int("entries", len(entries)),
			zap.Int("synced", synced))
	}

	if err := rec.succeed(ctx, stats); err != nil {
		return stats, fmt.Errorf("failed to finish sync run: %w", err)
	}

	logger.Info("time entry sync complete",
		zap.Int("synced", stats.Processed),
		zap.Int("skipped", stats.Skipped),
		zap.Any("reasons", stats.Reasons),
		zap.Any("tags", stats.Tags))
	return stats, nil
}

func (s *TimeEntrySyncer) mapProjects(logger *zap.Logger, projects []ExternalProject, matcher *ProjectMatcher) map[string]projectInfo {
	out := make(map[string]projectInfo, len(projects))
	for _, p := range projects {
		info := projectInfo{name: p.Name}
		if m, ok := matcher.Resolve(p.Name); ok {
			id := m.ClientID
			info.clientID = &id
			logger.Debug("mapped project",
				zap.String("project", p.Name),
				zap.String("client", m.ClientName),
				zap.String("strategy", string(m.Strategy)))
		} else {
			logger.Info("unmapped project", zap.String("project", p.Name))
		}
		out[p.ID] = info
	}
	return out
}

// syncEntry processes one raw entry and reports whether it was persisted.
func (s *TimeEntrySyncer) syncEntry(
	ctx context.Context,
	logger *zap.Logger,
	stats *RunStats,
	classifier *Classifier,
	projects map[string]projectInfo,
	userID uuid.UUID,
	raw ExternalTimeEntry,
) bool {
	skip := func(reason string) bool {
		stats.skip(reason)
		s.metrics.RecordSkipped(models.SourceTimeTracking, reason)
		return false
	}

	if raw.Start == "" {
		return skip(ReasonNoDate)
	}
	started, err := time.Parse(time.RFC3339, raw.Start)
	if err != nil {
		logger.Debug("unparseable entry start", zap.String("entry", raw.ID), zap.String("start", raw.Start))
		return skip(ReasonNoDate)
	}
	// The calendar day is taken in the offset the tracker recorded, not in UTC.
	entryDate := models.DateOf(started)

	hours, err := ParseDuration(raw.Duration)
	if err != nil {
		logger.Debug("unparseable duration", zap.String("entry", raw.ID), zap.Error(err))
		return skip(ReasonBadDuration)
	}
	if hours == 0 {
		return skip(ReasonNoHours)
	}

	project := projects[raw.ProjectID]
	entry := &models.TimeEntry{
		SourceID:     raw.ID,
		ClientID:     project.clientID,
		UserID:       userID,
		EntryDate:    entryDate,
		Hours:        hours,
		Description:  raw.Description,
		TaskCategory: raw.TaskName,
		ProjectName:  project.name,
		Tags:         []models.Tag{},
		UpdatedAt:    s.now().UTC(),
	}

	var tag string
	if entry.ClientID != nil {
		a, err := classifier.Classify(ctx, entry.ClientID, &entryDate)
		if err != nil {
			logger.Warn("failed to classify entry", zap.String("entry", raw.ID), zap.Error(err))
			return skip(ReasonClassifyFailed)
		}
		entry.SprintID = a.SprintID
		if a.Tag != "" {
			entry.Tags = append(entry.Tags, a.Tag)
			tag = string(a.Tag)
			logger.Debug("tagged entry",
				zap.String("project", project.name),
				zap.String("date", models.FormatDate(entryDate)),
				zap.String("tag", tag))
		}
	} else {
		tag = ReasonNonClientWork
	}

	if err := s.store.UpsertTimeEntry(ctx, entry); err != nil {
		logger.Warn("failed to upsert time entry", zap.String("entry", raw.ID), zap.Error(err))
		return skip(ReasonUpsertFailed)
	}

	stats.Processed++
	s.metrics.RecordSynced(models.SourceTimeTracking)
	if tag != "" {
		stats.Tags[tag]++
		s.metrics.RecordTagged(tag)
	}
	return true
}
