// ABOUTME: Board reconciliation pass for clients and their sprints
// ABOUTME: Upserts items as clients and sub-items as sprints, then refreshes sprint status
package sync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/harperreed/sprintledger/metrics"
	"github.com/harperreed/sprintledger/models"
)

// DefaultInactiveKeywords mark a board group whose clients are no longer active.
var DefaultInactiveKeywords = []string{
	"finished", "refunded", "cancelled", "canceled", "completed", "archived", "inactive", "paused",
}

// BoardRef names one board and the region its clients belong to.
type BoardRef struct {
	Region string
	ID     string
}

// BoardOptions configures a BoardSyncer.
type BoardOptions struct {
	InactiveKeywords []string
	Logger           *zap.Logger
	Metrics          *metrics.Recorder
	Now              func() time.Time
}

// BoardSyncer runs the board pass.
type BoardSyncer struct {
	store    Store
	source   BoardSource
	boards   []BoardRef
	inactive []string
	logger   *zap.Logger
	metrics  *metrics.Recorder
	now      func() time.Time
}

// NewBoardSyncer creates a syncer for boards.
func NewBoardSyncer(store Store, source BoardSource, boards []BoardRef, opts BoardOptions) *BoardSyncer {
	s := &BoardSyncer{
		store:   store,
		source:  source,
		boards:  boards,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		now:     opts.Now,
	}
	keywords := opts.InactiveKeywords
	if len(keywords) == 0 {
		keywords = DefaultInactiveKeywords
	}
	for _, k := range keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			s.inactive = append(s.inactive, k)
		}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// IsInactiveGroup reports whether a group title marks its clients inactive.
func (s *BoardSyncer) IsInactiveGroup(title string) bool {
	t := strings.ToLower(title)
	for _, k := range s.inactive {
		if strings.Contains(t, k) {
			return true
		}
	}
	return false
}

// Run performs one pass over every configured board. A board that cannot be fetched is
// skipped; the pass fails only when no board could be fetched at all.
func (s *BoardSyncer) Run(ctx context.Context) (*RunStats, error) {
	stats := newRunStats(models.SourceBoard)

	rec, err := startRun(ctx, s.store, s.logger, s.metrics, s.now, models.SourceBoard)
	if err != nil {
		return nil, fmt.Errorf("failed to create sync run: %w", err)
	}
	stats.RunID = rec.id()
	logger := s.logger.With(zap.String("run_id", rec.id()), zap.String("source", models.SourceBoard))
	logger.Info("starting board sync", zap.Int("boards", len(s.boards)))

	abort := func(cause error) (*RunStats, error) {
		logger.Error("board sync failed", zap.Error(cause))
		_ = rec.fail(ctx, stats, cause)
		return stats, cause
	}

	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return abort(fmt.Errorf("failed to load user catalog: %w", err))
	}
	people := NewUserMatcher(users)

	fetched := 0
	var fetchErrs []error
	for _, ref := range s.boards {
		if err := ctx.Err(); err != nil {
			return abort(err)
		}

		board, err := s.source.GetBoard(ctx, ref.ID)
		if err != nil {
			stats.skip(ReasonBoardFetchFailed)
			s.metrics.RecordSkipped(models.SourceBoard, ReasonBoardFetchFailed)
			fetchErrs = append(fetchErrs, fmt.Errorf("board %s: %w", ref.ID, err))
			logger.Warn("failed to fetch board", zap.String("board", ref.ID), zap.Error(err))
			continue
		}
		fetched++
		s.syncBoard(ctx, logger, stats, people, ref, board)
	}

	if fetched == 0 && len(fetchErrs) > 0 {
		return abort(fmt.Errorf("no board could be fetched: %w", errors.Join(fetchErrs...)))
	}

	refreshed, err := s.store.RefreshSprintStatuses(ctx, s.now().UTC())
	if err != nil {
		return abort(fmt.Errorf("failed to refresh sprint statuses: %w", err))
	}
	logger.Info("refreshed sprint statuses", zap.Int("sprints", refreshed))

	if err := rec.succeed(ctx, stats); err != nil {
		return stats, fmt.Errorf("failed to finish sync run: %w", err)
	}

	logger.Info("board sync complete",
		zap.Int("synced", stats.Processed),
		zap.Int("skipped", stats.Skipped),
		zap.Any("reasons", stats.Reasons))
	return stats, nil
}

func (s *BoardSyncer) syncBoard(ctx context.Context, logger *zap.Logger, stats *RunStats, people *UserMatcher, ref BoardRef, board *Board) {
	for _, group := range board.Groups {
		active := !s.IsInactiveGroup(group.Title)
		logger.Info("processing group",
			zap.String("board", ref.ID),
			zap.String("group", group.Title),
			zap.Bool("active", active),
			zap.Int("items", len(group.Items)))

		for _, item := range group.Items {
			client := s.clientFromItem(item, ref.Region, group.Title, active, people)
			if err := s.store.UpsertClient(ctx, client); err != nil {
				s.skip(stats, ReasonUpsertFailed)
				logger.Warn("failed to upsert client", zap.String("client", item.Name), zap.Error(err))
				continue
			}
			s.synced(stats)

			for _, sub := range item.Subitems {
				if sub.Fields.StartDate == nil || sub.Fields.EndDate == nil {
					s.skip(stats, ReasonMissingDates)
					logger.Warn("skipping sprint without dates",
						zap.String("client", item.Name),
						zap.String("sprint", sub.Name))
					continue
				}

				sprint := s.sprintFromSubitem(sub, client)
				if err := s.store.UpsertSprint(ctx, sprint); err != nil {
					s.skip(stats, ReasonUpsertFailed)
					logger.Warn("failed to upsert sprint",
						zap.String("client", item.Name),
						zap.String("sprint", sub.Name),
						zap.Error(err))
					continue
				}
				s.synced(stats)
				logger.Debug("synced sprint",
					zap.String("client", item.Name),
					zap.String("sprint", sub.Name),
					zap.String("start", models.FormatDate(sprint.StartDate)),
					zap.String("end", models.FormatDate(sprint.EndDate)))
			}
		}
	}
}

func (s *BoardSyncer) clientFromItem(item BoardItem, region, group string, active bool, people *UserMatcher) *models.Client {
	now := s.now().UTC()
	f := item.Fields
	c := &models.Client{
		BoardItemID:       item.ID,
		Name:              strings.TrimSpace(item.Name),
		Region:            region,
		CampaignStartDate: f.CampaignStartDate,
		MonthlyRate:       f.MonthlyRate,
		AgencyValue:       f.AgencyValue,
		SEOLeadName:       f.SEOLeadName,
		Niche:             f.Niche,
		Priority:          f.Priority,
		CampaignType:      f.CampaignType,
		ContractLength:    f.ContractLength,
		ReportStatus:      f.ReportStatus,
		LastReportDate:    f.LastReportDate,
		LastInvoiceDate:   f.LastInvoiceDate,
		GroupName:         group,
		IsActive:          active,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if f.MonthlyRate != nil {
		hours := *f.MonthlyRate / models.HoursPerRateUnit
		c.MonthlyHours = &hours
	}
	if f.LeadPersonID != nil {
		if id, ok := people.ResolvePerson(*f.LeadPersonID); ok {
			c.LeadUserID = &id
		}
	}
	// Support staff without a matching user are dropped.
	for _, pid := range f.SupportPersonIDs {
		if id, ok := people.ResolvePerson(pid); ok {
			c.SupportUserIDs = append(c.SupportUserIDs, id)
		}
	}
	return c
}

func (s *BoardSyncer) sprintFromSubitem(sub BoardSubitem, client *models.Client) *models.Sprint {
	now := s.now().UTC()
	f := sub.Fields
	sp := &models.Sprint{
		BoardSubitemID: sub.ID,
		ClientID:       client.ID,
		Name:           strings.TrimSpace(sub.Name),
		SprintNumber:   f.SprintNumber,
		SprintLabel:    f.SprintLabel,
		StartDate:      models.DateOf(*f.StartDate),
		EndDate:        models.DateOf(*f.EndDate),
		MonthlyRate:    f.MonthlyRate,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if f.KPITarget != nil {
		sp.KPITarget = int(*f.KPITarget)
	}
	if f.KPIAchieved != nil {
		sp.KPIAchieved = int(*f.KPIAchieved)
	}
	sp.Status = models.SprintStatusOn(sp.StartDate, sp.EndDate, now)
	return sp
}

func (s *BoardSyncer) skip(stats *RunStats, reason string) {
	stats.skip(reason)
	s.metrics.RecordSkipped(models.SourceBoard, reason)
}

func (s *BoardSyncer) synced(stats *RunStats) {
	stats.Processed++
	s.metrics.RecordSynced(models.SourceBoard)
}
