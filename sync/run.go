// ABOUTME: Run statistics and Sync Run Log bookkeeping shared by both passes
// ABOUTME: Opens a running record, then closes it once as success or error
package sync

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/harperreed/sprintledger/metrics"
	"github.com/harperreed/sprintledger/models"
)

// Skip reasons shared by the passes.
const (
	ReasonNoHours          = "no_hours"
	ReasonBadDuration      = "bad_duration"
	ReasonNoDate           = "no_date"
	ReasonUpsertFailed     = "upsert_failed"
	ReasonClassifyFailed   = "classify_failed"
	ReasonUserFetchFailed  = "user_fetch_failed"
	ReasonUnknownUser      = "unknown_user"
	ReasonNoEmail          = "no_email"
	ReasonMissingDates     = "missing_dates"
	ReasonBoardFetchFailed = "board_fetch_failed"
	ReasonNonClientWork    = "non_client_work"
)

// RunStats summarises one pass.
type RunStats struct {
	RunID     string
	Source    string
	Processed int
	Skipped   int
	// Reasons counts skipped records by reason.
	Reasons map[string]int
	// Tags counts persisted entries by classification tag, plus non_client_work.
	Tags map[string]int
}

func newRunStats(source string) *RunStats {
	return &RunStats{
		Source:  source,
		Reasons: make(map[string]int),
		Tags:    make(map[string]int),
	}
}

func (s *RunStats) skip(reason string) {
	s.Skipped++
	s.Reasons[reason]++
}

// NewRunID returns a time-sortable ULID for a sync run. IDs minted within the same
// millisecond still sort in creation order.
func NewRunID(now time.Time) string {
	return ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String()
}

// runRecorder owns the Sync Run Log record of one pass.
type runRecorder struct {
	log     RunLog
	logger  *zap.Logger
	metrics *metrics.Recorder
	now     func() time.Time
	run     *models.SyncRun
}

func startRun(ctx context.Context, log RunLog, logger *zap.Logger, rec *metrics.Recorder, now func() time.Time, source string) (*runRecorder, error) {
	started := now().UTC()
	r := &runRecorder{
		log:     log,
		logger:  logger,
		metrics: rec,
		now:     now,
		run: &models.SyncRun{
			ID:        NewRunID(started),
			Source:    source,
			StartedAt: started,
			Status:    models.RunRunning,
		},
	}
	if err := log.CreateSyncRun(ctx, r.run); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *runRecorder) id() string {
	return r.run.ID
}

// succeed closes the record with the pass totals.
func (r *runRecorder) succeed(ctx context.Context, stats *RunStats) error {
	r.run.Status = models.RunSuccess
	r.fill(stats)
	return r.finish(ctx)
}

// fail closes the record as an error, keeping whatever counts were reached.
func (r *runRecorder) fail(ctx context.Context, stats *RunStats, cause error) error {
	r.run.Status = models.RunError
	msg := cause.Error()
	r.run.ErrorMessage = &msg
	r.fill(stats)
	return r.finish(ctx)
}

func (r *runRecorder) fill(stats *RunStats) {
	if stats == nil {
		return
	}
	r.run.RecordsProcessed = stats.Processed
	r.run.RecordsSkipped = stats.Skipped
	if len(stats.Reasons) > 0 {
		r.run.SkipReasons = make(map[string]int, len(stats.Reasons))
		for k, v := range stats.Reasons {
			r.run.SkipReasons[k] = v
		}
	}
}

func (r *runRecorder) finish(ctx context.Context) error {
	finished := r.now().UTC()
	r.run.FinishedAt = &finished
	r.metrics.RecordRun(r.run.Source, r.run.StartedAt, finished, r.run.Status == models.RunSuccess)

	// Finishing must not be skipped because the pass was cancelled.
	if err := r.log.FinishSyncRun(context.WithoutCancel(ctx), r.run); err != nil {
		r.logger.Warn("failed to finish sync run",
			zap.String("run_id", r.run.ID),
			zap.String("status", r.run.Status),
			zap.Error(err))
		return err
	}
	return nil
}
