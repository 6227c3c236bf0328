// ABOUTME: Sync CLI commands
// ABOUTME: Runs the board pass and the time-entry pass against snapshot sources
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/harperreed/sprintledger/models"
	"github.com/harperreed/sprintledger/snapshot"
	"github.com/harperreed/sprintledger/sync"
)

type timeFlags struct {
	days     int
	snapshot string
}

func newSyncCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run sync passes",
	}

	var tf timeFlags
	timeCmd := &cobra.Command{
		Use:   "time",
		Short: "Sync time entries and assign them to sprints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			defer a.writeMetrics()
			return a.withStore(ctx, func(store ledgerStore) error {
				return a.runTimeSync(ctx, store, tf)
			})
		},
	}
	addTimeFlags(timeCmd, &tf)

	boardCmd := &cobra.Command{
		Use:   "board",
		Short: "Sync clients and sprints from the project boards",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			defer a.writeMetrics()
			return a.withStore(ctx, func(store ledgerStore) error {
				return a.runBoardSync(ctx, store)
			})
		},
	}

	var af timeFlags
	allCmd := &cobra.Command{
		Use:   "all",
		Short: "Run the board pass, then the time-entry pass",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			defer a.writeMetrics()
			return a.withStore(ctx, func(store ledgerStore) error {
				// Time entries are classified against whatever sprints the board pass left behind.
				boardErr := a.runBoardSync(ctx, store)
				timeErr := a.runTimeSync(ctx, store, af)
				return errors.Join(boardErr, timeErr)
			})
		},
	}
	addTimeFlags(allCmd, &af)

	cmd.AddCommand(timeCmd, boardCmd, allCmd)
	return cmd
}

func addTimeFlags(cmd *cobra.Command, tf *timeFlags) {
	cmd.Flags().IntVar(&tf.days, "days", 0, "Days of history to sync (default: sync.days_back)")
	cmd.Flags().StringVar(&tf.snapshot, "snapshot", "", "Time-tracking export file (default: sync.time_snapshot)")
}

func (a *app) pageOptions() snapshot.PageOptions {
	return snapshot.PageOptions{PageSize: a.cfg.Sync.PageSize, MaxPages: a.cfg.Sync.MaxPages}
}

func (a *app) runTimeSync(ctx context.Context, store ledgerStore, tf timeFlags) error {
	path := tf.snapshot
	if path == "" {
		path = a.cfg.Sync.TimeSnapshot
	}
	if path == "" {
		return fmt.Errorf("no time-tracking export configured: set sync.time_snapshot or pass --snapshot")
	}

	source, err := snapshot.LoadTimeSnapshot(path, a.pageOptions(), a.logger)
	if err != nil {
		return err
	}

	days := tf.days
	if days <= 0 {
		days = a.cfg.Sync.DaysBack
	}

	syncer := sync.NewTimeEntrySyncer(store, source, sync.TimeEntryOptions{
		Overrides:    a.cfg.OverrideMap(),
		LookbackDays: a.cfg.Sync.LookbackDays,
		Logger:       a.logger,
		Metrics:      a.metrics,
		Now:          a.now,
	})
	stats, err := syncer.Run(ctx, sync.WindowEndingAt(a.now(), days))
	fmt.Fprintln(a.out, renderSummary(models.SourceTimeTracking, stats, err))
	return err
}

func (a *app) runBoardSync(ctx context.Context, store ledgerStore) error {
	if len(a.cfg.Boards) == 0 {
		return fmt.Errorf("no boards configured")
	}

	refs := make([]sync.BoardRef, 0, len(a.cfg.Boards))
	exports := make([]snapshot.BoardExport, 0, len(a.cfg.Boards))
	for _, b := range a.cfg.Boards {
		refs = append(refs, sync.BoardRef{Region: b.Region, ID: b.ID})
		if b.Snapshot == "" {
			a.logger.Warn("board has no export configured", zap.String("board", b.ID))
			continue
		}
		export, err := snapshot.LoadBoardExport(b.Snapshot)
		if err != nil {
			// Surfaces as board_fetch_failed in the run.
			a.logger.Warn("failed to load board export", zap.String("board", b.ID), zap.Error(err))
			continue
		}
		if export.ID == "" {
			export.ID = b.ID
		}
		exports = append(exports, export)
	}

	source := snapshot.NewBoardSnapshot(exports, snapshot.DefaultFieldNames, a.pageOptions(), a.logger)
	syncer := sync.NewBoardSyncer(store, source, refs, sync.BoardOptions{
		InactiveKeywords: a.cfg.Sync.InactiveKeywords,
		Logger:           a.logger,
		Metrics:          a.metrics,
		Now:              a.now,
	})
	stats, err := syncer.Run(ctx)
	fmt.Fprintln(a.out, renderSummary(models.SourceBoard, stats, err))
	return err
}
