// ABOUTME: Root command and shared wiring for the sprintledger CLI
// ABOUTME: Loads configuration, builds the logger and opens the configured store
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/harperreed/sprintledger/config"
	"github.com/harperreed/sprintledger/db"
	"github.com/harperreed/sprintledger/db/postgres"
	"github.com/harperreed/sprintledger/handlers"
	"github.com/harperreed/sprintledger/logging"
	"github.com/harperreed/sprintledger/metrics"
	"github.com/harperreed/sprintledger/models"
	"github.com/harperreed/sprintledger/sync"
)

// ledgerStore is everything the commands need from a backing store.
type ledgerStore interface {
	sync.Store
	handlers.Store
	CreateUser(ctx context.Context, user *models.User) error
	Close() error
}

// app carries state shared by every subcommand.
type app struct {
	configPath string
	dbPath     string

	cfg     *config.Config
	logger  *zap.Logger
	metrics *metrics.Recorder

	out io.Writer
	now func() time.Time
}

// Execute is the entry point called from main.
func Execute(version string) {
	if err := NewRootCommand(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// NewRootCommand builds the command tree.
func NewRootCommand(version string) *cobra.Command {
	return newRootCommand(&app{out: os.Stdout, now: time.Now}, version)
}

func newRootCommand(a *app, version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "sprintledger",
		Short: "Reconcile tracked time against client sprints",
		Long: `sprintledger syncs client sprints from project boards and time entries from the
time tracker into one ledger, assigning every entry to the sprint it belongs to or
tagging why it cannot be.`,
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return a.load() },
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.SetOut(a.out)

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file (default: $XDG_CONFIG_HOME/sprintledger/config.yaml)")
	root.PersistentFlags().StringVar(&a.dbPath, "db-path", "", "SQLite database path (overrides database.path)")

	root.AddCommand(
		newSyncCommand(a),
		newClassifyCommand(a),
		newResolveCommand(a),
		newUsersCommand(a),
		newRunsCommand(a),
		newMCPCommand(a),
	)
	return root
}

func (a *app) load() error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.dbPath != "" {
		cfg.Database.Driver = config.DriverSQLite
		cfg.Database.Path = a.dbPath
	}
	a.cfg = cfg

	logger, err := logging.New(logging.Config{Level: cfg.Log.Level, JSON: cfg.Log.JSON})
	if err != nil {
		return err
	}
	a.logger = logger
	a.metrics = metrics.New()
	return nil
}

func (a *app) openStore(ctx context.Context) (ledgerStore, error) {
	switch a.cfg.Database.Driver {
	case config.DriverPostgres:
		store, err := postgres.Open(ctx, a.cfg.Database.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres: %w", err)
		}
		return store, nil
	default:
		store, err := db.OpenStore(a.cfg.Database.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open database %s: %w", a.cfg.Database.Path, err)
		}
		a.logger.Debug("opened database", zap.String("path", a.cfg.Database.Path))
		return store, nil
	}
}

// withStore opens the store, runs fn and closes the store again.
func (a *app) withStore(ctx context.Context, fn func(store ledgerStore) error) error {
	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	return fn(store)
}

// writeMetrics flushes run metrics for the node-exporter textfile collector when configured.
func (a *app) writeMetrics() {
	path := a.cfg.Metrics.Textfile
	if path == "" {
		return
	}
	if err := a.metrics.WriteTextfile(path); err != nil {
		a.logger.Warn("failed to write metrics textfile", zap.String("path", path), zap.Error(err))
		return
	}
	totals, err := a.metrics.CounterTotals()
	if err != nil {
		a.logger.Warn("failed to gather metrics", zap.Error(err))
		return
	}
	a.logger.Debug("wrote metrics textfile", zap.String("path", path), zap.Any("totals", totals))
}
