// ABOUTME: Copies a SQLite ledger into another store, typically a shared Postgres database.
// ABOUTME: Provides dry-run and backup capabilities and remaps ids so re-runs are safe.

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/sprintledger/db"
	"github.com/harperreed/sprintledger/db/postgres"
	"github.com/harperreed/sprintledger/models"
)

// target is the write side of a migration. Both store backends satisfy it.
type target interface {
	UpsertClient(ctx context.Context, client *models.Client) error
	UpsertSprint(ctx context.Context, sprint *models.Sprint) error
	CreateUser(ctx context.Context, user *models.User) error
	ListUsers(ctx context.Context) ([]models.User, error)
	UpsertTimeEntry(ctx context.Context, entry *models.TimeEntry) error
	CreateSyncRun(ctx context.Context, run *models.SyncRun) error
	FinishSyncRun(ctx context.Context, run *models.SyncRun) error
	ListSyncRuns(ctx context.Context, limit int) ([]models.SyncRun, error)
	Close() error
}

var (
	_ target = (*db.Store)(nil)
	_ target = (*postgres.Store)(nil)
)

type options struct {
	dryRun bool
	backup bool
	force  bool
}

type counts struct {
	users, clients, sprints, entries, runs int
}

func main() {
	dbPath := flag.String("db", "", "Path to source SQLite database (required)")
	to := flag.String("to", "", "Target: postgres:// URL or SQLite path (required)")
	dryRun := flag.Bool("dry-run", false, "Show what would be copied without writing")
	backup := flag.Bool("backup", true, "Create backup of the source before copying")
	force := flag.Bool("force", false, "Keep going when individual rows fail to copy")
	flag.Parse()

	if *dbPath == "" || *to == "" {
		log.Fatal("Error: -db and -to flags are required")
	}

	ctx := context.Background()
	c, err := migrate(ctx, *dbPath, *to, options{dryRun: *dryRun, backup: *backup, force: *force})
	if err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Printf("Copied %d users, %d clients, %d sprints, %d time entries, %d sync runs",
		c.users, c.clients, c.sprints, c.entries, c.runs)
	log.Println("Migration completed successfully")
}

func migrate(ctx context.Context, dbPath, to string, opts options) (counts, error) {
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return counts{}, fmt.Errorf("database file does not exist: %s", dbPath)
	}

	if opts.backup && !opts.dryRun {
		if err := backupFile(dbPath); err != nil {
			return counts{}, err
		}
	}

	source, err := db.OpenStore(dbPath)
	if err != nil {
		return counts{}, fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = source.Close() }()

	if opts.dryRun {
		log.Println("DRY RUN: nothing will be written")
		return countSource(ctx, source)
	}

	dst, err := openTarget(ctx, to)
	if err != nil {
		return counts{}, err
	}
	defer func() { _ = dst.Close() }()

	return copyLedger(ctx, source, dst, opts.force)
}

func backupFile(dbPath string) error {
	backupPath := fmt.Sprintf("%s.backup.%s", dbPath, time.Now().Format("20060102-150405"))
	log.Printf("Creating backup: %s", backupPath)

	input, err := os.ReadFile(dbPath)
	if err != nil {
		return fmt.Errorf("failed to read database: %w", err)
	}
	if err := os.WriteFile(backupPath, input, 0644); err != nil {
		return fmt.Errorf("failed to create backup: %w", err)
	}
	log.Printf("Backup created successfully")
	return nil
}

func openTarget(ctx context.Context, to string) (target, error) {
	if strings.HasPrefix(to, "postgres://") || strings.HasPrefix(to, "postgresql://") {
		store, err := postgres.Open(ctx, to)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres: %w", err)
		}
		return store, nil
	}
	store, err := db.OpenStore(to)
	if err != nil {
		return nil, fmt.Errorf("failed to open target database: %w", err)
	}
	return store, nil
}

func countSource(ctx context.Context, source *db.Store) (counts, error) {
	var c counts

	users, err := source.ListUsers(ctx)
	if err != nil {
		return c, err
	}
	clients, err := source.ListClients(ctx)
	if err != nil {
		return c, err
	}
	for _, client := range clients {
		sprints, err := source.ListSprints(ctx, client.ID)
		if err != nil {
			return c, err
		}
		c.sprints += len(sprints)
	}
	entries, err := source.ListTimeEntries(ctx)
	if err != nil {
		return c, err
	}
	runs, err := source.ListSyncRuns(ctx, 0)
	if err != nil {
		return c, err
	}

	c.users, c.clients, c.entries, c.runs = len(users), len(clients), len(entries), len(runs)
	log.Printf("Would copy %d users, %d clients, %d sprints, %d time entries, %d sync runs",
		c.users, c.clients, c.sprints, c.entries, c.runs)
	return c, nil
}

// copyLedger writes every source row into dst. Rows keep their natural keys (email, board
// ids, source ids, run ids) so ids in dst may differ and references are remapped.
func copyLedger(ctx context.Context, source *db.Store, dst target, force bool) (counts, error) {
	var c counts
	fail := func(what string, err error) error {
		if force {
			log.Printf("Warning: %s: %v", what, err)
			return nil
		}
		return fmt.Errorf("%s: %w", what, err)
	}

	userIDs, err := copyUsers(ctx, source, dst, &c, fail)
	if err != nil {
		return c, err
	}

	clients, err := source.ListClients(ctx)
	if err != nil {
		return c, err
	}
	clientIDs := make(map[uuid.UUID]uuid.UUID, len(clients))
	sprintIDs := make(map[uuid.UUID]uuid.UUID)
	for _, client := range clients {
		oldID := client.ID
		sprints, err := source.ListSprints(ctx, oldID)
		if err != nil {
			return c, err
		}

		client.ID = uuid.Nil
		client.LeadUserID = remap(client.LeadUserID, userIDs)
		support := client.SupportUserIDs
		client.SupportUserIDs = nil
		for _, uid := range support {
			if mapped := remap(&uid, userIDs); mapped != nil {
				client.SupportUserIDs = append(client.SupportUserIDs, *mapped)
			}
		}
		if err := dst.UpsertClient(ctx, &client); err != nil {
			if err := fail("copy client "+client.Name, err); err != nil {
				return c, err
			}
			continue
		}
		clientIDs[oldID] = client.ID
		c.clients++

		for _, sprint := range sprints {
			oldSprint := sprint.ID
			sprint.ID = uuid.Nil
			sprint.ClientID = client.ID
			if err := dst.UpsertSprint(ctx, &sprint); err != nil {
				if err := fail("copy sprint "+sprint.Name, err); err != nil {
					return c, err
				}
				continue
			}
			sprintIDs[oldSprint] = sprint.ID
			c.sprints++
		}
	}

	entries, err := source.ListTimeEntries(ctx)
	if err != nil {
		return c, err
	}
	for _, entry := range entries {
		userID, ok := userIDs[entry.UserID]
		if !ok {
			if err := fail("copy time entry "+entry.SourceID, fmt.Errorf("user %s was not copied", entry.UserID)); err != nil {
				return c, err
			}
			continue
		}
		entry.ID = uuid.Nil
		entry.UserID = userID
		entry.ClientID = remap(entry.ClientID, clientIDs)
		entry.SprintID = remap(entry.SprintID, sprintIDs)
		if entry.ClientID == nil {
			entry.SprintID = nil
		}
		if err := dst.UpsertTimeEntry(ctx, &entry); err != nil {
			if err := fail("copy time entry "+entry.SourceID, err); err != nil {
				return c, err
			}
			continue
		}
		c.entries++
	}

	if err := copySyncRuns(ctx, source, dst, &c, fail); err != nil {
		return c, err
	}
	return c, nil
}

func copyUsers(ctx context.Context, source *db.Store, dst target, c *counts, fail func(string, error) error) (map[uuid.UUID]uuid.UUID, error) {
	existing, err := dst.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	byEmail := make(map[string]uuid.UUID, len(existing))
	for _, u := range existing {
		byEmail[strings.ToLower(u.Email)] = u.ID
	}

	users, err := source.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	ids := make(map[uuid.UUID]uuid.UUID, len(users))
	for _, user := range users {
		if id, ok := byEmail[strings.ToLower(user.Email)]; ok {
			ids[user.ID] = id
			continue
		}
		oldID := user.ID
		user.ID = uuid.Nil
		if err := dst.CreateUser(ctx, &user); err != nil {
			if err := fail("copy user "+user.Email, err); err != nil {
				return nil, err
			}
			continue
		}
		ids[oldID] = user.ID
		c.users++
	}
	return ids, nil
}

// copySyncRuns copies runs not already present in dst. Finished runs are replayed as
// create then finish so the single-finish rule holds in the target.
func copySyncRuns(ctx context.Context, source *db.Store, dst target, c *counts, fail func(string, error) error) error {
	existing, err := dst.ListSyncRuns(ctx, 0)
	if err != nil {
		return err
	}
	seen := make(map[string]bool, len(existing))
	for _, run := range existing {
		seen[run.ID] = true
	}

	runs, err := source.ListSyncRuns(ctx, 0)
	if err != nil {
		return err
	}
	// Oldest first so the target log fills in the order runs happened.
	for i := len(runs) - 1; i >= 0; i-- {
		run := runs[i]
		if seen[run.ID] {
			continue
		}
		status := run.Status
		run.Status = models.RunRunning
		if err := dst.CreateSyncRun(ctx, &run); err != nil {
			if err := fail("copy sync run "+run.ID, err); err != nil {
				return err
			}
			continue
		}
		if status != models.RunRunning {
			run.Status = status
			if err := dst.FinishSyncRun(ctx, &run); err != nil {
				if err := fail("finish sync run "+run.ID, err); err != nil {
					return err
				}
				continue
			}
		}
		c.runs++
	}
	return nil
}

func remap(id *uuid.UUID, ids map[uuid.UUID]uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	mapped, ok := ids[*id]
	if !ok {
		return nil
	}
	return &mapped
}
