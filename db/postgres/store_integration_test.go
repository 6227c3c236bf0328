//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/harperreed/sprintledger/models"
	"github.com/harperreed/sprintledger/sync"
)

var _ sync.Store = (*Store)(nil)

func setupStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	pg, err := postgrescontainer.Run(ctx, "postgres:16-alpine",
		postgrescontainer.WithDatabase("sprintledger"),
		postgrescontainer.WithUsername("ledger"),
		postgrescontainer.WithPassword("ledger"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	store, err := Open(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := models.ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestPostgresStoreRoundTrip(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	// Schema creation is idempotent.
	require.NoError(t, store.InitSchema(ctx))

	person := int64(777)
	lead := &models.User{Email: "lead@agency.io", ExternalPersonID: &person}
	require.NoError(t, store.CreateUser(ctx, lead))
	assert.Error(t, store.CreateUser(ctx, &models.User{Email: "LEAD@agency.io"}))

	start := day(t, "2025-02-25")
	rate := 3800.0
	client := &models.Client{BoardItemID: 11, Name: "Sovereign Interiors", CampaignStartDate: &start,
		MonthlyRate: &rate, LeadUserID: &lead.ID, IsActive: true}
	require.NoError(t, store.UpsertClient(ctx, client))

	again := &models.Client{BoardItemID: 11, Name: "Sovereign Interiors", CampaignStartDate: &start, IsActive: true}
	require.NoError(t, store.UpsertClient(ctx, again))
	assert.Equal(t, client.ID, again.ID)

	got, err := store.FindClientByName(ctx, "sovereign interiors")
	require.NoError(t, err)
	require.NotNil(t, got.CampaignStartDate)
	assert.Equal(t, "2025-02-25", models.FormatDate(*got.CampaignStartDate))
	assert.Nil(t, got.MonthlyRate)

	_, err = store.GetClient(ctx, uuid.New())
	assert.ErrorIs(t, err, models.ErrNotFound)

	invoiced := day(t, "2025-05-01")
	detailed := &models.Client{BoardItemID: 12, Name: "Icon By Design", IsActive: true,
		SupportUserIDs: []uuid.UUID{lead.ID}, SEOLeadName: "Priya Nair", Niche: "Interiors",
		Priority: "High", CampaignType: "Digital PR", ContractLength: "12 months", ReportStatus: "Sent",
		LastInvoiceDate: &invoiced}
	require.NoError(t, store.UpsertClient(ctx, detailed))
	icon, err := store.GetClient(ctx, detailed.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{lead.ID}, icon.SupportUserIDs)
	assert.Equal(t, "Priya Nair", icon.SEOLeadName)
	assert.Equal(t, "Interiors", icon.Niche)
	assert.Equal(t, "High", icon.Priority)
	assert.Equal(t, "Digital PR", icon.CampaignType)
	assert.Equal(t, "12 months", icon.ContractLength)
	assert.Equal(t, "Sent", icon.ReportStatus)
	assert.Nil(t, icon.LastReportDate)
	require.NotNil(t, icon.LastInvoiceDate)
	assert.Equal(t, "2025-05-01", models.FormatDate(*icon.LastInvoiceDate))
	assert.Empty(t, got.SupportUserIDs)

	n := 1
	sprint := &models.Sprint{BoardSubitemID: 1101, ClientID: client.ID, Name: "Q1", SprintNumber: &n,
		StartDate: day(t, "2025-03-01"), EndDate: day(t, "2025-05-31"), Status: models.SprintUpcoming}
	require.NoError(t, store.UpsertSprint(ctx, sprint))

	changed, err := store.RefreshSprintStatuses(ctx, day(t, "2025-05-31"))
	require.NoError(t, err)
	assert.Equal(t, 1, changed)

	sprints, err := store.ListSprints(ctx, client.ID)
	require.NoError(t, err)
	require.Len(t, sprints, 1)
	assert.Equal(t, models.SprintActive, sprints[0].Status)
	assert.Equal(t, "2025-05-31", models.FormatDate(sprints[0].EndDate))

	entry := &models.TimeEntry{SourceID: "clk-1", ClientID: &client.ID, SprintID: &sprint.ID, UserID: lead.ID,
		EntryDate: day(t, "2025-03-02"), Hours: 2.5, Tags: []models.Tag{}}
	require.NoError(t, store.UpsertTimeEntry(ctx, entry))
	entry.ID = uuid.Nil
	entry.Hours = 3
	entry.SprintID = nil
	entry.Tags = []models.Tag{models.TagGapBetweenPeriods}
	require.NoError(t, store.UpsertTimeEntry(ctx, entry))

	stored, err := store.GetTimeEntryBySourceID(ctx, "clk-1")
	require.NoError(t, err)
	assert.Equal(t, 3.0, stored.Hours)
	assert.Nil(t, stored.SprintID)
	assert.Equal(t, []models.Tag{models.TagGapBetweenPeriods}, stored.Tags)

	hours, err := store.SprintHours(ctx, client.ID)
	require.NoError(t, err)
	assert.Empty(t, hours)
}

func TestPostgresSyncRuns(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	run := &models.SyncRun{ID: sync.NewRunID(now), Source: models.SourceBoard, StartedAt: now, Status: models.RunRunning}
	require.NoError(t, store.CreateSyncRun(ctx, run))

	finished := now.Add(time.Second)
	msg := "no board could be fetched"
	run.FinishedAt = &finished
	run.Status = models.RunError
	run.ErrorMessage = &msg
	run.SkipReasons = map[string]int{"board_fetch_failed": 2}
	require.NoError(t, store.FinishSyncRun(ctx, run))
	assert.ErrorIs(t, store.FinishSyncRun(ctx, run), models.ErrNotFound)

	runs, err := store.ListSyncRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, models.RunError, runs[0].Status)
	require.NotNil(t, runs[0].ErrorMessage)
	assert.Equal(t, msg, *runs[0].ErrorMessage)
	assert.Equal(t, map[string]int{"board_fetch_failed": 2}, runs[0].SkipReasons)
}
