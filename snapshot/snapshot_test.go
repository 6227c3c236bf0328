package snapshot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/harperreed/sprintledger/models"
)

func TestPaginateStopsOnShortPage(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	calls := 0
	got, err := Paginate(context.Background(), nil, "ints", PageOptions{PageSize: 2}, func(_ context.Context, page, size int) ([]int, error) {
		calls++
		return slicePage(items, page, size), nil
	})
	require.NoError(t, err)
	assert.Equal(t, items, got)
	assert.Equal(t, 3, calls)
}

func TestPaginateExactMultipleFetchesEmptyPage(t *testing.T) {
	items := []int{1, 2, 3, 4}
	calls := 0
	got, err := Paginate(context.Background(), nil, "ints", PageOptions{PageSize: 2}, func(_ context.Context, page, size int) ([]int, error) {
		calls++
		return slicePage(items, page, size), nil
	})
	require.NoError(t, err)
	assert.Equal(t, items, got)
	assert.Equal(t, 3, calls)
}

func TestPaginateCeilingTruncatesAndWarns(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	got, err := Paginate(context.Background(), zap.New(core), "entries", PageOptions{PageSize: 2, MaxPages: 3}, func(_ context.Context, page, size int) ([]int, error) {
		return []int{page, page}, nil
	})
	require.NoError(t, err)
	assert.Len(t, got, 6)

	warns := logs.FilterMessage("pagination ceiling reached, results truncated").All()
	require.Len(t, warns, 1)
	assert.Equal(t, "entries", warns[0].ContextMap()["listing"])
}

func TestPaginateWrapsFetchError(t *testing.T) {
	boom := errors.New("503")
	_, err := Paginate(context.Background(), nil, "users", PageOptions{}, func(context.Context, int, int) ([]int, error) {
		return nil, boom
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "users page 1")
}

func TestSprintNumber(t *testing.T) {
	tests := []struct {
		label string
		want  *int
	}{
		{"Q1 - Ongoing", ptr(1)},
		{"q3", ptr(3)},
		{"Sprint #2", ptr(2)},
		{"sprint 12", ptr(12)},
		{"Phase 4 (extended)", ptr(4)},
		{"Ongoing", nil},
		{"", nil},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.want, SprintNumber(tt.label))
		})
	}
}

func TestMapClientFields(t *testing.T) {
	f := DefaultFieldNames.MapClientFields([]RawField{
		{FieldName: "Campaign Start Date", RawValue: `{"date":"2025-02-25","icon":null}`},
		{FieldName: "Monthly Rate", RawValue: `"3,800"`},
		{FieldName: "Agency Value", RawValue: `{"ids":[1]}`, DisplayValue: "45600"},
		{FieldName: "DPR Lead", RawValue: `{"personsAndTeams":[{"id":777,"kind":"person"},{"id":9,"kind":"team"}]}`},
		{FieldName: "Client Priority", RawValue: "High"},
		{FieldName: "DPR Support", RawValue: `{"personsAndTeams":[{"id":801,"kind":"person"},{"id":9,"kind":"team"},{"id":802,"kind":"person"}]}`},
		{FieldName: "SEO Lead", RawValue: `"Priya Nair"`},
		{FieldName: "Niches", DisplayValue: "Home & Living"},
		{FieldName: "Campaign Type", RawValue: " Digital PR "},
		{FieldName: "Contract Length", RawValue: "12 months"},
		{FieldName: "Report Status", RawValue: "Sent"},
		{FieldName: "Last Report Date", RawValue: `{"date":"2025-05-30"}`},
		{FieldName: "Last Invoice Date", RawValue: `"2025-05-01"`},
	})

	require.NotNil(t, f.CampaignStartDate)
	assert.Equal(t, "2025-02-25", models.FormatDate(*f.CampaignStartDate))
	require.NotNil(t, f.MonthlyRate)
	assert.Equal(t, 3800.0, *f.MonthlyRate)
	require.NotNil(t, f.AgencyValue)
	assert.Equal(t, 45600.0, *f.AgencyValue)
	require.NotNil(t, f.LeadPersonID)
	assert.Equal(t, int64(777), *f.LeadPersonID)

	assert.Equal(t, []int64{801, 802}, f.SupportPersonIDs)
	assert.Equal(t, "Priya Nair", f.SEOLeadName)
	assert.Equal(t, "Home & Living", f.Niche)
	assert.Equal(t, "High", f.Priority)
	assert.Equal(t, "Digital PR", f.CampaignType)
	assert.Equal(t, "12 months", f.ContractLength)
	assert.Equal(t, "Sent", f.ReportStatus)
	require.NotNil(t, f.LastReportDate)
	assert.Equal(t, "2025-05-30", models.FormatDate(*f.LastReportDate))
	require.NotNil(t, f.LastInvoiceDate)
	assert.Equal(t, "2025-05-01", models.FormatDate(*f.LastInvoiceDate))
}

func TestMapClientFieldsMissingOrMalformed(t *testing.T) {
	f := DefaultFieldNames.MapClientFields([]RawField{
		{FieldName: "Campaign Start Date", RawValue: `{"date":null}`},
		{FieldName: "Monthly Rate", RawValue: "TBC"},
		{FieldName: "DPR Lead", RawValue: `{"personsAndTeams":[]}`},
	})
	assert.Nil(t, f.CampaignStartDate)
	assert.Nil(t, f.MonthlyRate)
	assert.Nil(t, f.AgencyValue)
	assert.Nil(t, f.LeadPersonID)
	assert.Empty(t, f.SupportPersonIDs)
	assert.Empty(t, f.SEOLeadName)
	assert.Nil(t, f.LastReportDate)
}

func TestMapSprintFields(t *testing.T) {
	f := DefaultFieldNames.MapSprintFields([]RawField{
		{FieldName: "Start Date", RawValue: `{"date":"2025-03-01"}`},
		{FieldName: "End Date", RawValue: `"2025-05-31"`},
		{FieldName: "Sprint", RawValue: `{"index":1}`, DisplayValue: "Q1 - Ongoing"},
		{FieldName: "Monthly Rate (AUD)", RawValue: "4200"},
		{FieldName: "Link KPI Per Quarter", RawValue: "12"},
	})

	require.NotNil(t, f.StartDate)
	require.NotNil(t, f.EndDate)
	assert.Equal(t, "2025-03-01", models.FormatDate(*f.StartDate))
	assert.Equal(t, "2025-05-31", models.FormatDate(*f.EndDate))
	assert.Equal(t, "Q1 - Ongoing", f.SprintLabel)
	assert.Equal(t, ptr(1), f.SprintNumber)
	assert.Equal(t, 4200.0, *f.MonthlyRate)
	assert.Equal(t, 12.0, *f.KPITarget)
	assert.Nil(t, f.KPIAchieved)
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestTimeSnapshotFiltersWindow(t *testing.T) {
	path := writeFile(t, "time.json", `{
		"users": [{"id": "u1", "email": "dana@agency.io"}],
		"projects": [{"id": "p1", "name": "Moonpig"}],
		"time_entries": {
			"u1": [
				{"id": "a", "project_id": "p1", "start": "2025-02-28T23:59:00Z", "duration": "PT1H"},
				{"id": "b", "project_id": "p1", "start": "2025-03-01T00:00:00Z", "duration": "PT1H"},
				{"id": "c", "project_id": "p1", "start": "2025-03-31T22:00:00Z", "duration": "PT1H"},
				{"id": "d", "project_id": "p1", "start": "2025-04-01T00:00:00Z", "duration": "PT1H"},
				{"id": "e", "project_id": "p1", "duration": "PT1H"},
				{"id": "f", "project_id": "p1", "start": "2025-03-01T08:00:00+10:00", "duration": "PT1H"},
				{"id": "g", "project_id": "p1", "start": "2025-03-31T20:00:00-05:00", "duration": "PT1H"},
				{"id": "h", "project_id": "p1", "start": "2025-04-01T06:00:00+10:00", "duration": "PT1H"}
			]
		}
	}`)

	src, err := LoadTimeSnapshot(path, PageOptions{PageSize: 2}, nil)
	require.NoError(t, err)
	ctx := context.Background()

	users, err := src.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)

	projects, err := src.ListProjects(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Moonpig", projects[0].Name)

	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 3, 31, 15, 0, 0, 0, time.UTC)
	entries, err := src.ListTimeEntries(ctx, "u1", from, to)
	require.NoError(t, err)

	var ids []string
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"b", "c", "e", "f", "g"}, ids, "days are read in each entry's own offset")

	none, err := src.ListTimeEntries(ctx, "nobody", from, to)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestLoadTimeSnapshotErrors(t *testing.T) {
	_, err := LoadTimeSnapshot(filepath.Join(t.TempDir(), "missing.json"), PageOptions{}, nil)
	assert.Error(t, err)

	_, err = LoadTimeSnapshot(writeFile(t, "bad.json", "{"), PageOptions{}, nil)
	assert.ErrorContains(t, err, "failed to parse time snapshot")
}

func TestBoardSnapshotGetBoard(t *testing.T) {
	path := writeFile(t, "board.json", `{
		"id": "100",
		"name": "AU Clients",
		"groups": [
			{"title": "Active", "items": [
				{"id": "11", "name": "Sovereign Interiors",
				 "fields": [{"field_name": "Monthly Rate", "raw_value": "3800"}],
				 "subitems": [
					{"id": 1101, "name": "Q1", "fields": [
						{"field_name": "Start Date", "raw_value": "{\"date\":\"2025-03-01\"}"},
						{"field_name": "End Date", "raw_value": "{\"date\":\"2025-05-31\"}"},
						{"field_name": "Sprint", "raw_value": "", "display_value": "Sprint #1"}
					]}
				 ]}
			]},
			{"title": "Paused", "items": []}
		]
	}`)

	export, err := LoadBoardExport(path)
	require.NoError(t, err)

	src := NewBoardSnapshot([]BoardExport{export}, DefaultFieldNames, PageOptions{}, nil)
	board, err := src.GetBoard(context.Background(), "100")
	require.NoError(t, err)

	require.Len(t, board.Groups, 2)
	require.Len(t, board.Groups[0].Items, 1)
	item := board.Groups[0].Items[0]
	assert.Equal(t, int64(11), item.ID)
	assert.Equal(t, 3800.0, *item.Fields.MonthlyRate)
	require.Len(t, item.Subitems, 1)
	sub := item.Subitems[0]
	assert.Equal(t, int64(1101), sub.ID)
	assert.Equal(t, ptr(1), sub.Fields.SprintNumber)
	require.NotNil(t, sub.Fields.EndDate)

	_, err = src.GetBoard(context.Background(), "999")
	assert.ErrorContains(t, err, "not in snapshot")
}

func TestBoardSnapshotRejectsBadID(t *testing.T) {
	src := NewBoardSnapshot([]BoardExport{{
		ID:     "1",
		Groups: []GroupExport{{Title: "Active", Items: []ItemExport{{ID: "abc", Name: "Broken"}}}},
	}}, DefaultFieldNames, PageOptions{}, nil)

	_, err := src.GetBoard(context.Background(), "1")
	assert.ErrorContains(t, err, `item "Broken"`)
}

func ptr(v int) *int { return &v }
