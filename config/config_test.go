// ABOUTME: Tests for layered configuration loading
// ABOUTME: Covers defaults, YAML files, environment overrides and validation
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/adrg/xdg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func isolateXDG(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	xdg.Reload()
	t.Cleanup(xdg.Reload)
	return dir
}

func TestLoadDefaults(t *testing.T) {
	dir := isolateXDG(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, filepath.Join(dir, "data", "sprintledger", "sprintledger.db"), cfg.Database.Path)
	assert.Equal(t, 14, cfg.Sync.LookbackDays)
	assert.Equal(t, 365, cfg.Sync.DaysBack)
	assert.Equal(t, 1000, cfg.Sync.PageSize)
	assert.Equal(t, 100, cfg.Sync.MaxPages)
	assert.Empty(t, cfg.Sync.InactiveKeywords)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Log.JSON)
	assert.Empty(t, cfg.Boards)
}

func TestLoadFile(t *testing.T) {
	isolateXDG(t)
	path := writeConfig(t, `
database:
  driver: Postgres
  url: postgres://ledger@localhost/ledger
sync:
  lookback_days: 0
  inactive_keywords: [paused, archived]
  time_snapshot: /tmp/time.json
boards:
  - region: AU
    id: "1234"
    snapshot: /tmp/au.json
  - region: US
    id: "5678"
overrides:
  - label: LVLY
    client: ""
  - label: SOV retainer
    client: Sovereign Interiors
log:
  level: debug
  json: true
metrics:
  textfile: /tmp/sprintledger.prom
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "postgres://ledger@localhost/ledger", cfg.Database.URL)
	assert.Equal(t, 0, cfg.Sync.LookbackDays)
	assert.Equal(t, 365, cfg.Sync.DaysBack, "unset keys keep their defaults")
	assert.Equal(t, []string{"paused", "archived"}, cfg.Sync.InactiveKeywords)
	assert.Equal(t, "/tmp/time.json", cfg.Sync.TimeSnapshot)
	require.Len(t, cfg.Boards, 2)
	assert.Equal(t, BoardConfig{Region: "AU", ID: "1234", Snapshot: "/tmp/au.json"}, cfg.Boards[0])
	assert.Equal(t, "5678", cfg.Boards[1].ID)
	assert.Equal(t, map[string]string{"LVLY": "", "SOV retainer": "Sovereign Interiors"}, cfg.OverrideMap())
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.JSON)
	assert.Equal(t, "/tmp/sprintledger.prom", cfg.Metrics.Textfile)
}

func TestEnvOverridesFile(t *testing.T) {
	isolateXDG(t)
	path := writeConfig(t, "sync:\n  lookback_days: 21\n")

	t.Setenv("SPRINTLEDGER_SYNC_LOOKBACK_DAYS", "7")
	t.Setenv("SPRINTLEDGER_SYNC_INACTIVE_KEYWORDS", "paused, churned")
	t.Setenv("SPRINTLEDGER_DATABASE_PATH", "/tmp/ledger.db")
	t.Setenv("SPRINTLEDGER_LOG_JSON", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Sync.LookbackDays)
	assert.Equal(t, []string{"paused", "churned"}, cfg.Sync.InactiveKeywords)
	assert.Equal(t, "/tmp/ledger.db", cfg.Database.Path)
	assert.True(t, cfg.Log.JSON)
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"SPRINTLEDGER_SYNC_LOOKBACK_DAYS": "sync.lookback_days",
		"SPRINTLEDGER_DATABASE_URL":       "database.url",
		"SPRINTLEDGER_METRICS_TEXTFILE":   "metrics.textfile",
		"SPRINTLEDGER_DEBUG":              "debug",
	}
	for in, want := range tests {
		assert.Equal(t, want, envKey(in), in)
	}
}

func TestLoadExplicitMissingFile(t *testing.T) {
	isolateXDG(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsOversizedFile(t *testing.T) {
	isolateXDG(t)
	path := writeConfig(t, "# "+strings.Repeat("x", maxConfigFileSize))
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds")
}

func TestValidate(t *testing.T) {
	isolateXDG(t)
	tests := []struct {
		name string
		body string
		want string
	}{
		{"unknown driver", "database:\n  driver: mysql\n", "database.driver"},
		{"postgres without url", "database:\n  driver: postgres\n", "database.url"},
		{"negative lookback", "sync:\n  lookback_days: -1\n", "lookback_days"},
		{"zero days back", "sync:\n  days_back: 0\n", "days_back"},
		{"zero page size", "sync:\n  page_size: 0\n", "page_size"},
		{"zero max pages", "sync:\n  max_pages: 0\n", "max_pages"},
		{"board without id", "boards:\n  - region: AU\n", "boards[0].id"},
		{"override without label", "overrides:\n  - client: LVLY\n", "overrides[0].label"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, LoadDotEnv(filepath.Join(dir, ".env")), "missing .env is fine")

	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("SPRINTLEDGER_TEST_DOTENV=from-file\nSPRINTLEDGER_TEST_KEEP=from-file\n"), 0600))
	t.Setenv("SPRINTLEDGER_TEST_DOTENV", "")
	os.Unsetenv("SPRINTLEDGER_TEST_DOTENV")
	t.Setenv("SPRINTLEDGER_TEST_KEEP", "from-env")
	t.Cleanup(func() { os.Unsetenv("SPRINTLEDGER_TEST_DOTENV") })

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-file", os.Getenv("SPRINTLEDGER_TEST_DOTENV"))
	assert.Equal(t, "from-env", os.Getenv("SPRINTLEDGER_TEST_KEEP"))
}
