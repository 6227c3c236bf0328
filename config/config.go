// ABOUTME: Layered configuration for sprintledger
// ABOUTME: Merges defaults, a YAML file and SPRINTLEDGER_* environment variables with koanf
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	appName           = "sprintledger"
	envPrefix         = "SPRINTLEDGER_"
	maxConfigFileSize = 1024 * 1024 // 1MB
)

// Database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const defaults = `
database:
  driver: sqlite
sync:
  lookback_days: 14
  days_back: 365
  page_size: 1000
  max_pages: 100
log:
  level: info
  json: false
`

type Config struct {
	Database  DatabaseConfig   `koanf:"database"`
	Sync      SyncConfig       `koanf:"sync"`
	Boards    []BoardConfig    `koanf:"boards"`
	Overrides []OverrideConfig `koanf:"overrides"`
	Log       LogConfig        `koanf:"log"`
	Metrics   MetricsConfig    `koanf:"metrics"`
}

type DatabaseConfig struct {
	Driver string `koanf:"driver"`
	Path   string `koanf:"path"`
	URL    string `koanf:"url"`
}

type SyncConfig struct {
	LookbackDays     int      `koanf:"lookback_days"`
	DaysBack         int      `koanf:"days_back"`
	PageSize         int      `koanf:"page_size"`
	MaxPages         int      `koanf:"max_pages"`
	InactiveKeywords []string `koanf:"inactive_keywords"`
	TimeSnapshot     string   `koanf:"time_snapshot"`
}

// BoardConfig names one project board and the export file it is read from.
type BoardConfig struct {
	Region   string `koanf:"region"`
	ID       string `koanf:"id"`
	Snapshot string `koanf:"snapshot"`
}

// OverrideConfig pins a project label to a client name. An empty client marks the
// label as deliberately unmapped.
type OverrideConfig struct {
	Label  string `koanf:"label"`
	Client string `koanf:"client"`
}

type LogConfig struct {
	Level string `koanf:"level"`
	JSON  bool   `koanf:"json"`
}

type MetricsConfig struct {
	Textfile string `koanf:"textfile"`
}

// DefaultPath returns $XDG_CONFIG_HOME/sprintledger/config.yaml.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.yaml")
}

// DefaultDatabasePath returns $XDG_DATA_HOME/sprintledger/sprintledger.db.
func DefaultDatabasePath() string {
	return filepath.Join(xdg.DataHome, appName, appName+".db")
}

// LoadDotEnv exports variables from a .env file without overriding ones already set.
// A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Load reads configuration with this precedence (highest first):
//  1. SPRINTLEDGER_SECTION_FIELD environment variables
//  2. the YAML file at configPath (DefaultPath when empty)
//  3. built-in defaults
//
// An explicitly named file must exist; the default file is optional.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(rawbytes.Provider([]byte(defaults)), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	explicit := configPath != ""
	if !explicit {
		configPath = DefaultPath()
	}

	content, err := readConfigFile(configPath)
	switch {
	case errors.Is(err, os.ErrNotExist) && !explicit:
	case err != nil:
		return nil, err
	default:
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// SPRINTLEDGER_SYNC_LOOKBACK_DAYS -> sync.lookback_days
	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}
	return parts[0] + "." + parts[1]
}

func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("config path %s is a directory", path)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file %s exceeds %d bytes", path, maxConfigFileSize)
	}

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return content, nil
}

func applyDefaults(cfg *Config) {
	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	if cfg.Database.Path == "" {
		cfg.Database.Path = DefaultDatabasePath()
	}

	// Environment values arrive as one comma separated string.
	var keywords []string
	for _, kw := range cfg.Sync.InactiveKeywords {
		for _, part := range strings.Split(kw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				keywords = append(keywords, part)
			}
		}
	}
	cfg.Sync.InactiveKeywords = keywords
}

// Validate checks the merged configuration.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for sqlite")
		}
	case DriverPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("database.url is required for postgres")
		}
	default:
		return fmt.Errorf("database.driver must be %q or %q, got %q", DriverSQLite, DriverPostgres, c.Database.Driver)
	}

	if c.Sync.LookbackDays < 0 {
		return fmt.Errorf("sync.lookback_days must be >= 0, got %d", c.Sync.LookbackDays)
	}
	if c.Sync.DaysBack <= 0 {
		return fmt.Errorf("sync.days_back must be > 0, got %d", c.Sync.DaysBack)
	}
	if c.Sync.PageSize <= 0 {
		return fmt.Errorf("sync.page_size must be > 0, got %d", c.Sync.PageSize)
	}
	if c.Sync.MaxPages <= 0 {
		return fmt.Errorf("sync.max_pages must be > 0, got %d", c.Sync.MaxPages)
	}

	for i, b := range c.Boards {
		if strings.TrimSpace(b.ID) == "" {
			return fmt.Errorf("boards[%d].id is required", i)
		}
	}
	for i, o := range c.Overrides {
		if strings.TrimSpace(o.Label) == "" {
			return fmt.Errorf("overrides[%d].label is required", i)
		}
	}
	return nil
}

// OverrideMap returns the override table keyed by the exact project label.
func (c *Config) OverrideMap() map[string]string {
	out := make(map[string]string, len(c.Overrides))
	for _, o := range c.Overrides {
		out[o.Label] = strings.TrimSpace(o.Client)
	}
	return out
}
