package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

const (
	BackendCSV    = "csv"
	BackendSQLite = "sqlite"
)

type Config struct {
	Env       string `env:"ENV,        default=development"`
	LogLevel  string `env:"LOG_LEVEL,  default=info"`
	LogPretty bool   `env:"LOG_PRETTY, default=true"`

	// MetricsTextfile, when set, receives a Prometheus text dump on shutdown.
	MetricsTextfile string `env:"METRICS_TEXTFILE"`

	Store StoreConfig
}

type StoreConfig struct {
	Backend    string `env:"STORE_BACKEND, default=csv"`
	SaveFile   string `env:"SAVE_FILE,     default=savedata.txt"`
	SQLiteDSN  string `env:"SQLITE_DSN,    default=file:ordermanager.db?mode=rwc"`
	DeadlineTZ string `env:"DEADLINE_TZ"`
}

// Location resolves DeadlineTZ. Empty or "Local" means the machine zone.
func (c StoreConfig) Location() (*time.Location, error) {
	if c.DeadlineTZ == "" || c.DeadlineTZ == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.DeadlineTZ)
}

// Load reads a .env file from the working directory when present, then the
// process environment.
func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: read .env: %w", err)
	}
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith reads configuration from lookuper and validates it.
func LoadWith(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}

	cfg.Store.Backend = strings.ToLower(strings.TrimSpace(cfg.Store.Backend))
	switch cfg.Store.Backend {
	case BackendCSV, BackendSQLite:
	default:
		return nil, fmt.Errorf("config: unknown STORE_BACKEND %q", cfg.Store.Backend)
	}
	if _, err := cfg.Store.Location(); err != nil {
		return nil, fmt.Errorf("config: DEADLINE_TZ: %w", err)
	}
	return &cfg, nil
}
