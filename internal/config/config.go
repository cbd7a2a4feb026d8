package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/adrg/xdg"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/locvowork/employee_directory/internal/database"
)

// DefaultEnvConfig is set by LoadEnvConfig.
var DefaultEnvConfig *EnvConfig

type DatabaseOptions struct {
	Host            string        `env:"DB_HOST" envDefault:"localhost"`
	Port            int           `env:"DB_PORT" envDefault:"5432"`
	User            string        `env:"DB_USER" envDefault:"postgres"`
	Password        string        `env:"DB_PASSWORD" envDefault:"postgres"`
	Name            string        `env:"DB_NAME" envDefault:"postgres"`
	SSLMode         string        `env:"DB_SSL_MODE" envDefault:"disable"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"20m"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"100"`
}

type StoreOptions struct {
	Backend            string `env:"STORE_BACKEND" envDefault:"json"`
	DataDir            string `env:"DATA_DIR"`
	Key                string `env:"STORAGE_KEY" envDefault:"employeeDirectory"`
	SQLitePath         string `env:"SQLITE_PATH"`
	RedisURL           string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	RedisPrefix        string `env:"REDIS_PREFIX" envDefault:"employee_directory"`
	DatastoreProjectID string `env:"DATASTORE_PROJECT_ID"`
	ElasticURL         string `env:"ELASTIC_URL" envDefault:"http://localhost:9200"`
	ElasticIndex       string `env:"ELASTIC_INDEX" envDefault:"employee_directory"`
}

type EnvConfig struct {
	AppPort string `env:"APP_PORT" envDefault:"8080"`

	Database DatabaseOptions
	Store    StoreOptions

	// logger config
	LogFilePath string `env:"LOG_FILE_PATH"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	DebounceWindow   time.Duration `env:"DEBOUNCE_WINDOW" envDefault:"300ms"`
	DefaultPageSize  int           `env:"DEFAULT_PAGE_SIZE" envDefault:"10"`
	ExportLayoutPath string        `env:"EXPORT_LAYOUT_PATH"`
	MetricsEnabled   bool          `env:"METRICS_ENABLED" envDefault:"true"`
}

// LoadEnvConfig loads the given .env files that exist (".env" when none are
// named), parses the environment and validates the result.
func LoadEnvConfig(files ...string) (*EnvConfig, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	if err := loadEnvFiles(files); err != nil {
		return nil, fmt.Errorf("failed to load env files: %w", err)
	}

	cfg := &EnvConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse env: %w", err)
	}
	if cfg.Store.DataDir == "" {
		cfg.Store.DataDir = filepath.Join(xdg.DataHome, "employee-directory")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	DefaultEnvConfig = cfg
	return cfg, nil
}

func loadEnvFiles(files []string) error {
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// Validate rejects settings the service cannot start with.
func (c *EnvConfig) Validate() error {
	if !slices.Contains(database.Backends(), c.Store.Backend) {
		return fmt.Errorf("STORE_BACKEND must be one of %v, got %q", database.Backends(), c.Store.Backend)
	}
	if c.Store.Key == "" {
		return fmt.Errorf("STORAGE_KEY must not be empty")
	}
	if c.DefaultPageSize <= 0 {
		return fmt.Errorf("DEFAULT_PAGE_SIZE must be positive, got %d", c.DefaultPageSize)
	}
	if c.DebounceWindow <= 0 {
		return fmt.Errorf("DEBOUNCE_WINDOW must be positive, got %s", c.DebounceWindow)
	}
	if c.Store.Backend == database.BackendDatastore && c.Store.DatastoreProjectID == "" {
		return fmt.Errorf("DATASTORE_PROJECT_ID is required when STORE_BACKEND is %q", database.BackendDatastore)
	}
	return nil
}

// DatabaseConfig maps the settings onto the persistence backend config.
func (c *EnvConfig) DatabaseConfig() database.Config {
	return database.Config{
		Backend:    c.Store.Backend,
		DataDir:    c.Store.DataDir,
		SQLitePath: c.Store.SQLitePath,
		Postgres: database.PostgresConfig{
			Host:            c.Database.Host,
			Port:            c.Database.Port,
			User:            c.Database.User,
			Password:        c.Database.Password,
			DBName:          c.Database.Name,
			SSLMode:         c.Database.SSLMode,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
		},
		RedisURL:           c.Store.RedisURL,
		RedisPrefix:        c.Store.RedisPrefix,
		DatastoreProjectID: c.Store.DatastoreProjectID,
		ElasticURL:         c.Store.ElasticURL,
		ElasticIndex:       c.Store.ElasticIndex,
	}
}
