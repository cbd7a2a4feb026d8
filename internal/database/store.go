// Package database provides the persistence backends of the directory.
//
// Every backend is a string key/value store (domain.KVStore). The record
// store keeps the whole collection under one key and rewrites it on every
// mutation.
package database

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"github.com/locvowork/employee_directory/internal/domain"
)

// Backend names accepted by New.
const (
	BackendMemory    = "memory"
	BackendJSON      = "json"
	BackendSQLite    = "sqlite"
	BackendPostgres  = "postgres"
	BackendRedis     = "redis"
	BackendDatastore = "datastore"
	BackendElastic   = "elastic"
)

// Backends lists every supported backend name.
func Backends() []string {
	return []string{
		BackendMemory, BackendJSON, BackendSQLite, BackendPostgres,
		BackendRedis, BackendDatastore, BackendElastic,
	}
}

// Config selects and configures a backend.
type Config struct {
	Backend string
	DataDir string

	SQLitePath string
	Postgres   PostgresConfig

	RedisURL    string
	RedisPrefix string

	DatastoreProjectID string

	ElasticURL   string
	ElasticIndex string
}

// PostgresConfig holds the connection settings of the postgres backend.
type PostgresConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// New creates the KVStore named by cfg.Backend.
//
// Supported backends:
//
//	"json"      - one JSON file per key in DataDir (default)
//	"memory"    - in-memory, lost on restart
//	"sqlite"    - SQLite database at SQLitePath (DataDir/directory.db)
//	"postgres"  - kv_store table in PostgreSQL
//	"redis"     - plain string keys in Redis
//	"datastore" - KeyValue entities in Google Cloud Datastore
//	"elastic"   - documents in an Elasticsearch 7 index
func New(ctx context.Context, cfg Config) (domain.KVStore, error) {
	switch cfg.Backend {
	case BackendJSON, "":
		return NewJSONFileStore(afero.NewOsFs(), cfg.DataDir)
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendSQLite:
		path := cfg.SQLitePath
		if path == "" {
			path = filepath.Join(cfg.DataDir, "directory.db")
		}
		return NewSQLiteStore(path)
	case BackendPostgres:
		db, err := NewPostgresDB(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		return NewPostgresStore(ctx, db)
	case BackendRedis:
		return NewRedisStore(ctx, cfg.RedisURL, cfg.RedisPrefix)
	case BackendDatastore:
		return NewDatastoreStore(ctx, cfg.DatastoreProjectID)
	case BackendElastic:
		return NewElasticStore(ctx, cfg.ElasticURL, cfg.ElasticIndex)
	default:
		return nil, fmt.Errorf("unknown store backend: %q (supported: %v)", cfg.Backend, Backends())
	}
}
