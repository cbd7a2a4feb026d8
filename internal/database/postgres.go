package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/pkg/errors"

	"github.com/locvowork/employee_directory/internal/repository/builder"
)

const kvTable = "kv_store"

// NewPostgresDB opens a pooled connection and checks it is reachable.
func NewPostgresDB(ctx context.Context, cfg PostgresConfig) (*sqlx.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "ping postgres")
	}
	return db, nil
}

// PostgresStore keeps every key as a row of the kv_store table.
type PostgresStore struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewPostgresStore creates the kv_store table if needed.
func NewPostgresStore(ctx context.Context, db *sqlx.DB) (*PostgresStore, error) {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS kv_store (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`); err != nil {
		return nil, errors.Wrap(err, "create kv_store table")
	}
	return &PostgresStore{db: db, now: time.Now}, nil
}

func (s *PostgresStore) Get(ctx context.Context, key string) (string, bool, error) {
	query, args := builder.NewSQLBuilder().
		Select("value").
		From(kvTable).
		Where("key = ?", key).
		Build()

	var value string
	err := s.db.GetContext(ctx, &value, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrapf(err, "postgres get %s", key)
	}
	return value, true, nil
}

func (s *PostgresStore) Set(ctx context.Context, key, value string) error {
	query, args, err := builder.NewSQLBuilder().
		Insert(kvTable, "key", "value", "updated_at").
		Values(key, value, s.now().UTC()).
		OnConflict("key").
		DoUpdateSet("value", "updated_at").
		BuildSafe()
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrapf(err, "postgres set %s", key)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
