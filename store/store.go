// Package store owns the database handle: opening it for the configured
// driver, running migrations, and grouping statements into transactions.
//
// Both drivers accept $n placeholders, so repositories write one set of
// queries. Timestamps are stored as unix microseconds and calendar dates as
// YYYY-MM-DD text, which keeps scanning identical across drivers.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

type Config struct {
	Driver Dialect
	// DSN is a file path for sqlite and a connection string for postgres.
	DSN string
}

// Querier is the statement surface shared by *sql.DB and *sql.Tx.
// Repositories accept it so the same code runs inside or outside a
// transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db      *sql.DB
	dialect Dialect
}

// Open connects, pings and migrates. The caller owns the returned Store and
// must Close it at shutdown.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	db, err := connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	s := &Store{db: db, dialect: cfg.Driver}
	if err := s.MigrateUp(); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	slog.Info("store ready", "driver", cfg.Driver)
	return s, nil
}

// OpenUnmigrated connects without touching the schema. Used by the migrate
// command.
func OpenUnmigrated(ctx context.Context, cfg Config) (*Store, error) {
	db, err := connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, dialect: cfg.Driver}, nil
}

func connect(ctx context.Context, cfg Config) (*sql.DB, error) {
	var (
		db  *sql.DB
		err error
	)

	switch cfg.Driver {
	case SQLite:
		if dir := filepath.Dir(cfg.DSN); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create db directory: %w", err)
			}
		}
		db, err = sql.Open("sqlite", sqliteDSN(cfg.DSN))
		if err != nil {
			return nil, fmt.Errorf("open sqlite database: %w", err)
		}
		// One connection: sqlite allows a single writer, and pragmas are
		// per connection.
		db.SetMaxOpenConns(1)
	case Postgres:
		db, err = sql.Open("postgres", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres database: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported driver %q", cfg.Driver)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

func sqliteDSN(path string) string {
	pragmas := "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	if strings.Contains(path, "?") {
		return path + "&" + pragmas
	}
	return path + "?" + pragmas
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Dialect() Dialect {
	return s.dialect
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Exec runs a statement and reports the affected row count.
func (s *Store) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// WithTx runs fn inside a read-write transaction. fn must only use tx: with
// sqlite there is one connection and touching s.DB() from fn would block.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return s.withTx(ctx, nil, fn)
}

// WithReadTx runs fn against one consistent snapshot.
func (s *Store) WithReadTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	var opts *sql.TxOptions
	if s.dialect == Postgres {
		opts = &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	}
	return s.withTx(ctx, opts, fn)
}

func (s *Store) withTx(ctx context.Context, opts *sql.TxOptions, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
