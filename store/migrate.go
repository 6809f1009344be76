package store

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// MigrateUp applies every pending migration.
func (s *Store) MigrateUp() error {
	return s.migrate(func(m *migrate.Migrate) error { return m.Up() })
}

// MigrateDown rolls every migration back.
func (s *Store) MigrateDown() error {
	return s.migrate(func(m *migrate.Migrate) error { return m.Down() })
}

// Version reports the applied schema version; dirty means a migration failed
// half way.
func (s *Store) Version() (version uint, dirty bool, err error) {
	err = s.migrate(func(m *migrate.Migrate) error {
		version, dirty, err = m.Version()
		return err
	})
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

func (s *Store) migrate(run func(m *migrate.Migrate) error) error {
	var (
		driver database.Driver
		err    error
	)
	switch s.dialect {
	case SQLite:
		driver, err = migratesqlite.WithInstance(s.db, &migratesqlite.Config{})
	case Postgres:
		// Dedicated conn, released when the run ends.
		ctx := context.Background()
		conn, connErr := s.db.Conn(ctx)
		if connErr != nil {
			return fmt.Errorf("acquire migration connection: %w", connErr)
		}
		defer conn.Close()
		driver, err = migratepg.WithConnection(ctx, conn, &migratepg.Config{})
	default:
		err = fmt.Errorf("unsupported driver %q", s.dialect)
	}
	if err != nil {
		return fmt.Errorf("create %s migration driver: %w", s.dialect, err)
	}

	var src source.Driver
	src, err = iofs.New(migrationsFS, "migrations/"+string(s.dialect))
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}
	// Not m.Close: it closes the database driver and with it s.db.
	defer src.Close()

	m, err := migrate.NewWithInstance("iofs", src, string(s.dialect), driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}

	if err := run(m); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
