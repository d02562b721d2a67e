package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var errSchemaMismatch = errors.New("schema version does not match this build")

// RunMigrations brings the schema up to date. A dirty schema, or one whose
// version this build does not know, is dropped and created from scratch.
func RunMigrations(dbPath string) error {
	err := migrateUp(dbPath)
	if err == nil {
		return nil
	}
	if !errors.Is(err, errSchemaMismatch) {
		return err
	}

	slog.Warn("Recreating database after schema version change", "path", dbPath, "reason", err)
	if err := dropTables(dbPath); err != nil {
		return fmt.Errorf("drop schema: %w", err)
	}
	return migrateUp(dbPath)
}

// dropTables removes every user table, including schema_migrations.
// SQLite-internal tables such as sqlite_sequence cannot be dropped and are
// cleaned up with the tables that own them.
func dropTables(dbPath string) error {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'`)
	if err != nil {
		return err
	}
	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return err
		}
		tables = append(tables, name)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, name := range tables {
		if _, err := db.Exec(`DROP TABLE IF EXISTS "` + name + `"`); err != nil {
			return fmt.Errorf("drop %s: %w", name, err)
		}
	}
	return nil
}

func migrateUp(dbPath string) error {
	return withMigrate(dbPath, func(m *migrate.Migrate) error {
		err := m.Up()
		var dirty migrate.ErrDirty
		switch {
		case err == nil, errors.Is(err, migrate.ErrNoChange):
			return nil
		case errors.As(err, &dirty):
			return fmt.Errorf("%w: dirty at version %d", errSchemaMismatch, dirty.Version)
		case errors.Is(err, os.ErrNotExist):
			return fmt.Errorf("%w: %v", errSchemaMismatch, err)
		default:
			return fmt.Errorf("run migrations: %w", err)
		}
	})
}

func withMigrate(dbPath string, fn func(*migrate.Migrate) error) error {
	// Separate connection so migrations never share state with the main pool
	migrateDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open migration database: %w", err)
	}
	defer migrateDB.Close()

	driver, err := sqlite.WithInstance(migrateDB, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite driver: %w", err)
	}

	d, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", d, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	return fn(m)
}
