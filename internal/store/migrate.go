package store

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/ilmartoo-go/lidaranomaly/internal/monitoring"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// applyMigrations brings db up to the latest registry schema version,
// treating "no change" as success rather than an error.
func applyMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("store: iofs source driver: %w", err)
	}
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("store: sqlite migrate driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("store: migrate instance: %w", err)
	}
	m.Log = &migrateLogger{}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("store: apply migrations: %w", err)
	}
	return nil
}

// migrateLogger adapts monitoring.Logf to the migrate.Logger interface.
type migrateLogger struct{}

func (l *migrateLogger) Printf(format string, v ...any) { monitoring.Logf("migrate: "+format, v...) }
func (l *migrateLogger) Verbose() bool                  { return false }
