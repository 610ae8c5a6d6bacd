package postgres

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// MigrationStatus describes where the database schema stands relative to the
// migrations compiled into the binary.
type MigrationStatus struct {
	Version uint
	Latest  uint
	Dirty   bool
}

func (s MigrationStatus) UpToDate() bool {
	return !s.Dirty && s.Version == s.Latest
}

// MigrateUp applies every pending migration. The caller owns db.
func MigrateUp(db *sql.DB) error {
	m, err := newMigrate(db)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

// CheckMigrationStatus reports the applied and latest versions.
func CheckMigrationStatus(db *sql.DB) (*MigrationStatus, error) {
	m, err := newMigrate(db)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read migration files: %w", err)
	}
	defer src.Close()

	latest, err := latestVersion(src)
	if err != nil {
		return nil, fmt.Errorf("failed to determine latest version: %w", err)
	}

	status := &MigrationStatus{Latest: latest}
	version, dirty, err := m.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return status, nil
		}
		return nil, fmt.Errorf("failed to get database version: %w", err)
	}
	status.Version = version
	status.Dirty = dirty
	return status, nil
}

func newMigrate(db *sql.DB) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to create source driver: %w", err)
	}

	driver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("failed to create database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}

func latestVersion(src source.Driver) (uint, error) {
	version, err := src.First()
	if err != nil {
		return 0, err
	}
	for {
		next, err := src.Next(version)
		if err != nil {
			break
		}
		version = next
	}
	return version, nil
}
