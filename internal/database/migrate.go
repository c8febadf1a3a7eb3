package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// LatestVersion is the schema version the embedded migrations end at.
// Version 1 holds posts only; version 2 adds followed_users.
const LatestVersion uint = 2

func newMigrator(dbPath string) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, "sqlite3://"+dbPath)
	if err != nil {
		return nil, fmt.Errorf("init migrator: %w", err)
	}
	return m, nil
}

// RunMigrations applies all embedded up migrations to the cache at dbPath.
func RunMigrations(dbPath string) error {
	m, err := newMigrator(dbPath)
	if err != nil {
		return err
	}
	defer m.Close()

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}

// MigrateTo moves the cache at dbPath to exactly version.
func MigrateTo(dbPath string, version uint) error {
	m, err := newMigrator(dbPath)
	if err != nil {
		return err
	}
	defer m.Close()

	err = m.Migrate(version)
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}

// RunMigrationsFrom applies the up migrations found in dir instead of the embedded set.
func RunMigrationsFrom(dbPath, dir string) error {
	m, err := migrate.New(fmt.Sprintf("file://%s", dir), "sqlite3://"+dbPath)
	if err != nil {
		return err
	}
	defer m.Close()

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}

// Migrate brings the cache to LatestVersion. The cache holds nothing that
// cannot be fetched again, so with destructive set a file that fails to
// migrate is deleted and rebuilt from an empty schema.
func Migrate(dbPath string, destructive bool) error {
	err := RunMigrations(dbPath)
	if err == nil || !destructive {
		return err
	}
	log.Printf("database: migrating %s failed, rebuilding cache: %v", dbPath, err)
	if err := removeCache(dbPath); err != nil {
		return fmt.Errorf("remove stale cache: %w", err)
	}
	return RunMigrations(dbPath)
}

// SchemaVersion reports the version recorded by the migrator.
func SchemaVersion(db *sql.DB) (uint, bool, error) {
	var (
		version int64
		dirty   bool
	)
	err := db.QueryRow(`SELECT version, dirty FROM schema_migrations LIMIT 1`).Scan(&version, &dirty)
	if err != nil {
		return 0, false, fmt.Errorf("read schema version: %w", err)
	}
	return uint(version), dirty, nil
}

func removeCache(dbPath string) error {
	for _, p := range []string{dbPath, dbPath + "-journal", dbPath + "-wal", dbPath + "-shm"} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}
