package db

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/envelope-app/segora-backend/log"
)

//go:embed migrations/*.sql
var migrations embed.FS

func newMigrate(postgresURL string) (*migrate.Migrate, error) {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("load migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, postgresURL)
	if err != nil {
		return nil, fmt.Errorf("init migrations: %w", err)
	}
	return m, nil
}

// MigrateUp applies every pending migration.
func MigrateUp(postgresURL string) error {
	m, err := newMigrate(postgresURL)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info.Printf("Schema is up to date\n")
			return nil
		}
		return fmt.Errorf("migrate up: %w", err)
	}
	v, _, _ := m.Version()
	log.Info.Printf("Migrations applied, schema at version %d\n", v)
	return nil
}

// MigrateDown rolls back the given number of migrations.
func MigrateDown(postgresURL string, steps int) error {
	m, err := newMigrate(postgresURL)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate down: %w", err)
	}
	log.Info.Printf("Rolled back %d migration(s)\n", steps)
	return nil
}
