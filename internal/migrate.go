package internal

import (
	"database/sql"
	"embed"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

func RunMigrations(db *sql.DB) error {
	if err := setupGoose(); err != nil {
		return err
	}
	return goose.Up(db, "migrations")
}

// MigrationStatus prints the applied state of every embedded migration.
func MigrationStatus(db *sql.DB) error {
	if err := setupGoose(); err != nil {
		return err
	}
	return goose.Status(db, "migrations")
}

// RollbackMigration undoes the most recent migration.
func RollbackMigration(db *sql.DB) error {
	if err := setupGoose(); err != nil {
		return err
	}
	return goose.Down(db, "migrations")
}

func setupGoose() error {
	goose.SetBaseFS(migrations)
	return goose.SetDialect("postgres")
}
