package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// RunMigrations applies all up migrations to the database at dbPath. An empty
// migrationsPath uses the migrations compiled into the binary.
func RunMigrations(dbPath, migrationsPath string) error {
	dsn := fmt.Sprintf("sqlite3://%s?_foreign_keys=on", dbPath)

	var (
		m   *migrate.Migrate
		err error
	)
	if migrationsPath == "" {
		src, serr := iofs.New(migrationFiles, "migrations")
		if serr != nil {
			return serr
		}
		m, err = migrate.NewWithSourceInstance("iofs", src, dsn)
	} else {
		m, err = migrate.New(fmt.Sprintf("file://%s", migrationsPath), dsn)
	}
	if err != nil {
		return err
	}
	defer m.Close()

	return up(m)
}

// RunMigrationsWithDB allows reuse of an existing *sql.DB.
func RunMigrationsWithDB(db *sql.DB) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return err
	}
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return err
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return err
	}
	return up(m)
}

func up(m *migrate.Migrate) error {
	err := m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}
