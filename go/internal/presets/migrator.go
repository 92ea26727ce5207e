package presets

import (
	"database/sql"
	"embed"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// goose keeps dialect and filesystem in package state.
var migrateMu sync.Mutex

func runMigrations(db *sql.DB, dialect goose.Dialect) error {
	migrateMu.Lock()
	defer migrateMu.Unlock()

	goose.SetBaseFS(migrationFS)
	if err := goose.SetDialect(string(dialect)); err != nil {
		return fmt.Errorf("setup goose: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}
