package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"unified-console/core/utils"

	"github.com/pressly/goose/v3"
)

//go:embed migrations_pg/*.sql
var gooseMigrationsPgFS embed.FS

//go:embed migrations_sqlite/*.sql
var gooseMigrationsSqliteFS embed.FS

// ApplyMigrations brings the schema up to date. PostgreSQL is the
// production dialect; SQLite is used only under go test.
func ApplyMigrations(ctx context.Context, db *sql.DB, logger *utils.Logger) error {
	if db == nil {
		return fmt.Errorf("nil db")
	}
	dialect := "postgres"
	dir := "migrations_pg"
	var fsys fs.FS = gooseMigrationsPgFS
	if isTestRuntime() {
		dialect = "sqlite3"
		dir = "migrations_sqlite"
		fsys = gooseMigrationsSqliteFS
	}
	if err := goose.SetDialect(dialect); err != nil {
		return err
	}
	goose.SetBaseFS(fsys)
	if logger != nil {
		logger.Printf("applying goose migrations (%s)", dialect)
	}
	if err := goose.UpContext(ctx, db, dir); err != nil {
		return err
	}
	if logger != nil {
		logger.Printf("goose migrations applied")
	}
	return nil
}
