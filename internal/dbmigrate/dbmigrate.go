package dbmigrate

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"

	"github.com/fdg312/preppair/migrations"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

// Logger receives goose progress output.
type Logger interface {
	Printf(format string, v ...any)
	Fatalf(format string, v ...any)
}

// goose keeps dialect, base FS and logger in package state.
var gooseMu sync.Mutex

func driverName(dialect string) (string, string, error) {
	switch dialect {
	case DialectPostgres:
		return "pgx", "postgres", nil
	case DialectSQLite:
		return "sqlite", "sqlite3", nil
	default:
		return "", "", fmt.Errorf("unsupported migration dialect %q", dialect)
	}
}

// Run opens the database described by dsn and executes a goose command
// (up, down, status, version, redo, reset) against the embedded migrations.
func Run(ctx context.Context, command string, dialect string, dsn string, logger Logger) error {
	if dsn == "" {
		return fmt.Errorf("database URL is empty")
	}

	driver, _, err := driverName(dialect)
	if err != nil {
		return err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	return Exec(ctx, db, command, dialect, logger)
}

// Exec runs a goose command on an already opened database.
func Exec(ctx context.Context, db *sql.DB, command string, dialect string, logger Logger) error {
	_, gooseDialect, err := driverName(dialect)
	if err != nil {
		return err
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations.FS)
	defer goose.SetBaseFS(nil)

	if logger != nil {
		goose.SetLogger(logger)
	} else {
		goose.SetLogger(goose.NopLogger())
	}

	if err := goose.SetDialect(gooseDialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	if err := goose.RunContext(ctx, command, db, dialect); err != nil {
		return fmt.Errorf("goose %s failed: %w", command, err)
	}

	return nil
}

// Up applies every pending migration.
func Up(ctx context.Context, db *sql.DB, dialect string, logger Logger) error {
	return Exec(ctx, db, "up", dialect, logger)
}
