package dbmigrate

import (
	"errors"

	"github.com/fdg312/preppair/internal/config"
)

// Target is a database selected for migrations.
type Target struct {
	Dialect string
	DSN     string
	Source  string
	Warning string
}

const pooledWarning = "using pooled connection for DDL is not recommended; set DATABASE_URL_DIRECT"

// SelectTarget picks where migrations run. Postgres wins when any
// DATABASE_URL* is set, in the order DIRECT, DATABASE_URL, POOLED (the last
// with a warning). requireDirect accepts only DATABASE_URL_DIRECT for
// Postgres. Without Postgres the SQLite file is used.
func SelectTarget(cfg *config.Config, requireDirect bool) (Target, error) {
	postgres := []struct {
		source  string
		dsn     string
		warning string
	}{
		{"DATABASE_URL_DIRECT", cfg.DatabaseURLDirect, ""},
		{"DATABASE_URL", cfg.DatabaseURLRaw, ""},
		{"DATABASE_URL_POOLED", cfg.DatabaseURLPooled, pooledWarning},
	}
	if cfg.DatabaseURL != "" && cfg.DatabaseURLRaw == "" && cfg.DatabaseURLPooled == "" {
		postgres[1].dsn = cfg.DatabaseURL
	}

	anyPostgres := false
	for _, c := range postgres {
		if c.dsn == "" {
			continue
		}
		anyPostgres = true
		if requireDirect && c.source != "DATABASE_URL_DIRECT" {
			continue
		}
		return Target{Dialect: DialectPostgres, DSN: c.dsn, Source: c.source, Warning: c.warning}, nil
	}
	if anyPostgres {
		return Target{}, errors.New("DATABASE_URL_DIRECT is required for DDL/migrations")
	}

	if cfg.SQLitePath != "" {
		return Target{Dialect: DialectSQLite, DSN: SQLiteDSN(cfg.SQLitePath), Source: "SQLITE_PATH"}, nil
	}

	return Target{}, errors.New("no database configured (set DATABASE_URL_DIRECT, DATABASE_URL or SQLITE_PATH)")
}

// SQLiteDSN adds the connection pragmas every SQLite connection needs.
func SQLiteDSN(path string) string {
	return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}
