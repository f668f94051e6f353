// Package sqlite implements storage.Store on a single SQLite file through
// modernc.org/sqlite, for one-household deployments without Postgres.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fdg312/preppair/internal/dbmigrate"
	"github.com/fdg312/preppair/internal/storage"

	_ "modernc.org/sqlite"
)

// timeLayout keeps timestamps lexicographically sortable.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

type SQLiteStorage struct {
	path string
	db   *sql.DB
	now  func() time.Time
}

var _ storage.Store = (*SQLiteStorage)(nil)

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// New opens (creating if needed) the database file, applies migrations and
// ensures the default household user.
func New(ctx context.Context, path string, logger dbmigrate.Logger) (*SQLiteStorage, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbmigrate.SQLiteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows one writer; a single connection serializes transactions.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := dbmigrate.Up(ctx, db, dbmigrate.DialectSQLite, logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	s := &SQLiteStorage{
		path: path,
		db:   db,
		now:  func() time.Time { return time.Now().UTC() },
	}

	if err := s.ensureDefaultUser(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func (s *SQLiteStorage) timestamp() string {
	return s.now().UTC().Format(timeLayout)
}

func parseTime(v string) time.Time {
	t, err := time.Parse(timeLayout, v)
	if err != nil {
		t, _ = time.Parse(time.RFC3339Nano, v)
	}
	return t
}

func (s *SQLiteStorage) ensureDefaultUser(ctx context.Context) error {
	ts := s.timestamp()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, weekly_budget, default_servings, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`,
		storage.DefaultUserID, storage.DefaultWeeklyBudget, storage.DefaultDefaultServings, ts, ts)
	if err != nil {
		return fmt.Errorf("failed to ensure default user: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) GetUser(ctx context.Context, userID string) (storage.User, bool, error) {
	var u storage.User
	var createdAt, updatedAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, pin_hash, weekly_budget, default_servings, created_at, updated_at
		FROM users WHERE id = ?`, userID).Scan(
		&u.ID, &u.PinHash, &u.WeeklyBudget, &u.DefaultServings, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.User{}, false, nil
	}
	if err != nil {
		return storage.User{}, false, fmt.Errorf("failed to get user: %w", err)
	}
	u.CreatedAt = parseTime(createdAt)
	u.UpdatedAt = parseTime(updatedAt)
	return u, true, nil
}

func (s *SQLiteStorage) SetPinHash(ctx context.Context, userID string, pinHash string) error {
	ts := s.timestamp()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, pin_hash, weekly_budget, default_servings, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET pin_hash = excluded.pin_hash, updated_at = excluded.updated_at`,
		userID, pinHash, storage.DefaultWeeklyBudget, storage.DefaultDefaultServings, ts, ts)
	if err != nil {
		return fmt.Errorf("failed to set pin hash: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) UpdateUserSettings(ctx context.Context, userID string, weeklyBudget float64, defaultServings int) (storage.User, error) {
	ts := s.timestamp()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, weekly_budget, default_servings, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE
		SET weekly_budget = excluded.weekly_budget,
		    default_servings = excluded.default_servings,
		    updated_at = excluded.updated_at`,
		userID, weeklyBudget, defaultServings, ts, ts)
	if err != nil {
		return storage.User{}, fmt.Errorf("failed to update user settings: %w", err)
	}

	u, _, err := s.GetUser(ctx, userID)
	return u, err
}
