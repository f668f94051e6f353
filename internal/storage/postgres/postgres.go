package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/fdg312/preppair/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStorage is the Postgres implementation of storage.Store.
type PostgresStorage struct {
	pool *pgxpool.Pool
}

var _ storage.Store = (*PostgresStorage)(nil)

// New connects to Postgres and ensures the default household user exists.
func New(ctx context.Context, databaseURL string) (*PostgresStorage, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	ps := &PostgresStorage{pool: pool}

	if err := ps.ensureDefaultUser(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return ps, nil
}

func (p *PostgresStorage) Close() error {
	p.pool.Close()
	return nil
}

// ensureDefaultUser creates the household user if it is missing.
func (p *PostgresStorage) ensureDefaultUser(ctx context.Context) error {
	query := `
		INSERT INTO users (id, weekly_budget, default_servings)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING
	`

	_, err := p.pool.Exec(ctx, query, storage.DefaultUserID, storage.DefaultWeeklyBudget, storage.DefaultDefaultServings)
	if err != nil {
		return fmt.Errorf("failed to ensure default user: %w", err)
	}
	return nil
}

func (p *PostgresStorage) GetUser(ctx context.Context, userID string) (storage.User, bool, error) {
	query := `
		SELECT id, pin_hash, weekly_budget::float8, default_servings, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	var u storage.User
	err := p.pool.QueryRow(ctx, query, userID).Scan(
		&u.ID,
		&u.PinHash,
		&u.WeeklyBudget,
		&u.DefaultServings,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.User{}, false, nil
	}
	if err != nil {
		return storage.User{}, false, fmt.Errorf("failed to get user: %w", err)
	}
	return u, true, nil
}

func (p *PostgresStorage) SetPinHash(ctx context.Context, userID string, pinHash string) error {
	query := `
		INSERT INTO users (id, pin_hash, weekly_budget, default_servings)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET pin_hash = EXCLUDED.pin_hash, updated_at = NOW()
	`

	_, err := p.pool.Exec(ctx, query, userID, pinHash, storage.DefaultWeeklyBudget, storage.DefaultDefaultServings)
	if err != nil {
		return fmt.Errorf("failed to set pin hash: %w", err)
	}
	return nil
}

func (p *PostgresStorage) UpdateUserSettings(ctx context.Context, userID string, weeklyBudget float64, defaultServings int) (storage.User, error) {
	query := `
		INSERT INTO users (id, weekly_budget, default_servings)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET weekly_budget = EXCLUDED.weekly_budget,
		    default_servings = EXCLUDED.default_servings,
		    updated_at = NOW()
		RETURNING id, pin_hash, weekly_budget::float8, default_servings, created_at, updated_at
	`

	var u storage.User
	err := p.pool.QueryRow(ctx, query, userID, weeklyBudget, defaultServings).Scan(
		&u.ID,
		&u.PinHash,
		&u.WeeklyBudget,
		&u.DefaultServings,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return storage.User{}, fmt.Errorf("failed to update user settings: %w", err)
	}
	return u, nil
}
