package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/fdg312/preppair/internal/storage"
	"github.com/google/uuid"
)

const budgetColumns = `id, user_id, amount::float8, store, to_char(date, 'YYYY-MM-DD'), created_at`

func (p *PostgresStorage) CreateBudgetEntry(ctx context.Context, userID string, input storage.BudgetEntryInput) (storage.BudgetEntry, error) {
	query := `
		INSERT INTO budget_entries (id, user_id, amount, store, date)
		VALUES ($1, $2, $3, $4, $5::date)
		RETURNING ` + budgetColumns

	var e storage.BudgetEntry
	err := p.pool.QueryRow(ctx, query, uuid.New(), userID, input.Amount, input.Store, input.Date).Scan(
		&e.ID, &e.UserID, &e.Amount, &e.Store, &e.Date, &e.CreatedAt,
	)
	if err != nil {
		return storage.BudgetEntry{}, fmt.Errorf("failed to create budget entry: %w", err)
	}
	return e, nil
}

// dateRange appends the optional date bounds to a WHERE clause.
func dateRange(b *strings.Builder, args []any, from, to string) []any {
	if from != "" {
		args = append(args, from)
		fmt.Fprintf(b, " AND date >= $%d::date", len(args))
	}
	if to != "" {
		args = append(args, to)
		fmt.Fprintf(b, " AND date <= $%d::date", len(args))
	}
	return args
}

func (p *PostgresStorage) ListBudgetEntries(ctx context.Context, userID string, from, to string) ([]storage.BudgetEntry, error) {
	var b strings.Builder
	b.WriteString(`SELECT ` + budgetColumns + ` FROM budget_entries WHERE user_id = $1`)
	args := dateRange(&b, []any{userID}, from, to)
	b.WriteString(` ORDER BY date DESC, created_at DESC`)

	rows, err := p.pool.Query(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list budget entries: %w", err)
	}
	defer rows.Close()

	entries := []storage.BudgetEntry{}
	for rows.Next() {
		var e storage.BudgetEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Amount, &e.Store, &e.Date, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan budget entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating budget entries: %w", err)
	}
	return entries, nil
}

func (p *PostgresStorage) DeleteBudgetEntry(ctx context.Context, userID string, entryID uuid.UUID) (bool, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM budget_entries WHERE id = $1 AND user_id = $2`, entryID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete budget entry: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (p *PostgresStorage) SumBudgetEntries(ctx context.Context, userID string, from, to string) (float64, error) {
	var b strings.Builder
	b.WriteString(`SELECT COALESCE(SUM(amount), 0)::float8 FROM budget_entries WHERE user_id = $1`)
	args := dateRange(&b, []any{userID}, from, to)

	var total float64
	if err := p.pool.QueryRow(ctx, b.String(), args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum budget entries: %w", err)
	}
	return total, nil
}
