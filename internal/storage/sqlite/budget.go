package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/fdg312/preppair/internal/storage"
	"github.com/google/uuid"
)

const budgetColumns = `id, user_id, amount, store, date, created_at`

func scanBudgetEntry(row rowScanner) (storage.BudgetEntry, error) {
	var e storage.BudgetEntry
	var createdAt string
	if err := row.Scan(&e.ID, &e.UserID, &e.Amount, &e.Store, &e.Date, &createdAt); err != nil {
		return storage.BudgetEntry{}, err
	}
	e.CreatedAt = parseTime(createdAt)
	return e, nil
}

func (s *SQLiteStorage) CreateBudgetEntry(ctx context.Context, userID string, input storage.BudgetEntryInput) (storage.BudgetEntry, error) {
	e, err := scanBudgetEntry(s.db.QueryRowContext(ctx, `
		INSERT INTO budget_entries (id, user_id, amount, store, date, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING `+budgetColumns,
		uuid.New(), userID, input.Amount, input.Store, input.Date, s.timestamp()))
	if err != nil {
		return storage.BudgetEntry{}, fmt.Errorf("failed to create budget entry: %w", err)
	}
	return e, nil
}

// dateRange appends the optional date bounds to a WHERE clause.
// Dates are stored as YYYY-MM-DD so string comparison orders them.
func dateRange(b *strings.Builder, args []any, from, to string) []any {
	if from != "" {
		b.WriteString(" AND date >= ?")
		args = append(args, from)
	}
	if to != "" {
		b.WriteString(" AND date <= ?")
		args = append(args, to)
	}
	return args
}

func (s *SQLiteStorage) ListBudgetEntries(ctx context.Context, userID string, from, to string) ([]storage.BudgetEntry, error) {
	var b strings.Builder
	b.WriteString(`SELECT ` + budgetColumns + ` FROM budget_entries WHERE user_id = ?`)
	args := dateRange(&b, []any{userID}, from, to)
	b.WriteString(` ORDER BY date DESC, created_at DESC`)

	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list budget entries: %w", err)
	}
	defer rows.Close()

	entries := []storage.BudgetEntry{}
	for rows.Next() {
		e, err := scanBudgetEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan budget entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating budget entries: %w", err)
	}
	return entries, nil
}

func (s *SQLiteStorage) DeleteBudgetEntry(ctx context.Context, userID string, entryID uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM budget_entries WHERE id = ? AND user_id = ?`, entryID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete budget entry: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (s *SQLiteStorage) SumBudgetEntries(ctx context.Context, userID string, from, to string) (float64, error) {
	var b strings.Builder
	b.WriteString(`SELECT COALESCE(SUM(amount), 0.0) FROM budget_entries WHERE user_id = ?`)
	args := dateRange(&b, []any{userID}, from, to)

	var total float64
	if err := s.db.QueryRowContext(ctx, b.String(), args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum budget entries: %w", err)
	}
	return total, nil
}
