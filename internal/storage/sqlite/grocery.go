package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fdg312/preppair/internal/storage"
	"github.com/google/uuid"
)

const groceryColumns = `id, plan_id, ingredient_name, total_quantity, unit, category, is_checked, sort_order, created_at`

func scanGroceryItem(row rowScanner) (storage.GroceryItem, error) {
	var item storage.GroceryItem
	var createdAt string
	err := row.Scan(
		&item.ID,
		&item.PlanID,
		&item.IngredientName,
		&item.TotalQuantity,
		&item.Unit,
		&item.Category,
		&item.IsChecked,
		&item.SortOrder,
		&createdAt,
	)
	if err != nil {
		return storage.GroceryItem{}, err
	}
	item.CreatedAt = parseTime(createdAt)
	return item, nil
}

func (s *SQLiteStorage) RegenerateGroceryList(ctx context.Context, planID uuid.UUID, build storage.GroceryBuilder) ([]storage.GroceryItem, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	slots, err := listSlots(ctx, tx, planID, true)
	if err != nil {
		return nil, err
	}

	recipeIDs := make([]uuid.UUID, 0, len(slots))
	seen := make(map[uuid.UUID]bool)
	for _, slot := range slots {
		if !seen[*slot.RecipeID] {
			seen[*slot.RecipeID] = true
			recipeIDs = append(recipeIDs, *slot.RecipeID)
		}
	}

	ingredients, err := listIngredients(ctx, tx, recipeIDs)
	if err != nil {
		return nil, err
	}

	meals := make([]storage.PlannedMeal, 0, len(slots))
	for _, slot := range slots {
		meals = append(meals, storage.PlannedMeal{
			SlotID:      slot.ID,
			RecipeID:    slot.RecipeID,
			Ingredients: ingredients[*slot.RecipeID],
		})
	}

	drafts := build(meals)

	if _, err := tx.ExecContext(ctx, `DELETE FROM grocery_items WHERE plan_id = ?`, planID); err != nil {
		return nil, fmt.Errorf("failed to clear grocery items: %w", err)
	}

	insert := `
		INSERT INTO grocery_items (id, plan_id, ingredient_name, total_quantity, unit, category, sort_order, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING ` + groceryColumns

	ts := s.timestamp()
	items := make([]storage.GroceryItem, 0, len(drafts))
	for i, d := range drafts {
		item, err := scanGroceryItem(tx.QueryRowContext(ctx, insert,
			uuid.New(), planID, d.IngredientName, d.TotalQuantity, d.Unit, d.Category, i, ts))
		if err != nil {
			return nil, fmt.Errorf("failed to insert grocery item: %w", err)
		}
		items = append(items, item)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return items, nil
}

func (s *SQLiteStorage) ListGroceryItems(ctx context.Context, planID uuid.UUID) ([]storage.GroceryItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+groceryColumns+` FROM grocery_items WHERE plan_id = ? ORDER BY sort_order, created_at`, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to list grocery items: %w", err)
	}
	defer rows.Close()

	items := []storage.GroceryItem{}
	for rows.Next() {
		item, err := scanGroceryItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan grocery item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating grocery items: %w", err)
	}
	return items, nil
}

func (s *SQLiteStorage) ToggleGroceryItem(ctx context.Context, planID uuid.UUID, itemID uuid.UUID) (storage.GroceryItem, bool, error) {
	item, err := scanGroceryItem(s.db.QueryRowContext(ctx, `
		UPDATE grocery_items SET is_checked = 1 - is_checked
		WHERE id = ? AND plan_id = ?
		RETURNING `+groceryColumns, itemID, planID))
	if errors.Is(err, sql.ErrNoRows) {
		return storage.GroceryItem{}, false, nil
	}
	if err != nil {
		return storage.GroceryItem{}, false, fmt.Errorf("failed to toggle grocery item: %w", err)
	}
	return item, true, nil
}

func (s *SQLiteStorage) UncheckGroceryItems(ctx context.Context, planID uuid.UUID) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE grocery_items SET is_checked = 0 WHERE plan_id = ? AND is_checked = 1`, planID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear checked items: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to clear checked items: %w", err)
	}
	return int(n), nil
}

func (s *SQLiteStorage) CountGroceryItems(ctx context.Context, planID uuid.UUID) (storage.GroceryCount, error) {
	var count storage.GroceryCount
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(is_checked), 0)
		FROM grocery_items
		WHERE plan_id = ?`, planID).Scan(&count.Total, &count.Checked)
	if err != nil {
		return storage.GroceryCount{}, fmt.Errorf("failed to count grocery items: %w", err)
	}
	return count, nil
}
