package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/fdg312/preppair/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const groceryColumns = `id, plan_id, ingredient_name, total_quantity::float8, unit, category, is_checked, sort_order, created_at`

func scanGroceryItem(row pgx.Row) (storage.GroceryItem, error) {
	var item storage.GroceryItem
	err := row.Scan(
		&item.ID,
		&item.PlanID,
		&item.IngredientName,
		&item.TotalQuantity,
		&item.Unit,
		&item.Category,
		&item.IsChecked,
		&item.SortOrder,
		&item.CreatedAt,
	)
	return item, err
}

func (p *PostgresStorage) RegenerateGroceryList(ctx context.Context, planID uuid.UUID, build storage.GroceryBuilder) ([]storage.GroceryItem, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Serialize concurrent regenerations of the same plan.
	if _, err := tx.Exec(ctx, `SELECT id FROM meal_plans WHERE id = $1 FOR UPDATE`, planID); err != nil {
		return nil, fmt.Errorf("failed to lock week plan: %w", err)
	}

	slots, err := listSlots(ctx, tx, planID, true)
	if err != nil {
		return nil, err
	}

	recipeIDs := make([]uuid.UUID, 0, len(slots))
	seen := make(map[uuid.UUID]bool)
	for _, s := range slots {
		if !seen[*s.RecipeID] {
			seen[*s.RecipeID] = true
			recipeIDs = append(recipeIDs, *s.RecipeID)
		}
	}

	ingredients, err := listIngredients(ctx, tx, recipeIDs)
	if err != nil {
		return nil, err
	}

	meals := make([]storage.PlannedMeal, 0, len(slots))
	for _, s := range slots {
		meals = append(meals, storage.PlannedMeal{
			SlotID:      s.ID,
			RecipeID:    s.RecipeID,
			Ingredients: ingredients[*s.RecipeID],
		})
	}

	drafts := build(meals)

	if _, err := tx.Exec(ctx, `DELETE FROM grocery_items WHERE plan_id = $1`, planID); err != nil {
		return nil, fmt.Errorf("failed to clear grocery items: %w", err)
	}

	insert := `
		INSERT INTO grocery_items (id, plan_id, ingredient_name, total_quantity, unit, category, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + groceryColumns

	items := make([]storage.GroceryItem, 0, len(drafts))
	for i, d := range drafts {
		item, err := scanGroceryItem(tx.QueryRow(ctx, insert,
			uuid.New(), planID, d.IngredientName, d.TotalQuantity, d.Unit, d.Category, i))
		if err != nil {
			return nil, fmt.Errorf("failed to insert grocery item: %w", err)
		}
		items = append(items, item)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return items, nil
}

func (p *PostgresStorage) ListGroceryItems(ctx context.Context, planID uuid.UUID) ([]storage.GroceryItem, error) {
	query := `SELECT ` + groceryColumns + ` FROM grocery_items WHERE plan_id = $1 ORDER BY sort_order, created_at`

	rows, err := p.pool.Query(ctx, query, planID)
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

func (p *PostgresStorage) ToggleGroceryItem(ctx context.Context, planID uuid.UUID, itemID uuid.UUID) (storage.GroceryItem, bool, error) {
	query := `
		UPDATE grocery_items SET is_checked = NOT is_checked
		WHERE id = $1 AND plan_id = $2
		RETURNING ` + groceryColumns

	item, err := scanGroceryItem(p.pool.QueryRow(ctx, query, itemID, planID))
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.GroceryItem{}, false, nil
	}
	if err != nil {
		return storage.GroceryItem{}, false, fmt.Errorf("failed to toggle grocery item: %w", err)
	}
	return item, true, nil
}

func (p *PostgresStorage) UncheckGroceryItems(ctx context.Context, planID uuid.UUID) (int, error) {
	tag, err := p.pool.Exec(ctx,
		`UPDATE grocery_items SET is_checked = FALSE WHERE plan_id = $1 AND is_checked = TRUE`,
		planID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear checked items: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (p *PostgresStorage) CountGroceryItems(ctx context.Context, planID uuid.UUID) (storage.GroceryCount, error) {
	query := `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE is_checked)
		FROM grocery_items
		WHERE plan_id = $1
	`

	var count storage.GroceryCount
	if err := p.pool.QueryRow(ctx, query, planID).Scan(&count.Total, &count.Checked); err != nil {
		return storage.GroceryCount{}, fmt.Errorf("failed to count grocery items: %w", err)
	}
	return count, nil
}
