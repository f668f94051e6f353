package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fdg312/preppair/internal/storage"
	"github.com/google/uuid"
)

const planColumns = `id, user_id, week_start_date, created_at, updated_at`

const slotColumns = `id, plan_id, day_of_week, meal_type, recipe_id, status, created_at`

const slotOrder = `ORDER BY day_of_week,
	CASE meal_type WHEN 'breakfast' THEN 0 WHEN 'lunch' THEN 1 ELSE 2 END`

func scanPlan(row rowScanner) (storage.WeekPlan, error) {
	var plan storage.WeekPlan
	var createdAt, updatedAt string
	if err := row.Scan(&plan.ID, &plan.UserID, &plan.WeekStartDate, &createdAt, &updatedAt); err != nil {
		return storage.WeekPlan{}, err
	}
	plan.CreatedAt = parseTime(createdAt)
	plan.UpdatedAt = parseTime(updatedAt)
	return plan, nil
}

func scanSlot(row rowScanner) (storage.MealSlot, error) {
	var slot storage.MealSlot
	var createdAt string
	if err := row.Scan(&slot.ID, &slot.PlanID, &slot.DayOfWeek, &slot.MealType, &slot.RecipeID, &slot.Status, &createdAt); err != nil {
		return storage.MealSlot{}, err
	}
	slot.CreatedAt = parseTime(createdAt)
	return slot, nil
}

func (s *SQLiteStorage) GetOrCreateWeekPlan(ctx context.Context, userID string, weekStartDate string) (storage.WeekPlan, error) {
	ts := s.timestamp()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO meal_plans (id, user_id, week_start_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, week_start_date) DO NOTHING`,
		uuid.New(), userID, weekStartDate, ts, ts)
	if err != nil {
		return storage.WeekPlan{}, fmt.Errorf("failed to create week plan: %w", err)
	}

	plan, err := scanPlan(s.db.QueryRowContext(ctx,
		`SELECT `+planColumns+` FROM meal_plans WHERE user_id = ? AND week_start_date = ?`,
		userID, weekStartDate))
	if err != nil {
		return storage.WeekPlan{}, fmt.Errorf("failed to get week plan: %w", err)
	}
	return plan, nil
}

func (s *SQLiteStorage) GetWeekPlan(ctx context.Context, planID uuid.UUID) (storage.WeekPlan, bool, error) {
	plan, err := scanPlan(s.db.QueryRowContext(ctx,
		`SELECT `+planColumns+` FROM meal_plans WHERE id = ?`, planID))
	if errors.Is(err, sql.ErrNoRows) {
		return storage.WeekPlan{}, false, nil
	}
	if err != nil {
		return storage.WeekPlan{}, false, fmt.Errorf("failed to get week plan: %w", err)
	}
	return plan, true, nil
}

func (s *SQLiteStorage) ListSlots(ctx context.Context, planID uuid.UUID) ([]storage.MealSlot, error) {
	return listSlots(ctx, s.db, planID, false)
}

func listSlots(ctx context.Context, q queryer, planID uuid.UUID, filledOnly bool) ([]storage.MealSlot, error) {
	query := `SELECT ` + slotColumns + ` FROM meal_slots WHERE plan_id = ?`
	if filledOnly {
		query += ` AND recipe_id IS NOT NULL`
	}
	query += ` ` + slotOrder

	rows, err := q.QueryContext(ctx, query, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}
	defer rows.Close()

	slots := []storage.MealSlot{}
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan slot: %w", err)
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating slots: %w", err)
	}
	return slots, nil
}

func getSlot(ctx context.Context, q queryer, planID uuid.UUID, slotID uuid.UUID) (storage.MealSlot, bool, error) {
	slot, err := scanSlot(q.QueryRowContext(ctx,
		`SELECT `+slotColumns+` FROM meal_slots WHERE id = ? AND plan_id = ?`, slotID, planID))
	if errors.Is(err, sql.ErrNoRows) {
		return storage.MealSlot{}, false, nil
	}
	if err != nil {
		return storage.MealSlot{}, false, fmt.Errorf("failed to get slot: %w", err)
	}
	return slot, true, nil
}

func (s *SQLiteStorage) GetSlot(ctx context.Context, planID uuid.UUID, slotID uuid.UUID) (storage.MealSlot, bool, error) {
	return getSlot(ctx, s.db, planID, slotID)
}

func (s *SQLiteStorage) AssignSlot(ctx context.Context, planID uuid.UUID, dayOfWeek int, mealType string, recipeID uuid.UUID) (storage.MealSlot, error) {
	query := `
		INSERT INTO meal_slots (id, plan_id, day_of_week, meal_type, recipe_id, status, created_at)
		VALUES (?, ?, ?, ?, ?, 'planned', ?)
		ON CONFLICT (plan_id, day_of_week, meal_type)
		DO UPDATE SET recipe_id = excluded.recipe_id, status = 'planned'
		RETURNING ` + slotColumns

	slot, err := scanSlot(s.db.QueryRowContext(ctx, query,
		uuid.New(), planID, dayOfWeek, mealType, recipeID, s.timestamp()))
	if err != nil {
		return storage.MealSlot{}, fmt.Errorf("failed to assign slot: %w", err)
	}
	return slot, nil
}

func (s *SQLiteStorage) DeleteSlot(ctx context.Context, planID uuid.UUID, slotID uuid.UUID) (storage.MealSlot, bool, error) {
	slot, err := scanSlot(s.db.QueryRowContext(ctx,
		`DELETE FROM meal_slots WHERE id = ? AND plan_id = ? RETURNING `+slotColumns, slotID, planID))
	if errors.Is(err, sql.ErrNoRows) {
		return storage.MealSlot{}, false, nil
	}
	if err != nil {
		return storage.MealSlot{}, false, fmt.Errorf("failed to delete slot: %w", err)
	}
	return slot, true, nil
}

func (s *SQLiteStorage) SetSlotStatus(ctx context.Context, planID uuid.UUID, slotID uuid.UUID, status string) (storage.MealSlot, bool, error) {
	slot, err := scanSlot(s.db.QueryRowContext(ctx,
		`UPDATE meal_slots SET status = ? WHERE id = ? AND plan_id = ? RETURNING `+slotColumns,
		status, slotID, planID))
	if errors.Is(err, sql.ErrNoRows) {
		return storage.MealSlot{}, false, nil
	}
	if err != nil {
		return storage.MealSlot{}, false, fmt.Errorf("failed to update slot status: %w", err)
	}
	return slot, true, nil
}

func (s *SQLiteStorage) MoveSlot(ctx context.Context, planID uuid.UUID, slotID uuid.UUID, toDay int, toMealType string) (storage.MoveOutcome, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	src, found, err := getSlot(ctx, tx, planID, slotID)
	if err != nil || !found {
		return "", false, err
	}

	target, err := scanSlot(tx.QueryRowContext(ctx,
		`SELECT `+slotColumns+` FROM meal_slots WHERE plan_id = ? AND day_of_week = ? AND meal_type = ?`,
		planID, toDay, toMealType))
	occupied := true
	if errors.Is(err, sql.ErrNoRows) {
		occupied = false
	} else if err != nil {
		return "", false, fmt.Errorf("failed to load target slot: %w", err)
	}

	outcome := storage.MoveOutcomeMoved
	switch {
	case !occupied:
		_, err = tx.ExecContext(ctx,
			`UPDATE meal_slots SET day_of_week = ?, meal_type = ? WHERE id = ?`,
			toDay, toMealType, src.ID)
		if err != nil {
			return "", false, fmt.Errorf("failed to move slot: %w", err)
		}
	case target.ID == src.ID:
		return storage.MoveOutcomeUnchanged, true, nil
	default:
		outcome = storage.MoveOutcomeSwapped
		swap := `UPDATE meal_slots SET recipe_id = ?, status = ? WHERE id = ?`
		if _, err := tx.ExecContext(ctx, swap, src.RecipeID, src.Status, target.ID); err != nil {
			return "", false, fmt.Errorf("failed to update target slot: %w", err)
		}
		if _, err := tx.ExecContext(ctx, swap, target.RecipeID, target.Status, src.ID); err != nil {
			return "", false, fmt.Errorf("failed to update source slot: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return outcome, true, nil
}
