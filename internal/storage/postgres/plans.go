package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/fdg312/preppair/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueViolation is the SQLSTATE Postgres reports for a duplicate key.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

const planColumns = `id, user_id, to_char(week_start_date, 'YYYY-MM-DD'), created_at, updated_at`

const slotColumns = `id, plan_id, day_of_week, meal_type, recipe_id, status, created_at`

const slotOrder = `ORDER BY day_of_week,
	CASE meal_type WHEN 'breakfast' THEN 0 WHEN 'lunch' THEN 1 ELSE 2 END`

func scanPlan(row pgx.Row) (storage.WeekPlan, error) {
	var plan storage.WeekPlan
	err := row.Scan(&plan.ID, &plan.UserID, &plan.WeekStartDate, &plan.CreatedAt, &plan.UpdatedAt)
	return plan, err
}

func scanSlot(row pgx.Row) (storage.MealSlot, error) {
	var slot storage.MealSlot
	err := row.Scan(&slot.ID, &slot.PlanID, &slot.DayOfWeek, &slot.MealType, &slot.RecipeID, &slot.Status, &slot.CreatedAt)
	return slot, err
}

func (p *PostgresStorage) GetOrCreateWeekPlan(ctx context.Context, userID string, weekStartDate string) (storage.WeekPlan, error) {
	insert := `
		INSERT INTO meal_plans (id, user_id, week_start_date)
		VALUES ($1, $2, $3::date)
		ON CONFLICT (user_id, week_start_date) DO NOTHING
	`
	if _, err := p.pool.Exec(ctx, insert, uuid.New(), userID, weekStartDate); err != nil {
		return storage.WeekPlan{}, fmt.Errorf("failed to create week plan: %w", err)
	}

	query := `SELECT ` + planColumns + ` FROM meal_plans WHERE user_id = $1 AND week_start_date = $2::date`
	plan, err := scanPlan(p.pool.QueryRow(ctx, query, userID, weekStartDate))
	if err != nil {
		return storage.WeekPlan{}, fmt.Errorf("failed to get week plan: %w", err)
	}
	return plan, nil
}

func (p *PostgresStorage) GetWeekPlan(ctx context.Context, planID uuid.UUID) (storage.WeekPlan, bool, error) {
	query := `SELECT ` + planColumns + ` FROM meal_plans WHERE id = $1`

	plan, err := scanPlan(p.pool.QueryRow(ctx, query, planID))
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.WeekPlan{}, false, nil
	}
	if err != nil {
		return storage.WeekPlan{}, false, fmt.Errorf("failed to get week plan: %w", err)
	}
	return plan, true, nil
}

func (p *PostgresStorage) ListSlots(ctx context.Context, planID uuid.UUID) ([]storage.MealSlot, error) {
	return listSlots(ctx, p.pool, planID, false)
}

func listSlots(ctx context.Context, q querier, planID uuid.UUID, filledOnly bool) ([]storage.MealSlot, error) {
	query := `SELECT ` + slotColumns + ` FROM meal_slots WHERE plan_id = $1`
	if filledOnly {
		query += ` AND recipe_id IS NOT NULL`
	}
	query += ` ` + slotOrder

	rows, err := q.Query(ctx, query, planID)
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

func (p *PostgresStorage) GetSlot(ctx context.Context, planID uuid.UUID, slotID uuid.UUID) (storage.MealSlot, bool, error) {
	query := `SELECT ` + slotColumns + ` FROM meal_slots WHERE id = $1 AND plan_id = $2`

	slot, err := scanSlot(p.pool.QueryRow(ctx, query, slotID, planID))
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.MealSlot{}, false, nil
	}
	if err != nil {
		return storage.MealSlot{}, false, fmt.Errorf("failed to get slot: %w", err)
	}
	return slot, true, nil
}

func (p *PostgresStorage) AssignSlot(ctx context.Context, planID uuid.UUID, dayOfWeek int, mealType string, recipeID uuid.UUID) (storage.MealSlot, error) {
	query := `
		INSERT INTO meal_slots (id, plan_id, day_of_week, meal_type, recipe_id, status)
		VALUES ($1, $2, $3, $4, $5, 'planned')
		ON CONFLICT (plan_id, day_of_week, meal_type)
		DO UPDATE SET recipe_id = EXCLUDED.recipe_id, status = 'planned'
		RETURNING ` + slotColumns

	slot, err := scanSlot(p.pool.QueryRow(ctx, query, uuid.New(), planID, dayOfWeek, mealType, recipeID))
	if err != nil {
		return storage.MealSlot{}, fmt.Errorf("failed to assign slot: %w", err)
	}
	return slot, nil
}

func (p *PostgresStorage) DeleteSlot(ctx context.Context, planID uuid.UUID, slotID uuid.UUID) (storage.MealSlot, bool, error) {
	query := `DELETE FROM meal_slots WHERE id = $1 AND plan_id = $2 RETURNING ` + slotColumns

	slot, err := scanSlot(p.pool.QueryRow(ctx, query, slotID, planID))
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.MealSlot{}, false, nil
	}
	if err != nil {
		return storage.MealSlot{}, false, fmt.Errorf("failed to delete slot: %w", err)
	}
	return slot, true, nil
}

func (p *PostgresStorage) SetSlotStatus(ctx context.Context, planID uuid.UUID, slotID uuid.UUID, status string) (storage.MealSlot, bool, error) {
	query := `UPDATE meal_slots SET status = $3 WHERE id = $1 AND plan_id = $2 RETURNING ` + slotColumns

	slot, err := scanSlot(p.pool.QueryRow(ctx, query, slotID, planID, status))
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.MealSlot{}, false, nil
	}
	if err != nil {
		return storage.MealSlot{}, false, fmt.Errorf("failed to update slot status: %w", err)
	}
	return slot, true, nil
}

func (p *PostgresStorage) MoveSlot(ctx context.Context, planID uuid.UUID, slotID uuid.UUID, toDay int, toMealType string) (storage.MoveOutcome, bool, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return "", false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	src, err := scanSlot(tx.QueryRow(ctx,
		`SELECT `+slotColumns+` FROM meal_slots WHERE id = $1 AND plan_id = $2 FOR UPDATE`,
		slotID, planID))
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to load source slot: %w", err)
	}

	target, err := scanSlot(tx.QueryRow(ctx,
		`SELECT `+slotColumns+` FROM meal_slots WHERE plan_id = $1 AND day_of_week = $2 AND meal_type = $3 FOR UPDATE`,
		planID, toDay, toMealType))
	occupied := true
	if errors.Is(err, pgx.ErrNoRows) {
		occupied = false
	} else if err != nil {
		return "", false, fmt.Errorf("failed to load target slot: %w", err)
	}

	outcome := storage.MoveOutcomeMoved
	switch {
	case !occupied:
		_, err = tx.Exec(ctx,
			`UPDATE meal_slots SET day_of_week = $2, meal_type = $3 WHERE id = $1`,
			src.ID, toDay, toMealType)
		if isUniqueViolation(err) {
			// Another writer filled the target cell after our read.
			return "", false, storage.ErrConflict
		}
		if err != nil {
			return "", false, fmt.Errorf("failed to move slot: %w", err)
		}
	case target.ID == src.ID:
		return storage.MoveOutcomeUnchanged, true, nil
	default:
		outcome = storage.MoveOutcomeSwapped
		swap := `UPDATE meal_slots SET recipe_id = $2, status = $3 WHERE id = $1`
		if _, err := tx.Exec(ctx, swap, target.ID, src.RecipeID, src.Status); err != nil {
			return "", false, fmt.Errorf("failed to update target slot: %w", err)
		}
		if _, err := tx.Exec(ctx, swap, src.ID, target.RecipeID, target.Status); err != nil {
			return "", false, fmt.Errorf("failed to update source slot: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return "", false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return outcome, true, nil
}
