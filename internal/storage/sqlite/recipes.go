package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/fdg312/preppair/internal/storage"
	"github.com/google/uuid"
)

const recipeColumns = `id, user_id, title, description, source_url, prep_time, cook_time, servings,
	category, tags, image_url, cooking_style, is_favorite, estimated_cost, steps, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecipe(row rowScanner) (storage.Recipe, error) {
	var r storage.Recipe
	var tags, steps, createdAt, updatedAt string
	err := row.Scan(
		&r.ID,
		&r.UserID,
		&r.Title,
		&r.Description,
		&r.SourceURL,
		&r.PrepTime,
		&r.CookTime,
		&r.Servings,
		&r.Category,
		&tags,
		&r.ImageURL,
		&r.CookingStyle,
		&r.IsFavorite,
		&r.EstimatedCost,
		&steps,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return storage.Recipe{}, err
	}
	if err := json.Unmarshal([]byte(tags), &r.Tags); err != nil {
		return storage.Recipe{}, fmt.Errorf("failed to decode recipe tags: %w", err)
	}
	if err := json.Unmarshal([]byte(steps), &r.Steps); err != nil {
		return storage.Recipe{}, fmt.Errorf("failed to decode recipe steps: %w", err)
	}
	if r.Tags == nil {
		r.Tags = []string{}
	}
	r.CreatedAt = parseTime(createdAt)
	r.UpdatedAt = parseTime(updatedAt)
	return r, nil
}

func encodeJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (s *SQLiteStorage) ListRecipes(ctx context.Context, userID string, filter storage.RecipeFilter) ([]storage.Recipe, error) {
	query := `SELECT ` + recipeColumns + ` FROM recipes WHERE user_id = ?`
	args := []any{userID}

	if filter.Category != "" {
		query += ` AND category = ?`
		args = append(args, filter.Category)
	}
	if filter.FavoritesOnly {
		query += ` AND is_favorite = 1`
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		query += ` AND title LIKE ?`
		args = append(args, "%"+search+"%")
	}
	query += ` ORDER BY updated_at DESC, rowid DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	defer rows.Close()

	recipes := []storage.Recipe{}
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recipe: %w", err)
		}
		recipes = append(recipes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recipes: %w", err)
	}
	return recipes, nil
}

func (s *SQLiteStorage) GetRecipe(ctx context.Context, userID string, recipeID uuid.UUID) (storage.Recipe, bool, error) {
	r, found, err := getRecipe(ctx, s.db, userID, recipeID)
	if err != nil || !found {
		return storage.Recipe{}, found, err
	}

	ingredients, err := listIngredients(ctx, s.db, []uuid.UUID{recipeID})
	if err != nil {
		return storage.Recipe{}, false, err
	}
	r.Ingredients = ingredients[recipeID]
	return r, true, nil
}

func getRecipe(ctx context.Context, q queryer, userID string, recipeID uuid.UUID) (storage.Recipe, bool, error) {
	r, err := scanRecipe(q.QueryRowContext(ctx,
		`SELECT `+recipeColumns+` FROM recipes WHERE id = ? AND user_id = ?`, recipeID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Recipe{}, false, nil
	}
	if err != nil {
		return storage.Recipe{}, false, fmt.Errorf("failed to get recipe: %w", err)
	}
	return r, true, nil
}

// listIngredients loads ingredient lines for the given recipes, keyed by recipe.
func listIngredients(ctx context.Context, q queryer, recipeIDs []uuid.UUID) (map[uuid.UUID][]storage.Ingredient, error) {
	result := make(map[uuid.UUID][]storage.Ingredient, len(recipeIDs))
	if len(recipeIDs) == 0 {
		return result, nil
	}

	placeholders := make([]string, len(recipeIDs))
	args := make([]any, len(recipeIDs))
	for i, id := range recipeIDs {
		placeholders[i] = "?"
		args[i] = id
	}

	rows, err := q.QueryContext(ctx, `
		SELECT id, recipe_id, name, quantity, unit, category, sort_order
		FROM recipe_ingredients
		WHERE recipe_id IN (`+strings.Join(placeholders, ", ")+`)
		ORDER BY recipe_id, sort_order`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list ingredients: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ing storage.Ingredient
		if err := rows.Scan(&ing.ID, &ing.RecipeID, &ing.Name, &ing.Quantity, &ing.Unit, &ing.Category, &ing.SortOrder); err != nil {
			return nil, fmt.Errorf("failed to scan ingredient: %w", err)
		}
		result[ing.RecipeID] = append(result[ing.RecipeID], ing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ingredients: %w", err)
	}
	return result, nil
}

func insertIngredients(ctx context.Context, tx *sql.Tx, recipeID uuid.UUID, inputs []storage.IngredientInput) ([]storage.Ingredient, error) {
	ingredients := make([]storage.Ingredient, 0, len(inputs))
	for i, in := range inputs {
		ing := storage.Ingredient{
			ID:        uuid.New(),
			RecipeID:  recipeID,
			Name:      in.Name,
			Quantity:  in.Quantity,
			Unit:      in.Unit,
			Category:  in.Category,
			SortOrder: i,
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO recipe_ingredients (id, recipe_id, name, quantity, unit, category, sort_order)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			ing.ID, ing.RecipeID, ing.Name, ing.Quantity, ing.Unit, ing.Category, ing.SortOrder)
		if err != nil {
			return nil, fmt.Errorf("failed to insert ingredient: %w", err)
		}
		ingredients = append(ingredients, ing)
	}
	return ingredients, nil
}

func recipeArgs(input storage.RecipeInput) ([]any, error) {
	tags := input.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := encodeJSON(tags)
	if err != nil {
		return nil, fmt.Errorf("failed to encode recipe tags: %w", err)
	}
	steps := input.Steps
	if steps == nil {
		steps = []storage.RecipeStep{}
	}
	stepsJSON, err := encodeJSON(steps)
	if err != nil {
		return nil, fmt.Errorf("failed to encode recipe steps: %w", err)
	}
	return []any{
		input.Title,
		input.Description,
		input.SourceURL,
		input.PrepTime,
		input.CookTime,
		input.Servings,
		input.Category,
		tagsJSON,
		input.ImageURL,
		input.CookingStyle,
		input.EstimatedCost,
		stepsJSON,
	}, nil
}

func (s *SQLiteStorage) CreateRecipe(ctx context.Context, userID string, input storage.RecipeInput) (storage.Recipe, error) {
	fields, err := recipeArgs(input)
	if err != nil {
		return storage.Recipe{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storage.Recipe{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	id := uuid.New()
	ts := s.timestamp()
	args := append([]any{id, userID}, fields...)
	args = append(args, ts, ts)

	_, err = tx.ExecContext(ctx, `
		INSERT INTO recipes (id, user_id, title, description, source_url, prep_time, cook_time, servings,
		                     category, tags, image_url, cooking_style, estimated_cost, steps, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, args...)
	if err != nil {
		return storage.Recipe{}, fmt.Errorf("failed to create recipe: %w", err)
	}

	ingredients, err := insertIngredients(ctx, tx, id, input.Ingredients)
	if err != nil {
		return storage.Recipe{}, err
	}

	r, _, err := getRecipe(ctx, tx, userID, id)
	if err != nil {
		return storage.Recipe{}, err
	}
	r.Ingredients = ingredients

	if err := tx.Commit(); err != nil {
		return storage.Recipe{}, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return r, nil
}

func (s *SQLiteStorage) UpdateRecipe(ctx context.Context, userID string, recipeID uuid.UUID, input storage.RecipeInput) (storage.Recipe, bool, error) {
	fields, err := recipeArgs(input)
	if err != nil {
		return storage.Recipe{}, false, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storage.Recipe{}, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	args := append(fields, s.timestamp(), recipeID, userID)
	res, err := tx.ExecContext(ctx, `
		UPDATE recipes
		SET title = ?, description = ?, source_url = ?, prep_time = ?, cook_time = ?, servings = ?,
		    category = ?, tags = ?, image_url = ?, cooking_style = ?, estimated_cost = ?, steps = ?,
		    updated_at = ?
		WHERE id = ? AND user_id = ?`, args...)
	if err != nil {
		return storage.Recipe{}, false, fmt.Errorf("failed to update recipe: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.Recipe{}, false, nil
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM recipe_ingredients WHERE recipe_id = ?`, recipeID); err != nil {
		return storage.Recipe{}, false, fmt.Errorf("failed to delete ingredients: %w", err)
	}

	ingredients, err := insertIngredients(ctx, tx, recipeID, input.Ingredients)
	if err != nil {
		return storage.Recipe{}, false, err
	}

	r, _, err := getRecipe(ctx, tx, userID, recipeID)
	if err != nil {
		return storage.Recipe{}, false, err
	}
	r.Ingredients = ingredients

	if err := tx.Commit(); err != nil {
		return storage.Recipe{}, false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return r, true, nil
}

func (s *SQLiteStorage) DeleteRecipe(ctx context.Context, userID string, recipeID uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM recipes WHERE id = ? AND user_id = ?`, recipeID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete recipe: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (s *SQLiteStorage) ToggleFavorite(ctx context.Context, userID string, recipeID uuid.UUID) (storage.Recipe, bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE recipes SET is_favorite = 1 - is_favorite, updated_at = ?
		WHERE id = ? AND user_id = ?`, s.timestamp(), recipeID, userID)
	if err != nil {
		return storage.Recipe{}, false, fmt.Errorf("failed to toggle favorite: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.Recipe{}, false, nil
	}
	return getRecipe(ctx, s.db, userID, recipeID)
}

func (s *SQLiteStorage) ListCategories(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT category FROM recipes
		WHERE user_id = ? AND category IS NOT NULL AND category <> ''
		ORDER BY category`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []string{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}
