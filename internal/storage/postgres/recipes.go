package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/fdg312/preppair/internal/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const recipeColumns = `id, user_id, title, description, source_url, prep_time, cook_time, servings,
	category, tags, image_url, cooking_style, is_favorite, estimated_cost::float8, steps, created_at, updated_at`

func scanRecipe(row pgx.Row) (storage.Recipe, error) {
	var r storage.Recipe
	var steps []byte
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
		&r.Tags,
		&r.ImageURL,
		&r.CookingStyle,
		&r.IsFavorite,
		&r.EstimatedCost,
		&steps,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		return storage.Recipe{}, err
	}
	if len(steps) > 0 {
		if err := json.Unmarshal(steps, &r.Steps); err != nil {
			return storage.Recipe{}, fmt.Errorf("failed to decode recipe steps: %w", err)
		}
	}
	if r.Tags == nil {
		r.Tags = []string{}
	}
	return r, nil
}

func (p *PostgresStorage) ListRecipes(ctx context.Context, userID string, filter storage.RecipeFilter) ([]storage.Recipe, error) {
	var b strings.Builder
	b.WriteString(`SELECT ` + recipeColumns + ` FROM recipes WHERE user_id = $1`)
	args := []any{userID}

	if filter.Category != "" {
		args = append(args, filter.Category)
		fmt.Fprintf(&b, " AND category = $%d", len(args))
	}
	if filter.FavoritesOnly {
		b.WriteString(" AND is_favorite = TRUE")
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		args = append(args, "%"+s+"%")
		fmt.Fprintf(&b, " AND title ILIKE $%d", len(args))
	}
	b.WriteString(" ORDER BY updated_at DESC")

	rows, err := p.pool.Query(ctx, b.String(), args...)
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

func (p *PostgresStorage) GetRecipe(ctx context.Context, userID string, recipeID uuid.UUID) (storage.Recipe, bool, error) {
	query := `SELECT ` + recipeColumns + ` FROM recipes WHERE id = $1 AND user_id = $2`

	r, err := scanRecipe(p.pool.QueryRow(ctx, query, recipeID, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.Recipe{}, false, nil
	}
	if err != nil {
		return storage.Recipe{}, false, fmt.Errorf("failed to get recipe: %w", err)
	}

	ingredients, err := listIngredients(ctx, p.pool, []uuid.UUID{recipeID})
	if err != nil {
		return storage.Recipe{}, false, err
	}
	r.Ingredients = ingredients[recipeID]
	return r, true, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// listIngredients loads ingredient lines for the given recipes, keyed by recipe.
func listIngredients(ctx context.Context, q querier, recipeIDs []uuid.UUID) (map[uuid.UUID][]storage.Ingredient, error) {
	result := make(map[uuid.UUID][]storage.Ingredient, len(recipeIDs))
	if len(recipeIDs) == 0 {
		return result, nil
	}

	query := `
		SELECT id, recipe_id, name, quantity::float8, unit, category, sort_order
		FROM recipe_ingredients
		WHERE recipe_id = ANY($1)
		ORDER BY recipe_id, sort_order
	`

	rows, err := q.Query(ctx, query, recipeIDs)
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

func insertIngredients(ctx context.Context, tx pgx.Tx, recipeID uuid.UUID, inputs []storage.IngredientInput) ([]storage.Ingredient, error) {
	query := `
		INSERT INTO recipe_ingredients (id, recipe_id, name, quantity, unit, category, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

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
		if _, err := tx.Exec(ctx, query, ing.ID, ing.RecipeID, ing.Name, ing.Quantity, ing.Unit, ing.Category, ing.SortOrder); err != nil {
			return nil, fmt.Errorf("failed to insert ingredient: %w", err)
		}
		ingredients = append(ingredients, ing)
	}
	return ingredients, nil
}

func (p *PostgresStorage) CreateRecipe(ctx context.Context, userID string, input storage.RecipeInput) (storage.Recipe, error) {
	steps, err := json.Marshal(input.Steps)
	if err != nil {
		return storage.Recipe{}, fmt.Errorf("failed to encode recipe steps: %w", err)
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return storage.Recipe{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO recipes (id, user_id, title, description, source_url, prep_time, cook_time, servings,
		                     category, tags, image_url, cooking_style, estimated_cost, steps)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING ` + recipeColumns

	r, err := scanRecipe(tx.QueryRow(ctx, query,
		uuid.New(),
		userID,
		input.Title,
		input.Description,
		input.SourceURL,
		input.PrepTime,
		input.CookTime,
		input.Servings,
		input.Category,
		nonNilTags(input.Tags),
		input.ImageURL,
		input.CookingStyle,
		input.EstimatedCost,
		steps,
	))
	if err != nil {
		return storage.Recipe{}, fmt.Errorf("failed to create recipe: %w", err)
	}

	r.Ingredients, err = insertIngredients(ctx, tx, r.ID, input.Ingredients)
	if err != nil {
		return storage.Recipe{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return storage.Recipe{}, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return r, nil
}

func (p *PostgresStorage) UpdateRecipe(ctx context.Context, userID string, recipeID uuid.UUID, input storage.RecipeInput) (storage.Recipe, bool, error) {
	steps, err := json.Marshal(input.Steps)
	if err != nil {
		return storage.Recipe{}, false, fmt.Errorf("failed to encode recipe steps: %w", err)
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return storage.Recipe{}, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE recipes
		SET title = $3, description = $4, source_url = $5, prep_time = $6, cook_time = $7,
		    servings = $8, category = $9, tags = $10, image_url = $11, cooking_style = $12,
		    estimated_cost = $13, steps = $14, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING ` + recipeColumns

	r, err := scanRecipe(tx.QueryRow(ctx, query,
		recipeID,
		userID,
		input.Title,
		input.Description,
		input.SourceURL,
		input.PrepTime,
		input.CookTime,
		input.Servings,
		input.Category,
		nonNilTags(input.Tags),
		input.ImageURL,
		input.CookingStyle,
		input.EstimatedCost,
		steps,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.Recipe{}, false, nil
	}
	if err != nil {
		return storage.Recipe{}, false, fmt.Errorf("failed to update recipe: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM recipe_ingredients WHERE recipe_id = $1`, recipeID); err != nil {
		return storage.Recipe{}, false, fmt.Errorf("failed to delete ingredients: %w", err)
	}

	r.Ingredients, err = insertIngredients(ctx, tx, r.ID, input.Ingredients)
	if err != nil {
		return storage.Recipe{}, false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return storage.Recipe{}, false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return r, true, nil
}

func (p *PostgresStorage) DeleteRecipe(ctx context.Context, userID string, recipeID uuid.UUID) (bool, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM recipes WHERE id = $1 AND user_id = $2`, recipeID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete recipe: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (p *PostgresStorage) ToggleFavorite(ctx context.Context, userID string, recipeID uuid.UUID) (storage.Recipe, bool, error) {
	query := `
		UPDATE recipes SET is_favorite = NOT is_favorite, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING ` + recipeColumns

	r, err := scanRecipe(p.pool.QueryRow(ctx, query, recipeID, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.Recipe{}, false, nil
	}
	if err != nil {
		return storage.Recipe{}, false, fmt.Errorf("failed to toggle favorite: %w", err)
	}
	return r, true, nil
}

func (p *PostgresStorage) ListCategories(ctx context.Context, userID string) ([]string, error) {
	query := `
		SELECT DISTINCT category
		FROM recipes
		WHERE user_id = $1 AND category IS NOT NULL AND category <> ''
		ORDER BY category
	`

	rows, err := p.pool.Query(ctx, query, userID)
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

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
