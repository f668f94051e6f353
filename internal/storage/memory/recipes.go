package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/fdg312/preppair/internal/storage"
	"github.com/google/uuid"
)

func (m *MemoryStorage) ListRecipes(ctx context.Context, userID string, filter storage.RecipeFilter) ([]storage.Recipe, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	result := []storage.Recipe{}
	for _, r := range m.recipes {
		if r.UserID != userID {
			continue
		}
		if filter.Category != "" && (r.Category == nil || *r.Category != filter.Category) {
			continue
		}
		if filter.FavoritesOnly && !r.IsFavorite {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(r.Title), search) {
			continue
		}
		cp := cloneRecipe(r)
		cp.Ingredients = nil
		result = append(result, cp)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].UpdatedAt.Equal(result[j].UpdatedAt) {
			return result[i].UpdatedAt.After(result[j].UpdatedAt)
		}
		return m.recipeOrder[result[i].ID] > m.recipeOrder[result[j].ID]
	})
	return result, nil
}

func (m *MemoryStorage) GetRecipe(ctx context.Context, userID string, recipeID uuid.UUID) (storage.Recipe, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.recipes[recipeID]
	if !ok || r.UserID != userID {
		return storage.Recipe{}, false, nil
	}
	return cloneRecipe(r), true, nil
}

func (m *MemoryStorage) CreateRecipe(ctx context.Context, userID string, input storage.RecipeInput) (storage.Recipe, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.nowFunc()
	r := storage.Recipe{
		ID:        uuid.New(),
		UserID:    userID,
		CreatedAt: now,
	}
	applyRecipeInput(&r, input)
	r.UpdatedAt = now

	m.createdSeq++
	m.recipeOrder[r.ID] = m.createdSeq
	m.recipes[r.ID] = r
	return cloneRecipe(r), nil
}

func (m *MemoryStorage) UpdateRecipe(ctx context.Context, userID string, recipeID uuid.UUID, input storage.RecipeInput) (storage.Recipe, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.recipes[recipeID]
	if !ok || r.UserID != userID {
		return storage.Recipe{}, false, nil
	}
	applyRecipeInput(&r, input)
	r.UpdatedAt = m.nowFunc()
	m.createdSeq++
	m.recipeOrder[r.ID] = m.createdSeq
	m.recipes[recipeID] = r
	return cloneRecipe(r), true, nil
}

func (m *MemoryStorage) DeleteRecipe(ctx context.Context, userID string, recipeID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.recipes[recipeID]
	if !ok || r.UserID != userID {
		return false, nil
	}
	delete(m.recipes, recipeID)
	delete(m.recipeOrder, recipeID)

	for id, slot := range m.slots {
		if slot.RecipeID != nil && *slot.RecipeID == recipeID {
			slot.RecipeID = nil
			m.slots[id] = slot
		}
	}
	return true, nil
}

func (m *MemoryStorage) ToggleFavorite(ctx context.Context, userID string, recipeID uuid.UUID) (storage.Recipe, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.recipes[recipeID]
	if !ok || r.UserID != userID {
		return storage.Recipe{}, false, nil
	}
	r.IsFavorite = !r.IsFavorite
	r.UpdatedAt = m.nowFunc()
	m.recipes[recipeID] = r
	return cloneRecipe(r), true, nil
}

func (m *MemoryStorage) ListCategories(ctx context.Context, userID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]bool)
	categories := []string{}
	for _, r := range m.recipes {
		if r.UserID != userID || r.Category == nil || *r.Category == "" {
			continue
		}
		if !seen[*r.Category] {
			seen[*r.Category] = true
			categories = append(categories, *r.Category)
		}
	}
	sort.Strings(categories)
	return categories, nil
}

func applyRecipeInput(r *storage.Recipe, input storage.RecipeInput) {
	r.Title = input.Title
	r.Description = cloneString(input.Description)
	r.SourceURL = cloneString(input.SourceURL)
	r.PrepTime = cloneInt(input.PrepTime)
	r.CookTime = cloneInt(input.CookTime)
	r.Servings = input.Servings
	r.Category = cloneString(input.Category)
	r.Tags = append([]string{}, input.Tags...)
	r.ImageURL = cloneString(input.ImageURL)
	r.CookingStyle = input.CookingStyle
	r.EstimatedCost = cloneFloat(input.EstimatedCost)
	r.Steps = append([]storage.RecipeStep{}, input.Steps...)

	r.Ingredients = make([]storage.Ingredient, len(input.Ingredients))
	for i, in := range input.Ingredients {
		r.Ingredients[i] = storage.Ingredient{
			ID:        uuid.New(),
			RecipeID:  r.ID,
			Name:      in.Name,
			Quantity:  cloneFloat(in.Quantity),
			Unit:      cloneString(in.Unit),
			Category:  cloneString(in.Category),
			SortOrder: i,
		}
	}
}

func cloneRecipe(r storage.Recipe) storage.Recipe {
	cp := r
	cp.Description = cloneString(r.Description)
	cp.SourceURL = cloneString(r.SourceURL)
	cp.PrepTime = cloneInt(r.PrepTime)
	cp.CookTime = cloneInt(r.CookTime)
	cp.Category = cloneString(r.Category)
	cp.Tags = append([]string{}, r.Tags...)
	cp.ImageURL = cloneString(r.ImageURL)
	cp.EstimatedCost = cloneFloat(r.EstimatedCost)
	cp.Steps = append([]storage.RecipeStep{}, r.Steps...)
	cp.Ingredients = make([]storage.Ingredient, len(r.Ingredients))
	for i, ing := range r.Ingredients {
		ing.Quantity = cloneFloat(ing.Quantity)
		ing.Unit = cloneString(ing.Unit)
		ing.Category = cloneString(ing.Category)
		cp.Ingredients[i] = ing
	}
	return cp
}
