package memory

import (
	"context"
	"sort"

	"github.com/fdg312/preppair/internal/storage"
	"github.com/google/uuid"
)

func (m *MemoryStorage) RegenerateGroceryList(ctx context.Context, planID uuid.UUID, build storage.GroceryBuilder) ([]storage.GroceryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	meals := []storage.PlannedMeal{}
	for _, slot := range m.listSlotsLocked(planID) {
		if slot.RecipeID == nil {
			continue
		}
		meal := storage.PlannedMeal{SlotID: slot.ID, RecipeID: slot.RecipeID}
		if r, ok := m.recipes[*slot.RecipeID]; ok {
			meal.Ingredients = cloneRecipe(r).Ingredients
		}
		meals = append(meals, meal)
	}

	drafts := build(meals)

	for id, item := range m.grocery {
		if item.PlanID == planID {
			delete(m.grocery, id)
		}
	}

	now := m.nowFunc()
	items := make([]storage.GroceryItem, 0, len(drafts))
	for i, d := range drafts {
		item := storage.GroceryItem{
			ID:             uuid.New(),
			PlanID:         planID,
			IngredientName: d.IngredientName,
			TotalQuantity:  cloneFloat(d.TotalQuantity),
			Unit:           cloneString(d.Unit),
			Category:       cloneString(d.Category),
			SortOrder:      i,
			CreatedAt:      now,
		}
		m.grocery[item.ID] = item
		items = append(items, item)
	}
	return items, nil
}

func (m *MemoryStorage) ListGroceryItems(ctx context.Context, planID uuid.UUID) ([]storage.GroceryItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	items := []storage.GroceryItem{}
	for _, item := range m.grocery {
		if item.PlanID == planID {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].SortOrder < items[j].SortOrder
	})
	return items, nil
}

func (m *MemoryStorage) ToggleGroceryItem(ctx context.Context, planID uuid.UUID, itemID uuid.UUID) (storage.GroceryItem, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.grocery[itemID]
	if !ok || item.PlanID != planID {
		return storage.GroceryItem{}, false, nil
	}
	item.IsChecked = !item.IsChecked
	m.grocery[itemID] = item
	return item, true, nil
}

func (m *MemoryStorage) UncheckGroceryItems(ctx context.Context, planID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for id, item := range m.grocery {
		if item.PlanID == planID && item.IsChecked {
			item.IsChecked = false
			m.grocery[id] = item
			n++
		}
	}
	return n, nil
}

func (m *MemoryStorage) CountGroceryItems(ctx context.Context, planID uuid.UUID) (storage.GroceryCount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var count storage.GroceryCount
	for _, item := range m.grocery {
		if item.PlanID != planID {
			continue
		}
		count.Total++
		if item.IsChecked {
			count.Checked++
		}
	}
	return count, nil
}
