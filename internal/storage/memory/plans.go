package memory

import (
	"context"
	"sort"

	"github.com/fdg312/preppair/internal/storage"
	"github.com/google/uuid"
)

func weekKey(userID, weekStartDate string) string {
	return userID + "|" + weekStartDate
}

func (m *MemoryStorage) GetOrCreateWeekPlan(ctx context.Context, userID string, weekStartDate string) (storage.WeekPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := weekKey(userID, weekStartDate)
	if id, ok := m.planByWeek[key]; ok {
		return m.plans[id], nil
	}

	m.ensureUserLocked(userID)
	now := m.nowFunc()
	plan := storage.WeekPlan{
		ID:            uuid.New(),
		UserID:        userID,
		WeekStartDate: weekStartDate,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	m.plans[plan.ID] = plan
	m.planByWeek[key] = plan.ID
	return plan, nil
}

func (m *MemoryStorage) GetWeekPlan(ctx context.Context, planID uuid.UUID) (storage.WeekPlan, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	plan, ok := m.plans[planID]
	return plan, ok, nil
}

func (m *MemoryStorage) ListSlots(ctx context.Context, planID uuid.UUID) ([]storage.MealSlot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.listSlotsLocked(planID), nil
}

func (m *MemoryStorage) listSlotsLocked(planID uuid.UUID) []storage.MealSlot {
	slots := []storage.MealSlot{}
	for _, s := range m.slots {
		if s.PlanID == planID {
			s.RecipeID = cloneUUID(s.RecipeID)
			slots = append(slots, s)
		}
	}
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].DayOfWeek != slots[j].DayOfWeek {
			return slots[i].DayOfWeek < slots[j].DayOfWeek
		}
		return storage.MealTypeOrder(slots[i].MealType) < storage.MealTypeOrder(slots[j].MealType)
	})
	return slots
}

func (m *MemoryStorage) findCellLocked(planID uuid.UUID, day int, mealType string) (storage.MealSlot, bool) {
	for _, s := range m.slots {
		if s.PlanID == planID && s.DayOfWeek == day && s.MealType == mealType {
			return s, true
		}
	}
	return storage.MealSlot{}, false
}

func (m *MemoryStorage) GetSlot(ctx context.Context, planID uuid.UUID, slotID uuid.UUID) (storage.MealSlot, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.slots[slotID]
	if !ok || s.PlanID != planID {
		return storage.MealSlot{}, false, nil
	}
	s.RecipeID = cloneUUID(s.RecipeID)
	return s, true, nil
}

func (m *MemoryStorage) AssignSlot(ctx context.Context, planID uuid.UUID, dayOfWeek int, mealType string, recipeID uuid.UUID) (storage.MealSlot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rid := recipeID
	if existing, ok := m.findCellLocked(planID, dayOfWeek, mealType); ok {
		existing.RecipeID = &rid
		existing.Status = storage.SlotStatusPlanned
		m.slots[existing.ID] = existing
		existing.RecipeID = cloneUUID(existing.RecipeID)
		return existing, nil
	}

	slot := storage.MealSlot{
		ID:        uuid.New(),
		PlanID:    planID,
		DayOfWeek: dayOfWeek,
		MealType:  mealType,
		RecipeID:  &rid,
		Status:    storage.SlotStatusPlanned,
		CreatedAt: m.nowFunc(),
	}
	m.slots[slot.ID] = slot
	slot.RecipeID = cloneUUID(slot.RecipeID)
	return slot, nil
}

func (m *MemoryStorage) DeleteSlot(ctx context.Context, planID uuid.UUID, slotID uuid.UUID) (storage.MealSlot, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.slots[slotID]
	if !ok || s.PlanID != planID {
		return storage.MealSlot{}, false, nil
	}
	delete(m.slots, slotID)
	return s, true, nil
}

func (m *MemoryStorage) SetSlotStatus(ctx context.Context, planID uuid.UUID, slotID uuid.UUID, status string) (storage.MealSlot, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.slots[slotID]
	if !ok || s.PlanID != planID {
		return storage.MealSlot{}, false, nil
	}
	s.Status = status
	m.slots[slotID] = s
	s.RecipeID = cloneUUID(s.RecipeID)
	return s, true, nil
}

func (m *MemoryStorage) MoveSlot(ctx context.Context, planID uuid.UUID, slotID uuid.UUID, toDay int, toMealType string) (storage.MoveOutcome, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	src, ok := m.slots[slotID]
	if !ok || src.PlanID != planID {
		return "", false, nil
	}

	target, occupied := m.findCellLocked(planID, toDay, toMealType)
	if !occupied {
		src.DayOfWeek = toDay
		src.MealType = toMealType
		m.slots[src.ID] = src
		return storage.MoveOutcomeMoved, true, nil
	}
	if target.ID == src.ID {
		return storage.MoveOutcomeUnchanged, true, nil
	}

	src.RecipeID, target.RecipeID = target.RecipeID, src.RecipeID
	src.Status, target.Status = target.Status, src.Status
	m.slots[src.ID] = src
	m.slots[target.ID] = target
	return storage.MoveOutcomeSwapped, true, nil
}
