package planner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fdg312/preppair/internal/storage"
	"github.com/fdg312/preppair/internal/storage/memory"
	"github.com/google/uuid"
)

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func createRecipe(t *testing.T, store *memory.MemoryStorage, title string, cost *float64) storage.Recipe {
	t.Helper()
	recipe, err := store.CreateRecipe(context.Background(), storage.DefaultUserID, storage.RecipeInput{
		Title:         title,
		Servings:      2,
		CookingStyle:  storage.CookingStyleFresh,
		EstimatedCost: cost,
		Steps:         []storage.RecipeStep{{Instruction: "cook"}},
		Ingredients:   []storage.IngredientInput{{Name: "Salt"}},
	})
	if err != nil {
		t.Fatalf("create recipe: %v", err)
	}
	return recipe
}

func newTestService(store *memory.MemoryStorage) *Service {
	svc := NewService(store)
	svc.now = func() time.Time { return time.Date(2025, 2, 13, 9, 0, 0, 0, time.UTC) }
	return svc
}

func TestGetOrCreateWeekNormalisesToMonday(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(memory.New())

	view, err := svc.GetOrCreateWeek(ctx, storage.DefaultUserID, "2025-02-14")
	if err != nil {
		t.Fatalf("get week: %v", err)
	}
	if view.Plan.WeekStartDate != "2025-02-10" {
		t.Errorf("expected Monday 2025-02-10, got %s", view.Plan.WeekStartDate)
	}
	if view.RangeLabel != "Feb 10 – Feb 16, 2025" {
		t.Errorf("unexpected range label %q", view.RangeLabel)
	}
	if view.PreviousWeek != "2025-02-03" || view.NextWeek != "2025-02-17" {
		t.Errorf("unexpected navigation %s / %s", view.PreviousWeek, view.NextWeek)
	}
	if view.Summary.Empty != 21 {
		t.Errorf("expected an empty week, got %+v", view.Summary)
	}

	again, err := svc.GetOrCreateWeek(ctx, storage.DefaultUserID, "2025-02-10")
	if err != nil {
		t.Fatalf("get week again: %v", err)
	}
	if again.Plan.ID != view.Plan.ID {
		t.Errorf("expected the same plan, got %s and %s", view.Plan.ID, again.Plan.ID)
	}

	current, err := svc.CurrentWeek(ctx, storage.DefaultUserID)
	if err != nil {
		t.Fatalf("current week: %v", err)
	}
	if current.Plan.ID != view.Plan.ID {
		t.Errorf("expected current week to resolve to the same plan")
	}
}

func TestGetOrCreateWeekRejectsBadDate(t *testing.T) {
	svc := newTestService(memory.New())

	_, err := svc.GetOrCreateWeek(context.Background(), storage.DefaultUserID, "10/02/2025")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAssignAndViewIncludesRecipes(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := newTestService(store)
	soup := createRecipe(t, store, "Soup", floatPtr(8))
	stew := createRecipe(t, store, "Stew", nil)

	view, _ := svc.GetOrCreateWeek(ctx, storage.DefaultUserID, "2025-02-10")
	planID := uuid.MustParse(view.Plan.ID)

	slot, err := svc.Assign(ctx, storage.DefaultUserID, planID, AssignSlotRequest{
		RecipeID: soup.ID.String(), DayOfWeek: intPtr(0), MealType: storage.MealTypeDinner,
	})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if slot.Recipe == nil || slot.Recipe.Title != "Soup" || slot.Status != storage.SlotStatusPlanned {
		t.Fatalf("unexpected slot %+v", slot)
	}

	// Reassigning the same cell keeps the slot id.
	replaced, err := svc.Assign(ctx, storage.DefaultUserID, planID, AssignSlotRequest{
		RecipeID: stew.ID.String(), DayOfWeek: intPtr(0), MealType: storage.MealTypeDinner,
	})
	if err != nil {
		t.Fatalf("reassign: %v", err)
	}
	if replaced.ID != slot.ID {
		t.Errorf("expected slot id %s to be kept, got %s", slot.ID, replaced.ID)
	}

	if _, err := svc.Assign(ctx, storage.DefaultUserID, planID, AssignSlotRequest{
		RecipeID: soup.ID.String(), DayOfWeek: intPtr(1), MealType: storage.MealTypeLunch,
	}); err != nil {
		t.Fatalf("assign: %v", err)
	}

	got, found, err := svc.GetPlan(ctx, storage.DefaultUserID, planID)
	if err != nil || !found {
		t.Fatalf("get plan: found=%v err=%v", found, err)
	}
	if len(got.Slots) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(got.Slots))
	}
	if got.Slots[0].Recipe == nil || got.Slots[0].Recipe.Title != "Stew" {
		t.Errorf("expected Monday dinner to be Stew, got %+v", got.Slots[0].Recipe)
	}
	if got.Summary.Planned != 2 || got.Summary.EstimatedCost != 8 {
		t.Errorf("unexpected summary %+v", got.Summary)
	}
}

func TestAssignValidation(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := newTestService(store)
	recipe := createRecipe(t, store, "Soup", nil)
	view, _ := svc.GetOrCreateWeek(ctx, storage.DefaultUserID, "2025-02-10")
	planID := uuid.MustParse(view.Plan.ID)

	cases := []AssignSlotRequest{
		{RecipeID: "nope", DayOfWeek: intPtr(0), MealType: storage.MealTypeLunch},
		{RecipeID: recipe.ID.String(), MealType: storage.MealTypeLunch},
		{RecipeID: recipe.ID.String(), DayOfWeek: intPtr(7), MealType: storage.MealTypeLunch},
		{RecipeID: recipe.ID.String(), DayOfWeek: intPtr(0), MealType: "brunch"},
	}
	for _, req := range cases {
		if _, err := svc.Assign(ctx, storage.DefaultUserID, planID, req); !errors.Is(err, ErrValidation) {
			t.Errorf("expected validation error for %+v, got %v", req, err)
		}
	}

	_, err := svc.Assign(ctx, storage.DefaultUserID, planID, AssignSlotRequest{
		RecipeID: uuid.NewString(), DayOfWeek: intPtr(0), MealType: storage.MealTypeLunch,
	})
	if !errors.Is(err, ErrRecipeNotFound) {
		t.Errorf("expected recipe not found, got %v", err)
	}
}

func TestMoveOutcomes(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := newTestService(store)
	soup := createRecipe(t, store, "Soup", nil)
	stew := createRecipe(t, store, "Stew", nil)
	view, _ := svc.GetOrCreateWeek(ctx, storage.DefaultUserID, "2025-02-10")
	planID := uuid.MustParse(view.Plan.ID)

	a, _ := svc.Assign(ctx, storage.DefaultUserID, planID, AssignSlotRequest{RecipeID: soup.ID.String(), DayOfWeek: intPtr(0), MealType: storage.MealTypeDinner})
	b, _ := svc.Assign(ctx, storage.DefaultUserID, planID, AssignSlotRequest{RecipeID: stew.ID.String(), DayOfWeek: intPtr(1), MealType: storage.MealTypeDinner})
	slotA := uuid.MustParse(a.ID)
	slotB := uuid.MustParse(b.ID)

	resp, found, err := svc.Move(ctx, planID, slotA, MoveSlotRequest{ToDayOfWeek: intPtr(0), ToMealType: storage.MealTypeDinner})
	if err != nil || !found || resp.Outcome != "unchanged" {
		t.Fatalf("expected unchanged, got %+v found=%v err=%v", resp, found, err)
	}

	resp, _, err = svc.Move(ctx, planID, slotA, MoveSlotRequest{ToDayOfWeek: intPtr(4), ToMealType: storage.MealTypeLunch})
	if err != nil || resp.Outcome != "moved" {
		t.Fatalf("expected moved, got %+v err=%v", resp, err)
	}
	moved, _, _ := store.GetSlot(ctx, planID, slotA)
	if moved.DayOfWeek != 4 || moved.MealType != storage.MealTypeLunch || *moved.RecipeID != soup.ID {
		t.Errorf("unexpected moved slot %+v", moved)
	}

	if _, _, err := svc.SetStatus(ctx, planID, slotB, UpdateStatusRequest{Status: storage.SlotStatusCooked}); err != nil {
		t.Fatalf("set status: %v", err)
	}

	resp, _, err = svc.Move(ctx, planID, slotA, MoveSlotRequest{ToDayOfWeek: intPtr(1), ToMealType: storage.MealTypeDinner})
	if err != nil || resp.Outcome != "swapped" {
		t.Fatalf("expected swapped, got %+v err=%v", resp, err)
	}
	afterA, _, _ := store.GetSlot(ctx, planID, slotA)
	afterB, _, _ := store.GetSlot(ctx, planID, slotB)
	if *afterA.RecipeID != stew.ID || afterA.Status != storage.SlotStatusCooked || afterA.DayOfWeek != 4 {
		t.Errorf("unexpected source after swap %+v", afterA)
	}
	if *afterB.RecipeID != soup.ID || afterB.Status != storage.SlotStatusPlanned || afterB.DayOfWeek != 1 {
		t.Errorf("unexpected target after swap %+v", afterB)
	}

	_, found, err = svc.Move(ctx, planID, uuid.New(), MoveSlotRequest{ToDayOfWeek: intPtr(2), ToMealType: storage.MealTypeLunch})
	if err != nil || found {
		t.Errorf("expected not found for unknown slot, got found=%v err=%v", found, err)
	}

	if _, _, err := svc.Move(ctx, planID, slotA, MoveSlotRequest{ToMealType: storage.MealTypeLunch}); !errors.Is(err, ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestCycleStatusAndRemove(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := newTestService(store)
	soup := createRecipe(t, store, "Soup", nil)
	view, _ := svc.GetOrCreateWeek(ctx, storage.DefaultUserID, "2025-02-10")
	planID := uuid.MustParse(view.Plan.ID)
	a, _ := svc.Assign(ctx, storage.DefaultUserID, planID, AssignSlotRequest{RecipeID: soup.ID.String(), DayOfWeek: intPtr(3), MealType: storage.MealTypeBreakfast})
	slotID := uuid.MustParse(a.ID)

	for _, want := range []string{storage.SlotStatusCooked, storage.SlotStatusSkipped, storage.SlotStatusPlanned} {
		slot, found, err := svc.CycleStatus(ctx, planID, slotID)
		if err != nil || !found {
			t.Fatalf("cycle: found=%v err=%v", found, err)
		}
		if slot.Status != want {
			t.Fatalf("expected %s, got %s", want, slot.Status)
		}
	}

	if _, _, err := svc.SetStatus(ctx, planID, slotID, UpdateStatusRequest{Status: "eaten"}); !errors.Is(err, ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}

	if _, found, err := svc.Remove(ctx, planID, slotID); err != nil || !found {
		t.Fatalf("remove: found=%v err=%v", found, err)
	}
	if _, found, _ := svc.Remove(ctx, planID, slotID); found {
		t.Error("expected second remove to report not found")
	}

	summary, found, err := svc.Summary(ctx, storage.DefaultUserID, planID)
	if err != nil || !found {
		t.Fatalf("summary: found=%v err=%v", found, err)
	}
	if summary.Planned != 0 || summary.Empty != 21 {
		t.Errorf("unexpected summary after remove %+v", summary)
	}
}
