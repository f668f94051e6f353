package planner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fdg312/preppair/internal/storage"
	"github.com/fdg312/preppair/internal/weekdate"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// recipeLookupLimit bounds concurrent recipe reads for one week view.
const recipeLookupLimit = 4

type Storage interface {
	storage.PlansStorage
	GetRecipe(ctx context.Context, userID string, recipeID uuid.UUID) (storage.Recipe, bool, error)
}

type Service struct {
	storage Storage
	now     func() time.Time
}

func NewService(storage Storage) *Service {
	return &Service{
		storage: storage,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// GetOrCreateWeek resolves the plan of the week containing date (any day,
// YYYY-MM-DD) and returns its full view.
func (s *Service) GetOrCreateWeek(ctx context.Context, userID, date string) (*WeekViewResponse, error) {
	monday, err := weekdate.Monday(date)
	if err != nil {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrValidation)
	}

	plan, err := s.storage.GetOrCreateWeekPlan(ctx, userID, monday)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create week plan: %w", err)
	}

	return s.buildView(ctx, userID, plan)
}

// CurrentWeek is GetOrCreateWeek for today.
func (s *Service) CurrentWeek(ctx context.Context, userID string) (*WeekViewResponse, error) {
	return s.GetOrCreateWeek(ctx, userID, weekdate.CurrentMonday(s.now()))
}

func (s *Service) GetPlan(ctx context.Context, userID string, planID uuid.UUID) (*WeekViewResponse, bool, error) {
	plan, found, err := s.storage.GetWeekPlan(ctx, planID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get week plan: %w", err)
	}
	if !found {
		return nil, false, nil
	}

	view, err := s.buildView(ctx, userID, plan)
	if err != nil {
		return nil, false, err
	}
	return view, true, nil
}

func (s *Service) buildView(ctx context.Context, userID string, plan storage.WeekPlan) (*WeekViewResponse, error) {
	slots, err := s.storage.ListSlots(ctx, plan.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}

	recipes, err := s.loadRecipes(ctx, userID, slots)
	if err != nil {
		return nil, err
	}

	view := &WeekViewResponse{
		Plan:    toPlanDTO(plan),
		Slots:   make([]SlotDTO, 0, len(slots)),
		Summary: Summarize(slots, costsOf(recipes)),
	}
	for _, slot := range slots {
		var recipe *storage.Recipe
		if slot.RecipeID != nil {
			if r, ok := recipes[*slot.RecipeID]; ok {
				recipe = &r
			}
		}
		view.Slots = append(view.Slots, toSlotDTO(slot, recipe))
	}

	if view.RangeLabel, err = weekdate.FormatRange(plan.WeekStartDate); err != nil {
		return nil, fmt.Errorf("failed to format week range: %w", err)
	}
	if view.PreviousWeek, err = weekdate.PreviousWeek(plan.WeekStartDate); err != nil {
		return nil, fmt.Errorf("failed to compute previous week: %w", err)
	}
	if view.NextWeek, err = weekdate.NextWeek(plan.WeekStartDate); err != nil {
		return nil, fmt.Errorf("failed to compute next week: %w", err)
	}

	return view, nil
}

// loadRecipes fetches the distinct recipes referenced by slots. Recipes that
// no longer exist are left out.
func (s *Service) loadRecipes(ctx context.Context, userID string, slots []storage.MealSlot) (map[uuid.UUID]storage.Recipe, error) {
	ids := make([]uuid.UUID, 0, len(slots))
	seen := make(map[uuid.UUID]bool, len(slots))
	for _, slot := range slots {
		if slot.RecipeID == nil || seen[*slot.RecipeID] {
			continue
		}
		seen[*slot.RecipeID] = true
		ids = append(ids, *slot.RecipeID)
	}

	var mu sync.Mutex
	recipes := make(map[uuid.UUID]storage.Recipe, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(recipeLookupLimit)
	for _, id := range ids {
		g.Go(func() error {
			recipe, found, err := s.storage.GetRecipe(gctx, userID, id)
			if err != nil {
				return fmt.Errorf("failed to get recipe %s: %w", id, err)
			}
			if !found {
				return nil
			}
			mu.Lock()
			recipes[id] = recipe
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return recipes, nil
}

func costsOf(recipes map[uuid.UUID]storage.Recipe) map[uuid.UUID]float64 {
	costs := make(map[uuid.UUID]float64, len(recipes))
	for id, r := range recipes {
		if r.EstimatedCost != nil {
			costs[id] = *r.EstimatedCost
		}
	}
	return costs
}

// Assign puts a recipe into a cell of the plan, replacing whatever was there.
func (s *Service) Assign(ctx context.Context, userID string, planID uuid.UUID, req AssignSlotRequest) (*SlotDTO, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	recipeID := uuid.MustParse(req.RecipeID)

	recipe, found, err := s.storage.GetRecipe(ctx, userID, recipeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}
	if !found {
		return nil, ErrRecipeNotFound
	}

	slot, err := s.storage.AssignSlot(ctx, planID, *req.DayOfWeek, req.MealType, recipeID)
	if err != nil {
		return nil, fmt.Errorf("failed to assign slot: %w", err)
	}

	dto := toSlotDTO(slot, &recipe)
	return &dto, nil
}

// Remove empties a cell. found=false when the slot is not part of the plan.
func (s *Service) Remove(ctx context.Context, planID, slotID uuid.UUID) (*SlotDTO, bool, error) {
	slot, found, err := s.storage.DeleteSlot(ctx, planID, slotID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to delete slot: %w", err)
	}
	if !found {
		return nil, false, nil
	}

	dto := toSlotDTO(slot, nil)
	return &dto, true, nil
}

// Move relocates a slot to another cell, swapping contents when the target
// is occupied.
func (s *Service) Move(ctx context.Context, planID, slotID uuid.UUID, req MoveSlotRequest) (*MoveSlotResponse, bool, error) {
	if err := req.Validate(); err != nil {
		return nil, false, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	source, found, err := s.storage.GetSlot(ctx, planID, slotID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get slot: %w", err)
	}
	if !found {
		return nil, false, nil
	}
	if source.DayOfWeek == *req.ToDayOfWeek && source.MealType == req.ToMealType {
		return &MoveSlotResponse{Success: true, Outcome: string(storage.MoveOutcomeUnchanged)}, true, nil
	}

	outcome, found, err := s.storage.MoveSlot(ctx, planID, slotID, *req.ToDayOfWeek, req.ToMealType)
	if err != nil {
		return nil, false, fmt.Errorf("failed to move slot: %w", err)
	}
	if !found {
		return nil, false, nil
	}

	return &MoveSlotResponse{Success: true, Outcome: string(outcome)}, true, nil
}

func (s *Service) SetStatus(ctx context.Context, planID, slotID uuid.UUID, req UpdateStatusRequest) (*SlotDTO, bool, error) {
	if err := req.Validate(); err != nil {
		return nil, false, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return s.setStatus(ctx, planID, slotID, req.Status)
}

// CycleStatus advances the slot to its next status.
func (s *Service) CycleStatus(ctx context.Context, planID, slotID uuid.UUID) (*SlotDTO, bool, error) {
	slot, found, err := s.storage.GetSlot(ctx, planID, slotID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get slot: %w", err)
	}
	if !found {
		return nil, false, nil
	}
	return s.setStatus(ctx, planID, slotID, NextStatus(slot.Status))
}

func (s *Service) setStatus(ctx context.Context, planID, slotID uuid.UUID, status string) (*SlotDTO, bool, error) {
	slot, found, err := s.storage.SetSlotStatus(ctx, planID, slotID, status)
	if err != nil {
		return nil, false, fmt.Errorf("failed to set slot status: %w", err)
	}
	if !found {
		return nil, false, nil
	}

	dto := toSlotDTO(slot, nil)
	return &dto, true, nil
}

func (s *Service) Summary(ctx context.Context, userID string, planID uuid.UUID) (*SummaryDTO, bool, error) {
	view, found, err := s.GetPlan(ctx, userID, planID)
	if err != nil || !found {
		return nil, found, err
	}
	return &view.Summary, true, nil
}
