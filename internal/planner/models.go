package planner

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fdg312/preppair/internal/storage"
	"github.com/google/uuid"
)

// ErrValidation marks request errors that map to 400.
var ErrValidation = errors.New("validation failed")

// ErrRecipeNotFound is returned when assigning a recipe the user does not have.
var ErrRecipeNotFound = errors.New("recipe not found")

type WeekPlanDTO struct {
	ID            string    `json:"id"`
	WeekStartDate string    `json:"week_start_date"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type SlotRecipeDTO struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	CookingStyle  string   `json:"cooking_style"`
	ImageURL      *string  `json:"image_url,omitempty"`
	EstimatedCost *float64 `json:"estimated_cost,omitempty"`
}

type SlotDTO struct {
	ID        string         `json:"id"`
	PlanID    string         `json:"plan_id"`
	DayOfWeek int            `json:"day_of_week"`
	MealType  string         `json:"meal_type"`
	RecipeID  *string        `json:"recipe_id"`
	Status    string         `json:"status"`
	Recipe    *SlotRecipeDTO `json:"recipe,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

type SummaryDTO struct {
	TotalSlots      int     `json:"total_slots"`
	Planned         int     `json:"planned"`
	Empty           int     `json:"empty"`
	Cooked          int     `json:"cooked"`
	Skipped         int     `json:"skipped"`
	CoveragePercent int     `json:"coverage_percent"`
	EstimatedCost   float64 `json:"estimated_cost"`
}

// WeekViewResponse is everything the calendar screen needs for one week.
type WeekViewResponse struct {
	Plan         WeekPlanDTO `json:"plan"`
	Slots        []SlotDTO   `json:"slots"`
	Summary      SummaryDTO  `json:"summary"`
	RangeLabel   string      `json:"range_label"`
	PreviousWeek string      `json:"previous_week"`
	NextWeek     string      `json:"next_week"`
}

type AssignSlotRequest struct {
	RecipeID  string `json:"recipe_id"`
	DayOfWeek *int   `json:"day_of_week"`
	MealType  string `json:"meal_type"`
}

type MoveSlotRequest struct {
	ToDayOfWeek *int   `json:"to_day_of_week"`
	ToMealType  string `json:"to_meal_type"`
}

type MoveSlotResponse struct {
	Success bool   `json:"success"`
	Outcome string `json:"outcome"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

func validDay(day *int) error {
	if day == nil {
		return fmt.Errorf("day_of_week is required")
	}
	if *day < 0 || *day > 6 {
		return fmt.Errorf("day_of_week must be 0-6")
	}
	return nil
}

func validMealType(mealType string) error {
	if storage.MealTypeOrder(mealType) < 0 {
		return fmt.Errorf("meal_type must be one of %s", strings.Join(storage.MealTypes, ", "))
	}
	return nil
}

func (r *AssignSlotRequest) Validate() error {
	if _, err := uuid.Parse(r.RecipeID); err != nil {
		return fmt.Errorf("recipe_id must be a valid UUID")
	}
	if err := validDay(r.DayOfWeek); err != nil {
		return err
	}
	return validMealType(r.MealType)
}

func (r *MoveSlotRequest) Validate() error {
	if err := validDay(r.ToDayOfWeek); err != nil {
		return fmt.Errorf("to_%w", err)
	}
	if err := validMealType(r.ToMealType); err != nil {
		return fmt.Errorf("to_%w", err)
	}
	return nil
}

func (r *UpdateStatusRequest) Validate() error {
	switch r.Status {
	case storage.SlotStatusPlanned, storage.SlotStatusCooked, storage.SlotStatusSkipped:
		return nil
	default:
		return fmt.Errorf("status must be one of planned, cooked, skipped")
	}
}

func toPlanDTO(plan storage.WeekPlan) WeekPlanDTO {
	return WeekPlanDTO{
		ID:            plan.ID.String(),
		WeekStartDate: plan.WeekStartDate,
		CreatedAt:     plan.CreatedAt,
		UpdatedAt:     plan.UpdatedAt,
	}
}

func toSlotDTO(slot storage.MealSlot, recipe *storage.Recipe) SlotDTO {
	dto := SlotDTO{
		ID:        slot.ID.String(),
		PlanID:    slot.PlanID.String(),
		DayOfWeek: slot.DayOfWeek,
		MealType:  slot.MealType,
		Status:    slot.Status,
		CreatedAt: slot.CreatedAt,
	}
	if slot.RecipeID != nil {
		id := slot.RecipeID.String()
		dto.RecipeID = &id
	}
	if recipe != nil {
		dto.Recipe = &SlotRecipeDTO{
			ID:            recipe.ID.String(),
			Title:         recipe.Title,
			CookingStyle:  recipe.CookingStyle,
			ImageURL:      recipe.ImageURL,
			EstimatedCost: recipe.EstimatedCost,
		}
	}
	return dto
}
