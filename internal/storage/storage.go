package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// DefaultUserID is the household user every store provisions on open.
const DefaultUserID = "default"

const (
	DefaultWeeklyBudget    = 500000
	DefaultDefaultServings = 2
)

// ErrConflict is returned when a write violates a uniqueness rule.
var ErrConflict = errors.New("conflict")

// Meal types, in calendar order.
const (
	MealTypeBreakfast = "breakfast"
	MealTypeLunch     = "lunch"
	MealTypeDinner    = "dinner"
)

// Slot statuses.
const (
	SlotStatusPlanned = "planned"
	SlotStatusCooked  = "cooked"
	SlotStatusSkipped = "skipped"
)

// Cooking styles.
const (
	CookingStyleFresh     = "fresh"
	CookingStyleBatchPrep = "batch_prep"
)

// MealTypes lists the meal types in the order they appear in a day.
var MealTypes = []string{MealTypeBreakfast, MealTypeLunch, MealTypeDinner}

// MealTypeOrder returns the position of a meal type within a day, or -1.
func MealTypeOrder(mealType string) int {
	for i, mt := range MealTypes {
		if mt == mealType {
			return i
		}
	}
	return -1
}

// Store is the full persistence surface of the application.
type Store interface {
	UsersStorage
	RecipesStorage
	PlansStorage
	GroceryStorage
	BudgetStorage

	Close() error
}

// ---------- Users ----------

// User is the household account that owns every other row.
type User struct {
	ID              string
	PinHash         *string
	WeeklyBudget    float64
	DefaultServings int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type UsersStorage interface {
	// GetUser returns the user, or found=false.
	GetUser(ctx context.Context, userID string) (User, bool, error)
	// SetPinHash stores a new PIN hash for an existing user.
	SetPinHash(ctx context.Context, userID string, pinHash string) error
	// UpdateUserSettings replaces the household preferences.
	UpdateUserSettings(ctx context.Context, userID string, weeklyBudget float64, defaultServings int) (User, error)
}

// ---------- Recipes ----------

type RecipeStep struct {
	Instruction  string `json:"instruction"`
	TimerSeconds *int   `json:"timer_seconds,omitempty"`
}

type Ingredient struct {
	ID        uuid.UUID
	RecipeID  uuid.UUID
	Name      string
	Quantity  *float64
	Unit      *string
	Category  *string
	SortOrder int
}

type Recipe struct {
	ID            uuid.UUID
	UserID        string
	Title         string
	Description   *string
	SourceURL     *string
	PrepTime      *int
	CookTime      *int
	Servings      int
	Category      *string
	Tags          []string
	ImageURL      *string
	CookingStyle  string
	IsFavorite    bool
	EstimatedCost *float64
	Steps         []RecipeStep
	Ingredients   []Ingredient
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IngredientInput is one ingredient line of a recipe write.
type IngredientInput struct {
	Name     string
	Quantity *float64
	Unit     *string
	Category *string
}

// RecipeInput carries every user-editable recipe field.
type RecipeInput struct {
	Title         string
	Description   *string
	SourceURL     *string
	PrepTime      *int
	CookTime      *int
	Servings      int
	Category      *string
	Tags          []string
	ImageURL      *string
	CookingStyle  string
	EstimatedCost *float64
	Steps         []RecipeStep
	Ingredients   []IngredientInput
}

type RecipeFilter struct {
	Category      string
	Search        string
	FavoritesOnly bool
}

type RecipesStorage interface {
	// ListRecipes returns recipes without ingredients, most recently updated first.
	ListRecipes(ctx context.Context, userID string, filter RecipeFilter) ([]Recipe, error)
	// GetRecipe returns a recipe with its ingredients ordered by sort order.
	GetRecipe(ctx context.Context, userID string, recipeID uuid.UUID) (Recipe, bool, error)
	CreateRecipe(ctx context.Context, userID string, input RecipeInput) (Recipe, error)
	// UpdateRecipe replaces all fields and ingredient lines.
	UpdateRecipe(ctx context.Context, userID string, recipeID uuid.UUID, input RecipeInput) (Recipe, bool, error)
	// DeleteRecipe removes the recipe; slots referencing it become empty.
	DeleteRecipe(ctx context.Context, userID string, recipeID uuid.UUID) (bool, error)
	ToggleFavorite(ctx context.Context, userID string, recipeID uuid.UUID) (Recipe, bool, error)
	ListCategories(ctx context.Context, userID string) ([]string, error)
}

// ---------- Week plans & slots ----------

// WeekPlan anchors a user's week. WeekStartDate is a Monday in YYYY-MM-DD.
type WeekPlan struct {
	ID            uuid.UUID
	UserID        string
	WeekStartDate string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// MealSlot is one filled cell of the 7x3 week grid. DayOfWeek 0 is Monday.
type MealSlot struct {
	ID        uuid.UUID
	PlanID    uuid.UUID
	DayOfWeek int
	MealType  string
	RecipeID  *uuid.UUID
	Status    string
	CreatedAt time.Time
}

// MoveOutcome reports what a slot move did.
type MoveOutcome string

const (
	MoveOutcomeMoved     MoveOutcome = "moved"
	MoveOutcomeSwapped   MoveOutcome = "swapped"
	MoveOutcomeUnchanged MoveOutcome = "unchanged"
)

type PlansStorage interface {
	// GetOrCreateWeekPlan returns the user's plan for the week, creating it when absent.
	// Concurrent callers for the same week receive the same row.
	GetOrCreateWeekPlan(ctx context.Context, userID string, weekStartDate string) (WeekPlan, error)
	GetWeekPlan(ctx context.Context, planID uuid.UUID) (WeekPlan, bool, error)
	// ListSlots returns the plan's slots ordered by day then meal type.
	ListSlots(ctx context.Context, planID uuid.UUID) ([]MealSlot, error)
	GetSlot(ctx context.Context, planID uuid.UUID, slotID uuid.UUID) (MealSlot, bool, error)
	// AssignSlot upserts the cell; an existing row keeps its id and is reset to planned.
	AssignSlot(ctx context.Context, planID uuid.UUID, dayOfWeek int, mealType string, recipeID uuid.UUID) (MealSlot, error)
	// DeleteSlot removes the slot and returns the deleted row.
	DeleteSlot(ctx context.Context, planID uuid.UUID, slotID uuid.UUID) (MealSlot, bool, error)
	SetSlotStatus(ctx context.Context, planID uuid.UUID, slotID uuid.UUID, status string) (MealSlot, bool, error)
	// MoveSlot relocates the slot to an empty target cell, or exchanges recipe and
	// status with an occupied one. It is atomic.
	MoveSlot(ctx context.Context, planID uuid.UUID, slotID uuid.UUID, toDay int, toMealType string) (MoveOutcome, bool, error)
}

// ---------- Grocery ----------

// PlannedMeal is a filled slot together with the ingredient lines of its recipe.
type PlannedMeal struct {
	SlotID      uuid.UUID
	RecipeID    *uuid.UUID
	Ingredients []Ingredient
}

type GroceryItem struct {
	ID             uuid.UUID
	PlanID         uuid.UUID
	IngredientName string
	TotalQuantity  *float64
	Unit           *string
	Category       *string
	IsChecked      bool
	SortOrder      int
	CreatedAt      time.Time
}

type GroceryItemDraft struct {
	IngredientName string
	TotalQuantity  *float64
	Unit           *string
	Category       *string
}

type GroceryCount struct {
	Total   int
	Checked int
}

// GroceryBuilder turns the plan's meals into the items to persist.
type GroceryBuilder func(meals []PlannedMeal) []GroceryItemDraft

type GroceryStorage interface {
	// RegenerateGroceryList reads the plan's meals, runs build and replaces every
	// grocery item of the plan with the result in one transaction.
	RegenerateGroceryList(ctx context.Context, planID uuid.UUID, build GroceryBuilder) ([]GroceryItem, error)
	// ListGroceryItems returns items in stored order.
	ListGroceryItems(ctx context.Context, planID uuid.UUID) ([]GroceryItem, error)
	ToggleGroceryItem(ctx context.Context, planID uuid.UUID, itemID uuid.UUID) (GroceryItem, bool, error)
	// UncheckGroceryItems clears the checked flag and returns how many rows changed.
	UncheckGroceryItems(ctx context.Context, planID uuid.UUID) (int, error)
	CountGroceryItems(ctx context.Context, planID uuid.UUID) (GroceryCount, error)
}

// ---------- Budget ----------

type BudgetEntry struct {
	ID        uuid.UUID
	UserID    string
	Amount    float64
	Store     *string
	Date      string
	CreatedAt time.Time
}

type BudgetEntryInput struct {
	Amount float64
	Store  *string
	Date   string
}

type BudgetStorage interface {
	CreateBudgetEntry(ctx context.Context, userID string, input BudgetEntryInput) (BudgetEntry, error)
	// ListBudgetEntries returns entries dated within [from, to], newest first.
	// An empty bound is open.
	ListBudgetEntries(ctx context.Context, userID string, from, to string) ([]BudgetEntry, error)
	DeleteBudgetEntry(ctx context.Context, userID string, entryID uuid.UUID) (bool, error)
	// SumBudgetEntries totals amounts dated within [from, to].
	SumBudgetEntries(ctx context.Context, userID string, from, to string) (float64, error)
}
