package recipes

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/fdg312/preppair/internal/storage"
)

// ErrValidation marks request errors that map to 400.
var ErrValidation = errors.New("validation failed")

const (
	maxTitleLength    = 500
	maxCategoryLength = 100
)

type IngredientRequest struct {
	Name     string   `json:"name"`
	Quantity *float64 `json:"quantity,omitempty"`
	Unit     *string  `json:"unit,omitempty"`
	Category *string  `json:"category,omitempty"`
}

type StepRequest struct {
	Instruction  string `json:"instruction"`
	TimerSeconds *int   `json:"timer_seconds,omitempty"`
}

// RecipeRequest is the body of create and update. Update replaces every field.
type RecipeRequest struct {
	Title         string              `json:"title"`
	Description   *string             `json:"description,omitempty"`
	SourceURL     *string             `json:"source_url,omitempty"`
	PrepTime      *int                `json:"prep_time,omitempty"`
	CookTime      *int                `json:"cook_time,omitempty"`
	Servings      *int                `json:"servings,omitempty"`
	Category      *string             `json:"category,omitempty"`
	Tags          []string            `json:"tags,omitempty"`
	ImageURL      *string             `json:"image_url,omitempty"`
	CookingStyle  string              `json:"cooking_style,omitempty"`
	EstimatedCost *float64            `json:"estimated_cost,omitempty"`
	Ingredients   []IngredientRequest `json:"ingredients"`
	Steps         []StepRequest       `json:"steps"`
}

func (r *RecipeRequest) Validate() error {
	title := strings.TrimSpace(r.Title)
	if title == "" {
		return fmt.Errorf("title is required")
	}
	if len(title) > maxTitleLength {
		return fmt.Errorf("title must be at most %d characters", maxTitleLength)
	}
	if r.SourceURL != nil && *r.SourceURL != "" {
		u, err := url.ParseRequestURI(*r.SourceURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("source_url must be a valid URL")
		}
	}
	if r.PrepTime != nil && *r.PrepTime < 0 {
		return fmt.Errorf("prep_time must be >= 0")
	}
	if r.CookTime != nil && *r.CookTime < 0 {
		return fmt.Errorf("cook_time must be >= 0")
	}
	if r.Servings != nil && *r.Servings < 1 {
		return fmt.Errorf("servings must be >= 1")
	}
	if r.Category != nil && len(*r.Category) > maxCategoryLength {
		return fmt.Errorf("category must be at most %d characters", maxCategoryLength)
	}
	switch r.CookingStyle {
	case "", storage.CookingStyleFresh, storage.CookingStyleBatchPrep:
	default:
		return fmt.Errorf("cooking_style must be fresh or batch_prep")
	}
	if r.EstimatedCost != nil && *r.EstimatedCost < 0 {
		return fmt.Errorf("estimated_cost must be >= 0")
	}

	if len(r.Ingredients) == 0 {
		return fmt.Errorf("at least one ingredient is required")
	}
	for i, ing := range r.Ingredients {
		if strings.TrimSpace(ing.Name) == "" {
			return fmt.Errorf("ingredients[%d].name is required", i)
		}
		if ing.Quantity != nil && *ing.Quantity <= 0 {
			return fmt.Errorf("ingredients[%d].quantity must be > 0", i)
		}
	}

	if len(r.Steps) == 0 {
		return fmt.Errorf("at least one step is required")
	}
	for i, step := range r.Steps {
		if strings.TrimSpace(step.Instruction) == "" {
			return fmt.Errorf("steps[%d].instruction is required", i)
		}
		if step.TimerSeconds != nil && *step.TimerSeconds <= 0 {
			return fmt.Errorf("steps[%d].timer_seconds must be > 0", i)
		}
	}

	return nil
}

// toInput applies defaults. defaultServings comes from the household settings.
func (r *RecipeRequest) toInput(defaultServings int) storage.RecipeInput {
	input := storage.RecipeInput{
		Title:         strings.TrimSpace(r.Title),
		Description:   r.Description,
		SourceURL:     r.SourceURL,
		PrepTime:      r.PrepTime,
		CookTime:      r.CookTime,
		Servings:      defaultServings,
		Category:      r.Category,
		Tags:          r.Tags,
		ImageURL:      r.ImageURL,
		CookingStyle:  r.CookingStyle,
		EstimatedCost: r.EstimatedCost,
	}
	if r.Servings != nil {
		input.Servings = *r.Servings
	}
	if input.CookingStyle == "" {
		input.CookingStyle = storage.CookingStyleFresh
	}
	if input.SourceURL != nil && *input.SourceURL == "" {
		input.SourceURL = nil
	}
	if input.Tags == nil {
		input.Tags = []string{}
	}

	for _, ing := range r.Ingredients {
		input.Ingredients = append(input.Ingredients, storage.IngredientInput{
			Name:     strings.TrimSpace(ing.Name),
			Quantity: ing.Quantity,
			Unit:     ing.Unit,
			Category: ing.Category,
		})
	}
	for _, step := range r.Steps {
		input.Steps = append(input.Steps, storage.RecipeStep{
			Instruction:  step.Instruction,
			TimerSeconds: step.TimerSeconds,
		})
	}
	return input
}

type IngredientDTO struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Quantity  *float64 `json:"quantity"`
	Unit      *string  `json:"unit"`
	Category  *string  `json:"category"`
	SortOrder int      `json:"sort_order"`
}

type RecipeDTO struct {
	ID            string               `json:"id"`
	Title         string               `json:"title"`
	Description   *string              `json:"description"`
	SourceURL     *string              `json:"source_url"`
	PrepTime      *int                 `json:"prep_time"`
	CookTime      *int                 `json:"cook_time"`
	Servings      int                  `json:"servings"`
	Category      *string              `json:"category"`
	Tags          []string             `json:"tags"`
	ImageURL      *string              `json:"image_url"`
	CookingStyle  string               `json:"cooking_style"`
	IsFavorite    bool                 `json:"is_favorite"`
	EstimatedCost *float64             `json:"estimated_cost"`
	Steps         []storage.RecipeStep `json:"steps"`
	Ingredients   []IngredientDTO      `json:"ingredients,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

type ListResponse struct {
	Recipes []RecipeDTO `json:"recipes"`
}

type CategoriesResponse struct {
	Categories []string `json:"categories"`
}

func toRecipeDTO(r storage.Recipe) RecipeDTO {
	dto := RecipeDTO{
		ID:            r.ID.String(),
		Title:         r.Title,
		Description:   r.Description,
		SourceURL:     r.SourceURL,
		PrepTime:      r.PrepTime,
		CookTime:      r.CookTime,
		Servings:      r.Servings,
		Category:      r.Category,
		Tags:          r.Tags,
		ImageURL:      r.ImageURL,
		CookingStyle:  r.CookingStyle,
		IsFavorite:    r.IsFavorite,
		EstimatedCost: r.EstimatedCost,
		Steps:         r.Steps,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
	if dto.Tags == nil {
		dto.Tags = []string{}
	}
	if dto.Steps == nil {
		dto.Steps = []storage.RecipeStep{}
	}
	for _, ing := range r.Ingredients {
		dto.Ingredients = append(dto.Ingredients, IngredientDTO{
			ID:        ing.ID.String(),
			Name:      ing.Name,
			Quantity:  ing.Quantity,
			Unit:      ing.Unit,
			Category:  ing.Category,
			SortOrder: ing.SortOrder,
		})
	}
	return dto
}
