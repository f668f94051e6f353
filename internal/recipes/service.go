package recipes

import (
	"context"
	"fmt"

	"github.com/fdg312/preppair/internal/storage"
	"github.com/google/uuid"
)

type Storage interface {
	storage.RecipesStorage
	GetUser(ctx context.Context, userID string) (storage.User, bool, error)
}

type Service struct {
	storage Storage
}

func NewService(storage Storage) *Service {
	return &Service{storage: storage}
}

func (s *Service) List(ctx context.Context, userID string, filter storage.RecipeFilter) ([]RecipeDTO, error) {
	recipes, err := s.storage.ListRecipes(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}

	out := make([]RecipeDTO, 0, len(recipes))
	for _, r := range recipes {
		out = append(out, toRecipeDTO(r))
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, userID string, recipeID uuid.UUID) (*RecipeDTO, bool, error) {
	recipe, found, err := s.storage.GetRecipe(ctx, userID, recipeID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get recipe: %w", err)
	}
	if !found {
		return nil, false, nil
	}

	dto := toRecipeDTO(recipe)
	return &dto, true, nil
}

func (s *Service) Create(ctx context.Context, userID string, req RecipeRequest) (*RecipeDTO, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	servings, err := s.defaultServings(ctx, userID)
	if err != nil {
		return nil, err
	}

	recipe, err := s.storage.CreateRecipe(ctx, userID, req.toInput(servings))
	if err != nil {
		return nil, fmt.Errorf("failed to create recipe: %w", err)
	}

	dto := toRecipeDTO(recipe)
	return &dto, nil
}

func (s *Service) Update(ctx context.Context, userID string, recipeID uuid.UUID, req RecipeRequest) (*RecipeDTO, bool, error) {
	if err := req.Validate(); err != nil {
		return nil, false, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	servings, err := s.defaultServings(ctx, userID)
	if err != nil {
		return nil, false, err
	}

	recipe, found, err := s.storage.UpdateRecipe(ctx, userID, recipeID, req.toInput(servings))
	if err != nil {
		return nil, false, fmt.Errorf("failed to update recipe: %w", err)
	}
	if !found {
		return nil, false, nil
	}

	dto := toRecipeDTO(recipe)
	return &dto, true, nil
}

func (s *Service) Delete(ctx context.Context, userID string, recipeID uuid.UUID) (bool, error) {
	found, err := s.storage.DeleteRecipe(ctx, userID, recipeID)
	if err != nil {
		return false, fmt.Errorf("failed to delete recipe: %w", err)
	}
	return found, nil
}

func (s *Service) ToggleFavorite(ctx context.Context, userID string, recipeID uuid.UUID) (*RecipeDTO, bool, error) {
	recipe, found, err := s.storage.ToggleFavorite(ctx, userID, recipeID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to toggle favorite: %w", err)
	}
	if !found {
		return nil, false, nil
	}

	dto := toRecipeDTO(recipe)
	return &dto, true, nil
}

func (s *Service) Categories(ctx context.Context, userID string) ([]string, error) {
	categories, err := s.storage.ListCategories(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	if categories == nil {
		categories = []string{}
	}
	return categories, nil
}

func (s *Service) defaultServings(ctx context.Context, userID string) (int, error) {
	user, found, err := s.storage.GetUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to get user: %w", err)
	}
	if !found || user.DefaultServings < 1 {
		return storage.DefaultDefaultServings, nil
	}
	return user.DefaultServings, nil
}
