package settings

import (
	"context"
	"fmt"
	"strings"

	"github.com/fdg312/preppair/internal/config"
	"github.com/fdg312/preppair/internal/storage"
)

type Service struct {
	storage storage.UsersStorage
	config  *config.Config
}

func NewService(usersStorage storage.UsersStorage, cfg *config.Config) *Service {
	return &Service{
		storage: usersStorage,
		config:  cfg,
	}
}

// GetOrDefault returns the stored preferences, or the configured defaults
// when the user row does not exist yet.
func (s *Service) GetOrDefault(ctx context.Context, userID string) (SettingsResponse, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return SettingsResponse{}, fmt.Errorf("user_id is required")
	}

	user, found, err := s.storage.GetUser(ctx, userID)
	if err != nil {
		return SettingsResponse{}, fmt.Errorf("failed to get user: %w", err)
	}

	if !found {
		return SettingsResponse{Settings: s.defaults(), IsDefault: true}, nil
	}

	return SettingsResponse{Settings: dtoFromUser(user)}, nil
}

func (s *Service) Update(ctx context.Context, userID string, req UpdateSettingsRequest) (SettingsDTO, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return SettingsDTO{}, fmt.Errorf("user_id is required")
	}

	if err := req.Validate(); err != nil {
		return SettingsDTO{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	user, err := s.storage.UpdateUserSettings(ctx, userID, *req.WeeklyBudget, *req.DefaultServings)
	if err != nil {
		return SettingsDTO{}, fmt.Errorf("failed to update settings: %w", err)
	}
	return dtoFromUser(user), nil
}

func (s *Service) defaults() SettingsDTO {
	dto := SettingsDTO{
		WeeklyBudget:    storage.DefaultWeeklyBudget,
		DefaultServings: storage.DefaultDefaultServings,
	}
	if s.config != nil {
		if s.config.DefaultWeeklyBudget > 0 {
			dto.WeeklyBudget = s.config.DefaultWeeklyBudget
		}
		if s.config.DefaultServings > 0 {
			dto.DefaultServings = s.config.DefaultServings
		}
	}
	return dto
}
