package settings

import (
	"errors"
	"fmt"

	"github.com/fdg312/preppair/internal/storage"
)

// ErrValidation marks request errors that map to 400.
var ErrValidation = errors.New("validation failed")

// SettingsDTO holds the household preferences.
type SettingsDTO struct {
	WeeklyBudget    float64 `json:"weekly_budget"`
	DefaultServings int     `json:"default_servings"`
}

type SettingsResponse struct {
	Settings  SettingsDTO `json:"settings"`
	IsDefault bool        `json:"is_default"`
}

// UpdateSettingsRequest uses pointers so a missing field is reported rather
// than silently zeroed.
type UpdateSettingsRequest struct {
	WeeklyBudget    *float64 `json:"weekly_budget"`
	DefaultServings *int     `json:"default_servings"`
}

func (r UpdateSettingsRequest) Validate() error {
	if r.WeeklyBudget == nil {
		return fmt.Errorf("weekly_budget is required")
	}
	if *r.WeeklyBudget < 0 {
		return fmt.Errorf("weekly_budget must be >= 0")
	}
	if r.DefaultServings == nil {
		return fmt.Errorf("default_servings is required")
	}
	if *r.DefaultServings < 1 {
		return fmt.Errorf("default_servings must be >= 1")
	}
	return nil
}

func dtoFromUser(u storage.User) SettingsDTO {
	return SettingsDTO{
		WeeklyBudget:    u.WeeklyBudget,
		DefaultServings: u.DefaultServings,
	}
}
