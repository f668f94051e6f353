package budget

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/fdg312/preppair/internal/storage"
	"github.com/fdg312/preppair/internal/weekdate"
)

// ErrValidation marks request errors that map to 400.
var ErrValidation = errors.New("validation failed")

const (
	DefaultTrendWeeks = 4
	MaxTrendWeeks     = 26
	maxStoreLength    = 255
)

type CreateEntryRequest struct {
	Amount *float64 `json:"amount"`
	Store  *string  `json:"store,omitempty"`
	Date   string   `json:"date"`
}

func (r *CreateEntryRequest) Validate() error {
	if r.Amount == nil {
		return fmt.Errorf("amount is required")
	}
	if *r.Amount <= 0 || math.IsInf(*r.Amount, 0) || math.IsNaN(*r.Amount) {
		return fmt.Errorf("amount must be positive")
	}
	if r.Store != nil && len(*r.Store) > maxStoreLength {
		return fmt.Errorf("store must be at most %d characters", maxStoreLength)
	}
	if _, err := weekdate.Parse(r.Date); err != nil {
		return fmt.Errorf("date must be YYYY-MM-DD")
	}
	return nil
}

func (r *CreateEntryRequest) toInput() storage.BudgetEntryInput {
	input := storage.BudgetEntryInput{Amount: *r.Amount, Date: r.Date}
	if r.Store != nil {
		if s := strings.TrimSpace(*r.Store); s != "" {
			input.Store = &s
		}
	}
	return input
}

type EntryDTO struct {
	ID        string    `json:"id"`
	Amount    float64   `json:"amount"`
	Store     *string   `json:"store"`
	Date      string    `json:"date"`
	CreatedAt time.Time `json:"created_at"`
}

type EntriesResponse struct {
	Entries []EntryDTO `json:"entries"`
	Total   float64    `json:"total"`
}

// WeekStatus compares a week's spending with the household budget.
type WeekStatus struct {
	WeekStart   string  `json:"week_start"`
	WeekEnd     string  `json:"week_end"`
	Budget      float64 `json:"budget"`
	Spent       float64 `json:"spent"`
	Remaining   float64 `json:"remaining"`
	PercentUsed int     `json:"percent_used"`
}

type TrendPoint struct {
	WeekStart string  `json:"week_start"`
	Week      string  `json:"week"`
	Total     float64 `json:"total"`
}

type TrendResponse struct {
	Weeks []TrendPoint `json:"weeks"`
}

func toEntryDTO(e storage.BudgetEntry) EntryDTO {
	return EntryDTO{
		ID:        e.ID.String(),
		Amount:    e.Amount,
		Store:     e.Store,
		Date:      e.Date,
		CreatedAt: e.CreatedAt,
	}
}

// percentUsed rounds spent/budget to a whole percent; a zero budget reports
// 100 once anything is spent.
func percentUsed(spent, budget float64) int {
	if budget <= 0 {
		if spent > 0 {
			return 100
		}
		return 0
	}
	return int(math.Round(spent / budget * 100))
}
