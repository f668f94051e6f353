package budget

import (
	"context"
	"fmt"
	"time"

	"github.com/fdg312/preppair/internal/settings"
	"github.com/fdg312/preppair/internal/storage"
	"github.com/fdg312/preppair/internal/weekdate"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// sumConcurrency bounds parallel week totals for the trend.
const sumConcurrency = 4

type Service struct {
	storage  storage.BudgetStorage
	settings *settings.Service
	now      func() time.Time
}

func NewService(budgetStorage storage.BudgetStorage, settingsService *settings.Service) *Service {
	return &Service{
		storage:  budgetStorage,
		settings: settingsService,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) CreateEntry(ctx context.Context, userID string, req CreateEntryRequest) (*EntryDTO, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	entry, err := s.storage.CreateBudgetEntry(ctx, userID, req.toInput())
	if err != nil {
		return nil, fmt.Errorf("failed to create budget entry: %w", err)
	}

	dto := toEntryDTO(entry)
	return &dto, nil
}

// ListEntries returns entries in [from, to]; either bound may be empty.
func (s *Service) ListEntries(ctx context.Context, userID, from, to string) (*EntriesResponse, error) {
	for name, v := range map[string]string{"from": from, "to": to} {
		if v == "" {
			continue
		}
		if _, err := weekdate.Parse(v); err != nil {
			return nil, fmt.Errorf("%w: %s must be YYYY-MM-DD", ErrValidation, name)
		}
	}
	if from != "" && to != "" && from > to {
		return nil, fmt.Errorf("%w: from must not be after to", ErrValidation)
	}

	entries, err := s.storage.ListBudgetEntries(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list budget entries: %w", err)
	}

	resp := &EntriesResponse{Entries: make([]EntryDTO, 0, len(entries))}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, toEntryDTO(e))
		resp.Total += e.Amount
	}
	return resp, nil
}

func (s *Service) DeleteEntry(ctx context.Context, userID string, entryID uuid.UUID) (bool, error) {
	found, err := s.storage.DeleteBudgetEntry(ctx, userID, entryID)
	if err != nil {
		return false, fmt.Errorf("failed to delete budget entry: %w", err)
	}
	return found, nil
}

// WeekStatus reports spending for the Monday..Sunday week containing date.
// An empty date means the current week.
func (s *Service) WeekStatus(ctx context.Context, userID, date string) (*WeekStatus, error) {
	monday := weekdate.CurrentMonday(s.now())
	if date != "" {
		var err error
		if monday, err = weekdate.Monday(date); err != nil {
			return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrValidation)
		}
	}
	sunday, err := weekdate.Sunday(monday)
	if err != nil {
		return nil, fmt.Errorf("failed to compute week end: %w", err)
	}

	prefs, err := s.settings.GetOrDefault(ctx, userID)
	if err != nil {
		return nil, err
	}

	spent, err := s.storage.SumBudgetEntries(ctx, userID, monday, sunday)
	if err != nil {
		return nil, fmt.Errorf("failed to sum budget entries: %w", err)
	}

	budget := prefs.Settings.WeeklyBudget
	return &WeekStatus{
		WeekStart:   monday,
		WeekEnd:     sunday,
		Budget:      budget,
		Spent:       spent,
		Remaining:   budget - spent,
		PercentUsed: percentUsed(spent, budget),
	}, nil
}

// Trend returns weekly totals for the given number of weeks ending with the
// current one, oldest first.
func (s *Service) Trend(ctx context.Context, userID string, weeks int) (*TrendResponse, error) {
	if weeks < 1 || weeks > MaxTrendWeeks {
		return nil, fmt.Errorf("%w: weeks must be between 1 and %d", ErrValidation, MaxTrendWeeks)
	}

	current := weekdate.CurrentMonday(s.now())
	points := make([]TrendPoint, weeks)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(sumConcurrency)
	for i := range points {
		g.Go(func() error {
			monday, err := weekdate.AddWeeks(current, i-(weeks-1))
			if err != nil {
				return err
			}
			sunday, err := weekdate.Sunday(monday)
			if err != nil {
				return err
			}
			label, err := weekdate.ShortLabel(monday)
			if err != nil {
				return err
			}
			total, err := s.storage.SumBudgetEntries(gctx, userID, monday, sunday)
			if err != nil {
				return fmt.Errorf("failed to sum week %s: %w", monday, err)
			}
			points[i] = TrendPoint{WeekStart: monday, Week: label, Total: total}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &TrendResponse{Weeks: points}, nil
}
