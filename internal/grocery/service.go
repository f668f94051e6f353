package grocery

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/fdg312/preppair/internal/blob"
	"github.com/fdg312/preppair/internal/storage"
	"github.com/google/uuid"
)

var ErrInvalidFormat = errors.New("format must be 'pdf' or 'csv'")

// Storage is the persistence the grocery service needs.
type Storage interface {
	storage.GroceryStorage
	GetWeekPlan(ctx context.Context, planID uuid.UUID) (storage.WeekPlan, bool, error)
}

// Service generates and maintains a plan's shopping list.
type Service struct {
	storage    Storage
	blobStore  blob.Store
	presignTTL time.Duration
	now        func() time.Time
}

// NewService creates a grocery service. A nil blobStore makes exports stream
// back to the caller instead of going to object storage.
func NewService(storage Storage, blobStore blob.Store, presignTTLSeconds int) *Service {
	return &Service{
		storage:    storage,
		blobStore:  blobStore,
		presignTTL: time.Duration(presignTTLSeconds) * time.Second,
		now:        time.Now,
	}
}

// Generate rebuilds the plan's list from its planned meals. Checked state is
// not carried over.
func (s *Service) Generate(ctx context.Context, planID uuid.UUID) ([]GroceryItemDTO, error) {
	items, err := s.storage.RegenerateGroceryList(ctx, planID, func(meals []storage.PlannedMeal) []storage.GroceryItemDraft {
		return toDrafts(Aggregate(meals))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to regenerate grocery list: %w", err)
	}

	dtos := make([]GroceryItemDTO, len(items))
	for i, item := range items {
		dtos[i] = toItemDTO(item)
	}
	return dtos, nil
}

// ListByCategory groups the stored items by category. Groups are sorted by
// name; items keep their stored order.
func (s *Service) ListByCategory(ctx context.Context, planID uuid.UUID) ([]CategoryGroup, error) {
	items, err := s.storage.ListGroceryItems(ctx, planID)
	if err != nil {
		return nil, err
	}
	return groupByCategory(items), nil
}

func groupByCategory(items []storage.GroceryItem) []CategoryGroup {
	index := make(map[string]int)
	groups := []CategoryGroup{}
	for _, item := range items {
		dto := toItemDTO(item)
		i, ok := index[dto.Category]
		if !ok {
			i = len(groups)
			index[dto.Category] = i
			groups = append(groups, CategoryGroup{Category: dto.Category})
		}
		groups[i].Items = append(groups[i].Items, dto)
		if dto.IsChecked {
			groups[i].Checked++
		}
	}

	sort.SliceStable(groups, func(a, b int) bool {
		return groups[a].Category < groups[b].Category
	})
	return groups
}

func (s *Service) Toggle(ctx context.Context, planID, itemID uuid.UUID) (*GroceryItemDTO, bool, error) {
	item, found, err := s.storage.ToggleGroceryItem(ctx, planID, itemID)
	if err != nil || !found {
		return nil, found, err
	}
	dto := toItemDTO(item)
	return &dto, true, nil
}

// ClearChecked unchecks every item of the plan and reports how many changed.
func (s *Service) ClearChecked(ctx context.Context, planID uuid.UUID) (int, error) {
	return s.storage.UncheckGroceryItems(ctx, planID)
}

func (s *Service) Count(ctx context.Context, planID uuid.UUID) (CountResponse, error) {
	count, err := s.storage.CountGroceryItems(ctx, planID)
	if err != nil {
		return CountResponse{}, err
	}
	return CountResponse{Total: count.Total, Checked: count.Checked}, nil
}

// Export renders the list as PDF or CSV. With object storage configured the
// file is uploaded and a presigned link is returned instead of the bytes.
func (s *Service) Export(ctx context.Context, userID string, planID uuid.UUID, format string) (*Export, bool, error) {
	if format != FormatPDF && format != FormatCSV {
		return nil, false, ErrInvalidFormat
	}

	plan, found, err := s.storage.GetWeekPlan(ctx, planID)
	if err != nil || !found {
		return nil, found, err
	}

	groups, err := s.ListByCategory(ctx, planID)
	if err != nil {
		return nil, false, err
	}

	var data []byte
	contentType := "text/csv"
	if format == FormatPDF {
		contentType = "application/pdf"
		data, err = renderPDF(plan.WeekStartDate, groups)
	} else {
		data, err = renderCSV(groups)
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to render grocery export: %w", err)
	}

	export := &Export{
		Format:      format,
		ContentType: contentType,
		Filename:    fmt.Sprintf("grocery-%s.%s", plan.WeekStartDate, format),
	}

	if s.blobStore == nil {
		export.Data = data
		return export, true, nil
	}

	key := blob.ExportKey(userID, planID, "grocery", s.now(), format)
	err = s.blobStore.Put(ctx, blob.Object{
		Key:         key,
		Data:        data,
		ContentType: contentType,
		Filename:    export.Filename,
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to upload grocery export: %w", err)
	}
	url, err := s.blobStore.PresignGet(ctx, key, s.presignTTL)
	if err != nil {
		return nil, false, fmt.Errorf("failed to presign grocery export: %w", err)
	}
	export.URL = url
	export.ExpiresIn = int(s.presignTTL.Seconds())
	return export, true, nil
}
