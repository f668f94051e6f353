package memory

import (
	"context"
	"sort"

	"github.com/fdg312/preppair/internal/storage"
	"github.com/google/uuid"
)

func (m *MemoryStorage) CreateBudgetEntry(ctx context.Context, userID string, input storage.BudgetEntryInput) (storage.BudgetEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ensureUserLocked(userID)
	entry := storage.BudgetEntry{
		ID:        uuid.New(),
		UserID:    userID,
		Amount:    input.Amount,
		Store:     cloneString(input.Store),
		Date:      input.Date,
		CreatedAt: m.nowFunc(),
	}
	m.budget[entry.ID] = entry
	return entry, nil
}

func inRange(date, from, to string) bool {
	if from != "" && date < from {
		return false
	}
	if to != "" && date > to {
		return false
	}
	return true
}

func (m *MemoryStorage) ListBudgetEntries(ctx context.Context, userID string, from, to string) ([]storage.BudgetEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := []storage.BudgetEntry{}
	for _, e := range m.budget {
		if e.UserID == userID && inRange(e.Date, from, to) {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Date != entries[j].Date {
			return entries[i].Date > entries[j].Date
		}
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	return entries, nil
}

func (m *MemoryStorage) DeleteBudgetEntry(ctx context.Context, userID string, entryID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.budget[entryID]
	if !ok || e.UserID != userID {
		return false, nil
	}
	delete(m.budget, entryID)
	return true, nil
}

func (m *MemoryStorage) SumBudgetEntries(ctx context.Context, userID string, from, to string) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var total float64
	for _, e := range m.budget {
		if e.UserID == userID && inRange(e.Date, from, to) {
			total += e.Amount
		}
	}
	return total, nil
}
