package memory

import (
	"context"
	"sync"
	"time"

	"github.com/fdg312/preppair/internal/storage"
	"github.com/google/uuid"
)

// MemoryStorage is the in-memory implementation of storage.Store.
// A single lock guards every table so multi-row operations are atomic.
type MemoryStorage struct {
	mu sync.RWMutex

	users       map[string]storage.User
	recipes     map[uuid.UUID]storage.Recipe
	plans       map[uuid.UUID]storage.WeekPlan
	planByWeek  map[string]uuid.UUID // "userID|weekStart" -> plan id
	slots       map[uuid.UUID]storage.MealSlot
	grocery     map[uuid.UUID]storage.GroceryItem
	budget      map[uuid.UUID]storage.BudgetEntry
	nowFunc     func() time.Time
	createdSeq  int64
	recipeOrder map[uuid.UUID]int64
}

var _ storage.Store = (*MemoryStorage)(nil)

// New creates a MemoryStorage with the default household user.
func New() *MemoryStorage {
	m := &MemoryStorage{
		users:       make(map[string]storage.User),
		recipes:     make(map[uuid.UUID]storage.Recipe),
		plans:       make(map[uuid.UUID]storage.WeekPlan),
		planByWeek:  make(map[string]uuid.UUID),
		slots:       make(map[uuid.UUID]storage.MealSlot),
		grocery:     make(map[uuid.UUID]storage.GroceryItem),
		budget:      make(map[uuid.UUID]storage.BudgetEntry),
		nowFunc:     func() time.Time { return time.Now().UTC() },
		recipeOrder: make(map[uuid.UUID]int64),
	}
	m.ensureUserLocked(storage.DefaultUserID)
	return m
}

func (m *MemoryStorage) Close() error {
	return nil
}

func (m *MemoryStorage) ensureUserLocked(userID string) storage.User {
	if u, ok := m.users[userID]; ok {
		return u
	}
	now := m.nowFunc()
	u := storage.User{
		ID:              userID,
		WeeklyBudget:    storage.DefaultWeeklyBudget,
		DefaultServings: storage.DefaultDefaultServings,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	m.users[userID] = u
	return u
}

func (m *MemoryStorage) GetUser(ctx context.Context, userID string) (storage.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[userID]
	if !ok {
		return storage.User{}, false, nil
	}
	if u.PinHash != nil {
		hash := *u.PinHash
		u.PinHash = &hash
	}
	return u, true, nil
}

func (m *MemoryStorage) SetPinHash(ctx context.Context, userID string, pinHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u := m.ensureUserLocked(userID)
	u.PinHash = &pinHash
	u.UpdatedAt = m.nowFunc()
	m.users[userID] = u
	return nil
}

func (m *MemoryStorage) UpdateUserSettings(ctx context.Context, userID string, weeklyBudget float64, defaultServings int) (storage.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u := m.ensureUserLocked(userID)
	u.WeeklyBudget = weeklyBudget
	u.DefaultServings = defaultServings
	u.UpdatedAt = m.nowFunc()
	m.users[userID] = u
	return u, nil
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

func cloneInt(i *int) *int {
	if i == nil {
		return nil
	}
	v := *i
	return &v
}

func cloneUUID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
