package grocery

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/fdg312/preppair/internal/blob"
	"github.com/fdg312/preppair/internal/storage"
	"github.com/fdg312/preppair/internal/storage/memory"
	"github.com/google/uuid"
)

type fakeBlobStore struct {
	keys []string
	data map[string][]byte
}

func (f *fakeBlobStore) Put(ctx context.Context, obj blob.Object) error {
	if f.data == nil {
		f.data = make(map[string][]byte)
	}
	f.keys = append(f.keys, obj.Key)
	f.data[obj.Key] = obj.Data
	return nil
}

func (f *fakeBlobStore) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "https://objects.example.test/" + key + "?sig=1", nil
}

// seedPlan creates a week with two planned meals sharing ingredients.
func seedPlan(t *testing.T, store *memory.MemoryStorage) storage.WeekPlan {
	t.Helper()
	ctx := context.Background()

	plan, err := store.GetOrCreateWeekPlan(ctx, storage.DefaultUserID, "2025-02-10")
	if err != nil {
		t.Fatalf("create plan: %v", err)
	}

	soup, err := store.CreateRecipe(ctx, storage.DefaultUserID, storage.RecipeInput{
		Title:        "Soup",
		Servings:     2,
		CookingStyle: storage.CookingStyleFresh,
		Steps:        []storage.RecipeStep{{Instruction: "boil"}},
		Ingredients: []storage.IngredientInput{
			{Name: "Onion", Quantity: floatPtr(1), Category: strPtr("Produce")},
			{Name: "Stock", Quantity: floatPtr(500), Unit: strPtr("ml")},
		},
	})
	if err != nil {
		t.Fatalf("create recipe: %v", err)
	}
	stew, err := store.CreateRecipe(ctx, storage.DefaultUserID, storage.RecipeInput{
		Title:        "Stew",
		Servings:     4,
		CookingStyle: storage.CookingStyleBatchPrep,
		Steps:        []storage.RecipeStep{{Instruction: "simmer"}},
		Ingredients: []storage.IngredientInput{
			{Name: "onion", Quantity: floatPtr(2), Category: strPtr("Vegetables")},
			{Name: "Beef", Quantity: floatPtr(600), Unit: strPtr("g"), Category: strPtr("Meat")},
		},
	})
	if err != nil {
		t.Fatalf("create recipe: %v", err)
	}

	if _, err := store.AssignSlot(ctx, plan.ID, 0, storage.MealTypeDinner, soup.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if _, err := store.AssignSlot(ctx, plan.ID, 2, storage.MealTypeLunch, stew.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}
	return plan
}

func TestGenerateAggregatesPlannedMeals(t *testing.T) {
	store := memory.New()
	plan := seedPlan(t, store)
	svc := NewService(store, nil, 900)

	items, err := svc.Generate(context.Background(), plan.ID)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	if len(items) != 3 {
		t.Fatalf("expected 3 lines, got %d: %+v", len(items), items)
	}
	onion := items[0]
	if onion.IngredientName != "Onion" || *onion.TotalQuantity != 3 || onion.Category != "Produce" {
		t.Fatalf("unexpected onion line: %+v", onion)
	}
	if items[1].IngredientName != "Stock" || items[2].IngredientName != "Beef" {
		t.Fatalf("unexpected order: %s, %s", items[1].IngredientName, items[2].IngredientName)
	}
	if items[1].Category != DefaultCategory || *items[1].Unit != "ml" {
		t.Fatalf("expected defaulted category and unit kept, got %+v", items[1])
	}
}

func TestGenerateTwiceReplacesList(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	plan := seedPlan(t, store)
	svc := NewService(store, nil, 900)

	first, _ := svc.Generate(ctx, plan.ID)
	if _, _, err := svc.Toggle(ctx, plan.ID, uuid.MustParse(first[0].ID)); err != nil {
		t.Fatalf("toggle failed: %v", err)
	}

	second, err := svc.Generate(ctx, plan.ID)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if len(second) != len(first) {
		t.Fatalf("expected same line count, got %d vs %d", len(second), len(first))
	}
	for i := range first {
		if first[i].IngredientName != second[i].IngredientName || *first[i].TotalQuantity != *second[i].TotalQuantity {
			t.Fatalf("line %d differs after regenerate", i)
		}
	}

	count, _ := svc.Count(ctx, plan.ID)
	if count.Total != 3 || count.Checked != 0 {
		t.Fatalf("expected fresh unchecked list, got %+v", count)
	}
}

func TestGenerateEmptyPlanClearsList(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	plan := seedPlan(t, store)
	svc := NewService(store, nil, 900)

	svc.Generate(ctx, plan.ID)

	slots, _ := store.ListSlots(ctx, plan.ID)
	for _, s := range slots {
		store.DeleteSlot(ctx, plan.ID, s.ID)
	}

	items, err := svc.Generate(ctx, plan.ID)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected empty list, got %d", len(items))
	}
	count, _ := svc.Count(ctx, plan.ID)
	if count.Total != 0 {
		t.Fatalf("expected total 0, got %d", count.Total)
	}
}

func TestListByCategorySortsGroups(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	plan := seedPlan(t, store)
	svc := NewService(store, nil, 900)

	svc.Generate(ctx, plan.ID)

	groups, err := svc.ListByCategory(ctx, plan.ID)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	want := []string{"Meat", "Other", "Produce"}
	if len(groups) != len(want) {
		t.Fatalf("expected %d groups, got %d", len(want), len(groups))
	}
	for i, c := range want {
		if groups[i].Category != c {
			t.Errorf("group %d: expected %s, got %s", i, c, groups[i].Category)
		}
	}
}

func TestToggleAndClearChecked(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	plan := seedPlan(t, store)
	svc := NewService(store, nil, 900)

	items, _ := svc.Generate(ctx, plan.ID)
	id := uuid.MustParse(items[1].ID)

	item, found, err := svc.Toggle(ctx, plan.ID, id)
	if err != nil || !found || !item.IsChecked {
		t.Fatalf("toggle on: %+v found=%v err=%v", item, found, err)
	}
	item, _, _ = svc.Toggle(ctx, plan.ID, id)
	if item.IsChecked {
		t.Fatal("second toggle must uncheck")
	}

	if _, found, _ := svc.Toggle(ctx, uuid.New(), id); found {
		t.Fatal("toggle through another plan must not find the item")
	}

	svc.Toggle(ctx, plan.ID, id)
	svc.Toggle(ctx, plan.ID, uuid.MustParse(items[2].ID))

	cleared, err := svc.ClearChecked(ctx, plan.ID)
	if err != nil || cleared != 2 {
		t.Fatalf("clear checked: %d err=%v", cleared, err)
	}
	count, _ := svc.Count(ctx, plan.ID)
	if count.Total != 3 || count.Checked != 0 {
		t.Fatalf("clear-checked must not delete, got %+v", count)
	}
}

func TestExportStreamsCSVInLocalMode(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	plan := seedPlan(t, store)
	svc := NewService(store, nil, 900)
	svc.Generate(ctx, plan.ID)

	export, found, err := svc.Export(ctx, storage.DefaultUserID, plan.ID, FormatCSV)
	if err != nil || !found {
		t.Fatalf("export: found=%v err=%v", found, err)
	}
	if export.URL != "" || export.Filename != "grocery-2025-02-10.csv" {
		t.Fatalf("unexpected export: %+v", export)
	}

	lines := strings.Split(strings.TrimSpace(string(export.Data)), "\n")
	if len(lines) != 4 || lines[0] != "category,item,quantity,unit,checked" {
		t.Fatalf("unexpected csv: %q", string(export.Data))
	}
	if lines[1] != "Meat,Beef,600,g,false" {
		t.Fatalf("unexpected first row: %q", lines[1])
	}
}

func TestExportUploadsToBlobStore(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	plan := seedPlan(t, store)
	blobs := &fakeBlobStore{}
	svc := NewService(store, blobs, 600)
	svc.Generate(ctx, plan.ID)

	export, _, err := svc.Export(ctx, storage.DefaultUserID, plan.ID, FormatPDF)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if len(blobs.keys) != 1 || !strings.HasPrefix(blobs.keys[0], "exports/default/"+plan.ID.String()+"/grocery-") {
		t.Fatalf("unexpected upload keys: %v", blobs.keys)
	}
	if !strings.HasPrefix(string(blobs.data[blobs.keys[0]]), "%PDF") {
		t.Fatal("expected a PDF document to be uploaded")
	}
	if export.URL == "" || export.ExpiresIn != 600 || export.Data != nil {
		t.Fatalf("unexpected export: %+v", export)
	}
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	svc := NewService(memory.New(), nil, 900)

	if _, _, err := svc.Export(context.Background(), storage.DefaultUserID, uuid.New(), "xlsx"); err != ErrInvalidFormat {
		t.Fatalf("expected ErrInvalidFormat, got %v", err)
	}
}
