package recipes

import (
	"strings"
	"testing"

	"github.com/fdg312/preppair/internal/storage"
)

func validRequest() RecipeRequest {
	return RecipeRequest{
		Title:       "Lentil soup",
		Ingredients: []IngredientRequest{{Name: "Lentils"}},
		Steps:       []StepRequest{{Instruction: "Simmer"}},
	}
}

func TestRecipeRequestValidate(t *testing.T) {
	neg := -1
	zero := 0
	negCost := -0.5
	zeroQty := 0.0
	badURL := "not a url"
	ftpURL := "ftp://example.com/x"

	cases := []struct {
		name   string
		mutate func(r *RecipeRequest)
		want   string
	}{
		{"empty title", func(r *RecipeRequest) { r.Title = "  " }, "title is required"},
		{"long title", func(r *RecipeRequest) { r.Title = strings.Repeat("a", 501) }, "title must be at most"},
		{"bad url", func(r *RecipeRequest) { r.SourceURL = &badURL }, "source_url"},
		{"ftp url", func(r *RecipeRequest) { r.SourceURL = &ftpURL }, "source_url"},
		{"negative prep", func(r *RecipeRequest) { r.PrepTime = &neg }, "prep_time"},
		{"zero servings", func(r *RecipeRequest) { r.Servings = &zero }, "servings"},
		{"bad style", func(r *RecipeRequest) { r.CookingStyle = "slow" }, "cooking_style"},
		{"negative cost", func(r *RecipeRequest) { r.EstimatedCost = &negCost }, "estimated_cost"},
		{"no ingredients", func(r *RecipeRequest) { r.Ingredients = nil }, "at least one ingredient"},
		{"unnamed ingredient", func(r *RecipeRequest) { r.Ingredients[0].Name = "" }, "ingredients[0].name"},
		{"zero quantity", func(r *RecipeRequest) { r.Ingredients[0].Quantity = &zeroQty }, "ingredients[0].quantity"},
		{"no steps", func(r *RecipeRequest) { r.Steps = nil }, "at least one step"},
		{"empty step", func(r *RecipeRequest) { r.Steps[0].Instruction = " " }, "steps[0].instruction"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest()
			tc.mutate(&req)
			err := req.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("expected error containing %q, got %q", tc.want, err.Error())
			}
		})
	}

	req := validRequest()
	if err := req.Validate(); err != nil {
		t.Fatalf("expected valid request, got %v", err)
	}
}

func TestToInputDefaults(t *testing.T) {
	empty := ""
	req := validRequest()
	req.SourceURL = &empty

	input := req.toInput(3)

	if input.Servings != 3 {
		t.Errorf("expected default servings 3, got %d", input.Servings)
	}
	if input.CookingStyle != storage.CookingStyleFresh {
		t.Errorf("expected fresh, got %s", input.CookingStyle)
	}
	if input.SourceURL != nil {
		t.Errorf("expected empty source url to become nil")
	}
	if input.Tags == nil || len(input.Tags) != 0 {
		t.Errorf("expected empty tags, got %v", input.Tags)
	}

	servings := 6
	req.Servings = &servings
	req.CookingStyle = storage.CookingStyleBatchPrep
	input = req.toInput(3)
	if input.Servings != 6 || input.CookingStyle != storage.CookingStyleBatchPrep {
		t.Errorf("explicit values must win, got %+v", input)
	}
}
