package recipes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fdg312/preppair/internal/logger"
	"github.com/fdg312/preppair/internal/storage"
	"github.com/fdg312/preppair/internal/storage/memory"
	"github.com/fdg312/preppair/internal/userctx"
)

func newTestMux(store *memory.MemoryStorage) *http.ServeMux {
	h := NewHandler(NewService(store), logger.NewNop())
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/recipes", h.HandleList)
	mux.HandleFunc("POST /v1/recipes", h.HandleCreate)
	mux.HandleFunc("GET /v1/recipes/categories", h.HandleCategories)
	mux.HandleFunc("GET /v1/recipes/{id}", h.HandleGet)
	mux.HandleFunc("PUT /v1/recipes/{id}", h.HandleUpdate)
	mux.HandleFunc("DELETE /v1/recipes/{id}", h.HandleDelete)
	mux.HandleFunc("POST /v1/recipes/{id}/favorite", h.HandleToggleFavorite)
	return mux
}

func doRequest(mux http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req = req.WithContext(userctx.WithUserID(context.Background(), storage.DefaultUserID))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

const soupBody = `{
	"title": "Tomato soup",
	"category": "Soups",
	"estimated_cost": 6.5,
	"ingredients": [
		{"name": "Tomatoes", "quantity": 800, "unit": "g", "category": "Produce"},
		{"name": "Basil"}
	],
	"steps": [{"instruction": "Blend", "timer_seconds": 60}]
}`

func createSoup(t *testing.T, mux http.Handler) RecipeDTO {
	t.Helper()
	rr := doRequest(mux, http.MethodPost, "/v1/recipes", soupBody)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var recipe RecipeDTO
	if err := json.NewDecoder(rr.Body).Decode(&recipe); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return recipe
}

func TestRecipeCRUD(t *testing.T) {
	mux := newTestMux(memory.New())

	recipe := createSoup(t, mux)
	if recipe.Servings != storage.DefaultDefaultServings || recipe.CookingStyle != storage.CookingStyleFresh {
		t.Errorf("expected defaults, got servings=%d style=%s", recipe.Servings, recipe.CookingStyle)
	}
	if len(recipe.Ingredients) != 2 || recipe.Ingredients[0].Name != "Tomatoes" || recipe.Ingredients[1].SortOrder != 1 {
		t.Fatalf("unexpected ingredients %+v", recipe.Ingredients)
	}

	rr := doRequest(mux, http.MethodGet, "/v1/recipes/"+recipe.ID, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", rr.Code)
	}

	update := `{"title":"Roast tomato soup","servings":4,"cooking_style":"batch_prep",
		"ingredients":[{"name":"Tomatoes","quantity":1,"unit":"kg"}],
		"steps":[{"instruction":"Roast"},{"instruction":"Blend"}]}`
	rr = doRequest(mux, http.MethodPut, "/v1/recipes/"+recipe.ID, update)
	if rr.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var updated RecipeDTO
	json.NewDecoder(rr.Body).Decode(&updated)
	if updated.Title != "Roast tomato soup" || updated.Servings != 4 || len(updated.Ingredients) != 1 || len(updated.Steps) != 2 {
		t.Fatalf("unexpected updated recipe %+v", updated)
	}
	if updated.Category != nil {
		t.Errorf("update replaces every field, expected category cleared, got %v", *updated.Category)
	}

	rr = doRequest(mux, http.MethodPost, "/v1/recipes/"+recipe.ID+"/favorite", "")
	var fav RecipeDTO
	json.NewDecoder(rr.Body).Decode(&fav)
	if !fav.IsFavorite {
		t.Fatal("expected recipe to be a favorite")
	}

	rr = doRequest(mux, http.MethodDelete, "/v1/recipes/"+recipe.ID, "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", rr.Code)
	}
	rr = doRequest(mux, http.MethodGet, "/v1/recipes/"+recipe.ID, "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("get after delete: expected 404, got %d", rr.Code)
	}
}

func TestRecipeListFiltersAndCategories(t *testing.T) {
	mux := newTestMux(memory.New())

	soup := createSoup(t, mux)
	rr := doRequest(mux, http.MethodPost, "/v1/recipes",
		`{"title":"Pancakes","category":"Breakfast","ingredients":[{"name":"Flour"}],"steps":[{"instruction":"Fry"}]}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", rr.Code)
	}
	doRequest(mux, http.MethodPost, "/v1/recipes/"+soup.ID+"/favorite", "")

	list := func(query string) []RecipeDTO {
		rr := doRequest(mux, http.MethodGet, "/v1/recipes"+query, "")
		if rr.Code != http.StatusOK {
			t.Fatalf("list %q: expected 200, got %d", query, rr.Code)
		}
		var resp ListResponse
		json.NewDecoder(rr.Body).Decode(&resp)
		return resp.Recipes
	}

	if got := list(""); len(got) != 2 {
		t.Fatalf("expected 2 recipes, got %d", len(got))
	}
	if got := list("?search=PANCAKE"); len(got) != 1 || got[0].Title != "Pancakes" {
		t.Fatalf("search: unexpected %+v", got)
	}
	if got := list("?category=Soups"); len(got) != 1 {
		t.Fatalf("category: expected 1, got %d", len(got))
	}
	if got := list("?favorites=true"); len(got) != 1 || got[0].ID != soup.ID {
		t.Fatalf("favorites: unexpected %+v", got)
	}

	rr = doRequest(mux, http.MethodGet, "/v1/recipes?favorites=maybe", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad favorites flag, got %d", rr.Code)
	}

	rr = doRequest(mux, http.MethodGet, "/v1/recipes/categories", "")
	var cats CategoriesResponse
	json.NewDecoder(rr.Body).Decode(&cats)
	if len(cats.Categories) != 2 || cats.Categories[0] != "Breakfast" || cats.Categories[1] != "Soups" {
		t.Fatalf("unexpected categories %v", cats.Categories)
	}
}

func TestRecipeCreateValidation(t *testing.T) {
	mux := newTestMux(memory.New())

	rr := doRequest(mux, http.MethodPost, "/v1/recipes", `{"title":"Toast","ingredients":[],"steps":[{"instruction":"Toast"}]}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	json.NewDecoder(rr.Body).Decode(&body)
	if body.Error.Code != "invalid_request" || body.Error.Message != "at least one ingredient is required" {
		t.Fatalf("unexpected error %+v", body.Error)
	}

	rr = doRequest(mux, http.MethodPost, "/v1/recipes", `not json`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", rr.Code)
	}

	rr = doRequest(mux, http.MethodPut, "/v1/recipes/00000000-0000-0000-0000-000000000001", soupBody)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 updating unknown recipe, got %d", rr.Code)
	}
}
