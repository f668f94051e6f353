package recipes

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/fdg312/preppair/internal/logger"
	"github.com/fdg312/preppair/internal/storage"
	"github.com/fdg312/preppair/internal/userctx"
	"github.com/google/uuid"
)

type Handler struct {
	service *Service
	logger  *logger.Logger
}

func NewHandler(service *Service, logger *logger.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// HandleList handles GET /v1/recipes?category=&search=&favorites=true
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, _ := userctx.GetUserID(r.Context())

	q := r.URL.Query()
	filter := storage.RecipeFilter{
		Category: strings.TrimSpace(q.Get("category")),
		Search:   strings.TrimSpace(q.Get("search")),
	}
	if v := q.Get("favorites"); v != "" {
		favorites, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "favorites must be true or false")
			return
		}
		filter.FavoritesOnly = favorites
	}

	recipes, err := h.service.List(r.Context(), userID, filter)
	if err != nil {
		h.logger.Error("list recipes failed", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to list recipes")
		return
	}

	writeJSON(w, http.StatusOK, ListResponse{Recipes: recipes})
}

// HandleCategories handles GET /v1/recipes/categories
func (h *Handler) HandleCategories(w http.ResponseWriter, r *http.Request) {
	userID, _ := userctx.GetUserID(r.Context())

	categories, err := h.service.Categories(r.Context(), userID)
	if err != nil {
		h.logger.Error("list categories failed", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to list categories")
		return
	}

	writeJSON(w, http.StatusOK, CategoriesResponse{Categories: categories})
}

// HandleGet handles GET /v1/recipes/{id}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	recipeID, ok := pathID(w, r)
	if !ok {
		return
	}
	userID, _ := userctx.GetUserID(r.Context())

	recipe, found, err := h.service.Get(r.Context(), userID, recipeID)
	if err != nil {
		h.logger.Error("get recipe failed", "recipe_id", recipeID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to get recipe")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "not_found", "Recipe not found")
		return
	}

	writeJSON(w, http.StatusOK, recipe)
}

// HandleCreate handles POST /v1/recipes
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, _ := userctx.GetUserID(r.Context())

	var req RecipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	recipe, err := h.service.Create(r.Context(), userID, req)
	if err != nil {
		if writeValidation(w, err) {
			return
		}
		h.logger.Error("create recipe failed", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to create recipe")
		return
	}

	h.logger.Info("recipe created", "recipe_id", recipe.ID, "ingredients", len(recipe.Ingredients))
	writeJSON(w, http.StatusCreated, recipe)
}

// HandleUpdate handles PUT /v1/recipes/{id}
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	recipeID, ok := pathID(w, r)
	if !ok {
		return
	}
	userID, _ := userctx.GetUserID(r.Context())

	var req RecipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	recipe, found, err := h.service.Update(r.Context(), userID, recipeID, req)
	if err != nil {
		if writeValidation(w, err) {
			return
		}
		h.logger.Error("update recipe failed", "recipe_id", recipeID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to update recipe")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "not_found", "Recipe not found")
		return
	}

	writeJSON(w, http.StatusOK, recipe)
}

// HandleDelete handles DELETE /v1/recipes/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	recipeID, ok := pathID(w, r)
	if !ok {
		return
	}
	userID, _ := userctx.GetUserID(r.Context())

	found, err := h.service.Delete(r.Context(), userID, recipeID)
	if err != nil {
		h.logger.Error("delete recipe failed", "recipe_id", recipeID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to delete recipe")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "not_found", "Recipe not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleToggleFavorite handles POST /v1/recipes/{id}/favorite
func (h *Handler) HandleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	recipeID, ok := pathID(w, r)
	if !ok {
		return
	}
	userID, _ := userctx.GetUserID(r.Context())

	recipe, found, err := h.service.ToggleFavorite(r.Context(), userID, recipeID)
	if err != nil {
		h.logger.Error("toggle favorite failed", "recipe_id", recipeID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to toggle favorite")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "not_found", "Recipe not found")
		return
	}

	writeJSON(w, http.StatusOK, recipe)
}

func writeValidation(w http.ResponseWriter, err error) bool {
	if !errors.Is(err, ErrValidation) {
		return false
	}
	msg := strings.TrimPrefix(err.Error(), ErrValidation.Error()+": ")
	writeError(w, http.StatusBadRequest, "invalid_request", msg)
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
