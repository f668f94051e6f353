package settings

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/fdg312/preppair/internal/logger"
	"github.com/fdg312/preppair/internal/userctx"
)

// Handler serves the household preferences used by planning and budgeting.
type Handler struct {
	service *Service
	logger  *logger.Logger
}

func NewHandler(service *Service, logger *logger.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// HandleGet handles GET /v1/settings
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	resp, err := h.service.GetOrDefault(r.Context(), userID)
	if err != nil {
		h.logger.Error("get settings failed", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to load settings")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandlePut handles PUT /v1/settings. Both fields are required.
func (h *Handler) HandlePut(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	updated, err := h.service.Update(r.Context(), userID, req)
	switch {
	case errors.Is(err, ErrValidation):
		writeError(w, http.StatusBadRequest, "invalid_request", strings.TrimPrefix(err.Error(), ErrValidation.Error()+": "))
		return
	case err != nil:
		h.logger.Error("update settings failed", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to save settings")
		return
	}

	h.logger.Info("settings updated", "user_id", userID, "weekly_budget", updated.WeeklyBudget, "default_servings", updated.DefaultServings)
	writeJSON(w, http.StatusOK, updated)
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := userctx.GetUserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return "", false
	}
	return userID, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}
