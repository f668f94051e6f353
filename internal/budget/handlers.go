package budget

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/fdg312/preppair/internal/logger"
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

// HandleCreateEntry handles POST /v1/budget/entries
func (h *Handler) HandleCreateEntry(w http.ResponseWriter, r *http.Request) {
	userID, _ := userctx.GetUserID(r.Context())

	var req CreateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	entry, err := h.service.CreateEntry(r.Context(), userID, req)
	if err != nil {
		if writeValidation(w, err) {
			return
		}
		h.logger.Error("create budget entry failed", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to create budget entry")
		return
	}

	writeJSON(w, http.StatusCreated, entry)
}

// HandleListEntries handles GET /v1/budget/entries?from=&to=
func (h *Handler) HandleListEntries(w http.ResponseWriter, r *http.Request) {
	userID, _ := userctx.GetUserID(r.Context())
	q := r.URL.Query()

	resp, err := h.service.ListEntries(r.Context(), userID, strings.TrimSpace(q.Get("from")), strings.TrimSpace(q.Get("to")))
	if err != nil {
		if writeValidation(w, err) {
			return
		}
		h.logger.Error("list budget entries failed", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to list budget entries")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleDeleteEntry handles DELETE /v1/budget/entries/{id}
func (h *Handler) HandleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	userID, _ := userctx.GetUserID(r.Context())

	entryID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "id must be a valid UUID")
		return
	}

	found, err := h.service.DeleteEntry(r.Context(), userID, entryID)
	if err != nil {
		h.logger.Error("delete budget entry failed", "entry_id", entryID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to delete budget entry")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "not_found", "Budget entry not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleWeek handles GET /v1/budget/week?date=
func (h *Handler) HandleWeek(w http.ResponseWriter, r *http.Request) {
	userID, _ := userctx.GetUserID(r.Context())

	status, err := h.service.WeekStatus(r.Context(), userID, strings.TrimSpace(r.URL.Query().Get("date")))
	if err != nil {
		if writeValidation(w, err) {
			return
		}
		h.logger.Error("budget week status failed", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to get weekly budget")
		return
	}

	writeJSON(w, http.StatusOK, status)
}

// HandleTrend handles GET /v1/budget/trend?weeks=N
func (h *Handler) HandleTrend(w http.ResponseWriter, r *http.Request) {
	userID, _ := userctx.GetUserID(r.Context())

	weeks := DefaultTrendWeeks
	if v := strings.TrimSpace(r.URL.Query().Get("weeks")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "weeks must be an integer")
			return
		}
		weeks = n
	}

	trend, err := h.service.Trend(r.Context(), userID, weeks)
	if err != nil {
		if writeValidation(w, err) {
			return
		}
		h.logger.Error("budget trend failed", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to get spending trend")
		return
	}

	writeJSON(w, http.StatusOK, trend)
}

func writeValidation(w http.ResponseWriter, err error) bool {
	if !errors.Is(err, ErrValidation) {
		return false
	}
	writeError(w, http.StatusBadRequest, "invalid_request", strings.TrimPrefix(err.Error(), ErrValidation.Error()+": "))
	return true
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
