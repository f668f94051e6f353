package grocery

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/fdg312/preppair/internal/logger"
	"github.com/fdg312/preppair/internal/userctx"
	"github.com/google/uuid"
)

// Handler serves the /v1/plans/{planID}/grocery routes. Plan ownership is
// checked by the router before these run.
type Handler struct {
	service *Service
	logger  *logger.Logger
}

func NewHandler(service *Service, logger *logger.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// HandleGenerate handles POST /v1/plans/{planID}/grocery/generate
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	planID, ok := pathUUID(w, r, "planID")
	if !ok {
		return
	}

	items, err := h.service.Generate(r.Context(), planID)
	if err != nil {
		h.logger.Error("grocery generate failed", "plan_id", planID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to generate grocery list")
		return
	}

	h.logger.Info("grocery list generated", "plan_id", planID, "items", len(items))
	writeJSON(w, http.StatusOK, GenerateResponse{PlanID: planID.String(), Items: items})
}

// HandleList handles GET /v1/plans/{planID}/grocery
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	planID, ok := pathUUID(w, r, "planID")
	if !ok {
		return
	}

	groups, err := h.service.ListByCategory(r.Context(), planID)
	if err != nil {
		h.logger.Error("grocery list failed", "plan_id", planID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to get grocery list")
		return
	}

	writeJSON(w, http.StatusOK, ListResponse{PlanID: planID.String(), Categories: groups})
}

// HandleToggle handles POST /v1/plans/{planID}/grocery/items/{itemID}/toggle
func (h *Handler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	planID, ok := pathUUID(w, r, "planID")
	if !ok {
		return
	}
	itemID, ok := pathUUID(w, r, "itemID")
	if !ok {
		return
	}

	item, found, err := h.service.Toggle(r.Context(), planID, itemID)
	if err != nil {
		h.logger.Error("grocery toggle failed", "plan_id", planID, "item_id", itemID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to toggle grocery item")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "not_found", "Grocery item not found")
		return
	}

	writeJSON(w, http.StatusOK, item)
}

// HandleClearChecked handles POST /v1/plans/{planID}/grocery/clear-checked
func (h *Handler) HandleClearChecked(w http.ResponseWriter, r *http.Request) {
	planID, ok := pathUUID(w, r, "planID")
	if !ok {
		return
	}

	cleared, err := h.service.ClearChecked(r.Context(), planID)
	if err != nil {
		h.logger.Error("grocery clear-checked failed", "plan_id", planID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to clear checked items")
		return
	}

	writeJSON(w, http.StatusOK, ClearCheckedResponse{Cleared: cleared})
}

// HandleCount handles GET /v1/plans/{planID}/grocery/count
func (h *Handler) HandleCount(w http.ResponseWriter, r *http.Request) {
	planID, ok := pathUUID(w, r, "planID")
	if !ok {
		return
	}

	count, err := h.service.Count(r.Context(), planID)
	if err != nil {
		h.logger.Error("grocery count failed", "plan_id", planID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to count grocery items")
		return
	}

	writeJSON(w, http.StatusOK, count)
}

// HandleExport handles GET /v1/plans/{planID}/grocery/export?format=pdf|csv
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	planID, ok := pathUUID(w, r, "planID")
	if !ok {
		return
	}
	userID, _ := userctx.GetUserID(r.Context())

	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format == "" {
		format = FormatPDF
	}

	export, found, err := h.service.Export(r.Context(), userID, planID, format)
	if err != nil {
		if errors.Is(err, ErrInvalidFormat) {
			writeError(w, http.StatusBadRequest, "invalid_format", "Format must be 'pdf' or 'csv'")
			return
		}
		h.logger.Error("grocery export failed", "plan_id", planID, "format", format, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to export grocery list")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "not_found", "Week plan not found")
		return
	}

	if export.URL != "" {
		writeJSON(w, http.StatusOK, ExportLinkResponse{Format: export.Format, URL: export.URL, ExpiresIn: export.ExpiresIn})
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
	w.WriteHeader(http.StatusOK)
	w.Write(export.Data)
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", fmt.Sprintf("%s must be a valid UUID", name))
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
