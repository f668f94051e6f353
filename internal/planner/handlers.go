package planner

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/fdg312/preppair/internal/logger"
	"github.com/fdg312/preppair/internal/storage"
	"github.com/fdg312/preppair/internal/userctx"
	"github.com/google/uuid"
)

// Handler serves week and slot routes. Routes under /v1/plans/{planID} run
// after the router has checked plan ownership.
type Handler struct {
	service *Service
	logger  *logger.Logger
}

func NewHandler(service *Service, logger *logger.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// HandleCurrentWeek handles GET /v1/weeks/current
func (h *Handler) HandleCurrentWeek(w http.ResponseWriter, r *http.Request) {
	userID, _ := userctx.GetUserID(r.Context())

	view, err := h.service.CurrentWeek(r.Context(), userID)
	if err != nil {
		h.logger.Error("current week failed", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to get current week")
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// HandleWeek handles GET /v1/weeks/{date}
func (h *Handler) HandleWeek(w http.ResponseWriter, r *http.Request) {
	userID, _ := userctx.GetUserID(r.Context())

	view, err := h.service.GetOrCreateWeek(r.Context(), userID, r.PathValue("date"))
	if err != nil {
		if h.writeValidation(w, err) {
			return
		}
		h.logger.Error("get week failed", "user_id", userID, "date", r.PathValue("date"), "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to get week plan")
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// HandleGetPlan handles GET /v1/plans/{planID}
func (h *Handler) HandleGetPlan(w http.ResponseWriter, r *http.Request) {
	planID, ok := pathUUID(w, r, "planID")
	if !ok {
		return
	}
	userID, _ := userctx.GetUserID(r.Context())

	view, found, err := h.service.GetPlan(r.Context(), userID, planID)
	if err != nil {
		h.logger.Error("get plan failed", "plan_id", planID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to get week plan")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "not_found", "Week plan not found")
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// HandleAssign handles PUT /v1/plans/{planID}/slots
func (h *Handler) HandleAssign(w http.ResponseWriter, r *http.Request) {
	planID, ok := pathUUID(w, r, "planID")
	if !ok {
		return
	}
	userID, _ := userctx.GetUserID(r.Context())

	var req AssignSlotRequest
	if !decodeBody(w, r, &req) {
		return
	}

	slot, err := h.service.Assign(r.Context(), userID, planID, req)
	if err != nil {
		if h.writeValidation(w, err) {
			return
		}
		if errors.Is(err, ErrRecipeNotFound) {
			writeError(w, http.StatusNotFound, "recipe_not_found", "Recipe not found")
			return
		}
		h.logger.Error("assign slot failed", "plan_id", planID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to assign recipe")
		return
	}

	writeJSON(w, http.StatusOK, slot)
}

// HandleRemove handles DELETE /v1/plans/{planID}/slots/{slotID}
func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	planID, slotID, ok := planAndSlot(w, r)
	if !ok {
		return
	}

	_, found, err := h.service.Remove(r.Context(), planID, slotID)
	if err != nil {
		h.logger.Error("remove slot failed", "plan_id", planID, "slot_id", slotID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to remove recipe from slot")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "not_found", "Slot not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleMove handles POST /v1/plans/{planID}/slots/{slotID}/move
func (h *Handler) HandleMove(w http.ResponseWriter, r *http.Request) {
	planID, slotID, ok := planAndSlot(w, r)
	if !ok {
		return
	}

	var req MoveSlotRequest
	if !decodeBody(w, r, &req) {
		return
	}

	resp, found, err := h.service.Move(r.Context(), planID, slotID, req)
	if err != nil {
		if h.writeValidation(w, err) {
			return
		}
		if errors.Is(err, storage.ErrConflict) {
			writeError(w, http.StatusConflict, "slot_conflict", "Target slot changed, retry the move")
			return
		}
		h.logger.Error("move slot failed", "plan_id", planID, "slot_id", slotID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to move slot")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "not_found", "Slot not found")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleSetStatus handles PATCH /v1/plans/{planID}/slots/{slotID}/status
func (h *Handler) HandleSetStatus(w http.ResponseWriter, r *http.Request) {
	planID, slotID, ok := planAndSlot(w, r)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}

	slot, found, err := h.service.SetStatus(r.Context(), planID, slotID, req)
	if err != nil {
		if h.writeValidation(w, err) {
			return
		}
		h.logger.Error("set slot status failed", "plan_id", planID, "slot_id", slotID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to update slot status")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "not_found", "Slot not found")
		return
	}

	writeJSON(w, http.StatusOK, slot)
}

// HandleCycleStatus handles POST /v1/plans/{planID}/slots/{slotID}/status/cycle
func (h *Handler) HandleCycleStatus(w http.ResponseWriter, r *http.Request) {
	planID, slotID, ok := planAndSlot(w, r)
	if !ok {
		return
	}

	slot, found, err := h.service.CycleStatus(r.Context(), planID, slotID)
	if err != nil {
		h.logger.Error("cycle slot status failed", "plan_id", planID, "slot_id", slotID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to update slot status")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "not_found", "Slot not found")
		return
	}

	writeJSON(w, http.StatusOK, slot)
}

// HandleSummary handles GET /v1/plans/{planID}/summary
func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	planID, ok := pathUUID(w, r, "planID")
	if !ok {
		return
	}
	userID, _ := userctx.GetUserID(r.Context())

	summary, found, err := h.service.Summary(r.Context(), userID, planID)
	if err != nil {
		h.logger.Error("week summary failed", "plan_id", planID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Failed to get week summary")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "not_found", "Week plan not found")
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) writeValidation(w http.ResponseWriter, err error) bool {
	if !errors.Is(err, ErrValidation) {
		return false
	}
	msg := strings.TrimPrefix(err.Error(), ErrValidation.Error()+": ")
	writeError(w, http.StatusBadRequest, "invalid_request", msg)
	return true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return false
	}
	return true
}

func planAndSlot(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	planID, ok := pathUUID(w, r, "planID")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	slotID, ok := pathUUID(w, r, "slotID")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	return planID, slotID, true
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
