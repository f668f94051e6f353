package httpserver

import (
	"context"
	"net/http"

	"github.com/fdg312/preppair/internal/auth"
	"github.com/fdg312/preppair/internal/logger"
	"github.com/fdg312/preppair/internal/storage"
	"github.com/google/uuid"
)

// planOwned reports whether the plan exists and belongs to the current user.
func planOwned(ctx context.Context, plans storage.PlansStorage, planID uuid.UUID) (bool, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return false, nil
	}

	plan, found, err := plans.GetWeekPlan(ctx, planID)
	if err != nil {
		return false, err
	}

	return found && plan.UserID == userID, nil
}

// requirePlan wraps handlers under /v1/plans/{planID}. A plan of another
// user answers 404 so its existence is not revealed.
func requirePlan(plans storage.PlansStorage, log *logger.Logger, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		planID, err := uuid.Parse(r.PathValue("planID"))
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":{"code":"invalid_request","message":"planID must be a valid UUID"}}`))
			return
		}

		owned, err := planOwned(r.Context(), plans, planID)
		if err != nil {
			log.Error("plan ownership check failed", "plan_id", planID, "error", err)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":{"code":"internal_error","message":"Internal server error"}}`))
			return
		}
		if !owned {
			writeOwnershipError(w)
			return
		}

		next(w, r)
	}
}

// writeOwnershipError writes a 404 response for ownership violations.
func writeOwnershipError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(`{"error":{"code":"not_found","message":"Week plan not found"}}`))
}
