package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/fdg312/preppair/internal/logger"
)

// SessionCookie holds the session token for browser clients.
const SessionCookie = "preppair_session"

type Handlers struct {
	service *Service
	logger  *logger.Logger
	secure  bool
}

// NewHandlers builds the /v1/auth handlers. secure marks the session cookie
// Secure, for deployments behind TLS.
func NewHandlers(service *Service, logger *logger.Logger, secure bool) *Handlers {
	return &Handlers{service: service, logger: logger, secure: secure}
}

// HandleStatus handles GET /v1/auth/status
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Status(r.Context())
	if err != nil {
		h.logger.Error("auth status failed", "error", err)
		writeErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to get auth status")
		return
	}

	if token := tokenFromRequest(r); token != "" {
		if _, err := h.service.VerifyJWT(token); err == nil {
			resp.Authenticated = true
		}
	}

	writeJSONResponse(w, http.StatusOK, resp)
}

// HandleSetup handles POST /v1/auth/setup
func (h *Handlers) HandleSetup(w http.ResponseWriter, r *http.Request) {
	var req PINRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	resp, err := h.service.SetupPIN(r.Context(), req.PIN)
	if err != nil {
		h.writeServiceError(w, "pin setup failed", err)
		return
	}

	h.logger.Info("household pin configured", "user_id", resp.UserID)
	h.setSessionCookie(w, resp.AccessToken, int(resp.ExpiresIn))
	writeJSONResponse(w, http.StatusCreated, resp)
}

// HandleLogin handles POST /v1/auth/login
func (h *Handlers) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req PINRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	resp, err := h.service.Login(r.Context(), req.PIN)
	if err != nil {
		h.writeServiceError(w, "login failed", err)
		return
	}

	h.setSessionCookie(w, resp.AccessToken, int(resp.ExpiresIn))
	writeJSONResponse(w, http.StatusOK, resp)
}

// HandleLogout handles POST /v1/auth/logout
func (h *Handlers) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.setSessionCookie(w, "", -1)
	w.WriteHeader(http.StatusNoContent)
}

// HandleChangePIN handles POST /v1/auth/pin
func (h *Handlers) HandleChangePIN(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		writeErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return
	}

	var req ChangePINRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	if err := h.service.ChangePIN(r.Context(), userID, req); err != nil {
		h.writeServiceError(w, "pin change failed", err)
		return
	}

	h.logger.Info("household pin changed", "user_id", userID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) writeServiceError(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, ErrPINFormat):
		writeErrorResponse(w, http.StatusBadRequest, "invalid_request", strings.TrimPrefix(err.Error(), ErrPINFormat.Error()+": "))
	case errors.Is(err, ErrInvalidPIN):
		writeErrorResponse(w, http.StatusUnauthorized, "invalid_pin", "PIN is incorrect")
	case errors.Is(err, ErrPINNotSet):
		writeErrorResponse(w, http.StatusConflict, "pin_not_set", "PIN has not been set up")
	case errors.Is(err, ErrPINAlreadySet):
		writeErrorResponse(w, http.StatusConflict, "pin_already_set", "PIN is already set")
	case errors.Is(err, ErrAuthNotEnabled):
		writeErrorResponse(w, http.StatusNotFound, "auth_disabled", "PIN authentication is not enabled")
	case errors.Is(err, ErrUserNotFound):
		writeErrorResponse(w, http.StatusNotFound, "not_found", "User not found")
	default:
		h.logger.Error(msg, "error", err)
		writeErrorResponse(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}

func (h *Handlers) setSessionCookie(w http.ResponseWriter, token string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func writeJSONResponse(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeErrorResponse(w http.ResponseWriter, status int, code, message string) {
	writeJSONResponse(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}
