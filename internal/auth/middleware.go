package auth

import (
	"net/http"
	"strings"

	"github.com/fdg312/preppair/internal/config"
	"github.com/fdg312/preppair/internal/logger"
	"github.com/fdg312/preppair/internal/storage"
)

// Middleware resolves the acting user for every request.
type Middleware struct {
	config  *config.Config
	service *Service
	logger  *logger.Logger
}

func NewMiddleware(cfg *config.Config, service *Service, logger *logger.Logger) *Middleware {
	return &Middleware{
		config:  cfg,
		service: service,
		logger:  logger,
	}
}

// Handler picks RequireAuth or OptionalAuth from the configuration. With
// AUTH_MODE=none every request acts as the household user.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	if m.config.AuthMode != config.AuthModePIN {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), storage.DefaultUserID)))
		})
	}
	if m.config.AuthRequired {
		return m.RequireAuth(next)
	}
	return m.OptionalAuth(next)
}

// RequireAuth rejects requests without a valid session token.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		userID, err := m.service.VerifyJWT(tokenFromRequest(r))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}

// OptionalAuth validates a token only when one is provided. Requests without
// a token act as the household user.
func (m *Middleware) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token := tokenFromRequest(r)
		if token == "" {
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), storage.DefaultUserID)))
			return
		}

		userID, err := m.service.VerifyJWT(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
			return
		}

		m.logger.Debug("auth token accepted", "sub", userID, "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}

// tokenFromRequest reads a Bearer token, falling back to the session cookie.
func tokenFromRequest(r *http.Request) string {
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			return ""
		}
		return strings.TrimSpace(parts[1])
	}

	if cookie, err := r.Cookie(SessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":{"code":"` + code + `","message":"` + message + `"}}`))
}

// isPublicPath lists routes reachable without a session. Changing the PIN
// is not one of them.
func isPublicPath(path string) bool {
	switch path {
	case "/healthz", "/v1/auth/status", "/v1/auth/setup", "/v1/auth/login", "/v1/auth/logout":
		return true
	}
	return false
}
