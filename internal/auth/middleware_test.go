package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fdg312/preppair/internal/config"
	"github.com/fdg312/preppair/internal/logger"
	"github.com/fdg312/preppair/internal/storage"
	"github.com/fdg312/preppair/internal/storage/memory"
)

func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, _ := GetUserID(r.Context())
		w.Write([]byte(userID))
	})
}

func serve(h http.Handler, path string, mutate func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if mutate != nil {
		mutate(req)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestMiddlewareModeNoneInjectsHouseholdUser(t *testing.T) {
	cfg := &config.Config{AuthMode: config.AuthModeNone}
	h := NewMiddleware(cfg, NewService(cfg, memory.New()), logger.NewNop()).Handler(echoUser())

	w := serve(h, "/v1/recipes", nil)
	if w.Code != http.StatusOK || w.Body.String() != storage.DefaultUserID {
		t.Fatalf("expected household user, got %d %q", w.Code, w.Body.String())
	}
}

func TestMiddlewareRequireAuth(t *testing.T) {
	cfg := testConfig(true)
	service := NewService(cfg, memory.New())
	h := NewMiddleware(cfg, service, logger.NewNop()).Handler(echoUser())

	if w := serve(h, "/v1/recipes", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("no token: expected 401, got %d", w.Code)
	}
	if w := serve(h, "/healthz", nil); w.Code != http.StatusOK {
		t.Fatalf("public path: expected 200, got %d", w.Code)
	}
	if w := serve(h, "/v1/auth/pin", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("pin change is private: expected 401, got %d", w.Code)
	}

	token, _ := service.generateJWTWithTTL(storage.DefaultUserID, time.Hour)
	w := serve(h, "/v1/recipes", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) })
	if w.Code != http.StatusOK || w.Body.String() != storage.DefaultUserID {
		t.Fatalf("bearer: expected household user, got %d %q", w.Code, w.Body.String())
	}

	w = serve(h, "/v1/recipes", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: SessionCookie, Value: token}) })
	if w.Code != http.StatusOK {
		t.Fatalf("cookie: expected 200, got %d", w.Code)
	}

	w = serve(h, "/v1/recipes", func(r *http.Request) { r.Header.Set("Authorization", "Bearer garbage") })
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: expected 401, got %d", w.Code)
	}
}

func TestMiddlewareOptionalAuth(t *testing.T) {
	cfg := testConfig(false)
	service := NewService(cfg, memory.New())
	h := NewMiddleware(cfg, service, logger.NewNop()).Handler(echoUser())

	w := serve(h, "/v1/recipes", nil)
	if w.Code != http.StatusOK || w.Body.String() != storage.DefaultUserID {
		t.Fatalf("no token: expected household user, got %d %q", w.Code, w.Body.String())
	}

	w = serve(h, "/v1/recipes", func(r *http.Request) { r.Header.Set("Authorization", "Bearer garbage") })
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: expected 401, got %d", w.Code)
	}
}
