package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fdg312/preppair/internal/config"
	"github.com/fdg312/preppair/internal/logger"
	"github.com/fdg312/preppair/internal/storage"
	"github.com/fdg312/preppair/internal/storage/memory"
)

func testConfig(required bool) *config.Config {
	return &config.Config{
		AuthMode:      config.AuthModePIN,
		AuthRequired:  required,
		JWTSecret:     "test-secret-key-for-testing-only",
		JWTIssuer:     "preppair-test",
		JWTTTLMinutes: 60,
		PINMinLength:  4,
	}
}

func setupTestService(required bool) *Service {
	return NewService(testConfig(required), memory.New())
}

func newAuthMux(service *Service) *http.ServeMux {
	h := NewHandlers(service, logger.NewNop(), false)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/auth/status", h.HandleStatus)
	mux.HandleFunc("POST /v1/auth/setup", h.HandleSetup)
	mux.HandleFunc("POST /v1/auth/login", h.HandleLogin)
	mux.HandleFunc("POST /v1/auth/logout", h.HandleLogout)
	mux.HandleFunc("POST /v1/auth/pin", h.HandleChangePIN)
	return mux
}

func post(handler http.Handler, path, body string, mutate func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	if mutate != nil {
		mutate(req)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestSetupLoginAndChangePIN(t *testing.T) {
	service := setupTestService(true)
	mux := newAuthMux(service)
	handler := NewMiddleware(testConfig(true), service, logger.NewNop()).Handler(mux)

	w := post(handler, "/v1/auth/setup", `{"pin":"2468"}`, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("setup: expected 201, got %d. Body: %s", w.Code, w.Body.String())
	}
	var setup LoginResponse
	json.NewDecoder(w.Body).Decode(&setup)
	if setup.AccessToken == "" || setup.UserID != storage.DefaultUserID || setup.ExpiresIn != 3600 {
		t.Fatalf("unexpected setup response %+v", setup)
	}
	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != SessionCookie || !cookies[0].HttpOnly {
		t.Fatalf("expected session cookie, got %+v", cookies)
	}

	w = post(handler, "/v1/auth/setup", `{"pin":"1357"}`, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("second setup: expected 409, got %d", w.Code)
	}

	w = post(handler, "/v1/auth/login", `{"pin":"0000"}`, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong pin: expected 401, got %d", w.Code)
	}

	w = post(handler, "/v1/auth/login", `{"pin":"2468"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", w.Code)
	}
	var login LoginResponse
	json.NewDecoder(w.Body).Decode(&login)

	// Changing the PIN needs a session.
	w = post(handler, "/v1/auth/pin", `{"current_pin":"2468","new_pin":"97531"}`, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("change without session: expected 401, got %d", w.Code)
	}

	withCookie := func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: SessionCookie, Value: login.AccessToken})
	}
	w = post(handler, "/v1/auth/pin", `{"current_pin":"1111","new_pin":"97531"}`, withCookie)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("change with wrong current pin: expected 401, got %d", w.Code)
	}
	w = post(handler, "/v1/auth/pin", `{"current_pin":"2468","new_pin":"12ab"}`, withCookie)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("change to non-digit pin: expected 400, got %d", w.Code)
	}
	w = post(handler, "/v1/auth/pin", `{"current_pin":"2468","new_pin":"97531"}`, withCookie)
	if w.Code != http.StatusNoContent {
		t.Fatalf("change: expected 204, got %d. Body: %s", w.Code, w.Body.String())
	}

	if _, err := service.Login(context.Background(), "97531"); err != nil {
		t.Fatalf("login with new pin: %v", err)
	}
}

func TestSetupRejectsBadPIN(t *testing.T) {
	mux := newAuthMux(setupTestService(false))

	for _, body := range []string{`{"pin":"12"}`, `{"pin":"1234567890123"}`, `{"pin":"12a4"}`} {
		w := post(mux, "/v1/auth/setup", body, nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", body, w.Code)
		}
	}
}

func TestLoginBeforeSetup(t *testing.T) {
	mux := newAuthMux(setupTestService(false))

	w := post(mux, "/v1/auth/login", `{"pin":"1234"}`, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
}

func TestStatus(t *testing.T) {
	service := setupTestService(false)
	mux := newAuthMux(service)

	req := httptest.NewRequest(http.MethodGet, "/v1/auth/status", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	var status StatusResponse
	json.NewDecoder(w.Body).Decode(&status)
	if status.PINConfigured || status.Authenticated || status.AuthMode != config.AuthModePIN {
		t.Fatalf("unexpected status before setup %+v", status)
	}

	resp, err := service.SetupPIN(context.Background(), "4321")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/auth/status", nil)
	req.Header.Set("Authorization", "Bearer "+resp.AccessToken)
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	json.NewDecoder(w.Body).Decode(&status)
	if !status.PINConfigured || !status.Authenticated {
		t.Fatalf("unexpected status after setup %+v", status)
	}
}

func TestLogoutClearsCookie(t *testing.T) {
	mux := newAuthMux(setupTestService(false))

	w := post(mux, "/v1/auth/logout", "", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 {
		t.Fatalf("expected expired cookie, got %+v", cookies)
	}
}

func TestVerifyJWT(t *testing.T) {
	service := setupTestService(true)

	token, err := service.generateJWTWithTTL("default", time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	sub, err := service.VerifyJWT(token)
	if err != nil || sub != "default" {
		t.Fatalf("expected sub default, got %q err=%v", sub, err)
	}

	expired, _ := service.generateJWTWithTTL("default", -time.Minute)
	if _, err := service.VerifyJWT(expired); err != ErrInvalidToken {
		t.Errorf("expected expired token to be rejected, got %v", err)
	}

	other := NewService(&config.Config{JWTSecret: "another-secret", JWTIssuer: "preppair-test"}, memory.New())
	foreign, _ := other.generateJWTWithTTL("default", time.Hour)
	if _, err := service.VerifyJWT(foreign); err != ErrInvalidToken {
		t.Errorf("expected foreign signature to be rejected, got %v", err)
	}

	wrongIssuer := NewService(&config.Config{JWTSecret: "test-secret-key-for-testing-only", JWTIssuer: "someone-else"}, memory.New())
	tok, _ := wrongIssuer.generateJWTWithTTL("default", time.Hour)
	if _, err := service.VerifyJWT(tok); err != ErrInvalidToken {
		t.Errorf("expected wrong issuer to be rejected, got %v", err)
	}
}
