package budget

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fdg312/preppair/internal/logger"
	"github.com/fdg312/preppair/internal/storage"
	"github.com/fdg312/preppair/internal/storage/memory"
	"github.com/fdg312/preppair/internal/userctx"
)

func newTestMux(store *memory.MemoryStorage) *http.ServeMux {
	h := NewHandler(newTestService(store), logger.NewNop())
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/budget/entries", h.HandleCreateEntry)
	mux.HandleFunc("GET /v1/budget/entries", h.HandleListEntries)
	mux.HandleFunc("DELETE /v1/budget/entries/{id}", h.HandleDeleteEntry)
	mux.HandleFunc("GET /v1/budget/week", h.HandleWeek)
	mux.HandleFunc("GET /v1/budget/trend", h.HandleTrend)
	return mux
}

func doRequest(mux http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req = req.WithContext(userctx.WithUserID(context.Background(), storage.DefaultUserID))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func TestBudgetEntryHandlers(t *testing.T) {
	mux := newTestMux(memory.New())

	rr := doRequest(mux, http.MethodPost, "/v1/budget/entries", `{"amount":42.5,"store":"Market","date":"2025-02-11"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var created EntryDTO
	json.NewDecoder(rr.Body).Decode(&created)

	doRequest(mux, http.MethodPost, "/v1/budget/entries", `{"amount":10,"date":"2025-01-05"}`)

	rr = doRequest(mux, http.MethodGet, "/v1/budget/entries", "")
	var all EntriesResponse
	json.NewDecoder(rr.Body).Decode(&all)
	if len(all.Entries) != 2 || all.Entries[0].ID != created.ID || all.Total != 52.5 {
		t.Fatalf("unexpected entries %+v", all)
	}

	rr = doRequest(mux, http.MethodGet, "/v1/budget/entries?from=2025-02-01&to=2025-02-28", "")
	var feb EntriesResponse
	json.NewDecoder(rr.Body).Decode(&feb)
	if len(feb.Entries) != 1 || feb.Total != 42.5 {
		t.Fatalf("unexpected february entries %+v", feb)
	}

	rr = doRequest(mux, http.MethodGet, "/v1/budget/entries?from=2025-03-01&to=2025-02-01", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for inverted range, got %d", rr.Code)
	}

	rr = doRequest(mux, http.MethodPost, "/v1/budget/entries", `{"amount":-1,"date":"2025-02-11"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative amount, got %d", rr.Code)
	}

	rr = doRequest(mux, http.MethodDelete, "/v1/budget/entries/"+created.ID, "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", rr.Code)
	}
	rr = doRequest(mux, http.MethodDelete, "/v1/budget/entries/"+created.ID, "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("second delete: expected 404, got %d", rr.Code)
	}
}

func TestBudgetWeekAndTrendHandlers(t *testing.T) {
	mux := newTestMux(memory.New())
	doRequest(mux, http.MethodPost, "/v1/budget/entries", `{"amount":30,"date":"2025-02-12"}`)

	rr := doRequest(mux, http.MethodGet, "/v1/budget/week?date=2025-02-16", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("week: expected 200, got %d", rr.Code)
	}
	var week WeekStatus
	json.NewDecoder(rr.Body).Decode(&week)
	if week.WeekStart != "2025-02-10" || week.Spent != 30 || week.Budget != storage.DefaultWeeklyBudget {
		t.Fatalf("unexpected week %+v", week)
	}

	rr = doRequest(mux, http.MethodGet, "/v1/budget/trend", "")
	var trend TrendResponse
	json.NewDecoder(rr.Body).Decode(&trend)
	if len(trend.Weeks) != DefaultTrendWeeks || trend.Weeks[3].Total != 30 {
		t.Fatalf("unexpected trend %+v", trend)
	}

	rr = doRequest(mux, http.MethodGet, "/v1/budget/trend?weeks=abc", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	rr = doRequest(mux, http.MethodGet, "/v1/budget/trend?weeks=27", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}
