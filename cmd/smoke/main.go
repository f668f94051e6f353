package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

const defaultAPIBase = "http://localhost:8080"

var (
	apiBase  string
	token    string
	client   = &http.Client{Timeout: 30 * time.Second}
	recipeID string
	planID   string
	slotID   string
	entryID  string
)

func main() {
	fmt.Println("=== PrepPair E2E Smoke Test ===")
	fmt.Println()

	apiBase = strings.TrimRight(getEnv("API_BASE_URL", defaultAPIBase), "/")
	token = getEnv("SMOKE_TOKEN", "")

	fmt.Printf("API Base: %s\n", apiBase)
	fmt.Printf("Token: %s\n", maskString(token))
	fmt.Println()

	steps := []struct {
		name string
		fn   func() error
	}{
		{"Healthz", testHealthz},
		{"Login (SMOKE_PIN)", testLogin},
		{"Create Recipe", testCreateRecipe},
		{"Current Week", testCurrentWeek},
		{"Assign Slot", testAssignSlot},
		{"Cycle Status", testCycleStatus},
		{"Week Summary", testSummary},
		{"Generate Grocery List", testGenerateGrocery},
		{"Export Grocery CSV", testExportGrocery},
		{"Add Budget Entry", testCreateBudgetEntry},
		{"Budget Week", testBudgetWeek},
		{"Remove Slot", testRemoveSlot},
		{"Delete Budget Entry", testDeleteBudgetEntry},
		{"Delete Recipe", testDeleteRecipe},
	}

	for i, step := range steps {
		fmt.Printf("[%d/%d] %s... ", i+1, len(steps), step.name)
		if err := step.fn(); err != nil {
			fmt.Printf("FAILED\n")
			fmt.Printf("  Error: %v\n\n", err)
			fmt.Println("SMOKE TEST FAILED")
			os.Exit(1)
		}
		fmt.Printf("OK\n")
	}

	fmt.Println()
	fmt.Println("ALL SMOKE TESTS PASSED")
}

func testHealthz() error {
	var resp map[string]string
	if err := doJSON(http.MethodGet, "/healthz", nil, http.StatusOK, &resp); err != nil {
		return err
	}
	if resp["status"] != "ok" {
		return fmt.Errorf("unexpected status %q", resp["status"])
	}
	fmt.Printf("(storage=%s) ", resp["storage"])
	return nil
}

func testLogin() error {
	pin := getEnv("SMOKE_PIN", "")
	if pin == "" || token != "" {
		fmt.Print("(skipped) ")
		return nil
	}

	var resp struct {
		AccessToken string `json:"access_token"`
	}
	if err := doJSON(http.MethodPost, "/v1/auth/login", map[string]string{"pin": pin}, http.StatusOK, &resp); err != nil {
		return err
	}
	token = resp.AccessToken
	return nil
}

func testCreateRecipe() error {
	body := map[string]any{
		"title":          fmt.Sprintf("Smoke chili %d", time.Now().Unix()),
		"category":       "Dinner",
		"estimated_cost": 18.5,
		"ingredients": []map[string]any{
			{"name": "Black beans", "quantity": 2, "unit": "can", "category": "Pantry"},
			{"name": "Onion", "quantity": 1, "category": "Produce"},
		},
		"steps": []map[string]any{
			{"instruction": "Saute the onion."},
			{"instruction": "Add beans and simmer.", "timer_seconds": 900},
		},
	}

	var resp struct {
		ID string `json:"id"`
	}
	if err := doJSON(http.MethodPost, "/v1/recipes", body, http.StatusCreated, &resp); err != nil {
		return err
	}
	if resp.ID == "" {
		return fmt.Errorf("recipe id missing")
	}
	recipeID = resp.ID
	return nil
}

func testCurrentWeek() error {
	var resp struct {
		Plan struct {
			ID string `json:"id"`
		} `json:"plan"`
		RangeLabel string `json:"range_label"`
	}
	if err := doJSON(http.MethodGet, "/v1/weeks/current", nil, http.StatusOK, &resp); err != nil {
		return err
	}
	planID = resp.Plan.ID
	fmt.Printf("(%s) ", resp.RangeLabel)
	return nil
}

func testAssignSlot() error {
	body := map[string]any{"recipe_id": recipeID, "day_of_week": 2, "meal_type": "dinner"}
	var resp struct {
		ID string `json:"id"`
	}
	if err := doJSON(http.MethodPut, "/v1/plans/"+planID+"/slots", body, http.StatusOK, &resp); err != nil {
		return err
	}
	slotID = resp.ID
	return nil
}

func testCycleStatus() error {
	var resp struct {
		Status string `json:"status"`
	}
	path := "/v1/plans/" + planID + "/slots/" + slotID + "/status/cycle"
	if err := doJSON(http.MethodPost, path, nil, http.StatusOK, &resp); err != nil {
		return err
	}
	if resp.Status != "cooked" {
		return fmt.Errorf("expected cooked after one cycle, got %q", resp.Status)
	}
	return nil
}

func testSummary() error {
	var resp struct {
		Planned         int `json:"planned"`
		CoveragePercent int `json:"coverage_percent"`
	}
	if err := doJSON(http.MethodGet, "/v1/plans/"+planID+"/summary", nil, http.StatusOK, &resp); err != nil {
		return err
	}
	if resp.Planned < 1 {
		return fmt.Errorf("expected at least one planned slot")
	}
	fmt.Printf("(coverage=%d%%) ", resp.CoveragePercent)
	return nil
}

func testGenerateGrocery() error {
	var resp struct {
		Items []json.RawMessage `json:"items"`
	}
	if err := doJSON(http.MethodPost, "/v1/plans/"+planID+"/grocery/generate", nil, http.StatusOK, &resp); err != nil {
		return err
	}
	if len(resp.Items) == 0 {
		return fmt.Errorf("grocery list is empty")
	}
	return nil
}

func testExportGrocery() error {
	req, err := newRequest(http.MethodGet, "/v1/plans/"+planID+"/grocery/export?format=csv", nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(data))
	}
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		fmt.Print("(presigned) ")
		return nil
	}
	if len(data) == 0 {
		return fmt.Errorf("empty export")
	}
	fmt.Printf("(%d bytes) ", len(data))
	return nil
}

func testCreateBudgetEntry() error {
	body := map[string]any{"amount": 42.75, "store": "Smoke Market", "date": time.Now().Format("2006-01-02")}
	var resp struct {
		ID string `json:"id"`
	}
	if err := doJSON(http.MethodPost, "/v1/budget/entries", body, http.StatusCreated, &resp); err != nil {
		return err
	}
	entryID = resp.ID
	return nil
}

func testBudgetWeek() error {
	var resp struct {
		Spent       float64 `json:"spent"`
		PercentUsed float64 `json:"percent_used"`
	}
	if err := doJSON(http.MethodGet, "/v1/budget/week", nil, http.StatusOK, &resp); err != nil {
		return err
	}
	if resp.Spent <= 0 {
		return fmt.Errorf("expected spending this week, got %v", resp.Spent)
	}
	return nil
}

func testRemoveSlot() error {
	return doJSON(http.MethodDelete, "/v1/plans/"+planID+"/slots/"+slotID, nil, http.StatusNoContent, nil)
}

func testDeleteBudgetEntry() error {
	return doJSON(http.MethodDelete, "/v1/budget/entries/"+entryID, nil, http.StatusNoContent, nil)
}

func testDeleteRecipe() error {
	return doJSON(http.MethodDelete, "/v1/recipes/"+recipeID, nil, http.StatusNoContent, nil)
}

func newRequest(method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, apiBase+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func doJSON(method, path string, body any, wantStatus int, out any) error {
	req, err := newRequest(method, path, body)
	if err != nil {
		return err
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != wantStatus {
		return fmt.Errorf("%s %s: expected %d, got %d: %s", method, path, wantStatus, resp.StatusCode, string(data))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func maskString(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 8 {
		return "***"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
