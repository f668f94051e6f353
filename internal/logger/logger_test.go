package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSanitizeKVsRedactsSecrets(t *testing.T) {
	got := sanitizeKVs([]interface{}{"user_id", "default", "pin", "1234", "Authorization", "Bearer x", "dangling"})

	want := []interface{}{"user_id", "default", "pin", "[REDACTED]", "Authorization", "[REDACTED]", "dangling"}
	if len(got) != len(want) {
		t.Fatalf("expected %d values, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestNewWritesToRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "preppair.log")

	l, err := New(Options{Level: "debug", Format: "json", File: path})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	l.Info("grocery list generated", "items", 3)
	l.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "grocery list generated") {
		t.Fatalf("expected message in log file, got %q", string(data))
	}
}

func TestNewFallsBackToInfoOnBadLevel(t *testing.T) {
	l, err := New(Options{Level: "loud"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if l.SugaredLogger.Desugar().Core().Enabled(-1) {
		t.Fatal("debug must be disabled at the default level")
	}
}
