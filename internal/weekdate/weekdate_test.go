package weekdate

import (
	"testing"
	"time"
)

func TestMondayOf(t *testing.T) {
	cases := map[string]string{
		"2025-02-10": "2025-02-10", // Monday
		"2025-02-12": "2025-02-10",
		"2025-02-16": "2025-02-10", // Sunday stays in the same week
		"2025-01-01": "2024-12-30", // crosses a year boundary
	}
	for in, want := range cases {
		got, err := Monday(in)
		if err != nil {
			t.Fatalf("Monday(%s) failed: %v", in, err)
		}
		if got != want {
			t.Errorf("Monday(%s) = %s, want %s", in, got, want)
		}
	}
}

func TestMondayRejectsGarbage(t *testing.T) {
	if _, err := Monday("10/02/2025"); err == nil {
		t.Fatal("expected error for non ISO date")
	}
}

func TestCurrentMondayIgnoresTimeOfDay(t *testing.T) {
	now := time.Date(2025, 2, 16, 23, 59, 0, 0, time.UTC)
	if got := CurrentMonday(now); got != "2025-02-10" {
		t.Fatalf("expected 2025-02-10, got %s", got)
	}
}

func TestWeekNavigation(t *testing.T) {
	prev, _ := PreviousWeek("2025-03-03")
	next, _ := NextWeek("2025-03-03")
	if prev != "2025-02-24" || next != "2025-03-10" {
		t.Fatalf("unexpected navigation: prev=%s next=%s", prev, next)
	}

	sunday, _ := Sunday("2025-02-10")
	if sunday != "2025-02-16" {
		t.Fatalf("expected Sunday 2025-02-16, got %s", sunday)
	}

	day, _ := DayDate("2025-02-10", 3)
	if day != "2025-02-13" {
		t.Fatalf("expected Thursday 2025-02-13, got %s", day)
	}

	if !IsMonday("2025-02-10") || IsMonday("2025-02-11") {
		t.Fatal("IsMonday misclassified dates")
	}
}

func TestFormatRange(t *testing.T) {
	got, err := FormatRange("2025-02-10")
	if err != nil {
		t.Fatalf("FormatRange failed: %v", err)
	}
	if got != "Feb 10 – Feb 16, 2025" {
		t.Fatalf("unexpected range label %q", got)
	}

	got, _ = FormatRange("2024-12-30")
	if got != "Dec 30 – Jan 5, 2025" {
		t.Fatalf("unexpected cross-year label %q", got)
	}
}
