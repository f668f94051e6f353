// Package weekdate holds the Monday-anchored calendar arithmetic used by the
// planner, grocery and budget packages. Dates travel as YYYY-MM-DD strings.
package weekdate

import (
	"fmt"
	"time"
)

// Layout is the wire and storage format of a calendar date.
const Layout = "2006-01-02"

// Parse reads a YYYY-MM-DD date as midnight UTC.
func Parse(s string) (time.Time, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

func Format(t time.Time) string {
	return t.Format(Layout)
}

// MondayOf returns the Monday of the week containing t, at midnight.
func MondayOf(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(day.Weekday()) + 6) % 7 // Monday=0 ... Sunday=6
	return day.AddDate(0, 0, -offset)
}

// Monday normalizes a YYYY-MM-DD date to the Monday of its week.
func Monday(s string) (string, error) {
	t, err := Parse(s)
	if err != nil {
		return "", err
	}
	return Format(MondayOf(t)), nil
}

// CurrentMonday returns the Monday of the week containing now.
func CurrentMonday(now time.Time) string {
	return Format(MondayOf(now))
}

func IsMonday(s string) bool {
	t, err := Parse(s)
	return err == nil && t.Weekday() == time.Monday
}

// AddWeeks shifts a week start by n weeks and returns that week's Monday.
func AddWeeks(monday string, n int) (string, error) {
	t, err := Parse(monday)
	if err != nil {
		return "", err
	}
	return Format(MondayOf(t.AddDate(0, 0, 7*n))), nil
}

func PreviousWeek(monday string) (string, error) {
	return AddWeeks(monday, -1)
}

func NextWeek(monday string) (string, error) {
	return AddWeeks(monday, 1)
}

// Sunday returns the last day of the week starting at monday.
func Sunday(monday string) (string, error) {
	t, err := Parse(monday)
	if err != nil {
		return "", err
	}
	return Format(t.AddDate(0, 0, 6)), nil
}

// DayDate returns the date of dayOfWeek (0 = Monday) in the week starting at monday.
func DayDate(monday string, dayOfWeek int) (string, error) {
	t, err := Parse(monday)
	if err != nil {
		return "", err
	}
	return Format(t.AddDate(0, 0, dayOfWeek)), nil
}

// FormatRange renders a week as "Feb 10 – Feb 16, 2025".
func FormatRange(monday string) (string, error) {
	start, err := Parse(monday)
	if err != nil {
		return "", err
	}
	end := start.AddDate(0, 0, 6)
	return start.Format("Jan 2") + " – " + end.Format("Jan 2, 2006"), nil
}

// ShortLabel renders a week start as "Feb 10".
func ShortLabel(monday string) (string, error) {
	t, err := Parse(monday)
	if err != nil {
		return "", err
	}
	return t.Format("Jan 2"), nil
}
