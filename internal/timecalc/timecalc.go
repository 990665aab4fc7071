// Package timecalc holds calendar arithmetic for date filters and the
// month/week views.
package timecalc

import (
	"fmt"
	"time"
)

// MonthLayout is the layout of a month key such as "2024-05".
const MonthLayout = "2006-01"

// GridCells is the number of days in a month grid: six Monday-first weeks.
const GridCells = 42

// WeekdayNames are the Monday-first column headers of the calendar views.
var WeekdayNames = [7]string{"Man", "Tir", "Ons", "Tor", "Fre", "Lør", "Søn"}

// FormatDuration formats seconds as a human-readable string like "1h 40m" or "45m" or "30s".
func FormatDuration(seconds int64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	if m > 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%ds", s)
}

// FormatDurationHHMMSS formats seconds as HH:MM:SS.
func FormatDurationHHMMSS(seconds int64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// mondayOffset is the number of days since the most recent Monday.
func mondayOffset(t time.Time) int {
	// Go's weekday: Sunday=0, Monday=1, …, Saturday=6
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7 // treat Sunday as 7 (ISO)
	}
	return wd - 1
}

// WeekRange returns the Monday and Sunday of the ISO week containing t.
func WeekRange(t time.Time) (time.Time, time.Time) {
	monday := StartOfDay(t.AddDate(0, 0, -mondayOffset(t)))
	sunday := EndOfDay(monday.AddDate(0, 0, 6))
	return monday, sunday
}

// ISOWeekLabel returns a label like "2026-W09".
func ISOWeekLabel(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// ParseISOWeek parses a label like "2026-W09" and returns the Monday of that
// week in loc.
func ParseISOWeek(label string, loc *time.Location) (time.Time, error) {
	var year, week int
	if _, err := fmt.Sscanf(label, "%d-W%d", &year, &week); err != nil || week < 1 || week > 53 {
		return time.Time{}, fmt.Errorf("invalid week %q, expected YYYY-Www", label)
	}
	// January 4th is always in week 1.
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, loc)
	monday := jan4.AddDate(0, 0, -mondayOffset(jan4)+7*(week-1))
	if y, w := monday.ISOWeek(); y != year || w != week {
		return time.Time{}, fmt.Errorf("invalid week %q: %d has no week %d", label, year, week)
	}
	return monday, nil
}

// ParseMonth parses a month key like "2024-05" into the first day of that
// month in loc.
func ParseMonth(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(MonthLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month %q, expected YYYY-MM", s)
	}
	return t, nil
}

// MonthRange returns the first and last day of the month containing t.
func MonthRange(t time.Time) (time.Time, time.Time) {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	last := EndOfDay(first.AddDate(0, 1, -1))
	return first, last
}

// MonthGrid returns the days shown for the month containing t: six weeks
// starting on the Monday on or before the first of the month.
func MonthGrid(t time.Time) [GridCells]time.Time {
	first, _ := MonthRange(t)
	start := first.AddDate(0, 0, -mondayOffset(first))
	var grid [GridCells]time.Time
	for i := range grid {
		grid[i] = start.AddDate(0, 0, i)
	}
	return grid
}

// StartOfDay returns 00:00:00 of the same day.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns 23:59:59 of the same day.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}
