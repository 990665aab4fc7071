package timecalc_test

import (
	"testing"
	"time"

	"github.com/Tiliavir/earn/internal/timecalc"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds int64
		want    string
	}{
		{0, "0s"},
		{45, "45s"},
		{60, "1m"},
		{90, "1m"},
		{3600, "1h 0m"},
		{3661, "1h 1m"},
		{5400, "1h 30m"},
	}
	for _, tt := range tests {
		got := timecalc.FormatDuration(tt.seconds)
		if got != tt.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestFormatDurationHHMMSS(t *testing.T) {
	tests := []struct {
		seconds int64
		want    string
	}{
		{0, "00:00:00"},
		{61, "00:01:01"},
		{3661, "01:01:01"},
	}
	for _, tt := range tests {
		got := timecalc.FormatDurationHHMMSS(tt.seconds)
		if got != tt.want {
			t.Errorf("FormatDurationHHMMSS(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestWeekRange(t *testing.T) {
	// 2026-02-27 is a Friday (week 9).
	fri := time.Date(2026, 2, 27, 10, 0, 0, 0, time.UTC)
	monday, sunday := timecalc.WeekRange(fri)

	wantMonday := time.Date(2026, 2, 23, 0, 0, 0, 0, time.UTC)
	wantSunday := time.Date(2026, 3, 1, 23, 59, 59, 0, time.UTC)

	if !monday.Equal(wantMonday) {
		t.Errorf("WeekRange monday = %v, want %v", monday, wantMonday)
	}
	if !sunday.Equal(wantSunday) {
		t.Errorf("WeekRange sunday = %v, want %v", sunday, wantSunday)
	}

	// Sunday belongs to the week that started six days earlier.
	monday, _ = timecalc.WeekRange(wantSunday)
	if !monday.Equal(wantMonday) {
		t.Errorf("WeekRange(sunday) monday = %v, want %v", monday, wantMonday)
	}
}

func TestISOWeekLabel(t *testing.T) {
	fri := time.Date(2026, 2, 27, 10, 0, 0, 0, time.UTC)
	got := timecalc.ISOWeekLabel(fri)
	if got != "2026-W09" {
		t.Errorf("ISOWeekLabel = %q, want %q", got, "2026-W09")
	}
}

func TestParseISOWeek(t *testing.T) {
	tests := []struct {
		label string
		want  time.Time
	}{
		{"2026-W09", time.Date(2026, 2, 23, 0, 0, 0, 0, time.UTC)},
		{"2026-W01", time.Date(2025, 12, 29, 0, 0, 0, 0, time.UTC)},
		{"2020-W53", time.Date(2020, 12, 28, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := timecalc.ParseISOWeek(tt.label, time.UTC)
		if err != nil {
			t.Fatalf("ParseISOWeek(%q): %v", tt.label, err)
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParseISOWeek(%q) = %v, want %v", tt.label, got, tt.want)
		}
	}

	for _, bad := range []string{"2026-09", "2026-W00", "2025-W53", "week"} {
		if _, err := timecalc.ParseISOWeek(bad, time.UTC); err == nil {
			t.Errorf("ParseISOWeek(%q): expected error", bad)
		}
	}
}

func TestParseMonth(t *testing.T) {
	got, err := timecalc.ParseMonth("2024-02", time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	if want := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("ParseMonth = %v, want %v", got, want)
	}
	if _, err := timecalc.ParseMonth("2024-13", time.UTC); err == nil {
		t.Error("ParseMonth: expected error for month 13")
	}
}

func TestMonthRange(t *testing.T) {
	first, last := timecalc.MonthRange(time.Date(2024, 2, 15, 12, 0, 0, 0, time.UTC))
	if want := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC); !first.Equal(want) {
		t.Errorf("MonthRange first = %v, want %v", first, want)
	}
	if want := time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC); !last.Equal(want) {
		t.Errorf("MonthRange last = %v, want %v", last, want)
	}
}

func TestMonthGrid(t *testing.T) {
	// May 2024 starts on a Wednesday.
	grid := timecalc.MonthGrid(time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC))

	if want := time.Date(2024, 4, 29, 0, 0, 0, 0, time.UTC); !grid[0].Equal(want) {
		t.Errorf("MonthGrid[0] = %v, want %v", grid[0], want)
	}
	if want := time.Date(2024, 6, 9, 0, 0, 0, 0, time.UTC); !grid[timecalc.GridCells-1].Equal(want) {
		t.Errorf("MonthGrid[last] = %v, want %v", grid[timecalc.GridCells-1], want)
	}
	for i := 0; i < timecalc.GridCells; i += 7 {
		if grid[i].Weekday() != time.Monday {
			t.Errorf("MonthGrid[%d] is %v, want Monday", i, grid[i].Weekday())
		}
	}

	// A month starting on Monday has no leading days.
	grid = timecalc.MonthGrid(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC))
	if want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC); !grid[0].Equal(want) {
		t.Errorf("MonthGrid(Jan 2024)[0] = %v, want %v", grid[0], want)
	}
}
