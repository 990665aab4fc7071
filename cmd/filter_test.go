package cmd

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/earn/internal/earnings"
)

func TestRangeFlagsResolve(t *testing.T) {
	now := time.Date(2024, 5, 17, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		flags rangeFlags
		want  earnings.Range
		label string
	}{
		{"default month", rangeFlags{}, earnings.Range{Start: "2024-05-01", End: "2024-05-31"}, "May 2024"},
		{"month", rangeFlags{month: "2024-02"}, earnings.Range{Start: "2024-02-01", End: "2024-02-29"}, "February 2024"},
		{"current week", rangeFlags{week: "current"}, earnings.Range{Start: "2024-05-13", End: "2024-05-19"}, "Week 2024-W20"},
		{"iso week", rangeFlags{week: "2024-W01"}, earnings.Range{Start: "2024-01-01", End: "2024-01-07"}, "Week 2024-W01"},
		{"from only", rangeFlags{from: "2024-04-10"}, earnings.Range{Start: "2024-04-10"}, "2024-04-10 – …"},
		{"from to", rangeFlags{from: "2024-04-10", to: "2024-04-20"}, earnings.Range{Start: "2024-04-10", End: "2024-04-20"}, "2024-04-10 – 2024-04-20"},
		{"all", rangeFlags{all: true}, earnings.Range{}, "All time"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, label, err := tt.flags.resolve(now)
			require.NoError(t, err)
			assert.Equal(t, tt.want, r)
			assert.Equal(t, tt.label, label)
		})
	}
}

func TestRangeFlagsResolveErrors(t *testing.T) {
	now := time.Date(2024, 5, 17, 12, 0, 0, 0, time.UTC)
	for _, f := range []rangeFlags{
		{from: "2024-5-1"},
		{to: "yesterday"},
		{from: "2024-05-10", to: "2024-05-01"},
		{month: "May"},
		{week: "2024-20"},
	} {
		_, _, err := f.resolve(now)
		assert.Error(t, err, "%+v", f)
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{" yes \n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"y", true},
	}
	for _, tt := range tests {
		var out strings.Builder
		got := confirm(strings.NewReader(tt.input), &out, "Delete?")
		assert.Equal(t, tt.want, got, "input %q", tt.input)
		assert.Equal(t, "Delete? [y/N]: ", out.String())
	}
}

func TestHours(t *testing.T) {
	assert.Equal(t, "0", hours(0))
	assert.Equal(t, "2", hours(2))
	assert.Equal(t, "1.5", hours(1.5))
	assert.Equal(t, "1.25", hours(1.25))
	assert.Equal(t, "10", hours(10))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "8%", percent(8))
	assert.Equal(t, "37%", percent(37))
	assert.Equal(t, "8.5%", percent(8.5))
	assert.Equal(t, "0%", percent(0))
}

func TestTrimmedNonFinite(t *testing.T) {
	assert.Equal(t, "+Inf", trimmed(math.Inf(1)))
}
