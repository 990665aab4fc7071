package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/earn/internal/model"
)

func TestNewCompany(t *testing.T) {
	c, err := model.NewCompany("  Kraftvrk ")
	require.NoError(t, err)
	assert.Equal(t, model.Company("Kraftvrk"), c)

	_, err = model.NewCompany("   ")
	assert.ErrorIs(t, err, model.ErrEmptyCompany)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		input string
		ok    bool
	}{
		{"2026-02-27", true},
		{"2024-02-29", true},
		{"2026-2-27", false},
		{"2026-02-30", false},
		{"27-02-2026", false},
		{"", false},
	}
	for _, tt := range tests {
		d, err := model.ParseDate(tt.input)
		if tt.ok {
			require.NoError(t, err, tt.input)
			assert.Equal(t, model.Date(tt.input), d)
		} else {
			assert.ErrorIs(t, err, model.ErrInvalidDate, tt.input)
		}
	}
}

func TestDateOrderingIsLexicographic(t *testing.T) {
	a := model.DateOf(time.Date(2025, 12, 31, 23, 0, 0, 0, time.UTC))
	b := model.DateOf(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.True(t, a < b)
	assert.Equal(t, "2025-12", a.Month())
	assert.Equal(t, "2026-01", b.Month())
}

func TestSortByDateDesc(t *testing.T) {
	logs := []model.WorkLog{
		{ID: "a", Date: "2026-01-02"},
		{ID: "b", Date: "2026-03-01"},
		{ID: "c", Date: "2026-01-02"},
		{ID: "d", Date: "2025-12-31"},
	}
	model.SortByDateDesc(logs)

	var ids []string
	for _, l := range logs {
		ids = append(ids, l.ID)
	}
	assert.Equal(t, []string{"b", "a", "c", "d"}, ids)
}

func TestCompanyRatesNames(t *testing.T) {
	names := model.DefaultCompanyRates().Names()
	assert.Equal(t, []model.Company{"Arte Suave", "Form & Fitness", "Kraftvrk"}, names)
}

func TestCalculatorSettingsTaxFor(t *testing.T) {
	s := model.CalculatorSettings{Taxes: map[model.Company]model.TaxSettings{
		"A": {ContributionPercent: 10, IncomeTaxPercent: 40},
	}}
	assert.Equal(t, 10.0, s.TaxFor("A").ContributionPercent)
	assert.Equal(t, model.DefaultTaxSettings(), s.TaxFor("B"))
}
