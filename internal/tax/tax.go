// Package tax estimates take-home pay from gross earnings using a flat
// AM-contribution and A-tax per company.
//
// The estimate is a simplified approximation. It ignores ATP, pension and
// every other factor of a real payroll calculation and must not be presented
// as authoritative.
package tax

import (
	"math"
	"sort"

	"github.com/Tiliavir/earn/internal/model"
)

// Disclaimer is shown next to every estimate.
const Disclaimer = "This is a simplified calculation. Other factors such as ATP, pension " +
	"and individual tax circumstances can affect the final amount."

// Row is the breakdown for one company.
type Row struct {
	Company      model.Company `json:"company"`
	Gross        float64       `json:"gross"`
	Contribution float64       `json:"contribution"`
	Deduction    float64       `json:"deduction"`
	TaxableBase  float64       `json:"taxable_base"`
	IncomeTax    float64       `json:"income_tax"`
	Net          float64       `json:"net"`
}

// Result holds per-company rows and their totals.
type Result struct {
	Rows         []Row   `json:"rows"`
	Gross        float64 `json:"gross"`
	Contribution float64 `json:"contribution"`
	IncomeTax    float64 `json:"income_tax"`
	Net          float64 `json:"net"`
}

// Estimate computes contribution, income tax and net pay for every company
// with nonzero gross. Companies missing from settings use the default
// percentages. The deduction is subtracted from the taxable base of the
// primary company only, and the base never drops below zero.
func Estimate(gross map[model.Company]float64, settings map[model.Company]model.TaxSettings, primary model.Company, deduction float64) Result {
	companies := make([]model.Company, 0, len(gross))
	for c := range gross {
		companies = append(companies, c)
	}
	sort.Slice(companies, func(i, j int) bool { return companies[i] < companies[j] })

	var res Result
	for _, c := range companies {
		g := gross[c]
		if g == 0 {
			continue
		}
		s, ok := settings[c]
		if !ok {
			s = model.DefaultTaxSettings()
		}

		row := Row{Company: c, Gross: g}
		row.Contribution = g * s.ContributionPercent / 100
		if primary != "" && c == primary {
			row.Deduction = deduction
		}
		row.TaxableBase = math.Max(0, g-row.Contribution-row.Deduction)
		row.IncomeTax = row.TaxableBase * s.IncomeTaxPercent / 100
		row.Net = g - row.Contribution - row.IncomeTax

		res.Rows = append(res.Rows, row)
		res.Gross += row.Gross
		res.Contribution += row.Contribution
		res.IncomeTax += row.IncomeTax
	}
	res.Net = res.Gross - res.Contribution - res.IncomeTax
	return res
}
