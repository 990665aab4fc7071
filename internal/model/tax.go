package model

// Default tax percentages applied to companies without explicit settings.
const (
	DefaultContributionPercent = 8
	DefaultIncomeTaxPercent    = 37
)

// TaxSettings are the per-company percentages used by the tax estimator.
type TaxSettings struct {
	ContributionPercent float64 `json:"contributionPercent"`
	IncomeTaxPercent    float64 `json:"incomeTaxPercent"`
}

// DefaultTaxSettings returns 8% AM-contribution and 37% A-tax.
func DefaultTaxSettings() TaxSettings {
	return TaxSettings{
		ContributionPercent: DefaultContributionPercent,
		IncomeTaxPercent:    DefaultIncomeTaxPercent,
	}
}

// CalculatorSettings holds the persisted inputs of the salary calculator.
type CalculatorSettings struct {
	// Deduction is the flat monthly allowance granted to the primary company.
	Deduction float64
	// Primary is the company receiving the deduction; empty means none.
	Primary Company
	Taxes   map[Company]TaxSettings
}

// TaxFor returns the settings for c, falling back to the defaults.
func (s CalculatorSettings) TaxFor(c Company) TaxSettings {
	if t, ok := s.Taxes[c]; ok {
		return t
	}
	return DefaultTaxSettings()
}
