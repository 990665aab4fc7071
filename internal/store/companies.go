package store

import (
	"fmt"
	"math"

	"github.com/Tiliavir/earn/internal/logging"
	"github.com/Tiliavir/earn/internal/model"
)

type calculatorInput struct {
	Deduction           float64 `validate:"gte=0"`
	ContributionPercent float64 `validate:"gte=0"`
	IncomeTaxPercent    float64 `validate:"gte=0"`
}

func validRate(rate float64) bool {
	return rate >= 0 && !math.IsNaN(rate) && !math.IsInf(rate, 0)
}

// AddCompany creates a new company. Empty and duplicate names are rejected.
func (s *Store) AddCompany(name string, rate float64) (model.Company, error) {
	c, err := model.NewCompany(name)
	if err != nil {
		return "", err
	}
	if s.rates.Has(c) {
		return "", fmt.Errorf("%w: %q", ErrDuplicateCompany, c)
	}
	return c, s.SetCompanyRate(c, rate)
}

// SetCompanyRate sets the default hourly rate of c, creating the company if
// it does not exist. Existing work logs keep the rate they were logged with.
func (s *Store) SetCompanyRate(c model.Company, rate float64) error {
	c, err := model.NewCompany(string(c))
	if err != nil {
		return err
	}
	if !validRate(rate) {
		return ErrInvalidRate
	}

	created := !s.rates.Has(c)
	rates := s.Rates()
	rates[c] = rate
	calc, calcChanged := syncedCalculator(rates, s.Calculator())

	if err := s.save(KeyCompanyRates, rates); err != nil {
		return err
	}
	if calcChanged {
		if err := s.saveCalculator(calc); err != nil {
			return err
		}
	}

	s.rates = rates
	s.calc = calc
	if created {
		s.logger.Info("company added", logging.FieldCompany, c)
	}
	if calcChanged {
		s.notify(ChangeCalculator)
	}
	s.notify(ChangeCompanies)
	return nil
}

// CascadeResult counts the records removed together with a company.
type CascadeResult struct {
	WorkLogs    int
	BonusEvents int
}

// DeleteCompany removes c and every work log and bonus event that references
// it. Confirmation is the caller's responsibility.
//
// Dependent records are saved before the company list, so an interrupted
// delete never leaves records pointing at a missing company. Memory is only
// updated once every save succeeded.
func (s *Store) DeleteCompany(c model.Company) (CascadeResult, error) {
	var res CascadeResult
	if err := s.requireCompany(c); err != nil {
		return res, err
	}

	logs := make([]model.WorkLog, 0, len(s.logs))
	for _, l := range s.logs {
		if l.Company == c {
			res.WorkLogs++
			continue
		}
		logs = append(logs, l)
	}
	bonuses := make([]model.BonusEvent, 0, len(s.bonuses))
	for _, b := range s.bonuses {
		if b.Company == c {
			res.BonusEvents++
			continue
		}
		bonuses = append(bonuses, b)
	}
	rates := s.Rates()
	delete(rates, c)
	calc, calcChanged := syncedCalculator(rates, s.Calculator())
	dropShift := s.shift != nil && s.shift.Company == c

	if res.WorkLogs > 0 {
		if err := s.save(KeyWorkLogs, logs); err != nil {
			return CascadeResult{}, err
		}
	}
	if res.BonusEvents > 0 {
		if err := s.save(KeyBonusEvents, bonuses); err != nil {
			return CascadeResult{}, err
		}
	}
	if dropShift {
		if err := s.save(KeyActiveShift, nil); err != nil {
			return CascadeResult{}, err
		}
	}
	if err := s.save(KeyCompanyRates, rates); err != nil {
		return CascadeResult{}, err
	}
	if calcChanged {
		if err := s.saveCalculator(calc); err != nil {
			return CascadeResult{}, err
		}
	}

	s.logs = logs
	s.bonuses = bonuses
	s.rates = rates
	s.calc = calc
	if dropShift {
		s.shift = nil
	}

	if res.WorkLogs > 0 {
		s.notify(ChangeWorkLogs)
	}
	if res.BonusEvents > 0 {
		s.notify(ChangeBonusEvents)
	}
	if dropShift {
		s.notify(ChangeShift)
	}
	if calcChanged {
		s.notify(ChangeCalculator)
	}
	s.logger.Info("company deleted", logging.FieldCompany, c,
		"work_logs", res.WorkLogs, "bonus_events", res.BonusEvents)
	s.notify(ChangeCompanies)
	return res, nil
}

// syncedCalculator aligns calc with the company list: new companies get
// default tax settings, deleted ones are dropped, and a primary company that
// no longer exists is replaced by the first remaining company. It reports
// whether anything changed. The input map is not modified.
func syncedCalculator(rates model.CompanyRates, calc model.CalculatorSettings) (model.CalculatorSettings, bool) {
	changed := false
	taxes := make(map[model.Company]model.TaxSettings, len(rates))
	for c := range rates {
		if t, ok := calc.Taxes[c]; ok {
			taxes[c] = t
		} else {
			taxes[c] = model.DefaultTaxSettings()
			changed = true
		}
	}
	if len(taxes) != len(calc.Taxes) {
		changed = true
	}
	calc.Taxes = taxes

	names := rates.Names()
	switch {
	case len(names) == 0:
		if calc.Primary != "" {
			calc.Primary = ""
			changed = true
		}
	case !rates.Has(calc.Primary):
		calc.Primary = names[0]
		changed = true
	}
	return calc, changed
}

func (s *Store) saveCalculator(calc model.CalculatorSettings) error {
	if err := s.save(KeyDeduction, calc.Deduction); err != nil {
		return err
	}
	if err := s.save(KeyPrimaryCompany, calc.Primary); err != nil {
		return err
	}
	return s.save(KeyCompanySettings, calc.Taxes)
}

// SetDeduction sets the flat monthly deduction granted to the primary company.
func (s *Store) SetDeduction(amount float64) error {
	if err := s.check(calculatorInput{Deduction: amount}); err != nil {
		return err
	}
	if err := s.save(KeyDeduction, amount); err != nil {
		return err
	}
	s.calc.Deduction = amount
	s.notify(ChangeCalculator)
	return nil
}

// SetPrimaryCompany designates the company that receives the deduction.
func (s *Store) SetPrimaryCompany(c model.Company) error {
	if err := s.requireCompany(c); err != nil {
		return err
	}
	if err := s.save(KeyPrimaryCompany, c); err != nil {
		return err
	}
	s.calc.Primary = c
	s.notify(ChangeCalculator)
	return nil
}

// SetTaxSettings stores the contribution and income tax percentages of c.
func (s *Store) SetTaxSettings(c model.Company, t model.TaxSettings) error {
	if err := s.requireCompany(c); err != nil {
		return err
	}
	if err := s.check(calculatorInput{ContributionPercent: t.ContributionPercent, IncomeTaxPercent: t.IncomeTaxPercent}); err != nil {
		return err
	}

	next := s.Calculator().Taxes
	next[c] = t
	if err := s.save(KeyCompanySettings, next); err != nil {
		return err
	}
	s.calc.Taxes = next
	s.notify(ChangeCalculator)
	return nil
}
