package store

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Tiliavir/earn/internal/logging"
	"github.com/Tiliavir/earn/internal/model"
)

// Work log sources.
const (
	SourceManual  = "manual"
	SourceOutlook = "outlook"
	SourceTimer   = "timer"
)

// WorkLogInput is a work log before it has an id.
type WorkLogInput struct {
	Company    model.Company `validate:"company"`
	Date       model.Date    `validate:"date"`
	Hours      float64       `validate:"gt=0"`
	Rate       float64       `validate:"gte=0"`
	ExternalID string
	Source     string `validate:"omitempty,oneof=manual outlook timer"`
}

type bonusInput struct {
	Company model.Company `validate:"company"`
	Date    model.Date    `validate:"date"`
}

func registerValidations(v *validator.Validate) {
	_ = v.RegisterValidation("company", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("date", func(fl validator.FieldLevel) bool {
		return model.Date(fl.Field().String()).Valid()
	})
}

// check validates v and maps the first failing field to a sentinel error.
func (s *Store) check(v any) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	switch fe.Field() {
	case "Company":
		return model.ErrEmptyCompany
	case "Date":
		return fmt.Errorf("%w: %q", model.ErrInvalidDate, fe.Value())
	case "Hours":
		return ErrInvalidHours
	case "Rate":
		return ErrInvalidRate
	case "ContributionPercent", "IncomeTaxPercent":
		return ErrInvalidPercent
	case "Deduction":
		return ErrInvalidDeduction
	}
	return fmt.Errorf("invalid %s: %w", fe.Field(), err)
}

// checkWorkLog validates in and rejects amounts whose earnings are not finite.
func (s *Store) checkWorkLog(in WorkLogInput) error {
	if err := s.check(in); err != nil {
		return err
	}
	if math.IsInf(in.Hours, 0) {
		return ErrInvalidHours
	}
	if !validRate(in.Rate) {
		return ErrInvalidRate
	}
	if math.IsInf(in.Hours*in.Rate, 0) {
		return ErrAmountTooLarge
	}
	return nil
}

func (s *Store) requireCompany(c model.Company) error {
	if !s.rates.Has(c) {
		return fmt.Errorf("%w: %q", ErrUnknownCompany, c)
	}
	return nil
}

// AddWorkLog validates in, assigns an id and inserts it keeping logs ordered
// newest first.
func (s *Store) AddWorkLog(in WorkLogInput) (model.WorkLog, error) {
	if err := s.checkWorkLog(in); err != nil {
		return model.WorkLog{}, err
	}
	if err := s.requireCompany(in.Company); err != nil {
		return model.WorkLog{}, err
	}
	if in.Source == "" {
		in.Source = SourceManual
	}

	entry := model.WorkLog{
		ID:         s.newID(),
		Company:    in.Company,
		Date:       in.Date,
		Hours:      in.Hours,
		Rate:       in.Rate,
		ExternalID: in.ExternalID,
		Source:     in.Source,
	}
	next := make([]model.WorkLog, 0, len(s.logs)+1)
	next = append(next, s.logs...)
	next = append(next, entry)
	model.SortByDateDesc(next)

	if err := s.save(KeyWorkLogs, next); err != nil {
		return model.WorkLog{}, err
	}
	s.logs = next
	s.logger.Info("work log added", logging.FieldCompany, entry.Company, logging.FieldDate, entry.Date, "id", entry.ID)
	s.notify(ChangeWorkLogs)
	return entry, nil
}

// DeleteWorkLog removes the log with id. It reports whether a log was removed;
// an unknown id is a no-op.
func (s *Store) DeleteWorkLog(id string) (bool, error) {
	next := make([]model.WorkLog, 0, len(s.logs))
	for _, l := range s.logs {
		if l.ID != id {
			next = append(next, l)
		}
	}
	if len(next) == len(s.logs) {
		return false, nil
	}
	if err := s.save(KeyWorkLogs, next); err != nil {
		return false, err
	}
	s.logs = next
	s.notify(ChangeWorkLogs)
	return true, nil
}

// UpdateWorkLog replaces the content of the log with id, keeping its id.
func (s *Store) UpdateWorkLog(id string, in WorkLogInput) (model.WorkLog, error) {
	if err := s.checkWorkLog(in); err != nil {
		return model.WorkLog{}, err
	}
	if err := s.requireCompany(in.Company); err != nil {
		return model.WorkLog{}, err
	}
	if in.Source == "" {
		in.Source = SourceManual
	}

	next := append([]model.WorkLog(nil), s.logs...)
	idx := -1
	for i := range next {
		if next[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return model.WorkLog{}, fmt.Errorf("%w: %q", ErrUnknownWorkLog, id)
	}
	entry := model.WorkLog{
		ID:         id,
		Company:    in.Company,
		Date:       in.Date,
		Hours:      in.Hours,
		Rate:       in.Rate,
		ExternalID: in.ExternalID,
		Source:     in.Source,
	}
	next[idx] = entry
	model.SortByDateDesc(next)

	if err := s.save(KeyWorkLogs, next); err != nil {
		return model.WorkLog{}, err
	}
	s.logs = next
	s.notify(ChangeWorkLogs)
	return entry, nil
}

// WorkLog returns the log with id.
func (s *Store) WorkLog(id string) (model.WorkLog, bool) {
	for _, l := range s.logs {
		if l.ID == id {
			return l, true
		}
	}
	return model.WorkLog{}, false
}

// WorkLogByExternalID returns the log imported from the given source event.
func (s *Store) WorkLogByExternalID(externalID string) (model.WorkLog, bool) {
	if externalID == "" {
		return model.WorkLog{}, false
	}
	for _, l := range s.logs {
		if l.ExternalID == externalID {
			return l, true
		}
	}
	return model.WorkLog{}, false
}

// UpsertBonusEvent records a bonus event on d. If d already has one, only its
// company changes, so there is never more than one event per date.
func (s *Store) UpsertBonusEvent(d model.Date, c model.Company) (model.BonusEvent, error) {
	if err := s.check(bonusInput{Company: c, Date: d}); err != nil {
		return model.BonusEvent{}, err
	}
	if err := s.requireCompany(c); err != nil {
		return model.BonusEvent{}, err
	}

	next := append([]model.BonusEvent(nil), s.bonuses...)
	var saved model.BonusEvent
	found := false
	for i := range next {
		if next[i].Date == d {
			next[i].Company = c
			saved = next[i]
			found = true
			break
		}
	}
	if !found {
		saved = model.BonusEvent{ID: "video-" + s.newID(), Date: d, Company: c}
		next = append(next, saved)
	}

	if err := s.save(KeyBonusEvents, next); err != nil {
		return model.BonusEvent{}, err
	}
	s.bonuses = next
	s.notify(ChangeBonusEvents)
	return saved, nil
}

// DeleteBonusEvent removes the event on d, if present.
func (s *Store) DeleteBonusEvent(d model.Date) (bool, error) {
	next := make([]model.BonusEvent, 0, len(s.bonuses))
	for _, b := range s.bonuses {
		if b.Date != d {
			next = append(next, b)
		}
	}
	if len(next) == len(s.bonuses) {
		return false, nil
	}
	if err := s.save(KeyBonusEvents, next); err != nil {
		return false, err
	}
	s.bonuses = next
	s.notify(ChangeBonusEvents)
	return true, nil
}
