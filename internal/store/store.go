// Package store holds the user's records in memory and persists every
// mutation through a storage.Backend.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/Tiliavir/earn/internal/logging"
	"github.com/Tiliavir/earn/internal/model"
	"github.com/Tiliavir/earn/internal/storage"
)

// Blob keys.
const (
	KeyWorkLogs        = "workLogs"
	KeyBonusEvents     = "videoPosts"
	KeyCompanyRates    = "companyRates"
	KeyDeduction       = "salaryCalcDeduction"
	KeyPrimaryCompany  = "salaryCalcPrimaryCompany"
	KeyCompanySettings = "salaryCalcCompanySettings"
	KeyActiveShift     = "activeShift"
)

var (
	ErrInvalidHours     = errors.New("hours must be greater than zero")
	ErrInvalidRate      = errors.New("rate must not be negative")
	ErrInvalidPercent   = errors.New("percentages must not be negative")
	ErrDuplicateCompany = errors.New("a company with this name already exists")
	ErrUnknownCompany   = errors.New("unknown company")
	ErrInvalidDeduction = errors.New("deduction must not be negative")
	ErrNoActiveShift    = errors.New("no active shift")
	ErrUnknownWorkLog   = errors.New("unknown work log")
	ErrAmountTooLarge   = errors.New("hours × rate is too large")

	// ErrPersist wraps every backend failure during a mutation.
	ErrPersist = errors.New("could not save")
)

// Change identifies which part of the store a mutation touched.
type Change string

const (
	ChangeWorkLogs    Change = "work_logs"
	ChangeBonusEvents Change = "bonus_events"
	ChangeCompanies   Change = "companies"
	ChangeCalculator  Change = "calculator"
	ChangeShift       Change = "shift"
)

// Store is the single in-process record store. It is not safe for
// concurrent use.
type Store struct {
	backend  storage.Backend
	logger   *slog.Logger
	validate *validator.Validate
	newID    func() string

	logs    []model.WorkLog
	bonuses []model.BonusEvent
	rates   model.CompanyRates
	calc    model.CalculatorSettings
	shift   *model.ActiveShift

	subscribers map[int]func(Change)
	nextSub     int
}

// Option customises a Store.
type Option func(*Store)

// WithLogger sets the logger used for load fallbacks and mutations.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = logging.WithComponent(l, logging.ComponentStore) }
}

// WithIDGenerator replaces the UUID generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// Open loads every blob from b. Missing or unreadable blobs fall back to
// their defaults; Open never fails because of persisted state.
func Open(b storage.Backend, opts ...Option) *Store {
	v := validator.New(validator.WithRequiredStructEnabled())
	registerValidations(v)

	s := &Store{
		backend:     b,
		logger:      logging.WithComponent(nil, logging.ComponentStore),
		validate:    v,
		newID:       uuid.NewString,
		subscribers: map[int]func(Change){},
	}
	for _, opt := range opts {
		opt(s)
	}

	if !s.load(KeyWorkLogs, &s.logs) || s.logs == nil {
		s.logs = []model.WorkLog{}
	}
	model.SortByDateDesc(s.logs)

	if !s.load(KeyBonusEvents, &s.bonuses) || s.bonuses == nil {
		s.bonuses = []model.BonusEvent{}
	}

	if !s.load(KeyCompanyRates, &s.rates) || s.rates == nil {
		s.rates = model.DefaultCompanyRates()
	}

	if !s.load(KeyDeduction, &s.calc.Deduction) {
		s.calc.Deduction = 0
	}
	if !s.load(KeyPrimaryCompany, &s.calc.Primary) {
		s.calc.Primary = ""
	}
	if !s.load(KeyCompanySettings, &s.calc.Taxes) {
		s.calc.Taxes = nil
	}
	s.calc, _ = syncedCalculator(s.rates, s.calc)

	if !s.load(KeyActiveShift, &s.shift) {
		s.shift = nil
	}
	return s
}

// load decodes the blob at key into dst and reports whether it succeeded.
func (s *Store) load(key string, dst any) bool {
	data, err := s.backend.Load(key)
	if errors.Is(err, storage.ErrNotFound) {
		return false
	}
	if err != nil {
		s.logger.Warn("falling back to default", logging.FieldKey, key, logging.FieldError, err)
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		s.logger.Warn("corrupt blob, falling back to default", logging.FieldKey, key, logging.FieldError, err)
		if q, ok := s.backend.(storage.Quarantiner); ok {
			if qerr := q.Quarantine(key); qerr != nil {
				s.logger.Warn("could not back up corrupt blob", logging.FieldKey, key, logging.FieldError, qerr)
			}
		}
		return false
	}
	return true
}

func (s *Store) save(key string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	if err := s.backend.Save(key, data); err != nil {
		return fmt.Errorf("%w %s: %w", ErrPersist, key, err)
	}
	s.logger.Debug("saved", logging.FieldKey, key)
	return nil
}

// Subscribe registers fn to run after every successful mutation. The
// returned function removes the subscription.
func (s *Store) Subscribe(fn func(Change)) (unsubscribe func()) {
	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = fn
	return func() { delete(s.subscribers, id) }
}

func (s *Store) notify(c Change) {
	ids := make([]int, 0, len(s.subscribers))
	for id := range s.subscribers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		s.subscribers[id](c)
	}
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

// WorkLogs returns a copy of all logs, newest first.
func (s *Store) WorkLogs() []model.WorkLog {
	return append([]model.WorkLog(nil), s.logs...)
}

// BonusEvents returns a copy of all bonus events ordered by date.
func (s *Store) BonusEvents() []model.BonusEvent {
	out := append([]model.BonusEvent(nil), s.bonuses...)
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// BonusEvent returns the event on d, if any.
func (s *Store) BonusEvent(d model.Date) (model.BonusEvent, bool) {
	for _, b := range s.bonuses {
		if b.Date == d {
			return b, true
		}
	}
	return model.BonusEvent{}, false
}

// Rates returns a copy of the company rate map.
func (s *Store) Rates() model.CompanyRates {
	out := make(model.CompanyRates, len(s.rates))
	for c, r := range s.rates {
		out[c] = r
	}
	return out
}

// Companies returns the company names in sorted order.
func (s *Store) Companies() []model.Company {
	return s.rates.Names()
}

// Calculator returns a copy of the salary calculator settings.
func (s *Store) Calculator() model.CalculatorSettings {
	out := s.calc
	out.Taxes = make(map[model.Company]model.TaxSettings, len(s.calc.Taxes))
	for c, t := range s.calc.Taxes {
		out.Taxes[c] = t
	}
	return out
}

// ActiveShift returns the running shift, or nil.
func (s *Store) ActiveShift() *model.ActiveShift {
	if s.shift == nil {
		return nil
	}
	cp := *s.shift
	return &cp
}
