package store

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/Tiliavir/earn/internal/logging"
	"github.com/Tiliavir/earn/internal/model"
)

var ErrShiftRunning = errors.New("a shift is already running")

// StartShift begins timing a shift for c at the company's current rate.
func (s *Store) StartShift(c model.Company, start time.Time) (model.ActiveShift, error) {
	if s.shift != nil {
		return model.ActiveShift{}, fmt.Errorf("%w for %q since %s", ErrShiftRunning,
			s.shift.Company, s.shift.Start.Format("15:04"))
	}
	if err := s.requireCompany(c); err != nil {
		return model.ActiveShift{}, err
	}

	shift := model.ActiveShift{Company: c, Rate: s.rates[c], Start: start}
	if err := s.save(KeyActiveShift, shift); err != nil {
		return model.ActiveShift{}, err
	}
	s.shift = &shift
	s.logger.Info("shift started", logging.FieldCompany, c)
	s.notify(ChangeShift)
	return shift, nil
}

// StopShift ends the running shift and records it as a work log dated on the
// day the shift started. Hours are rounded to two decimals.
func (s *Store) StopShift(end time.Time) (model.WorkLog, error) {
	if s.shift == nil {
		return model.WorkLog{}, ErrNoActiveShift
	}
	hours := math.Round(end.Sub(s.shift.Start).Hours()*100) / 100
	if hours <= 0 {
		return model.WorkLog{}, ErrInvalidHours
	}

	entry, err := s.AddWorkLog(WorkLogInput{
		Company: s.shift.Company,
		Date:    model.DateOf(s.shift.Start),
		Hours:   hours,
		Rate:    s.shift.Rate,
		Source:  SourceTimer,
	})
	if err != nil {
		return model.WorkLog{}, err
	}
	if err := s.DiscardShift(); err != nil {
		return entry, err
	}
	return entry, nil
}

// DiscardShift drops the running shift without logging it.
func (s *Store) DiscardShift() error {
	if s.shift == nil {
		return ErrNoActiveShift
	}
	if err := s.save(KeyActiveShift, nil); err != nil {
		return err
	}
	s.shift = nil
	s.notify(ChangeShift)
	return nil
}
