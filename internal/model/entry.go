package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// DateLayout is the on-disk and on-screen date format.
const DateLayout = "2006-01-02"

var (
	ErrEmptyCompany = errors.New("company name must not be empty")
	ErrInvalidDate  = errors.New("invalid date, expected YYYY-MM-DD")
)

// Company is a user-defined company name. Use NewCompany to build one from
// user input so surrounding whitespace never creates a phantom company.
type Company string

// NewCompany trims s and rejects empty names.
func NewCompany(s string) (Company, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrEmptyCompany
	}
	return Company(s), nil
}

func (c Company) String() string { return string(c) }

// Date is a calendar date in zero-padded YYYY-MM-DD form. Because the format
// is fixed width, string comparison equals chronological comparison.
type Date string

// ParseDate validates s and returns it as a Date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(DateLayout, s)
	if err != nil || t.Format(DateLayout) != s {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date(s), nil
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	return Date(t.Format(DateLayout))
}

func (d Date) String() string { return string(d) }

// IsZero reports whether d is unset.
func (d Date) IsZero() bool { return d == "" }

// Valid reports whether d is a well-formed date.
func (d Date) Valid() bool {
	_, err := ParseDate(string(d))
	return err == nil
}

// Time returns midnight UTC of d. Invalid dates yield the zero time.
func (d Date) Time() time.Time {
	t, err := time.Parse(DateLayout, string(d))
	if err != nil {
		return time.Time{}
	}
	return t
}

// Month returns the YYYY-MM prefix of d.
func (d Date) Month() string {
	if len(d) < 7 {
		return ""
	}
	return string(d[:7])
}

// WorkLog is one shift: hours worked for a company on a date at the rate
// captured when the log was created.
type WorkLog struct {
	ID         string  `json:"id"`
	Company    Company `json:"company"`
	Date       Date    `json:"date"`
	Hours      float64 `json:"hours"`
	Rate       float64 `json:"rate"`
	ExternalID string  `json:"external_id,omitempty"`
	Source     string  `json:"source,omitempty"`
}

// Earnings returns hours × rate.
func (w WorkLog) Earnings() float64 {
	return w.Hours * w.Rate
}

// BonusEvent is a fixed-amount "video post" earning. There is at most one per date.
type BonusEvent struct {
	ID      string  `json:"id"`
	Date    Date    `json:"date"`
	Company Company `json:"company"`
}

// CompanyRates maps a company to its default hourly rate. A company exists
// exactly when it has a key here.
type CompanyRates map[Company]float64

// Names returns the companies in sorted order.
func (r CompanyRates) Names() []Company {
	names := make([]Company, 0, len(r))
	for c := range r {
		names = append(names, c)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Has reports whether c is a known company.
func (r CompanyRates) Has(c Company) bool {
	_, ok := r[c]
	return ok
}

// DefaultCompanyRates is the seed used when no rates are stored yet.
func DefaultCompanyRates() CompanyRates {
	return CompanyRates{
		"Kraftvrk":       160,
		"Form & Fitness": 225,
		"Arte Suave":     300,
	}
}

// SortByDateDesc orders logs newest first. Logs on the same date keep their
// relative order.
func SortByDateDesc(logs []WorkLog) {
	sort.SliceStable(logs, func(i, j int) bool { return logs[i].Date > logs[j].Date })
}

// ActiveShift is a running shift timer started with `earn start`.
type ActiveShift struct {
	Company Company   `json:"company"`
	Rate    float64   `json:"rate"`
	Start   time.Time `json:"start"`
}
