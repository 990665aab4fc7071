// Package earnings turns raw work logs and bonus events into gross totals
// per company, per month and per day. Every function here is pure.
package earnings

import (
	"sort"

	"github.com/Tiliavir/earn/internal/model"
)

// DefaultBonusAmount is the earning credited for one video post.
const DefaultBonusAmount = 320.0

// Range is an inclusive date filter. A zero bound is open on that side.
type Range struct {
	Start model.Date
	End   model.Date
}

// Contains reports whether d lies within r, bounds included.
func (r Range) Contains(d model.Date) bool {
	if !r.Start.IsZero() && d < r.Start {
		return false
	}
	if !r.End.IsZero() && d > r.End {
		return false
	}
	return true
}

// FilterLogs returns the logs dated within r, preserving order.
func FilterLogs(logs []model.WorkLog, r Range) []model.WorkLog {
	out := make([]model.WorkLog, 0, len(logs))
	for _, l := range logs {
		if r.Contains(l.Date) {
			out = append(out, l)
		}
	}
	return out
}

// FilterBonuses returns the bonus events dated within r, preserving order.
func FilterBonuses(bonuses []model.BonusEvent, r Range) []model.BonusEvent {
	out := make([]model.BonusEvent, 0, len(bonuses))
	for _, b := range bonuses {
		if r.Contains(b.Date) {
			out = append(out, b)
		}
	}
	return out
}

// ByCompany sums gross earnings per company within r. Companies without any
// record in range are absent from the result; callers treat a missing key as zero.
func ByCompany(logs []model.WorkLog, bonuses []model.BonusEvent, r Range, bonusAmount float64) map[model.Company]float64 {
	totals := map[model.Company]float64{}
	for _, l := range logs {
		if r.Contains(l.Date) {
			totals[l.Company] += l.Earnings()
		}
	}
	for _, b := range bonuses {
		if r.Contains(b.Date) {
			totals[b.Company] += bonusAmount
		}
	}
	return totals
}

// GrandTotal sums a per-company map.
func GrandTotal(byCompany map[model.Company]float64) float64 {
	var total float64
	for _, v := range byCompany {
		total += v
	}
	return total
}

// MonthTotal is the gross earnings of one calendar month.
type MonthTotal struct {
	Month    string  `json:"month"` // YYYY-MM
	Earnings float64 `json:"earnings"`
}

// ByMonth sums gross earnings per calendar month over all records, sorted
// chronologically. It ignores any date filter.
func ByMonth(logs []model.WorkLog, bonuses []model.BonusEvent, bonusAmount float64) []MonthTotal {
	months := map[string]float64{}
	for _, l := range logs {
		months[l.Date.Month()] += l.Earnings()
	}
	for _, b := range bonuses {
		months[b.Date.Month()] += bonusAmount
	}

	out := make([]MonthTotal, 0, len(months))
	for m, v := range months {
		out = append(out, MonthTotal{Month: m, Earnings: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// CompanyShare is one company's slice of a summary.
type CompanyShare struct {
	Company  model.Company `json:"company"`
	Earnings float64       `json:"earnings"`
	Percent  float64       `json:"percent"`
}

// Summary is the headline view over a set of records.
type Summary struct {
	TotalHours    float64        `json:"total_hours"`
	TotalEarnings float64        `json:"total_earnings"`
	Companies     []CompanyShare `json:"companies"`
}

// Summarize totals hours and earnings and computes each company's share of
// the total. Companies are listed in name order.
func Summarize(logs []model.WorkLog, bonuses []model.BonusEvent, bonusAmount float64) Summary {
	var s Summary
	per := map[model.Company]float64{}
	for _, l := range logs {
		s.TotalHours += l.Hours
		s.TotalEarnings += l.Earnings()
		per[l.Company] += l.Earnings()
	}
	for _, b := range bonuses {
		s.TotalEarnings += bonusAmount
		per[b.Company] += bonusAmount
	}

	for c, v := range per {
		share := CompanyShare{Company: c, Earnings: v}
		if s.TotalEarnings > 0 {
			share.Percent = v / s.TotalEarnings * 100
		}
		s.Companies = append(s.Companies, share)
	}
	sort.Slice(s.Companies, func(i, j int) bool { return s.Companies[i].Company < s.Companies[j].Company })
	return s
}

// DayTotal aggregates a single calendar day.
type DayTotal struct {
	Hours    float64
	Earnings float64
	Logs     int
	Bonus    *model.BonusEvent
}

// ByDay groups records per date. Days without records are absent.
func ByDay(logs []model.WorkLog, bonuses []model.BonusEvent, bonusAmount float64) map[model.Date]DayTotal {
	days := map[model.Date]DayTotal{}
	for _, l := range logs {
		d := days[l.Date]
		d.Hours += l.Hours
		d.Earnings += l.Earnings()
		d.Logs++
		days[l.Date] = d
	}
	for i := range bonuses {
		b := bonuses[i]
		d := days[b.Date]
		d.Earnings += bonusAmount
		d.Bonus = &b
		days[b.Date] = d
	}
	return days
}
