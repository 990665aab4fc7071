package msgraph

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/Tiliavir/earn/internal/model"
	"github.com/Tiliavir/earn/internal/money"
	"github.com/Tiliavir/earn/internal/store"
)

// ErrNoCompany is returned when an event matches no company and no fallback
// company is configured.
var ErrNoCompany = errors.New("no matching company")

// WorkLogStore is the part of the record store the import writes to.
type WorkLogStore interface {
	Rates() model.CompanyRates
	WorkLogByExternalID(externalID string) (model.WorkLog, bool)
	AddWorkLog(in store.WorkLogInput) (model.WorkLog, error)
	UpdateWorkLog(id string, in store.WorkLogInput) (model.WorkLog, error)
}

// SyncResult holds counters for a sync operation.
type SyncResult struct {
	Imported  int
	Skipped   int
	Updated   int
	Unmatched int
	Errors    int
}

// SyncOptions configures a sync run.
type SyncOptions struct {
	DryRun bool
	// Company is used for events that match no company by category or subject.
	Company  model.Company
	Location *time.Location
	// Out receives one progress line per event.
	Out io.Writer
}

// parseGraphTime parses a Graph API dateTime string in loc.
// Graph returns times like "2026-02-27T09:00:00.0000000" without a zone suffix
// when a Prefer: outlook.timezone header is set.
func parseGraphTime(dt string, loc *time.Location) (time.Time, error) {
	// Try RFC3339 first (includes timezone offset).
	if t, err := time.Parse(time.RFC3339Nano, dt); err == nil {
		return t.In(loc), nil
	}
	// Graph returns fractional seconds: "2026-02-27T09:00:00.0000000"
	for _, layout := range []string{
		"2006-01-02T15:04:05.0000000",
		"2006-01-02T15:04:05",
	} {
		if t, err := time.ParseInLocation(layout, dt, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse graph time %q", dt)
}

// shouldSkip returns true if the event should not be imported.
func shouldSkip(event CalendarEvent) bool {
	if event.IsCancelled {
		return true
	}
	if event.IsAllDay {
		return true
	}
	if event.ShowAs == "free" {
		return true
	}
	if event.Start.DateTime == "" || event.End.DateTime == "" {
		return true
	}
	return false
}

// MatchCompany finds the company an event belongs to. A category equal to a
// company name wins; otherwise the longest company name contained in the
// subject is used. Both comparisons ignore case.
func MatchCompany(event CalendarEvent, rates model.CompanyRates) (model.Company, bool) {
	names := rates.Names()
	for _, cat := range event.Categories {
		for _, c := range names {
			if strings.EqualFold(strings.TrimSpace(cat), string(c)) {
				return c, true
			}
		}
	}

	subject := strings.ToLower(event.Subject)
	sort.SliceStable(names, func(i, j int) bool { return len(names[i]) > len(names[j]) })
	for _, c := range names {
		if strings.Contains(subject, strings.ToLower(string(c))) {
			return c, true
		}
	}
	return "", false
}

// MapEventToWorkLog converts a Graph CalendarEvent into a work log input at
// the company's current rate. The log is dated on the day the event starts
// in loc; hours are rounded to two decimals.
func MapEventToWorkLog(event CalendarEvent, loc *time.Location, rates model.CompanyRates, fallback model.Company) (store.WorkLogInput, error) {
	if loc == nil {
		loc = time.UTC
	}
	startTime, err := parseGraphTime(event.Start.DateTime, loc)
	if err != nil {
		return store.WorkLogInput{}, fmt.Errorf("parsing start time: %w", err)
	}
	endTime, err := parseGraphTime(event.End.DateTime, loc)
	if err != nil {
		return store.WorkLogInput{}, fmt.Errorf("parsing end time: %w", err)
	}

	company, ok := MatchCompany(event, rates)
	if !ok {
		if fallback == "" || !rates.Has(fallback) {
			return store.WorkLogInput{}, ErrNoCompany
		}
		company = fallback
	}

	return store.WorkLogInput{
		Company:    company,
		Date:       model.DateOf(startTime),
		Hours:      math.Round(endTime.Sub(startTime).Hours()*100) / 100,
		Rate:       rates[company],
		ExternalID: event.ID,
		Source:     store.SourceOutlook,
	}, nil
}

func sameShift(l model.WorkLog, in store.WorkLogInput) bool {
	return l.Company == in.Company && l.Date == in.Date && l.Hours == in.Hours
}

// SyncEvents imports events into s. Events already imported with the same
// company, date and hours are skipped; changed ones are updated in place and
// keep the rate they were first imported with.
func SyncEvents(s WorkLogStore, events []CalendarEvent, opts SyncOptions) SyncResult {
	var result SyncResult
	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	rates := s.Rates()

	for _, event := range events {
		if shouldSkip(event) {
			continue
		}

		in, err := MapEventToWorkLog(event, opts.Location, rates, opts.Company)
		if errors.Is(err, ErrNoCompany) {
			fmt.Fprintf(out, "  ? Unmatched: %s (use --company)\n", event.Subject)
			result.Unmatched++
			continue
		}
		if err != nil {
			fmt.Fprintf(out, "  ! Error mapping event %q: %v\n", event.Subject, err)
			result.Errors++
			continue
		}
		if in.Hours <= 0 {
			continue
		}
		label := fmt.Sprintf("%s %s, %s (%sh)", in.Date, event.Subject, in.Company, money.Format(in.Hours))

		if found, ok := s.WorkLogByExternalID(event.ID); ok {
			if sameShift(found, in) {
				fmt.Fprintf(out, "  – Skipped:  %s (already exists)\n", label)
				result.Skipped++
				continue
			}
			in.Rate = found.Rate
			if !opts.DryRun {
				if _, err := s.UpdateWorkLog(found.ID, in); err != nil {
					fmt.Fprintf(out, "  ! Error updating %q: %v\n", event.Subject, err)
					result.Errors++
					continue
				}
			}
			fmt.Fprintf(out, "  ↑ Updated:  %s\n", label)
			result.Updated++
			continue
		}

		if !opts.DryRun {
			if _, err := s.AddWorkLog(in); err != nil {
				fmt.Fprintf(out, "  ! Error saving %q: %v\n", event.Subject, err)
				result.Errors++
				continue
			}
		}
		fmt.Fprintf(out, "  ✓ Imported: %s\n", label)
		result.Imported++
	}

	return result
}
