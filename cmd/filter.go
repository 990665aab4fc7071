package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/earn/internal/earnings"
	"github.com/Tiliavir/earn/internal/model"
	"github.com/Tiliavir/earn/internal/money"
	"github.com/Tiliavir/earn/internal/timecalc"
)

// rangeFlags is the date filter shared by the listing and reporting commands.
type rangeFlags struct {
	from  string
	to    string
	month string
	week  string
	all   bool
}

func (f *rangeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.from, "from", "", "Start date (YYYY-MM-DD), inclusive")
	cmd.Flags().StringVar(&f.to, "to", "", "End date (YYYY-MM-DD), inclusive")
	cmd.Flags().StringVar(&f.month, "month", "", "Calendar month (YYYY-MM)")
	cmd.Flags().StringVar(&f.week, "week", "", "ISO week (YYYY-Www), or \"current\"")
	cmd.Flags().BoolVar(&f.all, "all", false, "No date filter")
	cmd.MarkFlagsMutuallyExclusive("month", "week", "all")
	cmd.MarkFlagsMutuallyExclusive("from", "month")
	cmd.MarkFlagsMutuallyExclusive("from", "week")
	cmd.MarkFlagsMutuallyExclusive("from", "all")
	cmd.MarkFlagsMutuallyExclusive("to", "month")
	cmd.MarkFlagsMutuallyExclusive("to", "week")
	cmd.MarkFlagsMutuallyExclusive("to", "all")
}

// resolve turns the flags into a date range and a label for headings. With
// no flags set the range is the month containing now.
func (f rangeFlags) resolve(now time.Time) (earnings.Range, string, error) {
	switch {
	case f.all:
		return earnings.Range{}, "All time", nil

	case f.week != "":
		monday := now
		if f.week != "current" {
			var err error
			if monday, err = timecalc.ParseISOWeek(f.week, now.Location()); err != nil {
				return earnings.Range{}, "", err
			}
		}
		from, to := timecalc.WeekRange(monday)
		return earnings.Range{Start: model.DateOf(from), End: model.DateOf(to)}, "Week " + timecalc.ISOWeekLabel(from), nil

	case f.from != "" || f.to != "":
		var r earnings.Range
		if f.from != "" {
			d, err := model.ParseDate(f.from)
			if err != nil {
				return earnings.Range{}, "", fmt.Errorf("--from: %w", err)
			}
			r.Start = d
		}
		if f.to != "" {
			d, err := model.ParseDate(f.to)
			if err != nil {
				return earnings.Range{}, "", fmt.Errorf("--to: %w", err)
			}
			r.End = d
		}
		if !r.Start.IsZero() && !r.End.IsZero() && r.End < r.Start {
			return earnings.Range{}, "", fmt.Errorf("--to %s is before --from %s", r.End, r.Start)
		}
		return r, rangeLabel(r), nil

	default:
		month := now
		if f.month != "" {
			var err error
			if month, err = timecalc.ParseMonth(f.month, now.Location()); err != nil {
				return earnings.Range{}, "", err
			}
		}
		from, to := timecalc.MonthRange(month)
		return earnings.Range{Start: model.DateOf(from), End: model.DateOf(to)}, from.Format("January 2006"), nil
	}
}

func rangeLabel(r earnings.Range) string {
	start, end := "…", "…"
	if !r.Start.IsZero() {
		start = r.Start.String()
	}
	if !r.End.IsZero() {
		end = r.End.String()
	}
	return start + " – " + end
}

// parseDateOrToday parses s, defaulting to the day of now when empty.
func parseDateOrToday(s string, now time.Time) (model.Date, error) {
	if s == "" {
		return model.DateOf(now), nil
	}
	return model.ParseDate(s)
}

// confirm asks a y/N question on out and reads the answer from in. Anything
// but "y" or "yes" declines.
func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", question)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

// amount renders v with the configured currency label.
func amount(v float64) string {
	return money.FormatWithCurrency(v, cfg.Currency)
}

// trimmed renders v with at most two decimals and no trailing zeros.
func trimmed(v float64) string {
	s := money.Format(v)
	if !strings.Contains(s, ".") {
		return s
	}
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

// hours renders an hour count, e.g. "1.5".
func hours(v float64) string { return trimmed(v) }

// percent renders a percentage, e.g. "37%" or "8.5%".
func percent(v float64) string { return trimmed(v) + "%" }
