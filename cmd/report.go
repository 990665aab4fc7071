package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/spf13/cobra"

	"github.com/Tiliavir/earn/internal/earnings"
	"github.com/Tiliavir/earn/internal/money"
)

var (
	reportRange  rangeFlags
	reportFormat string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show earnings per company and the monthly trend (default: this month)",
	Args:  cobra.NoArgs,
	RunE:  runReport,
}

func init() {
	reportRange.register(reportCmd)
	reportCmd.Flags().StringVar(&reportFormat, "format", "md", "Output format: md, csv, json")
}

// report is the data behind every output format of `earn report`.
type report struct {
	Period     string                `json:"period"`
	Summary    earnings.Summary      `json:"summary"`
	BonusCount int                   `json:"bonus_events"`
	Months     []earnings.MonthTotal `json:"months"`
}

type reportRow struct {
	Company  string `csv:"company"`
	Earnings string `csv:"earnings"`
	Percent  string `csv:"percent"`
}

func runReport(cmd *cobra.Command, args []string) error {
	r, label, err := reportRange.resolve(time.Now())
	if err != nil {
		return err
	}
	logs, bonuses := st.WorkLogs(), st.BonusEvents()
	inRange := earnings.FilterBonuses(bonuses, r)

	rep := report{
		Period:     label,
		Summary:    earnings.Summarize(earnings.FilterLogs(logs, r), inRange, cfg.BonusAmount),
		BonusCount: len(inRange),
		Months:     earnings.ByMonth(logs, bonuses, cfg.BonusAmount),
	}

	out := cmd.OutOrStdout()
	switch reportFormat {
	case "csv":
		return writeReportCSV(out, rep)
	case "json":
		data, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding JSON: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	case "md", "":
		writeReportMarkdown(out, rep)
		return nil
	default:
		return fmt.Errorf("unknown format %q (want md, csv or json)", reportFormat)
	}
}

func writeReportCSV(w io.Writer, rep report) error {
	rows := make([]reportRow, 0, len(rep.Summary.Companies)+1)
	for _, c := range rep.Summary.Companies {
		rows = append(rows, reportRow{
			Company:  string(c.Company),
			Earnings: money.Format(c.Earnings),
			Percent:  money.Format(c.Percent),
		})
	}
	rows = append(rows, reportRow{Company: "Total", Earnings: money.Format(rep.Summary.TotalEarnings), Percent: money.Format(100)})
	return gocsv.Marshal(rows, w)
}

func writeReportMarkdown(w io.Writer, rep report) {
	const rule = "----------------------------------------------"
	fmt.Fprintln(w, rep.Period)
	fmt.Fprintln(w, rule)
	if len(rep.Summary.Companies) == 0 {
		fmt.Fprintln(w, "No earnings in this period.")
	}
	for _, c := range rep.Summary.Companies {
		fmt.Fprintf(w, "%-22s%14s %6s%%\n", c.Company, amount(c.Earnings), money.Format(c.Percent))
	}
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "%-22s%14s\n", "Total", amount(rep.Summary.TotalEarnings))
	fmt.Fprintf(w, "%-22s%14s\n", "Hours", hours(rep.Summary.TotalHours))
	fmt.Fprintf(w, "%-22s%14d\n", "Bonus events", rep.BonusCount)

	if len(rep.Months) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Monthly earnings")
	fmt.Fprintln(w, rule)
	writeTrend(w, rep.Months, 24)
}

// writeTrend draws one bar per month, scaled so the best month is width wide.
func writeTrend(w io.Writer, months []earnings.MonthTotal, width int) {
	var max float64
	for _, m := range months {
		max = math.Max(max, m.Earnings)
	}
	for _, m := range months {
		n := 0
		if max > 0 {
			n = int(math.Round(m.Earnings / max * float64(width)))
		}
		fmt.Fprintf(w, "%s  %-*s %s\n", m.Month, width, strings.Repeat("█", n), amount(m.Earnings))
	}
}
