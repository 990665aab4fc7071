package cmd

import (
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

var (
	calendarMonth string
	calendarWeek  string
)

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Show earnings per day as a month grid or a week list",
	Long: `Show earnings per day. Without flags the current month is drawn as a
Monday-first grid; days with a bonus event are marked with *.`,
	Args: cobra.NoArgs,
	RunE: runCalendar,
}

func init() {
	calendarCmd.Flags().StringVar(&calendarMonth, "month", "", "Month to show (YYYY-MM), default current")
	calendarCmd.Flags().StringVar(&calendarWeek, "week", "", "Show an ISO week (YYYY-Www) as a list, or \"current\"")
	calendarCmd.MarkFlagsMutuallyExclusive("month", "week")
}

func runCalendar(cmd *cobra.Command, args []string) error {
	now := time.Now()
	out := cmd.OutOrStdout()
	logs := st.WorkLogs()
	days := earnings.ByDay(logs, st.BonusEvents(), cfg.BonusAmount)

	if calendarWeek != "" {
		monday := now
		if calendarWeek != "current" {
			var err error
			if monday, err = timecalc.ParseISOWeek(calendarWeek, now.Location()); err != nil {
				return err
			}
		}
		writeWeek(out, monday, days, logs)
		return nil
	}

	month := now
	if calendarMonth != "" {
		var err error
		if month, err = timecalc.ParseMonth(calendarMonth, now.Location()); err != nil {
			return err
		}
	}
	writeMonthGrid(out, month, days, model.DateOf(now))
	return nil
}

const cellWidth = 10

// writeMonthGrid draws six Monday-first weeks. Each day shows its number and,
// below it, the day's earnings rounded to whole units. Days outside the month
// are left blank; today is marked with brackets.
func writeMonthGrid(w io.Writer, month time.Time, days map[model.Date]earnings.DayTotal, today model.Date) {
	first, _ := timecalc.MonthRange(month)
	fmt.Fprintln(w, first.Format("January 2006"))

	var header strings.Builder
	for _, name := range timecalc.WeekdayNames {
		fmt.Fprintf(&header, "%-*s", cellWidth, name)
	}
	fmt.Fprintln(w, strings.TrimRight(header.String(), " "))

	grid := timecalc.MonthGrid(month)
	var monthTotal float64
	for week := 0; week < timecalc.GridCells/7; week++ {
		var top, bottom strings.Builder
		for _, day := range grid[week*7 : week*7+7] {
			if day.Month() != first.Month() {
				fmt.Fprintf(&top, "%-*s", cellWidth, "")
				fmt.Fprintf(&bottom, "%-*s", cellWidth, "")
				continue
			}
			d := model.DateOf(day)
			label := fmt.Sprintf("%d", day.Day())
			if d == today {
				label = "[" + label + "]"
			}
			t, ok := days[d]
			if ok && t.Bonus != nil {
				label += "*"
			}
			fmt.Fprintf(&top, "%-*s", cellWidth, label)

			value := ""
			if ok && t.Earnings > 0 {
				value = fmt.Sprintf("%.0f", t.Earnings)
				monthTotal += t.Earnings
			}
			fmt.Fprintf(&bottom, "%-*s", cellWidth, value)
		}
		if strings.TrimSpace(top.String()) == "" {
			continue
		}
		fmt.Fprintln(w, strings.TrimRight(top.String(), " "))
		fmt.Fprintln(w, strings.TrimRight(bottom.String(), " "))
	}
	fmt.Fprintf(w, "Month total: %s\n", amount(monthTotal))
}

// writeWeek lists the seven days of the week starting at monday with the
// work logs of each day.
func writeWeek(w io.Writer, monday time.Time, days map[model.Date]earnings.DayTotal, logs []model.WorkLog) {
	start, _ := timecalc.WeekRange(monday)
	fmt.Fprintf(w, "Week %s\n", timecalc.ISOWeekLabel(start))

	byDate := map[model.Date][]model.WorkLog{}
	for _, l := range logs {
		byDate[l.Date] = append(byDate[l.Date], l)
	}

	var total float64
	for i := 0; i < 7; i++ {
		day := start.AddDate(0, 0, i)
		d := model.DateOf(day)
		t := days[d]
		total += t.Earnings

		fmt.Fprintf(w, "%s %s", timecalc.WeekdayNames[i], d)
		if t.Earnings > 0 {
			fmt.Fprintf(w, "  %s", amount(t.Earnings))
		}
		fmt.Fprintln(w)
		for _, l := range byDate[d] {
			fmt.Fprintf(w, "    %-20s %sh × %s\n", l.Company, hours(l.Hours), money.Format(l.Rate))
		}
		if t.Bonus != nil {
			fmt.Fprintf(w, "    %-20s bonus %s\n", t.Bonus.Company, amount(cfg.BonusAmount))
		}
	}
	fmt.Fprintf(w, "Week total: %s\n", amount(total))
}
