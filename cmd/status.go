package cmd

import (
	"fmt"
	"math"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/earn/internal/earnings"
	"github.com/Tiliavir/earn/internal/model"
	"github.com/Tiliavir/earn/internal/timecalc"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the running shift and today's and this month's earnings",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	now := time.Now()
	out := cmd.OutOrStdout()

	if active := st.ActiveShift(); active != nil {
		elapsed := int64(now.Sub(active.Start).Seconds())
		fmt.Fprintln(out, "Running:")
		fmt.Fprintf(out, "  Company: %s\n", active.Company)
		fmt.Fprintf(out, "  Since: %s\n", active.Start.Format("15:04"))
		fmt.Fprintf(out, "  Elapsed: %s\n", timecalc.FormatDurationHHMMSS(elapsed))
		fmt.Fprintf(out, "  Earned so far: %s\n", amount(now.Sub(active.Start).Hours()*active.Rate))
	} else {
		fmt.Fprintln(out, "No active shift.")
	}

	logs, bonuses := st.WorkLogs(), st.BonusEvents()
	today := model.DateOf(now)
	day := earnings.ByDay(logs, bonuses, cfg.BonusAmount)[today]

	from, to := timecalc.MonthRange(now)
	month := earnings.GrandTotal(earnings.ByCompany(logs, bonuses,
		earnings.Range{Start: model.DateOf(from), End: model.DateOf(to)}, cfg.BonusAmount))

	if day.Hours > 0 {
		fmt.Fprintf(out, "Today: %s logged, %s.\n", timecalc.FormatDuration(int64(math.Round(day.Hours*3600))), amount(day.Earnings))
	} else {
		fmt.Fprintf(out, "Today: nothing logged, %s.\n", amount(day.Earnings))
	}
	fmt.Fprintf(out, "%s: %s.\n", from.Format("January"), amount(month))
	return nil
}
