package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/earn/internal/earnings"
	"github.com/Tiliavir/earn/internal/model"
	"github.com/Tiliavir/earn/internal/money"
	"github.com/Tiliavir/earn/internal/store"
)

var (
	logAddCompany string
	logAddDate    string
	logAddHours   string
	logAddRate    string

	logListRange   rangeFlags
	logListCompany string
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Record, list and delete work logs",
}

var logAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Log hours worked for a company",
	Example: `  earn log add --company Kraftvrk --hours 2.5
  earn log add --company "Arte Suave" --date 2024-05-01 --hours 1,5 --rate 280`,
	Args: cobra.NoArgs,
	RunE: runLogAdd,
}

var logListCmd = &cobra.Command{
	Use:   "list",
	Short: "List work logs, newest first (default: this month)",
	Args:  cobra.NoArgs,
	RunE:  runLogList,
}

var logDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a work log",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogDelete,
}

func init() {
	logAddCmd.Flags().StringVarP(&logAddCompany, "company", "c", "", "Company (required)")
	logAddCmd.Flags().StringVarP(&logAddDate, "date", "d", "", "Date (YYYY-MM-DD), default today")
	logAddCmd.Flags().StringVar(&logAddHours, "hours", "", "Hours worked (required)")
	logAddCmd.Flags().StringVar(&logAddRate, "rate", "", "Hourly rate, default the company's rate")
	_ = logAddCmd.MarkFlagRequired("company")
	_ = logAddCmd.MarkFlagRequired("hours")

	logListRange.register(logListCmd)
	logListCmd.Flags().StringVarP(&logListCompany, "company", "c", "", "Only this company")

	logCmd.AddCommand(logAddCmd, logListCmd, logDeleteCmd)
}

func runLogAdd(cmd *cobra.Command, args []string) error {
	c, err := model.NewCompany(logAddCompany)
	if err != nil {
		return err
	}
	d, err := parseDateOrToday(logAddDate, time.Now())
	if err != nil {
		return err
	}
	h, err := money.Parse(logAddHours)
	if err != nil {
		return fmt.Errorf("hours %q: %w", logAddHours, err)
	}

	rate, ok := st.Rates()[c]
	if logAddRate != "" {
		if rate, err = money.Parse(logAddRate); err != nil {
			return fmt.Errorf("rate %q: %w", logAddRate, err)
		}
	} else if !ok {
		return fmt.Errorf("%w: %q", store.ErrUnknownCompany, c)
	}

	l, err := st.AddWorkLog(store.WorkLogInput{Company: c, Date: d, Hours: h, Rate: rate})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Logged %sh for %s on %s: %s  [%s]\n",
		hours(l.Hours), l.Company, l.Date, amount(l.Earnings()), l.ID)
	return nil
}

func runLogList(cmd *cobra.Command, args []string) error {
	r, label, err := logListRange.resolve(time.Now())
	if err != nil {
		return err
	}
	logs := earnings.FilterLogs(st.WorkLogs(), r)
	if logListCompany != "" {
		filtered := logs[:0]
		for _, l := range logs {
			if string(l.Company) == logListCompany {
				filtered = append(filtered, l)
			}
		}
		logs = filtered
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, label)
	printLogs(out, logs)
	return nil
}

// printLogs groups logs by date, newest first.
func printLogs(w io.Writer, logs []model.WorkLog) {
	if len(logs) == 0 {
		fmt.Fprintln(w, "No work logs found.")
		return
	}

	var currentDay model.Date
	var totalHours, total float64
	for _, l := range logs {
		if l.Date != currentDay {
			fmt.Fprintln(w, l.Date)
			currentDay = l.Date
		}
		fmt.Fprintf(w, "  %-20s %6sh × %-10s %12s  %s\n",
			l.Company, hours(l.Hours), money.Format(l.Rate), amount(l.Earnings()), l.ID)
		totalHours += l.Hours
		total += l.Earnings()
	}
	fmt.Fprintf(w, "Total: %sh, %s\n", hours(totalHours), amount(total))
}

func runLogDelete(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	l, ok := st.WorkLog(args[0])
	if !ok {
		fmt.Fprintf(out, "No work log with id %s.\n", args[0])
		return nil
	}
	if _, err := st.DeleteWorkLog(l.ID); err != nil {
		return err
	}
	fmt.Fprintf(out, "Deleted %s, %s: %sh × %s = %s  [%s]\n",
		l.Date, l.Company, hours(l.Hours), money.Format(l.Rate), amount(l.Earnings()), l.ID)
	return nil
}
