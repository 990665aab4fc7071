package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/earn/internal/earnings"
	"github.com/Tiliavir/earn/internal/model"
)

var (
	bonusCompany string
	bonusDate    string

	bonusListRange rangeFlags
)

var bonusCmd = &cobra.Command{
	Use:     "bonus",
	Aliases: []string{"video"},
	Short:   "Flag video post bonus events (at most one per day)",
}

var bonusAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a bonus event; replaces the company of an existing event on that date",
	Args:  cobra.NoArgs,
	RunE:  runBonusAdd,
}

var bonusDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove the bonus event on a date",
	Args:  cobra.NoArgs,
	RunE:  runBonusDelete,
}

var bonusListCmd = &cobra.Command{
	Use:   "list",
	Short: "List bonus events (default: this month)",
	Args:  cobra.NoArgs,
	RunE:  runBonusList,
}

func init() {
	bonusAddCmd.Flags().StringVarP(&bonusCompany, "company", "c", "", "Company (required)")
	_ = bonusAddCmd.MarkFlagRequired("company")
	for _, c := range []*cobra.Command{bonusAddCmd, bonusDeleteCmd} {
		c.Flags().StringVarP(&bonusDate, "date", "d", "", "Date (YYYY-MM-DD), default today")
	}
	bonusListRange.register(bonusListCmd)

	bonusCmd.AddCommand(bonusAddCmd, bonusDeleteCmd, bonusListCmd)
}

func runBonusAdd(cmd *cobra.Command, args []string) error {
	c, err := model.NewCompany(bonusCompany)
	if err != nil {
		return err
	}
	d, err := parseDateOrToday(bonusDate, time.Now())
	if err != nil {
		return err
	}

	previous, existed := st.BonusEvent(d)
	ev, err := st.UpsertBonusEvent(d, c)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if existed && previous.Company != ev.Company {
		fmt.Fprintf(out, "Bonus on %s moved from %s to %s\n", d, previous.Company, ev.Company)
		return nil
	}
	fmt.Fprintf(out, "Bonus on %s for %s: %s\n", d, ev.Company, amount(cfg.BonusAmount))
	return nil
}

func runBonusDelete(cmd *cobra.Command, args []string) error {
	d, err := parseDateOrToday(bonusDate, time.Now())
	if err != nil {
		return err
	}
	removed, err := st.DeleteBonusEvent(d)
	if err != nil {
		return err
	}
	if !removed {
		fmt.Fprintf(cmd.OutOrStdout(), "No bonus event on %s.\n", d)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed bonus event on %s\n", d)
	return nil
}

func runBonusList(cmd *cobra.Command, args []string) error {
	r, label, err := bonusListRange.resolve(time.Now())
	if err != nil {
		return err
	}
	events := earnings.FilterBonuses(st.BonusEvents(), r)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, label)
	if len(events) == 0 {
		fmt.Fprintln(out, "No bonus events found.")
		return nil
	}
	for _, ev := range events {
		fmt.Fprintf(out, "  %s  %-20s %s\n", ev.Date, ev.Company, amount(cfg.BonusAmount))
	}
	fmt.Fprintf(out, "Total: %d × %s = %s\n", len(events), amount(cfg.BonusAmount),
		amount(float64(len(events))*cfg.BonusAmount))
	return nil
}
