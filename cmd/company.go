package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/earn/internal/model"
	"github.com/Tiliavir/earn/internal/money"
	"github.com/Tiliavir/earn/internal/store"
)

var companyDeleteYes bool

var companyCmd = &cobra.Command{
	Use:   "company",
	Short: "Manage companies and their hourly rates",
}

var companyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List companies with their default rate",
	Args:  cobra.NoArgs,
	RunE:  runCompanyList,
}

var companyAddCmd = &cobra.Command{
	Use:   "add <name> <rate>",
	Short: "Add a company",
	Args:  cobra.ExactArgs(2),
	RunE:  runCompanyAdd,
}

var companyRateCmd = &cobra.Command{
	Use:   "rate <name> <rate>",
	Short: "Set the default hourly rate of a company",
	Long: `Set the default hourly rate of a company. The rate applies to new work
logs only; existing logs keep the rate they were recorded with.`,
	Args: cobra.ExactArgs(2),
	RunE: runCompanyRate,
}

var companyDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a company together with all its work logs and bonus events",
	Args:  cobra.ExactArgs(1),
	RunE:  runCompanyDelete,
}

func init() {
	companyDeleteCmd.Flags().BoolVarP(&companyDeleteYes, "yes", "y", false, "Do not ask for confirmation")
	companyCmd.AddCommand(companyListCmd, companyAddCmd, companyRateCmd, companyDeleteCmd)
}

func runCompanyList(cmd *cobra.Command, args []string) error {
	printCompanies(cmd.OutOrStdout(), st.Rates(), st.Calculator().Primary)
	return nil
}

func printCompanies(w io.Writer, rates model.CompanyRates, primary model.Company) {
	if len(rates) == 0 {
		fmt.Fprintln(w, "No companies. Add one with: earn company add <name> <rate>")
		return
	}
	for _, c := range rates.Names() {
		marker := ""
		if c == primary {
			marker = "  (primary)"
		}
		fmt.Fprintf(w, "%-24s%s/h%s\n", c, amount(rates[c]), marker)
	}
}

func runCompanyAdd(cmd *cobra.Command, args []string) error {
	rate, err := money.Parse(args[1])
	if err != nil {
		return fmt.Errorf("rate %q: %w", args[1], err)
	}
	c, err := st.AddCompany(args[0], rate)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added %s at %s/h\n", c, amount(rate))
	return nil
}

func runCompanyRate(cmd *cobra.Command, args []string) error {
	rate, err := money.Parse(args[1])
	if err != nil {
		return fmt.Errorf("rate %q: %w", args[1], err)
	}
	c, err := model.NewCompany(args[0])
	if err != nil {
		return err
	}
	if err := st.SetCompanyRate(c, rate); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s now %s/h\n", c, amount(rate))
	return nil
}

func runCompanyDelete(cmd *cobra.Command, args []string) error {
	c, err := model.NewCompany(args[0])
	if err != nil {
		return err
	}
	if !st.Rates().Has(c) {
		return fmt.Errorf("%w: %q", store.ErrUnknownCompany, c)
	}

	logs, bonuses := 0, 0
	for _, l := range st.WorkLogs() {
		if l.Company == c {
			logs++
		}
	}
	for _, b := range st.BonusEvents() {
		if b.Company == c {
			bonuses++
		}
	}

	out := cmd.OutOrStdout()
	if !companyDeleteYes {
		q := fmt.Sprintf("Delete %s and its %d work logs and %d bonus events?", c, logs, bonuses)
		if !confirm(cmd.InOrStdin(), out, q) {
			fmt.Fprintln(out, "Cancelled.")
			return nil
		}
	}

	res, err := st.DeleteCompany(c)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Deleted %s (%d work logs, %d bonus events)\n", c, res.WorkLogs, res.BonusEvents)
	return nil
}
