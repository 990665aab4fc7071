package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/earn/internal/earnings"
	"github.com/Tiliavir/earn/internal/model"
	"github.com/Tiliavir/earn/internal/money"
	"github.com/Tiliavir/earn/internal/tax"
)

var (
	taxRange  rangeFlags
	taxFormat string

	taxSetDeduction    string
	taxSetPrimary      string
	taxSetCompany      string
	taxSetContribution string
	taxSetIncomeTax    string
)

var taxCmd = &cobra.Command{
	Use:   "tax",
	Short: "Estimate AM-contribution, A-tax and net pay (default: this month)",
	Long: `Estimate take-home pay per company from gross earnings.

For each company: AM-contribution = gross × contribution%; the monthly
deduction is subtracted for the primary company only; A-tax = taxable base
× income tax%; net = gross − contribution − A-tax.

` + tax.Disclaimer,
	Args: cobra.NoArgs,
	RunE: runTax,
}

var taxSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change the deduction, primary company or a company's percentages",
	Example: `  earn tax set --deduction 4200 --primary Kraftvrk
  earn tax set --company "Arte Suave" --contribution 8 --income-tax 40`,
	Args: cobra.NoArgs,
	RunE: runTaxSet,
}

func init() {
	taxRange.register(taxCmd)
	taxCmd.Flags().StringVar(&taxFormat, "format", "md", "Output format: md, json")

	taxSetCmd.Flags().StringVar(&taxSetDeduction, "deduction", "", "Monthly deduction for the primary company")
	taxSetCmd.Flags().StringVar(&taxSetPrimary, "primary", "", "Primary company (receives the deduction)")
	taxSetCmd.Flags().StringVarP(&taxSetCompany, "company", "c", "", "Company whose percentages to change")
	taxSetCmd.Flags().StringVar(&taxSetContribution, "contribution", "", "AM-contribution percent")
	taxSetCmd.Flags().StringVar(&taxSetIncomeTax, "income-tax", "", "A-tax percent")
	taxSetCmd.MarkFlagsRequiredTogether("company", "contribution", "income-tax")
	taxSetCmd.MarkFlagsOneRequired("deduction", "primary", "company")

	taxCmd.AddCommand(taxSetCmd)
}

func runTax(cmd *cobra.Command, args []string) error {
	r, label, err := taxRange.resolve(time.Now())
	if err != nil {
		return err
	}
	gross := earnings.ByCompany(st.WorkLogs(), st.BonusEvents(), r, cfg.BonusAmount)
	calc := st.Calculator()
	res := tax.Estimate(gross, calc.Taxes, calc.Primary, calc.Deduction)

	out := cmd.OutOrStdout()
	switch taxFormat {
	case "json":
		data, err := json.MarshalIndent(struct {
			Period string `json:"period"`
			tax.Result
		}{label, res}, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding JSON: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	case "md", "":
		writeTaxEstimate(out, label, res, calc)
		return nil
	default:
		return fmt.Errorf("unknown format %q (want md or json)", taxFormat)
	}
}

func writeTaxEstimate(w io.Writer, label string, res tax.Result, calc model.CalculatorSettings) {
	const rule = "----------------------------------------------"
	fmt.Fprintf(w, "Tax estimate, %s\n", label)
	if len(res.Rows) == 0 {
		fmt.Fprintln(w, "No earnings in this period.")
		return
	}
	for _, row := range res.Rows {
		s := calc.TaxFor(row.Company)
		fmt.Fprintln(w, rule)
		title := string(row.Company)
		if row.Company == calc.Primary {
			title += " (primary)"
		}
		fmt.Fprintln(w, title)
		fmt.Fprintf(w, "  %-26s%14s\n", "Gross", amount(row.Gross))
		fmt.Fprintf(w, "  %-26s%14s\n", fmt.Sprintf("AM-contribution (%s)", percent(s.ContributionPercent)), "-"+amount(row.Contribution))
		if row.Deduction > 0 {
			fmt.Fprintf(w, "  %-26s%14s\n", "Deduction", amount(row.Deduction))
		}
		fmt.Fprintf(w, "  %-26s%14s\n", "Taxable base", amount(row.TaxableBase))
		fmt.Fprintf(w, "  %-26s%14s\n", fmt.Sprintf("A-tax (%s)", percent(s.IncomeTaxPercent)), "-"+amount(row.IncomeTax))
		fmt.Fprintf(w, "  %-26s%14s\n", "Net", amount(row.Net))
	}
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "%-28s%14s\n", "Total gross", amount(res.Gross))
	fmt.Fprintf(w, "%-28s%14s\n", "Total AM-contribution", amount(res.Contribution))
	fmt.Fprintf(w, "%-28s%14s\n", "Total A-tax", amount(res.IncomeTax))
	fmt.Fprintf(w, "%-28s%14s\n", "Total net", amount(res.Net))
	fmt.Fprintln(w)
	fmt.Fprintln(w, tax.Disclaimer)
}

func runTaxSet(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if taxSetDeduction != "" {
		v, err := money.Parse(taxSetDeduction)
		if err != nil {
			return fmt.Errorf("deduction %q: %w", taxSetDeduction, err)
		}
		if err := st.SetDeduction(v); err != nil {
			return err
		}
		fmt.Fprintf(out, "Deduction set to %s\n", amount(v))
	}

	if taxSetPrimary != "" {
		c, err := model.NewCompany(taxSetPrimary)
		if err != nil {
			return err
		}
		if err := st.SetPrimaryCompany(c); err != nil {
			return err
		}
		fmt.Fprintf(out, "Primary company set to %s\n", c)
	}

	if taxSetCompany != "" {
		c, err := model.NewCompany(taxSetCompany)
		if err != nil {
			return err
		}
		contribution, err1 := money.Parse(taxSetContribution)
		incomeTax, err2 := money.Parse(taxSetIncomeTax)
		if err := errors.Join(err1, err2); err != nil {
			return fmt.Errorf("percentages: %w", err)
		}
		s := model.TaxSettings{ContributionPercent: contribution, IncomeTaxPercent: incomeTax}
		if err := st.SetTaxSettings(c, s); err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: AM-contribution %s, A-tax %s\n", c, percent(contribution), percent(incomeTax))
	}
	return nil
}
