package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/earn/internal/config"
	"github.com/Tiliavir/earn/internal/model"
	"github.com/Tiliavir/earn/internal/msgraph"
	"github.com/Tiliavir/earn/internal/timecalc"
)

var (
	outlookSyncFrom    string
	outlookSyncTo      string
	outlookSyncDate    string
	outlookSyncDryRun  bool
	outlookSyncCompany string
	outlookSyncTZ      string
)

var outlookCmd = &cobra.Command{
	Use:   "outlook",
	Short: "Outlook calendar integration",
}

var outlookSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Import Outlook calendar events as work logs",
	Long: `Import Outlook calendar events as work logs.

An event belongs to the company named by one of its categories, or else to
the company whose name appears in its subject. Other events use --company
(or outlook.default_company) and are reported as unmatched when neither is
set. Re-running a sync skips unchanged events and updates changed ones.`,
	Args: cobra.NoArgs,
	RunE: runOutlookSync,
}

func init() {
	outlookSyncCmd.Flags().StringVar(&outlookSyncFrom, "from", "", "Start date (YYYY-MM-DD); required when --to is specified")
	outlookSyncCmd.Flags().StringVar(&outlookSyncTo, "to", "", "End date (YYYY-MM-DD); defaults to today")
	outlookSyncCmd.Flags().StringVar(&outlookSyncDate, "date", "", "Sync a specific date (YYYY-MM-DD); default today")
	outlookSyncCmd.Flags().BoolVar(&outlookSyncDryRun, "dry-run", false, "Print planned operations without writing")
	outlookSyncCmd.Flags().StringVarP(&outlookSyncCompany, "company", "c", "", "Company for events that match none (default outlook.default_company)")
	outlookSyncCmd.Flags().StringVar(&outlookSyncTZ, "timezone", "", "IANA timezone for event times (default outlook.timezone)")
	outlookSyncCmd.MarkFlagsMutuallyExclusive("date", "from")
	outlookSyncCmd.MarkFlagsMutuallyExclusive("date", "to")
	outlookCmd.AddCommand(outlookSyncCmd)
}

// syncWindow resolves the --date/--from/--to flags to [from, to].
func syncWindow(now time.Time, loc *time.Location) (time.Time, time.Time, error) {
	parse := func(flag, v string) (time.Time, error) {
		d, err := model.ParseDate(v)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid --%s value: %w", flag, err)
		}
		return time.ParseInLocation(model.DateLayout, d.String(), loc)
	}
	now = now.In(loc)

	switch {
	case outlookSyncDate != "":
		d, err := parse("date", outlookSyncDate)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		return timecalc.StartOfDay(d), timecalc.EndOfDay(d), nil

	case outlookSyncFrom != "" || outlookSyncTo != "":
		if outlookSyncFrom == "" {
			return time.Time{}, time.Time{}, fmt.Errorf("--from is required when --to is specified")
		}
		from, err := parse("from", outlookSyncFrom)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		to := now
		if outlookSyncTo != "" {
			if to, err = parse("to", outlookSyncTo); err != nil {
				return time.Time{}, time.Time{}, err
			}
		}
		if to.Before(from) {
			return time.Time{}, time.Time{}, fmt.Errorf("--to is before --from")
		}
		return timecalc.StartOfDay(from), timecalc.EndOfDay(to), nil

	default:
		return timecalc.StartOfDay(now), timecalc.EndOfDay(now), nil
	}
}

func runOutlookSync(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	oc := cfg.Outlook
	if outlookSyncTZ != "" {
		oc.Timezone = outlookSyncTZ
	}
	loc, err := config.Config{Outlook: oc}.Location()
	if err != nil {
		return err
	}
	from, to, err := syncWindow(time.Now(), loc)
	if err != nil {
		return err
	}

	company := oc.DefaultCompany
	if outlookSyncCompany != "" {
		company = outlookSyncCompany
	}
	var fallback model.Company
	if company != "" {
		if fallback, err = model.NewCompany(company); err != nil {
			return err
		}
		if !st.Rates().Has(fallback) {
			return fmt.Errorf("--company: unknown company %q", fallback)
		}
	}

	dryTag := ""
	if outlookSyncDryRun {
		dryTag = " [dry-run]"
	}
	fmt.Fprintf(out, "Syncing Outlook events (%s → %s)%s...\n",
		from.Format(model.DateLayout), to.Format(model.DateLayout), dryTag)
	fmt.Fprintln(out)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	dir, err := config.Dir()
	if err != nil {
		return err
	}
	auth := &msgraph.Authenticator{
		TenantID:  oc.TenantID,
		ClientID:  oc.ClientID,
		TokenPath: msgraph.TokenFile(dir),
		Prompt:    out,
		Logger:    logger,
	}
	ts, err := auth.TokenSource(ctx)
	if err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	client := msgraph.NewClient(ctx, ts)
	events, err := client.GetCalendarView(ctx, from, to.Add(time.Second), oc.Timezone)
	if err != nil {
		return fmt.Errorf("failed to fetch calendar events: %w", err)
	}

	result := msgraph.SyncEvents(st, events, msgraph.SyncOptions{
		DryRun:   outlookSyncDryRun,
		Company:  fallback,
		Location: loc,
		Out:      out,
	})

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Summary:")
	fmt.Fprintf(out, "  %d imported\n", result.Imported)
	fmt.Fprintf(out, "  %d skipped\n", result.Skipped)
	fmt.Fprintf(out, "  %d updated\n", result.Updated)
	if result.Unmatched > 0 {
		fmt.Fprintf(out, "  %d unmatched\n", result.Unmatched)
	}
	if result.Errors > 0 {
		fmt.Fprintf(out, "  %d errors\n", result.Errors)
		return storageError{fmt.Errorf("%d events could not be imported", result.Errors)}
	}
	return nil
}
