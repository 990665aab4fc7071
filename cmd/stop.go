package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/earn/internal/money"
	"github.com/Tiliavir/earn/internal/store"
	"github.com/Tiliavir/earn/internal/timecalc"
)

var stopDiscard bool

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running shift and log it",
	Long: `Stop the running shift. The elapsed time is rounded to hundredths of an
hour and logged at the rate captured by "earn start", dated on the day the
shift began.`,
	Args: cobra.NoArgs,
	RunE: runStop,
}

func init() {
	stopCmd.Flags().BoolVar(&stopDiscard, "discard", false, "Drop the shift without logging it")
}

func runStop(cmd *cobra.Command, args []string) error {
	now := time.Now()
	out := cmd.OutOrStdout()

	active := st.ActiveShift()
	if active == nil {
		return fmt.Errorf("%w to stop", store.ErrNoActiveShift)
	}
	elapsed := timecalc.FormatDuration(int64(now.Sub(active.Start).Seconds()))

	if stopDiscard {
		if err := st.DiscardShift(); err != nil {
			return err
		}
		fmt.Fprintf(out, "Discarded %s shift for %s\n", elapsed, active.Company)
		return nil
	}

	l, err := st.StopShift(now)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Stopped %s shift for %s\n", elapsed, l.Company)
	fmt.Fprintf(out, "Logged %sh × %s on %s: %s  [%s]\n",
		hours(l.Hours), money.Format(l.Rate), l.Date, amount(l.Earnings()), l.ID)
	return nil
}
