package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/earn/internal/model"
	"github.com/Tiliavir/earn/internal/store"
	"github.com/Tiliavir/earn/internal/timecalc"
)

var startCmd = &cobra.Command{
	Use:   "start <company>",
	Short: "Start a shift timer for a company",
	Long: `Start a shift timer. The company's current rate is captured now;
"earn stop" turns the shift into a work log dated on the start day.`,
	Args: cobra.ExactArgs(1),
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	c, err := model.NewCompany(args[0])
	if err != nil {
		return err
	}
	now := time.Now()
	shift, err := st.StartShift(c, now)
	if errors.Is(err, store.ErrShiftRunning) {
		running := st.ActiveShift()
		return fmt.Errorf("%w: %s for %s, stop it first with \"earn stop\"",
			store.ErrShiftRunning, running.Company, timecalc.FormatDuration(int64(now.Sub(running.Start).Seconds())))
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Started %s at %s, %s/h\n",
		shift.Company, shift.Start.Format("15:04"), amount(shift.Rate))
	return nil
}
