package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/earn/internal/earnings"
	"github.com/Tiliavir/earn/internal/export"
	"github.com/Tiliavir/earn/internal/logging"
)

var (
	exportRange  rangeFlags
	exportDir    string
	exportStdout bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export work logs to work-logs-YYYY-MM-DD.csv (default: this month)",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

func init() {
	exportRange.register(exportCmd)
	exportCmd.Flags().StringVar(&exportDir, "dir", ".", "Directory to write the file to")
	exportCmd.Flags().BoolVar(&exportStdout, "stdout", false, "Write the CSV to stdout instead of a file")
}

func runExport(cmd *cobra.Command, args []string) error {
	now := time.Now()
	r, _, err := exportRange.resolve(now)
	if err != nil {
		return err
	}
	logs := earnings.FilterLogs(st.WorkLogs(), r)
	out := cmd.OutOrStdout()
	log := logging.WithComponent(logger, logging.ComponentExport)

	op, path := "stdout", ""
	if exportStdout {
		err = export.Write(out, logs)
	} else {
		op = "file"
		path, err = export.WriteFile(exportDir, logs, now)
	}
	if errors.Is(err, export.ErrNoData) {
		fmt.Fprintln(cmd.ErrOrStderr(), export.NoDataMessage)
		return nil
	}
	if err != nil {
		log.Error("export failed", logging.FieldOperation, op, logging.FieldError, err)
		return storageError{err}
	}
	log.Debug("work logs exported", logging.FieldOperation, op, "count", len(logs), "path", path)
	if path != "" {
		fmt.Fprintf(out, "Exported %d work logs to %s\n", len(logs), path)
	}
	return nil
}
