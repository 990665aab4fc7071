// Package export writes work logs as CSV in the format spreadsheet users of
// the tracker expect.
package export

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/Tiliavir/earn/internal/model"
	"github.com/Tiliavir/earn/internal/money"
)

// ErrNoData is returned when there is nothing to export.
var ErrNoData = errors.New("no data to export")

// NoDataMessage is shown to the user instead of writing an empty file.
const NoDataMessage = "Ingen data at eksportere."

// Row is one CSV line.
type Row struct {
	ID       string `csv:"ID"`
	Company  string `csv:"Firma"`
	Date     string `csv:"Dato"`
	Hours    string `csv:"Timer"`
	Rate     string `csv:"Timeløn"`
	Earnings string `csv:"Indtjening"`
}

// Rows is a CSV document.
type Rows []Row

// NewRows converts logs to rows, keeping their order.
func NewRows(logs []model.WorkLog) Rows {
	rows := make(Rows, 0, len(logs))
	for _, l := range logs {
		rows = append(rows, Row{
			ID:       l.ID,
			Company:  string(l.Company),
			Date:     string(l.Date),
			Hours:    strconv.FormatFloat(l.Hours, 'f', -1, 64),
			Rate:     money.Format(l.Rate),
			Earnings: money.Format(l.Earnings()),
		})
	}
	return rows
}

// Filename returns the export file name for the day of now.
func Filename(now time.Time) string {
	return "work-logs-" + model.DateOf(now).String() + ".csv"
}

// Write encodes logs as CSV to w. An empty slice yields ErrNoData and
// writes nothing.
func Write(w io.Writer, logs []model.WorkLog) error {
	if len(logs) == 0 {
		return ErrNoData
	}
	return gocsv.Marshal(NewRows(logs), w)
}

// WriteFile exports logs to dir/Filename(now) and returns the path. No file
// is created when logs is empty.
func WriteFile(dir string, logs []model.WorkLog, now time.Time) (string, error) {
	if len(logs) == 0 {
		return "", ErrNoData
	}
	path := filepath.Join(dir, Filename(now))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}
	if err := gocsv.MarshalFile(NewRows(logs), f); err != nil {
		f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", path, err)
	}
	return path, nil
}
