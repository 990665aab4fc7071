package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/earn/internal/config"
	"github.com/Tiliavir/earn/internal/logging"
	"github.com/Tiliavir/earn/internal/storage"
	"github.com/Tiliavir/earn/internal/store"
)

var (
	configPath string
	verbose    bool

	cfg    config.Config
	logger *slog.Logger
	st     *store.Store
)

var rootCmd = &cobra.Command{
	Use:   "earn",
	Short: "earn – track hourly shifts and estimate take-home pay",
	Long: `earn is a single-binary income tracker for hourly work.
Shifts, bonus events and company rates are stored locally in ~/.earn/,
either as JSON files or in a SQLite database.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute is the entry point called from main.
func Execute() {
	err := rootCmd.Execute()
	if cerr := teardown(); err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.earn/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")

	rootCmd.AddCommand(companyCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(bonusCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(taxCmd)
	rootCmd.AddCommand(calendarCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(outlookCmd)
}

// storageError marks failures of the persistence layer, which exit with 2.
type storageError struct{ err error }

func (e storageError) Error() string { return e.err.Error() }
func (e storageError) Unwrap() error { return e.err }

// exitCode is 2 for storage failures and 1 for everything else.
func exitCode(err error) int {
	var se storageError
	if errors.As(err, &se) || errors.Is(err, store.ErrPersist) {
		return 2
	}
	return 1
}

// setup loads the configuration and opens the store before every command.
func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return err
	}

	logCfg := logging.DefaultConfig()
	if verbose {
		logCfg.Level = slog.LevelDebug
	}
	logger = logging.Setup(logCfg)

	backend, err := openBackend(cfg)
	if err != nil {
		return storageError{err}
	}
	st = store.Open(backend, store.WithLogger(logger))
	st.Subscribe(func(c store.Change) {
		logger.Debug("records changed", "change", c, logging.FieldComponent, logging.ComponentApp)
	})
	return nil
}

// teardown closes the store opened by setup, if any.
func teardown() error {
	if st == nil {
		return nil
	}
	err := st.Close()
	st = nil
	if err != nil {
		return storageError{err}
	}
	return nil
}

func openBackend(c config.Config) (storage.Backend, error) {
	log := logging.WithComponent(logger, logging.ComponentStorage)
	switch c.Backend {
	case config.BackendSQLite:
		b, err := storage.NewSQLiteBackend(c.SQLitePath)
		if err != nil {
			return nil, err
		}
		log.Debug("backend opened", "backend", c.Backend, "path", c.SQLitePath)
		return b, nil
	default:
		log.Debug("backend opened", "backend", c.Backend, "path", c.DataDir)
		return storage.NewFileBackend(c.DataDir), nil
	}
}
