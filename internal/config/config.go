package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Tiliavir/earn/internal/earnings"
)

// Config is the root configuration for earn, stored in ~/.earn/config.yaml.
// Every key can be overridden with an EARN_ environment variable, e.g.
// EARN_BACKEND=sqlite or EARN_OUTLOOK_TIMEZONE=Europe/Copenhagen.
type Config struct {
	// DataDir holds the JSON blobs of the file backend.
	DataDir string `mapstructure:"data_dir"`
	// Backend selects the storage backend: "file" or "sqlite".
	Backend string `mapstructure:"backend"`
	// SQLitePath is the database file used by the sqlite backend.
	SQLitePath string `mapstructure:"sqlite_path"`
	// BonusAmount is what one bonus event (video post) earns.
	BonusAmount float64 `mapstructure:"bonus_amount"`
	// Currency is printed in front of amounts. Empty prints bare numbers.
	Currency string `mapstructure:"currency"`

	Outlook OutlookConfig `mapstructure:"outlook"`
}

// OutlookConfig holds Microsoft Graph / Outlook calendar import settings.
type OutlookConfig struct {
	// TenantID is the Azure AD tenant. Use "common" for personal/multi-tenant accounts.
	TenantID string `mapstructure:"tenant_id"`
	// ClientID is the Azure app (client) ID for the OAuth2 device code flow.
	ClientID string `mapstructure:"client_id"`
	// DefaultCompany is used for events whose company cannot be matched.
	DefaultCompany string `mapstructure:"default_company"`
	// Timezone is the IANA timezone for event times. Empty = UTC.
	Timezone string `mapstructure:"timezone"`
}

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"

	// DefaultTenantID is the Microsoft "common" tenant.
	DefaultTenantID = "common"
	// DefaultClientID is the well-known public Azure CLI app ID. It supports
	// device code flow without a client secret or app registration.
	DefaultClientID = "04b07795-8542-4c4a-95af-30b2c573d5ab"
	DefaultBonusAmount = earnings.DefaultBonusAmount
	DefaultCurrency    = "kr."

	envPrefix = "EARN"
	fileName  = "config.yaml"
)

var (
	ErrInvalidBackend  = errors.New("backend must be \"file\" or \"sqlite\"")
	ErrInvalidBonus    = errors.New("bonus_amount must not be negative")
	ErrInvalidTimezone = errors.New("unknown timezone")
)

// configTemplate is the annotated config written on first run.
const configTemplate = `# earn configuration - ~/.earn/config.yaml
#
# All settings are optional; the defaults below work out of the box.
# Any key can be overridden with an EARN_ environment variable, e.g.
# EARN_BACKEND=sqlite or EARN_OUTLOOK_DEFAULT_COMPANY=Kraftvrk.

# Directory holding the JSON record files (file backend).
# Empty means ~/.earn/data.
data_dir: ""

# Storage backend: "file" (one JSON file per record set) or "sqlite".
backend: file

# Database file for the sqlite backend. Empty means ~/.earn/earn.db.
sqlite_path: ""

# Fixed amount earned per bonus event (video post).
bonus_amount: 320

# Currency label printed in front of amounts. Leave empty for bare numbers.
currency: "kr."

# Microsoft Graph / Outlook calendar import
outlook:
  # Azure AD tenant ID.
  #   "common" - personal Microsoft accounts and any organisation (default)
  #   or your organisation's tenant GUID
  tenant_id: common

  # Azure application (client) ID used for the OAuth2 device code flow.
  # The built-in value is the public Azure CLI app; no registration needed.
  client_id: 04b07795-8542-4c4a-95af-30b2c573d5ab

  # Company assigned to events whose category or subject matches no company.
  # Can be overridden per import with: earn outlook sync --company <name>
  default_company: ""

  # IANA timezone for interpreting event times, e.g. "Europe/Copenhagen".
  # Leave empty to use UTC.
  timezone: ""
`

// Dir returns the configuration directory (~/.earn).
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".earn"), nil
}

// DefaultPath returns the path to ~/.earn/config.yaml.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

func setDefaults(v *viper.Viper, base string) {
	v.SetDefault("data_dir", filepath.Join(base, "data"))
	v.SetDefault("backend", BackendFile)
	v.SetDefault("sqlite_path", filepath.Join(base, "earn.db"))
	v.SetDefault("bonus_amount", DefaultBonusAmount)
	v.SetDefault("currency", DefaultCurrency)
	v.SetDefault("outlook.tenant_id", DefaultTenantID)
	v.SetDefault("outlook.client_id", DefaultClientID)
	v.SetDefault("outlook.default_company", "")
	v.SetDefault("outlook.timezone", "")
}

// Load reads the config file at path, creating it with annotated defaults on
// first run. An empty path means ~/.earn/config.yaml. A .env file in the
// working directory is loaded first so its EARN_ variables apply.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return Config{}, err
		}
		path = p
	}

	v := viper.New()
	setDefaults(v, filepath.Dir(path))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		// First run: write the annotated template so users can discover options.
		if writeErr := writeDefault(path); writeErr != nil {
			slog.Warn("could not create config file", "path", path, "error", writeErr)
		}
	}
	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("parsing config file %s: %w\nTip: delete the file to regenerate defaults", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	cfg.applyFallbacks(filepath.Dir(path))

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// applyFallbacks fills values a user blanked out in the file.
func (c *Config) applyFallbacks(base string) {
	if c.DataDir == "" {
		c.DataDir = filepath.Join(base, "data")
	}
	if c.SQLitePath == "" {
		c.SQLitePath = filepath.Join(base, "earn.db")
	}
	if c.Backend == "" {
		c.Backend = BackendFile
	}
	if c.Outlook.TenantID == "" {
		c.Outlook.TenantID = DefaultTenantID
	}
	if c.Outlook.ClientID == "" {
		c.Outlook.ClientID = DefaultClientID
	}
}

// Validate checks values that would otherwise fail later in a confusing way.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendFile, BackendSQLite:
	default:
		return fmt.Errorf("%w, got %q", ErrInvalidBackend, c.Backend)
	}
	if c.BonusAmount < 0 {
		return ErrInvalidBonus
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves the Outlook timezone; empty means UTC.
func (c Config) Location() (*time.Location, error) {
	if c.Outlook.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Outlook.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w %q", ErrInvalidTimezone, c.Outlook.Timezone)
	}
	return loc, nil
}

// writeDefault creates the config directory and writes the annotated default
// config template.
func writeDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0o600); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}
