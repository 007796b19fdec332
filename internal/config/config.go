package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const appName = "invoicer"

// Drivers accepted by Database.Driver.
const (
	DriverSQLCipher = "sqlcipher"
	DriverPostgres  = "postgres"
	DriverMemory    = "memory"
)

type Config struct {
	Database DatabaseConfig `yaml:"database"`

	// Request policy for the data store
	Store StoreConfig `yaml:"store"`

	Invoice InvoiceConfig `yaml:"invoice"`

	Auth AuthConfig `yaml:"auth"`

	// User info printed on invoices
	User UserConfig `yaml:"user"`

	Log LogConfig `yaml:"log"`

	// Local customer and product lists
	Local LocalConfig `yaml:"local"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlcipher, postgres or memory
	Path   string `yaml:"path"`   // SQLCipher database file
	URL    string `yaml:"url"`    // PostgreSQL connection string
}

type StoreConfig struct {
	Timeout     time.Duration `yaml:"timeout"`
	ReadRetries int           `yaml:"read_retries"`
	Backoff     time.Duration `yaml:"backoff"`
}

type InvoiceConfig struct {
	DefaultDueDays int     `yaml:"default_due_days"` // Days until invoice due
	DefaultTaxRate float64 `yaml:"default_tax_rate"` // Percent (8.25 = 8.25%)
	OutputDir      string  `yaml:"output_dir"`       // Directory for exported invoices
	NumberPrefix   string  `yaml:"number_prefix"`    // Invoice number prefix (e.g., "INV")
	CurrencySymbol string  `yaml:"currency_symbol"`
	DateLayout     string  `yaml:"date_layout"` // Go time layout for display
}

type AuthConfig struct {
	TokenSecret string        `yaml:"token_secret"` // HS256 signing secret for identity tokens
	TokenTTL    time.Duration `yaml:"token_ttl"`
}

type UserConfig struct {
	Name    string `yaml:"name"`
	Email   string `yaml:"email"`
	Address string `yaml:"address"`
	Phone   string `yaml:"phone"`
}

type LogConfig struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"` // debug, info, warn, error
}

type LocalConfig struct {
	Dir string `yaml:"dir"`
}

// Dir returns ~/.config/invoicer
func Dir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home dir unavailable
		return filepath.Join(".", ".config", appName)
	}
	return filepath.Join(homeDir, ".config", appName)
}

// DefaultConfigPath returns ~/.config/invoicer/config.yaml
func DefaultConfigPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	dir := Dir()

	return &Config{
		Database: DatabaseConfig{
			Driver: DriverSQLCipher,
			Path:   filepath.Join(dir, "invoicer.db"),
		},
		Store: StoreConfig{
			Timeout:     10 * time.Second,
			ReadRetries: 2,
			Backoff:     200 * time.Millisecond,
		},
		Invoice: InvoiceConfig{
			DefaultDueDays: 30,
			DefaultTaxRate: 0,
			OutputDir:      filepath.Join(dir, "invoices"),
			NumberPrefix:   "INV",
			CurrencySymbol: "$",
			DateLayout:     "Jan 02, 2006",
		},
		Auth: AuthConfig{
			TokenTTL: 30 * 24 * time.Hour,
		},
		Log: LogConfig{
			Path:  filepath.Join(dir, "invoicer.log"),
			Level: "info",
		},
		Local: LocalConfig{
			Dir: filepath.Join(dir, "local"),
		},
	}
}

// Load loads config from the given path, or returns defaults if file doesn't
// exist. A .env file next to the config (or in the working directory) and the
// process environment override individual settings.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	loadDotEnv(filepath.Join(filepath.Dir(path), ".env"), ".env")
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDefault loads from the default config path
func LoadDefault() (*Config, error) {
	return Load(DefaultConfigPath())
}

// loadDotEnv loads the files that exist; variables already set win.
func loadDotEnv(paths ...string) {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
		}
	}
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("INVOICER_DB_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv("INVOICER_DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
		if os.Getenv("INVOICER_DB_DRIVER") == "" {
			c.Database.Driver = DriverPostgres
		}
	}
	if v := os.Getenv("INVOICER_AUTH_SECRET"); v != "" {
		c.Auth.TokenSecret = v
	}
	if v := os.Getenv("INVOICER_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("INVOICER_STORE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid INVOICER_STORE_TIMEOUT: %w", err)
		}
		c.Store.Timeout = d
	}
	return nil
}

// Validate rejects settings the app cannot start with
func (c *Config) Validate() error {
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	switch c.Database.Driver {
	case DriverSQLCipher, DriverMemory:
	case DriverPostgres:
		if c.Database.URL == "" {
			return errors.New("database.url is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}

	if c.Invoice.DefaultTaxRate < 0 || c.Invoice.DefaultTaxRate > 100 {
		return fmt.Errorf("invoice.default_tax_rate must be between 0 and 100, got %v", c.Invoice.DefaultTaxRate)
	}
	if c.Invoice.DefaultDueDays < 0 {
		return fmt.Errorf("invoice.default_due_days cannot be negative")
	}
	if c.Store.ReadRetries < 0 {
		return fmt.Errorf("store.read_retries cannot be negative")
	}
	return nil
}

// Save writes the config to the given path
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	// may hold the token secret
	return os.WriteFile(path, data, 0600)
}

// EnsureDirectories creates all necessary directories (database, exports,
// logs, local lists)
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Invoice.OutputDir, c.Local.Dir, filepath.Dir(c.Log.Path)}
	if c.Database.Driver == DriverSQLCipher {
		dirs = append(dirs, filepath.Dir(c.Database.Path))
	}

	for _, d := range dirs {
		if d == "" {
			continue
		}
		if err := os.MkdirAll(d, 0755); err != nil {
			return err
		}
	}

	return nil
}
