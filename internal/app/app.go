package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"

	"github.com/andy/invoicer/internal/auth"
	"github.com/andy/invoicer/internal/config"
	"github.com/andy/invoicer/internal/crypto"
	"github.com/andy/invoicer/internal/db"
	"github.com/andy/invoicer/internal/export"
	"github.com/andy/invoicer/internal/local"
	"github.com/andy/invoicer/internal/logging"
	"github.com/andy/invoicer/internal/repository"
	"github.com/andy/invoicer/internal/service"
	"github.com/andy/invoicer/internal/store"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// App is the dependency injection container for all application components
type App struct {
	Config     *config.Config
	ConfigPath string
	Logger     *zap.Logger
	Keyring    crypto.Keyring

	// DB is nil for the memory driver
	DB    *db.DB
	Store store.Client

	Session *auth.Session
	Bus     *service.Bus

	// Repositories
	ClientRepo  repository.ClientRepository
	InvoiceRepo repository.InvoiceRepository

	// Services
	ClientService  service.ClientService
	InvoiceService service.InvoiceService
	ReportService  service.ReportService

	// Local lists
	Slots     *local.Slots
	Customers *local.CustomerBook
	Catalog   *local.Catalog

	Exporter *export.Exporter
}

// New creates a new App instance from the default config path
func New(ctx context.Context) (*App, error) {
	cfg, err := config.LoadDefault()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return NewWithConfig(ctx, cfg, crypto.NewKeyring(config.Dir()))
}

// NewWithConfig creates an App with a provided config and keyring.
// It handles:
// 1. Creating directories and the logger
// 2. Opening the configured database and running migrations
// 3. Resolving the token secret and building the session
// 4. Creating repositories, services and local lists
func NewWithConfig(ctx context.Context, cfg *config.Config, keyring crypto.Keyring) (*App, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:     cfg,
		ConfigPath: config.DefaultConfigPath(),
		Logger:     logger,
		Keyring:    keyring,
		Bus:        service.NewBus(),
	}

	backend, err := a.openStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Store = store.WithPolicy(backend, store.Policy{
		Timeout:     cfg.Store.Timeout,
		ReadRetries: cfg.Store.ReadRetries,
		Backoff:     cfg.Store.Backoff,
	}, logger.Named("store"))

	secret, err := a.tokenSecret()
	if err != nil {
		a.Close()
		return nil, err
	}
	issuer, err := auth.NewTokenIssuer(secret, cfg.Auth.TokenTTL)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Session = auth.NewSession(keyring, issuer, logger.Named("auth"))

	a.ClientRepo = repository.NewClientRepo(a.Store)
	a.InvoiceRepo = repository.NewInvoiceRepo(a.Store)

	a.ClientService = service.NewClientService(a.ClientRepo, a.Session)
	a.InvoiceService = service.NewInvoiceService(a.InvoiceRepo, a.ClientRepo, a.Session, a.Bus,
		logger.Named("invoices"), cfg.Invoice.NumberPrefix)
	a.ReportService = service.NewReportService(a.InvoiceRepo, a.Session)

	a.Slots = local.NewSlots(cfg.Local.Dir)
	if err := a.loadLocal(); err != nil {
		a.Close()
		return nil, err
	}

	a.Exporter = newExporter(cfg)

	logger.Info("app started", zap.String("driver", cfg.Database.Driver))
	return a, nil
}

// loadLocal (re)reads the customer book and product catalog
func (a *App) loadLocal() error {
	customers, err := local.NewCustomerBook(a.Slots)
	if err != nil {
		return fmt.Errorf("failed to load customers: %w", err)
	}
	catalog, err := local.NewCatalog(a.Slots)
	if err != nil {
		return fmt.Errorf("failed to load products: %w", err)
	}
	a.Customers, a.Catalog = customers, catalog
	return nil
}

// ResetLocal removes the customer book and product catalog from disk
func (a *App) ResetLocal() error {
	for _, slot := range []string{local.SlotCustomers, local.SlotProducts} {
		if err := a.Slots.Remove(slot); err != nil {
			return err
		}
	}
	return a.loadLocal()
}

// openStore opens the database for the configured driver
func (a *App) openStore(ctx context.Context) (store.Client, error) {
	schema := store.InvoicingSchema()

	var (
		database *db.DB
		err      error
	)
	switch a.Config.Database.Driver {
	case config.DriverMemory:
		return store.NewMemory(schema), nil

	case config.DriverPostgres:
		database, err = db.OpenPostgres(ctx, a.Config.Database.URL)

	default:
		var password string
		password, err = a.databasePassword()
		if err != nil {
			return nil, err
		}
		database, err = db.Open(a.Config.Database.Path, password)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	a.DB = database

	if err := database.RunMigrations(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return store.NewSQL(database.DB, schema, database.Dialect), nil
}

// databasePassword returns the SQLCipher key, asking for one on first run
func (a *App) databasePassword() (string, error) {
	password, err := a.Keyring.Get(crypto.KeyDBEncryption)
	if err == nil {
		return password, nil
	}
	if !errors.Is(err, crypto.ErrSecretNotFound) {
		return "", fmt.Errorf("failed to read encryption key: %w", err)
	}

	fmt.Println("Setting up database encryption for the first time...")
	password, err = promptForPassword()
	if err != nil {
		return "", fmt.Errorf("failed to set password: %w", err)
	}

	if err := a.Keyring.Set(crypto.KeyDBEncryption, password); err != nil {
		return "", fmt.Errorf("failed to store encryption key: %w", err)
	}
	return password, nil
}

// tokenSecret returns the configured signing secret, or one generated on
// first run and kept in the keyring
func (a *App) tokenSecret() (string, error) {
	if a.Config.Auth.TokenSecret != "" {
		return a.Config.Auth.TokenSecret, nil
	}

	secret, err := a.Keyring.Get(crypto.KeyTokenSecret)
	if err == nil {
		return secret, nil
	}
	if !errors.Is(err, crypto.ErrSecretNotFound) {
		return "", fmt.Errorf("failed to read token secret: %w", err)
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token secret: %w", err)
	}
	secret = hex.EncodeToString(buf)
	if err := a.Keyring.Set(crypto.KeyTokenSecret, secret); err != nil {
		return "", fmt.Errorf("failed to store token secret: %w", err)
	}
	return secret, nil
}

// Close cleanly shuts down the application
func (a *App) Close() error {
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}

// promptForPassword prompts user for a new database password (first run)
func promptForPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("no database key found; set %s or run interactively", crypto.EnvName(crypto.KeyDBEncryption))
	}

	fmt.Println()
	fmt.Println("Your invoices will be encrypted with a password.")
	fmt.Println("This password will be stored securely in your system keyring.")
	fmt.Println()
	fmt.Print("Enter a password for database encryption: ")

	password, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	if len(password) == 0 {
		return "", fmt.Errorf("password cannot be empty")
	}

	fmt.Print("Confirm password: ")
	confirm, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read confirmation: %w", err)
	}

	if string(password) != string(confirm) {
		return "", fmt.Errorf("passwords do not match")
	}

	fmt.Println()
	fmt.Println("✓ Database encryption configured successfully")
	fmt.Println()

	return string(password), nil
}

// SaveConfig saves the current configuration to disk. The exporter picks up
// the new issuer and formatting at once; the number prefix applies from the
// next start.
func (a *App) SaveConfig() error {
	if err := a.Config.Save(a.ConfigPath); err != nil {
		return err
	}
	a.Exporter = newExporter(a.Config)
	return nil
}

func newExporter(cfg *config.Config) *export.Exporter {
	return export.New(export.Options{
		Issuer: export.Issuer{
			Name:    cfg.User.Name,
			Email:   cfg.User.Email,
			Address: cfg.User.Address,
			Phone:   cfg.User.Phone,
		},
		CurrencySymbol: cfg.Invoice.CurrencySymbol,
		DateLayout:     cfg.Invoice.DateLayout,
	})
}
