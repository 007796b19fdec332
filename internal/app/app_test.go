package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/andy/invoicer/internal/config"
	"github.com/andy/invoicer/internal/crypto"
	"github.com/andy/invoicer/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, driver string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Database.Driver = driver
	cfg.Database.Path = filepath.Join(dir, "invoicer.db")
	cfg.Invoice.OutputDir = filepath.Join(dir, "invoices")
	cfg.Local.Dir = filepath.Join(dir, "local")
	cfg.Log.Path = filepath.Join(dir, "invoicer.log")
	return cfg
}

func TestNewWithConfig_Memory(t *testing.T) {
	ctx := context.Background()
	t.Setenv(crypto.EnvName(crypto.KeyTokenSecret), "")
	keyring := crypto.NewFileKeyring(t.TempDir())

	a, err := NewWithConfig(ctx, testConfig(t, config.DriverMemory), keyring)
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.DB)

	// a secret is generated once and reused
	secret, err := keyring.Get(crypto.KeyTokenSecret)
	require.NoError(t, err)
	assert.Len(t, secret, 64)

	require.NoError(t, a.Session.Init(ctx))
	_, err = a.Session.SignInWithEmail(ctx, "jane@example.com", "Jane")
	require.NoError(t, err)

	client := domain.NewClient("", "ACME")
	require.NoError(t, a.ClientService.CreateClient(ctx, client))

	number, err := a.InvoiceService.NextInvoiceNumber(ctx, 2026)
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-001", number)

	assert.NotEmpty(t, a.Catalog.CategoryNames())
	assert.Equal(t, 0, a.Customers.Len())
}

func TestNewWithConfig_SQLCipherUsesStoredKey(t *testing.T) {
	ctx := context.Background()
	t.Setenv(crypto.EnvName(crypto.KeyDBEncryption), "")
	keyring := crypto.NewFileKeyring(t.TempDir())
	require.NoError(t, keyring.Set(crypto.KeyDBEncryption, "s3cret"))

	cfg := testConfig(t, config.DriverSQLCipher)
	cfg.Auth.TokenSecret = "configured"

	a, err := NewWithConfig(ctx, cfg, keyring)
	require.NoError(t, err)
	require.NotNil(t, a.DB)
	require.NoError(t, a.Close())

	// configured secrets are not copied into the keyring
	_, err = keyring.Get(crypto.KeyTokenSecret)
	assert.ErrorIs(t, err, crypto.ErrSecretNotFound)
}

func TestSaveConfig(t *testing.T) {
	cfg := testConfig(t, config.DriverMemory)
	a, err := NewWithConfig(context.Background(), cfg, crypto.NewFileKeyring(t.TempDir()))
	require.NoError(t, err)
	defer a.Close()

	a.ConfigPath = filepath.Join(t.TempDir(), "config.yaml")
	a.Config.Invoice.NumberPrefix = "ACME"
	require.NoError(t, a.SaveConfig())

	t.Setenv("INVOICER_DB_DRIVER", "")
	t.Setenv("DATABASE_URL", "")
	loaded, err := config.Load(a.ConfigPath)
	require.NoError(t, err)
	assert.Equal(t, "ACME", loaded.Invoice.NumberPrefix)
}
