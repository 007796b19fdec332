package db

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/andy/invoicer/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	sqlite := render(migrations[0].sql, store.SQLite)
	pg := render(migrations[0].sql, store.Postgres)

	assert.NotContains(t, sqlite, "{{real}}")
	assert.Contains(t, sqlite, "subtotal REAL")
	assert.Contains(t, pg, "subtotal DOUBLE PRECISION")
	assert.True(t, strings.Contains(pg, "ON DELETE CASCADE"))
}

func TestOpenAndMigrate(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "invoicer.db")

	database, err := Open(path, "secret")
	require.NoError(t, err)
	defer database.Close()

	require.NoError(t, database.RunMigrations(ctx))
	// second run is a no-op
	require.NoError(t, database.RunMigrations(ctx))

	var version int
	require.NoError(t, database.QueryRow("SELECT MAX(version) FROM schema_version").Scan(&version))
	assert.Equal(t, len(migrations), version)

	for _, table := range store.InvoicingSchema().Tables() {
		var n int
		err := database.QueryRow("SELECT COUNT(*) FROM " + table.Name).Scan(&n)
		assert.NoError(t, err, table.Name)
	}
}

func TestOpenPostgresRequiresURL(t *testing.T) {
	_, err := OpenPostgres(context.Background(), "")
	assert.Error(t, err)
}
