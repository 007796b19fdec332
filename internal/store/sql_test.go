package store_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/andy/invoicer/internal/db"
	"github.com/andy/invoicer/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLStore(t *testing.T) *store.SQL {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"), "test-key")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, database.RunMigrations(context.Background()))
	return store.NewSQL(database.DB, store.InvoicingSchema(), database.Dialect)
}

func TestSQL_RoundTripAndExpand(t *testing.T) {
	ctx := context.Background()
	s := newSQLStore(t)

	client, err := s.Insert(ctx, store.TableClients, store.Row{"owner_id": "u1", "name": "ACME", "city": "Springfield"})
	require.NoError(t, err)

	due := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	inv, err := s.Insert(ctx, store.TableInvoices, store.Row{
		"owner_id":       "u1",
		"client_id":      client.String("id"),
		"invoice_number": "INV-2026-001",
		"issue_date":     time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		"due_date":       &due,
		"subtotal":       125.5,
		"tax_rate":       10.0,
		"tax_amount":     12.55,
		"total":          138.05,
	})
	require.NoError(t, err)
	assert.Equal(t, "draft", inv.String("status"))

	for _, line := range []store.Row{
		{"description": "Design", "quantity": 2.0, "rate": 50.0, "amount": 100.0},
		{"description": "Hosting", "quantity": 1.0, "rate": 25.5, "amount": 25.5},
	} {
		line["invoice_id"] = inv.String("id")
		_, err := s.Insert(ctx, store.TableInvoiceItems, line)
		require.NoError(t, err)
	}

	rows, err := s.Select(ctx, store.TableInvoices, store.Query{
		Filters: []store.Filter{store.Eq("id", inv.String("id")), store.Eq("owner_id", "u1")},
		Expand:  []string{store.RelClient, store.RelItems},
		Single:  true,
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	got := rows[0]
	assert.Equal(t, 138.05, got.Float("total"))
	assert.Equal(t, due, *got.TimePtr("due_date"))
	assert.Nil(t, got["notes"])
	assert.Equal(t, "Springfield", got.One(store.RelClient).String("city"))
	assert.Len(t, got.Many(store.RelItems), 2)
}

func TestSQL_UpdateDeleteCascade(t *testing.T) {
	ctx := context.Background()
	s := newSQLStore(t)

	client, err := s.Insert(ctx, store.TableClients, store.Row{"owner_id": "u1", "name": "ACME"})
	require.NoError(t, err)

	var ids []string
	for _, number := range []string{"INV-2026-001", "INV-2026-002"} {
		inv, err := s.Insert(ctx, store.TableInvoices, store.Row{
			"owner_id": "u1", "client_id": client.String("id"), "invoice_number": number,
			"issue_date": time.Now(),
		})
		require.NoError(t, err)
		ids = append(ids, inv.String("id"))
		_, err = s.Insert(ctx, store.TableInvoiceItems, store.Row{
			"invoice_id": inv.String("id"), "description": "Work", "quantity": 1, "rate": 10, "amount": 10,
		})
		require.NoError(t, err)
	}

	require.NoError(t, s.Update(ctx, store.TableInvoices, store.Row{"status": "paid"}, store.Eq("id", ids[0])))

	paid, err := s.Select(ctx, store.TableInvoices, store.Query{
		Filters: []store.Filter{store.Eq("status", "paid")},
		Order:   &store.Order{Column: "created_at", Descending: true},
	})
	require.NoError(t, err)
	require.Len(t, paid, 1)
	assert.Equal(t, ids[0], paid[0].String("id"))

	require.NoError(t, s.Delete(ctx, store.TableInvoices, store.Eq("id", ids[0])))
	require.NoError(t, s.Delete(ctx, store.TableInvoices, store.Eq("id", ids[0])))

	items, err := s.Select(ctx, store.TableInvoiceItems, store.Query{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, ids[1], items[0].String("invoice_id"))

	assert.True(t, errors.Is(s.Delete(ctx, store.TableInvoices), store.ErrMissingFilter))

	_, err = s.Select(ctx, store.TableInvoices, store.Query{Filters: []store.Filter{store.Eq("id", "nope")}, Single: true})
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestSQL_ConstraintViolations(t *testing.T) {
	ctx := context.Background()
	s := newSQLStore(t)

	client, err := s.Insert(ctx, store.TableClients, store.Row{"owner_id": "u1", "name": "ACME"})
	require.NoError(t, err)
	_, err = s.Insert(ctx, store.TableInvoices, store.Row{
		"owner_id": "u1", "client_id": client.String("id"), "invoice_number": "INV-2026-001",
		"issue_date": time.Now(),
	})
	require.NoError(t, err)

	err = s.Delete(ctx, store.TableClients, store.Eq("id", client.String("id")))
	assert.True(t, errors.Is(err, store.ErrConstraint), "client with invoices cannot be deleted: %v", err)

	_, err = s.Insert(ctx, store.TableInvoices, store.Row{
		"owner_id": "u1", "client_id": "no-such-client", "invoice_number": "INV-2026-002",
		"issue_date": time.Now(),
	})
	assert.True(t, errors.Is(err, store.ErrConstraint), "unknown client: %v", err)
}
