package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tickingClock returns a clock that advances one second per call
func tickingClock(start time.Time) func() time.Time {
	current := start
	return func() time.Time {
		current = current.Add(time.Second)
		return current
	}
}

func newTestMemory(t *testing.T) *Memory {
	t.Helper()
	m := NewMemory(InvoicingSchema())
	m.SetClock(tickingClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
	return m
}

func seedClient(t *testing.T, m *Memory, owner, name string) Row {
	t.Helper()
	row, err := m.Insert(context.Background(), TableClients, Row{"owner_id": owner, "name": name})
	require.NoError(t, err)
	return row
}

func seedInvoice(t *testing.T, m *Memory, owner, clientID, number, status string) Row {
	t.Helper()
	row := Row{
		"owner_id":       owner,
		"client_id":      clientID,
		"invoice_number": number,
		"issue_date":     time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}
	if status != "" {
		row["status"] = status
	}
	inserted, err := m.Insert(context.Background(), TableInvoices, row)
	require.NoError(t, err)
	return inserted
}

func TestMemory_InsertFillsDefaults(t *testing.T) {
	m := newTestMemory(t)
	c := seedClient(t, m, "u1", "ACME")

	inv := seedInvoice(t, m, "u1", c.String("id"), "INV-2026-001", "")

	assert.NotEmpty(t, inv.String("id"))
	assert.Equal(t, "draft", inv.String("status"))
	assert.Equal(t, 0.0, inv.Float("total"))
	assert.Nil(t, inv["due_date"])
	assert.Nil(t, inv.TimePtr("due_date"))
	assert.False(t, inv.Time("created_at").IsZero())
}

func TestMemory_InsertRejectsUnknownColumnAndMissingReference(t *testing.T) {
	m := newTestMemory(t)
	ctx := context.Background()

	_, err := m.Insert(ctx, TableClients, Row{"owner_id": "u1", "name": "x", "fax": "123"})
	assert.True(t, errors.Is(err, ErrUnknownColumn))

	_, err = m.Insert(ctx, TableInvoices, Row{
		"owner_id": "u1", "client_id": "missing", "invoice_number": "INV-1",
		"issue_date": time.Now(),
	})
	assert.True(t, errors.Is(err, ErrConstraint))

	_, err = m.Insert(ctx, TableClients, Row{"owner_id": "u1"})
	assert.True(t, errors.Is(err, ErrConstraint), "name is not nullable")

	_, err = m.Insert(ctx, "payments", Row{})
	assert.True(t, errors.Is(err, ErrUnknownTable))
}

func TestMemory_SelectFiltersOrdersAndExpands(t *testing.T) {
	m := newTestMemory(t)
	ctx := context.Background()
	c := seedClient(t, m, "u1", "ACME")
	other := seedClient(t, m, "u2", "Other")

	first := seedInvoice(t, m, "u1", c.String("id"), "INV-2026-001", "paid")
	seedInvoice(t, m, "u1", c.String("id"), "INV-2026-002", "sent")
	third := seedInvoice(t, m, "u1", c.String("id"), "INV-2026-003", "paid")
	seedInvoice(t, m, "u2", other.String("id"), "INV-2026-001", "paid")

	rows, err := m.Select(ctx, TableInvoices, Query{
		Filters: []Filter{Eq("owner_id", "u1"), Eq("status", "paid")},
		Order:   &Order{Column: "created_at", Descending: true},
		Expand:  []string{RelClient},
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, third.String("id"), rows[0].String("id"))
	assert.Equal(t, first.String("id"), rows[1].String("id"))
	assert.Equal(t, "ACME", rows[0].One(RelClient).String("name"))

	asc, err := m.Select(ctx, TableInvoices, Query{
		Filters: []Filter{Eq("owner_id", "u1")},
		Order:   &Order{Column: "invoice_number"},
	})
	require.NoError(t, err)
	require.Len(t, asc, 3)
	assert.Equal(t, "INV-2026-001", asc[0].String("invoice_number"))
	assert.Equal(t, "INV-2026-003", asc[2].String("invoice_number"))
}

func TestMemory_SelectSingle(t *testing.T) {
	m := newTestMemory(t)
	ctx := context.Background()
	c := seedClient(t, m, "u1", "ACME")
	inv := seedInvoice(t, m, "u1", c.String("id"), "INV-2026-001", "")

	_, err := m.Insert(ctx, TableInvoiceItems, Row{
		"invoice_id": inv.String("id"), "description": "Work", "quantity": 2, "rate": 50.0, "amount": 100.0,
	})
	require.NoError(t, err)

	rows, err := m.Select(ctx, TableInvoices, Query{
		Filters: []Filter{Eq("id", inv.String("id"))},
		Expand:  []string{RelClient, RelItems},
		Single:  true,
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	items := rows[0].Many(RelItems)
	require.Len(t, items, 1)
	assert.Equal(t, 2.0, items[0].Float("quantity"))
	assert.Equal(t, "ACME", rows[0].One(RelClient).String("name"))

	_, err = m.Select(ctx, TableInvoices, Query{Filters: []Filter{Eq("id", "nope")}, Single: true})
	assert.True(t, errors.Is(err, ErrNotFound))

	seedInvoice(t, m, "u1", c.String("id"), "INV-2026-002", "")
	_, err = m.Select(ctx, TableInvoices, Query{Filters: []Filter{Eq("owner_id", "u1")}, Single: true})
	assert.True(t, errors.Is(err, ErrMultipleRows))

	_, err = m.Select(ctx, TableInvoices, Query{Expand: []string{"payments"}})
	assert.True(t, errors.Is(err, ErrUnknownRelation))
}

func TestMemory_ExpandManyIsEmptyNotNil(t *testing.T) {
	m := newTestMemory(t)
	c := seedClient(t, m, "u1", "ACME")
	seedInvoice(t, m, "u1", c.String("id"), "INV-2026-001", "")

	rows, err := m.Select(context.Background(), TableInvoices, Query{Expand: []string{RelItems}})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.NotNil(t, rows[0].Many(RelItems))
	assert.Empty(t, rows[0].Many(RelItems))
}

func TestMemory_UpdateScopedByFilter(t *testing.T) {
	m := newTestMemory(t)
	ctx := context.Background()
	c := seedClient(t, m, "u1", "ACME")
	a := seedInvoice(t, m, "u1", c.String("id"), "INV-2026-001", "")
	b := seedInvoice(t, m, "u1", c.String("id"), "INV-2026-002", "")

	require.NoError(t, m.Update(ctx, TableInvoices, Row{"status": "sent"}, Eq("id", a.String("id"))))

	rows, err := m.Select(ctx, TableInvoices, Query{Filters: []Filter{Eq("status", "sent")}})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, a.String("id"), rows[0].String("id"))

	// no match is not an error
	assert.NoError(t, m.Update(ctx, TableInvoices, Row{"status": "paid"}, Eq("id", "gone")))

	assert.True(t, errors.Is(m.Update(ctx, TableInvoices, Row{"status": "paid"}), ErrMissingFilter))
	assert.True(t, errors.Is(m.Update(ctx, TableInvoices, Row{"id": "x"}, Eq("id", b.String("id"))), ErrUnknownColumn))
}

func TestMemory_DeleteCascadesItemsAndRestrictsClients(t *testing.T) {
	m := newTestMemory(t)
	ctx := context.Background()
	c := seedClient(t, m, "u1", "ACME")
	inv := seedInvoice(t, m, "u1", c.String("id"), "INV-2026-001", "")
	for i := 0; i < 3; i++ {
		_, err := m.Insert(ctx, TableInvoiceItems, Row{
			"invoice_id": inv.String("id"), "description": "Line", "quantity": 1, "rate": 1, "amount": 1,
		})
		require.NoError(t, err)
	}

	err := m.Delete(ctx, TableClients, Eq("id", c.String("id")))
	assert.True(t, errors.Is(err, ErrConstraint), "client with invoices cannot be deleted")

	require.NoError(t, m.Delete(ctx, TableInvoices, Eq("id", inv.String("id"))))

	items, err := m.Select(ctx, TableInvoiceItems, Query{})
	require.NoError(t, err)
	assert.Empty(t, items)

	// deleting again is a no-op
	assert.NoError(t, m.Delete(ctx, TableInvoices, Eq("id", inv.String("id"))))
	assert.NoError(t, m.Delete(ctx, TableClients, Eq("id", c.String("id"))))
}

func TestMemory_CanceledContext(t *testing.T) {
	m := newTestMemory(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Select(ctx, TableClients, Query{})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestColumn_EncodeNamedTypesAndPointers(t *testing.T) {
	type status string
	text := Column{Name: "status", Type: Text}
	v, err := text.encode(status("paid"))
	require.NoError(t, err)
	assert.Equal(t, "paid", v)

	ts := Column{Name: "due_date", Type: Timestamp, Nullable: true}
	var missing *time.Time
	v, err = ts.encode(missing)
	require.NoError(t, err)
	assert.Nil(t, v)

	local := time.Date(2026, 3, 1, 9, 30, 0, 0, time.FixedZone("X", 3600))
	v, err = ts.encode(&local)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-01T08:30:00.000000000Z", v)

	num := Column{Name: "quantity", Type: Number}
	v, err = num.encode(3)
	require.NoError(t, err)
	assert.Equal(t, 3.0, v)

	_, err = num.encode("three")
	assert.Error(t, err)
}

func TestTimeLayoutSortsLexically(t *testing.T) {
	ts := Column{Name: "created_at", Type: Timestamp}
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a, _ := ts.encode(base)
	b, _ := ts.encode(base.Add(time.Nanosecond))
	c, _ := ts.encode(base.Add(time.Second))
	assert.Less(t, a.(string), b.(string))
	assert.Less(t, b.(string), c.(string))
}
