package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/andy/invoicer/internal/auth"
	"github.com/andy/invoicer/internal/domain"
	"github.com/andy/invoicer/internal/repository"
	"github.com/andy/invoicer/internal/store"
	"github.com/stretchr/testify/require"
)

type fixedUser struct {
	user *auth.Identity
}

func (f fixedUser) CurrentUser() (*auth.Identity, error) {
	if f.user == nil {
		return nil, auth.ErrNotAuthenticated
	}
	return f.user, nil
}

var alice = &auth.Identity{ID: "user-alice", Email: "alice@example.com", Name: "Alice"}

// failingItems fails every invoice_items insert after the first allowed ones
type failingItems struct {
	store.Client
	allowed int
}

func (f *failingItems) Insert(ctx context.Context, table string, row store.Row) (store.Row, error) {
	if table == store.TableInvoiceItems {
		if f.allowed == 0 {
			return nil, errors.New("connection reset")
		}
		f.allowed--
	}
	return f.Client.Insert(ctx, table, row)
}

// blockingUpdates parks every Update until release is closed
type blockingUpdates struct {
	store.Client
	entered chan struct{}
	release chan struct{}
}

func (b *blockingUpdates) Update(ctx context.Context, table string, patch store.Row, filters ...store.Filter) error {
	b.entered <- struct{}{}
	<-b.release
	return b.Client.Update(ctx, table, patch, filters...)
}

// vanishingUpdates deletes the invoice right after its update lands
type vanishingUpdates struct {
	store.Client
}

func (v *vanishingUpdates) Update(ctx context.Context, table string, patch store.Row, filters ...store.Filter) error {
	if err := v.Client.Update(ctx, table, patch, filters...); err != nil {
		return err
	}
	if table != store.TableInvoices {
		return nil
	}
	return v.Client.Delete(ctx, table, filters...)
}

type fixture struct {
	store    store.Client
	clients  ClientService
	invoices InvoiceService
	reports  ReportService
	bus      *Bus
}

func newMemory() *store.Memory {
	m := store.NewMemory(store.InvoicingSchema())
	current := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.SetClock(func() time.Time {
		current = current.Add(time.Second)
		return current
	})
	return m
}

func newFixture(t *testing.T, backend store.Client) *fixture {
	t.Helper()
	if backend == nil {
		backend = newMemory()
	}
	users := fixedUser{user: alice}
	bus := NewBus()
	clientRepo := repository.NewClientRepo(backend)
	invoiceRepo := repository.NewInvoiceRepo(backend)
	return &fixture{
		store:    backend,
		clients:  NewClientService(clientRepo, users),
		invoices: NewInvoiceService(invoiceRepo, clientRepo, users, bus, nil, "INV"),
		reports:  NewReportService(invoiceRepo, users),
		bus:      bus,
	}
}

func (f *fixture) client(t *testing.T, name string) *domain.Client {
	t.Helper()
	c := domain.NewClient("", name)
	require.NoError(t, f.clients.CreateClient(context.Background(), c))
	return c
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }
