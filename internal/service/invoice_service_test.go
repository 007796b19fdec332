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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func designInput(clientID string) CreateInvoiceInput {
	return CreateInvoiceInput{
		ClientID:  clientID,
		IssueDate: day(2026, 3, 1),
		DueDate:   ptr(day(2026, 3, 31)),
		TaxRate:   10,
		Lines: []domain.LineInput{
			{Description: "Design", Quantity: 2, Rate: 50},
			{Description: "Hosting", Quantity: 1, Rate: 25.50},
		},
	}
}

func TestCreateInvoice_ComputesTotalsAndNumber(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	acme := f.client(t, "ACME")

	events, cancel := f.bus.Subscribe(4)
	defer cancel()

	inv, err := f.invoices.CreateInvoice(ctx, designInput(acme.ID))
	require.NoError(t, err)

	assert.Equal(t, "INV-2026-001", inv.InvoiceNumber)
	assert.Equal(t, domain.InvoiceStatusDraft, inv.Status)
	assert.Equal(t, 125.50, inv.Subtotal)
	assert.Equal(t, 12.55, inv.TaxAmount)
	assert.Equal(t, 138.05, inv.Total)
	assert.Equal(t, alice.ID, inv.OwnerID)

	ev := <-events
	assert.Equal(t, InvoiceCreated, ev.Kind)
	assert.Equal(t, inv.ID, ev.InvoiceID)

	got, err := f.invoices.GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "Design", got.Items[0].Description)
	assert.Equal(t, 100.0, got.Items[0].Amount)
	assert.Equal(t, "ACME", got.Client.Name)

	next, err := f.invoices.CreateInvoice(ctx, designInput(acme.ID))
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-002", next.InvoiceNumber)
}

func TestCreateInvoice_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	acme := f.client(t, "ACME")

	tests := []struct {
		name   string
		mutate func(*CreateInvoiceInput)
	}{
		{name: "no client", mutate: func(in *CreateInvoiceInput) { in.ClientID = "" }},
		{name: "unknown client", mutate: func(in *CreateInvoiceInput) { in.ClientID = "missing" }},
		{name: "no lines", mutate: func(in *CreateInvoiceInput) { in.Lines = nil }},
		{name: "blank description", mutate: func(in *CreateInvoiceInput) { in.Lines[0].Description = "  " }},
		{name: "negative rate", mutate: func(in *CreateInvoiceInput) { in.Lines[1].Rate = -1 }},
		{name: "due before issue", mutate: func(in *CreateInvoiceInput) { in.DueDate = ptr(day(2026, 2, 1)) }},
		{name: "tax over 100", mutate: func(in *CreateInvoiceInput) { in.TaxRate = 101 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := designInput(acme.ID)
			tt.mutate(&in)
			_, err := f.invoices.CreateInvoice(ctx, in)
			assert.True(t, errors.Is(err, domain.ErrValidation), "got %v", err)
		})
	}

	list, err := f.invoices.ListInvoices(ctx, domain.StatusFilterAll)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCreateInvoice_OtherUsersClientIsRejected(t *testing.T) {
	ctx := context.Background()
	backend := newMemory()
	theirs := domain.NewClient("user-bob", "Bob's Client")
	require.NoError(t, repository.NewClientRepo(backend).Create(ctx, theirs))

	f := newFixture(t, backend)
	_, err := f.invoices.CreateInvoice(ctx, designInput(theirs.ID))
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestCreateInvoice_RemovesInvoiceWhenItemInsertFails(t *testing.T) {
	ctx := context.Background()
	backend := &failingItems{Client: newMemory(), allowed: 1}
	f := newFixture(t, backend)
	acme := f.client(t, "ACME")

	events, cancel := f.bus.Subscribe(4)
	defer cancel()

	_, err := f.invoices.CreateInvoice(ctx, designInput(acme.ID))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")

	invoices, err := backend.Select(ctx, store.TableInvoices, store.Query{})
	require.NoError(t, err)
	assert.Empty(t, invoices)

	items, err := backend.Select(ctx, store.TableInvoiceItems, store.Query{})
	require.NoError(t, err)
	assert.Empty(t, items)

	select {
	case ev := <-events:
		t.Fatalf("unexpected event %v", ev.Kind)
	default:
	}
}

func TestListInvoices_FilterAndOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	acme := f.client(t, "ACME")

	var ids []string
	for i := 0; i < 3; i++ {
		inv, err := f.invoices.CreateInvoice(ctx, designInput(acme.ID))
		require.NoError(t, err)
		ids = append(ids, inv.ID)
	}
	_, err := f.invoices.UpdateStatus(ctx, ids[0], domain.InvoiceStatusPaid)
	require.NoError(t, err)
	_, err = f.invoices.UpdateStatus(ctx, ids[2], domain.InvoiceStatusPaid)
	require.NoError(t, err)

	all, err := f.invoices.ListInvoices(ctx, domain.StatusFilterAll)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, ids[2], all[0].ID)
	assert.Equal(t, "ACME", all[0].Client.Name)

	paid, err := f.invoices.ListInvoices(ctx, domain.StatusFilter(domain.InvoiceStatusPaid))
	require.NoError(t, err)
	require.Len(t, paid, 2)
	assert.Equal(t, ids[2], paid[0].ID)
	assert.Equal(t, ids[0], paid[1].ID)

	drafts, err := f.invoices.ListInvoices(ctx, domain.StatusFilter(domain.InvoiceStatusDraft))
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, ids[1], drafts[0].ID)
}

func TestUpdateStatus_ReloadsAndPublishes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	acme := f.client(t, "ACME")
	inv, err := f.invoices.CreateInvoice(ctx, designInput(acme.ID))
	require.NoError(t, err)

	events, cancel := f.bus.Subscribe(4)
	defer cancel()

	updated, err := f.invoices.UpdateStatus(ctx, inv.ID, domain.InvoiceStatusSent)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusSent, updated.Status)
	assert.Len(t, updated.Items, 2)

	ev := <-events
	assert.Equal(t, InvoiceStatusChanged, ev.Kind)
	assert.Equal(t, domain.InvoiceStatusSent, ev.Status)

	// any status may be set by hand, including going back
	back, err := f.invoices.UpdateStatus(ctx, inv.ID, domain.InvoiceStatusDraft)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusDraft, back.Status)

	_, err = f.invoices.UpdateStatus(ctx, inv.ID, "archived")
	assert.True(t, errors.Is(err, domain.ErrValidation))

	_, err = f.invoices.UpdateStatus(ctx, "missing", domain.InvoiceStatusPaid)
	assert.True(t, errors.Is(err, ErrInvoiceNotFound))
}

func TestUpdateStatus_SameStatusKeepsTotalsAndItems(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	acme := f.client(t, "ACME")
	inv, err := f.invoices.CreateInvoice(ctx, designInput(acme.ID))
	require.NoError(t, err)
	require.Equal(t, domain.InvoiceStatusDraft, inv.Status)

	same, err := f.invoices.UpdateStatus(ctx, inv.ID, domain.InvoiceStatusDraft)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusDraft, same.Status)
	assert.Equal(t, 125.50, same.Subtotal)
	assert.Equal(t, 12.55, same.TaxAmount)
	assert.Equal(t, 138.05, same.Total)
	require.Len(t, same.Items, 2)
	var descriptions []string
	for _, item := range same.Items {
		descriptions = append(descriptions, item.Description)
	}
	assert.ElementsMatch(t, []string{"Design", "Hosting"}, descriptions)
}

func TestUpdateStatus_PublishesWhenInvoiceVanishes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &vanishingUpdates{Client: newMemory()})
	acme := f.client(t, "ACME")
	inv, err := f.invoices.CreateInvoice(ctx, designInput(acme.ID))
	require.NoError(t, err)

	events, cancel := f.bus.Subscribe(4)
	defer cancel()

	_, err = f.invoices.UpdateStatus(ctx, inv.ID, domain.InvoiceStatusSent)
	assert.True(t, errors.Is(err, ErrInvoiceNotFound))

	select {
	case ev := <-events:
		assert.Equal(t, InvoiceStatusChanged, ev.Kind)
		assert.Equal(t, inv.ID, ev.InvoiceID)
	default:
		t.Fatal("expected a status change event")
	}
}

func TestUpdateStatus_RejectsConcurrentChangeToSameInvoice(t *testing.T) {
	ctx := context.Background()
	backend := &blockingUpdates{
		Client:  newMemory(),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	f := newFixture(t, backend)
	acme := f.client(t, "ACME")
	inv, err := f.invoices.CreateInvoice(ctx, designInput(acme.ID))
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := f.invoices.UpdateStatus(ctx, inv.ID, domain.InvoiceStatusSent)
		done <- err
	}()
	<-backend.entered

	_, err = f.invoices.UpdateStatus(ctx, inv.ID, domain.InvoiceStatusPaid)
	assert.True(t, errors.Is(err, ErrTransitionInFlight))

	close(backend.release)
	require.NoError(t, <-done)

	got, err := f.invoices.GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusSent, got.Status)

	// the guard is released once the first change finishes
	go func() { <-backend.entered }()
	_, err = f.invoices.UpdateStatus(ctx, inv.ID, domain.InvoiceStatusPaid)
	require.NoError(t, err)
}

func TestDeleteInvoice(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	acme := f.client(t, "ACME")
	inv, err := f.invoices.CreateInvoice(ctx, designInput(acme.ID))
	require.NoError(t, err)

	events, cancel := f.bus.Subscribe(4)
	defer cancel()

	require.NoError(t, f.invoices.DeleteInvoice(ctx, inv.ID))
	assert.Equal(t, InvoiceDeleted, (<-events).Kind)

	_, err = f.invoices.GetInvoice(ctx, inv.ID)
	assert.True(t, errors.Is(err, ErrInvoiceNotFound))

	items, err := f.store.Select(ctx, store.TableInvoiceItems, store.Query{})
	require.NoError(t, err)
	assert.Empty(t, items)

	// already gone
	assert.NoError(t, f.invoices.DeleteInvoice(ctx, inv.ID))
}

func TestMarkOverdue(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	acme := f.client(t, "ACME")

	late, err := f.invoices.CreateInvoice(ctx, designInput(acme.ID))
	require.NoError(t, err)
	_, err = f.invoices.UpdateStatus(ctx, late.ID, domain.InvoiceStatusSent)
	require.NoError(t, err)

	onTime := designInput(acme.ID)
	onTime.DueDate = ptr(day(2026, 6, 30))
	onTime.Status = domain.InvoiceStatusSent
	_, err = f.invoices.CreateInvoice(ctx, onTime)
	require.NoError(t, err)

	// drafts are never swept
	_, err = f.invoices.CreateInvoice(ctx, designInput(acme.ID))
	require.NoError(t, err)

	updated, err := f.invoices.MarkOverdue(ctx, day(2026, 4, 15))
	require.NoError(t, err)
	require.Len(t, updated, 1)
	assert.Equal(t, late.ID, updated[0].ID)
	assert.Equal(t, domain.InvoiceStatusOverdue, updated[0].Status)

	again, err := f.invoices.MarkOverdue(ctx, day(2026, 4, 15))
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestInvoiceService_RequiresSignedInUser(t *testing.T) {
	backend := newMemory()
	svc := NewInvoiceService(repository.NewInvoiceRepo(backend), repository.NewClientRepo(backend),
		fixedUser{}, nil, nil, "")

	_, err := svc.ListInvoices(context.Background(), domain.StatusFilterAll)
	assert.True(t, errors.Is(err, auth.ErrNotAuthenticated))

	_, err = svc.NextInvoiceNumber(context.Background(), time.Now().Year())
	assert.True(t, errors.Is(err, auth.ErrNotAuthenticated))
}
