package repository

import (
	"context"

	"github.com/andy/invoicer/internal/domain"
	"github.com/andy/invoicer/internal/store"
)

// ErrNotFound is returned (wrapped) when a scoped read matches no row.
var ErrNotFound = store.ErrNotFound

// ClientRepository manages client persistence. Every call is scoped to the
// owning user.
type ClientRepository interface {
	Create(ctx context.Context, client *domain.Client) error
	GetByID(ctx context.Context, ownerID, id string) (*domain.Client, error)
	List(ctx context.Context, ownerID string) ([]*domain.Client, error)
	Update(ctx context.Context, client *domain.Client) error
	Delete(ctx context.Context, ownerID, id string) error
}

// InvoiceRepository manages invoice persistence
type InvoiceRepository interface {
	// Create inserts the invoice row only; items are added separately
	Create(ctx context.Context, invoice *domain.Invoice) error
	AddItem(ctx context.Context, item *domain.InvoiceItem) error
	// GetByID returns the invoice with its client and items
	GetByID(ctx context.Context, ownerID, id string) (*domain.Invoice, error)
	// List returns invoices with their client, newest first. A nil status
	// lists every status.
	List(ctx context.Context, ownerID string, status *domain.InvoiceStatus) ([]*domain.Invoice, error)
	UpdateStatus(ctx context.Context, ownerID, id string, status domain.InvoiceStatus) error
	// Delete removes the invoice and its items
	Delete(ctx context.Context, ownerID, id string) error
	DeleteAll(ctx context.Context, ownerID string) error
	GetNextInvoiceNumber(ctx context.Context, ownerID, prefix string, year int) (string, error)
}
