package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/andy/invoicer/internal/domain"
	"github.com/andy/invoicer/internal/store"
)

// InvoiceRepo implements InvoiceRepository over a store client
type InvoiceRepo struct {
	store store.Client
}

// NewInvoiceRepo creates a new InvoiceRepo
func NewInvoiceRepo(c store.Client) *InvoiceRepo {
	return &InvoiceRepo{store: c}
}

// invoiceFromRow maps an invoices row, with any expanded relations
func invoiceFromRow(row store.Row) *domain.Invoice {
	inv := &domain.Invoice{
		ID:            row.String("id"),
		OwnerID:       row.String("owner_id"),
		ClientID:      row.String("client_id"),
		InvoiceNumber: row.String("invoice_number"),
		IssueDate:     row.Time("issue_date"),
		DueDate:       row.TimePtr("due_date"),
		Status:        domain.InvoiceStatus(row.String("status")),
		Subtotal:      row.Float("subtotal"),
		TaxRate:       row.Float("tax_rate"),
		TaxAmount:     row.Float("tax_amount"),
		Total:         row.Float("total"),
		Notes:         row.String("notes"),
		CreatedAt:     row.Time("created_at"),
		Client:        clientFromRow(row.One(store.RelClient)),
	}

	if items, ok := row[store.RelItems]; ok && items != nil {
		rows := row.Many(store.RelItems)
		inv.Items = make([]*domain.InvoiceItem, 0, len(rows))
		for _, r := range rows {
			inv.Items = append(inv.Items, itemFromRow(r))
		}
		sort.SliceStable(inv.Items, func(i, j int) bool {
			return inv.Items[i].CreatedAt.Before(inv.Items[j].CreatedAt)
		})
	}
	return inv
}

func itemFromRow(row store.Row) *domain.InvoiceItem {
	return &domain.InvoiceItem{
		ID:          row.String("id"),
		InvoiceID:   row.String("invoice_id"),
		Description: row.String("description"),
		Quantity:    row.Float("quantity"),
		Rate:        row.Float("rate"),
		Amount:      row.Float("amount"),
		CreatedAt:   row.Time("created_at"),
	}
}

// Create inserts the invoice row and fills in its id, status default and
// created_at
func (r *InvoiceRepo) Create(ctx context.Context, invoice *domain.Invoice) error {
	if err := invoice.Validate(); err != nil {
		return fmt.Errorf("invalid invoice: %w", err)
	}

	inserted, err := r.store.Insert(ctx, store.TableInvoices, store.Row{
		"owner_id":       invoice.OwnerID,
		"client_id":      invoice.ClientID,
		"invoice_number": invoice.InvoiceNumber,
		"issue_date":     invoice.IssueDate,
		"due_date":       invoice.DueDate,
		"status":         string(invoice.Status),
		"subtotal":       invoice.Subtotal,
		"tax_rate":       invoice.TaxRate,
		"tax_amount":     invoice.TaxAmount,
		"total":          invoice.Total,
		"notes":          optional(invoice.Notes),
	})
	if err != nil {
		return fmt.Errorf("failed to create invoice: %w", err)
	}

	invoice.ID = inserted.String("id")
	invoice.Status = domain.InvoiceStatus(inserted.String("status"))
	invoice.CreatedAt = inserted.Time("created_at")
	return nil
}

// AddItem inserts one line item
func (r *InvoiceRepo) AddItem(ctx context.Context, item *domain.InvoiceItem) error {
	inserted, err := r.store.Insert(ctx, store.TableInvoiceItems, store.Row{
		"invoice_id":  item.InvoiceID,
		"description": item.Description,
		"quantity":    item.Quantity,
		"rate":        item.Rate,
		"amount":      item.Amount,
	})
	if err != nil {
		return fmt.Errorf("failed to add line item: %w", err)
	}

	item.ID = inserted.String("id")
	item.CreatedAt = inserted.Time("created_at")
	return nil
}

// GetByID retrieves an invoice with its client and items
func (r *InvoiceRepo) GetByID(ctx context.Context, ownerID, id string) (*domain.Invoice, error) {
	rows, err := r.store.Select(ctx, store.TableInvoices, store.Query{
		Filters: []store.Filter{store.Eq("id", id), store.Eq("owner_id", ownerID)},
		Expand:  []string{store.RelClient, store.RelItems},
		Single:  true,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound("invoice", err)
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	return invoiceFromRow(rows[0]), nil
}

// List returns invoices with their client, newest first
func (r *InvoiceRepo) List(ctx context.Context, ownerID string, status *domain.InvoiceStatus) ([]*domain.Invoice, error) {
	filters := []store.Filter{store.Eq("owner_id", ownerID)}
	if status != nil {
		filters = append(filters, store.Eq("status", string(*status)))
	}

	rows, err := r.store.Select(ctx, store.TableInvoices, store.Query{
		Filters: filters,
		Order:   &store.Order{Column: "created_at", Descending: true},
		Expand:  []string{store.RelClient},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}

	invoices := make([]*domain.Invoice, 0, len(rows))
	for _, row := range rows {
		invoices = append(invoices, invoiceFromRow(row))
	}
	return invoices, nil
}

// UpdateStatus writes the status of one invoice
func (r *InvoiceRepo) UpdateStatus(ctx context.Context, ownerID, id string, status domain.InvoiceStatus) error {
	err := r.store.Update(ctx, store.TableInvoices, store.Row{"status": string(status)},
		store.Eq("id", id), store.Eq("owner_id", ownerID))
	if err != nil {
		return fmt.Errorf("failed to update invoice status: %w", err)
	}
	return nil
}

// Delete removes one invoice; its items cascade
func (r *InvoiceRepo) Delete(ctx context.Context, ownerID, id string) error {
	if err := r.store.Delete(ctx, store.TableInvoices, store.Eq("id", id), store.Eq("owner_id", ownerID)); err != nil {
		return fmt.Errorf("failed to delete invoice: %w", err)
	}
	return nil
}

// DeleteAll removes every invoice of the owner
func (r *InvoiceRepo) DeleteAll(ctx context.Context, ownerID string) error {
	if err := r.store.Delete(ctx, store.TableInvoices, store.Eq("owner_id", ownerID)); err != nil {
		return fmt.Errorf("failed to delete invoices: %w", err)
	}
	return nil
}

// GetNextInvoiceNumber generates the next invoice number in format
// "PREFIX-YEAR-SEQUENCE", one past the highest sequence the owner has used
// for that prefix and year
func (r *InvoiceRepo) GetNextInvoiceNumber(ctx context.Context, ownerID, prefix string, year int) (string, error) {
	rows, err := r.store.Select(ctx, store.TableInvoices, store.Query{
		Filters: []store.Filter{store.Eq("owner_id", ownerID)},
	})
	if err != nil {
		return "", fmt.Errorf("failed to get last invoice number: %w", err)
	}

	stem := fmt.Sprintf("%s-%d-", prefix, year)
	lastSeq := 0
	for _, row := range rows {
		number := row.String("invoice_number")
		if !strings.HasPrefix(number, stem) {
			continue
		}
		var seq int
		// numbers that do not end in a sequence are ignored
		if _, err := fmt.Sscanf(strings.TrimPrefix(number, stem), "%d", &seq); err == nil && seq > lastSeq {
			lastSeq = seq
		}
	}

	return fmt.Sprintf("%s%03d", stem, lastSeq+1), nil
}
