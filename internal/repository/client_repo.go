package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/andy/invoicer/internal/domain"
	"github.com/andy/invoicer/internal/store"
)

// ClientRepo implements ClientRepository over a store client
type ClientRepo struct {
	store store.Client
}

// NewClientRepo creates a new ClientRepo
func NewClientRepo(c store.Client) *ClientRepo {
	return &ClientRepo{store: c}
}

func clientFields(client *domain.Client) store.Row {
	return store.Row{
		"name":    client.Name,
		"email":   optional(client.Email),
		"phone":   optional(client.Phone),
		"address": optional(client.Address),
		"city":    optional(client.City),
		"state":   optional(client.State),
		"zip":     optional(client.Zip),
		"country": optional(client.Country),
	}
}

// clientFromRow maps a clients row to a Client
func clientFromRow(row store.Row) *domain.Client {
	if row == nil {
		return nil
	}
	return &domain.Client{
		ID:        row.String("id"),
		OwnerID:   row.String("owner_id"),
		Name:      row.String("name"),
		Email:     row.String("email"),
		Phone:     row.String("phone"),
		Address:   row.String("address"),
		City:      row.String("city"),
		State:     row.String("state"),
		Zip:       row.String("zip"),
		Country:   row.String("country"),
		CreatedAt: row.Time("created_at"),
	}
}

// Create inserts a new client and fills in its id and created_at
func (r *ClientRepo) Create(ctx context.Context, client *domain.Client) error {
	if err := client.Validate(); err != nil {
		return fmt.Errorf("invalid client: %w", err)
	}

	row := clientFields(client)
	row["owner_id"] = client.OwnerID

	inserted, err := r.store.Insert(ctx, store.TableClients, row)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	client.ID = inserted.String("id")
	client.CreatedAt = inserted.Time("created_at")
	return nil
}

// GetByID retrieves a client by ID
func (r *ClientRepo) GetByID(ctx context.Context, ownerID, id string) (*domain.Client, error) {
	rows, err := r.store.Select(ctx, store.TableClients, store.Query{
		Filters: []store.Filter{store.Eq("id", id), store.Eq("owner_id", ownerID)},
		Single:  true,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound("client", err)
		}
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return clientFromRow(rows[0]), nil
}

// List returns the owner's clients ordered by name
func (r *ClientRepo) List(ctx context.Context, ownerID string) ([]*domain.Client, error) {
	rows, err := r.store.Select(ctx, store.TableClients, store.Query{
		Filters: []store.Filter{store.Eq("owner_id", ownerID)},
		Order:   &store.Order{Column: "name"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}

	clients := make([]*domain.Client, 0, len(rows))
	for _, row := range rows {
		clients = append(clients, clientFromRow(row))
	}
	return clients, nil
}

// Update writes every editable field of client
func (r *ClientRepo) Update(ctx context.Context, client *domain.Client) error {
	if err := client.Validate(); err != nil {
		return fmt.Errorf("invalid client: %w", err)
	}

	err := r.store.Update(ctx, store.TableClients, clientFields(client),
		store.Eq("id", client.ID), store.Eq("owner_id", client.OwnerID))
	if err != nil {
		return fmt.Errorf("failed to update client: %w", err)
	}
	return nil
}

// Delete removes a client. The store refuses while invoices reference it.
func (r *ClientRepo) Delete(ctx context.Context, ownerID, id string) error {
	if err := r.store.Delete(ctx, store.TableClients, store.Eq("id", id), store.Eq("owner_id", ownerID)); err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}
	return nil
}
