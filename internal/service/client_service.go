package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/andy/invoicer/internal/domain"
	"github.com/andy/invoicer/internal/repository"
)

// ClientService manages the signed-in user's clients
type ClientService interface {
	CreateClient(ctx context.Context, client *domain.Client) error
	GetClient(ctx context.Context, id string) (*domain.Client, error)
	ListClients(ctx context.Context) ([]*domain.Client, error)
	UpdateClient(ctx context.Context, client *domain.Client) error
	DeleteClient(ctx context.Context, id string) error
}

type clientService struct {
	clientRepo repository.ClientRepository
	users      UserSource
}

// NewClientService creates a new client service
func NewClientService(clientRepo repository.ClientRepository, users UserSource) ClientService {
	return &clientService{clientRepo: clientRepo, users: users}
}

func (s *clientService) CreateClient(ctx context.Context, client *domain.Client) error {
	user, err := s.users.CurrentUser()
	if err != nil {
		return err
	}
	client.OwnerID = user.ID
	return s.clientRepo.Create(ctx, client)
}

func (s *clientService) GetClient(ctx context.Context, id string) (*domain.Client, error) {
	user, err := s.users.CurrentUser()
	if err != nil {
		return nil, err
	}
	client, err := s.clientRepo.GetByID(ctx, user.ID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrClientNotFound, id)
		}
		return nil, err
	}
	return client, nil
}

func (s *clientService) ListClients(ctx context.Context) ([]*domain.Client, error) {
	user, err := s.users.CurrentUser()
	if err != nil {
		return nil, err
	}
	return s.clientRepo.List(ctx, user.ID)
}

func (s *clientService) UpdateClient(ctx context.Context, client *domain.Client) error {
	user, err := s.users.CurrentUser()
	if err != nil {
		return err
	}
	client.OwnerID = user.ID
	return s.clientRepo.Update(ctx, client)
}

func (s *clientService) DeleteClient(ctx context.Context, id string) error {
	user, err := s.users.CurrentUser()
	if err != nil {
		return err
	}
	return s.clientRepo.Delete(ctx, user.ID, id)
}
