package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/andy/invoicer/internal/domain"
	"github.com/andy/invoicer/internal/repository"
	"go.uber.org/zap"
)

// CreateInvoiceInput is what the creation form collects
type CreateInvoiceInput struct {
	ClientID string
	// InvoiceNumber is generated when empty
	InvoiceNumber string
	IssueDate     time.Time
	DueDate       *time.Time
	TaxRate       float64 // percent
	Notes         string
	// Status defaults to draft
	Status domain.InvoiceStatus
	Lines  []domain.LineInput
}

// InvoiceService manages the invoice lifecycle
type InvoiceService interface {
	// CreateInvoice validates the input, inserts the invoice with computed
	// totals, then its items. If an item insert fails the invoice is removed
	// again and the error returned.
	CreateInvoice(ctx context.Context, in CreateInvoiceInput) (*domain.Invoice, error)

	// ListInvoices lists invoices with their client, newest first
	ListInvoices(ctx context.Context, filter domain.StatusFilter) ([]*domain.Invoice, error)

	// GetInvoice retrieves an invoice with its client and items
	GetInvoice(ctx context.Context, id string) (*domain.Invoice, error)

	// UpdateStatus writes the new status and returns the reloaded invoice
	UpdateStatus(ctx context.Context, id string, status domain.InvoiceStatus) (*domain.Invoice, error)

	// DeleteInvoice removes an invoice and its items. Deleting an invoice
	// that no longer exists succeeds.
	DeleteInvoice(ctx context.Context, id string) error

	// MarkOverdue moves sent invoices past their due date to overdue
	MarkOverdue(ctx context.Context, now time.Time) ([]*domain.Invoice, error)

	// NextInvoiceNumber suggests the next number for the given year
	NextInvoiceNumber(ctx context.Context, year int) (string, error)
}

type invoiceService struct {
	invoiceRepo  repository.InvoiceRepository
	clientRepo   repository.ClientRepository
	users        UserSource
	bus          *Bus
	logger       *zap.Logger
	numberPrefix string

	mu       sync.Mutex
	inFlight map[string]bool
}

// NewInvoiceService creates a new invoice service
func NewInvoiceService(
	invoiceRepo repository.InvoiceRepository,
	clientRepo repository.ClientRepository,
	users UserSource,
	bus *Bus,
	logger *zap.Logger,
	numberPrefix string,
) InvoiceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if bus == nil {
		bus = NewBus()
	}
	if numberPrefix == "" {
		numberPrefix = "INV"
	}
	return &invoiceService{
		invoiceRepo:  invoiceRepo,
		clientRepo:   clientRepo,
		users:        users,
		bus:          bus,
		logger:       logger,
		numberPrefix: numberPrefix,
		inFlight:     make(map[string]bool),
	}
}

func (s *invoiceService) CreateInvoice(ctx context.Context, in CreateInvoiceInput) (*domain.Invoice, error) {
	user, err := s.users.CurrentUser()
	if err != nil {
		return nil, err
	}

	if in.ClientID == "" {
		return nil, domain.NewValidationError("client_id", "client is required")
	}
	client, err := s.clientRepo.GetByID(ctx, user.ID, in.ClientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NewValidationError("client_id", "client does not exist")
		}
		return nil, err
	}

	number := in.InvoiceNumber
	if number == "" {
		number, err = s.invoiceRepo.GetNextInvoiceNumber(ctx, user.ID, s.numberPrefix, in.IssueDate.Year())
		if err != nil {
			return nil, fmt.Errorf("failed to generate invoice number: %w", err)
		}
	}

	invoice := domain.NewInvoice(user.ID, client.ID, number, in.IssueDate)
	invoice.DueDate = in.DueDate
	invoice.TaxRate = in.TaxRate
	invoice.Notes = in.Notes
	if in.Status != "" {
		invoice.Status = in.Status
	}
	invoice.SetLines(in.Lines)

	if err := invoice.Validate(); err != nil {
		return nil, err
	}

	if err := s.invoiceRepo.Create(ctx, invoice); err != nil {
		s.logger.Error("create invoice failed", zap.String("invoice_number", number), zap.Error(err))
		return nil, err
	}

	for _, item := range invoice.Items {
		item.InvoiceID = invoice.ID
		if err := s.invoiceRepo.AddItem(ctx, item); err != nil {
			s.logger.Error("add line item failed, removing invoice",
				zap.String("invoice_id", invoice.ID),
				zap.Error(err))

			// best effort; the caller keeps the form open and may retry
			if delErr := s.invoiceRepo.Delete(context.WithoutCancel(ctx), user.ID, invoice.ID); delErr != nil {
				s.logger.Error("rollback of invoice failed",
					zap.String("invoice_id", invoice.ID),
					zap.Error(delErr))
			}
			return nil, err
		}
	}

	invoice.Client = client
	s.logger.Info("invoice created",
		zap.String("invoice_id", invoice.ID),
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.Float64("total", invoice.Total))
	s.bus.Publish(InvoiceEvent{Kind: InvoiceCreated, InvoiceID: invoice.ID, Status: invoice.Status})

	return invoice, nil
}

func (s *invoiceService) ListInvoices(ctx context.Context, filter domain.StatusFilter) ([]*domain.Invoice, error) {
	user, err := s.users.CurrentUser()
	if err != nil {
		return nil, err
	}

	var status *domain.InvoiceStatus
	if st, ok := filter.Status(); ok {
		status = &st
	}

	invoices, err := s.invoiceRepo.List(ctx, user.ID, status)
	if err != nil {
		s.logger.Error("list invoices failed", zap.String("filter", string(filter)), zap.Error(err))
		return nil, err
	}
	return invoices, nil
}

func (s *invoiceService) GetInvoice(ctx context.Context, id string) (*domain.Invoice, error) {
	user, err := s.users.CurrentUser()
	if err != nil {
		return nil, err
	}

	invoice, err := s.invoiceRepo.GetByID(ctx, user.ID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrInvoiceNotFound, id)
		}
		s.logger.Error("get invoice failed", zap.String("invoice_id", id), zap.Error(err))
		return nil, err
	}
	return invoice, nil
}

// acquire marks id as having a transition in flight
func (s *invoiceService) acquire(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[id] {
		return false
	}
	s.inFlight[id] = true
	return true
}

func (s *invoiceService) release(id string) {
	s.mu.Lock()
	delete(s.inFlight, id)
	s.mu.Unlock()
}

func (s *invoiceService) UpdateStatus(ctx context.Context, id string, status domain.InvoiceStatus) (*domain.Invoice, error) {
	user, err := s.users.CurrentUser()
	if err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, domain.NewValidationError("status", fmt.Sprintf("unknown status %q", status))
	}

	if !s.acquire(id) {
		return nil, ErrTransitionInFlight
	}
	defer s.release(id)

	if err := s.invoiceRepo.UpdateStatus(ctx, user.ID, id, status); err != nil {
		s.logger.Error("status change failed",
			zap.String("invoice_id", id),
			zap.String("status", string(status)),
			zap.Error(err))
		return nil, err
	}

	invoice, err := s.invoiceRepo.GetByID(ctx, user.ID, id)
	if err != nil {
		// the write landed; listeners still need to refresh
		s.bus.Publish(InvoiceEvent{Kind: InvoiceStatusChanged, InvoiceID: id, Status: status})
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrInvoiceNotFound, id)
		}
		s.logger.Error("reload after status change failed", zap.String("invoice_id", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("invoice status changed",
		zap.String("invoice_id", id),
		zap.String("status", string(status)))
	s.bus.Publish(InvoiceEvent{Kind: InvoiceStatusChanged, InvoiceID: id, Status: status})

	return invoice, nil
}

func (s *invoiceService) DeleteInvoice(ctx context.Context, id string) error {
	user, err := s.users.CurrentUser()
	if err != nil {
		return err
	}

	if err := s.invoiceRepo.Delete(ctx, user.ID, id); err != nil {
		s.logger.Error("delete invoice failed", zap.String("invoice_id", id), zap.Error(err))
		return err
	}

	s.logger.Info("invoice deleted", zap.String("invoice_id", id))
	s.bus.Publish(InvoiceEvent{Kind: InvoiceDeleted, InvoiceID: id})
	return nil
}

func (s *invoiceService) MarkOverdue(ctx context.Context, now time.Time) ([]*domain.Invoice, error) {
	sent, err := s.ListInvoices(ctx, domain.StatusFilter(domain.InvoiceStatusSent))
	if err != nil {
		return nil, err
	}

	var updated []*domain.Invoice
	var errs []error
	for _, invoice := range sent {
		if !invoice.IsOverdueAt(now) {
			continue
		}
		inv, err := s.UpdateStatus(ctx, invoice.ID, domain.InvoiceStatusOverdue)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", invoice.InvoiceNumber, err))
			continue
		}
		updated = append(updated, inv)
	}

	return updated, errors.Join(errs...)
}

func (s *invoiceService) NextInvoiceNumber(ctx context.Context, year int) (string, error) {
	user, err := s.users.CurrentUser()
	if err != nil {
		return "", err
	}
	return s.invoiceRepo.GetNextInvoiceNumber(ctx, user.ID, s.numberPrefix, year)
}
