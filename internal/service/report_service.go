package service

import (
	"context"
	"time"

	"github.com/andy/invoicer/internal/domain"
	"github.com/andy/invoicer/internal/repository"
	"github.com/shopspring/decimal"
)

// Summary is the dashboard view of the invoice set
type Summary struct {
	Count       int
	ByStatus    map[domain.InvoiceStatus]int
	Outstanding float64 // sent + overdue
	Overdue     float64
	Paid        float64
}

// ReportService provides aggregations over the signed-in user's invoices
type ReportService interface {
	GetSummary(ctx context.Context) (*Summary, error)
	// GetRevenueByMonth totals paid invoices by issue month
	GetRevenueByMonth(ctx context.Context, year int) (map[time.Month]float64, error)
}

type reportService struct {
	invoiceRepo repository.InvoiceRepository
	users       UserSource
}

// NewReportService creates a new report service
func NewReportService(invoiceRepo repository.InvoiceRepository, users UserSource) ReportService {
	return &reportService{invoiceRepo: invoiceRepo, users: users}
}

func (s *reportService) list(ctx context.Context) ([]*domain.Invoice, error) {
	user, err := s.users.CurrentUser()
	if err != nil {
		return nil, err
	}
	return s.invoiceRepo.List(ctx, user.ID, nil)
}

func (s *reportService) GetSummary(ctx context.Context) (*Summary, error) {
	invoices, err := s.list(ctx)
	if err != nil {
		return nil, err
	}

	summary := &Summary{ByStatus: make(map[domain.InvoiceStatus]int, len(domain.InvoiceStatuses))}
	for _, st := range domain.InvoiceStatuses {
		summary.ByStatus[st] = 0
	}

	outstanding, overdue, paid := decimal.Zero, decimal.Zero, decimal.Zero
	for _, invoice := range invoices {
		summary.Count++
		summary.ByStatus[invoice.Status]++

		total := decimal.NewFromFloat(invoice.Total)
		switch invoice.Status {
		case domain.InvoiceStatusSent:
			outstanding = outstanding.Add(total)
		case domain.InvoiceStatusOverdue:
			outstanding = outstanding.Add(total)
			overdue = overdue.Add(total)
		case domain.InvoiceStatusPaid:
			paid = paid.Add(total)
		}
	}

	summary.Outstanding = outstanding.InexactFloat64()
	summary.Overdue = overdue.InexactFloat64()
	summary.Paid = paid.InexactFloat64()
	return summary, nil
}

func (s *reportService) GetRevenueByMonth(ctx context.Context, year int) (map[time.Month]float64, error) {
	invoices, err := s.list(ctx)
	if err != nil {
		return nil, err
	}

	sums := make(map[time.Month]decimal.Decimal, 12)
	for m := time.January; m <= time.December; m++ {
		sums[m] = decimal.Zero
	}

	for _, invoice := range invoices {
		if invoice.Status != domain.InvoiceStatusPaid || invoice.IssueDate.Year() != year {
			continue
		}
		m := invoice.IssueDate.Month()
		sums[m] = sums[m].Add(decimal.NewFromFloat(invoice.Total))
	}

	revenue := make(map[time.Month]float64, 12)
	for m, d := range sums {
		revenue[m] = d.InexactFloat64()
	}
	return revenue, nil
}
