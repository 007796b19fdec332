package domain

import (
	"fmt"
	"strings"
	"time"
)

type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusSent      InvoiceStatus = "sent"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// InvoiceStatuses lists every status in display order.
var InvoiceStatuses = []InvoiceStatus{
	InvoiceStatusDraft,
	InvoiceStatusSent,
	InvoiceStatusPaid,
	InvoiceStatusOverdue,
	InvoiceStatusCancelled,
}

// ParseInvoiceStatus converts s (case-insensitive) to a status
func ParseInvoiceStatus(s string) (InvoiceStatus, error) {
	status := InvoiceStatus(strings.ToLower(strings.TrimSpace(s)))
	if !status.Valid() {
		return "", NewValidationError("status", fmt.Sprintf("unknown status %q", s))
	}
	return status, nil
}

// Valid reports whether s is one of the known statuses
func (s InvoiceStatus) Valid() bool {
	for _, known := range InvoiceStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Label returns the capitalized status, e.g. "Paid"
func (s InvoiceStatus) Label() string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

// CanTransitionTo reports whether an invoice in status s may move to next.
// Every status is reachable from every other so that invoices can be
// corrected by hand (paid back to sent, cancelled back to draft).
func (s InvoiceStatus) CanTransitionTo(next InvoiceStatus) bool {
	return next.Valid()
}

// StatusFilterAll selects invoices in any status.
const StatusFilterAll StatusFilter = "all"

// StatusFilter is either StatusFilterAll or a single InvoiceStatus.
type StatusFilter string

// ParseStatusFilter accepts "all", "" (same as all) or a status name
func ParseStatusFilter(s string) (StatusFilter, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == string(StatusFilterAll) {
		return StatusFilterAll, nil
	}
	status, err := ParseInvoiceStatus(s)
	if err != nil {
		return "", err
	}
	return StatusFilter(status), nil
}

// Status returns the concrete status and true, or false for StatusFilterAll
func (f StatusFilter) Status() (InvoiceStatus, bool) {
	if f == "" || f == StatusFilterAll {
		return "", false
	}
	return InvoiceStatus(f), true
}

// Matches reports whether an invoice in status s passes the filter
func (f StatusFilter) Matches(s InvoiceStatus) bool {
	want, ok := f.Status()
	return !ok || want == s
}

// Next cycles all → draft → sent → ... → cancelled → all
func (f StatusFilter) Next() StatusFilter {
	current, ok := f.Status()
	if !ok {
		return StatusFilter(InvoiceStatuses[0])
	}
	for i, s := range InvoiceStatuses {
		if s == current && i+1 < len(InvoiceStatuses) {
			return StatusFilter(InvoiceStatuses[i+1])
		}
	}
	return StatusFilterAll
}

// Label returns "All Statuses" or the status label
func (f StatusFilter) Label() string {
	if s, ok := f.Status(); ok {
		return s.Label()
	}
	return "All Statuses"
}

// Invoice is a persisted invoice. Client and Items are populated only when
// the read expanded them (list reads expand Client, detail reads expand both).
type Invoice struct {
	ID            string
	OwnerID       string
	ClientID      string
	InvoiceNumber string
	IssueDate     time.Time
	DueDate       *time.Time
	Status        InvoiceStatus
	Subtotal      float64
	TaxRate       float64 // percent, 10 = 10%
	TaxAmount     float64
	Total         float64
	Notes         string
	CreatedAt     time.Time

	Client *Client
	Items  []*InvoiceItem
}

// InvoiceItem is one billable line. Amount is fixed at creation.
type InvoiceItem struct {
	ID          string
	InvoiceID   string
	Description string
	Quantity    float64
	Rate        float64
	Amount      float64
	CreatedAt   time.Time
}

// NewInvoice creates a new draft invoice
func NewInvoice(ownerID, clientID, invoiceNumber string, issueDate time.Time) *Invoice {
	return &Invoice{
		OwnerID:       ownerID,
		ClientID:      clientID,
		InvoiceNumber: invoiceNumber,
		IssueDate:     issueDate,
		Status:        InvoiceStatusDraft,
		Items:         make([]*InvoiceItem, 0),
	}
}

// SetLines replaces the items with lines and recomputes the totals at the
// invoice's current tax rate.
func (i *Invoice) SetLines(lines []LineInput) {
	i.Items = make([]*InvoiceItem, 0, len(lines))
	for _, line := range lines {
		i.Items = append(i.Items, &InvoiceItem{
			Description: strings.TrimSpace(line.Description),
			Quantity:    line.Quantity,
			Rate:        line.Rate,
			Amount:      LineAmount(line.Quantity, line.Rate),
		})
	}
	i.applyTotals(ComputeTotals(lines, i.TaxRate))
}

func (i *Invoice) applyTotals(t Totals) {
	i.Subtotal = t.Subtotal
	i.TaxAmount = t.TaxAmount
	i.Total = t.Total
}

// IsOverdueAt reports whether a sent invoice is past its due date at now
func (i *Invoice) IsOverdueAt(now time.Time) bool {
	return i.Status == InvoiceStatusSent && i.DueDate != nil && now.After(*i.DueDate)
}

// Validate returns an error if the invoice is invalid
func (i *Invoice) Validate() error {
	if strings.TrimSpace(i.InvoiceNumber) == "" {
		return NewValidationError("invoice_number", "invoice number is required")
	}
	if i.ClientID == "" {
		return NewValidationError("client_id", "client is required")
	}
	if i.IssueDate.IsZero() {
		return NewValidationError("issue_date", "issue date is required")
	}
	if i.DueDate != nil && i.DueDate.Before(i.IssueDate) {
		return NewValidationError("due_date", "due date must not be before issue date")
	}
	if !i.Status.Valid() {
		return NewValidationError("status", fmt.Sprintf("unknown status %q", i.Status))
	}
	if i.TaxRate < 0 || i.TaxRate > 100 {
		return NewValidationError("tax_rate", "tax rate must be between 0 and 100")
	}
	if len(i.Items) == 0 {
		return NewValidationError("items", "at least one line item is required")
	}
	for n, item := range i.Items {
		if item.Description == "" {
			return NewValidationError(fmt.Sprintf("items[%d].description", n), "description is required")
		}
		if item.Quantity < 0 {
			return NewValidationError(fmt.Sprintf("items[%d].quantity", n), "quantity cannot be negative")
		}
		if item.Rate < 0 {
			return NewValidationError(fmt.Sprintf("items[%d].rate", n), "rate cannot be negative")
		}
	}
	return nil
}
