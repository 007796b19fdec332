package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/andy/invoicer/internal/app"
	"github.com/andy/invoicer/internal/domain"
	"github.com/andy/invoicer/internal/export"
	"github.com/andy/invoicer/internal/format"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// detailMsg is a result for the detail view of one invoice
type detailMsg interface {
	screenMsg
	invoiceID() string
}

type detailDataMsg struct {
	id      string
	seq     int
	invoice *domain.Invoice
	err     error
}

type statusChangedMsg struct {
	id      string
	status  domain.InvoiceStatus
	invoice *domain.Invoice
	err     error
}

type exportDoneMsg struct {
	id   string
	path string
	err  error
}

type closeDetailMsg struct{}

func (detailDataMsg) screen() Screen    { return ScreenInvoices }
func (statusChangedMsg) screen() Screen { return ScreenInvoices }
func (exportDoneMsg) screen() Screen    { return ScreenInvoices }
func (closeDetailMsg) screen() Screen   { return ScreenInvoices }

func (m detailDataMsg) invoiceID() string    { return m.id }
func (m statusChangedMsg) invoiceID() string { return m.id }
func (m exportDoneMsg) invoiceID() string    { return m.id }

// statusKeys maps the number keys to statuses in display order
var statusKeys = map[string]domain.InvoiceStatus{
	"1": domain.InvoiceStatusDraft,
	"2": domain.InvoiceStatusSent,
	"3": domain.InvoiceStatusPaid,
	"4": domain.InvoiceStatusOverdue,
	"5": domain.InvoiceStatusCancelled,
}

// InvoiceDetailModel shows one invoice with its client and line items and
// offers status changes and export
type InvoiceDetailModel struct {
	app      *app.App
	id       string
	invoice  *domain.Invoice
	loading  bool
	seq      int
	inFlight bool
	notice   string
	status   string
}

// NewInvoiceDetailModel creates a detail view for invoice id
func NewInvoiceDetailModel(a *app.App, id string) *InvoiceDetailModel {
	return &InvoiceDetailModel{app: a, id: id, loading: true}
}

func (m *InvoiceDetailModel) Init() tea.Cmd {
	return m.load()
}

func (m *InvoiceDetailModel) load() tea.Cmd {
	m.seq++
	m.loading = true
	id, seq := m.id, m.seq
	invoices := m.app.InvoiceService
	return func() tea.Msg {
		inv, err := invoices.GetInvoice(context.Background(), id)
		return detailDataMsg{id: id, seq: seq, invoice: inv, err: err}
	}
}

// canSetStatus reports whether the status controls accept next right now
func (m *InvoiceDetailModel) canSetStatus(next domain.InvoiceStatus) bool {
	if m.invoice == nil || m.inFlight || m.loading {
		return false
	}
	return next != m.invoice.Status && m.invoice.Status.CanTransitionTo(next)
}

func (m *InvoiceDetailModel) setStatus(next domain.InvoiceStatus) tea.Cmd {
	m.inFlight = true
	id := m.id
	invoices := m.app.InvoiceService
	return func() tea.Msg {
		inv, err := invoices.UpdateStatus(context.Background(), id, next)
		return statusChangedMsg{id: id, status: next, invoice: inv, err: err}
	}
}

func (m *InvoiceDetailModel) export(f export.Format) tea.Cmd {
	inv := m.invoice
	exporter, dir := m.app.Exporter, m.app.Config.Invoice.OutputDir
	return func() tea.Msg {
		path, err := exporter.WriteFile(dir, inv, f)
		return exportDoneMsg{id: inv.ID, path: path, err: err}
	}
}

func (m *InvoiceDetailModel) update(msg tea.Msg) (*InvoiceDetailModel, tea.Cmd) {
	switch msg := msg.(type) {
	case detailDataMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.notice = userNotice(m.app.Logger, msg.err, "Could not load the invoice.")
			return m, nil
		}
		m.notice = ""
		m.invoice = msg.invoice
		return m, nil

	case statusChangedMsg:
		m.inFlight = false
		if msg.err != nil {
			m.notice = userNotice(m.app.Logger, msg.err, "Could not update the status.")
			return m, nil
		}
		m.notice = ""
		m.status = fmt.Sprintf("Marked as %s", msg.status.Label())
		if msg.invoice != nil {
			m.invoice = msg.invoice
			return m, nil
		}
		return m, m.load()

	case exportDoneMsg:
		if msg.err != nil {
			m.notice = userNotice(m.app.Logger, msg.err, "Could not export the invoice.")
			return m, nil
		}
		m.status = "Saved " + msg.path
		return m, nil

	case tea.KeyMsg:
		m.status = ""
		if next, ok := statusKeys[msg.String()]; ok {
			if m.canSetStatus(next) {
				m.notice = ""
				return m, m.setStatus(next)
			}
			return m, nil
		}

		switch {
		case key.Matches(msg, DefaultKeyMap.Back):
			if m.inFlight {
				m.notice = "Wait for the status change to finish."
				return m, nil
			}
			return m, func() tea.Msg { return closeDetailMsg{} }
		case msg.String() == "e":
			if m.invoice != nil {
				return m, m.export(export.FormatPDF)
			}
		case msg.String() == "t":
			if m.invoice != nil {
				return m, m.export(export.FormatText)
			}
		}
	}
	return m, nil
}

func (m *InvoiceDetailModel) View() string {
	if m.invoice == nil {
		s := titleStyle.Render("Invoice") + "\n\n" + renderNotice(m.notice)
		if m.loading {
			s += "  Loading invoice...\n"
		}
		return s + "\n" + helpStyle.Render("  esc: back")
	}

	inv := m.invoice
	layout := m.app.Config.Invoice.DateLayout
	var b strings.Builder

	b.WriteString(titleStyle.Render("Invoice "+inv.InvoiceNumber) + "  " + statusBadge(inv.Status) + "\n\n")
	b.WriteString(renderNotice(m.notice))
	b.WriteString(renderStatus(m.status))

	fmt.Fprintf(&b, "  Issued: %s    Due: %s\n\n", format.Date(inv.IssueDate, layout), format.DatePtr(inv.DueDate, layout))

	b.WriteString(boldStyle.Render("  Bill To") + "\n")
	if c := inv.Client; c != nil {
		fmt.Fprintf(&b, "    %s\n", c.Name)
		for _, line := range []string{c.Email, c.Phone, c.Address, c.Locality(), c.Country} {
			if line != "" {
				fmt.Fprintf(&b, "    %s\n", line)
			}
		}
	} else {
		b.WriteString(subtitleStyle.Render("    (unknown client)") + "\n")
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "  %-30s %8s %12s %12s\n", "Description", "Qty", "Rate", "Amount")
	b.WriteString("  " + strings.Repeat("-", 65) + "\n")
	for _, item := range inv.Items {
		fmt.Fprintf(&b, "  %-30s %8s %12s %12s\n",
			truncateStr(item.Description, 30),
			format.Number(item.Quantity),
			formatMoney(m.app, item.Rate),
			formatMoney(m.app, item.Amount),
		)
	}
	b.WriteString("  " + strings.Repeat("-", 65) + "\n")
	fmt.Fprintf(&b, "  %52s %12s\n", "Subtotal", formatMoney(m.app, inv.Subtotal))
	fmt.Fprintf(&b, "  %52s %12s\n", "Tax ("+format.Percent(inv.TaxRate)+")", formatMoney(m.app, inv.TaxAmount))
	b.WriteString(boldStyle.Render(fmt.Sprintf("  %52s %12s", "Total", formatMoney(m.app, inv.Total))) + "\n")

	if inv.Notes != "" {
		b.WriteString("\n" + boldStyle.Render("  Notes") + "\n")
		fmt.Fprintf(&b, "    %s\n", inv.Notes)
	}

	b.WriteString("\n" + m.renderStatusControls() + "\n")
	if m.inFlight {
		b.WriteString(subtitleStyle.Render("  Saving status...") + "\n")
	}

	b.WriteString("\n" + helpStyle.Render("  1-5: set status  e: export PDF  t: export text  esc: back"))
	return b.String()
}

func (m *InvoiceDetailModel) renderStatusControls() string {
	parts := make([]string, 0, len(domain.InvoiceStatuses))
	for i, s := range domain.InvoiceStatuses {
		label := fmt.Sprintf("[%d] %s", i+1, s.Label())
		if m.canSetStatus(s) {
			parts = append(parts, label)
		} else {
			parts = append(parts, subtitleStyle.Render(label))
		}
	}
	return "  " + strings.Join(parts, "  ")
}
