package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/andy/invoicer/internal/app"
	"github.com/andy/invoicer/internal/domain"
	"github.com/andy/invoicer/internal/format"
	"github.com/andy/invoicer/internal/service"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

type invoiceViewMode int

const (
	invoiceViewList invoiceViewMode = iota
	invoiceViewDetail
	invoiceViewForm
)

// eventBuffer is how many invoice events may queue before the bus drops them
const eventBuffer = 16

// InvoicesModel is the invoice list. It owns the detail and creation form
// views opened from it.
type InvoicesModel struct {
	app      *app.App
	mode     invoiceViewMode
	filter   domain.StatusFilter
	invoices []*domain.Invoice
	summary  *service.Summary
	cursor   int
	loading  bool
	seq      int
	notice   string
	status   string

	// pending delete confirmation
	confirm *domain.Invoice

	detail *InvoiceDetailModel
	form   *InvoiceFormModel

	events      <-chan service.InvoiceEvent
	unsubscribe func()
}

type invoicesDataMsg struct {
	seq      int
	invoices []*domain.Invoice
	summary  *service.Summary
	err      error
}

type invoiceDeletedMsg struct {
	number string
	err    error
}

type invoiceEventMsg struct {
	event service.InvoiceEvent
}

func (invoicesDataMsg) screen() Screen   { return ScreenInvoices }
func (invoiceDeletedMsg) screen() Screen { return ScreenInvoices }
func (invoiceEventMsg) screen() Screen   { return ScreenInvoices }

// NewInvoicesModel creates a new invoices screen model
func NewInvoicesModel(a *app.App) tea.Model {
	return &InvoicesModel{
		app:     a,
		mode:    invoiceViewList,
		filter:  domain.StatusFilterAll,
		loading: true,
	}
}

// IsCapturingInput returns true while the form is open or a delete awaits
// confirmation
func (m *InvoicesModel) IsCapturingInput() bool {
	if m.confirm != nil {
		return true
	}
	return m.mode == invoiceViewForm && m.form != nil
}

// Busy reports whether a status change is still being written
func (m *InvoicesModel) Busy() bool {
	return m.detail != nil && m.detail.inFlight
}

// Close cancels the event subscription
func (m *InvoicesModel) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
}

func (m *InvoicesModel) Init() tea.Cmd {
	if m.unsubscribe == nil {
		m.events, m.unsubscribe = m.app.Bus.Subscribe(eventBuffer)
	}
	return tea.Batch(m.loadInvoices(), waitForEvent(m.events))
}

// waitForEvent turns the next bus event into a message. A closed
// subscription ends the loop.
func waitForEvent(events <-chan service.InvoiceEvent) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-events
		if !ok {
			return nil
		}
		return invoiceEventMsg{event: e}
	}
}

func (m *InvoicesModel) loadInvoices() tea.Cmd {
	m.seq++
	m.loading = true
	seq, filter := m.seq, m.filter
	invoices, reports := m.app.InvoiceService, m.app.ReportService
	return func() tea.Msg {
		ctx := context.Background()

		list, err := invoices.ListInvoices(ctx, filter)
		if err != nil {
			return invoicesDataMsg{seq: seq, err: err}
		}
		summary, err := reports.GetSummary(ctx)
		if err != nil {
			return invoicesDataMsg{seq: seq, err: err}
		}
		return invoicesDataMsg{seq: seq, invoices: list, summary: summary}
	}
}

func (m *InvoicesModel) deleteInvoice(inv *domain.Invoice) tea.Cmd {
	id, number := inv.ID, inv.InvoiceNumber
	invoices := m.app.InvoiceService
	return func() tea.Msg {
		err := invoices.DeleteInvoice(context.Background(), id)
		return invoiceDeletedMsg{number: number, err: err}
	}
}

func (m *InvoicesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case invoicesDataMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.notice = userNotice(m.app.Logger, msg.err, "Could not load invoices.")
			return m, nil
		}
		m.notice = ""
		m.invoices = msg.invoices
		m.summary = msg.summary
		if m.cursor >= len(m.invoices) {
			m.cursor = max(0, len(m.invoices)-1)
		}
		return m, nil

	case invoiceEventMsg:
		return m, tea.Batch(m.loadInvoices(), waitForEvent(m.events))

	case invoiceDeletedMsg:
		if msg.err != nil {
			m.notice = userNotice(m.app.Logger, msg.err, "Could not delete the invoice.")
			return m, nil
		}
		m.status = fmt.Sprintf("Deleted %s", msg.number)
		return m, m.loadInvoices()

	case detailMsg:
		if m.detail == nil || m.detail.id != msg.invoiceID() {
			return m, nil
		}
		var cmd tea.Cmd
		m.detail, cmd = m.detail.update(msg)
		return m, cmd

	case closeDetailMsg:
		if m.Busy() {
			return m, nil
		}
		m.detail = nil
		m.mode = invoiceViewList
		return m, m.loadInvoices()

	case formMsg:
		if m.form == nil {
			return m, nil
		}
		if saved, ok := msg.(invoiceSavedMsg); ok && saved.err == nil {
			m.form = nil
			m.mode = invoiceViewList
			m.status = fmt.Sprintf("Created %s", saved.invoice.InvoiceNumber)
			return m, m.loadInvoices()
		}
		var cmd tea.Cmd
		m.form, cmd = m.form.update(msg)
		return m, cmd

	case closeFormMsg:
		m.form = nil
		m.mode = invoiceViewList
		return m, nil

	case RefreshDataMsg:
		if m.mode == invoiceViewDetail && m.detail != nil {
			return m, tea.Batch(m.loadInvoices(), m.detail.load())
		}
		return m, m.loadInvoices()
	}

	switch m.mode {
	case invoiceViewDetail:
		if m.detail != nil {
			var cmd tea.Cmd
			m.detail, cmd = m.detail.update(msg)
			return m, cmd
		}
	case invoiceViewForm:
		if m.form != nil {
			var cmd tea.Cmd
			m.form, cmd = m.form.update(msg)
			return m, cmd
		}
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.confirm != nil {
		inv := m.confirm
		m.confirm = nil
		if keyMsg.String() == "y" || keyMsg.String() == "Y" {
			return m, m.deleteInvoice(inv)
		}
		m.status = "Delete cancelled"
		return m, nil
	}

	m.status = ""
	switch {
	case key.Matches(keyMsg, DefaultKeyMap.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(keyMsg, DefaultKeyMap.Down):
		if m.cursor < len(m.invoices)-1 {
			m.cursor++
		}
	case key.Matches(keyMsg, DefaultKeyMap.Filter):
		m.filter = m.filter.Next()
		m.cursor = 0
		return m, m.loadInvoices()
	case key.Matches(keyMsg, DefaultKeyMap.New):
		m.form = NewInvoiceFormModel(m.app)
		m.mode = invoiceViewForm
		return m, m.form.Init()
	case key.Matches(keyMsg, DefaultKeyMap.Select):
		if inv := m.selected(); inv != nil {
			m.detail = NewInvoiceDetailModel(m.app, inv.ID)
			m.mode = invoiceViewDetail
			return m, m.detail.Init()
		}
	case key.Matches(keyMsg, DefaultKeyMap.Delete):
		if inv := m.selected(); inv != nil {
			m.confirm = inv
		}
	}
	return m, nil
}

func (m *InvoicesModel) selected() *domain.Invoice {
	if m.cursor < 0 || m.cursor >= len(m.invoices) {
		return nil
	}
	return m.invoices[m.cursor]
}

func (m *InvoicesModel) View() string {
	switch m.mode {
	case invoiceViewDetail:
		if m.detail != nil {
			return m.detail.View()
		}
	case invoiceViewForm:
		if m.form != nil {
			return m.form.View()
		}
	}
	return m.viewList()
}

func (m *InvoicesModel) viewList() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Invoices") + subtitleStyle.Render("  ["+m.filter.Label()+"]") + "\n")
	if m.summary != nil {
		fmt.Fprintf(&b, "  Outstanding: %s  Overdue: %s  Paid: %s  (%d invoices)\n",
			formatMoney(m.app, m.summary.Outstanding),
			formatMoney(m.app, m.summary.Overdue),
			formatMoney(m.app, m.summary.Paid),
			m.summary.Count,
		)
	}
	b.WriteString("\n")

	b.WriteString(renderNotice(m.notice))
	b.WriteString(renderStatus(m.status))

	if m.loading && len(m.invoices) == 0 {
		b.WriteString("  Loading invoices...\n")
		return b.String()
	}

	if len(m.invoices) == 0 {
		b.WriteString(subtitleStyle.Render("  No invoices found. Press 'n' to create one.") + "\n")
	} else {
		header := fmt.Sprintf("  %-14s %-20s %-12s %-12s %-9s %12s", "Number", "Client", "Issued", "Due", "Status", "Total")
		b.WriteString(boldStyle.Render(header) + "\n")
		for i, inv := range m.invoices {
			b.WriteString(m.renderRow(i, inv) + "\n")
		}
	}

	if m.confirm != nil {
		b.WriteString("\n" + confirmStyle.Render(fmt.Sprintf("  Delete invoice %s? [y/N]", m.confirm.InvoiceNumber)) + "\n")
	}

	if m.loading {
		b.WriteString("\n" + subtitleStyle.Render("  Refreshing...") + "\n")
	}

	b.WriteString("\n" + helpStyle.Render("  j/k: navigate  enter: open  n: new  d: delete  f: filter by status"))
	return b.String()
}

func (m *InvoicesModel) renderRow(index int, inv *domain.Invoice) string {
	client := "(no client)"
	if inv.Client != nil {
		client = inv.Client.Name
	}

	indicator := "  "
	if index == m.cursor {
		indicator = "> "
	}

	row := fmt.Sprintf("%s%-14s %-20s %-12s %-12s ",
		indicator,
		truncateStr(inv.InvoiceNumber, 14),
		truncateStr(client, 20),
		formatDate(m.app, inv.IssueDate),
		format.DatePtr(inv.DueDate, m.app.Config.Invoice.DateLayout),
	)
	total := fmt.Sprintf(" %12s", formatMoney(m.app, inv.Total))

	if index == m.cursor {
		return focusStyle.Render(row) + statusBadge(inv.Status) + focusStyle.Render(total)
	}
	return row + statusBadge(inv.Status) + total
}
