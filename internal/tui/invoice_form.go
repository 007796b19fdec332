package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/andy/invoicer/internal/app"
	"github.com/andy/invoicer/internal/domain"
	"github.com/andy/invoicer/internal/format"
	"github.com/andy/invoicer/internal/service"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// formMsg is a result for the creation form
type formMsg interface {
	screenMsg
	isFormMsg()
}

type formDataMsg struct {
	clients []*domain.Client
	number  string
	err     error
}

type invoiceSavedMsg struct {
	invoice *domain.Invoice
	err     error
}

type closeFormMsg struct{}

func (formDataMsg) screen() Screen     { return ScreenInvoices }
func (invoiceSavedMsg) screen() Screen { return ScreenInvoices }
func (closeFormMsg) screen() Screen    { return ScreenInvoices }

func (formDataMsg) isFormMsg()     {}
func (invoiceSavedMsg) isFormMsg() {}

// form positions before the line items; client and status are selectors
const (
	formFieldClient = iota
	formFieldNumber
	formFieldIssue
	formFieldDue
	formFieldTax
	formFieldNotes
	formFieldStatus
	formHeaderCount
)

const (
	lineFieldDesc = iota
	lineFieldQty
	lineFieldRate
	lineFieldCount
)

type formLine [lineFieldCount]textinput.Model

func newFormLine() formLine {
	var l formLine
	l[lineFieldDesc] = newInput("Description", 120, 30)
	l[lineFieldQty] = newInput("1", 10, 8)
	l[lineFieldRate] = newInput("0.00", 12, 10)
	return l
}

// InvoiceFormModel collects a new invoice and its line items
type InvoiceFormModel struct {
	app *app.App

	clients   []*domain.Client
	clientIdx int
	statusIdx int

	header     [formHeaderCount]textinput.Model
	lines      []formLine
	focus      int
	dueTouched bool

	loading bool
	saving  bool
	notice  string
}

// NewInvoiceFormModel creates a form with today's defaults from the config
func NewInvoiceFormModel(a *app.App) *InvoiceFormModel {
	cfg := a.Config.Invoice
	m := &InvoiceFormModel{app: a, loading: true}

	m.header[formFieldNumber] = newInput(cfg.NumberPrefix+"-YYYY-NNN", 40, 20)
	m.header[formFieldIssue] = newInput("YYYY-MM-DD", 10, 12)
	m.header[formFieldDue] = newInput("YYYY-MM-DD (optional)", 10, 12)
	m.header[formFieldTax] = newInput("0", 6, 8)
	m.header[formFieldNotes] = newInput("Optional notes", 500, 50)

	issue := today()
	m.header[formFieldIssue].SetValue(issue.Format("2006-01-02"))
	m.header[formFieldDue].SetValue(m.defaultDue(issue))
	m.header[formFieldTax].SetValue(format.Number(cfg.DefaultTaxRate))

	m.lines = []formLine{newFormLine()}
	m.focus = formFieldClient
	return m
}

func (m *InvoiceFormModel) defaultDue(issue time.Time) string {
	days := m.app.Config.Invoice.DefaultDueDays
	if days <= 0 {
		return ""
	}
	return issue.AddDate(0, 0, days).Format("2006-01-02")
}

// IsCapturingInput is always true; the form owns the keyboard until closed
func (m *InvoiceFormModel) IsCapturingInput() bool {
	return true
}

func (m *InvoiceFormModel) Init() tea.Cmd {
	clients, invoices := m.app.ClientService, m.app.InvoiceService
	year := today().Year()
	return func() tea.Msg {
		ctx := context.Background()
		list, err := clients.ListClients(ctx)
		if err != nil {
			return formDataMsg{err: err}
		}
		number, err := invoices.NextInvoiceNumber(ctx, year)
		if err != nil {
			return formDataMsg{clients: list, err: err}
		}
		return formDataMsg{clients: list, number: number}
	}
}

func (m *InvoiceFormModel) positions() int {
	return formHeaderCount + len(m.lines)*lineFieldCount
}

// input returns the text input at focus position pos, or nil for selectors
func (m *InvoiceFormModel) input(pos int) *textinput.Model {
	if pos == formFieldClient || pos == formFieldStatus {
		return nil
	}
	if pos < formHeaderCount {
		return &m.header[pos]
	}
	pos -= formHeaderCount
	return &m.lines[pos/lineFieldCount][pos%lineFieldCount]
}

func (m *InvoiceFormModel) lineAt(pos int) (int, bool) {
	if pos < formHeaderCount {
		return 0, false
	}
	return (pos - formHeaderCount) / lineFieldCount, true
}

func (m *InvoiceFormModel) setFocus(pos int) tea.Cmd {
	if in := m.input(m.focus); in != nil {
		in.Blur()
	}
	n := m.positions()
	m.focus = (pos%n + n) % n
	if in := m.input(m.focus); in != nil {
		return in.Focus()
	}
	return nil
}

func (m *InvoiceFormModel) addLine() tea.Cmd {
	m.lines = append(m.lines, newFormLine())
	return m.setFocus(formHeaderCount + (len(m.lines)-1)*lineFieldCount)
}

func (m *InvoiceFormModel) removeLine() tea.Cmd {
	line, ok := m.lineAt(m.focus)
	if !ok || len(m.lines) == 1 {
		return nil
	}
	if in := m.input(m.focus); in != nil {
		in.Blur()
	}
	m.lines = append(m.lines[:line], m.lines[line+1:]...)
	if line >= len(m.lines) {
		line = len(m.lines) - 1
	}
	m.focus = formHeaderCount + line*lineFieldCount
	return m.input(m.focus).Focus()
}

func cycle(i, delta, n int) int {
	if n == 0 {
		return 0
	}
	return ((i+delta)%n + n) % n
}

// previewLines parses the line inputs leniently for the totals preview
func (m *InvoiceFormModel) previewLines() []domain.LineInput {
	lines := make([]domain.LineInput, 0, len(m.lines))
	for _, l := range m.lines {
		qty, _ := strconv.ParseFloat(strings.TrimSpace(l[lineFieldQty].Value()), 64)
		rate, _ := strconv.ParseFloat(strings.TrimSpace(l[lineFieldRate].Value()), 64)
		lines = append(lines, domain.LineInput{Description: l[lineFieldDesc].Value(), Quantity: qty, Rate: rate})
	}
	return lines
}

func (m *InvoiceFormModel) previewTax() float64 {
	tax, _ := strconv.ParseFloat(strings.TrimSpace(m.header[formFieldTax].Value()), 64)
	return tax
}

// buildInput turns the form into a create request. Rows left completely
// empty are ignored.
func (m *InvoiceFormModel) buildInput() (service.CreateInvoiceInput, error) {
	var in service.CreateInvoiceInput

	if len(m.clients) == 0 {
		return in, domain.NewValidationError("client_id", "Add a client first (press esc, then c).")
	}
	in.ClientID = m.clients[m.clientIdx].ID
	in.InvoiceNumber = strings.TrimSpace(m.header[formFieldNumber].Value())
	in.Notes = strings.TrimSpace(m.header[formFieldNotes].Value())
	in.Status = domain.InvoiceStatuses[m.statusIdx]

	issue, err := parseDay(m.header[formFieldIssue].Value())
	if err != nil {
		return in, domain.NewValidationError("issue_date", "Issue date: "+err.Error())
	}
	in.IssueDate = issue

	if due := strings.TrimSpace(m.header[formFieldDue].Value()); due != "" {
		d, err := parseDay(due)
		if err != nil {
			return in, domain.NewValidationError("due_date", "Due date: "+err.Error())
		}
		in.DueDate = &d
	}

	if tax := strings.TrimSpace(m.header[formFieldTax].Value()); tax != "" {
		rate, err := strconv.ParseFloat(tax, 64)
		if err != nil {
			return in, domain.NewValidationError("tax_rate", fmt.Sprintf("Tax rate %q is not a number.", tax))
		}
		in.TaxRate = rate
	}

	for i, l := range m.lines {
		desc := strings.TrimSpace(l[lineFieldDesc].Value())
		qtyStr := strings.TrimSpace(l[lineFieldQty].Value())
		rateStr := strings.TrimSpace(l[lineFieldRate].Value())
		if desc == "" && qtyStr == "" && rateStr == "" {
			continue
		}
		qty, err := strconv.ParseFloat(qtyStr, 64)
		if err != nil {
			return in, domain.NewValidationError("quantity", fmt.Sprintf("Item %d: quantity must be a number.", i+1))
		}
		rate, err := strconv.ParseFloat(rateStr, 64)
		if err != nil {
			return in, domain.NewValidationError("rate", fmt.Sprintf("Item %d: rate must be a number.", i+1))
		}
		in.Lines = append(in.Lines, domain.LineInput{Description: desc, Quantity: qty, Rate: rate})
	}
	return in, nil
}

func (m *InvoiceFormModel) submit() tea.Cmd {
	in, err := m.buildInput()
	if err != nil {
		m.notice = userNotice(m.app.Logger, err, "Please check the form.")
		return nil
	}
	m.notice = ""
	m.saving = true
	invoices := m.app.InvoiceService
	return func() tea.Msg {
		inv, err := invoices.CreateInvoice(context.Background(), in)
		return invoiceSavedMsg{invoice: inv, err: err}
	}
}

func (m *InvoiceFormModel) update(msg tea.Msg) (*InvoiceFormModel, tea.Cmd) {
	switch msg := msg.(type) {
	case formDataMsg:
		m.loading = false
		m.clients = msg.clients
		if m.clientIdx >= len(m.clients) {
			m.clientIdx = 0
		}
		if msg.number != "" && m.header[formFieldNumber].Value() == "" {
			m.header[formFieldNumber].SetValue(msg.number)
		}
		if msg.err != nil {
			m.notice = userNotice(m.app.Logger, msg.err, "Could not load clients.")
		} else if len(m.clients) == 0 {
			m.notice = "No clients yet. Add one on the Clients screen first."
		}
		return m, nil

	case invoiceSavedMsg:
		m.saving = false
		if msg.err != nil {
			m.notice = userNotice(m.app.Logger, msg.err, "Could not save the invoice. Please try again.")
		}
		return m, nil

	case tea.KeyMsg:
		if m.saving {
			return m, nil
		}
		switch msg.String() {
		case "esc":
			return m, func() tea.Msg { return closeFormMsg{} }
		case "tab", "down":
			return m, m.setFocus(m.focus + 1)
		case "shift+tab", "up":
			return m, m.setFocus(m.focus - 1)
		case "ctrl+n":
			return m, m.addLine()
		case "ctrl+d":
			return m, m.removeLine()
		case "ctrl+s":
			return m, m.submit()
		case "enter":
			if m.focus == m.positions()-1 {
				return m, m.submit()
			}
			return m, m.setFocus(m.focus + 1)
		case "left", "right":
			delta := 1
			if msg.String() == "left" {
				delta = -1
			}
			switch m.focus {
			case formFieldClient:
				m.clientIdx = cycle(m.clientIdx, delta, len(m.clients))
				return m, nil
			case formFieldStatus:
				m.statusIdx = cycle(m.statusIdx, delta, len(domain.InvoiceStatuses))
				return m, nil
			}
		}
	}

	in := m.input(m.focus)
	if in == nil {
		return m, nil
	}
	before := in.Value()
	var cmd tea.Cmd
	*in, cmd = in.Update(msg)

	if in.Value() != before {
		switch m.focus {
		case formFieldDue:
			m.dueTouched = true
		case formFieldIssue:
			if issue, err := parseDay(in.Value()); err == nil && !m.dueTouched {
				m.header[formFieldDue].SetValue(m.defaultDue(issue))
			}
		}
	}
	return m, cmd
}

func (m *InvoiceFormModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("New Invoice") + "\n\n")

	if m.loading {
		b.WriteString(subtitleStyle.Render("  Loading clients...") + "\n\n")
	}

	client := subtitleStyle.Render("(none)")
	if len(m.clients) > 0 {
		client = "< " + m.clients[m.clientIdx].Name + " >"
	}
	status := "< " + domain.InvoiceStatuses[m.statusIdx].Label() + " >"

	labels := []string{"Client:", "Invoice number:", "Issue date:", "Due date:", "Tax rate (%):", "Notes:", "Status:"}
	for i, label := range labels {
		indicator, labelStyle := "  ", subtitleStyle
		if i == m.focus {
			indicator, labelStyle = "> ", focusStyle
		}
		var value string
		switch i {
		case formFieldClient:
			value = client
		case formFieldStatus:
			value = status
		default:
			value = m.header[i].View()
		}
		fmt.Fprintf(&b, "%s%-16s %s\n", indicator, labelStyle.Render(label), value)
	}

	b.WriteString("\n" + boldStyle.Render("  Line items") + "\n")
	for i := range m.lines {
		line, _ := m.lineAt(m.focus)
		indicator := "  "
		if m.focus >= formHeaderCount && line == i {
			indicator = "> "
		}
		fmt.Fprintf(&b, "%s%d. %s  x %s  @ %s\n", indicator, i+1,
			m.lines[i][lineFieldDesc].View(),
			m.lines[i][lineFieldQty].View(),
			m.lines[i][lineFieldRate].View(),
		)
	}

	tax := m.previewTax()
	totals := domain.ComputeTotals(m.previewLines(), tax)
	b.WriteString("\n")
	fmt.Fprintf(&b, "  %-14s %12s\n", "Subtotal:", formatMoney(m.app, totals.Subtotal))
	fmt.Fprintf(&b, "  %-14s %12s\n", "Tax ("+format.Percent(tax)+"):", formatMoney(m.app, totals.TaxAmount))
	b.WriteString(boldStyle.Render(fmt.Sprintf("  %-14s %12s", "Total:", formatMoney(m.app, totals.Total))) + "\n\n")

	b.WriteString(renderNotice(m.notice))
	if m.saving {
		b.WriteString("  Saving...\n\n")
	}

	b.WriteString(helpStyle.Render("  tab/shift+tab: fields  ←/→: choose  ctrl+n: add item  ctrl+d: remove item  ctrl+s: save  esc: cancel"))
	return b.String()
}
