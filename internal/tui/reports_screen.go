package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/andy/invoicer/internal/app"
	"github.com/andy/invoicer/internal/domain"
	"github.com/andy/invoicer/internal/service"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ReportsModel shows the invoice summary and paid revenue by month
type ReportsModel struct {
	app         *app.App
	revenueYear int

	summary *service.Summary
	monthly map[time.Month]float64

	loading bool
	seq     int
	notice  string
	status  string
}

type reportsDataMsg struct {
	seq     int
	summary *service.Summary
	monthly map[time.Month]float64
	err     error
}

type overdueSweptMsg struct {
	marked []*domain.Invoice
	err    error
}

func (reportsDataMsg) screen() Screen  { return ScreenReports }
func (overdueSweptMsg) screen() Screen { return ScreenReports }

// NewReportsModel creates a new reports screen model
func NewReportsModel(a *app.App) tea.Model {
	return &ReportsModel{
		app:         a,
		revenueYear: time.Now().Year(),
		loading:     true,
	}
}

func (m *ReportsModel) Init() tea.Cmd {
	return m.loadData()
}

func (m *ReportsModel) loadData() tea.Cmd {
	m.seq++
	m.loading = true
	seq, year := m.seq, m.revenueYear
	reports := m.app.ReportService
	return func() tea.Msg {
		ctx := context.Background()
		summary, err := reports.GetSummary(ctx)
		if err != nil {
			return reportsDataMsg{seq: seq, err: err}
		}
		monthly, err := reports.GetRevenueByMonth(ctx, year)
		if err != nil {
			return reportsDataMsg{seq: seq, err: err}
		}
		return reportsDataMsg{seq: seq, summary: summary, monthly: monthly}
	}
}

func (m *ReportsModel) sweepOverdue() tea.Cmd {
	invoices := m.app.InvoiceService
	return func() tea.Msg {
		marked, err := invoices.MarkOverdue(context.Background(), time.Now())
		return overdueSweptMsg{marked: marked, err: err}
	}
}

func (m *ReportsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case RefreshDataMsg:
		return m, m.loadData()

	case reportsDataMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.notice = userNotice(m.app.Logger, msg.err, "Could not load reports.")
			return m, nil
		}
		m.notice = ""
		m.summary = msg.summary
		m.monthly = msg.monthly
		return m, nil

	case overdueSweptMsg:
		if msg.err != nil {
			m.notice = userNotice(m.app.Logger, msg.err, "Some invoices could not be marked overdue.")
		}
		m.status = fmt.Sprintf("%d invoice(s) marked overdue", len(msg.marked))
		return m, m.loadData()

	case tea.KeyMsg:
		m.status = ""
		switch {
		case msg.String() == "[":
			m.revenueYear--
			return m, m.loadData()
		case msg.String() == "]":
			if m.revenueYear < time.Now().Year() {
				m.revenueYear++
				return m, m.loadData()
			}
		case msg.String() == "o":
			return m, m.sweepOverdue()
		}
	}
	return m, nil
}

func (m *ReportsModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Reports") + "\n\n")
	b.WriteString(renderNotice(m.notice))
	b.WriteString(renderStatus(m.status))

	if m.summary == nil {
		if m.loading {
			b.WriteString("  Loading...\n")
		}
		return b.String()
	}

	b.WriteString(boldStyle.Render("  Invoices by Status") + "\n")
	for _, s := range domain.InvoiceStatuses {
		fmt.Fprintf(&b, "    %s %d\n", statusBadge(s), m.summary.ByStatus[s])
	}
	fmt.Fprintf(&b, "    %-9s %d\n\n", "Total", m.summary.Count)

	b.WriteString(boldStyle.Render("  Financial Overview") + "\n")
	fmt.Fprintf(&b, "    Outstanding: %s\n", formatMoney(m.app, m.summary.Outstanding))
	overdue := formatMoney(m.app, m.summary.Overdue)
	if m.summary.Overdue > 0 {
		overdue = noticeStyle.Render(overdue)
	}
	fmt.Fprintf(&b, "    Overdue:     %s\n", overdue)
	fmt.Fprintf(&b, "    Paid:        %s\n\n", formatMoney(m.app, m.summary.Paid))

	b.WriteString(m.renderMonthlyRevenue())

	b.WriteString("\n" + helpStyle.Render("  [/]: prev/next year  o: mark past-due invoices overdue"))
	return b.String()
}

func (m *ReportsModel) renderMonthlyRevenue() string {
	s := boldStyle.Render(fmt.Sprintf("  Revenue by Month (%d)", m.revenueYear)) + "\n"

	peak, total := 0.0, 0.0
	for _, v := range m.monthly {
		total += v
		if v > peak {
			peak = v
		}
	}
	if total == 0 {
		return s + subtitleStyle.Render("    No paid invoices") + "\n"
	}

	const maxBar = 25
	barStyle := lipgloss.NewStyle().Foreground(primaryColor)
	for month := time.January; month <= time.December; month++ {
		revenue := m.monthly[month]
		if revenue == 0 {
			continue
		}
		bar := strings.Repeat("█", int(revenue/peak*maxBar))
		s += fmt.Sprintf("    %-4s %s %s\n", month.String()[:3], barStyle.Render(fmt.Sprintf("%-25s", bar)), formatMoney(m.app, revenue))
	}
	s += "    " + boldStyle.Render(fmt.Sprintf("%-4s %-25s %s", "Total", "", formatMoney(m.app, total))) + "\n"
	return s
}
