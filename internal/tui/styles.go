package tui

import (
	"github.com/andy/invoicer/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

var (
	primaryColor = lipgloss.Color("33")  // Blue
	mutedColor   = lipgloss.Color("245") // Gray
	successColor = lipgloss.Color("35")  // Green
	warningColor = lipgloss.Color("208") // Orange
	errorColor   = lipgloss.Color("160") // Red
	borderColor  = lipgloss.Color("61")

	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(primaryColor)
	subtitleStyle = lipgloss.NewStyle().Foreground(mutedColor)
	helpStyle     = lipgloss.NewStyle().Foreground(mutedColor).Italic(true)
	boldStyle     = lipgloss.NewStyle().Bold(true)
	focusStyle    = boldStyle.Foreground(primaryColor)
	noticeStyle   = lipgloss.NewStyle().Foreground(errorColor)
	okStyle       = lipgloss.NewStyle().Foreground(successColor)
	confirmStyle  = boldStyle.Foreground(warningColor)

	appBorderStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(borderColor).
			Padding(1, 2)
	headerStyle = boldStyle.Foreground(primaryColor).Padding(0, 1)
	footerStyle = lipgloss.NewStyle().Foreground(mutedColor)
)

// statusColors gives every invoice status its badge color
var statusColors = map[domain.InvoiceStatus]lipgloss.Color{
	domain.InvoiceStatusDraft:     mutedColor,
	domain.InvoiceStatusSent:      primaryColor,
	domain.InvoiceStatusPaid:      successColor,
	domain.InvoiceStatusOverdue:   errorColor,
	domain.InvoiceStatusCancelled: warningColor,
}
