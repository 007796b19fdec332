package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/andy/invoicer/internal/app"
	"github.com/andy/invoicer/internal/domain"
	"github.com/andy/invoicer/internal/format"
	"github.com/andy/invoicer/internal/local"
	"github.com/andy/invoicer/internal/service"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

func formatMoney(a *app.App, amount float64) string {
	return format.Money(amount, a.Config.Invoice.CurrencySymbol)
}

func formatDate(a *app.App, t time.Time) string {
	return format.Date(t, a.Config.Invoice.DateLayout)
}

// truncateStr truncates a string to maxLen runes with an ellipsis
func truncateStr(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

func statusBadge(s domain.InvoiceStatus) string {
	style := lipgloss.NewStyle()
	if c, ok := statusColors[s]; ok {
		style = style.Foreground(c)
	}
	return style.Render(fmt.Sprintf("%-9s", s.Label()))
}

// userNotice turns err into text fit for the screen. Input problems are shown
// as they are; anything else is logged and replaced by generic.
func userNotice(logger *zap.Logger, err error, generic string) string {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return verr.Message
	case errors.Is(err, service.ErrTransitionInFlight),
		errors.Is(err, service.ErrClientNotFound),
		errors.Is(err, local.ErrIndexOutOfRange):
		return err.Error()
	}
	logger.Error(generic, zap.Error(err))
	return generic
}

func newInput(placeholder string, limit, width int) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = limit
	ti.Width = width
	return ti
}

// renderFields draws labelled inputs with a marker on the focused one
func renderFields(labels []string, fields []textinput.Model, focus int) string {
	var b strings.Builder
	for i, label := range labels {
		indicator := "  "
		labelStyle := subtitleStyle
		if i == focus {
			indicator = "> "
			labelStyle = focusStyle
		}
		fmt.Fprintf(&b, "%s%s\n  %s\n\n", indicator, labelStyle.Render(label), fields[i].View())
	}
	return b.String()
}

func renderNotice(notice string) string {
	if notice == "" {
		return ""
	}
	return noticeStyle.Render("  "+notice) + "\n\n"
}

func renderStatus(msg string) string {
	if msg == "" {
		return ""
	}
	return okStyle.Render("  "+msg) + "\n\n"
}

// parseDay parses a YYYY-MM-DD form value as a UTC date
func parseDay(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("expected YYYY-MM-DD, got %q", s)
	}
	return t, nil
}

func today() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
