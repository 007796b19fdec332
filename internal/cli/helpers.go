package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/andy/invoicer/internal/domain"
	"github.com/andy/invoicer/internal/format"
)

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

func money(v float64) string {
	symbol := "$"
	if appInstance != nil && appInstance.Config.Invoice.CurrencySymbol != "" {
		symbol = appInstance.Config.Invoice.CurrencySymbol
	}
	return format.Money(v, symbol)
}

func displayDate(t time.Time) string {
	layout := ""
	if appInstance != nil {
		layout = appInstance.Config.Invoice.DateLayout
	}
	return format.Date(t, layout)
}

// parseDate accepts YYYY-MM-DD, "today" and "yesterday"
func parseDate(s string) (time.Time, error) {
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "today":
		return today, nil
	case "yesterday":
		return today.AddDate(0, 0, -1), nil
	}

	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("expected YYYY-MM-DD, got %q", s)
	}
	return t, nil
}

// parseItem parses "description:quantity:rate". The description may itself
// contain colons; the last two fields are the numbers.
func parseItem(s string) (domain.LineInput, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 3 {
		return domain.LineInput{}, fmt.Errorf("item %q: expected description:quantity:rate", s)
	}

	n := len(parts)
	qty, err := strconv.ParseFloat(strings.TrimSpace(parts[n-2]), 64)
	if err != nil {
		return domain.LineInput{}, fmt.Errorf("item %q: invalid quantity: %w", s, err)
	}
	rate, err := strconv.ParseFloat(strings.TrimSpace(parts[n-1]), 64)
	if err != nil {
		return domain.LineInput{}, fmt.Errorf("item %q: invalid rate: %w", s, err)
	}

	return domain.LineInput{
		Description: strings.TrimSpace(strings.Join(parts[:n-2], ":")),
		Quantity:    qty,
		Rate:        rate,
	}, nil
}

// resolveClient finds a client by id, exact name (case-insensitive) or a
// unique id prefix
func resolveClient(ctx context.Context, ref string) (*domain.Client, error) {
	clients, err := appInstance.ClientService.ListClients(ctx)
	if err != nil {
		return nil, err
	}

	var byPrefix []*domain.Client
	for _, c := range clients {
		if c.ID == ref || strings.EqualFold(c.Name, ref) {
			return c, nil
		}
		if len(ref) >= 4 && strings.HasPrefix(c.ID, ref) {
			byPrefix = append(byPrefix, c)
		}
	}
	if len(byPrefix) == 1 {
		return byPrefix[0], nil
	}
	if len(byPrefix) > 1 {
		return nil, fmt.Errorf("client %q is ambiguous", ref)
	}
	return nil, fmt.Errorf("client %q not found", ref)
}

// resolveInvoiceID maps an invoice number or id prefix to its id
func resolveInvoiceID(ctx context.Context, ref string) (string, error) {
	invoices, err := appInstance.InvoiceService.ListInvoices(ctx, domain.StatusFilterAll)
	if err != nil {
		return "", err
	}

	var byPrefix []string
	for _, inv := range invoices {
		if inv.ID == ref || strings.EqualFold(inv.InvoiceNumber, ref) {
			return inv.ID, nil
		}
		if len(ref) >= 4 && strings.HasPrefix(inv.ID, ref) {
			byPrefix = append(byPrefix, inv.ID)
		}
	}
	if len(byPrefix) == 1 {
		return byPrefix[0], nil
	}
	if len(byPrefix) > 1 {
		return "", fmt.Errorf("invoice %q is ambiguous", ref)
	}
	return "", fmt.Errorf("invoice %q not found", ref)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func confirmPrompt(in io.Reader, out io.Writer, message string) bool {
	fmt.Fprintf(out, "%s [y/N] ", message)
	reader := bufio.NewReader(in)
	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		return false
	}
	input = strings.TrimSpace(strings.ToLower(input))
	return input == "y" || input == "yes"
}
