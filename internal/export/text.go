package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/andy/invoicer/internal/domain"
	"github.com/andy/invoicer/internal/format"
)

const textWidth = 64

// truncate shortens s to n runes, ending in "..." when cut
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

// Text writes a fixed-width plain text invoice
func (e *Exporter) Text(w io.Writer, inv *domain.Invoice) error {
	var b strings.Builder

	sep := strings.Repeat("=", textWidth)
	line := strings.Repeat("-", textWidth)
	issued, due := e.date(inv)

	b.WriteString("INVOICE\n")
	b.WriteString(sep + "\n")
	fmt.Fprintf(&b, "Invoice #:  %s\n", inv.InvoiceNumber)
	fmt.Fprintf(&b, "Status:     %s\n", inv.Status.Label())
	fmt.Fprintf(&b, "Issued:     %s\n", issued)
	if inv.DueDate != nil {
		fmt.Fprintf(&b, "Due:        %s\n", due)
	}

	if from := e.opts.Issuer.lines(); len(from) > 0 {
		b.WriteString("\nFrom:\n")
		for _, l := range from {
			fmt.Fprintf(&b, "  %s\n", l)
		}
	}

	b.WriteString("\nBill To:\n")
	for _, l := range billTo(inv.Client) {
		fmt.Fprintf(&b, "  %s\n", l)
	}

	b.WriteString("\n" + line + "\n")
	fmt.Fprintf(&b, "%-30s %8s %11s %12s\n", "Description", "Qty", "Rate", "Amount")
	b.WriteString(line + "\n")

	for _, item := range inv.Items {
		fmt.Fprintf(&b, "%-30s %8s %11s %12s\n",
			truncate(item.Description, 30),
			format.Number(item.Quantity),
			e.money(item.Rate),
			e.money(item.Amount),
		)
	}

	b.WriteString(line + "\n")
	fmt.Fprintf(&b, "%51s %12s\n", "Subtotal", e.money(inv.Subtotal))
	fmt.Fprintf(&b, "%51s %12s\n", "Tax ("+format.Percent(inv.TaxRate)+")", e.money(inv.TaxAmount))
	fmt.Fprintf(&b, "%51s %12s\n", "TOTAL", e.money(inv.Total))
	b.WriteString(sep + "\n")

	if inv.Notes != "" {
		b.WriteString("\nNotes:\n")
		for _, l := range strings.Split(inv.Notes, "\n") {
			fmt.Fprintf(&b, "  %s\n", l)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// billTo is the client's address block
func billTo(c *domain.Client) []string {
	if c == nil {
		return []string{"(unknown client)"}
	}
	var out []string
	for _, s := range []string{c.Name, c.Address, c.Locality(), c.Country, c.Email, c.Phone} {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
