// Package export renders an invoice as a printable document. Exporting
// never touches the store.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/andy/invoicer/internal/domain"
	"github.com/andy/invoicer/internal/format"
)

type Format string

const (
	FormatPDF  Format = "pdf"
	FormatText Format = "txt"
)

// ParseFormat accepts pdf, txt or text
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "pdf":
		return FormatPDF, nil
	case "txt", "text":
		return FormatText, nil
	}
	return "", fmt.Errorf("unknown export format %q (want pdf or txt)", s)
}

// Issuer is the "From" block printed on every invoice
type Issuer struct {
	Name    string
	Email   string
	Address string
	Phone   string
}

func (i Issuer) lines() []string {
	var out []string
	for _, s := range []string{i.Name, i.Email, i.Address, i.Phone} {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

type Options struct {
	Issuer         Issuer
	CurrencySymbol string
	DateLayout     string
}

// Exporter writes invoice documents
type Exporter struct {
	opts Options
}

// New creates an exporter; an empty currency symbol becomes "$"
func New(opts Options) *Exporter {
	if opts.CurrencySymbol == "" {
		opts.CurrencySymbol = "$"
	}
	if opts.DateLayout == "" {
		opts.DateLayout = format.DefaultDateLayout
	}
	return &Exporter{opts: opts}
}

func (e *Exporter) money(v float64) string {
	return format.Money(v, e.opts.CurrencySymbol)
}

func (e *Exporter) date(inv *domain.Invoice) (issued, due string) {
	return format.Date(inv.IssueDate, e.opts.DateLayout), format.DatePtr(inv.DueDate, e.opts.DateLayout)
}

// Write renders inv to w in the given format
func (e *Exporter) Write(w io.Writer, inv *domain.Invoice, f Format) error {
	switch f {
	case FormatPDF:
		return e.PDF(w, inv)
	case FormatText:
		return e.Text(w, inv)
	}
	return fmt.Errorf("unknown export format %q", f)
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// FileName returns a file name for inv such as "INV-2026-001.pdf"
func FileName(inv *domain.Invoice, f Format) string {
	base := unsafeFileChars.ReplaceAllString(inv.InvoiceNumber, "_")
	base = strings.Trim(base, "._")
	if base == "" {
		base = "invoice"
	}
	return base + "." + string(f)
}

// WriteFile renders inv into dir and returns the path written
func (e *Exporter) WriteFile(dir string, inv *domain.Invoice, f Format) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}

	path := filepath.Join(dir, FileName(inv, f))
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := e.Write(file, inv, f); err != nil {
		file.Close()
		os.Remove(path)
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", err
	}
	return path, nil
}
