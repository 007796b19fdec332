package export

import (
	"fmt"
	"io"

	"github.com/andy/invoicer/internal/domain"
	"github.com/andy/invoicer/internal/format"
	"github.com/jung-kurt/gofpdf"
)

const (
	pdfMargin = 15.0
	rowHeight = 7.0
)

// column widths in mm; they add up to the A4 content width
var pdfColumns = []struct {
	title string
	width float64
	align string
}{
	{"Description", 95, "L"},
	{"Qty", 20, "R"},
	{"Rate", 32, "R"},
	{"Amount", 33, "R"},
}

// PDF writes an A4 invoice
func (e *Exporter) PDF(w io.Writer, inv *domain.Invoice) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.SetTitle("Invoice "+inv.InvoiceNumber, true)
	pdf.SetCreator("invoicer", true)
	if !inv.CreatedAt.IsZero() {
		pdf.SetCreationDate(inv.CreatedAt)
	}

	// core fonts are cp1252
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	issued, due := e.date(inv)

	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 22)
	pdf.CellFormat(90, 12, "INVOICE", "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(90, 6, tr("Invoice #: "+inv.InvoiceNumber), "", 2, "R", false, 0, "")
	pdf.CellFormat(90, 6, tr("Issued: "+issued), "", 2, "R", false, 0, "")
	if inv.DueDate != nil {
		pdf.CellFormat(90, 6, tr("Due: "+due), "", 2, "R", false, 0, "")
	}
	pdf.CellFormat(90, 6, "Status: "+inv.Status.Label(), "", 1, "R", false, 0, "")
	pdf.Ln(6)

	top := pdf.GetY()
	e.pdfBlock(pdf, tr, pdfMargin, "From", e.opts.Issuer.lines())
	leftBottom := pdf.GetY()
	pdf.SetY(top)
	e.pdfBlock(pdf, tr, pdfMargin+95, "Bill To", billTo(inv.Client))
	if leftBottom > pdf.GetY() {
		pdf.SetY(leftBottom)
	}
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for _, col := range pdfColumns {
		pdf.CellFormat(col.width, rowHeight+1, col.title, "B", 0, col.align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, item := range inv.Items {
		cells := []string{
			tr(truncate(item.Description, 55)),
			format.Number(item.Quantity),
			tr(e.money(item.Rate)),
			tr(e.money(item.Amount)),
		}
		for i, col := range pdfColumns {
			pdf.CellFormat(col.width, rowHeight, cells[i], "", 0, col.align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(2)

	labelWidth := pdfColumns[0].width + pdfColumns[1].width + pdfColumns[2].width
	amountWidth := pdfColumns[3].width
	totals := []struct {
		label, value string
		bold         bool
	}{
		{"Subtotal", e.money(inv.Subtotal), false},
		{"Tax (" + format.Percent(inv.TaxRate) + ")", e.money(inv.TaxAmount), false},
		{"Total", e.money(inv.Total), true},
	}
	for _, t := range totals {
		style, border := "", ""
		if t.bold {
			style, border = "B", "T"
		}
		pdf.SetFont("Helvetica", style, 11)
		pdf.CellFormat(labelWidth, rowHeight, t.label, "", 0, "R", false, 0, "")
		pdf.CellFormat(amountWidth, rowHeight, tr(t.value), border, 1, "R", false, 0, "")
	}

	if inv.Notes != "" {
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(0, 6, "Notes", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 5, tr(inv.Notes), "", "L", false)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render pdf: %w", err)
	}
	return nil
}

func (e *Exporter) pdfBlock(pdf *gofpdf.Fpdf, tr func(string) string, x float64, title string, lines []string) {
	pdf.SetX(x)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(85, 6, title, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for _, l := range lines {
		pdf.SetX(x)
		pdf.CellFormat(85, 5, tr(l), "", 1, "L", false, 0, "")
	}
}
