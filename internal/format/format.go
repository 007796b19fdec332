// Package format renders amounts and dates for display.
package format

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultDateLayout is used when a caller passes an empty layout.
const DefaultDateLayout = "Jan 02, 2006"

// Money formats amount with exactly two decimals, comma separators and the
// currency symbol, e.g. "$1,234.50" or "-$12.00"
func Money(amount float64, symbol string) string {
	d := decimal.NewFromFloat(amount).Round(2)
	negative := d.IsNegative()

	s := d.Abs().StringFixed(2)
	dotPos := len(s) - 3
	intPart := s[:dotPos]
	decPart := s[dotPos:]

	var b strings.Builder
	if negative {
		b.WriteByte('-')
	}
	b.WriteString(symbol)
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	b.WriteString(decPart)
	return b.String()
}

// Number formats a quantity without trailing zeros, e.g. 2, 1.5, 0.25
func Number(v float64) string {
	return decimal.NewFromFloat(v).String()
}

// Percent formats a percentage rate, e.g. "8.25%"
func Percent(rate float64) string {
	return Number(rate) + "%"
}

// Date formats t with layout, or DefaultDateLayout when layout is empty
func Date(t time.Time, layout string) string {
	if t.IsZero() {
		return ""
	}
	if layout == "" {
		layout = DefaultDateLayout
	}
	return t.Format(layout)
}

// DatePtr is Date for optional dates; nil renders as "-"
func DatePtr(t *time.Time, layout string) string {
	if t == nil {
		return "-"
	}
	return Date(*t, layout)
}
