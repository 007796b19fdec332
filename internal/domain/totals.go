package domain

import "github.com/shopspring/decimal"

// currencyPlaces is the precision every stored and displayed amount carries.
const currencyPlaces = 2

// LineInput is the user-entered part of a line item.
type LineInput struct {
	Description string
	Quantity    float64
	Rate        float64
}

// Totals holds the derived amounts of an invoice, already rounded to cents.
type Totals struct {
	Subtotal  float64
	TaxAmount float64
	Total     float64
}

// LineAmount returns quantity × rate rounded to cents
func LineAmount(quantity, rate float64) float64 {
	return lineAmount(quantity, rate).InexactFloat64()
}

func lineAmount(quantity, rate float64) decimal.Decimal {
	return decimal.NewFromFloat(quantity).Mul(decimal.NewFromFloat(rate)).Round(currencyPlaces)
}

// ComputeTotals derives subtotal, tax and total from lines at taxRatePercent.
// The subtotal is the sum of the rounded line amounts, so it always equals
// the sum of the stored item amounts. Inputs are not validated; no lines
// yields all zeros.
func ComputeTotals(lines []LineInput, taxRatePercent float64) Totals {
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(lineAmount(line.Quantity, line.Rate))
	}

	tax := subtotal.Mul(decimal.NewFromFloat(taxRatePercent)).
		Div(decimal.NewFromInt(100)).
		Round(currencyPlaces)

	return Totals{
		Subtotal:  subtotal.InexactFloat64(),
		TaxAmount: tax.InexactFloat64(),
		Total:     subtotal.Add(tax).InexactFloat64(),
	}
}
