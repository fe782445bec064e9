// Package pricing implements cash/card dual pricing. Card prices are always
// derived from the cash basis and a surcharge percentage; they are never
// stored on line items. Order-level card totals are computed from the order's
// cash total, not by summing pre-rounded per-line card amounts, so multi-line
// orders cannot drift by a cent. Per-line card prices exist for display only.
package pricing

import "math"

// Round2 rounds to two decimal places using half-up rounding
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// CardTotal returns the card price for a cash total at surcharge rate
// percent (3.5 means 3.5%). CardTotal(c, 0) == Round2(c).
func CardTotal(cashTotal, ratePercent float64) float64 {
	return Round2(cashTotal * (1 + ratePercent/100))
}

// CardUnitPrice returns the display card price for a single cash unit price
func CardUnitPrice(cashUnitPrice, ratePercent float64) float64 {
	return Round2(cashUnitPrice * (1 + ratePercent/100))
}

// ProcessingFee returns the card/cash difference for a cash total
func ProcessingFee(cashTotal, ratePercent float64) float64 {
	return Round2(CardTotal(cashTotal, ratePercent) - Round2(cashTotal))
}

// Quote carries both totals for one order so the cash and card sides always
// share the same tax amount base. Tax applies identically to both; the tax
// itself is never surcharged.
type Quote struct {
	CashSubtotal  float64 `json:"cash_subtotal"`
	CardSubtotal  float64 `json:"card_subtotal"`
	TaxAmount     float64 `json:"tax_amount"`
	CashTotal     float64 `json:"cash_total"`
	CardTotal     float64 `json:"card_total"`
	ProcessingFee float64 `json:"processing_fee"`
	SurchargeRate float64 `json:"surcharge_rate"`
	TaxRate       float64 `json:"tax_rate"`
}

// NewQuote computes a full dual-pricing quote from a cash subtotal
func NewQuote(cashSubtotal, surchargeRatePercent, taxRatePercent float64) Quote {
	cashSub := Round2(cashSubtotal)
	cardSub := CardTotal(cashSubtotal, surchargeRatePercent)
	tax := Round2(cashSubtotal * taxRatePercent / 100)

	return Quote{
		CashSubtotal:  cashSub,
		CardSubtotal:  cardSub,
		TaxAmount:     tax,
		CashTotal:     Round2(cashSub + tax),
		CardTotal:     Round2(cardSub + tax),
		ProcessingFee: Round2(cardSub - cashSub),
		SurchargeRate: surchargeRatePercent,
		TaxRate:       taxRatePercent,
	}
}
