package checkout

import "github.com/shopspring/decimal"

// Pricing policy constants, in cents. Orders above the threshold ship free.
const (
	FreeShippingThresholdCents = 100_00
	FlatShippingCents          = 10_00
)

var taxRate = decimal.NewFromFloat(0.08)

// Totals carries the derived amounts shown on the review step. Only the
// subtotal is persisted with the order; shipping/tax/grand total are
// display-time values.
type Totals struct {
	SubtotalCents   int `json:"subtotal_cents"`
	ShippingCents   int `json:"shipping_cents"`
	TaxCents        int `json:"tax_cents"`
	GrandTotalCents int `json:"grand_total_cents"`
}

// ComputeTotals derives shipping, tax, and grand total from a cart subtotal.
func ComputeTotals(subtotalCents int) Totals {
	if subtotalCents < 0 {
		subtotalCents = 0
	}
	shipping := FlatShippingCents
	if subtotalCents > FreeShippingThresholdCents {
		shipping = 0
	}
	tax := int(decimal.NewFromInt(int64(subtotalCents)).Mul(taxRate).Round(0).IntPart())
	return Totals{
		SubtotalCents:   subtotalCents,
		ShippingCents:   shipping,
		TaxCents:        tax,
		GrandTotalCents: subtotalCents + shipping + tax,
	}
}
