package cart

import (
	"github.com/shopspring/decimal"

	models "storefront/model"
)

// Pricing holds the shop-wide rules used to price a cart.
type Pricing struct {
	FreeShippingThreshold int64
	FlatShippingFee       int64
	TaxRate               decimal.Decimal
}

// DefaultPricing: free shipping above 100000, otherwise 15000, 10% tax.
func DefaultPricing() Pricing {
	return Pricing{
		FreeShippingThreshold: 100000,
		FlatShippingFee:       15000,
		TaxRate:               decimal.NewFromFloat(0.1),
	}
}

// Totals is the price breakdown of a cart, in whole currency units.
type Totals struct {
	ItemCount   int   `json:"itemCount"`
	Subtotal    int64 `json:"itemsPrice"`
	ShippingFee int64 `json:"shippingPrice"`
	Tax         int64 `json:"taxPrice"`
	Total       int64 `json:"totalPrice"`
}

// Calculate prices items under p. It does not modify items.
func Calculate(items []models.CartItem, p Pricing) Totals {
	sum := decimal.Zero
	count := 0
	for _, it := range items {
		line := decimal.NewFromInt(it.Price).Mul(decimal.NewFromInt(int64(it.Quantity)))
		sum = sum.Add(line)
		count += it.Quantity
	}

	subtotal := round2(sum).IntPart()

	var shipping int64
	if subtotal <= p.FreeShippingThreshold {
		shipping = p.FlatShippingFee
	}

	tax := decimal.NewFromInt(subtotal).Mul(p.TaxRate).Round(0).IntPart()

	return Totals{
		ItemCount:   count,
		Subtotal:    subtotal,
		ShippingFee: shipping,
		Tax:         tax,
		Total:       subtotal + shipping + tax,
	}
}

// round2 rounds to two decimal places, halves away from zero.
func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
