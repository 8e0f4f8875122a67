package cart

import (
	"github.com/shopspring/decimal"
)

var (
	taxRate          = decimal.NewFromFloat(0.08)
	deliveryFee      = decimal.NewFromFloat(5.99)
	discountAmount   = decimal.NewFromFloat(5.99)
	discountMinOrder = decimal.NewFromInt(25)
)

// Totals holds the monetary figures derived from the current item list. They
// are recomputed on every read and never stored.
type Totals struct {
	ItemCount   int
	Subtotal    decimal.Decimal
	Tax         decimal.Decimal
	DeliveryFee decimal.Decimal
	Discount    decimal.Decimal
	Total       decimal.Decimal
}

// unitPrice returns the line's effective unit price: the snapshotted catalog
// price plus any selected add-on prices.
func unitPrice(line LineItem) decimal.Decimal {
	price := line.Price
	addOns, ok := line.Customizations["addOns"].([]any)
	if !ok {
		return price
	}
	for _, raw := range addOns {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		switch v := entry["price"].(type) {
		case float64:
			price = price.Add(decimal.NewFromFloat(v))
		case int:
			price = price.Add(decimal.NewFromInt(int64(v)))
		}
	}
	return price
}

// ComputeTotals derives item count, subtotal, tax, delivery fee, discount and
// total from the item list. Delivery fee applies to any non-empty order; the
// flat discount kicks in above the minimum subtotal; total never goes
// negative.
func ComputeTotals(items []LineItem) Totals {
	t := Totals{
		Subtotal:    decimal.Zero,
		Tax:         decimal.Zero,
		DeliveryFee: decimal.Zero,
		Discount:    decimal.Zero,
		Total:       decimal.Zero,
	}

	for _, line := range items {
		t.ItemCount += line.Quantity
		t.Subtotal = t.Subtotal.Add(unitPrice(line).Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	if t.Subtotal.IsPositive() {
		t.Tax = t.Subtotal.Mul(taxRate).Round(2)
		t.DeliveryFee = deliveryFee
	}
	if t.Subtotal.GreaterThan(discountMinOrder) {
		t.Discount = discountAmount
	}

	total := t.Subtotal.Add(t.Tax).Add(t.DeliveryFee).Sub(t.Discount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	t.Total = total
	return t
}
