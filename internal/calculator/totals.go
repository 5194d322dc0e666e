package calculator

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// OrderTotals sums purchase order lines, applying each line's percent
// discount before tax. The subtotal is gross less discount rounded once;
// tax and total derive from the rounded subtotal so that
// Total == Subtotal + Tax holds exactly.
func (c *Calculator) OrderTotals(items []LineItem) Totals {
	gross := decimal.Zero
	discount := decimal.Zero
	for _, item := range items {
		lineTotal := decimal.NewFromInt(item.Quantity).Mul(item.UnitPrice)
		gross = gross.Add(lineTotal)
		if item.DiscountPercent != nil && !item.DiscountPercent.IsZero() {
			discount = discount.Add(lineTotal.Mul(*item.DiscountPercent).Div(hundred))
		}
	}
	return c.totals(c.round(gross.Sub(discount)), c.round(discount))
}

// SaleTotals sums sales lines at their selling price. Sales carry no discount.
func (c *Calculator) SaleTotals(lines []SaleLine) Totals {
	gross := decimal.Zero
	for _, line := range lines {
		gross = gross.Add(decimal.NewFromInt(line.Quantity).Mul(line.SellingPrice))
	}
	return c.totals(c.round(gross), decimal.Zero)
}

func (c *Calculator) totals(subtotal, discount decimal.Decimal) Totals {
	tax := c.round(subtotal.Mul(c.settings.TaxRate))
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Discount: discount,
		Total:    subtotal.Add(tax),
	}
}
