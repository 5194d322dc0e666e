package calculator

import "github.com/shopspring/decimal"

// InventoryValue values holdings at cost. The average cost is zero when the
// holdings carry no quantity.
func (c *Calculator) InventoryValue(holdings []Holding) Valuation {
	total := decimal.Zero
	var qty int64
	for _, h := range holdings {
		total = total.Add(decimal.NewFromInt(h.Quantity).Mul(h.CostPrice))
		qty += h.Quantity
	}
	avg := decimal.Zero
	if qty > 0 {
		avg = total.Div(decimal.NewFromInt(qty))
	}
	return Valuation{
		TotalValue:  c.round(total),
		AverageCost: c.round(avg),
	}
}
