package calculator

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// OptimizeStockLevels classifies every product independently. Reorder wins
// over reduce, which wins over maintain.
func (c *Calculator) OptimizeStockLevels(products []ProductStock) []Recommendation {
	out := make([]Recommendation, 0, len(products))
	for _, p := range products {
		out = append(out, c.classify(p))
	}
	return out
}

func (c *Calculator) classify(p ProductStock) Recommendation {
	velocity := averageDailySales(p.Sales)
	days := daysOfCover(p.CurrentStock, velocity)
	rec := Recommendation{ProductID: p.ID, ProductName: p.Name}

	switch {
	case p.CurrentStock <= p.ReorderLevel:
		suggestion := c.SuggestReorder(ReorderInput{
			CurrentStock:      p.CurrentStock,
			ReorderLevel:      p.ReorderLevel,
			AverageDailySales: velocity,
		})
		qty := suggestion.SuggestedOrderQuantity
		rec.Action = ActionReorder
		rec.SuggestedQuantity = &qty
		rec.Reason = fmt.Sprintf("Stock is at or below reorder level (%d units). Estimated %s days of stock remaining.",
			p.ReorderLevel, days.Format(1))
	case velocity.IsPositive() && days.GreaterThan(decimal.NewFromInt(c.settings.OverstockDays)):
		rec.Action = ActionReduce
		rec.Reason = fmt.Sprintf("Overstocked. Current stock will last %s days at current sales rate.", days.Format(0))
	default:
		rec.Action = ActionMaintain
		rec.Reason = fmt.Sprintf("Stock levels are optimal. Approximately %s days of inventory remaining.", days.Format(1))
	}
	return rec
}
