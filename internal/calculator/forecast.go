package calculator

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProfitMargin returns (selling-cost)/cost as a percentage. A zero cost
// yields a zero margin.
func (c *Calculator) ProfitMargin(costPrice, sellingPrice decimal.Decimal) decimal.Decimal {
	if costPrice.IsZero() {
		return decimal.Zero
	}
	margin := sellingPrice.Sub(costPrice).Div(costPrice).Mul(hundred)
	return c.round(margin)
}

// SuggestReorder proposes a restock quantity covering lead-time demand plus
// the safety buffer, rounded up to the reorder granularity. It is a policy
// heuristic, not an optimal reorder-point model.
func (c *Calculator) SuggestReorder(in ReorderInput) ReorderSuggestion {
	leadTime := in.LeadTimeDays
	if leadTime <= 0 {
		leadTime = c.settings.DefaultLeadTimeDays
	}
	velocity := in.AverageDailySales
	days := daysOfCover(in.CurrentStock, velocity)

	safetyStock := velocity.Mul(decimal.NewFromInt(c.settings.SafetyStockDays)).Ceil().IntPart()
	leadDemand := velocity.Mul(decimal.NewFromInt(leadTime)).Ceil().IntPart()
	optimal := leadDemand + safetyStock - in.CurrentStock

	suggested := ceilToMultiple(optimal, c.settings.ReorderGranularity)
	if suggested < 0 {
		suggested = 0
	}
	return ReorderSuggestion{
		CurrentStock:           in.CurrentStock,
		ReorderLevel:           in.ReorderLevel,
		AverageDailySales:      c.round(velocity),
		SuggestedOrderQuantity: suggested,
		DaysUntilStockout:      c.roundDays(days),
	}
}

// PredictStockout projects the stockout date from historical samples. The
// velocity divides total quantity by the number of samples, treating each
// sample as one day regardless of its date.
func (c *Calculator) PredictStockout(currentStock int64, sales []SaleSample) StockoutPrediction {
	velocity := averageDailySales(sales)
	if velocity.IsZero() {
		return StockoutPrediction{DaysRemaining: Unbounded()}
	}
	days := decimal.NewFromInt(currentStock).Div(velocity)
	predicted := startOfDay(c.now()).AddDate(0, 0, int(days.Floor().IntPart()))
	return StockoutPrediction{
		PredictedDate: &predicted,
		DaysRemaining: Finite(c.round(days)),
	}
}

// AverageDailySales exposes the sample-count velocity used by the forecasts.
func AverageDailySales(sales []SaleSample) decimal.Decimal {
	return averageDailySales(sales)
}

func averageDailySales(sales []SaleSample) decimal.Decimal {
	if len(sales) == 0 {
		return decimal.Zero
	}
	var total int64
	for _, sale := range sales {
		total += sale.Quantity
	}
	return decimal.NewFromInt(total).Div(decimal.NewFromInt(int64(len(sales))))
}

func daysOfCover(stock int64, velocity decimal.Decimal) Days {
	if !velocity.IsPositive() {
		return Unbounded()
	}
	return Finite(decimal.NewFromInt(stock).Div(velocity))
}

func (c *Calculator) roundDays(d Days) Days {
	v, ok := d.Value()
	if !ok {
		return d
	}
	return Finite(c.round(v))
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
