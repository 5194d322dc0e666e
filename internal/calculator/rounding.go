package calculator

import "github.com/shopspring/decimal"

var half = decimal.NewFromFloat(0.5)

// roundHalfUp rounds to the given places, ties going toward positive infinity.
func roundHalfUp(d decimal.Decimal, places int32) decimal.Decimal {
	return d.Shift(places).Add(half).Floor().Shift(-places)
}

// ceilToMultiple rounds v up to the nearest multiple of step.
func ceilToMultiple(v, step int64) int64 {
	q := decimal.NewFromInt(v).Div(decimal.NewFromInt(step)).Ceil()
	return q.IntPart() * step
}

func (c *Calculator) round(d decimal.Decimal) decimal.Decimal {
	return roundHalfUp(d, c.settings.Precision)
}
