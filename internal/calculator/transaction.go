package calculator

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ValidateTransaction applies a movement to stock without persisting it. A
// movement that would leave stock negative or above Settings.MaxStock is
// reported invalid and the stock is returned unchanged.
func (c *Calculator) ValidateTransaction(stock, quantity int64, direction Direction) TransactionValidation {
	var newStock int64
	switch direction {
	case DirectionIn:
		if quantity > c.settings.MaxStock-stock {
			return TransactionValidation{
				Message:  fmt.Sprintf("Stock level too high. New stock would be: %s", decimal.NewFromInt(stock).Add(decimal.NewFromInt(quantity))),
				NewStock: stock,
			}
		}
		newStock = stock + quantity
	case DirectionOut:
		newStock = stock - quantity
	default:
		return TransactionValidation{
			Message:  fmt.Sprintf("Unknown transaction direction %q", direction),
			NewStock: stock,
		}
	}
	if newStock < 0 {
		return TransactionValidation{
			Message:  fmt.Sprintf("Insufficient stock. Current stock: %d, Requested: %d", stock, quantity),
			NewStock: stock,
		}
	}
	if newStock > c.settings.MaxStock {
		return TransactionValidation{
			Message:  fmt.Sprintf("Stock level too high. New stock would be: %d", newStock),
			NewStock: stock,
		}
	}
	return TransactionValidation{Valid: true, NewStock: newStock}
}
