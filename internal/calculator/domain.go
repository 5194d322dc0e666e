package calculator

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineItem is a purchase order line.
type LineItem struct {
	Quantity  int64
	UnitPrice decimal.Decimal
	// DiscountPercent is optional; nil or zero means no discount.
	DiscountPercent *decimal.Decimal
}

// SaleLine is a sales line priced at the selling price.
type SaleLine struct {
	Quantity     int64
	SellingPrice decimal.Decimal
}

// Totals summarises an order or a sale.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}

// ReorderInput describes the stock position of a single product.
type ReorderInput struct {
	CurrentStock      int64
	ReorderLevel      int64
	AverageDailySales decimal.Decimal
	// LeadTimeDays of zero selects Settings.DefaultLeadTimeDays.
	LeadTimeDays int64
}

// ReorderSuggestion is the restock proposal for a product.
type ReorderSuggestion struct {
	CurrentStock           int64           `json:"current_stock"`
	ReorderLevel           int64           `json:"reorder_level"`
	AverageDailySales      decimal.Decimal `json:"average_daily_sales"`
	SuggestedOrderQuantity int64           `json:"suggested_order_quantity"`
	DaysUntilStockout      Days            `json:"days_until_stockout"`
}

// SaleSample is one historical sales observation.
type SaleSample struct {
	Quantity int64
	Date     time.Time
}

// StockoutPrediction projects when stock runs out.
type StockoutPrediction struct {
	PredictedDate *time.Time `json:"predicted_date"`
	DaysRemaining Days       `json:"days_remaining"`
}

// Holding is a quantity of stock valued at cost.
type Holding struct {
	Quantity  int64
	CostPrice decimal.Decimal
}

// Valuation is the value of a set of holdings at cost.
type Valuation struct {
	TotalValue  decimal.Decimal `json:"total_value"`
	AverageCost decimal.Decimal `json:"average_cost"`
}

// ProductStock is the input of stock level optimisation.
type ProductStock struct {
	ID           string
	Name         string
	CurrentStock int64
	ReorderLevel int64
	Sales        []SaleSample
}

// Action enumerates stock level recommendations.
type Action string

const (
	// ActionReorder asks for a restock.
	ActionReorder Action = "reorder"
	// ActionReduce flags overstock.
	ActionReduce Action = "reduce"
	// ActionMaintain keeps the current level.
	ActionMaintain Action = "maintain"
)

// Recommendation is the classification of one product.
type Recommendation struct {
	ProductID         string `json:"product_id"`
	ProductName       string `json:"product_name"`
	Action            Action `json:"action"`
	Reason            string `json:"reason"`
	SuggestedQuantity *int64 `json:"suggested_quantity,omitempty"`
}

// Direction is the sign of an inventory transaction.
type Direction string

const (
	// DirectionIn adds stock.
	DirectionIn Direction = "in"
	// DirectionOut removes stock.
	DirectionOut Direction = "out"
)

// TransactionValidation is the outcome of checking a stock movement.
type TransactionValidation struct {
	Valid    bool   `json:"valid"`
	Message  string `json:"message,omitempty"`
	NewStock int64  `json:"new_stock"`
}
