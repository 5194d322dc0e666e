package inventory

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stocktally/stocktally/internal/calculator"
)

// Product is a catalogue item with its stock position.
type Product struct {
	ID           uuid.UUID       `json:"id"`
	SKU          string          `json:"sku"`
	Name         string          `json:"name"`
	CategoryID   *uuid.UUID      `json:"category_id,omitempty"`
	SupplierID   *uuid.UUID      `json:"supplier_id,omitempty"`
	CostPrice    decimal.Decimal `json:"cost_price"`
	SellingPrice decimal.Decimal `json:"selling_price"`
	CurrentStock int64           `json:"current_stock"`
	ReorderLevel int64           `json:"reorder_level"`
}

// BelowReorderLevel reports whether the product needs restocking.
func (p Product) BelowReorderLevel() bool {
	return p.CurrentStock <= p.ReorderLevel
}

// TransactionType enumerates recorded inventory transactions.
type TransactionType string

const (
	// TransactionTypeAdjustment is a manual stock in/out.
	TransactionTypeAdjustment TransactionType = "adjustment"
	// TransactionTypeSale is stock leaving through a sale.
	TransactionTypeSale TransactionType = "sale"
)

// ReferenceType tags the origin of a movement.
type ReferenceType string

const (
	// ReferenceStockIn marks inbound adjustments.
	ReferenceStockIn ReferenceType = "stock_in"
	// ReferenceStockOut marks outbound adjustments.
	ReferenceStockOut ReferenceType = "stock_out"
	// ReferenceSale marks stock leaving through a recorded sale.
	ReferenceSale ReferenceType = "sale"
	// ReferenceStockTally marks corrections applied from an approved count.
	ReferenceStockTally ReferenceType = "stock_tally"
)

// Movement is a persisted stock change.
type Movement struct {
	ID            int64           `json:"id"`
	ProductID     uuid.UUID       `json:"product_id"`
	Type          TransactionType `json:"transaction_type"`
	Quantity      int64           `json:"quantity"`
	PreviousStock int64           `json:"previous_stock"`
	NewStock      int64           `json:"new_stock"`
	ReferenceType ReferenceType   `json:"reference_type"`
	ReferenceID   *uuid.UUID      `json:"reference_id,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	CreatedBy     *uuid.UUID      `json:"created_by,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// MovementInput requests a stock in/out.
type MovementInput struct {
	ProductID uuid.UUID
	Direction calculator.Direction
	Quantity  int64
	Notes     string
	ActorID   *uuid.UUID
}

// MovementResult carries the validation outcome and, when applied, the movement.
type MovementResult struct {
	Validation calculator.TransactionValidation `json:"validation"`
	Movement   *Movement                        `json:"movement,omitempty"`
}

// StockRejection explains why a multi-line operation was not applied.
type StockRejection struct {
	ProductID  uuid.UUID                        `json:"product_id"`
	Validation calculator.TransactionValidation `json:"validation"`
}

// SaleLineInput is one requested sales line. The unit price is the product's
// selling price at the time of sale.
type SaleLineInput struct {
	ProductID uuid.UUID
	Quantity  int64
}

// SaleInput requests a sale.
type SaleInput struct {
	Lines        []SaleLineInput
	CustomerName string
	Notes        string
	ActorID      *uuid.UUID
}

// SaleItem is a persisted sales line.
type SaleItem struct {
	ProductID  uuid.UUID       `json:"product_id"`
	Quantity   int64           `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// Sale is a recorded sale with its priced lines.
type Sale struct {
	ID           uuid.UUID       `json:"id"`
	Number       string          `json:"sale_number"`
	Date         time.Time       `json:"sale_date"`
	CustomerName string          `json:"customer_name,omitempty"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	Tax          decimal.Decimal `json:"tax"`
	Total        decimal.Decimal `json:"total"`
	Notes        string          `json:"notes,omitempty"`
	CreatedBy    *uuid.UUID      `json:"created_by,omitempty"`
	Items        []SaleItem      `json:"items"`
	CreatedAt    time.Time       `json:"created_at"`
}

// SaleResult carries the recorded sale or the line that blocked it.
type SaleResult struct {
	Sale      *Sale           `json:"sale,omitempty"`
	Movements []Movement      `json:"movements,omitempty"`
	Rejection *StockRejection `json:"rejection,omitempty"`
}

// TallyStatus tracks a stock count through approval.
type TallyStatus string

const (
	// TallyCompleted is a recorded count awaiting approval.
	TallyCompleted TallyStatus = "completed"
	// TallyApproved is a count whose quantities were applied to stock.
	TallyApproved TallyStatus = "approved"
)

// TallyCountInput is one counted product.
type TallyCountInput struct {
	ProductID       uuid.UUID
	CountedQuantity int64
	Reason          string
}

// TallyInput requests a stock count record.
type TallyInput struct {
	Location  string
	Notes     string
	Counts    []TallyCountInput
	CountedBy *uuid.UUID
}

// TallyItem compares the counted quantity of a product with the system stock.
type TallyItem struct {
	ProductID       uuid.UUID `json:"product_id"`
	SystemQuantity  int64     `json:"system_quantity"`
	CountedQuantity int64     `json:"counted_quantity"`
	VarianceReason  string    `json:"variance_reason,omitempty"`
}

// Variance is counted minus system quantity.
func (i TallyItem) Variance() int64 {
	return i.CountedQuantity - i.SystemQuantity
}

// StockTally is a physical stock count.
type StockTally struct {
	ID            uuid.UUID   `json:"id"`
	Number        string      `json:"tally_number"`
	Date          time.Time   `json:"tally_date"`
	Location      string      `json:"location,omitempty"`
	Status        TallyStatus `json:"status"`
	TotalVariance int64       `json:"total_variance"`
	Notes         string      `json:"notes,omitempty"`
	CountedBy     *uuid.UUID  `json:"counted_by,omitempty"`
	ApprovedBy    *uuid.UUID  `json:"approved_by,omitempty"`
	ApprovedAt    *time.Time  `json:"approved_at,omitempty"`
	Items         []TallyItem `json:"items"`
	CreatedAt     time.Time   `json:"created_at"`
}

// TallyApproval carries the approved tally and the corrections it applied, or
// the product whose correction could not be applied.
type TallyApproval struct {
	Tally     StockTally      `json:"tally"`
	Movements []Movement      `json:"movements"`
	Rejection *StockRejection `json:"rejection,omitempty"`
}

// Insights aggregates the forecasts of one product.
type Insights struct {
	Product           Product                       `json:"product"`
	AverageDailySales decimal.Decimal               `json:"average_daily_sales"`
	Margin            decimal.Decimal               `json:"margin"`
	Reorder           calculator.ReorderSuggestion  `json:"reorder"`
	Stockout          calculator.StockoutPrediction `json:"stockout"`
}

// Severity grades a low stock alert.
type Severity string

const (
	// SeverityCritical is used when the product is out of stock.
	SeverityCritical Severity = "critical"
	// SeverityWarning is used when stock is at or below the reorder level.
	SeverityWarning Severity = "warning"
)

// AlertType returns the stored alert type for the severity.
func (s Severity) AlertType() string {
	if s == SeverityCritical {
		return "out_of_stock"
	}
	return "low_stock"
}

// SeverityFor grades the stock position of p.
func SeverityFor(p Product) Severity {
	return stockSeverity(p.CurrentStock)
}

func stockSeverity(stock int64) Severity {
	if stock <= 0 {
		return SeverityCritical
	}
	return SeverityWarning
}

// LowStockItem is a product at or below its reorder level.
type LowStockItem struct {
	Product  Product  `json:"product"`
	Severity Severity `json:"severity"`
}

// ErrProductNotFound indicates the product does not exist.
var ErrProductNotFound = errors.New("inventory: product not found")

// ErrInvalidQuantity indicates a non-positive movement quantity.
var ErrInvalidQuantity = errors.New("inventory: quantity must be positive")

// ErrInvalidDirection indicates an unknown movement direction.
var ErrInvalidDirection = errors.New("inventory: direction must be in or out")

// ErrEmptyRequest indicates a sale or tally without lines.
var ErrEmptyRequest = errors.New("inventory: at least one line is required")

// ErrDuplicateProduct indicates the same product listed twice in a tally.
var ErrDuplicateProduct = errors.New("inventory: product listed more than once")

// ErrTallyNotFound indicates the stock tally does not exist.
var ErrTallyNotFound = errors.New("inventory: stock tally not found")

// ErrTallyApproved indicates the stock tally was already applied.
var ErrTallyApproved = errors.New("inventory: stock tally already approved")
