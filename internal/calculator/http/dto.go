package calchttp

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/stocktally/stocktally/internal/calculator"
)

const dateLayout = "2006-01-02"

type lineItemRequest struct {
	Quantity        int64            `json:"quantity" validate:"gte=0"`
	UnitPrice       decimal.Decimal  `json:"unit_price" validate:"gte=0"`
	DiscountPercent *decimal.Decimal `json:"discount_percent" validate:"omitempty,gte=0,lte=100"`
}

type orderTotalsRequest struct {
	Items []lineItemRequest `json:"items" validate:"dive"`
}

func (r orderTotalsRequest) lineItems() []calculator.LineItem {
	items := make([]calculator.LineItem, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, calculator.LineItem{
			Quantity:        it.Quantity,
			UnitPrice:       it.UnitPrice,
			DiscountPercent: it.DiscountPercent,
		})
	}
	return items
}

type saleLineRequest struct {
	Quantity     int64           `json:"quantity" validate:"gte=0"`
	SellingPrice decimal.Decimal `json:"selling_price" validate:"gte=0"`
}

type saleTotalsRequest struct {
	Items []saleLineRequest `json:"items" validate:"dive"`
}

func (r saleTotalsRequest) saleLines() []calculator.SaleLine {
	lines := make([]calculator.SaleLine, 0, len(r.Items))
	for _, it := range r.Items {
		lines = append(lines, calculator.SaleLine{Quantity: it.Quantity, SellingPrice: it.SellingPrice})
	}
	return lines
}

type marginRequest struct {
	CostPrice    decimal.Decimal `json:"cost_price" validate:"gte=0"`
	SellingPrice decimal.Decimal `json:"selling_price" validate:"gte=0"`
}

type marginResponse struct {
	Margin decimal.Decimal `json:"margin"`
}

type reorderRequest struct {
	CurrentStock      int64           `json:"current_stock" validate:"gte=0"`
	ReorderLevel      int64           `json:"reorder_level" validate:"gte=0"`
	AverageDailySales decimal.Decimal `json:"average_daily_sales" validate:"gte=0"`
	LeadTimeDays      int64           `json:"lead_time_days" validate:"gte=0"`
}

type saleSampleRequest struct {
	Quantity int64  `json:"quantity" validate:"gte=0"`
	Date     string `json:"date" validate:"required,datetime=2006-01-02"`
}

func toSamples(in []saleSampleRequest) []calculator.SaleSample {
	out := make([]calculator.SaleSample, 0, len(in))
	for _, s := range in {
		// Dates are validated before conversion.
		date, _ := time.Parse(dateLayout, s.Date)
		out = append(out, calculator.SaleSample{Quantity: s.Quantity, Date: date})
	}
	return out
}

type stockoutRequest struct {
	CurrentStock int64               `json:"current_stock" validate:"gte=0"`
	Sales        []saleSampleRequest `json:"sales" validate:"dive"`
}

type stockoutResponse struct {
	PredictedDate *string         `json:"predicted_date"`
	DaysRemaining calculator.Days `json:"days_remaining"`
}

func newStockoutResponse(p calculator.StockoutPrediction) stockoutResponse {
	resp := stockoutResponse{DaysRemaining: p.DaysRemaining}
	if p.PredictedDate != nil {
		date := p.PredictedDate.Format(dateLayout)
		resp.PredictedDate = &date
	}
	return resp
}

type holdingRequest struct {
	Quantity  int64           `json:"quantity" validate:"gte=0"`
	CostPrice decimal.Decimal `json:"cost_price" validate:"gte=0"`
}

type valuationRequest struct {
	Products []holdingRequest `json:"products" validate:"dive"`
}

type productStockRequest struct {
	ID           string              `json:"id" validate:"required"`
	Name         string              `json:"name"`
	CurrentStock int64               `json:"current_stock" validate:"gte=0"`
	ReorderLevel int64               `json:"reorder_level" validate:"gte=0"`
	Sales        []saleSampleRequest `json:"sales" validate:"dive"`
}

type optimizeRequest struct {
	Products []productStockRequest `json:"products" validate:"dive"`
}

type optimizeResponse struct {
	Recommendations []calculator.Recommendation `json:"recommendations"`
}

type transactionRequest struct {
	ProductStock        int64  `json:"product_stock" validate:"gte=0"`
	TransactionQuantity int64  `json:"transaction_quantity" validate:"gte=0"`
	Type                string `json:"type" validate:"required,oneof=in out"`
}
