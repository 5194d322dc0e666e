package inventory

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stocktally/stocktally/internal/calculator"
)

// RecordSale prices the lines at the current selling prices, takes the sold
// quantities out of stock and records the sale. Lines naming the same product
// are merged. When any product lacks stock nothing is written and the
// rejection is returned without error.
func (s *Service) RecordSale(ctx context.Context, input SaleInput) (SaleResult, error) {
	lines, err := mergeSaleLines(input.Lines)
	if err != nil {
		return SaleResult{}, err
	}

	var (
		result  SaleResult
		changes []stockChange
	)
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		result, changes = SaleResult{}, nil
		products, err := lockProducts(ctx, tx, saleProductIDs(lines))
		if err != nil {
			return err
		}

		checks := make([]calculator.TransactionValidation, len(lines))
		for i, line := range lines {
			checks[i] = s.calc.ValidateTransaction(products[line.ProductID].CurrentStock, line.Quantity, calculator.DirectionOut)
			if !checks[i].Valid {
				result.Rejection = &StockRejection{ProductID: line.ProductID, Validation: checks[i]}
				return nil
			}
		}

		priced := make([]calculator.SaleLine, 0, len(lines))
		items := make([]SaleItem, 0, len(lines))
		for _, line := range lines {
			price := products[line.ProductID].SellingPrice
			priced = append(priced, calculator.SaleLine{Quantity: line.Quantity, SellingPrice: price})
			items = append(items, SaleItem{
				ProductID:  line.ProductID,
				Quantity:   line.Quantity,
				UnitPrice:  price,
				TotalPrice: price.Mul(decimal.NewFromInt(line.Quantity)).Round(2),
			})
		}
		totals := s.calc.SaleTotals(priced)
		sale, err := tx.InsertSale(ctx, Sale{
			Number:       s.documentNumber("SALE"),
			Date:         s.today(),
			CustomerName: input.CustomerName,
			Subtotal:     totals.Subtotal,
			Tax:          totals.Tax,
			Total:        totals.Total,
			Notes:        input.Notes,
			CreatedBy:    input.ActorID,
			Items:        items,
		})
		if err != nil {
			return err
		}

		for i, line := range lines {
			product := products[line.ProductID]
			if err := tx.UpdateStock(ctx, line.ProductID, checks[i].NewStock); err != nil {
				return err
			}
			movement, err := tx.InsertMovement(ctx, Movement{
				ProductID:     line.ProductID,
				Type:          TransactionTypeSale,
				Quantity:      -line.Quantity,
				PreviousStock: product.CurrentStock,
				NewStock:      checks[i].NewStock,
				ReferenceType: ReferenceSale,
				ReferenceID:   &sale.ID,
				Notes:         "Sale " + sale.Number,
				CreatedBy:     input.ActorID,
			})
			if err != nil {
				return err
			}
			result.Movements = append(result.Movements, movement)
			changes = append(changes, stockChange{product: product, movement: movement})
		}
		result.Sale = &sale
		return nil
	})
	if err != nil {
		return SaleResult{}, err
	}
	s.stockChanged(ctx, changes)
	return result, nil
}

func mergeSaleLines(in []SaleLineInput) ([]SaleLineInput, error) {
	if len(in) == 0 {
		return nil, ErrEmptyRequest
	}
	index := make(map[uuid.UUID]int, len(in))
	out := make([]SaleLineInput, 0, len(in))
	for _, line := range in {
		if line.ProductID == uuid.Nil {
			return nil, ErrProductNotFound
		}
		if line.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		if i, ok := index[line.ProductID]; ok {
			out[i].Quantity += line.Quantity
			continue
		}
		index[line.ProductID] = len(out)
		out = append(out, line)
	}
	return out, nil
}

func saleProductIDs(lines []SaleLineInput) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	return ids
}

// lockProducts locks product rows in a stable order so concurrent multi-line
// operations cannot deadlock.
func lockProducts(ctx context.Context, tx TxRepository, ids []uuid.UUID) (map[uuid.UUID]Product, error) {
	sorted := append([]uuid.UUID(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].String() < sorted[j].String() })
	products := make(map[uuid.UUID]Product, len(sorted))
	for _, id := range sorted {
		p, err := tx.GetStockForUpdate(ctx, id)
		if err != nil {
			return nil, err
		}
		products[id] = p
	}
	return products, nil
}
