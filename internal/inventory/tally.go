package inventory

import (
	"context"

	"github.com/google/uuid"

	"github.com/stocktally/stocktally/internal/calculator"
)

const defaultVarianceReason = "Physical count variance"

// RecordTally stores counted quantities next to the system stock. Stock is not
// touched until the tally is approved.
func (s *Service) RecordTally(ctx context.Context, input TallyInput) (StockTally, error) {
	if len(input.Counts) == 0 {
		return StockTally{}, ErrEmptyRequest
	}
	ids := make([]uuid.UUID, 0, len(input.Counts))
	seen := make(map[uuid.UUID]bool, len(input.Counts))
	for _, count := range input.Counts {
		if count.ProductID == uuid.Nil {
			return StockTally{}, ErrProductNotFound
		}
		if count.CountedQuantity < 0 {
			return StockTally{}, ErrInvalidQuantity
		}
		if seen[count.ProductID] {
			return StockTally{}, ErrDuplicateProduct
		}
		seen[count.ProductID] = true
		ids = append(ids, count.ProductID)
	}

	var tally StockTally
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		products, err := lockProducts(ctx, tx, ids)
		if err != nil {
			return err
		}
		items := make([]TallyItem, 0, len(input.Counts))
		var total int64
		for _, count := range input.Counts {
			item := TallyItem{
				ProductID:       count.ProductID,
				SystemQuantity:  products[count.ProductID].CurrentStock,
				CountedQuantity: count.CountedQuantity,
			}
			if v := item.Variance(); v != 0 {
				item.VarianceReason = count.Reason
				if item.VarianceReason == "" {
					item.VarianceReason = defaultVarianceReason
				}
				total += absInt(v)
			}
			items = append(items, item)
		}
		tally, err = tx.InsertTally(ctx, StockTally{
			Number:        s.documentNumber("TALLY"),
			Date:          s.today(),
			Location:      input.Location,
			Status:        TallyCompleted,
			TotalVariance: total,
			Notes:         input.Notes,
			CountedBy:     input.CountedBy,
			Items:         items,
		})
		return err
	})
	if err != nil {
		return StockTally{}, err
	}
	return tally, nil
}

// GetTally loads a stock tally with its items.
func (s *Service) GetTally(ctx context.Context, id uuid.UUID) (StockTally, error) {
	return s.repo.GetTally(ctx, id)
}

// ApproveTally sets every counted product to its counted quantity, posting one
// adjustment per product that differs from the stock at approval time. When a
// correction fails validation nothing is applied and the rejection is returned
// without error.
func (s *Service) ApproveTally(ctx context.Context, id uuid.UUID, approver *uuid.UUID) (TallyApproval, error) {
	type correction struct {
		product Product
		delta   int64
		check   calculator.TransactionValidation
	}

	var (
		result  TallyApproval
		changes []stockChange
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		result, changes = TallyApproval{}, nil
		tally, err := tx.GetTallyForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if tally.Status == TallyApproved {
			return ErrTallyApproved
		}
		result.Tally = tally

		ids := make([]uuid.UUID, 0, len(tally.Items))
		for _, item := range tally.Items {
			ids = append(ids, item.ProductID)
		}
		products, err := lockProducts(ctx, tx, ids)
		if err != nil {
			return err
		}

		corrections := make([]correction, 0, len(tally.Items))
		for _, item := range tally.Items {
			product := products[item.ProductID]
			delta := item.CountedQuantity - product.CurrentStock
			if delta == 0 {
				continue
			}
			direction, quantity := calculator.DirectionIn, delta
			if delta < 0 {
				direction, quantity = calculator.DirectionOut, -delta
			}
			check := s.calc.ValidateTransaction(product.CurrentStock, quantity, direction)
			if !check.Valid {
				result.Rejection = &StockRejection{ProductID: product.ID, Validation: check}
				return nil
			}
			corrections = append(corrections, correction{product: product, delta: delta, check: check})
		}

		for _, c := range corrections {
			if err := tx.UpdateStock(ctx, c.product.ID, c.check.NewStock); err != nil {
				return err
			}
			movement, err := tx.InsertMovement(ctx, Movement{
				ProductID:     c.product.ID,
				Type:          TransactionTypeAdjustment,
				Quantity:      c.delta,
				PreviousStock: c.product.CurrentStock,
				NewStock:      c.check.NewStock,
				ReferenceType: ReferenceStockTally,
				ReferenceID:   &tally.ID,
				Notes:         "Stock tally " + tally.Number,
				CreatedBy:     approver,
			})
			if err != nil {
				return err
			}
			result.Movements = append(result.Movements, movement)
			changes = append(changes, stockChange{product: c.product, movement: movement})
		}

		at := s.now().UTC()
		if err := tx.ApproveTally(ctx, tally.ID, approver, at); err != nil {
			return err
		}
		result.Tally.Status = TallyApproved
		result.Tally.ApprovedBy = approver
		result.Tally.ApprovedAt = &at
		return nil
	})
	if err != nil {
		return TallyApproval{}, err
	}
	if result.Movements == nil {
		result.Movements = []Movement{}
	}
	s.stockChanged(ctx, changes)
	return result, nil
}

func absInt(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
