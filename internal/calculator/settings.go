package calculator

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrInvalidSettings indicates a policy value that cannot drive the calculator.
var ErrInvalidSettings = errors.New("calculator: invalid settings")

// Settings groups the policy constants used by every calculation.
type Settings struct {
	// TaxRate is applied to the subtotal of orders and sales.
	TaxRate decimal.Decimal
	// SafetyStockDays is the number of days of demand held as buffer.
	SafetyStockDays int64
	// DefaultLeadTimeDays is used when a reorder request omits lead time.
	DefaultLeadTimeDays int64
	// ReorderGranularity rounds suggested order quantities up to this multiple.
	ReorderGranularity int64
	// OverstockDays is the days-of-cover boundary above which stock should be reduced.
	OverstockDays int64
	// MaxStock caps the stock level a transaction may produce.
	MaxStock int64
	// Precision is the number of fraction digits kept on reported values.
	Precision int32
}

// DefaultSettings returns the stock policy used by the application.
func DefaultSettings() Settings {
	return Settings{
		TaxRate:             decimal.NewFromFloat(0.10),
		SafetyStockDays:     3,
		DefaultLeadTimeDays: 7,
		ReorderGranularity:  10,
		OverstockDays:       90,
		MaxStock:            100000,
		Precision:           2,
	}
}

// Validate checks the settings are usable.
func (s Settings) Validate() error {
	switch {
	case s.TaxRate.IsNegative():
		return fmt.Errorf("%w: tax rate must be >= 0", ErrInvalidSettings)
	case s.SafetyStockDays < 0:
		return fmt.Errorf("%w: safety stock days must be >= 0", ErrInvalidSettings)
	case s.DefaultLeadTimeDays < 0:
		return fmt.Errorf("%w: default lead time must be >= 0", ErrInvalidSettings)
	case s.ReorderGranularity <= 0:
		return fmt.Errorf("%w: reorder granularity must be > 0", ErrInvalidSettings)
	case s.OverstockDays <= 0:
		return fmt.Errorf("%w: overstock days must be > 0", ErrInvalidSettings)
	case s.MaxStock <= 0:
		return fmt.Errorf("%w: max stock must be > 0", ErrInvalidSettings)
	case s.Precision < 0:
		return fmt.Errorf("%w: precision must be >= 0", ErrInvalidSettings)
	}
	return nil
}
