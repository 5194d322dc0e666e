package calculator

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

const unboundedLiteral = "unbounded"

// Days is a day count that is either finite or unbounded. The zero value is
// a finite zero.
type Days struct {
	value     decimal.Decimal
	unbounded bool
}

// Finite builds a bounded day count.
func Finite(d decimal.Decimal) Days {
	return Days{value: d}
}

// Unbounded represents stock that never runs out at the current velocity.
func Unbounded() Days {
	return Days{unbounded: true}
}

// IsUnbounded reports whether d has no finite value.
func (d Days) IsUnbounded() bool {
	return d.unbounded
}

// Value returns the finite value and false when d is unbounded.
func (d Days) Value() (decimal.Decimal, bool) {
	if d.unbounded {
		return decimal.Zero, false
	}
	return d.value, true
}

// Equal compares two day counts.
func (d Days) Equal(other Days) bool {
	if d.unbounded || other.unbounded {
		return d.unbounded == other.unbounded
	}
	return d.value.Equal(other.value)
}

// GreaterThan reports d > n. Unbounded is greater than any number.
func (d Days) GreaterThan(n decimal.Decimal) bool {
	if d.unbounded {
		return true
	}
	return d.value.GreaterThan(n)
}

// Format renders the value with fixed fraction digits, or "Infinity".
func (d Days) Format(places int32) string {
	if d.unbounded {
		return "Infinity"
	}
	return roundHalfUp(d.value, places).StringFixed(places)
}

func (d Days) String() string {
	if d.unbounded {
		return unboundedLiteral
	}
	return d.value.String()
}

// MarshalJSON encodes finite values as numbers and unbounded as a string.
func (d Days) MarshalJSON() ([]byte, error) {
	if d.unbounded {
		return json.Marshal(unboundedLiteral)
	}
	return []byte(d.value.String()), nil
}

// UnmarshalJSON accepts a number or the "unbounded" literal.
func (d *Days) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte(`"`+unboundedLiteral+`"`)) {
		*d = Unbounded()
		return nil
	}
	var v decimal.Decimal
	if err := v.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("calculator: invalid days value %s: %w", data, err)
	}
	*d = Finite(v)
	return nil
}
